/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
HOT PATH - Market Data Message Processing Flow

This documents the critical performance path for processing incoming FIX market data.
Each message triggers this sequence; optimizations here have the highest impact.

┌─────────────────────────────────────────────────────────────────────────────┐
│                           NETWORK LAYER                                      │
│                    (quickfix library handles TCP/FIX protocol)               │
└─────────────────────────────────────────────────────────────────────────────┘
                                     │
                                     ▼
┌─────────────────────────────────────────────────────────────────────────────┐
│ [1] FromApp() - fixapp.go                                        ENTRY POINT │
│     • Called by quickfix for every application-level message                 │
│     • Type check on MsgType header field (string comparison)                 │
│     • Routes to handleMarketDataMessage() for W/X message types              │
└─────────────────────────────────────────────────────────────────────────────┘
                                     │
                                     ▼
┌─────────────────────────────────────────────────────────────────────────────┐
│ [2] handleMarketDataMessage() - fixapp.go                        COORDINATOR │
│     • Extracts message metadata (symbol, reqId, seqNum)                      │
│     • Calls extractTrades() for parsing                                      │
│     • Calls normalizeAndPublish() to put events on the bus                   │
│     • Calls TradeStore.AddTrades() for the ad-hoc query cache                │
└─────────────────────────────────────────────────────────────────────────────┘
                                     │
                                     ▼
┌─────────────────────────────────────────────────────────────────────────────┐
│ [3] extractTrades() → extractTradesImproved() - parser.go            PARSER │
│     • Converts quickfix.Message to raw string (msg.String())                 │
│     • Calls findEntryBoundaries() to locate all 269= tags                    │
│     • Iterates entries, calls parseTradeFromSegmentFast() for each           │
└─────────────────────────────────────────────────────────────────────────────┘
                                     │
                                     ▼
┌─────────────────────────────────────────────────────────────────────────────┐
│ [4] normalizeAndPublish() - normalize_adapter.go                 NORMALIZE   │
│     • Converts Trade entries to MDTickEvent/MDBookEvent                      │
│     • Publishes onto the event bus for writers/features/strategy/risk       │
└─────────────────────────────────────────────────────────────────────────────┘
                                     │
                                     ▼
┌─────────────────────────────────────────────────────────────────────────────┐
│ [5] TradeStore.AddTrades() - tradestore.go (SECONDARY)               CACHE  │
│     • Ring buffer insertion: O(1) per trade, zero allocations                │
│     • Backs requests.go's subscription-status introspection only            │
└─────────────────────────────────────────────────────────────────────────────┘
*/

package fixclient

import (
	"time"

	"github.com/Charliesj0129/shijim/internal/builder"
	"github.com/Charliesj0129/shijim/internal/constants"
	"github.com/Charliesj0129/shijim/internal/events"
	"github.com/Charliesj0129/shijim/internal/utils"

	"github.com/quickfixgo/quickfix"
	"go.uber.org/zap"
)

// Config carries the broker-gateway logon identity for one FIX session.
type Config struct {
	Username     string
	Password     string
	Account      string
	SenderCompId string
	TargetCompId string
}

// FixApp is the quickfix.Application implementing the broker market-data
// session: logon/logout lifecycle, incoming market-data dispatch, and
// optional publishing of normalized events. It backs gateway.Session for
// real broker connections.
type FixApp struct {
	Config *Config
	Logger *zap.Logger

	SessionId  quickfix.SessionID
	TradeStore *TradeStore
	OrderStore *OrderStore

	// OnExecutionReport, when set, is invoked after OrderStore with every
	// parsed execution report, letting execution.Manager track broker
	// order state without FixApp importing the execution package (which
	// already imports fixclient for ExecutionReport).
	OnExecutionReport func(*ExecutionReport)

	// Publish, when set, receives every normalized tick/book event built
	// from an incoming market-data message. The composition root wires
	// this to an internal/bus Bus's PublishMany, keeping this package
	// free of a direct bus dependency (and import-cycle-free, since the
	// bus package doesn't need to know about FIX at all).
	Publish func([]events.Event)

	shouldExit    bool
	lastLogonTime time.Time
}

func NewConfig(username, password, account, senderCompId, targetCompId string) *Config {
	return &Config{
		Username:     username,
		Password:     password,
		Account:      account,
		SenderCompId: senderCompId,
		TargetCompId: targetCompId,
	}
}

func NewFixApp(config *Config, logger *zap.Logger) *FixApp {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FixApp{
		Config:     config,
		Logger:     logger,
		TradeStore: NewTradeStore(10000, "", logger),
		OrderStore: NewOrderStore(),
	}
}

func (a *FixApp) OnCreate(sid quickfix.SessionID) {
	a.SessionId = sid
}

func (a *FixApp) OnLogout(sid quickfix.SessionID) {
	a.Logger.Info("fix logout", zap.String("session", sid.String()))

	timeSinceLogon := time.Since(a.lastLogonTime)
	if timeSinceLogon < 5*time.Second || a.lastLogonTime.IsZero() {
		a.Logger.Warn("authentication failed, exiting to prevent reconnection loop")
		a.shouldExit = true
	}
}

func (a *FixApp) FromAdmin(_ *quickfix.Message, _ quickfix.SessionID) quickfix.MessageRejectError {
	return nil
}

func (a *FixApp) ToApp(_ *quickfix.Message, _ quickfix.SessionID) error {
	return nil
}

func (a *FixApp) OnLogon(sid quickfix.SessionID) {
	a.SessionId = sid
	a.lastLogonTime = time.Now()
	a.Logger.Info("fix logon established", zap.String("session", sid.String()))
}

func (a *FixApp) ToAdmin(msg *quickfix.Message, _ quickfix.SessionID) {
	if t, _ := msg.Header.GetString(constants.TagMsgType); t == constants.MsgTypeLogon {
		builder.BuildLogon(&msg.Body, a.Config.Username, a.Config.Password, a.Config.Account)
	}
}

// FromApp is the entry point for all application-level FIX messages.
// HOT PATH [1]: Called by quickfix for every incoming message.
func (a *FixApp) FromApp(msg *quickfix.Message, _ quickfix.SessionID) quickfix.MessageRejectError {
	t, _ := msg.Header.GetString(constants.TagMsgType)
	switch t {
	case constants.MsgTypeMarketDataSnapshot, constants.MsgTypeMarketDataIncremental:
		a.handleMarketDataMessage(msg)
	case constants.MsgTypeMarketDataReject:
		a.handleMarketDataReject(msg)
	case constants.MsgTypeExecutionReport:
		a.handleExecutionReport(msg)
	default:
		a.Logger.Debug("received application message", zap.String("msg_type", t))
	}
	return nil
}

func (a *FixApp) handleMarketDataReject(msg *quickfix.Message) {
	mdReqId := utils.GetString(msg, constants.TagMdReqId)
	rejReason := utils.GetString(msg, constants.TagMdReqRejReason)
	text := utils.GetString(msg, constants.TagText)

	a.Logger.Warn("market data request rejected",
		zap.String("md_req_id", mdReqId),
		zap.String("reason", getMdReqRejReasonDesc(rejReason)),
		zap.String("text", text))
	a.TradeStore.RemoveSubscriptionByReqId(mdReqId)
}

func (a *FixApp) ShouldExit() bool {
	return a.shouldExit
}

// handleMarketDataMessage processes market data snapshots and incremental updates.
// HOT PATH [2]: Coordinates parsing, storage, and logging of market data.
func (a *FixApp) handleMarketDataMessage(msg *quickfix.Message) {
	msgType, _ := msg.Header.GetString(constants.TagMsgType)
	mdReqId := utils.GetString(msg, constants.TagMdReqId)
	symbol := utils.GetString(msg, constants.TagSymbol)
	seqNum, _ := msg.Header.GetString(constants.TagMsgSeqNum)

	isSnapshot := msgType == constants.MsgTypeMarketDataSnapshot

	// HOT PATH [3]: Parse raw FIX message into Trade structs
	trades := a.extractTrades(msg, symbol, mdReqId, isSnapshot, seqNum)

	// HOT PATH [4]: normalize and publish onto the event bus — the
	// primary consumer path (writers, features, strategy, risk).
	a.normalizeAndPublish(trades, symbol, isSnapshot)

	// Secondary in-memory cache, retained for requests.go's subscription
	// introspection and ad-hoc querying; the legacy SQLite mirror this
	// used to feed alongside (storeTradesToDatabase) is retired now that
	// normalizeAndPublish above is the primary consumer of every parsed
	// entry and the raw/columnar writers durably persist it.
	a.TradeStore.AddTrades(symbol, trades, isSnapshot, mdReqId)
}
