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

package fixclient

import (
	"strconv"
	"strings"
	"time"

	"github.com/Charliesj0129/shijim/internal/builder"
	"github.com/Charliesj0129/shijim/internal/constants"

	"github.com/quickfixgo/quickfix"
	"go.uber.org/zap"
)

func (a *FixApp) sendUnsubscribeBySymbol(symbol string) {
	subscriptions := a.TradeStore.GetSubscriptionStatus()

	var symbolSubs []*Subscription
	for _, sub := range subscriptions {
		if sub.Symbol == symbol {
			symbolSubs = append(symbolSubs, sub)
		}
	}

	if len(symbolSubs) == 0 {
		a.Logger.Debug("no active subscriptions found", zap.String("symbol", symbol))
		return
	}

	if len(symbolSubs) > 1 {
		a.Logger.Info("unsubscribing from multiple subscriptions",
			zap.String("symbol", symbol), zap.Int("count", len(symbolSubs)))
	}

	for _, sub := range symbolSubs {
		msg := builder.BuildMarketDataRequest(
			sub.MdReqId,
			[]string{symbol},
			constants.SubscriptionRequestTypeUnsubscribe,
			"0",
			a.Config.SenderCompId,
			a.Config.TargetCompId,
			[]string{constants.MdEntryTypeTrade},
		)

		if err := quickfix.Send(msg); err != nil {
			a.Logger.Warn("error sending unsubscribe request", zap.String("md_req_id", sub.MdReqId), zap.Error(err))
		} else {
			a.Logger.Info("unsubscribe request sent", zap.String("symbol", symbol), zap.String("md_req_id", sub.MdReqId))
			a.TradeStore.RemoveSubscriptionByReqId(sub.MdReqId)
		}
	}
}

func (a *FixApp) sendUnsubscribeByReqId(reqId string) {
	subscriptions := a.TradeStore.GetSubscriptionStatus()

	sub, exists := subscriptions[reqId]
	if !exists {
		a.Logger.Debug("no active subscription found", zap.String("md_req_id", reqId))
		return
	}

	msg := builder.BuildMarketDataRequest(
		reqId,
		[]string{sub.Symbol},
		constants.SubscriptionRequestTypeUnsubscribe,
		"0",
		a.Config.SenderCompId,
		a.Config.TargetCompId,
		[]string{constants.MdEntryTypeTrade},
	)

	if err := quickfix.Send(msg); err != nil {
		a.Logger.Warn("error sending unsubscribe request", zap.String("md_req_id", reqId), zap.Error(err))
	} else {
		a.Logger.Info("unsubscribe request sent", zap.String("symbol", sub.Symbol), zap.String("md_req_id", reqId))
		a.TradeStore.RemoveSubscriptionByReqId(reqId)
	}
}

func (a *FixApp) sendMarketDataRequest(symbols []string, subscriptionType, description string) {
	a.sendMarketDataRequestWithOptions(symbols, subscriptionType, "0", []string{constants.MdEntryTypeTrade}, description)
}

func (a *FixApp) sendMarketDataRequestWithOptions(symbols []string, subscriptionType, marketDepth string, entryTypes []string, description string) {
	// Use strconv instead of fmt.Sprintf for simple int formatting (faster)
	reqId := "md_" + strconv.FormatInt(time.Now().UnixNano(), 10)

	if subscriptionType == constants.SubscriptionRequestTypeSubscribe {
		for _, symbol := range symbols {
			a.TradeStore.AddSubscription(symbol, subscriptionType, reqId)
		}
	}

	msg := builder.BuildMarketDataRequest(
		reqId,
		symbols,
		subscriptionType,
		marketDepth,
		a.Config.SenderCompId,
		a.Config.TargetCompId,
		entryTypes,
	)

	if err := quickfix.Send(msg); err != nil {
		a.Logger.Warn("error sending market data request", zap.Strings("symbols", symbols), zap.Error(err))
		for _, symbol := range symbols {
			a.TradeStore.RemoveSubscription(symbol)
		}
	} else {
		entryTypeNames := make([]string, len(entryTypes))
		for i, et := range entryTypes {
			entryTypeNames[i] = getMdEntryTypeName(et)
		}
		a.Logger.Info("market data request sent",
			zap.String("description", description),
			zap.Strings("symbols", symbols),
			zap.String("market_depth", marketDepth),
			zap.String("entry_types", strings.Join(entryTypeNames, ", ")),
			zap.String("md_req_id", reqId))
	}
}
