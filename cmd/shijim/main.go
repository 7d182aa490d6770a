// Command shijim is the pipeline's composition root: it loads
// configuration, wires the event bus, persistence writers, ingestion
// worker, broker gateway, execution manager, risk gate, and feature
// pipeline together, then runs until signaled to stop.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Charliesj0129/shijim/internal/bus"
	"github.com/Charliesj0129/shijim/internal/config"
	"github.com/Charliesj0129/shijim/internal/database"
	"github.com/Charliesj0129/shijim/internal/execution"
	"github.com/Charliesj0129/shijim/internal/features"
	"github.com/Charliesj0129/shijim/internal/fixclient"
	"github.com/Charliesj0129/shijim/internal/gateway"
	"github.com/Charliesj0129/shijim/internal/ingest"
	"github.com/Charliesj0129/shijim/internal/observability"
	"github.com/Charliesj0129/shijim/internal/recorder/columnar"
	"github.com/Charliesj0129/shijim/internal/recorder/raw"
	"github.com/Charliesj0129/shijim/internal/ringbuffer"
	"github.com/Charliesj0129/shijim/internal/risk"
	"github.com/Charliesj0129/shijim/internal/sbe"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quickfixgo/quickfix"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "shijim:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(os.Getenv("SHIJIM_ENV") == "production")
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	metrics := observability.New(reg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	eventBus := bus.NewQueueBus(cfg.BusMaxQueue, logger)
	metrics.WireBus(eventBus)
	go metrics.PollQueueDepth(ctx, eventBus, []bus.Topic{bus.TopicAll}, time.Second)

	rawWriter := raw.New(cfg.RawDir, 0, 0, logger)
	defer rawWriter.Close()
	metrics.WireRawWriter(rawWriter)

	chClient := &columnar.HTTPClient{
		BaseURL:            cfg.CHURL,
		HTTP:               &http.Client{Timeout: 10 * time.Second},
		AsyncInsert:        cfg.CHAsyncInsert,
		WaitForAsyncInsert: cfg.CHAsyncWait,
	}
	chFallback := columnar.NewJSONLFallback(cfg.FallbackDir)
	chWriter := columnar.New(
		chClient,
		chFallback,
		cfg.CHFlushThreshold,
		time.Duration(cfg.CHFlushIntervalSec)*time.Second,
		columnar.DefaultRetryConfig(),
		logger,
	)
	go metrics.PollColumnarState(ctx, chWriter, time.Second)

	staging, err := database.NewStagingStore(cfg.StagingDBPath)
	if err != nil {
		return fmt.Errorf("open staging store: %w", err)
	}
	defer staging.Close()

	restorer := database.NewRestorer(cfg.FallbackDir, staging, chWriter, logger)
	go runRestoreLoop(ctx, restorer, time.Duration(cfg.RestoreIntervalSec)*time.Second, logger)

	ingestCfg := ingest.DefaultConfig()
	worker, err := ingest.New(eventBus, []ingest.WriterBackend{rawWriter, chWriter}, ingestCfg, logger)
	if err != nil {
		return fmt.Errorf("build ingestion worker: %w", err)
	}
	metrics.WireIngestWorker(worker)
	defer worker.Close()
	go worker.Run()
	defer worker.Stop()

	bk, err := buildBroker(logger)
	if err != nil {
		return fmt.Errorf("build broker connectivity: %w", err)
	}
	defer bk.initiator.Stop()
	defer bk.pool.LogoutAll()

	bk.app.Publish = eventBus.PublishMany

	execManager := execution.NewManager(bk.senderCompId, bk.targetCompId, bk.account, logger)
	bk.app.OnExecutionReport = execManager.OnExecutionReport

	riskGate := risk.NewGate(execManager, cfg.Risk, 0, 1000, logger)
	go metrics.DrainRejections(ctx, riskGate)

	// Feature pipeline: the bus consumer driving OFI/VPIN/Hawkes off live
	// MD_TICK/MD_BOOK traffic, also feeding the risk gate's fat-finger
	// reference price from the last traded price.
	featurePipeline := features.NewPipeline(cfg.VPINConfig(), cfg.HawkesConfig(), riskGate.UpdateMarketPrice, logger)
	go featurePipeline.Run(ctx, eventBus, time.Second)

	// Ring-buffer/SBE fast path: optional, since not every deployment has
	// a shared-memory feed alongside the FIX session.
	if cfg.RingBufferPath != "" {
		region, err := ringbuffer.Attach(cfg.RingBufferPath, cfg.RingBufferCapacity)
		if err != nil {
			return fmt.Errorf("attach ring buffer: %w", err)
		}
		defer region.Close()

		ingestor := sbe.NewIngestor(ringbuffer.NewReader(region), eventBus.PublishMany, time.Duration(cfg.RingBufferPollMs)*time.Millisecond, logger)
		go func() {
			if err := ingestor.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("ring buffer ingestor exited", zap.Error(err))
			}
		}()
	}

	bk.pool.LoginAll(time.Duration(cfg.StartupJitterSec)*time.Second, 2*time.Duration(cfg.StartupJitterSec+1)*time.Second)

	// Universe ranking/scanning is an external process; the
	// composition root only owns distributing
	// whatever plan that process produces across the session pool.
	// With none wired up yet, subscribe an empty plan so the manager
	// is live and ready for a future universe-provider to drive.
	sub := gateway.NewSubscriptionManager(bk.pool, bk.filter, nil, logger)
	sub.SubscribeUniverse(gateway.SubscriptionPlan{})
	defer sub.UnsubscribeAll()

	metricsSrv := &http.Server{Addr: ":9090", Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server exited", zap.Error(err))
		}
	}()

	shard := cfg.ShardConfig()
	logger.Info("shijim pipeline started",
		zap.Uint32("shard_id", shard.ShardID),
		zap.Uint32("total_shards", shard.TotalShards))

	<-ctx.Done()
	logger.Info("shijim pipeline shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return metricsSrv.Shutdown(shutdownCtx)
}

// brokerConn groups the broker-connectivity pieces that need to stay
// alive together for the process lifetime.
type brokerConn struct {
	initiator    *quickfix.Initiator
	pool         *gateway.ConnectionPool
	filter       *gateway.ContractFilter
	app          *fixclient.FixApp
	senderCompId string
	targetCompId string
	account      string
}

// buildBroker reads the FIX session identity straight from the
// environment rather than config.Config: these values are broker
// secrets (credentials, comp IDs), not tunables, so they stay out of
// the validated Config struct and are read directly at startup instead.
func buildBroker(logger *zap.Logger) (*brokerConn, error) {
	senderCompId := os.Getenv("SHIJIM_FIX_SENDER_COMP_ID")
	targetCompId := os.Getenv("SHIJIM_FIX_TARGET_COMP_ID")
	account := os.Getenv("SHIJIM_FIX_ACCOUNT")
	username := os.Getenv("SHIJIM_FIX_USERNAME")
	password := os.Getenv("SHIJIM_FIX_PASSWORD")

	settingsFile, err := os.Open(os.Getenv("SHIJIM_FIX_SETTINGS_PATH"))
	if err != nil {
		return nil, fmt.Errorf("open FIX settings: %w", err)
	}
	defer settingsFile.Close()
	settings, err := quickfix.ParseSettings(settingsFile)
	if err != nil {
		return nil, fmt.Errorf("parse FIX settings: %w", err)
	}

	appCfg := fixclient.NewConfig(username, password, account, senderCompId, targetCompId)
	app := fixclient.NewFixApp(appCfg, logger)

	initiator, err := quickfix.NewInitiator(app, quickfix.NewMemoryStoreFactory(), settings, quickfix.NewNullLogFactory())
	if err != nil {
		return nil, fmt.Errorf("construct FIX initiator: %w", err)
	}
	if err := initiator.Start(); err != nil {
		return nil, fmt.Errorf("start FIX initiator: %w", err)
	}

	pool := gateway.NewConnectionPool([]gateway.Session{fixclient.NewMDSession(app)}, logger)
	filter := gateway.NewContractFilter(logger)

	return &brokerConn{
		initiator:    initiator,
		pool:         pool,
		filter:       filter,
		app:          app,
		senderCompId: senderCompId,
		targetCompId: targetCompId,
		account:      account,
	}, nil
}

// runRestoreLoop drains the columnar fallback backlog into ClickHouse on
// a fixed interval, so an outage that forced writes to the JSONL fallback
// gets reconciled without operator intervention.
func runRestoreLoop(ctx context.Context, restorer *database.Restorer, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := restorer.Run(); err != nil {
				logger.Error("fallback restore pass failed", zap.Error(err))
			}
		}
	}
}
