package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"live-elo/internal/batch"
	"live-elo/internal/broadcast"
	"live-elo/internal/config"
	"live-elo/internal/fanout"
	"live-elo/internal/guard"
	"live-elo/internal/leaderboard"
	"live-elo/internal/logging"
	"live-elo/internal/message"
	"live-elo/internal/metrics"
	"live-elo/internal/mux"
	"live-elo/internal/pipeline"
	"live-elo/internal/scoring"
	"live-elo/internal/source/stdin"
	"live-elo/internal/standard"
	"live-elo/internal/ws"
)

const ingestChannelCapacity = 10_000

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() // nolint:errcheck

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		logger.Sugar().Infof(format, args...)
	})); err != nil {
		logger.Warn("failed to set GOMAXPROCS", zap.Error(err))
	}

	logger.Info("starting live-elo", zap.String("channel", cfg.ChannelName), zap.Strings("leaderboards", cfg.Leaderboards))

	metricsRegistry := metrics.NewRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eloConfig := leaderboard.EloConfig{
		K:              cfg.Elo.K,
		OpponentBudget: cfg.Elo.OpponentBudget,
		StartingElo:    cfg.Elo.StartingElo,
	}

	base := make(map[leaderboard.LeaderboardName]leaderboard.LeaderboardElos, len(cfg.Leaderboards))
	for _, name := range cfg.Leaderboards {
		base[leaderboard.LeaderboardName(name)] = nil
	}
	store := leaderboard.NewSharedHandle(base, eloConfig, metricsRegistry)

	var wg sync.WaitGroup

	incoming := make(chan leaderboard.IngestedPerformance, ingestChannelCapacity)
	batched := make(chan batch.FullBatchedPerformances, 64)

	coalescer := batch.New(incoming, batched)
	wg.Add(1)
	go func() {
		defer wg.Done()
		coalescer.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case b, ok := <-batched:
				if !ok {
					return
				}
				flat := b.Flatten()
				store.PushChanges(flat)
				metricsRegistry.PerformanceIngested.Add(float64(len(flat)))
			case <-ctx.Done():
				return
			}
		}
	}()

	fanoutBuilder := fanout.NewBuilder[message.Message](logger).WithDropLogger(fanoutDropLogger{metricsRegistry})
	for i, name := range cfg.Leaderboards {
		leaderboardName := leaderboard.LeaderboardName(name)
		var exporter leaderboard.Exporter = batch.NewChannelExporter(leaderboardName, incoming)
		if i == 0 {
			// The primary leaderboard also gets a direct, unbatched write
			// to the shared store alongside the coalesced one, mirroring
			// the reference server's consumer registered directly against
			// its rating table rather than only through its batch queue.
			exporter = leaderboard.PairExporters(exporter, store.ConsumerFor(leaderboardName))
		}
		fanoutBuilder.AddProcessor(standard.New(scoring.NewMessageCountScoring(), exporter))
	}
	fanoutProcessor := fanoutBuilder.Build(ctx)

	muxBuilder := mux.NewTaskSourceBuilder[message.Message](logger)
	muxBuilder.AddSource(mux.NewCancellableSource[message.Message](stdin.New(os.Stdin, logger)))
	taskSource := muxBuilder.Build(ctx)

	pipe := pipeline.New[message.Message](taskSource, pipeline.NewAcceptAllFilter[message.Message](), fanoutProcessor)
	pipelineDone := make(chan struct{})
	go func() {
		defer close(pipelineDone)
		pipe.Run(ctx)
	}()

	var resourceGuard *guard.ResourceGuard
	if cfg.Guard.Enabled {
		resourceGuard = guard.New(cfg.Guard.BroadcastsPerSecond, cfg.Guard.Burst)
	}

	hub := ws.NewHub(cfg.WebSocket.ShardCount, cfg.WebSocket.BroadcastQueueSize, metricsRegistry)
	wsServer := ws.NewServer(cfg.WebSocket.Host, cfg.WebSocket.Port, cfg.WebSocket.Path, hub, metricsRegistry, logger)
	if err := wsServer.Start(ctx); err != nil {
		logger.Fatal("websocket transport start failed", zap.Error(err))
	}

	broadcastLoop := broadcast.NewLoop(store, hub, resourceGuard, metricsRegistry, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		broadcastLoop.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		reportCPU(ctx, metricsRegistry)
	}()

	httpErrCh := make(chan error, 1)
	go func() {
		httpErrCh <- runHTTPServer(ctx, cfg, hub, metricsRegistry, logger)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-httpErrCh:
		if err != nil {
			logger.Error("http server error", zap.Error(err))
		}
		stop()
	}

	wsServer.Stop()

	<-pipelineDone
	pipe.Close(ctx)

	wg.Wait()

	logger.Info("live-elo stopped")
}

// reportCPU samples best-effort host-wide CPU usage every tick and
// feeds it to the ProcessCPUPercent gauge.
func reportCPU(ctx context.Context, registry *metrics.Registry) {
	ticker := time.NewTicker(broadcast.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			registry.ProcessCPUPercent.Set(guard.CPUPercent(ctx))
		case <-ctx.Done():
			return
		}
	}
}

type fanoutDropLogger struct {
	registry *metrics.Registry
}

func (d fanoutDropLogger) MessageDropped(int) {
	d.registry.FanoutMessagesDropped.Inc()
}

func runHTTPServer(ctx context.Context, cfg config.Config, hub *ws.Hub, metricsRegistry *metrics.Registry, logger *zap.Logger) error {
	httpMux := http.NewServeMux()

	httpMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
			"clients":   hub.ClientCount(),
		})
	})

	httpMux.Handle(cfg.Metrics.Endpoint, metricsRegistry.Handler())

	httpServer := &http.Server{
		Addr:         cfg.Metrics.ListenAddr,
		Handler:      httpMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics http server starting", zap.String("addr", cfg.Metrics.ListenAddr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics http server shutdown error", zap.Error(err))
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
