package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"chain-sentinel/internal/config"
	"chain-sentinel/internal/detect"
	"chain-sentinel/internal/engine"
	"chain-sentinel/internal/ingestion"
	"chain-sentinel/internal/observability"
	"chain-sentinel/internal/sink"
	chstore "chain-sentinel/internal/storage/clickhouse"
	"chain-sentinel/internal/storage/memory"
	pgstore "chain-sentinel/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML config file")
	feedEndpoint := flag.String("feed-endpoint", "", "WebSocket transaction feed endpoint")
	kafkaBrokers := flag.String("kafka-brokers", "", "Comma-separated Kafka brokers for the signal bus")
	kafkaTopic := flag.String("kafka-topic", "", "Kafka topic for emitted signals")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for the signal store")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for the signal archive")
	useMemory := flag.Bool("use-memory", false, "Use an in-memory signal store instead of PostgreSQL")
	windowSize := flag.Int("window-size", 0, "Retained distinct block numbers (default from config)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty uses config)")

	flag.Parse()

	logger := log.New(os.Stdout, "[engine] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	applyFlags(cfg, *feedEndpoint, *kafkaBrokers, *kafkaTopic, *postgresDSN, *clickhouseDSN, *windowSize, *metricsAddr)

	if cfg.Feed.Endpoint == "" {
		logger.Fatal("No transaction feed specified. Use --feed-endpoint or the config file")
	}

	detectCfg, err := cfg.DetectConfig()
	if err != nil {
		logger.Fatalf("Invalid detector config: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	metrics := observability.NewMetrics("")

	// Assemble the signal sinks
	signalSink, cleanup, err := buildSink(ctx, cfg, *useMemory, logger)
	if err != nil {
		logger.Fatalf("Failed to build signal sink: %v", err)
	}
	defer cleanup()

	source := ingestion.NewWSFeedSource(cfg.Feed.Endpoint, nil, logger)
	defer source.Close()

	dispatcher := engine.NewDispatcher(engine.DispatcherOptions{
		WindowSize:     cfg.Engine.WindowSize,
		Detectors:      detect.NewSet(detectCfg),
		Sink:           signalSink,
		Source:         source,
		OutboundBuffer: cfg.Engine.OutboundBuffer,
		Logger:         logger,
		Metrics:        metrics,
	})

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return dispatcher.Run(groupCtx)
	})

	if cfg.Engine.MetricsAddr != "" {
		group.Go(func() error {
			return serveMetrics(groupCtx, cfg.Engine.MetricsAddr, logger)
		})
	}

	err = group.Wait()
	close(done)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Engine exited with error: %v", err)
	}
	logger.Println("Engine stopped")
}

// applyFlags overrides config-file values with non-empty flag values.
func applyFlags(cfg *config.Config, feed, brokers, topic, pgDSN, chDSN string, windowSize int, metricsAddr string) {
	if feed != "" {
		cfg.Feed.Endpoint = feed
	}
	if brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	if topic != "" {
		cfg.Kafka.Topic = topic
	}
	if pgDSN != "" {
		cfg.Storage.PostgresDSN = pgDSN
	}
	if chDSN != "" {
		cfg.Storage.ClickHouseDSN = chDSN
	}
	if windowSize > 0 {
		cfg.Engine.WindowSize = windowSize
	}
	if metricsAddr != "" {
		cfg.Engine.MetricsAddr = metricsAddr
	}
}

// buildSink assembles the configured sinks: Kafka bus, Postgres or
// in-memory store, ClickHouse archive. With nothing configured, signals
// go to the log.
func buildSink(ctx context.Context, cfg *config.Config, useMemory bool, logger *log.Logger) (sink.Sink, func(), error) {
	var sinks []sink.Sink
	var closers []func()

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := sink.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, nil)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		sinks = append(sinks, kafkaSink)
		closers = append(closers, func() { kafkaSink.Close() })
		logger.Printf("Publishing signals to Kafka topic %s", cfg.Kafka.Topic)
	}

	switch {
	case useMemory:
		sinks = append(sinks, sink.NewStoreSink(memory.NewSignalStore()))
		logger.Println("Using in-memory signal store")
	case cfg.Storage.PostgresDSN != "":
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		store := pgstore.NewSignalStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			cleanup()
			return nil, nil, err
		}
		sinks = append(sinks, sink.NewStoreSink(store))
		closers = append(closers, pool.Close)
		logger.Println("Persisting signals to PostgreSQL")
	}

	if cfg.Storage.ClickHouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickHouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		archive := chstore.NewSignalArchive(conn)
		if err := archive.EnsureSchema(ctx); err != nil {
			conn.Close()
			cleanup()
			return nil, nil, err
		}
		archiveSink := sink.NewArchiveSink(archive, 0)
		sinks = append(sinks, archiveSink)
		closers = append(closers, func() {
			archiveSink.Close()
			logArchiveTotals(archive, logger)
			conn.Close()
		})
		logger.Println("Archiving signals to ClickHouse")
	}

	if len(sinks) == 0 {
		return sink.NewLogSink(logger), cleanup, nil
	}
	if len(sinks) == 1 {
		return sinks[0], cleanup, nil
	}
	return sink.NewMultiSink(sinks...), cleanup, nil
}

// logArchiveTotals reports per-kind archived signal counts on shutdown.
func logArchiveTotals(archive *chstore.SignalArchive, logger *log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := archive.CountByKind(ctx)
	if err != nil {
		logger.Printf("Failed to read archive totals: %v", err)
		return
	}
	for kind, count := range counts {
		logger.Printf("Archive total %s: %d", kind, count)
	}
}

// serveMetrics runs the Prometheus endpoint until the context ends.
func serveMetrics(ctx context.Context, addr string, logger *log.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Printf("Starting metrics server on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
