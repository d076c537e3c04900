package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"github.com/obsidianstack/framewatch/internal/api"
	"github.com/obsidianstack/framewatch/internal/auth"
	"github.com/obsidianstack/framewatch/internal/config"
	"github.com/obsidianstack/framewatch/internal/exporter"
	"github.com/obsidianstack/framewatch/internal/logging"
	"github.com/obsidianstack/framewatch/internal/monitor"
	"github.com/obsidianstack/framewatch/internal/shipper"
	"github.com/obsidianstack/framewatch/internal/sink"
	"github.com/obsidianstack/framewatch/internal/store"
	"github.com/obsidianstack/framewatch/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	envFile := flag.String("env", ".env", "optional dotenv file loaded before the config")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "framewatch: load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "framewatch: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "framewatch: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	slog.Info("framewatch starting",
		"config", *configPath,
		"pipelines", len(cfg.Pipelines),
		"http_port", cfg.HTTP.Port,
		"shipper_endpoint", cfg.Shipper.Endpoint,
		"collector_listen", cfg.Collector.Listen,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	engine := monitor.New(
		monitor.WithPollInterval(cfg.Monitor.PollInterval),
		monitor.WithHeartbeatInterval(cfg.Monitor.HeartbeatInterval),
		monitor.WithLogger(logger),
	)
	registerPipelines(engine, cfg)

	// Latest-state store with background TTL eviction.
	st := store.New(cfg.Store.TTL)
	go st.Run(ctx)

	hub := ws.New(engine, st, cfg.HTTP.BroadcastInterval)
	go hub.Run(ctx)

	var ship *shipper.Shipper
	if cfg.Shipper.Endpoint != "" {
		host, _ := os.Hostname()
		ship = shipper.New(cfg.Shipper, host)
		go ship.Run(ctx)
	}

	sinks := []monitor.Reporter{sink.Log(logger), st.Report, hub.Report}
	if ship != nil {
		sinks = append(sinks, ship.Ship)
	}
	engine.SetReporter(sink.Fanout(sinks...))
	engine.Start()

	// Re-register pipelines on config change. Engine timing and listeners
	// keep their startup values.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			registerPipelines(engine, updated)
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	grpcSrv, err := startCollector(cfg.Collector, st)
	if err != nil {
		slog.Error("failed to start collector", "listen", cfg.Collector.Listen, "err", err)
		os.Exit(1)
	}

	var httpSrv *http.Server
	if cfg.HTTP.Port != 0 {
		httpSrv = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
			Handler:           newHTTPHandler(cfg.HTTP, engine, st, hub),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("HTTP server listening", "port", cfg.HTTP.Port)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("HTTP server stopped", "err", err)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("framewatch shutting down")

	if httpSrv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
		done()
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	engine.Stop()
}

// registerPipelines upserts every configured pipeline.
func registerPipelines(engine *monitor.Engine, cfg *config.Config) {
	for _, p := range cfg.Pipelines {
		engine.RegisterPipeline(p.Info())
	}
	if len(cfg.Pipelines) == 0 {
		slog.Warn("no pipelines configured; intake signals will be dropped")
	}
}

// newHTTPHandler mounts the REST API, the WebSocket hub and /metrics.
func newHTTPHandler(cfg config.HTTPConfig, engine api.Engine, st *store.Store, hub *ws.Hub) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", api.New(engine, st, auth.Middleware(cfg.Auth)))
	mux.Handle("/ws/stream", hub)
	mux.Handle("/metrics", exporter.New(st))
	return mux
}

// startCollector serves ReportService for shipped batches when configured.
// Returns a nil server when collector.listen is empty.
func startCollector(cfg config.CollectorConfig, st *store.Store) (*grpc.Server, error) {
	if cfg.Listen == "" {
		return nil, nil
	}
	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("collector: listen: %w", err)
	}

	srv := grpc.NewServer(grpc.UnaryInterceptor(auth.APIKeyInterceptor(cfg.Auth)))
	shipper.RegisterReportServiceServer(srv, shipper.NewReceiver(st.Report))

	go func() {
		slog.Info("gRPC collector listening", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil {
			slog.Error("gRPC collector stopped", "err", err)
		}
	}()
	return srv, nil
}
