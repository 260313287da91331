// Command gtasyncd serves the GTA store over HTTP, fetching missing elements
// from the configured source and fanning events out over redis.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"gtasync/internal/adapters/httpapi"
	"gtasync/internal/adapters/loader"
	"gtasync/internal/config"
	"gtasync/internal/core"
	"gtasync/internal/infra/metrics/prometheus"
	redisnotify "gtasync/internal/infra/notify/redis"
	"gtasync/internal/logging"
	"gtasync/internal/source"
)

var exitFunc = os.Exit

func main() {
	exitFunc(cli(os.Args[1:], os.Stdout, os.Stderr))
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gtasyncd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		envFile string
		check   bool
	)
	fs.StringVar(&envFile, "env", ".env", "optional dotenv file read before the environment")
	fs.BoolVar(&check, "check", false, "validate configuration and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "configuration: %v\n", err)
		return 1
	}
	if check {
		_, _ = fmt.Fprintf(stdout, "configuration ok (source=%s, redis=%t)\n", cfg.Source.Driver, cfg.Redis.Enabled)
		return 0
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logging.ParseLevel(cfg.LogLevel)}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("gtasyncd stopped", "error", err)
		return 1
	}
	return 0
}

// app is the wired process minus the listener.
type app struct {
	svc     *core.Service
	handler http.Handler
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	recorder := prometheus.NewRecorder(cfg.Metrics.Namespace)
	svc := core.NewInMemoryService(
		core.WithLogger(logger),
		core.WithMetricsRecorder(recorder),
	)
	a := &app{svc: svc}

	fetcher, err := source.Open(ctx, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("open element source: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("close element source", "error", err)
		}
	})

	if cfg.Redis.Enabled {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			a.close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		notifier, err := redisnotify.New(ctx, rdb, cfg.Redis.Channel,
			redisnotify.WithBuffer(cfg.Redis.Buffer),
			redisnotify.WithLogger(logger),
		)
		if err != nil {
			a.close()
			return nil, err
		}
		notifier.Attach(svc)
		a.closers = append(a.closers, notifier.Close)
	}

	a.handler = httpapi.New(svc, logger,
		httpapi.WithLoader(loader.New(svc, fetcher, logger)),
		httpapi.WithMetricsHandler(recorder.Handler()),
	)
	logger.Info("store ready",
		"source", string(fetcher.Driver()),
		"redis", cfg.Redis.Enabled,
		"metrics_namespace", cfg.Metrics.Namespace,
	)
	return a, nil
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	a, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.HTTP.Addr, err)
	}
	srv := &http.Server{
		Handler:      a.handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", ln.Addr().String())
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
