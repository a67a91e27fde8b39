// Command dogwalkserver runs the game server: HTTP transport, the
// strand-serialized simulator, and (in auto mode) the background ticker
// (A7).
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dogwalk/server/internal/api"
	"github.com/dogwalk/server/internal/config"
	"github.com/dogwalk/server/internal/handlers"
	"github.com/dogwalk/server/internal/leaderboard"
	"github.com/dogwalk/server/internal/mapcatalog"
	"github.com/dogwalk/server/internal/ratelimit"
	"github.com/dogwalk/server/internal/scheduler"
	"github.com/dogwalk/server/internal/simulate"
	"github.com/dogwalk/server/internal/telemetry"
)

type flags struct {
	configFile     string
	wwwRoot        string
	tickPeriodMs   int
	randomizeSpawn bool
}

func parseFlags() (*flags, error) {
	f := &flags{}

	flag.StringVar(&f.configFile, "config-file", "", "path to the map configuration JSON file")
	flag.StringVar(&f.configFile, "c", "", "shorthand for --config-file")
	flag.StringVar(&f.wwwRoot, "www-root", "", "directory of static client files")
	flag.StringVar(&f.wwwRoot, "w", "", "shorthand for --www-root")
	flag.IntVar(&f.tickPeriodMs, "tick-period", 0, "enable automatic ticking at this period, in milliseconds")
	flag.IntVar(&f.tickPeriodMs, "t", 0, "shorthand for --tick-period")
	flag.BoolVar(&f.randomizeSpawn, "randomize-spawn-points", false, "spawn dogs at a random point on a random road")
	help := flag.Bool("help", false, "show usage")
	flag.BoolVar(help, "h", false, "shorthand for --help")

	flag.Parse()

	if *help {
		flag.Usage()
		return nil, flag.ErrHelp
	}
	if f.configFile == "" {
		return nil, fmt.Errorf("--config-file is required")
	}
	if f.wwwRoot == "" {
		return nil, fmt.Errorf("--www-root is required")
	}

	return f, nil
}

func main() {
	if err := run(); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "dogwalkserver:", err)
		os.Exit(1)
	}
}

func run() error {
	f, err := parseFlags()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	catalog, err := mapcatalog.Load(f.configFile)
	if err != nil {
		return fmt.Errorf("load map catalog: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgPool, err := pgxpool.New(ctx, cfg.GameDBURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pgPool.Close()

	board := leaderboard.New(pgPool)
	if err := board.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure leaderboard schema: %w", err)
	}

	game := simulate.NewGame(catalog, board, f.randomizeSpawn)
	defer game.Close()

	sched := scheduler.New(time.Duration(f.tickPeriodMs)*time.Millisecond, game, logger)
	sched.Start(ctx)
	defer sched.Stop()

	var limiter *ratelimit.Limiter
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()
		limiter = ratelimit.New(ratelimit.NewRedisStore(redisClient), int64(cfg.JoinRateLimitPerWindow), cfg.JoinRateLimitWindow)
	}

	var sink *telemetry.Sink
	if cfg.ClickHouseURL != "" {
		chConn, err := clickhouse.Open(&clickhouse.Options{Addr: []string{cfg.ClickHouseURL}})
		if err != nil {
			sugar.Warnw("clickhouse unavailable, telemetry disabled", "error", err)
		} else {
			sink = telemetry.New(telemetry.Config{
				WorkerCount:   cfg.TelemetryWorkerCount,
				QueueSize:     cfg.TelemetryQueueSize,
				BatchSize:     cfg.TelemetryBatchSize,
				FlushInterval: cfg.TelemetryFlushInterval,
				ClickHouse:    chConn,
				Logger:        logger,
			})
			sink.Start(ctx)
			defer sink.Stop()
		}
	}

	gameAPI := &api.API{Catalog: catalog, Game: game, Board: board, Sched: sched}

	h := handlers.New(handlers.Config{
		API:       gameAPI,
		Logger:    logger,
		WWWRoot:   f.wwwRoot,
		RateLimit: limiter,
		Telemetry: sink,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h.Routes(cfg.AllowedOrigins),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("server listening", "port", cfg.Port, "autoTick", sched.Auto())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigCh:
		sugar.Infow("shutting down", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
