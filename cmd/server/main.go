package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"wip-tracker-service/internal/adapters/events"
	"wip-tracker-service/internal/adapters/filestore"
	"wip-tracker-service/internal/adapters/repositories"
	"wip-tracker-service/internal/api"
	"wip-tracker-service/internal/config"
	"wip-tracker-service/internal/platform/db"
	"wip-tracker-service/internal/platform/logging"
	"wip-tracker-service/internal/ports"
	"wip-tracker-service/internal/services"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/viant/afs"
	"go.uber.org/zap"
)

// main is the application composition root.
// It wires concrete adapters (flat files or SQL, Redis) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if err := run(cfg); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fs := afs.New()
	graph, err := filestore.NewGraphStore(ctx, fs, cfg.DataDir, cfg.GraphFile)
	if err != nil {
		return err
	}

	lots, closeLots, err := openLotStore(ctx, cfg, fs)
	if err != nil {
		return err
	}
	defer closeLots()

	publisher, closePublisher := openPublisher(cfg)
	defer closePublisher()

	alloc := services.NewAllocator(cfg.Lanes)
	tracker := services.NewTracker(alloc, lots, graph,
		services.WithEventPublisher(publisher),
		services.WithRepackOnDeparture(cfg.RepackOnDeparture),
	)

	// Occupancy lives in memory only, so it is rebuilt before serving.
	n, err := tracker.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("startup reconcile: %w", err)
	}
	zap.L().Info("lane occupancy restored", zap.Int("lots", n), zap.Int("lanes", len(alloc.Lanes())))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(tracker, graph, cfg.CORSOrigins),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("store", cfg.StoreDriver),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openLotStore picks the lot registry backend named by STORE_DRIVER.
func openLotStore(ctx context.Context, cfg *config.Config, fs afs.Service) (ports.LotRepository, func(), error) {
	if cfg.StoreDriver == config.DriverJSON {
		reg, err := filestore.NewLotRegistry(ctx, fs, cfg.DataDir, cfg.LotsFile)
		if err != nil {
			return nil, nil, err
		}
		return reg, func() {}, nil
	}

	conn, err := db.Open(cfg.StoreDriver, cfg.SQLDSN())
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() { closeQuietly(conn) }

	dialect := repositories.Dialect(cfg.StoreDriver)
	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		closeDB()
		return nil, nil, err
	}
	return repositories.NewSQLLotRepository(conn, dialect), closeDB, nil
}

// openPublisher returns a Redis publisher when REDIS_ADDR is set. A broker
// that is down only costs events; the server still starts.
func openPublisher(cfg *config.Config) (ports.EventPublisher, func()) {
	if cfg.RedisAddr == "" {
		return events.Noop{}, func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	zap.L().Info("publishing lot events", zap.String("redis", cfg.RedisAddr), zap.String("channel", cfg.RedisChannel))
	return events.NewRedisPublisher(client, cfg.RedisChannel), func() { _ = client.Close() }
}

func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		zap.L().Warn("close database", zap.Error(err))
	}
}
