package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/reserved-realm/internal/api"
	"github.com/99minutos/reserved-realm/internal/api/metrics"
	"github.com/99minutos/reserved-realm/internal/core/domain"
	"github.com/99minutos/reserved-realm/internal/core/ports"
	"github.com/99minutos/reserved-realm/internal/core/service"
	mongodb "github.com/99minutos/reserved-realm/internal/infrastructure/db/mongo"
	redisdb "github.com/99minutos/reserved-realm/internal/infrastructure/db/redis"
	"github.com/99minutos/reserved-realm/internal/infrastructure/hashing"
	httpops "github.com/99minutos/reserved-realm/internal/infrastructure/http"
	"github.com/99minutos/reserved-realm/internal/infrastructure/http/handlers"
	"github.com/99minutos/reserved-realm/internal/infrastructure/queue"
	"github.com/99minutos/reserved-realm/internal/pkg/config"
	"github.com/99minutos/reserved-realm/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "reserved-realm",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("reserved realm stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	index := mongodb.NewSecurityIndex(db, log)
	if err := index.EnsureSecurityIndex(ctx, domain.CurrentMappingVersion); err != nil {
		return err
	}
	if err := mongodb.EnsureAuditIndexes(ctx, db); err != nil {
		return err
	}
	events := service.NewEventService(mongodb.NewEventRepository(db), log)

	// Store work outlives the signal context so in-flight requests can drain.
	storeCtx, stopStore := context.WithCancel(context.WithoutCancel(ctx))
	defer stopStore()
	dispatcher := queue.NewDispatcher(cfg.StoreWorkers, log)
	dispatcher.Start(storeCtx)

	// --- Realm ---
	hasher := hashing.NewBcryptHasher(cfg.BcryptCost)
	realm := service.NewReservedRealm(
		cfg.RealmSettings(),
		mongodb.NewReservedUserStore(db, dispatcher),
		index,
		hasher,
		cfg.AnonymousUser(),
		log,
		service.WithBootstrapLock(redisdb.NewBootstrapLock(rdb, 0)),
	)

	if cfg.BootstrapPassword != "" {
		if err := bootstrap(ctx, realm, hasher, events, cfg.BootstrapPassword, log); err != nil {
			return err
		}
	}

	secret := cfg.JWTSecret
	if secret == "" {
		log.Warn().Msg("JWT_SECRET not set, tokens will not survive a restart")
		secret = uuid.NewString()
	}
	tokens := service.NewTokenService(secret, cfg.TokenTTL)

	// --- HTTP ---
	e := api.NewRouter(realm, tokens, events, log)
	httpops.RegisterOps(e,
		handlers.MongoCheck(client),
		handlers.RedisCheck(rdb),
		handlers.SecurityIndexCheck(index),
	)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// bootstrap installs password as the superuser password unless an
// administrator already chose one.
func bootstrap(ctx context.Context, realm ports.ReservedRealm, hasher ports.Hasher, events ports.EventService, password string, log zerolog.Logger) error {
	secret := domain.SecureBytes(password)
	defer secret.Wipe()

	hash, err := hasher.Hash(secret)
	if err != nil {
		return fmt.Errorf("bootstrap: hash password: %w", err)
	}
	defer hash.Wipe()

	installed, err := realm.BootstrapElasticPassword(ctx, hash).Await(ctx)
	switch {
	case err != nil:
		metrics.BootstrapTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("bootstrap: %w", err)
	case installed:
		metrics.BootstrapTotal.WithLabelValues("installed").Inc()
		events.Record(ctx, ports.SecurityEventInput{
			Type:     domain.EventBootstrapPassword,
			Username: domain.ElasticUsername,
			Source:   "startup",
		})
	default:
		metrics.BootstrapTotal.WithLabelValues("skipped").Inc()
	}
	log.Info().Bool("installed", installed).Msg("superuser bootstrap finished")
	return nil
}
