package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/userhub/internal/cache"
	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/db"
	httpx "github.com/geocoder89/userhub/internal/http"
	"github.com/geocoder89/userhub/internal/http/handlers"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/geocoder89/userhub/internal/redisclient"
	"github.com/geocoder89/userhub/internal/repo/cached"
	"github.com/geocoder89/userhub/internal/repo/memory"
	"github.com/geocoder89/userhub/internal/repo/postgres"
	"github.com/geocoder89/userhub/internal/security"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	prom := observability.NewProm()
	checks := map[string]handlers.Check{}

	// store: postgres by default, memory for local runs without a database
	var users cached.UsersStore

	switch cfg.Store {
	case config.StoreMemory:
		users = memory.NewUsersRepo()
		log.Warn("using in-memory user store, data is lost on restart")
	case config.StorePostgres:
		if cfg.DBAutoMigrate {
			if err := db.MigrateUp(cfg.DBURL); err != nil {
				log.Error("migrations failed", "err", err)
				os.Exit(1)
			}
			log.Info("migrations applied")
		}

		pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		repo := postgres.NewUsersRepo(pool, prom)
		users = repo
		checks["postgres"] = repo.Ping
	default:
		log.Error("unknown APP_STORE", "store", cfg.Store)
		os.Exit(1)
	}

	// read-through cache in front of the store, redis when configured
	var store cache.Store = cache.New(cfg.CacheTTL)
	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() {
			_ = rdb.Close()
		}()

		pingCtx, cancel := config.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx); err != nil {
			log.Warn("redis unreachable at startup, lookups fall back to the store", "addr", cfg.RedisAddr, "err", err)
		}
		cancel()

		store = cache.NewRedisStore(rdb.Raw(), observability.ServiceName+":", cfg.CacheTTL)
		checks["redis"] = rdb.Ping
	}

	hasher := security.NewHasher(cfg.SaltRounds, cfg.HashConcurrency).WithObserver(prom.ObserveHash)

	router, err := httpx.NewRouter(log, cfg, httpx.Deps{
		Users:  cached.NewUsersRepo(users, store, prom, log),
		Lookup: users,
		Hasher: hasher,
		Prom:   prom,
		Checks: checks,
	})
	if err != nil {
		log.Error("router setup failed", "err", err)
		os.Exit(1)
	}

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store, "bcrypt_cost", hasher.Cost())
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
