package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/petroslamb/movierama/db"
	"github.com/petroslamb/movierama/internal/config"
	httpserver "github.com/petroslamb/movierama/internal/http"
	"github.com/petroslamb/movierama/internal/repository"
	"github.com/petroslamb/movierama/internal/session"
	"github.com/petroslamb/movierama/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := log.New(os.Stdout, "[movierama] ", log.LstdFlags|log.Lshortfile)

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer st.Close()

	if cfg.MigrateOnStart {
		if err := st.Migrate(dbCtx, db.Migrations); err != nil {
			log.Fatalf("migrate database: %v", err)
		}
	}

	repo := repository.New(st)

	var sessionStore session.Store = repo.Sessions
	if cfg.SessionBackend == config.SessionBackendRedis {
		redisStore, err := session.NewRedisStore(dbCtx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("connect redis: %v", err)
		}
		defer redisStore.Close()
		sessionStore = redisStore
	}
	logger.Printf("sessions stored in %s", cfg.SessionBackend)
	sessions := session.NewManager(sessionStore, time.Duration(cfg.SessionTTLHours)*time.Hour, cfg.SessionCookieSecure)

	server, err := httpserver.New(cfg, st, repo, sessions, logger)
	if err != nil {
		log.Fatalf("init server: %v", err)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on :%s", cfg.Port)
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			log.Printf("server error: %v", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("graceful shutdown error: %v", err)
	}
}
