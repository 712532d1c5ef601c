package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ludojam/ludo-backend/internal/archive"
	"github.com/ludojam/ludo-backend/internal/config"
	"github.com/ludojam/ludo-backend/internal/engine"
	"github.com/ludojam/ludo-backend/internal/gameroom"
	"github.com/ludojam/ludo-backend/internal/hub"
	"github.com/ludojam/ludo-backend/internal/httpapi"
	"github.com/ludojam/ludo-backend/internal/registry"
	"github.com/ludojam/ludo-backend/internal/store"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := newStore(cfg)
	if err != nil {
		logger.Fatal("store init", zap.Error(err))
	}
	defer func() { _ = st.Close() }()

	opts := gameroom.Options{}
	if cfg.DatabaseURL != "" {
		arc, err := archive.Open(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("archive init", zap.Error(err))
		}
		opts.Rec = arc
		logger.Info("finished-game archive enabled")
	}

	h := hub.New(ctx, st, opts, logger)
	reg := registry.New(st, logger)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(reg, h, logger),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		h.Inbox() <- hub.Shutdown{}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newStore(cfg config.Config) (store.Store[engine.State], error) {
	if cfg.RedisAddr == "" {
		return store.NewMemory[engine.State](), nil
	}
	client, err := store.Dial(cfg.RedisAddr, cfg.RedisPass)
	if err != nil {
		return nil, err
	}
	return store.NewRedis[engine.State](client, "room:"), nil
}
