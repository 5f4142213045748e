package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/audiospace/audiospace-backend/internal/adapters/http"
	roomsync "github.com/audiospace/audiospace-backend/internal/adapters/sync"
	"github.com/audiospace/audiospace-backend/internal/config"
	"github.com/audiospace/audiospace-backend/internal/core"
	"github.com/audiospace/audiospace-backend/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// The membership store is best-effort: when MongoDB is unreachable the
	// server still runs, degraded to in-memory-only rooms.
	var memb core.MembershipStore
	var mongoStore *store.Mongo
	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	mongoStore, err = store.Connect(connectCtx, cfg.MongoURI, cfg.MongoDB)
	connectCancel()
	if err != nil {
		log.Warn().Err(err).Msg("membership store unavailable, rooms will not survive restarts")
	} else {
		memb = mongoStore
	}

	registry := core.NewRegistry(memb)
	ctl := roomsync.NewController(registry, cfg.ReadLimit, cfg.PingPeriod)

	r := router.SetupRouter(ctx, cfg, ctl, memb)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("audiospace server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if mongoStore != nil {
		if err := mongoStore.Close(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}
	log.Info().Msg("Server exited gracefully")
}
