package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mcdev12/binaryquiz/go/internal/config"
	"github.com/mcdev12/binaryquiz/go/internal/game/recorder"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		log.Warn().Err(err).Str("level", cfg.LogLevel).Msg("unknown log level, keeping info")
	} else {
		zerolog.SetGlobalLevel(level)
	}

	gameCfg, err := config.LoadGame(cfg.GameConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load game configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := setupServices(ctx, cfg, gameCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}
	defer services.Close()

	log.Info().
		Str("port", cfg.Port).
		Str("catalog", cfg.CatalogAPIURL).
		Bool("anti_cheat", gameCfg.AntiCheat).
		Dur("min_reveal_delay", gameCfg.MinRevealDelay()).
		Str("results_driver", cfg.ResultsDriver).
		Msg("starting binary quiz server")

	var wg sync.WaitGroup

	// The recorder subscribes before the engine starts so it sees every transition
	sessions := services.Engine.Subscribe(recorder.SubscriptionBuffer)
	wg.Add(3)
	go func() {
		defer wg.Done()
		// Drains until the engine closes the stream
		services.Recorder.Run(context.Background(), services.Engine, sessions)
	}()
	go func() {
		defer wg.Done()
		if err := services.Engine.Run(ctx); err != nil {
			log.Error().Err(err).Msg("engine failed")
		}
	}()
	go func() {
		defer wg.Done()
		services.Gateway.Start(ctx)
	}()

	// Load the quiz list once so labels are known before the first game
	go func() {
		fetchCtx := ctx
		if gameCfg.CatalogTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(ctx, gameCfg.CatalogTimeout)
			defer cancel()
		}
		if _, err := services.Engine.FetchQuizzes(fetchCtx); err != nil {
			log.Warn().Err(err).Msg("initial quiz list fetch failed")
		}
	}()

	server := setupServer(cfg.Port, services)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	wg.Wait()
	log.Info().Msg("binary quiz server shutdown complete")
}
