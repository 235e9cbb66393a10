package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/binaryquiz/go/clients/catalog_client"
	"github.com/mcdev12/binaryquiz/go/internal/config"
	"github.com/mcdev12/binaryquiz/go/internal/game"
	"github.com/mcdev12/binaryquiz/go/internal/game/gateway"
	"github.com/mcdev12/binaryquiz/go/internal/game/publisher"
	"github.com/mcdev12/binaryquiz/go/internal/game/recorder"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Engine   *game.Engine
	Gateway  *gateway.Gateway
	Recorder *recorder.Recorder

	resultsDB *sql.DB
	jetstream *publisher.JetStreamPublisher
}

func setupServices(ctx context.Context, cfg config.Config, gameCfg config.Game) (*Services, error) {
	// Wire up dependency injection chain
	// Catalog client → Engine → Recorder / Gateway

	clock := clockwork.NewRealClock()

	// Catalog
	catalog := catalog_client.NewCatalogClient(cfg.CatalogAPIURL, cfg.CatalogBaseURL)
	if gameCfg.CatalogTimeout > 0 {
		catalog.SetTimeout(gameCfg.CatalogTimeout)
	}

	// Engine
	engine := game.NewEngine(catalog, catalog, game.Options{
		AntiCheatEnabled: gameCfg.AntiCheat,
		MinRevealDelay:   gameCfg.MinRevealDelay(),
		Clock:            clock,
	})

	// Results
	resultsDB, resultsApp, err := setupResults(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Events
	services := &Services{Engine: engine, resultsDB: resultsDB}
	var pub publisher.EventPublisher = publisher.LogPublisher{}
	if cfg.NATSURL != "" {
		jsCfg := publisher.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATSURL
		js, err := publisher.NewJetStreamPublisher(ctx, jsCfg)
		if err != nil {
			services.Close()
			return nil, fmt.Errorf("failed to create event publisher: %w", err)
		}
		services.jetstream = js
		pub = js
	} else {
		log.Info().Msg("NATS_URL not set, game events are only logged")
	}

	// Recorder and gateway; a nil *results.App must not become a non-nil interface
	var store recorder.ResultStore
	var leaderboard gateway.Leaderboard
	if resultsApp != nil {
		store = resultsApp
		leaderboard = resultsApp
	}
	services.Recorder = recorder.New(pub, store, clock)

	gwCfg := gateway.DefaultConfig()
	gwCfg.Defaults = gateway.Defaults{
		Rounds:       gameCfg.DefaultRounds,
		TimerSeconds: gameCfg.DefaultTimerSeconds,
	}
	services.Gateway = gateway.New(gwCfg, engine, leaderboard)

	return services, nil
}

// Close releases the connections opened by setupServices.
func (s *Services) Close() {
	if s.jetstream != nil {
		if err := s.jetstream.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close event publisher")
		}
	}
	if s.resultsDB != nil {
		if err := s.resultsDB.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close results store")
		}
	}
}
