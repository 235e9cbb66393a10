package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mcdev12/binaryquiz/go/internal/config"
	"github.com/mcdev12/binaryquiz/go/internal/results"
	"github.com/rs/zerolog/log"
)

// setupResults opens the completed-game ledger. It returns nils when the
// ledger is disabled.
func setupResults(ctx context.Context, cfg config.Config) (*sql.DB, *results.App, error) {
	if !cfg.ResultsEnabled() {
		log.Info().Msg("results store disabled, finished games are not recorded")
		return nil, nil, nil
	}

	dialect, dsn, err := cfg.Results()
	if err != nil {
		return nil, nil, err
	}

	database, err := results.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open results store: %w", err)
	}

	repo := results.NewRepository(database, dialect)
	return database, results.NewApp(repo), nil
}
