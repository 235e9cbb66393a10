package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/mcdev12/binaryquiz/go/internal/dbconfig"
	"github.com/mcdev12/binaryquiz/go/internal/results/db"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// ResultsDisabled turns off the completed-game ledger.
const ResultsDisabled = "none"

// Config is the process configuration read from the environment.
type Config struct {
	Port           string `env:"PORT" envDefault:"8080"`
	CatalogAPIURL  string `env:"CATALOG_API_URL" envDefault:"http://localhost:8000/api"`
	CatalogBaseURL string `env:"CATALOG_BASE_URL" envDefault:"http://localhost:8000"`
	// Events are only logged when NATSURL is empty
	NATSURL       string `env:"NATS_URL"`
	ResultsDriver string `env:"RESULTS_DRIVER" envDefault:"sqlite"`
	ResultsDSN    string `env:"RESULTS_DSN"`
	GameConfig    string `env:"GAME_CONFIG" envDefault:"config.yaml"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	DB dbconfig.Config
}

// Load reads an optional .env file and parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// ResultsEnabled reports whether finished games are recorded.
func (c Config) ResultsEnabled() bool {
	return c.ResultsDriver != ResultsDisabled && c.ResultsDriver != ""
}

// Results returns the dialect and DSN of the results store. Postgres falls
// back to the DB_* settings when no DSN is given.
func (c Config) Results() (db.Dialect, string, error) {
	dialect := db.Dialect(c.ResultsDriver)
	switch dialect {
	case db.DialectSQLite:
		if c.ResultsDSN == "" {
			return dialect, "file:binaryquiz.db", nil
		}
	case db.DialectPostgres:
		if c.ResultsDSN == "" {
			return dialect, c.DB.DSN(), nil
		}
	default:
		return "", "", fmt.Errorf("unsupported RESULTS_DRIVER %q", c.ResultsDriver)
	}
	return dialect, c.ResultsDSN, nil
}

// Game holds the tuning values of the game, read from a YAML file.
type Game struct {
	AntiCheat           bool          `yaml:"anti_cheat"`
	MinRevealDelayMs    uint          `yaml:"min_reveal_delay_ms"`
	DefaultRounds       int           `yaml:"default_rounds"`
	DefaultTimerSeconds uint          `yaml:"default_timer_seconds"`
	CatalogTimeout      time.Duration `yaml:"catalog_timeout"`
}

// DefaultGame hides each image for a second and plays ten untimed rounds.
func DefaultGame() Game {
	return Game{
		AntiCheat:        true,
		MinRevealDelayMs: 1000,
		DefaultRounds:    10,
		CatalogTimeout:   30 * time.Second,
	}
}

// MinRevealDelay is the reveal floor as a duration.
func (g Game) MinRevealDelay() time.Duration {
	return time.Duration(g.MinRevealDelayMs) * time.Millisecond
}

// LoadGame reads the game file at path. Keys missing from the file keep their
// defaults and a missing file yields DefaultGame.
func LoadGame(path string) (Game, error) {
	game := DefaultGame()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", path).Msg("game config not found, using defaults")
		return game, nil
	}
	if err != nil {
		return Game{}, fmt.Errorf("failed to read game config: %w", err)
	}

	if err := yaml.Unmarshal(data, &game); err != nil {
		return Game{}, fmt.Errorf("failed to parse game config: %w", err)
	}
	if err := game.validate(); err != nil {
		return Game{}, err
	}
	return game, nil
}

func (g Game) validate() error {
	if g.DefaultRounds < 0 {
		return fmt.Errorf("default_rounds must not be negative, got %d", g.DefaultRounds)
	}
	if g.CatalogTimeout < 0 {
		return fmt.Errorf("catalog_timeout must not be negative, got %s", g.CatalogTimeout)
	}
	return nil
}
