package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mcdev12/binaryquiz/go/internal/dbconfig"
	"github.com/mcdev12/binaryquiz/go/internal/results/db"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadGame(t *testing.T) {
	path := writeFile(t, `
anti_cheat: false
min_reveal_delay_ms: 250
default_rounds: 5
default_timer_seconds: 8
catalog_timeout: 3s
`)

	game, err := LoadGame(path)
	if err != nil {
		t.Fatalf("load game: %v", err)
	}
	want := Game{
		AntiCheat:           false,
		MinRevealDelayMs:    250,
		DefaultRounds:       5,
		DefaultTimerSeconds: 8,
		CatalogTimeout:      3 * time.Second,
	}
	if game != want {
		t.Fatalf("expected %+v, got %+v", want, game)
	}
	if game.MinRevealDelay() != 250*time.Millisecond {
		t.Fatalf("unexpected reveal delay %s", game.MinRevealDelay())
	}
}

func TestLoadGameKeepsDefaults(t *testing.T) {
	path := writeFile(t, "default_timer_seconds: 5\n")

	game, err := LoadGame(path)
	if err != nil {
		t.Fatalf("load game: %v", err)
	}
	want := DefaultGame()
	want.DefaultTimerSeconds = 5
	if game != want {
		t.Fatalf("expected %+v, got %+v", want, game)
	}
}

func TestLoadGameMissingFile(t *testing.T) {
	game, err := LoadGame(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load game: %v", err)
	}
	if game != DefaultGame() {
		t.Fatalf("expected defaults, got %+v", game)
	}
}

func TestLoadGameRejectsInvalid(t *testing.T) {
	for name, content := range map[string]string{
		"malformed":         "anti_cheat: [",
		"negative rounds":   "default_rounds: -2",
		"negative timeout":  "catalog_timeout: -1s",
		"wrong scalar type": "min_reveal_delay_ms: soon",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadGame(writeFile(t, content)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestResults(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		wantDialect db.Dialect
		wantDSN     string
		wantErr     bool
	}{
		{
			name:        "sqlite default file",
			cfg:         Config{ResultsDriver: "sqlite"},
			wantDialect: db.DialectSQLite,
			wantDSN:     "file:binaryquiz.db",
		},
		{
			name:        "explicit dsn",
			cfg:         Config{ResultsDriver: "sqlite", ResultsDSN: ":memory:"},
			wantDialect: db.DialectSQLite,
			wantDSN:     ":memory:",
		},
		{
			name:        "postgres falls back to db settings",
			cfg:         Config{ResultsDriver: "postgres", DB: dbconfig.Config{Host: "db", Port: 5432, User: "quiz", Password: "secret", Database: "binaryquiz", SSLMode: "disable"}},
			wantDialect: db.DialectPostgres,
			wantDSN:     "postgres://quiz:secret@db:5432/binaryquiz?sslmode=disable",
		},
		{
			name:    "unknown driver",
			cfg:     Config{ResultsDriver: "mysql"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialect, dsn, err := tt.cfg.Results()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("results: %v", err)
			}
			if dialect != tt.wantDialect || dsn != tt.wantDSN {
				t.Fatalf("expected %s %q, got %s %q", tt.wantDialect, tt.wantDSN, dialect, dsn)
			}
		})
	}
}

func TestResultsEnabled(t *testing.T) {
	if (Config{ResultsDriver: ResultsDisabled}).ResultsEnabled() {
		t.Fatal("expected results to be disabled")
	}
	if !(Config{ResultsDriver: "sqlite"}).ResultsEnabled() {
		t.Fatal("expected results to be enabled")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("NATS_URL", "nats://bus:4222")
	t.Setenv("DB_NAME", "quiz")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" || cfg.NATSURL != "nats://bus:4222" || cfg.DB.Database != "quiz" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.ResultsDriver != "sqlite" || cfg.GameConfig != "config.yaml" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}
