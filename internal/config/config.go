package config

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/mydraft/mydraft/backend-go/internal/editor"
)

type Config struct {
	Port int `envconfig:"PORT" default:"8080"`
	// Empty keeps snapshots in memory.
	DatabaseURL    string        `envconfig:"DATABASE_URL"`
	JWTSecret      string        `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	AllowedOrigins string        `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	HistoryLimit     int           `envconfig:"HISTORY_LIMIT" default:"100"`
	CoalesceWindow   time.Duration `envconfig:"COALESCE_WINDOW" default:"500ms"`
	CoalesceMaxSteps int           `envconfig:"COALESCE_MAX_STEPS" default:"50"`
	PasteOffset      float64       `envconfig:"PASTE_OFFSET" default:"20"`
	DuplicateOffset  float64       `envconfig:"DUPLICATE_OFFSET" default:"20"`
	GridSize         float64       `envconfig:"GRID_SIZE" default:"10"`

	AutosaveInterval time.Duration `envconfig:"AUTOSAVE_INTERVAL" default:"30s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EditorOptions returns the store settings. Registry, ids and clock keep
// their defaults.
func (c *Config) EditorOptions() editor.Options {
	return editor.Options{
		HistoryLimit:     c.HistoryLimit,
		CoalesceWindow:   c.CoalesceWindow,
		CoalesceMaxSteps: c.CoalesceMaxSteps,
		PasteOffset:      c.PasteOffset,
		DuplicateOffset:  c.DuplicateOffset,
		GridSize:         c.GridSize,
	}
}

// Origins turns ALLOWED_ORIGINS into host patterns for the websocket
// origin check.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		o = strings.TrimPrefix(o, "http://")
		o = strings.TrimPrefix(o, "https://")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

// NewLogger builds a text or JSON logger at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
