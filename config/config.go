// Package config loads the builder's TOML configuration.
//
// Values missing from the file fall back to Default. Canvas lengths set
// explicitly keep their value even when it is zero, so click_slop = 0 turns
// off click tolerance rather than restoring the default. The database URL can
// also come from WORKFLOW_DATABASE_URL or DATABASE_URL, which win over the
// file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"

	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/canvas"
)

// Store backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid")

// Config is the whole configuration file.
type Config struct {
	Server ServerConfig              `toml:"server"`
	Log    LogConfig                 `toml:"log"`
	Store  StoreConfig               `toml:"store"`
	Canvas canvas.Geometry           `toml:"canvas"`
	Tools  []workflow.ToolDescriptor `toml:"tools"`
}

// ServerConfig is the [server] section.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig is the [log] section.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
	// Format is text or json.
	Format string `toml:"format"`
}

// StoreConfig is the [store] section. Backend is one of the Backend*
// constants; SQLitePath and DatabaseURL apply to their own backend only.
type StoreConfig struct {
	Backend     string `toml:"backend"`
	SQLitePath  string `toml:"sqlite_path"`
	DatabaseURL string `toml:"database_url"`
}

// Default returns the configuration used when no file is given: a local
// SQLite file and the built-in tool catalog.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":3000"},
		Log:    LogConfig{Level: "info", Format: "text"},
		Store:  StoreConfig{Backend: BackendSQLite, SQLitePath: "workflows.db"},
		Canvas: canvas.DefaultGeometry(),
		Tools:  workflow.DefaultTools(),
	}
}

// Load reads the file at path, fills unset values from Default and applies
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	var (
		cfg  Config
		meta toml.MetaData
		err  error
	)
	if path != "" {
		if meta, err = toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}
	return finish(cfg, meta)
}

// Parse is Load for an in-memory document.
func Parse(doc string) (Config, error) {
	var cfg Config
	meta, err := toml.Decode(doc, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return finish(cfg, meta)
}

// FromEnv loads the file named by WORKFLOW_CONFIG, if set.
func FromEnv() (Config, error) {
	return Load(os.Getenv("WORKFLOW_CONFIG"))
}

func finish(cfg Config, meta toml.MetaData) (Config, error) {
	file := cfg.Canvas
	if err := mergo.Merge(&cfg, Default()); err != nil {
		return Config{}, fmt.Errorf("config: defaults: %w", err)
	}
	// mergo cannot tell an explicit zero from an unset key.
	explicit := []struct {
		key  string
		dst  *float64
		file float64
	}{
		{"node_width", &cfg.Canvas.NodeWidth, file.NodeWidth},
		{"node_height", &cfg.Canvas.NodeHeight, file.NodeHeight},
		{"anchor_radius", &cfg.Canvas.AnchorRadius, file.AnchorRadius},
		{"edge_tolerance", &cfg.Canvas.EdgeTolerance, file.EdgeTolerance},
		{"click_slop", &cfg.Canvas.ClickSlop, file.ClickSlop},
	}
	for _, f := range explicit {
		if meta.IsDefined("canvas", f.key) {
			*f.dst = f.file
		}
	}
	for _, key := range []string{"WORKFLOW_DATABASE_URL", "DATABASE_URL"} {
		if v := os.Getenv(key); v != "" {
			cfg.Store.DatabaseURL = v
			break
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the rest of the program relies on.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite, BackendMemory:
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("%w: postgres backend needs database_url or DATABASE_URL", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if c.Canvas.NodeWidth <= 0 || c.Canvas.NodeHeight <= 0 {
		return fmt.Errorf("%w: canvas node size must be positive", ErrInvalidConfig)
	}
	if c.Canvas.AnchorRadius < 0 || c.Canvas.EdgeTolerance < 0 || c.Canvas.ClickSlop < 0 {
		return fmt.Errorf("%w: canvas tolerances must not be negative", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Tools))
	for i, t := range c.Tools {
		if t.ID == "" {
			return fmt.Errorf("%w: tools[%d] has no id", ErrInvalidConfig, i)
		}
		if seen[t.ID] {
			return fmt.Errorf("%w: duplicate tool id %q", ErrInvalidConfig, t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

func (c Config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Log.Level)
	}
	return l, nil
}

// Logger builds the slog logger described by the log section.
func (c Config) Logger(w io.Writer) *slog.Logger {
	l, _ := c.level()
	opts := &slog.HandlerOptions{Level: l}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
