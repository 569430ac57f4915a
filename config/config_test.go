package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/canvas"
)

func clearEnv(t *testing.T) {
	t.Setenv("WORKFLOW_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "")
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseFillsUnsetValues(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse(`
[server]
addr = ":8080"

[canvas]
node_width = 200
`)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, 200.0, cfg.Canvas.NodeWidth)
	assert.Equal(t, canvas.DefaultGeometry().NodeHeight, cfg.Canvas.NodeHeight)
	assert.Equal(t, workflow.DefaultTools(), cfg.Tools)
}

func TestParseKeepsExplicitZero(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse(`
[canvas]
click_slop = 0
anchor_radius = 0
`)
	require.NoError(t, err)
	assert.Zero(t, cfg.Canvas.ClickSlop)
	assert.Zero(t, cfg.Canvas.AnchorRadius)
	assert.Equal(t, canvas.DefaultGeometry().EdgeTolerance, cfg.Canvas.EdgeTolerance)
	assert.Equal(t, canvas.DefaultGeometry().NodeWidth, cfg.Canvas.NodeWidth)

	path := filepath.Join(t.TempDir(), "workflow.toml")
	require.NoError(t, os.WriteFile(path, []byte("[canvas]\nedge_tolerance = 0\n"), 0o644))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.Canvas.EdgeTolerance)
	assert.Equal(t, canvas.DefaultGeometry().ClickSlop, cfg.Canvas.ClickSlop)
}

func TestParseToolsReplaceDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse(`
[[tools]]
id = "weather"
name = "getWeather"
description = "Current weather for a city"
http_method = "GET"

[[tools.parameters]]
name = "city"
type = "string"
required = true
`)
	require.NoError(t, err)
	require.Len(t, cfg.Tools, 1)

	tool := cfg.Tools[0]
	assert.Equal(t, "weather", tool.ID)
	assert.Equal(t, "GET", tool.HTTPMethod)
	p, ok := tool.Parameter("city")
	require.True(t, ok)
	assert.Equal(t, workflow.ParamString, p.Type)
	assert.True(t, p.Required)
}

func TestEnvOverridesDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://fallback")
	t.Setenv("WORKFLOW_DATABASE_URL", "postgres://primary")

	cfg, err := Parse(`
[store]
backend = "postgres"
database_url = "postgres://file"
`)
	require.NoError(t, err)
	assert.Equal(t, "postgres://primary", cfg.Store.DatabaseURL)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "workflow.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown backend", "[store]\nbackend = \"mongo\"\n"},
		{"postgres without url", "[store]\nbackend = \"postgres\"\n"},
		{"bad log level", "[log]\nlevel = \"loud\"\n"},
		{"negative node size", "[canvas]\nnode_width = -1\n"},
		{"zero node size", "[canvas]\nnode_height = 0\n"},
		{"negative slop", "[canvas]\nclick_slop = -2\n"},
		{"tool without id", "[[tools]]\nname = \"x\"\n"},
		{"duplicate tool", "[[tools]]\nid = \"a\"\n[[tools]]\nid = \"a\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.doc)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Format = "json"
	assert.NotNil(t, cfg.Logger(os.Stderr))
}
