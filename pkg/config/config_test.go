package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chazu/vesselkit/pkg/placement"
	"github.com/chazu/vesselkit/pkg/vessel"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromReaderKeepsDefaults(t *testing.T) {
	content := `
tuning:
  sensitivity: 0.015
limits:
  height_mm:
    min: 300
    max: 12000
render:
  mesh_cells: 64
`
	cfg, err := LoadFromReader(strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, 0.015, cfg.Tuning.Sensitivity)
	assert.Equal(t, placement.DefaultAngularMultiplier, cfg.Tuning.AngularMultiplier)
	assert.Equal(t, vessel.Range{Min: 300, Max: 12000}, cfg.Limits.HeightMm)
	assert.Equal(t, vessel.DefaultLimits().CrossSectionMm, cfg.Limits.CrossSectionMm)
	assert.Equal(t, 64, cfg.Render.MeshCells)
	assert.Equal(t, "sdfx", cfg.Render.Kernel)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadEmpty(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vesselkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \"127.0.0.1:9000\"\nlog:\n  level: debug\n  format: json\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)

	lvl, err := cfg.Log.ParseLevel()
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, lvl)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"malformed yaml", "tuning: [1, 2", "parse"},
		{"unknown kernel", "render:\n  kernel: opencascade\n", "kernel"},
		{"negative cells", "render:\n  mesh_cells: -4\n", "mesh_cells"},
		{"bad level", "log:\n  level: loud\n", "level"},
		{"bad format", "log:\n  format: xml\n", "format"},
		{"negative timeout", "script:\n  timeout: -1s\n", "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromReader(strings.NewReader(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestScriptTimeout(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader("script:\n  timeout: 250ms\n"))
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Script.Timeout)
	assert.Len(t, cfg.Script.EngineOptions(), 1)

	def, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, def.Script.Timeout)
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := Log{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("field", "height_mm").Msg("clamped")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"field":"height_mm"`)
}
