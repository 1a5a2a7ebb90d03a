package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vktriangle/engine/core"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2, cfg.Renderer.FramesInFlight)
	assert.Equal(t, [3]float32{0, 0, 0}, cfg.Renderer.ClearColor)
	assert.Equal(t, defaultValidation, cfg.Renderer.Validation)
	assert.GreaterOrEqual(t, cfg.Assets.Workers, 1)
}

func TestLoadConfigMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")

	cfg, err := LoadConfig(missing, false)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = LoadConfig(missing, true)
	assert.Error(t, err)
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

[window]
title = "triangle"
width = 1024

[renderer]
frames_in_flight = 3
validation = false
clear_color = [0.1, 0.2, 0.3]

[assets]
hot_reload = true
`)

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "triangle", cfg.Window.Title)
	assert.Equal(t, 1024, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height, "unset keys keep their defaults")
	assert.Equal(t, 3, cfg.Renderer.FramesInFlight)
	assert.False(t, cfg.Renderer.Validation)
	assert.Equal(t, [3]float32{0.1, 0.2, 0.3}, cfg.Renderer.ClearColor)
	assert.Equal(t, "vert.spv", cfg.Renderer.VertexShader)
	assert.True(t, cfg.Assets.HotReload)
	assert.Equal(t, "glslc", cfg.Assets.Compiler)
}

func TestLoadConfigRejects(t *testing.T) {
	for name, body := range map[string]string{
		"unknown key":        "colour = 1\n",
		"bad syntax":         "[window\n",
		"zero width":         "[window]\nwidth = 0\n",
		"too many frames":    "[renderer]\nframes_in_flight = 4\n",
		"no frames":          "[renderer]\nframes_in_flight = 0\n",
		"empty shader":       "[renderer]\nvertex_shader = \"\"\n",
		"unknown log level":  "log_level = \"loud\"\n",
		"color out of range": "[renderer]\nclear_color = [0, 2, 0]\n",
		"no compiler":        "[assets]\ncompile_shaders = true\ncompiler = \"\"\n",
		"no workers":         "[assets]\nworkers = 0\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body), true)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrInvalidConfig), "%+v", err)
		})
	}
}
