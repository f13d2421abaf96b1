package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/slefx/plumectl/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir string, cfg map[string]any) {
	t.Helper()
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), data, 0644))
}

func TestApp_EndsOpenFlightOnClose(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	recordings := filepath.Join(dir, "recordings")
	writeConfig(t, dir, map[string]any{
		"logsDir": filepath.Join(dir, "logs"),
		"storage": map[string]any{
			"type":   "memory",
			"memory": map[string]any{"outputDir": recordings, "compressOutput": false},
		},
		"recorder": map[string]any{"enabled": true, "flushInterval": "10ms"},
	})

	a, err := newApp(dir)
	require.NoError(t, err)

	assert.Equal(t, `["ok", "`+Version+`"]`, a.bridge.Call(":VERSION:"))
	assert.Equal(t, `["ok"]`, a.bridge.Call(`:FLIGHT:START:|"hop"|"Starhopper"`))
	assert.True(t, a.ctx.Active())

	require.NoError(t, a.Close())
	assert.False(t, a.ctx.Active())

	entries, err := os.ReadDir(recordings)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "hop_"))

	logs, err := os.ReadDir(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	assert.NotEmpty(t, logs)
}

func TestApp_UnknownStorage(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	writeConfig(t, dir, map[string]any{
		"logsDir": filepath.Join(dir, "logs"),
		"storage": map[string]any{"type": "tape"},
	})

	_, err := newApp(dir)
	assert.ErrorContains(t, err, "unknown storage type")
}
