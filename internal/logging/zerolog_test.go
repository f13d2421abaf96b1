package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		log   func(*KVLogger)
	}{
		{"debug", func(l *KVLogger) { l.Debug("msg", "key1", "value1", "key2", 42) }},
		{"info", func(l *KVLogger) { l.Info("msg", "key1", "value1", "key2", 42) }},
		{"error", func(l *KVLogger) { l.Error("msg", "key1", "value1", "key2", 42) }},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewKVLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "msg", entry["message"])
			assert.Equal(t, "value1", entry["key1"])
			assert.Equal(t, float64(42), entry["key2"])
		})
	}
}

func TestToFields(t *testing.T) {
	fields := toFields([]any{"a", 1, 2, "dropped", "dangling"})
	assert.Equal(t, map[string]any{"a": 1}, fields)
}

func TestNewZerolog_FileAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, "warn", false)

	log.Info().Msg("filtered")
	log.Warn().Str("part", "p1").Msg("kept")

	out := buf.String()
	assert.NotContains(t, out, "filtered")
	assert.Contains(t, out, "kept")
	assert.Contains(t, out, `"part":"p1"`)
}

func TestNewZerolog_BadLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, "loud", false)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}
