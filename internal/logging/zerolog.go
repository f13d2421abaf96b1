package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewZerolog builds the logger used by the storage and influx managers. It writes
// JSON to file and, when console is true, a human readable copy to stdout.
func NewZerolog(file io.Writer, level string, console bool) zerolog.Logger {
	var writers []io.Writer
	if file != nil {
		writers = append(writers, file)
	}
	if console || file == nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().Timestamp().Logger()
}

// KVLogger adapts zerolog.Logger to the key-value Debug/Info/Error interface the
// dispatcher and the flush worker expect.
type KVLogger struct {
	logger zerolog.Logger
}

// NewKVLogger wraps logger.
func NewKVLogger(logger zerolog.Logger) *KVLogger {
	return &KVLogger{logger: logger}
}

func (l *KVLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(toFields(keysAndValues)).Msg(msg)
}

func (l *KVLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info().Fields(toFields(keysAndValues)).Msg(msg)
}

func (l *KVLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error().Fields(toFields(keysAndValues)).Msg(msg)
}

// toFields converts key-value pairs to a map for zerolog. Non-string keys and a
// trailing key without value are dropped.
func toFields(keysAndValues []any) map[string]any {
	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}
	return fields
}
