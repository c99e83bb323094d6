package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(level string) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return New(&Config{Level: level, Format: "json", Output: buf}), buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{name: "default config", config: nil},
		{name: "json", config: &Config{Level: "debug", Format: "json", Output: io.Discard}},
		{name: "console", config: &Config{Level: "info", Format: "console", Output: io.Discard}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, New(tt.config))
		})
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	log, buf := jsonLogger("info")
	log.Info("catalog built")

	entry := decode(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "catalog built", entry["message"])
	assert.NotEmpty(t, entry["time"])
}

func TestSetTimeFormat(t *testing.T) {
	t.Cleanup(func() { SetTimeFormat("rfc3339") })

	SetTimeFormat("unix")
	log, buf := jsonLogger("info")
	log.Info("unix time")

	entry := decode(t, buf)
	_, isNumber := entry["time"].(float64)
	assert.True(t, isNumber, "time should be encoded as a unix number")
}

func TestLogger_ForParse(t *testing.T) {
	log, buf := jsonLogger("info")

	log.ForParse("c0ffee").With().Int("tables", 16).Logger().Info("catalog built")

	entry := decode(t, buf)
	assert.Equal(t, "c0ffee", entry["parse_id"])
	assert.Equal(t, float64(16), entry["tables"])
}

func TestLogger_ErrorWith(t *testing.T) {
	log, buf := jsonLogger("error")

	log.ErrorWith("parse failed", errors.New("File/BaseTableCatalog not found"), map[string]interface{}{
		"source": "orders.xml",
		"size":   5432,
	})

	entry := decode(t, buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "File/BaseTableCatalog not found", entry["error"])
	assert.Equal(t, "orders.xml", entry["source"])
	assert.Equal(t, float64(5432), entry["size"])
}

func TestLogger_DebugWith(t *testing.T) {
	log, buf := jsonLogger("debug")

	log.DebugWith("extractor finished", map[string]interface{}{"extractor": "base_tables", "fields": 3})

	entry := decode(t, buf)
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "base_tables", entry["extractor"])
	assert.Equal(t, float64(3), entry["fields"])
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		level  string
		log    func(*Logger)
		output bool
	}{
		{level: "debug", log: func(l *Logger) { l.Debug("m") }, output: true},
		{level: "info", log: func(l *Logger) { l.Debug("m") }, output: false},
		{level: "info", log: func(l *Logger) { l.DebugWith("m", map[string]interface{}{"k": 1}) }, output: false},
		{level: "warn", log: func(l *Logger) { l.Warn("m") }, output: true},
		{level: "error", log: func(l *Logger) { l.Error("m") }, output: true},
		{level: "error", log: func(l *Logger) { l.Info("m") }, output: false},
		{level: "bogus", log: func(l *Logger) { l.Info("m") }, output: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log, buf := jsonLogger(tt.level)
			tt.log(log)
			assert.Equal(t, tt.output, buf.Len() > 0)
		})
	}
}

func TestLogger_LevelsAreIndependent(t *testing.T) {
	quiet, quietBuf := jsonLogger("error")
	loud, loudBuf := jsonLogger("debug")

	quiet.Info("dropped")
	loud.Debug("kept")

	assert.Zero(t, quietBuf.Len())
	assert.NotZero(t, loudBuf.Len())
}

func TestLogger_Context(t *testing.T) {
	log, buf := jsonLogger("info")

	ctx := log.With().Str("request_id", "r-1").Logger().WithContext(context.Background())
	FromContext(ctx).Info("from context")

	entry := decode(t, buf)
	assert.Equal(t, "from context", entry["message"])
	assert.Equal(t, "r-1", entry["request_id"])
}

func TestFromContext_WithoutLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		FromContext(context.Background()).Info("dropped")
	})
}

func TestNop(t *testing.T) {
	l := Nop()
	assert.NotPanics(t, func() {
		l.Info("dropped")
		l.DebugWith("dropped", map[string]interface{}{"k": 1})
		l.ForParse("x").Error("dropped")
	})
}

func BenchmarkLogger_DebugWithDisabled(b *testing.B) {
	log := New(&Config{Level: "info", Format: "json", Output: io.Discard})
	fields := map[string]interface{}{"extractor": "scripts", "script_steps": 120}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		log.DebugWith("extractor finished", fields)
	}
}
