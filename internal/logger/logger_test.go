package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]interface{}{"username", "admin", "password_hash", "$2a$10$x", "dangling"})
	assert.Equal(t, []interface{}{"username", "admin", "password_hash", "[REDACTED]", "dangling"}, got)
}

func TestLoggerWritesFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("request_id", "abc").Info("activity created", "activity_id", 7, "api_token", "t0k3n")
	l.Debug("dropped below level")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "activity created", entries[0].Message)
		assert.Equal(t, "abc", fields["request_id"])
		assert.EqualValues(t, 7, fields["activity_id"])
		assert.Equal(t, "[REDACTED]", fields["api_token"])
	}
}
