package logger

import (
	"context"
	"testing"

	"docbase/internal/shared/contextkeys"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWithConfig(t *testing.T) {
	log := NewLoggerWithConfig("debug", "json")
	require.NotNil(t, log)

	// Chaining must return usable loggers, never nil.
	assert.NotNil(t, log.WithComponent("registry"))
	assert.NotNil(t, log.WithFields(map[string]interface{}{"collection": "widgets"}))
}

func TestNewLoggerWithConfigBadLevelFallsBack(t *testing.T) {
	log := NewLoggerWithConfig("not-a-level", "text")
	require.NotNil(t, log)
	// Should not panic when used.
	log.Debug("dropped at info level")
	log.Infof("collection %s bound", "widgets")
}

func TestWithContextRequestID(t *testing.T) {
	log := NewLoggerWithConfig("info", "text")

	ctx := context.WithValue(context.Background(), contextkeys.RequestIDKey, "req-123")
	assert.NotNil(t, log.WithContext(ctx))

	// A context without a request ID is fine too.
	assert.NotNil(t, log.WithContext(context.Background()))
}
