package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	logger, err := New(Config{Level: "warn"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)

	dev, err := New(Config{Level: "info", Development: true})
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.InfoLevel))
}

func TestFromLevel(t *testing.T) {
	assert.True(t, FromLevel("debug", false).Core().Enabled(zapcore.DebugLevel))
	assert.False(t, FromLevel("loud", false).Core().Enabled(zapcore.DebugLevel))
	assert.True(t, FromLevel("", true).Core().Enabled(zapcore.DebugLevel))
	assert.True(t, FromLevel("loud", true).Core().Enabled(zapcore.DebugLevel))
}

func TestRunFields(t *testing.T) {
	fields := RunFields("run_1", "http", "completed", time.Second, 42)

	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"run_id", "source", "outcome", "duration", "iterations"}, keys)
}
