package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		l, err := New(tt.level, "prod")
		require.NoError(t, err, tt.level)
		assert.True(t, l.Core().Enabled(tt.want), tt.level)
		if tt.want > zapcore.DebugLevel {
			assert.False(t, l.Core().Enabled(tt.want-1), tt.level)
		}
	}
}

func TestNewLocal(t *testing.T) {
	l, err := New("debug", "local")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewBadLevel(t *testing.T) {
	_, err := New("loud", "")
	assert.Error(t, err)
	assert.Panics(t, func() { Must("loud", "") })
}
