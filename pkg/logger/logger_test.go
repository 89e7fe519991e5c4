package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	l, err := New("debug")
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New("bogus")
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zapcore.DebugLevel))
	require.True(t, l.Core().Enabled(zapcore.InfoLevel))
}
