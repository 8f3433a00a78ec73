package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewJSONLogger(t *testing.T) {
	l, err := New(Config{Level: zapcore.InfoLevel})
	require.NoError(t, err)
	require.NotNil(t, l)
	require.True(t, l.Core().Enabled(zapcore.InfoLevel))
	require.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewConsoleLogger(t *testing.T) {
	l, err := New(Config{Level: zapcore.DebugLevel, Format: "console"})
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNopDiscardsEverything(t *testing.T) {
	l := Nop()
	require.NotNil(t, l)
	require.False(t, l.Core().Enabled(zapcore.DebugLevel))
	require.False(t, l.Core().Enabled(zapcore.ErrorLevel))
}
