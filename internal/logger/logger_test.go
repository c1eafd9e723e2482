package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("LOG_DEV", "")
	t.Setenv("LOG_LEVEL", "")
	require.Equal(t, Config{Level: "info", Dev: false}, ConfigFromEnv())

	t.Setenv("LOG_DEV", "1")
	require.Equal(t, Config{Level: "debug", Dev: true}, ConfigFromEnv())

	t.Setenv("LOG_LEVEL", "warn")
	require.Equal(t, "warn", ConfigFromEnv().Level)
}

func TestLevelFromString(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARNING": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		require.Equal(t, want, levelFromString(in), in)
	}
}

func TestInit_Production(t *testing.T) {
	lg, err := Init(Config{Level: "error"})
	require.NoError(t, err)
	require.False(t, lg.Core().Enabled(zapcore.InfoLevel))
	require.True(t, lg.Core().Enabled(zapcore.ErrorLevel))
}
