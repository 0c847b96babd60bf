package tdec

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	defer func(l zerolog.Logger) { Logger = l }(Logger)

	require.NoError(t, SetLevel(""))
	require.Equal(t, defaultLevel, Logger.GetLevel())

	require.NoError(t, SetLevel("warn"))
	require.Equal(t, zerolog.WarnLevel, Logger.GetLevel())

	err := SetLevel("blabla")
	require.Error(t, err)
	require.Equal(t, zerolog.WarnLevel, Logger.GetLevel())
}

func TestLevelFromEnv(t *testing.T) {
	defer os.Unsetenv(EnvLogLevel)

	os.Setenv(EnvLogLevel, "debug")
	require.Equal(t, zerolog.DebugLevel, levelFromEnv())

	os.Setenv(EnvLogLevel, "")
	require.Equal(t, defaultLevel, levelFromEnv())

	os.Setenv(EnvLogLevel, "not a level")
	require.Equal(t, defaultLevel, levelFromEnv())
}
