// Package tdec holds the elements shared by every module of a threshold
// decryption node: the global logger, the list of Prometheus collectors and
// the taxonomy of errors returned by the decryption engine.
package tdec

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// EnvLogLevel is the name of the environment variable to change the logging
// level.
const EnvLogLevel = "LLVL"

const defaultLevel = zerolog.InfoLevel

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance. By default, it only prints
// info and above, which can be changed with the LLVL environment variable, or
// the node configuration once it is loaded.
var Logger = zerolog.New(logout).
	With().Timestamp().Logger().
	With().Caller().Logger().
	Level(levelFromEnv())

// PromCollectors exposes the Prometheus collectors created in the modules. The
// HTTP proxy registers them when the metrics endpoint is enabled.
var PromCollectors []prometheus.Collector

// SetLevel parses the level and applies it to the global logger. An empty
// string leaves the logger untouched.
func SetLevel(level string) error {
	if level == "" {
		return nil
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}

	Logger = Logger.Level(lvl)

	return nil
}

func levelFromEnv() zerolog.Level {
	lvl, err := zerolog.ParseLevel(os.Getenv(EnvLogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return defaultLevel
	}

	return lvl
}
