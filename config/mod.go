// Package config defines the settings of a node. The settings are read from an
// optional TOML file in the config folder and can be overridden by the flags of
// the start command.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"go.dedis.ch/tdec/cli"
	"golang.org/x/xerrors"
)

// SettingsFile is the name of the settings file in the config folder.
const SettingsFile = "node.toml"

// DefaultListen is the address of the HTTP server when neither the settings
// file nor the flags define one.
const DefaultListen = "127.0.0.1:8080"

// Names of the flags that override the settings.
const (
	ListenFlag   = "listen"
	WorkersFlag  = "workers"
	MaxConnsFlag = "maxconns"
	MaxBodyFlag  = "maxbody"
	LogLevelFlag = "loglevel"
	TracingFlag  = "tracing"
)

// Settings are the parameters of a running node. A zero value means that the
// component uses its own default.
type Settings struct {
	Listen   string `toml:"listen"`
	Workers  int    `toml:"workers"`
	MaxConns int    `toml:"maxConns"`
	MaxBody  int64  `toml:"maxBody"`
	LogLevel string `toml:"logLevel"`
	Tracing  bool   `toml:"tracing"`
}

// Load reads the settings file of the folder. A missing file returns the
// default settings.
func Load(folder string) (Settings, error) {
	settings := Settings{Listen: DefaultListen}

	path := filepath.Join(folder, SettingsFile)

	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return settings, nil
	}

	md, err := toml.DecodeFile(path, &settings)
	if err != nil {
		return settings, xerrors.Errorf("failed to decode '%s': %v", path, err)
	}

	undecoded := md.Undecoded()
	if len(undecoded) > 0 {
		return settings, xerrors.Errorf("unknown settings %v in '%s'", undecoded, path)
	}

	if settings.Workers < 0 || settings.MaxConns < 0 || settings.MaxBody < 0 {
		return settings, xerrors.Errorf("negative limit in '%s'", path)
	}

	if settings.Listen == "" {
		settings.Listen = DefaultListen
	}

	return settings, nil
}

// Override returns the settings updated with the flags that are set.
func (s Settings) Override(flags cli.Flags) Settings {
	listen := flags.String(ListenFlag)
	if listen != "" {
		s.Listen = listen
	}

	if flags.Int(WorkersFlag) > 0 {
		s.Workers = flags.Int(WorkersFlag)
	}

	if flags.Int(MaxConnsFlag) > 0 {
		s.MaxConns = flags.Int(MaxConnsFlag)
	}

	if flags.Int(MaxBodyFlag) > 0 {
		s.MaxBody = int64(flags.Int(MaxBodyFlag))
	}

	level := flags.String(LogLevelFlag)
	if level != "" {
		s.LogLevel = level
	}

	if flags.Bool(TracingFlag) {
		s.Tracing = true
	}

	return s
}
