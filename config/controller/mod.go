// Package controller implements the initializer that defines the flags of the
// start command and injects the settings of the node.
package controller

import (
	"go.dedis.ch/tdec"
	"go.dedis.ch/tdec/cli"
	"go.dedis.ch/tdec/cli/node"
	"go.dedis.ch/tdec/config"
	"golang.org/x/xerrors"
)

// NewController returns a new initializer for the settings.
func NewController() node.Initializer {
	return controller{}
}

// controller reads the settings when the node starts.
//
// - implements node.Initializer
type controller struct{}

// SetCommands implements node.Initializer. It sets the flags of the start
// command that override the settings file.
func (controller) SetCommands(builder node.Builder) {
	builder.SetStartFlags(
		cli.StringFlag{
			Name:  config.ListenFlag,
			Usage: "address of the HTTP server (default " + config.DefaultListen + ")",
		},
		cli.IntFlag{
			Name:  config.WorkersFlag,
			Usage: "number of requests processed in parallel (default number of CPUs)",
		},
		cli.IntFlag{
			Name:  config.MaxConnsFlag,
			Usage: "maximum number of simultaneous connections",
		},
		cli.IntFlag{
			Name:  config.MaxBodyFlag,
			Usage: "maximum size in bytes of a request body",
		},
		cli.StringFlag{
			Name:  config.LogLevelFlag,
			Usage: "level of the logger (trace, debug, info, warn, error)",
		},
		cli.BoolFlag{
			Name:  config.TracingFlag,
			Usage: "report the requests to jaeger",
		},
	)
}

// OnStart implements node.Initializer. It reads the settings file, applies the
// flags and the log level, and injects the settings.
func (controller) OnStart(flags cli.Flags, inj node.Injector) error {
	settings, err := config.Load(flags.Path(node.ConfigFlag))
	if err != nil {
		return xerrors.Errorf("failed to load settings: %v", err)
	}

	settings = settings.Override(flags)

	err = tdec.SetLevel(settings.LogLevel)
	if err != nil {
		return xerrors.Errorf("invalid log level: %v", err)
	}

	inj.Inject(settings)

	return nil
}

// OnStop implements node.Initializer.
func (controller) OnStop(node.Injector) error {
	return nil
}
