package node

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.dedis.ch/tdec"
	"go.dedis.ch/tdec/cli"
	"go.dedis.ch/tdec/cli/ucli"
	"golang.org/x/xerrors"
)

// ConfigFlag is the name of the global flag of the config folder.
const ConfigFlag = "config"

// CLIBuilder is an application builder that will build a CLI to start and
// manage a node.
//
// - implements node.Builder
// - implements cli.Builder
type CLIBuilder struct {
	cli.Builder

	injector   Injector
	startFlags []cli.Flag
	inits      []Initializer
	writer     io.Writer

	// In production, the node is stopped via SIGTERM. In case of testing, the
	// channel is filled instead.
	enableSignal bool
	sigs         chan os.Signal
}

// NewBuilder returns a new empty builder.
func NewBuilder(inits ...Initializer) *CLIBuilder {
	return NewBuilderWithCfg(nil, nil, inits...)
}

// NewBuilderWithCfg returns a new empty builder with specific configurations.
func NewBuilderWithCfg(sigs chan os.Signal, out io.Writer, inits ...Initializer) *CLIBuilder {
	if out == nil {
		out = os.Stdout
	}

	enabled := false

	if sigs == nil {
		sigs = make(chan os.Signal, 1)
		enabled = true
	}

	builder := ucli.NewBuilder("tdec", nil, cli.PathFlag{
		Name:  ConfigFlag,
		Usage: "path to the config folder",
		Value: ".tdec",
	})

	return &CLIBuilder{
		Builder:      builder,
		injector:     NewInjector(),
		enableSignal: enabled,
		sigs:         sigs,
		inits:        inits,
		writer:       out,
	}
}

// SetStartFlags implements node.Builder. It appends the given flags to the list
// of flags that will be used to create the start command.
func (b *CLIBuilder) SetStartFlags(flags ...cli.Flag) {
	b.startFlags = append(b.startFlags, flags...)
}

// MakeAction implements node.Builder. It creates a CLI action from the
// template that runs in the current process, with the injector of the
// builder.
func (b *CLIBuilder) MakeAction(tmpl ActionTemplate) cli.Action {
	return func(flags cli.Flags) error {
		ctx := Context{
			Injector: b.injector,
			Flags:    flags,
			Out:      b.writer,
		}

		err := tmpl.Execute(ctx)
		if err != nil {
			return xerrors.Opaque(err)
		}

		return nil
	}
}

// Build implements cli.Builder. It returns the application.
func (b *CLIBuilder) Build() cli.Application {
	for _, controller := range b.inits {
		controller.SetCommands(b)
	}

	cmd := b.SetCommand("start")
	cmd.SetDescription("start the node")
	cmd.SetFlags(b.startFlags...)
	cmd.SetAction(b.start)

	return b.Builder.Build()
}

func (b *CLIBuilder) start(flags cli.Flags) error {
	if b.enableSignal {
		signal.Notify(b.sigs, syscall.SIGINT, syscall.SIGTERM)

		defer signal.Stop(b.sigs)
	}

	if flags != nil {
		dir := flags.Path(ConfigFlag)
		if dir != "" {
			err := os.MkdirAll(dir, 0700)
			if err != nil {
				return xerrors.Errorf("couldn't make path: %v", err)
			}
		}
	}

	for i, controller := range b.inits {
		err := controller.OnStart(flags, b.injector)
		if err != nil {
			b.stop(i)

			return xerrors.Errorf("couldn't run the controller: %v", err)
		}
	}

	tdec.Logger.Info().Msg("node is running")

	<-b.sigs

	err := b.stop(len(b.inits))
	if err != nil {
		return err
	}

	tdec.Logger.Info().Msg("node has been stopped")

	return nil
}

// stop stops the first n controllers in reverse order so that high level
// components are stopped before lower level ones (i.e. stop a service before
// the database).
func (b *CLIBuilder) stop(n int) error {
	for i := n - 1; i >= 0; i-- {
		err := b.inits[i].OnStop(b.injector)
		if err != nil {
			return xerrors.Errorf("couldn't stop controller: %v", err)
		}
	}

	return nil
}
