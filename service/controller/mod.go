// Package controller implements the initializer that serves the requests of
// the committee member on the HTTP server of the node.
package controller

import (
	"go.dedis.ch/tdec/cli"
	"go.dedis.ch/tdec/cli/node"
	"go.dedis.ch/tdec/config"
	"go.dedis.ch/tdec/internal/tracing"
	"go.dedis.ch/tdec/keys"
	"go.dedis.ch/tdec/proxy"
	"go.dedis.ch/tdec/service"
	"golang.org/x/xerrors"
)

// TracerName is the service name reported to jaeger.
const TracerName = "tdec"

var getTracer = tracing.GetTracer

// NewController returns a new initializer for the request service.
func NewController() node.Initializer {
	return controller{}
}

// controller creates the request service with the key material of the node
// and registers its handlers on the HTTP server.
//
// - implements node.Initializer
type controller struct{}

// SetCommands implements node.Initializer. The service has no command of its
// own.
func (controller) SetCommands(node.Builder) {}

// OnStart implements node.Initializer. It resolves the settings, the key
// material and the HTTP server, and injects the service.
func (controller) OnStart(flags cli.Flags, inj node.Injector) error {
	var settings config.Settings

	err := inj.Resolve(&settings)
	if err != nil {
		return xerrors.Errorf("failed to resolve settings: %v", err)
	}

	var dir *keys.Directory

	err = inj.Resolve(&dir)
	if err != nil {
		return xerrors.Errorf("failed to resolve directory: %v", err)
	}

	var share keys.SecretShare

	err = inj.Resolve(&share)
	if err != nil {
		return xerrors.Errorf("failed to resolve share: %v", err)
	}

	var srv proxy.Proxy

	err = inj.Resolve(&srv)
	if err != nil {
		return xerrors.Errorf("failed to resolve proxy: %v", err)
	}

	opts := []service.Option{
		service.WithWorkers(settings.Workers),
		service.WithMaxBody(settings.MaxBody),
	}

	if settings.Tracing {
		tracer, err := getTracer(TracerName)
		if err != nil {
			return xerrors.Errorf("failed to create tracer: %v", err)
		}

		opts = append(opts, service.WithTracer(tracer))
	}

	srvc := service.NewService(dir, share, opts...)
	srvc.RegisterHandlers(srv)

	inj.Inject(srvc)

	return nil
}

// OnStop implements node.Initializer. It flushes the tracers.
func (controller) OnStop(node.Injector) error {
	err := tracing.CloseAll()
	if err != nil {
		return xerrors.Errorf("failed to close tracers: %v", err)
	}

	return nil
}
