// Package controller implements the initializer that starts the HTTP server of
// the node.
package controller

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.dedis.ch/tdec"
	"go.dedis.ch/tdec/cli"
	"go.dedis.ch/tdec/cli/node"
	"go.dedis.ch/tdec/config"
	"go.dedis.ch/tdec/proxy"
	"go.dedis.ch/tdec/proxy/http"
	"golang.org/x/xerrors"
)

// MetricsPath is the path of the Prometheus handler.
const MetricsPath = "/metrics"

var proxyFac = func(addr string, maxConns int) proxy.Proxy {
	return http.NewHTTP(addr, http.WithMaxConns(maxConns))
}

var registerer prometheus.Registerer = prometheus.DefaultRegisterer

var defaultRetry = 50

var retryDelay = 100 * time.Millisecond

// NewController returns a new initializer for the HTTP server.
func NewController() node.Initializer {
	return controller{}
}

// controller creates the HTTP server of the node and injects it so that the
// other components can register their handlers.
//
// - implements node.Initializer
type controller struct{}

// SetCommands implements node.Initializer. The server is configured by the
// flags of the settings.
func (controller) SetCommands(node.Builder) {}

// OnStart implements node.Initializer. It starts the HTTP server with the
// Prometheus handler.
func (controller) OnStart(flags cli.Flags, inj node.Injector) error {
	var settings config.Settings

	err := inj.Resolve(&settings)
	if err != nil {
		return xerrors.Errorf("failed to resolve settings: %v", err)
	}

	srv := proxyFac(settings.Listen, settings.MaxConns)

	for _, c := range tdec.PromCollectors {
		err = registerer.Register(c)
		if err != nil && !isAlreadyRegistered(err) {
			return xerrors.Errorf("failed to register collector: %v", err)
		}
	}

	srv.RegisterHandler(MetricsPath, promhttp.Handler().ServeHTTP)

	err = listen(srv)
	if err != nil {
		return err
	}

	inj.Inject(srv)

	return nil
}

// OnStop implements node.Initializer. It stops the HTTP server.
func (controller) OnStop(inj node.Injector) error {
	var srv proxy.Proxy

	err := inj.Resolve(&srv)
	if err != nil {
		return xerrors.Errorf("failed to resolve proxy: %v", err)
	}

	srv.Stop()

	return nil
}

func isAlreadyRegistered(err error) bool {
	_, ok := err.(prometheus.AlreadyRegisteredError)
	return ok
}

// listen runs the server in the background and waits until it is listening.
func listen(srv proxy.Proxy) error {
	go srv.Listen()

	for i := 0; i < defaultRetry && srv.GetAddr() == nil; i++ {
		time.Sleep(retryDelay)
	}

	if srv.GetAddr() == nil {
		srv.Stop()

		return xerrors.New("failed to start proxy server")
	}

	tdec.Logger.Info().Msgf("started proxy server on %s", srv.GetAddr())

	return nil
}
