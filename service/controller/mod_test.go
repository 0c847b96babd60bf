package controller

import (
	"bytes"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/tdec/api"
	"go.dedis.ch/tdec/cli/node"
	"go.dedis.ch/tdec/config"
	"go.dedis.ch/tdec/crypto/curve"
	"go.dedis.ch/tdec/internal/testing/committee"
	"go.dedis.ch/tdec/internal/testing/fake"
	"go.dedis.ch/tdec/service"
)

func TestController_OnStart(t *testing.T) {
	tracer := mocktracer.New()

	defer func() {
		getTracer = defaultGetTracer
	}()

	getTracer = func(name string) (opentracing.Tracer, error) {
		require.Equal(t, TracerName, name)
		return tracer, nil
	}

	c := committee.New(4, 2, "service controller")
	srv := newFakeProxy()

	inj := node.NewInjector()
	inj.Inject(config.Settings{Workers: 2, Tracing: true})
	inj.Inject(c.Directory(t))
	inj.Inject(c.Share(t, 2))
	inj.Inject(srv)

	err := NewController().OnStart(node.FlagSet{}, inj)
	require.NoError(t, err)

	require.Equal(t, []string{
		service.PartialDecryptRoute,
		service.VerifyPartRoute,
		service.GetPublicKeyRoute,
		service.DecryptRoute,
		service.EncryptRoute,
	}, srv.routes)

	var srvc *service.Service
	require.NoError(t, inj.Resolve(&srvc))

	req := &api.PKRequest{ID: 1, N: 4}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, service.GetPublicKeyRoute,
		bytes.NewReader(req.Marshal())))

	require.Equal(t, http.StatusOK, rec.Code)

	res := &api.Response{}
	require.NoError(t, res.Unmarshal(rec.Body.Bytes()))

	expected, err := curve.Encode(c.PublicKeys[1])
	require.NoError(t, err)
	require.Equal(t, expected, res.Result)

	require.Len(t, tracer.FinishedSpans(), 1)

	require.NoError(t, NewController().OnStop(inj))
}

func TestController_MissingDependencies(t *testing.T) {
	c := committee.New(4, 2, "service controller")

	inj := node.NewInjector()

	err := NewController().OnStart(node.FlagSet{}, inj)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to resolve settings: ")

	inj.Inject(config.Settings{})

	err = NewController().OnStart(node.FlagSet{}, inj)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to resolve directory: ")

	inj.Inject(c.Directory(t))

	err = NewController().OnStart(node.FlagSet{}, inj)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to resolve share: ")

	inj.Inject(c.Share(t, 0))

	err = NewController().OnStart(node.FlagSet{}, inj)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to resolve proxy: ")
}

func TestController_FailedTracer(t *testing.T) {
	defer func() {
		getTracer = defaultGetTracer
	}()

	getTracer = func(string) (opentracing.Tracer, error) {
		return nil, fake.GetError()
	}

	c := committee.New(4, 2, "service controller")

	inj := node.NewInjector()
	inj.Inject(config.Settings{Tracing: true})
	inj.Inject(c.Directory(t))
	inj.Inject(c.Share(t, 0))
	inj.Inject(newFakeProxy())

	err := NewController().OnStart(node.FlagSet{}, inj)
	require.EqualError(t, err, fake.Err("failed to create tracer"))
}

// -----------------------------------------------------------------------------
// Utility functions

var defaultGetTracer = getTracer

// fakeProxy is a proxy that serves the requests without listening.
//
// - implements proxy.Proxy
type fakeProxy struct {
	*http.ServeMux
	routes []string
}

func newFakeProxy() *fakeProxy {
	return &fakeProxy{ServeMux: http.NewServeMux()}
}

func (p *fakeProxy) Listen() {}

func (p *fakeProxy) Stop() {}

func (p *fakeProxy) GetAddr() net.Addr {
	return nil
}

func (p *fakeProxy) RegisterHandler(path string, handler func(http.ResponseWriter, *http.Request)) {
	p.routes = append(p.routes, path)
	p.HandleFunc(path, handler)
}
