package service

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/prometheus/client_golang/prometheus"
	"go.dedis.ch/tdec"
	"go.dedis.ch/tdec/api"
	"go.dedis.ch/tdec/internal/tracing"
	"go.dedis.ch/tdec/proxy"
	proxyhttp "go.dedis.ch/tdec/proxy/http"
	"golang.org/x/xerrors"
)

// Routes of the service.
const (
	PartialDecryptRoute = "/partdec"
	VerifyPartRoute     = "/verifydec"
	GetPublicKeyRoute   = "/getpk"
	DecryptRoute        = "/decrypt"
	EncryptRoute        = "/encrypt"
)

var (
	promRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tdec_service_requests_total",
		Help: "total number of requests, by route and status code",
	}, []string{"route", "code"})

	promDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tdec_service_request_duration_seconds",
		Help:    "duration of the requests, by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	promInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tdec_service_inflight_requests",
		Help: "number of requests holding a slot",
	})
)

func init() {
	tdec.PromCollectors = append(tdec.PromCollectors, promRequests, promDuration,
		promInflight)
}

// RegisterHandlers registers the routes of the service on the proxy.
func (s *Service) RegisterHandlers(p proxy.Proxy) {
	p.RegisterHandler(PartialDecryptRoute, s.handler(PartialDecryptRoute,
		func() api.Message { return &api.GammaG2Request{} },
		func(ctx context.Context, msg api.Message) (api.Message, error) {
			return s.PartialDecrypt(ctx, msg.(*api.GammaG2Request))
		}))

	p.RegisterHandler(VerifyPartRoute, s.handler(VerifyPartRoute,
		func() api.Message { return &api.VerifyPartRequest{} },
		func(ctx context.Context, msg api.Message) (api.Message, error) {
			return nil, s.VerifyPart(ctx, msg.(*api.VerifyPartRequest))
		}))

	p.RegisterHandler(GetPublicKeyRoute, s.handler(GetPublicKeyRoute,
		func() api.Message { return &api.PKRequest{} },
		func(ctx context.Context, msg api.Message) (api.Message, error) {
			return s.GetPublicKey(ctx, msg.(*api.PKRequest))
		}))

	p.RegisterHandler(DecryptRoute, s.handler(DecryptRoute,
		func() api.Message { return &api.DecryptParamsRequest{} },
		func(ctx context.Context, msg api.Message) (api.Message, error) {
			return s.Decrypt(ctx, msg.(*api.DecryptParamsRequest))
		}))

	p.RegisterHandler(EncryptRoute, s.handler(EncryptRoute,
		func() api.Message { return &api.EncryptRequest{} },
		func(ctx context.Context, msg api.Message) (api.Message, error) {
			return s.Encrypt(ctx, msg.(*api.EncryptRequest))
		}))
}

type operation func(ctx context.Context, msg api.Message) (api.Message, error)

// handler returns the http handler of an operation. It decodes the request,
// runs the operation in a span and writes the response with the status code
// matching the error.
func (s *Service) handler(route string, newMsg func() api.Message, op operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := proxyhttp.RequestID(r)

		logger := s.logger.With().Str("route", route).Str("requestID", requestID).Logger()

		status, resp, err := s.serve(w, r, route, requestID, newMsg, op)

		promRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		promDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())

		switch {
		case status == http.StatusOK:
			logger.Debug().Msg("request served")
		case status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable:
			logger.Err(err).Int("status", status).Msg("request failed")
		case status == http.StatusUnavailableForLegalReasons:
			logger.Warn().Err(err).Int("status", status).Msg("request rejected")
		default:
			logger.Debug().Err(err).Int("status", status).Msg("request rejected")
		}

		if status == http.StatusMethodNotAllowed {
			w.Header().Set("Allow", http.MethodPost)
		}

		if err != nil {
			writeError(w, status, err)
			return
		}

		w.Header().Set("Content-Type", api.ContentType)
		w.WriteHeader(status)

		if resp != nil {
			w.Write(resp.Marshal())
		}
	}
}

func (s *Service) serve(w http.ResponseWriter, r *http.Request, route, requestID string,
	newMsg func() api.Message, op operation) (int, api.Message, error) {

	if r.Method != http.MethodPost {
		return http.StatusMethodNotAllowed, nil, xerrors.Errorf("method %s not allowed", r.Method)
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var maxErr *http.MaxBytesError
		if xerrors.As(err, &maxErr) {
			return http.StatusRequestEntityTooLarge, nil,
				xerrors.Errorf("body larger than %d bytes", maxErr.Limit)
		}

		return http.StatusBadRequest, nil, xerrors.Errorf("failed to read body: %v", err)
	}

	msg := newMsg()

	err = msg.Unmarshal(body)
	if err != nil {
		return http.StatusBadRequest, nil, xerrors.Errorf("failed to decode request: %w", err)
	}

	span := s.tracer.StartSpan(route)
	defer span.Finish()

	span.SetTag(tracing.RouteTag, route)
	span.SetTag(tracing.RequestIDTag, requestID)

	ctx := opentracing.ContextWithSpan(r.Context(), span)

	resp, err := op(ctx, msg)
	status := statusOf(err)

	ext.HTTPStatusCode.Set(span, uint16(status))

	if err != nil {
		ext.Error.Set(span, true)
		span.LogKV("error", err.Error())
	}

	return status, resp, err
}

// writeError writes the failure of a request. Rejected requests get no body
// and internal errors only get the status text, the details stay in the logs
// and the span.
func writeError(w http.ResponseWriter, status int, err error) {
	if status == http.StatusUnavailableForLegalReasons {
		w.WriteHeader(status)
		return
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, msg)
}

// statusOf returns the http status code matching the error.
func statusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case xerrors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	case xerrors.Is(err, tdec.ErrInvalidEncoding), xerrors.Is(err, tdec.ErrUnknownParty):
		return http.StatusBadRequest
	case xerrors.Is(err, tdec.ErrVerificationFailure),
		xerrors.Is(err, tdec.ErrInsufficientShares),
		xerrors.Is(err, tdec.ErrDecryptionFailure):
		return http.StatusUnavailableForLegalReasons
	default:
		return http.StatusInternalServerError
	}
}
