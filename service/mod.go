// Package service implements the operations exposed by a node of the
// committee to its clients. Operations involving pairings are bounded by a
// number of slots so that a burst of requests cannot exhaust the node.
package service

import (
	"context"
	"math"
	"runtime"

	"github.com/opentracing/opentracing-go"
	"github.com/rs/zerolog"
	"go.dedis.ch/tdec"
	"go.dedis.ch/tdec/api"
	"go.dedis.ch/tdec/crypto/curve"
	"go.dedis.ch/tdec/keys"
	"go.dedis.ch/tdec/threshold"
	"golang.org/x/xerrors"
)

// DefaultMaxBody is the default maximum size in bytes of a request body.
const DefaultMaxBody = 256 << 10

// ErrUnavailable is returned when a request gives up waiting for a slot.
var ErrUnavailable = xerrors.New("service unavailable")

// Option is the type of option to set some fields of the service.
type Option func(*Service)

// WithWorkers sets the number of requests processed in parallel, and the
// number of verifications running in parallel for a decryption.
func WithWorkers(num int) Option {
	return func(s *Service) {
		if num > 0 {
			s.workers = num
		}
	}
}

// WithMaxBody sets the maximum size in bytes of a request body.
func WithMaxBody(size int64) Option {
	return func(s *Service) {
		if size > 0 {
			s.maxBody = size
		}
	}
}

// WithTracer sets the tracer of the requests.
func WithTracer(tracer opentracing.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// Service is the request service of a committee member.
type Service struct {
	logger       zerolog.Logger
	dir          *keys.Directory
	decryptor    threshold.PartialDecryptor
	verifier     threshold.Verifier
	orchestrator *threshold.Orchestrator
	tracer       opentracing.Tracer
	workers      int
	maxBody      int64
	slots        chan struct{}
}

// NewService creates the service of the participant owning the secret share.
func NewService(dir *keys.Directory, share keys.SecretShare, opts ...Option) *Service {
	s := &Service{
		logger:    tdec.Logger.With().Str("role", "service").Int("index", share.Index()).Logger(),
		dir:       dir,
		decryptor: threshold.NewPartialDecryptor(share),
		verifier:  threshold.NewVerifier(),
		tracer:    opentracing.NoopTracer{},
		workers:   runtime.NumCPU(),
		maxBody:   DefaultMaxBody,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.slots = make(chan struct{}, s.workers)
	s.orchestrator = threshold.NewOrchestrator(dir, threshold.WithWorkers(s.workers))

	return s
}

// PartialDecrypt returns the partial decryption of the identity element by
// the secret share of the node.
func (s *Service) PartialDecrypt(ctx context.Context, req *api.GammaG2Request) (*api.Response, error) {
	identity, err := curve.DecodeG2(req.GammaG2)
	if err != nil {
		return nil, xerrors.Errorf("identity element: %w", err)
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}

	defer release()

	partial, err := s.decryptor.ComputePartialDecryption(identity)
	if err != nil {
		return nil, xerrors.Errorf("failed to compute partial decryption: %w", err)
	}

	return encodeResponse(partial)
}

// VerifyPart verifies the partial decryption of a participant. It returns
// tdec.ErrVerificationFailure when the partial decryption is invalid.
func (s *Service) VerifyPart(ctx context.Context, req *api.VerifyPartRequest) error {
	pk, err := curve.DecodeG1(req.PK)
	if err != nil {
		return xerrors.Errorf("public key: %w", err)
	}

	identity, err := curve.DecodeG2(req.GammaG2)
	if err != nil {
		return xerrors.Errorf("identity element: %w", err)
	}

	partial, err := curve.DecodeG2(req.PartDec)
	if err != nil {
		return xerrors.Errorf("partial decryption: %w", err)
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}

	defer release()

	ok, err := s.verifier.VerifyPartialDecryption(pk, identity, partial)
	if err != nil {
		return xerrors.Errorf("failed to verify: %w", err)
	}

	if !ok {
		return xerrors.Errorf("invalid partial decryption: %w", tdec.ErrVerificationFailure)
	}

	return nil
}

// GetPublicKey returns the public key share of a participant of the
// committee.
func (s *Service) GetPublicKey(ctx context.Context, req *api.PKRequest) (*api.Response, error) {
	id, ok := toInt(req.ID)
	if !ok {
		return nil, xerrors.Errorf("index %d out of range: %w", req.ID, tdec.ErrUnknownParty)
	}

	n, ok := toInt(req.N)
	if !ok {
		return nil, xerrors.Errorf("committee of %d participants: %w", req.N, tdec.ErrUnknownParty)
	}

	pk, err := s.dir.GetPublicKey(id, n)
	if err != nil {
		return nil, xerrors.Errorf("failed to get public key: %w", err)
	}

	return encodeResponse(pk)
}

// Decrypt decrypts a ciphertext with the partial decryptions of the request.
func (s *Service) Decrypt(ctx context.Context, req *api.DecryptParamsRequest) (*api.Response, error) {
	n, ok := toInt(req.N)
	if !ok {
		return nil, xerrors.Errorf("committee of %d participants: %w", req.N, tdec.ErrUnknownParty)
	}

	t, ok := toInt(req.T)
	if !ok {
		return nil, xerrors.Errorf("threshold %d out of range: %w", req.T, tdec.ErrInsufficientShares)
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}

	defer release()

	plaintext, err := s.orchestrator.Decrypt(ctx, threshold.DecryptRequest{
		Enc:        req.Enc,
		SA1:        req.SA1,
		SA2:        req.SA2,
		IV:         req.IV,
		PublicKeys: req.PKs,
		Parts:      req.Parts,
		Threshold:  t,
		N:          n,
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to decrypt: %w", err)
	}

	return &api.Response{Result: plaintext}, nil
}

// Encrypt encrypts a message for the committee of the node.
func (s *Service) Encrypt(ctx context.Context, req *api.EncryptRequest) (*api.EncryptResponse, error) {
	n, ok := toInt(req.N)
	if !ok || n != s.dir.Len() {
		return nil, xerrors.Errorf("committee of %d participants, got %d: %w",
			s.dir.Len(), req.N, tdec.ErrUnknownParty)
	}

	t, ok := toInt(req.T)
	if !ok || t < s.dir.Threshold() || t > n {
		return nil, xerrors.Errorf("threshold %d out of range [%d, %d]: %w",
			req.T, s.dir.Threshold(), n, tdec.ErrInsufficientShares)
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}

	defer release()

	ct, err := threshold.Encrypt(s.dir.MasterKey(), req.Msg)
	if err != nil {
		return nil, xerrors.Errorf("failed to encrypt: %w", err)
	}

	sa1, err := curve.Encode(ct.SA1)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode sa1: %v", err)
	}

	sa2, err := curve.Encode(ct.SA2)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode sa2: %v", err)
	}

	resp := &api.EncryptResponse{
		Enc:     ct.Enc,
		SA1:     sa1,
		SA2:     sa2,
		IV:      ct.IV,
		GammaG2: sa2,
	}

	return resp, nil
}

// acquire waits for a free slot. The returned function must be called to free
// the slot.
func (s *Service) acquire(ctx context.Context) (func(), error) {
	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, xerrors.Errorf("no slot (%v): %w", ctx.Err(), ErrUnavailable)
	}

	promInflight.Inc()

	return func() {
		promInflight.Dec()
		<-s.slots
	}, nil
}

func encodeResponse(m interface{ MarshalBinary() ([]byte, error) }) (*api.Response, error) {
	data, err := m.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("failed to encode response: %v", err)
	}

	return &api.Response{Result: data}, nil
}

func toInt(v uint64) (int, bool) {
	if v > math.MaxInt32 {
		return 0, false
	}

	return int(v), true
}
