package threshold

import (
	"context"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/tdec"
	"go.dedis.ch/tdec/crypto/curve"
	"go.dedis.ch/tdec/keys"
	"golang.org/x/xerrors"
)

// DecryptRequest is a request to decrypt a ciphertext with the partial
// decryptions of the participants. PublicKeys and Parts are parallel lists.
type DecryptRequest struct {
	Enc        []byte
	SA1        []byte
	SA2        []byte
	IV         []byte
	PublicKeys [][]byte
	Parts      [][]byte
	Threshold  int
	N          int
}

// OrchestratorOption is the type of option to set some fields of an
// orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithWorkers sets the number of verifications running in parallel across all
// the decryptions of the orchestrator.
func WithWorkers(num int) OrchestratorOption {
	return func(o *Orchestrator) {
		if num > 0 {
			o.workers = num
		}
	}
}

// Orchestrator drives the decryption of a ciphertext from the partial
// decryptions of the participants: it verifies them, combines the valid ones
// and decrypts the payload.
type Orchestrator struct {
	logger    zerolog.Logger
	dir       *keys.Directory
	verifier  Verifier
	combiner  Combiner
	decryptor HybridDecryptor
	workers   int
	slots     chan struct{}
}

// NewOrchestrator creates a new orchestrator for the committee.
func NewOrchestrator(dir *keys.Directory, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		logger:    tdec.Logger.With().Str("role", "orchestrator").Logger(),
		dir:       dir,
		verifier:  NewVerifier(),
		combiner:  NewCombiner(),
		decryptor: NewHybridDecryptor(),
		workers:   runtime.NumCPU(),
	}

	for _, opt := range opts {
		opt(o)
	}

	o.slots = make(chan struct{}, o.workers)

	return o
}

// candidate is a partial decryption waiting for its verification.
type candidate struct {
	id      int
	pk      kyber.Point
	partial kyber.Point
}

// Decrypt returns the plaintext of the ciphertext of the request. Partial
// decryptions of unknown participants, duplicated participants and partial
// decryptions that do not verify are ignored, as long as at least t of them
// are valid.
func (o *Orchestrator) Decrypt(ctx context.Context, req DecryptRequest) ([]byte, error) {
	if req.N != o.dir.Len() {
		return nil, xerrors.Errorf("committee of %d participants, got %d: %w",
			o.dir.Len(), req.N, tdec.ErrUnknownParty)
	}

	if len(req.PublicKeys) != len(req.Parts) {
		return nil, xerrors.Errorf("%d public keys for %d partial decryptions: %w",
			len(req.PublicKeys), len(req.Parts), tdec.ErrInvalidEncoding)
	}

	if req.Threshold < o.dir.Threshold() || req.Threshold > req.N {
		return nil, xerrors.Errorf("threshold %d out of range [%d, %d]: %w",
			req.Threshold, o.dir.Threshold(), req.N, tdec.ErrInsufficientShares)
	}

	ct, err := DecodeCiphertext(req.Enc, req.SA1, req.SA2, req.IV)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode ciphertext: %w", err)
	}

	candidates, err := o.decodeCandidates(req.PublicKeys, req.Parts)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode partial decryptions: %w", err)
	}

	quorum, err := o.verify(ctx, ct.Identity(), candidates)
	if err != nil {
		return nil, xerrors.Errorf("failed to verify: %w", err)
	}

	promQuorum.Observe(float64(quorum.Len()))

	combined, err := o.combiner.Combine(quorum, req.Threshold)
	if err != nil {
		return nil, xerrors.Errorf("failed to combine: %w", err)
	}

	plaintext, err := o.decryptor.Decrypt(ct, combined)
	if err != nil {
		return nil, xerrors.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

// decodeCandidates decodes every public key and partial decryption before any
// verification, and maps the public keys to the participant indices.
func (o *Orchestrator) decodeCandidates(pubkeys, parts [][]byte) ([]candidate, error) {
	decoded := make([]candidate, len(pubkeys))

	for i := range pubkeys {
		pk, err := curve.DecodeG1(pubkeys[i])
		if err != nil {
			return nil, xerrors.Errorf("public key %d: %w", i, err)
		}

		partial, err := curve.DecodeG2(parts[i])
		if err != nil {
			return nil, xerrors.Errorf("partial decryption %d: %w", i, err)
		}

		decoded[i] = candidate{pk: pk, partial: partial}
	}

	candidates := make([]candidate, 0, len(decoded))
	seen := make(map[int]struct{})

	for i, c := range decoded {
		id, found := o.dir.IndexOf(c.pk)
		if !found {
			o.logger.Warn().Int("position", i).Msg("ignoring unknown public key")
			promParts.WithLabelValues("unknown").Inc()
			continue
		}

		_, found = seen[id]
		if found {
			o.logger.Warn().Int("position", i).Int("id", id).Msg("ignoring duplicated participant")
			promParts.WithLabelValues("duplicate").Inc()
			continue
		}

		seen[id] = struct{}{}

		c.id = id
		candidates = append(candidates, c)
	}

	return candidates, nil
}

// verify checks the candidates in parallel and returns the quorum of the valid
// ones. The verifications of all the requests share the slots of the
// orchestrator, so that at most as many pairings as workers run at once.
func (o *Orchestrator) verify(ctx context.Context, identity kyber.Point,
	candidates []candidate) (*Quorum, error) {

	quorum := NewQuorum(identity)

	jobChan := make(chan int)

	go func() {
		defer close(jobChan)

		for i := range candidates {
			select {
			case jobChan <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	workerNum := o.workers
	if len(candidates) < workerNum {
		workerNum = len(candidates)
	}

	wg := sync.WaitGroup{}

	for i := 0; i < workerNum; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := range jobChan {
				select {
				case o.slots <- struct{}{}:
				case <-ctx.Done():
					return
				}

				c := candidates[j]

				err := quorum.Admit(o.verifier, o.dir, c.id, c.partial)

				<-o.slots

				if err != nil {
					o.logger.Warn().Err(err).Int("id", c.id).Msg("partial decryption rejected")
					promParts.WithLabelValues("rejected").Inc()
					continue
				}

				promParts.WithLabelValues("verified").Inc()
			}
		}()
	}

	wg.Wait()

	if ctx.Err() != nil {
		return nil, xerrors.Errorf("verification interrupted: %v", ctx.Err())
	}

	o.logger.Debug().
		Int("candidates", len(candidates)).
		Int("verified", quorum.Len()).
		Msg("partial decryptions verified")

	return quorum, nil
}
