// Package threshold implements the threshold decryption of a committee
// member.
//
// A ciphertext carries an identity element in G2. Each participant multiplies
// it by its secret share to produce a partial decryption, which anyone can
// verify against the public key share of the participant with a pairing
// equation. Once enough verified partial decryptions are collected, they are
// interpolated in G2 to obtain the combined decryption from which the
// symmetric key of the payload is derived.
package threshold

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/tdec"
	"go.dedis.ch/tdec/crypto/curve"
	"go.dedis.ch/tdec/keys"
	"golang.org/x/xerrors"
)

var (
	promParts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tdec_threshold_parts_total",
		Help: "total number of partial decryptions received, by outcome",
	}, []string{"outcome"})

	promQuorum = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tdec_threshold_quorum_size",
		Help:    "number of verified partial decryptions per request",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 20, 30, 50, 100},
	})
)

func init() {
	tdec.PromCollectors = append(tdec.PromCollectors, promParts, promQuorum)
}

// PartialDecryptor computes the partial decryptions of the local node.
type PartialDecryptor struct {
	share keys.SecretShare
}

// NewPartialDecryptor returns a decryptor using the secret share.
func NewPartialDecryptor(share keys.SecretShare) PartialDecryptor {
	return PartialDecryptor{share: share}
}

// Index returns the index of the participant in the committee.
func (d PartialDecryptor) Index() int {
	return d.share.Index()
}

// ComputePartialDecryption returns the multiplication of the identity element
// by the secret share.
func (d PartialDecryptor) ComputePartialDecryption(identity kyber.Point) (kyber.Point, error) {
	if identity == nil || curve.IsNeutral(curve.G2(), identity) {
		return nil, xerrors.Errorf("missing identity element: %w", tdec.ErrInvalidEncoding)
	}

	return d.share.Mul(identity), nil
}

// Verifier checks the partial decryptions of the participants. It is
// stateless.
type Verifier struct{}

// NewVerifier returns a new verifier.
func NewVerifier() Verifier {
	return Verifier{}
}

// VerifyPartialDecryption returns true when the partial decryption is the
// multiplication of the identity element by the secret share behind the public
// key share, which is true when e(G1, partial) == e(pk, identity).
func (Verifier) VerifyPartialDecryption(pk, identity, partial kyber.Point) (bool, error) {
	if pk == nil || identity == nil || partial == nil {
		return false, xerrors.Errorf("missing element: %w", tdec.ErrInvalidEncoding)
	}

	return curve.PairEqual(curve.Base1(), partial, pk, identity), nil
}
