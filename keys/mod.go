// Package keys defines the key material of a committee member: the directory
// of the public key shares of the committee and the secret share of the local
// node.
//
// The committee shares a secret s = f(0) for a polynomial f of degree t-1. The
// participant of index i, starting from zero, holds the share f(i+1) and its
// public key share f(i+1)·G1 is published in the directory.
package keys

import (
	"fmt"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/share"
	"go.dedis.ch/tdec"
	"go.dedis.ch/tdec/crypto/curve"
	"golang.org/x/xerrors"
)

// Directory is the immutable list of the public key shares of the committee.
// It is safe for concurrent use.
type Directory struct {
	threshold int
	pubkeys   []kyber.Point
	indices   map[string]int
	master    kyber.Point
}

// NewDirectory creates a directory from the public key shares ordered by
// participant index. It makes sure that the shares are all evaluations of a
// single polynomial of degree threshold-1.
func NewDirectory(threshold int, pubkeys []kyber.Point) (*Directory, error) {
	if len(pubkeys) == 0 {
		return nil, xerrors.New("empty committee")
	}

	if threshold < 1 || threshold > len(pubkeys) {
		return nil, xerrors.Errorf("threshold %d out of range [1, %d]", threshold, len(pubkeys))
	}

	dir := &Directory{
		threshold: threshold,
		pubkeys:   make([]kyber.Point, len(pubkeys)),
		indices:   make(map[string]int, len(pubkeys)),
	}

	for i, pk := range pubkeys {
		if pk == nil || curve.IsNeutral(curve.G1(), pk) {
			return nil, xerrors.Errorf("public key %d: %w", i, tdec.ErrInvalidEncoding)
		}

		key := pk.String()

		_, found := dir.indices[key]
		if found {
			return nil, xerrors.Errorf("public key %d is duplicated", i)
		}

		dir.indices[key] = i
		dir.pubkeys[i] = pk.Clone()
	}

	pubShares := make([]*share.PubShare, threshold)
	for i := range pubShares {
		pubShares[i] = &share.PubShare{I: i, V: dir.pubkeys[i]}
	}

	poly, err := share.RecoverPubPoly(curve.G1(), pubShares, threshold, len(pubkeys))
	if err != nil {
		return nil, xerrors.Errorf("failed to recover polynomial: %v", err)
	}

	for i := threshold; i < len(pubkeys); i++ {
		if !poly.Eval(i).V.Equal(dir.pubkeys[i]) {
			return nil, xerrors.Errorf("public key %d is not on the polynomial of degree %d",
				i, threshold-1)
		}
	}

	dir.master = poly.Commit()

	return dir, nil
}

// Len returns the number of participants of the committee.
func (d *Directory) Len() int {
	return len(d.pubkeys)
}

// Threshold returns the minimum number of partial decryptions required to
// decrypt.
func (d *Directory) Threshold() int {
	return d.threshold
}

// GetPublicKey returns the public key share of the participant. The number of
// participants must match the committee.
func (d *Directory) GetPublicKey(id, n int) (kyber.Point, error) {
	if n != len(d.pubkeys) {
		return nil, xerrors.Errorf("committee of %d participants, got %d: %w",
			len(d.pubkeys), n, tdec.ErrUnknownParty)
	}

	if id < 0 || id >= n {
		return nil, xerrors.Errorf("index %d out of range: %w", id, tdec.ErrUnknownParty)
	}

	return d.pubkeys[id].Clone(), nil
}

// IndexOf returns the index of the participant that owns the public key share,
// if any.
func (d *Directory) IndexOf(pk kyber.Point) (int, bool) {
	if pk == nil {
		return -1, false
	}

	index, found := d.indices[pk.String()]
	if !found {
		return -1, false
	}

	return index, true
}

// MasterKey returns the public key of the committee, which is the commitment
// of the shared secret.
func (d *Directory) MasterKey() kyber.Point {
	return d.master.Clone()
}

// SecretShare is the share of the committee secret of the local node. The
// scalar never leaves the structure.
type SecretShare struct {
	index  int
	scalar kyber.Scalar
	public kyber.Point
}

// NewSecretShare binds the scalar to its index in the directory. It returns an
// error if the public key of the scalar is not part of the committee.
func NewSecretShare(dir *Directory, scalar kyber.Scalar) (SecretShare, error) {
	if scalar == nil {
		return SecretShare{}, xerrors.New("missing scalar")
	}

	public := curve.G1().Point().Mul(scalar, nil)

	index, found := dir.IndexOf(public)
	if !found {
		return SecretShare{}, xerrors.Errorf("share not in the committee: %w", tdec.ErrUnknownParty)
	}

	share := SecretShare{
		index:  index,
		scalar: scalar.Clone(),
		public: public,
	}

	return share, nil
}

// Index returns the index of the participant owning the share.
func (s SecretShare) Index() int {
	return s.index
}

// PublicKey returns the public key share.
func (s SecretShare) PublicKey() kyber.Point {
	return s.public.Clone()
}

// Mul returns the multiplication of the point by the secret share.
func (s SecretShare) Mul(p kyber.Point) kyber.Point {
	return p.Clone().Mul(s.scalar, p)
}

// String implements fmt.Stringer. It never prints the scalar.
func (s SecretShare) String() string {
	return fmt.Sprintf("SecretShare[%d]", s.index)
}

// GoString implements fmt.GoStringer.
func (s SecretShare) GoString() string {
	return s.String()
}

func (s SecretShare) marshal() ([]byte, error) {
	return curve.Encode(s.scalar)
}
