package threshold

import (
	"sort"
	"sync"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/share"
	"go.dedis.ch/tdec"
	"go.dedis.ch/tdec/crypto/curve"
	"go.dedis.ch/tdec/keys"
	"golang.org/x/xerrors"
)

// Quorum is a set of verified partial decryptions of a single identity
// element, indexed by participant. Entries can only be added through Admit,
// which verifies them first. It is safe for concurrent use.
type Quorum struct {
	sync.Mutex

	identity kyber.Point
	parts    map[int]kyber.Point
}

// NewQuorum returns an empty quorum for the identity element.
func NewQuorum(identity kyber.Point) *Quorum {
	return &Quorum{
		identity: identity,
		parts:    make(map[int]kyber.Point),
	}
}

// Len returns the number of verified partial decryptions.
func (q *Quorum) Len() int {
	q.Lock()
	defer q.Unlock()

	return len(q.parts)
}

// Admit verifies the partial decryption of the participant and adds it to the
// quorum. A participant can only be admitted once.
func (q *Quorum) Admit(v Verifier, dir *keys.Directory, id int, partial kyber.Point) error {
	pk, err := dir.GetPublicKey(id, dir.Len())
	if err != nil {
		return xerrors.Errorf("failed to get public key: %w", err)
	}

	if q.has(id) {
		return xerrors.Errorf("participant %d already admitted", id)
	}

	ok, err := v.VerifyPartialDecryption(pk, q.identity, partial)
	if err != nil {
		return xerrors.Errorf("failed to verify: %w", err)
	}

	if !ok {
		return xerrors.Errorf("participant %d: %w", id, tdec.ErrVerificationFailure)
	}

	q.Lock()
	defer q.Unlock()

	_, found := q.parts[id]
	if found {
		return xerrors.Errorf("participant %d already admitted", id)
	}

	q.parts[id] = partial

	return nil
}

func (q *Quorum) has(id int) bool {
	q.Lock()
	defer q.Unlock()

	_, found := q.parts[id]

	return found
}

// ids returns the participant indices in increasing order.
func (q *Quorum) ids() []int {
	q.Lock()
	defer q.Unlock()

	ids := make([]int, 0, len(q.parts))
	for id := range q.parts {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	return ids
}

// get returns the partial decryption of the participant.
func (q *Quorum) get(id int) kyber.Point {
	q.Lock()
	defer q.Unlock()

	return q.parts[id]
}

// CombinedDecryption is the multiplication of an identity element by the
// secret of the committee.
type CombinedDecryption struct {
	point kyber.Point
}

// Combiner interpolates the partial decryptions of a quorum.
type Combiner struct{}

// NewCombiner returns a new combiner.
func NewCombiner() Combiner {
	return Combiner{}
}

// Combine interpolates at zero the partial decryptions of the t participants
// of the quorum with the lowest indices. The result does not depend on which
// subset of valid partial decryptions is used.
func (Combiner) Combine(q *Quorum, t int) (CombinedDecryption, error) {
	if q == nil || t < 1 || q.Len() < t {
		size := 0
		if q != nil {
			size = q.Len()
		}

		return CombinedDecryption{}, xerrors.Errorf("%d partial decryptions for a threshold of %d: %w",
			size, t, tdec.ErrInsufficientShares)
	}

	ids := q.ids()[:t]

	pubShares := make([]*share.PubShare, t)
	for i, id := range ids {
		pubShares[i] = &share.PubShare{I: id, V: q.get(id)}
	}

	point, err := share.RecoverCommit(curve.G2(), pubShares, t, ids[t-1]+1)
	if err != nil {
		return CombinedDecryption{}, xerrors.Errorf("failed to recover commit: %v", err)
	}

	return CombinedDecryption{point: point}, nil
}
