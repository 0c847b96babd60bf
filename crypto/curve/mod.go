// Package curve provides the group and pairing primitives of the threshold
// decryption. It is a thin adapter over the BN256 suite of Kyber and defines
// the canonical encoding of the group elements and scalars exchanged with the
// clients.
//
// Public key shares live in G1, identity elements and partial decryptions live
// in G2. Both groups share the same scalar field.
package curve

import (
	"bytes"
	"crypto/cipher"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/pairing"
	"go.dedis.ch/tdec"
	"golang.org/x/xerrors"
)

var suite = pairing.NewSuiteBn256()

// Suite returns the pairing suite.
func Suite() pairing.Suite {
	return suite
}

// G1 returns the group of the public key shares.
func G1() kyber.Group {
	return suite.G1()
}

// G2 returns the group of the identity elements and the partial decryptions.
func G2() kyber.Group {
	return suite.G2()
}

// Base1 returns the generator of G1.
func Base1() kyber.Point {
	return suite.G1().Point().Base()
}

// Base2 returns the generator of G2.
func Base2() kyber.Point {
	return suite.G2().Point().Base()
}

// Scalar returns a new zero scalar of the field shared by G1 and G2.
func Scalar() kyber.Scalar {
	return suite.G1().Scalar()
}

// RandomStream returns a cryptographically secure stream of random bytes.
func RandomStream() cipher.Stream {
	return suite.RandomStream()
}

// Pair computes the pairing of a point of G1 with a point of G2.
func Pair(p1, p2 kyber.Point) kyber.Point {
	return suite.Pair(p1, p2)
}

// PairEqual returns true when e(a1, a2) == e(b1, b2), where a1 and b1 are in G1
// and a2 and b2 in G2.
func PairEqual(a1, a2, b1, b2 kyber.Point) bool {
	return suite.Pair(a1, a2).Equal(suite.Pair(b1, b2))
}

// DecodeG1 decodes a point of G1. See decodePoint for the rules.
func DecodeG1(data []byte) (kyber.Point, error) {
	return decodePoint(suite.G1(), data)
}

// DecodeG2 decodes a point of G2. On top of the rules of decodePoint, the point
// must belong to the subgroup of prime order, as the twist curve has a
// cofactor.
func DecodeG2(data []byte) (kyber.Point, error) {
	point, err := decodePoint(suite.G2(), data)
	if err != nil {
		return nil, err
	}

	if !inSubgroup(suite.G2(), point) {
		return nil, xerrors.Errorf("point outside of the prime-order subgroup: %w",
			tdec.ErrInvalidEncoding)
	}

	return point, nil
}

// DecodeScalar decodes a scalar. The buffer must have the exact size of a
// scalar and hold a value strictly lower than the group order.
func DecodeScalar(data []byte) (kyber.Scalar, error) {
	scalar := Scalar()

	if len(data) != scalar.MarshalSize() {
		return nil, xerrors.Errorf("scalar of %d bytes instead of %d: %w",
			len(data), scalar.MarshalSize(), tdec.ErrInvalidEncoding)
	}

	err := scalar.UnmarshalBinary(data)
	if err != nil {
		return nil, xerrors.Errorf("malformed scalar (%v): %w", err, tdec.ErrInvalidEncoding)
	}

	if scalar.Equal(Scalar().Zero()) {
		return nil, xerrors.Errorf("zero scalar: %w", tdec.ErrInvalidEncoding)
	}

	return scalar, nil
}

// Encode returns the canonical encoding of a point or a scalar.
func Encode(m kyber.Marshaling) ([]byte, error) {
	if m == nil {
		return nil, xerrors.Errorf("nothing to encode: %w", tdec.ErrInvalidEncoding)
	}

	data, err := m.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal: %v", err)
	}

	return data, nil
}

// IsNeutral returns true if the point is the neutral element of its group.
func IsNeutral(g kyber.Group, p kyber.Point) bool {
	return p.Equal(g.Point().Null())
}

// decodePoint decodes a point of the group. The buffer must have the exact
// fixed size of the group encoding, describe a point of the curve, must not be
// the neutral element and must encode back to the same bytes.
func decodePoint(g kyber.Group, data []byte) (kyber.Point, error) {
	point := g.Point()

	if len(data) != point.MarshalSize() {
		return nil, xerrors.Errorf("point of %d bytes instead of %d: %w",
			len(data), point.MarshalSize(), tdec.ErrInvalidEncoding)
	}

	err := point.UnmarshalBinary(data)
	if err != nil {
		return nil, xerrors.Errorf("malformed point (%v): %w", err, tdec.ErrInvalidEncoding)
	}

	if IsNeutral(g, point) {
		return nil, xerrors.Errorf("neutral element: %w", tdec.ErrInvalidEncoding)
	}

	canonical, err := point.MarshalBinary()
	if err != nil || !bytes.Equal(canonical, data) {
		return nil, xerrors.Errorf("non-canonical point: %w", tdec.ErrInvalidEncoding)
	}

	return point, nil
}

// inSubgroup returns true when r·P is the neutral element, r being the order of
// the scalar field. It is checked as (r-1)·P == -P.
func inSubgroup(g kyber.Group, p kyber.Point) bool {
	minusOne := Scalar().SetInt64(-1)

	return g.Point().Mul(minusOne, p).Equal(g.Point().Neg(p))
}
