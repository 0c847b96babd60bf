package curve

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/tdec"
	"golang.org/x/xerrors"
)

func TestDecodeG1(t *testing.T) {
	point := G1().Point().Pick(RandomStream())

	data, err := Encode(point)
	require.NoError(t, err)
	require.Len(t, data, 64)

	decoded, err := DecodeG1(data)
	require.NoError(t, err)
	require.True(t, point.Equal(decoded))

	_, err = DecodeG1(data[:63])
	requireInvalid(t, err, "point of 63 bytes instead of 64")

	_, err = DecodeG1(append(data, 0))
	requireInvalid(t, err, "point of 65 bytes instead of 64")

	_, err = DecodeG1(make([]byte, 64))
	requireInvalid(t, err, "neutral element")

	// Coordinates larger than the field modulus.
	bad := append([]byte{}, data...)
	bad[0] = 0xff
	_, err = DecodeG1(bad)
	requireInvalid(t, err, "malformed point")

	// Moving y makes the point leave the curve.
	bad = append([]byte{}, data...)
	bad[63] ^= 0x01
	_, err = DecodeG1(bad)
	requireInvalid(t, err, "malformed point")
}

func TestDecodeG2(t *testing.T) {
	point := G2().Point().Pick(RandomStream())

	data, err := Encode(point)
	require.NoError(t, err)
	require.Len(t, data, 128)

	decoded, err := DecodeG2(data)
	require.NoError(t, err)
	require.True(t, point.Equal(decoded))

	_, err = DecodeG2(data[:64])
	requireInvalid(t, err, "point of 64 bytes instead of 128")

	_, err = DecodeG2(make([]byte, 128))
	requireInvalid(t, err, "neutral element")

	bad := append([]byte{}, data...)
	bad[127] ^= 0x01
	_, err = DecodeG2(bad)
	requireInvalid(t, err, "malformed point")

	// A G1 element is never a valid G2 element.
	g1, err := Encode(Base1())
	require.NoError(t, err)
	_, err = DecodeG2(g1)
	requireInvalid(t, err, "point of 64 bytes instead of 128")
}

func TestDecodeG2_OutsideSubgroup(t *testing.T) {
	data := makeTwistPoint(t)

	// The point is on the twist curve, which the library accepts.
	require.NoError(t, G2().Point().UnmarshalBinary(data))

	_, err := DecodeG2(data)
	requireInvalid(t, err, "point outside of the prime-order subgroup")

	require.True(t, inSubgroup(G2(), Base2()))
	require.True(t, inSubgroup(G2(), G2().Point().Pick(RandomStream())))
}

func TestDecodeScalar(t *testing.T) {
	scalar := Scalar().Pick(RandomStream())

	data, err := Encode(scalar)
	require.NoError(t, err)
	require.Len(t, data, 32)

	decoded, err := DecodeScalar(data)
	require.NoError(t, err)
	require.True(t, scalar.Equal(decoded))

	_, err = DecodeScalar(data[:31])
	requireInvalid(t, err, "scalar of 31 bytes instead of 32")

	_, err = DecodeScalar(make([]byte, 32))
	requireInvalid(t, err, "zero scalar")

	over := make([]byte, 32)
	for i := range over {
		over[i] = 0xff
	}
	_, err = DecodeScalar(over)
	requireInvalid(t, err, "malformed scalar")
}

func TestEncode(t *testing.T) {
	_, err := Encode(nil)
	requireInvalid(t, err, "nothing to encode")
}

func TestPairEqual_Bilinearity(t *testing.T) {
	a := Scalar().Pick(RandomStream())
	b := Scalar().Pick(RandomStream())
	ab := Scalar().Mul(a, b)

	aG1 := G1().Point().Mul(a, nil)
	bG2 := G2().Point().Mul(b, nil)
	abG2 := G2().Point().Mul(ab, nil)

	require.True(t, PairEqual(aG1, bG2, Base1(), abG2))
	require.False(t, PairEqual(aG1, bG2, Base1(), bG2))
	require.True(t, Pair(aG1, bG2).Equal(Pair(Base1(), abG2)))
}

func TestIsNeutral(t *testing.T) {
	require.True(t, IsNeutral(G1(), G1().Point().Null()))
	require.False(t, IsNeutral(G1(), Base1()))
	require.True(t, IsNeutral(G2(), G2().Point().Null()))
	require.False(t, IsNeutral(G2(), Base2()))
}

// -----------------------------------------------------------------------------
// Utility functions

func requireInvalid(t *testing.T, err error, msg string) {
	require.Error(t, err)
	require.True(t, xerrors.Is(err, tdec.ErrInvalidEncoding), err.Error())
	require.Contains(t, err.Error(), msg)
}

// fp2 is an element a + b·i of the quadratic extension with i² = -1 that the
// twist curve is defined over.
type fp2 struct {
	a, b *big.Int
}

var fieldP, _ = new(big.Int).SetString(
	"65000549695646603732796438742359905742825358107623003571877145026864184071783", 10)

func (x fp2) mul(y fp2) fp2 {
	a := new(big.Int).Mul(x.a, y.a)
	a.Sub(a, new(big.Int).Mul(x.b, y.b))

	b := new(big.Int).Mul(x.a, y.b)
	b.Add(b, new(big.Int).Mul(x.b, y.a))

	return fp2{a: a.Mod(a, fieldP), b: b.Mod(b, fieldP)}
}

func (x fp2) sub(y fp2) fp2 {
	a := new(big.Int).Sub(x.a, y.a)
	b := new(big.Int).Sub(x.b, y.b)

	return fp2{a: a.Mod(a, fieldP), b: b.Mod(b, fieldP)}
}

func (x fp2) add(y fp2) fp2 {
	a := new(big.Int).Add(x.a, y.a)
	b := new(big.Int).Add(x.b, y.b)

	return fp2{a: a.Mod(a, fieldP), b: b.Mod(b, fieldP)}
}

// sqrtFp returns a square root of v modulo p, or nil. p = 3 mod 4.
func sqrtFp(v *big.Int) *big.Int {
	exp := new(big.Int).Add(fieldP, big.NewInt(1))
	exp.Rsh(exp, 2)

	r := new(big.Int).Exp(v, exp, fieldP)

	check := new(big.Int).Mul(r, r)
	if check.Mod(check, fieldP).Cmp(new(big.Int).Mod(v, fieldP)) != 0 {
		return nil
	}

	return r
}

// sqrt returns a square root of x, or false.
func (x fp2) sqrt() (fp2, bool) {
	norm := new(big.Int).Mul(x.a, x.a)
	norm.Add(norm, new(big.Int).Mul(x.b, x.b))

	n := sqrtFp(norm.Mod(norm, fieldP))
	if n == nil {
		return fp2{}, false
	}

	half := new(big.Int).ModInverse(big.NewInt(2), fieldP)

	for _, cand := range []*big.Int{new(big.Int).Add(x.a, n), new(big.Int).Sub(x.a, n)} {
		cand.Mul(cand, half).Mod(cand, fieldP)

		c := sqrtFp(cand)
		if c == nil || c.Sign() == 0 {
			continue
		}

		d := new(big.Int).Lsh(c, 1)
		d.ModInverse(d, fieldP)
		d.Mul(d, x.b).Mod(d, fieldP)

		root := fp2{a: c, b: d}
		if root.mul(root).sub(x).isZero() {
			return root, true
		}
	}

	return fp2{}, false
}

func (x fp2) isZero() bool {
	return x.a.Sign() == 0 && x.b.Sign() == 0
}

// makeTwistPoint returns the encoding of a point of the twist curve that does
// not belong to G2. The curve constant is recovered from the generator.
func makeTwistPoint(t *testing.T) []byte {
	base, err := Encode(Base2())
	require.NoError(t, err)

	// The encoding is x.b || x.a || y.b || y.a in big-endian.
	coord := func(i int) *big.Int {
		return new(big.Int).SetBytes(base[i*32 : (i+1)*32])
	}

	gx := fp2{a: coord(1), b: coord(0)}
	gy := fp2{a: coord(3), b: coord(2)}

	twistB := gy.mul(gy).sub(gx.mul(gx).mul(gx))

	for k := int64(1); k < 100; k++ {
		x := fp2{a: big.NewInt(k), b: big.NewInt(1)}

		y, ok := x.mul(x).mul(x).add(twistB).sqrt()
		if !ok {
			continue
		}

		data := make([]byte, 128)
		x.b.FillBytes(data[0:32])
		x.a.FillBytes(data[32:64])
		y.b.FillBytes(data[64:96])
		y.a.FillBytes(data[96:128])

		return data
	}

	t.Fatal("no point found on the twist curve")

	return nil
}
