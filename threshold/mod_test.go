package threshold

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/tdec"
	"go.dedis.ch/tdec/crypto/curve"
	"go.dedis.ch/tdec/internal/testing/committee"
	"golang.org/x/xerrors"
)

func TestPartialDecryptor_Compute(t *testing.T) {
	c := committee.New(5, 3, "partial")

	decryptor := NewPartialDecryptor(c.Share(t, 4))
	require.Equal(t, 4, decryptor.Index())

	gamma := randomG2()

	partial, err := decryptor.ComputePartialDecryption(gamma)
	require.NoError(t, err)
	require.True(t, partial.Equal(c.Partial(4, gamma)))

	// Deterministic.
	again, err := decryptor.ComputePartialDecryption(gamma)
	require.NoError(t, err)
	require.True(t, partial.Equal(again))

	_, err = decryptor.ComputePartialDecryption(nil)
	require.EqualError(t, err, "missing identity element: invalid encoding")

	_, err = decryptor.ComputePartialDecryption(curve.G2().Point().Null())
	require.True(t, xerrors.Is(err, tdec.ErrInvalidEncoding))
}

func TestVerifier_Correctness(t *testing.T) {
	c := committee.New(7, 4, "correctness")
	verifier := NewVerifier()
	gamma := randomG2()

	for i := range c.PublicKeys {
		partial, err := NewPartialDecryptor(c.Share(t, i)).ComputePartialDecryption(gamma)
		require.NoError(t, err)

		ok, err := verifier.VerifyPartialDecryption(c.PublicKeys[i], gamma, partial)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestVerifier_Soundness(t *testing.T) {
	c := committee.New(4, 2, "soundness")
	verifier := NewVerifier()
	gamma := randomG2()

	// Partial decryption of another participant.
	ok, err := verifier.VerifyPartialDecryption(c.PublicKeys[0], gamma, c.Partial(1, gamma))
	require.NoError(t, err)
	require.False(t, ok)

	// Partial decryption of another identity element.
	ok, err = verifier.VerifyPartialDecryption(c.PublicKeys[0], gamma, c.Partial(0, randomG2()))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = verifier.VerifyPartialDecryption(c.PublicKeys[0], gamma, randomG2())
	require.NoError(t, err)
	require.False(t, ok)

	_, err = verifier.VerifyPartialDecryption(nil, gamma, gamma)
	require.EqualError(t, err, "missing element: invalid encoding")

	_, err = verifier.VerifyPartialDecryption(c.PublicKeys[0], nil, gamma)
	require.True(t, xerrors.Is(err, tdec.ErrInvalidEncoding))

	_, err = verifier.VerifyPartialDecryption(c.PublicKeys[0], gamma, nil)
	require.True(t, xerrors.Is(err, tdec.ErrInvalidEncoding))
}

// -----------------------------------------------------------------------------
// Utility functions

func randomG2() kyber.Point {
	return curve.G2().Point().Pick(curve.RandomStream())
}

func encode(t *testing.T, m kyber.Marshaling) []byte {
	data, err := curve.Encode(m)
	require.NoError(t, err)

	return data
}
