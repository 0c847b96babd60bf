// Package committee generates deterministic committees for the tests. The key
// material comes from a trusted dealer seeded by a string so that a test always
// observes the same committee.
package committee

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/share"
	"go.dedis.ch/tdec/crypto/curve"
	"go.dedis.ch/tdec/crypto/loader"
	"go.dedis.ch/tdec/keys"
)

// Committee is the key material of a whole committee.
type Committee struct {
	Threshold  int
	Secret     kyber.Scalar
	Scalars    []kyber.Scalar
	PublicKeys []kyber.Point
}

// New deals the shares of a secret to n participants with the given
// threshold.
func New(n, threshold int, seed string) Committee {
	stream := curve.Suite().XOF([]byte(seed))

	secret := curve.Scalar().Pick(stream)
	poly := share.NewPriPoly(curve.G1(), threshold, secret, stream)

	c := Committee{
		Threshold:  threshold,
		Secret:     secret,
		Scalars:    make([]kyber.Scalar, n),
		PublicKeys: make([]kyber.Point, n),
	}

	for _, priShare := range poly.Shares(n) {
		c.Scalars[priShare.I] = priShare.V
		c.PublicKeys[priShare.I] = curve.G1().Point().Mul(priShare.V, nil)
	}

	return c
}

// MasterKey returns the public key of the committee.
func (c Committee) MasterKey() kyber.Point {
	return curve.G1().Point().Mul(c.Secret, nil)
}

// Directory returns the directory of the committee.
func (c Committee) Directory(t testing.TB) *keys.Directory {
	dir, err := keys.NewDirectory(c.Threshold, c.PublicKeys)
	require.NoError(t, err)

	return dir
}

// Share returns the secret share of the participant.
func (c Committee) Share(t testing.TB, index int) keys.SecretShare {
	secret, err := keys.NewSecretShare(c.Directory(t), c.Scalars[index])
	require.NoError(t, err)

	return secret
}

// Partial returns the partial decryption of the identity element computed by
// the participant.
func (c Committee) Partial(index int, identity kyber.Point) kyber.Point {
	return curve.G2().Point().Mul(c.Scalars[index], identity)
}

// WriteFiles writes the committee file and the share file of the participant
// in the folder, and returns their paths.
func (c Committee) WriteFiles(t testing.TB, folder string, index int) (string, string) {
	data, err := keys.EncodeCommittee(c.Directory(t))
	require.NoError(t, err)

	committeePath := filepath.Join(folder, "committee.yaml")
	sharePath := filepath.Join(folder, "share.key")

	require.NoError(t, os.WriteFile(committeePath, data, 0600))

	secret, err := curve.Encode(c.Scalars[index])
	require.NoError(t, err)

	require.NoError(t, loader.NewFileLoader(sharePath).Store(secret))

	return committeePath, sharePath
}
