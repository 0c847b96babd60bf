package threshold

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/tdec"
	"go.dedis.ch/tdec/crypto/curve"
	"go.dedis.ch/tdec/internal/testing/committee"
	"golang.org/x/xerrors"
)

func TestOrchestrator_Scenario(t *testing.T) {
	c := committee.New(32, 2, "scenario")

	ct, err := Encrypt(c.MasterKey(), []byte("Hello, world!"))
	require.NoError(t, err)

	// Participant 12 computes its partial decryption from the encoded identity
	// element.
	identity, err := curve.DecodeG2(encode(t, ct.SA2))
	require.NoError(t, err)

	part12, err := NewPartialDecryptor(c.Share(t, 12)).ComputePartialDecryption(identity)
	require.NoError(t, err)

	req := makeRequest(t, ct, 2, 32)
	req.PublicKeys = [][]byte{encode(t, c.PublicKeys[12]), encode(t, c.PublicKeys[27])}
	req.Parts = [][]byte{encode(t, part12), encode(t, c.Partial(27, identity))}

	orch := NewOrchestrator(c.Directory(t))

	plaintext, err := orch.Decrypt(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "Hello, world!", string(plaintext))

	// A single valid partial decryption is not enough.
	req.Parts[1] = encode(t, c.Partial(26, identity))

	_, err = orch.Decrypt(context.Background(), req)
	require.EqualError(t, err,
		"failed to combine: 1 partial decryptions for a threshold of 2: insufficient shares")
	require.True(t, xerrors.Is(err, tdec.ErrInsufficientShares))

	// Mutated payload.
	req.Parts[1] = encode(t, c.Partial(27, identity))
	req.Enc = append([]byte{}, req.Enc...)
	req.Enc[3] ^= 0x80

	_, err = orch.Decrypt(context.Background(), req)
	require.EqualError(t, err, "failed to decrypt: failed to open: decryption failure")

	// Mutated initialization vector.
	req = makeRequest(t, ct, 2, 32)
	req.PublicKeys = [][]byte{encode(t, c.PublicKeys[12]), encode(t, c.PublicKeys[27])}
	req.Parts = [][]byte{encode(t, part12), encode(t, c.Partial(27, identity))}
	req.IV = append([]byte{}, req.IV...)
	req.IV[11] ^= 0x01

	_, err = orch.Decrypt(context.Background(), req)
	require.True(t, xerrors.Is(err, tdec.ErrDecryptionFailure))
}

func TestOrchestrator_Threshold(t *testing.T) {
	c := committee.New(7, 4, "threshold")

	ct, err := Encrypt(c.MasterKey(), []byte("boundary"))
	require.NoError(t, err)

	orch := NewOrchestrator(c.Directory(t), WithWorkers(2))

	for k := 1; k <= 7; k++ {
		req := makeRequest(t, ct, 4, 7)

		for i := 0; i < k; i++ {
			req.PublicKeys = append(req.PublicKeys, encode(t, c.PublicKeys[6-i]))
			req.Parts = append(req.Parts, encode(t, c.Partial(6-i, ct.SA2)))
		}

		plaintext, err := orch.Decrypt(context.Background(), req)
		if k < 4 {
			require.True(t, xerrors.Is(err, tdec.ErrInsufficientShares), "k=%d", k)
		} else {
			require.NoError(t, err, "k=%d", k)
			require.Equal(t, "boundary", string(plaintext))
		}
	}

	// A request can ask for a higher threshold than the committee.
	req := makeRequest(t, ct, 5, 7)
	for i := 0; i < 4; i++ {
		req.PublicKeys = append(req.PublicKeys, encode(t, c.PublicKeys[i]))
		req.Parts = append(req.Parts, encode(t, c.Partial(i, ct.SA2)))
	}

	_, err = orch.Decrypt(context.Background(), req)
	require.True(t, xerrors.Is(err, tdec.ErrInsufficientShares))
}

func TestOrchestrator_IgnoredParts(t *testing.T) {
	c := committee.New(5, 2, "ignored")
	other := committee.New(5, 2, "other")

	ct, err := Encrypt(c.MasterKey(), []byte("ignored"))
	require.NoError(t, err)

	req := makeRequest(t, ct, 2, 5)
	req.PublicKeys = [][]byte{
		encode(t, other.PublicKeys[0]),
		encode(t, c.PublicKeys[1]),
		encode(t, c.PublicKeys[1]),
		encode(t, c.PublicKeys[2]),
		encode(t, c.PublicKeys[3]),
	}
	req.Parts = [][]byte{
		encode(t, other.Partial(0, ct.SA2)),
		encode(t, c.Partial(1, ct.SA2)),
		encode(t, c.Partial(1, ct.SA2)),
		encode(t, c.Partial(0, ct.SA2)),
		encode(t, c.Partial(3, ct.SA2)),
	}

	orch := NewOrchestrator(c.Directory(t), WithWorkers(1))

	plaintext, err := orch.Decrypt(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "ignored", string(plaintext))
}

func TestOrchestrator_SharedSlots(t *testing.T) {
	c := committee.New(4, 2, "slots")

	ct, err := Encrypt(c.MasterKey(), []byte("slots"))
	require.NoError(t, err)

	req := makeRequest(t, ct, 2, 4)
	for i := 0; i < 3; i++ {
		req.PublicKeys = append(req.PublicKeys, encode(t, c.PublicKeys[i]))
		req.Parts = append(req.Parts, encode(t, c.Partial(i, ct.SA2)))
	}

	orch := NewOrchestrator(c.Directory(t), WithWorkers(2))
	require.Equal(t, 2, cap(orch.slots))

	// Another decryption holds every slot.
	orch.slots <- struct{}{}
	orch.slots <- struct{}{}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = orch.Decrypt(ctx, req)
	require.EqualError(t, err,
		"failed to verify: verification interrupted: context deadline exceeded")

	<-orch.slots
	<-orch.slots

	plaintext, err := orch.Decrypt(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "slots", string(plaintext))
	require.Len(t, orch.slots, 0)
}

func TestOrchestrator_BadRequest(t *testing.T) {
	c := committee.New(4, 2, "bad request")

	ct, err := Encrypt(c.MasterKey(), []byte("bad"))
	require.NoError(t, err)

	orch := NewOrchestrator(c.Directory(t))

	valid := func() DecryptRequest {
		req := makeRequest(t, ct, 2, 4)
		for i := 0; i < 2; i++ {
			req.PublicKeys = append(req.PublicKeys, encode(t, c.PublicKeys[i]))
			req.Parts = append(req.Parts, encode(t, c.Partial(i, ct.SA2)))
		}
		return req
	}

	req := valid()
	req.N = 5
	_, err = orch.Decrypt(context.Background(), req)
	require.EqualError(t, err, "committee of 4 participants, got 5: unknown party")

	req = valid()
	req.Parts = req.Parts[:1]
	_, err = orch.Decrypt(context.Background(), req)
	require.EqualError(t, err, "2 public keys for 1 partial decryptions: invalid encoding")

	req = valid()
	req.Threshold = 1
	_, err = orch.Decrypt(context.Background(), req)
	require.EqualError(t, err, "threshold 1 out of range [2, 4]: insufficient shares")

	req = valid()
	req.Threshold = 5
	_, err = orch.Decrypt(context.Background(), req)
	require.True(t, xerrors.Is(err, tdec.ErrInsufficientShares))

	req = valid()
	req.SA1 = req.SA1[1:]
	_, err = orch.Decrypt(context.Background(), req)
	require.EqualError(t, err,
		"failed to decode ciphertext: sa1: point of 63 bytes instead of 64: invalid encoding")

	req = valid()
	req.PublicKeys[1] = make([]byte, 64)
	_, err = orch.Decrypt(context.Background(), req)
	require.EqualError(t, err,
		"failed to decode partial decryptions: public key 1: neutral element: invalid encoding")

	req = valid()
	req.Parts[0] = req.Parts[0][:100]
	_, err = orch.Decrypt(context.Background(), req)
	require.True(t, xerrors.Is(err, tdec.ErrInvalidEncoding))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = orch.Decrypt(ctx, valid())
	require.EqualError(t, err, "failed to verify: verification interrupted: context canceled")
}

// -----------------------------------------------------------------------------
// Utility functions

func makeRequest(t *testing.T, ct Ciphertext, threshold, n int) DecryptRequest {
	return DecryptRequest{
		Enc:       ct.Enc,
		SA1:       encode(t, ct.SA1),
		SA2:       encode(t, ct.SA2),
		IV:        ct.IV,
		Threshold: threshold,
		N:         n,
	}
}
