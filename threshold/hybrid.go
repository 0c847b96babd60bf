package threshold

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"io"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/util/random"
	"go.dedis.ch/tdec"
	"go.dedis.ch/tdec/crypto/curve"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/xerrors"
)

const (
	// KeySize is the size in bytes of the symmetric key.
	KeySize = 32

	// NonceSize is the size in bytes of the initialization vector.
	NonceSize = 12

	kdfInfo = "tdec/hybrid/v1"
)

// Ciphertext is a payload encrypted for the committee. SA2 is the identity
// element of the ciphertext and SA1 its commitment in G1.
type Ciphertext struct {
	Enc []byte
	SA1 kyber.Point
	SA2 kyber.Point
	IV  []byte
}

// DecodeCiphertext decodes the encapsulation material of a ciphertext.
func DecodeCiphertext(enc, sa1, sa2, iv []byte) (Ciphertext, error) {
	p1, err := curve.DecodeG1(sa1)
	if err != nil {
		return Ciphertext{}, xerrors.Errorf("sa1: %w", err)
	}

	p2, err := curve.DecodeG2(sa2)
	if err != nil {
		return Ciphertext{}, xerrors.Errorf("sa2: %w", err)
	}

	if len(iv) != NonceSize {
		return Ciphertext{}, xerrors.Errorf("iv of %d bytes instead of %d: %w",
			len(iv), NonceSize, tdec.ErrInvalidEncoding)
	}

	ct := Ciphertext{
		Enc: enc,
		SA1: p1,
		SA2: p2,
		IV:  iv,
	}

	return ct, nil
}

// Identity returns the identity element that the participants decrypt.
func (ct Ciphertext) Identity() kyber.Point {
	return ct.SA2
}

// header returns the encapsulation material that is bound to the key and
// authenticated with the payload.
func (ct Ciphertext) header() ([]byte, error) {
	sa1, err := curve.Encode(ct.SA1)
	if err != nil {
		return nil, xerrors.Errorf("sa1: %w", err)
	}

	sa2, err := curve.Encode(ct.SA2)
	if err != nil {
		return nil, xerrors.Errorf("sa2: %w", err)
	}

	return append(sa1, sa2...), nil
}

// HybridDecryptor decrypts the payload of a ciphertext with the key derived
// from the combined decryption.
type HybridDecryptor struct{}

// NewHybridDecryptor returns a new decryptor.
func NewHybridDecryptor() HybridDecryptor {
	return HybridDecryptor{}
}

// Decrypt checks the encapsulation of the ciphertext, derives the symmetric
// key and opens the payload. Nothing is returned unless the payload is
// authentic.
func (HybridDecryptor) Decrypt(ct Ciphertext, combined CombinedDecryption) ([]byte, error) {
	if combined.point == nil {
		return nil, xerrors.Errorf("missing combined decryption: %w", tdec.ErrInvalidEncoding)
	}

	if ct.SA1 == nil || ct.SA2 == nil {
		return nil, xerrors.Errorf("missing encapsulation: %w", tdec.ErrInvalidEncoding)
	}

	if !curve.PairEqual(ct.SA1, curve.Base2(), curve.Base1(), ct.SA2) {
		return nil, xerrors.Errorf("inconsistent encapsulation: %w", tdec.ErrDecryptionFailure)
	}

	header, err := ct.header()
	if err != nil {
		return nil, xerrors.Errorf("failed to encode header: %w", err)
	}

	aead, err := newAEAD(curve.Pair(curve.Base1(), combined.point), header)
	if err != nil {
		return nil, xerrors.Errorf("failed to create cipher: %v", err)
	}

	if len(ct.IV) != aead.NonceSize() {
		return nil, xerrors.Errorf("iv of %d bytes instead of %d: %w",
			len(ct.IV), aead.NonceSize(), tdec.ErrInvalidEncoding)
	}

	plaintext, err := aead.Open(nil, ct.IV, ct.Enc, header)
	if err != nil {
		return nil, xerrors.Errorf("failed to open: %w", tdec.ErrDecryptionFailure)
	}

	return plaintext, nil
}

// Encrypt encrypts the message for the committee of the master public key.
func Encrypt(master kyber.Point, msg []byte) (Ciphertext, error) {
	if master == nil || curve.IsNeutral(curve.G1(), master) {
		return Ciphertext{}, xerrors.Errorf("missing master key: %w", tdec.ErrInvalidEncoding)
	}

	stream := curve.RandomStream()

	r := curve.Scalar().Pick(stream)

	ct := Ciphertext{
		SA1: curve.G1().Point().Mul(r, nil),
		SA2: curve.G2().Point().Mul(r, nil),
		IV:  make([]byte, NonceSize),
	}

	random.Bytes(ct.IV, stream)

	header, err := ct.header()
	if err != nil {
		return Ciphertext{}, xerrors.Errorf("failed to encode header: %v", err)
	}

	aead, err := newAEAD(curve.Pair(master, ct.SA2), header)
	if err != nil {
		return Ciphertext{}, xerrors.Errorf("failed to create cipher: %v", err)
	}

	ct.Enc = aead.Seal(nil, ct.IV, msg, header)

	return ct, nil
}

// deriveKey derives the symmetric key from the pairing output, salted with
// the header of the ciphertext.
func deriveKey(k kyber.Point, header []byte) ([]byte, error) {
	secret, err := k.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal pairing: %v", err)
	}

	key := make([]byte, KeySize)

	_, err = io.ReadFull(hkdf.New(sha256.New, secret, header, []byte(kdfInfo)), key)
	if err != nil {
		return nil, xerrors.Errorf("failed to derive key: %v", err)
	}

	return key, nil
}

// newAEAD returns the authenticated cipher keyed by the pairing output and
// the header of the ciphertext.
func newAEAD(k kyber.Point, header []byte) (cipher.AEAD, error) {
	key, err := deriveKey(k, header)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, xerrors.Errorf("failed to create block: %v", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, xerrors.Errorf("failed to create gcm: %v", err)
	}

	return aead, nil
}
