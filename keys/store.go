package keys

import (
	"go.dedis.ch/tdec/crypto/curve"
	"go.dedis.ch/tdec/store/kv"
	"golang.org/x/xerrors"
)

var (
	bucketName   = []byte("keys")
	committeeKey = []byte("committee")
	shareKey     = []byte("share")
)

var (
	// ErrAlreadyImported is returned when the keystore already holds the key
	// material of a committee.
	ErrAlreadyImported = xerrors.New("key material already imported")

	// ErrNotImported is returned when the keystore is empty.
	ErrNotImported = xerrors.New("key material not imported")
)

// Keystore persists the key material of the node in a key/value database.
// The material is written once and never modified afterwards.
type Keystore struct {
	db kv.DB
}

// NewKeystore creates a keystore on top of the database.
func NewKeystore(db kv.DB) Keystore {
	return Keystore{db: db}
}

// Import stores the directory and the secret share. It fails if the keystore
// already holds key material.
func (s Keystore) Import(dir *Directory, share SecretShare) error {
	committee, err := EncodeCommittee(dir)
	if err != nil {
		return xerrors.Errorf("failed to encode committee: %v", err)
	}

	secret, err := share.marshal()
	if err != nil {
		return xerrors.Errorf("failed to encode share: %v", err)
	}

	err = s.db.Update(bucketName, func(b kv.Bucket) error {
		if b.Get(shareKey) != nil {
			return ErrAlreadyImported
		}

		err := b.Set(committeeKey, committee)
		if err != nil {
			return xerrors.Errorf("failed to store committee: %v", err)
		}

		err = b.Set(shareKey, secret)
		if err != nil {
			return xerrors.Errorf("failed to store share: %v", err)
		}

		return nil
	})
	if err != nil {
		return xerrors.Errorf("failed to import: %w", err)
	}

	return nil
}

// Load returns the directory and the secret share of the node.
func (s Keystore) Load() (*Directory, SecretShare, error) {
	var committee, secret []byte

	err := s.db.View(bucketName, func(b kv.Bucket) error {
		committee = b.Get(committeeKey)
		secret = b.Get(shareKey)

		return nil
	})
	if err != nil && !xerrors.Is(err, kv.ErrBucketNotFound) {
		return nil, SecretShare{}, xerrors.Errorf("failed to read keystore: %v", err)
	}

	if committee == nil || secret == nil {
		return nil, SecretShare{}, ErrNotImported
	}

	dir, err := ParseCommittee(committee)
	if err != nil {
		return nil, SecretShare{}, xerrors.Errorf("failed to load committee: %v", err)
	}

	scalar, err := curve.DecodeScalar(secret)
	if err != nil {
		return nil, SecretShare{}, xerrors.Errorf("failed to load share: %v", err)
	}

	share, err := NewSecretShare(dir, scalar)
	if err != nil {
		return nil, SecretShare{}, xerrors.Errorf("failed to bind share: %v", err)
	}

	return dir, share, nil
}
