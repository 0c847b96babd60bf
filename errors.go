package tdec

import "golang.org/x/xerrors"

// The errors below are the outcomes a request can fail with. They are always
// wrapped, so callers must compare them with xerrors.Is.
var (
	// ErrInvalidEncoding is returned when a group element, a scalar or the
	// layout of a ciphertext cannot be decoded. It is detected before any
	// arithmetic takes place.
	ErrInvalidEncoding = xerrors.New("invalid encoding")

	// ErrUnknownParty is returned when a participant index or a party count
	// does not match the directory.
	ErrUnknownParty = xerrors.New("unknown party")

	// ErrVerificationFailure is returned when a partial decryption does not
	// satisfy the pairing equation.
	ErrVerificationFailure = xerrors.New("verification failure")

	// ErrInsufficientShares is returned when fewer than the threshold of
	// verified partial decryptions are available.
	ErrInsufficientShares = xerrors.New("insufficient shares")

	// ErrDecryptionFailure is returned when the symmetric layer rejects the
	// payload after a successful combination.
	ErrDecryptionFailure = xerrors.New("decryption failure")
)
