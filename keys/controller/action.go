package controller

import (
	"encoding/hex"
	"fmt"
	"os"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/tdec/cli/node"
	"go.dedis.ch/tdec/crypto/curve"
	"go.dedis.ch/tdec/crypto/loader"
	"go.dedis.ch/tdec/keys"
	"golang.org/x/xerrors"
)

// importAction is an action to import the key material in the keystore.
//
// - implements node.ActionTemplate
type importAction struct{}

// Execute implements node.ActionTemplate. It reads the committee file and the
// share file, checks that the share belongs to the committee and stores both.
func (importAction) Execute(ctx node.Context) error {
	dir, err := keys.LoadCommittee(ctx.Flags.Path("committee"))
	if err != nil {
		return xerrors.Errorf("failed to load committee: %v", err)
	}

	data, err := loader.NewFileLoader(ctx.Flags.Path("share")).Load()
	if err != nil {
		return xerrors.Errorf("failed to load share: %v", err)
	}

	scalar, err := curve.DecodeScalar(data)
	if err != nil {
		return xerrors.Errorf("failed to decode share: %v", err)
	}

	share, err := keys.NewSecretShare(dir, scalar)
	if err != nil {
		return xerrors.Errorf("invalid share: %v", err)
	}

	err = os.MkdirAll(ctx.Flags.Path(node.ConfigFlag), 0700)
	if err != nil {
		return xerrors.Errorf("couldn't make path: %v", err)
	}

	db, err := openDB(ctx.Flags)
	if err != nil {
		return err
	}

	defer db.Close()

	err = keys.NewKeystore(db).Import(dir, share)
	if err != nil {
		return xerrors.Errorf("failed to import: %v", err)
	}

	fmt.Fprintf(ctx.Out, "imported share %d of a committee of %d participants "+
		"with a threshold of %d\n", share.Index(), dir.Len(), dir.Threshold())

	return nil
}

// showAction is an action to print the public key material.
//
// - implements node.ActionTemplate
type showAction struct{}

// Execute implements node.ActionTemplate. It prints the index of the node, the
// committee parameters and the public keys.
func (showAction) Execute(ctx node.Context) error {
	db, err := openDB(ctx.Flags)
	if err != nil {
		return err
	}

	defer db.Close()

	dir, share, err := keys.NewKeystore(db).Load()
	if err != nil {
		return xerrors.Errorf("failed to load keys: %v", err)
	}

	pk, err := encodeHex(share.PublicKey())
	if err != nil {
		return xerrors.Errorf("public key: %v", err)
	}

	master, err := encodeHex(dir.MasterKey())
	if err != nil {
		return xerrors.Errorf("master key: %v", err)
	}

	fmt.Fprintf(ctx.Out, "Index: %d\n", share.Index())
	fmt.Fprintf(ctx.Out, "Participants: %d\n", dir.Len())
	fmt.Fprintf(ctx.Out, "Threshold: %d\n", dir.Threshold())
	fmt.Fprintf(ctx.Out, "Public key: %s\n", pk)
	fmt.Fprintf(ctx.Out, "Master key: %s\n", master)

	return nil
}

func encodeHex(p kyber.Point) (string, error) {
	data, err := curve.Encode(p)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(data), nil
}
