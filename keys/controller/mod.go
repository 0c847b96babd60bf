// Package controller implements the CLI commands that manage the key material
// of the node, and the initializer that loads it when the node starts.
package controller

import (
	"path/filepath"

	"go.dedis.ch/tdec/cli"
	"go.dedis.ch/tdec/cli/node"
	"go.dedis.ch/tdec/keys"
	"go.dedis.ch/tdec/store/kv"
	"golang.org/x/xerrors"
)

// DBFile is the name of the keystore database in the config folder.
const DBFile = "keys.db"

var newDB = kv.New

// NewController returns a new initializer for the key material.
func NewController() node.Initializer {
	return controller{}
}

// controller is the initializer of the key material. It provides the commands
// to import and show the key material, and loads it when the node starts.
//
// - implements node.Initializer
type controller struct{}

// SetCommands implements node.Initializer.
func (controller) SetCommands(builder node.Builder) {
	cmd := builder.SetCommand("key")
	cmd.SetDescription("manage the key material of the node")

	sub := cmd.SetSubCommand("import")
	sub.SetDescription("import the committee and the secret share of the node. " +
		"The key material can only be imported once.")
	sub.SetFlags(
		cli.PathFlag{
			Name:     "committee",
			Usage:    "path to the committee file",
			Required: true,
		},
		cli.PathFlag{
			Name:     "share",
			Usage:    "path to the file of the secret share in hexadecimal",
			Required: true,
		},
	)
	sub.SetAction(builder.MakeAction(importAction{}))

	sub = cmd.SetSubCommand("show")
	sub.SetDescription("print the public key material of the node")
	sub.SetAction(builder.MakeAction(showAction{}))
}

// OnStart implements node.Initializer. It opens the keystore and injects the
// directory and the secret share.
func (controller) OnStart(flags cli.Flags, inj node.Injector) error {
	db, err := openDB(flags)
	if err != nil {
		return err
	}

	dir, share, err := keys.NewKeystore(db).Load()
	if err != nil {
		db.Close()

		if xerrors.Is(err, keys.ErrNotImported) {
			return xerrors.New("no key material: run 'key import' first")
		}

		return xerrors.Errorf("failed to load keys: %v", err)
	}

	inj.Inject(db)
	inj.Inject(dir)
	inj.Inject(share)

	return nil
}

// OnStop implements node.Initializer. It closes the keystore.
func (controller) OnStop(inj node.Injector) error {
	var db kv.DB

	err := inj.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("failed to resolve db: %v", err)
	}

	err = db.Close()
	if err != nil {
		return xerrors.Errorf("failed to close db: %v", err)
	}

	return nil
}

func openDB(flags cli.Flags) (kv.DB, error) {
	db, err := newDB(filepath.Join(flags.Path(node.ConfigFlag), DBFile))
	if err != nil {
		return nil, xerrors.Errorf("failed to open db: %v", err)
	}

	return db, nil
}
