package keys

import (
	"encoding/hex"
	"os"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/tdec/crypto/curve"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// committeeFile is the YAML representation of a directory.
type committeeFile struct {
	Threshold  int      `yaml:"threshold"`
	PublicKeys []string `yaml:"publicKeys"`
}

// LoadCommittee reads the committee file and returns the directory.
func LoadCommittee(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to read committee: %v", err)
	}

	dir, err := ParseCommittee(data)
	if err != nil {
		return nil, xerrors.Errorf("failed to parse committee: %v", err)
	}

	return dir, nil
}

// ParseCommittee parses the YAML representation of a committee. The public
// keys are the hexadecimal encodings of the G1 points ordered by index.
func ParseCommittee(data []byte) (*Directory, error) {
	var file committeeFile

	err := yaml.UnmarshalStrict(data, &file)
	if err != nil {
		return nil, xerrors.Errorf("malformed yaml: %v", err)
	}

	pubkeys := make([]kyber.Point, len(file.PublicKeys))

	for i, str := range file.PublicKeys {
		buffer, err := hex.DecodeString(str)
		if err != nil {
			return nil, xerrors.Errorf("public key %d: %v", i, err)
		}

		pubkeys[i], err = curve.DecodeG1(buffer)
		if err != nil {
			return nil, xerrors.Errorf("public key %d: %v", i, err)
		}
	}

	dir, err := NewDirectory(file.Threshold, pubkeys)
	if err != nil {
		return nil, xerrors.Errorf("invalid committee: %v", err)
	}

	return dir, nil
}

// EncodeCommittee returns the YAML representation of the directory.
func EncodeCommittee(dir *Directory) ([]byte, error) {
	file := committeeFile{
		Threshold:  dir.threshold,
		PublicKeys: make([]string, len(dir.pubkeys)),
	}

	for i, pk := range dir.pubkeys {
		buffer, err := curve.Encode(pk)
		if err != nil {
			return nil, xerrors.Errorf("failed to encode public key %d: %v", i, err)
		}

		file.PublicKeys[i] = hex.EncodeToString(buffer)
	}

	data, err := yaml.Marshal(file)
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal: %v", err)
	}

	return data, nil
}
