package keys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommittee_EncodeParse(t *testing.T) {
	_, _, pubkeys := makeCommittee(4, 3)

	dir, err := NewDirectory(3, pubkeys)
	require.NoError(t, err)

	data, err := EncodeCommittee(dir)
	require.NoError(t, err)
	require.Contains(t, string(data), "threshold: 3")

	parsed, err := ParseCommittee(data)
	require.NoError(t, err)
	require.Equal(t, 3, parsed.Threshold())
	require.Equal(t, 4, parsed.Len())
	require.True(t, dir.MasterKey().Equal(parsed.MasterKey()))

	for i, pk := range pubkeys {
		index, found := parsed.IndexOf(pk)
		require.True(t, found)
		require.Equal(t, i, index)
	}
}

func TestCommittee_Parse(t *testing.T) {
	_, err := ParseCommittee([]byte("threshold: [1"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed yaml: ")

	_, err = ParseCommittee([]byte("threshold: 1\nunknown: 2"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed yaml: ")

	_, err = ParseCommittee([]byte("threshold: 1\npublicKeys: [zz]"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "public key 0: encoding/hex: ")

	_, err = ParseCommittee([]byte("threshold: 1\npublicKeys: [aabb]"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "public key 0: point of 2 bytes instead of 64")

	_, err = ParseCommittee([]byte("threshold: 1\npublicKeys: []"))
	require.EqualError(t, err, "invalid committee: empty committee")
}

func TestCommittee_Load(t *testing.T) {
	dir, err := os.MkdirTemp(os.TempDir(), "tdec")
	require.NoError(t, err)

	defer os.RemoveAll(dir)

	_, _, pubkeys := makeCommittee(3, 2)

	committee, err := NewDirectory(2, pubkeys)
	require.NoError(t, err)

	data, err := EncodeCommittee(committee)
	require.NoError(t, err)

	path := filepath.Join(dir, "committee.yaml")
	require.NoError(t, os.WriteFile(path, data, 0600))

	loaded, err := LoadCommittee(path)
	require.NoError(t, err)
	require.Equal(t, 3, loaded.Len())

	_, err = LoadCommittee(filepath.Join(dir, "unknown.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read committee: ")

	require.NoError(t, os.WriteFile(path, []byte("threshold: 0"), 0600))

	_, err = LoadCommittee(path)
	require.EqualError(t, err, "failed to parse committee: invalid committee: empty committee")
}
