package loader

import (
	"bytes"
	"encoding/hex"
	"io"
	"os"

	"golang.org/x/xerrors"
)

// fileLoader is a loader that reads and writes hexadecimal keys in a file.
//
// - implements loader.Loader
type fileLoader struct {
	path string

	openFn     func(path string) (*os.File, error)
	openFileFn func(path string, flags int, perms os.FileMode) (*os.File, error)
}

// NewFileLoader creates a new loader that is using the file given in parameter.
func NewFileLoader(path string) Loader {
	return fileLoader{
		path:       path,
		openFn:     os.Open,
		openFileFn: os.OpenFile,
	}
}

// Load implements loader.Loader. It reads the file and decodes the hexadecimal
// content, ignoring surrounding white spaces.
func (l fileLoader) Load() ([]byte, error) {
	file, err := l.openFn(l.path)
	if err != nil {
		return nil, xerrors.Errorf("while opening file: %v", err)
	}

	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, xerrors.Errorf("while reading file: %v", err)
	}

	content = bytes.TrimSpace(content)

	data := make([]byte, hex.DecodedLen(len(content)))

	_, err = hex.Decode(data, content)
	if err != nil {
		return nil, xerrors.Errorf("malformed key: %v", err)
	}

	return data, nil
}

// Store implements loader.Loader. The file is created with minimal read
// permission for the current user (0400) and must not already exist.
func (l fileLoader) Store(data []byte) error {
	file, err := l.openFileFn(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0400)
	if err != nil {
		return xerrors.Errorf("while creating file: %v", err)
	}

	defer file.Close()

	_, err = file.WriteString(hex.EncodeToString(data) + "\n")
	if err != nil {
		return xerrors.Errorf("while writing: %v", err)
	}

	return nil
}
