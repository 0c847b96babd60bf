// Package loader defines an abstraction to load key material from a
// persistent storage. The material is stored in hexadecimal so that the files
// can be produced and inspected by the tools of the key generation ceremony.
package loader

// Loader is an abstraction to load and store a key.
type Loader interface {
	// Load reads the key and returns its binary form.
	Load() ([]byte, error)

	// Store writes the key. It fails if a key already exists.
	Store(data []byte) error
}
