// Package storage defines the entry file-system abstraction.
package storage

import "time"

// FileInfo describes one markdown file under the storage root.
type FileInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for entry file operations. All paths are
// relative to the storage root.
type Provider interface {
	// List returns every .md file under dir.
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path.
	Write(path string, content []byte) error
	// Root returns the absolute root directory.
	Root() string
}
