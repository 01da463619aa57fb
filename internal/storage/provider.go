// Package storage defines the workspace file-system abstraction that holds
// glossary documents.
package storage

import "github.com/starford/glossaryqf/internal/models"

// Provider is the interface for workspace file operations. All paths are
// relative to the workspace root.
type Provider interface {
	// List returns metadata for every glossary document under dir.
	List(dir string) ([]models.DocumentMetadata, error)
	// Stat returns metadata for a single document.
	Stat(path string) (models.DocumentMetadata, error)
	Read(path string) ([]byte, error)
	// Write atomically replaces the document at path.
	Write(path string, content []byte) error
	Delete(path string) error
}
