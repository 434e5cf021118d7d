package storage

import (
	"context"
	"io"
)

// UploadResult describes a stored object.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader is the media storage port; tournament logos are its only
// consumer. Keys are unique per upload, so replacing a logo writes a new
// object and the superseded one is removed with Delete.
type FileUploader interface {
	// Upload stores the object under key and returns its public location.
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	// Delete removes an object that is no longer referenced.
	Delete(ctx context.Context, key string) error

	// GetPublicURL resolves a key against the store's public base URL.
	GetPublicURL(key string) string
}
