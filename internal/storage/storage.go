package storage

import (
	"context"
	"io"
)

// AttachmentStore persists ticket attachments and returns stable relative
// paths recorded on the ticket row.
type AttachmentStore interface {
	// Store writes content under the ticket attachment subdirectory and
	// returns the relative path to record.
	Store(ctx context.Context, filename string, content io.Reader) (string, error)
	// Remove deletes a previously stored attachment by its relative path.
	// Removing a path that no longer exists is not an error.
	Remove(ctx context.Context, relPath string) error
	// Open returns the stored content for download.
	Open(ctx context.Context, relPath string) (io.ReadCloser, error)
}
