package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ticketSubdir is the fixed subdirectory for ticket attachments; the relative
// path recorded on a ticket always starts with it.
const ticketSubdir = "tickets"

// LocalStore is a filesystem-backed AttachmentStore rooted at a base
// directory.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, ticketSubdir), 0o755); err != nil {
		return nil, fmt.Errorf("create attachment dir: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// Store writes content under tickets/ with a random name preserving the
// original extension.
func (s *LocalStore) Store(_ context.Context, filename string, content io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	relPath := filepath.Join(ticketSubdir, uuid.NewString()+ext)
	fullPath := filepath.Join(s.baseDir, relPath)

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create attachment: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("write attachment: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("close attachment: %w", err)
	}
	return filepath.ToSlash(relPath), nil
}

// Remove deletes the stored file; a missing file is treated as already removed.
func (s *LocalStore) Remove(_ context.Context, relPath string) error {
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove attachment: %w", err)
	}
	return nil
}

// Open returns the stored content.
func (s *LocalStore) Open(_ context.Context, relPath string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

// resolve rejects paths escaping the base directory.
func (s *LocalStore) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid attachment path %q", relPath)
	}
	return filepath.Join(s.baseDir, cleaned), nil
}
