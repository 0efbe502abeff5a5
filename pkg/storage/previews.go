// Package storage keeps transient on-device files: media previews written at
// submission time so attached photos render before the upload completes, and
// generated export documents.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PreviewStore persists preview bytes on disk under a base directory.
type PreviewStore struct {
	baseDir string
}

// NewPreviewStore ensures the base directory exists and returns a handle.
func NewPreviewStore(baseDir string) (*PreviewStore, error) {
	if baseDir == "" {
		baseDir = "./.delegate/previews"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create preview directory: %w", err)
	}
	return &PreviewStore{baseDir: baseDir}, nil
}

// Save writes preview bytes for the given submission under a stable name and
// returns the absolute path the UI can render from.
func (s *PreviewStore) Save(submissionID string, index int, data []byte) (string, error) {
	name := fmt.Sprintf("%s-%d.bin", submissionID, index)
	path := s.resolve(name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write preview file: %w", err)
	}
	return path, nil
}

// Delete removes all previews recorded for a submission.
func (s *PreviewStore) Delete(submissionID string) error {
	matches, err := filepath.Glob(s.resolve(submissionID + "-*.bin"))
	if err != nil {
		return fmt.Errorf("glob previews: %w", err)
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete preview file: %w", err)
		}
	}
	return nil
}

// CleanupOlderThan removes previews older than the provided TTL and returns
// the deleted paths. Previews are transient; anything the reconciler still
// needs would have been re-fetched from the server long before the TTL.
func (s *PreviewStore) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	deleted := make([]string, 0)
	err := filepath.WalkDir(s.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		deleted = append(deleted, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup previews: %w", err)
	}
	return deleted, nil
}

func (s *PreviewStore) resolve(name string) string {
	return filepath.Join(s.baseDir, filepath.Clean("/"+name))
}
