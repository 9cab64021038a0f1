package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// LocalMediaStore writes uploads to a directory served under /media/
type LocalMediaStore struct {
	dir     string
	baseURL string
}

// Ensure LocalMediaStore implements MediaStore
var _ MediaStore = (*LocalMediaStore)(nil)

// NewLocalMediaStore creates dir if needed; URLs are baseURL + "/media/" + object name
func NewLocalMediaStore(dir, baseURL string) (*LocalMediaStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory %s: %w", dir, err)
	}
	return &LocalMediaStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Upload writes data to disk and returns its public URL
func (s *LocalMediaStore) Upload(ctx context.Context, folder, filename string, data []byte, contentType string) (string, error) {
	name := mediaObjectName(folder, filename, time.Now())
	target := filepath.Join(s.dir, filepath.FromSlash(name))

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("failed to create media folder: %w", err)
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write media file %s: %w", name, err)
	}

	logrus.Debugf("Stored %s (%s, %d bytes)", name, contentType, len(data))
	return s.baseURL + "/media/" + name, nil
}

// Delete removes the file behind a URL returned by Upload
func (s *LocalMediaStore) Delete(ctx context.Context, url string) error {
	prefix := s.baseURL + "/media/"
	if !strings.HasPrefix(url, prefix) {
		return fmt.Errorf("url %s is not a local media url", url)
	}
	name := strings.TrimPrefix(url, prefix)
	if strings.Contains(name, "..") {
		return fmt.Errorf("invalid media name %s", name)
	}

	if err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(name))); err != nil {
		return fmt.Errorf("failed to delete media file %s: %w", name, err)
	}
	return nil
}

// Dir is the directory uploads are written to
func (s *LocalMediaStore) Dir() string {
	return s.dir
}
