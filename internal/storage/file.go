package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// testFileName is the well-known file the gating validator reads.
const testFileName = "test.json"

// FileStore persists the run output as a single JSON file under the
// project's data directory. Writes go through a temp file and rename so a
// reader never observes a partial document.
type FileStore struct {
	dir string
	log logrus.FieldLogger
}

// NewFileStore creates a file-backed store rooted at dataDir. The directory
// is created lazily on first write.
func NewFileStore(dataDir string, log logrus.FieldLogger) *FileStore {
	return &FileStore{
		dir: dataDir,
		log: log.WithField("component", "file_store"),
	}
}

// Path returns the location of the stored run output.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, testFileName)
}

// SaveTest writes the run output atomically, replacing any previous one.
func (s *FileStore) SaveTest(_ context.Context, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, testFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("writing run output: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("replacing run output: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"path":  s.Path(),
		"bytes": len(data),
	}).Debug("saved test results")

	return nil
}

// LoadTest reads the latest persisted run output.
func (s *FileStore) LoadTest(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoResults
		}

		return nil, fmt.Errorf("reading run output: %w", err)
	}

	return data, nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
