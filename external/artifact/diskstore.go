package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/foxseedlab/koenote/internal/artifact"
	"github.com/google/uuid"
)

// DiskStore keeps artifacts as flat files under a single directory.
// Writes go through a temp file and an atomic rename so a crashed upload
// never leaves a half-written artifact behind.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Save(r io.Reader) (*artifact.SaveResult, error) {
	name := generateFilename()
	fullPath := filepath.Join(s.dir, name)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("write artifact: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("fsync artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("rename artifact: %w", err)
	}

	return &artifact.SaveResult{Filename: name, SizeBytes: size}, nil
}

func (s *DiskStore) Open(filename string) (io.ReadSeekCloser, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("open artifact %s: %w", filename, err)
	}
	return f, nil
}

func (s *DiskStore) Delete(filename string) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete artifact %s: %w", filename, err)
	}
	return nil
}

func (s *DiskStore) Exists(filename string) bool {
	path, err := s.resolve(filename)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(path)
	return statErr == nil
}

func (s *DiskStore) Size(filename string) (int64, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat artifact %s: %w", filename, err)
	}
	return info.Size(), nil
}

func (s *DiskStore) resolve(filename string) (string, error) {
	if !artifact.ValidFilename(filename) {
		return "", fmt.Errorf("invalid artifact filename %q", filename)
	}
	return filepath.Join(s.dir, filename), nil
}

// generateFilename mirrors the client-visible naming contract:
// audio-<unix-ms>-<random>.webm.
func generateFilename() string {
	rand := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("audio-%d-%s.webm", time.Now().UnixMilli(), rand)
}
