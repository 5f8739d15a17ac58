// Package artifact defines storage for finalized capture audio. Files are
// addressed only by their generated name; the store owns the directory
// layout underneath.
package artifact

import (
	"io"
	"strings"
)

type SaveResult struct {
	Filename  string
	SizeBytes int64
}

type Store interface {
	// Save writes the artifact under a fresh generated name.
	Save(r io.Reader) (*SaveResult, error)
	// Open returns the artifact content; callers must close it.
	Open(filename string) (io.ReadSeekCloser, error)
	// Delete removes the artifact. Deleting a missing file is not an error.
	Delete(filename string) error
	Exists(filename string) bool
	Size(filename string) (int64, error)
}

// ValidFilename rejects anything that could escape the store directory.
// Artifacts are served by bare filename, so a single flat segment is all
// that is ever legal.
func ValidFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	return true
}
