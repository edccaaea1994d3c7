// Package downloads submits artifact content to local storage the way the
// host download API would: a destination folder, a suggested filename, and
// a uniquify conflict policy. The returned download id is opaque.
package downloads

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Submitter writes artifact payloads into a download folder.
type Submitter struct {
	folder string
}

// NewSubmitter ensures the download folder exists.
func NewSubmitter(folder string) (*Submitter, error) {
	if folder == "" {
		folder = "."
	}
	if err := os.MkdirAll(folder, 0750); err != nil {
		return nil, fmt.Errorf("failed to create download folder: %w", err)
	}
	return &Submitter{folder: folder}, nil
}

// Folder returns the destination folder.
func (s *Submitter) Folder() string {
	return s.folder
}

// Submit writes content under the suggested filename, uniquifying on
// conflict ("name.ext" -> "name (1).ext"), and returns an opaque download
// id for the attempt.
func (s *Submitter) Submit(content []byte, filename string) (string, string, error) {
	path, err := s.uniquePath(filename)
	if err != nil {
		return "", "", err
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return uuid.NewString(), path, nil
}

// uniquePath finds the first non-colliding path for filename inside the
// download folder.
func (s *Submitter) uniquePath(filename string) (string, error) {
	base := filepath.Base(filename) // never escape the folder
	path := filepath.Join(s.folder, base)
	if !exists(path) {
		return path, nil
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 1; i < 1000; i++ {
		candidate := filepath.Join(s.folder, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if !exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free filename for %s after 999 attempts", base)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !os.IsNotExist(err)
}
