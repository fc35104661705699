// Package storage manages the two scratch directories a request works in:
// one for the uploaded image and one for the synthesized audio. Both are
// wiped at the start of every request.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/google/uuid"
)

// Kind selects one of the scratch directories
type Kind string

const (
	Uploads Kind = "uploads"
	Audio   Kind = "audio"
)

// ErrInvalidName is returned when a file name would escape its directory
var ErrInvalidName = errors.New("invalid file name")

// Manager owns the upload and audio scratch directories
type Manager struct {
	uploadDir string
	audioDir  string
}

// New creates a scratch storage manager for the given directories
func New(uploadDir, audioDir string) *Manager {
	return &Manager{
		uploadDir: uploadDir,
		audioDir:  audioDir,
	}
}

// UploadDir returns the directory holding uploaded images
func (m *Manager) UploadDir() string {
	return m.uploadDir
}

// AudioDir returns the directory holding synthesized audio
func (m *Manager) AudioDir() string {
	return m.audioDir
}

// Prepare ensures both scratch directories exist. Safe to call repeatedly.
func (m *Manager) Prepare() error {
	for _, dir := range []string{m.uploadDir, m.audioDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create scratch directory %s: %w", dir, err)
		}
	}
	return nil
}

// Reset deletes everything inside both scratch directories so the next
// request starts from a clean slate
func (m *Manager) Reset() error {
	if err := m.Prepare(); err != nil {
		return err
	}

	removed := 0
	for _, dir := range []string{m.uploadDir, m.audioDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("failed to read scratch directory %s: %w", dir, err)
		}
		for _, entry := range entries {
			if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
				return fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
			}
			removed++
		}
	}

	if removed > 0 {
		log.WithField("removed", removed).Debug("scratch storage reset")
	}
	return nil
}

// Store writes image bytes under a freshly generated identifier and returns
// the identifier and the file path
func (m *Manager) Store(data []byte, format string) (string, string, error) {
	ext, err := Extension(format)
	if err != nil {
		return "", "", err
	}

	if err := m.Prepare(); err != nil {
		return "", "", err
	}

	id := uuid.NewString()
	path := filepath.Join(m.uploadDir, id+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", "", fmt.Errorf("failed to write upload: %w", err)
	}

	return id, path, nil
}

// AudioFileName builds the audio file name for a request and language
func (m *Manager) AudioFileName(id, lang string) string {
	return fmt.Sprintf("%s_%s.mp3", id, lang)
}

// Path resolves a bare file name inside one of the scratch directories
func (m *Manager) Path(kind Kind, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}

	switch kind {
	case Uploads:
		return filepath.Join(m.uploadDir, name), nil
	case Audio:
		return filepath.Join(m.audioDir, name), nil
	default:
		return "", fmt.Errorf("unknown scratch directory: %s", kind)
	}
}

// Extension maps a declared image format to a file extension
func Extension(format string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), ".")) {
	case "jpg", "jpeg", "image/jpeg":
		return ".jpg", nil
	case "png", "image/png":
		return ".png", nil
	default:
		return "", fmt.Errorf("unsupported image format: %q", format)
	}
}
