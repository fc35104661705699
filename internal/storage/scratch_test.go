package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	base := t.TempDir()
	return New(filepath.Join(base, "temp_uploads"), filepath.Join(base, "temp_audio"))
}

func TestPrepare_Idempotent(t *testing.T) {
	m := newTestManager(t)

	for i := 0; i < 3; i++ {
		if err := m.Prepare(); err != nil {
			t.Fatalf("Prepare() call %d failed: %v", i+1, err)
		}
	}

	for _, dir := range []string{m.UploadDir(), m.AudioDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("Expected directory %s to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Errorf("Expected %s to be a directory", dir)
		}
	}
}

func TestStore(t *testing.T) {
	m := newTestManager(t)

	id, path, err := m.Store([]byte{0xFF, 0xD8, 0xFF}, "jpeg")
	if err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	if id == "" {
		t.Error("Expected a non-empty id")
	}
	if filepath.Dir(path) != m.UploadDir() {
		t.Errorf("Expected file in %s, got %s", m.UploadDir(), path)
	}
	if filepath.Base(path) != id+".jpg" {
		t.Errorf("Expected file name %s.jpg, got %s", id, filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read stored file: %v", err)
	}
	if len(data) != 3 {
		t.Errorf("Expected 3 bytes, got %d", len(data))
	}
}

func TestStore_UniqueIDs(t *testing.T) {
	m := newTestManager(t)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id, _, err := m.Store([]byte("x"), "png")
		if err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
		if seen[id] {
			t.Fatalf("Duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestStore_UnsupportedFormat(t *testing.T) {
	m := newTestManager(t)

	if _, _, err := m.Store([]byte("x"), "gif"); err == nil {
		t.Error("Expected error for gif upload")
	}
}

func TestStore_WriteFailure(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	// The upload "directory" is a regular file, so nothing can be written
	m := New(filepath.Join(blocker, "uploads"), filepath.Join(base, "audio"))
	if _, _, err := m.Store([]byte("x"), "jpg"); err == nil {
		t.Error("Expected error when the upload directory cannot be created")
	}
}

func TestReset_RemovesPreviousArtifacts(t *testing.T) {
	m := newTestManager(t)

	_, firstImage, err := m.Store([]byte("first"), "jpg")
	if err != nil {
		t.Fatal(err)
	}
	firstAudio := filepath.Join(m.AudioDir(), "old_en.mp3")
	if err := os.WriteFile(firstAudio, []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(m.AudioDir(), "nested"), 0755); err != nil {
		t.Fatal(err)
	}

	if err := m.Reset(); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}

	_, secondImage, err := m.Store([]byte("second"), "png")
	if err != nil {
		t.Fatal(err)
	}

	uploads, _ := os.ReadDir(m.UploadDir())
	if len(uploads) != 1 || filepath.Join(m.UploadDir(), uploads[0].Name()) != secondImage {
		t.Errorf("Expected only %s in uploads, got %v", secondImage, uploads)
	}

	audio, _ := os.ReadDir(m.AudioDir())
	if len(audio) != 0 {
		t.Errorf("Expected empty audio directory, got %d entries", len(audio))
	}

	if _, err := os.Stat(firstImage); !os.IsNotExist(err) {
		t.Error("Expected first image to be deleted")
	}
}

func TestReset_CreatesMissingDirectories(t *testing.T) {
	m := newTestManager(t)

	if err := m.Reset(); err != nil {
		t.Fatalf("Reset() on missing directories failed: %v", err)
	}
	if _, err := os.Stat(m.AudioDir()); err != nil {
		t.Errorf("Expected audio directory to exist: %v", err)
	}
}

func TestAudioFileName(t *testing.T) {
	m := newTestManager(t)
	if got := m.AudioFileName("abc", "es"); got != "abc_es.mp3" {
		t.Errorf("AudioFileName() = %s, want abc_es.mp3", got)
	}
}

func TestPath(t *testing.T) {
	m := newTestManager(t)

	tests := []struct {
		name    string
		kind    Kind
		file    string
		wantErr bool
	}{
		{"audio file", Audio, "abc_es.mp3", false},
		{"upload file", Uploads, "abc.jpg", false},
		{"traversal", Audio, "../secret", true},
		{"nested", Audio, "a/b.mp3", true},
		{"hidden", Uploads, ".env", true},
		{"empty", Audio, "", true},
		{"unknown kind", Kind("cache"), "x.mp3", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := m.Path(tt.kind, tt.file)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Path() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && tt.kind != Kind("cache") && !errors.Is(err, ErrInvalidName) {
				t.Errorf("Expected ErrInvalidName, got %v", err)
			}
			if !tt.wantErr && !strings.HasSuffix(path, tt.file) {
				t.Errorf("Path() = %s, want suffix %s", path, tt.file)
			}
		})
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{"jpg", ".jpg", false},
		{"JPEG", ".jpg", false},
		{".png", ".png", false},
		{"image/png", ".png", false},
		{"webp", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, err := Extension(tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Extension(%q) error = %v", tt.format, err)
			}
			if got != tt.want {
				t.Errorf("Extension(%q) = %q, want %q", tt.format, got, tt.want)
			}
		})
	}
}
