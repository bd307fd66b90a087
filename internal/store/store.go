// Package store persists the user profile and chat transcripts as flat JSON
// files. A missing file is the normal "nothing saved yet" state.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hyperjump/omny/internal/models"
)

// jsonFile reads and writes one JSON document at path.
type jsonFile struct {
	path string
}

// load decodes the file into v. found is false when the file does not exist.
func (f jsonFile) load(v any) (found bool, err error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", f.path, err)
	}
	return true, nil
}

// save writes v atomically: a temp file in the same directory is renamed over path.
func (f jsonFile) save(v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", f.path, err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.path, err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return nil
}

func (f jsonFile) remove() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", f.path, err)
	}
	return nil
}

// ProfileStore keeps the single user profile.
type ProfileStore struct {
	file jsonFile
}

// NewProfileStore returns a store backed by path.
func NewProfileStore(path string) *ProfileStore {
	return &ProfileStore{file: jsonFile{path: path}}
}

// Path returns the backing file.
func (s *ProfileStore) Path() string { return s.file.path }

// Load returns the saved profile. found is false when nothing has been saved.
func (s *ProfileStore) Load() (p models.Profile, found bool, err error) {
	found, err = s.file.load(&p)
	if err != nil || !found {
		return models.Profile{}, found, err
	}
	return p, true, nil
}

// Save overwrites the stored profile.
func (s *ProfileStore) Save(p models.Profile) error {
	return s.file.save(p)
}

// TranscriptStore keeps both chat transcripts in one file.
type TranscriptStore struct {
	file jsonFile
}

// NewTranscriptStore returns a store backed by path.
func NewTranscriptStore(path string) *TranscriptStore {
	return &TranscriptStore{file: jsonFile{path: path}}
}

// Path returns the backing file.
func (s *TranscriptStore) Path() string { return s.file.path }

// Load returns the saved transcripts. found is false when nothing has been saved.
func (s *TranscriptStore) Load() (t models.Transcripts, found bool, err error) {
	found, err = s.file.load(&t)
	if err != nil || !found {
		return models.Transcripts{}, found, err
	}
	return t, true, nil
}

// Save overwrites the stored transcripts.
func (s *TranscriptStore) Save(t models.Transcripts) error {
	return s.file.save(t)
}

// Clear removes the transcript file. Clearing twice is not an error.
func (s *TranscriptStore) Clear() error {
	return s.file.remove()
}
