package project

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/workbench/internal/fsops"
)

// ErrCorrupt indicates the stored record could not be decoded or is missing
// its identifier.
var ErrCorrupt = errors.New("corrupt project record")

// Store persists the Project record of one workspace.
type Store interface {
	// Load returns the stored Project.
	// Returns os.ErrNotExist if no project has been initialized.
	Load() (*Project, error)

	// Save writes the Project atomically.
	Save(p *Project) error

	// Delete removes the record. Deleting a missing record is not an error.
	Delete() error
}

// FileStore implements Store as a YAML file.
type FileStore struct {
	fs   fsops.FS
	path string
}

// NewFileStore creates a new FileStore backed by the file at path.
func NewFileStore(fs fsops.FS, path string) *FileStore {
	return &FileStore{fs: fs, path: path}
}

// Load returns the stored Project.
func (s *FileStore) Load() (*Project, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read project record: %w", err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrCorrupt)
	}

	return &p, nil
}

// Save writes the Project atomically.
func (s *FileStore) Save(p *Project) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal project record: %w", err)
	}

	if err := s.fs.AtomicWrite(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write project record: %w", err)
	}

	log.Debug().Str("id", p.ID).Str("name", p.Name).Msg("project record saved")
	return nil
}

// Delete removes the record.
func (s *FileStore) Delete() error {
	if err := s.fs.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete project record: %w", err)
	}
	return nil
}
