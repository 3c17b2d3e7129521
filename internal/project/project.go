// Package project persists the identity record of a workspace.
//
// Each workspace root holds at most one Project, stored as
// .workbench/project.yaml. The record is created on first initialization,
// updated in place on re-initialization, and removed only by teardown.
package project

import (
	"time"

	"github.com/google/uuid"
)

// Project is the identity and metadata of a workspace.
type Project struct {
	// ID is assigned once at creation and never changes.
	ID string `yaml:"id" json:"id"`

	Name string `yaml:"name" json:"name"`

	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	CreatedAt time.Time `yaml:"created_at" json:"createdAt"`

	UpdatedAt time.Time `yaml:"updated_at" json:"updatedAt"`

	// HomePath is the absolute workspace root.
	HomePath string `yaml:"home_path" json:"homePath"`

	// OwnsIgnoreFile is set when the ignore file was written by workbench
	// rather than supplied by the user. Only an owned file is removed on
	// teardown.
	OwnsIgnoreFile bool `yaml:"owns_ignore_file,omitempty" json:"-"`
}

// New creates a Project with a fresh identifier.
func New(name, description, homePath string, now time.Time) *Project {
	return &Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		HomePath:    homePath,
	}
}

// Update holds optional field changes. A nil or empty value leaves the
// stored field untouched.
type Update struct {
	Name        *string
	Description *string
}

// Apply merges u into p and reports whether any field changed.
// UpdatedAt is refreshed only when something changed.
func (p *Project) Apply(u Update, now time.Time) bool {
	changed := false
	if v, ok := present(u.Name); ok && v != p.Name {
		p.Name = v
		changed = true
	}
	if v, ok := present(u.Description); ok && v != p.Description {
		p.Description = v
		changed = true
	}
	if changed {
		p.UpdatedAt = now
	}
	return changed
}

func present(v *string) (string, bool) {
	if v == nil || *v == "" {
		return "", false
	}
	return *v, true
}
