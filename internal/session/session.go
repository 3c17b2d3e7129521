// Package session manages the named work sessions of a project.
//
// The session set is persisted as a single JSON document. Every mutation
// loads the document, applies the transition in memory, checks the set
// invariants, and rewrites the document with one atomic write, so the
// on-disk set never shows zero or several current sessions.
//
// Invariants:
//   - a session named "default" always exists and cannot be deleted
//   - exactly one session is current
//   - names are unique, compared case-sensitively
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultName is the name of the protected session seeded at initialization.
const DefaultName = "default"

// SchemaVersion is the version of the persisted session document.
const SchemaVersion = 1

var (
	// ErrDuplicateName indicates a session with the same name already exists.
	ErrDuplicateName = errors.New("session name already exists")

	// ErrNotFound indicates no session matches the given name or id.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidName indicates the session name is not a valid identifier.
	ErrInvalidName = errors.New("invalid session name")

	// ErrInvariant indicates the persisted set violates a session invariant.
	ErrInvariant = errors.New("session invariant violated")
)

// Session is a named unit of work within a project.
type Session struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Current     bool      `json:"current"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsDefault reports whether s is the protected default session.
func (s *Session) IsDefault() bool {
	return s.Name == DefaultName
}

// Update holds optional field changes. A nil or empty value leaves the
// stored field untouched.
type Update struct {
	Name        *string
	Description *string
}

// document is the persisted form of the session set.
type document struct {
	SchemaVersion int       `json:"schemaVersion"`
	ProjectID     string    `json:"projectId"`
	Sessions      []Session `json:"sessions"`
}

// resolve finds a session by exact name first, then by id.
func (d *document) resolve(nameOrID string) int {
	for i := range d.Sessions {
		if d.Sessions[i].Name == nameOrID {
			return i
		}
	}
	return d.byID(nameOrID)
}

func (d *document) byID(id string) int {
	for i := range d.Sessions {
		if d.Sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *document) byName(name string) int {
	for i := range d.Sessions {
		if d.Sessions[i].Name == name {
			return i
		}
	}
	return -1
}

// selectIndex makes the session at i the only current one.
func (d *document) selectIndex(i int) {
	for j := range d.Sessions {
		d.Sessions[j].Current = j == i
	}
}

func (d *document) current() int {
	for i := range d.Sessions {
		if d.Sessions[i].Current {
			return i
		}
	}
	return -1
}

// validate checks the set invariants.
func (d *document) validate() error {
	seen := make(map[string]bool, len(d.Sessions))
	current := 0
	hasDefault := false

	for _, s := range d.Sessions {
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate name %q", ErrInvariant, s.Name)
		}
		seen[s.Name] = true
		if s.Current {
			current++
		}
		if s.Name == DefaultName {
			hasDefault = true
		}
	}

	if !hasDefault {
		return fmt.Errorf("%w: missing %q session", ErrInvariant, DefaultName)
	}
	if current != 1 {
		return fmt.Errorf("%w: %d current sessions", ErrInvariant, current)
	}
	return nil
}

func newID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}
