package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/danieljhkim/workbench/internal/clock"
	"github.com/danieljhkim/workbench/internal/fsops"
)

// Registry owns the session set of one project. It is the only writer of
// the current-session pointer.
type Registry struct {
	mu    sync.Mutex
	fs    fsops.FS
	path  string
	clock clock.Clock
}

// NewRegistry creates a new Registry persisted at path.
func NewRegistry(fs fsops.FS, path string, clk clock.Clock) *Registry {
	return &Registry{fs: fs, path: path, clock: clk}
}

// load reads the session document.
// Returns os.ErrNotExist if the registry has not been seeded.
func (r *Registry) load() (*document, error) {
	data, err := r.fs.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sessions: %w", err)
	}
	if doc.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("unsupported session schema version %d", doc.SchemaVersion)
	}
	return &doc, nil
}

// save validates the document and writes it in one atomic rewrite.
func (r *Registry) save(doc *document) error {
	if err := doc.validate(); err != nil {
		return err
	}
	doc.SchemaVersion = SchemaVersion

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	if err := r.fs.AtomicWrite(r.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write sessions: %w", err)
	}
	return nil
}

// EnsureDefault seeds the registry for projectID, creating the default
// session if it is missing and making it current when no session is.
// It returns the default session.
func (r *Registry) EnsureDefault(projectID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if errors.Is(err, os.ErrNotExist) {
		doc = &document{ProjectID: projectID}
	} else if err != nil {
		return nil, err
	}
	doc.ProjectID = projectID

	idx := doc.byName(DefaultName)
	if idx < 0 {
		now := r.clock.Now()
		doc.Sessions = append(doc.Sessions, Session{
			ID:        newID(now),
			Name:      DefaultName,
			CreatedAt: now,
			UpdatedAt: now,
		})
		idx = len(doc.Sessions) - 1
		log.Debug().Str("project", projectID).Msg("seeded default session")
	}

	// Repair any state that does not have exactly one current session.
	currents := 0
	for _, s := range doc.Sessions {
		if s.Current {
			currents++
		}
	}
	switch {
	case currents == 0:
		doc.selectIndex(idx)
	case currents > 1:
		log.Warn().Int("current", currents).Msg("multiple current sessions; resetting to default")
		doc.selectIndex(idx)
	}

	if err := r.save(doc); err != nil {
		return nil, err
	}
	s := doc.Sessions[idx]
	return &s, nil
}

// Create adds a new, non-current session.
func (r *Registry) Create(name string) (*Session, error) {
	if err := fsops.ValidateIdentifier(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidName, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	if doc.byName(name) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	now := r.clock.Now()
	s := Session{
		ID:        newID(now),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc.Sessions = append(doc.Sessions, s)

	if err := r.save(doc); err != nil {
		return nil, err
	}
	log.Debug().Str("session", name).Str("id", s.ID).Msg("session created")
	return &s, nil
}

// Select makes the session matching nameOrID the only current session.
// Names are matched before ids.
func (r *Registry) Select(nameOrID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	idx := doc.resolve(nameOrID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, nameOrID)
	}

	if !doc.Sessions[idx].Current {
		doc.selectIndex(idx)
		if err := r.save(doc); err != nil {
			return nil, err
		}
		log.Debug().Str("session", doc.Sessions[idx].Name).Msg("session selected")
	}

	s := doc.Sessions[idx]
	return &s, nil
}

// Get returns the session matching nameOrID.
func (r *Registry) Get(nameOrID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	idx := doc.resolve(nameOrID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, nameOrID)
	}
	s := doc.Sessions[idx]
	return &s, nil
}

// List returns all sessions in insertion order.
func (r *Registry) List() ([]Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	out := make([]Session, len(doc.Sessions))
	copy(out, doc.Sessions)
	return out, nil
}

// Current returns the current session.
func (r *Registry) Current() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	idx := doc.current()
	if idx < 0 {
		return nil, fmt.Errorf("%w: no current session", ErrInvariant)
	}
	s := doc.Sessions[idx]
	return &s, nil
}

// Update applies a partial update to the session with the given id.
//
// It returns (nil, nil) when the id does not resolve, or when the update
// would rename the default session or give another session the default
// name. Renaming onto another existing name fails with ErrDuplicateName.
// An update that supplies nothing returns the session unchanged.
func (r *Registry) Update(id string, u Update) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	idx := doc.byID(id)
	if idx < 0 {
		return nil, nil
	}
	s := &doc.Sessions[idx]

	changed := false
	if name, ok := present(u.Name); ok && name != s.Name {
		if s.IsDefault() || name == DefaultName {
			log.Debug().Str("session", s.Name).Str("to", name).Msg("refusing to rename protected session")
			return nil, nil
		}
		if err := fsops.ValidateIdentifier(name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidName, err)
		}
		if doc.byName(name) >= 0 {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		s.Name = name
		changed = true
	}
	if desc, ok := present(u.Description); ok && desc != s.Description {
		s.Description = desc
		changed = true
	}

	if changed {
		s.UpdatedAt = r.clock.Now()
		if err := r.save(doc); err != nil {
			return nil, err
		}
		log.Debug().Str("id", id).Msg("session updated")
	}

	out := *s
	return &out, nil
}

// Delete removes the session matching nameOrID.
//
// It returns false without error when the target does not resolve, is the
// default session, or is the current session.
func (r *Registry) Delete(nameOrID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return false, err
	}
	idx := doc.resolve(nameOrID)
	if idx < 0 {
		return false, nil
	}
	target := doc.Sessions[idx]
	if target.IsDefault() || target.Current {
		log.Debug().Str("session", target.Name).Msg("refusing to delete protected session")
		return false, nil
	}

	doc.Sessions = append(doc.Sessions[:idx], doc.Sessions[idx+1:]...)
	if err := r.save(doc); err != nil {
		return false, err
	}
	log.Debug().Str("session", target.Name).Msg("session deleted")
	return true, nil
}

func present(v *string) (string, bool) {
	if v == nil || *v == "" {
		return "", false
	}
	return *v, true
}
