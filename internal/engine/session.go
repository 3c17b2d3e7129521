package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/danieljhkim/workbench/internal/session"
)

// sessionRegistry returns the registry once the project is known to exist.
func (e *Engine) sessionRegistry() (*session.Registry, error) {
	if _, err := e.loadProject(); err != nil {
		return nil, err
	}
	return e.sessions, nil
}

// wrapSessionErr maps a missing session document to ErrNotInitialized.
func (e *Engine) wrapSessionErr(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: no sessions at %s", ErrNotInitialized, e.paths.Root)
	}
	return err
}

// CreateSession adds a new, non-current session.
// Fails with ErrDuplicateName if the name is taken.
func (e *Engine) CreateSession(ctx context.Context, name string) (*session.Session, error) {
	reg, err := e.sessionRegistry()
	if err != nil {
		return nil, err
	}
	s, err := reg.Create(name)
	return s, e.wrapSessionErr(err)
}

// SelectSession makes the session matching nameOrID current.
// Fails with ErrNotFound if nothing matches.
func (e *Engine) SelectSession(ctx context.Context, nameOrID string) (*session.Session, error) {
	reg, err := e.sessionRegistry()
	if err != nil {
		return nil, err
	}
	s, err := reg.Select(nameOrID)
	return s, e.wrapSessionErr(err)
}

// GetSession returns the session matching nameOrID, or the current session
// when nameOrID is empty. Fails with ErrNotFound if nothing matches.
func (e *Engine) GetSession(ctx context.Context, nameOrID string) (*session.Session, error) {
	if nameOrID == "" {
		return e.CurrentSession(ctx)
	}
	reg, err := e.sessionRegistry()
	if err != nil {
		return nil, err
	}
	s, err := reg.Get(nameOrID)
	return s, e.wrapSessionErr(err)
}

// ListSessions returns sessions in insertion order.
func (e *Engine) ListSessions(ctx context.Context) ([]session.Session, error) {
	reg, err := e.sessionRegistry()
	if err != nil {
		return nil, err
	}
	sessions, err := reg.List()
	return sessions, e.wrapSessionErr(err)
}

// CurrentSession returns the current session.
func (e *Engine) CurrentSession(ctx context.Context) (*session.Session, error) {
	reg, err := e.sessionRegistry()
	if err != nil {
		return nil, err
	}
	s, err := reg.Current()
	return s, e.wrapSessionErr(err)
}

// UpdateSession applies a partial update to the session with the given id.
// It returns (nil, nil) if the id does not resolve or the rename is refused.
func (e *Engine) UpdateSession(ctx context.Context, id string, u session.Update) (*session.Session, error) {
	reg, err := e.sessionRegistry()
	if err != nil {
		return nil, err
	}
	s, err := reg.Update(id, u)
	return s, e.wrapSessionErr(err)
}

// DeleteSession removes the session matching nameOrID. It returns false if
// the target does not resolve, is the default session, or is current.
func (e *Engine) DeleteSession(ctx context.Context, nameOrID string) (bool, error) {
	reg, err := e.sessionRegistry()
	if err != nil {
		return false, err
	}
	ok, err := reg.Delete(nameOrID)
	return ok, e.wrapSessionErr(err)
}
