package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/danieljhkim/workbench/internal/project"
)

// Teardown deletes all persisted workspace state: the project record, the
// sessions, the snapshot ledger, the private state directory, and the code
// ignore file if workbench created it. The environment and files directories
// are left alone.
//
// It returns false without doing anything if confirmed is false or no
// project exists.
func (e *Engine) Teardown(ctx context.Context, confirmed bool) (bool, error) {
	if !confirmed {
		return false, nil
	}

	p, err := e.projects.Load()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	case errors.Is(err, project.ErrCorrupt):
		// A damaged record is still state to remove.
		log.Warn().Err(err).Msg("tearing down workspace with a corrupt project record")
	case err != nil:
		return false, fmt.Errorf("failed to load project: %w", err)
	}

	if err := e.projects.Delete(); err != nil {
		return false, err
	}
	if err := e.fs.RemoveAll(e.paths.StateDir); err != nil {
		return false, fmt.Errorf("failed to remove state directory: %w", err)
	}
	// A user-supplied ignore file predates the project and stays.
	if p != nil && p.OwnsIgnoreFile {
		if err := e.fs.Remove(e.paths.IgnoreFile); err != nil && !os.IsNotExist(err) {
			return false, fmt.Errorf("failed to remove ignore file: %w", err)
		}
	}

	ev := log.Debug().Str("root", e.paths.Root)
	if p != nil {
		ev = ev.Str("id", p.ID)
	}
	ev.Msg("workspace torn down")
	return true, nil
}
