package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/danieljhkim/workbench/internal/fingerprint"
	"github.com/danieljhkim/workbench/internal/project"
)

// EnvironmentQuestion is asked before writing a default environment definition.
const EnvironmentQuestion = "Would you like to set up an environment? [y/N]"

// Init creates the project at the workspace root, or updates the existing
// one with the non-empty fields of req.
//
// Init is idempotent: repeated calls with the same arguments leave the same
// project id and fields. It seeds the default session, creates the snapshot
// ledger, writes the code ignore file if absent, and unless
// req.SkipEnvironmentSetup is set, offers to write a default environment
// definition when none exists.
func (e *Engine) Init(ctx context.Context, req *InitRequest) (*project.Project, error) {
	if req == nil {
		req = &InitRequest{}
	}

	if err := e.fs.CheckWritable(e.paths.Root); err != nil {
		return nil, fmt.Errorf("%w: workspace root %s is not writable: %v", ErrConfiguration, e.paths.Root, err)
	}

	now := e.clock.Now()
	p, err := e.projects.Load()
	created := false
	switch {
	case errors.Is(err, os.ErrNotExist):
		name := filepath.Base(e.paths.Root)
		if req.Name != nil && *req.Name != "" {
			name = *req.Name
		}
		description := ""
		if req.Description != nil {
			description = *req.Description
		}
		p = project.New(name, description, e.paths.Root, now)
		created = true
	case err != nil:
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	if err := e.fs.MkdirAll(e.paths.StateDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create state directory: %v", ErrConfiguration, err)
	}

	changed := false
	if !created {
		changed = p.Apply(project.Update{Name: req.Name, Description: req.Description}, now)
		// The record follows the workspace if it was moved.
		if p.HomePath != e.paths.Root {
			p.HomePath = e.paths.Root
			p.UpdatedAt = now
			changed = true
		}
	}

	ignoreExists, err := e.fs.Exists(e.paths.IgnoreFile)
	if err != nil {
		return nil, fmt.Errorf("failed to check ignore file: %w", err)
	}
	if !ignoreExists && !p.OwnsIgnoreFile {
		p.OwnsIgnoreFile = true
		changed = true
	}

	if created || changed {
		if err := e.projects.Save(p); err != nil {
			return nil, err
		}
	}

	if _, err := e.sessions.EnsureDefault(p.ID); err != nil {
		return nil, fmt.Errorf("failed to seed sessions: %w", err)
	}

	l, err := e.openLedger(ctx)
	if err != nil {
		return nil, err
	}
	if err := l.Close(); err != nil {
		return nil, fmt.Errorf("failed to close snapshot ledger: %w", err)
	}

	if err := e.writeIgnoreFile(); err != nil {
		return nil, err
	}

	if !req.SkipEnvironmentSetup {
		if err := e.setupEnvironment(ctx); err != nil {
			return nil, err
		}
	}

	log.Debug().
		Str("id", p.ID).
		Str("name", p.Name).
		Bool("created", created).
		Bool("changed", changed).
		Msg("project initialized")
	return p, nil
}

func (e *Engine) writeIgnoreFile() error {
	exists, err := e.fs.Exists(e.paths.IgnoreFile)
	if err != nil {
		return fmt.Errorf("failed to check ignore file: %w", err)
	}
	if exists {
		return nil
	}
	if err := e.fs.AtomicWrite(e.paths.IgnoreFile, []byte(fingerprint.DefaultIgnoreFile), 0644); err != nil {
		return fmt.Errorf("failed to write ignore file: %w", err)
	}
	return nil
}

// setupEnvironment offers to write a default environment definition. It does
// nothing if a definition already exists or the offer is declined.
func (e *Engine) setupEnvironment(ctx context.Context) error {
	current, err := e.fingerprints.Fingerprint(fingerprint.FacetEnvironment)
	if err != nil {
		return err
	}
	if current != fingerprint.Empty {
		return nil
	}
	if !e.ask(EnvironmentQuestion) {
		log.Debug().Msg("environment setup declined")
		return nil
	}
	if e.builder == nil {
		return fmt.Errorf("%w: no environment builder configured", ErrEnvironmentBuild)
	}

	if err := e.builder.Build(ctx, e.paths.EnvironmentDir, e.platform); err != nil {
		return fmt.Errorf("%w: %v", ErrEnvironmentBuild, err)
	}
	log.Debug().Str("dir", e.paths.EnvironmentDir).Msg("environment definition created")
	return nil
}
