// Package engine provides the core business logic for workbench operations.
//
// The engine package is the orchestration layer between CLI commands and the
// lower-level stores. It coordinates project initialization and teardown,
// session management, and change detection across the code, environment,
// and files facets.
//
// Key components:
//   - Engine: main orchestrator called by the CLI
//   - Init/Teardown: workspace lifecycle
//   - Status: unstaged facets relative to the latest snapshot
//   - Sessions: delegation to the session registry
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/danieljhkim/workbench/internal/clock"
	"github.com/danieljhkim/workbench/internal/config"
	"github.com/danieljhkim/workbench/internal/envbuild"
	"github.com/danieljhkim/workbench/internal/fingerprint"
	"github.com/danieljhkim/workbench/internal/fsops"
	"github.com/danieljhkim/workbench/internal/ledger"
	"github.com/danieljhkim/workbench/internal/project"
	"github.com/danieljhkim/workbench/internal/session"
)

// Engine orchestrates all workbench operations for one workspace root.
// It is the main API surface called by the CLI.
type Engine struct {
	fs           fsops.FS
	clock        clock.Clock
	paths        config.Paths
	settings     *config.Settings
	projects     project.Store
	sessions     *session.Registry
	fingerprints *fingerprint.Engine
	builder      envbuild.Builder
	platform     envbuild.Platform
	confirmer    Confirmer
}

// New creates a new Engine with the given dependencies. A nil confirmer
// declines every question.
func New(
	fs fsops.FS,
	hasher fingerprint.Hasher,
	clk clock.Clock,
	paths config.Paths,
	settings *config.Settings,
	builder envbuild.Builder,
	confirmer Confirmer,
) *Engine {
	if settings == nil {
		settings = config.Default()
	}
	layout := fingerprint.Layout{
		Root:           paths.Root,
		EnvironmentDir: paths.EnvironmentDir,
		FilesDir:       paths.FilesDir,
		Excluded:       paths.CodeExclusions(),
		IgnoreFile:     paths.IgnoreFile,
		Ignore:         settings.Code.Ignore,
	}

	return &Engine{
		fs:           fs,
		clock:        clk,
		paths:        paths,
		settings:     settings,
		projects:     project.NewFileStore(fs, paths.ProjectFile),
		sessions:     session.NewRegistry(fs, paths.SessionsFile, clk),
		fingerprints: fingerprint.NewEngine(hasher, layout),
		builder:      builder,
		platform:     envbuild.HostPlatform(),
		confirmer:    confirmer,
	}
}

// Paths returns the resolved workspace paths.
func (e *Engine) Paths() config.Paths {
	return e.paths
}

// Project returns the stored project.
func (e *Engine) Project(ctx context.Context) (*project.Project, error) {
	return e.loadProject()
}

// loadProject loads the project, mapping a missing record to ErrNotInitialized.
func (e *Engine) loadProject() (*project.Project, error) {
	p, err := e.projects.Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNotInitialized, e.paths.Root)
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return p, nil
}

// openLedger opens the snapshot ledger, creating it if needed. The caller
// must close it.
func (e *Engine) openLedger(ctx context.Context) (*ledger.Ledger, error) {
	l, err := ledger.Open(ctx, e.paths.LedgerFile, e.clock)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot ledger: %w", err)
	}
	return l, nil
}

// readLedger opens the snapshot ledger for queries. It returns nil when no
// ledger has been created yet. The caller must close a non-nil ledger.
func (e *Engine) readLedger(ctx context.Context) (*ledger.Ledger, error) {
	l, err := ledger.OpenReadOnly(ctx, e.paths.LedgerFile, e.clock)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot ledger: %w", err)
	}
	return l, nil
}

// ask poses a question through the confirmer. Any failure to obtain an
// answer counts as a decline.
func (e *Engine) ask(question string) bool {
	if e.confirmer == nil {
		return false
	}
	ok, err := e.confirmer.Confirm(question)
	if err != nil {
		log.Debug().Err(err).Str("question", question).Msg("no confirmation obtained")
		return false
	}
	return ok
}
