// Package config manages workbench configuration and filesystem paths.
//
// A workspace root is always an explicit value: it is resolved once by the
// caller (flag, WORKBENCH_HOME, or the current directory) and handed to every
// component. The private state directory .workbench/ under the root holds the
// project record, the session set, the snapshot ledger, and an optional
// config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// StateDirName is the private state directory at the workspace root.
	StateDirName = ".workbench"

	// IgnoreFileName is the code-facet ignore file at the workspace root.
	IgnoreFileName = ".workbenchignore"

	// HomeEnvVar overrides the workspace root when no explicit root is given.
	HomeEnvVar = "WORKBENCH_HOME"
)

// Paths contains all the filesystem paths used for one workspace.
type Paths struct {
	// Root is the workspace root (the project's home path)
	Root string

	// StateDir is the private state directory (<root>/.workbench)
	StateDir string

	// ProjectFile holds the project record
	ProjectFile string

	// SessionsFile holds the session set
	SessionsFile string

	// LedgerFile is the snapshot ledger database
	LedgerFile string

	// ConfigFile is the optional per-workspace settings file
	ConfigFile string

	// IgnoreFile lists patterns excluded from the code facet
	IgnoreFile string

	// EnvironmentDir holds the environment definition
	EnvironmentDir string

	// FilesDir holds staged auxiliary files
	FilesDir string
}

// ResolveRoot determines the workspace root.
// Precedence: explicit value, then WORKBENCH_HOME, then the current directory.
// The result is always absolute.
func ResolveRoot(explicit string) (string, error) {
	root := explicit
	if root == "" {
		root = os.Getenv(HomeEnvVar)
	}
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		root = cwd
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve workspace root %q: %w", root, err)
	}
	return abs, nil
}

// NewPaths builds the path set for root using the directory layout in settings.
func NewPaths(root string, layout LayoutSettings) Paths {
	stateDir := filepath.Join(root, StateDirName)
	return Paths{
		Root:           root,
		StateDir:       stateDir,
		ProjectFile:    filepath.Join(stateDir, "project.yaml"),
		SessionsFile:   filepath.Join(stateDir, "sessions.json"),
		LedgerFile:     filepath.Join(stateDir, "ledger.db"),
		ConfigFile:     filepath.Join(stateDir, "config.yaml"),
		IgnoreFile:     filepath.Join(root, IgnoreFileName),
		EnvironmentDir: filepath.Join(root, layout.EnvironmentDir),
		FilesDir:       filepath.Join(root, layout.FilesDir),
	}
}

// CodeExclusions returns the root-relative, slash-separated directories that
// never belong to the code facet: the private state directory, the
// environment and file-staging directories, and .git.
func (p Paths) CodeExclusions() []string {
	var out []string
	for _, dir := range []string{p.StateDir, p.EnvironmentDir, p.FilesDir, filepath.Join(p.Root, ".git")} {
		rel, err := filepath.Rel(p.Root, dir)
		if err != nil {
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}
