package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/workbench/internal/clock"
	"github.com/danieljhkim/workbench/internal/config"
	"github.com/danieljhkim/workbench/internal/engine"
	"github.com/danieljhkim/workbench/internal/envbuild"
	"github.com/danieljhkim/workbench/internal/fingerprint"
	"github.com/danieljhkim/workbench/internal/fsops"
	"github.com/danieljhkim/workbench/internal/ledger"
)

var errInjected = errors.New("injected write failure")

// faultyFS wraps the real filesystem and fails atomic writes to selected
// paths while armed.
type faultyFS struct {
	fsops.FS

	mu    sync.Mutex
	fail  map[string]bool
	count map[string]int
}

func newFaultyFS() *faultyFS {
	return &faultyFS{
		FS:    fsops.NewRealFS(),
		fail:  make(map[string]bool),
		count: make(map[string]int),
	}
}

func (fs *faultyFS) failWrites(path string, on bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.fail[path] = on
}

func (fs *faultyFS) writes(path string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.count[path]
}

func (fs *faultyFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	fs.mu.Lock()
	fail := fs.fail[path]
	fs.count[path]++
	fs.mu.Unlock()

	if fail {
		return errInjected
	}
	return fs.FS.AtomicWrite(path, data, perm)
}

// pinnedBuilder renders the real environment definition for a fixed
// platform so results do not depend on the host.
type pinnedBuilder struct {
	inner    envbuild.Builder
	platform envbuild.Platform
}

func (b *pinnedBuilder) Build(ctx context.Context, dir string, _ envbuild.Platform) error {
	return b.inner.Build(ctx, dir, b.platform)
}

type workspace struct {
	root      string
	paths     config.Paths
	fs        *faultyFS
	clock     *clock.FakeClock
	confirmer *engine.ScriptedConfirmer
	engine    *engine.Engine
}

// setupWorkspace wires an engine with real components over a fresh
// directory named "lab". The confirmer answers with the given replies.
func setupWorkspace(t *testing.T, answers ...string) *workspace {
	t.Helper()
	root := filepath.Join(t.TempDir(), "lab")
	require.NoError(t, os.MkdirAll(root, 0755))
	return openWorkspace(t, root, answers...)
}

// openWorkspace builds a fresh engine over an existing directory, the way a
// new process would.
func openWorkspace(t *testing.T, root string, answers ...string) *workspace {
	t.Helper()
	settings, err := config.Load(root)
	require.NoError(t, err)

	paths := config.NewPaths(root, settings.Layout)
	fs := newFaultyFS()
	clk := clock.NewSteppingClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), time.Second)
	builder := &pinnedBuilder{
		inner:    envbuild.NewDockerfileBuilder(fs, settings.Environment.BaseImage, settings.Environment.GPU),
		platform: envbuild.Platform{OS: "linux", Arch: "amd64"},
	}
	confirmer := engine.NewScriptedConfirmer(answers...)

	eng := engine.New(fs, fingerprint.NewSHA256Hasher(), clk, paths, settings, builder, confirmer)
	return &workspace{
		root:      root,
		paths:     paths,
		fs:        fs,
		clock:     clk,
		confirmer: confirmer,
		engine:    eng,
	}
}

func (w *workspace) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(w.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func (w *workspace) remove(t *testing.T, rel string) {
	t.Helper()
	require.NoError(t, os.RemoveAll(filepath.Join(w.root, filepath.FromSlash(rel))))
}

// record appends a snapshot of the workspace's current fingerprints for the
// current session.
func (w *workspace) record(t *testing.T, origin ledger.Origin, msg string) *ledger.Snapshot {
	t.Helper()
	ctx := context.Background()

	status, err := w.engine.Status(ctx)
	require.NoError(t, err)

	l, err := ledger.Open(ctx, w.paths.LedgerFile, w.clock)
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	s := &ledger.Snapshot{
		SessionID:   status.Session.ID,
		Code:        status.Code.Current,
		Environment: status.Environment.Current,
		Files:       status.Files.Current,
		Message:     msg,
		Origin:      origin,
	}
	require.NoError(t, l.Append(ctx, s))
	return s
}
