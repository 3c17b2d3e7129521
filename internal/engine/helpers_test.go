package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/workbench/internal/clock"
	"github.com/danieljhkim/workbench/internal/config"
	"github.com/danieljhkim/workbench/internal/envbuild"
	"github.com/danieljhkim/workbench/internal/fingerprint"
	"github.com/danieljhkim/workbench/internal/fsops"
	"github.com/danieljhkim/workbench/internal/ledger"
)

// fakeBuilder records Build calls and writes a marker definition.
type fakeBuilder struct {
	mu    sync.Mutex
	dirs  []string
	err   error
	write bool
}

func (b *fakeBuilder) Build(ctx context.Context, dir string, platform envbuild.Platform) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dirs = append(b.dirs, dir)
	if b.err != nil {
		return b.err
	}
	if b.write {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM test:cpu-py3\n"), 0644)
	}
	return nil
}

func (b *fakeBuilder) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.dirs)
}

type fixture struct {
	engine    *Engine
	root      string
	builder   *fakeBuilder
	confirmer *ScriptedConfirmer
	clock     *clock.FakeClock
}

// newFixture builds an engine over a fresh workspace directory named
// "myproject". The confirmer answers with the given replies.
func newFixture(t *testing.T, answers ...string) *fixture {
	t.Helper()
	root := filepath.Join(t.TempDir(), "myproject")
	require.NoError(t, os.MkdirAll(root, 0755))
	return newFixtureAt(t, root, answers...)
}

func newFixtureAt(t *testing.T, root string, answers ...string) *fixture {
	t.Helper()
	settings := config.Default()
	paths := config.NewPaths(root, settings.Layout)
	clk := clock.NewSteppingClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
	builder := &fakeBuilder{write: true}
	confirmer := NewScriptedConfirmer(answers...)

	eng := New(fsops.NewRealFS(), fingerprint.NewSHA256Hasher(), clk, paths, settings, builder, confirmer)
	eng.platform = envbuild.Platform{OS: "linux", Arch: "amd64"}

	return &fixture{engine: eng, root: root, builder: builder, confirmer: confirmer, clock: clk}
}

func (f *fixture) init(t *testing.T, req *InitRequest) {
	t.Helper()
	_, err := f.engine.Init(context.Background(), req)
	require.NoError(t, err)
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// snapshot records the current fingerprints in the ledger.
func (f *fixture) snapshot(t *testing.T, origin ledger.Origin) *ledger.Snapshot {
	t.Helper()
	ctx := context.Background()
	set, err := f.engine.fingerprints.All()
	require.NoError(t, err)

	l, err := ledger.Open(ctx, f.engine.paths.LedgerFile, f.clock)
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	s := &ledger.Snapshot{
		Code:        set.Code,
		Environment: set.Environment,
		Files:       set.Files,
		Origin:      origin,
	}
	require.NoError(t, l.Append(ctx, s))
	return s
}

func strp(s string) *string { return &s }

func skipEnv() *InitRequest {
	return &InitRequest{SkipEnvironmentSetup: true}
}
