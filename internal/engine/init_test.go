package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/workbench/internal/session"
)

func TestInit_CreatesProject(t *testing.T) {
	f := newFixture(t)

	p, err := f.engine.Init(context.Background(), skipEnv())
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "myproject", p.Name)
	assert.Empty(t, p.Description)
	assert.Equal(t, f.root, p.HomePath)

	paths := f.engine.Paths()
	for _, path := range []string{paths.StateDir, paths.ProjectFile, paths.SessionsFile, paths.LedgerFile, paths.IgnoreFile} {
		_, err := os.Stat(path)
		assert.NoError(t, err, "expected %s to exist", path)
	}

	sessions, err := f.engine.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, session.DefaultName, sessions[0].Name)
	assert.True(t, sessions[0].Current)
}

func TestInit_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := &InitRequest{Name: strp("foobar"), Description: strp("test model"), SkipEnvironmentSetup: true}

	first, err := f.engine.Init(ctx, req)
	require.NoError(t, err)
	second, err := f.engine.Init(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, first.Description, second.Description)
	assert.True(t, first.UpdatedAt.Equal(second.UpdatedAt), "unchanged fields must not refresh updatedAt")

	sessions, err := f.engine.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1, "re-initialization must not duplicate the default session")
}

func TestInit_PartialUpdate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		update   *InitRequest
		wantName string
		wantDesc string
	}{
		{"empty name keeps name", &InitRequest{Name: strp("")}, "foobar", "test model"},
		{"absent fields keep both", &InitRequest{}, "foobar", "test model"},
		{"new name keeps description", &InitRequest{Name: strp("foobar2"), Description: strp("")}, "foobar2", "test model"},
		{"new description keeps name", &InitRequest{Description: strp("another")}, "foobar", "another"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			original, err := f.engine.Init(ctx, &InitRequest{Name: strp("foobar"), Description: strp("test model"), SkipEnvironmentSetup: true})
			require.NoError(t, err)

			tt.update.SkipEnvironmentSetup = true
			updated, err := f.engine.Init(ctx, tt.update)
			require.NoError(t, err)

			assert.Equal(t, original.ID, updated.ID)
			assert.Equal(t, tt.wantName, updated.Name)
			assert.Equal(t, tt.wantDesc, updated.Description)
			assert.True(t, original.CreatedAt.Equal(updated.CreatedAt))

			stored, err := f.engine.Project(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, stored.Name)
			assert.Equal(t, tt.wantDesc, stored.Description)
		})
	}
}

func TestInit_UpdatedAtRefreshOnChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.engine.Init(ctx, &InitRequest{Name: strp("foobar"), SkipEnvironmentSetup: true})
	require.NoError(t, err)
	second, err := f.engine.Init(ctx, &InitRequest{Name: strp("renamed"), SkipEnvironmentSetup: true})
	require.NoError(t, err)

	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestInit_UnwritableRoot(t *testing.T) {
	t.Run("root is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "not-a-dir")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
		f := newFixtureAt(t, file)

		_, err := f.engine.Init(context.Background(), skipEnv())
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("root is missing", func(t *testing.T) {
		f := newFixtureAt(t, filepath.Join(t.TempDir(), "missing"))

		_, err := f.engine.Init(context.Background(), skipEnv())
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("read-only root", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("permission checks do not apply to root")
		}
		root := filepath.Join(t.TempDir(), "ro")
		require.NoError(t, os.MkdirAll(root, 0555))
		f := newFixtureAt(t, root)

		_, err := f.engine.Init(context.Background(), skipEnv())
		assert.ErrorIs(t, err, ErrConfiguration)

		_, statErr := os.Stat(f.engine.Paths().StateDir)
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestInit_Environment(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted", func(t *testing.T) {
		f := newFixture(t, "y")
		f.init(t, &InitRequest{})

		assert.Equal(t, []string{EnvironmentQuestion}, f.confirmer.Asked())
		require.Equal(t, 1, f.builder.calls())
		assert.Equal(t, f.engine.Paths().EnvironmentDir, f.builder.dirs[0])

		status, err := f.engine.Status(ctx)
		require.NoError(t, err)
		assert.True(t, status.Environment.Unstaged)
	})

	t.Run("declined", func(t *testing.T) {
		f := newFixture(t, "n")
		f.init(t, &InitRequest{})

		assert.Equal(t, 0, f.builder.calls())
		_, err := os.Stat(f.engine.Paths().EnvironmentDir)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("blank answer declines", func(t *testing.T) {
		f := newFixture(t, "")
		f.init(t, &InitRequest{})
		assert.Equal(t, 0, f.builder.calls())
	})

	t.Run("no answer obtained", func(t *testing.T) {
		f := newFixture(t)
		f.init(t, &InitRequest{})

		assert.Len(t, f.confirmer.Asked(), 1)
		assert.Equal(t, 0, f.builder.calls())
	})

	t.Run("skipped", func(t *testing.T) {
		f := newFixture(t, "y")
		f.init(t, skipEnv())

		assert.Empty(t, f.confirmer.Asked())
		assert.Equal(t, 0, f.builder.calls())
	})

	t.Run("existing definition is not replaced", func(t *testing.T) {
		f := newFixture(t, "y", "y")
		f.init(t, &InitRequest{})
		f.init(t, &InitRequest{})

		assert.Len(t, f.confirmer.Asked(), 1)
		assert.Equal(t, 1, f.builder.calls())
	})

	t.Run("builder failure is surfaced", func(t *testing.T) {
		f := newFixture(t, "y")
		f.builder.err = errors.New("image pull failed")

		_, err := f.engine.Init(ctx, &InitRequest{})
		assert.ErrorIs(t, err, ErrEnvironmentBuild)
		assert.Contains(t, err.Error(), "image pull failed")
	})

	t.Run("nil confirmer declines", func(t *testing.T) {
		f := newFixture(t)
		f.engine.confirmer = nil
		f.init(t, &InitRequest{})
		assert.Equal(t, 0, f.builder.calls())
	})
}

func TestInit_KeepsExistingIgnoreFile(t *testing.T) {
	f := newFixture(t)
	f.write(t, ".workbenchignore", "custom/**\n")
	f.init(t, skipEnv())

	data, err := os.ReadFile(f.engine.Paths().IgnoreFile)
	require.NoError(t, err)
	assert.Equal(t, "custom/**\n", string(data))
}

func TestParseInitArgs(t *testing.T) {
	t.Run("recognized", func(t *testing.T) {
		req, err := ParseInitArgs(map[string]string{
			"name":                 "foobar",
			"description":          "",
			"skipEnvironmentSetup": "true",
		})
		require.NoError(t, err)
		require.NotNil(t, req.Name)
		assert.Equal(t, "foobar", *req.Name)
		require.NotNil(t, req.Description)
		assert.Equal(t, "", *req.Description)
		assert.True(t, req.SkipEnvironmentSetup)
	})

	t.Run("empty", func(t *testing.T) {
		req, err := ParseInitArgs(nil)
		require.NoError(t, err)
		assert.Nil(t, req.Name)
		assert.Nil(t, req.Description)
		assert.False(t, req.SkipEnvironmentSetup)
	})

	t.Run("unrecognized", func(t *testing.T) {
		_, err := ParseInitArgs(map[string]string{"name": "x", "owner": "me", "color": "red"})
		require.ErrorIs(t, err, ErrUnrecognizedArgument)
		assert.Contains(t, err.Error(), "color, owner")
	})

	t.Run("bad boolean", func(t *testing.T) {
		_, err := ParseInitArgs(map[string]string{"skipEnvironmentSetup": "maybe"})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestParseInitArgs_NoPartialEffect(t *testing.T) {
	f := newFixture(t)
	_, err := ParseInitArgs(map[string]string{"foobar": "1"})
	require.ErrorIs(t, err, ErrUnrecognizedArgument)

	_, statErr := os.Stat(f.engine.Paths().StateDir)
	assert.True(t, os.IsNotExist(statErr))
}
