package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/workbench/internal/config"
	"github.com/danieljhkim/workbench/internal/engine"
	"github.com/danieljhkim/workbench/internal/session"
)

func newWorkspace(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "experiment")
	require.NoError(t, os.MkdirAll(root, 0755))
	return root
}

func initWorkspace(t *testing.T, root string) {
	t.Helper()
	_, _, err := execute(t, "", "init", "--home", root, "--skip-env")
	require.NoError(t, err)
}

func TestInitCommand(t *testing.T) {
	root := newWorkspace(t)

	out, _, err := execute(t, "", "init", "--home", root, "--skip-env", "--description", "first try")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized project experiment")
	assert.Contains(t, out, "first try")

	assert.DirExists(t, filepath.Join(root, config.StateDirName))
	assert.FileExists(t, filepath.Join(root, config.IgnoreFileName))

	out, _, err = execute(t, "", "init", "--home", root, "--skip-env", "--name", "renamed")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated project renamed")
}

func TestInitCommand_JSON(t *testing.T) {
	root := newWorkspace(t)

	out, _, err := execute(t, "", "init", "--home", root, "--skip-env", "--json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "experiment", got["name"])
	assert.NotEmpty(t, got["id"])
}

func TestInitCommand_JSONWithPrompt(t *testing.T) {
	root := newWorkspace(t)

	out, errOut, err := execute(t, "y\n", "init", "--home", root, "--json")
	require.NoError(t, err)
	assert.Contains(t, errOut, engine.EnvironmentQuestion)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got), "stdout must hold only the JSON document")
	assert.Equal(t, "experiment", got["name"])
}

func TestCleanupCommand_PromptOnStderr(t *testing.T) {
	root := newWorkspace(t)
	initWorkspace(t, root)

	out, errOut, err := execute(t, "y\n", "cleanup", "--home", root, "--json")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Remove all workbench state")

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, true, got["removed"])
}

func TestInitCommand_EnvironmentPrompt(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		root := newWorkspace(t)
		out, errOut, err := execute(t, "y\n", "init", "--home", root)
		require.NoError(t, err)
		assert.Contains(t, errOut, engine.EnvironmentQuestion)
		assert.NotContains(t, out, engine.EnvironmentQuestion)
		assert.FileExists(t, filepath.Join(root, "workbench_environment", "Dockerfile"))
	})

	t.Run("declined", func(t *testing.T) {
		root := newWorkspace(t)
		_, _, err := execute(t, "n\n", "init", "--home", root)
		require.NoError(t, err)
		assert.NoDirExists(t, filepath.Join(root, "workbench_environment"))
	})

	t.Run("no answer", func(t *testing.T) {
		root := newWorkspace(t)
		_, _, err := execute(t, "", "init", "--home", root)
		require.NoError(t, err)
		assert.NoDirExists(t, filepath.Join(root, "workbench_environment"))
	})
}

func TestStatusCommand(t *testing.T) {
	root := newWorkspace(t)

	_, _, err := execute(t, "", "status", "--home", root)
	assert.ErrorIs(t, err, engine.ErrNotInitialized)

	initWorkspace(t, root)
	out, _, err := execute(t, "", "status", "--home", root)
	require.NoError(t, err)
	assert.Contains(t, out, "experiment")
	assert.Contains(t, out, session.DefaultName)
	assert.Contains(t, out, "unstaged")
	assert.Contains(t, out, "none")
	assert.Contains(t, out, "Unstaged facets:")
	assert.Contains(t, out, "• code")
	assert.NotContains(t, out, "• files")
}

func TestStatusCommand_JSON(t *testing.T) {
	root := newWorkspace(t)
	initWorkspace(t, root)

	out, _, err := execute(t, "", "status", "--home", root, "--json")
	require.NoError(t, err)

	var got engine.StatusResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Code.Unstaged, "ignore file makes the code facet non-empty")
	assert.False(t, got.Environment.Unstaged)
	assert.False(t, got.Files.Unstaged)
	assert.Nil(t, got.Latest)
	assert.Equal(t, session.DefaultName, got.Session.Name)
}

func TestCleanupCommand(t *testing.T) {
	t.Run("confirmed with flag", func(t *testing.T) {
		root := newWorkspace(t)
		initWorkspace(t, root)

		out, _, err := execute(t, "", "cleanup", "--home", root, "--yes")
		require.NoError(t, err)
		assert.Contains(t, out, "Removed workbench state")
		assert.NoDirExists(t, filepath.Join(root, config.StateDirName))
		assert.NoFileExists(t, filepath.Join(root, config.IgnoreFileName))
	})

	t.Run("confirmed at prompt", func(t *testing.T) {
		root := newWorkspace(t)
		initWorkspace(t, root)

		_, _, err := execute(t, "yes\n", "cleanup", "--home", root)
		require.NoError(t, err)
		assert.NoDirExists(t, filepath.Join(root, config.StateDirName))
	})

	t.Run("declined at prompt", func(t *testing.T) {
		root := newWorkspace(t)
		initWorkspace(t, root)

		out, _, err := execute(t, "n\n", "cleanup", "--home", root)
		require.NoError(t, err)
		assert.Contains(t, out, "cancelled")
		assert.DirExists(t, filepath.Join(root, config.StateDirName))
	})

	t.Run("nothing to remove", func(t *testing.T) {
		root := newWorkspace(t)
		out, _, err := execute(t, "", "cleanup", "--home", root, "--yes")
		require.NoError(t, err)
		assert.Contains(t, out, "nothing to remove")
	})
}

func TestSessionCommands(t *testing.T) {
	root := newWorkspace(t)
	initWorkspace(t, root)

	out, _, err := execute(t, "", "session", "create", "tuning", "--home", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Created session tuning")

	_, _, err = execute(t, "", "session", "create", "--name", "tuning", "--home", root)
	assert.ErrorIs(t, err, engine.ErrDuplicateName)

	_, _, err = execute(t, "", "session", "select", "tuning", "--home", root)
	require.NoError(t, err)

	_, _, err = execute(t, "", "session", "select", "missing", "--home", root)
	assert.ErrorIs(t, err, engine.ErrNotFound)

	out, _, err = execute(t, "", "session", "ls", "--home", root, "--json")
	require.NoError(t, err)
	var sessions []session.Session
	require.NoError(t, json.Unmarshal([]byte(out), &sessions))
	require.Len(t, sessions, 2)
	assert.Equal(t, session.DefaultName, sessions[0].Name)
	assert.Equal(t, "tuning", sessions[1].Name)
	assert.True(t, sessions[1].Current)

	tuningID := sessions[1].ID
	out, _, err = execute(t, "", "session", "update", tuningID, "--name", "sweep", "--description", "lr sweep", "--home", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Updated session sweep")

	out, _, err = execute(t, "", "session", "update", sessions[0].ID, "--name", "other", "--home", root)
	require.NoError(t, err)
	assert.Contains(t, out, "was not updated")

	out, _, err = execute(t, "", "session", "delete", session.DefaultName, "--home", root)
	require.NoError(t, err)
	assert.Contains(t, out, "was not deleted")

	out, _, err = execute(t, "", "session", "delete", "sweep", "--home", root)
	require.NoError(t, err)
	assert.Contains(t, out, "was not deleted", "current session is protected")

	_, _, err = execute(t, "", "session", "select", session.DefaultName, "--home", root)
	require.NoError(t, err)
	out, _, err = execute(t, "", "session", "delete", "sweep", "--home", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted session sweep")

	out, _, err = execute(t, "", "session", "ls", "--home", root, "--format", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "*,default,")
}

func TestSessionListCommand_Download(t *testing.T) {
	root := newWorkspace(t)
	initWorkspace(t, root)

	target := filepath.Join(t.TempDir(), "out", "sessions.csv")
	out, _, err := execute(t, "", "session", "ls", "--home", root, "--format", "csv", "--download-path", target)
	require.NoError(t, err)
	assert.Contains(t, out, "1 session")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), session.DefaultName)

	_, _, err = execute(t, "", "session", "ls", "--home", root, "--download")
	require.NoError(t, err)
	matches, err := filepath.Glob(filepath.Join(root, "session_ls_*.txt"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestSessionListCommand_UnknownFormat(t *testing.T) {
	root := newWorkspace(t)
	initWorkspace(t, root)

	_, _, err := execute(t, "", "session", "ls", "--home", root, "--format", "xml")
	assert.Error(t, err)
}

func TestSnapshotListCommand(t *testing.T) {
	root := newWorkspace(t)
	initWorkspace(t, root)

	out, _, err := execute(t, "", "snapshot", "ls", "--home", root)
	require.NoError(t, err)
	assert.Contains(t, out, "No snapshots recorded")

	out, _, err = execute(t, "", "snapshot", "ls", "--home", root, "--all", "--json")
	require.NoError(t, err)
	assert.Equal(t, "null", strings.TrimSpace(out))

	_, _, err = execute(t, "", "snapshot", "ls", "--home", root, "--session", "missing")
	assert.ErrorIs(t, err, engine.ErrNotFound)

	_, _, err = execute(t, "", "snapshot", "ls", "--home", root, "--all", "--session", session.DefaultName)
	assert.Error(t, err)
}
