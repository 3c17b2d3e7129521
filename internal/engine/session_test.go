package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/workbench/internal/session"
)

func currentSessions(t *testing.T, e *Engine) []string {
	t.Helper()
	sessions, err := e.ListSessions(context.Background())
	require.NoError(t, err)
	var names []string
	for _, s := range sessions {
		if s.Current {
			names = append(names, s.Name)
		}
	}
	return names
}

func TestSessions_NotInitialized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.CreateSession(ctx, "pizza")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = f.engine.SelectSession(ctx, "pizza")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = f.engine.ListSessions(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = f.engine.CurrentSession(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = f.engine.UpdateSession(ctx, "id", session.Update{})
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = f.engine.DeleteSession(ctx, "pizza")
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestSessions_SelectScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.init(t, skipEnv())

	_, err := f.engine.CreateSession(ctx, "pizza")
	require.NoError(t, err)
	assert.Equal(t, []string{session.DefaultName}, currentSessions(t, f.engine))

	_, err = f.engine.SelectSession(ctx, "pizza")
	require.NoError(t, err)
	assert.Equal(t, []string{"pizza"}, currentSessions(t, f.engine))

	_, err = f.engine.SelectSession(ctx, session.DefaultName)
	require.NoError(t, err)
	assert.Equal(t, []string{session.DefaultName}, currentSessions(t, f.engine))

	cur, err := f.engine.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.DefaultName, cur.Name)
}

func TestSessions_DeleteScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.init(t, skipEnv())

	_, err := f.engine.CreateSession(ctx, "pizza")
	require.NoError(t, err)
	_, err = f.engine.SelectSession(ctx, "pizza")
	require.NoError(t, err)

	ok, err := f.engine.DeleteSession(ctx, "pizza")
	require.NoError(t, err)
	assert.False(t, ok, "the current session cannot be deleted")

	_, err = f.engine.SelectSession(ctx, session.DefaultName)
	require.NoError(t, err)

	ok, err = f.engine.DeleteSession(ctx, "pizza")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.engine.DeleteSession(ctx, session.DefaultName)
	require.NoError(t, err)
	assert.False(t, ok)

	sessions, err := f.engine.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, session.DefaultName, sessions[0].Name)
}

func TestSessions_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.init(t, skipEnv())

	_, err := f.engine.CreateSession(ctx, "pizza")
	require.NoError(t, err)

	_, err = f.engine.CreateSession(ctx, "pizza")
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = f.engine.SelectSession(ctx, "random")
	assert.ErrorIs(t, err, ErrNotFound)

	s, err := f.engine.UpdateSession(ctx, "random", session.Update{Name: strp("x")})
	require.NoError(t, err)
	assert.Nil(t, s)

	ok, err := f.engine.DeleteSession(ctx, "random")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessions_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.init(t, skipEnv())

	created, err := f.engine.CreateSession(ctx, "pizza")
	require.NoError(t, err)

	s, err := f.engine.UpdateSession(ctx, created.ID, session.Update{})
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "pizza", s.Name)

	s, err = f.engine.UpdateSession(ctx, created.ID, session.Update{Name: strp("pasta"), Description: strp("carbonara")})
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, created.ID, s.ID)
	assert.Equal(t, "pasta", s.Name)
	assert.Equal(t, "carbonara", s.Description)

	s, err = f.engine.UpdateSession(ctx, created.ID, session.Update{Name: strp("")})
	require.NoError(t, err)
	assert.Equal(t, "pasta", s.Name)
	assert.Equal(t, "carbonara", s.Description)
}

func TestSessions_ReinitKeepsSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.init(t, skipEnv())

	_, err := f.engine.CreateSession(ctx, "pizza")
	require.NoError(t, err)
	_, err = f.engine.SelectSession(ctx, "pizza")
	require.NoError(t, err)

	f.init(t, skipEnv())
	assert.Equal(t, []string{"pizza"}, currentSessions(t, f.engine))
}

func TestSessions_Get(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.init(t, skipEnv())

	pizza, err := f.engine.CreateSession(ctx, "pizza")
	require.NoError(t, err)

	current, err := f.engine.GetSession(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, session.DefaultName, current.Name)

	byName, err := f.engine.GetSession(ctx, "pizza")
	require.NoError(t, err)
	assert.Equal(t, pizza.ID, byName.ID)

	byID, err := f.engine.GetSession(ctx, pizza.ID)
	require.NoError(t, err)
	assert.Equal(t, "pizza", byID.Name)

	_, err = f.engine.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
