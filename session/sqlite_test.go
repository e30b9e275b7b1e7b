package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
)

// Interface compliance (compile-time assertion)
var _ core.SessionStore = (*SQLiteStore)(nil)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_SessionRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)

	sess, err := store.GetOrCreate("s1", func(id string) *core.Session {
		return core.NewSession(id, "common", "welcome")
	})
	require.NoError(t, err)

	sess.CustomerIdentified = true
	sess.CustomerAccountID = "10012345"
	sess.PushSequence("authentication")
	require.NoError(t, store.Save(sess))

	loaded, err := store.GetOrCreate("s1", func(id string) *core.Session {
		t.Fatal("seed must not run for a saved session")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, loaded.CustomerIdentified)
	assert.Equal(t, "10012345", loaded.CustomerAccountID)
	assert.Equal(t, []string{"common", "welcome", "authentication"}, loaded.SequenceStack)
}

func TestSQLiteStore_GetUnknownID(t *testing.T) {
	store := newTestSQLiteStore(t)

	_, err := store.Get("missing")
	require.ErrorIs(t, err, core.ErrSessionNotFound)

	require.NoError(t, store.Save(core.NewSession("s1", "common")))
	sess, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)
}

func TestSQLiteStore_ContextRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	contexts := store.Contexts()
	seq := testSequence()

	c, err := contexts.GetOrCreate("s1", seq)
	require.NoError(t, err)
	assert.False(t, c.(*greetState).SaidIntro)

	require.NoError(t, contexts.Save("s1", seq.Name, &greetState{SaidIntro: true}))

	reloaded, err := contexts.GetOrCreate("s1", seq)
	require.NoError(t, err)
	assert.True(t, reloaded.(*greetState).SaidIntro)

	require.NoError(t, contexts.Delete("s1", seq.Name))
	fresh, err := contexts.GetOrCreate("s1", seq)
	require.NoError(t, err)
	assert.False(t, fresh.(*greetState).SaidIntro)
}

func TestSQLiteStore_DeleteRemovesDerivedState(t *testing.T) {
	store := newTestSQLiteStore(t)
	seq := testSequence()

	_, err := store.GetOrCreate("s1", func(id string) *core.Session {
		return core.NewSession(id, "common")
	})
	require.NoError(t, err)
	require.NoError(t, store.SaveContext("s1", seq.Name, &greetState{SaidIntro: true}))

	require.NoError(t, store.Delete("s1"))

	c, err := store.GetOrCreateContext("s1", seq)
	require.NoError(t, err)
	assert.False(t, c.(*greetState).SaidIntro)
}
