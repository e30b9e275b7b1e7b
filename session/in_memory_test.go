package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
)

// Interface compliance (compile-time assertion)
var (
	_ core.SessionStore = (*InMemoryStore)(nil)
	_ core.ContextStore = (*InMemoryContextStore)(nil)
)

func TestInMemoryStore_GetOrCreateSeedsOnce(t *testing.T) {
	store := NewInMemoryStore()

	seeded := 0
	seed := func(id string) *core.Session {
		seeded++
		return core.NewSession(id, "common", "welcome")
	}

	first, err := store.GetOrCreate("s1", seed)
	require.NoError(t, err)
	assert.Equal(t, []string{"common", "welcome"}, first.SequenceStack)

	second, err := store.GetOrCreate("s1", seed)
	require.NoError(t, err)
	assert.Equal(t, 1, seeded)
	assert.Equal(t, first.ID, second.ID)
}

func TestInMemoryStore_ReturnsClones(t *testing.T) {
	store := NewInMemoryStore()
	seed := func(id string) *core.Session { return core.NewSession(id, "common") }

	sess, err := store.GetOrCreate("s1", seed)
	require.NoError(t, err)

	// Mutating the returned copy must not affect stored state.
	sess.PushSequence("welcome")
	sess.HelpCounter = 99

	again, err := store.GetOrCreate("s1", seed)
	require.NoError(t, err)
	assert.Equal(t, []string{"common"}, again.SequenceStack)
	assert.Equal(t, 0, again.HelpCounter)
}

func TestInMemoryStore_GetUnknownID(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get("missing")
	require.ErrorIs(t, err, core.ErrSessionNotFound)

	require.NoError(t, store.Save(core.NewSession("s1", "common")))
	sess, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)
}

func TestInMemoryStore_SaveAndDelete(t *testing.T) {
	store := NewInMemoryStore()

	sess := core.NewSession("s1", "common")
	sess.CustomerFirstName = "Maria"
	require.NoError(t, store.Save(sess))

	loaded, err := store.GetOrCreate("s1", func(id string) *core.Session {
		t.Fatal("seed must not run for a saved session")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria", loaded.CustomerFirstName)

	require.NoError(t, store.Delete("s1"))
	reseeded, err := store.GetOrCreate("s1", func(id string) *core.Session {
		return core.NewSession(id, "common")
	})
	require.NoError(t, err)
	assert.Empty(t, reseeded.CustomerFirstName)
}

type greetState struct {
	SaidIntro bool `json:"saidIntro"`
}

func testSequence() *core.Sequence {
	return &core.Sequence{
		Name:       "greet",
		NewContext: func() core.Context { return &greetState{} },
		Navigate:   func(dc *core.DialogContext) core.Action { return core.RespondWithText("") },
	}
}

func TestInMemoryContextStore_RoundTrip(t *testing.T) {
	store := NewInMemoryContextStore()
	seq := testSequence()

	c, err := store.GetOrCreate("s1", seq)
	require.NoError(t, err)
	state := c.(*greetState)
	assert.False(t, state.SaidIntro)

	state.SaidIntro = true
	require.NoError(t, store.Save("s1", seq.Name, state))

	reloaded, err := store.GetOrCreate("s1", seq)
	require.NoError(t, err)
	assert.True(t, reloaded.(*greetState).SaidIntro)

	// A reload must be isolated from later mutations of the saved value.
	reloaded.(*greetState).SaidIntro = false
	again, err := store.GetOrCreate("s1", seq)
	require.NoError(t, err)
	assert.True(t, again.(*greetState).SaidIntro)
}

func TestInMemoryContextStore_DeleteResets(t *testing.T) {
	store := NewInMemoryContextStore()
	seq := testSequence()

	require.NoError(t, store.Save("s1", seq.Name, &greetState{SaidIntro: true}))
	require.NoError(t, store.Delete("s1", seq.Name))

	c, err := store.GetOrCreate("s1", seq)
	require.NoError(t, err)
	assert.False(t, c.(*greetState).SaidIntro)
}
