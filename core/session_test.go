package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_StackNeverEmpties(t *testing.T) {
	sess := NewSession("s1", "common")

	err := sess.PopSequence("common")
	require.ErrorIs(t, err, ErrSequenceStackEmpty)
	assert.Equal(t, "common", sess.CurrentSequence())
}

func TestSession_PopRejectsMismatch(t *testing.T) {
	sess := NewSession("s1", "common", "welcome")

	err := sess.PopSequence("common")
	require.ErrorIs(t, err, ErrSequenceStackMismatch)
	assert.Equal(t, []string{"common", "welcome"}, sess.SequenceStack)

	require.NoError(t, sess.PopSequence("welcome"))
	assert.Equal(t, "common", sess.CurrentSequence())
}

func TestSession_PushMakesCurrent(t *testing.T) {
	sess := NewSession("s1", "common")
	sess.PushSequence("authentication")

	assert.Equal(t, "authentication", sess.CurrentSequence())
	assert.True(t, sess.StackContains("common"))
	assert.True(t, sess.StackContains("authentication"))
	assert.False(t, sess.StackContains("welcome"))
}

func TestSession_CloneIsolatesStack(t *testing.T) {
	sess := NewSession("s1", "common", "welcome")
	sess.CustomerFirstName = "Anita"

	clone := sess.Clone()
	clone.PushSequence("authentication")
	clone.CustomerFirstName = "Marco"

	assert.Equal(t, []string{"common", "welcome"}, sess.SequenceStack)
	assert.Equal(t, "Anita", sess.CustomerFirstName)
}

func TestSession_ResetOfferedAgentFlags(t *testing.T) {
	sess := NewSession("s1", "common")
	sess.OfferedAgent = true
	sess.OfferedAgentAccepted = true
	sess.OfferedAgentDeclined = true

	sess.ResetOfferedAgentFlags()

	assert.False(t, sess.OfferedAgent)
	assert.False(t, sess.OfferedAgentAccepted)
	assert.False(t, sess.OfferedAgentDeclined)
}
