package sequences

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
	"github.com/jusranda/cctsa-wxccdemobot-commons/engine"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	m := newTestModules(t)
	return engine.New(func(o *engine.Options) {
		o.Sequences = m.Sequences
		o.Intents = m.Intents
		o.Cases = m.Cases
	})
}

func TestWelcome_FirstTurnGreetsAndAsksWellbeing(t *testing.T) {
	eng := newTestEngine(t)

	res, err := eng.HandleTurn(context.Background(), core.TurnInput{
		SessionID:       "s1",
		Action:          "input.welcome",
		FulfillmentText: "Hello there!",
	})
	require.NoError(t, err)

	assert.Contains(t, res.FulfillmentText, "Hello there!")
	assert.Contains(t, res.FulfillmentText, "I'm the virtual assistant")
	assert.Contains(t, res.FulfillmentText, "Before we get started, how are you doing today?")
	assert.Equal(t, Welcome, res.CurrentSequence)
}

func TestWelcome_PositiveWellbeingHandsOffToReasonForContact(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.HandleTurn(ctx, core.TurnInput{
		SessionID: "s1", Action: "input.welcome",
	})
	require.NoError(t, err)

	res, err := eng.HandleTurn(ctx, core.TurnInput{
		SessionID:       "s1",
		Action:          "welcome.ask.wellbeing.wellbeing.positive",
		FulfillmentText: "I'm doing great, thanks.",
	})
	require.NoError(t, err)

	assert.Equal(t, "How can I help you today?", res.FulfillmentText)
	assert.Equal(t, Common, res.CurrentSequence)

	sess, err := eng.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{Common}, sess.SequenceStack)
	assert.True(t, sess.TriggeredSkill)
}

func TestWelcome_UnknownInputCourseCorrects(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.HandleTurn(ctx, core.TurnInput{
		SessionID: "s1", Action: "input.welcome",
	})
	require.NoError(t, err)

	res, err := eng.HandleTurn(ctx, core.TurnInput{
		SessionID: "s1", Action: "input.unknown",
	})
	require.NoError(t, err)

	assert.Equal(t, "Sorry, I didn't catch that.  Right now we were greeting each other.",
		res.FulfillmentText)

	sess, err := eng.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, 1, sess.FallbackCounter)
}

func TestReasonForContact_RepeatVisitRephrases(t *testing.T) {
	m := newTestModules(t)
	sess := core.NewSession("s1", Common)
	sess.TriggeredSkill = true
	dc := newTestDialog(t, m, sess)
	dc.InboundText = "What can I help you with?"

	in, ok := m.Intents.Resolve("skill.reasonforcontact", ReasonForContact)
	require.True(t, ok)
	require.NoError(t, in.Handler(dc))

	assert.Equal(t, "What else can I help you with?", sess.LastFulfillmentText)
}

func TestReasonForContact_PrefixesAdvisoryNotice(t *testing.T) {
	m := newTestModules(t)
	sess := core.NewSession("s1", Common)
	sess.AdvisoryNotice = "Your account has an outstanding balance."
	dc := newTestDialog(t, m, sess)
	dc.InboundText = "How can I help you today?"

	in, ok := m.Intents.Resolve("skill.reasonforcontact", ReasonForContact)
	require.True(t, ok)
	require.NoError(t, in.Handler(dc))

	assert.Equal(t,
		"Your account has an outstanding balance.  How can I help you today?",
		sess.LastFulfillmentText)
	assert.True(t, sess.TriggeredSkill)
}
