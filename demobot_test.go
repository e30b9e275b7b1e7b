package demobot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
	"github.com/jusranda/cctsa-wxccdemobot-commons/sequences"
)

func TestNew_RegistersBuiltinFlows(t *testing.T) {
	client, err := New()
	require.NoError(t, err)

	_, err = client.Engine().Sequences().Get(sequences.Welcome)
	assert.NoError(t, err)
	_, err = client.Engine().Sequences().Get(sequences.PasswordReset)
	assert.NoError(t, err)
}

func TestNew_SkipBuiltinFlows(t *testing.T) {
	client, err := New(func(o *Options) { o.SkipBuiltinFlows = true })
	require.NoError(t, err)

	_, err = client.Engine().Sequences().Get(sequences.Welcome)
	assert.Error(t, err)
}

func TestProcessTurn_GreetsWithCompanyName(t *testing.T) {
	client, err := New(func(o *Options) { o.CompanyName = "Journey Cloud Bank" })
	require.NoError(t, err)

	res, err := client.ProcessTurn(context.Background(), core.TurnInput{
		SessionID:       "s1",
		Action:          "input.welcome",
		FulfillmentText: "Hello!",
	})
	require.NoError(t, err)

	assert.Contains(t, res.FulfillmentText, "I'm the virtual assistant for Journey Cloud Bank.")
	assert.Contains(t, res.FulfillmentText, "how are you doing today?")

	sess, err := client.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, "Journey Cloud Bank", sess.CompanyName)
}

func TestProcessTurn_SeedsChannelDefaults(t *testing.T) {
	client, err := New()
	require.NoError(t, err)

	_, err = client.ProcessTurn(context.Background(), core.TurnInput{
		SessionID: "s1",
		Action:    "input.welcome",
		Channel:   core.ChannelInfo{Channel: "phone", CallingNumber: "+14165551234"},
	})
	require.NoError(t, err)

	sess, err := client.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, "sms", sess.SecondChannel)
	assert.Equal(t, "+14165551234", sess.SmsNumber)
	assert.Equal(t, "+14165551234", sess.IdentityAlias)
}

func TestRegisterSequence_CustomFlow(t *testing.T) {
	client, err := New(func(o *Options) {
		o.SkipBuiltinFlows = true
		o.EngineConfig.InitialSequences = []string{"faq"}
	})
	require.NoError(t, err)

	require.NoError(t, client.RegisterSequence(&core.Sequence{
		Name:       "faq",
		NewContext: func() core.Context { return &struct{}{} },
		Navigate: func(dc *core.DialogContext) core.Action {
			return core.RespondWithText("")
		},
	}))
	require.NoError(t, client.RegisterIntent(&core.Intent{
		Action:       "faq.hours",
		SequenceName: "faq",
		Handler: func(dc *core.DialogContext) error {
			dc.SetFulfillmentText("We're open 9 to 5, Monday through Friday.")
			return nil
		},
	}))

	res, err := client.ProcessTurn(context.Background(), core.TurnInput{
		SessionID: "s1", Action: "faq.hours",
	})
	require.NoError(t, err)
	assert.Equal(t, "We're open 9 to 5, Monday through Friday.", res.FulfillmentText)
}
