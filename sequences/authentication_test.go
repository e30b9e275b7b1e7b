package sequences

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
	"github.com/jusranda/cctsa-wxccdemobot-commons/internal/testutil"
)

func authNavigate(t *testing.T, m Modules, dc *core.DialogContext) core.Action {
	t.Helper()
	seq, err := m.Sequences.Get(Authentication)
	require.NoError(t, err)
	return seq.Navigate(dc)
}

func TestNavigateAuthentication_AdvisesFirst(t *testing.T) {
	m := newTestModules(t)
	sess := core.NewSession("s1", Common, Authentication)
	dc := newTestDialog(t, m, sess)

	assert.Equal(t, "AuthRequired", authNavigate(t, m, dc).Event)
}

func TestNavigateAuthentication_AsksForAccountNumber(t *testing.T) {
	m := newTestModules(t)
	sess := core.NewSession("s1", Common, Authentication)
	dc := newTestDialog(t, m, sess)

	c, err := authState(dc)
	require.NoError(t, err)
	c.AdvisedAuthRequired = true

	assert.Equal(t, "AuthGetAccount", authNavigate(t, m, dc).Event)

	c.ReceivedAccountNumber = "123456"
	c.AccountNumberNotFound = true
	assert.Equal(t, "AuthInvalidAccount", authNavigate(t, m, dc).Event)
}

func TestNavigateAuthentication_PasscodeExchange(t *testing.T) {
	m := newTestModules(t)
	sess := testutil.NewSessionBuilder("s1").
		Stack(Common, Authentication).
		Identified("Anita", "Nichols", "123456").
		Build()
	dc := newTestDialog(t, m, sess)

	c, err := authState(dc)
	require.NoError(t, err)
	c.AdvisedAuthRequired = true

	assert.Equal(t, "AuthSendOtp", authNavigate(t, m, dc).Event)

	c.ValidationReceived = true
	c.ValidationStatus = validationSuccess
	assert.Equal(t, "AuthOtpSuccess", authNavigate(t, m, dc).Event)

	c.ValidationStatus = validationFailure
	assert.Equal(t, "AuthOtpFailure", authNavigate(t, m, dc).Event)
}

func TestNavigateAuthentication_SuccessPopsBackToCaller(t *testing.T) {
	m := newTestModules(t)
	sess := core.NewSession("s1", Common, PasswordReset, Authentication)
	sess.CustomerIdentified = true
	sess.CustomerValidated = true
	dc := newTestDialog(t, m, sess)

	c, err := authState(dc)
	require.NoError(t, err)
	c.AdvisedAuthRequired = true
	c.ValidationComplete = true
	c.ValidationStatus = validationSuccess

	act := authNavigate(t, m, dc)
	assert.Equal(t, core.ActionContinue, act.Kind)
	assert.Equal(t, PasswordReset, sess.CurrentSequence())
}

func TestNavigateAuthentication_FailureOffersAgent(t *testing.T) {
	m := newTestModules(t)
	sess := core.NewSession("s1", Common, Authentication)
	sess.CustomerIdentified = true
	dc := newTestDialog(t, m, sess)

	c, err := authState(dc)
	require.NoError(t, err)
	c.AdvisedAuthRequired = true
	c.ValidationComplete = true
	c.ValidationStatus = validationFailure

	assert.Equal(t, "OfferSpeakToAgent", authNavigate(t, m, dc).Event)

	sess.OfferedAgent = true
	sess.OfferedAgentAccepted = true
	assert.Equal(t, "EscalateToAgent", authNavigate(t, m, dc).Event)
}

func TestAuthOtpIntent_ComparesPasscodes(t *testing.T) {
	m := newTestModules(t)
	sess := core.NewSession("s1", Common, Authentication)
	dc := newTestDialog(t, m, sess)

	c, err := authState(dc)
	require.NoError(t, err)
	c.GeneratedOtp = "482913"

	in, ok := m.Intents.Resolve("auth.sendotp.otp", Authentication)
	require.True(t, ok)

	dc.Slots["otp"] = "482913"
	require.NoError(t, in.Handler(dc))
	assert.True(t, c.ValidationReceived)
	assert.Equal(t, validationSuccess, c.ValidationStatus)
	assert.Equal(t, "otp", c.ValidatedBy)

	c.ValidationReceived = false
	dc.Slots["otp"] = "000000"
	require.NoError(t, in.Handler(dc))
	assert.Equal(t, validationFailure, c.ValidationStatus)
}
