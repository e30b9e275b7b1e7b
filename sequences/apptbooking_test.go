package sequences

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
)

func apptNavigate(t *testing.T, m Modules, dc *core.DialogContext) core.Action {
	t.Helper()
	seq, err := m.Sequences.Get(ApptBooking)
	require.NoError(t, err)
	return seq.Navigate(dc)
}

func TestNavigateApptBooking_OffersRebookFirst(t *testing.T) {
	m := newTestModules(t)
	sess := core.NewSession("s1", Common, ApptBooking)
	dc := newTestDialog(t, m, sess)

	assert.Equal(t, "RfcConfirmAppointmentRebook", apptNavigate(t, m, dc).Event)
}

func TestNavigateApptBooking_ConfirmedEscalates(t *testing.T) {
	m := newTestModules(t)
	sess := core.NewSession("s1", Common, ApptBooking)
	dc := newTestDialog(t, m, sess)

	c, err := apptState(dc)
	require.NoError(t, err)
	c.RebookReceived = true
	c.RebookConfirmed = true

	assert.Equal(t, "EscalateToAgent", apptNavigate(t, m, dc).Event)
}

func TestApptBookingDecline_PopsAndDiscardsFlowState(t *testing.T) {
	m := newTestModules(t)
	sess := core.NewSession("s1", Common, ApptBooking)
	dc := newTestDialog(t, m, sess)

	in, ok := m.Intents.Resolve("skill.appointment.rebook.rfc.confirm.confirmation.no", ApptBooking)
	require.True(t, ok)
	require.NoError(t, in.Handler(dc))

	assert.Equal(t, Common, sess.CurrentSequence())
	assert.Contains(t, dc.DroppedContexts(), ApptBooking)

	// A later booking request must start with a fresh rebook offer.
	c, err := apptState(dc)
	require.NoError(t, err)
	assert.False(t, c.RebookReceived)
	assert.False(t, c.RebookDeclined)
}
