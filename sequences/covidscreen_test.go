package sequences

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
)

func TestSummarizeTriage_AllClearPasses(t *testing.T) {
	triage := summarizeTriage(&CovidScreenContext{})

	assert.Equal(t, "pass", triage.PassOrFail)
	assert.Empty(t, triage.Symptoms)
	assert.False(t, triage.DiagnosedWithCovid)
	assert.False(t, triage.LivesWithCovid)
	assert.Empty(t, triage.CountryName)
}

func TestSummarizeTriage_FeverAloneFails(t *testing.T) {
	triage := summarizeTriage(&CovidScreenContext{Q3Complete: true, Q3Result: true})

	assert.Equal(t, "fail", triage.PassOrFail)
	assert.Equal(t, []string{"fever"}, triage.Symptoms)
}

func TestSummarizeTriage_CombinesSymptomLists(t *testing.T) {
	triage := summarizeTriage(&CovidScreenContext{
		Q3Result:    true,
		Q4AResult:   true,
		Q4BSymptoms: []string{"cough", "sore throat"},
		Q5AResult:   true,
		Q5BSymptoms: []string{"loss of smell"},
	})

	assert.Equal(t, "fail", triage.PassOrFail)
	assert.Equal(t, []string{"fever", "cough", "sore throat", "loss of smell"}, triage.Symptoms)
}

func TestSummarizeTriage_DiagnosisAndTravelFail(t *testing.T) {
	triage := summarizeTriage(&CovidScreenContext{
		Q1AResult: true,
		Q1BResult: "within 10 days",
		Q6AResult: true,
		Q6BCountry: "Brazil",
	})

	assert.Equal(t, "fail", triage.PassOrFail)
	assert.True(t, triage.DiagnosedWithCovid)
	assert.Equal(t, "within 10 days", triage.DiagnosedWithCovidDate)
	assert.Equal(t, "Brazil", triage.CountryName)
}

func TestNavigateCovidScreen_AsksQuestionsInOrder(t *testing.T) {
	m := newTestModules(t)
	sess := core.NewSession("s1", Common, CovidScreen)
	dc := newTestDialog(t, m, sess)

	c, err := covidState(dc)
	require.NoError(t, err)

	act := navigateCovidScreen(dc)
	assert.Equal(t, "CovidScreenRequired", act.Event)

	c.Accepted = true
	assert.Equal(t, "CovidScreenQ1A", navigateCovidScreen(dc).Event)

	// A negative answer skips the diagnosis follow-up.
	c.Q1AComplete = true
	assert.Equal(t, "CovidScreenQ2", navigateCovidScreen(dc).Event)

	c.Q2Complete = true
	c.Q3Complete = true
	c.Q4AComplete = true
	c.Q4AResult = true
	c.Q4BRequired = true
	assert.Equal(t, "CovidScreenQ4B", navigateCovidScreen(dc).Event)

	c.Q4BComplete = true
	c.Q5AComplete = true
	c.Q6AComplete = true
	assert.Equal(t, "CovidScreenComplete", navigateCovidScreen(dc).Event)
}

func TestNavigateCovidScreen_DeclinedEndsScreening(t *testing.T) {
	m := newTestModules(t)
	sess := core.NewSession("s1", Common, CovidScreen)
	dc := newTestDialog(t, m, sess)

	c, err := covidState(dc)
	require.NoError(t, err)
	c.Declined = true

	assert.Equal(t, "CovidScreenDeclined", navigateCovidScreen(dc).Event)
}

func TestNavigateCovidScreen_TriageOutcomes(t *testing.T) {
	m := newTestModules(t)

	t.Run("pass reads back the admittance number", func(t *testing.T) {
		sess := core.NewSession("s1", Common, CovidScreen)
		dc := newTestDialog(t, m, sess)
		c, err := covidState(dc)
		require.NoError(t, err)
		c.TriagePassOrFail = "pass"

		assert.Equal(t, "CovidScreenTriageNumber", navigateCovidScreen(dc).Event)
	})

	t.Run("fail offers a rebooking", func(t *testing.T) {
		sess := core.NewSession("s1", Common, CovidScreen)
		dc := newTestDialog(t, m, sess)
		c, err := covidState(dc)
		require.NoError(t, err)
		c.TriagePassOrFail = "fail"

		assert.Equal(t, "CovidScreenRebookAppt", navigateCovidScreen(dc).Event)

		c.RebookOffered = true
		c.RebookAccepted = true
		assert.Equal(t, "EscalateToAgent", navigateCovidScreen(dc).Event)
	})

	t.Run("declined rebooking pops the flow", func(t *testing.T) {
		sess := core.NewSession("s1", Common, CovidScreen)
		sess.OfferedAgent = true
		dc := newTestDialog(t, m, sess)
		c, err := covidState(dc)
		require.NoError(t, err)
		c.TriagePassOrFail = "fail"
		c.RebookOffered = true
		c.RebookDeclined = true

		act := navigateCovidScreen(dc)
		assert.Equal(t, core.ActionContinue, act.Kind)
		assert.Equal(t, Common, sess.CurrentSequence())
		assert.False(t, sess.OfferedAgent)
	})
}
