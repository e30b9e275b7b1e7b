package sequences

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jusranda/cctsa-wxccdemobot-commons/connectors/redmine"
	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
)

// CovidScreen is the in-person admittance questionnaire's sequence name.
const CovidScreen = "covidscreen"

// Ticketing statuses recorded for a finished screening.
const (
	triageStatusPassed = 12
	triageStatusFailed = 6
)

// CovidScreenContext tracks the questionnaire: acceptance, one entry per
// question, and the triage outcome.
type CovidScreenContext struct {
	Accepted bool `json:"accepted"`
	Declined bool `json:"declined"`

	Q1AComplete bool   `json:"q1acomplete"`
	Q1AResult   bool   `json:"q1aresult"`
	Q1BRequired bool   `json:"q1brequired"`
	Q1BComplete bool   `json:"q1bcomplete"`
	Q1BResult   string `json:"q1bresult"`

	Q2Complete bool `json:"q2complete"`
	Q2Result   bool `json:"q2result"`

	Q3Complete bool `json:"q3complete"`
	Q3Result   bool `json:"q3result"`

	Q4AComplete bool     `json:"q4acomplete"`
	Q4AResult   bool     `json:"q4aresult"`
	Q4BRequired bool     `json:"q4brequired"`
	Q4BComplete bool     `json:"q4bcomplete"`
	Q4BSymptoms []string `json:"q4bsymptoms"`

	Q5AComplete bool     `json:"q5acomplete"`
	Q5AResult   bool     `json:"q5aresult"`
	Q5BRequired bool     `json:"q5brequired"`
	Q5BComplete bool     `json:"q5bcomplete"`
	Q5BSymptoms []string `json:"q5bsymptoms"`

	Q6AComplete bool   `json:"q6acomplete"`
	Q6AResult   bool   `json:"q6aresult"`
	Q6BRequired bool   `json:"q6brequired"`
	Q6BComplete bool   `json:"q6bcomplete"`
	Q6BCountry  string `json:"q6bcountry"`

	TriagePassOrFail string `json:"triagePassOrFail"`
	TriageNumber     string `json:"triageNumber"`
	RebookOffered    bool   `json:"rebookOffered"`
	RebookAccepted   bool   `json:"rebookAccepted"`
	RebookDeclined   bool   `json:"rebookDeclined"`
}

// Triage is the reduced screening outcome recorded on the admittance ticket.
type Triage struct {
	DiagnosedWithCovid     bool     `json:"diagnosedWithCovid"`
	DiagnosedWithCovidDate string   `json:"diagnosedWithCovidDate,omitempty"`
	LivesWithCovid         bool     `json:"livesWithCovid"`
	Symptoms               []string `json:"symptoms"`
	CountryName            string   `json:"countryName,omitempty"`
	PassOrFail             string   `json:"passOrFail"`
}

// summarizeTriage reduces the questionnaire answers to a pass/fail outcome.
// Any positive diagnosis, fever, reported symptom or recent foreign travel
// fails the screening.
func summarizeTriage(c *CovidScreenContext) Triage {
	t := Triage{
		DiagnosedWithCovid: c.Q1AResult,
		LivesWithCovid:     c.Q2Result,
		Symptoms:           []string{},
		PassOrFail:         "pass",
	}

	if c.Q1AResult {
		t.PassOrFail = "fail"
		t.DiagnosedWithCovidDate = c.Q1BResult
	}
	if c.Q3Result {
		t.PassOrFail = "fail"
		t.Symptoms = append(t.Symptoms, "fever")
	}
	if c.Q4AResult {
		t.PassOrFail = "fail"
		t.Symptoms = append(t.Symptoms, c.Q4BSymptoms...)
	}
	if c.Q5AResult {
		t.PassOrFail = "fail"
		t.Symptoms = append(t.Symptoms, c.Q5BSymptoms...)
	}
	if c.Q6AResult {
		t.PassOrFail = "fail"
		t.CountryName = c.Q6BCountry
	}
	return t
}

func (t Triage) describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Screening result: %s.", t.PassOrFail)
	if t.DiagnosedWithCovid {
		fmt.Fprintf(&b, "  Diagnosed with Covid-19 (%s).", t.DiagnosedWithCovidDate)
	}
	if t.LivesWithCovid {
		b.WriteString("  Lives with a Covid-19 positive person.")
	}
	if len(t.Symptoms) > 0 {
		fmt.Fprintf(&b, "  Reported symptoms: %s.", strings.Join(t.Symptoms, ", "))
	}
	if t.CountryName != "" {
		fmt.Fprintf(&b, "  Recent travel to %s.", t.CountryName)
	}
	return b.String()
}

// RegisterCovidScreen registers the admittance questionnaire: consent, six
// questions with conditional follow-ups, triage reduction, a ticket holding
// the result, and the rebooking offer for failed screenings.
func RegisterCovidScreen(m Modules) error {
	r := &registrar{m: m}

	r.sequence(&core.Sequence{
		Name:     CovidScreen,
		Activity: "completing your Covid-19 in-person admittance questionnaire",
		BreakIntents: []string{
			"skill.covidscreen.required",
			"skill.covidscreen.declined",
			"skill.covidscreen.complete.triagenumber",
			"skill.covidscreen.complete.rebookappt",
			"skill.covidscreen.q1a",
			"skill.covidscreen.q1b",
			"skill.covidscreen.q2",
			"skill.covidscreen.q3",
			"skill.covidscreen.q4a",
			"skill.covidscreen.q4b",
			"skill.covidscreen.q5a",
			"skill.covidscreen.q5b",
			"skill.covidscreen.q6a",
			"skill.covidscreen.q6b",
		},
		NewContext: func() core.Context { return &CovidScreenContext{} },
		Navigate:   navigateCovidScreen,
	})

	// Entry point used by skill routing.
	r.intent(&core.Intent{
		Action:       "skill.covidscreen",
		SequenceName: CovidScreen,
		Handler: func(dc *core.DialogContext) error {
			dc.SetFulfillmentText()
			return dc.PushSequence(CovidScreen)
		},
	})

	r.intent(&core.Intent{
		Action:       "skill.covidscreen.required",
		Events:       []string{"CovidScreenRequired"},
		SequenceName: CovidScreen,
		Prompt:       "Before your in-person appointment I need to run through a short Covid-19 screening questionnaire with you.  Are you able to do that now?",
		Handler: func(dc *core.DialogContext) error {
			dc.AppendFulfillmentText()
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "skill.covidscreen.declined",
		Events:       []string{"CovidScreenDeclined"},
		SequenceName: CovidScreen,
		Prompt:       "I understand.  Unfortunately we can't admit you in person without the screening.  Let me see who can help you further.",
		Handler: func(dc *core.DialogContext) error {
			dc.AppendFulfillmentText()
			return nil
		},
	})

	r.intents([]string{
		"skill.covidscreen.required.confirmation.yes",
		"skill.covidscreen.required.confirmation.able",
	}, CovidScreen, func(dc *core.DialogContext) error {
		c, err := covidState(dc)
		if err != nil {
			return err
		}
		dc.SetFulfillmentText()
		c.Accepted = true
		c.Declined = false
		return nil
	})

	r.intents([]string{
		"skill.covidscreen.required.confirmation.no",
		"skill.covidscreen.required.confirmation.notable",
	}, CovidScreen, func(dc *core.DialogContext) error {
		c, err := covidState(dc)
		if err != nil {
			return err
		}
		dc.SetFulfillmentText()
		c.Declined = true
		return nil
	})

	// The questions themselves share one handler: append the prompt and wait.
	questionPrompts := map[string]string{
		"skill.covidscreen.q1a": "Question one.  Have you tested positive for Covid-19 in the past 14 days?",
		"skill.covidscreen.q1b": "Was that diagnosis within the last 10 days?",
		"skill.covidscreen.q2":  "Does anyone in your household currently have Covid-19?",
		"skill.covidscreen.q3":  "Have you had a fever in the past 48 hours?",
		"skill.covidscreen.q4a": "Are you experiencing any cold or flu symptoms, like a cough or a sore throat?",
		"skill.covidscreen.q4b": "Which symptoms are you experiencing?",
		"skill.covidscreen.q5a": "Any other symptoms, like loss of taste or smell?",
		"skill.covidscreen.q5b": "Which ones?",
		"skill.covidscreen.q6a": "Have you travelled outside the country in the past 14 days?",
		"skill.covidscreen.q6b": "Which country did you visit?",
	}
	questionEvents := map[string]string{
		"skill.covidscreen.q1a": "CovidScreenQ1A",
		"skill.covidscreen.q1b": "CovidScreenQ1B",
		"skill.covidscreen.q2":  "CovidScreenQ2",
		"skill.covidscreen.q3":  "CovidScreenQ3",
		"skill.covidscreen.q4a": "CovidScreenQ4A",
		"skill.covidscreen.q4b": "CovidScreenQ4B",
		"skill.covidscreen.q5a": "CovidScreenQ5A",
		"skill.covidscreen.q5b": "CovidScreenQ5B",
		"skill.covidscreen.q6a": "CovidScreenQ6A",
		"skill.covidscreen.q6b": "CovidScreenQ6B",
	}
	for action, prompt := range questionPrompts {
		r.intent(&core.Intent{
			Action:       action,
			Events:       []string{questionEvents[action]},
			SequenceName: CovidScreen,
			Prompt:       prompt,
			Handler: func(dc *core.DialogContext) error {
				dc.AppendFulfillmentText()
				return nil
			},
		})
	}

	// Question 1: prior diagnosis, with a conditional recency follow-up.
	r.intent(&core.Intent{
		Action:       "skill.covidscreen.q1a.confirmation.yes",
		SequenceName: CovidScreen,
		Handler: func(dc *core.DialogContext) error {
			c, err := covidState(dc)
			if err != nil {
				return err
			}
			dc.SetFulfillmentText()
			c.Q1AComplete = true
			c.Q1AResult = true
			c.Q1BRequired = true
			return nil
		},
	})
	r.intent(&core.Intent{
		Action:       "skill.covidscreen.q1a.confirmation.no",
		SequenceName: CovidScreen,
		Handler: func(dc *core.DialogContext) error {
			c, err := covidState(dc)
			if err != nil {
				return err
			}
			dc.SetFulfillmentText()
			c.Q1AComplete = true
			c.Q1AResult = false
			c.Q1BRequired = false
			return nil
		},
	})
	r.intent(&core.Intent{
		Action:       "skill.covidscreen.q1b.confirmation.yes",
		SequenceName: CovidScreen,
		Handler: func(dc *core.DialogContext) error {
			c, err := covidState(dc)
			if err != nil {
				return err
			}
			dc.SetFulfillmentText()
			c.Q1BComplete = true
			c.Q1BResult = "within 10 days"
			return nil
		},
	})
	r.intent(&core.Intent{
		Action:       "skill.covidscreen.q1b.confirmation.no",
		SequenceName: CovidScreen,
		Handler: func(dc *core.DialogContext) error {
			c, err := covidState(dc)
			if err != nil {
				return err
			}
			dc.SetFulfillmentText()
			c.Q1BComplete = true
			c.Q1BResult = "more than 10 days ago"
			return nil
		},
	})

	// Questions 2 and 3: plain yes/no.
	r.intent(&core.Intent{
		Action:       "skill.covidscreen.q2.confirmation.yes",
		SequenceName: CovidScreen,
		Handler: func(dc *core.DialogContext) error {
			c, err := covidState(dc)
			if err != nil {
				return err
			}
			dc.SetFulfillmentText()
			c.Q2Complete = true
			c.Q2Result = true
			return nil
		},
	})
	r.intent(&core.Intent{
		Action:       "skill.covidscreen.q2.confirmation.no",
		SequenceName: CovidScreen,
		Handler: func(dc *core.DialogContext) error {
			c, err := covidState(dc)
			if err != nil {
				return err
			}
			dc.SetFulfillmentText()
			c.Q2Complete = true
			c.Q2Result = false
			return nil
		},
	})
	r.intent(&core.Intent{
		Action:       "skill.covidscreen.q3.confirmation.yes",
		SequenceName: CovidScreen,
		Handler: func(dc *core.DialogContext) error {
			c, err := covidState(dc)
			if err != nil {
				return err
			}
			dc.SetFulfillmentText()
			c.Q3Complete = true
			c.Q3Result = true
			return nil
		},
	})
	r.intent(&core.Intent{
		Action:       "skill.covidscreen.q3.confirmation.no",
		SequenceName: CovidScreen,
		Handler: func(dc *core.DialogContext) error {
			c, err := covidState(dc)
			if err != nil {
				return err
			}
			dc.SetFulfillmentText()
			c.Q3Complete = true
			c.Q3Result = false
			return nil
		},
	})

	// Questions 4 and 5: symptoms, with a which-symptoms follow-up. A
	// recognizer that already extracted the symptom list short-circuits the
	// follow-up.
	registerSymptomQuestion(r, "q4a", "q4b",
		func(c *CovidScreenContext) (*bool, *bool, *bool, *bool, *[]string) {
			return &c.Q4AComplete, &c.Q4AResult, &c.Q4BRequired, &c.Q4BComplete, &c.Q4BSymptoms
		})
	registerSymptomQuestion(r, "q5a", "q5b",
		func(c *CovidScreenContext) (*bool, *bool, *bool, *bool, *[]string) {
			return &c.Q5AComplete, &c.Q5AResult, &c.Q5BRequired, &c.Q5BComplete, &c.Q5BSymptoms
		})

	// Question 6: travel, with a which-country follow-up.
	r.intent(&core.Intent{
		Action:       "skill.covidscreen.q6a.common.countries",
		SequenceName: CovidScreen,
		Handler: func(dc *core.DialogContext) error {
			c, err := covidState(dc)
			if err != nil {
				return err
			}
			dc.SetFulfillmentText()
			c.Q6AComplete = true
			c.Q6AResult = true
			c.Q6BComplete = true
			c.Q6BCountry = dc.Slots["country"]
			return nil
		},
	})
	r.intent(&core.Intent{
		Action:       "skill.covidscreen.q6a.confirmation.yes",
		SequenceName: CovidScreen,
		Handler: func(dc *core.DialogContext) error {
			c, err := covidState(dc)
			if err != nil {
				return err
			}
			dc.SetFulfillmentText()
			c.Q6AComplete = true
			c.Q6AResult = true
			c.Q6BRequired = true
			return nil
		},
	})
	r.intent(&core.Intent{
		Action:       "skill.covidscreen.q6a.confirmation.no",
		SequenceName: CovidScreen,
		Handler: func(dc *core.DialogContext) error {
			c, err := covidState(dc)
			if err != nil {
				return err
			}
			dc.SetFulfillmentText()
			c.Q6AComplete = true
			c.Q6AResult = false
			c.Q6BRequired = false
			return nil
		},
	})
	r.intent(&core.Intent{
		Action:       "skill.covidscreen.q6b.common.countries",
		SequenceName: CovidScreen,
		Handler: func(dc *core.DialogContext) error {
			c, err := covidState(dc)
			if err != nil {
				return err
			}
			dc.SetFulfillmentText()
			c.Q6BComplete = true
			c.Q6BCountry = dc.Slots["country"]
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "skill.covidscreen.complete",
		Events:       []string{"CovidScreenComplete"},
		SequenceName: CovidScreen,
		Prompt:       "That completes the screening.  Give me a moment while I record your results.",
		Handler:      completeCovidScreen,
	})

	r.intent(&core.Intent{
		Action:       "skill.covidscreen.complete.triagenumber",
		Events:       []string{"CovidScreenTriageNumber"},
		SequenceName: CovidScreen,
		Handler: func(dc *core.DialogContext) error {
			c, err := covidState(dc)
			if err != nil {
				return err
			}
			text := dc.InboundText
			if text == "" {
				text = fmt.Sprintf("You're all set.  Your admittance number is %s.  Please have it ready when you arrive.", c.TriageNumber)
			}
			dc.AppendFulfillmentText(text)
			injectJourneyEvent(dc, "Covid Screen Accepted", map[string]any{
				"caseUrl":    m.caseURL(atoiOrZero(c.TriageNumber)),
				"caseReason": "Record of accepted screening results",
			})
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "skill.covidscreen.complete.rebookappt",
		Events:       []string{"CovidScreenRebookAppt"},
		SequenceName: CovidScreen,
		Prompt:       "Based on your answers, we aren't able to see you in person right now.  Would you like to rebook your appointment for a later date?",
		Handler: func(dc *core.DialogContext) error {
			c, err := covidState(dc)
			if err != nil {
				return err
			}
			dc.AppendFulfillmentText()
			injectJourneyEvent(dc, "Covid Screen Rejected", map[string]any{
				"caseUrl":    m.caseURL(atoiOrZero(c.TriageNumber)),
				"caseReason": "Record of rejected screening results",
			})
			return nil
		},
	})

	r.intents([]string{
		"skill.covidscreen.complete.rebookappt.confirmation.yes",
		"skill.covidscreen.complete.rebookappt.confirmation.able",
	}, CovidScreen, func(dc *core.DialogContext) error {
		c, err := covidState(dc)
		if err != nil {
			return err
		}
		dc.SetFulfillmentText()
		c.RebookOffered = true
		c.RebookAccepted = true
		c.RebookDeclined = false
		return nil
	})

	r.intents([]string{
		"skill.covidscreen.complete.rebookappt.confirmation.no",
		"skill.covidscreen.complete.rebookappt.confirmation.notable",
	}, CovidScreen, func(dc *core.DialogContext) error {
		c, err := covidState(dc)
		if err != nil {
			return err
		}
		dc.SetFulfillmentText()
		c.RebookOffered = true
		c.RebookAccepted = false
		c.RebookDeclined = true
		return nil
	})

	return r.err
}

func navigateCovidScreen(dc *core.DialogContext) core.Action {
	c, err := covidState(dc)
	if err != nil {
		dc.LogError("covidscreen navigate: %v", err)
		return core.RespondWithText("")
	}
	sess := dc.Session

	if c.TriagePassOrFail != "" {
		if c.TriagePassOrFail == "pass" {
			return core.RespondWithEvent("CovidScreenTriageNumber", "")
		}
		if !c.RebookOffered {
			return core.RespondWithEvent("CovidScreenRebookAppt", "")
		}
		if c.RebookAccepted {
			return core.RespondWithEvent("EscalateToAgent", sess.LastFulfillmentText)
		}
		sess.ResetOfferedAgentFlags()
		return dc.PopSequenceAndNavigate(CovidScreen)
	}

	if !c.Accepted && !c.Declined {
		return core.RespondWithEvent("CovidScreenRequired", "")
	}
	if c.Declined {
		return core.RespondWithEvent("CovidScreenDeclined", "")
	}

	switch {
	case !c.Q1AComplete:
		return core.RespondWithEvent("CovidScreenQ1A", "")
	case c.Q1BRequired && !c.Q1BComplete:
		return core.RespondWithEvent("CovidScreenQ1B", "")
	case !c.Q2Complete:
		return core.RespondWithEvent("CovidScreenQ2", "")
	case !c.Q3Complete:
		return core.RespondWithEvent("CovidScreenQ3", "")
	case !c.Q4AComplete:
		return core.RespondWithEvent("CovidScreenQ4A", "")
	case c.Q4BRequired && !c.Q4BComplete:
		return core.RespondWithEvent("CovidScreenQ4B", "")
	case !c.Q5AComplete:
		return core.RespondWithEvent("CovidScreenQ5A", "")
	case c.Q5BRequired && !c.Q5BComplete:
		return core.RespondWithEvent("CovidScreenQ5B", "")
	case !c.Q6AComplete:
		return core.RespondWithEvent("CovidScreenQ6A", "")
	case c.Q6BRequired && !c.Q6BComplete:
		return core.RespondWithEvent("CovidScreenQ6B", "")
	}

	return core.RespondWithEvent("CovidScreenComplete", "")
}

// completeCovidScreen reduces the answers, opens the admittance ticket with
// the pass/fail status, and records the triage number for the customer.
func completeCovidScreen(dc *core.DialogContext) error {
	c, err := covidState(dc)
	if err != nil {
		return err
	}
	sess := dc.Session

	dc.AppendFulfillmentText()

	triage := summarizeTriage(c)
	c.TriagePassOrFail = triage.PassOrFail

	statusID := triageStatusPassed
	if triage.PassOrFail == "fail" {
		statusID = triageStatusFailed
	}

	rm, err := redmineFrom(dc)
	if err != nil {
		return err
	}
	issueID, err := rm.CreateIssue(dc.Context, redmine.NewIssue{
		Subject: "Covid-19 In-person Admittance Triage Complete",
		Description: sess.CustomerFirstName +
			" has completed the Covid-19 admittance screening required before arriving for in-person appointments.  " +
			triage.describe(),
		AccountNumber: sess.CustomerAccountID,
		Source:        sess.InteractionSource,
		InitiatorID:   sess.IdentityAlias,
		StatusID:      statusID,
	})
	if err != nil {
		return fmt.Errorf("record screening: %w", err)
	}

	sess.OpenCaseID = strconv.Itoa(issueID)
	c.TriageNumber = sess.OpenCaseID
	return nil
}

// registerSymptomQuestion wires one have-you-symptoms question pair: the
// yes/no gate plus the which-symptoms follow-up, with a short-circuit for
// recognizers that extract the symptom list directly.
func registerSymptomQuestion(r *registrar, gateID, followupID string,
	fields func(*CovidScreenContext) (gateComplete, gateResult, followupRequired, followupComplete *bool, symptoms *[]string)) {

	prefix := "skill.covidscreen."

	r.intent(&core.Intent{
		Action:       prefix + gateID + ".healthcare.symptoms",
		SequenceName: CovidScreen,
		Handler: func(dc *core.DialogContext) error {
			c, err := covidState(dc)
			if err != nil {
				return err
			}
			dc.SetFulfillmentText()
			gateComplete, gateResult, _, followupComplete, symptoms := fields(c)
			*gateComplete = true
			*gateResult = true
			*followupComplete = true
			*symptoms = splitSlotList(dc.Slots["symptoms"])
			return nil
		},
	})
	r.intent(&core.Intent{
		Action:       prefix + gateID + ".confirmation.yes",
		SequenceName: CovidScreen,
		Handler: func(dc *core.DialogContext) error {
			c, err := covidState(dc)
			if err != nil {
				return err
			}
			dc.SetFulfillmentText()
			gateComplete, gateResult, followupRequired, _, _ := fields(c)
			*gateComplete = true
			*gateResult = true
			*followupRequired = true
			return nil
		},
	})
	r.intent(&core.Intent{
		Action:       prefix + gateID + ".confirmation.no",
		SequenceName: CovidScreen,
		Handler: func(dc *core.DialogContext) error {
			c, err := covidState(dc)
			if err != nil {
				return err
			}
			dc.SetFulfillmentText()
			gateComplete, gateResult, followupRequired, _, _ := fields(c)
			*gateComplete = true
			*gateResult = false
			*followupRequired = false
			return nil
		},
	})
	r.intent(&core.Intent{
		Action:       prefix + followupID + ".healthcare.symptoms",
		SequenceName: CovidScreen,
		Handler: func(dc *core.DialogContext) error {
			c, err := covidState(dc)
			if err != nil {
				return err
			}
			dc.SetFulfillmentText()
			_, _, _, followupComplete, symptoms := fields(c)
			*followupComplete = true
			*symptoms = splitSlotList(dc.Slots["symptoms"])
			return nil
		},
	})
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func covidState(dc *core.DialogContext) (*CovidScreenContext, error) {
	c, err := dc.SequenceContext(CovidScreen)
	if err != nil {
		return nil, err
	}
	s, ok := c.(*CovidScreenContext)
	if !ok {
		return nil, fmt.Errorf("sequence %q: unexpected context type %T", CovidScreen, c)
	}
	return s, nil
}
