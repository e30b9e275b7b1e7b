package sequences

import (
	"fmt"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
)

// Sequence names for the cross-cutting flows.
const (
	Common       = "common"
	AnythingElse = "anythingelse"
)

const escalatePrompt = "Alright.  Let me connect you with an agent now.  One moment please."

// CommonContext carries no local state; the common flow works entirely off
// session-level flags.
type CommonContext struct{}

// AnythingElseContext tracks the wrap-up offer at the end of a skill.
type AnythingElseContext struct {
	OfferedHelp   bool `json:"offeredHelp"`
	ConfirmedHelp bool `json:"confirmedHelp"`
	HelpRequired  bool `json:"helpRequired"`
}

// RegisterCommon registers the root conversational flow: it hosts the
// fallback and course-correction handlers, the agent escalation offer, the
// goodbye funnel, and the anythingelse wrap-up sequence.
func RegisterCommon(m Modules) error {
	r := &registrar{m: m}

	r.sequence(&core.Sequence{
		Name:     Common,
		Activity: "talking",
		BreakIntents: []string{
			"common.offer.agent",
			"common.goodbye",
			"fallback",
			"Handled",
			"GetExpert",
			"common.speaktoagent",
			"bypass.nomoreproblems",
			"common.tickettransfer",
			"common.scheduletest",
			"common.escalate",
		},
		NewContext: func() core.Context { return &CommonContext{} },
		Navigate: func(dc *core.DialogContext) core.Action {
			sess := dc.Session
			if sess.SayGoodbye {
				if !sess.SaidGoodbye {
					return core.RespondWithEvent("SayGoodbye", sess.LastFulfillmentText)
				}
				return core.RespondWithEvent("Handled", sess.LastFulfillmentText)
			}

			return core.RespondWithText("")
		},
	})

	r.intent(&core.Intent{
		Action:       "GetExpert",
		SequenceName: Common,
		Prompt:       "Let me find the right expert for you.",
		Handler: func(dc *core.DialogContext) error {
			dc.AppendFulfillmentText()
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "Handled",
		SequenceName: Common,
		Prompt:       "Happy to help!",
		Handler: func(dc *core.DialogContext) error {
			dc.AppendFulfillmentText()
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "input.unknown",
		SequenceName: Common,
		Handler: func(dc *core.DialogContext) error {
			dc.SetFulfillmentCourseCorrect()
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "fallback",
		SequenceName: Common,
		Handler: func(dc *core.DialogContext) error {
			dc.SetFulfillmentText()
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "common.goodbye",
		Events:       []string{"SayGoodbye"},
		SequenceName: Common,
		Prompt:       "Thanks for chatting with us today.  Take care!",
		Handler: func(dc *core.DialogContext) error {
			dc.AppendFulfillmentText()
			dc.Session.SaidGoodbye = true
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "common.offer.agent",
		Events:       []string{"OfferSpeakToAgent"},
		SequenceName: Common,
		Prompt:       "Would you like to speak with an agent?",
		Handler: func(dc *core.DialogContext) error {
			dc.AppendFulfillmentText()
			dc.Session.OfferedAgent = true
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "common.offer.agent.confirmation.yes",
		SequenceName: Common,
		Handler: func(dc *core.DialogContext) error {
			dc.SetFulfillmentText()
			dc.Session.OfferedAgentAccepted = true
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "common.offer.agent.confirmation.no",
		SequenceName: Common,
		Handler: func(dc *core.DialogContext) error {
			dc.SetFulfillmentText()
			dc.Session.OfferedAgentDeclined = true
			return nil
		},
	})

	// The escalation confirmation the navigators chain to via the
	// EscalateToAgent event.
	r.intent(&core.Intent{
		Action:       "common.escalate",
		Events:       []string{"EscalateToAgent"},
		SequenceName: Common,
		Prompt:       escalatePrompt,
		Handler: func(dc *core.DialogContext) error {
			dc.AppendFulfillmentText()
			dc.Session.OfferedAgentAccepted = true
			return nil
		},
	})

	// A direct "let me talk to a person" skips the offer and responds with
	// the escalation confirmation immediately.
	r.intent(&core.Intent{
		Action:       "common.speaktoagent",
		SequenceName: Common,
		Handler: func(dc *core.DialogContext) error {
			dc.SetFulfillmentText()
			dc.AppendFulfillmentText(escalatePrompt)
			dc.Session.OfferedAgentAccepted = true
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "bypass.nomoreproblems",
		SequenceName: Common,
		Handler: func(dc *core.DialogContext) error {
			dc.SetFulfillmentText()
			dc.AppendFulfillmentText("Happy to help!")
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "common.tickettransfer",
		Events:       []string{"TicketTransfer"},
		SequenceName: Common,
		Handler: func(dc *core.DialogContext) error {
			dc.AppendFulfillmentText()
			dc.Session.OfferedAgent = true
			dc.AppendFulfillmentText(fmt.Sprintf(
				"I've created ticket %s.  Would you like me to connect you with an agent now?",
				dc.Session.TicketNumber))
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "common.tickettransfer.confirmation.yes",
		SequenceName: Common,
		Handler: func(dc *core.DialogContext) error {
			dc.SetFulfillmentText()
			dc.Session.OfferedAgentAccepted = true
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "common.scheduletest",
		SequenceName: Common,
		Handler: func(dc *core.DialogContext) error {
			dc.SetFulfillmentText()
			dc.AppendFulfillmentText("Okay, let's get your appointment scheduled.  What day and time work for you?")
			return dc.PushSequence(ApptBooking)
		},
	})

	r.sequence(&core.Sequence{
		Name:         AnythingElse,
		Activity:     "checking if there's anything else I can do to help",
		BreakIntents: []string{"common.offer.anythingelse", "common.goodbye", "Handled", "GetExpert"},
		NewContext:   func() core.Context { return &AnythingElseContext{} },
		Navigate: func(dc *core.DialogContext) core.Action {
			return core.RespondWithText("")
		},
	})

	r.intent(&core.Intent{
		Action:       "common.offer.anythingelse",
		SequenceName: AnythingElse,
		Prompt:       "Is there anything else I can help you with today?",
		Handler: func(dc *core.DialogContext) error {
			c, err := anythingElseState(dc)
			if err != nil {
				return err
			}
			dc.AppendFulfillmentText()
			c.OfferedHelp = true
			return nil
		},
	})

	return r.err
}

func anythingElseState(dc *core.DialogContext) (*AnythingElseContext, error) {
	c, err := dc.SequenceContext(AnythingElse)
	if err != nil {
		return nil, err
	}
	s, ok := c.(*AnythingElseContext)
	if !ok {
		return nil, fmt.Errorf("sequence %q: unexpected context type %T", AnythingElse, c)
	}
	return s, nil
}
