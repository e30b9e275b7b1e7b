package sequences

import (
	"fmt"
	"strings"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
)

// ReasonForContact is the skill-routing flow's sequence name.
const ReasonForContact = "reasonforcontact"

// ReasonForContactContext tracks whether the open-ended help question has
// been asked.
type ReasonForContactContext struct {
	AskedReasonForCalling bool `json:"askedReasonForCalling"`
}

// RegisterReasonForContact registers the skill-routing flow: ask what the
// customer needs, prefix any account advisory the lookup surfaced, rephrase
// the question on repeat visits, and route recognized skills.
func RegisterReasonForContact(m Modules) error {
	r := &registrar{m: m}

	r.sequence(&core.Sequence{
		Name:         ReasonForContact,
		Activity:     "figuring out how I can help you",
		BreakIntents: []string{"skill.reasonforcontact", "skill.reasonforcontact.fallback"},
		NewContext:   func() core.Context { return &ReasonForContactContext{} },
		Navigate: func(dc *core.DialogContext) core.Action {
			sess := dc.Session
			if sess.SayGoodbye {
				if !sess.SaidGoodbye {
					return core.RespondWithEvent("SayGoodbye", sess.LastFulfillmentText)
				}
				return core.RespondWithEvent("Handled", sess.LastFulfillmentText)
			}
			return core.RespondWithEvent("AskReasonForContact", sess.LastFulfillmentText)
		},
	})

	r.intent(&core.Intent{
		Action:       "skill.reasonforcontact",
		Events:       []string{"AskReasonForContact"},
		SequenceName: ReasonForContact,
		Prompt:       "How can I help you today?",
		Handler: func(dc *core.DialogContext) error {
			c, err := rfcState(dc)
			if err != nil {
				return err
			}
			sess := dc.Session

			text := dc.InboundText
			if sess.TriggeredSkill {
				text = strings.Replace(text, " can ", " else can ", 1)
				text = strings.Replace(text, " may ", " else may ", 1)
			}
			if sess.AdvisoryNotice != "" && !sess.TriggeredSkill {
				text = sess.AdvisoryNotice + "  " + text
			}

			sess.TriggeredSkill = true
			dc.AppendFulfillmentText(text)
			c.AskedReasonForCalling = true
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "skill.reasonforcontact.fallback",
		SequenceName: ReasonForContact,
		Handler: func(dc *core.DialogContext) error {
			dc.SetFulfillmentText()
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "skill.reasonforcontact.wellbeing.positive",
		SequenceName: ReasonForContact,
		Handler: func(dc *core.DialogContext) error {
			dc.SetFulfillmentText()
			if dc.Session.HelpCounter >= 1 {
				dc.Session.SayGoodbye = true
			}
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "skill.resetpassword",
		SequenceName: ReasonForContact,
		Handler: func(dc *core.DialogContext) error {
			dc.SetFulfillmentText()
			return dc.PushSequence(PasswordReset)
		},
	})

	return r.err
}

func rfcState(dc *core.DialogContext) (*ReasonForContactContext, error) {
	c, err := dc.SequenceContext(ReasonForContact)
	if err != nil {
		return nil, err
	}
	s, ok := c.(*ReasonForContactContext)
	if !ok {
		return nil, fmt.Errorf("sequence %q: unexpected context type %T", ReasonForContact, c)
	}
	return s, nil
}
