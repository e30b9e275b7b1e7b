package sequences

import (
	"fmt"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
)

// Welcome is the greeting flow's sequence name.
const Welcome = "welcome"

// WelcomeContext tracks the first-time greeting handshake.
type WelcomeContext struct {
	SaidFirstWelcome   bool `json:"saidFirstWelcome"`
	SaidIntro          bool `json:"saidIntro"`
	AskedWellbeing     bool `json:"askedWellbeing"`
	ConfirmedWellbeing bool `json:"confirmedWellbeing"`
	WellbeingPositive  bool `json:"confirmedWellbeingPositive"`
	WellbeingNegative  bool `json:"confirmedWellbeingNegative"`
}

// RegisterWelcome registers the greeting flow: introduce the assistant, ask
// after the customer's wellbeing, then hand off to reason-for-contact.
func RegisterWelcome(m Modules) error {
	r := &registrar{m: m}

	r.sequence(&core.Sequence{
		Name:         Welcome,
		Activity:     "greeting each other",
		BreakIntents: []string{"welcome.ask.wellbeing"},
		NewContext:   func() core.Context { return &WelcomeContext{} },
		Navigate: func(dc *core.DialogContext) core.Action {
			c, err := welcomeState(dc)
			if err != nil {
				dc.LogError("welcome navigate: %v", err)
				return core.RespondWithText("")
			}

			if !c.SaidFirstWelcome {
				if !c.SaidIntro {
					return core.RespondWithEvent("SayIntro", dc.Session.LastFulfillmentText)
				}
				if !c.AskedWellbeing {
					return core.RespondWithEvent("AskWellbeing", dc.Session.LastFulfillmentText)
				}
				c.SaidFirstWelcome = true
			}

			if c.ConfirmedWellbeing {
				if err := dc.PopSequence(Welcome); err != nil {
					dc.LogError("welcome navigate: %v", err)
				}
				return core.RespondWithEvent("AskReasonForContact", "")
			}

			return core.RespondWithText("")
		},
	})

	r.intent(&core.Intent{
		Action:       "input.welcome",
		Events:       []string{"Welcome"},
		SequenceName: Welcome,
		Prompt:       "Hi there!",
		Handler: func(dc *core.DialogContext) error {
			dc.SetFulfillmentText()
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "welcome.say.intro",
		Events:       []string{"SayIntro"},
		SequenceName: Welcome,
		Handler: func(dc *core.DialogContext) error {
			c, err := welcomeState(dc)
			if err != nil {
				return err
			}
			text := dc.InboundText
			if text == "" {
				text = fmt.Sprintf("I'm the virtual assistant for %s.", dc.Session.CompanyName)
			}
			dc.AppendFulfillmentText(text)
			c.SaidIntro = true
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "welcome.ask.wellbeing",
		Events:       []string{"AskWellbeing"},
		SequenceName: Welcome,
		Prompt:       "Before we get started, how are you doing today?",
		Handler: func(dc *core.DialogContext) error {
			c, err := welcomeState(dc)
			if err != nil {
				return err
			}
			dc.AppendFulfillmentText()
			c.AskedWellbeing = true
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "welcome.ask.wellbeing.wellbeing.positive",
		SequenceName: Welcome,
		Handler: func(dc *core.DialogContext) error {
			c, err := welcomeState(dc)
			if err != nil {
				return err
			}
			dc.SetFulfillmentText()
			c.SaidFirstWelcome = true
			c.ConfirmedWellbeing = true
			c.WellbeingPositive = true
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "welcome.ask.wellbeing.wellbeing.negative",
		SequenceName: Welcome,
		Handler: func(dc *core.DialogContext) error {
			c, err := welcomeState(dc)
			if err != nil {
				return err
			}
			dc.SetFulfillmentText()
			c.SaidFirstWelcome = true
			c.ConfirmedWellbeing = true
			c.WellbeingNegative = true
			return nil
		},
	})

	return r.err
}

func welcomeState(dc *core.DialogContext) (*WelcomeContext, error) {
	c, err := dc.SequenceContext(Welcome)
	if err != nil {
		return nil, err
	}
	s, ok := c.(*WelcomeContext)
	if !ok {
		return nil, fmt.Errorf("sequence %q: unexpected context type %T", Welcome, c)
	}
	return s, nil
}
