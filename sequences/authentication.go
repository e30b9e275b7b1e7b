package sequences

import (
	"fmt"

	"github.com/jusranda/cctsa-wxccdemobot-commons/connectors/webexconnect"
	"github.com/jusranda/cctsa-wxccdemobot-commons/connectors/wxcc"
	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
)

// Authentication is the identity-verification flow's sequence name. The
// engine pushes it automatically in front of any sequence flagged
// AuthRequired.
const Authentication = "authentication"

// Validation outcomes for the one-time passcode exchange.
const (
	validationPending = 0
	validationSuccess = 1
	validationFailure = 2
)

// AuthenticationContext tracks account lookup and passcode validation state.
type AuthenticationContext struct {
	ValidationComplete  bool   `json:"validationComplete"`
	ValidationStatus    int    `json:"validationStatus"`
	ValidationReceived  bool   `json:"validationReceived"`
	ValidatedBy         string `json:"validatedBy"`
	GeneratedOtp        string `json:"generatedOtp"`
	AdvisedAuthRequired bool   `json:"advisedAuthRequired"`

	ReceivedAccountNumber string `json:"receivedAccountNumber"`
	AccountNumberFound    bool   `json:"accountNumberFound"`
	AccountNumberNotFound bool   `json:"accountNumberNotFound"`
	ReceivedOtp           string `json:"receivedOtp"`
}

// RegisterAuthentication registers the identity-verification flow: advise
// that verification is needed, look the customer up by account number, then
// validate a one-time passcode sent over the session's side channel.
func RegisterAuthentication(m Modules) error {
	r := &registrar{m: m}

	r.sequence(&core.Sequence{
		Name:     Authentication,
		Activity: "verifying your identity",
		BreakIntents: []string{
			"auth.sendotp",
			"auth.sendotp.fallback",
			"auth.getaccount",
			"auth.getaccount.fallback",
		},
		NewContext: func() core.Context { return &AuthenticationContext{} },
		Navigate: func(dc *core.DialogContext) core.Action {
			c, err := authState(dc)
			if err != nil {
				dc.LogError("authentication navigate: %v", err)
				return core.RespondWithText("")
			}
			sess := dc.Session

			if !c.AdvisedAuthRequired {
				return core.RespondWithEvent("AuthRequired", sess.LastFulfillmentText)
			}

			if sess.CustomerIdentified {
				if !c.ValidationComplete && c.ValidationReceived && c.ValidationStatus == validationSuccess {
					return core.RespondWithEvent("AuthOtpSuccess", sess.LastFulfillmentText)
				}
				if !c.ValidationComplete && c.ValidationReceived && c.ValidationStatus == validationFailure {
					return core.RespondWithEvent("AuthOtpFailure", sess.LastFulfillmentText)
				}
				if !c.ValidationComplete && !c.ValidationReceived {
					return core.RespondWithEvent("AuthSendOtp", sess.LastFulfillmentText)
				}
			}

			if c.ValidationComplete {
				if c.ValidationStatus == validationFailure {
					if !sess.OfferedAgent {
						return core.RespondWithEvent("OfferSpeakToAgent", sess.LastFulfillmentText)
					}
					if sess.OfferedAgentAccepted {
						return core.RespondWithEvent("EscalateToAgent", sess.LastFulfillmentText)
					}
				}
				return dc.PopSequenceAndNavigate(Authentication)
			}

			if !sess.CustomerIdentified {
				if c.ReceivedAccountNumber != "" && c.AccountNumberNotFound {
					return core.RespondWithEvent("AuthInvalidAccount", sess.LastFulfillmentText)
				}
				return core.RespondWithEvent("AuthGetAccount", sess.LastFulfillmentText)
			}

			return core.RespondWithText("")
		},
	})

	r.intent(&core.Intent{
		Action:       "auth.required",
		Events:       []string{"AuthRequired"},
		SequenceName: Authentication,
		Prompt:       "For your security, I first need to verify your identity.",
		Handler: func(dc *core.DialogContext) error {
			c, err := authState(dc)
			if err != nil {
				return err
			}
			dc.AppendFulfillmentText()
			c.AdvisedAuthRequired = true
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "auth.getaccount",
		Events:       []string{"AuthGetAccount"},
		SequenceName: Authentication,
		Prompt:       "Could you give me your account number, please?",
		Handler: func(dc *core.DialogContext) error {
			dc.AppendFulfillmentText()
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "auth.getaccount.fallback",
		SequenceName: Authentication,
		Handler: func(dc *core.DialogContext) error {
			dc.SetFulfillmentText()
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "auth.getaccount.accountnumber",
		SequenceName: Authentication,
		Handler: func(dc *core.DialogContext) error {
			c, err := authState(dc)
			if err != nil {
				return err
			}
			dc.SetFulfillmentText()

			c.ReceivedAccountNumber = dc.Slots["accountNumber"]
			if c.ReceivedAccountNumber == "" {
				c.AccountNumberNotFound = true
				return nil
			}

			rm, err := redmineFrom(dc)
			if err != nil {
				return err
			}
			users, err := rm.FindUsersByAccountID(dc.Context, c.ReceivedAccountNumber)
			if err != nil {
				return fmt.Errorf("account lookup: %w", err)
			}
			if len(users) == 0 {
				c.AccountNumberNotFound = true
				return nil
			}

			u := users[0]
			c.AccountNumberFound = true
			c.AccountNumberNotFound = false

			sess := dc.Session
			sess.CustomerIdentified = true
			sess.CustomerFirstName = u.FirstName
			sess.CustomerLastName = u.LastName
			sess.CustomerAccountID = u.AccountNumber
			sess.TicketUserID = fmt.Sprintf("%d", u.ID)
			sess.AdvisoryNotice = u.Advisory
			if u.OpenCaseID != "" {
				sess.OpenCaseID = u.OpenCaseID
			}
			if sess.Mail == "" {
				sess.Mail = u.Mail
			}
			if sess.SmsNumber == "" {
				sess.SmsNumber = u.MobileNumber
			}
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "auth.invalidaccount",
		Events:       []string{"AuthInvalidAccount"},
		SequenceName: Authentication,
		Prompt:       "I wasn't able to find an account with that number.  Let's try that again.",
		Handler: func(dc *core.DialogContext) error {
			c, err := authState(dc)
			if err != nil {
				return err
			}
			dc.AppendFulfillmentText()
			c.ReceivedAccountNumber = ""
			c.AccountNumberNotFound = false
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "auth.sendotp",
		Events:       []string{"AuthSendOtp"},
		SequenceName: Authentication,
		Handler:      sendOtp,
	})

	r.intent(&core.Intent{
		Action:       "auth.sendotp.fallback",
		SequenceName: Authentication,
		Handler: func(dc *core.DialogContext) error {
			dc.SetFulfillmentText()
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "auth.sendotp.otp",
		SequenceName: Authentication,
		Handler: func(dc *core.DialogContext) error {
			c, err := authState(dc)
			if err != nil {
				return err
			}
			dc.SetFulfillmentText()

			c.ReceivedOtp = dc.Slots["otp"]
			c.ValidationReceived = true
			if c.GeneratedOtp != "" && c.ReceivedOtp == c.GeneratedOtp {
				c.ValidationStatus = validationSuccess
				c.ValidatedBy = "otp"
			} else {
				c.ValidationStatus = validationFailure
			}
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "auth.validation.success",
		Events:       []string{"AuthOtpSuccess"},
		SequenceName: Authentication,
		Prompt:       "That's a match.  Thanks, you're verified.",
		Handler: func(dc *core.DialogContext) error {
			c, err := authState(dc)
			if err != nil {
				return err
			}
			dc.AppendFulfillmentText()
			c.ValidationComplete = true
			dc.Session.CustomerValidated = true
			injectJourneyEvent(dc, "Authentication Success", map[string]any{
				"validatedBy": c.ValidatedBy,
			})
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "auth.validation.failure",
		Events:       []string{"AuthOtpFailure"},
		SequenceName: Authentication,
		Prompt:       "That code doesn't match the one I sent.",
		Handler: func(dc *core.DialogContext) error {
			c, err := authState(dc)
			if err != nil {
				return err
			}
			dc.AppendFulfillmentText()
			c.ValidationComplete = true
			injectJourneyEvent(dc, "Authentication Failure", nil)
			return nil
		},
	})

	return r.err
}

// sendOtp generates a fresh passcode and delivers it over the session's side
// channel (SMS when a texting address exists, email otherwise).
func sendOtp(dc *core.DialogContext) error {
	c, err := authState(dc)
	if err != nil {
		return err
	}
	sess := dc.Session

	wc, err := webexConnectFrom(dc)
	if err != nil {
		return err
	}

	c.GeneratedOtp = webexconnect.NewOTP()
	msg := webexconnect.Message{
		SessionID:      sess.ID,
		CustomerName:   sess.CustomerFirstName,
		CompanyName:    sess.CompanyName,
		ContactChannel: sess.InteractionSource,
	}

	var where string
	if sess.SecondChannel == "sms" {
		msg.Destination = wxcc.Format10DPhoneNumber(sess.SmsNumber)
		where = "mobile number"
		err = wc.SendOtpBySms(dc.Context, msg, c.GeneratedOtp)
	} else {
		msg.Destination = sess.Mail
		where = "email address"
		err = wc.SendOtpByEmail(dc.Context, msg, c.GeneratedOtp)
	}
	if err != nil {
		return fmt.Errorf("send otp: %w", err)
	}

	text := dc.InboundText
	if text == "" {
		text = fmt.Sprintf("I've just sent a one-time passcode to your %s.  Can you read it back to me once it arrives?", where)
	}
	dc.AppendFulfillmentText(text)
	return nil
}

func authState(dc *core.DialogContext) (*AuthenticationContext, error) {
	c, err := dc.SequenceContext(Authentication)
	if err != nil {
		return nil, err
	}
	s, ok := c.(*AuthenticationContext)
	if !ok {
		return nil, fmt.Errorf("sequence %q: unexpected context type %T", Authentication, c)
	}
	return s, nil
}
