package sequences

import (
	"fmt"
	"strconv"

	"github.com/jusranda/cctsa-wxccdemobot-commons/connectors/webexconnect"
	"github.com/jusranda/cctsa-wxccdemobot-commons/connectors/wxcc"
	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
)

// PasswordReset is the password-reset flow's sequence name. The flow is
// gated on authentication; the engine pushes the verification sequence in
// front of it for unverified customers.
const PasswordReset = "passwordreset"

// Execute status recorded for the wrap-up ticket.
const (
	resetIncomplete = -1
	resetSucceeded  = 0
	resetFailed     = 1
)

// PasswordResetContext tracks the reset-link pipeline.
type PasswordResetContext struct {
	ExecuteStatus           int  `json:"executeStatus"`
	PasswordLinkSent        bool `json:"passwordLinkSent"`
	PasswordLinkReceived    bool `json:"passwordLinkReceived"`
	PasswordLinkNotReceived bool `json:"passwordLinkNotReceived"`
	ConfirmedWorking        bool `json:"confirmedWorking"`
	ConfirmedNotWorking     bool `json:"confirmedNotWorking"`
	NotifiedSuccess         bool `json:"notifiedSuccess"`
	NotifiedFailure         bool `json:"notifiedFailure"`
}

// RegisterPasswordReset registers the password-reset flow: reset the
// customer's password to a temporary one, deliver it over the side channel,
// confirm receipt and a successful login, and wrap up with a ticket plus a
// journey event either way.
func RegisterPasswordReset(m Modules) error {
	r := &registrar{m: m}

	r.sequence(&core.Sequence{
		Name:         PasswordReset,
		Activity:     "resetting your password",
		AuthRequired: true,
		BreakIntents: []string{
			"skill.resetpassword.sms",
			"skill.resetpassword.email",
			"skill.resetpassword.loginsuccess",
		},
		NewContext: func() core.Context { return &PasswordResetContext{ExecuteStatus: resetIncomplete} },
		Navigate: func(dc *core.DialogContext) core.Action {
			c, err := resetState(dc)
			if err != nil {
				dc.LogError("passwordreset navigate: %v", err)
				return core.RespondWithText("")
			}
			sess := dc.Session

			if c.NotifiedSuccess {
				return dc.PopSequenceAndNavigate(PasswordReset)
			}

			if c.NotifiedFailure {
				if !sess.OfferedAgent {
					return core.RespondWithEvent("TicketTransfer", sess.LastFulfillmentText)
				}
				if sess.OfferedAgentAccepted {
					return core.RespondWithEvent("EscalateToAgent", sess.LastFulfillmentText)
				}
				if sess.OfferedAgentDeclined {
					sess.ResetOfferedAgentFlags()
					return dc.PopSequenceAndNavigate(PasswordReset)
				}
			}

			if !c.PasswordLinkSent {
				if sess.SecondChannel == "sms" {
					return core.RespondWithEvent("PasswordResetSms", sess.LastFulfillmentText)
				}
				return core.RespondWithEvent("PasswordResetEmail", sess.LastFulfillmentText)
			}

			if c.PasswordLinkReceived && !c.ConfirmedWorking && !c.ConfirmedNotWorking {
				return core.RespondWithEvent("ResetPasswordLoginSuccess", sess.LastFulfillmentText)
			}

			if c.ConfirmedWorking && !c.NotifiedSuccess {
				return core.RespondWithEvent("ResetPasswordSuccess", sess.LastFulfillmentText)
			}

			if (c.PasswordLinkNotReceived || c.ConfirmedNotWorking) && !c.NotifiedFailure {
				return core.RespondWithEvent("ResetPasswordFailure", sess.LastFulfillmentText)
			}

			return core.RespondWithText("")
		},
	})

	r.caseTemplate(PasswordReset, func(dc *core.DialogContext) core.Case {
		c, err := resetState(dc)
		if err != nil {
			dc.LogError("passwordreset case template: %v", err)
			return core.Case{Subject: "Password Reset", Note: "Case created."}
		}
		sess := dc.Session

		subject := "Password Reset "
		switch c.ExecuteStatus {
		case resetIncomplete:
			subject += "Attempt Incomplete"
		case resetSucceeded:
			subject += "Success"
		case resetFailed:
			subject += "Failure"
		}
		subject += " for " + sess.CustomerFirstName + " " + sess.CustomerLastName

		description := sess.CustomerFirstName + " attempted a password reset."
		if c.PasswordLinkSent {
			description += "  I sent the SMS password reset link."
		}
		if c.PasswordLinkReceived {
			description += "  " + sess.CustomerFirstName + " confirmed receiveing the reset link,"
		}
		if c.PasswordLinkNotReceived {
			description += "  " + sess.CustomerFirstName + " never received the reset link."
		}
		if c.ConfirmedWorking {
			description += " and was able to login successfully."
		}
		if !c.PasswordLinkNotReceived && c.ConfirmedNotWorking {
			description += " but was unable to login successfully."
		}

		return core.Case{
			Subject:     subject,
			Description: description,
			Note:        "Case created.",
		}
	})

	r.intent(&core.Intent{
		Action:       "skill.resetpassword.sms",
		Events:       []string{"PasswordResetSms"},
		SequenceName: PasswordReset,
		Prompt:       "No problem.  I'm sending a password reset link to your mobile number now.  Let me know once it arrives.",
		Handler: func(dc *core.DialogContext) error {
			c, err := resetState(dc)
			if err != nil {
				return err
			}
			dc.AppendFulfillmentText()
			c.PasswordLinkSent = true
			return resetAndSendPassword(dc)
		},
	})

	r.intent(&core.Intent{
		Action:       "skill.resetpassword.email",
		Events:       []string{"PasswordResetEmail"},
		SequenceName: PasswordReset,
		Prompt:       "No problem.  I'm sending a password reset link to your email address now.  Let me know once it arrives.",
		Handler: func(dc *core.DialogContext) error {
			c, err := resetState(dc)
			if err != nil {
				return err
			}
			dc.AppendFulfillmentText()
			c.PasswordLinkSent = true
			return resetAndSendPassword(dc)
		},
	})

	r.intents([]string{
		"skill.resetpassword.sms.fallback",
		"skill.resetpassword.email.fallback",
		"skill.resetpassword.loginsuccess.fallback",
	}, PasswordReset, func(dc *core.DialogContext) error {
		dc.AppendFulfillmentText()
		return nil
	})

	r.intents([]string{
		"skill.resetpassword.sms.confirmation.yes",
		"skill.resetpassword.sms.confirmation.received",
		"skill.resetpassword.email.confirmation.yes",
		"skill.resetpassword.email.confirmation.received",
	}, PasswordReset, func(dc *core.DialogContext) error {
		c, err := resetState(dc)
		if err != nil {
			return err
		}
		dc.SetFulfillmentText()
		c.PasswordLinkReceived = true
		return nil
	})

	r.intents([]string{
		"skill.resetpassword.sms.confirmation.no",
		"skill.resetpassword.sms.confirmation.notreceived",
		"skill.resetpassword.sms.confirmation.notworking",
		"skill.resetpassword.email.confirmation.no",
		"skill.resetpassword.email.confirmation.notreceived",
		"skill.resetpassword.email.confirmation.notworking",
	}, PasswordReset, func(dc *core.DialogContext) error {
		c, err := resetState(dc)
		if err != nil {
			return err
		}
		dc.SetFulfillmentText()
		c.PasswordLinkNotReceived = true
		c.ConfirmedNotWorking = true
		c.ExecuteStatus = resetFailed
		return nil
	})

	r.intents([]string{
		"skill.resetpassword.sms.confirmation.working",
		"skill.resetpassword.email.confirmation.working",
	}, PasswordReset, func(dc *core.DialogContext) error {
		c, err := resetState(dc)
		if err != nil {
			return err
		}
		dc.SetFulfillmentText()
		c.PasswordLinkReceived = true
		c.ConfirmedWorking = true
		c.ExecuteStatus = resetSucceeded
		return nil
	})

	r.intent(&core.Intent{
		Action:       "skill.resetpassword.loginsuccess",
		Events:       []string{"ResetPasswordLoginSuccess"},
		SequenceName: PasswordReset,
		Prompt:       "Great.  Were you able to log in with the temporary password?",
		Handler: func(dc *core.DialogContext) error {
			dc.AppendFulfillmentText()
			return nil
		},
	})

	r.intents([]string{
		"skill.resetpassword.loginsuccess.confirmation.yes",
		"skill.resetpassword.loginsuccess.confirmation.received",
		"skill.resetpassword.loginsuccess.confirmation.able",
		"skill.resetpassword.loginsuccess.confirmation.working",
	}, PasswordReset, func(dc *core.DialogContext) error {
		c, err := resetState(dc)
		if err != nil {
			return err
		}
		dc.SetFulfillmentText()
		c.ConfirmedWorking = true
		c.ExecuteStatus = resetSucceeded
		return nil
	})

	r.intents([]string{
		"skill.resetpassword.loginsuccess.confirmation.no",
		"skill.resetpassword.loginsuccess.confirmation.notreceived",
		"skill.resetpassword.loginsuccess.confirmation.notable",
		"skill.resetpassword.loginsuccess.confirmation.notworking",
	}, PasswordReset, func(dc *core.DialogContext) error {
		c, err := resetState(dc)
		if err != nil {
			return err
		}
		dc.SetFulfillmentText()
		c.ConfirmedNotWorking = true
		c.ExecuteStatus = resetFailed
		return nil
	})

	r.intent(&core.Intent{
		Action:       "skill.resetpassword.success",
		Events:       []string{"ResetPasswordSuccess"},
		SequenceName: PasswordReset,
		Prompt:       "Excellent!  Your password has been reset.  Is there anything else I can help you with?",
		Handler: func(dc *core.DialogContext) error {
			c, err := resetState(dc)
			if err != nil {
				return err
			}

			issueID, err := openCase(dc, PasswordReset)
			if err != nil {
				return fmt.Errorf("password reset wrap-up: %w", err)
			}
			injectJourneyEvent(dc, "Password Change Success", map[string]any{
				"caseUrl":    m.caseURL(issueID),
				"caseReason": "Record of success",
			})

			dc.AppendFulfillmentText()
			c.NotifiedSuccess = true
			dc.Session.HelpCounter++
			return nil
		},
	})

	r.intent(&core.Intent{
		Action:       "skill.resetpassword.failure",
		Events:       []string{"ResetPasswordFailure"},
		SequenceName: PasswordReset,
		Prompt:       "I'm sorry the reset didn't go through.  Let me open a ticket so someone can look into it.",
		Handler: func(dc *core.DialogContext) error {
			c, err := resetState(dc)
			if err != nil {
				return err
			}

			issueID, err := openCase(dc, PasswordReset)
			if err != nil {
				return fmt.Errorf("password reset wrap-up: %w", err)
			}
			injectJourneyEvent(dc, "Password Change Failure", map[string]any{
				"caseUrl":    m.caseURL(issueID),
				"caseReason": "Escalate failed password change",
			})

			dc.AppendFulfillmentText()
			c.NotifiedFailure = true
			return nil
		},
	})

	return r.err
}

// resetAndSendPassword sets a temporary password on the customer's account
// and delivers it over the session's side channel.
func resetAndSendPassword(dc *core.DialogContext) error {
	sess := dc.Session

	userID, err := strconv.Atoi(sess.TicketUserID)
	if err != nil {
		return fmt.Errorf("reset password: no ticketing user on session: %w", err)
	}

	rm, err := redmineFrom(dc)
	if err != nil {
		return err
	}
	wc, err := webexConnectFrom(dc)
	if err != nil {
		return err
	}

	tempPw := GeneratePassword(8)
	if err := rm.ResetUserPassword(dc.Context, userID, tempPw); err != nil {
		return err
	}

	msg := webexconnect.Message{
		SessionID:      sess.ID,
		CustomerName:   sess.CustomerFirstName,
		CompanyName:    sess.CompanyName,
		ContactChannel: sess.InteractionSource,
	}
	if sess.SecondChannel == "sms" {
		msg.Destination = wxcc.Format10DPhoneNumber(sess.SmsNumber)
		return wc.SendPasswordResetLinkBySms(dc.Context, msg, tempPw)
	}
	msg.Destination = sess.Mail
	return wc.SendPasswordResetLinkByEmail(dc.Context, msg, tempPw)
}

func resetState(dc *core.DialogContext) (*PasswordResetContext, error) {
	c, err := dc.SequenceContext(PasswordReset)
	if err != nil {
		return nil, err
	}
	s, ok := c.(*PasswordResetContext)
	if !ok {
		return nil, fmt.Errorf("sequence %q: unexpected context type %T", PasswordReset, c)
	}
	return s, nil
}
