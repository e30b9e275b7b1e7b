// Package wxcc implements the contact-center channel connector. It owns the
// channel vocabulary of the inbound platform: per-channel session seeding,
// side-channel (sms/email) selection and phone number normalization used by
// flows that message the customer out of band.
package wxcc

import (
	"strings"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
	"github.com/jusranda/cctsa-wxccdemobot-commons/logging"
)

// Name is the connector registration name.
const Name = "wxcc"

// Channel names as delivered by the platform.
const (
	ChannelPhone     = "phone"
	ChannelChat      = "chat"
	ChannelSms       = "sms"
	ChannelWhatsApp  = "whatsapp"
	ChannelMessenger = "facebookMessenger"
	ChannelWeb       = "web"
)

// Options configures optional connector behavior.
type Options struct {
	// Logger for seeding diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Connector carries the channel/session seeding rules.
type Connector struct {
	logger logging.Logger
}

var (
	_ core.Connector     = (*Connector)(nil)
	_ core.SessionSeeder = (*Connector)(nil)
)

// New creates a wxcc connector.
func New(optFns ...func(o *Options)) *Connector {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Connector{logger: opts.Logger}
}

// Name returns the connector registration name.
func (c *Connector) Name() string { return Name }

// SeedSession applies the per-channel session defaults from the first
// inbound interaction: addressing fields, identity alias and the side
// channel used for out-of-band messages.
func (c *Connector) SeedSession(s *core.Session, ch core.ChannelInfo) {
	s.Channel = ch.Channel
	s.InteractionID = ch.InteractionID
	s.InteractionSource = ch.InteractionSource
	s.CallingNumber = ch.CallingNumber
	s.CalledNumber = ch.CalledNumber
	s.SmsNumber = ch.SmsNumber
	s.WhatsAppNumber = ch.WhatsAppNumber
	s.FbMessengerID = ch.FbMessengerID
	s.Mail = ch.Mail

	if s.SmsNumber == "" && ch.Channel == ChannelPhone {
		s.SmsNumber = ch.CallingNumber
	}
	s.IdentityAlias = IdentityAlias(s)
	s.SecondChannel = SecondChannel(s)

	c.logger.Debug("session seeded channel=%s second_channel=%s", s.Channel, s.SecondChannel)
}

// IdentityAlias picks the customer-facing identity for journey correlation:
// email when known, otherwise the best phone address.
func IdentityAlias(s *core.Session) string {
	switch {
	case s.Mail != "":
		return s.Mail
	case s.SmsNumber != "":
		return s.SmsNumber
	case s.CallingNumber != "":
		return s.CallingNumber
	case s.WhatsAppNumber != "":
		return s.WhatsAppNumber
	default:
		return s.FbMessengerID
	}
}

// SecondChannel picks the out-of-band channel for OTP and reset-link
// delivery: sms when a texting address exists, otherwise email.
func SecondChannel(s *core.Session) string {
	if s.SmsNumber != "" || s.CallingNumber != "" || s.WhatsAppNumber != "" {
		return "sms"
	}
	return "email"
}

// SecondChannelAddress returns the destination for the session's side
// channel.
func SecondChannelAddress(s *core.Session) string {
	if SecondChannel(s) == "sms" {
		if s.SmsNumber != "" {
			return s.SmsNumber
		}
		if s.CallingNumber != "" {
			return s.CallingNumber
		}
		return s.WhatsAppNumber
	}
	return s.Mail
}

// Format10DPhoneNumber reduces a phone number to its 10-digit national form,
// dropping formatting characters and a leading 1 country code. Numbers that
// do not reduce to 10 digits are returned digits-only.
func Format10DPhoneNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && strings.HasPrefix(digits, "1") {
		return digits[1:]
	}
	return digits
}
