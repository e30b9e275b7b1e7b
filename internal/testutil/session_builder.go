package testutil

import (
	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
)

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("sess-1").Stack("common", "welcome").Identified("Anita", "Nichols", "123456").Build()
type SessionBuilder struct {
	id   string
	sess *core.Session
}

// NewSessionBuilder creates a new builder for a session with the given id and
// a single-element "common" stack. Use chainable methods then call Build.
func NewSessionBuilder(id string) *SessionBuilder {
	return &SessionBuilder{id: id, sess: core.NewSession(id, "common")}
}

// Stack replaces the sequence stack, bottom first (chainable).
func (b *SessionBuilder) Stack(names ...string) *SessionBuilder {
	b.sess.SequenceStack = append([]string(nil), names...)
	return b
}

// Identified marks the customer as identified with the given name and account
// number (chainable).
func (b *SessionBuilder) Identified(first, last, accountID string) *SessionBuilder {
	b.sess.CustomerIdentified = true
	b.sess.CustomerFirstName = first
	b.sess.CustomerLastName = last
	b.sess.CustomerAccountID = accountID
	return b
}

// Validated marks the customer as identity-verified (chainable).
func (b *SessionBuilder) Validated() *SessionBuilder {
	b.sess.CustomerValidated = true
	return b
}

// SideChannel sets the side channel and its address: the SMS number for
// "sms", the mail address otherwise (chainable).
func (b *SessionBuilder) SideChannel(channel, address string) *SessionBuilder {
	b.sess.SecondChannel = channel
	if channel == "sms" {
		b.sess.SmsNumber = address
	} else {
		b.sess.Mail = address
	}
	return b
}

// Build returns the assembled *core.Session.
func (b *SessionBuilder) Build() *core.Session {
	return b.sess
}
