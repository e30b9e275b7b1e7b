package core

import (
	"fmt"
	"time"
)

// Session is the canonical mutable state for one conversation. It tracks the
// ordered stack of active sequences, dialog counters, channel and identity
// attributes, and the course-correction bookkeeping fields.
//
// Contract:
//   - All mutations happen inside the engine's per-session turn lock; the
//     struct itself carries no synchronization.
//   - The stack is never empty after initialization; PopSequence rejects a
//     pop that would empty it.
//   - Clone performs deep copies of slices for safe divergence.
type Session struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`

	// SequenceStack holds active sequence names, most recent last.
	SequenceStack []string `json:"sequenceStack"`

	// Dialog counters.
	HelpCounter     int `json:"helpCounter"`
	FallbackCounter int `json:"fallbackCounter"`
	NoInputCounter  int `json:"noInputCounter"`

	// Channel and addressing attributes seeded from the inbound interaction.
	Channel           string `json:"channel"`
	InteractionID     string `json:"interactionId"`
	InteractionSource string `json:"interactionSource"`
	CallingNumber     string `json:"callingNumber"`
	CalledNumber      string `json:"calledNumber"`
	SmsNumber         string `json:"smsNumber"`
	WhatsAppNumber    string `json:"whatsAppNumber"`
	FbMessengerID     string `json:"fbMessengerId"`
	Mail              string `json:"mail"`
	SecondChannel     string `json:"secondChannel"`

	// Customer identity.
	CustomerIdentified bool   `json:"customerIdentified"`
	CustomerValidated  bool   `json:"customerValidated"`
	CustomerFirstName  string `json:"customerFirstName"`
	CustomerLastName   string `json:"customerLastName"`
	CustomerAccountID  string `json:"customerAccountId"`
	IdentityAlias      string `json:"identityAlias"`

	// Ticketing.
	TicketUserID   string `json:"ticketUserId"`
	TicketNumber   string `json:"ticketNumber"`
	OpenCaseID     string `json:"openCaseId"`
	AdvisoryNotice string `json:"advisoryNotice"`
	CompanyName    string `json:"companyName"`

	// Agent escalation offer state.
	OfferedAgent         bool `json:"offeredAgent"`
	OfferedAgentAccepted bool `json:"offeredAgentAccepted"`
	OfferedAgentDeclined bool `json:"offeredAgentDeclined"`

	// Skill routing bookkeeping.
	TriggeredSkill bool `json:"triggeredSkill"`
	SayGoodbye     bool `json:"sayGoodbye"`
	SaidGoodbye    bool `json:"saidGoodbye"`

	// Course correction bookkeeping.
	LastEvent           string `json:"lastEvent"`
	LastAction          string `json:"lastAction"`
	LastFulfillmentText string `json:"lastFulfillmentText"`
}

// NewSession creates a session with the given id and initial sequence stack.
// The stack must be non-empty; the bottom element is the root sequence that
// can never be popped.
func NewSession(id string, initialStack ...string) *Session {
	now := time.Now().UTC()
	stack := make([]string, len(initialStack))
	copy(stack, initialStack)
	return &Session{ID: id, Created: now, Updated: now, SequenceStack: stack}
}

// CurrentSequence returns the name on top of the sequence stack, or "" when
// the stack is empty (only possible before initialization).
func (s *Session) CurrentSequence() string {
	if len(s.SequenceStack) == 0 {
		return ""
	}
	return s.SequenceStack[len(s.SequenceStack)-1]
}

// PushSequence appends name to the stack making it the current sequence.
func (s *Session) PushSequence(name string) {
	s.SequenceStack = append(s.SequenceStack, name)
	s.Updated = time.Now().UTC()
}

// PopSequence removes the top of the stack. The asserted name must equal the
// current top, and the pop must not empty the stack.
func (s *Session) PopSequence(name string) error {
	if len(s.SequenceStack) <= 1 {
		return fmt.Errorf("pop %q: %w", name, ErrSequenceStackEmpty)
	}
	if top := s.CurrentSequence(); top != name {
		return fmt.Errorf("pop %q but top is %q: %w", name, top, ErrSequenceStackMismatch)
	}
	s.SequenceStack = s.SequenceStack[:len(s.SequenceStack)-1]
	s.Updated = time.Now().UTC()
	return nil
}

// StackContains reports whether name is anywhere on the sequence stack.
func (s *Session) StackContains(name string) bool {
	for _, n := range s.SequenceStack {
		if n == name {
			return true
		}
	}
	return false
}

// ResetOfferedAgentFlags clears the escalation offer state so a later flow
// can run the offer again from scratch.
func (s *Session) ResetOfferedAgentFlags() {
	s.OfferedAgent = false
	s.OfferedAgentAccepted = false
	s.OfferedAgentDeclined = false
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	clone := *s
	clone.SequenceStack = make([]string, len(s.SequenceStack))
	copy(clone.SequenceStack, s.SequenceStack)
	return &clone
}

// SessionStore persists sessions across turns. Implementations must be safe
// for concurrent use; per-session write ordering is guaranteed by the engine.
type SessionStore interface {
	// Get returns the stored session, or ErrSessionNotFound when no session
	// exists for the id.
	Get(id string) (*Session, error)

	// GetOrCreate returns the stored session or creates one via seed when no
	// session exists for the id. The seed function receives the id and must
	// return a fully initialized session.
	GetOrCreate(id string, seed func(id string) *Session) (*Session, error)

	// Save persists the session snapshot.
	Save(s *Session) error

	// Delete removes the session and all derived state.
	Delete(id string) error
}
