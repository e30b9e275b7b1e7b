package core

import (
	"fmt"
	"sync"
)

// Sequence is an immutable definition of one conversational module,
// registered once at startup. Name doubles as the context-store key.
type Sequence struct {
	// Name uniquely identifies the sequence and keys its local context.
	Name string

	// Activity is a human label used in course-correction phrasing, e.g.
	// "verifying your identity".
	Activity string

	// IdentityRequired and AuthRequired gate entry into the sequence.
	IdentityRequired bool
	AuthRequired     bool

	// BreakIntents lists action names this sequence handles even while a
	// different sequence is on top of the stack. Once declared a break rule
	// is unconditionally active.
	BreakIntents []string

	// RetainOnPop keeps the sequence context when the sequence is popped, so
	// a later re-push resumes with prior state. The default (false) discards
	// the context on pop; a second pass starts clean.
	RetainOnPop bool

	// NewContext returns a fresh, typed local-state instance.
	NewContext func() Context

	// Navigate computes the next Action from session + context state. It is
	// evaluated after every handler run and must be idempotent with respect
	// to state it does not itself mutate.
	Navigate func(dc *DialogContext) Action

	// CreateCase optionally builds the ticket template used when this flow
	// opens or annotates a case.
	CreateCase func(dc *DialogContext) Case
}

// IsBreakIntent reports whether action is declared in the sequence's break
// intent list.
func (s *Sequence) IsBreakIntent(action string) bool {
	for _, a := range s.BreakIntents {
		if a == action {
			return true
		}
	}
	return false
}

// SequenceRegistry maps sequence name to definition. Registration order is
// preserved because break-intent resolution scans sequences in the order
// their modules were registered.
type SequenceRegistry struct {
	mu        sync.RWMutex
	sequences map[string]*Sequence
	order     []string
}

// NewSequenceRegistry constructs an empty registry.
func NewSequenceRegistry() *SequenceRegistry {
	return &SequenceRegistry{sequences: make(map[string]*Sequence)}
}

// Register validates and adds a sequence definition. Duplicate names and
// definitions without a Name, NewContext or Navigate function are rejected
// so configuration gaps surface at startup rather than mid-conversation.
func (r *SequenceRegistry) Register(seq *Sequence) error {
	if seq == nil || seq.Name == "" {
		return fmt.Errorf("sequence must have a name")
	}
	if seq.NewContext == nil {
		return fmt.Errorf("sequence %q: NewContext is required", seq.Name)
	}
	if seq.Navigate == nil {
		return fmt.Errorf("sequence %q: Navigate is required", seq.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sequences[seq.Name]; ok {
		return fmt.Errorf("sequence %q: %w", seq.Name, ErrDuplicateSequence)
	}
	r.sequences[seq.Name] = seq
	r.order = append(r.order, seq.Name)
	return nil
}

// Get returns the sequence definition for name.
func (r *SequenceRegistry) Get(name string) (*Sequence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seq, ok := r.sequences[name]
	if !ok {
		return nil, fmt.Errorf("sequence %q: %w", name, ErrUnknownSequence)
	}
	return seq, nil
}

// Names returns all registered sequence names in registration order.
func (r *SequenceRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
