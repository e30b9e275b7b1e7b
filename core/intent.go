package core

import (
	"fmt"
	"sync"
)

// IntentHandler reacts to one recognized action within one sequence. Its
// only observable effects are mutations to the session and sequence
// contexts, connector calls, and updates to the pending fulfillment text.
type IntentHandler func(dc *DialogContext) error

// Intent binds an action name, scoped to a sequence, to a handler.
type Intent struct {
	// Action is the identifier produced by intent recognition.
	Action string

	// Events lists synthetic event names that alias this intent: when a
	// navigator responds with one of these events, the engine dispatches it
	// to this handler. Mirrors the recognizer-side event-to-intent binding.
	Events []string

	// SequenceName scopes the handler. The same Action may be registered
	// under different sequences.
	SequenceName string

	// Prompt is optional static fulfillment text used when the inbound turn
	// carries no recognizer-provided text (typically synthetic event turns).
	Prompt string

	// Handler runs when the intent is dispatched.
	Handler IntentHandler
}

// IntentRegistry resolves (action, sequence) pairs to intents. Event aliases
// are folded into the action namespace at registration time.
type IntentRegistry struct {
	mu      sync.RWMutex
	intents map[string]map[string]*Intent // action -> sequence -> intent
}

// NewIntentRegistry constructs an empty registry.
func NewIntentRegistry() *IntentRegistry {
	return &IntentRegistry{intents: make(map[string]map[string]*Intent)}
}

// Register adds an intent under its action name and every event alias.
// Duplicate (action, sequence) pairs are rejected.
func (r *IntentRegistry) Register(in *Intent) error {
	if in == nil || in.Action == "" {
		return fmt.Errorf("intent must have an action name")
	}
	if in.SequenceName == "" {
		return fmt.Errorf("intent %q: sequence name is required", in.Action)
	}
	if in.Handler == nil {
		return fmt.Errorf("intent %q: handler is required", in.Action)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range append([]string{in.Action}, in.Events...) {
		bySeq, ok := r.intents[name]
		if !ok {
			bySeq = make(map[string]*Intent)
			r.intents[name] = bySeq
		}
		if _, exists := bySeq[in.SequenceName]; exists {
			return fmt.Errorf("intent %q in sequence %q: %w", name, in.SequenceName, ErrDuplicateIntent)
		}
		bySeq[in.SequenceName] = in
	}
	return nil
}

// RegisterAll registers one shared handler under several action names, all
// scoped to the same sequence.
func (r *IntentRegistry) RegisterAll(actions []string, sequenceName string, handler IntentHandler) error {
	for _, action := range actions {
		if err := r.Register(&Intent{Action: action, SequenceName: sequenceName, Handler: handler}); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the intent registered for (action, sequenceName).
func (r *IntentRegistry) Resolve(action, sequenceName string) (*Intent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bySeq, ok := r.intents[action]
	if !ok {
		return nil, false
	}
	in, ok := bySeq[sequenceName]
	return in, ok
}

// Handles reports whether any handler exists for action regardless of the
// sequence scope.
func (r *IntentRegistry) Handles(action string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.intents[action]) > 0
}
