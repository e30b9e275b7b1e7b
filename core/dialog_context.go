package core

import (
	"context"
	"fmt"

	"github.com/jusranda/cctsa-wxccdemobot-commons/logging"
)

// DialogContext is the per-turn execution facade handed to intent handlers
// and navigators. It aggregates:
//   - The ambient cancellation Context
//   - The mutable Session and lazily-created sequence contexts
//   - The current action name, recognized slot values and inbound text
//   - The registries, connector manager and case template registry
//
// All session and context mutations flow through this facade inside the
// engine's per-session turn lock, making it the single serialization point
// for state changes.
type DialogContext struct {
	Context context.Context

	Session *Session

	// CurrentAction is the action name being dispatched, updated by the
	// engine on every synthetic re-dispatch within the turn.
	CurrentAction string

	// Slots holds recognizer-provided slot values for the current action.
	Slots map[string]string

	// InboundText is the recognizer-provided fulfillment text for the
	// current action, or the intent's static Prompt on synthetic turns.
	InboundText string

	Sequences  *SequenceRegistry
	Intents    *IntentRegistry
	Connectors *ConnectorManager
	Cases      *CaseTemplates

	contexts ContextStore
	touched  map[string]Context
	dropped  map[string]bool

	*loggerAdapter
}

// NewDialogContext constructs a DialogContext for one turn.
func NewDialogContext(
	ctx context.Context,
	sess *Session,
	sequences *SequenceRegistry,
	intents *IntentRegistry,
	connectors *ConnectorManager,
	cases *CaseTemplates,
	contexts ContextStore,
	logger logging.Logger,
) *DialogContext {
	return &DialogContext{
		Context:       ctx,
		Session:       sess,
		Slots:         map[string]string{},
		Sequences:     sequences,
		Intents:       intents,
		Connectors:    connectors,
		Cases:         cases,
		contexts:      contexts,
		touched:       map[string]Context{},
		dropped:       map[string]bool{},
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Ctx returns the local context for the sequence currently on top of the
// stack, creating it from the sequence's defaults if needed. A store read
// failure is logged and answered with a fresh context so the turn can
// proceed; persistence problems resurface when the turn is committed.
func (dc *DialogContext) Ctx() Context {
	c, err := dc.SequenceContext(dc.Session.CurrentSequence())
	if err != nil {
		dc.LogError("context load failed, starting fresh: %v", err)
		seq, serr := dc.Sequences.Get(dc.Session.CurrentSequence())
		if serr != nil {
			return nil
		}
		c = seq.NewContext()
		dc.touched[seq.Name] = c
	}
	return c
}

// SequenceContext returns the local context for the named sequence, creating
// it lazily from the sequence definition's defaults.
func (dc *DialogContext) SequenceContext(name string) (Context, error) {
	if c, ok := dc.touched[name]; ok {
		return c, nil
	}
	seq, err := dc.Sequences.Get(name)
	if err != nil {
		return nil, err
	}
	if dc.dropped[name] {
		// Re-entered after a pop earlier in the same turn. The stored
		// snapshot is scheduled for discard, so start from the defaults.
		c := seq.NewContext()
		delete(dc.dropped, name)
		dc.touched[name] = c
		return c, nil
	}
	c, err := dc.contexts.GetOrCreate(dc.Session.ID, seq)
	if err != nil {
		return nil, fmt.Errorf("get context for %q: %w", name, err)
	}
	dc.touched[name] = c
	return c, nil
}

// TouchedContexts returns the sequence contexts loaded during this turn,
// keyed by sequence name. The engine persists these when the turn commits.
func (dc *DialogContext) TouchedContexts() map[string]Context {
	return dc.touched
}

// DroppedContexts returns the names of sequence contexts scheduled for
// discard. Discards apply when the turn commits so a failed turn leaves
// stored contexts untouched.
func (dc *DialogContext) DroppedContexts() []string {
	names := make([]string, 0, len(dc.dropped))
	for name := range dc.dropped {
		names = append(names, name)
	}
	return names
}

// PushSequence validates name against the registry and makes it the current
// sequence.
func (dc *DialogContext) PushSequence(name string) error {
	if _, err := dc.Sequences.Get(name); err != nil {
		return err
	}
	dc.Session.PushSequence(name)
	return nil
}

// PopSequence removes the named sequence from the top of the stack. Unless
// the sequence opts into retention, its local context is scheduled for
// discard at turn commit so a later re-push starts clean. The stored
// snapshot is not touched here; a turn that fails after the pop must leave
// it intact.
func (dc *DialogContext) PopSequence(name string) error {
	seq, err := dc.Sequences.Get(name)
	if err != nil {
		return err
	}
	if err := dc.Session.PopSequence(name); err != nil {
		return err
	}
	if !seq.RetainOnPop {
		delete(dc.touched, name)
		dc.dropped[name] = true
	}
	return nil
}

// PopSequenceAndNavigate pops the named sequence and returns a continue
// action instructing the engine to immediately re-run navigation for the new
// top of the stack, so control falls through to the parent's next decision
// without waiting for another user turn.
func (dc *DialogContext) PopSequenceAndNavigate(name string) Action {
	if err := dc.PopSequence(name); err != nil {
		dc.LogError("pop %q: %v", name, err)
		return RespondWithText("")
	}
	return Action{Kind: ActionContinue}
}

// Connector returns the named external-system client.
func (dc *DialogContext) Connector(name string) (Connector, error) {
	return dc.Connectors.Get(name)
}

// SetFulfillmentText replaces the pending fulfillment text. With no argument
// the inbound recognizer text is used.
func (dc *DialogContext) SetFulfillmentText(text ...string) {
	dc.Session.LastFulfillmentText = dc.pickText(text)
}

// AppendFulfillmentText appends to the pending fulfillment text, separating
// fragments with a space. With no argument the inbound recognizer text is
// appended.
func (dc *DialogContext) AppendFulfillmentText(text ...string) {
	t := dc.pickText(text)
	if t == "" {
		return
	}
	if dc.Session.LastFulfillmentText == "" {
		dc.Session.LastFulfillmentText = t
		return
	}
	dc.Session.LastFulfillmentText += "  " + t
}

// SetFulfillmentCourseCorrect replaces the pending fulfillment text with the
// generic course-correction response, reminding the user what activity is in
// progress, and bumps the fallback counter.
func (dc *DialogContext) SetFulfillmentCourseCorrect() {
	activity := "talking"
	if seq, err := dc.Sequences.Get(dc.Session.CurrentSequence()); err == nil && seq.Activity != "" {
		activity = seq.Activity
	}
	dc.Session.FallbackCounter++
	dc.Session.LastFulfillmentText = fmt.Sprintf("Sorry, I didn't catch that.  Right now we were %s.", activity)
}

func (dc *DialogContext) pickText(text []string) string {
	if len(text) > 0 {
		return text[0]
	}
	return dc.InboundText
}
