package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
	"github.com/jusranda/cctsa-wxccdemobot-commons/logging"
	"github.com/jusranda/cctsa-wxccdemobot-commons/session"
)

// Config defines tuning parameters for the Engine's dispatch behavior.
type Config struct {
	// MaxDispatchDepth limits how many synthetic re-dispatches (event
	// responses and continue-navigations) a single turn may perform before
	// the engine aborts it as a flow loop. Set to 0 for unlimited (not
	// recommended).
	MaxDispatchDepth int

	// InitialSequences is the sequence stack seeded into every new session,
	// bottom first. The bottom element is the root sequence and can never be
	// popped.
	InitialSequences []string

	// AuthSequence is pushed automatically when navigation reaches a
	// sequence whose AuthRequired or IdentityRequired flag is set and the
	// session is not yet validated or identified.
	AuthSequence string
}

// DefaultConfig provides production-ready default configuration values.
//
// The dispatch depth of 25 is far above what any legitimate flow chain
// needs while still catching navigator loops quickly. The initial stack
// places the break-intent host at the bottom and the greeting flow on top.
var DefaultConfig = Config{
	MaxDispatchDepth: 25,
	InitialSequences: []string{"common", "welcome"},
	AuthSequence:     "authentication",
}

// Options configures an Engine instance using the functional options pattern.
//
// All dependencies default to in-memory implementations, making the zero
// configuration suitable for development and testing. Production deployments
// provide durable stores and a real logger.
//
// Example:
//
//	eng := engine.New(func(o *engine.Options) {
//	    o.SessionStore = sqliteStore
//	    o.ContextStore = sqliteStore
//	    o.Logger = logger
//	})
type Options struct {
	// Config contains operational parameters for dispatch behavior.
	// Defaults to DefaultConfig if not specified.
	Config Config

	// SessionStore persists sessions across turns.
	// Defaults to an in-memory implementation.
	SessionStore core.SessionStore

	// ContextStore persists per-sequence local contexts.
	// Defaults to an in-memory implementation.
	ContextStore core.ContextStore

	// Sequences, Intents, Connectors and Cases are the registries the engine
	// dispatches against. Fresh empty registries are created when nil, but
	// callers composing several engines may share pre-built ones.
	Sequences  *core.SequenceRegistry
	Intents    *core.IntentRegistry
	Connectors *core.ConnectorManager
	Cases      *core.CaseTemplates

	// Callbacks receives turn lifecycle notifications. Defaults to an empty
	// manager.
	Callbacks *CallbackManager

	// Seeder applies channel-specific defaults to brand-new sessions. When
	// nil a minimal built-in seeding copies the addressing fields and picks
	// the side channel.
	Seeder core.SessionSeeder

	// Logger provides structured logging. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Engine is the dialog dispatcher. It owns the registries, serializes turns
// per session, and runs the dispatch loop that carries an inbound action
// through handler invocation, navigation and synthetic re-dispatch until a
// terminal text response is produced.
//
// Concurrency model:
//   - Turns for the same session are strictly sequential via a keyed mutex.
//   - Turns for distinct sessions proceed in parallel.
//   - All registries are safe for concurrent reads during dispatch.
//
// Atomicity: each turn mutates a working copy of the session; the copy and
// all touched sequence contexts are persisted only after the turn completes
// without error. A failed turn leaves the stored session unchanged.
type Engine struct {
	sessions core.SessionStore
	contexts core.ContextStore

	sequences  *core.SequenceRegistry
	intents    *core.IntentRegistry
	connectors *core.ConnectorManager
	cases      *core.CaseTemplates

	callbacks *CallbackManager
	seeder    core.SessionSeeder
	logger    logging.Logger
	config    Config

	turnLocks map[string]*sync.Mutex
	locksMu   sync.Mutex
}

var _ core.Dispatcher = (*Engine)(nil)

// New creates an Engine with sensible defaults and optional configuration.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config:       DefaultConfig,
		SessionStore: session.NewInMemoryStore(),
		ContextStore: session.NewInMemoryContextStore(),
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Sequences == nil {
		opts.Sequences = core.NewSequenceRegistry()
	}
	if opts.Intents == nil {
		opts.Intents = core.NewIntentRegistry()
	}
	if opts.Connectors == nil {
		opts.Connectors = core.NewConnectorManager()
	}
	if opts.Cases == nil {
		opts.Cases = core.NewCaseTemplates()
	}
	if opts.Callbacks == nil {
		opts.Callbacks = NewCallbackManager()
	}
	if opts.Config.MaxDispatchDepth == 0 {
		opts.Config.MaxDispatchDepth = DefaultConfig.MaxDispatchDepth
	}
	if len(opts.Config.InitialSequences) == 0 {
		opts.Config.InitialSequences = DefaultConfig.InitialSequences
	}
	if opts.Config.AuthSequence == "" {
		opts.Config.AuthSequence = DefaultConfig.AuthSequence
	}

	return &Engine{
		sessions:   opts.SessionStore,
		contexts:   opts.ContextStore,
		sequences:  opts.Sequences,
		intents:    opts.Intents,
		connectors: opts.Connectors,
		cases:      opts.Cases,
		callbacks:  opts.Callbacks,
		seeder:     opts.Seeder,
		logger:     opts.Logger,
		config:     opts.Config,
		turnLocks:  make(map[string]*sync.Mutex),
	}
}

// Sequences returns the engine's sequence registry.
func (e *Engine) Sequences() *core.SequenceRegistry { return e.sequences }

// Intents returns the engine's intent registry.
func (e *Engine) Intents() *core.IntentRegistry { return e.intents }

// Connectors returns the engine's connector manager.
func (e *Engine) Connectors() *core.ConnectorManager { return e.connectors }

// Cases returns the engine's case template registry.
func (e *Engine) Cases() *core.CaseTemplates { return e.cases }

// GetSession retrieves the stored session snapshot by id, or
// core.ErrSessionNotFound when no conversation with that id exists.
// Primarily used for debugging and tests; normal flow code reads the
// session through the DialogContext.
func (e *Engine) GetSession(sessionID string) (*core.Session, error) {
	return e.sessions.Get(sessionID)
}

// HandleTurn processes one inbound turn to completion.
//
// Dispatch loop:
//  1. Resolve the action to an intent handler (current sequence first, then
//     break-intent declarations, then any registration, in registration
//     order).
//  2. Invoke the handler exactly once for the dispatched action.
//  3. Break intents terminate the turn with the fulfillment buffer right
//     after their handler; everything else runs the top sequence's
//     navigator, following continue-actions across pops until a text or
//     event decision is reached.
//  4. On an event decision, re-enter the loop with the synthetic event as
//     the new action; on a text decision, the turn terminates.
//
// Every synthetic re-dispatch counts against MaxDispatchDepth; exceeding it
// aborts the turn with core.ErrDispatchLimit.
func (e *Engine) HandleTurn(ctx context.Context, input core.TurnInput) (core.TurnResult, error) {
	if input.SessionID == "" {
		return core.TurnResult{}, fmt.Errorf("turn input: session id is required")
	}
	if input.Action == "" {
		return core.TurnResult{}, fmt.Errorf("turn input: action is required")
	}

	unlock := e.lockSession(input.SessionID)
	defer unlock()

	stored, err := e.sessions.GetOrCreate(input.SessionID, func(id string) *core.Session {
		return e.seedSession(id, input.Channel)
	})
	if err != nil {
		return core.TurnResult{}, fmt.Errorf("get session %q: %w", input.SessionID, err)
	}

	// Work on a copy so a failed turn leaves stored state untouched.
	sess := stored.Clone()
	turnID := uuid.NewString()

	dc := core.NewDialogContext(ctx, sess, e.sequences, e.intents, e.connectors, e.cases, e.contexts, e.logger)
	if input.Slots != nil {
		dc.Slots = input.Slots
	}

	cbCtx := &CallbackContext{Session: sess, Input: &input, TurnID: turnID}
	if err := e.callbacks.Execute(ctx, CallbackBeforeTurn, cbCtx); err != nil {
		return core.TurnResult{}, fmt.Errorf("before-turn callback: %w", err)
	}

	limiter := core.NewDispatchLimiter(e.config.MaxDispatchDepth)
	started := time.Now()
	text, err := e.dispatch(dc, input.Action, input.FulfillmentText, limiter)
	if tl, ok := e.logger.(turnLogger); ok {
		tl.LogTurn(input.Action, limiter.Count(), time.Since(started), err == nil, err)
	}
	if err != nil {
		cbCtx.Err = err
		if cberr := e.callbacks.Execute(ctx, CallbackOnError, cbCtx); cberr != nil {
			e.logger.Warn("on-error callback failed: %v", cberr)
		}
		return core.TurnResult{}, err
	}

	sess.Updated = time.Now().UTC()
	for _, name := range dc.DroppedContexts() {
		if err := e.contexts.Delete(sess.ID, name); err != nil {
			return core.TurnResult{}, fmt.Errorf("discard context %q: %w", name, err)
		}
	}
	for name, c := range dc.TouchedContexts() {
		if err := e.contexts.Save(sess.ID, name, c); err != nil {
			return core.TurnResult{}, fmt.Errorf("save context %q: %w", name, err)
		}
	}
	if err := e.sessions.Save(sess); err != nil {
		return core.TurnResult{}, fmt.Errorf("save session %q: %w", sess.ID, err)
	}

	if err := e.callbacks.Execute(ctx, CallbackAfterTurn, cbCtx); err != nil {
		e.logger.Warn("after-turn callback failed: %v", err)
	}

	return core.TurnResult{
		SessionID:       sess.ID,
		TurnID:          turnID,
		FulfillmentText: text,
		CurrentSequence: sess.CurrentSequence(),
	}, nil
}

// turnLogger is implemented by loggers that record per-turn dispatch
// telemetry, like logging.ConvoLogger. Plain loggers skip it.
type turnLogger interface {
	LogTurn(action string, dispatches int, dur time.Duration, success bool, err error)
}

// dispatch runs the action/navigate trampoline and returns the terminal text.
func (e *Engine) dispatch(dc *core.DialogContext, action, inboundText string, limiter *core.DispatchLimiter) (string, error) {
	sess := dc.Session

	for {
		intent, err := e.resolveIntent(sess, action)
		if err != nil {
			return "", err
		}

		dc.CurrentAction = action
		sess.LastAction = action
		if inboundText == "" {
			inboundText = intent.Prompt
		}
		dc.InboundText = inboundText

		e.logger.Debug("dispatch action=%s sequence=%s session_id=%s", action, sess.CurrentSequence(), sess.ID)

		if err := intent.Handler(dc); err != nil {
			return "", fmt.Errorf("handle %q: %w", action, err)
		}

		// Break intents respond directly after their handler instead of
		// navigating: they carry the question or interjection the flow is
		// now waiting on, and running the navigator would immediately
		// re-emit the pending step on top of it.
		if owner, oerr := e.sequences.Get(intent.SequenceName); oerr == nil {
			if owner.IsBreakIntent(action) || owner.IsBreakIntent(intent.Action) {
				return sess.LastFulfillmentText, nil
			}
		}

		act, err := e.navigate(dc, limiter)
		if err != nil {
			return "", err
		}

		switch act.Kind {
		case core.ActionText:
			text := act.Text
			if text == "" {
				text = sess.LastFulfillmentText
			}
			sess.LastFulfillmentText = text
			return text, nil

		case core.ActionEvent:
			if err := limiter.Increment(); err != nil {
				return "", fmt.Errorf("event %q: %w", act.Event, err)
			}
			sess.LastEvent = act.Event
			sess.LastFulfillmentText = act.Text
			action = act.Event
			inboundText = ""

		default:
			return "", fmt.Errorf("navigator for %q returned unresolved continue", sess.CurrentSequence())
		}
	}
}

// navigate runs the top sequence's navigator, following continue-actions
// (produced by PopSequenceAndNavigate) until a text or event decision
// settles. Each continue counts against the dispatch limiter.
//
// Sequences flagged AuthRequired or IdentityRequired are gated: when the
// session has not yet been validated (or identified), the configured auth
// sequence is pushed and navigated first. The gated sequence resumes once
// authentication pops itself off the stack.
func (e *Engine) navigate(dc *core.DialogContext, limiter *core.DispatchLimiter) (core.Action, error) {
	for {
		current := dc.Session.CurrentSequence()
		seq, err := e.sequences.Get(current)
		if err != nil {
			return core.Action{}, err
		}

		if gate := e.config.AuthSequence; gate != "" && current != gate &&
			!dc.Session.StackContains(gate) &&
			(seq.AuthRequired && !dc.Session.CustomerValidated ||
				seq.IdentityRequired && !dc.Session.CustomerIdentified) {
			if err := dc.PushSequence(gate); err != nil {
				return core.Action{}, fmt.Errorf("auth gate for %q: %w", current, err)
			}
			if err := limiter.Increment(); err != nil {
				return core.Action{}, fmt.Errorf("auth gate for %q: %w", current, err)
			}
			continue
		}

		act := seq.Navigate(dc)
		if act.Kind != core.ActionContinue {
			return act, nil
		}
		if err := limiter.Increment(); err != nil {
			return core.Action{}, fmt.Errorf("navigate %q: %w", current, err)
		}
	}
}

// resolveIntent finds the handler for an action. The current sequence's own
// registration wins; next, any sequence that declares the action as a break
// intent may handle it without a stack change, scanned in registration
// order. Finally the scan falls back to any registration at all, which is
// how synthetic events and cross-cutting skills reach their owning
// sequence's handler while an unrelated sequence is current.
func (e *Engine) resolveIntent(sess *core.Session, action string) (*core.Intent, error) {
	current := sess.CurrentSequence()
	if in, ok := e.intents.Resolve(action, current); ok {
		return in, nil
	}

	for _, name := range e.sequences.Names() {
		if name == current {
			continue
		}
		seq, err := e.sequences.Get(name)
		if err != nil || !seq.IsBreakIntent(action) {
			continue
		}
		if in, ok := e.intents.Resolve(action, name); ok {
			return in, nil
		}
	}

	for _, name := range e.sequences.Names() {
		if name == current {
			continue
		}
		if in, ok := e.intents.Resolve(action, name); ok {
			return in, nil
		}
	}

	return nil, fmt.Errorf("action %q in sequence %q: %w", action, current, core.ErrNoHandler)
}

// seedSession builds the initial session for a brand-new conversation,
// copying channel addressing from the first inbound turn.
func (e *Engine) seedSession(id string, ch core.ChannelInfo) *core.Session {
	s := core.NewSession(id, e.config.InitialSequences...)
	if e.seeder != nil {
		e.seeder.SeedSession(s, ch)
		return s
	}

	s.Channel = ch.Channel
	s.InteractionID = ch.InteractionID
	s.InteractionSource = ch.InteractionSource
	s.CallingNumber = ch.CallingNumber
	s.CalledNumber = ch.CalledNumber
	s.SmsNumber = ch.SmsNumber
	s.WhatsAppNumber = ch.WhatsAppNumber
	s.FbMessengerID = ch.FbMessengerID
	s.Mail = ch.Mail

	// A reachable SMS address makes text the side channel, otherwise email.
	switch {
	case ch.SmsNumber != "" || ch.CallingNumber != "":
		s.SecondChannel = "sms"
	default:
		s.SecondChannel = "email"
	}
	return s
}

// lockSession acquires the per-session turn lock, returning the unlock func.
func (e *Engine) lockSession(sessionID string) func() {
	e.locksMu.Lock()
	mu, ok := e.turnLocks[sessionID]
	if !ok {
		mu = &sync.Mutex{}
		e.turnLocks[sessionID] = mu
	}
	e.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}
