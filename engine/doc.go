// Package engine implements the dialog dispatch layer.
//
// The Engine is the single entry point for inbound turns. Given a recognized
// action it resolves the responsible intent handler, invokes it exactly
// once, then runs the current sequence's navigator to decide what happens
// next: respond with text (terminating the turn), respond with a synthetic
// event (re-entering dispatch within the same turn), or continue navigation
// after a sequence pop. Synthetic re-dispatch is bounded by a configurable
// depth limit so a misbehaving flow surfaces as an error instead of a hang.
//
// # Dispatch Resolution
//
// An action is resolved against the sequence on top of the stack first. If
// the current sequence has no registration for it, every registered sequence
// that declares the action as a break intent is consulted in registration
// order. Break-intent dispatch never changes the stack; the owning handler
// runs while the interrupted sequence remains on top.
//
// # State Model
//
// Each turn operates on a working copy of the session plus the lazily-loaded
// local contexts of any sequences it touches. All of it is persisted in one
// commit after the turn succeeds; a failed turn leaves stored state exactly
// as it was. Turns for the same session are serialized with a keyed mutex
// while distinct sessions dispatch in parallel.
//
// # Example
//
//	eng := engine.New(func(o *engine.Options) {
//	    o.SessionStore = store
//	    o.ContextStore = store
//	    o.Logger = logger
//	})
//
//	// register sequences, intents, connectors ...
//
//	res, err := eng.HandleTurn(ctx, core.TurnInput{
//	    SessionID: "session-1",
//	    Action:    "input.welcome",
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.FulfillmentText)
package engine
