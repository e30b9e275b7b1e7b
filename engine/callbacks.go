package engine

import (
	"context"
	"fmt"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
)

// CallbackType names the lifecycle points where callbacks run.
//
// Callbacks hook into the turn pipeline without modifying dispatch logic.
// They run synchronously; a BeforeTurn callback returning an error aborts
// the turn before any handler executes.
type CallbackType string

const (
	// CallbackBeforeTurn runs before the turn's first handler. Use for
	// validation, auditing or instrumentation.
	CallbackBeforeTurn CallbackType = "before_turn"

	// CallbackAfterTurn runs after the turn has committed. Errors are logged
	// but do not affect the result.
	CallbackAfterTurn CallbackType = "after_turn"

	// CallbackOnError runs when a turn fails after dispatch has started.
	CallbackOnError CallbackType = "on_error"
)

// CallbackContext carries the turn information available to callbacks.
type CallbackContext struct {
	// Session is the working session copy for the turn. BeforeTurn callbacks
	// observe pre-dispatch state; AfterTurn callbacks observe the committed
	// result.
	Session *core.Session

	// Input is the inbound turn that started dispatch.
	Input *core.TurnInput

	// TurnID uniquely identifies the turn.
	TurnID string

	// Err is set for on-error callbacks.
	Err error

	// Metadata provides extensible storage for custom callback data.
	Metadata map[string]any
}

// Callback is a turn lifecycle hook.
type Callback interface {
	// Type returns the lifecycle point this callback handles.
	Type() CallbackType

	// Execute performs the callback logic. For before-turn callbacks a
	// returned error aborts the turn.
	Execute(ctx context.Context, cbCtx *CallbackContext) error
}

// FunctionCallback wraps a plain function as a Callback.
//
// Example:
//
//	audit := engine.NewFunctionCallback(engine.CallbackBeforeTurn,
//	    func(ctx context.Context, cb *engine.CallbackContext) error {
//	        log.Printf("turn %s action=%s", cb.TurnID, cb.Input.Action)
//	        return nil
//	    })
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, cbCtx *CallbackContext) error
}

// NewFunctionCallback creates a function-based callback for one lifecycle
// point.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, cbCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{callbackType: callbackType, fn: fn}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType { return c.callbackType }

// Execute calls the wrapped function.
func (c *FunctionCallback) Execute(ctx context.Context, cbCtx *CallbackContext) error {
	return c.fn(ctx, cbCtx)
}

// CallbackManager routes lifecycle notifications to registered callbacks.
//
// Callbacks run in registration order; the first error stops the chain.
// Registration is not thread-safe and should complete during startup, after
// which concurrent execution is safe.
type CallbackManager struct {
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates an empty manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{callbacks: make(map[CallbackType][]Callback)}
}

// Register adds a callback under its declared type.
func (cm *CallbackManager) Register(cb Callback) {
	t := cb.Type()
	cm.callbacks[t] = append(cm.callbacks[t], cb)
}

// Execute runs all callbacks registered for the given type in order,
// stopping at the first error.
func (cm *CallbackManager) Execute(ctx context.Context, t CallbackType, cbCtx *CallbackContext) error {
	for _, cb := range cm.callbacks[t] {
		if err := cb.Execute(ctx, cbCtx); err != nil {
			return err
		}
	}
	return nil
}

// LoggingCallback forwards turn lifecycle events to a logging function. It
// is useful for audit trails without wiring a full logger into flow code.
type LoggingCallback struct {
	callbackType CallbackType
	logger       func(message string)
}

// NewLoggingCallback creates a logging callback for one lifecycle point.
func NewLoggingCallback(callbackType CallbackType, logger func(message string)) *LoggingCallback {
	return &LoggingCallback{callbackType: callbackType, logger: logger}
}

// Type returns the callback type this logger handles.
func (c *LoggingCallback) Type() CallbackType { return c.callbackType }

// Execute logs the turn event with session and action details.
func (c *LoggingCallback) Execute(ctx context.Context, cbCtx *CallbackContext) error {
	if c.logger == nil {
		return nil
	}
	action := ""
	if cbCtx.Input != nil {
		action = cbCtx.Input.Action
	}
	c.logger(fmt.Sprintf("[%s] turn=%s session=%s action=%s",
		c.callbackType, cbCtx.TurnID, cbCtx.Session.ID, action))
	return nil
}
