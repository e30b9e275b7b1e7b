package core

import "errors"

// Sentinel errors returned by registries, stores and the engine. Callers
// should match them with errors.Is since they are usually wrapped with
// additional context (action name, sequence name, connector name).
var (
	// ErrNoHandler indicates a routing gap: no intent handler is registered
	// for the resolved (action, sequence) pair and no break intent matched.
	ErrNoHandler = errors.New("no intent handler registered")

	// ErrUnknownSequence indicates a lookup for a sequence name that was
	// never registered.
	ErrUnknownSequence = errors.New("sequence not registered")

	// ErrDuplicateSequence indicates a second registration under an already
	// taken sequence name.
	ErrDuplicateSequence = errors.New("sequence already registered")

	// ErrDuplicateIntent indicates a second registration for the same
	// (action, sequence) pair.
	ErrDuplicateIntent = errors.New("intent already registered")

	// ErrConnectorNotRegistered indicates a connector lookup by a name that
	// was never registered with the ConnectorManager.
	ErrConnectorNotRegistered = errors.New("connector not registered")

	// ErrSessionNotFound indicates a session read for an id no conversation
	// has been started under.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSequenceStackEmpty indicates a pop that would empty the sequence
	// stack. The stack is never empty after session initialization.
	ErrSequenceStackEmpty = errors.New("sequence stack cannot be emptied")

	// ErrSequenceStackMismatch indicates a pop whose asserted sequence name
	// does not match the current top of the stack.
	ErrSequenceStackMismatch = errors.New("sequence stack top mismatch")

	// ErrDispatchLimit indicates the synthetic event re-dispatch ceiling was
	// reached without a terminal text response; a flow is looping.
	ErrDispatchLimit = errors.New("dispatch depth limit exceeded")
)
