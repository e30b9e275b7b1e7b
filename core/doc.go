// Package core provides the foundational domain types, interfaces and the
// per-turn execution context used by the dialogue orchestration engine. It
// defines the core abstractions for:
//
//   - Sessions (stateful conversational containers with a sequence stack)
//   - Sequences (named conversational modules with local state and a
//     navigation state machine)
//   - Intents (handlers bound to an action name scoped to one sequence)
//   - Actions (the navigator's decision: respond with text or re-dispatch
//     a synthetic event)
//   - DialogContext (scoped execution facade handed to handlers/navigators)
//   - Pluggable stores for session state and sequence-local contexts
//   - A name-keyed connector manager decoupling flows from external systems
//
// The package intentionally keeps implementation concerns (persistence,
// engine orchestration, concrete flows and connectors) out of scope,
// exposing small interfaces to enable custom backends and extensions.
package core
