package core

// Context is the sequence-local state instance for one sequence name within
// one session. Each sequence supplies a typed struct via Sequence.NewContext;
// handlers and navigators type-assert it back to that concrete type, so every
// field a navigator reads is declared at compile time.
type Context any

// ContextStore holds one Context per active (session, sequence) pair. A
// context is created lazily from the sequence definition on first reference
// and deleted when its sequence is popped unless the sequence opts into
// retention (Sequence.RetainOnPop).
type ContextStore interface {
	// GetOrCreate returns the existing context for (sessionID, seq.Name) or
	// instantiates one via seq.NewContext.
	GetOrCreate(sessionID string, seq *Sequence) (Context, error)

	// Save persists the context snapshot. In-memory implementations may
	// treat this as a no-op since contexts are held by pointer.
	Save(sessionID, sequenceName string, ctx Context) error

	// Delete removes the context for (sessionID, sequenceName).
	Delete(sessionID, sequenceName string) error
}
