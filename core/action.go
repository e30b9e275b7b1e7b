package core

// ActionKind discriminates the navigator's decision variants.
type ActionKind int

const (
	// ActionText terminates the turn, returning literal text to the user.
	ActionText ActionKind = iota

	// ActionEvent re-dispatches a synthetic event as a new action name
	// within the same turn.
	ActionEvent

	// ActionContinue re-runs navigation for the current top of the stack
	// without dispatching a new action. Produced by
	// DialogContext.PopSequenceAndNavigate when a sub-flow completes and
	// control falls through to the parent sequence.
	ActionContinue
)

// Action is the navigator's return contract: a tagged decision about what
// the system does next.
type Action struct {
	Kind  ActionKind
	Event string
	Text  string
}

// RespondWithText ends the turn with the given literal text. An empty text
// tells the engine to respond with the session's accumulated fulfillment
// text (Session.LastFulfillmentText).
func RespondWithText(text string) Action {
	return Action{Kind: ActionText, Text: text}
}

// RespondWithEvent re-dispatches eventName as a synthetic instantaneous
// follow-on turn. carryText is carried forward as the session's
// LastFulfillmentText so chained prompts can be concatenated.
func RespondWithEvent(eventName, carryText string) Action {
	return Action{Kind: ActionEvent, Event: eventName, Text: carryText}
}
