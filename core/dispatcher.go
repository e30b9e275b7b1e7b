package core

import "context"

// ChannelInfo carries the channel metadata attached to an inbound turn. It
// seeds the session's addressing fields when a conversation starts.
type ChannelInfo struct {
	// Channel names the contact channel: phone, chat, sms, whatsapp,
	// facebookMessenger or web.
	Channel string `json:"channel"`

	InteractionID     string `json:"interactionId"`
	InteractionSource string `json:"interactionSource"`
	CallingNumber     string `json:"callingNumber"`
	CalledNumber      string `json:"calledNumber"`
	SmsNumber         string `json:"smsNumber"`
	WhatsAppNumber    string `json:"whatsAppNumber"`
	FbMessengerID     string `json:"fbMessengerId"`
	Mail              string `json:"mail"`
}

// TurnInput is one inbound event: a recognized action name plus slot values
// and channel metadata.
type TurnInput struct {
	SessionID string `json:"sessionId"`

	// Action is the identifier produced by intent recognition.
	Action string `json:"action"`

	// Slots holds recognized slot values for the action.
	Slots map[string]string `json:"slots,omitempty"`

	// FulfillmentText is the recognizer-chosen response text for the
	// action, consumed by handlers via Set/AppendFulfillmentText.
	FulfillmentText string `json:"fulfillmentText,omitempty"`

	Channel ChannelInfo `json:"channel"`
}

// TurnResult is the terminal outcome of a turn: the literal text to send
// back to the user once the dispatch loop settles.
type TurnResult struct {
	SessionID       string `json:"sessionId"`
	TurnID          string `json:"turnId"`
	FulfillmentText string `json:"fulfillmentText"`

	// CurrentSequence reports the top of the sequence stack after the turn.
	CurrentSequence string `json:"currentSequence"`
}

// Dispatcher processes inbound turns to completion: exactly one handler
// invocation per dispatched action, navigation for the resulting top of
// stack, and bounded re-dispatch of synthetic events until a terminal text
// response is produced.
//
// Implementations must process turns for one session strictly sequentially
// while allowing distinct sessions to proceed in parallel.
type Dispatcher interface {
	HandleTurn(ctx context.Context, input TurnInput) (TurnResult, error)
}
