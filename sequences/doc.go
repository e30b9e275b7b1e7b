// Package sequences defines the conversation flows of the demo assistant:
// greeting, identity verification, reason-for-contact routing, password
// reset, health screening, appointment rebooking, and the cross-cutting
// common flow (fallbacks, goodbyes, agent escalation).
//
// Each flow contributes one sequence definition with a typed local context,
// a navigator, and the intent handlers the flow reacts to. Synthetic event
// names (e.g. AuthSendOtp, PasswordResetSms) are registered as aliases on
// the intents they trigger, so navigators can chain steps within a single
// turn.
//
// Register the full set against an engine's registries with RegisterAll:
//
//	eng := engine.New()
//	err := sequences.RegisterAll(sequences.Modules{
//	    Sequences: eng.Sequences(),
//	    Intents:   eng.Intents(),
//	    Cases:     eng.Cases(),
//	})
package sequences
