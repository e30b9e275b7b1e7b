// Package demobot provides a high-level façade over the dialog engine and its
// supporting services (sessions, contexts, connectors & logging) for building
// contact-center virtual assistants. Most applications interact with this
// package by:
//  1. Creating a ConvoClient via New() (optionally overriding default in-memory stores)
//  2. Registering connectors for the external systems the flows talk to
//  3. Feeding recognized turns into ProcessTurn and returning the text to the caller
//
// The façade delegates dispatch to engine.Engine while keeping setup and usage
// ergonomics concise. The built-in conversation flows (greeting, identity
// verification, skill routing, password reset, admittance screening and
// appointment booking) are registered by default; custom sequences and
// intents can be added alongside or instead of them. All defaults are safe
// for local development and testing; production deployments typically supply
// durable stores and a structured logger.
package demobot

import (
	"context"

	"github.com/jusranda/cctsa-wxccdemobot-commons/connectors/wxcc"
	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
	"github.com/jusranda/cctsa-wxccdemobot-commons/engine"
	"github.com/jusranda/cctsa-wxccdemobot-commons/logging"
	"github.com/jusranda/cctsa-wxccdemobot-commons/sequences"
	"github.com/jusranda/cctsa-wxccdemobot-commons/session"
)

// Options configures the ConvoClient instance.
type Options struct {
	// EngineConfig contains dispatch tunables (depth limit, initial stack,
	// auth gate sequence).
	EngineConfig engine.Config

	// CompanyName is spoken in the assistant's self-introduction and passed
	// to messaging templates. Seeded onto every new session.
	CompanyName string

	// CaseBaseURL prefixes ticket ids when a case link is embedded in a
	// journey event. Defaults to sequences.DefaultCaseBaseURL.
	CaseBaseURL string

	// SkipBuiltinFlows leaves the registries empty so a caller can compose a
	// bot entirely from custom sequences.
	SkipBuiltinFlows bool

	// Stores (defaults to in-memory implementations if not provided)
	SessionStore core.SessionStore
	ContextStore core.ContextStore

	// Seeder applies channel defaults to new sessions. Defaults to the
	// contact-center channel connector's seeding rules.
	Seeder core.SessionSeeder

	// Callbacks receives turn lifecycle notifications.
	Callbacks *engine.CallbackManager

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// ConvoClient is the high-level façade aggregating the dialog engine and its
// registries.
type ConvoClient struct {
	opts   Options
	engine *engine.Engine
}

// New creates a ConvoClient with optional overrides. Any unset store is
// initialized with an in-memory implementation; unless disabled, the built-in
// conversation flows are registered before the client is returned.
func New(optFns ...func(o *Options)) (*ConvoClient, error) {
	opts := Options{
		EngineConfig: engine.DefaultConfig,
		SessionStore: session.NewInMemoryStore(),
		ContextStore: session.NewInMemoryContextStore(),
		Callbacks:    engine.NewCallbackManager(),
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Seeder == nil {
		opts.Seeder = wxcc.New(func(o *wxcc.Options) { o.Logger = opts.Logger })
	}

	// New sessions inherit the assistant's company name for prompt phrasing.
	if opts.CompanyName != "" {
		company := opts.CompanyName
		opts.Callbacks.Register(engine.NewFunctionCallback(engine.CallbackBeforeTurn,
			func(ctx context.Context, cbCtx *engine.CallbackContext) error {
				if cbCtx.Session.CompanyName == "" {
					cbCtx.Session.CompanyName = company
				}
				return nil
			}))
	}

	eng := engine.New(func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.SessionStore = opts.SessionStore
		o.ContextStore = opts.ContextStore
		o.Callbacks = opts.Callbacks
		o.Seeder = opts.Seeder
		o.Logger = opts.Logger
	})

	if !opts.SkipBuiltinFlows {
		err := sequences.RegisterAll(sequences.Modules{
			Sequences:   eng.Sequences(),
			Intents:     eng.Intents(),
			Cases:       eng.Cases(),
			CaseBaseURL: opts.CaseBaseURL,
		})
		if err != nil {
			return nil, err
		}
	}

	return &ConvoClient{opts: opts, engine: eng}, nil
}

// Engine exposes the underlying dispatcher for advanced composition.
func (c *ConvoClient) Engine() *engine.Engine { return c.engine }

// RegisterSequence adds a custom conversational sequence.
func (c *ConvoClient) RegisterSequence(seq *core.Sequence) error {
	return c.engine.Sequences().Register(seq)
}

// RegisterIntent adds a custom intent handler.
func (c *ConvoClient) RegisterIntent(in *core.Intent) error {
	return c.engine.Intents().Register(in)
}

// RegisterIntents adds one shared handler under several action names, all
// scoped to the same sequence.
func (c *ConvoClient) RegisterIntents(actions []string, sequenceName string, handler core.IntentHandler) error {
	return c.engine.Intents().RegisterAll(actions, sequenceName, handler)
}

// RegisterConnector adds an external-system client under its name.
func (c *ConvoClient) RegisterConnector(conn core.Connector) {
	c.engine.Connectors().Register(conn)
}

// RegisterCaseTemplate binds a ticket template to a sequence name.
func (c *ConvoClient) RegisterCaseTemplate(sequenceName string, tmpl core.CaseTemplate) error {
	return c.engine.Cases().Register(sequenceName, tmpl)
}

// ProcessTurn dispatches one recognized turn and returns the terminal
// fulfillment text for the caller to speak or display.
func (c *ConvoClient) ProcessTurn(ctx context.Context, input core.TurnInput) (core.TurnResult, error) {
	return c.engine.HandleTurn(ctx, input)
}

// GetSession retrieves the stored session snapshot by id.
func (c *ConvoClient) GetSession(sessionID string) (*core.Session, error) {
	return c.engine.GetSession(sessionID)
}
