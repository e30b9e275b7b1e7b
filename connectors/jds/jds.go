// Package jds implements the journey data service connector. Flows inject
// journey events (authentication outcomes, password reset results, screening
// decisions) keyed by the customer's identity alias so downstream tooling
// can render the customer's full journey.
package jds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
	"github.com/jusranda/cctsa-wxccdemobot-commons/logging"
)

// Name is the connector registration name.
const Name = "jds"

// channelTypes maps contact-center channel names to journey channel types.
var channelTypes = map[string]string{
	"phone":             "telephony",
	"chat":              "Chat",
	"sms":               "SMS",
	"facebookMessenger": "Messenger",
	"whatsapp":          "WhatsApp",
	"web":               "Web",
}

// ChannelType translates a contact-center channel name into the journey
// channel type. Unknown channels map to "Web".
func ChannelType(channel string) string {
	if t, ok := channelTypes[channel]; ok {
		return t
	}
	return "Web"
}

// Person identifies the customer a journey event belongs to.
type Person struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	IdentityAlias string `json:"identityAlias"`
}

// EventPayload describes one journey event to inject.
type EventPayload struct {
	Person      Person
	Origin      string
	ChannelType string

	// Type and Source default to "manual" and "web" when empty.
	Type   string
	Source string

	// DataParams carries event-specific attributes merged into the event
	// data body.
	DataParams map[string]any
}

func (p EventPayload) validate() error {
	if p.Person.IdentityAlias == "" {
		return fmt.Errorf("jds event: person identity alias is required")
	}
	if p.Origin == "" {
		return fmt.Errorf("jds event: origin is required")
	}
	if p.ChannelType == "" {
		return fmt.Errorf("jds event: channel type is required")
	}
	return nil
}

// Options configures optional connector behavior.
type Options struct {
	// HTTPClient used for all requests. Defaults to a client with a 10s
	// timeout.
	HTTPClient *http.Client

	// Logger for request diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Connector is the journey data service client.
type Connector struct {
	baseURL    string
	sasToken   string
	httpClient *http.Client
	logger     logging.Logger
}

var _ core.Connector = (*Connector)(nil)

// New creates a JDS connector. baseURL and sasToken are required.
func New(baseURL, sasToken string, optFns ...func(o *Options)) (*Connector, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("jds: base url is required")
	}
	if sasToken == "" {
		return nil, fmt.Errorf("jds: sas token is required")
	}

	opts := Options{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Connector{
		baseURL:    baseURL,
		sasToken:   sasToken,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}, nil
}

// Name returns the connector registration name.
func (c *Connector) Name() string { return Name }

// InjectEvent posts one journey event. An empty correlationID gets a fresh
// uuid.
func (c *Connector) InjectEvent(ctx context.Context, correlationID string, p EventPayload) (err error) {
	started := time.Now()
	defer func() { logging.RecordConnectorCall(c.logger, Name, "inject-event", started, err) }()

	if err := p.validate(); err != nil {
		return err
	}
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	eventType := p.Type
	if eventType == "" {
		eventType = "manual"
	}
	source := p.Source
	if source == "" {
		source = "web"
	}

	data := map[string]any{
		"taskId":      correlationID,
		"origin":      p.Origin,
		"createdTime": time.Now().UnixMilli(),
		"channelType": p.ChannelType,
		"firstName":   p.Person.FirstName,
		"lastName":    p.Person.LastName,
		"phone":       p.Person.Phone,
		"email":       p.Person.Email,
	}
	for k, v := range p.DataParams {
		data[k] = v
	}

	envelope := map[string]any{
		"id":              correlationID,
		"time":            strconv.FormatInt(time.Now().UnixMilli(), 10),
		"specVersion":     "1.0",
		"type":            eventType,
		"source":          source,
		"person":          p.Person.IdentityAlias,
		"dataContentType": "application/json",
		"data":            data,
	}

	raw, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("jds: encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/events/v1/journey", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("jds: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.sasToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("jds: inject event: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("jds: inject event: unexpected status %d", resp.StatusCode)
	}

	c.logger.Info("jds event injected id=%s origin=%s person=%s", correlationID, p.Origin, p.Person.IdentityAlias)
	return nil
}

// FetchEvents returns the raw journey events stored for personAlias, newest
// first, up to limit (0 means server default).
func (c *Connector) FetchEvents(ctx context.Context, personAlias string, limit int) (events []json.RawMessage, err error) {
	started := time.Now()
	defer func() { logging.RecordConnectorCall(c.logger, Name, "fetch-events", started, err) }()

	if personAlias == "" {
		return nil, fmt.Errorf("jds: person alias is required")
	}

	q := url.Values{"personId": {personAlias}}
	if limit > 0 {
		q.Set("size", strconv.Itoa(limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/journey/events?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("jds: build request: %w", err)
	}
	req.Header.Set("Authorization", c.sasToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jds: fetch events: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("jds: fetch events: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Events []json.RawMessage `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("jds: decode events: %w", err)
	}
	return payload.Events, nil
}
