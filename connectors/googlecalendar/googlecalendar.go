// Package googlecalendar implements the scheduling connector against the
// Google Calendar v3 REST API. Appointment slots are calendar events; a slot
// is free when the window contains no events.
package googlecalendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
	"github.com/jusranda/cctsa-wxccdemobot-commons/logging"
)

// Name is the connector registration name.
const Name = "googlecalendar"

// DefaultBaseURL is the public Calendar v3 endpoint.
const DefaultBaseURL = "https://www.googleapis.com/calendar/v3"

// ErrSlotConflict is returned by CreateEvent when the requested window
// already contains an event.
var ErrSlotConflict = errors.New("requested time conflicts with another appointment")

// Event is a created calendar event.
type Event struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// Options configures optional connector behavior.
type Options struct {
	// BaseURL overrides the API endpoint, primarily for tests.
	BaseURL string

	// HTTPClient used for all requests. Defaults to a client with a 10s
	// timeout.
	HTTPClient *http.Client

	// Logger for request diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Connector is the Google Calendar scheduling client.
type Connector struct {
	baseURL    string
	calendarID string
	token      string
	httpClient *http.Client
	logger     logging.Logger
}

var _ core.Connector = (*Connector)(nil)

// New creates a Google Calendar connector for one calendar. The token is
// sent as a bearer credential.
func New(calendarID, token string, optFns ...func(o *Options)) (*Connector, error) {
	if calendarID == "" {
		return nil, fmt.Errorf("googlecalendar: calendar id is required")
	}

	opts := Options{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Connector{
		baseURL:    opts.BaseURL,
		calendarID: calendarID,
		token:      token,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}, nil
}

// Name returns the connector registration name.
func (c *Connector) Name() string { return Name }

// IsAvailable reports whether the window [start, end) contains no events.
func (c *Connector) IsAvailable(ctx context.Context, start, end time.Time) (bool, error) {
	events, err := c.listEvents(ctx, start, end)
	if err != nil {
		return false, err
	}
	return len(events) == 0, nil
}

// CreateEvent books the window [start, end) for the given appointment type.
// A window that already holds an event fails with ErrSlotConflict.
func (c *Connector) CreateEvent(ctx context.Context, start, end time.Time, appointmentType string) (evt *Event, err error) {
	started := time.Now()
	defer func() { logging.RecordConnectorCall(c.logger, Name, "create-event", started, err) }()

	existing, err := c.listEvents(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("book %s at %s: %w", appointmentType, start.Format(time.RFC3339), ErrSlotConflict)
	}

	body := map[string]any{
		"summary":     appointmentType + " Appointment",
		"description": appointmentType,
		"start":       map[string]string{"dateTime": start.Format(time.RFC3339)},
		"end":         map[string]string{"dateTime": end.Format(time.RFC3339)},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}

	u := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, url.PathEscape(c.calendarID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("create event: unexpected status %d", resp.StatusCode)
	}

	var created struct {
		ID      string `json:"id"`
		Summary string `json:"summary"`
		Start   struct {
			DateTime string `json:"dateTime"`
		} `json:"start"`
		End struct {
			DateTime string `json:"dateTime"`
		} `json:"end"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode created event: %w", err)
	}

	c.logger.Info("calendar event created id=%s type=%s", created.ID, appointmentType)
	return &Event{
		ID:      created.ID,
		Summary: created.Summary,
		Start:   created.Start.DateTime,
		End:     created.End.DateTime,
	}, nil
}

func (c *Connector) listEvents(ctx context.Context, start, end time.Time) (items []json.RawMessage, err error) {
	started := time.Now()
	defer func() { logging.RecordConnectorCall(c.logger, Name, "list-events", started, err) }()

	q := url.Values{
		"timeMin": {start.Format(time.RFC3339)},
		"timeMax": {end.Format(time.RFC3339)},
	}
	u := fmt.Sprintf("%s/calendars/%s/events?%s", c.baseURL, url.PathEscape(c.calendarID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("list events: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return payload.Items, nil
}

func (c *Connector) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
