package googlecalendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
)

// Interface compliance (compile-time assertion)
var _ core.Connector = (*Connector)(nil)

func newTestConnector(t *testing.T, handler http.HandlerFunc) *Connector {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New("cal-1", "test-token", func(o *Options) { o.BaseURL = srv.URL })
	require.NoError(t, err)
	return c
}

func TestIsAvailable(t *testing.T) {
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendars/cal-1/events", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"items": []}`))
	})

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	free, err := c.IsAvailable(context.Background(), start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, free)
}

func TestIsAvailable_Busy(t *testing.T) {
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": [{"id": "evt-1"}]}`))
	})

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	free, err := c.IsAvailable(context.Background(), start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, free)
}

func TestCreateEvent(t *testing.T) {
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"items": []}`))
		case http.MethodPost:
			_, _ = w.Write([]byte(`{"id": "evt-9", "summary": "Mortgage Appointment",
				"start": {"dateTime": "2024-03-01T10:00:00Z"}, "end": {"dateTime": "2024-03-01T11:00:00Z"}}`))
		}
	})

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	evt, err := c.CreateEvent(context.Background(), start, start.Add(time.Hour), "Mortgage")
	require.NoError(t, err)
	assert.Equal(t, "evt-9", evt.ID)
	assert.Equal(t, "Mortgage Appointment", evt.Summary)
}

func TestCreateEvent_Conflict(t *testing.T) {
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": [{"id": "evt-1"}]}`))
	})

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	_, err := c.CreateEvent(context.Background(), start, start.Add(time.Hour), "Mortgage")
	assert.ErrorIs(t, err, ErrSlotConflict)
}
