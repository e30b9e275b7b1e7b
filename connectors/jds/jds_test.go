package jds

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
)

// Interface compliance (compile-time assertion)
var _ core.Connector = (*Connector)(nil)

func TestChannelType(t *testing.T) {
	assert.Equal(t, "telephony", ChannelType("phone"))
	assert.Equal(t, "Chat", ChannelType("chat"))
	assert.Equal(t, "SMS", ChannelType("sms"))
	assert.Equal(t, "Messenger", ChannelType("facebookMessenger"))
	assert.Equal(t, "WhatsApp", ChannelType("whatsapp"))
	assert.Equal(t, "Web", ChannelType("web"))
	assert.Equal(t, "Web", ChannelType("carrier-pigeon"))
}

func TestInjectEvent(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events/v1/journey", r.URL.Path)
		assert.Equal(t, "SharedAccessSignature test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "SharedAccessSignature test")
	require.NoError(t, err)

	err = c.InjectEvent(context.Background(), "corr-1", EventPayload{
		Person: Person{
			FirstName:     "Maria",
			LastName:      "Garcia",
			Phone:         "+14165551234",
			IdentityAlias: "maria@example.com",
		},
		Origin:      "Password Reset Success",
		ChannelType: ChannelType("chat"),
		DataParams:  map[string]any{"uiData": "password-reset"},
	})
	require.NoError(t, err)

	assert.Equal(t, "corr-1", got["id"])
	assert.Equal(t, "maria@example.com", got["person"])
	assert.Equal(t, "manual", got["type"])
	assert.Equal(t, "web", got["source"])

	data := got["data"].(map[string]any)
	assert.Equal(t, "Password Reset Success", data["origin"])
	assert.Equal(t, "Chat", data["channelType"])
	assert.Equal(t, "password-reset", data["uiData"])
}

func TestInjectEvent_Validation(t *testing.T) {
	c, err := New("http://example.com", "token")
	require.NoError(t, err)

	err = c.InjectEvent(context.Background(), "", EventPayload{
		Origin: "x", ChannelType: "Chat",
	})
	assert.ErrorContains(t, err, "identity alias")

	err = c.InjectEvent(context.Background(), "", EventPayload{
		Person: Person{IdentityAlias: "a"}, ChannelType: "Chat",
	})
	assert.ErrorContains(t, err, "origin")
}

func TestFetchEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "maria@example.com", r.URL.Query().Get("personId"))
		assert.Equal(t, "5", r.URL.Query().Get("size"))
		_, _ = w.Write([]byte(`{"events": [{"id": "e1"}, {"id": "e2"}]}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, "token")
	require.NoError(t, err)

	events, err := c.FetchEvents(context.Background(), "maria@example.com", 5)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
