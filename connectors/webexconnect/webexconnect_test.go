package webexconnect

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

func TestNewOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		otp := NewOTP()
		assert.Len(t, otp, 4)
		for _, r := range otp {
			assert.True(t, r >= '0' && r <= '9')
		}
	}
}

func TestSendOtpBySms(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(srv.URL, srv.URL+"/pwreset")
	require.NoError(t, err)

	err = c.SendOtpBySms(context.Background(), Message{
		SessionID:      "s1",
		Destination:    "+14165551234",
		CustomerName:   "Maria",
		CompanyName:    "Acme Mutual",
		ContactChannel: "chat",
	}, "1234")
	require.NoError(t, err)

	assert.Equal(t, "+14165551234", got["smsDest"])
	assert.Equal(t, "1234", got["pin"])
	assert.Equal(t, "Maria", got["name"])
	assert.Equal(t, "Acme Mutual", got["companyName"])
}

func TestSendPasswordResetLinkBySms(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/otp", srv.URL)
	require.NoError(t, err)

	err = c.SendPasswordResetLinkBySms(context.Background(), Message{
		SessionID:   "s1",
		Destination: "+14165551234",
	}, "Aa1.xyzw")
	require.NoError(t, err)
	assert.Equal(t, "Aa1.xyzw", got["tempPw"])
}

func TestEmailVariantsRequireConfiguration(t *testing.T) {
	c, err := New("http://example.com/otp", "http://example.com/pwreset")
	require.NoError(t, err)

	err = c.SendOtpByEmail(context.Background(), Message{Destination: "a@b.com"}, "1234")
	assert.Error(t, err)
	err = c.SendPasswordResetLinkByEmail(context.Background(), Message{Destination: "a@b.com"}, "pw")
	assert.Error(t, err)
}

func TestNewValidation(t *testing.T) {
	_, err := New("", "http://example.com")
	assert.Error(t, err)
	_, err = New("http://example.com", "")
	assert.Error(t, err)
}
