package redmine

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

const usersPayload = `{
	"users": [
		{
			"id": 7, "login": "maria", "firstname": "Maria", "lastname": "Garcia",
			"mail": "maria@example.com",
			"custom_fields": [
				{"id": 1, "name": "Mobile Phone", "value": "+14165551234"},
				{"id": 2, "name": "Customer Account ID", "value": "10012345"},
				{"id": 3, "name": "Account Tier", "value": "Gold"},
				{"id": 4, "name": "Account Status", "value": "Active"},
				{"id": 6, "name": "Open Case ID", "value": "991"},
				{"id": 7, "name": "Advisory", "value": "Branch closed Monday."}
			]
		},
		{
			"id": 8, "login": "sam", "firstname": "Sam", "lastname": "Lee",
			"mail": "sam@example.com",
			"custom_fields": [
				{"id": 1, "name": "Mobile Phone", "value": "+14165559999"},
				{"id": 2, "name": "Customer Account ID", "value": "10054321"}
			]
		}
	]
}`

func TestFindUsersByAccountID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users.json", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Redmine-API-Key"))
		_, _ = w.Write([]byte(usersPayload))
	}))
	defer srv.Close()

	c, err := New(srv.URL, "test-key")
	require.NoError(t, err)

	users, err := c.FindUsersByAccountID(context.Background(), "10012345")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 7, users[0].ID)
	assert.Equal(t, "Maria", users[0].FirstName)
	assert.Equal(t, "+14165551234", users[0].MobileNumber)
	assert.Equal(t, "Gold", users[0].AccountTier)
	assert.Equal(t, "991", users[0].OpenCaseID)
	assert.Equal(t, "Branch closed Monday.", users[0].Advisory)
}

func TestFindUserByMobilePhone_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(usersPayload))
	}))
	defer srv.Close()

	c, err := New(srv.URL, "test-key")
	require.NoError(t, err)

	users, err := c.FindUserByMobilePhone(context.Background(), "+15550000000")
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestCreateIssue(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/issues.json", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"issue": {"id": 4242}}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, "test-key")
	require.NoError(t, err)

	id, err := c.CreateIssue(context.Background(), NewIssue{
		Subject:       "Password Reset",
		Description:   "Requested by virtual assistant.",
		AccountNumber: "10012345",
		Source:        "chat",
		InitiatorID:   "7",
	})
	require.NoError(t, err)
	assert.Equal(t, 4242, id)

	issue := got["issue"].(map[string]any)
	assert.Equal(t, float64(defaultProjectID), issue["project_id"])
	assert.Equal(t, float64(defaultPriorityID), issue["priority_id"])
	fields := issue["custom_fields"].([]any)
	require.Len(t, fields, 3)
}

func TestResetUserPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/users/7.json", r.URL.Path)
		var body map[string]map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["user"]["must_change_passwd"])
		assert.NotEmpty(t, body["user"]["password"])
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "test-key")
	require.NoError(t, err)
	require.NoError(t, c.ResetUserPassword(context.Background(), 7, "Aa1.xyzw"))
}

func TestErrorStatusSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "bad-key")
	require.NoError(t, err)

	_, err = c.FindUsersByAccountID(context.Background(), "10012345")
	assert.ErrorContains(t, err, "401")
}

func TestNewValidation(t *testing.T) {
	_, err := New("", "key")
	assert.Error(t, err)
	_, err = New("http://example.com", "")
	assert.Error(t, err)
}
