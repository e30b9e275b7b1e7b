// Package redmine implements the ticketing connector against the Redmine
// REST API. Customer records are Redmine users enriched with custom fields
// (mobile phone, customer account id, account tier/status, preferred
// language, open case id, advisory); support cases are Redmine issues.
package redmine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
	"github.com/jusranda/cctsa-wxccdemobot-commons/logging"
)

// Name is the connector registration name.
const Name = "redmine"

// Custom field ids on issues, matching the demo Redmine instance layout.
const (
	issueFieldAccountNumber = 5
	issueFieldSource        = 12
	issueFieldInitiator     = 13
)

// Defaults for new issues.
const (
	defaultProjectID  = 11
	defaultPriorityID = 4 // Normal
)

// User is a Redmine user with the demo custom fields flattened into plain
// fields.
type User struct {
	ID              int    `json:"id"`
	Login           string `json:"login"`
	Admin           bool   `json:"admin"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Mail            string `json:"mail"`
	LastLoginOn     string `json:"lastLoginOn"`
	PasswdChangedOn string `json:"passwdChangedOn"`

	MobileNumber      string `json:"mobileNumber"`
	AccountNumber     string `json:"accountNumber"`
	AccountTier       string `json:"accountTier"`
	AccountStatus     string `json:"accountStatus"`
	PreferredLanguage string `json:"preferredLanguage"`
	OpenCaseID        string `json:"openCaseId"`
	Advisory          string `json:"advisory"`
}

// NewIssue describes a support case to open.
type NewIssue struct {
	Subject     string
	Description string

	// AccountNumber, Source and InitiatorID populate the issue custom
	// fields.
	AccountNumber string
	Source        string
	InitiatorID   string

	// Optional overrides; zero values fall back to connector defaults.
	ProjectID  int
	TrackerID  int
	StatusID   int
	PriorityID int
}

// Options configures optional connector behavior.
type Options struct {
	// HTTPClient used for all requests. Defaults to a client with a 10s
	// timeout.
	HTTPClient *http.Client

	// Logger for request diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger

	// ProjectID and PriorityID defaults for new issues.
	ProjectID  int
	PriorityID int
}

// Connector is the Redmine ticketing client.
type Connector struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logging.Logger
	projectID  int
	priorityID int
}

var _ core.Connector = (*Connector)(nil)

// New creates a Redmine connector. baseURL and apiKey are required.
func New(baseURL, apiKey string, optFns ...func(o *Options)) (*Connector, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("redmine: base url is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("redmine: api key is required")
	}

	opts := Options{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     logging.NoOpLogger{},
		ProjectID:  defaultProjectID,
		PriorityID: defaultPriorityID,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Connector{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		projectID:  opts.ProjectID,
		priorityID: opts.PriorityID,
	}, nil
}

// Name returns the connector registration name.
func (c *Connector) Name() string { return Name }

// FindUsersByAccountID returns users whose customer account id custom field
// matches accountID.
func (c *Connector) FindUsersByAccountID(ctx context.Context, accountID string) ([]User, error) {
	return c.findUsers(ctx, func(u User) bool { return u.AccountNumber == accountID })
}

// FindUserByMobilePhone returns users whose mobile phone custom field
// matches phoneNumber.
func (c *Connector) FindUserByMobilePhone(ctx context.Context, phoneNumber string) ([]User, error) {
	return c.findUsers(ctx, func(u User) bool { return u.MobileNumber == phoneNumber })
}

// FindUsersByEmail returns users whose mail address matches email.
func (c *Connector) FindUsersByEmail(ctx context.Context, email string) ([]User, error) {
	return c.findUsers(ctx, func(u User) bool { return u.Mail == email })
}

func (c *Connector) findUsers(ctx context.Context, match func(User) bool) ([]User, error) {
	var payload struct {
		Users []wireUser `json:"users"`
	}
	q := url.Values{"include": {"memberships,groups"}}
	if err := c.do(ctx, http.MethodGet, "/users.json?"+q.Encode(), nil, &payload); err != nil {
		return nil, err
	}

	var found []User
	for _, wu := range payload.Users {
		u := wu.flatten()
		if match(u) {
			found = append(found, u)
		}
	}
	return found, nil
}

// ResetUserPassword sets a temporary password on the user and forces a
// change at next login.
func (c *Connector) ResetUserPassword(ctx context.Context, userID int, tempPassword string) error {
	body := map[string]any{
		"user": map[string]any{
			"password":           tempPassword,
			"must_change_passwd": true,
		},
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/users/%d.json", userID), body, nil); err != nil {
		return fmt.Errorf("reset password for user %d: %w", userID, err)
	}
	c.logger.Info("redmine password reset user_id=%d", userID)
	return nil
}

// CreateIssue opens a new support case and returns its issue id.
func (c *Connector) CreateIssue(ctx context.Context, in NewIssue) (int, error) {
	projectID := in.ProjectID
	if projectID == 0 {
		projectID = c.projectID
	}
	priorityID := in.PriorityID
	if priorityID == 0 {
		priorityID = c.priorityID
	}

	issue := map[string]any{
		"project_id":  projectID,
		"subject":     in.Subject,
		"description": in.Description,
		"priority_id": priorityID,
		"custom_fields": []map[string]any{
			{"id": issueFieldAccountNumber, "value": in.AccountNumber},
			{"id": issueFieldSource, "value": in.Source},
			{"id": issueFieldInitiator, "value": in.InitiatorID},
		},
	}
	if in.TrackerID != 0 {
		issue["tracker_id"] = in.TrackerID
	}
	if in.StatusID != 0 {
		issue["status_id"] = in.StatusID
	}

	var payload struct {
		Issue struct {
			ID int `json:"id"`
		} `json:"issue"`
	}
	if err := c.do(ctx, http.MethodPost, "/issues.json", map[string]any{"issue": issue}, &payload); err != nil {
		return 0, fmt.Errorf("create issue: %w", err)
	}
	c.logger.Info("redmine issue created issue_id=%d", payload.Issue.ID)
	return payload.Issue.ID, nil
}

// UpdateIssueNotes appends a note to an existing issue.
func (c *Connector) UpdateIssueNotes(ctx context.Context, issueID int, notes string, private bool) error {
	body := map[string]any{
		"issue": map[string]any{
			"id":            issueID,
			"notes":         notes,
			"private_notes": private,
		},
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/issues/%d.json", issueID), body, nil); err != nil {
		return fmt.Errorf("update issue %d notes: %w", issueID, err)
	}
	return nil
}

// UpdateIssueStatus moves an issue to a new status.
func (c *Connector) UpdateIssueStatus(ctx context.Context, issueID, statusID int) error {
	body := map[string]any{
		"issue": map[string]any{
			"id":        issueID,
			"status_id": statusID,
		},
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/issues/%d.json", issueID), body, nil); err != nil {
		return fmt.Errorf("update issue %d status: %w", issueID, err)
	}
	return nil
}

func (c *Connector) do(ctx context.Context, method, path string, body, out any) (err error) {
	started := time.Now()
	defer func() { logging.RecordConnectorCall(c.logger, Name, method+" "+path, started, err) }()

	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Redmine-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}

// wireUser mirrors the Redmine REST user representation.
type wireUser struct {
	ID              int    `json:"id"`
	Login           string `json:"login"`
	Admin           bool   `json:"admin"`
	Firstname       string `json:"firstname"`
	Lastname        string `json:"lastname"`
	Mail            string `json:"mail"`
	LastLoginOn     string `json:"last_login_on"`
	PasswdChangedOn string `json:"passwd_changed_on"`
	CustomFields    []struct {
		ID    int    `json:"id"`
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"custom_fields"`
}

// flatten maps the named custom fields onto the User struct.
func (wu wireUser) flatten() User {
	u := User{
		ID:              wu.ID,
		Login:           wu.Login,
		Admin:           wu.Admin,
		FirstName:       wu.Firstname,
		LastName:        wu.Lastname,
		Mail:            wu.Mail,
		LastLoginOn:     wu.LastLoginOn,
		PasswdChangedOn: wu.PasswdChangedOn,
	}
	for _, cf := range wu.CustomFields {
		switch cf.Name {
		case "Mobile Phone":
			u.MobileNumber = cf.Value
		case "Customer Account ID":
			u.AccountNumber = cf.Value
		case "Account Tier":
			u.AccountTier = cf.Value
		case "Account Status":
			u.AccountStatus = cf.Value
		case "Preferred Language":
			u.PreferredLanguage = cf.Value
		case "Open Case ID":
			u.OpenCaseID = cf.Value
		case "Advisory":
			u.Advisory = cf.Value
		}
	}
	return u
}
