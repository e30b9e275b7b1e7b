// Package webexconnect implements the messaging connector. Each outbound
// message type (OTP, password reset link) maps to a pre-built Webex Connect
// flow identified by its invoke URL; sending is a JSON POST to that URL.
package webexconnect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
	"github.com/jusranda/cctsa-wxccdemobot-commons/logging"
)

// Name is the connector registration name.
const Name = "webexconnect"

// Options configures optional connector behavior.
type Options struct {
	// EmailSendOtpURL and EmailPwResetURL enable the email variants. When
	// empty the corresponding Send*ByEmail call fails.
	EmailSendOtpURL string
	EmailPwResetURL string

	// HTTPClient used for all requests. Defaults to a client with a 10s
	// timeout.
	HTTPClient *http.Client

	// Logger for request diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Connector is the Webex Connect messaging client.
type Connector struct {
	smsSendOtpURL   string
	smsPwResetURL   string
	emailSendOtpURL string
	emailPwResetURL string
	httpClient      *http.Client
	logger          logging.Logger
}

var _ core.Connector = (*Connector)(nil)

// New creates a Webex Connect connector. The SMS flow URLs are required; the
// email variants are optional.
func New(smsSendOtpURL, smsPwResetURL string, optFns ...func(o *Options)) (*Connector, error) {
	if smsSendOtpURL == "" {
		return nil, fmt.Errorf("webexconnect: sms send-otp url is required")
	}
	if smsPwResetURL == "" {
		return nil, fmt.Errorf("webexconnect: sms password-reset url is required")
	}

	opts := Options{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Connector{
		smsSendOtpURL:   smsSendOtpURL,
		smsPwResetURL:   smsPwResetURL,
		emailSendOtpURL: opts.EmailSendOtpURL,
		emailPwResetURL: opts.EmailPwResetURL,
		httpClient:      opts.HTTPClient,
		logger:          opts.Logger,
	}, nil
}

// Name returns the connector registration name.
func (c *Connector) Name() string { return Name }

// NewOTP generates a 4-digit one-time passcode, zero-padded.
func NewOTP() string {
	return fmt.Sprintf("%04d", rand.IntN(10000))
}

// Message carries the template fields every outbound flow receives.
type Message struct {
	SessionID      string `json:"sessionId"`
	Destination    string `json:"-"`
	CustomerName   string `json:"name"`
	CompanyName    string `json:"companyName"`
	ContactChannel string `json:"contactChannel"`
}

// SendOtpBySms delivers a one-time passcode over SMS.
func (c *Connector) SendOtpBySms(ctx context.Context, msg Message, pin string) error {
	return c.post(ctx, c.smsSendOtpURL, "otp-sms", otpPayload{
		Message: msg, SmsDest: msg.Destination, Pin: pin,
	})
}

// SendOtpByEmail delivers a one-time passcode over email.
func (c *Connector) SendOtpByEmail(ctx context.Context, msg Message, pin string) error {
	if c.emailSendOtpURL == "" {
		return fmt.Errorf("webexconnect: email send-otp url not configured")
	}
	return c.post(ctx, c.emailSendOtpURL, "otp-email", otpPayload{
		Message: msg, MailDest: msg.Destination, Pin: pin,
	})
}

// SendPasswordResetLinkBySms delivers the password reset instructions and
// temporary password over SMS.
func (c *Connector) SendPasswordResetLinkBySms(ctx context.Context, msg Message, tempPassword string) error {
	return c.post(ctx, c.smsPwResetURL, "pwreset-sms", pwResetPayload{
		Message: msg, SmsDest: msg.Destination, TempPw: tempPassword,
	})
}

// SendPasswordResetLinkByEmail delivers the password reset instructions and
// temporary password over email.
func (c *Connector) SendPasswordResetLinkByEmail(ctx context.Context, msg Message, tempPassword string) error {
	if c.emailPwResetURL == "" {
		return fmt.Errorf("webexconnect: email password-reset url not configured")
	}
	return c.post(ctx, c.emailPwResetURL, "pwreset-email", pwResetPayload{
		Message: msg, MailDest: msg.Destination, TempPw: tempPassword,
	})
}

type otpPayload struct {
	Message
	SmsDest  string `json:"smsDest,omitempty"`
	MailDest string `json:"mailDest,omitempty"`
	Pin      string `json:"pin"`
}

type pwResetPayload struct {
	Message
	SmsDest  string `json:"smsDest,omitempty"`
	MailDest string `json:"mailDest,omitempty"`
	TempPw   string `json:"tempPw"`
}

func (c *Connector) post(ctx context.Context, url, kind string, payload any) (err error) {
	started := time.Now()
	defer func() { logging.RecordConnectorCall(c.logger, Name, kind, started, err) }()

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webexconnect %s: encode payload: %w", kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("webexconnect %s: build request: %w", kind, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webexconnect %s: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webexconnect %s: unexpected status %d", kind, resp.StatusCode)
	}
	c.logger.Info("webexconnect message sent kind=%s", kind)
	return nil
}
