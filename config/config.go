// Package config loads runtime configuration for the bot: a YAML file for
// structure (endpoints, tunables) layered with environment variables for
// secrets and per-deployment overrides. A .env file in the working directory
// is folded into the environment before overrides are read, so local
// development needs no shell setup.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration tree.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Engine     EngineConfig     `yaml:"engine"`
	Bot        BotConfig        `yaml:"bot"`
	Connectors ConnectorsConfig `yaml:"connectors"`
}

// HTTPConfig configures the webhook server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// EngineConfig configures dispatch tunables.
type EngineConfig struct {
	MaxDispatchDepth int `yaml:"maxDispatchDepth"`
}

// BotConfig holds assistant-facing settings used in prompt phrasing.
type BotConfig struct {
	CompanyName string `yaml:"companyName"`
}

// ConnectorsConfig groups the external system endpoints and credentials.
type ConnectorsConfig struct {
	Redmine        RedmineConfig        `yaml:"redmine"`
	WebexConnect   WebexConnectConfig   `yaml:"webexConnect"`
	GoogleCalendar GoogleCalendarConfig `yaml:"googleCalendar"`
	JDS            JDSConfig            `yaml:"jds"`
}

// RedmineConfig configures the ticketing connector.
type RedmineConfig struct {
	BaseURL string `yaml:"baseUrl"`
	APIKey  string `yaml:"apiKey"`
}

// WebexConnectConfig configures the messaging connector. Each field is the
// invoke URL of one pre-built send flow.
type WebexConnectConfig struct {
	SmsSendOtpURL   string `yaml:"smsSendOtpUrl"`
	SmsPwResetURL   string `yaml:"smsPwResetUrl"`
	EmailSendOtpURL string `yaml:"emailSendOtpUrl"`
	EmailPwResetURL string `yaml:"emailPwResetUrl"`
}

// GoogleCalendarConfig configures the scheduling connector.
type GoogleCalendarConfig struct {
	BaseURL    string `yaml:"baseUrl"`
	CalendarID string `yaml:"calendarId"`
	Token      string `yaml:"token"`
}

// JDSConfig configures the journey data service connector.
type JDSConfig struct {
	BaseURL  string `yaml:"baseUrl"`
	SASToken string `yaml:"sasToken"`
}

// Default returns the baseline configuration applied before the YAML file
// and environment overrides.
func Default() *Config {
	return &Config{
		HTTP:   HTTPConfig{Addr: ":8080"},
		Engine: EngineConfig{MaxDispatchDepth: 25},
		Bot:    BotConfig{CompanyName: "Journey Cloud Bank"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment variables. A missing .env file is not
// an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.Engine.MaxDispatchDepth < 0 {
		return nil, fmt.Errorf("engine.maxDispatchDepth must not be negative, got %d", cfg.Engine.MaxDispatchDepth)
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the config. Only set
// variables override; empty values are ignored.
func (c *Config) applyEnv() {
	setString(&c.HTTP.Addr, "HTTP_ADDR")
	setInt(&c.Engine.MaxDispatchDepth, "ENGINE_MAX_DISPATCH_DEPTH")
	setString(&c.Bot.CompanyName, "BOT_COMPANY_NAME")

	setString(&c.Connectors.Redmine.BaseURL, "REDMINE_BASE_URL")
	setString(&c.Connectors.Redmine.APIKey, "REDMINE_API_KEY")

	setString(&c.Connectors.WebexConnect.SmsSendOtpURL, "WEBEX_CONNECT_SMS_OTP_URL")
	setString(&c.Connectors.WebexConnect.SmsPwResetURL, "WEBEX_CONNECT_SMS_PWRESET_URL")
	setString(&c.Connectors.WebexConnect.EmailSendOtpURL, "WEBEX_CONNECT_EMAIL_OTP_URL")
	setString(&c.Connectors.WebexConnect.EmailPwResetURL, "WEBEX_CONNECT_EMAIL_PWRESET_URL")

	setString(&c.Connectors.GoogleCalendar.BaseURL, "GOOGLE_CALENDAR_BASE_URL")
	setString(&c.Connectors.GoogleCalendar.CalendarID, "GOOGLE_CALENDAR_ID")
	setString(&c.Connectors.GoogleCalendar.Token, "GOOGLE_CALENDAR_TOKEN")

	setString(&c.Connectors.JDS.BaseURL, "JDS_BASE_URL")
	setString(&c.Connectors.JDS.SASToken, "JDS_SAS_TOKEN")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}
