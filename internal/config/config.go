// Package config loads the gateway configuration from the environment once
// at startup. Components receive the parts they need through their
// constructors; nothing reads environment variables at request time.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the full runtime configuration of the gateway.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Port        int    `envconfig:"PORT" default:"8080"`

	// APIKey authenticates inbound send requests.
	APIKey string `envconfig:"API_KEY" required:"true"`

	// SMTPCredsFile is the keyed list of outbound SMTP identities.
	SMTPCredsFile string `envconfig:"SMTP_CREDS_FILE" default:"smtp_creds.json"`

	// TemplateDir is the root of the email template directory.
	TemplateDir string `envconfig:"EMAIL_TEMPLATE_DIR" default:"email_templates"`

	SimpleLogin SimpleLoginConfig
	Resend      ResendConfig
}

// SimpleLoginConfig holds alias-provider connection settings.
type SimpleLoginConfig struct {
	BaseURL string `envconfig:"SIMPLELOGIN_API_BASE_URL" default:"https://app.simplelogin.io/api"`
	APIKey  string `envconfig:"SIMPLELOGIN_API_KEY" required:"true"`
}

// ResendConfig optionally enables the Resend transport for direct-path
// sends. Empty APIKey leaves the SMTP transport in place.
type ResendConfig struct {
	APIKey string `envconfig:"RESEND_API_KEY"`

	// FromEmail, when set, overrides the message from-address on Resend
	// sends; Resend only accepts senders on a verified domain.
	FromEmail string `envconfig:"RESEND_FROM_EMAIL"`
}

// IsDevelopment reports whether the gateway runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load reads .env (when present) and parses the environment.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may be fully populated already.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &cfg, nil
}
