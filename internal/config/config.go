// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"UPBLOG_DB_PATH" envDefault:"./data/upblog.db"`
	SessionSecret string `env:"UPBLOG_SESSION_SECRET,required"`
	ServerHost    string `env:"UPBLOG_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"UPBLOG_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"UPBLOG_ENV" envDefault:"development"`
	LogLevel      string `env:"UPBLOG_LOG_LEVEL" envDefault:"info"`

	// Outbound mail configuration for the contact form. Credentials are
	// never logged; mail is disabled when SMTPHost is empty.
	SMTPHost     string `env:"UPBLOG_SMTP_HOST"`
	SMTPPort     int    `env:"UPBLOG_SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"UPBLOG_SMTP_USER"`
	SMTPPassword string `env:"UPBLOG_SMTP_PASSWORD"`
	ContactEmail string `env:"UPBLOG_CONTACT_EMAIL"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// MailEnabled returns true if outbound mail is configured.
func (c Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.ContactEmail != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("UPBLOG_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("UPBLOG_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("UPBLOG_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
