// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"strings"
	"testing"
)

const testSecret = "Abc123!xyz-long-enough-secret-key-value"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("UPBLOG_SESSION_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DBPath != "./data/upblog.db" {
		t.Errorf("DBPath = %q, want default", cfg.DBPath)
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want 8080", cfg.ServerPort)
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment should default to true")
	}
	if cfg.ServerAddr() != "localhost:8080" {
		t.Errorf("ServerAddr = %q", cfg.ServerAddr())
	}
	if cfg.MailEnabled() {
		t.Error("MailEnabled should be false without SMTP config")
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("UPBLOG_SESSION_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail without a session secret")
	}
}

func TestLoad_ShortSecret(t *testing.T) {
	t.Setenv("UPBLOG_SESSION_SECRET", "too-short")

	_, err := Load()
	if err == nil {
		t.Fatal("Load should reject a short secret")
	}
	if !strings.Contains(err.Error(), "at least") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_WeakSecret(t *testing.T) {
	t.Setenv("UPBLOG_SESSION_SECRET", "change-me-to-32-byte-secret-key!")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject a known default secret")
	}
}

func TestLoad_MailEnabled(t *testing.T) {
	t.Setenv("UPBLOG_SESSION_SECRET", testSecret)
	t.Setenv("UPBLOG_SMTP_HOST", "smtp.example.com")
	t.Setenv("UPBLOG_CONTACT_EMAIL", "ops@example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.MailEnabled() {
		t.Error("MailEnabled should be true with SMTP host and recipient set")
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"abcdefgh", false},
		{"abcDEF123", true},
		{"abc123!@#", true},
		{"ALLUPPERCASE", false},
		{"Mixed-Case-123", true},
	}

	for _, tt := range tests {
		t.Run(tt.secret, func(t *testing.T) {
			if got := hasMinimumEntropy(tt.secret); got != tt.want {
				t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.secret, got, tt.want)
			}
		})
	}
}
