// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mail delivers contact form notifications over authenticated SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	gomail "github.com/wneessen/go-mail"
)

// dialTimeout bounds the SMTP dial so a dead relay cannot hang a request.
const dialTimeout = 10 * time.Second

// ErrNotConfigured is returned when delivery is attempted without an SMTP
// relay configured.
var ErrNotConfigured = errors.New("outbound mail not configured")

// Enquiry is a single contact form submission.
type Enquiry struct {
	// Reference uniquely identifies the enquiry in logs and in the
	// notification subject line.
	Reference string
	Name      string
	Email     string
	Phone     string
	Message   string
	Received  time.Time
}

// NewEnquiry builds an Enquiry from form input, assigning a fresh reference.
func NewEnquiry(name, email, phone, message string) Enquiry {
	return Enquiry{
		Reference: uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		Phone:     strings.TrimSpace(phone),
		Message:   strings.TrimSpace(message),
		Received:  time.Now().UTC(),
	}
}

// Config holds SMTP relay settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the envelope sender for notifications.
	From string
	// To receives contact notifications (the site owner's address).
	To string
}

// Mailer sends notification mail through a configured SMTP relay.
type Mailer struct {
	cfg Config
}

// New creates a Mailer. Delivery fails until the config names a host.
func New(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

// Enabled reports whether the mailer has a relay to deliver through.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != "" && m.cfg.To != ""
}

// SendContactNotification delivers an enquiry to the site owner. The reply-to
// header carries the visitor's address so the owner can answer directly.
func (m *Mailer) SendContactNotification(ctx context.Context, enq Enquiry) error {
	if !m.Enabled() {
		return fmt.Errorf("delivering enquiry %s: %w", enq.Reference, ErrNotConfigured)
	}

	msg, err := composeContactNotification(m.cfg, enq)
	if err != nil {
		return fmt.Errorf("composing contact notification: %w", err)
	}

	client, err := gomail.NewClient(m.cfg.Host,
		gomail.WithPort(m.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.Username),
		gomail.WithPassword(m.cfg.Password),
		gomail.WithTimeout(dialTimeout),
	)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending contact notification: %w", err)
	}

	slog.Info("contact notification sent",
		"category", "contact",
		"reference", enq.Reference,
	)
	return nil
}

// composeContactNotification builds the notification message for an enquiry.
func composeContactNotification(cfg Config, enq Enquiry) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(cfg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(cfg.To); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}
	if enq.Email != "" {
		if err := msg.ReplyTo(enq.Email); err != nil {
			return nil, fmt.Errorf("invalid reply-to address: %w", err)
		}
	}

	msg.Subject(fmt.Sprintf("New contact enquiry [%s]", enq.Reference))
	msg.SetBodyString(gomail.TypeTextPlain, formatEnquiryBody(enq))
	return msg, nil
}

func formatEnquiryBody(enq Enquiry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reference: %s\n", enq.Reference)
	fmt.Fprintf(&b, "Received:  %s\n\n", enq.Received.Format(time.RFC1123))
	fmt.Fprintf(&b, "Name:  %s\n", enq.Name)
	fmt.Fprintf(&b, "Email: %s\n", enq.Email)
	if enq.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", enq.Phone)
	}
	fmt.Fprintf(&b, "\n%s\n", enq.Message)
	return b.String()
}
