// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"
	netmail "net/mail"
	"strings"

	"upblog/internal/mail"
	"upblog/internal/middleware"
	"upblog/internal/render"
)

// ContactMailer delivers contact enquiries to the site owner.
type ContactMailer interface {
	SendContactNotification(ctx context.Context, enq mail.Enquiry) error
}

// SiteHandler handles the static site pages and the contact form.
type SiteHandler struct {
	renderer *render.Renderer
	mailer   ContactMailer
}

// NewSiteHandler creates a new SiteHandler.
func NewSiteHandler(renderer *render.Renderer, mailer ContactMailer) *SiteHandler {
	return &SiteHandler{
		renderer: renderer,
		mailer:   mailer,
	}
}

// About renders the about page.
func (h *SiteHandler) About(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "about", render.TemplateData{
		Title: "About Me",
		User:  middleware.GetUser(r),
	}); err != nil {
		logAndInternalError(w, "rendering about page", "error", err)
	}
}

// ContactForm renders the contact page.
func (h *SiteHandler) ContactForm(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "contact", render.TemplateData{
		Title: "Contact Me",
		User:  middleware.GetUser(r),
	}); err != nil {
		logAndInternalError(w, "rendering contact page", "error", err)
	}
}

// Contact handles a contact form submission by mailing the enquiry to the
// site owner. Delivery failures are logged but the visitor only ever sees a
// generic retry message.
func (h *SiteHandler) Contact(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectContact) {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	phone := strings.TrimSpace(r.FormValue("phone"))
	message := strings.TrimSpace(r.FormValue("message"))

	if name == "" || email == "" || phone == "" || message == "" {
		flashError(w, r, h.renderer, redirectContact, "Name, email, phone, and message are all required.")
		return
	}
	if _, err := netmail.ParseAddress(email); err != nil {
		flashError(w, r, h.renderer, redirectContact, "Please enter a valid email address.")
		return
	}

	enq := mail.NewEnquiry(name, email, phone, message)

	if err := h.mailer.SendContactNotification(r.Context(), enq); err != nil {
		slog.Error("contact notification failed",
			"category", "contact",
			"error", err,
			"reference", enq.Reference,
		)
		flashError(w, r, h.renderer, redirectContact,
			"Sorry, your message could not be sent. Please try again later.")
		return
	}

	flashSuccess(w, r, h.renderer, redirectContact, "Successfully sent your message!")
}
