// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler contains the HTTP handlers for the blog's public and
// admin-facing routes.
package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"upblog/internal/auth"
	"upblog/internal/middleware"
	"upblog/internal/model"
	"upblog/internal/render"
	"upblog/internal/store"
)

// minPasswordLength is the minimum accepted password length at registration.
const minPasswordLength = 8

// AuthHandler handles authentication routes.
type AuthHandler struct {
	queries         *store.Queries
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		renderer:        renderer,
		sessionManager:  sm,
		loginProtection: lp,
	}
}

// LoginForm renders the login page. Already-authenticated users are sent home.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUserID(r) > 0 {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}

	if err := h.renderer.Render(w, r, "login", render.TemplateData{
		Title: "Log In",
		User:  middleware.GetUser(r),
	}); err != nil {
		logAndInternalError(w, "rendering login page", "error", err)
	}
}

// Login handles the login form submission. Missing accounts and wrong
// passwords produce the same message so the form discloses nothing about
// which addresses are registered.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLogin) {
		return
	}

	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	password := r.FormValue("password")

	if email == "" || password == "" {
		flashError(w, r, h.renderer, redirectLogin, "Email and password are required.")
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
			slog.Warn("login attempt on locked account", "category", "auth", "email", email)
			flashError(w, r, h.renderer, redirectLogin,
				fmt.Sprintf("Account temporarily locked. Try again in %s.", formatDuration(remaining)))
			return
		}
	}

	user, err := h.queries.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Debug("login attempt for non-existent user", "email", email)
		} else {
			slog.Error("database error during login", "error", err)
		}
		// Record failed attempt even for non-existent users to prevent enumeration
		h.recordFailure(w, r, email)
		return
	}

	valid, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err)
		flashError(w, r, h.renderer, redirectLogin, "Incorrect credentials, please try again.")
		return
	}
	if !valid {
		slog.Warn("login failed: invalid password", "category", "auth", "user_id", user.ID)
		h.recordFailure(w, r, email)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(email)
	}

	// The very first account becomes the site admin on its first login.
	if user.ID == model.FirstUserID && !user.IsAdmin {
		if err := h.queries.SetUserAdmin(r.Context(), store.SetUserAdminParams{
			IsAdmin:   true,
			UpdatedAt: time.Now(),
			ID:        user.ID,
		}); err != nil {
			logAndInternalError(w, "promoting first user", "error", err, "user_id", user.ID)
			return
		}
		user.IsAdmin = true
		slog.Info("first user promoted to admin", "category", "user", "user_id", user.ID)
	}

	if err := h.queries.UpdateUserLastLogin(r.Context(), store.UpdateUserLastLoginParams{
		LastLoginAt: sql.NullTime{Time: time.Now(), Valid: true},
		ID:          user.ID,
	}); err != nil {
		slog.Error("failed to update last login time", "error", err, "user_id", user.ID)
		// Don't block login on this error
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}

	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)

	flashSuccess(w, r, h.renderer, RouteRoot, fmt.Sprintf("Welcome back, %s!", user.Name))
}

// recordFailure tracks a failed login attempt and responds with the generic
// credentials message, or a lockout notice when the threshold is crossed.
func (h *AuthHandler) recordFailure(w http.ResponseWriter, r *http.Request, email string) {
	if h.loginProtection != nil {
		if locked, lockDuration := h.loginProtection.RecordFailedAttempt(email); locked {
			flashError(w, r, h.renderer, redirectLogin,
				fmt.Sprintf("Too many failed attempts. Account locked for %s.", formatDuration(lockDuration)))
			return
		}
	}
	flashError(w, r, h.renderer, redirectLogin, "Incorrect credentials, please try again.")
}

// Logout destroys the session and returns the visitor to the homepage.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		logAndInternalError(w, "destroying session", "error", err)
		return
	}
	http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
}

// RegisterForm renders the registration page.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUserID(r) > 0 {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}

	if err := h.renderer.Render(w, r, "register", render.TemplateData{
		Title: "Register",
		User:  middleware.GetUser(r),
	}); err != nil {
		logAndInternalError(w, "rendering register page", "error", err)
	}
}

// Register handles the registration form submission. A duplicate email is
// pointed at the login form instead of creating a second account; a new
// account is signed in immediately.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectRegister) {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	password := r.FormValue("password")

	if name == "" || email == "" || password == "" {
		flashError(w, r, h.renderer, redirectRegister, "All fields are required.")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		flashError(w, r, h.renderer, redirectRegister, "Please enter a valid email address.")
		return
	}
	if len(password) < minPasswordLength {
		flashError(w, r, h.renderer, redirectRegister,
			fmt.Sprintf("Password must be at least %d characters.", minPasswordLength))
		return
	}

	if _, err := h.queries.GetUserByEmail(r.Context(), email); err == nil {
		flashError(w, r, h.renderer, redirectLogin,
			"You've already signed up with that email, log in instead!")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		logAndInternalError(w, "checking existing user", "error", err)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logAndInternalError(w, "hashing password", "error", err)
		return
	}

	now := time.Now()
	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		IsAdmin:      false,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		logAndInternalError(w, "creating user", "error", err)
		return
	}

	slog.Info("user registered", "category", "user", "user_id", user.ID, "email", user.Email)

	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	flashSuccess(w, r, h.renderer, RouteRoot, fmt.Sprintf("Welcome, %s!", user.Name))
}

// formatDuration renders a duration in human-friendly units for flash messages.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
