// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"upblog/internal/middleware"
	"upblog/internal/model"
	"upblog/internal/render"
	"upblog/internal/store"
)

// AdminHandler handles the admin panel routes.
type AdminHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *sql.DB, renderer *render.Renderer) *AdminHandler {
	return &AdminHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// AdminPanelData holds data for the admin panel page.
type AdminPanelData struct {
	Admins []model.User
}

// Panel renders the admin panel with the promotion form and the current
// admin team.
func (h *AdminHandler) Panel(w http.ResponseWriter, r *http.Request) {
	admins, err := h.queries.ListAdmins(r.Context())
	if err != nil {
		logAndInternalError(w, "listing admins", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "admin_panel", render.TemplateData{
		Title: "Admin Panel",
		User:  middleware.GetUser(r),
		Data:  AdminPanelData{Admins: admins},
	}); err != nil {
		logAndInternalError(w, "rendering admin panel", "error", err)
	}
}

// Promote grants the admin flag to the user with the submitted email. An
// unknown address produces a flash message and nothing else happens.
func (h *AdminHandler) Promote(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteAdminPanel) {
		return
	}

	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	if email == "" {
		flashError(w, r, h.renderer, RouteAdminPanel, "Email is required.")
		return
	}

	user, err := h.queries.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			flashError(w, r, h.renderer, RouteAdminPanel,
				"No user found with this email. Try registering them instead.")
			return
		}
		logAndInternalError(w, "looking up user for promotion", "error", err)
		return
	}

	if user.IsAdmin {
		flashAndRedirect(w, r, h.renderer, RouteAdminPanel,
			"That user is already an admin.", "info")
		return
	}

	if err := h.queries.SetUserAdmin(r.Context(), store.SetUserAdminParams{
		IsAdmin:   true,
		UpdatedAt: time.Now(),
		ID:        user.ID,
	}); err != nil {
		logAndInternalError(w, "promoting user", "error", err, "user_id", user.ID)
		return
	}

	slog.Info("user promoted to admin",
		"category", "user",
		"user_id", user.ID,
		"promoted_by", middleware.GetUserID(r),
	)

	flashSuccess(w, r, h.renderer, RouteAdminPanel, "User added to admin team successfully.")
}
