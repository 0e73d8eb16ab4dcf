// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the
// application: User, Post, Comment, and the Event log entry.
package model

import (
	"database/sql"
	"time"
)

// FirstUserID is the id of the first account ever registered. That account
// is promoted to admin on its first successful login.
const FirstUserID = 1

// User represents a registered account.
type User struct {
	ID           int64        `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Never expose in JSON
	Name         string       `json:"name"`
	IsAdmin      bool         `json:"is_admin"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	LastLoginAt  sql.NullTime `json:"last_login_at,omitempty"`
}
