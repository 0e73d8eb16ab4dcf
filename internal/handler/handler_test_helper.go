// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"

	"upblog/internal/auth"
	"upblog/internal/middleware"
	"upblog/internal/model"
	"upblog/internal/render"
	"upblog/internal/store"
)

// testDB creates an in-memory SQLite database with the required schema for testing.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// A second pool connection would see a fresh empty in-memory database.
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			name TEXT NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login_at DATETIME
		);
		CREATE INDEX idx_users_email ON users(email);

		CREATE TABLE posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			author_id INTEGER NOT NULL,
			title TEXT NOT NULL UNIQUE,
			subtitle TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL,
			body TEXT NOT NULL,
			img_url TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (author_id) REFERENCES users(id)
		);

		CREATE TABLE comments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			post_id INTEGER NOT NULL,
			commenter_id INTEGER NOT NULL,
			body TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE,
			FOREIGN KEY (commenter_id) REFERENCES users(id)
		);

		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL DEFAULT 'info',
			category TEXT NOT NULL DEFAULT 'system',
			message TEXT NOT NULL,
			user_id INTEGER,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// testSessionManager creates an in-memory session manager for testing.
func testSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	sm := scs.New()
	sm.Lifetime = 24 * time.Hour
	return sm
}

// testRenderer creates a renderer with minimal templates for every page.
func testRenderer(t *testing.T, sm *scs.SessionManager) *render.Renderer {
	t.Helper()

	page := func(name string) *fstest.MapFile {
		return &fstest.MapFile{Data: []byte(`{{define "content"}}` + name + `: {{.Title}}{{end}}`)}
	}

	fsys := fstest.MapFS{
		"layouts/base.html": &fstest.MapFile{Data: []byte(
			`{{define "base"}}{{if .Flash}}[{{.FlashType}}] {{.Flash}}{{end}}{{template "content" .}}{{end}}`)},
		"pages/index.html":          page("index"),
		"pages/about.html":          page("about"),
		"pages/contact.html":        page("contact"),
		"pages/post.html":           page("post"),
		"pages/post_form.html":      page("post_form"),
		"pages/login.html":          page("login"),
		"pages/register.html":       page("register"),
		"pages/admin_panel.html":    page("admin_panel"),
		"pages/delete_confirm.html": page("delete_confirm"),
		"pages/notfound.html":       page("notfound"),
	}

	r, err := render.New(render.Config{TemplatesFS: fsys, SessionManager: sm})
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}
	return r
}

// testFixture bundles the shared pieces every handler needs.
type testFixture struct {
	db       *sql.DB
	sm       *scs.SessionManager
	renderer *render.Renderer
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	db := testDB(t)
	sm := testSessionManager(t)
	return &testFixture{db: db, sm: sm, renderer: testRenderer(t, sm)}
}

// testUser describes a user to seed into the test database.
type testUser struct {
	Email    string
	Name     string
	Password string
	IsAdmin  bool
}

// createTestUser creates a test user in the database.
func createTestUser(t *testing.T, db *sql.DB, user testUser) model.User {
	t.Helper()

	if user.Password == "" {
		user.Password = "password123"
	}
	hash, err := auth.HashPassword(user.Password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	now := time.Now()
	created, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Email:        user.Email,
		PasswordHash: hash,
		Name:         user.Name,
		IsAdmin:      user.IsAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return created
}

// createTestPost creates a test post in the database.
func createTestPost(t *testing.T, db *sql.DB, authorID int64, title string) model.Post {
	t.Helper()

	now := time.Now()
	post, err := store.New(db).CreatePost(context.Background(), store.CreatePostParams{
		AuthorID:  authorID,
		Title:     title,
		Subtitle:  "A subtitle",
		Date:      now.Format(model.PostDateFormat),
		Body:      "Post body.",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}
	return post
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// requestWithSession wraps a request with session context.
func requestWithSession(sm *scs.SessionManager, r *http.Request) *http.Request {
	ctx, err := sm.Load(r.Context(), "")
	if err != nil {
		return r
	}
	return r.WithContext(ctx)
}

// requestWithUser puts a user into the request context as the auth middleware
// would.
func requestWithUser(r *http.Request, user model.User) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.ContextKeyUser, user)
	return r.WithContext(ctx)
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}

// assertRedirect checks for a 303 redirect to the expected location.
func assertRedirect(t *testing.T, rec interface {
	Result() *http.Response
}, want string) {
	t.Helper()
	res := rec.Result()
	if res.StatusCode != http.StatusSeeOther {
		t.Errorf("status = %d; want %d", res.StatusCode, http.StatusSeeOther)
	}
	if loc := res.Header.Get("Location"); loc != want {
		t.Errorf("redirect location = %q; want %q", loc, want)
	}
}

// sessionUserID returns the user id stored in the request's session context.
func sessionUserID(sm *scs.SessionManager, r *http.Request) int64 {
	return sm.GetInt64(r.Context(), middleware.SessionKeyUserID)
}
