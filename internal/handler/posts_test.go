// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"upblog/internal/model"
	"upblog/internal/store"
)

func newPostsHandler(t *testing.T) (*PostsHandler, *testFixture) {
	t.Helper()
	f := newFixture(t)
	return NewPostsHandler(f.db, f.renderer), f
}

func TestIndex(t *testing.T) {
	h, f := newPostsHandler(t)
	author := createTestUser(t, f.db, testUser{Email: "author@example.com", Name: "Author", IsAdmin: true})
	createTestPost(t, f.db, author.ID, "First Post")

	req := requestWithSession(f.sm, httptest.NewRequest(http.MethodGet, RouteRoot, nil))
	rec := httptest.NewRecorder()
	h.Index(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
}

func TestShow(t *testing.T) {
	h, f := newPostsHandler(t)
	author := createTestUser(t, f.db, testUser{Email: "author@example.com", Name: "Author", IsAdmin: true})
	post := createTestPost(t, f.db, author.ID, "First Post")

	req := requestWithSession(f.sm, httptest.NewRequest(http.MethodGet, "/post/1", nil))
	req = requestWithURLParams(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()
	h.Show(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
	if !strings.Contains(rec.Body.String(), post.Title) {
		t.Errorf("body missing post title %q", post.Title)
	}
}

func TestShow_NotFound(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"unknown id", "999"},
		{"malformed id", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, f := newPostsHandler(t)

			req := requestWithSession(f.sm, httptest.NewRequest(http.MethodGet, "/post/"+tt.id, nil))
			req = requestWithURLParams(req, map[string]string{"id": tt.id})
			rec := httptest.NewRecorder()
			h.Show(rec, req)

			assertStatus(t, rec.Code, http.StatusNotFound)
		})
	}
}

func TestComment_AnonymousDiscarded(t *testing.T) {
	h, f := newPostsHandler(t)
	author := createTestUser(t, f.db, testUser{Email: "author@example.com", Name: "Author", IsAdmin: true})
	post := createTestPost(t, f.db, author.ID, "First Post")

	req := requestWithSession(f.sm, postForm("/post/1", url.Values{"comment": {"Nice post!"}}))
	req = requestWithURLParams(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()
	h.Comment(rec, req)

	// The post view is re-rendered in place with the login prompt, never a
	// redirect away from the page.
	assertStatus(t, rec.Code, http.StatusOK)
	if body := rec.Body.String(); !strings.Contains(body, "login or register") {
		t.Errorf("body missing the login prompt: %s", body)
	}

	count, err := store.New(f.db).CountCommentsForPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("counting comments: %v", err)
	}
	if count != 0 {
		t.Errorf("comments = %d, want 0 (anonymous input is discarded)", count)
	}
}

func TestComment_Created(t *testing.T) {
	h, f := newPostsHandler(t)
	author := createTestUser(t, f.db, testUser{Email: "author@example.com", Name: "Author", IsAdmin: true})
	reader := createTestUser(t, f.db, testUser{Email: "reader@example.com", Name: "Reader"})
	post := createTestPost(t, f.db, author.ID, "First Post")

	req := requestWithSession(f.sm, postForm("/post/1", url.Values{"comment": {"Nice post!"}}))
	req = requestWithURLParams(req, map[string]string{"id": "1"})
	req = requestWithUser(req, reader)
	rec := httptest.NewRecorder()
	h.Comment(rec, req)

	// Re-rendered post view, so the fresh comment is visible immediately.
	assertStatus(t, rec.Code, http.StatusOK)

	comments, err := store.New(f.db).ListCommentsForPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("listing comments: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("comments = %d, want 1", len(comments))
	}
	if comments[0].CommenterID != reader.ID {
		t.Errorf("commenter = %d, want %d", comments[0].CommenterID, reader.ID)
	}
	if comments[0].Body != "Nice post!" {
		t.Errorf("body = %q", comments[0].Body)
	}
}

func TestComment_EmptyRejected(t *testing.T) {
	h, f := newPostsHandler(t)
	author := createTestUser(t, f.db, testUser{Email: "author@example.com", Name: "Author", IsAdmin: true})
	post := createTestPost(t, f.db, author.ID, "First Post")

	req := requestWithSession(f.sm, postForm("/post/1", url.Values{"comment": {"   "}}))
	req = requestWithURLParams(req, map[string]string{"id": "1"})
	req = requestWithUser(req, author)
	rec := httptest.NewRecorder()
	h.Comment(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
	if body := rec.Body.String(); !strings.Contains(body, "cannot be empty") {
		t.Errorf("body missing the validation message: %s", body)
	}

	count, _ := store.New(f.db).CountCommentsForPost(context.Background(), post.ID)
	if count != 0 {
		t.Errorf("comments = %d, want 0", count)
	}
}

func TestMakePost(t *testing.T) {
	h, f := newPostsHandler(t)
	admin := createTestUser(t, f.db, testUser{Email: "admin@example.com", Name: "Admin", IsAdmin: true})

	req := requestWithSession(f.sm, postForm(RouteMakePost, url.Values{
		"title":    {"Fresh Post"},
		"subtitle": {"Sub"},
		"body":     {"Body text."},
		"img_url":  {"https://example.com/x.jpg"},
	}))
	req = requestWithUser(req, admin)
	rec := httptest.NewRecorder()
	h.MakePost(rec, req)

	assertRedirect(t, rec, RouteRoot)

	post, err := store.New(f.db).GetPostByTitle(context.Background(), "Fresh Post")
	if err != nil {
		t.Fatalf("created post not found: %v", err)
	}
	if post.AuthorID != admin.ID {
		t.Errorf("author = %d, want %d", post.AuthorID, admin.ID)
	}
	if _, err := time.Parse(model.PostDateFormat, post.Date); err != nil {
		t.Errorf("date %q not in publish date format: %v", post.Date, err)
	}
}

func TestMakePost_DuplicateTitle(t *testing.T) {
	h, f := newPostsHandler(t)
	admin := createTestUser(t, f.db, testUser{Email: "admin@example.com", Name: "Admin", IsAdmin: true})
	createTestPost(t, f.db, admin.ID, "Taken Title")

	req := requestWithSession(f.sm, postForm(RouteMakePost, url.Values{
		"title":    {"Taken Title"},
		"subtitle": {"Sub"},
		"body":     {"Body."},
		"img_url":  {"https://example.com/x.jpg"},
	}))
	req = requestWithUser(req, admin)
	rec := httptest.NewRecorder()
	h.MakePost(rec, req)

	assertRedirect(t, rec, RouteMakePost)

	count, _ := store.New(f.db).CountPosts(context.Background())
	if count != 1 {
		t.Errorf("posts = %d, want 1", count)
	}
}

func TestMakePost_RejectsInvalidFields(t *testing.T) {
	valid := url.Values{
		"title":    {"Fresh Post"},
		"subtitle": {"Sub"},
		"body":     {"Body text."},
		"img_url":  {"https://example.com/x.jpg"},
	}

	tests := []struct {
		name     string
		override url.Values
	}{
		{"empty subtitle", url.Values{"subtitle": {""}}},
		{"empty image url", url.Values{"img_url": {""}}},
		{"garbage image url", url.Values{"img_url": {"not a url at all"}}},
		{"ftp image url", url.Values{"img_url": {"ftp://example.com/x.jpg"}}},
		{"schemeless image url", url.Values{"img_url": {"example.com/x.jpg"}}},
		{"blank body", url.Values{"body": {"   "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, f := newPostsHandler(t)
			admin := createTestUser(t, f.db, testUser{Email: "admin@example.com", Name: "Admin", IsAdmin: true})

			form := url.Values{}
			for k, v := range valid {
				form[k] = v
			}
			for k, v := range tt.override {
				form[k] = v
			}

			req := requestWithSession(f.sm, postForm(RouteMakePost, form))
			req = requestWithUser(req, admin)
			rec := httptest.NewRecorder()
			h.MakePost(rec, req)

			assertRedirect(t, rec, RouteMakePost)

			count, _ := store.New(f.db).CountPosts(context.Background())
			if count != 0 {
				t.Errorf("posts = %d after invalid submission, want 0", count)
			}
		})
	}
}

func TestEditPost_PreservesDateAndAuthor(t *testing.T) {
	h, f := newPostsHandler(t)
	admin := createTestUser(t, f.db, testUser{Email: "admin@example.com", Name: "Admin", IsAdmin: true})
	other := createTestUser(t, f.db, testUser{Email: "other@example.com", Name: "Other", IsAdmin: true})
	post := createTestPost(t, f.db, admin.ID, "Original Title")

	// The form has no say over date or author even if it tries.
	req := requestWithSession(f.sm, postForm("/edit-post/1", url.Values{
		"title":    {"Updated Title"},
		"subtitle": {"Updated sub"},
		"body":     {"Updated body."},
		"img_url":  {"https://example.com/new.jpg"},
		"date":     {"January 1, 1970"},
	}))
	req = requestWithURLParams(req, map[string]string{"id": "1"})
	req = requestWithUser(req, other)
	rec := httptest.NewRecorder()
	h.EditPost(rec, req)

	assertRedirect(t, rec, "/post/1")

	updated, err := store.New(f.db).GetPostByID(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("loading post: %v", err)
	}
	if updated.Title != "Updated Title" || updated.Body != "Updated body." {
		t.Errorf("mutable fields not updated: %+v", updated)
	}
	if updated.Date != post.Date {
		t.Errorf("date changed from %q to %q", post.Date, updated.Date)
	}
	if updated.AuthorID != admin.ID {
		t.Errorf("author changed from %d to %d", admin.ID, updated.AuthorID)
	}
}

func TestEditPost_RejectsInvalidFields(t *testing.T) {
	h, f := newPostsHandler(t)
	admin := createTestUser(t, f.db, testUser{Email: "admin@example.com", Name: "Admin", IsAdmin: true})
	post := createTestPost(t, f.db, admin.ID, "Original Title")

	req := requestWithSession(f.sm, postForm("/edit-post/1", url.Values{
		"title":    {"Updated Title"},
		"subtitle": {""},
		"body":     {"Updated body."},
		"img_url":  {"not a url at all"},
	}))
	req = requestWithURLParams(req, map[string]string{"id": "1"})
	req = requestWithUser(req, admin)
	rec := httptest.NewRecorder()
	h.EditPost(rec, req)

	assertRedirect(t, rec, "/edit-post/1")

	unchanged, err := store.New(f.db).GetPostByID(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("loading post: %v", err)
	}
	if unchanged.Title != post.Title {
		t.Errorf("title changed to %q after invalid submission", unchanged.Title)
	}
}

func TestEditPost_TitleConflict(t *testing.T) {
	h, f := newPostsHandler(t)
	admin := createTestUser(t, f.db, testUser{Email: "admin@example.com", Name: "Admin", IsAdmin: true})
	createTestPost(t, f.db, admin.ID, "First")
	createTestPost(t, f.db, admin.ID, "Second")

	// Renaming Second to First collides; keeping its own title does not.
	tests := []struct {
		title        string
		wantRedirect string
	}{
		{"First", "/edit-post/2"},
		{"Second", "/post/2"},
	}

	for _, tt := range tests {
		req := requestWithSession(f.sm, postForm("/edit-post/2", url.Values{
			"title":    {tt.title},
			"subtitle": {"Sub"},
			"body":     {"Body."},
			"img_url":  {"https://example.com/x.jpg"},
		}))
		req = requestWithURLParams(req, map[string]string{"id": "2"})
		req = requestWithUser(req, admin)
		rec := httptest.NewRecorder()
		h.EditPost(rec, req)

		assertRedirect(t, rec, tt.wantRedirect)
	}
}

func TestDeleteConfirm(t *testing.T) {
	h, f := newPostsHandler(t)
	admin := createTestUser(t, f.db, testUser{Email: "admin@example.com", Name: "Admin", IsAdmin: true})
	createTestPost(t, f.db, admin.ID, "Doomed Post")

	req := requestWithSession(f.sm, httptest.NewRequest(http.MethodGet, "/delete?post_id=1", nil))
	req = requestWithUser(req, admin)
	rec := httptest.NewRecorder()
	h.DeleteConfirm(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)
}

func TestDelete_CascadesComments(t *testing.T) {
	h, f := newPostsHandler(t)
	admin := createTestUser(t, f.db, testUser{Email: "admin@example.com", Name: "Admin", IsAdmin: true})
	post := createTestPost(t, f.db, admin.ID, "Doomed Post")

	queries := store.New(f.db)
	for i := 0; i < 3; i++ {
		if _, err := queries.CreateComment(context.Background(), store.CreateCommentParams{
			PostID:      post.ID,
			CommenterID: admin.ID,
			Body:        "a comment",
			CreatedAt:   post.CreatedAt,
		}); err != nil {
			t.Fatalf("seeding comment: %v", err)
		}
	}

	req := requestWithSession(f.sm, postForm(RouteDeletePost, url.Values{"post_id": {"1"}}))
	req = requestWithUser(req, admin)
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	assertRedirect(t, rec, RouteRoot)

	if _, err := queries.GetPostByID(context.Background(), post.ID); err == nil {
		t.Error("post still present after delete")
	}
	count, _ := queries.CountCommentsForPost(context.Background(), post.ID)
	if count != 0 {
		t.Errorf("comments = %d after delete, want 0", count)
	}
}

func TestDelete_UnknownPost(t *testing.T) {
	h, f := newPostsHandler(t)
	admin := createTestUser(t, f.db, testUser{Email: "admin@example.com", Name: "Admin", IsAdmin: true})

	req := requestWithSession(f.sm, postForm(RouteDeletePost, url.Values{"post_id": {"999"}}))
	req = requestWithUser(req, admin)
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	assertStatus(t, rec.Code, http.StatusNotFound)
}
