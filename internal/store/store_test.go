// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"upblog/internal/model"
)

// testDB creates a temporary test database with migrations applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "upblog-test-*.db")
	require.NoError(t, err, "creating temp file")
	dbPath := f.Name()
	require.NoError(t, f.Close())

	db, err := NewDB(dbPath)
	require.NoError(t, err, "NewDB")

	require.NoError(t, Migrate(db), "Migrate")

	t.Cleanup(func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	})
	return db
}

func createTestUser(t *testing.T, q *Queries, email string, isAdmin bool) model.User {
	t.Helper()
	now := time.Now()
	user, err := q.CreateUser(context.Background(), CreateUserParams{
		Email:        email,
		PasswordHash: "hash",
		Name:         "Test User",
		IsAdmin:      isAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err, "CreateUser")
	return user
}

func createTestPost(t *testing.T, q *Queries, authorID int64, title string) model.Post {
	t.Helper()
	now := time.Now()
	post, err := q.CreatePost(context.Background(), CreatePostParams{
		AuthorID:  authorID,
		Title:     title,
		Subtitle:  "A subtitle",
		Date:      now.Format(model.PostDateFormat),
		Body:      "<p>Body</p>",
		ImgURL:    "https://example.com/img.png",
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err, "CreatePost")
	return post
}

func TestCreateUser(t *testing.T) {
	db := testDB(t)
	q := New(db)

	user := createTestUser(t, q, "test@example.com", false)

	require.NotZero(t, user.ID)
	require.Equal(t, "test@example.com", user.Email)
	require.False(t, user.IsAdmin)
	require.False(t, user.LastLoginAt.Valid)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := testDB(t)
	q := New(db)

	createTestUser(t, q, "dup@example.com", false)

	now := time.Now()
	_, err := q.CreateUser(context.Background(), CreateUserParams{
		Email:        "dup@example.com",
		PasswordHash: "other-hash",
		Name:         "Other",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.Error(t, err, "duplicate email must violate the unique constraint")

	// The original account is untouched.
	found, err := q.GetUserByEmail(context.Background(), "dup@example.com")
	require.NoError(t, err)
	require.Equal(t, "hash", found.PasswordHash)
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db := testDB(t)
	q := New(db)

	_, err := q.GetUserByEmail(context.Background(), "nobody@example.com")
	require.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestSetUserAdmin(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	user := createTestUser(t, q, "promote@example.com", false)

	err := q.SetUserAdmin(ctx, SetUserAdminParams{
		IsAdmin:   true,
		UpdatedAt: time.Now(),
		ID:        user.ID,
	})
	require.NoError(t, err)

	found, err := q.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, found.IsAdmin)
}

func TestUpdateUserLastLogin(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	user := createTestUser(t, q, "login@example.com", false)

	err := q.UpdateUserLastLogin(ctx, UpdateUserLastLoginParams{
		LastLoginAt: sql.NullTime{Time: time.Now(), Valid: true},
		ID:          user.ID,
	})
	require.NoError(t, err)

	found, err := q.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, found.LastLoginAt.Valid)
}

func TestListAdmins(t *testing.T) {
	db := testDB(t)
	q := New(db)

	createTestUser(t, q, "a@example.com", true)
	createTestUser(t, q, "b@example.com", false)
	createTestUser(t, q, "c@example.com", true)

	admins, err := q.ListAdmins(context.Background())
	require.NoError(t, err)
	require.Len(t, admins, 2)
	require.Equal(t, "a@example.com", admins[0].Email)
	require.Equal(t, "c@example.com", admins[1].Email)
}

func TestCreatePost_DuplicateTitle(t *testing.T) {
	db := testDB(t)
	q := New(db)

	author := createTestUser(t, q, "author@example.com", true)
	createTestPost(t, q, author.ID, "Unique Title")

	now := time.Now()
	_, err := q.CreatePost(context.Background(), CreatePostParams{
		AuthorID:  author.ID,
		Title:     "Unique Title",
		Subtitle:  "Another",
		Date:      now.Format(model.PostDateFormat),
		Body:      "<p>Other body</p>",
		ImgURL:    "https://example.com/other.png",
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.Error(t, err, "duplicate title must violate the unique constraint")
}

func TestListPosts_NewestFirst(t *testing.T) {
	db := testDB(t)
	q := New(db)

	author := createTestUser(t, q, "author@example.com", true)
	createTestPost(t, q, author.ID, "First")
	createTestPost(t, q, author.ID, "Second")

	posts, err := q.ListPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, "Second", posts[0].Title)
	require.Equal(t, "First", posts[1].Title)
	require.Equal(t, "Test User", posts[0].AuthorName)
}

func TestUpdatePost_DateImmutable(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	author := createTestUser(t, q, "author@example.com", true)
	post := createTestPost(t, q, author.ID, "Original")

	err := q.UpdatePost(ctx, UpdatePostParams{
		Title:     "Edited",
		Subtitle:  "Edited subtitle",
		Body:      "<p>Edited</p>",
		ImgURL:    "https://example.com/new.png",
		UpdatedAt: time.Now(),
		ID:        post.ID,
	})
	require.NoError(t, err)

	found, err := q.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, "Edited", found.Title)
	require.Equal(t, post.Date, found.Date, "publish date must not change on edit")
	require.Equal(t, post.AuthorID, found.AuthorID, "author must not change on edit")
}

func TestComments(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	author := createTestUser(t, q, "author@example.com", true)
	commenter := createTestUser(t, q, "reader@example.com", false)
	post := createTestPost(t, q, author.ID, "Commented")

	_, err := q.CreateComment(ctx, CreateCommentParams{
		PostID:      post.ID,
		CommenterID: commenter.ID,
		Body:        "Nice post!",
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)

	comments, err := q.ListCommentsForPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.Equal(t, "Nice post!", comments[0].Body)
	require.Equal(t, "Test User", comments[0].CommenterName)
}

func TestCreateComment_MissingPost(t *testing.T) {
	db := testDB(t)
	q := New(db)

	commenter := createTestUser(t, q, "reader@example.com", false)

	_, err := q.CreateComment(context.Background(), CreateCommentParams{
		PostID:      9999,
		CommenterID: commenter.ID,
		Body:        "Orphan",
		CreatedAt:   time.Now(),
	})
	require.Error(t, err, "comment on a missing post must violate the foreign key")
}

func TestDeletePostCascade(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	author := createTestUser(t, q, "author@example.com", true)
	commenter := createTestUser(t, q, "reader@example.com", false)
	post := createTestPost(t, q, author.ID, "Doomed")

	for range 3 {
		_, err := q.CreateComment(ctx, CreateCommentParams{
			PostID:      post.ID,
			CommenterID: commenter.ID,
			Body:        "comment",
			CreatedAt:   time.Now(),
		})
		require.NoError(t, err)
	}

	require.NoError(t, DeletePostCascade(ctx, db, post.ID))

	_, err := q.GetPostByID(ctx, post.ID)
	require.True(t, errors.Is(err, sql.ErrNoRows))

	count, err := q.CountCommentsForPost(ctx, post.ID)
	require.NoError(t, err)
	require.Zero(t, count, "no orphaned comments may remain")
}

func TestCreateEvent(t *testing.T) {
	db := testDB(t)
	q := New(db)

	event, err := q.CreateEvent(context.Background(), CreateEventParams{
		Level:     model.EventLevelWarning,
		Category:  model.EventCategoryAuth,
		Message:   "access denied",
		Metadata:  "{}",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	require.NotZero(t, event.ID)
	require.Equal(t, model.EventLevelWarning, event.Level)
}
