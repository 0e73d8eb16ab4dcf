// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"upblog/internal/model"
)

// DBTX is the minimal database interface required by Queries. Both *sql.DB
// and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries provides typed access to the database.
type Queries struct {
	db DBTX
}

// New creates a Queries instance bound to the given database or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries instance bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// =============================================================================
// USERS
// =============================================================================

const userColumns = "id, email, password_hash, name, is_admin, created_at, updated_at, last_login_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.IsAdmin,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	return u, err
}

// CreateUserParams holds parameters for CreateUser.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUser inserts a new user and returns the created record.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, name, is_admin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+userColumns,
		arg.Email, arg.PasswordHash, arg.Name, arg.IsAdmin, arg.CreatedAt, arg.UpdatedAt)
	return scanUser(row)
}

// GetUserByID returns the user with the given id, or sql.ErrNoRows.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail returns the user with the given email, or sql.ErrNoRows.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// SetUserAdminParams holds parameters for SetUserAdmin.
type SetUserAdminParams struct {
	IsAdmin   bool
	UpdatedAt time.Time
	ID        int64
}

// SetUserAdmin updates the admin flag for a user.
func (q *Queries) SetUserAdmin(ctx context.Context, arg SetUserAdminParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET is_admin = ?, updated_at = ? WHERE id = ?`,
		arg.IsAdmin, arg.UpdatedAt, arg.ID)
	return err
}

// UpdateUserLastLoginParams holds parameters for UpdateUserLastLogin.
type UpdateUserLastLoginParams struct {
	LastLoginAt sql.NullTime
	ID          int64
}

// UpdateUserLastLogin records the time of a successful login.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, arg UpdateUserLastLoginParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`,
		arg.LastLoginAt, arg.ID)
	return err
}

// ListAdmins returns all users with the admin flag set, oldest first.
func (q *Queries) ListAdmins(ctx context.Context) ([]model.User, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE is_admin = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers returns the total number of registered users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// =============================================================================
// POSTS
// =============================================================================

const postColumns = "id, author_id, title, subtitle, date, body, img_url, created_at, updated_at"

func scanPost(row interface{ Scan(...any) error }) (model.Post, error) {
	var p model.Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Subtitle, &p.Date,
		&p.Body, &p.ImgURL, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreatePostParams holds parameters for CreatePost.
type CreatePostParams struct {
	AuthorID  int64
	Title     string
	Subtitle  string
	Date      string
	Body      string
	ImgURL    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreatePost inserts a new post and returns the created record.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (model.Post, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO posts (author_id, title, subtitle, date, body, img_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+postColumns,
		arg.AuthorID, arg.Title, arg.Subtitle, arg.Date, arg.Body, arg.ImgURL,
		arg.CreatedAt, arg.UpdatedAt)
	return scanPost(row)
}

// GetPostByID returns the post with the given id, or sql.ErrNoRows.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (model.Post, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

// GetPostByTitle returns the post with the given title, or sql.ErrNoRows.
// Titles are globally unique.
func (q *Queries) GetPostByTitle(ctx context.Context, title string) (model.Post, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE title = ?`, title)
	return scanPost(row)
}

// ListPostsRow is a post joined with its author's display name.
type ListPostsRow struct {
	model.Post
	AuthorName string
}

// ListPosts returns all posts newest first, with author names resolved.
func (q *Queries) ListPosts(ctx context.Context) ([]ListPostsRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT p.id, p.author_id, p.title, p.subtitle, p.date, p.body, p.img_url,
		       p.created_at, p.updated_at, u.name
		FROM posts p
		JOIN users u ON u.id = p.author_id
		ORDER BY p.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []ListPostsRow
	for rows.Next() {
		var r ListPostsRow
		if err := rows.Scan(&r.ID, &r.AuthorID, &r.Title, &r.Subtitle, &r.Date,
			&r.Body, &r.ImgURL, &r.CreatedAt, &r.UpdatedAt, &r.AuthorName); err != nil {
			return nil, err
		}
		posts = append(posts, r)
	}
	return posts, rows.Err()
}

// UpdatePostParams holds parameters for UpdatePost. The publish date and the
// author are immutable and deliberately absent.
type UpdatePostParams struct {
	Title     string
	Subtitle  string
	Body      string
	ImgURL    string
	UpdatedAt time.Time
	ID        int64
}

// UpdatePost overwrites the mutable fields of a post in place.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE posts SET title = ?, subtitle = ?, body = ?, img_url = ?, updated_at = ?
		WHERE id = ?`,
		arg.Title, arg.Subtitle, arg.Body, arg.ImgURL, arg.UpdatedAt, arg.ID)
	return err
}

// DeletePost removes a single post row. Use DeletePostCascade to also remove
// dependent comments atomically.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	return err
}

// DeleteCommentsForPost removes all comments attached to a post.
func (q *Queries) DeleteCommentsForPost(ctx context.Context, postID int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM comments WHERE post_id = ?`, postID)
	return err
}

// CountPosts returns the total number of posts.
func (q *Queries) CountPosts(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count)
	return count, err
}

// =============================================================================
// COMMENTS
// =============================================================================

// CreateCommentParams holds parameters for CreateComment.
type CreateCommentParams struct {
	PostID      int64
	CommenterID int64
	Body        string
	CreatedAt   time.Time
}

// CreateComment inserts a new comment and returns the created record.
func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (model.Comment, error) {
	var c model.Comment
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO comments (post_id, commenter_id, body, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id, post_id, commenter_id, body, created_at`,
		arg.PostID, arg.CommenterID, arg.Body, arg.CreatedAt)
	err := row.Scan(&c.ID, &c.PostID, &c.CommenterID, &c.Body, &c.CreatedAt)
	return c, err
}

// ListCommentsForPostRow is a comment joined with its commenter's display name.
type ListCommentsForPostRow struct {
	model.Comment
	CommenterName string
}

// ListCommentsForPost returns a post's comments oldest first.
func (q *Queries) ListCommentsForPost(ctx context.Context, postID int64) ([]ListCommentsForPostRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.id, c.post_id, c.commenter_id, c.body, c.created_at, u.name
		FROM comments c
		JOIN users u ON u.id = c.commenter_id
		WHERE c.post_id = ?
		ORDER BY c.id`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []ListCommentsForPostRow
	for rows.Next() {
		var r ListCommentsForPostRow
		if err := rows.Scan(&r.ID, &r.PostID, &r.CommenterID, &r.Body, &r.CreatedAt,
			&r.CommenterName); err != nil {
			return nil, err
		}
		comments = append(comments, r)
	}
	return comments, rows.Err()
}

// CountCommentsForPost returns the number of comments on a post.
func (q *Queries) CountCommentsForPost(ctx context.Context, postID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE post_id = ?`, postID).Scan(&count)
	return count, err
}

// =============================================================================
// EVENTS
// =============================================================================

// CreateEventParams holds parameters for CreateEvent.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent inserts an event log entry.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (model.Event, error) {
	var e model.Event
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO events (level, category, message, user_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, level, category, message, user_id, metadata, created_at`,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.Metadata, arg.CreatedAt)
	err := row.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.Metadata, &e.CreatedAt)
	return e, err
}
