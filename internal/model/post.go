// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// PostDateFormat is the human-readable publish date stamped on a post at
// creation time. The date never changes on edit.
const PostDateFormat = "January 2, 2006"

// Post represents a blog post. Title is globally unique; the author is set
// at creation and immutable afterwards.
type Post struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"author_id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	Date      string    `json:"date"` // publish date, PostDateFormat
	Body      string    `json:"body"` // Markdown, sanitized when rendered
	ImgURL    string    `json:"img_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment represents a reader comment on a post. Comments are written in
// Markdown and rendered at display time; they are never edited or deleted.
type Comment struct {
	ID          int64     `json:"id"`
	PostID      int64     `json:"post_id"`
	CommenterID int64     `json:"commenter_id"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}
