// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"upblog/internal/middleware"
	"upblog/internal/model"
	"upblog/internal/render"
	"upblog/internal/store"
)

// PostsHandler handles post listing, viewing, commenting, and the admin
// content management routes.
type PostsHandler struct {
	db       *sql.DB
	queries  *store.Queries
	renderer *render.Renderer
}

// NewPostsHandler creates a new PostsHandler.
func NewPostsHandler(db *sql.DB, renderer *render.Renderer) *PostsHandler {
	return &PostsHandler{
		db:       db,
		queries:  store.New(db),
		renderer: renderer,
	}
}

// IndexData holds data for the post listing page.
type IndexData struct {
	Posts []store.ListPostsRow
}

// Index renders the homepage with all posts, newest first.
func (h *PostsHandler) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := h.queries.ListPosts(r.Context())
	if err != nil {
		logAndInternalError(w, "listing posts", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "index", render.TemplateData{
		Title: "Home",
		User:  middleware.GetUser(r),
		Data:  IndexData{Posts: posts},
	}); err != nil {
		logAndInternalError(w, "rendering index", "error", err)
	}
}

// PostData holds data for the single post page.
type PostData struct {
	Post       model.Post
	AuthorName string
	Comments   []store.ListCommentsForPostRow
}

// Show renders a single post with its comments. An unknown id is a 404, not
// an error page.
func (h *PostsHandler) Show(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requirePost(w, r)
	if !ok {
		return
	}
	h.renderPostPage(w, r, post)
}

// renderPostPage renders the post view with its author and current comments.
func (h *PostsHandler) renderPostPage(w http.ResponseWriter, r *http.Request, post model.Post) {
	author, err := h.queries.GetUserByID(r.Context(), post.AuthorID)
	if err != nil {
		logAndInternalError(w, "loading post author", "error", err, "post_id", post.ID)
		return
	}

	comments, err := h.queries.ListCommentsForPost(r.Context(), post.ID)
	if err != nil {
		logAndInternalError(w, "listing comments", "error", err, "post_id", post.ID)
		return
	}

	if err := h.renderer.Render(w, r, "post", render.TemplateData{
		Title: post.Title,
		User:  middleware.GetUser(r),
		Data:  PostData{Post: post, AuthorName: author.Name, Comments: comments},
	}); err != nil {
		logAndInternalError(w, "rendering post", "error", err)
	}
}

// Comment handles a comment submission on a post. The post view is
// re-rendered in place rather than redirected, so a new comment appears
// immediately. Anonymous input is discarded with a prompt to log in.
func (h *PostsHandler) Comment(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requirePost(w, r)
	if !ok {
		return
	}

	user := middleware.GetUser(r)
	if user == nil {
		h.renderer.SetFlash(r, "You need to login or register to comment.", "error")
		h.renderPostPage(w, r, post)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderer.SetFlash(r, "Invalid form data", "error")
		h.renderPostPage(w, r, post)
		return
	}

	body := strings.TrimSpace(r.FormValue("comment"))
	if body == "" {
		h.renderer.SetFlash(r, "Comment cannot be empty.", "error")
		h.renderPostPage(w, r, post)
		return
	}

	if _, err := h.queries.CreateComment(r.Context(), store.CreateCommentParams{
		PostID:      post.ID,
		CommenterID: user.ID,
		Body:        body,
		CreatedAt:   time.Now(),
	}); err != nil {
		logAndInternalError(w, "creating comment", "error", err, "post_id", post.ID)
		return
	}

	h.renderPostPage(w, r, post)
}

// PostFormData holds data for the post creation and editing forms.
type PostFormData struct {
	Heading string
	Action  string
	Post    model.Post
}

// MakePostForm renders the post creation form.
func (h *PostsHandler) MakePostForm(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "post_form", render.TemplateData{
		Title: "New Post",
		User:  middleware.GetUser(r),
		Data:  PostFormData{Heading: "New Post", Action: RouteMakePost},
	}); err != nil {
		logAndInternalError(w, "rendering post form", "error", err)
	}
}

// MakePost creates a new post. The publish date is stamped at creation and
// never changes afterwards; the author is the signed-in admin.
func (h *PostsHandler) MakePost(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteMakePost) {
		return
	}

	in, errMsg := parsePostForm(r)
	if errMsg != "" {
		flashError(w, r, h.renderer, RouteMakePost, errMsg)
		return
	}

	if _, err := h.queries.GetPostByTitle(r.Context(), in.Title); err == nil {
		flashError(w, r, h.renderer, RouteMakePost, "A post with that title already exists.")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		logAndInternalError(w, "checking post title", "error", err)
		return
	}

	now := time.Now()
	post, err := h.queries.CreatePost(r.Context(), store.CreatePostParams{
		AuthorID:  middleware.GetUserID(r),
		Title:     in.Title,
		Subtitle:  in.Subtitle,
		Date:      now.Format(model.PostDateFormat),
		Body:      in.Body,
		ImgURL:    in.ImgURL,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		logAndInternalError(w, "creating post", "error", err)
		return
	}

	slog.Info("post created", "category", "post", "post_id", post.ID, "title", post.Title)

	flashSuccess(w, r, h.renderer, RouteRoot, "New post published.")
}

// EditPostForm renders the editing form pre-filled with the current post.
func (h *PostsHandler) EditPostForm(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requirePost(w, r)
	if !ok {
		return
	}

	if err := h.renderer.Render(w, r, "post_form", render.TemplateData{
		Title: "Edit Post",
		User:  middleware.GetUser(r),
		Data: PostFormData{
			Heading: "Edit Post",
			Action:  fmt.Sprintf("/edit-post/%d", post.ID),
			Post:    post,
		},
	}); err != nil {
		logAndInternalError(w, "rendering edit form", "error", err)
	}
}

// EditPost updates a post in place. The original publish date and author are
// preserved no matter what the form submits.
func (h *PostsHandler) EditPost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requirePost(w, r)
	if !ok {
		return
	}
	editURL := fmt.Sprintf("/edit-post/%d", post.ID)

	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	in, errMsg := parsePostForm(r)
	if errMsg != "" {
		flashError(w, r, h.renderer, editURL, errMsg)
		return
	}

	// Titles stay unique across posts other than the one being edited.
	if existing, err := h.queries.GetPostByTitle(r.Context(), in.Title); err == nil && existing.ID != post.ID {
		flashError(w, r, h.renderer, editURL, "A post with that title already exists.")
		return
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		logAndInternalError(w, "checking post title", "error", err)
		return
	}

	if err := h.queries.UpdatePost(r.Context(), store.UpdatePostParams{
		Title:     in.Title,
		Subtitle:  in.Subtitle,
		Body:      in.Body,
		ImgURL:    in.ImgURL,
		UpdatedAt: time.Now(),
		ID:        post.ID,
	}); err != nil {
		logAndInternalError(w, "updating post", "error", err, "post_id", post.ID)
		return
	}

	slog.Info("post updated", "category", "post", "post_id", post.ID)

	flashSuccess(w, r, h.renderer, fmt.Sprintf("/post/%d", post.ID), "Post updated.")
}

// DeleteConfirmData holds data for the deletion confirmation page.
type DeleteConfirmData struct {
	Post         model.Post
	CommentCount int64
}

// DeleteConfirm renders a confirmation page before a post is removed.
// Deletion itself only happens on the subsequent POST.
func (h *PostsHandler) DeleteConfirm(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requirePostByQuery(w, r)
	if !ok {
		return
	}

	count, err := h.queries.CountCommentsForPost(r.Context(), post.ID)
	if err != nil {
		logAndInternalError(w, "counting comments", "error", err, "post_id", post.ID)
		return
	}

	if err := h.renderer.Render(w, r, "delete_confirm", render.TemplateData{
		Title: "Delete Post",
		User:  middleware.GetUser(r),
		Data:  DeleteConfirmData{Post: post, CommentCount: count},
	}); err != nil {
		logAndInternalError(w, "rendering delete confirmation", "error", err)
	}
}

// Delete removes a post and all of its comments in one transaction.
func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteRoot) {
		return
	}

	post, ok := h.requirePostByQuery(w, r)
	if !ok {
		return
	}

	if err := store.DeletePostCascade(r.Context(), h.db, post.ID); err != nil {
		logAndInternalError(w, "deleting post", "error", err, "post_id", post.ID)
		return
	}

	slog.Info("post deleted", "category", "post", "post_id", post.ID, "title", post.Title)

	flashSuccess(w, r, h.renderer, RouteRoot, "Post deleted.")
}

// postFormInput holds the content fields of the post form.
type postFormInput struct {
	Title    string
	Subtitle string
	Body     string
	ImgURL   string
}

// parsePostForm validates the post form. All four content fields are
// required and the image URL must be an absolute http(s) URL. Returns the
// input and an empty message, or a user-facing validation message.
func parsePostForm(r *http.Request) (postFormInput, string) {
	in := postFormInput{
		Title:    strings.TrimSpace(r.FormValue("title")),
		Subtitle: strings.TrimSpace(r.FormValue("subtitle")),
		Body:     r.FormValue("body"),
		ImgURL:   strings.TrimSpace(r.FormValue("img_url")),
	}

	if in.Title == "" || in.Subtitle == "" || strings.TrimSpace(in.Body) == "" || in.ImgURL == "" {
		return in, "Title, subtitle, image URL, and body are all required."
	}
	if !isValidImageURL(in.ImgURL) {
		return in, "Image URL must be a valid http or https URL."
	}
	return in, ""
}

// isValidImageURL reports whether raw is an absolute http or https URL.
func isValidImageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// requirePost resolves the {id} URL parameter to a post, answering 404 for a
// malformed id or a post that does not exist.
func (h *PostsHandler) requirePost(w http.ResponseWriter, r *http.Request) (model.Post, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.NotFound(w, r)
		return model.Post{}, false
	}
	return h.loadPostOr404(w, r, id)
}

// requirePostByQuery resolves the post_id form/query value to a post.
func (h *PostsHandler) requirePostByQuery(w http.ResponseWriter, r *http.Request) (model.Post, bool) {
	id, err := strconv.ParseInt(r.FormValue("post_id"), 10, 64)
	if err != nil {
		h.NotFound(w, r)
		return model.Post{}, false
	}
	return h.loadPostOr404(w, r, id)
}

func (h *PostsHandler) loadPostOr404(w http.ResponseWriter, r *http.Request, id int64) (model.Post, bool) {
	post, err := h.queries.GetPostByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.NotFound(w, r)
		} else {
			logAndInternalError(w, "loading post", "error", err, "post_id", id)
		}
		return model.Post{}, false
	}
	return post, true
}

// NotFound renders the 404 page.
func (h *PostsHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.RenderStatus(w, r, http.StatusNotFound, "notfound", render.TemplateData{
		Title: "Page Not Found",
		User:  middleware.GetUser(r),
	}); err != nil {
		http.Error(w, "Page Not Found", http.StatusNotFound)
	}
}
