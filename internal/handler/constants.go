// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteAbout is the about page route.
	RouteAbout = "/about"
	// RouteContact is the contact page route.
	RouteContact = "/contact"
	// RoutePost is the single post route pattern.
	RoutePost = "/post/{id}"
	// RouteMakePost is the post creation route.
	RouteMakePost = "/makepost"
	// RouteEditPost is the post editing route pattern.
	RouteEditPost = "/edit-post/{id}"
	// RouteDeletePost is the post deletion route.
	RouteDeletePost = "/delete"
	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteRegister is the registration route.
	RouteRegister = "/register"
	// RouteAdminPanel is the admin promotion panel route.
	RouteAdminPanel = "/admin-panel"
	// RouteHealth is the liveness probe route.
	RouteHealth = "/health"
)

// Redirect targets.
const (
	redirectRoot     = "/"
	redirectLogin    = "/login"
	redirectRegister = "/register"
	redirectContact  = "/contact"
)
