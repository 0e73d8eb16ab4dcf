// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"bytes"
	"html/template"
	"log/slog"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// htmlSanitizer strips dangerous markup from user-supplied content. UGCPolicy
// permits the safe subset of HTML suitable for comments and post bodies.
var htmlSanitizer = bluemonday.UGCPolicy()

// Markdown converts user-supplied Markdown to sanitized HTML.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		slog.Error("markdown conversion failed", "error", err)
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(htmlSanitizer.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized above
}

// SanitizeHTML strips unsafe markup from trusted-author HTML, leaving the
// UGC-safe subset intact.
func SanitizeHTML(src string) template.HTML {
	return template.HTML(htmlSanitizer.Sanitize(src)) //nolint:gosec // sanitized
}
