// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/alexedwards/scs/v2"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html": &fstest.MapFile{Data: []byte(
			`{{define "base"}}<html><body>` +
				`{{if .Flash}}<div class="flash {{.FlashType}}">{{.Flash}}</div>{{end}}` +
				`{{template "content" .}}` +
				`<footer>{{.CurrentYear}}</footer></body></html>{{end}}`)},
		"partials/nav.html": &fstest.MapFile{Data: []byte(
			`{{define "nav"}}<nav>{{if .User}}{{.User.Name}}{{else}}guest{{end}}</nav>{{end}}`)},
		"pages/index.html": &fstest.MapFile{Data: []byte(
			`{{define "content"}}{{template "nav" .}}<h1>{{.Title}}</h1>{{end}}`)},
	}
}

func TestRender(t *testing.T) {
	r, err := New(Config{TemplatesFS: testFS()})
	if err != nil {
		t.Fatalf("creating renderer: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	if err := r.Render(rec, req, "index", TemplateData{Title: "Home"}); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "<h1>Home</h1>") {
		t.Errorf("body missing title: %s", body)
	}
	if !strings.Contains(body, "guest") {
		t.Errorf("body missing anonymous nav: %s", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	r, err := New(Config{TemplatesFS: testFS()})
	if err != nil {
		t.Fatalf("creating renderer: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	if err := r.Render(rec, req, "missing", TemplateData{}); err == nil {
		t.Error("expected error for unknown template")
	}
	if rec.Body.Len() != 0 {
		t.Error("failed render wrote to the response")
	}
}

func TestRender_FlashConsumedOnce(t *testing.T) {
	sm := scs.New()

	r, err := New(Config{TemplatesFS: testFS(), SessionManager: sm})
	if err != nil {
		t.Fatalf("creating renderer: %v", err)
	}

	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.SetFlash(req, "Post created!", "success")

		rec := httptest.NewRecorder()
		if err := r.Render(rec, req, "index", TemplateData{}); err != nil {
			t.Fatalf("first render: %v", err)
		}
		if !strings.Contains(rec.Body.String(), "Post created!") {
			t.Error("flash missing from first render")
		}

		rec = httptest.NewRecorder()
		if err := r.Render(rec, req, "index", TemplateData{}); err != nil {
			t.Fatalf("second render: %v", err)
		}
		if strings.Contains(rec.Body.String(), "Post created!") {
			t.Error("flash survived a second render")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestRenderStatus(t *testing.T) {
	r, err := New(Config{TemplatesFS: testFS()})
	if err != nil {
		t.Fatalf("creating renderer: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()

	if err := r.RenderStatus(rec, req, http.StatusNotFound, "index", TemplateData{Title: "Not Found"}); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		exclude string
	}{
		{
			name: "basic formatting",
			in:   "**bold** text",
			want: "<strong>bold</strong>",
		},
		{
			name:    "script stripped",
			in:      "hello <script>alert(1)</script>",
			want:    "hello",
			exclude: "<script>",
		},
		{
			name:    "event handlers stripped",
			in:      `<a href="/x" onclick="steal()">link</a>`,
			want:    "link",
			exclude: "onclick",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(Markdown(tt.in))
			if !strings.Contains(got, tt.want) {
				t.Errorf("Markdown(%q) = %q, want it to contain %q", tt.in, got, tt.want)
			}
			if tt.exclude != "" && strings.Contains(got, tt.exclude) {
				t.Errorf("Markdown(%q) = %q, must not contain %q", tt.in, got, tt.exclude)
			}
		})
	}
}
