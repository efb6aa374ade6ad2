package ui

import (
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/showcasehq/showcase/internal/model"
	"github.com/showcasehq/showcase/internal/prefs"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func samplePage() *PageData {
	return &PageData{
		Site:      "Showcase",
		Path:      "/",
		Prefs:     prefs.Preferences{Theme: "dark", Language: "de"},
		Languages: []string{"en", "de"},
		Contact:   &model.ContactInfo{Email: "hello@example.com"},
		Tiers: []model.PricingTier{
			{Slug: "pro", Name: "Pro", PriceCents: 4900, Currency: "USD", Interval: "month", Features: []string{"Support"}, Highlighted: true},
		},
		Projects: []model.Project{
			{Slug: "alpha", Title: "Alpha <script>", Featured: true, Tags: []string{"go", "web"}},
		},
		Reviews: []model.Review{{Author: "Ada", Rating: 4, Text: "Great"}},
	}
}

func TestRenderAllPages(t *testing.T) {
	r := newRenderer(t)
	for _, page := range pages {
		t.Run(page, func(t *testing.T) {
			out, err := r.RenderBytes(page, samplePage())
			if err != nil {
				t.Fatalf("RenderBytes: %v", err)
			}
			html := string(out)
			if !strings.Contains(html, `lang="de"`) || !strings.Contains(html, `data-theme="dark"`) {
				t.Error("preferences not applied to <html>")
			}
			if !strings.Contains(html, "hello@example.com") {
				t.Error("contact missing from footer")
			}
		})
	}
}

func TestRenderPricing(t *testing.T) {
	out, err := newRenderer(t).RenderBytes(PagePricing, samplePage())
	if err != nil {
		t.Fatalf("RenderBytes: %v", err)
	}
	html := string(out)
	for _, want := range []string{"$49", "/ month", "tier highlighted", "<li>Support</li>"} {
		if !strings.Contains(html, want) {
			t.Errorf("pricing page missing %q", want)
		}
	}
}

func TestRenderEscapes(t *testing.T) {
	out, err := newRenderer(t).RenderBytes(PageProjects, samplePage())
	if err != nil {
		t.Fatalf("RenderBytes: %v", err)
	}
	if strings.Contains(string(out), "Alpha <script>") {
		t.Error("project title was not escaped")
	}
}

func TestRenderLoginError(t *testing.T) {
	data := samplePage()
	data.Error = "Invalid credentials"
	out, err := newRenderer(t).RenderBytes(PageLogin, data)
	if err != nil {
		t.Fatalf("RenderBytes: %v", err)
	}
	if !strings.Contains(string(out), `role="alert">Invalid credentials`) {
		t.Error("login error not shown")
	}
}

func TestRenderAdminShowsSession(t *testing.T) {
	data := samplePage()
	data.Session = &model.Session{UserID: "u1", ExpiresAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	out, err := newRenderer(t).RenderBytes(PageAdmin, data)
	if err != nil {
		t.Fatalf("RenderBytes: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, "2026-05-01 10:00 UTC") {
		t.Error("session expiry not rendered")
	}
	if !strings.Contains(html, `action="/api/auth/logout"`) {
		t.Error("sign-out form missing")
	}
}

func TestRenderUnknownPage(t *testing.T) {
	if _, err := newRenderer(t).RenderBytes("nope", samplePage()); err == nil {
		t.Error("expected error for unknown page")
	}
}

func TestStatic(t *testing.T) {
	if _, err := fs.Stat(Static(), "site.css"); err != nil {
		t.Errorf("site.css not embedded: %v", err)
	}
}
