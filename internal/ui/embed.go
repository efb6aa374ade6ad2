// Package ui holds the server-rendered page templates and static assets.
package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/showcasehq/showcase/internal/model"
	"github.com/showcasehq/showcase/internal/prefs"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Pages rendered by the site. Each is parsed together with base.html.
const (
	PageHome     = "home"
	PagePricing  = "pricing"
	PageProjects = "projects"
	PageLogin    = "login"
	PageAdmin    = "admin"
)

var pages = []string{PageHome, PagePricing, PageProjects, PageLogin, PageAdmin}

var funcs = template.FuncMap{
	"year": func() int { return time.Now().Year() },
	"stars": func(n int) string {
		if n < 0 {
			n = 0
		}
		if n > 5 {
			n = 5
		}
		return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
	},
	"join": strings.Join,
}

// PageData is everything a page template can use.
type PageData struct {
	Site        string
	Title       string
	Path        string
	Prefs       prefs.Preferences
	Languages   []string
	Session     *model.Session
	Contact     *model.ContactInfo
	Tiers       []model.PricingTier
	Projects    []model.Project
	Reviews     []model.Review
	Error       string
	CallbackURL string
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page template.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.New("base.html").Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes page to w. The page is rendered into a buffer first so a
// template error never leaves a half-written response.
func (r *Renderer) Render(w io.Writer, page string, data *PageData) error {
	b, err := r.RenderBytes(page, data)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// RenderBytes renders page and returns the HTML.
func (r *Renderer) RenderBytes(page string, data *PageData) ([]byte, error) {
	t, ok := r.pages[page]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base.html", data); err != nil {
		return nil, fmt.Errorf("render %s: %w", page, err)
	}
	return buf.Bytes(), nil
}

// Static returns the static asset tree (CSS, icons) rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // embedded path is fixed at build time
	}
	return sub
}
