package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/showcasehq/showcase/internal/cache"
	"github.com/showcasehq/showcase/internal/config"
	"github.com/showcasehq/showcase/internal/gate"
	"github.com/showcasehq/showcase/internal/prefs"
	"github.com/showcasehq/showcase/internal/reviews"
	"github.com/showcasehq/showcase/internal/server/middleware"
	"github.com/showcasehq/showcase/internal/ui"
)

// PageConfig holds presentation settings for server-rendered pages.
type PageConfig struct {
	SiteName      string
	PageTTL       time.Duration // shared-cache lifetime of public pages
	Rules         gate.Rules
	SecureCookies bool
}

// PageHandler renders the public site and the admin dashboard. Rendered
// HTML is kept in the page cache under content tags so admin edits and
// sign-out invalidate exactly what they affect.
type PageHandler struct {
	cfg      PageConfig
	store    *config.Store
	cache    cache.Cache
	reviews  *reviews.Client
	renderer *ui.Renderer
	prefs    *prefs.Resolver
	logger   *slog.Logger
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(cfg PageConfig, store *config.Store, c cache.Cache, rc *reviews.Client, renderer *ui.Renderer, resolver *prefs.Resolver, logger *slog.Logger) *PageHandler {
	if cfg.PageTTL <= 0 {
		cfg.PageTTL = 5 * time.Minute
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "Showcase"
	}
	return &PageHandler{
		cfg:      cfg,
		store:    store,
		cache:    c,
		reviews:  rc,
		renderer: renderer,
		prefs:    resolver,
		logger:   logger,
	}
}

// Home renders the landing page.
// GET /
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.publicPage(w, r, ui.PageHome, "", []string{cache.TagProjects, cache.TagReviews},
		func(ctx context.Context, d *ui.PageData) error {
			projects, err := h.store.ListProjects(ctx)
			if err != nil {
				return err
			}
			d.Projects = projects

			list, err := h.reviews.Fetch(ctx)
			if err != nil {
				// The page is still useful without reviews.
				h.logger.Warn("reviews unavailable for home page", "error", err)
				return nil
			}
			d.Reviews = list
			return nil
		})
}

// Pricing renders the pricing table.
// GET /pricing
func (h *PageHandler) Pricing(w http.ResponseWriter, r *http.Request) {
	h.publicPage(w, r, ui.PagePricing, "Pricing", []string{cache.TagPricing},
		func(ctx context.Context, d *ui.PageData) error {
			tiers, err := h.store.ListPricingTiers(ctx)
			d.Tiers = tiers
			return err
		})
}

// Projects renders the project showcase.
// GET /projects
func (h *PageHandler) Projects(w http.ResponseWriter, r *http.Request) {
	h.publicPage(w, r, ui.PageProjects, "Projects", []string{cache.TagProjects},
		func(ctx context.Context, d *ui.PageData) error {
			projects, err := h.store.ListProjects(ctx)
			d.Projects = projects
			return err
		})
}

// Login renders the sign-in form. The route gate has already redirected
// visitors who hold a valid session.
// GET /admin/login
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	d, err := h.baseData(r, "Sign in")
	if err != nil {
		h.renderFailed(w, r, err)
		return
	}
	if queryString(r, "error") != "" {
		d.Error = "Invalid credentials"
	}
	d.CallbackURL = localRedirect(queryString(r, "callbackUrl"), h.cfg.Rules.AdminPrefix, "")

	w.Header().Set("Cache-Control", "no-store")
	h.write(w, r, ui.PageLogin, d)
}

// Admin renders the dashboard for the signed-in admin. Renders are cached
// per user under the layout tag, which sign-out invalidates.
// GET /admin
func (h *PageHandler) Admin(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	if sess == nil {
		http.Redirect(w, r, h.cfg.Rules.LoginPath, http.StatusTemporaryRedirect)
		return
	}
	w.Header().Set("Cache-Control", "private, no-store")

	p := h.prefs.Resolve(r)
	key := fmt.Sprintf("admin:%s:%s:%s", sess.UserID, p.Language, p.Theme)
	if body, ok, err := h.cache.Get(r.Context(), key); err == nil && ok {
		writeHTML(w, body, "HIT")
		return
	}

	d, err := h.baseData(r, "Dashboard")
	if err != nil {
		h.renderFailed(w, r, err)
		return
	}
	d.Session = sess
	if d.Tiers, err = h.store.ListPricingTiers(r.Context()); err != nil {
		h.renderFailed(w, r, err)
		return
	}
	if d.Projects, err = h.store.ListProjects(r.Context()); err != nil {
		h.renderFailed(w, r, err)
		return
	}

	body, err := h.renderer.RenderBytes(ui.PageAdmin, d)
	if err != nil {
		h.renderFailed(w, r, err)
		return
	}
	h.remember(r, key, body, h.cfg.PageTTL, cache.TagLayout, cache.TagPricing, cache.TagProjects, cache.TagContact)
	writeHTML(w, body, "MISS")
}

// preferencesRequest is the payload for SetPreferences.
type preferencesRequest struct {
	Theme    string `json:"theme"`
	Language string `json:"language"`
	Redirect string `json:"redirect"`
}

// SetPreferences stores the visitor's theme and language. Form posts are
// redirected back to the page they came from.
// POST /api/preferences
func (h *PageHandler) SetPreferences(w http.ResponseWriter, r *http.Request) {
	form := isFormPost(r)
	var req preferencesRequest
	if form {
		values, err := readForm(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid form body")
			return
		}
		req = preferencesRequest{Theme: values["theme"], Language: values["language"], Redirect: values["redirect"]}
	} else if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p, err := h.prefs.Normalize(prefs.Preferences{Theme: req.Theme, Language: req.Language}, h.prefs.Resolve(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	prefs.Store(w, p, h.cfg.SecureCookies)

	if form {
		http.Redirect(w, r, localRedirect(req.Redirect, "/", "/"), http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// publicPage serves a cacheable page. Renders are keyed by page and visitor
// preferences and tagged with the content they show plus the contact block
// in the footer.
func (h *PageHandler) publicPage(w http.ResponseWriter, r *http.Request, page, title string, tags []string, load func(context.Context, *ui.PageData) error) {
	p := h.prefs.Resolve(r)
	key := fmt.Sprintf("page:%s:%s:%s", page, p.Language, p.Theme)

	w.Header().Set("Cache-Control", fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate=60", int(h.cfg.PageTTL.Seconds())))
	w.Header().Set("Vary", "Cookie, Accept-Language, Sec-CH-Prefers-Color-Scheme")

	if body, ok, err := h.cache.Get(r.Context(), key); err == nil && ok {
		writeHTML(w, body, "HIT")
		return
	} else if err != nil {
		h.logger.Warn("page cache read failed", "key", key, "error", err)
	}

	d, err := h.baseData(r, title)
	if err != nil {
		h.renderFailed(w, r, err)
		return
	}
	if err := load(r.Context(), d); err != nil {
		h.renderFailed(w, r, err)
		return
	}

	body, err := h.renderer.RenderBytes(page, d)
	if err != nil {
		h.renderFailed(w, r, err)
		return
	}
	h.remember(r, key, body, h.cfg.PageTTL, append(tags, cache.TagContact)...)
	writeHTML(w, body, "MISS")
}

func (h *PageHandler) baseData(r *http.Request, title string) (*ui.PageData, error) {
	contact, err := h.store.GetContactInfo(r.Context())
	if err != nil {
		return nil, err
	}
	return &ui.PageData{
		Site:      h.cfg.SiteName,
		Title:     title,
		Path:      r.URL.Path,
		Prefs:     h.prefs.Resolve(r),
		Languages: h.prefs.Languages(),
		Contact:   contact,
	}, nil
}

// remember writes a render to the page cache; failures only cost a re-render.
func (h *PageHandler) remember(r *http.Request, key string, body []byte, ttl time.Duration, tags ...string) {
	if err := h.cache.Set(r.Context(), key, body, ttl, tags...); err != nil {
		h.logger.Warn("page cache write failed", "key", key, "error", err)
	}
}

func (h *PageHandler) write(w http.ResponseWriter, r *http.Request, page string, d *ui.PageData) {
	body, err := h.renderer.RenderBytes(page, d)
	if err != nil {
		h.renderFailed(w, r, err)
		return
	}
	writeHTML(w, body, "")
}

func (h *PageHandler) renderFailed(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("render page", "path", r.URL.Path, "error", err, "request_id", middleware.GetRequestID(r.Context()))
	w.Header().Set("Cache-Control", "no-store")
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func writeHTML(w http.ResponseWriter, body []byte, cacheStatus string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if cacheStatus != "" {
		w.Header().Set("X-Cache", cacheStatus)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
