package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/showcasehq/showcase/internal/cache"
	"github.com/showcasehq/showcase/internal/config"
	"github.com/showcasehq/showcase/internal/gate"
	"github.com/showcasehq/showcase/internal/model"
	"github.com/showcasehq/showcase/internal/openapi"
	"github.com/showcasehq/showcase/internal/prefs"
	"github.com/showcasehq/showcase/internal/reviews"
	"github.com/showcasehq/showcase/internal/server/middleware"
	"github.com/showcasehq/showcase/internal/service"
	"github.com/showcasehq/showcase/internal/session"
	"github.com/showcasehq/showcase/internal/ui"
)

const (
	testSecret   = "test-secret-for-handler-tests"
	testEmail    = "admin@example.com"
	testPassword = "supersecretpassword"
)

// testEnv holds shared state for handler integration tests.
type testEnv struct {
	store     *config.Store
	cache     *cache.Memory
	auth      *service.AuthService
	transport *session.Transport
	router    chi.Router
}

type envOptions struct {
	reviewsURL string
}

// newTestEnv creates a fresh test environment with an in-memory store and
// cache and a Chi router with every handler mounted behind the route gate.
func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWith(t, envOptions{})
}

func newTestEnvWith(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	store, err := config.NewStore("") // in-memory SQLite
	if err != nil {
		t.Fatalf("config.NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	auth, err := service.NewAuthService(store, service.AuthConfig{Secret: testSecret, HashCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	mem := cache.NewMemory()
	transport := session.NewTransport(session.Options{})
	rules := gate.DefaultRules()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	renderer, err := ui.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	resolver, err := prefs.NewResolver([]string{"en", "de"})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	rc := reviews.NewClient(reviews.Config{URL: opts.reviewsURL}, mem)

	authH := NewAuthHandler(auth, transport, mem, rules, logger)
	contentH := NewContentHandler(store, mem, rc, logger)
	pageH := NewPageHandler(PageConfig{SiteName: "Acme", Rules: rules}, store, mem, rc, renderer, resolver, logger)
	sysH := NewSystemHandler(store, bcrypt.MinCost, logger)
	specH := NewOpenAPIHandler(openapi.Info{Title: "Acme"})

	r := chi.NewRouter()
	r.Use(middleware.Gate(gate.MustNew(rules), auth, transport, logger))

	r.Get("/healthz", sysH.Healthz)
	r.Get("/readyz", sysH.Readyz)
	r.Get("/openapi.json", specH.ServeSpec)

	r.Get("/", pageH.Home)
	r.Get("/pricing", pageH.Pricing)
	r.Get("/projects", pageH.Projects)
	r.Post("/api/preferences", pageH.SetPreferences)

	r.Post("/api/auth/login", authH.Login)
	r.Post("/api/auth/logout", authH.Logout)
	r.Get("/api/auth/session", authH.Session)

	r.Get("/api/pricing", contentH.ListPricing)
	r.Get("/api/projects", contentH.ListProjects)
	r.Get("/api/contact", contentH.GetContact)
	r.Get("/api/reviews", contentH.ListReviews)

	r.Get("/admin/login", pageH.Login)
	r.Get("/admin", pageH.Admin)
	r.Route("/admin/api", func(r chi.Router) {
		r.Get("/pricing", contentH.ListPricing)
		r.Post("/pricing", contentH.CreatePricingTier)
		r.Get("/pricing/{id}", contentH.GetPricingTier)
		r.Put("/pricing/{id}", contentH.UpdatePricingTier)
		r.Delete("/pricing/{id}", contentH.DeletePricingTier)

		r.Get("/projects", contentH.ListProjects)
		r.Post("/projects", contentH.CreateProject)
		r.Get("/projects/{id}", contentH.GetProject)
		r.Put("/projects/{id}", contentH.UpdateProject)
		r.Delete("/projects/{id}", contentH.DeleteProject)

		r.Get("/contact", contentH.GetContact)
		r.Put("/contact", contentH.UpdateContact)

		r.Get("/admins", sysH.ListAdmins)
		r.Post("/admins", sysH.CreateAdmin)
	})

	return &testEnv{
		store:     store,
		cache:     mem,
		auth:      auth,
		transport: transport,
		router:    r,
	}
}

// seedAdmin creates the default admin account and returns it.
func (e *testEnv) seedAdmin(t *testing.T) *model.AdminUser {
	t.Helper()
	hash, err := service.HashPassword(testPassword, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin := &model.AdminUser{Email: testEmail, PasswordHash: hash, Name: "Test Admin"}
	if err := e.store.CreateAdmin(context.Background(), admin); err != nil {
		t.Fatalf("seedAdmin: %v", err)
	}
	return admin
}

// sessionCookies issues a session for admin and returns the cookies a
// browser would send back.
func (e *testEnv) sessionCookies(t *testing.T, admin *model.AdminUser) []*http.Cookie {
	t.Helper()
	token, sess, err := e.auth.Issue(admin.Identity())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	rr := httptest.NewRecorder()
	e.transport.Write(rr, httptest.NewRequest("GET", "/", nil), token, sess.ExpiresAt)
	return rr.Result().Cookies()
}

// do executes an HTTP request against the test router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// postForm submits an HTML form.
func (e *testEnv) postForm(t *testing.T, path string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func toJSON(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("toJSON: %v", err)
	}
	return buf
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v; body = %s", err, rr.Body.String())
	}
}

// liveCookies returns the cookies in rr that set a value rather than
// expiring one.
func liveCookies(rr *httptest.ResponseRecorder) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.MaxAge >= 0 && c.Value != "" {
			out = append(out, c)
		}
	}
	return out
}
