package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/showcasehq/showcase/internal/cache"
	"github.com/showcasehq/showcase/internal/model"
)

// listBody decodes the standard list envelope.
type listBody[T any] struct {
	Resource []T `json:"resource"`
	Meta     struct {
		Count int `json:"count"`
	} `json:"meta"`
}

// ---------------------------------------------------------------------------
// Public endpoints
// ---------------------------------------------------------------------------

func TestListPricing_EmptyIsArray(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/pricing", nil)
	assertStatus(t, rr, http.StatusOK)

	var raw map[string]json.RawMessage
	decodeJSON(t, rr, &raw)
	if string(raw["resource"]) != "[]" {
		t.Errorf("resource = %s, want []", raw["resource"])
	}
}

func TestPublicContentIsReadableWithoutSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.store.CreatePricingTier(ctx, &model.PricingTier{Slug: "pro", Name: "Pro", Currency: "USD", Interval: "month", PriceCents: 4900})
	env.store.CreateProject(ctx, &model.Project{Slug: "alpha", Title: "Alpha", Tags: []string{}})
	env.store.SetContactInfo(ctx, &model.ContactInfo{Email: "hello@example.com"})

	rr := env.do(t, "GET", "/api/pricing", nil)
	assertStatus(t, rr, http.StatusOK)
	var tiers listBody[model.PricingTier]
	decodeJSON(t, rr, &tiers)
	if tiers.Meta.Count != 1 || tiers.Resource[0].Slug != "pro" {
		t.Errorf("pricing = %+v", tiers)
	}

	rr = env.do(t, "GET", "/api/projects", nil)
	assertStatus(t, rr, http.StatusOK)
	var projects listBody[model.Project]
	decodeJSON(t, rr, &projects)
	if projects.Meta.Count != 1 {
		t.Errorf("projects = %+v", projects)
	}

	rr = env.do(t, "GET", "/api/contact", nil)
	assertStatus(t, rr, http.StatusOK)
	var contact model.ContactInfo
	decodeJSON(t, rr, &contact)
	if contact.Email != "hello@example.com" {
		t.Errorf("contact = %+v", contact)
	}
}

func TestListReviews_Disabled(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/api/reviews", nil)
	assertStatus(t, rr, http.StatusOK)

	var body listBody[model.Review]
	decodeJSON(t, rr, &body)
	if body.Meta.Count != 0 {
		t.Errorf("expected no reviews, got %d", body.Meta.Count)
	}
}

func TestListReviews_Upstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"reviews":[{"author":"Ada","rating":5,"text":"Great"}]}`))
	}))
	defer upstream.Close()

	env := newTestEnvWith(t, envOptions{reviewsURL: upstream.URL})
	rr := env.do(t, "GET", "/api/reviews", nil)
	assertStatus(t, rr, http.StatusOK)

	var body listBody[model.Review]
	decodeJSON(t, rr, &body)
	if body.Meta.Count != 1 || body.Resource[0].Author != "Ada" {
		t.Errorf("reviews = %+v", body)
	}
}

func TestListReviews_UpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	env := newTestEnvWith(t, envOptions{reviewsURL: upstream.URL})
	rr := env.do(t, "GET", "/api/reviews", nil)
	assertStatus(t, rr, http.StatusBadGateway)
}

// ---------------------------------------------------------------------------
// Admin endpoints
// ---------------------------------------------------------------------------

func TestAdminAPI_RequiresSession(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/admin/api/pricing", "/admin/api/projects", "/admin/api/contact", "/admin/api/admins"} {
		rr := env.do(t, "GET", path, nil)
		assertStatus(t, rr, http.StatusTemporaryRedirect)
		if loc := rr.Header().Get("Location"); loc != "/admin/login" {
			t.Errorf("%s: Location = %q", path, loc)
		}
	}
}

func TestAdminPricingCRUD(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.sessionCookies(t, env.seedAdmin(t))
	ctx := context.Background()

	env.cache.Set(ctx, "page:pricing:en:system", []byte("old"), time.Minute, cache.TagPricing)

	rr := env.do(t, "POST", "/admin/api/pricing", toJSON(t, map[string]interface{}{
		"name":        "Pro Plan",
		"price_cents": 4900,
		"features":    []string{"Support"},
	}), cookies...)
	assertStatus(t, rr, http.StatusCreated)

	var created model.PricingTier
	decodeJSON(t, rr, &created)
	if created.ID == "" || created.Slug != "pro-plan" || created.Currency != "USD" || created.Interval != "month" {
		t.Errorf("created = %+v", created)
	}
	if _, ok, _ := env.cache.Get(ctx, "page:pricing:en:system"); ok {
		t.Error("pricing page cache should be invalidated on create")
	}

	rr = env.do(t, "GET", "/admin/api/pricing/"+created.ID, nil, cookies...)
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, "PUT", "/admin/api/pricing/"+created.ID, toJSON(t, map[string]interface{}{
		"name":        "Pro Plan",
		"slug":        "pro-plan",
		"price_cents": 5900,
		"highlighted": true,
	}), cookies...)
	assertStatus(t, rr, http.StatusOK)
	var updated model.PricingTier
	decodeJSON(t, rr, &updated)
	if updated.ID != created.ID || updated.PriceCents != 5900 || !updated.Highlighted {
		t.Errorf("updated = %+v", updated)
	}

	rr = env.do(t, "POST", "/admin/api/pricing", toJSON(t, map[string]interface{}{"name": "Pro Plan"}), cookies...)
	assertStatus(t, rr, http.StatusConflict)

	rr = env.do(t, "POST", "/admin/api/pricing", toJSON(t, map[string]interface{}{"name": "Bad", "interval": "weekly"}), cookies...)
	assertStatus(t, rr, http.StatusBadRequest)

	rr = env.do(t, "DELETE", "/admin/api/pricing/"+created.ID, nil, cookies...)
	assertStatus(t, rr, http.StatusNoContent)

	rr = env.do(t, "GET", "/admin/api/pricing/"+created.ID, nil, cookies...)
	assertStatus(t, rr, http.StatusNotFound)

	rr = env.do(t, "PUT", "/admin/api/pricing/missing", toJSON(t, map[string]interface{}{"name": "X"}), cookies...)
	assertStatus(t, rr, http.StatusNotFound)
}

func TestAdminProjectCRUD(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.sessionCookies(t, env.seedAdmin(t))

	rr := env.do(t, "POST", "/admin/api/projects", toJSON(t, map[string]interface{}{
		"title":    "Launch Site",
		"tags":     []string{"web"},
		"featured": true,
	}), cookies...)
	assertStatus(t, rr, http.StatusCreated)
	var created model.Project
	decodeJSON(t, rr, &created)
	if created.Slug != "launch-site" {
		t.Errorf("slug = %q", created.Slug)
	}

	rr = env.do(t, "PUT", "/admin/api/projects/"+created.ID, toJSON(t, map[string]interface{}{
		"title":   "Launch Site",
		"summary": "Rebuilt",
	}), cookies...)
	assertStatus(t, rr, http.StatusOK)
	var updated model.Project
	decodeJSON(t, rr, &updated)
	if updated.Summary != "Rebuilt" || updated.CreatedAt.IsZero() {
		t.Errorf("updated = %+v", updated)
	}

	rr = env.do(t, "POST", "/admin/api/projects", toJSON(t, map[string]interface{}{"title": ""}), cookies...)
	assertStatus(t, rr, http.StatusBadRequest)

	rr = env.do(t, "DELETE", "/admin/api/projects/"+created.ID, nil, cookies...)
	assertStatus(t, rr, http.StatusNoContent)
	rr = env.do(t, "DELETE", "/admin/api/projects/"+created.ID, nil, cookies...)
	assertStatus(t, rr, http.StatusNotFound)
}

func TestAdminUpdateContact(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.sessionCookies(t, env.seedAdmin(t))
	ctx := context.Background()

	env.cache.Set(ctx, "page:home:en:system", []byte("old"), time.Minute, cache.TagContact)

	rr := env.do(t, "PUT", "/admin/api/contact", toJSON(t, map[string]string{
		"email": "hi@example.com",
		"phone": "+1 555 0100",
	}), cookies...)
	assertStatus(t, rr, http.StatusOK)

	if _, ok, _ := env.cache.Get(ctx, "page:home:en:system"); ok {
		t.Error("contact-tagged pages should be invalidated")
	}

	rr = env.do(t, "GET", "/api/contact", nil)
	var got model.ContactInfo
	decodeJSON(t, rr, &got)
	if got.Email != "hi@example.com" {
		t.Errorf("contact = %+v", got)
	}

	rr = env.do(t, "PUT", "/admin/api/contact", toJSON(t, map[string]string{"email": "not-an-email"}), cookies...)
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestAdminAPI_MalformedBody(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.sessionCookies(t, env.seedAdmin(t))

	rr := env.do(t, "POST", "/admin/api/projects", strings.NewReader("{"), cookies...)
	assertStatus(t, rr, http.StatusBadRequest)
}
