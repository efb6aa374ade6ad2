package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/showcasehq/showcase/internal/cache"
	"github.com/showcasehq/showcase/internal/config"
	"github.com/showcasehq/showcase/internal/model"
	"github.com/showcasehq/showcase/internal/reviews"
)

// ContentHandler serves the site content as JSON: public read endpoints and
// the admin CRUD endpoints behind the route gate.
type ContentHandler struct {
	store   *config.Store
	cache   cache.Cache
	reviews *reviews.Client
	logger  *slog.Logger
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(store *config.Store, c cache.Cache, rc *reviews.Client, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{
		store:   store,
		cache:   c,
		reviews: rc,
		logger:  logger,
	}
}

// ---------------------------------------------------------------------------
// Public
// ---------------------------------------------------------------------------

// ListPricing returns all pricing tiers in display order.
// GET /api/pricing, GET /admin/api/pricing
func (h *ContentHandler) ListPricing(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.store.ListPricingTiers(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, err, "Pricing tiers")
		return
	}
	writeList(w, tiers)
}

// ListProjects returns all showcase projects, featured first.
// GET /api/projects, GET /admin/api/projects
func (h *ContentHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjects(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, err, "Projects")
		return
	}
	writeList(w, projects)
}

// GetContact returns the site contact block.
// GET /api/contact, GET /admin/api/contact
func (h *ContentHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	info, err := h.store.GetContactInfo(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, err, "Contact info")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// ListReviews relays the external reviews feed.
// GET /api/reviews
func (h *ContentHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	list, err := h.reviews.Fetch(r.Context())
	if err != nil {
		if errors.Is(err, reviews.ErrUpstream) {
			h.logger.Warn("reviews feed unavailable", "error", err)
			writeError(w, http.StatusBadGateway, "Reviews are temporarily unavailable")
			return
		}
		h.logger.Error("fetch reviews", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeList(w, list)
}

// ---------------------------------------------------------------------------
// Admin: pricing tiers
// ---------------------------------------------------------------------------

// GetPricingTier returns one tier.
// GET /admin/api/pricing/{id}
func (h *ContentHandler) GetPricingTier(w http.ResponseWriter, r *http.Request) {
	tier, err := h.store.GetPricingTier(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, h.logger, err, "Pricing tier")
		return
	}
	writeJSON(w, http.StatusOK, tier)
}

// CreatePricingTier adds a tier.
// POST /admin/api/pricing
func (h *ContentHandler) CreatePricingTier(w http.ResponseWriter, r *http.Request) {
	var tier model.PricingTier
	if err := readJSON(r, &tier); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	tier.Normalize()
	if err := tier.Validate(); err != nil {
		writeStoreError(w, h.logger, err, "Pricing tier")
		return
	}
	if err := h.store.CreatePricingTier(r.Context(), &tier); err != nil {
		writeStoreError(w, h.logger, err, "Pricing tier")
		return
	}
	h.invalidate(r, cache.TagPricing)
	writeJSON(w, http.StatusCreated, tier)
}

// UpdatePricingTier replaces a tier.
// PUT /admin/api/pricing/{id}
func (h *ContentHandler) UpdatePricingTier(w http.ResponseWriter, r *http.Request) {
	existing, err := h.store.GetPricingTier(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, h.logger, err, "Pricing tier")
		return
	}

	var tier model.PricingTier
	if err := readJSON(r, &tier); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	tier.ID = existing.ID
	tier.CreatedAt = existing.CreatedAt
	tier.Normalize()
	if err := tier.Validate(); err != nil {
		writeStoreError(w, h.logger, err, "Pricing tier")
		return
	}
	if err := h.store.UpdatePricingTier(r.Context(), &tier); err != nil {
		writeStoreError(w, h.logger, err, "Pricing tier")
		return
	}
	h.invalidate(r, cache.TagPricing)
	writeJSON(w, http.StatusOK, tier)
}

// DeletePricingTier removes a tier.
// DELETE /admin/api/pricing/{id}
func (h *ContentHandler) DeletePricingTier(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeletePricingTier(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, h.logger, err, "Pricing tier")
		return
	}
	h.invalidate(r, cache.TagPricing)
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Admin: projects
// ---------------------------------------------------------------------------

// GetProject returns one project.
// GET /admin/api/projects/{id}
func (h *ContentHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, h.logger, err, "Project")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreateProject adds a project.
// POST /admin/api/projects
func (h *ContentHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var p model.Project
	if err := readJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		writeStoreError(w, h.logger, err, "Project")
		return
	}
	if err := h.store.CreateProject(r.Context(), &p); err != nil {
		writeStoreError(w, h.logger, err, "Project")
		return
	}
	h.invalidate(r, cache.TagProjects)
	writeJSON(w, http.StatusCreated, p)
}

// UpdateProject replaces a project.
// PUT /admin/api/projects/{id}
func (h *ContentHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	existing, err := h.store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, h.logger, err, "Project")
		return
	}

	var p model.Project
	if err := readJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	p.Normalize()
	if err := p.Validate(); err != nil {
		writeStoreError(w, h.logger, err, "Project")
		return
	}
	if err := h.store.UpdateProject(r.Context(), &p); err != nil {
		writeStoreError(w, h.logger, err, "Project")
		return
	}
	h.invalidate(r, cache.TagProjects)
	writeJSON(w, http.StatusOK, p)
}

// DeleteProject removes a project.
// DELETE /admin/api/projects/{id}
func (h *ContentHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, h.logger, err, "Project")
		return
	}
	h.invalidate(r, cache.TagProjects)
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Admin: contact
// ---------------------------------------------------------------------------

// UpdateContact replaces the contact block.
// PUT /admin/api/contact
func (h *ContentHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var info model.ContactInfo
	if err := readJSON(r, &info); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := info.Validate(); err != nil {
		writeStoreError(w, h.logger, err, "Contact info")
		return
	}
	if err := h.store.SetContactInfo(r.Context(), &info); err != nil {
		writeStoreError(w, h.logger, err, "Contact info")
		return
	}
	h.invalidate(r, cache.TagContact)
	writeJSON(w, http.StatusOK, info)
}

func (h *ContentHandler) invalidate(r *http.Request, tag string) {
	if err := h.cache.InvalidateTag(r.Context(), tag); err != nil {
		h.logger.Warn("cache invalidation failed", "tag", tag, "error", err)
	}
}
