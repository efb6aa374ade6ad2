package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/showcasehq/showcase/internal/config"
	"github.com/showcasehq/showcase/internal/model"
	"github.com/showcasehq/showcase/internal/service"
)

// minPasswordLength applies to accounts created through the admin API.
const minPasswordLength = 8

// SystemHandler serves health probes and admin account management.
type SystemHandler struct {
	store    *config.Store
	hashCost int
	logger   *slog.Logger
}

// NewSystemHandler creates a new SystemHandler. hashCost is the bcrypt cost
// used for new admin passwords.
func NewSystemHandler(store *config.Store, hashCost int, logger *slog.Logger) *SystemHandler {
	if hashCost <= 0 {
		hashCost = service.DefaultHashCost
	}
	return &SystemHandler{
		store:    store,
		hashCost: hashCost,
		logger:   logger,
	}
}

// ---------------------------------------------------------------------------
// Probes
// ---------------------------------------------------------------------------

// Healthz is a liveness probe. Returns 200 if the process is running.
// GET /healthz
func (h *SystemHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz is a readiness probe. Returns 200 when the content store is
// reachable, or 503 otherwise.
// GET /readyz
func (h *SystemHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := map[string]string{"store": "ok"}

	if err := h.store.Ping(r.Context()); err != nil {
		checks["store"] = "error: " + err.Error()
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status": status,
		"checks": checks,
		"driver": h.store.Driver(),
	})
}

// ---------------------------------------------------------------------------
// Admin accounts
// ---------------------------------------------------------------------------

// ListAdmins returns all admin accounts as identities. Password hashes never
// leave the store.
// GET /admin/api/admins
func (h *SystemHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.store.ListAdmins(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, err, "Admins")
		return
	}

	identities := make([]model.UserIdentity, 0, len(admins))
	for i := range admins {
		identities = append(identities, admins[i].Identity())
	}
	writeList(w, identities)
}

// CreateAdmin creates a new admin account.
// POST /admin/api/admins
func (h *SystemHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	body.Email = strings.TrimSpace(body.Email)
	if body.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}
	if len(body.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	hash, err := service.HashPassword(body.Password, h.hashCost)
	if err != nil {
		h.logger.Error("hash admin password", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	admin := &model.AdminUser{
		Email:        body.Email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(body.Name),
	}
	if err := h.store.CreateAdmin(r.Context(), admin); err != nil {
		if errors.Is(err, config.ErrConflict) {
			writeError(w, http.StatusConflict, "Admin with this email already exists")
			return
		}
		writeStoreError(w, h.logger, err, "Admin")
		return
	}

	h.logger.Info("admin created", "user_id", admin.ID)
	writeJSON(w, http.StatusCreated, admin.Identity())
}
