package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/showcasehq/showcase/internal/cache"
	"github.com/showcasehq/showcase/internal/gate"
	"github.com/showcasehq/showcase/internal/model"
	"github.com/showcasehq/showcase/internal/server/middleware"
	"github.com/showcasehq/showcase/internal/service"
	"github.com/showcasehq/showcase/internal/session"
)

// loginErrorCode is the query value the login page shows as a generic
// "invalid credentials" message.
const loginErrorCode = "CredentialsSignin"

// AuthHandler serves sign-in, sign-out and session introspection.
type AuthHandler struct {
	auth      *service.AuthService
	transport *session.Transport
	cache     cache.Cache
	rules     gate.Rules
	logger    *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, transport *session.Transport, c cache.Cache, rules gate.Rules, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:      auth,
		transport: transport,
		cache:     c,
		rules:     rules,
		logger:    logger,
	}
}

// loginRequest is the expected payload for the Login endpoint.
type loginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CallbackURL string `json:"callback_url"`
}

// sessionResponse describes the signed-in user.
type sessionResponse struct {
	User      *model.UserIdentity `json:"user,omitempty"`
	UserID    string              `json:"user_id"`
	IssuedAt  time.Time           `json:"issued_at"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// Login verifies credentials and, on success, writes the session cookie.
// Form posts are answered with redirects (admin root on success, login page
// with ?error=CredentialsSignin on failure); JSON requests get 200 or 401.
// Bad input and bad credentials are never distinguished.
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	form := isFormPost(r)
	var req loginRequest
	if form {
		values, err := readForm(r)
		if err != nil {
			h.loginFailed(w, r, true)
			return
		}
		req.Email = values["email"]
		req.Password = values["password"]
		req.CallbackURL = values["callbackUrl"]
	} else if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity, err := h.auth.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) || errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Info("sign-in failed",
				"email", strings.TrimSpace(req.Email),
				"request_id", middleware.GetRequestID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
			h.loginFailed(w, r, form)
			return
		}
		h.logger.Error("sign-in error", "error", err, "request_id", middleware.GetRequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	token, sess, err := h.auth.Issue(*identity)
	if err != nil {
		h.logger.Error("issue session", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.transport.Write(w, r, token, sess.ExpiresAt)
	h.logger.Info("signed in", "user_id", identity.ID, "request_id", middleware.GetRequestID(r.Context()))

	if form {
		target := localRedirect(req.CallbackURL, h.rules.AdminPrefix, h.rules.AdminPrefix)
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		User:      identity,
		UserID:    sess.UserID,
		IssuedAt:  sess.IssuedAt,
		ExpiresAt: sess.ExpiresAt,
	})
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, form bool) {
	if form {
		http.Redirect(w, r, h.rules.LoginPath+"?error="+url.QueryEscape(loginErrorCode), http.StatusSeeOther)
		return
	}
	writeError(w, http.StatusUnauthorized, "Invalid credentials")
}

// Logout expires every session cookie on the request, drops cached admin
// renders and tells the browser to discard its cache for the site. It is
// idempotent: calling it without a session produces the same response.
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cleared := h.transport.Clear(w, r)

	if err := h.cache.InvalidateTag(r.Context(), cache.TagLayout); err != nil {
		h.logger.Warn("invalidate layout cache on sign-out", "error", err)
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Clear-Site-Data", `"cache"`)
	h.logger.Debug("signed out", "cookies_cleared", len(cleared), "request_id", middleware.GetRequestID(r.Context()))
	http.Redirect(w, r, h.rules.LoginPath, http.StatusSeeOther)
}

// Session returns the current session, or 401 when there is none.
// GET /api/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	sess, err := h.auth.Validate(h.transport.Read(r))
	if err != nil {
		if errors.Is(err, service.ErrTampered) {
			h.logger.Warn("rejected tampered session token",
				"path", r.URL.Path,
				"request_id", middleware.GetRequestID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}
		writeError(w, http.StatusUnauthorized, "Not signed in")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		UserID:    sess.UserID,
		IssuedAt:  sess.IssuedAt,
		ExpiresAt: sess.ExpiresAt,
	})
}
