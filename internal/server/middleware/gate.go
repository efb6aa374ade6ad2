package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/showcasehq/showcase/internal/gate"
	"github.com/showcasehq/showcase/internal/model"
	"github.com/showcasehq/showcase/internal/service"
)

type contextKeySession string

// SessionKey is the context key for the validated admin session.
const SessionKey contextKeySession = "admin_session"

// SessionValidator checks a raw session token.
type SessionValidator interface {
	Validate(token string) (model.Session, error)
}

// TokenReader extracts the raw session token from a request.
type TokenReader interface {
	Read(r *http.Request) string
}

// Gate returns an HTTP middleware that applies the route gate before any
// page logic runs. Requests outside the gated path families pass untouched.
// For gated paths the session token is validated; a redirect decision is
// answered with 307, otherwise a valid session is attached to the request
// context (see GetSession).
//
// Tampered tokens are logged at WARN as a security event, expired ones at
// DEBUG. The token itself is never logged.
func Gate(g *gate.Gate, sessions SessionValidator, tokens TokenReader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := routingPath(r)
			if !g.NeedsSession(path) {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := sessions.Validate(tokens.Read(r))
			switch {
			case err == nil:
			case errors.Is(err, service.ErrTampered):
				logger.Warn("rejected tampered session token",
					"path", path,
					"request_id", GetRequestID(r.Context()),
					"remote_addr", r.RemoteAddr,
					"error", err,
				)
			case errors.Is(err, service.ErrExpired):
				logger.Debug("session expired", "path", path, "request_id", GetRequestID(r.Context()))
			case errors.Is(err, service.ErrNoSession):
			default:
				logger.Error("session validation failed", "path", path, "error", err)
			}
			authenticated := err == nil

			d := g.Decide(path, authenticated)
			if d.Action == gate.Redirect {
				w.Header().Set("Cache-Control", "no-store")
				http.Redirect(w, r, d.Target, http.StatusTemporaryRedirect)
				return
			}

			if authenticated {
				r = r.WithContext(WithSession(r.Context(), &sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// routingPath is the path the router dispatches on: the escaped form when
// the request carried one that differs from the decoded path.
func routingPath(r *http.Request) string {
	if r.URL.RawPath != "" {
		return r.URL.RawPath
	}
	return r.URL.Path
}

// GetSession extracts the validated session from the context. Returns nil
// if the request carried no valid session.
func GetSession(ctx context.Context) *model.Session {
	if s, ok := ctx.Value(SessionKey).(*model.Session); ok {
		return s
	}
	return nil
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, SessionKey, sess)
}
