// Package gate decides, per request path, whether a request may proceed or
// must be redirected based on whether it carries a valid admin session.
// It has no HTTP dependency; internal/server/middleware adapts it.
package gate

import (
	"fmt"
	"path"
	"strings"
)

// Action is the outcome of a gate decision.
type Action int

const (
	Pass Action = iota
	Redirect
)

func (a Action) String() string {
	switch a {
	case Pass:
		return "pass"
	case Redirect:
		return "redirect"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Decision is what the gate tells the transport layer to do. Target is set
// only for Redirect and is always one of the configured paths.
type Decision struct {
	Action Action
	Target string
}

// Rules are the path families the gate protects.
type Rules struct {
	AdminPrefix   string // protected subtree, e.g. /admin
	LoginPath     string // sign-in page, reachable anonymously
	AuthAPIPrefix string // sign-in/sign-out endpoints, always reachable
}

// DefaultRules returns the site's standard layout.
func DefaultRules() Rules {
	return Rules{
		AdminPrefix:   "/admin",
		LoginPath:     "/admin/login",
		AuthAPIPrefix: "/api/auth",
	}
}

type kind int

const (
	kindAuthAPI kind = iota
	kindLogin
	kindAdmin
)

// matcher is one row of the ordered matcher table. A pattern ending in
// "/*" matches the base path and everything below it at a segment boundary;
// any other pattern must match exactly.
type matcher struct {
	pattern string
	kind    kind
}

func (m matcher) match(p string) bool {
	if base, ok := strings.CutSuffix(m.pattern, "/*"); ok {
		return p == base || strings.HasPrefix(p, base+"/")
	}
	return p == m.pattern
}

// Gate is an immutable, ordered matcher table. Safe for concurrent use.
type Gate struct {
	rules    Rules
	matchers []matcher
}

// New compiles rules into a Gate. All paths must be absolute.
func New(r Rules) (*Gate, error) {
	for name, p := range map[string]string{
		"admin prefix":    r.AdminPrefix,
		"login path":      r.LoginPath,
		"auth API prefix": r.AuthAPIPrefix,
	} {
		if !strings.HasPrefix(p, "/") {
			return nil, fmt.Errorf("gate: %s %q must start with /", name, p)
		}
	}
	r.AdminPrefix = path.Clean(r.AdminPrefix)
	r.LoginPath = path.Clean(r.LoginPath)
	r.AuthAPIPrefix = path.Clean(r.AuthAPIPrefix)
	if r.AdminPrefix == "/" || r.AuthAPIPrefix == "/" {
		return nil, fmt.Errorf("gate: prefixes must not be the site root")
	}

	// Order is precedence: the auth API is never gated, the login page is
	// checked before the admin subtree it usually lives in.
	return &Gate{
		rules: r,
		matchers: []matcher{
			{pattern: r.AuthAPIPrefix + "/*", kind: kindAuthAPI},
			{pattern: r.LoginPath, kind: kindLogin},
			{pattern: r.AdminPrefix + "/*", kind: kindAdmin},
		},
	}, nil
}

// MustNew is like New but panics on invalid rules.
func MustNew(r Rules) *Gate {
	g, err := New(r)
	if err != nil {
		panic(err)
	}
	return g
}

// Rules returns the normalized rules the gate was built from.
func (g *Gate) Rules() Rules {
	return g.rules
}

// Decide returns the decision for a request path given whether the request
// carries a valid session.
func (g *Gate) Decide(p string, authenticated bool) Decision {
	m, ok := g.lookup(p)
	if !ok {
		return Decision{Action: Pass}
	}
	switch m.kind {
	case kindLogin:
		if authenticated {
			return Decision{Action: Redirect, Target: g.rules.AdminPrefix}
		}
	case kindAdmin:
		if !authenticated {
			return Decision{Action: Redirect, Target: g.rules.LoginPath}
		}
	}
	return Decision{Action: Pass}
}

// NeedsSession reports whether the decision for p depends on the session,
// so callers can skip token validation everywhere else.
func (g *Gate) NeedsSession(p string) bool {
	m, ok := g.lookup(p)
	return ok && m.kind != kindAuthAPI
}

// lookup classifies p both as given and in cleaned form. When the two
// disagree (dot segments, doubled slashes) the path is treated as part of
// the admin subtree, so a router that dispatches on the literal path and a
// reader of the cleaned path can never see different families.
func (g *Gate) lookup(p string) (matcher, bool) {
	if p == "" {
		p = "/"
	}
	literal, literalOK := g.match(p)
	cleaned, cleanedOK := g.match(cleanPath(p))
	if literalOK == cleanedOK && literal.kind == cleaned.kind {
		return literal, literalOK
	}
	for _, m := range g.matchers {
		if m.kind == kindAdmin {
			return m, true
		}
	}
	return matcher{}, false
}

func (g *Gate) match(p string) (matcher, bool) {
	for _, m := range g.matchers {
		if m.match(p) {
			return m, true
		}
	}
	return matcher{}, false
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}
