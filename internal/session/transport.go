// Package session carries signed session tokens between the server and the
// browser in cookies. Long tokens are split across numbered chunk cookies
// (name.0, name.1, ...) to stay under per-cookie size limits.
package session

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultCookieName is the base session cookie name.
	DefaultCookieName = "showcase.session-token"

	securePrefix = "__Secure-"
	hostPrefix   = "__Host-"

	// chunkSize keeps each cookie comfortably under the 4096-byte limit
	// once name and attributes are added.
	chunkSize = 3800
)

// Options configures a Transport.
type Options struct {
	Name   string        // base name; DefaultCookieName if empty
	Secure bool          // Secure attribute and __Secure- prefix
	MaxAge time.Duration // cookie lifetime; should match the session max age
}

// Transport reads, writes and clears the session cookies. It holds only
// read-only configuration and is safe for concurrent use.
type Transport struct {
	base   string
	secure bool
	maxAge time.Duration
	chunk  int
}

// NewTransport returns a Transport for opts.
func NewTransport(opts Options) *Transport {
	base := strings.TrimPrefix(strings.TrimPrefix(opts.Name, securePrefix), hostPrefix)
	if base == "" {
		base = DefaultCookieName
	}
	return &Transport{
		base:   base,
		secure: opts.Secure,
		maxAge: opts.MaxAge,
		chunk:  chunkSize,
	}
}

// CookieName returns the canonical cookie name the transport writes.
func (t *Transport) CookieName() string {
	if t.secure {
		return securePrefix + t.base
	}
	return t.base
}

// Read returns the session token on r, reassembling chunks if needed.
// It returns "" when there is no session cookie.
func (t *Transport) Read(r *http.Request) string {
	name := t.CookieName()
	if c, err := r.Cookie(name); err == nil && c.Value != "" {
		return c.Value
	}

	var b strings.Builder
	for i := 0; ; i++ {
		c, err := r.Cookie(name + "." + strconv.Itoa(i))
		if err != nil {
			break
		}
		b.WriteString(c.Value)
	}
	return b.String()
}

// Write stores token in one or more cookies expiring at expires. Leftover
// cookies from a previous, differently-chunked token are expired.
func (t *Transport) Write(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	name := t.CookieName()
	written := map[string]bool{}

	if len(token) <= t.chunk {
		http.SetCookie(w, t.cookie(name, token, expires))
		written[name] = true
	} else {
		for i := 0; len(token) > 0; i++ {
			n := min(t.chunk, len(token))
			chunkName := name + "." + strconv.Itoa(i)
			http.SetCookie(w, t.cookie(chunkName, token[:n], expires))
			written[chunkName] = true
			token = token[n:]
		}
	}

	if r == nil {
		return
	}
	for _, c := range r.Cookies() {
		if t.Owns(c.Name) && !written[c.Name] {
			http.SetCookie(w, expired(c.Name))
		}
	}
}

// Clear expires every cookie on r that follows the session naming
// convention (base name, numbered chunks, __Secure-/__Host- variants) and
// always the canonical name, even when r does not carry it. Calling it
// again on a request without cookies produces the same response headers.
// It returns the names it expired, sorted.
func (t *Transport) Clear(w http.ResponseWriter, r *http.Request) []string {
	names := map[string]bool{t.CookieName(): true}
	if r != nil {
		for _, c := range r.Cookies() {
			if t.Owns(c.Name) {
				names[c.Name] = true
			}
		}
	}

	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	for _, n := range out {
		http.SetCookie(w, expired(n))
	}
	return out
}

// Owns reports whether name follows the session cookie naming convention.
func (t *Transport) Owns(name string) bool {
	name = strings.TrimPrefix(name, securePrefix)
	name = strings.TrimPrefix(name, hostPrefix)
	if name == t.base {
		return true
	}
	rest, ok := strings.CutPrefix(name, t.base+".")
	if !ok || rest == "" {
		return false
	}
	_, err := strconv.Atoi(rest)
	return err == nil
}

func (t *Transport) cookie(name, value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if !expires.IsZero() {
		c.Expires = expires
		c.MaxAge = int(time.Until(expires).Seconds())
	} else if t.maxAge > 0 {
		c.MaxAge = int(t.maxAge.Seconds())
	}
	return c
}

// expired builds a deletion cookie. Browsers drop prefixed cookies that are
// set without Secure, deletions included.
func expired(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   strings.HasPrefix(name, securePrefix) || strings.HasPrefix(name, hostPrefix),
		SameSite: http.SameSiteLaxMode,
	}
}
