// Package prefs resolves a visitor's theme and language: the last value
// they chose (kept in cookies) or a fallback from request hints.
package prefs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	ThemeCookie    = "theme"
	LanguageCookie = "lang"

	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"

	cookieMaxAge = 365 * 24 * time.Hour
)

// ErrInvalid is returned for an unknown theme or unsupported language.
var ErrInvalid = errors.New("invalid preference")

// Preferences is what page rendering needs to know about the visitor.
type Preferences struct {
	Theme    string `json:"theme"`
	Language string `json:"language"`
}

// Resolver matches requests against the site's supported languages.
type Resolver struct {
	supported []language.Tag
	matcher   language.Matcher
}

// NewResolver builds a resolver for the given BCP 47 language codes. The
// first one is the default.
func NewResolver(languages []string) (*Resolver, error) {
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	tags := make([]language.Tag, 0, len(languages))
	for _, l := range languages {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("parse language %q: %w", l, err)
		}
		tags = append(tags, tag)
	}
	return &Resolver{supported: tags, matcher: language.NewMatcher(tags)}, nil
}

// Languages returns the supported language codes, default first.
func (r *Resolver) Languages() []string {
	out := make([]string, len(r.supported))
	for i, t := range r.supported {
		out[i] = t.String()
	}
	return out
}

// Resolve returns the visitor's preferences. Stored cookie values win; the
// theme falls back to the Sec-CH-Prefers-Color-Scheme client hint and then
// "system", the language to Accept-Language and then the default.
func (r *Resolver) Resolve(req *http.Request) Preferences {
	p := Preferences{Theme: ThemeSystem, Language: r.supported[0].String()}

	if c, err := req.Cookie(ThemeCookie); err == nil && validTheme(c.Value) {
		p.Theme = c.Value
	} else if hint := strings.Trim(req.Header.Get("Sec-CH-Prefers-Color-Scheme"), `" `); hint == ThemeDark || hint == ThemeLight {
		p.Theme = hint
	}

	if c, err := req.Cookie(LanguageCookie); err == nil {
		if lang, ok := r.exact(c.Value); ok {
			p.Language = lang
			return p
		}
	}
	if accept := req.Header.Get("Accept-Language"); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			_, idx, conf := r.matcher.Match(tags...)
			if conf != language.No {
				p.Language = r.supported[idx].String()
			}
		}
	}
	return p
}

// Normalize validates p, filling empty fields from current.
func (r *Resolver) Normalize(p, current Preferences) (Preferences, error) {
	if p.Theme == "" {
		p.Theme = current.Theme
	}
	if !validTheme(p.Theme) {
		return Preferences{}, fmt.Errorf("%w: theme %q", ErrInvalid, p.Theme)
	}
	if p.Language == "" {
		p.Language = current.Language
	}
	lang, ok := r.exact(p.Language)
	if !ok {
		return Preferences{}, fmt.Errorf("%w: language %q", ErrInvalid, p.Language)
	}
	p.Language = lang
	return p, nil
}

// Store writes p as long-lived cookies. They are readable by scripts so the
// page can apply the theme before first paint.
func Store(w http.ResponseWriter, p Preferences, secure bool) {
	for name, value := range map[string]string{ThemeCookie: p.Theme, LanguageCookie: p.Language} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			MaxAge:   int(cookieMaxAge.Seconds()),
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// exact reports whether code names a supported language, returning its
// canonical form.
func (r *Resolver) exact(code string) (string, bool) {
	tag, err := language.Parse(code)
	if err != nil {
		return "", false
	}
	for _, s := range r.supported {
		if s == tag {
			return s.String(), true
		}
	}
	return "", false
}

func validTheme(t string) bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}
