package gate

import "testing"

func TestDecide(t *testing.T) {
	g := MustNew(DefaultRules())

	tests := []struct {
		name          string
		path          string
		authenticated bool
		want          Decision
	}{
		{"auth api anonymous", "/api/auth/login", false, Decision{Action: Pass}},
		{"auth api authenticated", "/api/auth/logout", true, Decision{Action: Pass}},
		{"auth api root", "/api/auth", false, Decision{Action: Pass}},
		{"login anonymous", "/admin/login", false, Decision{Action: Pass}},
		{"login authenticated", "/admin/login", true, Decision{Action: Redirect, Target: "/admin"}},
		{"admin root anonymous", "/admin", false, Decision{Action: Redirect, Target: "/admin/login"}},
		{"admin child anonymous", "/admin/api/pricing", false, Decision{Action: Redirect, Target: "/admin/login"}},
		{"admin authenticated", "/admin/api/pricing", true, Decision{Action: Pass}},
		{"admin trailing slash", "/admin/", false, Decision{Action: Redirect, Target: "/admin/login"}},
		{"public page", "/pricing", false, Decision{Action: Pass}},
		{"public api", "/api/pricing", true, Decision{Action: Pass}},
		{"root", "/", false, Decision{Action: Pass}},
		{"segment boundary", "/administrator", false, Decision{Action: Pass}},
		{"login lookalike", "/admin/login-help", false, Decision{Action: Redirect, Target: "/admin/login"}},
		{"traversal into admin", "/pricing/../admin/settings", false, Decision{Action: Redirect, Target: "/admin/login"}},
		{"traversal out of auth api", "/api/auth/../../admin", false, Decision{Action: Redirect, Target: "/admin/login"}},
		{"double slash", "//admin", false, Decision{Action: Redirect, Target: "/admin/login"}},
		{"empty path", "", false, Decision{Action: Pass}},
		{"traversal out of admin", "/admin/api/pricing/../../..", false, Decision{Action: Redirect, Target: "/admin/login"}},
		{"encoded traversal out of admin", "/admin/api/pricing/..%2F..%2F..", false, Decision{Action: Redirect, Target: "/admin/login"}},
		{"traversal from public into auth api", "/pricing/../api/auth/login", false, Decision{Action: Redirect, Target: "/admin/login"}},
		{"login with dot segment", "/admin/./login", true, Decision{Action: Pass}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Decide(tt.path, tt.authenticated)
			if got != tt.want {
				t.Errorf("Decide(%q, %v) = %+v, want %+v", tt.path, tt.authenticated, got, tt.want)
			}
		})
	}
}

// Targets are only ever the two configured paths.
func TestRedirectTargetsAreConfiguredPaths(t *testing.T) {
	rules := Rules{AdminPrefix: "/backoffice", LoginPath: "/signin", AuthAPIPrefix: "/auth"}
	g := MustNew(rules)

	paths := []string{"/", "/backoffice", "/backoffice/x/y", "/signin", "/auth/callback", "/other", "/signin/extra"}
	for _, p := range paths {
		for _, authed := range []bool{false, true} {
			d := g.Decide(p, authed)
			if d.Action == Pass && d.Target != "" {
				t.Errorf("Decide(%q, %v): pass with target %q", p, authed, d.Target)
			}
			if d.Action == Redirect && d.Target != "/backoffice" && d.Target != "/signin" {
				t.Errorf("Decide(%q, %v): unexpected target %q", p, authed, d.Target)
			}
		}
	}

	if d := g.Decide("/signin", true); d.Target != "/backoffice" {
		t.Errorf("signed-in user on login page: got %+v", d)
	}
}

func TestNeedsSession(t *testing.T) {
	g := MustNew(DefaultRules())
	cases := map[string]bool{
		"/admin":          true,
		"/admin/login":    true,
		"/admin/projects": true,
		"/api/auth/login": false,
		"/pricing":        false,
		"/administrator":  false,

		"/admin/api/pricing/../../..": true,
		"/api/auth/../../pricing":     true,
	}
	for p, want := range cases {
		if got := g.NeedsSession(p); got != want {
			t.Errorf("NeedsSession(%q) = %v, want %v", p, got, want)
		}
	}
}

func TestNewValidatesRules(t *testing.T) {
	bad := []Rules{
		{AdminPrefix: "admin", LoginPath: "/admin/login", AuthAPIPrefix: "/api/auth"},
		{AdminPrefix: "/admin", LoginPath: "", AuthAPIPrefix: "/api/auth"},
		{AdminPrefix: "/", LoginPath: "/login", AuthAPIPrefix: "/api/auth"},
	}
	for _, r := range bad {
		if _, err := New(r); err == nil {
			t.Errorf("New(%+v): expected error", r)
		}
	}

	g, err := New(Rules{AdminPrefix: "/admin/", LoginPath: "/admin/login/", AuthAPIPrefix: "/api/auth/"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r := g.Rules(); r.AdminPrefix != "/admin" || r.LoginPath != "/admin/login" {
		t.Errorf("rules not normalized: %+v", r)
	}
}

func TestActionString(t *testing.T) {
	if Pass.String() != "pass" || Redirect.String() != "redirect" {
		t.Error("unexpected Action strings")
	}
}
