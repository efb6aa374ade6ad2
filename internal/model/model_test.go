package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestAdminPasswordHashNotInJSON(t *testing.T) {
	admin := AdminUser{
		ID:           "0190b6a8-0000-7000-8000-000000000001",
		Email:        "admin@example.com",
		PasswordHash: "$2a$12$somebcrypthash",
		Name:         "Admin User",
		CreatedAt:    time.Now(),
	}

	b, err := json.Marshal(admin)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	if _, ok := m["password_hash"]; ok {
		t.Error("password_hash should NOT appear in JSON output")
	}
	if m["email"] != "admin@example.com" {
		t.Errorf("email = %v, want admin@example.com", m["email"])
	}
}

func TestAdminIdentity(t *testing.T) {
	admin := AdminUser{ID: "u1", Email: "a@b.c", Name: "A", PasswordHash: "x"}
	id := admin.Identity()
	if id != (UserIdentity{ID: "u1", Email: "a@b.c", Name: "A"}) {
		t.Errorf("Identity() = %+v", id)
	}
}

func TestSessionValidAt(t *testing.T) {
	iat := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := Session{UserID: "u1", IssuedAt: iat, ExpiresAt: iat.Add(time.Hour)}

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before issue", iat.Add(-time.Second), false},
		{"at issue", iat, true},
		{"inside", iat.Add(30 * time.Minute), true},
		{"at expiry", iat.Add(time.Hour), false},
		{"after expiry", iat.Add(2 * time.Hour), false},
	}
	for _, tc := range cases {
		if got := s.ValidAt(tc.at); got != tc.want {
			t.Errorf("%s: ValidAt = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Starter Plan":     "starter-plan",
		"  Pro  ++ Team ":  "pro-team",
		"Enterprise 2025!": "enterprise-2025",
		"---":              "",
		"Already-a-slug":   "already-a-slug",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPricingTierNormalizeAndValidate(t *testing.T) {
	tier := PricingTier{Name: " Starter ", PriceCents: 1900}
	tier.Normalize()

	if tier.Slug != "starter" {
		t.Errorf("Slug = %q, want starter", tier.Slug)
	}
	if tier.Currency != "USD" || tier.Interval != "month" {
		t.Errorf("defaults not applied: %+v", tier)
	}
	if tier.Features == nil {
		t.Error("Features should be non-nil after Normalize")
	}
	if err := tier.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	bad := []PricingTier{
		{Name: "", Slug: "x", Currency: "USD", Interval: "month"},
		{Name: "X", Slug: "Bad Slug", Currency: "USD", Interval: "month"},
		{Name: "X", Slug: "x", PriceCents: -1, Currency: "USD", Interval: "month"},
		{Name: "X", Slug: "x", Currency: "US", Interval: "month"},
		{Name: "X", Slug: "x", Currency: "USD", Interval: "weekly"},
	}
	for i, b := range bad {
		if err := b.Validate(); !errors.Is(err, ErrValidation) {
			t.Errorf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}

func TestPricingTierDisplayPrice(t *testing.T) {
	cases := []struct {
		cents    int64
		currency string
		want     string
	}{
		{4900, "USD", "$49"},
		{1250, "EUR", "€12.50"},
		{0, "GBP", "£0"},
		{1205, "CHF", "12.05 CHF"},
	}
	for _, tc := range cases {
		tier := PricingTier{PriceCents: tc.cents, Currency: tc.currency}
		if got := tier.DisplayPrice(); got != tc.want {
			t.Errorf("DisplayPrice(%d %s) = %q, want %q", tc.cents, tc.currency, got, tc.want)
		}
	}
}

func TestProjectValidate(t *testing.T) {
	p := Project{Title: "Harbor Redesign"}
	p.Normalize()
	if p.Slug != "harbor-redesign" {
		t.Errorf("Slug = %q", p.Slug)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	empty := Project{}
	empty.Normalize()
	if err := empty.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for empty project, got %v", err)
	}
}

func TestContactInfoValidate(t *testing.T) {
	if err := (&ContactInfo{Email: "hello@example.com"}).Validate(); err != nil {
		t.Errorf("valid contact rejected: %v", err)
	}
	if err := (&ContactInfo{Email: "nope"}).Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
