package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/showcasehq/showcase/internal/model"
)

const testSeedYAML = `
admins:
  - email: owner@example.com
    name: Owner
    password: ${SHOWCASE_TEST_SEED_PASSWORD}
pricing:
  - name: Starter
    price_cents: 0
    features: [One project]
    sort_order: 1
  - slug: pro
    name: Pro
    price_cents: 4900
    currency: eur
    interval: month
    highlighted: true
    sort_order: 2
projects:
  - title: Launch Site
    tags: [web, go]
    featured: true
contact:
  email: hello@example.com
  phone: "+1 555 0100"
`

func fakeHash(pw string) (string, error) {
	return "hashed:" + pw, nil
}

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestLoadSeedFileExpandsEnv(t *testing.T) {
	t.Setenv("SHOWCASE_TEST_SEED_PASSWORD", "s3cret-pass")
	seed, err := LoadSeedFile(writeSeed(t, testSeedYAML))
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}
	if len(seed.Admins) != 1 || seed.Admins[0].Password != "s3cret-pass" {
		t.Errorf("admins = %+v", seed.Admins)
	}
	if len(seed.Pricing) != 2 || len(seed.Projects) != 1 || seed.Contact == nil {
		t.Errorf("unexpected seed shape: %+v", seed)
	}
}

func TestApplySeedIsIdempotent(t *testing.T) {
	t.Setenv("SHOWCASE_TEST_SEED_PASSWORD", "s3cret-pass")
	s := newTestStore(t)
	ctx := context.Background()

	seed, err := LoadSeedFile(writeSeed(t, testSeedYAML))
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}

	res, err := s.ApplySeed(ctx, seed, fakeHash)
	if err != nil {
		t.Fatalf("ApplySeed: %v", err)
	}
	if res.AdminsCreated != 1 || res.Tiers != 2 || res.Projects != 1 || !res.Contact {
		t.Errorf("first run result = %+v", res)
	}

	// Change the password in the document; the stored admin must not move.
	seed.Admins[0].Password = "different"
	res, err = s.ApplySeed(ctx, seed, fakeHash)
	if err != nil {
		t.Fatalf("ApplySeed (again): %v", err)
	}
	if res.AdminsCreated != 0 || res.AdminsSkipped != 1 {
		t.Errorf("second run result = %+v", res)
	}

	admin, err := s.GetAdminByEmail(ctx, "owner@example.com")
	if err != nil {
		t.Fatalf("GetAdminByEmail: %v", err)
	}
	if admin.PasswordHash != "hashed:s3cret-pass" {
		t.Errorf("admin hash = %q, seed must never overwrite", admin.PasswordHash)
	}

	tiers, _ := s.ListPricingTiers(ctx)
	if len(tiers) != 2 {
		t.Fatalf("got %d tiers, want 2", len(tiers))
	}
	if tiers[0].Slug != "starter" {
		t.Errorf("slug derived from name = %q, want starter", tiers[0].Slug)
	}
	if tiers[1].Currency != "EUR" {
		t.Errorf("currency = %q, want EUR", tiers[1].Currency)
	}

	projects, _ := s.ListProjects(ctx)
	if len(projects) != 1 || projects[0].Slug != "launch-site" {
		t.Errorf("projects = %+v", projects)
	}
}

func TestApplySeedRejectsInvalidContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed := &Seed{Pricing: []SeedTier{{Name: "Bad", PriceCents: -1}}}
	if _, err := s.ApplySeed(ctx, seed, fakeHash); !errors.Is(err, model.ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}

	seed = &Seed{Admins: []SeedAdmin{{Email: "x@example.com"}}}
	if _, err := s.ApplySeed(ctx, seed, fakeHash); err == nil {
		t.Error("expected error for admin without password")
	}
}

func TestApplySeedUsesPrecomputedHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	called := false
	hash := func(string) (string, error) {
		called = true
		return "", errors.New("should not be called")
	}
	seed := &Seed{Admins: []SeedAdmin{{Email: "x@example.com", PasswordHash: "$2a$12$precomputed"}}}
	if _, err := s.ApplySeed(ctx, seed, hash); err != nil {
		t.Fatalf("ApplySeed: %v", err)
	}
	if called {
		t.Error("hash func called despite password_hash")
	}
}
