package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/showcasehq/showcase/internal/model"
)

// Seed is the on-disk provisioning document applied by `showcase seed`.
type Seed struct {
	Admins   []SeedAdmin        `yaml:"admins"`
	Pricing  []SeedTier         `yaml:"pricing"`
	Projects []SeedProject      `yaml:"projects"`
	Contact  *model.ContactInfo `yaml:"contact,omitempty"`
}

// SeedAdmin provisions an admin account. Either Password (hashed on apply)
// or a precomputed PasswordHash must be given.
type SeedAdmin struct {
	Email        string `yaml:"email"`
	Name         string `yaml:"name"`
	Password     string `yaml:"password,omitempty"`
	PasswordHash string `yaml:"password_hash,omitempty"`
}

type SeedTier struct {
	Slug        string   `yaml:"slug"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	PriceCents  int64    `yaml:"price_cents"`
	Currency    string   `yaml:"currency"`
	Interval    string   `yaml:"interval"`
	Features    []string `yaml:"features"`
	Highlighted bool     `yaml:"highlighted"`
	SortOrder   int      `yaml:"sort_order"`
}

type SeedProject struct {
	Slug      string   `yaml:"slug"`
	Title     string   `yaml:"title"`
	Summary   string   `yaml:"summary"`
	ImageURL  string   `yaml:"image_url"`
	LinkURL   string   `yaml:"link_url"`
	Tags      []string `yaml:"tags"`
	Featured  bool     `yaml:"featured"`
	SortOrder int      `yaml:"sort_order"`
}

// SeedResult summarizes what ApplySeed changed.
type SeedResult struct {
	AdminsCreated int
	AdminsSkipped int
	Tiers         int
	Projects      int
	Contact       bool
}

// LoadSeedFile reads a YAML seed document. ${VAR} references are expanded so
// passwords can come from the environment.
func LoadSeedFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

// ApplySeed upserts everything in seed. Running it twice leaves the same
// rows: tiers and projects are matched by slug, and existing admin accounts
// are never modified.
func (s *Store) ApplySeed(ctx context.Context, seed *Seed, hash func(string) (string, error)) (*SeedResult, error) {
	res := &SeedResult{}

	for _, a := range seed.Admins {
		email := strings.TrimSpace(a.Email)
		if email == "" {
			return res, fmt.Errorf("seed admin: email is required")
		}
		pwHash := a.PasswordHash
		if pwHash == "" {
			if a.Password == "" {
				return res, fmt.Errorf("seed admin %s: password or password_hash is required", email)
			}
			h, err := hash(a.Password)
			if err != nil {
				return res, fmt.Errorf("seed admin %s: %w", email, err)
			}
			pwHash = h
		}

		created, err := s.UpsertAdmin(ctx, &model.AdminUser{
			Email:        email,
			Name:         a.Name,
			PasswordHash: pwHash,
		})
		if err != nil {
			return res, err
		}
		if created {
			res.AdminsCreated++
		} else {
			res.AdminsSkipped++
		}
	}

	for _, st := range seed.Pricing {
		tier := model.PricingTier{
			Slug:        st.Slug,
			Name:        st.Name,
			Description: st.Description,
			PriceCents:  st.PriceCents,
			Currency:    st.Currency,
			Interval:    st.Interval,
			Features:    st.Features,
			Highlighted: st.Highlighted,
			SortOrder:   st.SortOrder,
		}
		tier.Normalize()
		if err := tier.Validate(); err != nil {
			return res, fmt.Errorf("seed pricing tier %q: %w", st.Name, err)
		}
		if err := s.UpsertPricingTier(ctx, &tier); err != nil {
			return res, err
		}
		res.Tiers++
	}

	for _, sp := range seed.Projects {
		p := model.Project{
			Slug:      sp.Slug,
			Title:     sp.Title,
			Summary:   sp.Summary,
			ImageURL:  sp.ImageURL,
			LinkURL:   sp.LinkURL,
			Tags:      sp.Tags,
			Featured:  sp.Featured,
			SortOrder: sp.SortOrder,
		}
		p.Normalize()
		if err := p.Validate(); err != nil {
			return res, fmt.Errorf("seed project %q: %w", sp.Title, err)
		}
		if err := s.UpsertProject(ctx, &p); err != nil {
			return res, err
		}
		res.Projects++
	}

	if seed.Contact != nil {
		if err := seed.Contact.Validate(); err != nil {
			return res, fmt.Errorf("seed contact: %w", err)
		}
		if err := s.SetContactInfo(ctx, seed.Contact); err != nil {
			return res, err
		}
		res.Contact = true
	}

	return res, nil
}
