package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrValidation wraps every content validation failure.
var ErrValidation = errors.New("validation failed")

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// PricingTier is one column of the public pricing table.
type PricingTier struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Currency    string    `json:"currency"`
	Interval    string    `json:"interval"` // month, year, once
	Features    []string  `json:"features"`
	Highlighted bool      `json:"highlighted"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Normalize fills defaults and trims user input in place.
func (t *PricingTier) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.Slug = strings.TrimSpace(strings.ToLower(t.Slug))
	if t.Slug == "" {
		t.Slug = Slugify(t.Name)
	}
	t.Currency = strings.ToUpper(strings.TrimSpace(t.Currency))
	if t.Currency == "" {
		t.Currency = "USD"
	}
	if t.Interval == "" {
		t.Interval = "month"
	}
	if t.Features == nil {
		t.Features = []string{}
	}
}

// Validate checks the tier after Normalize.
func (t *PricingTier) Validate() error {
	switch {
	case t.Name == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case !slugPattern.MatchString(t.Slug):
		return fmt.Errorf("%w: slug %q must be lowercase words separated by dashes", ErrValidation, t.Slug)
	case t.PriceCents < 0:
		return fmt.Errorf("%w: price_cents must not be negative", ErrValidation)
	case len(t.Currency) != 3:
		return fmt.Errorf("%w: currency must be a 3-letter code", ErrValidation)
	}
	switch t.Interval {
	case "month", "year", "once":
	default:
		return fmt.Errorf("%w: interval must be month, year or once", ErrValidation)
	}
	return nil
}

// DisplayPrice renders the price for templates, e.g. "$49" or "12.50 CHF".
func (t PricingTier) DisplayPrice() string {
	amount := fmt.Sprintf("%d", t.PriceCents/100)
	if cents := t.PriceCents % 100; cents != 0 {
		amount = fmt.Sprintf("%s.%02d", amount, cents)
	}
	switch t.Currency {
	case "USD":
		return "$" + amount
	case "EUR":
		return "€" + amount
	case "GBP":
		return "£" + amount
	default:
		return amount + " " + t.Currency
	}
}

// Project is an entry in the public project showcase.
type Project struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	ImageURL  string    `json:"image_url"`
	LinkURL   string    `json:"link_url"`
	Tags      []string  `json:"tags"`
	Featured  bool      `json:"featured"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize fills defaults and trims user input in place.
func (p *Project) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Slug = strings.TrimSpace(strings.ToLower(p.Slug))
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
}

// Validate checks the project after Normalize.
func (p *Project) Validate() error {
	switch {
	case p.Title == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case !slugPattern.MatchString(p.Slug):
		return fmt.Errorf("%w: slug %q must be lowercase words separated by dashes", ErrValidation, p.Slug)
	}
	return nil
}

// ContactInfo is the site-wide contact block shown in the footer and on the
// home page.
type ContactInfo struct {
	Email     string    `json:"email" yaml:"email"`
	Phone     string    `json:"phone" yaml:"phone"`
	Address   string    `json:"address" yaml:"address"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// Validate performs a light sanity check on the contact block.
func (c *ContactInfo) Validate() error {
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return fmt.Errorf("%w: invalid email address %q", ErrValidation, c.Email)
	}
	return nil
}

// Review is a third-party customer review relayed by the reviews proxy.
type Review struct {
	Author      string    `json:"author"`
	Rating      int       `json:"rating"`
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"published_at"`
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		default:
			dash = true
		}
	}
	return b.String()
}
