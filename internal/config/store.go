package config

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/showcasehq/showcase/internal/model"
)

// Store persists admin accounts, site content and settings. It is backed by
// SQLite by default and by Postgres when opened with the "postgres" driver.
type Store struct {
	db     *sqlx.DB
	driver string
}

// NewStore creates a SQLite store under dataDir. Pass empty string for in-memory.
func NewStore(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == "" {
		dsn = ":memory:?_journal_mode=WAL"
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "showcase.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	return Open("sqlite", dsn)
}

// Open connects to the given driver ("sqlite" or "postgres") and applies
// migrations. The caller owns the returned store and must Close it.
func Open(driver, dsn string) (*Store, error) {
	var driverName string
	switch driver {
	case "", "sqlite":
		driverName = "sqlite"
	case "postgres", "pgx":
		driverName = "pgx"
	default:
		return nil, fmt.Errorf("unsupported database driver %q (want sqlite or postgres)", driver)
	}

	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driverName == "sqlite" {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	s := &Store{db: db, driver: driverName}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver returns the database/sql driver name in use.
func (s *Store) Driver() string {
	return s.driver
}

// ---------------------------------------------------------------------------
// Admin accounts
// ---------------------------------------------------------------------------

// CreateAdmin inserts a new admin account. The ID and CreatedAt fields are
// populated on success. A duplicate email yields ErrConflict.
func (s *Store) CreateAdmin(ctx context.Context, admin *model.AdminUser) error {
	admin.ID = newID()
	admin.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO admins (id, email, password_hash, name, created_at)
		VALUES (:id, :email, :password_hash, :name, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, admin); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("admin %q: %w", admin.Email, ErrConflict)
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

// UpsertAdmin inserts the admin unless an account with the same email already
// exists, in which case the stored account is left untouched. It reports
// whether a row was inserted.
func (s *Store) UpsertAdmin(ctx context.Context, admin *model.AdminUser) (bool, error) {
	if admin.ID == "" {
		admin.ID = newID()
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}

	const q = `INSERT INTO admins (id, email, password_hash, name, created_at)
		VALUES (:id, :email, :password_hash, :name, :created_at)
		ON CONFLICT (email) DO NOTHING`

	result, err := s.db.NamedExecContext(ctx, q, admin)
	if err != nil {
		return false, fmt.Errorf("upsert admin: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert admin rows affected: %w", err)
	}
	return n > 0, nil
}

// GetAdminByEmail returns an admin by exact email address.
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*model.AdminUser, error) {
	var admin model.AdminUser
	q := s.db.Rebind("SELECT id, email, password_hash, name, created_at FROM admins WHERE email = ?")
	if err := s.db.GetContext(ctx, &admin, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return &admin, nil
}

// ListAdmins returns all admin accounts ordered by email.
func (s *Store) ListAdmins(ctx context.Context) ([]model.AdminUser, error) {
	var admins []model.AdminUser
	if err := s.db.SelectContext(ctx, &admins,
		"SELECT id, email, password_hash, name, created_at FROM admins ORDER BY email"); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// HasAnyAdmin reports whether at least one admin account exists. Used at
// startup to warn about an unprovisioned installation.
func (s *Store) HasAnyAdmin(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM admins"); err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	return count > 0, nil
}

// ---------------------------------------------------------------------------
// Pricing tiers
// ---------------------------------------------------------------------------

// tierRow maps 1:1 to the pricing_tiers table. Features are stored as a JSON
// array in features_json.
type tierRow struct {
	ID           string    `db:"id"`
	Slug         string    `db:"slug"`
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	PriceCents   int64     `db:"price_cents"`
	Currency     string    `db:"currency"`
	Interval     string    `db:"billing_interval"`
	FeaturesJSON string    `db:"features_json"`
	Highlighted  bool      `db:"highlighted"`
	SortOrder    int       `db:"sort_order"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func tierRowFromModel(t *model.PricingTier) (tierRow, error) {
	features, err := json.Marshal(nonNil(t.Features))
	if err != nil {
		return tierRow{}, fmt.Errorf("marshal features: %w", err)
	}
	return tierRow{
		ID:           t.ID,
		Slug:         t.Slug,
		Name:         t.Name,
		Description:  t.Description,
		PriceCents:   t.PriceCents,
		Currency:     t.Currency,
		Interval:     t.Interval,
		FeaturesJSON: string(features),
		Highlighted:  t.Highlighted,
		SortOrder:    t.SortOrder,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}, nil
}

func (r tierRow) toModel() (model.PricingTier, error) {
	features, err := decodeStrings(r.FeaturesJSON)
	if err != nil {
		return model.PricingTier{}, fmt.Errorf("unmarshal features for tier %s: %w", r.Slug, err)
	}
	return model.PricingTier{
		ID:          r.ID,
		Slug:        r.Slug,
		Name:        r.Name,
		Description: r.Description,
		PriceCents:  r.PriceCents,
		Currency:    r.Currency,
		Interval:    r.Interval,
		Features:    features,
		Highlighted: r.Highlighted,
		SortOrder:   r.SortOrder,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

const tierColumns = `id, slug, name, description, price_cents, currency, billing_interval,
	features_json, highlighted, sort_order, created_at, updated_at`

// ListPricingTiers returns all tiers in display order.
func (s *Store) ListPricingTiers(ctx context.Context) ([]model.PricingTier, error) {
	var rows []tierRow
	if err := s.db.SelectContext(ctx, &rows,
		"SELECT "+tierColumns+" FROM pricing_tiers ORDER BY sort_order, name"); err != nil {
		return nil, fmt.Errorf("list pricing tiers: %w", err)
	}

	tiers := make([]model.PricingTier, 0, len(rows))
	for _, r := range rows {
		t, err := r.toModel()
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	return tiers, nil
}

// GetPricingTier returns a tier by ID.
func (s *Store) GetPricingTier(ctx context.Context, id string) (*model.PricingTier, error) {
	var row tierRow
	q := s.db.Rebind("SELECT " + tierColumns + " FROM pricing_tiers WHERE id = ?")
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get pricing tier: %w", err)
	}
	t, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreatePricingTier inserts a new tier. ID, CreatedAt and UpdatedAt are
// populated on success. A duplicate slug yields ErrConflict.
func (s *Store) CreatePricingTier(ctx context.Context, t *model.PricingTier) error {
	now := time.Now().UTC()
	t.ID = newID()
	t.CreatedAt = now
	t.UpdatedAt = now

	row, err := tierRowFromModel(t)
	if err != nil {
		return err
	}

	const q = `INSERT INTO pricing_tiers
		(id, slug, name, description, price_cents, currency, billing_interval,
		 features_json, highlighted, sort_order, created_at, updated_at)
		VALUES
		(:id, :slug, :name, :description, :price_cents, :currency, :billing_interval,
		 :features_json, :highlighted, :sort_order, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("pricing tier %q: %w", t.Slug, ErrConflict)
		}
		return fmt.Errorf("insert pricing tier: %w", err)
	}
	return nil
}

// UpdatePricingTier overwrites an existing tier by ID. UpdatedAt is refreshed
// automatically.
func (s *Store) UpdatePricingTier(ctx context.Context, t *model.PricingTier) error {
	t.UpdatedAt = time.Now().UTC()
	row, err := tierRowFromModel(t)
	if err != nil {
		return err
	}

	const q = `UPDATE pricing_tiers SET
		slug = :slug, name = :name, description = :description, price_cents = :price_cents,
		currency = :currency, billing_interval = :billing_interval, features_json = :features_json,
		highlighted = :highlighted, sort_order = :sort_order, updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, row)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("pricing tier %q: %w", t.Slug, ErrConflict)
		}
		return fmt.Errorf("update pricing tier: %w", err)
	}
	return expectOneRow(result, "update pricing tier")
}

// UpsertPricingTier inserts the tier or, when the slug already exists,
// overwrites its content while keeping the original ID and CreatedAt.
func (s *Store) UpsertPricingTier(ctx context.Context, t *model.PricingTier) error {
	now := time.Now().UTC()
	t.ID = newID()
	t.CreatedAt = now
	t.UpdatedAt = now

	row, err := tierRowFromModel(t)
	if err != nil {
		return err
	}

	const q = `INSERT INTO pricing_tiers
		(id, slug, name, description, price_cents, currency, billing_interval,
		 features_json, highlighted, sort_order, created_at, updated_at)
		VALUES
		(:id, :slug, :name, :description, :price_cents, :currency, :billing_interval,
		 :features_json, :highlighted, :sort_order, :created_at, :updated_at)
		ON CONFLICT (slug) DO UPDATE SET
		name = excluded.name, description = excluded.description, price_cents = excluded.price_cents,
		currency = excluded.currency, billing_interval = excluded.billing_interval,
		features_json = excluded.features_json, highlighted = excluded.highlighted,
		sort_order = excluded.sort_order, updated_at = excluded.updated_at`

	if _, err := s.db.NamedExecContext(ctx, q, row); err != nil {
		return fmt.Errorf("upsert pricing tier: %w", err)
	}
	return nil
}

// DeletePricingTier removes a tier by ID.
func (s *Store) DeletePricingTier(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM pricing_tiers WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete pricing tier: %w", err)
	}
	return expectOneRow(result, "delete pricing tier")
}

// ---------------------------------------------------------------------------
// Projects
// ---------------------------------------------------------------------------

type projectRow struct {
	ID        string    `db:"id"`
	Slug      string    `db:"slug"`
	Title     string    `db:"title"`
	Summary   string    `db:"summary"`
	ImageURL  string    `db:"image_url"`
	LinkURL   string    `db:"link_url"`
	TagsJSON  string    `db:"tags_json"`
	Featured  bool      `db:"featured"`
	SortOrder int       `db:"sort_order"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func projectRowFromModel(p *model.Project) (projectRow, error) {
	tags, err := json.Marshal(nonNil(p.Tags))
	if err != nil {
		return projectRow{}, fmt.Errorf("marshal tags: %w", err)
	}
	return projectRow{
		ID:        p.ID,
		Slug:      p.Slug,
		Title:     p.Title,
		Summary:   p.Summary,
		ImageURL:  p.ImageURL,
		LinkURL:   p.LinkURL,
		TagsJSON:  string(tags),
		Featured:  p.Featured,
		SortOrder: p.SortOrder,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, nil
}

func (r projectRow) toModel() (model.Project, error) {
	tags, err := decodeStrings(r.TagsJSON)
	if err != nil {
		return model.Project{}, fmt.Errorf("unmarshal tags for project %s: %w", r.Slug, err)
	}
	return model.Project{
		ID:        r.ID,
		Slug:      r.Slug,
		Title:     r.Title,
		Summary:   r.Summary,
		ImageURL:  r.ImageURL,
		LinkURL:   r.LinkURL,
		Tags:      tags,
		Featured:  r.Featured,
		SortOrder: r.SortOrder,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

const projectColumns = `id, slug, title, summary, image_url, link_url, tags_json,
	featured, sort_order, created_at, updated_at`

// ListProjects returns all projects, featured first, then in display order.
func (s *Store) ListProjects(ctx context.Context) ([]model.Project, error) {
	var rows []projectRow
	if err := s.db.SelectContext(ctx, &rows,
		"SELECT "+projectColumns+" FROM projects ORDER BY featured DESC, sort_order, title"); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]model.Project, 0, len(rows))
	for _, r := range rows {
		p, err := r.toModel()
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// GetProject returns a project by ID.
func (s *Store) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var row projectRow
	q := s.db.Rebind("SELECT " + projectColumns + " FROM projects WHERE id = ?")
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	p, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProject inserts a new project. A duplicate slug yields ErrConflict.
func (s *Store) CreateProject(ctx context.Context, p *model.Project) error {
	now := time.Now().UTC()
	p.ID = newID()
	p.CreatedAt = now
	p.UpdatedAt = now

	row, err := projectRowFromModel(p)
	if err != nil {
		return err
	}

	const q = `INSERT INTO projects
		(id, slug, title, summary, image_url, link_url, tags_json, featured, sort_order, created_at, updated_at)
		VALUES
		(:id, :slug, :title, :summary, :image_url, :link_url, :tags_json, :featured, :sort_order, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("project %q: %w", p.Slug, ErrConflict)
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// UpdateProject overwrites an existing project by ID.
func (s *Store) UpdateProject(ctx context.Context, p *model.Project) error {
	p.UpdatedAt = time.Now().UTC()
	row, err := projectRowFromModel(p)
	if err != nil {
		return err
	}

	const q = `UPDATE projects SET
		slug = :slug, title = :title, summary = :summary, image_url = :image_url, link_url = :link_url,
		tags_json = :tags_json, featured = :featured, sort_order = :sort_order, updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, row)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("project %q: %w", p.Slug, ErrConflict)
		}
		return fmt.Errorf("update project: %w", err)
	}
	return expectOneRow(result, "update project")
}

// UpsertProject inserts the project or overwrites the one with the same slug.
func (s *Store) UpsertProject(ctx context.Context, p *model.Project) error {
	now := time.Now().UTC()
	p.ID = newID()
	p.CreatedAt = now
	p.UpdatedAt = now

	row, err := projectRowFromModel(p)
	if err != nil {
		return err
	}

	const q = `INSERT INTO projects
		(id, slug, title, summary, image_url, link_url, tags_json, featured, sort_order, created_at, updated_at)
		VALUES
		(:id, :slug, :title, :summary, :image_url, :link_url, :tags_json, :featured, :sort_order, :created_at, :updated_at)
		ON CONFLICT (slug) DO UPDATE SET
		title = excluded.title, summary = excluded.summary, image_url = excluded.image_url,
		link_url = excluded.link_url, tags_json = excluded.tags_json, featured = excluded.featured,
		sort_order = excluded.sort_order, updated_at = excluded.updated_at`

	if _, err := s.db.NamedExecContext(ctx, q, row); err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}
	return nil
}

// DeleteProject removes a project by ID.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM projects WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return expectOneRow(result, "delete project")
}

// ---------------------------------------------------------------------------
// Settings and contact info
// ---------------------------------------------------------------------------

const contactSettingKey = "contact"

// GetSetting returns the value stored under key, or ErrNotFound.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	q := s.db.Rebind("SELECT value FROM settings WHERE key = ?")
	if err := s.db.GetContext(ctx, &value, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores value under key, replacing any previous value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	q := s.db.Rebind(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`)
	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// GetContactInfo returns the site contact block. An unset block is returned
// as an empty ContactInfo rather than an error.
func (s *Store) GetContactInfo(ctx context.Context) (*model.ContactInfo, error) {
	raw, err := s.GetSetting(ctx, contactSettingKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &model.ContactInfo{}, nil
		}
		return nil, err
	}
	var info model.ContactInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, fmt.Errorf("decode contact info: %w", err)
	}
	return &info, nil
}

// SetContactInfo replaces the site contact block.
func (s *Store) SetContactInfo(ctx context.Context, info *model.ContactInfo) error {
	info.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode contact info: %w", err)
	}
	return s.SetSetting(ctx, contactSettingKey, string(raw))
}

// ---------------------------------------------------------------------------
// Utility
// ---------------------------------------------------------------------------

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func decodeStrings(raw string) ([]string, error) {
	out := []string{}
	if raw == "" || raw == "[]" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func expectOneRow(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation recognizes unique-constraint failures from both SQLite
// and Postgres.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
