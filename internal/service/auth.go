package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/showcasehq/showcase/internal/config"
	"github.com/showcasehq/showcase/internal/model"
)

var (
	ErrInvalidInput         = errors.New("email and password are required")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrNoSession            = errors.New("no session")
	ErrTampered             = errors.New("session token failed verification")
	ErrExpired              = errors.New("session expired")
	ErrConfigurationMissing = errors.New("session signing secret is not configured")
)

const (
	tokenIssuer = "showcase"

	// DefaultMaxAge is how long an issued session stays valid.
	DefaultMaxAge = 24 * time.Hour
)

// AdminLookup finds admin accounts by exact email. Implementations return
// config.ErrNotFound when no account matches.
type AdminLookup interface {
	GetAdminByEmail(ctx context.Context, email string) (*model.AdminUser, error)
}

// AuthConfig configures the auth core.
type AuthConfig struct {
	Secret   string
	MaxAge   time.Duration // 0 means DefaultMaxAge
	HashCost int           // bcrypt cost for the timing dummy; 0 means DefaultHashCost
}

// AuthService verifies admin credentials and issues and validates signed
// session tokens. It holds only read-only configuration after construction
// and is safe for concurrent use.
type AuthService struct {
	users    AdminLookup
	secret   []byte
	maxAge   time.Duration
	hashCost int
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService returns ErrConfigurationMissing when cfg.Secret is empty.
func NewAuthService(users AdminLookup, cfg AuthConfig) (*AuthService, error) {
	if cfg.Secret == "" {
		return nil, ErrConfigurationMissing
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.HashCost == 0 {
		cfg.HashCost = DefaultHashCost
	}
	return &AuthService{
		users:    users,
		secret:   []byte(cfg.Secret),
		maxAge:   cfg.MaxAge,
		hashCost: cfg.HashCost,
		now:      time.Now,
	}, nil
}

// WithClock replaces the time source. Intended for tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// MaxAge returns the lifetime given to newly issued sessions.
func (s *AuthService) MaxAge() time.Duration {
	return s.maxAge
}

// Verify checks an email/password pair against the admin store. The password
// is never logged or returned.
func (s *AuthService) Verify(ctx context.Context, email, password string) (*model.UserIdentity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	admin, err := s.users.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			// Burn the same bcrypt work as a wrong password so response
			// timing does not reveal which emails exist.
			bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	id := admin.Identity()
	return &id, nil
}

// Issue creates a signed session token for a verified identity.
func (s *AuthService) Issue(identity model.UserIdentity) (string, model.Session, error) {
	if identity.ID == "" {
		return "", model.Session{}, fmt.Errorf("issue session: %w", ErrInvalidInput)
	}

	now := s.now()
	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(s.maxAge))
	claims := jwt.RegisteredClaims{
		Subject:   identity.ID,
		Issuer:    tokenIssuer,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", model.Session{}, fmt.Errorf("sign session: %w", err)
	}

	return token, model.Session{
		UserID:    identity.ID,
		IssuedAt:  issuedAt.Time,
		ExpiresAt: expiresAt.Time,
	}, nil
}

// Validate checks a session token. The signature is verified before any
// claim, so a forged token that is also past its expiry reports ErrTampered.
// Validate performs no I/O.
func (s *AuthService) Validate(token string) (model.Session, error) {
	if token == "" {
		return model.Session{}, ErrNoSession
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Session{}, ErrExpired
		}
		return model.Session{}, fmt.Errorf("%w: %v", ErrTampered, err)
	}

	if claims.Subject == "" || claims.IssuedAt == nil {
		return model.Session{}, fmt.Errorf("%w: missing subject or iat", ErrTampered)
	}

	return model.Session{
		UserID:    claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("showcase-timing-dummy"), s.hashCost)
		if err != nil {
			// Invalid cost; fall back so the comparison still runs.
			h, _ = bcrypt.GenerateFromPassword([]byte("showcase-timing-dummy"), bcrypt.DefaultCost)
		}
		s.dummyHash = h
	})
	return s.dummyHash
}
