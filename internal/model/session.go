package model

import "time"

// Session is the decoded form of a session token. It is never persisted; the
// server rebuilds it from the signed token on every request.
type Session struct {
	UserID    string    `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ValidAt reports whether t lies in [IssuedAt, ExpiresAt).
func (s Session) ValidAt(t time.Time) bool {
	return !t.Before(s.IssuedAt) && t.Before(s.ExpiresAt)
}
