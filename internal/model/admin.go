package model

import "time"

// AdminUser is an account allowed into the admin area. Passwords are stored
// as bcrypt hashes only.
type AdminUser struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // bcrypt hash, never expose
	Name         string    `json:"name" db:"name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// UserIdentity is what a successful credential check hands back. It never
// carries the password hash.
type UserIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Identity returns the public identity of the admin.
func (a *AdminUser) Identity() UserIdentity {
	return UserIdentity{
		ID:    a.ID,
		Email: a.Email,
		Name:  a.Name,
	}
}
