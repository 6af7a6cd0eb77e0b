package domain

import "time"

// Identity is what the identity provider knows about a signed-in session.
type Identity struct {
	SessionID string
	Email     string
	IssuedAt  time.Time
}

// Account is a credential record held by the identity provider.
type Account struct {
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
