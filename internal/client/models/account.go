package models

import "time"

// Account is the credential record behind a profile. It never leaves the
// auth provider.
type Account struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
