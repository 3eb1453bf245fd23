// Package models defines the client-side records exchanged with the backend:
// profiles, listings, bookmarks, messages and the derived conversation view.
package models

import (
	"fmt"
	"time"
)

// Role is what a user may do in the marketplace.
type Role string

const (
	RoleRenter Role = "renter"
	RoleOwner  Role = "owner"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleRenter, RoleOwner:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Profile is the public part of a user account. It is created at sign-up and
// only ever mutated by its owner.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsOwner reports whether the profile may publish listings.
func (p *Profile) IsOwner() bool {
	return p != nil && p.Role == RoleOwner
}

// ProfileUpdate holds the fields a user may change on their own profile.
type ProfileUpdate struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}
