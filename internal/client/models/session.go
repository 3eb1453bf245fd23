package models

import "time"

// Session is an authenticated login as issued by the auth provider.
type Session struct {
	UserID      string
	Email       string
	AccessToken string
	ExpiresAt   time.Time
}

// AuthEventKind tells subscribers what happened to the session.
type AuthEventKind string

const (
	AuthSignedIn  AuthEventKind = "signed_in"
	AuthSignedOut AuthEventKind = "signed_out"
	AuthRestored  AuthEventKind = "restored"
)

// AuthEvent is delivered to auth subscribers. Session is nil for sign-out.
type AuthEvent struct {
	Kind    AuthEventKind
	Session *Session
}
