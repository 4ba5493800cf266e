package entity

import "time"

// AccessToken is a platform credential together with the instant it stops being usable.
// ExpiresAt already has the safety margin subtracted.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// ValidAt reports whether the token may still be used at now.
func (t AccessToken) ValidAt(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}

// CredentialGrant is a successful credential exchange response.
type CredentialGrant struct {
	AccessToken      string
	ExpiresInSeconds int
}
