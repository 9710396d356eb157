package models

import "time"

// RefreshToken is a persisted refresh token record. Token holds the signed
// refresh token string itself. At most one active record exists per user:
// issuing a new one deletes every earlier record of that user first.
type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// ExpiredAt reports whether the stored expiry has elapsed at now.
func (t *RefreshToken) ExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
