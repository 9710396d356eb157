// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered identity. Email is the unique login key and
// PasswordHash is a bcrypt hash; the raw password is never stored.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

// Role is a named permission group. Role names are unique.
type Role struct {
	ID   int64
	Name string
}
