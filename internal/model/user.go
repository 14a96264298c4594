package model

import (
	"time"

	"github.com/aarondl/null/v8"
)

// User represents an account as stored in the `users` table.  Accounts are
// managed by administrators; a soft-deleted user can no longer sign in.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name, searchable in request listings.
//  Email        – unique, normalized to lower case.
//  PasswordHash – bcrypt hash, never serialized.
//  Role         – user or admin.
//  CreatedAt    – timestamp of creation.
//  DeletedAt    – soft-delete marker.
type User struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	DeletedAt    null.Time `json:"-"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the token handed to the client is stored.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
