package models

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	DisplayName  string
	Role         UserRole
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is one authenticated browser login. The ID is the opaque cookie
// value; it is high-entropy and never reused after deletion.
type Session struct {
	ID        string
	UserID    string
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type TokenPurpose string

const (
	TokenPurposeReset    TokenPurpose = "reset"
	TokenPurposeApproval TokenPurpose = "approval"
)

// AuthToken stores the digest of a one-time secret (password reset or
// account approval). The plaintext only ever travels in the email that
// carries it.
type AuthToken struct {
	ID         string
	UserID     string
	Purpose    TokenPurpose
	Digest     []byte
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}
