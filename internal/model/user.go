package model

import "time"

// Role tags the capability set of an account.  ADMIN may decide on
// bookings and manage halls and accounts; REQUESTER (a head of
// department or staff member) submits booking requests.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleRequester Role = "REQUESTER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleRequester
}

// Account represents a row of the `users` table.
//
// Fields:
//  ID             – primary key identifier.
//  Name           – full name shown on bookings and reports.
//  Email          – unique, lower-cased login.
//  PasswordHash   – bcrypt hash, never serialized.
//  Role           – ADMIN or REQUESTER.
//  DepartmentID   – optional department reference.
//  DepartmentName – resolved department name (joined, read-only).
//  IsActive       – inactive accounts cannot log in.
//  CreatedAt      – timestamp of creation.
//  UpdatedAt      – timestamp of last update.
type Account struct {
	ID             uint64    `json:"id"`                        // users.id
	Name           string    `json:"name"`                      // users.name
	Email          string    `json:"email"`                     // users.email
	PasswordHash   string    `json:"-"`                         // users.password_hash
	Role           Role      `json:"role"`                      // users.role
	DepartmentID   *uint64   `json:"department_id,omitempty"`   // users.department_id (nullable)
	DepartmentName *string   `json:"department_name,omitempty"` // departments.name via join
	IsActive       bool      `json:"is_active"`                 // users.is_active
	CreatedAt      time.Time `json:"created_at"`                // users.created_at
	UpdatedAt      time.Time `json:"updated_at"`                // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the token handed to the client is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
