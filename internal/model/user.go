package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// may define separate response types with appropriate JSON tags.
//
// Fields:
//  ID                 – primary key identifier of the user.
//  FullName           – display name used in notification emails.
//  Email              – unique email address.
//  PasswordHash       – bcrypt hashed password.
//  Role               – name of the role (TENANT, LANDLORD or ADMIN).
//  TotalEarningsCents – aggregate settled earnings for landlords.
//  IsActive           – whether the account is active.
//  CreatedAt          – timestamp of creation.
//  UpdatedAt          – timestamp of last update.
type User struct {
	ID                 uint64    // users.id
	FullName           string    // users.full_name
	Email              string    // users.email
	PasswordHash       string    // users.password_hash
	Role               string    // users.role
	TotalEarningsCents int64     // users.total_earnings_cents
	IsActive           bool      // users.is_active
	CreatedAt          time.Time // users.created_at
	UpdatedAt          time.Time // users.updated_at
}

// Role names accepted in the users.role column and the JWT role claim.
const (
	RoleTenant   = "TENANT"
	RoleLandlord = "LANDLORD"
	RoleAdmin    = "ADMIN"
)
