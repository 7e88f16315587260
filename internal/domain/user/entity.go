package user

import "time"

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleEmployee Role = "employee" // Punches and views own attendance
	RolePending  Role = "pending"  // Signed up, company not set up yet
)

type User struct {
	ID              string
	CompanyID       *string
	Email           string
	PasswordHash    *string
	Role            Role
	OAuthProvider   *string
	OAuthProviderID *string
	EmailVerified   bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsOwner checks if user is company owner
func (u *User) IsOwner() bool {
	return u.Role == RoleOwner
}

// IsPending checks if user is still in onboarding
func (u *User) IsPending() bool {
	return u.Role == RolePending
}
