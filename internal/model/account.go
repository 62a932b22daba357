package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of account roles. It is fixed at signup and never
// changes afterwards.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleEstablishment Role = "establishment"
	RoleClient        Role = "client"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleEstablishment, RoleClient:
		return true
	}
	return false
}

// LandingPath returns the dashboard path an account of this role is sent to
// after login or when it reaches a page it may not see.
func (r Role) LandingPath() string {
	switch r {
	case RoleAdministrator:
		return "/admin/dashboard"
	case RoleEstablishment:
		return "/establishment/dashboard"
	case RoleClient:
		return "/dashboard"
	default:
		return "/"
	}
}

// Account represents a system account of any role.
type Account struct {
	Base
	Name            string     `json:"name" db:"name"`
	Email           string     `json:"email" db:"email"`
	Password        string     `json:"password,omitempty" db:"-"`
	PasswordHash    string     `json:"-" db:"password_hash"`
	Phone           *string    `json:"phone" db:"phone"`
	Avatar          *string    `json:"avatar" db:"avatar"`
	Role            Role       `json:"role" db:"role"`
	EstablishmentID *uuid.UUID `json:"establishment_id,omitempty" db:"establishment_id"`
	LastLoginAt     *time.Time `json:"last_login_at" db:"last_login_at"`
}

// CreateAccountRequest represents signup parameters. InviteCode and
// EstablishmentID, when both present, redeem an invite right after the
// account is created.
type CreateAccountRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	Phone           string `json:"phone"`
	InviteCode      string `json:"invite_code"`
	EstablishmentID string `json:"establishment_id" binding:"required_with=InviteCode,omitempty,uuid"`
}

// UpdateAccountRequest represents profile update parameters. The role is
// deliberately absent: it is immutable after creation.
type UpdateAccountRequest struct {
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Avatar *string `json:"avatar"`
}
