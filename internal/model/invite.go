package model

import (
	"time"

	"github.com/google/uuid"
)

// Invite status constants. There is no background sweep from pending to
// expired: expiry is checked lazily at redemption time.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusExpired  = "expired"
)

// Invite channel constants
const (
	InviteChannelEmail = "email"
	InviteChannelPhone = "phone"
)

// InviteTTL is how long an invite code stays redeemable.
const InviteTTL = 7 * 24 * time.Hour

// Invite is a single-use code that lets a prospective client associate with
// one establishment.
type Invite struct {
	Base
	EstablishmentID uuid.UUID `json:"establishment_id" db:"establishment_id"`
	Channel         string    `json:"type" db:"channel"`
	Contact         string    `json:"contact" db:"contact"`
	Code            string    `json:"-" db:"code"`
	Status          string    `json:"status" db:"status"`
	ExpiresAt       time.Time `json:"expires_at" db:"expires_at"`
}

// IsExpired reports whether the invite is past its expiry at the given time,
// regardless of its stored status.
func (i *Invite) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

type CreateInviteRequest struct {
	Channel string `json:"type" binding:"required,oneof=email phone"`
	Contact string `json:"contact" binding:"required"`
}

// CreateInviteResponse returns the code so the caller can deliver it
// out-of-band. The code is never readable again once issued.
type CreateInviteResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type RedeemInviteRequest struct {
	Code            string `json:"code" binding:"required"`
	EstablishmentID string `json:"establishment_id" binding:"required,uuid"`
}
