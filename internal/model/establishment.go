package model

import (
	"time"

	"github.com/google/uuid"
)

// FreeTierAppointmentLimit caps bookings for non-premium establishments.
const FreeTierAppointmentLimit = 50

type Establishment struct {
	Base
	Name               string    `json:"name" db:"name"`
	Description        string    `json:"description" db:"description"`
	Slug               string    `json:"slug" db:"slug"`
	OwnerID            uuid.UUID `json:"owner_id" db:"owner_id"`
	AppointmentsCount  int       `json:"appointments_count" db:"appointments_count"`
	IsPremium          bool      `json:"is_premium" db:"is_premium"`
	Address            *string   `json:"address" db:"address"`
	Phone              *string   `json:"phone" db:"phone"`
	Logo               *string   `json:"logo" db:"logo"`
	CancellationPolicy *string   `json:"cancellation_policy" db:"cancellation_policy"`
}

type CreateEstablishmentRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	OwnerID     string `json:"owner_id" binding:"required,uuid"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

type UpdateEstablishmentRequest struct {
	Name               *string `json:"name"`
	Description        *string `json:"description"`
	Phone              *string `json:"phone"`
	Address            *string `json:"address"`
	Logo               *string `json:"logo"`
	CancellationPolicy *string `json:"cancellation_policy"`
	IsPremium          *bool   `json:"is_premium"`
}

// Relationship status constants
const (
	RelationshipStatusActive  = "active"
	RelationshipStatusBlocked = "blocked"
)

// EstablishmentClient links a client account to an establishment. One row is
// created per successful invite redemption and is the durable proof that
// onboarding happened.
type EstablishmentClient struct {
	ID              uuid.UUID `json:"id" db:"id"`
	EstablishmentID uuid.UUID `json:"establishment_id" db:"establishment_id"`
	ClientID        uuid.UUID `json:"client_id" db:"client_id"`
	Status          string    `json:"status" db:"status"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// ClientSummary is the establishment-facing view of an onboarded client.
type ClientSummary struct {
	ClientID uuid.UUID `json:"client_id" db:"client_id"`
	Name     string    `json:"name" db:"name"`
	Email    string    `json:"email" db:"email"`
	Phone    *string   `json:"phone" db:"phone"`
	Status   string    `json:"status" db:"status"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
}
