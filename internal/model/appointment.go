package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// Terminal reports whether the status ends the appointment's lifecycle.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCancelled || s == AppointmentStatusCompleted
}

// CanTransitionTo reports whether the status may move to next. Scheduled
// appointments can be confirmed, cancelled, or completed; confirmed ones
// cancelled or completed; cancelled and completed are final.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case AppointmentStatusScheduled:
		return next == AppointmentStatusConfirmed || next == AppointmentStatusCancelled || next == AppointmentStatusCompleted
	case AppointmentStatusConfirmed:
		return next == AppointmentStatusCancelled || next == AppointmentStatusCompleted
	default:
		return false
	}
}

type Appointment struct {
	Base
	EstablishmentID uuid.UUID         `json:"establishment_id" db:"establishment_id"`
	ClientID        uuid.UUID         `json:"client_id" db:"client_id"`
	ServiceID       uuid.UUID         `json:"service_id" db:"service_id"`
	StartTime       time.Time         `json:"start_time" db:"start_time"`
	EndTime         time.Time         `json:"end_time" db:"end_time"`
	Status          AppointmentStatus `json:"status" db:"status"`
	Notes           string            `json:"notes,omitempty" db:"notes"`
	CancelReason    *string           `json:"cancel_reason,omitempty" db:"cancel_reason"`
}

type CreateAppointmentRequest struct {
	EstablishmentID string    `json:"establishment_id" binding:"required,uuid"`
	ServiceID       string    `json:"service_id" binding:"required,uuid"`
	StartTime       time.Time `json:"start_time" binding:"required"`
	Notes           string    `json:"notes" binding:"max=1000"`
}

type UpdateAppointmentRequest struct {
	StartTime    *time.Time         `json:"start_time"`
	Status       *AppointmentStatus `json:"status" binding:"omitempty,oneof=scheduled confirmed cancelled completed"`
	Notes        *string            `json:"notes"`
	CancelReason *string            `json:"cancel_reason"`
}

type AppointmentFilters struct {
	EstablishmentID uuid.UUID
	ClientID        uuid.UUID
	Status          AppointmentStatus
	StartDate       time.Time
	EndDate         time.Time
}
