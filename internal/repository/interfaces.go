package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/agendly/agenda-api/internal/model"
)

// Sentinel errors shared by all repository implementations. Services match
// on these instead of driver-specific error types.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// All repository interfaces in one file
type (
	// AccountRepository handles account persistence
	AccountRepository interface {
		Create(ctx context.Context, account *model.Account) error
		Get(ctx context.Context, id uuid.UUID) (*model.Account, error)
		GetByEmail(ctx context.Context, email string) (*model.Account, error)
		Update(ctx context.Context, account *model.Account) error
		Delete(ctx context.Context, id uuid.UUID) error
		UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	}

	EstablishmentRepository interface {
		Create(ctx context.Context, est *model.Establishment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Establishment, error)
		GetBySlug(ctx context.Context, slug string) (*model.Establishment, error)
		Update(ctx context.Context, est *model.Establishment) error
		// Delete removes the establishment together with its pending
		// invites and client relationships in one transaction.
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Establishment, error)
		ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Establishment, error)
		// IncrementAppointments bumps the appointment counter only while
		// the establishment is premium or still under the free-tier cap.
		// Returns false when the cap is hit.
		IncrementAppointments(ctx context.Context, id uuid.UUID) (bool, error)
	}

	InviteRepository interface {
		Create(ctx context.Context, invite *model.Invite) error
		GetPending(ctx context.Context, establishmentID uuid.UUID, code string) (*model.Invite, error)
		ListByEstablishment(ctx context.Context, establishmentID uuid.UUID) ([]*model.Invite, error)
		// Redeem creates the establishment-client relationship and flips
		// the invite from pending to accepted in a single transaction.
		// The status transition is a conditional update: if a concurrent
		// redemption already accepted the invite, ErrNotFound is returned
		// and nothing is written.
		Redeem(ctx context.Context, inviteID, establishmentID, clientID uuid.UUID) error
	}

	RelationshipRepository interface {
		Get(ctx context.Context, establishmentID, clientID uuid.UUID) (*model.EstablishmentClient, error)
		ListClients(ctx context.Context, establishmentID uuid.UUID) ([]*model.ClientSummary, error)
		ListEstablishments(ctx context.Context, clientID uuid.UUID) ([]*model.Establishment, error)
		UpdateStatus(ctx context.Context, establishmentID, clientID uuid.UUID, status string) error
	}

	ServiceRepository interface {
		Create(ctx context.Context, svc *model.Service) error
		Get(ctx context.Context, id uuid.UUID) (*model.Service, error)
		Update(ctx context.Context, svc *model.Service) error
		Delete(ctx context.Context, id uuid.UUID) error
		ListByEstablishment(ctx context.Context, establishmentID uuid.UUID) ([]*model.Service, error)
	}

	AvailableHourRepository interface {
		Create(ctx context.Context, hour *model.AvailableHour) error
		Get(ctx context.Context, id uuid.UUID) (*model.AvailableHour, error)
		Delete(ctx context.Context, id uuid.UUID) error
		ListByEstablishment(ctx context.Context, establishmentID uuid.UUID) ([]*model.AvailableHour, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		CheckConflicts(ctx context.Context, establishmentID uuid.UUID, startTime, endTime time.Time, excludeID *uuid.UUID) (bool, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
		MarkForRetry(ctx context.Context, id uuid.UUID, errMsg *string, retryAt time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
