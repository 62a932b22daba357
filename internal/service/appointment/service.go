package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agendly/agenda-api/internal/model"
	"github.com/agendly/agenda-api/internal/repository"
	"github.com/agendly/agenda-api/pkg/logger"
)

var (
	ErrNotFound              = errors.New("appointment not found")
	ErrEstablishmentNotFound = errors.New("establishment not found")
	ErrServiceNotFound       = errors.New("service not found")
	ErrNoRelationship        = errors.New("client is not associated with this establishment")
	ErrClientBlocked         = errors.New("client is blocked by this establishment")
	ErrTimeConflict          = errors.New("requested time conflicts with another appointment")
	// ErrAppointmentLimit fires when a non-premium establishment has used
	// up its free-tier bookings.
	ErrAppointmentLimit = errors.New("establishment reached its appointment limit")
	ErrForbidden        = errors.New("not allowed to modify this appointment")
	// ErrInvalidTransition guards the status flow: cancelled and completed
	// are final, so a freed slot can never be reclaimed past the conflict
	// check.
	ErrInvalidTransition = errors.New("appointment status cannot change from its current state")
)

type AppointmentService interface {
	CreateAppointment(ctx context.Context, clientID uuid.UUID, req *model.CreateAppointmentRequest) (*model.Appointment, error)
	GetAppointment(ctx context.Context, actorID, id uuid.UUID) (*model.Appointment, error)
	CancelAppointment(ctx context.Context, actorID, id uuid.UUID, reason string) error
	UpdateAppointment(ctx context.Context, actorID, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error)
	ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	ListEstablishmentAppointments(ctx context.Context, actorID, establishmentID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error)
}

type Service struct {
	repo        repository.AppointmentRepository
	estRepo     repository.EstablishmentRepository
	serviceRepo repository.ServiceRepository
	relRepo     repository.RelationshipRepository
	outboxRepo  repository.OutboxRepository
	logger      *logger.Logger
}

func NewService(repo repository.AppointmentRepository, estRepo repository.EstablishmentRepository, serviceRepo repository.ServiceRepository, relRepo repository.RelationshipRepository, outboxRepo repository.OutboxRepository, l *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		estRepo:     estRepo,
		serviceRepo: serviceRepo,
		relRepo:     relRepo,
		outboxRepo:  outboxRepo,
		logger:      l,
	}
}

// CreateAppointment books a service for a client. The client must hold an
// active relationship with the establishment, the slot must be free, and a
// non-premium establishment must still be under its booking cap. The cap is
// taken with a conditional increment so concurrent bookings cannot overshoot
// it.
func (s *Service) CreateAppointment(ctx context.Context, clientID uuid.UUID, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	establishmentID, err := uuid.Parse(req.EstablishmentID)
	if err != nil {
		return nil, fmt.Errorf("invalid establishment id: %w", err)
	}
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("invalid service id: %w", err)
	}

	if _, err := s.estRepo.Get(ctx, establishmentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEstablishmentNotFound
		}
		return nil, fmt.Errorf("failed to get establishment: %w", err)
	}

	rel, err := s.relRepo.Get(ctx, establishmentID, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoRelationship
		}
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}
	if rel.Status == model.RelationshipStatusBlocked {
		return nil, ErrClientBlocked
	}

	svc, err := s.serviceRepo.Get(ctx, serviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	if svc.EstablishmentID != establishmentID || !svc.IsActive {
		return nil, ErrServiceNotFound
	}

	endTime := req.StartTime.Add(time.Duration(svc.Duration) * time.Minute)

	conflict, err := s.repo.CheckConflicts(ctx, establishmentID, req.StartTime, endTime, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check conflicts: %w", err)
	}
	if conflict {
		return nil, ErrTimeConflict
	}

	ok, err := s.estRepo.IncrementAppointments(ctx, establishmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve appointment slot: %w", err)
	}
	if !ok {
		return nil, ErrAppointmentLimit
	}

	appointment := &model.Appointment{
		EstablishmentID: establishmentID,
		ClientID:        clientID,
		ServiceID:       serviceID,
		StartTime:       req.StartTime,
		EndTime:         endTime,
		Status:          model.AppointmentStatusScheduled,
		Notes:           req.Notes,
	}
	if err := s.repo.Create(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.recordEvent(ctx, model.EventAppointmentCreated, map[string]interface{}{
		"appointment_id":   appointment.ID,
		"establishment_id": establishmentID,
		"client_id":        clientID,
		"service_id":       serviceID,
		"start_time":       appointment.StartTime,
	})
	return appointment, nil
}

func (s *Service) GetAppointment(ctx context.Context, actorID, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actorID, appointment); err != nil {
		return nil, err
	}
	return appointment, nil
}

// CancelAppointment may be called by the client who booked or by the
// establishment owner.
func (s *Service) CancelAppointment(ctx context.Context, actorID, id uuid.UUID, reason string) error {
	appointment, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actorID, appointment); err != nil {
		return err
	}
	if appointment.Status.Terminal() {
		return ErrInvalidTransition
	}

	appointment.Status = model.AppointmentStatusCancelled
	if reason != "" {
		appointment.CancelReason = &reason
	}
	if err := s.repo.Update(ctx, appointment); err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}

	s.recordEvent(ctx, model.EventAppointmentCancelled, map[string]interface{}{
		"appointment_id":   appointment.ID,
		"establishment_id": appointment.EstablishmentID,
		"reason":           reason,
	})
	return nil
}

func (s *Service) UpdateAppointment(ctx context.Context, actorID, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	appointment, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actorID, appointment); err != nil {
		return nil, err
	}
	if appointment.Status.Terminal() {
		return nil, ErrInvalidTransition
	}
	if req.Status != nil && !appointment.Status.CanTransitionTo(*req.Status) {
		return nil, ErrInvalidTransition
	}

	if req.StartTime != nil {
		duration := appointment.EndTime.Sub(appointment.StartTime)
		newEnd := req.StartTime.Add(duration)

		conflict, err := s.repo.CheckConflicts(ctx, appointment.EstablishmentID, *req.StartTime, newEnd, &appointment.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check conflicts: %w", err)
		}
		if conflict {
			return nil, ErrTimeConflict
		}
		appointment.StartTime = *req.StartTime
		appointment.EndTime = newEnd
	}
	if req.Status != nil {
		appointment.Status = *req.Status
	}
	if req.Notes != nil {
		appointment.Notes = *req.Notes
	}
	if req.CancelReason != nil {
		appointment.CancelReason = req.CancelReason
	}

	if err := s.repo.Update(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return appointment, nil
}

func (s *Service) ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// ListEstablishmentAppointments lists one establishment's bookings for its
// owner. Pinning the establishment filter here keeps one tenant from paging
// through another's calendar.
func (s *Service) ListEstablishmentAppointments(ctx context.Context, actorID, establishmentID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	est, err := s.estRepo.Get(ctx, establishmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEstablishmentNotFound
		}
		return nil, fmt.Errorf("failed to get establishment: %w", err)
	}
	if est.OwnerID != actorID {
		return nil, ErrForbidden
	}

	filters.EstablishmentID = establishmentID
	return s.ListAppointments(ctx, filters)
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return appointment, nil
}

func (s *Service) authorize(ctx context.Context, actorID uuid.UUID, appointment *model.Appointment) error {
	if appointment.ClientID == actorID {
		return nil
	}
	est, err := s.estRepo.Get(ctx, appointment.EstablishmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrForbidden
		}
		return fmt.Errorf("failed to get establishment: %w", err)
	}
	if est.OwnerID != actorID {
		return ErrForbidden
	}
	return nil
}

func (s *Service) recordEvent(ctx context.Context, eventType string, payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error(err, "failed to marshal outbox payload", "event_type", eventType)
		return
	}
	if err := s.outboxRepo.Create(ctx, &model.OutboxEvent{EventType: eventType, Payload: data}); err != nil {
		s.logger.Error(err, "failed to record outbox event", "event_type", eventType)
	}
}
