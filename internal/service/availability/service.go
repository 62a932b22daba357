package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agendly/agenda-api/internal/model"
	"github.com/agendly/agenda-api/internal/repository"
)

var (
	ErrWindowNotFound        = errors.New("availability window not found")
	ErrEstablishmentNotFound = errors.New("establishment not found")
	ErrNotOwner              = errors.New("account does not own this establishment")
	ErrInvalidWindow         = errors.New("window end must be after start")
)

type AvailabilityService interface {
	CreateWindow(ctx context.Context, actorID, establishmentID uuid.UUID, req *model.CreateAvailableHourRequest) (*model.AvailableHour, error)
	DeleteWindow(ctx context.Context, actorID, id uuid.UUID) error
	ListWindows(ctx context.Context, establishmentID uuid.UUID) ([]*model.AvailableHour, error)
}

type Service struct {
	repo    repository.AvailableHourRepository
	estRepo repository.EstablishmentRepository
}

func NewService(repo repository.AvailableHourRepository, estRepo repository.EstablishmentRepository) *Service {
	return &Service{repo: repo, estRepo: estRepo}
}

func (s *Service) CreateWindow(ctx context.Context, actorID, establishmentID uuid.UUID, req *model.CreateAvailableHourRequest) (*model.AvailableHour, error) {
	est, err := s.estRepo.Get(ctx, establishmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEstablishmentNotFound
		}
		return nil, fmt.Errorf("failed to get establishment: %w", err)
	}
	if est.OwnerID != actorID {
		return nil, ErrNotOwner
	}

	start, err := parseClock(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := parseClock(req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("invalid end time: %w", err)
	}
	if !end.After(start) {
		return nil, ErrInvalidWindow
	}

	hour := &model.AvailableHour{
		EstablishmentID: establishmentID,
		Day:             req.Day,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Interval:        req.Interval,
	}
	if err := s.repo.Create(ctx, hour); err != nil {
		return nil, fmt.Errorf("failed to create availability window: %w", err)
	}
	return hour, nil
}

func (s *Service) DeleteWindow(ctx context.Context, actorID, id uuid.UUID) error {
	hour, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWindowNotFound
		}
		return fmt.Errorf("failed to get availability window: %w", err)
	}

	est, err := s.estRepo.Get(ctx, hour.EstablishmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEstablishmentNotFound
		}
		return fmt.Errorf("failed to get establishment: %w", err)
	}
	if est.OwnerID != actorID {
		return ErrNotOwner
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete availability window: %w", err)
	}
	return nil
}

func (s *Service) ListWindows(ctx context.Context, establishmentID uuid.UUID) ([]*model.AvailableHour, error) {
	hours, err := s.repo.ListByEstablishment(ctx, establishmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability windows: %w", err)
	}
	return hours, nil
}

func parseClock(s string) (time.Time, error) {
	return time.Parse("15:04", s)
}
