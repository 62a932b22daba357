package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/agendly/agenda-api/internal/model"
	"github.com/agendly/agenda-api/internal/repository"
)

var (
	ErrServiceNotFound       = errors.New("service not found")
	ErrEstablishmentNotFound = errors.New("establishment not found")
	ErrNotOwner              = errors.New("account does not own this establishment")
)

type CatalogService interface {
	CreateService(ctx context.Context, actorID, establishmentID uuid.UUID, req *model.CreateServiceRequest) (*model.Service, error)
	GetService(ctx context.Context, id uuid.UUID) (*model.Service, error)
	UpdateService(ctx context.Context, actorID, id uuid.UUID, req *model.UpdateServiceRequest) (*model.Service, error)
	DeleteService(ctx context.Context, actorID, id uuid.UUID) error
	ListServices(ctx context.Context, establishmentID uuid.UUID) ([]*model.Service, error)
}

type Service struct {
	repo    repository.ServiceRepository
	estRepo repository.EstablishmentRepository
}

func NewService(repo repository.ServiceRepository, estRepo repository.EstablishmentRepository) *Service {
	return &Service{repo: repo, estRepo: estRepo}
}

func (s *Service) CreateService(ctx context.Context, actorID, establishmentID uuid.UUID, req *model.CreateServiceRequest) (*model.Service, error) {
	if err := s.authorizeEstablishment(ctx, actorID, establishmentID); err != nil {
		return nil, err
	}

	svc := &model.Service{
		EstablishmentID: establishmentID,
		Name:            req.Name,
		Description:     req.Description,
		Duration:        req.Duration,
		Price:           req.Price,
		IsActive:        true,
	}
	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return svc, nil
}

func (s *Service) GetService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	svc, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return svc, nil
}

func (s *Service) UpdateService(ctx context.Context, actorID, id uuid.UUID, req *model.UpdateServiceRequest) (*model.Service, error) {
	svc, err := s.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeEstablishment(ctx, actorID, svc.EstablishmentID); err != nil {
		return nil, err
	}

	if req.Name != nil {
		svc.Name = *req.Name
	}
	if req.Description != nil {
		svc.Description = *req.Description
	}
	if req.Duration != nil {
		svc.Duration = *req.Duration
	}
	if req.Price != nil {
		svc.Price = *req.Price
	}
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, svc); err != nil {
		return nil, fmt.Errorf("failed to update service: %w", err)
	}
	return svc, nil
}

func (s *Service) DeleteService(ctx context.Context, actorID, id uuid.UUID) error {
	svc, err := s.GetService(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeEstablishment(ctx, actorID, svc.EstablishmentID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	return nil
}

func (s *Service) ListServices(ctx context.Context, establishmentID uuid.UUID) ([]*model.Service, error) {
	services, err := s.repo.ListByEstablishment(ctx, establishmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

func (s *Service) authorizeEstablishment(ctx context.Context, actorID, establishmentID uuid.UUID) error {
	est, err := s.estRepo.Get(ctx, establishmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEstablishmentNotFound
		}
		return fmt.Errorf("failed to get establishment: %w", err)
	}
	if est.OwnerID != actorID {
		return ErrNotOwner
	}
	return nil
}
