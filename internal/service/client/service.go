package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/agendly/agenda-api/internal/model"
	"github.com/agendly/agenda-api/internal/repository"
)

var (
	ErrEstablishmentNotFound = errors.New("establishment not found")
	ErrNotOwner              = errors.New("account does not own this establishment")
	ErrNoRelationship        = errors.New("client is not associated with this establishment")
)

// ClientService manages the establishment side of client relationships.
// Relationships are created only through invite redemption; here they can be
// listed, blocked and unblocked.
type ClientService interface {
	ListClients(ctx context.Context, actorID, establishmentID uuid.UUID) ([]*model.ClientSummary, error)
	BlockClient(ctx context.Context, actorID, establishmentID, clientID uuid.UUID) error
	UnblockClient(ctx context.Context, actorID, establishmentID, clientID uuid.UUID) error
	ListEstablishments(ctx context.Context, clientID uuid.UUID) ([]*model.Establishment, error)
}

type Service struct {
	relRepo repository.RelationshipRepository
	estRepo repository.EstablishmentRepository
}

func NewService(relRepo repository.RelationshipRepository, estRepo repository.EstablishmentRepository) *Service {
	return &Service{relRepo: relRepo, estRepo: estRepo}
}

func (s *Service) ListClients(ctx context.Context, actorID, establishmentID uuid.UUID) ([]*model.ClientSummary, error) {
	if err := s.authorize(ctx, actorID, establishmentID); err != nil {
		return nil, err
	}
	clients, err := s.relRepo.ListClients(ctx, establishmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

func (s *Service) BlockClient(ctx context.Context, actorID, establishmentID, clientID uuid.UUID) error {
	return s.setStatus(ctx, actorID, establishmentID, clientID, model.RelationshipStatusBlocked)
}

func (s *Service) UnblockClient(ctx context.Context, actorID, establishmentID, clientID uuid.UUID) error {
	return s.setStatus(ctx, actorID, establishmentID, clientID, model.RelationshipStatusActive)
}

// ListEstablishments returns the establishments a client is actively
// associated with.
func (s *Service) ListEstablishments(ctx context.Context, clientID uuid.UUID) ([]*model.Establishment, error) {
	ests, err := s.relRepo.ListEstablishments(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list establishments: %w", err)
	}
	return ests, nil
}

func (s *Service) setStatus(ctx context.Context, actorID, establishmentID, clientID uuid.UUID, status string) error {
	if err := s.authorize(ctx, actorID, establishmentID); err != nil {
		return err
	}
	if err := s.relRepo.UpdateStatus(ctx, establishmentID, clientID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoRelationship
		}
		return fmt.Errorf("failed to update relationship status: %w", err)
	}
	return nil
}

func (s *Service) authorize(ctx context.Context, actorID, establishmentID uuid.UUID) error {
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
