package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/agendly/agenda-api/internal/model"
	"github.com/agendly/agenda-api/internal/repository"
)

type relationshipRepository struct {
	BaseRepository
}

func NewRelationshipRepository(base BaseRepository) repository.RelationshipRepository {
	return &relationshipRepository{base}
}

func (r *relationshipRepository) Get(ctx context.Context, establishmentID, clientID uuid.UUID) (*model.EstablishmentClient, error) {
	query := `
		SELECT id, establishment_id, client_id, status, created_at
		FROM establishment_clients
		WHERE establishment_id = $1 AND client_id = $2
	`
	var rel model.EstablishmentClient
	if err := r.db.GetContext(ctx, &rel, query, establishmentID, clientID); err != nil {
		return nil, mapError(err)
	}
	return &rel, nil
}

func (r *relationshipRepository) ListClients(ctx context.Context, establishmentID uuid.UUID) ([]*model.ClientSummary, error) {
	query := `
		SELECT ec.client_id, a.name, a.email, a.phone, ec.status,
			ec.created_at AS joined_at
		FROM establishment_clients ec
		JOIN accounts a ON a.id = ec.client_id
		WHERE ec.establishment_id = $1
		ORDER BY ec.created_at DESC
	`
	var clients []*model.ClientSummary
	if err := r.db.SelectContext(ctx, &clients, query, establishmentID); err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

func (r *relationshipRepository) ListEstablishments(ctx context.Context, clientID uuid.UUID) ([]*model.Establishment, error) {
	query := `
		SELECT e.id, e.name, e.description, e.slug, e.owner_id,
			e.appointments_count, e.is_premium, e.address, e.phone, e.logo,
			e.cancellation_policy, e.created_at, e.updated_at
		FROM establishments e
		JOIN establishment_clients ec ON ec.establishment_id = e.id
		WHERE ec.client_id = $1 AND ec.status = $2
		ORDER BY ec.created_at DESC
	`
	var ests []*model.Establishment
	if err := r.db.SelectContext(ctx, &ests, query, clientID, model.RelationshipStatusActive); err != nil {
		return nil, fmt.Errorf("failed to list establishments: %w", err)
	}
	return ests, nil
}

func (r *relationshipRepository) UpdateStatus(ctx context.Context, establishmentID, clientID uuid.UUID, status string) error {
	query := `
		UPDATE establishment_clients
		SET status = $1
		WHERE establishment_id = $2 AND client_id = $3
	`
	result, err := r.db.ExecContext(ctx, query, status, establishmentID, clientID)
	if err != nil {
		return fmt.Errorf("failed to update relationship status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
