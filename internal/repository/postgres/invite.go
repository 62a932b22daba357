package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/agendly/agenda-api/internal/model"
	"github.com/agendly/agenda-api/internal/repository"
)

type inviteRepository struct {
	BaseRepository
}

func NewInviteRepository(base BaseRepository) repository.InviteRepository {
	return &inviteRepository{base}
}

func (r *inviteRepository) Create(ctx context.Context, invite *model.Invite) error {
	query := `
		INSERT INTO invites (
			id, establishment_id, channel, contact, code, status,
			expires_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`
	invite.ID = uuid.New()
	invite.CreatedAt = time.Now()
	invite.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		invite.ID,
		invite.EstablishmentID,
		invite.Channel,
		invite.Contact,
		invite.Code,
		invite.Status,
		invite.ExpiresAt,
		invite.CreatedAt,
		invite.UpdatedAt,
	)
	if err != nil {
		// a pending invite with the same code already exists for this
		// establishment; the caller regenerates and retries
		if mapped := mapError(err); mapped == repository.ErrDuplicate {
			return mapped
		}
		return fmt.Errorf("failed to create invite: %w", err)
	}
	return nil
}

func (r *inviteRepository) GetPending(ctx context.Context, establishmentID uuid.UUID, code string) (*model.Invite, error) {
	query := `
		SELECT id, establishment_id, channel, contact, code, status,
			expires_at, created_at, updated_at
		FROM invites
		WHERE establishment_id = $1 AND code = $2 AND status = $3
	`
	var invite model.Invite
	if err := r.db.GetContext(ctx, &invite, query, establishmentID, code, model.InviteStatusPending); err != nil {
		return nil, mapError(err)
	}
	return &invite, nil
}

func (r *inviteRepository) ListByEstablishment(ctx context.Context, establishmentID uuid.UUID) ([]*model.Invite, error) {
	query := `
		SELECT id, establishment_id, channel, contact, code, status,
			expires_at, created_at, updated_at
		FROM invites
		WHERE establishment_id = $1
		ORDER BY created_at DESC
	`
	var invites []*model.Invite
	if err := r.db.SelectContext(ctx, &invites, query, establishmentID); err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	return invites, nil
}

// Redeem performs the accept in one transaction. The relationship insert and
// the pending-to-accepted transition either both commit or neither does. The
// status transition is conditional on the row still being pending, so of two
// concurrent redemptions exactly one sees RowsAffected == 1.
func (r *inviteRepository) Redeem(ctx context.Context, inviteID, establishmentID, clientID uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		relQuery := `
			INSERT INTO establishment_clients (
				id, establishment_id, client_id, status, created_at
			) VALUES ($1, $2, $3, $4, $5)
		`
		_, err := tx.ExecContext(ctx, relQuery,
			uuid.New(), establishmentID, clientID, model.RelationshipStatusActive, time.Now())
		if err != nil {
			if mapped := mapError(err); mapped == repository.ErrDuplicate {
				return mapped
			}
			return fmt.Errorf("failed to create client relationship: %w", err)
		}

		updQuery := `
			UPDATE invites
			SET status = $1, updated_at = $2
			WHERE id = $3 AND status = $4
		`
		result, err := tx.ExecContext(ctx, updQuery,
			model.InviteStatusAccepted, time.Now(), inviteID, model.InviteStatusPending)
		if err != nil {
			return fmt.Errorf("failed to accept invite: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			// lost the race: someone else accepted first
			return repository.ErrNotFound
		}
		return nil
	})
}
