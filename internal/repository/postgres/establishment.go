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

type establishmentRepository struct {
	BaseRepository
}

func NewEstablishmentRepository(base BaseRepository) repository.EstablishmentRepository {
	return &establishmentRepository{base}
}

const establishmentColumns = `
	id, name, description, slug, owner_id, appointments_count, is_premium,
	address, phone, logo, cancellation_policy, created_at, updated_at
`

func (r *establishmentRepository) Create(ctx context.Context, est *model.Establishment) error {
	query := `
		INSERT INTO establishments (
			id, name, description, slug, owner_id, appointments_count,
			is_premium, address, phone, logo, cancellation_policy,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`
	est.ID = uuid.New()
	est.CreatedAt = time.Now()
	est.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		est.ID,
		est.Name,
		est.Description,
		est.Slug,
		est.OwnerID,
		est.AppointmentsCount,
		est.IsPremium,
		est.Address,
		est.Phone,
		est.Logo,
		est.CancellationPolicy,
		est.CreatedAt,
		est.UpdatedAt,
	)
	if err != nil {
		if mapped := mapError(err); mapped == repository.ErrDuplicate {
			return mapped
		}
		return fmt.Errorf("failed to create establishment: %w", err)
	}
	return nil
}

func (r *establishmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Establishment, error) {
	query := `SELECT ` + establishmentColumns + ` FROM establishments WHERE id = $1`

	var est model.Establishment
	if err := r.db.GetContext(ctx, &est, query, id); err != nil {
		return nil, mapError(err)
	}
	return &est, nil
}

func (r *establishmentRepository) GetBySlug(ctx context.Context, slug string) (*model.Establishment, error) {
	query := `SELECT ` + establishmentColumns + ` FROM establishments WHERE slug = $1`

	var est model.Establishment
	if err := r.db.GetContext(ctx, &est, query, slug); err != nil {
		return nil, mapError(err)
	}
	return &est, nil
}

func (r *establishmentRepository) Update(ctx context.Context, est *model.Establishment) error {
	query := `
		UPDATE establishments
		SET name = $1, description = $2, address = $3, phone = $4,
			logo = $5, cancellation_policy = $6, is_premium = $7,
			updated_at = $8
		WHERE id = $9
	`
	est.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		est.Name,
		est.Description,
		est.Address,
		est.Phone,
		est.Logo,
		est.CancellationPolicy,
		est.IsPremium,
		est.UpdatedAt,
		est.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update establishment: %w", err)
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

// Delete removes the establishment and everything that could let a later
// redemption succeed against it: pending invites and client relationships
// go in the same transaction.
func (r *establishmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM invites WHERE establishment_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete invites: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM establishment_clients WHERE establishment_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete client relationships: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM establishments WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete establishment: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (r *establishmentRepository) List(ctx context.Context) ([]*model.Establishment, error) {
	query := `SELECT ` + establishmentColumns + ` FROM establishments ORDER BY created_at DESC`

	var ests []*model.Establishment
	if err := r.db.SelectContext(ctx, &ests, query); err != nil {
		return nil, fmt.Errorf("failed to list establishments: %w", err)
	}
	return ests, nil
}

func (r *establishmentRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Establishment, error) {
	query := `SELECT ` + establishmentColumns + ` FROM establishments WHERE owner_id = $1 ORDER BY created_at DESC`

	var ests []*model.Establishment
	if err := r.db.SelectContext(ctx, &ests, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list establishments: %w", err)
	}
	return ests, nil
}

// IncrementAppointments is the free-tier gate. The condition lives in the
// UPDATE itself so two concurrent bookings cannot both slip under the cap.
func (r *establishmentRepository) IncrementAppointments(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE establishments
		SET appointments_count = appointments_count + 1, updated_at = $1
		WHERE id = $2
		AND (is_premium OR appointments_count < $3)
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id, model.FreeTierAppointmentLimit)
	if err != nil {
		return false, fmt.Errorf("failed to increment appointment count: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}
