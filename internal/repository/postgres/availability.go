package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agendly/agenda-api/internal/model"
	"github.com/agendly/agenda-api/internal/repository"
)

type availableHourRepository struct {
	BaseRepository
}

func NewAvailableHourRepository(base BaseRepository) repository.AvailableHourRepository {
	return &availableHourRepository{base}
}

func (r *availableHourRepository) Create(ctx context.Context, hour *model.AvailableHour) error {
	query := `
		INSERT INTO available_hours (
			id, establishment_id, day, start_time, end_time, interval,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`
	hour.ID = uuid.New()
	hour.CreatedAt = time.Now()
	hour.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		hour.ID,
		hour.EstablishmentID,
		hour.Day,
		hour.StartTime,
		hour.EndTime,
		hour.Interval,
		hour.CreatedAt,
		hour.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create available hour: %w", err)
	}
	return nil
}

func (r *availableHourRepository) Get(ctx context.Context, id uuid.UUID) (*model.AvailableHour, error) {
	query := `
		SELECT id, establishment_id, day, start_time, end_time, interval,
			created_at, updated_at
		FROM available_hours
		WHERE id = $1
	`
	var hour model.AvailableHour
	if err := r.db.GetContext(ctx, &hour, query, id); err != nil {
		return nil, mapError(err)
	}
	return &hour, nil
}

func (r *availableHourRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM available_hours WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete available hour: %w", err)
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

func (r *availableHourRepository) ListByEstablishment(ctx context.Context, establishmentID uuid.UUID) ([]*model.AvailableHour, error) {
	query := `
		SELECT id, establishment_id, day, start_time, end_time, interval,
			created_at, updated_at
		FROM available_hours
		WHERE establishment_id = $1
		ORDER BY day, start_time
	`
	var hours []*model.AvailableHour
	if err := r.db.SelectContext(ctx, &hours, query, establishmentID); err != nil {
		return nil, fmt.Errorf("failed to list available hours: %w", err)
	}
	return hours, nil
}
