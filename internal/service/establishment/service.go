package establishment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/agendly/agenda-api/internal/model"
	"github.com/agendly/agenda-api/internal/repository"
	"github.com/agendly/agenda-api/pkg/logger"
)

var (
	ErrNotFound = errors.New("establishment not found")
	ErrNotOwner = errors.New("account does not own this establishment")
	// ErrSlugCollision is returned when two generated slugs collide in a
	// row, which should be vanishingly rare.
	ErrSlugCollision = errors.New("could not allocate a unique slug")
)

type EstablishmentService interface {
	CreateEstablishment(ctx context.Context, req *model.CreateEstablishmentRequest) (*model.Establishment, error)
	GetEstablishment(ctx context.Context, id uuid.UUID) (*model.Establishment, error)
	GetBySlug(ctx context.Context, slug string) (*model.Establishment, error)
	UpdateEstablishment(ctx context.Context, actorID, id uuid.UUID, req *model.UpdateEstablishmentRequest) (*model.Establishment, error)
	DeleteEstablishment(ctx context.Context, actorID, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Establishment, error)
}

type Service struct {
	repo       repository.EstablishmentRepository
	outboxRepo repository.OutboxRepository
	logger     *logger.Logger
}

func NewService(repo repository.EstablishmentRepository, outboxRepo repository.OutboxRepository, l *logger.Logger) *Service {
	return &Service{repo: repo, outboxRepo: outboxRepo, logger: l}
}

// CreateEstablishment creates a record with a generated slug. On a slug
// collision one more slug is generated before giving up.
func (s *Service) CreateEstablishment(ctx context.Context, req *model.CreateEstablishmentRequest) (*model.Establishment, error) {
	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}

	est := &model.Establishment{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     ownerID,
	}
	if req.Phone != "" {
		est.Phone = &req.Phone
	}
	if req.Address != "" {
		est.Address = &req.Address
	}

	for attempt := 0; attempt < 2; attempt++ {
		est.Slug, err = generateSlug(req.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to generate slug: %w", err)
		}
		err = s.repo.Create(ctx, est)
		if err == nil {
			s.recordEvent(ctx, model.EventEstablishmentCreated, map[string]interface{}{
				"establishment_id": est.ID,
				"owner_id":         est.OwnerID,
				"slug":             est.Slug,
			})
			return est, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("failed to create establishment: %w", err)
		}
	}
	return nil, ErrSlugCollision
}

func (s *Service) GetEstablishment(ctx context.Context, id uuid.UUID) (*model.Establishment, error) {
	est, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get establishment: %w", err)
	}
	return est, nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*model.Establishment, error) {
	est, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get establishment by slug: %w", err)
	}
	return est, nil
}

func (s *Service) UpdateEstablishment(ctx context.Context, actorID, id uuid.UUID, req *model.UpdateEstablishmentRequest) (*model.Establishment, error) {
	est, err := s.authorize(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		est.Name = *req.Name
	}
	if req.Description != nil {
		est.Description = *req.Description
	}
	if req.Phone != nil {
		est.Phone = req.Phone
	}
	if req.Address != nil {
		est.Address = req.Address
	}
	if req.Logo != nil {
		est.Logo = req.Logo
	}
	if req.CancellationPolicy != nil {
		est.CancellationPolicy = req.CancellationPolicy
	}
	if req.IsPremium != nil {
		est.IsPremium = *req.IsPremium
	}

	if err := s.repo.Update(ctx, est); err != nil {
		return nil, fmt.Errorf("failed to update establishment: %w", err)
	}
	return est, nil
}

// DeleteEstablishment removes the establishment, its pending invites and its
// client relationships. Invites for a deleted establishment become
// unredeemable immediately.
func (s *Service) DeleteEstablishment(ctx context.Context, actorID, id uuid.UUID) error {
	if _, err := s.authorize(ctx, actorID, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete establishment: %w", err)
	}

	s.recordEvent(ctx, model.EventEstablishmentDeleted, map[string]interface{}{
		"establishment_id": id,
	})
	return nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Establishment, error) {
	ests, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list establishments: %w", err)
	}
	return ests, nil
}

func (s *Service) authorize(ctx context.Context, actorID, id uuid.UUID) (*model.Establishment, error) {
	est, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get establishment: %w", err)
	}
	if est.OwnerID != actorID {
		return nil, ErrNotOwner
	}
	return est, nil
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

// generateSlug lowercases and dashes the name and appends a short random
// suffix so two establishments with the same name get distinct URLs.
func generateSlug(name string) (string, error) {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	base := strings.Trim(b.String(), "-")
	if base == "" {
		base = "establishment"
	}

	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return base + "-" + hex.EncodeToString(suffix), nil
}
