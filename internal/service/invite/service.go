package invite

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/agendly/agenda-api/internal/email"
	"github.com/agendly/agenda-api/internal/model"
	"github.com/agendly/agenda-api/internal/repository"
	"github.com/agendly/agenda-api/pkg/logger"
	"github.com/agendly/agenda-api/pkg/metrics"
)

// Redemption failures collapse into ErrInvalidInvite so a caller cannot tell
// a wrong code from an already-used one. ErrExpiredInvite is kept distinct
// internally and mapped to the same message at the HTTP boundary.
var (
	ErrInvalidInvite  = errors.New("invalid invite")
	ErrExpiredInvite  = errors.New("invite expired")
	ErrNotEstablished = errors.New("establishment not found")
	ErrNotOwner       = errors.New("account does not own this establishment")
)

const (
	codeLength = 6
	// retries on a code collision within the same establishment
	maxCodeAttempts = 3
)

type InviteService interface {
	CreateInvite(ctx context.Context, actorID, establishmentID uuid.UUID, req *model.CreateInviteRequest) (*model.CreateInviteResponse, error)
	RedeemInvite(ctx context.Context, clientID, establishmentID uuid.UUID, code string) error
	ListInvites(ctx context.Context, actorID, establishmentID uuid.UUID) ([]*model.Invite, error)
}

type Service struct {
	repo       repository.InviteRepository
	estRepo    repository.EstablishmentRepository
	outboxRepo repository.OutboxRepository
	sender     email.Sender
	logger     *logger.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewService(repo repository.InviteRepository, estRepo repository.EstablishmentRepository, outboxRepo repository.OutboxRepository, sender email.Sender, l *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:       repo,
		estRepo:    estRepo,
		outboxRepo: outboxRepo,
		sender:     sender,
		logger:     l,
		metrics:    m,
		now:        time.Now,
	}
}

// CreateInvite issues a pending invite for the establishment and returns the
// code once. The actor must own the establishment.
func (s *Service) CreateInvite(ctx context.Context, actorID, establishmentID uuid.UUID, req *model.CreateInviteRequest) (*model.CreateInviteResponse, error) {
	est, err := s.estRepo.Get(ctx, establishmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotEstablished
		}
		return nil, fmt.Errorf("failed to get establishment: %w", err)
	}
	if est.OwnerID != actorID {
		return nil, ErrNotOwner
	}

	invite := &model.Invite{
		EstablishmentID: establishmentID,
		Channel:         req.Channel,
		Contact:         req.Contact,
		Status:          model.InviteStatusPending,
		ExpiresAt:       s.now().Add(model.InviteTTL),
	}

	// The code is unique per establishment among pending invites. A
	// collision regenerates rather than failing the request.
	for attempt := 0; ; attempt++ {
		invite.Code, err = generateCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate invite code: %w", err)
		}
		err = s.repo.Create(ctx, invite)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt+1 >= maxCodeAttempts {
			return nil, fmt.Errorf("failed to create invite: %w", err)
		}
	}

	s.metrics.InvitesCreated.Inc()
	s.recordEvent(ctx, model.EventInviteCreated, map[string]interface{}{
		"invite_id":        invite.ID,
		"establishment_id": establishmentID,
		"channel":          invite.Channel,
	})

	if invite.Channel == model.InviteChannelEmail {
		if err := s.sender.SendInviteCode(ctx, invite.Contact, est.Name, invite.Code, invite.ExpiresAt); err != nil {
			s.logger.Error(err, "invite email delivery failed", "invite_id", invite.ID)
		}
	}

	return &model.CreateInviteResponse{
		ID:        invite.ID,
		Code:      invite.Code,
		ExpiresAt: invite.ExpiresAt,
	}, nil
}

// RedeemInvite consumes a pending invite and associates the client with the
// establishment. The code is single-use: a concurrent or repeated redemption
// fails with ErrInvalidInvite.
func (s *Service) RedeemInvite(ctx context.Context, clientID, establishmentID uuid.UUID, code string) error {
	if _, err := s.estRepo.Get(ctx, establishmentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.InvitesRejected.WithLabelValues("establishment_gone").Inc()
			return ErrInvalidInvite
		}
		return fmt.Errorf("failed to get establishment: %w", err)
	}

	invite, err := s.repo.GetPending(ctx, establishmentID, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.InvitesRejected.WithLabelValues("not_pending").Inc()
			return ErrInvalidInvite
		}
		return fmt.Errorf("failed to look up invite: %w", err)
	}

	if invite.IsExpired(s.now()) {
		s.metrics.InvitesRejected.WithLabelValues("expired").Inc()
		return ErrExpiredInvite
	}

	if err := s.repo.Redeem(ctx, invite.ID, establishmentID, clientID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			// Lost the race against a concurrent redemption.
			s.metrics.InvitesRejected.WithLabelValues("already_redeemed").Inc()
			return ErrInvalidInvite
		case errors.Is(err, repository.ErrDuplicate):
			s.metrics.InvitesRejected.WithLabelValues("already_associated").Inc()
			return ErrInvalidInvite
		default:
			return fmt.Errorf("failed to redeem invite: %w", err)
		}
	}

	s.metrics.InvitesRedeemed.Inc()
	s.recordEvent(ctx, model.EventInviteRedeemed, map[string]interface{}{
		"invite_id":        invite.ID,
		"establishment_id": establishmentID,
		"client_id":        clientID,
	})
	return nil
}

func (s *Service) ListInvites(ctx context.Context, actorID, establishmentID uuid.UUID) ([]*model.Invite, error) {
	est, err := s.estRepo.Get(ctx, establishmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotEstablished
		}
		return nil, fmt.Errorf("failed to get establishment: %w", err)
	}
	if est.OwnerID != actorID {
		return nil, ErrNotOwner
	}

	invites, err := s.repo.ListByEstablishment(ctx, establishmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	return invites, nil
}

func (s *Service) recordEvent(ctx context.Context, eventType string, payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error(err, "failed to marshal outbox payload", "event_type", eventType)
		return
	}
	event := &model.OutboxEvent{EventType: eventType, Payload: data}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		s.logger.Error(err, "failed to record outbox event", "event_type", eventType)
	}
}

// generateCode returns a uniformly random 6-digit numeric code, left-padded
// with zeros.
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeLength, n), nil
}
