package establishment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendly/agenda-api/internal/model"
	"github.com/agendly/agenda-api/internal/repository"
	"github.com/agendly/agenda-api/pkg/logger"
)

type memRepo struct {
	byID map[uuid.UUID]*model.Establishment
	// failCreates forces the next N Create calls to report a slug
	// collision.
	failCreates int
}

func newMemRepo() *memRepo {
	return &memRepo{byID: make(map[uuid.UUID]*model.Establishment)}
}

func (r *memRepo) Create(_ context.Context, est *model.Establishment) error {
	if r.failCreates > 0 {
		r.failCreates--
		return repository.ErrDuplicate
	}
	for _, existing := range r.byID {
		if existing.Slug == est.Slug {
			return repository.ErrDuplicate
		}
	}
	est.ID = uuid.New()
	r.byID[est.ID] = est
	return nil
}

func (r *memRepo) Get(_ context.Context, id uuid.UUID) (*model.Establishment, error) {
	est, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return est, nil
}

func (r *memRepo) GetBySlug(_ context.Context, slug string) (*model.Establishment, error) {
	for _, est := range r.byID {
		if est.Slug == slug {
			return est, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memRepo) Update(_ context.Context, est *model.Establishment) error {
	if _, ok := r.byID[est.ID]; !ok {
		return repository.ErrNotFound
	}
	r.byID[est.ID] = est
	return nil
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memRepo) List(_ context.Context) ([]*model.Establishment, error) {
	var out []*model.Establishment
	for _, est := range r.byID {
		out = append(out, est)
	}
	return out, nil
}

func (r *memRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*model.Establishment, error) {
	var out []*model.Establishment
	for _, est := range r.byID {
		if est.OwnerID == ownerID {
			out = append(out, est)
		}
	}
	return out, nil
}

func (r *memRepo) IncrementAppointments(_ context.Context, id uuid.UUID) (bool, error) {
	est, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	est.AppointmentsCount++
	return true, nil
}

type memOutboxRepo struct {
	events []*model.OutboxEvent
}

func (r *memOutboxRepo) Create(_ context.Context, event *model.OutboxEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *memOutboxRepo) GetPendingEvents(_ context.Context, _ int) ([]*model.OutboxEvent, error) {
	return r.events, nil
}

func (r *memOutboxRepo) UpdateStatus(_ context.Context, _ uuid.UUID, _ model.OutboxStatus, _ *string) error {
	return nil
}

func (r *memOutboxRepo) MarkForRetry(_ context.Context, _ uuid.UUID, _ *string, _ time.Time) error {
	return nil
}

func (r *memOutboxRepo) DeleteProcessedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func TestCreateEstablishment(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &memOutboxRepo{}, logger.NewLogger(nil))

	ownerID := uuid.New()
	est, err := svc.CreateEstablishment(context.Background(), &model.CreateEstablishmentRequest{
		Name:    "Salao A",
		OwnerID: ownerID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, ownerID, est.OwnerID)
	assert.Regexp(t, `^salao-a-[0-9a-f]{6}$`, est.Slug)
	assert.False(t, est.IsPremium)
	assert.Zero(t, est.AppointmentsCount)
}

func TestCreateEstablishmentRetriesSlugOnce(t *testing.T) {
	repo := newMemRepo()
	repo.failCreates = 1
	svc := NewService(repo, &memOutboxRepo{}, logger.NewLogger(nil))

	est, err := svc.CreateEstablishment(context.Background(), &model.CreateEstablishmentRequest{
		Name:    "Barber Shop",
		OwnerID: uuid.New().String(),
	})
	require.NoError(t, err)
	assert.Regexp(t, `^barber-shop-[0-9a-f]{6}$`, est.Slug)
}

func TestCreateEstablishmentSlugCollisionTwiceFails(t *testing.T) {
	repo := newMemRepo()
	repo.failCreates = 2
	svc := NewService(repo, &memOutboxRepo{}, logger.NewLogger(nil))

	_, err := svc.CreateEstablishment(context.Background(), &model.CreateEstablishmentRequest{
		Name:    "Barber Shop",
		OwnerID: uuid.New().String(),
	})
	assert.ErrorIs(t, err, ErrSlugCollision)
}

func TestUpdateEstablishmentRequiresOwnership(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &memOutboxRepo{}, logger.NewLogger(nil))

	ownerID := uuid.New()
	est, err := svc.CreateEstablishment(context.Background(), &model.CreateEstablishmentRequest{
		Name:    "Studio",
		OwnerID: ownerID.String(),
	})
	require.NoError(t, err)

	name := "Renamed"
	_, err = svc.UpdateEstablishment(context.Background(), uuid.New(), est.ID, &model.UpdateEstablishmentRequest{Name: &name})
	assert.ErrorIs(t, err, ErrNotOwner)

	updated, err := svc.UpdateEstablishment(context.Background(), ownerID, est.ID, &model.UpdateEstablishmentRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
}

func TestDeleteEstablishment(t *testing.T) {
	repo := newMemRepo()
	outbox := &memOutboxRepo{}
	svc := NewService(repo, outbox, logger.NewLogger(nil))

	ownerID := uuid.New()
	est, err := svc.CreateEstablishment(context.Background(), &model.CreateEstablishmentRequest{
		Name:    "Studio",
		OwnerID: ownerID.String(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEstablishment(context.Background(), ownerID, est.ID))

	_, err = svc.GetEstablishment(context.Background(), est.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, model.EventEstablishmentDeleted, outbox.events[len(outbox.events)-1].EventType)
}

func TestGenerateSlug(t *testing.T) {
	slug, err := generateSlug("  Studio -- Hair & Beauty  ")
	require.NoError(t, err)
	assert.Regexp(t, `^studio-hair-beauty-[0-9a-f]{6}$`, slug)

	slug, err = generateSlug("!!!")
	require.NoError(t, err)
	assert.Regexp(t, `^establishment-[0-9a-f]{6}$`, slug)
}
