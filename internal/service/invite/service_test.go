package invite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendly/agenda-api/internal/email"
	"github.com/agendly/agenda-api/internal/model"
	"github.com/agendly/agenda-api/internal/repository"
	"github.com/agendly/agenda-api/pkg/logger"
	"github.com/agendly/agenda-api/pkg/metrics"
)

// promauto registers against the default registry, so the test binary
// creates metrics once.
var testMetrics = metrics.NewMetrics("test", "invite")

type memEstablishmentRepo struct {
	byID map[uuid.UUID]*model.Establishment
}

func (r *memEstablishmentRepo) Create(_ context.Context, est *model.Establishment) error {
	r.byID[est.ID] = est
	return nil
}

func (r *memEstablishmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Establishment, error) {
	est, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return est, nil
}

func (r *memEstablishmentRepo) GetBySlug(_ context.Context, slug string) (*model.Establishment, error) {
	for _, est := range r.byID {
		if est.Slug == slug {
			return est, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memEstablishmentRepo) Update(_ context.Context, est *model.Establishment) error {
	if _, ok := r.byID[est.ID]; !ok {
		return repository.ErrNotFound
	}
	r.byID[est.ID] = est
	return nil
}

func (r *memEstablishmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memEstablishmentRepo) List(_ context.Context) ([]*model.Establishment, error) {
	var out []*model.Establishment
	for _, est := range r.byID {
		out = append(out, est)
	}
	return out, nil
}

func (r *memEstablishmentRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*model.Establishment, error) {
	var out []*model.Establishment
	for _, est := range r.byID {
		if est.OwnerID == ownerID {
			out = append(out, est)
		}
	}
	return out, nil
}

func (r *memEstablishmentRepo) IncrementAppointments(_ context.Context, id uuid.UUID) (bool, error) {
	est, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	if !est.IsPremium && est.AppointmentsCount >= model.FreeTierAppointmentLimit {
		return false, nil
	}
	est.AppointmentsCount++
	return true, nil
}

type relationshipKey struct {
	establishmentID uuid.UUID
	clientID        uuid.UUID
}

type memInviteRepo struct {
	byID          map[uuid.UUID]*model.Invite
	relationships map[relationshipKey]string
}

func newMemInviteRepo() *memInviteRepo {
	return &memInviteRepo{
		byID:          make(map[uuid.UUID]*model.Invite),
		relationships: make(map[relationshipKey]string),
	}
}

func (r *memInviteRepo) Create(_ context.Context, invite *model.Invite) error {
	for _, existing := range r.byID {
		if existing.EstablishmentID == invite.EstablishmentID &&
			existing.Code == invite.Code &&
			existing.Status == model.InviteStatusPending {
			return repository.ErrDuplicate
		}
	}
	invite.ID = uuid.New()
	invite.CreatedAt = time.Now()
	invite.UpdatedAt = time.Now()
	r.byID[invite.ID] = invite
	return nil
}

func (r *memInviteRepo) GetPending(_ context.Context, establishmentID uuid.UUID, code string) (*model.Invite, error) {
	for _, invite := range r.byID {
		if invite.EstablishmentID == establishmentID &&
			invite.Code == code &&
			invite.Status == model.InviteStatusPending {
			return invite, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memInviteRepo) ListByEstablishment(_ context.Context, establishmentID uuid.UUID) ([]*model.Invite, error) {
	var out []*model.Invite
	for _, invite := range r.byID {
		if invite.EstablishmentID == establishmentID {
			out = append(out, invite)
		}
	}
	return out, nil
}

func (r *memInviteRepo) Redeem(_ context.Context, inviteID, establishmentID, clientID uuid.UUID) error {
	key := relationshipKey{establishmentID, clientID}
	if _, exists := r.relationships[key]; exists {
		return repository.ErrDuplicate
	}
	invite, ok := r.byID[inviteID]
	if !ok || invite.Status != model.InviteStatusPending {
		return repository.ErrNotFound
	}
	r.relationships[key] = model.RelationshipStatusActive
	invite.Status = model.InviteStatusAccepted
	return nil
}

type memOutboxRepo struct {
	events []*model.OutboxEvent
}

func (r *memOutboxRepo) Create(_ context.Context, event *model.OutboxEvent) error {
	event.ID = uuid.New()
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

type fixture struct {
	svc     *Service
	invites *memInviteRepo
	ests    *memEstablishmentRepo
	outbox  *memOutboxRepo
	ownerID uuid.UUID
	estID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	l := logger.NewLogger(nil)
	ests := &memEstablishmentRepo{byID: make(map[uuid.UUID]*model.Establishment)}
	invites := newMemInviteRepo()
	outbox := &memOutboxRepo{}

	ownerID := uuid.New()
	est := &model.Establishment{
		Name:    "Salão A",
		Slug:    "salao-a-1a2b3c",
		OwnerID: ownerID,
	}
	est.ID = uuid.New()
	ests.byID[est.ID] = est

	svc := NewService(invites, ests, outbox, email.NewLogSender(l), l, testMetrics)
	return &fixture{
		svc:     svc,
		invites: invites,
		ests:    ests,
		outbox:  outbox,
		ownerID: ownerID,
		estID:   est.ID,
	}
}

func TestCreateInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateInvite(ctx, f.ownerID, f.estID, &model.CreateInviteRequest{
		Channel: model.InviteChannelEmail,
		Contact: "new@client.com",
	})
	require.NoError(t, err)

	assert.Len(t, resp.Code, 6)
	assert.Regexp(t, `^\d{6}$`, resp.Code)
	assert.WithinDuration(t, time.Now().Add(model.InviteTTL), resp.ExpiresAt, time.Minute)

	stored := f.invites.byID[resp.ID]
	require.NotNil(t, stored)
	assert.Equal(t, model.InviteStatusPending, stored.Status)
	assert.Equal(t, "new@client.com", stored.Contact)
}

func TestCreateInviteRequiresOwnership(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateInvite(context.Background(), uuid.New(), f.estID, &model.CreateInviteRequest{
		Channel: model.InviteChannelEmail,
		Contact: "new@client.com",
	})
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestCreateInviteUnknownEstablishment(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateInvite(context.Background(), f.ownerID, uuid.New(), &model.CreateInviteRequest{
		Channel: model.InviteChannelPhone,
		Contact: "+5511999999999",
	})
	assert.ErrorIs(t, err, ErrNotEstablished)
}

func TestRedeemInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateInvite(ctx, f.ownerID, f.estID, &model.CreateInviteRequest{
		Channel: model.InviteChannelEmail,
		Contact: "new@client.com",
	})
	require.NoError(t, err)

	clientID := uuid.New()
	require.NoError(t, f.svc.RedeemInvite(ctx, clientID, f.estID, resp.Code))

	assert.Equal(t, model.InviteStatusAccepted, f.invites.byID[resp.ID].Status)
	status, ok := f.invites.relationships[relationshipKey{f.estID, clientID}]
	require.True(t, ok)
	assert.Equal(t, model.RelationshipStatusActive, status)
}

func TestRedeemInviteIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateInvite(ctx, f.ownerID, f.estID, &model.CreateInviteRequest{
		Channel: model.InviteChannelEmail,
		Contact: "new@client.com",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.RedeemInvite(ctx, uuid.New(), f.estID, resp.Code))

	err = f.svc.RedeemInvite(ctx, uuid.New(), f.estID, resp.Code)
	assert.ErrorIs(t, err, ErrInvalidInvite)
}

func TestRedeemInviteWrongCode(t *testing.T) {
	f := newFixture(t)

	err := f.svc.RedeemInvite(context.Background(), uuid.New(), f.estID, "000000")
	assert.ErrorIs(t, err, ErrInvalidInvite)
}

func TestRedeemInviteExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateInvite(ctx, f.ownerID, f.estID, &model.CreateInviteRequest{
		Channel: model.InviteChannelEmail,
		Contact: "new@client.com",
	})
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Now().Add(model.InviteTTL + time.Hour) }

	err = f.svc.RedeemInvite(ctx, uuid.New(), f.estID, resp.Code)
	assert.ErrorIs(t, err, ErrExpiredInvite)

	// An expired invite must stay pending rather than flip to accepted.
	assert.Equal(t, model.InviteStatusPending, f.invites.byID[resp.ID].Status)
}

func TestRedeemInviteDeletedEstablishment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateInvite(ctx, f.ownerID, f.estID, &model.CreateInviteRequest{
		Channel: model.InviteChannelEmail,
		Contact: "new@client.com",
	})
	require.NoError(t, err)

	require.NoError(t, f.ests.Delete(ctx, f.estID))

	err = f.svc.RedeemInvite(ctx, uuid.New(), f.estID, resp.Code)
	assert.ErrorIs(t, err, ErrInvalidInvite)
}

func TestRedeemInviteClientAlreadyAssociated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	clientID := uuid.New()
	f.invites.relationships[relationshipKey{f.estID, clientID}] = model.RelationshipStatusActive

	resp, err := f.svc.CreateInvite(ctx, f.ownerID, f.estID, &model.CreateInviteRequest{
		Channel: model.InviteChannelEmail,
		Contact: "new@client.com",
	})
	require.NoError(t, err)

	err = f.svc.RedeemInvite(ctx, clientID, f.estID, resp.Code)
	assert.ErrorIs(t, err, ErrInvalidInvite)
	assert.Equal(t, model.InviteStatusPending, f.invites.byID[resp.ID].Status)
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, code)
		seen[code] = true
	}
	// Uniform 6-digit codes should essentially never collide 50 times over.
	assert.Greater(t, len(seen), 45)
}
