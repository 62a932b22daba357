package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/agendly/agenda-api/internal/model"
	"github.com/agendly/agenda-api/internal/repository"
	"github.com/agendly/agenda-api/internal/service/invite"
	"github.com/agendly/agenda-api/pkg/auth"
	"github.com/agendly/agenda-api/pkg/logger"
	"github.com/agendly/agenda-api/pkg/security"
)

type memAccountRepo struct {
	byID    map[uuid.UUID]*model.Account
	byEmail map[string]*model.Account
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{
		byID:    make(map[uuid.UUID]*model.Account),
		byEmail: make(map[string]*model.Account),
	}
}

func (r *memAccountRepo) Create(_ context.Context, account *model.Account) error {
	if _, exists := r.byEmail[account.Email]; exists {
		return repository.ErrDuplicate
	}
	account.ID = uuid.New()
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()
	r.byID[account.ID] = account
	r.byEmail[account.Email] = account
	return nil
}

func (r *memAccountRepo) Get(_ context.Context, id uuid.UUID) (*model.Account, error) {
	account, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return account, nil
}

func (r *memAccountRepo) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	account, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return account, nil
}

func (r *memAccountRepo) Update(_ context.Context, account *model.Account) error {
	if _, ok := r.byID[account.ID]; !ok {
		return repository.ErrNotFound
	}
	r.byID[account.ID] = account
	return nil
}

func (r *memAccountRepo) Delete(_ context.Context, id uuid.UUID) error {
	account, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.byEmail, account.Email)
	delete(r.byID, id)
	return nil
}

func (r *memAccountRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	account, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.LastLoginAt = &at
	return nil
}

// fakeInviteService records redemption calls and returns a scripted error.
type fakeInviteService struct {
	redeemErr     error
	redeemedBy    uuid.UUID
	redeemedCode  string
	redeemedEstID uuid.UUID
	calls         int
}

func (f *fakeInviteService) CreateInvite(_ context.Context, _, _ uuid.UUID, _ *model.CreateInviteRequest) (*model.CreateInviteResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeInviteService) RedeemInvite(_ context.Context, clientID, establishmentID uuid.UUID, code string) error {
	f.calls++
	f.redeemedBy = clientID
	f.redeemedEstID = establishmentID
	f.redeemedCode = code
	return f.redeemErr
}

func (f *fakeInviteService) ListInvites(_ context.Context, _, _ uuid.UUID) ([]*model.Invite, error) {
	return nil, errors.New("not implemented")
}

func newService(accounts *memAccountRepo, invites *fakeInviteService) *Service {
	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
	})
	return NewService(accounts, invites, security.NewBcryptHasher(bcrypt.MinCost), jwtSvc, logger.NewLogger(nil))
}

func TestSignupDefaultsToClientRole(t *testing.T) {
	accounts := newMemAccountRepo()
	svc := newService(accounts, &fakeInviteService{})

	resp, err := svc.Signup(context.Background(), &model.CreateAccountRequest{
		Name:     "Alex",
		Email:    "alex@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	assert.Equal(t, model.RoleClient, resp.Account.Role)
	assert.False(t, resp.InviteRedeemed)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)
	assert.NotEqual(t, "hunter2hunter2", resp.Account.PasswordHash)
}

func TestSignupDuplicateEmail(t *testing.T) {
	accounts := newMemAccountRepo()
	svc := newService(accounts, &fakeInviteService{})

	req := &model.CreateAccountRequest{Name: "Alex", Email: "alex@example.com", Password: "hunter2hunter2"}
	_, err := svc.Signup(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), req)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignupRedeemsInvite(t *testing.T) {
	accounts := newMemAccountRepo()
	invites := &fakeInviteService{}
	svc := newService(accounts, invites)

	estID := uuid.New()
	resp, err := svc.Signup(context.Background(), &model.CreateAccountRequest{
		Name:            "Alex",
		Email:           "alex@example.com",
		Password:        "hunter2hunter2",
		InviteCode:      "123456",
		EstablishmentID: estID.String(),
	})
	require.NoError(t, err)

	assert.True(t, resp.InviteRedeemed)
	assert.Equal(t, 1, invites.calls)
	assert.Equal(t, resp.Account.ID, invites.redeemedBy)
	assert.Equal(t, estID, invites.redeemedEstID)
	assert.Equal(t, "123456", invites.redeemedCode)
}

func TestSignupSurvivesFailedRedemption(t *testing.T) {
	accounts := newMemAccountRepo()
	invites := &fakeInviteService{redeemErr: invite.ErrInvalidInvite}
	svc := newService(accounts, invites)

	resp, err := svc.Signup(context.Background(), &model.CreateAccountRequest{
		Name:            "Alex",
		Email:           "alex@example.com",
		Password:        "hunter2hunter2",
		InviteCode:      "999999",
		EstablishmentID: uuid.New().String(),
	})
	require.NoError(t, err)

	assert.False(t, resp.InviteRedeemed)
	assert.NotNil(t, accounts.byEmail["alex@example.com"])
}

func TestLogin(t *testing.T) {
	accounts := newMemAccountRepo()
	svc := newService(accounts, &fakeInviteService{})

	_, err := svc.Signup(context.Background(), &model.CreateAccountRequest{
		Name:     "Alex",
		Email:    "alex@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "alex@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)

	account := accounts.byEmail["alex@example.com"]
	assert.NotNil(t, account.LastLoginAt)
}

func TestLoginWrongPassword(t *testing.T) {
	accounts := newMemAccountRepo()
	svc := newService(accounts, &fakeInviteService{})

	_, err := svc.Signup(context.Background(), &model.CreateAccountRequest{
		Name:     "Alex",
		Email:    "alex@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "alex@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmailGivesSameError(t *testing.T) {
	svc := newService(newMemAccountRepo(), &fakeInviteService{})

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "hunter2hunter2",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh(t *testing.T) {
	accounts := newMemAccountRepo()
	svc := newService(accounts, &fakeInviteService{})

	resp, err := svc.Signup(context.Background(), &model.CreateAccountRequest{
		Name:     "Alex",
		Email:    "alex@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	tokens, err := svc.Refresh(context.Background(), resp.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)

	// An access token is signed with a different secret and must not
	// pass as a refresh token.
	_, err = svc.Refresh(context.Background(), resp.Tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEnsureAdminCreatesAccountOnce(t *testing.T) {
	accounts := newMemAccountRepo()
	svc := newService(accounts, &fakeInviteService{})

	require.NoError(t, svc.EnsureAdmin(context.Background(), "Administrator", "admin@example.com", "super-secret-pw"))

	account := accounts.byEmail["admin@example.com"]
	require.NotNil(t, account)
	assert.Equal(t, model.RoleAdministrator, account.Role)
	assert.NotEqual(t, "super-secret-pw", account.PasswordHash)

	// Second run is a no-op, even with a different password.
	require.NoError(t, svc.EnsureAdmin(context.Background(), "Administrator", "admin@example.com", "another-password"))
	assert.Same(t, account, accounts.byEmail["admin@example.com"])

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "admin@example.com",
		Password: "super-secret-pw",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
}

func TestEnsureAdminLeavesExistingAccountAlone(t *testing.T) {
	accounts := newMemAccountRepo()
	svc := newService(accounts, &fakeInviteService{})

	resp, err := svc.Signup(context.Background(), &model.CreateAccountRequest{
		Name:     "Alex",
		Email:    "alex@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	require.NoError(t, svc.EnsureAdmin(context.Background(), "Administrator", "alex@example.com", "super-secret-pw"))
	assert.Equal(t, model.RoleClient, accounts.byID[resp.Account.ID].Role)
}

func TestRefreshDeletedAccount(t *testing.T) {
	accounts := newMemAccountRepo()
	svc := newService(accounts, &fakeInviteService{})

	resp, err := svc.Signup(context.Background(), &model.CreateAccountRequest{
		Name:     "Alex",
		Email:    "alex@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	require.NoError(t, accounts.Delete(context.Background(), resp.Account.ID))

	_, err = svc.Refresh(context.Background(), resp.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
