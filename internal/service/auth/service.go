package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agendly/agenda-api/internal/model"
	"github.com/agendly/agenda-api/internal/repository"
	"github.com/agendly/agenda-api/internal/service/invite"
	"github.com/agendly/agenda-api/pkg/auth"
	"github.com/agendly/agenda-api/pkg/logger"
	"github.com/agendly/agenda-api/pkg/security"
)

// ErrInvalidCredentials covers both unknown email and wrong password so a
// login attempt cannot probe which accounts exist.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

type AuthService interface {
	Signup(ctx context.Context, req *model.CreateAccountRequest) (*model.SignupResponse, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error)
}

type Service struct {
	accounts repository.AccountRepository
	invites  invite.InviteService
	hasher   security.PasswordHasher
	jwt      auth.JWTService
	logger   *logger.Logger
}

func NewService(accounts repository.AccountRepository, invites invite.InviteService, hasher security.PasswordHasher, jwt auth.JWTService, l *logger.Logger) *Service {
	return &Service{
		accounts: accounts,
		invites:  invites,
		hasher:   hasher,
		jwt:      jwt,
		logger:   l,
	}
}

// Signup creates a client account. When an invite code and establishment id
// are supplied, the invite is redeemed right after the account exists; a
// failed redemption does not roll the account back, it is reported through
// SignupResponse.InviteRedeemed.
func (s *Service) Signup(ctx context.Context, req *model.CreateAccountRequest) (*model.SignupResponse, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &model.Account{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleClient,
	}
	if req.Phone != "" {
		account.Phone = &req.Phone
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	resp := &model.SignupResponse{Account: account}

	if req.InviteCode != "" {
		establishmentID, err := uuid.Parse(req.EstablishmentID)
		if err != nil {
			return nil, fmt.Errorf("invalid establishment id: %w", err)
		}
		if err := s.invites.RedeemInvite(ctx, account.ID, establishmentID, req.InviteCode); err != nil {
			s.logger.Warn("invite redemption failed during signup",
				"account_id", account.ID, "establishment_id", establishmentID)
		} else {
			resp.InviteRedeemed = true
		}
	}

	tokens, err := s.issueTokens(account)
	if err != nil {
		return nil, err
	}
	resp.Tokens = tokens
	return resp, nil
}

// EnsureAdmin creates the configured administrator account on a fresh
// database so the owner surface is reachable without manual SQL. Existing
// accounts are left untouched.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) error {
	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to look up admin account: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	account := &model.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdministrator,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		// A concurrent instance may have won the bootstrap.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	s.logger.Info("bootstrapped administrator account", "email", email)
	return nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	account, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if err := s.hasher.Compare(account.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.accounts.UpdateLastLogin(ctx, account.ID, time.Now()); err != nil {
		s.logger.Error(err, "failed to record last login", "account_id", account.ID)
	}

	return s.issueTokens(account)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Re-read the account so revoked or deleted accounts stop refreshing.
	account, err := s.accounts.Get(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	return s.issueTokens(account)
}

func (s *Service) issueTokens(account *model.Account) (*model.TokenResponse, error) {
	access, err := s.jwt.GenerateAccessToken(account)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(account)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &model.TokenResponse{AccessToken: access, RefreshToken: refresh}, nil
}
