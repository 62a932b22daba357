package model

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SignupResponse carries the created account and tokens; InviteRedeemed
// tells the caller whether a supplied invite code was accepted.
type SignupResponse struct {
	Account        *Account       `json:"account"`
	Tokens         *TokenResponse `json:"tokens"`
	InviteRedeemed bool           `json:"invite_redeemed"`
}

// TokenClaims represents JWT claims for an account session.
type TokenClaims struct {
	jwt.RegisteredClaims
	AccountID       uuid.UUID  `json:"account_id"`
	Email           string     `json:"email"`
	Role            Role       `json:"role"`
	EstablishmentID *uuid.UUID `json:"establishment_id,omitempty"`
}
