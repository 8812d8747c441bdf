package services

import (
	"context"
	"errors"

	apperrors "github.com/lorrc/atendimento-dashboard/internal/core/errors"
	"github.com/lorrc/atendimento-dashboard/internal/core/ports"
	"golang.org/x/crypto/bcrypt"
)

// OperatorSubject is the token subject issued to the dashboard operator.
const OperatorSubject = "operator"

// AuthService authenticates the single dashboard operator against a bcrypt hash.
type AuthService struct {
	passwordHash []byte
	tokens       ports.TokenIssuer
}

var _ ports.AuthService = (*AuthService)(nil)

// NewAuthService creates a new authentication service
func NewAuthService(passwordHash string, tokens ports.TokenIssuer) *AuthService {
	return &AuthService{
		passwordHash: []byte(passwordHash),
		tokens:       tokens,
	}
}

// Login checks the operator password and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, password string) (string, error) {
	if password == "" || len(s.passwordHash) == 0 {
		return "", apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", apperrors.ErrInvalidCredentials
		}
		return "", err
	}

	return s.tokens.GenerateToken(OperatorSubject)
}
