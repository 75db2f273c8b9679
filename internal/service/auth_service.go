package service

import (
	"errors"
	"fmt"

	"github.com/spec-kit/item-service/internal/auth"
	"github.com/spec-kit/item-service/internal/domain"
	apperrors "github.com/spec-kit/item-service/pkg/util"
)

// AuthService issues access tokens.
type AuthService struct {
	tokenMgr *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(tokenMgr *auth.TokenManager) *AuthService {
	return &AuthService{tokenMgr: tokenMgr}
}

// IssueToken signs a token for tier valid for expiresMinutes.
func (s *AuthService) IssueToken(tier domain.Tier, expiresMinutes int) (*domain.Token, error) {
	token, err := s.tokenMgr.Issue(tier, expiresMinutes)
	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, auth.ErrInvalidTTL):
		return nil, apperrors.NewInvalidRequest("expires_minutes must be positive")
	case errors.Is(err, auth.ErrTTLTooLarge):
		return nil, apperrors.NewValidationError("less_than_equal",
			fmt.Sprintf("Input should be less than or equal to %d", auth.MaxTTLMinutes), "body", "expires_minutes")
	case errors.Is(err, auth.ErrUnknownTier):
		return nil, apperrors.NewValidationError("enum", "Input should be 'read_only', 'read_write' or 'full_access'", "body", "permissions")
	default:
		return nil, apperrors.NewInternalError(err)
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
