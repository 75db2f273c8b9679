package dto

import (
	"github.com/spec-kit/item-service/internal/domain"
	apperrors "github.com/spec-kit/item-service/pkg/util"
)

// TokenRequest payload for POST /token.
type TokenRequest struct {
	Permissions    domain.Tier
	ExpiresMinutes int
}

// TokenResponse is returned by POST /token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// NewTokenResponse wraps a signed token.
func NewTokenResponse(token *domain.Token) TokenResponse {
	return TokenResponse{AccessToken: token.Value, TokenType: "bearer"}
}

// ParseTokenRequest decodes and validates a token request body. The sign of
// expires_minutes is left to the issuer.
func ParseTokenRequest(body []byte) (TokenRequest, error) {
	var req TokenRequest
	raw, verr := decodeObject(body)
	if verr != nil {
		return req, verr
	}
	verr = &apperrors.ValidationError{}
	rejectUnknown(raw, verr, "permissions", "expires_minutes")

	var tier string
	if decodeString(raw, "permissions", true, verr, &tier) {
		req.Permissions = domain.Tier(tier)
		if !req.Permissions.Valid() {
			verr.Add("enum", "Input should be 'read_only', 'read_write' or 'full_access'", "body", "permissions")
		}
	}
	var minutes int64
	if decodeInt(raw, "expires_minutes", true, verr, &minutes) {
		req.ExpiresMinutes = int(minutes)
	}
	return req, verr.OrNil()
}
