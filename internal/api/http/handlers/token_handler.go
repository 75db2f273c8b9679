package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/item-service/internal/api/dto"
	"github.com/spec-kit/item-service/internal/service"
)

// TokenHandler exposes token issuance.
type TokenHandler struct {
	auth *service.AuthService
}

// NewTokenHandler constructs handler.
func NewTokenHandler(authService *service.AuthService) *TokenHandler {
	return &TokenHandler{auth: authService}
}

// Issue handles POST /token.
func (h *TokenHandler) Issue(c *fiber.Ctx) error {
	req, err := dto.ParseTokenRequest(c.Body())
	if err != nil {
		return err
	}
	token, err := h.auth.IssueToken(req.Permissions, req.ExpiresMinutes)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTokenResponse(token))
}
