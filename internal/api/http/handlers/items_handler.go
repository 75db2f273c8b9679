package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/item-service/internal/api/dto"
	"github.com/spec-kit/item-service/internal/auth"
	"github.com/spec-kit/item-service/internal/domain"
	"github.com/spec-kit/item-service/internal/service"
	apperrors "github.com/spec-kit/item-service/pkg/util"
)

// ItemsHandler manages item endpoints. Routes are guarded before they get here.
type ItemsHandler struct {
	service *service.ItemService
}

// NewItemsHandler constructs handler.
func NewItemsHandler(itemService *service.ItemService) *ItemsHandler {
	return &ItemsHandler{service: itemService}
}

// Create POST /items.
func (h *ItemsHandler) Create(c *fiber.Ctx) error {
	actor, err := actorTier(c)
	if err != nil {
		return err
	}
	fields, err := dto.ParseItemFields(c.Body())
	if err != nil {
		return err
	}
	item, err := h.service.CreateItem(c.UserContext(), actor, fields)
	if err != nil {
		return err
	}
	c.Location(dto.ItemLocation(item.ID))
	return c.Status(fiber.StatusCreated).JSON(dto.NewItemResponse(item))
}

// List GET /items.
func (h *ItemsHandler) List(c *fiber.Ctx) error {
	filter, err := dto.ParseItemFilter(func(key string) string { return c.Query(key) })
	if err != nil {
		return err
	}
	items, err := h.service.ListItems(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewItemResponses(items))
}

// Get GET /items/:id.
func (h *ItemsHandler) Get(c *fiber.Ctx) error {
	id, err := dto.ParseItemID(c.Params("id"))
	if err != nil {
		return err
	}
	item, err := h.service.GetItem(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewItemResponse(item))
}

// Replace PUT /items/:id.
func (h *ItemsHandler) Replace(c *fiber.Ctx) error {
	actor, err := actorTier(c)
	if err != nil {
		return err
	}
	id, err := dto.ParseItemID(c.Params("id"))
	if err != nil {
		return err
	}
	fields, err := dto.ParseItemFields(c.Body())
	if err != nil {
		return err
	}
	item, err := h.service.ReplaceItem(c.UserContext(), actor, id, fields)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewItemResponse(item))
}

// Patch PATCH /items/:id.
func (h *ItemsHandler) Patch(c *fiber.Ctx) error {
	actor, err := actorTier(c)
	if err != nil {
		return err
	}
	id, err := dto.ParseItemID(c.Params("id"))
	if err != nil {
		return err
	}
	patch, err := dto.ParseItemPatch(c.Body())
	if err != nil {
		return err
	}
	item, err := h.service.PatchItem(c.UserContext(), actor, id, patch)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewItemResponse(item))
}

// Delete DELETE /items/:id.
func (h *ItemsHandler) Delete(c *fiber.Ctx) error {
	actor, err := actorTier(c)
	if err != nil {
		return err
	}
	id, err := dto.ParseItemID(c.Params("id"))
	if err != nil {
		return err
	}
	if err := h.service.DeleteItem(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func actorTier(c *fiber.Ctx) (domain.Tier, error) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return "", apperrors.NewUnauthenticated("Not authenticated")
	}
	return claims.Permissions, nil
}
