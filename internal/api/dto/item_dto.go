package dto

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/item-service/internal/domain"
	apperrors "github.com/spec-kit/item-service/pkg/util"
)

var itemFieldNames = []string{"name", "description", "price", "available", "email", "special_id"}

// ItemResponse is the wire form of a stored item.
type ItemResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       *int64    `json:"price"`
	Available   bool      `json:"available"`
	Email       string    `json:"email"`
	SpecialID   int64     `json:"special_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewItemResponse converts a domain item.
func NewItemResponse(item *domain.Item) ItemResponse {
	return ItemResponse{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
		Available:   item.Available,
		Email:       item.Email,
		SpecialID:   item.SpecialID,
		CreatedAt:   item.CreatedAt,
	}
}

// NewItemResponses converts a listing.
func NewItemResponses(items []domain.Item) []ItemResponse {
	resp := make([]ItemResponse, 0, len(items))
	for i := range items {
		resp = append(resp, NewItemResponse(&items[i]))
	}
	return resp
}

// ItemLocation is the reference path of a stored item.
func ItemLocation(id int64) string {
	return fmt.Sprintf("/items/%d", id)
}

// ParseItemFields decodes a full item body used by create and replace.
// Omitted price means no price; omitted available means true.
func ParseItemFields(body []byte) (domain.ItemFields, error) {
	fields := domain.ItemFields{Available: true}
	raw, verr := decodeObject(body)
	if verr != nil {
		return fields, verr
	}
	verr = &apperrors.ValidationError{}
	rejectUnknown(raw, verr, itemFieldNames...)

	decodeString(raw, "name", true, verr, &fields.Name)
	decodeString(raw, "description", true, verr, &fields.Description)
	fields.Price, _ = decodePrice(raw, verr)
	decodeBool(raw, "available", false, verr, &fields.Available)
	decodeEmail(raw, true, verr, &fields.Email)
	decodeInt(raw, "special_id", true, verr, &fields.SpecialID)

	return fields, verr.OrNil()
}

// ParseItemPatch decodes a partial update. Only keys present in the body are
// set on the patch; "price": null clears the price.
func ParseItemPatch(body []byte) (domain.ItemPatch, error) {
	var patch domain.ItemPatch
	raw, verr := decodeObject(body)
	if verr != nil {
		return patch, verr
	}
	verr = &apperrors.ValidationError{}
	rejectUnknown(raw, verr, itemFieldNames...)

	var name, description, email string
	var available bool
	var specialID int64
	if decodeString(raw, "name", false, verr, &name) {
		patch.Name = &name
	}
	if decodeString(raw, "description", false, verr, &description) {
		patch.Description = &description
	}
	patch.Price, patch.PriceSet = decodePrice(raw, verr)
	if decodeBool(raw, "available", false, verr, &available) {
		patch.Available = &available
	}
	if decodeEmail(raw, false, verr, &email) {
		patch.Email = &email
	}
	if decodeInt(raw, "special_id", false, verr, &specialID) {
		patch.SpecialID = &specialID
	}

	return patch, verr.OrNil()
}

// ParseItemFilter reads the listing query parameters. Empty values are treated
// as absent.
func ParseItemFilter(query func(key string) string) (domain.ItemFilter, error) {
	var filter domain.ItemFilter
	verr := &apperrors.ValidationError{}

	if v := query("available"); v != "" {
		b, err := parseQueryBool(v)
		if err != nil {
			verr.Add("bool_parsing", "Input should be a valid boolean, unable to interpret input", "query", "available")
		} else {
			filter.Available = &b
		}
	}
	filter.PriceLT = parseQueryInt(query("price_lt"), "price_lt", verr)
	filter.PriceGT = parseQueryInt(query("price_gt"), "price_gt", verr)
	filter.Search = query("search")

	return filter, verr.OrNil()
}

// ParseItemID validates the item id path segment.
func ParseItemID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("int_parsing",
			"Input should be a valid integer, unable to parse string as an integer", "path", "item_id")
	}
	return id, nil
}

func parseQueryInt(v, key string, verr *apperrors.ValidationError) *int64 {
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		verr.Add("int_parsing", "Input should be a valid integer, unable to parse string as an integer", "query", key)
		return nil
	}
	return &n
}

func parseQueryBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	return strconv.ParseBool(strings.ToLower(v))
}
