package domain

import "time"

// Item is a stored resource record. Email and SpecialID are unique across all items.
type Item struct {
	ID          int64
	Name        string
	Description string
	Price       *int64
	Available   bool
	Email       string
	SpecialID   int64
	CreatedAt   time.Time
}

// ItemFields are the client-settable fields of an item.
type ItemFields struct {
	Name        string
	Description string
	Price       *int64
	Available   bool
	Email       string
	SpecialID   int64
}

// ItemPatch carries only the fields a caller supplied. A nil pointer means
// "leave unchanged"; PriceSet with a nil Price clears the price.
type ItemPatch struct {
	Name        *string
	Description *string
	PriceSet    bool
	Price       *int64
	Available   *bool
	Email       *string
	SpecialID   *int64
}

// Empty reports whether the patch touches no field.
func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && !p.PriceSet &&
		p.Available == nil && p.Email == nil && p.SpecialID == nil
}

// Apply writes the supplied fields onto item.
func (p ItemPatch) Apply(item *Item) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.PriceSet {
		item.Price = p.Price
	}
	if p.Available != nil {
		item.Available = *p.Available
	}
	if p.Email != nil {
		item.Email = *p.Email
	}
	if p.SpecialID != nil {
		item.SpecialID = *p.SpecialID
	}
}

// Fields returns the client-settable part of the item.
func (i *Item) Fields() ItemFields {
	return ItemFields{
		Name:        i.Name,
		Description: i.Description,
		Price:       i.Price,
		Available:   i.Available,
		Email:       i.Email,
		SpecialID:   i.SpecialID,
	}
}

// ItemFilter narrows a listing. Every non-nil field must match.
type ItemFilter struct {
	Available *bool
	PriceLT   *int64
	PriceGT   *int64
	Search    string
}
