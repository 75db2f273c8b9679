package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/item-service/internal/domain"
)

// memoryItemRepository keeps items in process memory. The mutex plays the role
// of the database's unique indexes: the uniqueness check and the write happen
// under one lock.
type memoryItemRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]domain.Item
	now    func() time.Time
}

// NewMemoryItemRepository returns an ItemRepository with the same conflict and
// not-found semantics as the postgres implementation.
func NewMemoryItemRepository() ItemRepository {
	return &memoryItemRepository{
		nextID: 1,
		items:  make(map[int64]domain.Item),
		now:    time.Now,
	}
}

func (r *memoryItemRepository) Create(_ context.Context, fields domain.ItemFields) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item := domain.Item{
		Name:        fields.Name,
		Description: fields.Description,
		Price:       copyPrice(fields.Price),
		Available:   fields.Available,
		Email:       fields.Email,
		SpecialID:   fields.SpecialID,
	}
	if err := r.checkUnique(item, 0); err != nil {
		return nil, err
	}
	item.ID = r.nextID
	item.CreatedAt = r.now().UTC()
	r.nextID++
	r.items[item.ID] = item
	return cloneItem(item), nil
}

func (r *memoryItemRepository) GetByID(_ context.Context, id int64) (*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneItem(item), nil
}

func (r *memoryItemRepository) List(_ context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	result := []domain.Item{}
	for _, item := range r.items {
		if filter.Available != nil && item.Available != *filter.Available {
			continue
		}
		if filter.PriceLT != nil && (item.Price == nil || *item.Price >= *filter.PriceLT) {
			continue
		}
		if filter.PriceGT != nil && (item.Price == nil || *item.Price <= *filter.PriceGT) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Name), search) &&
			!strings.Contains(strings.ToLower(item.Description), search) {
			continue
		}
		result = append(result, *cloneItem(item))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *memoryItemRepository) Replace(_ context.Context, id int64, fields domain.ItemFields) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := current
	next.Name = fields.Name
	next.Description = fields.Description
	next.Price = copyPrice(fields.Price)
	next.Available = fields.Available
	next.Email = fields.Email
	next.SpecialID = fields.SpecialID
	return r.store(next)
}

func (r *memoryItemRepository) Patch(_ context.Context, id int64, patch domain.ItemPatch) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := current
	patch.Apply(&next)
	next.Price = copyPrice(next.Price)
	return r.store(next)
}

func (r *memoryItemRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// store must be called with the write lock held.
func (r *memoryItemRepository) store(item domain.Item) (*domain.Item, error) {
	if err := r.checkUnique(item, item.ID); err != nil {
		return nil, err
	}
	r.items[item.ID] = item
	return cloneItem(item), nil
}

func (r *memoryItemRepository) checkUnique(candidate domain.Item, selfID int64) error {
	for id, existing := range r.items {
		if id == selfID {
			continue
		}
		if existing.Email == candidate.Email {
			return fmt.Errorf("%w: items_email_key", ErrUniqueViolation)
		}
		if existing.SpecialID == candidate.SpecialID {
			return fmt.Errorf("%w: items_special_id_key", ErrUniqueViolation)
		}
	}
	return nil
}

func cloneItem(item domain.Item) *domain.Item {
	item.Price = copyPrice(item.Price)
	return &item
}

func copyPrice(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
