package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/item-service/internal/cache"
	"github.com/spec-kit/item-service/internal/domain"
	"github.com/spec-kit/item-service/internal/events"
	"github.com/spec-kit/item-service/internal/repository"
	apperrors "github.com/spec-kit/item-service/pkg/util"
)

const conflictMessage = "Email or special_id already exists."

// ItemService coordinates item reads and mutations.
type ItemService struct {
	items      repository.ItemRepository
	cache      cache.ItemCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time

	// stale holds ids whose cache invalidation failed. Reads of these ids
	// bypass the cache until a retried invalidation succeeds.
	staleMu sync.Mutex
	stale   map[int64]struct{}
}

// ItemDependencies bundles collaborators for the item service.
type ItemDependencies struct {
	ItemRepo   repository.ItemRepository
	Cache      cache.ItemCache
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewItemService constructs the service. Cache and Dispatcher are optional.
func NewItemService(deps ItemDependencies) *ItemService {
	svc := &ItemService{
		items:      deps.ItemRepo,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        time.Now,
		stale:      make(map[int64]struct{}),
	}
	if svc.cache == nil {
		svc.cache = cache.NewNoopItemCache()
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// CreateItem persists a new item.
func (s *ItemService) CreateItem(ctx context.Context, actor domain.Tier, fields domain.ItemFields) (*domain.Item, error) {
	item, err := s.items.Create(ctx, fields)
	if err != nil {
		return nil, s.mapError(err, 0)
	}
	s.publishEvent(ctx, events.EventItemCreated, actor, item)
	return item, nil
}

// ListItems returns every item matching all supplied filters.
func (s *ItemService) ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	items, err := s.items.List(ctx, filter)
	if err != nil {
		return nil, s.mapError(err, 0)
	}
	return items, nil
}

// GetItem returns the item with id, consulting the cache first. A cache
// failure never fails the read; the store is authoritative.
func (s *ItemService) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	if s.isStale(ctx, id) {
		item, err := s.items.GetByID(ctx, id)
		if err != nil {
			return nil, s.mapError(err, id)
		}
		return item, nil
	}

	if item, ok, err := s.cache.Get(ctx, id); err != nil {
		s.logger.Warn("item cache read failed", zap.Int64("item_id", id), zap.Error(err))
	} else if ok {
		return item, nil
	}

	// The fence is read before the store so that a mutation committed after
	// the load makes the write-back below a no-op.
	fence, fenceErr := s.cache.Fence(ctx, id)
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id)
	}
	if fenceErr != nil {
		s.logger.Warn("item cache fence read failed", zap.Int64("item_id", id), zap.Error(fenceErr))
		return item, nil
	}
	if err := s.cache.Set(ctx, item, fence); err != nil {
		s.logger.Warn("item cache write failed", zap.Int64("item_id", id), zap.Error(err))
	}
	return item, nil
}

// ReplaceItem overwrites every client-settable field of the item.
func (s *ItemService) ReplaceItem(ctx context.Context, actor domain.Tier, id int64, fields domain.ItemFields) (*domain.Item, error) {
	item, err := s.items.Replace(ctx, id, fields)
	if err != nil {
		return nil, s.mapError(err, id)
	}
	invalidateErr := s.invalidate(ctx, id)
	s.publishEvent(ctx, events.EventItemUpdated, actor, item)
	if invalidateErr != nil {
		return nil, invalidateErr
	}
	return item, nil
}

// PatchItem writes only the supplied fields.
func (s *ItemService) PatchItem(ctx context.Context, actor domain.Tier, id int64, patch domain.ItemPatch) (*domain.Item, error) {
	item, err := s.items.Patch(ctx, id, patch)
	if err != nil {
		return nil, s.mapError(err, id)
	}
	if patch.Empty() {
		return item, nil
	}
	invalidateErr := s.invalidate(ctx, id)
	s.publishEvent(ctx, events.EventItemUpdated, actor, item)
	if invalidateErr != nil {
		return nil, invalidateErr
	}
	return item, nil
}

// DeleteItem removes the item permanently. Deleting a missing item is NotFound.
func (s *ItemService) DeleteItem(ctx context.Context, actor domain.Tier, id int64) error {
	if err := s.items.Delete(ctx, id); err != nil {
		return s.mapError(err, id)
	}
	invalidateErr := s.invalidate(ctx, id)
	s.publishEvent(ctx, events.EventItemDeleted, actor, &domain.Item{ID: id})
	return invalidateErr
}

// invalidate drops the cached copy of id after a committed mutation. On
// failure the id is marked stale so this process keeps reading it from the
// store, and the caller gets an InternalError: the change is committed but
// other readers of the cache may still see the previous state.
func (s *ItemService) invalidate(ctx context.Context, id int64) error {
	err := s.cache.Invalidate(ctx, id)
	if err == nil {
		return nil
	}
	s.staleMu.Lock()
	s.stale[id] = struct{}{}
	s.staleMu.Unlock()
	s.logger.Error("item cache invalidation failed", zap.Int64("item_id", id), zap.Error(err))
	return apperrors.NewInternalError(fmt.Errorf("invalidate cached item %d: %w", id, err))
}

// isStale reports whether id must bypass the cache, retrying the pending
// invalidation first.
func (s *ItemService) isStale(ctx context.Context, id int64) bool {
	s.staleMu.Lock()
	_, pending := s.stale[id]
	s.staleMu.Unlock()
	if !pending {
		return false
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("item cache invalidation retry failed", zap.Int64("item_id", id), zap.Error(err))
		return true
	}
	s.staleMu.Lock()
	delete(s.stale, id)
	s.staleMu.Unlock()
	return false
}

func (s *ItemService) mapError(err error, id int64) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(fmt.Sprintf("Item %d not found.", id))
	case errors.Is(err, repository.ErrUniqueViolation):
		s.logger.Info("unique violation", zap.Int64("item_id", id), zap.Error(err))
		return apperrors.NewConflict(conflictMessage)
	default:
		return apperrors.NewInternalError(err)
	}
}

func (s *ItemService) publishEvent(ctx context.Context, eventType events.EventType, actor domain.Tier, item *domain.Item) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ItemID:    item.ID,
		Actor:     actor,
		Timestamp: s.now().UTC(),
	}
	if eventType != events.EventItemDeleted {
		event.Payload = events.ItemChangedPayload{Email: item.Email, SpecialID: item.SpecialID}
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(eventType)),
			zap.Int64("item_id", item.ID),
			zap.Error(err))
	}
}
