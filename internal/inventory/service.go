// Package inventory answers the item and stock lookups the hooks need.
package inventory

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	ItemType(ctx context.Context, itemID string) (ItemType, error)
	LocationAvailable(ctx context.Context, itemID, locationID string) (decimal.Decimal, error)
}

// loadTimeout bounds a shared item type load, which outlives the caller that
// started it.
const loadTimeout = 10 * time.Second

// CachePort abstracts the versioned cache.
type CachePort interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
	Bump(ctx context.Context) (int64, error)
}

// Service coordinates inventory lookups.
type Service struct {
	repo   RepositoryPort
	cache  CachePort
	logger *slog.Logger
	group  singleflight.Group
}

// NewService builds Service. cache may be nil.
func NewService(repo RepositoryPort, cache CachePort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

// ItemType returns the type of itemID. Unknown items yield an empty type.
// Concurrent lookups for the same item share one load; a canceled caller
// stops waiting without failing the others.
func (s *Service) ItemType(ctx context.Context, itemID string) (ItemType, error) {
	if itemID == "" {
		return "", nil
	}
	res := s.group.DoChan(itemID, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return s.loadItemType(loadCtx, itemID)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-res:
		if r.Err != nil {
			return "", r.Err
		}
		return r.Val.(ItemType), nil
	}
}

func (s *Service) loadItemType(ctx context.Context, itemID string) (ItemType, error) {
	if s.cache == nil {
		return s.itemTypeFromRepo(ctx, itemID)
	}
	key, err := s.cache.BuildKey(ctx, keyItemType(itemID)...)
	if err != nil {
		s.logger.Warn("inventory cache key", slog.String("item_id", itemID), slog.Any("error", err))
		return s.itemTypeFromRepo(ctx, itemID)
	}
	var typ ItemType
	err = s.cache.FetchJSON(ctx, key, &typ, func(ctx context.Context) (any, error) {
		return s.repo.ItemType(ctx, itemID)
	})
	switch {
	case err == nil:
		return typ, nil
	case errors.Is(err, ErrItemNotFound):
		return "", nil
	default:
		s.logger.Warn("inventory cache fetch", slog.String("item_id", itemID), slog.Any("error", err))
		return s.itemTypeFromRepo(ctx, itemID)
	}
}

func (s *Service) itemTypeFromRepo(ctx context.Context, itemID string) (ItemType, error) {
	typ, err := s.repo.ItemType(ctx, itemID)
	if errors.Is(err, ErrItemNotFound) {
		return "", nil
	}
	return typ, err
}

// IsAssembly reports whether itemID is an assembly item.
func (s *Service) IsAssembly(ctx context.Context, itemID string) (bool, error) {
	typ, err := s.ItemType(ctx, itemID)
	if err != nil {
		return false, err
	}
	return typ.IsAssembly(), nil
}

// LocationAvailable returns fresh availability; it is never cached.
func (s *Service) LocationAvailable(ctx context.Context, itemID, locationID string) (decimal.Decimal, error) {
	if itemID == "" || locationID == "" {
		return decimal.Zero, errors.New("inventory: item and location required")
	}
	return s.repo.LocationAvailable(ctx, itemID, locationID)
}

// InvalidateItems drops cached item types after an item record changes.
func (s *Service) InvalidateItems(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	ver, err := s.cache.Bump(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("inventory item cache bumped", slog.Int64("version", ver))
	return nil
}
