package inventory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu        sync.Mutex
	gate      chan struct{}
	types     map[string]ItemType
	available map[string]decimal.Decimal
	typeCalls atomic.Int64
	typeErr   error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{types: map[string]ItemType{}, available: map[string]decimal.Decimal{}}
}

func (r *memoryRepo) ItemType(ctx context.Context, itemID string) (ItemType, error) {
	r.typeCalls.Add(1)
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if r.typeErr != nil {
		return "", r.typeErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	typ, ok := r.types[itemID]
	if !ok {
		return "", ErrItemNotFound
	}
	return typ, nil
}

func (r *memoryRepo) LocationAvailable(ctx context.Context, itemID, locationID string) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.available[itemID+"@"+locationID], nil
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestItemTypeIsCached(t *testing.T) {
	repo := newMemoryRepo()
	repo.types["10"] = "Assembly"
	cache, _ := newTestCache(t)
	svc := NewService(repo, cache, nil)
	ctx := context.Background()

	typ, err := svc.ItemType(ctx, "10")
	require.NoError(t, err)
	require.Equal(t, ItemType("Assembly"), typ)

	repo.mu.Lock()
	repo.types["10"] = "InvtPart"
	repo.mu.Unlock()

	typ, err = svc.ItemType(ctx, "10")
	require.NoError(t, err)
	require.Equal(t, ItemType("Assembly"), typ)
	require.EqualValues(t, 1, repo.typeCalls.Load())
}

func TestInvalidateItemsBumpsVersion(t *testing.T) {
	repo := newMemoryRepo()
	repo.types["10"] = "Assembly"
	cache, mr := newTestCache(t)
	svc := NewService(repo, cache, nil)
	ctx := context.Background()

	_, err := svc.ItemType(ctx, "10")
	require.NoError(t, err)

	repo.mu.Lock()
	repo.types["10"] = "InvtPart"
	repo.mu.Unlock()
	require.NoError(t, svc.InvalidateItems(ctx))

	typ, err := svc.ItemType(ctx, "10")
	require.NoError(t, err)
	require.Equal(t, ItemType("InvtPart"), typ)
	ver, err := mr.Get(cacheVersionKey)
	require.NoError(t, err)
	require.Equal(t, "2", ver)
}

func TestItemTypeUnknownItemIsEmpty(t *testing.T) {
	cache, _ := newTestCache(t)
	svc := NewService(newMemoryRepo(), cache, nil)

	typ, err := svc.ItemType(context.Background(), "missing")
	require.NoError(t, err)
	require.Empty(t, typ)

	asm, err := svc.IsAssembly(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, asm)
}

func TestItemTypeFallsBackWhenRedisDown(t *testing.T) {
	repo := newMemoryRepo()
	repo.types["3"] = "Kit/Assembly"
	cache, mr := newTestCache(t)
	mr.Close()
	svc := NewService(repo, cache, nil)

	asm, err := svc.IsAssembly(context.Background(), "3")
	require.NoError(t, err)
	require.True(t, asm)
}

func TestItemTypeSharedLoadSurvivesCanceledCaller(t *testing.T) {
	repo := newMemoryRepo()
	repo.types["501"] = "Assembly"
	repo.gate = make(chan struct{})
	svc := NewService(repo, nil, nil)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := svc.ItemType(ctxA, "501")
		errA <- err
	}()
	require.Eventually(t, func() bool { return repo.typeCalls.Load() == 1 }, time.Second, time.Millisecond)

	type lookup struct {
		typ ItemType
		err error
	}
	resB := make(chan lookup, 1)
	go func() {
		typ, err := svc.ItemType(context.Background(), "501")
		resB <- lookup{typ, err}
	}()
	// let B join the in-flight load
	time.Sleep(50 * time.Millisecond)

	cancelA()
	require.ErrorIs(t, <-errA, context.Canceled)

	close(repo.gate)
	got := <-resB
	require.NoError(t, got.err)
	require.Equal(t, ItemType("Assembly"), got.typ)
}

func TestItemTypeRepoError(t *testing.T) {
	repo := newMemoryRepo()
	repo.typeErr = errors.New("db down")
	svc := NewService(repo, nil, nil)

	_, err := svc.ItemType(context.Background(), "1")
	require.Error(t, err)
}

func TestLocationAvailable(t *testing.T) {
	repo := newMemoryRepo()
	repo.available["7@LINDEN"] = decimal.NewFromInt(12)
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	qty, err := svc.LocationAvailable(ctx, "7", "LINDEN")
	require.NoError(t, err)
	require.True(t, qty.Equal(decimal.NewFromInt(12)))

	qty, err = svc.LocationAvailable(ctx, "8", "LINDEN")
	require.NoError(t, err)
	require.True(t, qty.IsZero())

	_, err = svc.LocationAvailable(ctx, "", "LINDEN")
	require.Error(t, err)
}

func TestItemTypeClassification(t *testing.T) {
	require.True(t, ItemType("Assembly").IsAssembly())
	require.False(t, ItemType("InvtPart").IsAssembly())
	require.True(t, ItemType("InvtPart").IsInventory())
	require.True(t, ItemType("Inventory Item").IsInventory())
	require.False(t, ItemType("Service").IsInventory())
}
