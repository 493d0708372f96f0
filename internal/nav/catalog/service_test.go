package catalog

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-saas/meridian/internal/shared"
)

type memoryRepo struct {
	items  map[int64]Item
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]Item)}
}

func (r *memoryRepo) ListActive(ctx context.Context) ([]Item, error) {
	var out []Item
	for _, item := range r.items {
		if item.IsActive {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].SortOrder < out[j].SortOrder
	})
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Item, error) {
	item, ok := r.items[id]
	if !ok {
		return Item{}, shared.ErrNotFound
	}
	return item, nil
}

func (r *memoryRepo) Create(ctx context.Context, item Item) (Item, error) {
	for _, existing := range r.items {
		if existing.Key == item.Key {
			return Item{}, shared.ErrConflict
		}
	}
	r.nextID++
	item.ID = r.nextID
	r.items[item.ID] = item
	return item, nil
}

func (r *memoryRepo) Update(ctx context.Context, item Item) error {
	if _, ok := r.items[item.ID]; !ok {
		return shared.ErrNotFound
	}
	r.items[item.ID] = item
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func TestCreateDerivesLabelAndRoute(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), Item{
		Key:      "support_tickets",
		Category: CategoryCustom,
		IsActive: true,
	})
	require.NoError(t, err)
	require.Equal(t, "support_tickets", created.Key)
	require.Equal(t, "Support Tickets", created.Label)
	require.Equal(t, "/support-tickets", created.Route)
}

func TestCreateSlugifiesKey(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), Item{
		Key:      "  Vendor Portal! ",
		Category: CategoryCustom,
	})
	require.NoError(t, err)
	require.Equal(t, "vendor_portal", created.Key)
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), Item{Key: "!!!", Category: CategoryCustom})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), Item{Key: "ok", Category: "nope"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), Item{Key: "ok", Category: CategoryCustom, Permission: "made_up"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateDisambiguatesKeyCollisions(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	first, err := svc.Create(context.Background(), Item{Key: "reports", Category: CategoryCustom})
	require.NoError(t, err)
	require.Equal(t, "reports", first.Key)

	second, err := svc.Create(context.Background(), Item{Key: "reports", Category: CategoryCustom})
	require.NoError(t, err)
	require.Equal(t, "reports-2", second.Key)
	require.Equal(t, "/reports-2", second.Route)

	third, err := svc.Create(context.Background(), Item{Key: "reports", Category: CategoryCustom})
	require.NoError(t, err)
	require.Equal(t, "reports-3", third.Key)
}

func TestCreateGivesUpAfterMaxAttempts(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	for i := 0; i < maxKeyAttempts; i++ {
		_, err := svc.Create(context.Background(), Item{Key: "billing", Category: CategoryCustom})
		require.NoError(t, err)
	}

	_, err := svc.Create(context.Background(), Item{Key: "billing", Category: CategoryCustom})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestDeleteProtectsCoreItems(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	core, err := svc.Create(context.Background(), Item{Key: "dashboard", Category: CategoryCore})
	require.NoError(t, err)
	custom, err := svc.Create(context.Background(), Item{Key: "wiki", Category: CategoryCustom})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), core.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), custom.ID))
	_, err = repo.Get(context.Background(), custom.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListActiveGroupedByCategory(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	for _, item := range []Item{
		{Key: "dashboard", Category: CategoryCore, SortOrder: 10, IsActive: true},
		{Key: "reports", Category: CategoryCore, SortOrder: 20, IsActive: true},
		{Key: "team", Category: CategoryAdmin, SortOrder: 10, IsActive: true},
		{Key: "legacy", Category: CategoryCustom, SortOrder: 10},
	} {
		_, err := svc.Create(context.Background(), item)
		require.NoError(t, err)
	}

	grouped, err := svc.ListActiveGroupedByCategory(context.Background())
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	require.Len(t, grouped[CategoryCore], 2)
	require.Equal(t, "dashboard", grouped[CategoryCore][0].Key)
	require.NotContains(t, grouped, CategoryCustom)
}
