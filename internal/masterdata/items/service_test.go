package items

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/ledger"
	"github.com/opsdesk/opsdesk/internal/masterdata/shared"
	internalShared "github.com/opsdesk/opsdesk/internal/shared"
)

type fakeRepo struct {
	items  map[int64]Item
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[int64]Item{}, nextID: 1}
}

func (f *fakeRepo) List(_ context.Context, filters shared.ListFilters) ([]Item, int, error) {
	var out []Item
	for _, it := range f.items {
		out = append(out, it)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (Item, error) {
	it, ok := f.items[id]
	if !ok {
		return Item{}, internalShared.ErrNotFound
	}
	return it, nil
}

func (f *fakeRepo) Create(_ context.Context, item Item) (Item, error) {
	item.ID = f.nextID
	f.nextID++
	f.items[item.ID] = item
	return item, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, item Item) error {
	item.ID = id
	f.items[id] = item
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	delete(f.items, id)
	return nil
}

func TestCreateValidItem(t *testing.T) {
	svc := NewService(newFakeRepo())

	created, err := svc.Create(context.Background(), Item{
		SKU:         "SVC-001",
		Name:        "Network maintenance",
		Category:    ledger.CategoryExpense,
		DefaultRate: decimal.NewFromInt(1500),
		TaxPct:      decimal.NewFromInt(18),
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "SVC-001", got.SKU)
}

func TestCreateRejectsBadCategory(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), Item{
		Name:     "Widget",
		Category: ledger.Category("BOGUS"),
	})
	require.Error(t, err)
}

func TestCreateRejectsNegativeRate(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), Item{
		Name:        "Widget",
		Category:    ledger.CategoryInventory,
		DefaultRate: decimal.NewFromInt(-5),
	})
	require.Error(t, err)
}

func TestGetMissingItem(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Get(context.Background(), 99)
	require.ErrorIs(t, err, internalShared.ErrNotFound)
}
