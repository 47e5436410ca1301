package procurement

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/ledger"
	"github.com/opsdesk/opsdesk/internal/platform/httpx"
	"github.com/opsdesk/opsdesk/internal/shared"
)

type fakeRepo struct {
	orders map[int64]PurchaseOrder
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: map[int64]PurchaseOrder{}, nextID: 1}
}

func (f *fakeRepo) WithTx(_ context.Context, fn func(TxRepository) error) error {
	return fn(&fakeTx{repo: f})
}

func (f *fakeRepo) List(_ context.Context, _ ListFilters) ([]Summary, int, error) {
	var out []Summary
	for _, po := range f.orders {
		out = append(out, Summary{ID: po.ID, Number: po.Number, Status: po.Status})
	}
	return out, len(out), nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (PurchaseOrder, error) {
	po, ok := f.orders[id]
	if !ok {
		return PurchaseOrder{}, shared.ErrNotFound
	}
	return po, nil
}

type fakeTx struct {
	repo *fakeRepo
}

func (t *fakeTx) Insert(_ context.Context, po PurchaseOrder) (int64, error) {
	po.ID = t.repo.nextID
	t.repo.nextID++
	t.repo.orders[po.ID] = po
	return po.ID, nil
}

func (t *fakeTx) Update(_ context.Context, po PurchaseOrder) error {
	if _, ok := t.repo.orders[po.ID]; !ok {
		return shared.ErrNotFound
	}
	t.repo.orders[po.ID] = po
	return nil
}

func (t *fakeTx) Delete(_ context.Context, id int64) error {
	if _, ok := t.repo.orders[id]; !ok {
		return shared.ErrNotFound
	}
	delete(t.repo.orders, id)
	return nil
}

func (t *fakeTx) GetForUpdate(_ context.Context, id int64) (PurchaseOrder, error) {
	return t.repo.Get(context.Background(), id)
}

func (t *fakeTx) ReplaceItems(_ context.Context, poID int64, items []ledger.LineItem) error {
	po, ok := t.repo.orders[poID]
	if !ok {
		return shared.ErrNotFound
	}
	po.Items = items
	t.repo.orders[poID] = po
	return nil
}

func (t *fakeTx) UpdateStatus(_ context.Context, poID int64, status Status) error {
	po, ok := t.repo.orders[poID]
	if !ok {
		return shared.ErrNotFound
	}
	po.Status = status
	t.repo.orders[poID] = po
	return nil
}

type fakeVendors struct{}

func (fakeVendors) Snapshot(_ context.Context, vendorID int64) (ledger.PartySnapshot, error) {
	if vendorID == 404 {
		return ledger.PartySnapshot{}, shared.ErrNotFound
	}
	return ledger.PartySnapshot{Name: "Sharma Supplies"}, nil
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func newTestService(repo *fakeRepo) *Service {
	return NewService(repo, fakeVendors{}, nil, slog.Default())
}

func orderInput() PurchaseOrder {
	issue := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	return PurchaseOrder{
		Number:       "PO-2026-0007",
		VendorID:     3,
		IssueDate:    issue,
		DeliveryDate: issue.AddDate(0, 0, 14),
		BillTo:       "OpsDesk Pvt Ltd, Bengaluru",
		Items: []ledger.LineItem{
			{
				Name:     "Thermal printer rolls",
				Category: ledger.CategoryInventory,
				Quantity: d("50"),
				Rate:     d("12.50"),
				TaxPct:   d("12"),
			},
		},
	}
}

func TestCreateStartsInDraft(t *testing.T) {
	svc := newTestService(newFakeRepo())

	po, err := svc.Create(context.Background(), orderInput())
	require.NoError(t, err)
	require.Equal(t, StatusDraft, po.Status)
	require.Equal(t, "Sharma Supplies", po.Vendor.Name)
	// 50*12.50 = 625, +12% tax -> 700
	require.True(t, po.Totals.GrandTotal.Equal(d("700")), "got %s", po.Totals.GrandTotal)
}

func TestCreateRejectsDeliveryOnIssueDate(t *testing.T) {
	svc := newTestService(newFakeRepo())

	input := orderInput()
	input.DeliveryDate = input.IssueDate

	_, err := svc.Create(context.Background(), input)
	ve, ok := ledger.AsValidationError(err)
	require.True(t, ok)
	require.Contains(t, ve.Fields, "due_date")
}

func TestWorkflowTransitions(t *testing.T) {
	svc := newTestService(newFakeRepo())

	po, err := svc.Create(context.Background(), orderInput())
	require.NoError(t, err)

	po, err = svc.Transition(context.Background(), po.ID, StatusIssued)
	require.NoError(t, err)
	require.Equal(t, StatusIssued, po.Status)

	po, err = svc.Transition(context.Background(), po.ID, StatusReceived)
	require.NoError(t, err)
	require.Equal(t, StatusReceived, po.Status)

	// received is terminal
	_, err = svc.Transition(context.Background(), po.ID, StatusCancelled)
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestDraftCannotBeReceivedDirectly(t *testing.T) {
	svc := newTestService(newFakeRepo())

	po, err := svc.Create(context.Background(), orderInput())
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), po.ID, StatusReceived)
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestStatusDoesNotGateEdits(t *testing.T) {
	svc := newTestService(newFakeRepo())

	po, err := svc.Create(context.Background(), orderInput())
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), po.ID, StatusIssued)
	require.NoError(t, err)

	// an issued order stays editable; the edit recomputes totals and
	// leaves the workflow status where it was
	input := orderInput()
	input.Items[0].Quantity = d("100")
	updated, err := svc.Update(context.Background(), po.ID, input)
	require.NoError(t, err)
	require.Equal(t, StatusIssued, updated.Status)
	require.True(t, updated.Totals.GrandTotal.Equal(d("1400")), "got %s", updated.Totals.GrandTotal)

	require.NoError(t, svc.Delete(context.Background(), po.ID))
	_, err = svc.Get(context.Background(), po.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDraftEditRecomputesTotals(t *testing.T) {
	svc := newTestService(newFakeRepo())

	po, err := svc.Create(context.Background(), orderInput())
	require.NoError(t, err)

	input := orderInput()
	input.Items[0].Quantity = d("100")
	updated, err := svc.Update(context.Background(), po.ID, input)
	require.NoError(t, err)
	require.True(t, updated.Totals.GrandTotal.Equal(d("1400")), "got %s", updated.Totals.GrandTotal)
}
