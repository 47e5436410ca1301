package complaints

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/ledger"
	"github.com/opsdesk/opsdesk/internal/platform/httpx"
	"github.com/opsdesk/opsdesk/internal/shared"
)

type fakeRepo struct {
	complaints map[int64]Complaint
	nextID     int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{complaints: map[int64]Complaint{}, nextID: 1}
}

func (f *fakeRepo) List(_ context.Context, _ ListFilters) ([]Complaint, int, error) {
	var out []Complaint
	for _, c := range f.complaints {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (Complaint, error) {
	c, ok := f.complaints[id]
	if !ok {
		return Complaint{}, shared.ErrNotFound
	}
	return c, nil
}

func (f *fakeRepo) Create(_ context.Context, c Complaint) (Complaint, error) {
	c.ID = f.nextID
	f.nextID++
	f.complaints[c.ID] = c
	return c, nil
}

func (f *fakeRepo) Update(_ context.Context, c Complaint) error {
	if _, ok := f.complaints[c.ID]; !ok {
		return shared.ErrNotFound
	}
	f.complaints[c.ID] = c
	return nil
}

func newTestService() *Service {
	return NewService(newFakeRepo(), nil, slog.Default())
}

func TestCreateOpensComplaint(t *testing.T) {
	svc := newTestService()

	c, err := svc.Create(context.Background(), Complaint{
		Subject:     "Late delivery on PO-2026-0007",
		Description: "Vendor missed the committed delivery window twice.",
		Priority:    PriorityHigh,
	})
	require.NoError(t, err)
	require.Equal(t, StatusOpen, c.Status)
	require.Nil(t, c.AssigneeID)
}

func TestCreateCollectsFieldErrors(t *testing.T) {
	svc := newTestService()

	_, err := svc.Create(context.Background(), Complaint{Priority: Priority("WHENEVER")})
	ve, ok := ledger.AsValidationError(err)
	require.True(t, ok)
	require.Contains(t, ve.Fields, "subject")
	require.Contains(t, ve.Fields, "description")
	require.Contains(t, ve.Fields, "priority")
}

func TestAssignMovesToAssigned(t *testing.T) {
	svc := newTestService()

	c, err := svc.Create(context.Background(), Complaint{
		Subject:     "Billing mismatch",
		Description: "Invoice total does not match the PO.",
	})
	require.NoError(t, err)

	assigned, err := svc.Assign(context.Background(), c.ID, 42)
	require.NoError(t, err)
	require.Equal(t, StatusAssigned, assigned.Status)
	require.NotNil(t, assigned.AssigneeID)
	require.EqualValues(t, 42, *assigned.AssigneeID)
}

func TestWorkflow(t *testing.T) {
	svc := newTestService()

	c, err := svc.Create(context.Background(), Complaint{
		Subject:     "Damaged stock",
		Description: "Half the shipment arrived damaged.",
	})
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), c.ID, 7)
	require.NoError(t, err)

	c, err = svc.Transition(context.Background(), c.ID, StatusInProgress)
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, c.Status)

	c, err = svc.Transition(context.Background(), c.ID, StatusResolved)
	require.NoError(t, err)
	require.NotNil(t, c.ResolvedAt)

	// reopen clears the resolution stamp
	c, err = svc.Transition(context.Background(), c.ID, StatusInProgress)
	require.NoError(t, err)
	require.Nil(t, c.ResolvedAt)

	c, err = svc.Transition(context.Background(), c.ID, StatusResolved)
	require.NoError(t, err)
	c, err = svc.Transition(context.Background(), c.ID, StatusClosed)
	require.NoError(t, err)
	require.Equal(t, StatusClosed, c.Status)

	// closed is terminal
	_, err = svc.Transition(context.Background(), c.ID, StatusInProgress)
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestOpenComplaintCannotJumpToResolved(t *testing.T) {
	svc := newTestService()

	c, err := svc.Create(context.Background(), Complaint{
		Subject:     "Wrong item delivered",
		Description: "Received printer rolls instead of label stock.",
	})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), c.ID, StatusResolved)
	require.True(t, errors.Is(err, httpx.ErrValidation))
}
