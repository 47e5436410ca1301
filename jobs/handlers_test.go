package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/observability"
)

type fakeMarker struct {
	marked int64
	asOf   time.Time
	err    error
}

func (f *fakeMarker) MarkOverdue(_ context.Context, asOf time.Time) (int64, error) {
	f.asOf = asOf
	return f.marked, f.err
}

type fakeWarmer struct {
	warmed      int
	invalidated int
}

func (f *fakeWarmer) Warmup(context.Context) error {
	f.warmed++
	return nil
}

func (f *fakeWarmer) Invalidate(context.Context) error {
	f.invalidated++
	return nil
}

func TestOverdueScanUsesPayloadTime(t *testing.T) {
	marker := &fakeMarker{marked: 2}
	warmer := &fakeWarmer{}
	h := NewOverdueScanHandler(marker, warmer, observability.NewMetrics(), slog.Default())

	asOf := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	task, err := NewOverdueScanTask(OverdueScanPayload{AsOf: asOf})
	require.NoError(t, err)

	require.NoError(t, h.Handler(context.Background(), task))
	require.True(t, marker.asOf.Equal(asOf))
	require.Equal(t, 1, warmer.invalidated, "marking bills must invalidate the dashboard cache")
}

func TestOverdueScanSkipsInvalidationWhenNothingMarked(t *testing.T) {
	marker := &fakeMarker{marked: 0}
	warmer := &fakeWarmer{}
	h := NewOverdueScanHandler(marker, warmer, observability.NewMetrics(), slog.Default())

	task, err := NewOverdueScanTask(OverdueScanPayload{})
	require.NoError(t, err)

	require.NoError(t, h.Handler(context.Background(), task))
	require.Equal(t, 0, warmer.invalidated)
	require.False(t, marker.asOf.IsZero(), "zero payload time defaults to now")
}

func TestOverdueScanPropagatesErrors(t *testing.T) {
	marker := &fakeMarker{err: errors.New("db down")}
	h := NewOverdueScanHandler(marker, nil, observability.NewMetrics(), slog.Default())

	task, err := NewOverdueScanTask(OverdueScanPayload{})
	require.NoError(t, err)
	require.Error(t, h.Handler(context.Background(), task))
}

func TestDashboardWarmup(t *testing.T) {
	warmer := &fakeWarmer{}
	h := NewDashboardWarmupHandler(warmer, observability.NewMetrics(), slog.Default())

	require.NoError(t, h.Handler(context.Background(), NewDashboardWarmupTask()))
	require.Equal(t, 1, warmer.warmed)
}
