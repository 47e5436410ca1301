package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/billing"
	"github.com/opsdesk/opsdesk/internal/ledger"
)

type fakeRepo struct {
	kpiCalls   int
	breakCalls int
	trendCalls int
}

func (f *fakeRepo) KPISummary(_ context.Context, from, to time.Time) (KPISummary, error) {
	f.kpiCalls++
	return KPISummary{
		From:             from,
		To:               to,
		TotalBilled:      decimal.RequireFromString("1234567.89"),
		TotalOutstanding: decimal.RequireFromString("234567.10"),
		PaidInPeriod:     decimal.RequireFromString("1000000.79"),
		OpenComplaints:   3,
	}, nil
}

func (f *fakeRepo) StatusBreakdown(_ context.Context) ([]StatusSlice, error) {
	f.breakCalls++
	return []StatusSlice{
		{Status: ledger.StatusUnpaid, Count: 4, Balance: decimal.RequireFromString("200000")},
		{Status: ledger.StatusPaid, Count: 9, Balance: decimal.Zero},
	}, nil
}

func (f *fakeRepo) MonthlyTrend(_ context.Context, _ int) ([]TrendPoint, error) {
	f.trendCalls++
	return []TrendPoint{{Month: "2026-07", Billed: decimal.RequireFromString("500"), Paid: decimal.RequireFromString("300")}}, nil
}

type fakeAging struct{ calls int }

func (f *fakeAging) Aging(_ context.Context, asOf time.Time) (billing.AgingReport, error) {
	f.calls++
	return billing.AgingReport{AsOf: asOf, Buckets: []billing.AgingBucket{{Label: "current", Balance: decimal.Zero}}}, nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *fakeAging) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := &fakeRepo{}
	aging := &fakeAging{}
	return NewService(repo, aging, NewCache(client, time.Minute)), repo, aging
}

func period() (time.Time, time.Time) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

func TestKPIsCached(t *testing.T) {
	svc, repo, _ := newTestService(t)
	from, to := period()

	first, err := svc.KPIs(context.Background(), from, to)
	require.NoError(t, err)
	second, err := svc.KPIs(context.Background(), from, to)
	require.NoError(t, err)

	require.Equal(t, 1, repo.kpiCalls, "second read must come from cache")
	require.True(t, first.TotalBilled.Equal(second.TotalBilled))
	require.Equal(t, 3, second.OpenComplaints)
}

func TestInvalidateBumpsVersion(t *testing.T) {
	svc, repo, _ := newTestService(t)
	from, to := period()

	_, err := svc.KPIs(context.Background(), from, to)
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(context.Background()))

	_, err = svc.KPIs(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 2, repo.kpiCalls, "bump must force a reload")
}

func TestAgingCachedPerDay(t *testing.T) {
	svc, _, aging := newTestService(t)
	asOf := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	_, err := svc.Aging(context.Background(), asOf)
	require.NoError(t, err)
	_, err = svc.Aging(context.Background(), asOf.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, aging.calls)
}

func TestWarmupPopulatesReports(t *testing.T) {
	svc, repo, aging := newTestService(t)

	require.NoError(t, svc.Warmup(context.Background()))
	require.Equal(t, 1, repo.kpiCalls)
	require.Equal(t, 1, repo.breakCalls)
	require.Equal(t, 1, repo.trendCalls)
	require.Equal(t, 1, aging.calls)
}

func TestExportUsesIndianGrouping(t *testing.T) {
	svc, _, _ := newTestService(t)
	from, to := period()

	report, err := svc.ExportSummary(context.Background(), from, to)
	require.NoError(t, err)
	require.Contains(t, string(report), "12,34,567.89")
	require.Contains(t, string(report), "2,34,567.10")
	require.Contains(t, string(report), "UNPAID")
}
