// Package analytics derives dashboard reports from the billing data and
// caches them in Redis behind a global version.
package analytics

import (
	"context"
	"strconv"
	"time"

	"github.com/opsdesk/opsdesk/internal/billing"
)

// AgingSource provides the outstanding-bill aging report.
type AgingSource interface {
	Aging(ctx context.Context, asOf time.Time) (billing.AgingReport, error)
}

// Service coordinates report queries with the cache layer.
type Service struct {
	repo  Repository
	aging AgingSource
	cache *Cache
}

func NewService(repo Repository, aging AgingSource, cache *Cache) *Service {
	return &Service{repo: repo, aging: aging, cache: cache}
}

// KPIs returns the headline numbers for the period, cached per day span.
func (s *Service) KPIs(ctx context.Context, from, to time.Time) (KPISummary, error) {
	key, err := s.cache.BuildKey(ctx, "analytics", "kpi", from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return KPISummary{}, err
	}
	var out KPISummary
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		return s.repo.KPISummary(ctx, from, to)
	})
	return out, err
}

// StatusBreakdown returns bill counts and balances per payment status.
func (s *Service) StatusBreakdown(ctx context.Context) ([]StatusSlice, error) {
	key, err := s.cache.BuildKey(ctx, "analytics", "status_breakdown")
	if err != nil {
		return nil, err
	}
	var out []StatusSlice
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		return s.repo.StatusBreakdown(ctx)
	})
	return out, err
}

// Aging returns the outstanding-bill aging report, cached per day.
func (s *Service) Aging(ctx context.Context, asOf time.Time) (billing.AgingReport, error) {
	key, err := s.cache.BuildKey(ctx, "analytics", "aging", asOf.Format("2006-01-02"))
	if err != nil {
		return billing.AgingReport{}, err
	}
	var out billing.AgingReport
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		return s.aging.Aging(ctx, asOf)
	})
	return out, err
}

// MonthlyTrend returns the billed/paid series for the trailing months.
func (s *Service) MonthlyTrend(ctx context.Context, months int) ([]TrendPoint, error) {
	key, err := s.cache.BuildKey(ctx, "analytics", "trend", strconv.Itoa(months))
	if err != nil {
		return nil, err
	}
	var out []TrendPoint
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		return s.repo.MonthlyTrend(ctx, months)
	})
	return out, err
}

// Invalidate bumps the cache version. Document writes call this so the
// dashboard never serves stale aggregates past one bump.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// Warmup precomputes the common reports into the cache. The scheduler
// runs it so first paint after an invalidation stays fast.
func (s *Service) Warmup(ctx context.Context) error {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if _, err := s.KPIs(ctx, monthStart, now); err != nil {
		return err
	}
	if _, err := s.StatusBreakdown(ctx); err != nil {
		return err
	}
	if _, err := s.Aging(ctx, now); err != nil {
		return err
	}
	_, err := s.MonthlyTrend(ctx, 6)
	return err
}
