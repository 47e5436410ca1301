package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/opsdesk/opsdesk/internal/ledger"
)

// KPISummary are the headline dashboard numbers for a period.
type KPISummary struct {
	From             time.Time       `json:"from"`
	To               time.Time       `json:"to"`
	TotalBilled      decimal.Decimal `json:"total_billed"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	PaidInPeriod     decimal.Decimal `json:"paid_in_period"`
	OpenComplaints   int             `json:"open_complaints"`
}

// StatusSlice is one slice of the payment-status breakdown.
type StatusSlice struct {
	Status  ledger.PaymentStatus `json:"status"`
	Count   int                  `json:"count"`
	Balance decimal.Decimal      `json:"balance"`
}

// TrendPoint is one month of the spend trend.
type TrendPoint struct {
	Month  string          `json:"month"`
	Billed decimal.Decimal `json:"billed"`
	Paid   decimal.Decimal `json:"paid"`
}

// Repository runs the aggregate queries behind the dashboard.
type Repository interface {
	KPISummary(ctx context.Context, from, to time.Time) (KPISummary, error)
	StatusBreakdown(ctx context.Context) ([]StatusSlice, error)
	MonthlyTrend(ctx context.Context, months int) ([]TrendPoint, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) KPISummary(ctx context.Context, from, to time.Time) (KPISummary, error) {
	out := KPISummary{From: from, To: to}

	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(grand_total), 0) FROM bills WHERE issue_date >= $1 AND issue_date < $2`,
		from, to).Scan(&out.TotalBilled)
	if err != nil {
		return KPISummary{}, err
	}

	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(balance_due), 0) FROM bills WHERE balance_due > 0`).Scan(&out.TotalOutstanding)
	if err != nil {
		return KPISummary{}, err
	}

	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM bill_payments WHERE paid_on >= $1 AND paid_on < $2`,
		from, to).Scan(&out.PaidInPeriod)
	if err != nil {
		return KPISummary{}, err
	}

	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM complaints WHERE status NOT IN ('RESOLVED', 'CLOSED')`).Scan(&out.OpenComplaints)
	if err != nil {
		return KPISummary{}, err
	}
	return out, nil
}

func (r *repository) StatusBreakdown(ctx context.Context) ([]StatusSlice, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT payment_status, COUNT(*), COALESCE(SUM(balance_due), 0) FROM bills GROUP BY payment_status ORDER BY payment_status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusSlice
	for rows.Next() {
		var s StatusSlice
		if err := rows.Scan(&s.Status, &s.Count, &s.Balance); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) MonthlyTrend(ctx context.Context, months int) ([]TrendPoint, error) {
	if months <= 0 {
		months = 6
	}
	rows, err := r.pool.Query(ctx,
		`SELECT to_char(date_trunc('month', b.issue_date), 'YYYY-MM') AS month,
		        COALESCE(SUM(b.grand_total), 0),
		        COALESCE((SELECT SUM(p.amount) FROM bill_payments p
		                  WHERE date_trunc('month', p.paid_on) = date_trunc('month', b.issue_date)), 0)
		 FROM bills b
		 WHERE b.issue_date >= date_trunc('month', NOW()) - ($1 || ' months')::interval
		 GROUP BY date_trunc('month', b.issue_date)
		 ORDER BY month`, months)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrendPoint
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Month, &p.Billed, &p.Paid); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
