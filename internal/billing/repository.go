package billing

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsdesk/opsdesk/internal/ledger"
	"github.com/opsdesk/opsdesk/internal/platform/db"
	"github.com/opsdesk/opsdesk/internal/shared"
)

// Repository reads bills and opens transactions for mutating flows.
type Repository interface {
	WithTx(ctx context.Context, fn func(TxRepository) error) error
	List(ctx context.Context, filters ListFilters) ([]Summary, int, error)
	Get(ctx context.Context, id int64) (Bill, error)
	Outstanding(ctx context.Context) ([]Summary, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// TxRepository is the transaction-scoped surface. Every write that touches
// a bill and its child rows goes through one of these inside WithTx.
type TxRepository interface {
	Insert(ctx context.Context, bill Bill) (int64, error)
	Update(ctx context.Context, bill Bill) error
	Delete(ctx context.Context, id int64) error
	GetForUpdate(ctx context.Context, id int64) (Bill, error)
	ReplaceItems(ctx context.Context, billID int64, items []ledger.LineItem) error
	InsertPayment(ctx context.Context, billID int64, rec ledger.PaymentRecord) (int64, error)
	UpdateDerived(ctx context.Context, billID int64, totals ledger.Totals, status ledger.PaymentStatus) error
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&txRepository{q: tx})
	})
}

const billColumns = `id, number, vendor_id, vendor_name, vendor_email, vendor_phone, vendor_address, vendor_gstin,
	issue_date, due_date, bill_to, ship_to, notes, terms, shipping_charge, adjustment, tds_pct,
	subtotal, total_discount, total_tax, tds_amount, grand_total, amount_paid, balance_due, status, payment_status,
	created_at, updated_at`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Summary, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		where += ` AND (number ILIKE $` + strconv.Itoa(argCount) + ` OR vendor_name ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Status != "" {
		argCount++
		where += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, filters.Status)
	}
	if filters.PaymentStatus != "" {
		argCount++
		where += ` AND payment_status = $` + strconv.Itoa(argCount)
		args = append(args, filters.PaymentStatus)
	}
	if filters.VendorID > 0 {
		argCount++
		where += ` AND vendor_id = $` + strconv.Itoa(argCount)
		args = append(args, filters.VendorID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bills`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, number, vendor_name, issue_date, due_date, grand_total, balance_due, status, payment_status FROM bills` +
		where + ` ORDER BY issue_date DESC, id DESC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filters.Offset())
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Number, &s.VendorName, &s.IssueDate, &s.DueDate, &s.GrandTotal, &s.BalanceDue, &s.Status, &s.PaymentStatus); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Bill, error) {
	return getBill(ctx, r.pool, id, false)
}

func (r *repository) Outstanding(ctx context.Context) ([]Summary, error) {
	query := `SELECT id, number, vendor_name, issue_date, due_date, grand_total, balance_due, status, payment_status
	          FROM bills WHERE balance_due > 0 AND status <> $1 ORDER BY due_date ASC`
	rows, err := r.pool.Query(ctx, query, StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Number, &s.VendorName, &s.IssueDate, &s.DueDate, &s.GrandTotal, &s.BalanceDue, &s.Status, &s.PaymentStatus); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MarkOverdue flips the payment status of unpaid and partially paid bills
// past their due date to OVERDUE. The lifecycle status and derived totals
// are untouched; cancelled bills are skipped.
func (r *repository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE bills SET payment_status = $1, updated_at = NOW()
		 WHERE due_date < $2 AND payment_status IN ($3, $4) AND status <> $5`,
		ledger.StatusOverdue, asOf, ledger.StatusUnpaid, ledger.StatusPartiallyPaid, StatusCancelled)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type txRepository struct {
	q queryer
}

func (t *txRepository) Insert(ctx context.Context, bill Bill) (int64, error) {
	query := `INSERT INTO bills (number, vendor_id, vendor_name, vendor_email, vendor_phone, vendor_address, vendor_gstin,
		issue_date, due_date, bill_to, ship_to, notes, terms, shipping_charge, adjustment, tds_pct,
		subtotal, total_discount, total_tax, tds_amount, grand_total, amount_paid, balance_due, status, payment_status, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,NOW(),NOW())
	RETURNING id`

	var id int64
	err := t.q.QueryRow(ctx, query,
		bill.Number, bill.VendorID, bill.Vendor.Name, bill.Vendor.Email, bill.Vendor.Phone, bill.Vendor.Address, bill.Vendor.GSTIN,
		bill.IssueDate, bill.DueDate, bill.BillTo, bill.ShipTo, bill.Notes, bill.Terms,
		bill.ShippingCharge, bill.Adjustment, bill.TDSPct,
		bill.Totals.Subtotal, bill.Totals.TotalDiscount, bill.Totals.TotalTax, bill.Totals.TDSAmount,
		bill.Totals.GrandTotal, bill.Totals.AmountPaid, bill.Totals.BalanceDue, bill.Status, bill.PaymentStatus,
	).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}
	return id, nil
}

func (t *txRepository) Update(ctx context.Context, bill Bill) error {
	query := `UPDATE bills SET number=$1, vendor_id=$2, vendor_name=$3, vendor_email=$4, vendor_phone=$5,
		vendor_address=$6, vendor_gstin=$7, issue_date=$8, due_date=$9, bill_to=$10, ship_to=$11, notes=$12, terms=$13,
		shipping_charge=$14, adjustment=$15, tds_pct=$16,
		subtotal=$17, total_discount=$18, total_tax=$19, tds_amount=$20, grand_total=$21, amount_paid=$22,
		balance_due=$23, status=$24, payment_status=$25, updated_at=NOW()
	WHERE id=$26`

	tag, err := t.q.Exec(ctx, query,
		bill.Number, bill.VendorID, bill.Vendor.Name, bill.Vendor.Email, bill.Vendor.Phone, bill.Vendor.Address, bill.Vendor.GSTIN,
		bill.IssueDate, bill.DueDate, bill.BillTo, bill.ShipTo, bill.Notes, bill.Terms,
		bill.ShippingCharge, bill.Adjustment, bill.TDSPct,
		bill.Totals.Subtotal, bill.Totals.TotalDiscount, bill.Totals.TotalTax, bill.Totals.TDSAmount,
		bill.Totals.GrandTotal, bill.Totals.AmountPaid, bill.Totals.BalanceDue, bill.Status, bill.PaymentStatus,
		bill.ID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepository) Delete(ctx context.Context, id int64) error {
	if _, err := t.q.Exec(ctx, `DELETE FROM bill_payments WHERE bill_id=$1`, id); err != nil {
		return err
	}
	if _, err := t.q.Exec(ctx, `DELETE FROM bill_items WHERE bill_id=$1`, id); err != nil {
		return err
	}
	tag, err := t.q.Exec(ctx, `DELETE FROM bills WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepository) GetForUpdate(ctx context.Context, id int64) (Bill, error) {
	return getBill(ctx, t.q, id, true)
}

func (t *txRepository) ReplaceItems(ctx context.Context, billID int64, items []ledger.LineItem) error {
	if _, err := t.q.Exec(ctx, `DELETE FROM bill_items WHERE bill_id=$1`, billID); err != nil {
		return err
	}
	for i, item := range items {
		_, err := t.q.Exec(ctx,
			`INSERT INTO bill_items (bill_id, item_id, name, description, category, quantity, rate, discount_pct, tax_pct, amount, position)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			billID, item.ItemID, item.Name, item.Description, item.Category,
			item.Quantity, item.Rate, item.DiscountPct, item.TaxPct, item.Amount, i)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *txRepository) InsertPayment(ctx context.Context, billID int64, rec ledger.PaymentRecord) (int64, error) {
	var id int64
	err := t.q.QueryRow(ctx,
		`INSERT INTO bill_payments (bill_id, paid_on, amount, method, reference, created_at)
		 VALUES ($1,$2,$3,$4,$5,NOW()) RETURNING id`,
		billID, rec.Date, rec.Amount, rec.Method, rec.Reference).Scan(&id)
	return id, err
}

func (t *txRepository) UpdateDerived(ctx context.Context, billID int64, totals ledger.Totals, status ledger.PaymentStatus) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE bills SET subtotal=$1, total_discount=$2, total_tax=$3, tds_amount=$4, grand_total=$5,
		 amount_paid=$6, balance_due=$7, payment_status=$8, updated_at=NOW() WHERE id=$9`,
		totals.Subtotal, totals.TotalDiscount, totals.TotalTax, totals.TDSAmount, totals.GrandTotal,
		totals.AmountPaid, totals.BalanceDue, status, billID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func getBill(ctx context.Context, q queryer, id int64, forUpdate bool) (Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var b Bill
	err := q.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.Number, &b.VendorID, &b.Vendor.Name, &b.Vendor.Email, &b.Vendor.Phone, &b.Vendor.Address, &b.Vendor.GSTIN,
		&b.IssueDate, &b.DueDate, &b.BillTo, &b.ShipTo, &b.Notes, &b.Terms,
		&b.ShippingCharge, &b.Adjustment, &b.TDSPct,
		&b.Totals.Subtotal, &b.Totals.TotalDiscount, &b.Totals.TotalTax, &b.Totals.TDSAmount,
		&b.Totals.GrandTotal, &b.Totals.AmountPaid, &b.Totals.BalanceDue, &b.Status, &b.PaymentStatus,
		&b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Bill{}, shared.ErrNotFound
	}
	if err != nil {
		return Bill{}, err
	}
	b.Totals.PaymentStatus = b.PaymentStatus

	items, err := q.Query(ctx,
		`SELECT item_id, name, description, category, quantity, rate, discount_pct, tax_pct, amount
		 FROM bill_items WHERE bill_id = $1 ORDER BY position`, id)
	if err != nil {
		return Bill{}, err
	}
	defer items.Close()
	for items.Next() {
		var it ledger.LineItem
		if err := items.Scan(&it.ItemID, &it.Name, &it.Description, &it.Category, &it.Quantity, &it.Rate, &it.DiscountPct, &it.TaxPct, &it.Amount); err != nil {
			return Bill{}, err
		}
		b.Items = append(b.Items, it)
	}
	if err := items.Err(); err != nil {
		return Bill{}, err
	}

	payments, err := q.Query(ctx,
		`SELECT id, paid_on, amount, method, reference FROM bill_payments WHERE bill_id = $1 ORDER BY paid_on, id`, id)
	if err != nil {
		return Bill{}, err
	}
	defer payments.Close()
	for payments.Next() {
		var p ledger.PaymentRecord
		if err := payments.Scan(&p.ID, &p.Date, &p.Amount, &p.Method, &p.Reference); err != nil {
			return Bill{}, err
		}
		b.Payments = append(b.Payments, p)
	}
	return b, payments.Err()
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicateNumber
	}
	return err
}
