package procurement

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsdesk/opsdesk/internal/ledger"
	"github.com/opsdesk/opsdesk/internal/platform/db"
	"github.com/opsdesk/opsdesk/internal/shared"
)

// Repository reads purchase orders and opens transactions for mutations.
type Repository interface {
	WithTx(ctx context.Context, fn func(TxRepository) error) error
	List(ctx context.Context, filters ListFilters) ([]Summary, int, error)
	Get(ctx context.Context, id int64) (PurchaseOrder, error)
}

// TxRepository is the transaction-scoped surface.
type TxRepository interface {
	Insert(ctx context.Context, po PurchaseOrder) (int64, error)
	Update(ctx context.Context, po PurchaseOrder) error
	Delete(ctx context.Context, id int64) error
	GetForUpdate(ctx context.Context, id int64) (PurchaseOrder, error)
	ReplaceItems(ctx context.Context, poID int64, items []ledger.LineItem) error
	UpdateStatus(ctx context.Context, poID int64, status Status) error
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

const poColumns = `id, number, vendor_id, vendor_name, vendor_email, vendor_phone, vendor_address, vendor_gstin,
	issue_date, delivery_date, bill_to, ship_to, notes, terms, shipping_charge, adjustment, tds_pct,
	subtotal, total_discount, total_tax, tds_amount, grand_total, status, created_at, updated_at`

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
	if filters.VendorID > 0 {
		argCount++
		where += ` AND vendor_id = $` + strconv.Itoa(argCount)
		args = append(args, filters.VendorID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, number, vendor_name, issue_date, delivery_date, grand_total, status FROM purchase_orders` +
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
		if err := rows.Scan(&s.ID, &s.Number, &s.VendorName, &s.IssueDate, &s.DeliveryDate, &s.GrandTotal, &s.Status); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (PurchaseOrder, error) {
	return getOrder(ctx, r.pool, id, false)
}

type txRepository struct {
	q queryer
}

func (t *txRepository) Insert(ctx context.Context, po PurchaseOrder) (int64, error) {
	query := `INSERT INTO purchase_orders (number, vendor_id, vendor_name, vendor_email, vendor_phone, vendor_address, vendor_gstin,
		issue_date, delivery_date, bill_to, ship_to, notes, terms, shipping_charge, adjustment, tds_pct,
		subtotal, total_discount, total_tax, tds_amount, grand_total, status, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,NOW(),NOW())
	RETURNING id`

	var id int64
	err := t.q.QueryRow(ctx, query,
		po.Number, po.VendorID, po.Vendor.Name, po.Vendor.Email, po.Vendor.Phone, po.Vendor.Address, po.Vendor.GSTIN,
		po.IssueDate, po.DeliveryDate, po.BillTo, po.ShipTo, po.Notes, po.Terms,
		po.ShippingCharge, po.Adjustment, po.TDSPct,
		po.Totals.Subtotal, po.Totals.TotalDiscount, po.Totals.TotalTax, po.Totals.TDSAmount,
		po.Totals.GrandTotal, po.Status,
	).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}
	return id, nil
}

func (t *txRepository) Update(ctx context.Context, po PurchaseOrder) error {
	query := `UPDATE purchase_orders SET number=$1, vendor_id=$2, vendor_name=$3, vendor_email=$4, vendor_phone=$5,
		vendor_address=$6, vendor_gstin=$7, issue_date=$8, delivery_date=$9, bill_to=$10, ship_to=$11, notes=$12, terms=$13,
		shipping_charge=$14, adjustment=$15, tds_pct=$16,
		subtotal=$17, total_discount=$18, total_tax=$19, tds_amount=$20, grand_total=$21, status=$22, updated_at=NOW()
	WHERE id=$23`

	tag, err := t.q.Exec(ctx, query,
		po.Number, po.VendorID, po.Vendor.Name, po.Vendor.Email, po.Vendor.Phone, po.Vendor.Address, po.Vendor.GSTIN,
		po.IssueDate, po.DeliveryDate, po.BillTo, po.ShipTo, po.Notes, po.Terms,
		po.ShippingCharge, po.Adjustment, po.TDSPct,
		po.Totals.Subtotal, po.Totals.TotalDiscount, po.Totals.TotalTax, po.Totals.TDSAmount,
		po.Totals.GrandTotal, po.Status,
		po.ID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepository) Delete(ctx context.Context, id int64) error {
	if _, err := t.q.Exec(ctx, `DELETE FROM purchase_order_items WHERE purchase_order_id=$1`, id); err != nil {
		return err
	}
	tag, err := t.q.Exec(ctx, `DELETE FROM purchase_orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepository) GetForUpdate(ctx context.Context, id int64) (PurchaseOrder, error) {
	return getOrder(ctx, t.q, id, true)
}

func (t *txRepository) ReplaceItems(ctx context.Context, poID int64, items []ledger.LineItem) error {
	if _, err := t.q.Exec(ctx, `DELETE FROM purchase_order_items WHERE purchase_order_id=$1`, poID); err != nil {
		return err
	}
	for i, item := range items {
		_, err := t.q.Exec(ctx,
			`INSERT INTO purchase_order_items (purchase_order_id, item_id, name, description, category, quantity, rate, discount_pct, tax_pct, amount, position)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			poID, item.ItemID, item.Name, item.Description, item.Category,
			item.Quantity, item.Rate, item.DiscountPct, item.TaxPct, item.Amount, i)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *txRepository) UpdateStatus(ctx context.Context, poID int64, status Status) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE purchase_orders SET status=$1, updated_at=NOW() WHERE id=$2`, status, poID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func getOrder(ctx context.Context, q queryer, id int64, forUpdate bool) (PurchaseOrder, error) {
	query := `SELECT ` + poColumns + ` FROM purchase_orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var po PurchaseOrder
	err := q.QueryRow(ctx, query, id).Scan(
		&po.ID, &po.Number, &po.VendorID, &po.Vendor.Name, &po.Vendor.Email, &po.Vendor.Phone, &po.Vendor.Address, &po.Vendor.GSTIN,
		&po.IssueDate, &po.DeliveryDate, &po.BillTo, &po.ShipTo, &po.Notes, &po.Terms,
		&po.ShippingCharge, &po.Adjustment, &po.TDSPct,
		&po.Totals.Subtotal, &po.Totals.TotalDiscount, &po.Totals.TotalTax, &po.Totals.TDSAmount,
		&po.Totals.GrandTotal, &po.Status,
		&po.CreatedAt, &po.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchaseOrder{}, shared.ErrNotFound
	}
	if err != nil {
		return PurchaseOrder{}, err
	}

	items, err := q.Query(ctx,
		`SELECT item_id, name, description, category, quantity, rate, discount_pct, tax_pct, amount
		 FROM purchase_order_items WHERE purchase_order_id = $1 ORDER BY position`, id)
	if err != nil {
		return PurchaseOrder{}, err
	}
	defer items.Close()
	for items.Next() {
		var it ledger.LineItem
		if err := items.Scan(&it.ItemID, &it.Name, &it.Description, &it.Category, &it.Quantity, &it.Rate, &it.DiscountPct, &it.TaxPct, &it.Amount); err != nil {
			return PurchaseOrder{}, err
		}
		po.Items = append(po.Items, it)
	}
	return po, items.Err()
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicateNumber
	}
	return err
}
