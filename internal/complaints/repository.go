package complaints

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsdesk/opsdesk/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Complaint, int, error)
	Get(ctx context.Context, id int64) (Complaint, error)
	Create(ctx context.Context, c Complaint) (Complaint, error)
	Update(ctx context.Context, c Complaint) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const complaintColumns = `id, subject, description, priority, reference, vendor_id, assignee_id, status, resolved_at, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Complaint, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		where += ` AND (subject ILIKE $` + strconv.Itoa(argCount) + ` OR reference ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Status != "" {
		argCount++
		where += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, filters.Status)
	}
	if filters.Priority != "" {
		argCount++
		where += ` AND priority = $` + strconv.Itoa(argCount)
		args = append(args, filters.Priority)
	}
	if filters.AssigneeID > 0 {
		argCount++
		where += ` AND assignee_id = $` + strconv.Itoa(argCount)
		args = append(args, filters.AssigneeID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM complaints`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + complaintColumns + ` FROM complaints` + where + ` ORDER BY created_at DESC, id DESC`
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

	var out []Complaint
	for rows.Next() {
		var c Complaint
		if err := scanComplaint(rows.Scan, &c); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Complaint, error) {
	var c Complaint
	err := scanComplaint(r.pool.QueryRow(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE id = $1`, id).Scan, &c)
	if errors.Is(err, pgx.ErrNoRows) {
		return Complaint{}, shared.ErrNotFound
	}
	return c, err
}

func (r *repository) Create(ctx context.Context, c Complaint) (Complaint, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO complaints (subject, description, priority, reference, vendor_id, assignee_id, status, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		c.Subject, c.Description, c.Priority, c.Reference, c.VendorID, c.AssigneeID, c.Status, now, now).Scan(&c.ID)
	if err != nil {
		return Complaint{}, err
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, nil
}

func (r *repository) Update(ctx context.Context, c Complaint) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE complaints SET subject=$1, description=$2, priority=$3, reference=$4, vendor_id=$5,
		 assignee_id=$6, status=$7, resolved_at=$8, updated_at=NOW() WHERE id=$9`,
		c.Subject, c.Description, c.Priority, c.Reference, c.VendorID, c.AssigneeID, c.Status, c.ResolvedAt, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanComplaint(scan func(dest ...any) error, c *Complaint) error {
	return scan(&c.ID, &c.Subject, &c.Description, &c.Priority, &c.Reference, &c.VendorID, &c.AssigneeID, &c.Status, &c.ResolvedAt, &c.CreatedAt, &c.UpdatedAt)
}
