package billing

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opsdesk/opsdesk/internal/ledger"
	"github.com/opsdesk/opsdesk/internal/shared"
)

// VendorDirectory resolves the counterparty snapshot for a new or
// re-pointed bill.
type VendorDirectory interface {
	Snapshot(ctx context.Context, vendorID int64) (ledger.PartySnapshot, error)
}

// IdempotencyGuard deduplicates payment appends across retries.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// AuditRecorder persists an audit trail entry.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CacheInvalidator drops derived report caches after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type Service struct {
	repo        Repository
	vendors     VendorDirectory
	idem        IdempotencyGuard
	audit       AuditRecorder
	invalidator CacheInvalidator
	logger      *slog.Logger
}

func NewService(repo Repository, vendors VendorDirectory, idem IdempotencyGuard, audit AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, vendors: vendors, idem: idem, audit: audit, logger: logger}
}

// SetCacheInvalidator registers the hook run after successful writes.
// Wired late because the analytics service depends on this one.
func (s *Service) SetCacheInvalidator(inv CacheInvalidator) {
	s.invalidator = inv
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Summary, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Bill, error) {
	return s.repo.Get(ctx, id)
}

// Create validates the bill as a whole, snapshots the vendor, computes the
// derived totals and persists the header, line items and any opening
// payments atomically. A bill starts as DRAFT unless the input says
// otherwise; the lifecycle status never depends on the payment ledger.
func (s *Service) Create(ctx context.Context, input Bill) (Bill, error) {
	bill := input
	bill.ID = 0
	if bill.Status == "" {
		bill.Status = StatusDraft
	}

	snapshot, err := s.vendors.Snapshot(ctx, bill.VendorID)
	if err == nil {
		bill.Vendor = snapshot
	} else if bill.VendorID > 0 {
		return Bill{}, err
	}

	doc := bill.Document()
	fields := ledger.Validate(doc)
	if fields == nil {
		fields = ledger.FieldErrors{}
	}
	if !bill.Status.Valid() {
		fields["status"] = "unknown bill status"
	}
	for i, p := range bill.Payments {
		prefix := fmt.Sprintf("payments[%d].", i)
		if !p.Amount.IsPositive() {
			fields[prefix+"amount"] = "must be greater than zero"
		}
		if p.Date.IsZero() {
			fields[prefix+"date"] = "payment date is required"
		}
		if !p.Method.Valid() {
			fields[prefix+"method"] = "unknown payment method"
		}
	}
	if len(fields) > 0 {
		return Bill{}, &ledger.ValidationError{Fields: fields}
	}

	totals, err := ledger.DocumentTotals(doc)
	if err != nil {
		return Bill{}, err
	}
	if err := fillLineAmounts(bill.Items); err != nil {
		return Bill{}, err
	}
	bill.Totals = totals
	bill.PaymentStatus = totals.PaymentStatus

	err = s.repo.WithTx(ctx, func(tx TxRepository) error {
		id, err := tx.Insert(ctx, bill)
		if err != nil {
			return err
		}
		bill.ID = id
		if err := tx.ReplaceItems(ctx, id, bill.Items); err != nil {
			return err
		}
		for _, p := range bill.Payments {
			if _, err := tx.InsertPayment(ctx, id, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Bill{}, err
	}

	s.recordAudit(ctx, "bill.create", bill.ID, map[string]any{"number": bill.Number})
	s.invalidateCache(ctx)
	return s.repo.Get(ctx, bill.ID)
}

// Update rewrites the editable fields and recomputes totals against the
// existing payment ledger. Payments themselves are append-only and cannot
// be edited here. Edits are accepted in every lifecycle state; the status
// only moves when the input carries a new one.
func (s *Service) Update(ctx context.Context, id int64, input Bill) (Bill, error) {
	var updated Bill
	err := s.repo.WithTx(ctx, func(tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		bill := existing
		bill.Number = input.Number
		bill.IssueDate = input.IssueDate
		bill.DueDate = input.DueDate
		bill.BillTo = input.BillTo
		bill.ShipTo = input.ShipTo
		bill.Notes = input.Notes
		bill.Terms = input.Terms
		bill.Items = input.Items
		bill.ShippingCharge = input.ShippingCharge
		bill.Adjustment = input.Adjustment
		bill.TDSPct = input.TDSPct
		if input.Status != "" {
			bill.Status = input.Status
		}

		if input.VendorID != 0 && input.VendorID != existing.VendorID {
			snapshot, err := s.vendors.Snapshot(ctx, input.VendorID)
			if err != nil {
				return err
			}
			bill.VendorID = input.VendorID
			bill.Vendor = snapshot
		}

		doc := bill.Document()
		fields := ledger.Validate(doc)
		if !bill.Status.Valid() {
			if fields == nil {
				fields = ledger.FieldErrors{}
			}
			fields["status"] = "unknown bill status"
		}
		if len(fields) > 0 {
			return &ledger.ValidationError{Fields: fields}
		}
		totals, err := ledger.DocumentTotals(doc)
		if err != nil {
			return err
		}
		if err := fillLineAmounts(bill.Items); err != nil {
			return err
		}
		bill.Totals = totals
		bill.PaymentStatus = totals.PaymentStatus

		if err := tx.Update(ctx, bill); err != nil {
			return err
		}
		if err := tx.ReplaceItems(ctx, bill.ID, bill.Items); err != nil {
			return err
		}
		updated = bill
		return nil
	})
	if err != nil {
		return Bill{}, err
	}

	s.recordAudit(ctx, "bill.update", id, map[string]any{"number": updated.Number})
	s.invalidateCache(ctx)
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(tx TxRepository) error {
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "bill.delete", id, nil)
	s.invalidateCache(ctx)
	return nil
}

// RecordPayment appends a payment to the bill's ledger. The append and the
// derived-column update commit together; an overpayment or validation
// failure leaves the bill untouched.
func (s *Service) RecordPayment(ctx context.Context, billID int64, input PaymentInput) (Bill, error) {
	if s.idem != nil && input.IdempotencyKey != "" {
		if err := s.idem.CheckAndInsert(ctx, input.IdempotencyKey, "billing.payment"); err != nil {
			return Bill{}, err
		}
	}

	rec := ledger.PaymentRecord{
		Date:      input.Date,
		Amount:    input.Amount,
		Method:    input.Method,
		Reference: input.Reference,
	}

	err := s.repo.WithTx(ctx, func(tx TxRepository) error {
		bill, err := tx.GetForUpdate(ctx, billID)
		if err != nil {
			return err
		}

		_, totals, err := ledger.ApplyPayment(bill.Document(), rec)
		if err != nil {
			return err
		}

		if _, err := tx.InsertPayment(ctx, billID, rec); err != nil {
			return err
		}
		return tx.UpdateDerived(ctx, billID, totals, totals.PaymentStatus)
	})
	if err != nil {
		if s.idem != nil && input.IdempotencyKey != "" {
			if derr := s.idem.Delete(ctx, input.IdempotencyKey); derr != nil {
				s.logger.Warn("idempotency key cleanup failed", "key", input.IdempotencyKey, "error", derr)
			}
		}
		return Bill{}, err
	}

	s.recordAudit(ctx, "bill.payment", billID, map[string]any{
		"amount": input.Amount.String(),
		"method": string(input.Method),
	})
	s.invalidateCache(ctx)
	return s.repo.Get(ctx, billID)
}

// ListPayments returns the bill's append-only payment ledger.
func (s *Service) ListPayments(ctx context.Context, billID int64) ([]ledger.PaymentRecord, error) {
	bill, err := s.repo.Get(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.Payments == nil {
		return []ledger.PaymentRecord{}, nil
	}
	return bill.Payments, nil
}

// Aging buckets every outstanding bill by days past due.
func (s *Service) Aging(ctx context.Context, asOf time.Time) (AgingReport, error) {
	outstanding, err := s.repo.Outstanding(ctx)
	if err != nil {
		return AgingReport{}, err
	}

	labels := []string{"current", "1-30", "31-60", "61-90", "90+"}
	buckets := make([]AgingBucket, len(labels))
	for i, l := range labels {
		buckets[i] = AgingBucket{Label: l, Balance: decimal.Zero}
	}

	for _, b := range outstanding {
		idx := bucketIndex(asOf, b.DueDate)
		buckets[idx].Count++
		buckets[idx].Balance = buckets[idx].Balance.Add(b.BalanceDue)
	}
	return AgingReport{AsOf: asOf, Buckets: buckets}, nil
}

func bucketIndex(asOf, due time.Time) int {
	if !due.Before(asOf) {
		return 0
	}
	days := int(asOf.Sub(due).Hours() / 24)
	switch {
	case days <= 30:
		return 1
	case days <= 60:
		return 2
	case days <= 90:
		return 3
	default:
		return 4
	}
}

// fillLineAmounts writes the derived amount onto each line in place.
func fillLineAmounts(items []ledger.LineItem) error {
	for i := range items {
		amount, err := ledger.ComputeLineAmount(items[i])
		if err != nil {
			return err
		}
		items[i].Amount = amount
	}
	return nil
}

func (s *Service) invalidateCache(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("analytics cache invalidation failed", "error", err)
	}
}

func (s *Service) recordAudit(ctx context.Context, action string, billID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	var actorID int64
	if principal := shared.PrincipalFromContext(ctx); principal != nil {
		actorID = principal.UserID
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "bill",
		EntityID: strconv.FormatInt(billID, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", "action", action, "bill_id", billID, "error", err)
	}
}
