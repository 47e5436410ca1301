package procurement

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/opsdesk/opsdesk/internal/ledger"
	"github.com/opsdesk/opsdesk/internal/platform/httpx"
	"github.com/opsdesk/opsdesk/internal/shared"
)

// VendorDirectory resolves the counterparty snapshot for an order.
type VendorDirectory interface {
	Snapshot(ctx context.Context, vendorID int64) (ledger.PartySnapshot, error)
}

// AuditRecorder persists an audit trail entry.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

type Service struct {
	repo    Repository
	vendors VendorDirectory
	audit   AuditRecorder
	logger  *slog.Logger
}

func NewService(repo Repository, vendors VendorDirectory, audit AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, vendors: vendors, audit: audit, logger: logger}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Summary, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (PurchaseOrder, error) {
	return s.repo.Get(ctx, id)
}

// Create validates the order and persists it in DRAFT. The delivery date
// must fall strictly after the issue date; the gate enforces that through
// the document kind.
func (s *Service) Create(ctx context.Context, input PurchaseOrder) (PurchaseOrder, error) {
	po := input
	po.ID = 0
	po.Status = StatusDraft

	snapshot, err := s.vendors.Snapshot(ctx, po.VendorID)
	if err == nil {
		po.Vendor = snapshot
	} else if po.VendorID > 0 {
		return PurchaseOrder{}, err
	}

	doc := po.Document()
	if fields := ledger.Validate(doc); fields != nil {
		return PurchaseOrder{}, &ledger.ValidationError{Fields: fields}
	}
	totals, err := ledger.DocumentTotals(doc)
	if err != nil {
		return PurchaseOrder{}, err
	}
	if err := fillLineAmounts(po.Items); err != nil {
		return PurchaseOrder{}, err
	}
	po.Totals = totals

	err = s.repo.WithTx(ctx, func(tx TxRepository) error {
		id, err := tx.Insert(ctx, po)
		if err != nil {
			return err
		}
		po.ID = id
		return tx.ReplaceItems(ctx, id, po.Items)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}

	s.recordAudit(ctx, "purchase_order.create", po.ID, map[string]any{"number": po.Number})
	return s.repo.Get(ctx, po.ID)
}

// Update rewrites the editable fields and recomputes totals. The workflow
// status does not gate edits; it only moves through Transition.
func (s *Service) Update(ctx context.Context, id int64, input PurchaseOrder) (PurchaseOrder, error) {
	err := s.repo.WithTx(ctx, func(tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		po := existing
		po.Number = input.Number
		po.IssueDate = input.IssueDate
		po.DeliveryDate = input.DeliveryDate
		po.BillTo = input.BillTo
		po.ShipTo = input.ShipTo
		po.Notes = input.Notes
		po.Terms = input.Terms
		po.Items = input.Items
		po.ShippingCharge = input.ShippingCharge
		po.Adjustment = input.Adjustment
		po.TDSPct = input.TDSPct

		if input.VendorID != 0 && input.VendorID != existing.VendorID {
			snapshot, err := s.vendors.Snapshot(ctx, input.VendorID)
			if err != nil {
				return err
			}
			po.VendorID = input.VendorID
			po.Vendor = snapshot
		}

		doc := po.Document()
		if fields := ledger.Validate(doc); fields != nil {
			return &ledger.ValidationError{Fields: fields}
		}
		totals, err := ledger.DocumentTotals(doc)
		if err != nil {
			return err
		}
		if err := fillLineAmounts(po.Items); err != nil {
			return err
		}
		po.Totals = totals

		if err := tx.Update(ctx, po); err != nil {
			return err
		}
		return tx.ReplaceItems(ctx, id, po.Items)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}

	s.recordAudit(ctx, "purchase_order.update", id, nil)
	return s.repo.Get(ctx, id)
}

// Transition moves the order along the workflow.
func (s *Service) Transition(ctx context.Context, id int64, to Status) (PurchaseOrder, error) {
	if !to.Valid() {
		return PurchaseOrder{}, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, to)
	}
	err := s.repo.WithTx(ctx, func(tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !existing.Status.CanTransition(to) {
			return fmt.Errorf("%w: cannot move %s order to %s", httpx.ErrValidation, existing.Status, to)
		}
		return tx.UpdateStatus(ctx, id, to)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}

	s.recordAudit(ctx, "purchase_order.transition", id, map[string]any{"to": string(to)})
	return s.repo.Get(ctx, id)
}

// Delete removes the order and its line items in any workflow state.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(tx TxRepository) error {
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "purchase_order.delete", id, nil)
	return nil
}

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

func (s *Service) recordAudit(ctx context.Context, action string, poID int64, meta map[string]any) {
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
		Entity:   "purchase_order",
		EntityID: strconv.FormatInt(poID, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", "action", action, "purchase_order_id", poID, "error", err)
	}
}
