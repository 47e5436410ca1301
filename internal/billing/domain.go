// Package billing manages vendor bills and their payment ledgers.
package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/opsdesk/opsdesk/internal/ledger"
)

// Status is the bill's lifecycle state. It is carried on the header
// independently of the derived payment status and never gates edits.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusOpen      Status = "OPEN"
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether the status is one of the fixed enumeration.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusOpen, StatusCancelled:
		return true
	}
	return false
}

// Bill is a persisted vendor bill. Totals and PaymentStatus are derived
// columns, recomputed from the line items and payment records on every
// write; Status is the independent lifecycle field.
type Bill struct {
	ID             int64                  `json:"id"`
	Number         string                 `json:"number"`
	VendorID       int64                  `json:"vendor_id"`
	Vendor         ledger.PartySnapshot   `json:"vendor"`
	IssueDate      time.Time              `json:"issue_date"`
	DueDate        time.Time              `json:"due_date"`
	BillTo         string                 `json:"bill_to"`
	ShipTo         string                 `json:"ship_to,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
	Terms          string                 `json:"terms,omitempty"`
	Items          []ledger.LineItem      `json:"items"`
	ShippingCharge decimal.Decimal        `json:"shipping_charge"`
	Adjustment     decimal.Decimal        `json:"adjustment"`
	TDSPct         decimal.Decimal        `json:"tds_pct"`
	Payments       []ledger.PaymentRecord `json:"payments"`
	Totals         ledger.Totals          `json:"totals"`
	Status         Status                 `json:"status"`
	PaymentStatus  ledger.PaymentStatus   `json:"payment_status"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// Document projects the bill into the generic ledger document for
// calculation and validation.
func (b Bill) Document() ledger.Document {
	return ledger.Document{
		Kind:           ledger.KindBill,
		Number:         b.Number,
		VendorID:       b.VendorID,
		Vendor:         b.Vendor,
		IssueDate:      b.IssueDate,
		DueDate:        b.DueDate,
		BillTo:         b.BillTo,
		ShipTo:         b.ShipTo,
		Notes:          b.Notes,
		Terms:          b.Terms,
		Items:          b.Items,
		ShippingCharge: b.ShippingCharge,
		Adjustment:     b.Adjustment,
		TDSPct:         b.TDSPct,
		Payments:       b.Payments,
	}
}

// Summary is the listing row shape.
type Summary struct {
	ID            int64                `json:"id"`
	Number        string               `json:"number"`
	VendorName    string               `json:"vendor_name"`
	IssueDate     time.Time            `json:"issue_date"`
	DueDate       time.Time            `json:"due_date"`
	GrandTotal    decimal.Decimal      `json:"grand_total"`
	BalanceDue    decimal.Decimal      `json:"balance_due"`
	Status        Status               `json:"status"`
	PaymentStatus ledger.PaymentStatus `json:"payment_status"`
}

// ListFilters narrows bill listings.
type ListFilters struct {
	Page          int
	Limit         int
	Search        string
	Status        Status
	PaymentStatus ledger.PaymentStatus
	VendorID      int64
}

// Offset returns the row offset implied by the filters.
func (f ListFilters) Offset() int {
	off := (f.Page - 1) * f.Limit
	if off < 0 {
		return 0
	}
	return off
}

// PaymentInput is a payment append request.
type PaymentInput struct {
	Date           time.Time            `json:"date"`
	Amount         decimal.Decimal      `json:"amount"`
	Method         ledger.PaymentMethod `json:"method"`
	Reference      string               `json:"reference"`
	IdempotencyKey string               `json:"-"`
}

// AgingBucket is one column of the receivables-style aging report over
// outstanding bills.
type AgingBucket struct {
	Label   string          `json:"label"`
	Count   int             `json:"count"`
	Balance decimal.Decimal `json:"balance"`
}

// AgingReport groups outstanding balances by days past due.
type AgingReport struct {
	AsOf    time.Time     `json:"as_of"`
	Buckets []AgingBucket `json:"buckets"`
}
