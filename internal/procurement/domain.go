// Package procurement manages purchase orders. Orders share the document
// engine with bills but carry no payment ledger; their lifecycle is the
// DRAFT, ISSUED, RECEIVED, CANCELLED workflow instead.
package procurement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/opsdesk/opsdesk/internal/ledger"
)

// Status is the purchase order lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusIssued    Status = "ISSUED"
	StatusReceived  Status = "RECEIVED"
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether the status is one of the fixed enumeration.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusIssued, StatusReceived, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether the workflow permits moving to the target
// state. Received and cancelled orders are terminal.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusDraft:
		return to == StatusIssued || to == StatusCancelled
	case StatusIssued:
		return to == StatusReceived || to == StatusCancelled
	}
	return false
}

// PurchaseOrder is a persisted purchase order. DeliveryDate maps onto the
// document due date and must fall strictly after the issue date.
type PurchaseOrder struct {
	ID             int64                `json:"id"`
	Number         string               `json:"number"`
	VendorID       int64                `json:"vendor_id"`
	Vendor         ledger.PartySnapshot `json:"vendor"`
	IssueDate      time.Time            `json:"issue_date"`
	DeliveryDate   time.Time            `json:"delivery_date"`
	BillTo         string               `json:"bill_to"`
	ShipTo         string               `json:"ship_to,omitempty"`
	Notes          string               `json:"notes,omitempty"`
	Terms          string               `json:"terms,omitempty"`
	Items          []ledger.LineItem    `json:"items"`
	ShippingCharge decimal.Decimal      `json:"shipping_charge"`
	Adjustment     decimal.Decimal      `json:"adjustment"`
	TDSPct         decimal.Decimal      `json:"tds_pct"`
	Totals         ledger.Totals        `json:"totals"`
	Status         Status               `json:"status"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// Document projects the order into the generic ledger document.
func (po PurchaseOrder) Document() ledger.Document {
	return ledger.Document{
		Kind:           ledger.KindPurchaseOrder,
		Number:         po.Number,
		VendorID:       po.VendorID,
		Vendor:         po.Vendor,
		IssueDate:      po.IssueDate,
		DueDate:        po.DeliveryDate,
		BillTo:         po.BillTo,
		ShipTo:         po.ShipTo,
		Notes:          po.Notes,
		Terms:          po.Terms,
		Items:          po.Items,
		ShippingCharge: po.ShippingCharge,
		Adjustment:     po.Adjustment,
		TDSPct:         po.TDSPct,
	}
}

// Summary is the listing row shape.
type Summary struct {
	ID           int64           `json:"id"`
	Number       string          `json:"number"`
	VendorName   string          `json:"vendor_name"`
	IssueDate    time.Time       `json:"issue_date"`
	DeliveryDate time.Time       `json:"delivery_date"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
	Status       Status          `json:"status"`
}

// ListFilters narrows purchase order listings.
type ListFilters struct {
	Page     int
	Limit    int
	Search   string
	Status   Status
	VendorID int64
}

// Offset returns the row offset implied by the filters.
func (f ListFilters) Offset() int {
	off := (f.Page - 1) * f.Limit
	if off < 0 {
		return 0
	}
	return off
}
