// Package ledger implements the billing document engine: per-line amount
// calculation, document-level aggregation, the payment ledger and the
// validation gate shared by bills and purchase orders.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind selects the document policy (due-date rule, payment ledger).
type Kind string

const (
	KindBill          Kind = "BILL"
	KindPurchaseOrder Kind = "PURCHASE_ORDER"
)

// HasPaymentLedger reports whether payments may be applied to this kind.
func (k Kind) HasPaymentLedger() bool {
	return k == KindBill
}

// DueDateValid applies the kind-specific comparison. Bills allow the due
// date to equal the issue date; purchase orders require delivery strictly
// after issue.
func (k Kind) DueDateValid(issue, due time.Time) bool {
	switch k {
	case KindPurchaseOrder:
		return due.After(issue)
	default:
		return !due.Before(issue)
	}
}

// Category is the accounting classification of a line item.
type Category string

const (
	CategoryCOGS       Category = "COST_OF_GOODS_SOLD"
	CategoryExpense    Category = "EXPENSE"
	CategoryInventory  Category = "INVENTORY"
	CategoryFixedAsset Category = "FIXED_ASSET"
	CategoryOther      Category = "OTHER"
)

// Valid reports whether the category is one of the fixed enumeration.
func (c Category) Valid() bool {
	switch c {
	case CategoryCOGS, CategoryExpense, CategoryInventory, CategoryFixedAsset, CategoryOther:
		return true
	}
	return false
}

// PaymentMethod enumerates accepted payment channels.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodCheque       PaymentMethod = "CHEQUE"
	MethodCard         PaymentMethod = "CARD"
	MethodUPI          PaymentMethod = "UPI"
	MethodOther        PaymentMethod = "OTHER"
)

// Valid reports whether the method is one of the fixed enumeration.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodCheque, MethodCard, MethodUPI, MethodOther:
		return true
	}
	return false
}

// PaymentStatus classifies payment progress on a document.
type PaymentStatus string

const (
	StatusUnpaid        PaymentStatus = "UNPAID"
	StatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	StatusPaid          PaymentStatus = "PAID"
	// StatusOverdue is assigned by the overdue scan job from due dates.
	// DerivePaymentStatus never produces it from amounts alone.
	StatusOverdue PaymentStatus = "OVERDUE"
)

// LineItem is one entry on a document. Amount is always derived from the
// other numeric fields, never set directly.
type LineItem struct {
	ItemID      *int64          `json:"item_id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    Category        `json:"category"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	TaxPct      decimal.Decimal `json:"tax_pct"`
	Amount      decimal.Decimal `json:"amount"`
}

// PartySnapshot is a copy of the counterparty's contact fields taken when
// the document is created. Later vendor edits do not rewrite it.
type PartySnapshot struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	GSTIN   string `json:"gstin,omitempty"`
}

// PaymentRecord is one payment applied against a document. Records are
// append-only; a mis-entered payment is corrected with a balancing entry.
type PaymentRecord struct {
	ID        int64           `json:"id"`
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	Reference string          `json:"reference,omitempty"`
}

// Document is the generic billing document. Bills and purchase orders share
// the same shape; Kind selects the policy differences.
type Document struct {
	Kind      Kind
	Number    string
	VendorID  int64
	Vendor    PartySnapshot
	IssueDate time.Time
	DueDate   time.Time
	BillTo    string
	ShipTo    string
	Notes     string
	Terms     string

	Items []LineItem

	ShippingCharge decimal.Decimal
	Adjustment     decimal.Decimal
	TDSPct         decimal.Decimal

	Payments []PaymentRecord
}

// AmountPaid sums all payment records on the document.
func (d Document) AmountPaid() decimal.Decimal {
	paid := decimal.Zero
	for _, p := range d.Payments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

// Totals are the derived aggregates for a document.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	TotalTax      decimal.Decimal `json:"total_tax"`
	TDSAmount     decimal.Decimal `json:"tds_amount"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
}
