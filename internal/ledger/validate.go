package ledger

import (
	"fmt"
	"strings"
)

// Validate runs the gate a document must pass before persistence. Every
// failing check is collected; the gate never stops at the first error and
// never performs I/O.
func Validate(doc Document) FieldErrors {
	fields := FieldErrors{}

	if strings.TrimSpace(doc.Number) == "" {
		fields["number"] = "document number is required"
	}
	if doc.VendorID <= 0 {
		fields["vendor_id"] = "counterparty is required"
	}
	if doc.Kind != KindBill && doc.Kind != KindPurchaseOrder {
		fields["kind"] = "document kind is required"
	}
	if doc.IssueDate.IsZero() {
		fields["issue_date"] = "issue date is required"
	}
	if doc.DueDate.IsZero() {
		fields["due_date"] = "due date is required"
	} else if !doc.IssueDate.IsZero() && !doc.Kind.DueDateValid(doc.IssueDate, doc.DueDate) {
		if doc.Kind == KindPurchaseOrder {
			fields["due_date"] = "delivery date must be after the issue date"
		} else {
			fields["due_date"] = "due date must not be before the issue date"
		}
	}
	if strings.TrimSpace(doc.BillTo) == "" {
		fields["bill_to"] = "billing address is required"
	}

	if len(doc.Items) == 0 {
		fields["items"] = "at least one line item is required"
	}
	for i, item := range doc.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		if item.ItemID == nil && strings.TrimSpace(item.Name) == "" {
			fields[prefix+"name"] = "item name or catalog selection is required"
		}
		if !item.Category.Valid() {
			fields[prefix+"category"] = "unknown accounting category"
		}
		for k, v := range validateLineRanges(item) {
			fields[prefix+k] = v
		}
	}

	if !pctInRange(doc.TDSPct) {
		fields["tds_pct"] = "must be between 0 and 100"
	}

	paid := doc.AmountPaid()
	if paid.IsNegative() {
		fields["amount_paid"] = "must not be negative"
	} else if totals, err := DocumentTotals(doc); err == nil && paid.GreaterThan(totals.GrandTotal) {
		// DocumentTotals fails only on out-of-range lines, so the bound is
		// checked whenever a grand total exists, whatever else is wrong.
		fields["amount_paid"] = "must not exceed the grand total"
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}
