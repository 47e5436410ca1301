package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validBill() Document {
	return billFixture()
}

func TestValidateAcceptsCompleteBill(t *testing.T) {
	require.Nil(t, Validate(validBill()))
}

func TestValidateRequiredFields(t *testing.T) {
	doc := Document{Kind: KindBill}
	fields := Validate(doc)
	require.Contains(t, fields, "number")
	require.Contains(t, fields, "vendor_id")
	require.Contains(t, fields, "issue_date")
	require.Contains(t, fields, "due_date")
	require.Contains(t, fields, "bill_to")
	require.Contains(t, fields, "items")
}

func TestValidateRejectsEmptyItems(t *testing.T) {
	doc := validBill()
	doc.Items = nil
	fields := Validate(doc)
	require.Contains(t, fields, "items")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	doc := validBill()
	doc.Number = ""
	doc.BillTo = " "
	doc.Items[0].Quantity = d("0")
	doc.TDSPct = d("150")
	fields := Validate(doc)
	require.Contains(t, fields, "number")
	require.Contains(t, fields, "bill_to")
	require.Contains(t, fields, "items[0].quantity")
	require.Contains(t, fields, "tds_pct")
}

func TestValidateDueDateBoundaryByKind(t *testing.T) {
	issue := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	bill := validBill()
	bill.IssueDate = issue
	bill.DueDate = issue // same day is fine for bills
	require.Nil(t, Validate(bill))

	bill.DueDate = issue.AddDate(0, 0, -1)
	require.Contains(t, Validate(bill), "due_date")

	po := validBill()
	po.Kind = KindPurchaseOrder
	po.IssueDate = issue
	po.DueDate = issue // same day is rejected for purchase orders
	require.Contains(t, Validate(po), "due_date")

	po.DueDate = issue.AddDate(0, 0, 1)
	require.Nil(t, Validate(po))
}

func TestValidateLineItemChecks(t *testing.T) {
	doc := validBill()
	doc.Items = append(doc.Items, LineItem{
		Category:    Category("MISC"),
		Quantity:    d("1"),
		Rate:        d("10"),
		DiscountPct: d("0"),
		TaxPct:      d("0"),
	})
	fields := Validate(doc)
	require.Contains(t, fields, "items[1].name")
	require.Contains(t, fields, "items[1].category")

	// A catalog reference satisfies the name requirement.
	itemID := int64(42)
	doc.Items[1].ItemID = &itemID
	doc.Items[1].Category = CategoryInventory
	require.Nil(t, Validate(doc))
}

func TestValidateAmountPaidBounds(t *testing.T) {
	doc := validBill() // grand total 212.40
	doc.Payments = []PaymentRecord{{
		Date:   doc.IssueDate,
		Amount: d("300"),
		Method: MethodCash,
	}}
	fields := Validate(doc)
	require.Contains(t, fields, "amount_paid")

	doc.Payments[0].Amount = d("212.40")
	require.Nil(t, Validate(doc))
}

func TestValidateAmountPaidBoundSurvivesOtherErrors(t *testing.T) {
	doc := validBill() // grand total 212.40
	doc.Number = ""
	doc.Payments = []PaymentRecord{{
		Date:   doc.IssueDate,
		Amount: d("300"),
		Method: MethodCash,
	}}
	fields := Validate(doc)
	require.Contains(t, fields, "number")
	require.Contains(t, fields, "amount_paid")
}
