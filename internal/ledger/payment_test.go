package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func billFixture() Document {
	return Document{
		Kind:      KindBill,
		Number:    "BILL-2026-0042",
		VendorID:  7,
		IssueDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		BillTo:    "14 MG Road, Pune",
		Items:     []LineItem{line("2", "100", "10", "18")}, // grand total 212.40
	}
}

func payment(amount string) PaymentRecord {
	return PaymentRecord{
		Date:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Amount: d(amount),
		Method: MethodUPI,
	}
}

func TestApplyPaymentReducesBalance(t *testing.T) {
	doc := billFixture()
	updated, totals, err := ApplyPayment(doc, payment("100"))
	require.NoError(t, err)
	require.Len(t, updated.Payments, 1)
	require.True(t, totals.BalanceDue.Equal(d("112.40")), "balance %s", totals.BalanceDue)
	require.Equal(t, StatusPartiallyPaid, totals.PaymentStatus)

	// Monotonic: every further valid payment strictly reduces the balance.
	updated, totals2, err := ApplyPayment(updated, payment("112.40"))
	require.NoError(t, err)
	require.Len(t, updated.Payments, 2)
	require.True(t, totals2.BalanceDue.IsZero())
	require.True(t, totals2.BalanceDue.LessThan(totals.BalanceDue))
	require.Equal(t, StatusPaid, totals2.PaymentStatus)
}

func TestApplyPaymentRejectsOverpayment(t *testing.T) {
	doc := billFixture()
	_, _, err := ApplyPayment(doc, payment("212.41"))
	oe, ok := AsOverpaymentError(err)
	require.True(t, ok, "expected overpayment error, got %v", err)
	require.True(t, oe.BalanceDue.Equal(d("212.40")))
	require.True(t, oe.Attempted.Equal(d("212.41")))

	// Idempotent failure: neither payment history nor totals moved.
	require.Empty(t, doc.Payments)
	totals, err := DocumentTotals(doc)
	require.NoError(t, err)
	require.True(t, totals.BalanceDue.Equal(d("212.40")))
	require.Equal(t, StatusUnpaid, totals.PaymentStatus)
}

func TestApplyPaymentExactBalanceIsAccepted(t *testing.T) {
	doc := billFixture()
	_, totals, err := ApplyPayment(doc, payment("212.40"))
	require.NoError(t, err)
	require.Equal(t, StatusPaid, totals.PaymentStatus)
	require.True(t, totals.BalanceDue.IsZero())
}

func TestApplyPaymentValidatesRecord(t *testing.T) {
	doc := billFixture()

	_, _, err := ApplyPayment(doc, PaymentRecord{Date: time.Now(), Amount: decimal.Zero, Method: MethodCash})
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	require.Contains(t, ve.Fields, "amount")

	_, _, err = ApplyPayment(doc, PaymentRecord{Amount: d("10"), Method: MethodCash})
	ve, ok = AsValidationError(err)
	require.True(t, ok)
	require.Contains(t, ve.Fields, "date")

	_, _, err = ApplyPayment(doc, PaymentRecord{Date: time.Now(), Amount: d("10"), Method: PaymentMethod("IOU")})
	ve, ok = AsValidationError(err)
	require.True(t, ok)
	require.Contains(t, ve.Fields, "method")
}

func TestApplyPaymentRejectedForPurchaseOrders(t *testing.T) {
	doc := billFixture()
	doc.Kind = KindPurchaseOrder
	_, _, err := ApplyPayment(doc, payment("10"))
	require.ErrorIs(t, err, ErrNoPaymentLedger)
}

func TestApplyPaymentDoesNotMutateInput(t *testing.T) {
	doc := billFixture()
	updated, _, err := ApplyPayment(doc, payment("50"))
	require.NoError(t, err)
	require.Empty(t, doc.Payments)
	require.Len(t, updated.Payments, 1)
}
