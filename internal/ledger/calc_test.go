package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func line(qty, rate, disc, tax string) LineItem {
	return LineItem{
		Name:        "Test item",
		Category:    CategoryExpense,
		Quantity:    d(qty),
		Rate:        d(rate),
		DiscountPct: d(disc),
		TaxPct:      d(tax),
	}
}

func TestComputeLineAmountDiscountBeforeTax(t *testing.T) {
	// qty=2 rate=100 disc=10% tax=18%: base 200, after discount 180,
	// amount 180*1.18 = 212.40. Tax-before-discount would give 216.
	amount, err := ComputeLineAmount(line("2", "100", "10", "18"))
	require.NoError(t, err)
	require.True(t, amount.Equal(d("212.40")), "got %s", amount)
}

func TestComputeLineAmountRejectsOutOfRange(t *testing.T) {
	cases := map[string]LineItem{
		"zero quantity":     line("0", "100", "0", "0"),
		"negative quantity": line("-1", "100", "0", "0"),
		"negative rate":     line("1", "-5", "0", "0"),
		"discount over 100": line("1", "100", "101", "0"),
		"negative discount": line("1", "100", "-1", "0"),
		"tax over 100":      line("1", "100", "0", "100.5"),
	}
	for name, item := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ComputeLineAmount(item)
			ve, ok := AsValidationError(err)
			require.True(t, ok, "expected validation error, got %v", err)
			require.NotEmpty(t, ve.Fields)
		})
	}
}

func TestComputeTotalsTDSUsesRawSubtotal(t *testing.T) {
	// Heavy per-line discounts must not change the TDS base.
	items := []LineItem{
		line("5", "100", "50", "18"),
		line("1", "500", "90", "5"),
	}
	totals, err := ComputeTotals(items, d("10"), decimal.Zero, decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	require.True(t, totals.Subtotal.Equal(d("1000")), "subtotal %s", totals.Subtotal)
	require.True(t, totals.TDSAmount.Equal(d("100")), "tds %s", totals.TDSAmount)
}

func TestComputeTotalsGrandTotalIdentity(t *testing.T) {
	items := []LineItem{
		line("2", "100", "10", "18"),
		line("3", "49.99", "0", "12"),
		line("1", "1250", "25", "28"),
	}
	shipping := d("75.50")
	adjustment := d("-10.25")
	totals, err := ComputeTotals(items, d("2"), shipping, adjustment, decimal.Zero)
	require.NoError(t, err)

	identity := totals.Subtotal.
		Sub(totals.TotalDiscount).
		Add(totals.TotalTax).
		Sub(totals.TDSAmount).
		Add(shipping).
		Add(adjustment)
	require.True(t, totals.GrandTotal.Equal(identity),
		"grand total %s != identity %s", totals.GrandTotal, identity)
}

func TestComputeTotalsTaxOnPostDiscountBase(t *testing.T) {
	totals, err := ComputeTotals([]LineItem{line("2", "100", "10", "18")},
		decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	require.True(t, totals.TotalDiscount.Equal(d("20")))
	// 18% of 180, not of 200.
	require.True(t, totals.TotalTax.Equal(d("32.4")), "tax %s", totals.TotalTax)
	require.True(t, totals.GrandTotal.Equal(d("212.4")))
}

func TestComputeTotalsEmptyItemsAllZero(t *testing.T) {
	totals, err := ComputeTotals(nil, d("10"), decimal.Zero, decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	require.True(t, totals.Subtotal.IsZero())
	require.True(t, totals.TotalDiscount.IsZero())
	require.True(t, totals.TotalTax.IsZero())
	require.True(t, totals.TDSAmount.IsZero())
	require.True(t, totals.GrandTotal.IsZero())
	require.True(t, totals.BalanceDue.IsZero())
	require.Equal(t, StatusUnpaid, totals.PaymentStatus)
}

func TestComputeTotalsPropagatesLineErrorsWithIndex(t *testing.T) {
	items := []LineItem{
		line("1", "100", "0", "0"),
		line("0", "100", "0", "0"),
	}
	_, err := ComputeTotals(items, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	require.Contains(t, ve.Fields, "items[1].quantity")
}

func TestDerivePaymentStatusTransitionTable(t *testing.T) {
	total := d("500")
	require.Equal(t, StatusUnpaid, DerivePaymentStatus(total, decimal.Zero))
	require.Equal(t, StatusPartiallyPaid, DerivePaymentStatus(total, d("0.01")))
	require.Equal(t, StatusPartiallyPaid, DerivePaymentStatus(total, d("499.99")))
	require.Equal(t, StatusPaid, DerivePaymentStatus(total, d("500")))
	require.Equal(t, StatusPaid, DerivePaymentStatus(total, d("500.01")))
}

func TestRederivedTotalsAreStable(t *testing.T) {
	// Recomputing from the same stored inputs must reproduce the
	// aggregates exactly, with no drift between runs.
	doc := Document{
		Kind:  KindBill,
		Items: []LineItem{line("7", "142.85", "12.5", "18"), line("2", "99.95", "0", "5")},

		ShippingCharge: d("49"),
		Adjustment:     d("0.05"),
		TDSPct:         d("1"),
	}
	first, err := DocumentTotals(doc)
	require.NoError(t, err)
	second, err := DocumentTotals(doc)
	require.NoError(t, err)
	require.True(t, first.GrandTotal.Equal(second.GrandTotal))
	require.Equal(t, first.GrandTotal.String(), second.GrandTotal.String())
	require.Equal(t, first.Subtotal.String(), second.Subtotal.String())
	require.Equal(t, first.TotalTax.String(), second.TotalTax.String())
}
