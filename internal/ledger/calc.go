package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeLineAmount derives the amount for a single line item. Discount is
// applied before tax; the order is part of the contract. Out-of-range
// inputs are rejected, never clamped.
func ComputeLineAmount(item LineItem) (decimal.Decimal, error) {
	if fields := validateLineRanges(item); len(fields) > 0 {
		return decimal.Zero, &ValidationError{Fields: fields}
	}
	base := item.Quantity.Mul(item.Rate)
	afterDiscount := base.Sub(base.Mul(item.DiscountPct.Shift(-2)))
	return afterDiscount.Add(afterDiscount.Mul(item.TaxPct.Shift(-2))), nil
}

// ComputeTotals folds all line items plus the header charges into the
// document aggregates. An empty item list yields all-zero totals so partial
// entry states stay well defined; the validation gate rejects persistence
// of such documents separately.
//
// Tax is summed per line on the post-discount base so the result matches
// per-line rounding exactly. TDS is charged against the raw pre-discount
// subtotal, not the discounted one.
func ComputeTotals(items []LineItem, tdsPct, shipping, adjustment, amountPaid decimal.Decimal) (Totals, error) {
	subtotal := decimal.Zero
	totalDiscount := decimal.Zero
	totalTax := decimal.Zero

	for i, item := range items {
		if fields := validateLineRanges(item); len(fields) > 0 {
			prefixed := make(FieldErrors, len(fields))
			for k, v := range fields {
				prefixed[fmt.Sprintf("items[%d].%s", i, k)] = v
			}
			return Totals{}, &ValidationError{Fields: prefixed}
		}
		base := item.Quantity.Mul(item.Rate)
		discount := base.Mul(item.DiscountPct.Shift(-2))
		tax := base.Sub(discount).Mul(item.TaxPct.Shift(-2))

		subtotal = subtotal.Add(base)
		totalDiscount = totalDiscount.Add(discount)
		totalTax = totalTax.Add(tax)
	}

	tdsAmount := subtotal.Mul(tdsPct.Shift(-2))
	grandTotal := subtotal.Sub(totalDiscount).Add(totalTax).Sub(tdsAmount).Add(shipping).Add(adjustment)

	return Totals{
		Subtotal:      subtotal,
		TotalDiscount: totalDiscount,
		TotalTax:      totalTax,
		TDSAmount:     tdsAmount,
		GrandTotal:    grandTotal,
		AmountPaid:    amountPaid,
		BalanceDue:    grandTotal.Sub(amountPaid),
		PaymentStatus: DerivePaymentStatus(grandTotal, amountPaid),
	}, nil
}

// DocumentTotals recomputes the aggregates for a document from its current
// items, header charges and payment history. Pure and cheap; safe to run on
// every mutation.
func DocumentTotals(doc Document) (Totals, error) {
	return ComputeTotals(doc.Items, doc.TDSPct, doc.ShippingCharge, doc.Adjustment, doc.AmountPaid())
}

// DerivePaymentStatus classifies payment progress from amounts. The order
// of the checks is a total order: zero paid, short paid, fully paid.
// OVERDUE is never derived here.
func DerivePaymentStatus(grandTotal, amountPaid decimal.Decimal) PaymentStatus {
	switch {
	case amountPaid.IsZero():
		return StatusUnpaid
	case amountPaid.LessThan(grandTotal):
		return StatusPartiallyPaid
	default:
		return StatusPaid
	}
}

func validateLineRanges(item LineItem) FieldErrors {
	fields := FieldErrors{}
	if !item.Quantity.IsPositive() {
		fields["quantity"] = "must be greater than zero"
	}
	if item.Rate.IsNegative() {
		fields["rate"] = "must not be negative"
	}
	if !pctInRange(item.DiscountPct) {
		fields["discount_pct"] = "must be between 0 and 100"
	}
	if !pctInRange(item.TaxPct) {
		fields["tax_pct"] = "must be between 0 and 100"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func pctInRange(pct decimal.Decimal) bool {
	return !pct.IsNegative() && pct.LessThanOrEqual(hundred)
}
