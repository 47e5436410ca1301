package ledger

// ApplyPayment validates and appends a payment record, returning the
// updated document and its recomputed totals. The input document is not
// mutated: either the record is appended and reflected in the totals, or
// the original value stands untouched.
func ApplyPayment(doc Document, record PaymentRecord) (Document, Totals, error) {
	if !doc.Kind.HasPaymentLedger() {
		return doc, Totals{}, ErrNoPaymentLedger
	}

	fields := FieldErrors{}
	if !record.Amount.IsPositive() {
		fields["amount"] = "must be greater than zero"
	}
	if record.Date.IsZero() {
		fields["date"] = "payment date is required"
	}
	if !record.Method.Valid() {
		fields["method"] = "unknown payment method"
	}
	if len(fields) > 0 {
		return doc, Totals{}, &ValidationError{Fields: fields}
	}

	current, err := DocumentTotals(doc)
	if err != nil {
		return doc, Totals{}, err
	}
	if record.Amount.GreaterThan(current.BalanceDue) {
		return doc, Totals{}, &OverpaymentError{
			Attempted:  record.Amount,
			BalanceDue: current.BalanceDue,
		}
	}

	updated := doc
	updated.Payments = append(append([]PaymentRecord(nil), doc.Payments...), record)
	totals, err := DocumentTotals(updated)
	if err != nil {
		return doc, Totals{}, err
	}
	return updated, totals, nil
}
