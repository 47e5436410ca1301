package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoPaymentLedger occurs when a payment targets a document kind
	// without a payment ledger.
	ErrNoPaymentLedger = errors.New("ledger: document kind does not accept payments")
)

// FieldErrors maps a field path to a human readable message. All failing
// checks are collected so the caller can surface every error at once.
type FieldErrors map[string]string

// ValidationError reports structural or numeric rule violations per field.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "ledger: validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "ledger: validation failed: " + strings.Join(parts, "; ")
}

// OverpaymentError rejects a payment exceeding the balance due. It carries
// the exact remaining balance so the caller can re-prompt.
type OverpaymentError struct {
	Attempted  decimal.Decimal
	BalanceDue decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("ledger: payment %s exceeds balance due %s",
		e.Attempted.String(), e.BalanceDue.String())
}

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// AsOverpaymentError unwraps err into an *OverpaymentError when possible.
func AsOverpaymentError(err error) (*OverpaymentError, bool) {
	var oe *OverpaymentError
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}
