package httpx

import (
	"errors"
	"net/http"

	"github.com/opsdesk/opsdesk/internal/ledger"
	"github.com/opsdesk/opsdesk/internal/shared"
)

// Sentinel errors shared across modules.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Validation and overpayment failures keep their structured payloads so the
// console can render every field error at once.
func RespondError(w http.ResponseWriter, err error) {
	if ve, ok := ledger.AsValidationError(err); ok {
		JSON(w, http.StatusBadRequest, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Fields: ve.Fields,
		})
		return
	}
	if oe, ok := ledger.AsOverpaymentError(err); ok {
		JSON(w, http.StatusUnprocessableEntity, ProblemDetail{
			Title:      "Overpayment Rejected",
			Status:     http.StatusUnprocessableEntity,
			Detail:     oe.Error(),
			BalanceDue: oe.BalanceDue.String(),
		})
		return
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate), errors.Is(err, shared.ErrIdempotencyConflict), errors.Is(err, shared.ErrDuplicateNumber):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrUnauthorized), errors.Is(err, shared.ErrTokenInvalid), errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
