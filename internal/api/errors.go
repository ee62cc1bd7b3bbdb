package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/yomu-api/internal/api/shared"
	"github.com/phrazzld/yomu-api/internal/domain"
	"github.com/phrazzld/yomu-api/internal/lexicon"
	"github.com/phrazzld/yomu-api/internal/service/capture"
	"github.com/phrazzld/yomu-api/internal/service/review"
	"github.com/phrazzld/yomu-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes by sentinel,
// so wrapped errors from any layer resolve the same way.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	// Not found errors
	case store.IsNotFoundError(err),
		errors.Is(err, review.ErrSessionNotFound):
		return http.StatusNotFound

	// Conflict errors
	case store.IsDuplicateError(err),
		errors.Is(err, store.ErrStaleCardState),
		errors.Is(err, review.ErrNotRevealed),
		errors.Is(err, review.ErrSessionComplete):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, lexicon.ErrEmptyText):
		return http.StatusBadRequest

	// Dependencies
	case errors.Is(err, store.ErrStoreUnavailable),
		errors.Is(err, lexicon.ErrTokenizerUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, lexicon.ErrLookupFailed):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err that never
// includes internal details.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"

	case errors.Is(err, store.ErrCardNotFound):
		return "Card not found"
	case errors.Is(err, review.ErrSessionNotFound):
		return "Review session not found or expired"
	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, capture.ErrAlreadyCaptured),
		errors.Is(err, store.ErrDuplicateIdentity):
		return "Word already captured"
	case errors.Is(err, store.ErrStaleCardState):
		return "Card was modified concurrently; reload and retry"
	case errors.Is(err, review.ErrNotRevealed):
		return "Reveal the card before rating it"
	case errors.Is(err, review.ErrSessionComplete):
		return "Review session is complete"
	case errors.Is(err, store.ErrDuplicate):
		return "Already exists"

	case errors.Is(err, domain.ErrInvalidRating):
		return "Rating must be one of forgot, hard, easy"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID format"
	case errors.Is(err, lexicon.ErrEmptyText):
		return "Text cannot be empty"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request"

	case errors.Is(err, lexicon.ErrTokenizerUnavailable):
		return "Text analysis is unavailable"
	case errors.Is(err, store.ErrStoreUnavailable):
		return "Storage is temporarily unavailable"
	case errors.Is(err, lexicon.ErrLookupFailed):
		return "Dictionary lookup failed"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the mapped status and safe message for err and logs
// the full error. A non-empty fallback replaces the generic message for
// unmapped internal errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		msg = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err)
}
