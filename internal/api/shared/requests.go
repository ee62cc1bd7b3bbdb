package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/yomu-api/internal/domain"
)

// MaxBodyBytes caps the size of a decoded request body.
const MaxBodyBytes = 1 << 20

// Global validator instance for reuse
var validate = validator.New()

// DecodeJSON decodes the request body into v. Bodies larger than
// MaxBodyBytes, trailing data and malformed JSON are reported as
// domain.ErrValidation.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", domain.ErrValidation)
		}
		return fmt.Errorf("%w: malformed request body: %v", domain.ErrValidation, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after request body", domain.ErrValidation)
	}
	return nil
}

// ValidateRequest validates the given struct using the validator package.
// Failures wrap domain.ErrValidation.
func ValidateRequest(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return nil
}

// DecodeAndValidate decodes the body into v and validates it.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, v any) error {
	if err := DecodeJSON(w, r, v); err != nil {
		return err
	}
	return ValidateRequest(v)
}
