package service

import (
	"errors"
	"fmt"

	"relay_hub/internal/models"
)

var (
	ErrInvalidRelay     = errors.New("invalid relay")
	ErrInvalidMode      = errors.New("invalid mode: must be auto, on or off")
	ErrMalformedReport  = errors.New("malformed report")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// storeErr marks a persistence failure as ErrStoreUnavailable while keeping the cause.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// ParseReport decodes a device payload. Only a payload that is empty or not a
// JSON object is rejected; bad individual fields are treated as absent later.
func ParseReport(body []byte) (models.Report, error) {
	if len(body) == 0 {
		return models.Report{}, fmt.Errorf("%w: empty body", ErrMalformedReport)
	}
	r, err := models.DecodeReport(body)
	if err != nil {
		return models.Report{}, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}
	return r, nil
}
