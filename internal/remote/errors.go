package remote

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dezobq/snapgram/internal/errs"
)

// APIError is returned by adapters when the platform answers with a non-2xx
// status.
type APIError struct {
	Status  int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote %d: %s (%s)", e.Status, e.Message, e.Type)
}

// StatusOf returns the HTTP status carried by err, 0 when err is not an APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsInvalid reports a rejection of the request itself.
func IsInvalid(err error) bool {
	switch StatusOf(err) {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

func IsUnauthorized(err error) bool {
	switch StatusOf(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}

// Classify maps an adapter error onto the errs taxonomy, tagging it with op.
// Errors already typed are returned unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var typed *errs.Error
	if errors.As(err, &typed) {
		return err
	}
	switch {
	case IsNotFound(err):
		return errs.NotFound(op, err)
	case IsInvalid(err):
		return &errs.Error{Op: op, Kind: errs.ErrValidation, Err: err}
	case IsUnauthorized(err):
		return errs.Unauthorized(op, err)
	}
	return errs.Remote(op, err)
}
