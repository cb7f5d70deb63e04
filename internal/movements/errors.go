package movements

import (
	"errors"
	"fmt"

	"github.com/stockpilot-wms/stockpilot/internal/platform/httpx"
)

// Sentinel errors for the movements module. Those wrapping an httpx
// sentinel get their HTTP status from httpx.RespondError.
var (
	ErrMissingIdentity        = fmt.Errorf("movements: no authenticated actor: %w", httpx.ErrUnauthorized)
	ErrInvalidStateTransition = fmt.Errorf("movements: transfer already resolved: %w", httpx.ErrConflict)
	ErrApprovalResolved       = fmt.Errorf("movements: approval already resolved: %w", httpx.ErrConflict)
	ErrStaleStock             = fmt.Errorf("movements: stock changed since snapshot: %w", httpx.ErrConflict)
	ErrMovementNotFound       = fmt.Errorf("movements: movement not found: %w", httpx.ErrNotFound)
	ErrNotTransfer            = errors.New("movements: movement is not a transfer")
	ErrNotEntry               = errors.New("movements: movement is not an entry")
	ErrRejectionReason        = errors.New("movements: rejection reason required")
)

// ValidationError carries the per-field error map of a rejected submission.
// It satisfies httpx.FieldErrors.
type ValidationError struct {
	fields map[string]string
}

// NewValidationError wraps a non-empty field error map.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{fields: fields}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "movements: validation failed"
}

// Fields returns the field-keyed error messages.
func (e *ValidationError) Fields() map[string]string {
	return e.fields
}

var _ httpx.FieldErrors = (*ValidationError)(nil)
