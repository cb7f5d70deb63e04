package movements

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockpilot-wms/stockpilot/internal/platform/httpx"
)

func respondErrorStatus(t *testing.T, err error) (int, httpx.ProblemDetail) {
	t.Helper()
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil)
	rec := httptest.NewRecorder()
	h.respondError(rec, err)

	var body httpx.ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec.Code, body
}

func TestRespondErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"missing identity", ErrMissingIdentity, 401},
		{"movement not found", ErrMovementNotFound, 404},
		{"transfer resolved", ErrInvalidStateTransition, 409},
		{"approval resolved", ErrApprovalResolved, 409},
		{"stale stock", ErrStaleStock, 409},
		{"duplicate tracking", ErrDuplicateTracking, 409},
		{"not a transfer", ErrNotTransfer, 400},
		{"not an entry", ErrNotEntry, 400},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, _ := respondErrorStatus(t, tc.err)
			require.Equal(t, tc.code, code)
		})
	}
}

func TestRespondErrorValidationFields(t *testing.T) {
	err := NewValidationError(map[string]string{"quantity_p-1": "Quantity must be a positive number"})
	code, body := respondErrorStatus(t, err)
	require.Equal(t, 422, code)
	require.Equal(t, "Quantity must be a positive number", body.Errors["quantity_p-1"])
}

func TestRespondErrorRejectionReason(t *testing.T) {
	code, body := respondErrorStatus(t, ErrRejectionReason)
	require.Equal(t, 422, code)
	require.Contains(t, body.Errors, "reason")
}
