package httpx

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type fieldErr struct {
	fields map[string]string
}

func (e *fieldErr) Error() string             { return "validation failed" }
func (e *fieldErr) Fields() map[string]string { return e.fields }

func respond(t *testing.T, err error) (int, ProblemDetail) {
	t.Helper()
	rec := httptest.NewRecorder()
	RespondError(rec, err)

	var body ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec.Code, body
}

func TestRespondErrorStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", fmt.Errorf("order gone: %w", ErrNotFound), 404},
		{"duplicate", fmt.Errorf("sku taken: %w", ErrDuplicate), 409},
		{"conflict", fmt.Errorf("already resolved: %w", ErrConflict), 409},
		{"unauthorized", fmt.Errorf("no session: %w", ErrUnauthorized), 401},
		{"unknown", fmt.Errorf("disk on fire"), 500},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, body := respond(t, tc.err)
			require.Equal(t, tc.code, code)
			require.Equal(t, tc.code, body.Status)
		})
	}
}

func TestRespondErrorFieldMap(t *testing.T) {
	code, body := respond(t, &fieldErr{fields: map[string]string{"reason": "Reason is required"}})
	require.Equal(t, 422, code)
	require.Equal(t, "Reason is required", body.Errors["reason"])
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	_, body := respond(t, fmt.Errorf("pg: connection refused"))
	require.Empty(t, body.Detail)
}
