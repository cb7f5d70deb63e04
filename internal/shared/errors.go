package shared

import (
	"fmt"

	"github.com/stockpilot-wms/stockpilot/internal/platform/httpx"
)

// Cross-module sentinel errors.
var (
	ErrNotFound           = fmt.Errorf("not found: %w", httpx.ErrNotFound)
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", httpx.ErrUnauthorized)
)
