package movements

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockpilot-wms/stockpilot/internal/observability"
	"github.com/stockpilot-wms/stockpilot/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the movement ledger.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		metrics:   metrics,
		validator: validator.New(),
	}
}

// MountRoutes registers movement routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/movements", h.submit)
	r.Get("/movements", h.list)
	r.Get("/movements/{id}", h.get)
	r.Post("/movements/{id}/receive", h.receiveTransfer)
	r.Post("/movements/{id}/reject", h.rejectTransfer)
	r.Post("/movements/{id}/approval", h.resolveApproval)
}

type selectionDTO struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  string `json:"quantity" validate:"required"`
	Price     string `json:"price,omitempty"`
}

type submitDTO struct {
	Type                 string         `json:"type" validate:"required,oneof=entry exit transfer adjustment"`
	Reason               string         `json:"reason" validate:"required"`
	Notes                string         `json:"notes,omitempty"`
	Batch                string         `json:"batch,omitempty"`
	SourceWarehouse      string         `json:"source_warehouse,omitempty"`
	DestinationWarehouse string         `json:"destination_warehouse,omitempty"`
	ExpectedDeliveryDate *time.Time     `json:"expected_delivery_date,omitempty"`
	TransportNotes       string         `json:"transport_notes,omitempty"`
	Attachments          []string       `json:"attachments,omitempty"`
	Products             []selectionDTO `json:"products" validate:"required,min=1,dive"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var dto submitDTO
	if err := httpx.DecodeJSON(r, &dto); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if fields, ok := h.validateDTO(dto); !ok {
		httpx.ProblemFields(w, http.StatusUnprocessableEntity, "Validation Failed", fields)
		return
	}

	in := SubmitInput{
		Type:                 MovementType(dto.Type),
		Reason:               dto.Reason,
		Notes:                dto.Notes,
		Batch:                dto.Batch,
		SourceWarehouse:      dto.SourceWarehouse,
		DestinationWarehouse: dto.DestinationWarehouse,
		ExpectedDeliveryDate: dto.ExpectedDeliveryDate,
		TransportNotes:       dto.TransportNotes,
		Attachments:          dto.Attachments,
		IdempotencyKey:       r.Header.Get("Idempotency-Key"),
	}
	for _, p := range dto.Products {
		in.Selections = append(in.Selections, ProductSelection{
			ProductID: p.ProductID,
			Quantity:  p.Quantity,
			Price:     p.Price,
		})
	}

	created, err := h.service.Submit(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	for range created {
		h.metrics.CountMovement(dto.Type)
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"movements": created})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		ProductID: q.Get("product_id"),
		Type:      MovementType(q.Get("type")),
		Warehouse: q.Get("warehouse"),
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil {
		filter.Offset = offset
	}

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if result == nil {
		result = []StockMovement{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"movements": result})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	movement, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, movement)
}

type receiveDTO struct {
	ActualDeliveryDate *time.Time `json:"actual_delivery_date,omitempty"`
}

func (h *Handler) receiveTransfer(w http.ResponseWriter, r *http.Request) {
	var dto receiveDTO
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &dto); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
			return
		}
	}

	movement, err := h.service.ReceiveTransfer(r.Context(), chi.URLParam(r, "id"), dto.ActualDeliveryDate)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, movement)
}

type rejectDTO struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) rejectTransfer(w http.ResponseWriter, r *http.Request) {
	var dto rejectDTO
	if err := httpx.DecodeJSON(r, &dto); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if fields, ok := h.validateDTO(dto); !ok {
		httpx.ProblemFields(w, http.StatusUnprocessableEntity, "Validation Failed", fields)
		return
	}

	movement, err := h.service.RejectTransfer(r.Context(), chi.URLParam(r, "id"), dto.Reason)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, movement)
}

type approvalDTO struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

func (h *Handler) resolveApproval(w http.ResponseWriter, r *http.Request) {
	var dto approvalDTO
	if err := httpx.DecodeJSON(r, &dto); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if fields, ok := h.validateDTO(dto); !ok {
		httpx.ProblemFields(w, http.StatusUnprocessableEntity, "Validation Failed", fields)
		return
	}

	movement, err := h.service.ResolveApproval(r.Context(), chi.URLParam(r, "id"), dto.Decision == "approve")
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, movement)
}

func (h *Handler) validateDTO(dto any) (map[string]string, bool) {
	err := h.validator.Struct(dto)
	if err == nil {
		return nil, true
	}
	fields := make(map[string]string)
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		for _, fieldErr := range vErrs {
			fields[fieldErr.Field()] = fieldErr.Tag()
		}
	}
	return fields, false
}

// respondError handles the sentinels httpx cannot classify and delegates
// the rest to httpx.RespondError.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var fieldErrs httpx.FieldErrors
	switch {
	case errors.Is(err, ErrRejectionReason):
		httpx.ProblemFields(w, http.StatusUnprocessableEntity, "Validation Failed", map[string]string{"reason": "Rejection reason is required"})
	case errors.Is(err, ErrNotTransfer):
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "movement is not a transfer")
	case errors.Is(err, ErrNotEntry):
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "movement is not a pending entry")
	case errors.As(err, &fieldErrs),
		errors.Is(err, httpx.ErrNotFound),
		errors.Is(err, httpx.ErrConflict),
		errors.Is(err, httpx.ErrDuplicate),
		errors.Is(err, httpx.ErrUnauthorized):
		httpx.RespondError(w, err)
	default:
		h.logger.Error("movement request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
