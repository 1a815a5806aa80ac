package orderservice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"git.platform.alem.school/amibragim/quickserve/internal/app/orchestrator"
	"git.platform.alem.school/amibragim/quickserve/internal/domain/orders"
	"git.platform.alem.school/amibragim/quickserve/internal/ports"
	"git.platform.alem.school/amibragim/quickserve/internal/shared/logger"
)

// Handler adapts HTTP requests to the order orchestrator.
type Handler struct {
	orc    *orchestrator.Orchestrator
	repo   ports.OrderRepository
	logger *logger.Logger
}

// NewHandler wires an HTTP handler around the orchestrator and repository.
func NewHandler(orc *orchestrator.Orchestrator, repo ports.OrderRepository, log *logger.Logger) *Handler {
	return &Handler{orc: orc, repo: repo, logger: log}
}

// Register mounts the order routes on the provided mux.
func (handler *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders", handler.handleCreate)
	mux.HandleFunc("GET /orders/{id}", handler.handleGet)
	mux.HandleFunc("GET /orders/{id}/history", handler.handleHistory)
	mux.HandleFunc("POST /orders/{id}/advance", handler.handleAdvance)
	mux.HandleFunc("POST /orders/{id}/cancel", handler.handleCancel)
}

// --- Request/Response DTOs (HTTP boundary) ---

type createOrderRequest struct {
	Channel         string                   `json:"channel"`
	CustomerID      string                   `json:"customer_id"`
	Items           []createOrderItemRequest `json:"items"`
	PartySize       int                      `json:"party_size,omitempty"`
	VehicleType     string                   `json:"vehicle_type,omitempty"`
	DeliveryAddress string                   `json:"delivery_address,omitempty"`
	PickupName      string                   `json:"pickup_name,omitempty"`
}

type createOrderItemRequest struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"` // decimal dollars
}

type orderResponse struct {
	ID             string  `json:"id"`
	Channel        string  `json:"channel"`
	Status         string  `json:"status"`
	Subtotal       string  `json:"subtotal"`
	DiscountAmount string  `json:"discount_amount"`
	DiscountPolicy string  `json:"discount_policy,omitempty"`
	TaxAmount      string  `json:"tax_amount"`
	Total          string  `json:"total"`
	PrepTimeMin    int     `json:"prep_time_minutes"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
	CompletedAt    *string `json:"completed_at,omitempty"`
}

type advanceRequest struct {
	Status string `json:"status"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// --- Handlers ---

func (handler *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createOrderRequest
	if !handler.decode(ctx, w, r, &req) {
		return
	}

	cmd := ports.CreateOrderCommand{
		Channel:         orders.Channel(strings.TrimSpace(req.Channel)),
		CustomerID:      strings.TrimSpace(req.CustomerID),
		PartySize:       req.PartySize,
		VehicleType:     req.VehicleType,
		DeliveryAddress: req.DeliveryAddress,
		PickupName:      req.PickupName,
	}
	for _, item := range req.Items {
		cmd.Items = append(cmd.Items, ports.ItemInput{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: orders.MoneyFromFloat(item.UnitPrice),
		})
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	order, err := handler.orc.CreateOrder(ctxWithTimeout, cmd)
	if err != nil {
		handler.writeError(ctxWithTimeout, w, err)
		return
	}

	handler.writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	order, err := handler.repo.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		handler.writeError(r.Context(), w, err)
		return
	}
	handler.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (handler *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := handler.repo.ListHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		handler.writeError(r.Context(), w, err)
		return
	}

	type entry struct {
		Status    string `json:"status"`
		ChangedAt string `json:"changed_at"`
	}
	out := make([]entry, len(history))
	for i, h := range history {
		out[i] = entry{Status: string(h.Status), ChangedAt: h.ChangedAt.UTC().Format(time.RFC3339)}
	}
	handler.writeJSON(w, http.StatusOK, out)
}

func (handler *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req advanceRequest
	if !handler.decode(ctx, w, r, &req) {
		return
	}

	order, err := handler.orc.Advance(ctx, r.PathValue("id"), orders.Status(req.Status))
	if err != nil {
		handler.writeError(ctx, w, err)
		return
	}
	handler.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (handler *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req cancelRequest
	if !handler.decode(ctx, w, r, &req) {
		return
	}

	order, err := handler.orc.Cancel(ctx, r.PathValue("id"), req.Reason)
	if err != nil {
		handler.writeError(ctx, w, err)
		return
	}
	handler.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// --- helpers ---

// decode reads a JSON body strictly; on failure it answers 400 and returns
// false.
func (handler *Handler) decode(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		handler.writeJSON(w, http.StatusUnsupportedMediaType, errorResponse{Error: "Content-Type must be application/json"})
		return false
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		handler.logger.Debug(ctx, "request_decode_failed", "invalid JSON body", map[string]any{"error": err.Error()})
		handler.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

// writeError maps domain errors onto HTTP statuses: unknown order 404,
// illegal transition 409, unknown channel and validation problems 400.
func (handler *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		notFound    *orders.NotFoundError
		invalidMove *orders.InvalidTransitionError
		unknownChan *orders.UnknownChannelError
	)

	switch {
	case errors.As(err, &notFound):
		handler.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &invalidMove):
		handler.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &unknownChan):
		handler.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		handler.logger.Error(ctx, "request_timeout", "order operation timed out", err)
		handler.writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "operation timed out"})
	default:
		// constructor validation errors are plain errors; treat the rest of
		// the unknowns as client input problems, infra errors as 500
		handler.logger.Error(ctx, "order_request_failed", "order operation failed", err)
		handler.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
}

func (handler *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func toOrderResponse(order *orders.Order) orderResponse {
	resp := orderResponse{
		ID:             order.ID,
		Channel:        string(order.Channel),
		Status:         string(order.Status),
		Subtotal:       order.Subtotal.StringFixed(2),
		DiscountAmount: order.DiscountAmount().StringFixed(2),
		TaxAmount:      order.TaxAmount.StringFixed(2),
		Total:          order.Total.StringFixed(2),
		PrepTimeMin:    int(order.PrepTime.Minutes()),
		CreatedAt:      order.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      order.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if order.Discount != nil && order.Discount.Applicable {
		resp.DiscountPolicy = order.Discount.Policy
	}
	if order.CompletedAt != nil {
		t := order.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &t
	}
	return resp
}
