package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shadestock/api/internal/database"
	"github.com/shadestock/api/internal/enum"
	"github.com/shadestock/api/internal/fulfillment"
	"github.com/shadestock/api/internal/middleware"
	"github.com/shadestock/api/internal/policy"
	"github.com/shadestock/api/internal/service"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, actor service.Actor, req service.OrderRequest) (*service.OrderDetail, error)
	UpdateOrder(ctx context.Context, actor service.Actor, orderID uuid.UUID, req service.OrderRequest) (*service.OrderDetail, error)
	ToggleFulfillment(ctx context.Context, actor service.Actor, orderID, lineID uuid.UUID) (*service.OrderDetail, error)
	ForceClose(ctx context.Context, actor service.Actor, orderID uuid.UUID, confirmed bool) (*service.OrderDetail, error)
	SetAuthorization(ctx context.Context, actor service.Actor, orderID uuid.UUID, authorized *bool) (*service.OrderDetail, error)
	GetOrder(ctx context.Context, actor service.Actor, orderID uuid.UUID) (*service.OrderDetail, error)
	ListOrders(ctx context.Context, actor service.Actor, f service.ListFilter) ([]database.ListOrdersRow, error)
	PendingForClient(ctx context.Context, actor service.Actor, clientID, excludeOrderID uuid.UUID) ([]database.ListOpenOrdersByClientRow, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc OrderServicer
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAction(enum.ActionCreateOrder)).Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(middleware.RequireAction(enum.ActionEditOrder)).Put("/{id}", h.Update)
	r.With(middleware.RequireAction(enum.ActionToggleFulfillment)).Patch("/{id}/items/{lineID}/fulfillment", h.ToggleFulfillment)
	r.With(middleware.RequireAction(enum.ActionForceCloseOrder)).Post("/{id}/close", h.ForceClose)
	r.With(middleware.RequireAction(enum.ActionAuthorizeOrder)).Patch("/{id}/authorization", h.SetAuthorization)
}

// RegisterClientRoutes registers the per-client open order lookup.
// Expected to be mounted at /clients.
func (h *OrderHandler) RegisterClientRoutes(r chi.Router) {
	r.With(middleware.RequireAction(enum.ActionViewClients)).Get("/{id}/open-orders", h.OpenOrdersForClient)
}

// --- Request / Response types ---

type orderRequest struct {
	ClientID  string             `json:"client_id"`
	OrderDate string             `json:"order_date"`
	Notes     string             `json:"notes"`
	Items     []orderLineRequest `json:"items"`
}

type orderLineRequest struct {
	ItemID   string      `json:"item_id"`
	ShadeID  string      `json:"shade_id"`
	Quantity int32       `json:"quantity"`
	Rate     json.Number `json:"rate"`
}

type closeOrderRequest struct {
	Confirm bool `json:"confirm"`
}

type authorizationRequest struct {
	IsAuthorized *bool `json:"is_authorized"`
}

type orderResponse struct {
	ID           uuid.UUID           `json:"id"`
	OrderNumber  string              `json:"order_number"`
	ClientID     uuid.UUID           `json:"client_id"`
	ClientName   string              `json:"client_name"`
	CreatedBy    uuid.UUID           `json:"created_by"`
	CreatorName  string              `json:"creator_name"`
	OrderDate    string              `json:"order_date"`
	Status       string              `json:"status"`
	TotalAmount  string              `json:"total_amount"`
	Notes        string              `json:"notes"`
	IsAuthorized bool                `json:"is_authorized"`
	ClosedBy     *uuid.UUID          `json:"closed_by,omitempty"`
	CloserName   *string             `json:"closer_name,omitempty"`
	ClosedAt     *time.Time          `json:"closed_at,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	Items        []orderLineResponse `json:"items,omitempty"`
}

type orderLineResponse struct {
	ID            uuid.UUID  `json:"id"`
	ItemID        uuid.UUID  `json:"item_id"`
	ItemName      string     `json:"item_name"`
	ShadeID       uuid.UUID  `json:"shade_id"`
	ShadeNumber   string     `json:"shade_number"`
	ShadeName     string     `json:"shade_name"`
	Quantity      int32      `json:"quantity"`
	Rate          string     `json:"rate"`
	Amount        string     `json:"amount"`
	IsFulfilled   bool       `json:"is_fulfilled"`
	FulfilledAt   *time.Time `json:"fulfilled_at,omitempty"`
	FulfilledBy   *uuid.UUID `json:"fulfilled_by,omitempty"`
	FulfillerName *string    `json:"fulfiller_name,omitempty"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type openOrderResponse struct {
	ID               uuid.UUID `json:"id"`
	OrderNumber      string    `json:"order_number"`
	OrderDate        string    `json:"order_date"`
	Status           string    `json:"status"`
	TotalAmount      string    `json:"total_amount"`
	Notes            string    `json:"notes"`
	IsAuthorized     bool      `json:"is_authorized"`
	CreatorName      string    `json:"creator_name"`
	LineCount        int64     `json:"line_count"`
	UnfulfilledCount int64     `json:"unfulfilled_count"`
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := orderActor(w, r)
	if !ok {
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	detail, err := h.svc.CreateOrder(r.Context(), actor, req.toService())
	if err != nil {
		writeOrderError(w, "create order", err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderDetailResponse(detail, actor.Role))
}

// List handles GET /orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := orderActor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := service.ListFilter{Status: q.Get("status")}
	if s := q.Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			filter.Limit = v
		}
	}
	if s := q.Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			filter.Offset = v
		}
	}
	if s := q.Get("client_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid client_id"})
			return
		}
		filter.ClientID = id
	}

	rows, err := h.svc.ListOrders(r.Context(), actor, filter)
	if err != nil {
		writeOrderError(w, "list orders", err)
		return
	}

	resp := make([]orderResponse, len(rows))
	for i, o := range rows {
		resp[i] = listRowToResponse(o)
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Limit:  service.ListLimit(filter.Limit),
		Offset: filter.Offset,
	})
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := orderActor(w, r)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	detail, err := h.svc.GetOrder(r.Context(), actor, orderID)
	if err != nil {
		writeOrderError(w, "get order", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderDetailResponse(detail, actor.Role))
}

// Update handles PUT /orders/{id}.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := orderActor(w, r)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	detail, err := h.svc.UpdateOrder(r.Context(), actor, orderID, req.toService())
	if err != nil {
		writeOrderError(w, "update order", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderDetailResponse(detail, actor.Role))
}

// ToggleFulfillment handles PATCH /orders/{id}/items/{lineID}/fulfillment.
func (h *OrderHandler) ToggleFulfillment(w http.ResponseWriter, r *http.Request) {
	actor, ok := orderActor(w, r)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}
	lineID, err := uuid.Parse(chi.URLParam(r, "lineID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order line ID"})
		return
	}

	detail, err := h.svc.ToggleFulfillment(r.Context(), actor, orderID, lineID)
	if err != nil {
		writeOrderError(w, "toggle fulfillment", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderDetailResponse(detail, actor.Role))
}

// ForceClose handles POST /orders/{id}/close.
func (h *OrderHandler) ForceClose(w http.ResponseWriter, r *http.Request) {
	actor, ok := orderActor(w, r)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req closeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	detail, err := h.svc.ForceClose(r.Context(), actor, orderID, req.Confirm)
	if err != nil {
		writeOrderError(w, "force close order", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderDetailResponse(detail, actor.Role))
}

// SetAuthorization handles PATCH /orders/{id}/authorization. An empty body
// flips the flag.
func (h *OrderHandler) SetAuthorization(w http.ResponseWriter, r *http.Request) {
	actor, ok := orderActor(w, r)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req authorizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	detail, err := h.svc.SetAuthorization(r.Context(), actor, orderID, req.IsAuthorized)
	if err != nil {
		writeOrderError(w, "set order authorization", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderDetailResponse(detail, actor.Role))
}

// OpenOrdersForClient handles GET /clients/{id}/open-orders?exclude=<orderID>.
func (h *OrderHandler) OpenOrdersForClient(w http.ResponseWriter, r *http.Request) {
	actor, ok := orderActor(w, r)
	if !ok {
		return
	}
	clientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid client ID"})
		return
	}
	var exclude uuid.UUID
	if s := r.URL.Query().Get("exclude"); s != "" {
		exclude, err = uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid exclude order ID"})
			return
		}
	}

	rows, err := h.svc.PendingForClient(r.Context(), actor, clientID, exclude)
	if err != nil {
		writeOrderError(w, "list open orders", err)
		return
	}

	resp := make([]openOrderResponse, len(rows))
	for i, o := range rows {
		resp[i] = openOrderResponse{
			ID:               o.ID,
			OrderNumber:      o.OrderNumber,
			OrderDate:        dateToString(o.OrderDate),
			Status:           string(o.Status),
			TotalAmount:      numericToString(o.TotalAmount),
			Notes:            o.Notes,
			IsAuthorized:     o.IsAuthorized,
			CreatorName:      o.CreatorName,
			LineCount:        o.LineCount,
			UnfulfilledCount: o.UnfulfilledCount,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func orderActor(w http.ResponseWriter, r *http.Request) (service.Actor, bool) {
	id, role, ok := actorFromRequest(w, r)
	return service.Actor{ID: id, Role: role}, ok
}

func parseOrderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return uuid.Nil, false
	}
	return id, true
}

func (req orderRequest) toService() service.OrderRequest {
	items := make([]service.OrderLineRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.OrderLineRequest{
			ItemID:   item.ItemID,
			ShadeID:  item.ShadeID,
			Quantity: item.Quantity,
			Rate:     item.Rate.String(),
		}
	}
	return service.OrderRequest{
		ClientID:  req.ClientID,
		OrderDate: req.OrderDate,
		Notes:     req.Notes,
		Items:     items,
	}
}

// writeOrderError maps service and state machine errors to HTTP responses.
func writeOrderError(w http.ResponseWriter, op string, err error) {
	switch {
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
	case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrLineNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case isStateConflict(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// isValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrClientRequired) ||
		errors.Is(err, service.ErrInvalidClientID) ||
		errors.Is(err, service.ErrClientNotFound) ||
		errors.Is(err, service.ErrEmptyItems) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidRate) ||
		errors.Is(err, service.ErrAmountTooLarge) ||
		errors.Is(err, service.ErrInvalidItemID) ||
		errors.Is(err, service.ErrInvalidShadeID) ||
		errors.Is(err, service.ErrItemNotFound) ||
		errors.Is(err, service.ErrShadeNotFound) ||
		errors.Is(err, service.ErrShadeMismatch) ||
		errors.Is(err, service.ErrInvalidOrderDate) ||
		errors.Is(err, service.ErrInvalidStatus) ||
		errors.Is(err, service.ErrConfirmationRequired)
}

func isStateConflict(err error) bool {
	return errors.Is(err, service.ErrOrderNotEditable) ||
		errors.Is(err, fulfillment.ErrForceClosed) ||
		errors.Is(err, fulfillment.ErrCancelled) ||
		errors.Is(err, fulfillment.ErrAlreadyClosed)
}

func toOrderDetailResponse(d *service.OrderDetail, role string) orderResponse {
	o := d.Order
	resp := orderResponse{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		ClientID:     o.ClientID,
		ClientName:   o.ClientName,
		CreatedBy:    o.CreatedBy,
		CreatorName:  o.CreatorName,
		OrderDate:    dateToString(o.OrderDate),
		Status:       string(o.Status),
		TotalAmount:  numericToString(o.TotalAmount),
		Notes:        o.Notes,
		IsAuthorized: o.IsAuthorized,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		Items:        make([]orderLineResponse, len(d.Lines)),
	}
	setClosed(&resp, o.ClosedBy, o.CloserName, o.ClosedAt)

	showFulfiller := policy.RoleOnly(role, enum.ActionViewFulfiller)
	for i, l := range d.Lines {
		line := orderLineResponse{
			ID:          l.ID,
			ItemID:      l.ItemID,
			ItemName:    l.ItemName,
			ShadeID:     l.ShadeID,
			ShadeNumber: l.ShadeNumber,
			ShadeName:   l.ShadeName,
			Quantity:    l.Quantity,
			Rate:        numericToString(l.Rate),
			Amount:      numericToString(l.Amount),
			IsFulfilled: l.IsFulfilled,
		}
		if l.FulfilledAt.Valid {
			t := l.FulfilledAt.Time
			line.FulfilledAt = &t
		}
		if showFulfiller {
			if l.FulfilledBy.Valid {
				id := uuid.UUID(l.FulfilledBy.Bytes)
				line.FulfilledBy = &id
			}
			if l.FulfillerName.Valid {
				name := l.FulfillerName.String
				line.FulfillerName = &name
			}
		}
		resp.Items[i] = line
	}
	return resp
}

func listRowToResponse(o database.ListOrdersRow) orderResponse {
	resp := orderResponse{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		ClientID:     o.ClientID,
		ClientName:   o.ClientName,
		CreatedBy:    o.CreatedBy,
		CreatorName:  o.CreatorName,
		OrderDate:    dateToString(o.OrderDate),
		Status:       string(o.Status),
		TotalAmount:  numericToString(o.TotalAmount),
		Notes:        o.Notes,
		IsAuthorized: o.IsAuthorized,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
	setClosed(&resp, o.ClosedBy, o.CloserName, o.ClosedAt)
	return resp
}

func setClosed(resp *orderResponse, by pgtype.UUID, name pgtype.Text, at pgtype.Timestamptz) {
	if by.Valid {
		id := uuid.UUID(by.Bytes)
		resp.ClosedBy = &id
	}
	if name.Valid {
		s := name.String
		resp.CloserName = &s
	}
	if at.Valid {
		t := at.Time
		resp.ClosedAt = &t
	}
}

func dateToString(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format("2006-01-02")
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}
