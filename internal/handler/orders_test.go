package handler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shadestock/api/internal/database"
	"github.com/shadestock/api/internal/enum"
	"github.com/shadestock/api/internal/fulfillment"
	"github.com/shadestock/api/internal/handler"
	"github.com/shadestock/api/internal/service"
)

// --- Mock service ---

type mockOrderService struct {
	detail *service.OrderDetail
	err    error

	lastActor     service.Actor
	lastOrderID   uuid.UUID
	lastLineID    uuid.UUID
	lastRequest   service.OrderRequest
	lastFilter    service.ListFilter
	lastConfirmed bool
	lastAuth      *bool
	lastClientID  uuid.UUID
	lastExclude   uuid.UUID
	calls         int

	listRows []database.ListOrdersRow
	openRows []database.ListOpenOrdersByClientRow
}

func (m *mockOrderService) result() (*service.OrderDetail, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.detail, nil
}

func (m *mockOrderService) CreateOrder(_ context.Context, actor service.Actor, req service.OrderRequest) (*service.OrderDetail, error) {
	m.lastActor, m.lastRequest = actor, req
	return m.result()
}

func (m *mockOrderService) UpdateOrder(_ context.Context, actor service.Actor, orderID uuid.UUID, req service.OrderRequest) (*service.OrderDetail, error) {
	m.lastActor, m.lastOrderID, m.lastRequest = actor, orderID, req
	return m.result()
}

func (m *mockOrderService) ToggleFulfillment(_ context.Context, actor service.Actor, orderID, lineID uuid.UUID) (*service.OrderDetail, error) {
	m.lastActor, m.lastOrderID, m.lastLineID = actor, orderID, lineID
	return m.result()
}

func (m *mockOrderService) ForceClose(_ context.Context, actor service.Actor, orderID uuid.UUID, confirmed bool) (*service.OrderDetail, error) {
	m.lastActor, m.lastOrderID, m.lastConfirmed = actor, orderID, confirmed
	return m.result()
}

func (m *mockOrderService) SetAuthorization(_ context.Context, actor service.Actor, orderID uuid.UUID, authorized *bool) (*service.OrderDetail, error) {
	m.lastActor, m.lastOrderID, m.lastAuth = actor, orderID, authorized
	return m.result()
}

func (m *mockOrderService) GetOrder(_ context.Context, actor service.Actor, orderID uuid.UUID) (*service.OrderDetail, error) {
	m.lastActor, m.lastOrderID = actor, orderID
	return m.result()
}

func (m *mockOrderService) ListOrders(_ context.Context, actor service.Actor, f service.ListFilter) ([]database.ListOrdersRow, error) {
	m.calls++
	m.lastActor, m.lastFilter = actor, f
	if m.err != nil {
		return nil, m.err
	}
	return m.listRows, nil
}

func (m *mockOrderService) PendingForClient(_ context.Context, actor service.Actor, clientID, excludeOrderID uuid.UUID) ([]database.ListOpenOrdersByClientRow, error) {
	m.calls++
	m.lastActor, m.lastClientID, m.lastExclude = actor, clientID, excludeOrderID
	if m.err != nil {
		return nil, m.err
	}
	return m.openRows, nil
}

// --- Helpers ---

func mustNumeric(t *testing.T, s string) pgtype.Numeric {
	t.Helper()
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		t.Fatalf("numeric %q: %v", s, err)
	}
	return n
}

func makeOrderDetail(t *testing.T) *service.OrderDetail {
	t.Helper()
	orderID := uuid.New()
	clerkID := uuid.New()
	fulfilledAt := time.Date(2026, 5, 6, 15, 0, 0, 0, time.UTC)
	return &service.OrderDetail{
		Order: database.GetOrderDetailRow{
			ID:          orderID,
			OrderSeq:    1,
			OrderNumber: "ORD-00001",
			ClientID:    uuid.New(),
			CreatedBy:   uuid.New(),
			OrderDate:   pgtype.Date{Time: time.Date(2026, 5, 6, 0, 0, 0, 0, time.UTC), Valid: true},
			Status:      database.OrderStatusPending,
			TotalAmount: mustNumeric(t, "27.2"),
			ClientName:  "Acme Paints",
			CreatorName: "Sari",
		},
		Lines: []database.ListOrderItemsByOrderRow{
			{
				ID:            uuid.New(),
				OrderID:       orderID,
				ItemID:        uuid.New(),
				ShadeID:       uuid.New(),
				Quantity:      2,
				Rate:          mustNumeric(t, "10"),
				Amount:        mustNumeric(t, "20"),
				IsFulfilled:   true,
				FulfilledBy:   pgtype.UUID{Bytes: clerkID, Valid: true},
				FulfilledAt:   pgtype.Timestamptz{Time: fulfilledAt, Valid: true},
				ItemName:      "Silk Thread",
				ShadeNumber:   "101",
				ShadeName:     "Crimson",
				FulfillerName: pgtype.Text{String: "Budi", Valid: true},
			},
			{
				ID:          uuid.New(),
				OrderID:     orderID,
				ItemID:      uuid.New(),
				ShadeID:     uuid.New(),
				Quantity:    3,
				Rate:        mustNumeric(t, "2.4"),
				Amount:      mustNumeric(t, "7.2"),
				ItemName:    "Silk Thread",
				ShadeNumber: "102",
			},
		},
	}
}

func setupOrderRouter(svc *mockOrderService, actorID uuid.UUID, role string) http.Handler {
	h := handler.NewOrderHandler(svc)
	r := chi.NewRouter()
	r.Use(asActor(actorID, role))
	r.Route("/orders", h.RegisterRoutes)
	r.Route("/clients", h.RegisterClientRoutes)
	return r
}

func validOrderBody() map[string]interface{} {
	return map[string]interface{}{
		"client_id":  uuid.NewString(),
		"order_date": "2026-05-06",
		"notes":      "deliver before noon",
		"items": []map[string]interface{}{
			{"item_id": uuid.NewString(), "shade_id": uuid.NewString(), "quantity": 2, "rate": "10.00"},
			{"item_id": uuid.NewString(), "shade_id": uuid.NewString(), "quantity": 3, "rate": 2.4},
		},
	}
}

// --- Create tests ---

func TestOrderCreate(t *testing.T) {
	svc := &mockOrderService{detail: makeOrderDetail(t)}
	actorID := uuid.New()
	r := setupOrderRouter(svc, actorID, enum.UserRoleSales)

	rr := postJSON(t, r, "/orders", validOrderBody())

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if svc.lastActor.ID != actorID || svc.lastActor.Role != enum.UserRoleSales {
		t.Errorf("actor: got %+v", svc.lastActor)
	}
	if len(svc.lastRequest.Items) != 2 {
		t.Fatalf("items: got %d, want 2", len(svc.lastRequest.Items))
	}
	if svc.lastRequest.Items[0].Rate != "10.00" || svc.lastRequest.Items[1].Rate != "2.4" {
		t.Errorf("rates: got %q, %q", svc.lastRequest.Items[0].Rate, svc.lastRequest.Items[1].Rate)
	}

	resp := decodeResponse(t, rr)
	if resp["order_number"] != "ORD-00001" {
		t.Errorf("order_number: got %v, want ORD-00001", resp["order_number"])
	}
	if resp["total_amount"] != "27.20" {
		t.Errorf("total_amount: got %v, want 27.20", resp["total_amount"])
	}
	if resp["order_date"] != "2026-05-06" {
		t.Errorf("order_date: got %v, want 2026-05-06", resp["order_date"])
	}
}

func TestOrderCreate_ClerkForbidden(t *testing.T) {
	svc := &mockOrderService{detail: makeOrderDetail(t)}
	r := setupOrderRouter(svc, uuid.New(), enum.UserRoleClerk)

	rr := postJSON(t, r, "/orders", validOrderBody())

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
	if svc.calls != 0 {
		t.Errorf("service calls: got %d, want 0", svc.calls)
	}
}

func TestOrderCreate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"empty items", service.ErrEmptyItems, http.StatusBadRequest},
		{"bad quantity", service.ErrInvalidQuantity, http.StatusBadRequest},
		{"shade mismatch", service.ErrShadeMismatch, http.StatusBadRequest},
		{"sub-cent rate", fmt.Errorf("item[0]: %w", service.ErrInvalidRate), http.StatusBadRequest},
		{"amount too large", fmt.Errorf("item[1]: %w", service.ErrAmountTooLarge), http.StatusBadRequest},
		{"client missing", service.ErrClientNotFound, http.StatusBadRequest},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"backend", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockOrderService{err: tt.err}
			r := setupOrderRouter(svc, uuid.New(), enum.UserRoleManager)

			rr := postJSON(t, r, "/orders", validOrderBody())

			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusInternalServerError {
				if resp := decodeResponse(t, rr); resp["error"] != "internal server error" {
					t.Errorf("error: got %v, want generic message", resp["error"])
				}
			}
		})
	}
}

func TestOrderCreate_InvalidBody(t *testing.T) {
	svc := &mockOrderService{}
	r := setupOrderRouter(svc, uuid.New(), enum.UserRoleSales)

	req := httptest.NewRequest("POST", "/orders", strings.NewReader(`{"items": "nope"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Read tests ---

func TestOrderList_PassesFilter(t *testing.T) {
	svc := &mockOrderService{listRows: []database.ListOrdersRow{{ID: uuid.New(), OrderNumber: "ORD-00002", Status: database.OrderStatusOpen}}}
	clientID := uuid.New()
	r := setupOrderRouter(svc, uuid.New(), enum.UserRoleSales)

	rr := doJSON(t, r, "GET", "/orders?status=open&limit=500&offset=40&client_id="+clientID.String(), "", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	want := service.ListFilter{Status: "open", ClientID: clientID, Limit: 500, Offset: 40}
	if svc.lastFilter != want {
		t.Errorf("filter: got %+v, want %+v", svc.lastFilter, want)
	}

	resp := decodeResponse(t, rr)
	if resp["limit"] != float64(100) {
		t.Errorf("limit: got %v, want 100", resp["limit"])
	}
	orders, _ := resp["orders"].([]interface{})
	if len(orders) != 1 {
		t.Errorf("orders: got %d, want 1", len(orders))
	}
}

func TestOrderList_InvalidStatus(t *testing.T) {
	svc := &mockOrderService{err: service.ErrInvalidStatus}
	r := setupOrderRouter(svc, uuid.New(), enum.UserRoleAdmin)

	rr := doJSON(t, r, "GET", "/orders?status=shipped", "", nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderList_InvalidClientID(t *testing.T) {
	svc := &mockOrderService{}
	r := setupOrderRouter(svc, uuid.New(), enum.UserRoleAdmin)

	rr := doJSON(t, r, "GET", "/orders?client_id=abc", "", nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if svc.calls != 0 {
		t.Errorf("service calls: got %d, want 0", svc.calls)
	}
}

func TestOrderGet_NotFound(t *testing.T) {
	svc := &mockOrderService{err: service.ErrOrderNotFound}
	r := setupOrderRouter(svc, uuid.New(), enum.UserRoleSales)

	rr := doJSON(t, r, "GET", "/orders/"+uuid.NewString(), "", nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestOrderGet_FulfillerVisibility(t *testing.T) {
	tests := []struct {
		role string
		show bool
	}{
		{enum.UserRoleAdmin, true},
		{enum.UserRoleManager, false},
		{enum.UserRoleClerk, false},
		{enum.UserRoleSales, false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			svc := &mockOrderService{detail: makeOrderDetail(t)}
			r := setupOrderRouter(svc, uuid.New(), tt.role)

			rr := doJSON(t, r, "GET", "/orders/"+svc.detail.Order.ID.String(), "", nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
			}

			resp := decodeResponse(t, rr)
			items := resp["items"].([]interface{})
			line := items[0].(map[string]interface{})
			_, hasBy := line["fulfilled_by"]
			_, hasName := line["fulfiller_name"]
			if hasBy != tt.show || hasName != tt.show {
				t.Errorf("fulfiller fields present: by=%v name=%v, want %v", hasBy, hasName, tt.show)
			}
			if line["is_fulfilled"] != true {
				t.Errorf("is_fulfilled: got %v, want true", line["is_fulfilled"])
			}
			if line["amount"] != "20.00" {
				t.Errorf("amount: got %v, want 20.00", line["amount"])
			}
		})
	}
}

// --- Mutation tests ---

func TestOrderUpdate_NotEditable(t *testing.T) {
	svc := &mockOrderService{err: service.ErrOrderNotEditable}
	orderID := uuid.New()
	r := setupOrderRouter(svc, uuid.New(), enum.UserRoleSales)

	rr := doJSON(t, r, "PUT", "/orders/"+orderID.String(), "", validOrderBody())

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
	if svc.lastOrderID != orderID {
		t.Errorf("order id: got %s, want %s", svc.lastOrderID, orderID)
	}
}

func TestOrderUpdate_ManagerForbidden(t *testing.T) {
	svc := &mockOrderService{detail: makeOrderDetail(t)}
	r := setupOrderRouter(svc, uuid.New(), enum.UserRoleManager)

	rr := doJSON(t, r, "PUT", "/orders/"+uuid.NewString(), "", validOrderBody())

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestOrderToggleFulfillment(t *testing.T) {
	svc := &mockOrderService{detail: makeOrderDetail(t)}
	orderID, lineID := uuid.New(), uuid.New()
	r := setupOrderRouter(svc, uuid.New(), enum.UserRoleClerk)

	rr := doJSON(t, r, "PATCH", "/orders/"+orderID.String()+"/items/"+lineID.String()+"/fulfillment", "", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if svc.lastOrderID != orderID || svc.lastLineID != lineID {
		t.Errorf("ids: got %s/%s, want %s/%s", svc.lastOrderID, svc.lastLineID, orderID, lineID)
	}
	if resp := decodeResponse(t, rr); resp["status"] != "pending" {
		t.Errorf("status field: got %v, want pending", resp["status"])
	}
}

func TestOrderToggleFulfillment_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"force closed", fulfillment.ErrForceClosed, http.StatusConflict},
		{"cancelled", fulfillment.ErrCancelled, http.StatusConflict},
		{"line missing", service.ErrLineNotFound, http.StatusNotFound},
		{"not owner", service.ErrForbidden, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockOrderService{err: tt.err}
			r := setupOrderRouter(svc, uuid.New(), enum.UserRoleSales)

			rr := doJSON(t, r, "PATCH", "/orders/"+uuid.NewString()+"/items/"+uuid.NewString()+"/fulfillment", "", nil)

			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestOrderToggleFulfillment_InvalidLineID(t *testing.T) {
	svc := &mockOrderService{}
	r := setupOrderRouter(svc, uuid.New(), enum.UserRoleClerk)

	rr := doJSON(t, r, "PATCH", "/orders/"+uuid.NewString()+"/items/bad/fulfillment", "", nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderForceClose(t *testing.T) {
	svc := &mockOrderService{detail: makeOrderDetail(t)}
	r := setupOrderRouter(svc, uuid.New(), enum.UserRoleAdmin)

	rr := postJSON(t, r, "/orders/"+uuid.NewString()+"/close", map[string]bool{"confirm": true})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if !svc.lastConfirmed {
		t.Error("confirm flag was not passed")
	}
}

func TestOrderForceClose_Unconfirmed(t *testing.T) {
	svc := &mockOrderService{err: service.ErrConfirmationRequired}
	r := setupOrderRouter(svc, uuid.New(), enum.UserRoleAdmin)

	rr := postJSON(t, r, "/orders/"+uuid.NewString()+"/close", map[string]bool{})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderForceClose_AlreadyClosed(t *testing.T) {
	svc := &mockOrderService{err: fulfillment.ErrAlreadyClosed}
	r := setupOrderRouter(svc, uuid.New(), enum.UserRoleAdmin)

	rr := postJSON(t, r, "/orders/"+uuid.NewString()+"/close", map[string]bool{"confirm": true})

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestOrderForceClose_NonAdminForbidden(t *testing.T) {
	for _, role := range []string{enum.UserRoleManager, enum.UserRoleClerk, enum.UserRoleSales} {
		t.Run(role, func(t *testing.T) {
			svc := &mockOrderService{detail: makeOrderDetail(t)}
			r := setupOrderRouter(svc, uuid.New(), role)

			rr := postJSON(t, r, "/orders/"+uuid.NewString()+"/close", map[string]bool{"confirm": true})

			if rr.Code != http.StatusForbidden {
				t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
			}
			if svc.calls != 0 {
				t.Errorf("service calls: got %d, want 0", svc.calls)
			}
		})
	}
}

func TestOrderSetAuthorization(t *testing.T) {
	t.Run("empty body flips", func(t *testing.T) {
		svc := &mockOrderService{detail: makeOrderDetail(t)}
		r := setupOrderRouter(svc, uuid.New(), enum.UserRoleAdmin)

		rr := doJSON(t, r, "PATCH", "/orders/"+uuid.NewString()+"/authorization", "", nil)

		if rr.Code != http.StatusOK {
			t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
		}
		if svc.lastAuth != nil {
			t.Errorf("authorized: got %v, want nil", *svc.lastAuth)
		}
	})

	t.Run("explicit value", func(t *testing.T) {
		svc := &mockOrderService{detail: makeOrderDetail(t)}
		r := setupOrderRouter(svc, uuid.New(), enum.UserRoleAdmin)

		rr := doJSON(t, r, "PATCH", "/orders/"+uuid.NewString()+"/authorization", "", map[string]bool{"is_authorized": false})

		if rr.Code != http.StatusOK {
			t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
		}
		if svc.lastAuth == nil || *svc.lastAuth {
			t.Errorf("authorized: got %v, want false", svc.lastAuth)
		}
	})
}

func TestOrderOpenOrdersForClient(t *testing.T) {
	svc := &mockOrderService{openRows: []database.ListOpenOrdersByClientRow{{
		ID:               uuid.New(),
		OrderNumber:      "ORD-00003",
		Status:           database.OrderStatusPending,
		TotalAmount:      mustNumeric(t, "15"),
		LineCount:        3,
		UnfulfilledCount: 1,
	}}}
	clientID, exclude := uuid.New(), uuid.New()
	r := setupOrderRouter(svc, uuid.New(), enum.UserRoleSales)

	rr := doJSON(t, r, "GET", "/clients/"+clientID.String()+"/open-orders?exclude="+exclude.String(), "", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if svc.lastClientID != clientID || svc.lastExclude != exclude {
		t.Errorf("ids: got %s/%s, want %s/%s", svc.lastClientID, svc.lastExclude, clientID, exclude)
	}
	rows := decodeList(t, rr)
	if len(rows) != 1 {
		t.Fatalf("rows: got %d, want 1", len(rows))
	}
	if rows[0]["unfulfilled_count"] != float64(1) || rows[0]["total_amount"] != "15.00" {
		t.Errorf("row: got %v", rows[0])
	}
}

func TestOrderOpenOrdersForClient_InvalidExclude(t *testing.T) {
	svc := &mockOrderService{}
	r := setupOrderRouter(svc, uuid.New(), enum.UserRoleSales)

	rr := doJSON(t, r, "GET", "/clients/"+uuid.NewString()+"/open-orders?exclude=zzz", "", nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
