package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shadestock/api/internal/database"
	"github.com/shadestock/api/internal/enum"
	"github.com/shadestock/api/internal/fulfillment"
	"github.com/shadestock/api/internal/policy"
	"github.com/shopspring/decimal"
)

const (
	maxOrderNumberRetries = 3
	orderDateLayout       = "2006-01-02"
)

// Page sizes for ListOrders.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// maxMoney is the first value a NUMERIC(12,2) column cannot hold.
var maxMoney = decimal.New(1, 10)

// Errors returned by the order service.
var (
	ErrClientRequired       = errors.New("client_id is required")
	ErrInvalidClientID      = errors.New("invalid client_id")
	ErrClientNotFound       = errors.New("client not found")
	ErrEmptyItems           = errors.New("at least one order line is required")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidRate          = errors.New("rate must be a number >= 0 with at most 2 decimals")
	ErrAmountTooLarge       = errors.New("amount must be less than 10000000000")
	ErrInvalidItemID        = errors.New("invalid item_id")
	ErrInvalidShadeID       = errors.New("invalid shade_id")
	ErrItemNotFound         = errors.New("item not found")
	ErrShadeNotFound        = errors.New("shade not found")
	ErrShadeMismatch        = errors.New("shade does not belong to item")
	ErrInvalidOrderDate     = errors.New("order_date must be YYYY-MM-DD")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrForbidden            = errors.New("insufficient permissions")
	ErrOrderNotFound        = errors.New("order not found")
	ErrLineNotFound         = errors.New("order line not found")
	ErrOrderNotEditable     = errors.New("order can only be edited while open")
	ErrConfirmationRequired = errors.New("force close must be confirmed")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DB is a pool that can both run queries and start transactions.
// Satisfied by *pgxpool.Pool.
type DB interface {
	database.DBTX
	TxBeginner
}

// OrderStore defines the DB methods needed by order use-cases.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetClient(ctx context.Context, id uuid.UUID) (database.Client, error)
	GetItem(ctx context.Context, id uuid.UUID) (database.Item, error)
	GetShade(ctx context.Context, id uuid.UUID) (database.Shade, error)
	GetNextOrderSeq(ctx context.Context) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderDetail(ctx context.Context, id uuid.UUID) (database.GetOrderDetailRow, error)
	GetOrderItem(ctx context.Context, arg database.GetOrderItemParams) (database.OrderItem, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsByOrderRow, error)
	SetOrderItemFulfillment(ctx context.Context, arg database.SetOrderItemFulfillmentParams) (database.OrderItem, error)
	DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) error
	UpdateOrderFields(ctx context.Context, arg database.UpdateOrderFieldsParams) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	CloseOrder(ctx context.Context, arg database.CloseOrderParams) (database.Order, error)
	SetOrderAuthorization(ctx context.Context, arg database.SetOrderAuthorizationParams) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.ListOrdersRow, error)
	ListOpenOrdersByClient(ctx context.Context, arg database.ListOpenOrdersByClientParams) ([]database.ListOpenOrdersByClientRow, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// Actor is the authenticated user a use-case runs on behalf of.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// OrderRequest is the input for creating or editing an order.
type OrderRequest struct {
	ClientID  string
	OrderDate string // YYYY-MM-DD, empty means today
	Notes     string
	Items     []OrderLineRequest
}

// OrderLineRequest is a single line of the order.
type OrderLineRequest struct {
	ItemID   string
	ShadeID  string
	Quantity int32
	Rate     string
}

// OrderDetail is an order with its joined names and lines.
type OrderDetail struct {
	Order database.GetOrderDetailRow
	Lines []database.ListOrderItemsByOrderRow
}

// ListFilter narrows ListOrders. Zero values mean no filter.
type ListFilter struct {
	Status   string
	ClientID uuid.UUID
	Limit    int
	Offset   int
}

// OrderService handles order business logic.
type OrderService struct {
	db       DB
	newStore NewOrderStore
	now      func() time.Time
}

// NewOrderService creates a new OrderService.
func NewOrderService(db DB, newStore NewOrderStore) *OrderService {
	return &OrderService{db: db, newStore: newStore, now: time.Now}
}

// preparedOrder is a validated OrderRequest ready to be written.
type preparedOrder struct {
	clientID  uuid.UUID
	orderDate pgtype.Date
	notes     string
	total     decimal.Decimal
	lines     []database.CreateOrderItemParams
}

// CreateOrder validates the request and inserts the order and its lines
// atomically. Retries up to maxOrderNumberRetries times on order_number
// unique constraint violations (concurrent transactions reading the same MAX).
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, req OrderRequest) (*OrderDetail, error) {
	if !policy.CanPerform(actor.Role, enum.ActionCreateOrder, policy.Context{ActorID: actor.ID, Creating: true}) {
		return nil, ErrForbidden
	}
	if err := checkRequestShape(req); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		orderID, err := s.createOrderTx(ctx, actor, req)
		if err == nil {
			return s.loadDetail(ctx, s.newStore(s.db), orderID)
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isOrderNumberConflict checks if the error is a unique constraint violation
// on the order number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_number_key"
	}
	return false
}

func (s *OrderService) createOrderTx(ctx context.Context, actor Actor, req OrderRequest) (uuid.UUID, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	prepared, err := s.prepareOrder(ctx, store, req)
	if err != nil {
		return uuid.Nil, err
	}

	seq, err := store.GetNextOrderSeq(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("get next order seq: %w", err)
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderSeq:    seq,
		OrderNumber: fmt.Sprintf("ORD-%05d", seq),
		ClientID:    prepared.clientID,
		CreatedBy:   actor.ID,
		OrderDate:   prepared.orderDate,
		TotalAmount: decimalToNumeric(prepared.total),
		Notes:       prepared.notes,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("create order: %w", err)
	}

	if err := insertLines(ctx, store, order.ID, prepared.lines); err != nil {
		return uuid.Nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit tx: %w", err)
	}
	return order.ID, nil
}

// UpdateOrder replaces the client, date, notes and lines of an open order
// and re-derives its total.
func (s *OrderService) UpdateOrder(ctx context.Context, actor Actor, orderID uuid.UUID, req OrderRequest) (*OrderDetail, error) {
	if err := checkRequestShape(req); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockVisibleOrder(ctx, store, actor, orderID)
	if err != nil {
		return nil, err
	}
	if !policy.CanPerform(actor.Role, enum.ActionEditOrder, policy.Context{ActorID: actor.ID, OwnerID: order.CreatedBy}) {
		return nil, ErrForbidden
	}
	if order.Status != database.OrderStatusOpen {
		return nil, ErrOrderNotEditable
	}

	prepared, err := s.prepareOrder(ctx, store, req)
	if err != nil {
		return nil, err
	}

	if err := store.DeleteOrderItemsByOrder(ctx, order.ID); err != nil {
		return nil, fmt.Errorf("delete order lines: %w", err)
	}
	if err := insertLines(ctx, store, order.ID, prepared.lines); err != nil {
		return nil, err
	}

	if _, err := store.UpdateOrderFields(ctx, database.UpdateOrderFieldsParams{
		ClientID:    prepared.clientID,
		OrderDate:   prepared.orderDate,
		Notes:       prepared.notes,
		TotalAmount: decimalToNumeric(prepared.total),
		ID:          order.ID,
	}); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return s.loadDetail(ctx, s.newStore(s.db), order.ID)
}

// ToggleFulfillment flips one line and recomputes the order status from
// the lines as stored. The order row stays locked for the whole
// transaction so concurrent toggles on the same order serialize.
func (s *OrderService) ToggleFulfillment(ctx context.Context, actor Actor, orderID, lineID uuid.UUID) (*OrderDetail, error) {
	if !policy.RoleOnly(actor.Role, enum.ActionToggleFulfillment) {
		return nil, ErrForbidden
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockVisibleOrder(ctx, store, actor, orderID)
	if err != nil {
		return nil, err
	}
	if !policy.CanPerform(actor.Role, enum.ActionToggleFulfillment, policy.Context{ActorID: actor.ID, OwnerID: order.CreatedBy}) {
		return nil, ErrForbidden
	}
	state := machineOrder(order)
	if err := fulfillment.CheckToggle(state); err != nil {
		return nil, err
	}

	line, err := store.GetOrderItem(ctx, database.GetOrderItemParams{ID: lineID, OrderID: order.ID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLineNotFound
		}
		return nil, fmt.Errorf("get order line: %w", err)
	}

	next := fulfillment.Toggle(machineLine(line), actor.ID, s.now().UTC())
	if _, err := store.SetOrderItemFulfillment(ctx, database.SetOrderItemFulfillmentParams{
		IsFulfilled: next.Fulfilled,
		FulfilledBy: uuidToPg(next.FulfilledBy),
		FulfilledAt: timeToPg(next.FulfilledAt),
		ID:          line.ID,
		OrderID:     order.ID,
	}); err != nil {
		return nil, fmt.Errorf("update order line: %w", err)
	}

	lines, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	flags := make([]bool, len(lines))
	for i, l := range lines {
		flags[i] = l.IsFulfilled
	}

	status := fulfillment.Recompute(state, flags)
	if status != string(order.Status) {
		if _, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
			Status: database.OrderStatus(status),
			ID:     order.ID,
		}); err != nil {
			return nil, fmt.Errorf("update order status: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return s.loadDetail(ctx, s.newStore(s.db), order.ID)
}

// ForceClose closes an order regardless of its lines. It is terminal:
// later toggles are rejected with fulfillment.ErrForceClosed.
func (s *OrderService) ForceClose(ctx context.Context, actor Actor, orderID uuid.UUID, confirmed bool) (*OrderDetail, error) {
	if !policy.CanPerform(actor.Role, enum.ActionForceCloseOrder, policy.Context{ActorID: actor.ID}) {
		return nil, ErrForbidden
	}
	if !confirmed {
		return nil, ErrConfirmationRequired
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockVisibleOrder(ctx, store, actor, orderID)
	if err != nil {
		return nil, err
	}
	if err := fulfillment.CheckForceClose(machineOrder(order)); err != nil {
		return nil, err
	}

	if _, err := store.CloseOrder(ctx, database.CloseOrderParams{
		ClosedBy: uuidToPg(actor.ID),
		ClosedAt: timeToPg(s.now().UTC()),
		ID:       order.ID,
	}); err != nil {
		return nil, fmt.Errorf("close order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return s.loadDetail(ctx, s.newStore(s.db), order.ID)
}

// SetAuthorization sets the order's authorization flag, or flips it when
// authorized is nil. The flag does not affect status.
func (s *OrderService) SetAuthorization(ctx context.Context, actor Actor, orderID uuid.UUID, authorized *bool) (*OrderDetail, error) {
	if !policy.CanPerform(actor.Role, enum.ActionAuthorizeOrder, policy.Context{ActorID: actor.ID}) {
		return nil, ErrForbidden
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockVisibleOrder(ctx, store, actor, orderID)
	if err != nil {
		return nil, err
	}

	value := !order.IsAuthorized
	if authorized != nil {
		value = *authorized
	}
	if _, err := store.SetOrderAuthorization(ctx, database.SetOrderAuthorizationParams{
		IsAuthorized: value,
		ID:           order.ID,
	}); err != nil {
		return nil, fmt.Errorf("set authorization: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return s.loadDetail(ctx, s.newStore(s.db), order.ID)
}

// GetOrder returns an order the actor may see.
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDetail, error) {
	detail, err := s.loadDetail(ctx, s.newStore(s.db), orderID)
	if err != nil {
		return nil, err
	}
	if !canViewOrder(actor, detail.Order.CreatedBy) {
		return nil, ErrOrderNotFound
	}
	return detail, nil
}

// ListLimit is the page size ListOrders uses for a requested limit.
func ListLimit(requested int) int {
	if requested <= 0 {
		return DefaultListLimit
	}
	return min(requested, MaxListLimit)
}

// ListOrders returns orders newest first. Roles that may not view all
// orders only ever see their own.
func (s *OrderService) ListOrders(ctx context.Context, actor Actor, f ListFilter) ([]database.ListOrdersRow, error) {
	params := database.ListOrdersParams{
		Limit:  int32(ListLimit(f.Limit)),
		Offset: 0,
	}
	if f.Offset > 0 {
		params.Offset = int32(min(f.Offset, math.MaxInt32))
	}
	if f.Status != "" {
		if !isValidStatus(f.Status) {
			return nil, ErrInvalidStatus
		}
		params.Status = database.NullOrderStatus{OrderStatus: database.OrderStatus(f.Status), Valid: true}
	}
	if f.ClientID != uuid.Nil {
		params.ClientID = uuidToPg(f.ClientID)
	}
	if !policy.CanPerform(actor.Role, enum.ActionViewAllOrders, policy.Context{ActorID: actor.ID}) {
		params.CreatedBy = uuidToPg(actor.ID)
	}

	rows, err := s.newStore(s.db).ListOrders(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return rows, nil
}

// PendingForClient lists the client's other open or pending orders with
// their fulfillment progress. It is advisory while composing an order.
func (s *OrderService) PendingForClient(ctx context.Context, actor Actor, clientID, excludeOrderID uuid.UUID) ([]database.ListOpenOrdersByClientRow, error) {
	params := database.ListOpenOrdersByClientParams{ClientID: clientID}
	if excludeOrderID != uuid.Nil {
		params.ExcludeID = uuidToPg(excludeOrderID)
	}
	if !policy.CanPerform(actor.Role, enum.ActionViewAllOrders, policy.Context{ActorID: actor.ID}) {
		params.CreatedBy = uuidToPg(actor.ID)
	}

	rows, err := s.newStore(s.db).ListOpenOrdersByClient(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list open orders: %w", err)
	}
	return rows, nil
}

// --- Helpers ---

// lockVisibleOrder loads and row-locks an order. Orders the actor may not
// see are reported as not found.
func (s *OrderService) lockVisibleOrder(ctx context.Context, store OrderStore, actor Actor, orderID uuid.UUID) (database.Order, error) {
	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}
	if !canViewOrder(actor, order.CreatedBy) {
		return database.Order{}, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) loadDetail(ctx context.Context, store OrderStore, orderID uuid.UUID) (*OrderDetail, error) {
	order, err := store.GetOrderDetail(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order detail: %w", err)
	}
	lines, err := store.ListOrderItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	return &OrderDetail{Order: order, Lines: lines}, nil
}

// checkRequestShape runs the checks that need no database access.
func checkRequestShape(req OrderRequest) error {
	if strings.TrimSpace(req.ClientID) == "" {
		return ErrClientRequired
	}
	if len(req.Items) == 0 {
		return ErrEmptyItems
	}
	return nil
}

// prepareOrder validates every reference of req against the store and
// computes line amounts and the order total.
func (s *OrderService) prepareOrder(ctx context.Context, store OrderStore, req OrderRequest) (*preparedOrder, error) {
	clientID, err := uuid.Parse(strings.TrimSpace(req.ClientID))
	if err != nil {
		return nil, ErrInvalidClientID
	}
	if _, err := store.GetClient(ctx, clientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("get client: %w", err)
	}

	orderDate, err := s.parseOrderDate(req.OrderDate)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	lines := make([]database.CreateOrderItemParams, 0, len(req.Items))
	for i, item := range req.Items {
		line, amount, err := prepareLine(ctx, store, item)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, err)
		}
		total = total.Add(amount)
		lines = append(lines, line)
	}
	if total.GreaterThanOrEqual(maxMoney) {
		return nil, ErrAmountTooLarge
	}

	return &preparedOrder{
		clientID:  clientID,
		orderDate: orderDate,
		notes:     strings.TrimSpace(req.Notes),
		total:     total,
		lines:     lines,
	}, nil
}

// prepareLine validates one line. amount = quantity * rate; rate must
// already be in cents and both must fit NUMERIC(12,2).
func prepareLine(ctx context.Context, store OrderStore, item OrderLineRequest) (database.CreateOrderItemParams, decimal.Decimal, error) {
	if item.Quantity <= 0 {
		return database.CreateOrderItemParams{}, decimal.Zero, ErrInvalidQuantity
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(item.Rate))
	if err != nil || rate.IsNegative() || !rate.Equal(rate.Truncate(2)) {
		return database.CreateOrderItemParams{}, decimal.Zero, ErrInvalidRate
	}
	amount := rate.Mul(decimal.NewFromInt32(item.Quantity))
	if rate.GreaterThanOrEqual(maxMoney) || amount.GreaterThanOrEqual(maxMoney) {
		return database.CreateOrderItemParams{}, decimal.Zero, ErrAmountTooLarge
	}

	itemID, err := uuid.Parse(item.ItemID)
	if err != nil {
		return database.CreateOrderItemParams{}, decimal.Zero, ErrInvalidItemID
	}
	shadeID, err := uuid.Parse(item.ShadeID)
	if err != nil {
		return database.CreateOrderItemParams{}, decimal.Zero, ErrInvalidShadeID
	}

	if _, err := store.GetItem(ctx, itemID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.CreateOrderItemParams{}, decimal.Zero, ErrItemNotFound
		}
		return database.CreateOrderItemParams{}, decimal.Zero, fmt.Errorf("get item: %w", err)
	}
	shade, err := store.GetShade(ctx, shadeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.CreateOrderItemParams{}, decimal.Zero, ErrShadeNotFound
		}
		return database.CreateOrderItemParams{}, decimal.Zero, fmt.Errorf("get shade: %w", err)
	}
	if shade.ItemID != itemID {
		return database.CreateOrderItemParams{}, decimal.Zero, ErrShadeMismatch
	}

	return database.CreateOrderItemParams{
		ItemID:   itemID,
		ShadeID:  shadeID,
		Quantity: item.Quantity,
		Rate:     decimalToNumeric(rate),
		Amount:   decimalToNumeric(amount),
	}, amount, nil
}

func insertLines(ctx context.Context, store OrderStore, orderID uuid.UUID, lines []database.CreateOrderItemParams) error {
	for _, line := range lines {
		line.OrderID = orderID
		if _, err := store.CreateOrderItem(ctx, line); err != nil {
			return fmt.Errorf("create order line: %w", err)
		}
	}
	return nil
}

func (s *OrderService) parseOrderDate(v string) (pgtype.Date, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		now := s.now()
		return pgtype.Date{Time: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), Valid: true}, nil
	}
	t, err := time.Parse(orderDateLayout, v)
	if err != nil {
		return pgtype.Date{}, ErrInvalidOrderDate
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}

func canViewOrder(actor Actor, createdBy uuid.UUID) bool {
	if policy.CanPerform(actor.Role, enum.ActionViewAllOrders, policy.Context{ActorID: actor.ID}) {
		return true
	}
	return actor.ID != uuid.Nil && actor.ID == createdBy
}

func isValidStatus(s string) bool {
	switch s {
	case enum.OrderStatusOpen, enum.OrderStatusPending,
		enum.OrderStatusClosed, enum.OrderStatusCancelled:
		return true
	}
	return false
}

// machineOrder projects a stored order onto the state machine. Only a
// force close stamps closed_by.
func machineOrder(o database.Order) fulfillment.Order {
	return fulfillment.Order{Status: string(o.Status), ForceClosed: o.ClosedBy.Valid}
}

func machineLine(l database.OrderItem) fulfillment.Line {
	line := fulfillment.Line{Fulfilled: l.IsFulfilled}
	if l.FulfilledBy.Valid {
		line.FulfilledBy = l.FulfilledBy.Bytes
	}
	if l.FulfilledAt.Valid {
		line.FulfilledAt = l.FulfilledAt.Time
	}
	return line
}

func uuidToPg(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: id, Valid: true}
}

func timeToPg(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
