package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const closeOrder = `-- name: CloseOrder :one
UPDATE orders
SET status     = 'closed',
    closed_by  = $1,
    closed_at  = $2,
    updated_at = now()
WHERE id = $3 AND status NOT IN ('closed', 'cancelled')
RETURNING id, order_seq, order_number, client_id, created_by, order_date, status, total_amount, notes, is_authorized, closed_by, closed_at, created_at, updated_at
`

type CloseOrderParams struct {
	ClosedBy pgtype.UUID        `json:"closed_by"`
	ClosedAt pgtype.Timestamptz `json:"closed_at"`
	ID       uuid.UUID          `json:"id"`
}

func (q *Queries) CloseOrder(ctx context.Context, arg CloseOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, closeOrder, arg.ClosedBy, arg.ClosedAt, arg.ID)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderSeq,
		&i.OrderNumber,
		&i.ClientID,
		&i.CreatedBy,
		&i.OrderDate,
		&i.Status,
		&i.TotalAmount,
		&i.Notes,
		&i.IsAuthorized,
		&i.ClosedBy,
		&i.ClosedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (order_seq, order_number, client_id, created_by, order_date, status, total_amount, notes, is_authorized)
VALUES ($1, $2, $3, $4, $5, 'open', $6, $7, false)
RETURNING id, order_seq, order_number, client_id, created_by, order_date, status, total_amount, notes, is_authorized, closed_by, closed_at, created_at, updated_at
`

type CreateOrderParams struct {
	OrderSeq    int32          `json:"order_seq"`
	OrderNumber string         `json:"order_number"`
	ClientID    uuid.UUID      `json:"client_id"`
	CreatedBy   uuid.UUID      `json:"created_by"`
	OrderDate   pgtype.Date    `json:"order_date"`
	TotalAmount pgtype.Numeric `json:"total_amount"`
	Notes       string         `json:"notes"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.OrderSeq,
		arg.OrderNumber,
		arg.ClientID,
		arg.CreatedBy,
		arg.OrderDate,
		arg.TotalAmount,
		arg.Notes,
	)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderSeq,
		&i.OrderNumber,
		&i.ClientID,
		&i.CreatedBy,
		&i.OrderDate,
		&i.Status,
		&i.TotalAmount,
		&i.Notes,
		&i.IsAuthorized,
		&i.ClosedBy,
		&i.ClosedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getNextOrderSeq = `-- name: GetNextOrderSeq :one
SELECT (COALESCE(MAX(order_seq), 0) + 1)::integer AS next_seq
FROM orders
`

func (q *Queries) GetNextOrderSeq(ctx context.Context) (int32, error) {
	row := q.db.QueryRow(ctx, getNextOrderSeq)
	var next_seq int32
	err := row.Scan(&next_seq)
	return next_seq, err
}

const getOrderForUpdate = `-- name: GetOrderForUpdate :one
SELECT id, order_seq, order_number, client_id, created_by, order_date, status, total_amount, notes, is_authorized, closed_by, closed_at, created_at, updated_at
FROM orders
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderForUpdate, id)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderSeq,
		&i.OrderNumber,
		&i.ClientID,
		&i.CreatedBy,
		&i.OrderDate,
		&i.Status,
		&i.TotalAmount,
		&i.Notes,
		&i.IsAuthorized,
		&i.ClosedBy,
		&i.ClosedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getOrderDetail = `-- name: GetOrderDetail :one
SELECT o.id, o.order_seq, o.order_number, o.client_id, o.created_by, o.order_date, o.status, o.total_amount, o.notes, o.is_authorized, o.closed_by, o.closed_at, o.created_at, o.updated_at,
       c.name AS client_name,
       cu.full_name AS creator_name,
       cl.full_name AS closer_name
FROM orders o
JOIN clients c ON c.id = o.client_id
JOIN users cu ON cu.id = o.created_by
LEFT JOIN users cl ON cl.id = o.closed_by
WHERE o.id = $1
`

type GetOrderDetailRow struct {
	ID           uuid.UUID          `json:"id"`
	OrderSeq     int32              `json:"order_seq"`
	OrderNumber  string             `json:"order_number"`
	ClientID     uuid.UUID          `json:"client_id"`
	CreatedBy    uuid.UUID          `json:"created_by"`
	OrderDate    pgtype.Date        `json:"order_date"`
	Status       OrderStatus        `json:"status"`
	TotalAmount  pgtype.Numeric     `json:"total_amount"`
	Notes        string             `json:"notes"`
	IsAuthorized bool               `json:"is_authorized"`
	ClosedBy     pgtype.UUID        `json:"closed_by"`
	ClosedAt     pgtype.Timestamptz `json:"closed_at"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	ClientName   string             `json:"client_name"`
	CreatorName  string             `json:"creator_name"`
	CloserName   pgtype.Text        `json:"closer_name"`
}

func (q *Queries) GetOrderDetail(ctx context.Context, id uuid.UUID) (GetOrderDetailRow, error) {
	row := q.db.QueryRow(ctx, getOrderDetail, id)
	var i GetOrderDetailRow
	err := row.Scan(
		&i.ID,
		&i.OrderSeq,
		&i.OrderNumber,
		&i.ClientID,
		&i.CreatedBy,
		&i.OrderDate,
		&i.Status,
		&i.TotalAmount,
		&i.Notes,
		&i.IsAuthorized,
		&i.ClosedBy,
		&i.ClosedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.ClientName,
		&i.CreatorName,
		&i.CloserName,
	)
	return i, err
}

const getOrderNotification = `-- name: GetOrderNotification :one
SELECT o.id, o.order_number, o.client_id, c.name AS client_name, o.created_by, u.full_name AS creator_name,
       o.order_date, o.status, o.total_amount, o.created_at
FROM orders o
JOIN clients c ON c.id = o.client_id
JOIN users u ON u.id = o.created_by
WHERE o.id = $1
`

type GetOrderNotificationRow struct {
	ID          uuid.UUID      `json:"id"`
	OrderNumber string         `json:"order_number"`
	ClientID    uuid.UUID      `json:"client_id"`
	ClientName  string         `json:"client_name"`
	CreatedBy   uuid.UUID      `json:"created_by"`
	CreatorName string         `json:"creator_name"`
	OrderDate   pgtype.Date    `json:"order_date"`
	Status      OrderStatus    `json:"status"`
	TotalAmount pgtype.Numeric `json:"total_amount"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (q *Queries) GetOrderNotification(ctx context.Context, id uuid.UUID) (GetOrderNotificationRow, error) {
	row := q.db.QueryRow(ctx, getOrderNotification, id)
	var i GetOrderNotificationRow
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.ClientID,
		&i.ClientName,
		&i.CreatedBy,
		&i.CreatorName,
		&i.OrderDate,
		&i.Status,
		&i.TotalAmount,
		&i.CreatedAt,
	)
	return i, err
}

const listOpenOrdersByClient = `-- name: ListOpenOrdersByClient :many
SELECT o.id, o.order_number, o.order_date, o.status, o.total_amount, o.notes, o.is_authorized,
       u.full_name AS creator_name,
       COUNT(oi.id) AS line_count,
       COUNT(oi.id) FILTER (WHERE NOT oi.is_fulfilled) AS unfulfilled_count
FROM orders o
JOIN users u ON u.id = o.created_by
LEFT JOIN order_items oi ON oi.order_id = o.id
WHERE o.client_id = $1
  AND o.status IN ('open', 'pending')
  AND ($2::uuid IS NULL OR o.id <> $2)
  AND ($3::uuid IS NULL OR o.created_by = $3)
GROUP BY o.id, u.full_name
ORDER BY o.created_at DESC
`

type ListOpenOrdersByClientParams struct {
	ClientID  uuid.UUID   `json:"client_id"`
	ExcludeID pgtype.UUID `json:"exclude_id"`
	CreatedBy pgtype.UUID `json:"created_by"`
}

type ListOpenOrdersByClientRow struct {
	ID               uuid.UUID      `json:"id"`
	OrderNumber      string         `json:"order_number"`
	OrderDate        pgtype.Date    `json:"order_date"`
	Status           OrderStatus    `json:"status"`
	TotalAmount      pgtype.Numeric `json:"total_amount"`
	Notes            string         `json:"notes"`
	IsAuthorized     bool           `json:"is_authorized"`
	CreatorName      string         `json:"creator_name"`
	LineCount        int64          `json:"line_count"`
	UnfulfilledCount int64          `json:"unfulfilled_count"`
}

func (q *Queries) ListOpenOrdersByClient(ctx context.Context, arg ListOpenOrdersByClientParams) ([]ListOpenOrdersByClientRow, error) {
	rows, err := q.db.Query(ctx, listOpenOrdersByClient, arg.ClientID, arg.ExcludeID, arg.CreatedBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListOpenOrdersByClientRow{}
	for rows.Next() {
		var i ListOpenOrdersByClientRow
		if err := rows.Scan(
			&i.ID,
			&i.OrderNumber,
			&i.OrderDate,
			&i.Status,
			&i.TotalAmount,
			&i.Notes,
			&i.IsAuthorized,
			&i.CreatorName,
			&i.LineCount,
			&i.UnfulfilledCount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listOrders = `-- name: ListOrders :many
SELECT o.id, o.order_seq, o.order_number, o.client_id, o.created_by, o.order_date, o.status, o.total_amount, o.notes, o.is_authorized, o.closed_by, o.closed_at, o.created_at, o.updated_at,
       c.name AS client_name,
       cu.full_name AS creator_name,
       cl.full_name AS closer_name
FROM orders o
JOIN clients c ON c.id = o.client_id
JOIN users cu ON cu.id = o.created_by
LEFT JOIN users cl ON cl.id = o.closed_by
WHERE ($1::uuid IS NULL OR o.created_by = $1)
  AND ($2::uuid IS NULL OR o.client_id = $2)
  AND ($3::order_status IS NULL OR o.status = $3)
ORDER BY o.created_at DESC
LIMIT $4 OFFSET $5
`

type ListOrdersParams struct {
	CreatedBy pgtype.UUID     `json:"created_by"`
	ClientID  pgtype.UUID     `json:"client_id"`
	Status    NullOrderStatus `json:"status"`
	Limit     int32           `json:"limit"`
	Offset    int32           `json:"offset"`
}

type ListOrdersRow struct {
	ID           uuid.UUID          `json:"id"`
	OrderSeq     int32              `json:"order_seq"`
	OrderNumber  string             `json:"order_number"`
	ClientID     uuid.UUID          `json:"client_id"`
	CreatedBy    uuid.UUID          `json:"created_by"`
	OrderDate    pgtype.Date        `json:"order_date"`
	Status       OrderStatus        `json:"status"`
	TotalAmount  pgtype.Numeric     `json:"total_amount"`
	Notes        string             `json:"notes"`
	IsAuthorized bool               `json:"is_authorized"`
	ClosedBy     pgtype.UUID        `json:"closed_by"`
	ClosedAt     pgtype.Timestamptz `json:"closed_at"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	ClientName   string             `json:"client_name"`
	CreatorName  string             `json:"creator_name"`
	CloserName   pgtype.Text        `json:"closer_name"`
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]ListOrdersRow, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.CreatedBy,
		arg.ClientID,
		arg.Status,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListOrdersRow{}
	for rows.Next() {
		var i ListOrdersRow
		if err := rows.Scan(
			&i.ID,
			&i.OrderSeq,
			&i.OrderNumber,
			&i.ClientID,
			&i.CreatedBy,
			&i.OrderDate,
			&i.Status,
			&i.TotalAmount,
			&i.Notes,
			&i.IsAuthorized,
			&i.ClosedBy,
			&i.ClosedAt,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.ClientName,
			&i.CreatorName,
			&i.CloserName,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setOrderAuthorization = `-- name: SetOrderAuthorization :one
UPDATE orders
SET is_authorized = $1,
    updated_at    = now()
WHERE id = $2
RETURNING id, order_seq, order_number, client_id, created_by, order_date, status, total_amount, notes, is_authorized, closed_by, closed_at, created_at, updated_at
`

type SetOrderAuthorizationParams struct {
	IsAuthorized bool      `json:"is_authorized"`
	ID           uuid.UUID `json:"id"`
}

func (q *Queries) SetOrderAuthorization(ctx context.Context, arg SetOrderAuthorizationParams) (Order, error) {
	row := q.db.QueryRow(ctx, setOrderAuthorization, arg.IsAuthorized, arg.ID)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderSeq,
		&i.OrderNumber,
		&i.ClientID,
		&i.CreatedBy,
		&i.OrderDate,
		&i.Status,
		&i.TotalAmount,
		&i.Notes,
		&i.IsAuthorized,
		&i.ClosedBy,
		&i.ClosedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateOrderFields = `-- name: UpdateOrderFields :one
UPDATE orders
SET client_id    = $1,
    order_date   = $2,
    notes        = $3,
    total_amount = $4,
    updated_at   = now()
WHERE id = $5
RETURNING id, order_seq, order_number, client_id, created_by, order_date, status, total_amount, notes, is_authorized, closed_by, closed_at, created_at, updated_at
`

type UpdateOrderFieldsParams struct {
	ClientID    uuid.UUID      `json:"client_id"`
	OrderDate   pgtype.Date    `json:"order_date"`
	Notes       string         `json:"notes"`
	TotalAmount pgtype.Numeric `json:"total_amount"`
	ID          uuid.UUID      `json:"id"`
}

func (q *Queries) UpdateOrderFields(ctx context.Context, arg UpdateOrderFieldsParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderFields,
		arg.ClientID,
		arg.OrderDate,
		arg.Notes,
		arg.TotalAmount,
		arg.ID,
	)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderSeq,
		&i.OrderNumber,
		&i.ClientID,
		&i.CreatedBy,
		&i.OrderDate,
		&i.Status,
		&i.TotalAmount,
		&i.Notes,
		&i.IsAuthorized,
		&i.ClosedBy,
		&i.ClosedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders
SET status     = $1,
    updated_at = now()
WHERE id = $2
RETURNING id, order_seq, order_number, client_id, created_by, order_date, status, total_amount, notes, is_authorized, closed_by, closed_at, created_at, updated_at
`

type UpdateOrderStatusParams struct {
	Status OrderStatus `json:"status"`
	ID     uuid.UUID   `json:"id"`
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.Status, arg.ID)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderSeq,
		&i.OrderNumber,
		&i.ClientID,
		&i.CreatedBy,
		&i.OrderDate,
		&i.Status,
		&i.TotalAmount,
		&i.Notes,
		&i.IsAuthorized,
		&i.ClosedBy,
		&i.ClosedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
