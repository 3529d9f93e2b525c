package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (order_id, item_id, shade_id, quantity, rate, amount)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, item_id, shade_id, quantity, rate, amount, is_fulfilled, fulfilled_by, fulfilled_at, created_at
`

type CreateOrderItemParams struct {
	OrderID  uuid.UUID      `json:"order_id"`
	ItemID   uuid.UUID      `json:"item_id"`
	ShadeID  uuid.UUID      `json:"shade_id"`
	Quantity int32          `json:"quantity"`
	Rate     pgtype.Numeric `json:"rate"`
	Amount   pgtype.Numeric `json:"amount"`
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.ItemID,
		arg.ShadeID,
		arg.Quantity,
		arg.Rate,
		arg.Amount,
	)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.ItemID,
		&i.ShadeID,
		&i.Quantity,
		&i.Rate,
		&i.Amount,
		&i.IsFulfilled,
		&i.FulfilledBy,
		&i.FulfilledAt,
		&i.CreatedAt,
	)
	return i, err
}

const deleteOrderItemsByOrder = `-- name: DeleteOrderItemsByOrder :exec
DELETE FROM order_items
WHERE order_id = $1
`

func (q *Queries) DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOrderItemsByOrder, orderID)
	return err
}

const getOrderItem = `-- name: GetOrderItem :one
SELECT id, order_id, item_id, shade_id, quantity, rate, amount, is_fulfilled, fulfilled_by, fulfilled_at, created_at
FROM order_items
WHERE id = $1 AND order_id = $2
`

type GetOrderItemParams struct {
	ID      uuid.UUID `json:"id"`
	OrderID uuid.UUID `json:"order_id"`
}

func (q *Queries) GetOrderItem(ctx context.Context, arg GetOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, getOrderItem, arg.ID, arg.OrderID)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.ItemID,
		&i.ShadeID,
		&i.Quantity,
		&i.Rate,
		&i.Amount,
		&i.IsFulfilled,
		&i.FulfilledBy,
		&i.FulfilledAt,
		&i.CreatedAt,
	)
	return i, err
}

const listOrderItemsByOrder = `-- name: ListOrderItemsByOrder :many
SELECT oi.id, oi.order_id, oi.item_id, oi.shade_id, oi.quantity, oi.rate, oi.amount, oi.is_fulfilled, oi.fulfilled_by, oi.fulfilled_at, oi.created_at,
       i.name AS item_name,
       s.shade_number,
       s.shade_name,
       f.full_name AS fulfiller_name
FROM order_items oi
JOIN items i ON i.id = oi.item_id
JOIN shades s ON s.id = oi.shade_id
LEFT JOIN users f ON f.id = oi.fulfilled_by
WHERE oi.order_id = $1
ORDER BY oi.created_at, oi.id
`

type ListOrderItemsByOrderRow struct {
	ID            uuid.UUID          `json:"id"`
	OrderID       uuid.UUID          `json:"order_id"`
	ItemID        uuid.UUID          `json:"item_id"`
	ShadeID       uuid.UUID          `json:"shade_id"`
	Quantity      int32              `json:"quantity"`
	Rate          pgtype.Numeric     `json:"rate"`
	Amount        pgtype.Numeric     `json:"amount"`
	IsFulfilled   bool               `json:"is_fulfilled"`
	FulfilledBy   pgtype.UUID        `json:"fulfilled_by"`
	FulfilledAt   pgtype.Timestamptz `json:"fulfilled_at"`
	CreatedAt     time.Time          `json:"created_at"`
	ItemName      string             `json:"item_name"`
	ShadeNumber   string             `json:"shade_number"`
	ShadeName     string             `json:"shade_name"`
	FulfillerName pgtype.Text        `json:"fulfiller_name"`
}

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]ListOrderItemsByOrderRow, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListOrderItemsByOrderRow{}
	for rows.Next() {
		var i ListOrderItemsByOrderRow
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.ItemID,
			&i.ShadeID,
			&i.Quantity,
			&i.Rate,
			&i.Amount,
			&i.IsFulfilled,
			&i.FulfilledBy,
			&i.FulfilledAt,
			&i.CreatedAt,
			&i.ItemName,
			&i.ShadeNumber,
			&i.ShadeName,
			&i.FulfillerName,
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

const setOrderItemFulfillment = `-- name: SetOrderItemFulfillment :one
UPDATE order_items
SET is_fulfilled = $1,
    fulfilled_by = $2,
    fulfilled_at = $3
WHERE id = $4 AND order_id = $5
RETURNING id, order_id, item_id, shade_id, quantity, rate, amount, is_fulfilled, fulfilled_by, fulfilled_at, created_at
`

type SetOrderItemFulfillmentParams struct {
	IsFulfilled bool               `json:"is_fulfilled"`
	FulfilledBy pgtype.UUID        `json:"fulfilled_by"`
	FulfilledAt pgtype.Timestamptz `json:"fulfilled_at"`
	ID          uuid.UUID          `json:"id"`
	OrderID     uuid.UUID          `json:"order_id"`
}

func (q *Queries) SetOrderItemFulfillment(ctx context.Context, arg SetOrderItemFulfillmentParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, setOrderItemFulfillment,
		arg.IsFulfilled,
		arg.FulfilledBy,
		arg.FulfilledAt,
		arg.ID,
		arg.OrderID,
	)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.ItemID,
		&i.ShadeID,
		&i.Quantity,
		&i.Rate,
		&i.Amount,
		&i.IsFulfilled,
		&i.FulfilledBy,
		&i.FulfilledAt,
		&i.CreatedAt,
	)
	return i, err
}
