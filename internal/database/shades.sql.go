package database

import (
	"context"

	"github.com/google/uuid"
)

const createShade = `-- name: CreateShade :one
INSERT INTO shades (item_id, shade_number, shade_name, stock_count)
VALUES ($1, $2, $3, $4)
RETURNING id, item_id, shade_number, shade_name, stock_count, created_at, updated_at
`

type CreateShadeParams struct {
	ItemID      uuid.UUID `json:"item_id"`
	ShadeNumber string    `json:"shade_number"`
	ShadeName   string    `json:"shade_name"`
	StockCount  int32     `json:"stock_count"`
}

func (q *Queries) CreateShade(ctx context.Context, arg CreateShadeParams) (Shade, error) {
	row := q.db.QueryRow(ctx, createShade,
		arg.ItemID,
		arg.ShadeNumber,
		arg.ShadeName,
		arg.StockCount,
	)
	var i Shade
	err := row.Scan(
		&i.ID,
		&i.ItemID,
		&i.ShadeNumber,
		&i.ShadeName,
		&i.StockCount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteShade = `-- name: DeleteShade :one
DELETE FROM shades
WHERE id = $1 AND item_id = $2
RETURNING id
`

type DeleteShadeParams struct {
	ID     uuid.UUID `json:"id"`
	ItemID uuid.UUID `json:"item_id"`
}

func (q *Queries) DeleteShade(ctx context.Context, arg DeleteShadeParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteShade, arg.ID, arg.ItemID)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

const getShade = `-- name: GetShade :one
SELECT id, item_id, shade_number, shade_name, stock_count, created_at, updated_at
FROM shades
WHERE id = $1
`

func (q *Queries) GetShade(ctx context.Context, id uuid.UUID) (Shade, error) {
	row := q.db.QueryRow(ctx, getShade, id)
	var i Shade
	err := row.Scan(
		&i.ID,
		&i.ItemID,
		&i.ShadeNumber,
		&i.ShadeName,
		&i.StockCount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listShades = `-- name: ListShades :many
SELECT id, item_id, shade_number, shade_name, stock_count, created_at, updated_at
FROM shades
ORDER BY item_id, shade_number ASC
`

func (q *Queries) ListShades(ctx context.Context) ([]Shade, error) {
	rows, err := q.db.Query(ctx, listShades)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Shade{}
	for rows.Next() {
		var i Shade
		if err := rows.Scan(
			&i.ID,
			&i.ItemID,
			&i.ShadeNumber,
			&i.ShadeName,
			&i.StockCount,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const listShadesByItem = `-- name: ListShadesByItem :many
SELECT id, item_id, shade_number, shade_name, stock_count, created_at, updated_at
FROM shades
WHERE item_id = $1
ORDER BY shade_number ASC
`

func (q *Queries) ListShadesByItem(ctx context.Context, itemID uuid.UUID) ([]Shade, error) {
	rows, err := q.db.Query(ctx, listShadesByItem, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Shade{}
	for rows.Next() {
		var i Shade
		if err := rows.Scan(
			&i.ID,
			&i.ItemID,
			&i.ShadeNumber,
			&i.ShadeName,
			&i.StockCount,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const updateShade = `-- name: UpdateShade :one
UPDATE shades
SET shade_number = $1,
    shade_name   = $2,
    stock_count  = $3,
    updated_at   = now()
WHERE id = $4 AND item_id = $5
RETURNING id, item_id, shade_number, shade_name, stock_count, created_at, updated_at
`

type UpdateShadeParams struct {
	ShadeNumber string    `json:"shade_number"`
	ShadeName   string    `json:"shade_name"`
	StockCount  int32     `json:"stock_count"`
	ID          uuid.UUID `json:"id"`
	ItemID      uuid.UUID `json:"item_id"`
}

func (q *Queries) UpdateShade(ctx context.Context, arg UpdateShadeParams) (Shade, error) {
	row := q.db.QueryRow(ctx, updateShade,
		arg.ShadeNumber,
		arg.ShadeName,
		arg.StockCount,
		arg.ID,
		arg.ItemID,
	)
	var i Shade
	err := row.Scan(
		&i.ID,
		&i.ItemID,
		&i.ShadeNumber,
		&i.ShadeName,
		&i.StockCount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
