package database

import (
	"context"

	"github.com/google/uuid"
)

const createItem = `-- name: CreateItem :one
INSERT INTO items (name, photo_url, description, track_inventory)
VALUES ($1, $2, $3, $4)
RETURNING id, name, photo_url, description, track_inventory, created_at, updated_at
`

type CreateItemParams struct {
	Name           string `json:"name"`
	PhotoUrl       string `json:"photo_url"`
	Description    string `json:"description"`
	TrackInventory bool   `json:"track_inventory"`
}

func (q *Queries) CreateItem(ctx context.Context, arg CreateItemParams) (Item, error) {
	row := q.db.QueryRow(ctx, createItem,
		arg.Name,
		arg.PhotoUrl,
		arg.Description,
		arg.TrackInventory,
	)
	var i Item
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.PhotoUrl,
		&i.Description,
		&i.TrackInventory,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteItem = `-- name: DeleteItem :one
DELETE FROM items
WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteItem, id)
	err := row.Scan(&id)
	return id, err
}

const getItem = `-- name: GetItem :one
SELECT id, name, photo_url, description, track_inventory, created_at, updated_at
FROM items
WHERE id = $1
`

func (q *Queries) GetItem(ctx context.Context, id uuid.UUID) (Item, error) {
	row := q.db.QueryRow(ctx, getItem, id)
	var i Item
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.PhotoUrl,
		&i.Description,
		&i.TrackInventory,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listItems = `-- name: ListItems :many
SELECT id, name, photo_url, description, track_inventory, created_at, updated_at
FROM items
ORDER BY name ASC
`

func (q *Queries) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := q.db.Query(ctx, listItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		var i Item
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.PhotoUrl,
			&i.Description,
			&i.TrackInventory,
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

const updateItem = `-- name: UpdateItem :one
UPDATE items
SET name            = $1,
    photo_url       = $2,
    description     = $3,
    track_inventory = $4,
    updated_at      = now()
WHERE id = $5
RETURNING id, name, photo_url, description, track_inventory, created_at, updated_at
`

type UpdateItemParams struct {
	Name           string    `json:"name"`
	PhotoUrl       string    `json:"photo_url"`
	Description    string    `json:"description"`
	TrackInventory bool      `json:"track_inventory"`
	ID             uuid.UUID `json:"id"`
}

func (q *Queries) UpdateItem(ctx context.Context, arg UpdateItemParams) (Item, error) {
	row := q.db.QueryRow(ctx, updateItem,
		arg.Name,
		arg.PhotoUrl,
		arg.Description,
		arg.TrackInventory,
		arg.ID,
	)
	var i Item
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.PhotoUrl,
		&i.Description,
		&i.TrackInventory,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
