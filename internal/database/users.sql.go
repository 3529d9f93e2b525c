package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createUser = `-- name: CreateUser :one
INSERT INTO users (username, username_key, password_hash, role, full_name)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, username, username_key, password_hash, role, full_name, created_at, updated_at
`

type CreateUserParams struct {
	Username     string `json:"username"`
	UsernameKey  string `json:"username_key"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
	FullName     string `json:"full_name"`
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser,
		arg.Username,
		arg.UsernameKey,
		arg.PasswordHash,
		arg.Role,
		arg.FullName,
	)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.UsernameKey,
		&i.PasswordHash,
		&i.Role,
		&i.FullName,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteUser = `-- name: DeleteUser :one
DELETE FROM users
WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteUser, id)
	err := row.Scan(&id)
	return id, err
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, username, username_key, password_hash, role, full_name, created_at, updated_at
FROM users
WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.UsernameKey,
		&i.PasswordHash,
		&i.Role,
		&i.FullName,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getUserByUsernameKey = `-- name: GetUserByUsernameKey :one
SELECT id, username, username_key, password_hash, role, full_name, created_at, updated_at
FROM users
WHERE username_key = $1
`

func (q *Queries) GetUserByUsernameKey(ctx context.Context, usernameKey string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByUsernameKey, usernameKey)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.UsernameKey,
		&i.PasswordHash,
		&i.Role,
		&i.FullName,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listUsers = `-- name: ListUsers :many
SELECT id, username, username_key, password_hash, role, full_name, created_at, updated_at
FROM users
ORDER BY created_at DESC
`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []User{}
	for rows.Next() {
		var i User
		if err := rows.Scan(
			&i.ID,
			&i.Username,
			&i.UsernameKey,
			&i.PasswordHash,
			&i.Role,
			&i.FullName,
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

const updateUser = `-- name: UpdateUser :one
UPDATE users
SET username      = $1,
    username_key  = $2,
    role          = $3,
    full_name     = $4,
    password_hash = COALESCE($5, password_hash),
    updated_at    = now()
WHERE id = $6
RETURNING id, username, username_key, password_hash, role, full_name, created_at, updated_at
`

type UpdateUserParams struct {
	Username     string      `json:"username"`
	UsernameKey  string      `json:"username_key"`
	Role         string      `json:"role"`
	FullName     string      `json:"full_name"`
	PasswordHash pgtype.Text `json:"password_hash"`
	ID           uuid.UUID   `json:"id"`
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, updateUser,
		arg.Username,
		arg.UsernameKey,
		arg.Role,
		arg.FullName,
		arg.PasswordHash,
		arg.ID,
	)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.UsernameKey,
		&i.PasswordHash,
		&i.Role,
		&i.FullName,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
