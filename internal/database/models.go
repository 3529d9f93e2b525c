package database

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusClosed    OrderStatus = "closed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (e *OrderStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = OrderStatus(s)
	case string:
		*e = OrderStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for OrderStatus: %T", src)
	}
	return nil
}

func (e OrderStatus) Value() (driver.Value, error) {
	return string(e), nil
}

type NullOrderStatus struct {
	OrderStatus OrderStatus
	Valid       bool // Valid is true if OrderStatus is not NULL
}

func (ns *NullOrderStatus) Scan(value interface{}) error {
	if value == nil {
		ns.OrderStatus, ns.Valid = "", false
		return nil
	}
	ns.Valid = true
	return ns.OrderStatus.Scan(value)
}

func (ns NullOrderStatus) Value() (driver.Value, error) {
	if !ns.Valid {
		return nil, nil
	}
	return string(ns.OrderStatus), nil
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	UsernameKey  string    `json:"username_key"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	FullName     string    `json:"full_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Client struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Item struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	PhotoUrl       string    `json:"photo_url"`
	Description    string    `json:"description"`
	TrackInventory bool      `json:"track_inventory"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Shade struct {
	ID          uuid.UUID `json:"id"`
	ItemID      uuid.UUID `json:"item_id"`
	ShadeNumber string    `json:"shade_number"`
	ShadeName   string    `json:"shade_name"`
	StockCount  int32     `json:"stock_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Order struct {
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
}

type OrderItem struct {
	ID          uuid.UUID          `json:"id"`
	OrderID     uuid.UUID          `json:"order_id"`
	ItemID      uuid.UUID          `json:"item_id"`
	ShadeID     uuid.UUID          `json:"shade_id"`
	Quantity    int32              `json:"quantity"`
	Rate        pgtype.Numeric     `json:"rate"`
	Amount      pgtype.Numeric     `json:"amount"`
	IsFulfilled bool               `json:"is_fulfilled"`
	FulfilledBy pgtype.UUID        `json:"fulfilled_by"`
	FulfilledAt pgtype.Timestamptz `json:"fulfilled_at"`
	CreatedAt   time.Time          `json:"created_at"`
}
