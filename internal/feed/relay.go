package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shadestock/api/internal/database"
	"github.com/shadestock/api/internal/ws"
	"github.com/shopspring/decimal"
)

// NewOrderEvent is the type of the notification sent for a new order.
const NewOrderEvent = "new_order"

// NotificationStore loads the order a notification describes.
// Satisfied by *database.Queries; narrow interface for testability.
type NotificationStore interface {
	GetOrderNotification(ctx context.Context, id uuid.UUID) (database.GetOrderNotificationRow, error)
}

// Broadcaster delivers events to connected clients. Satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(event ws.Event)
}

// Relay converts order-insert notifications into hub events.
type Relay struct {
	store NotificationStore
	hub   Broadcaster
	now   func() time.Time
}

func NewRelay(store NotificationStore, hub Broadcaster) *Relay {
	return &Relay{store: store, hub: hub, now: time.Now}
}

type orderData struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"order_number"`
	ClientID    uuid.UUID `json:"client_id"`
	ClientName  string    `json:"client_name"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatorName string    `json:"creator_name"`
	OrderDate   string    `json:"order_date"`
	Status      string    `json:"status"`
	TotalAmount string    `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// Handle is the Subscribe callback. payload is the inserted order id.
// Failures are logged; a lost notification is not retried.
func (r *Relay) Handle(ctx context.Context, payload string) {
	if err := r.relay(ctx, payload); err != nil {
		log.Printf("ERROR: relay order notification %q: %v", payload, err)
	}
}

func (r *Relay) relay(ctx context.Context, payload string) error {
	id, err := uuid.Parse(payload)
	if err != nil {
		return fmt.Errorf("parse order id: %w", err)
	}

	row, err := r.store.GetOrderNotification(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("order %s no longer exists", id)
		}
		return fmt.Errorf("load order: %w", err)
	}

	event, err := r.Build(row)
	if err != nil {
		return err
	}
	r.hub.Broadcast(event)
	return nil
}

// Build renders row as a new-order event.
func (r *Relay) Build(row database.GetOrderNotificationRow) (ws.Event, error) {
	data, err := json.Marshal(orderData{
		ID:          row.ID,
		OrderNumber: row.OrderNumber,
		ClientID:    row.ClientID,
		ClientName:  row.ClientName,
		CreatedBy:   row.CreatedBy,
		CreatorName: row.CreatorName,
		OrderDate:   formatDate(row.OrderDate),
		Status:      string(row.Status),
		TotalAmount: formatMoney(row.TotalAmount),
		CreatedAt:   row.CreatedAt,
	})
	if err != nil {
		return ws.Event{}, fmt.Errorf("marshal order: %w", err)
	}

	return ws.Event{
		ID:        "order-" + row.ID.String(),
		Type:      NewOrderEvent,
		Message:   fmt.Sprintf("New order %s from %s", row.OrderNumber, row.ClientName),
		Data:      data,
		Timestamp: r.now().UTC(),
	}, nil
}

func formatDate(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format("2006-01-02")
}

func formatMoney(n pgtype.Numeric) string {
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
