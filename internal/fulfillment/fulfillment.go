// Package fulfillment derives an order's status from its lines.
//
// An order starts open, becomes pending once some line is fulfilled and
// closed once every line is. An Admin may force an order closed at any
// time; a force-closed order is terminal and rejects further toggles.
// Cancelled is terminal too but nothing here moves an order into it.
package fulfillment

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shadestock/api/internal/enum"
)

var (
	ErrForceClosed   = errors.New("order was closed by an administrator")
	ErrCancelled     = errors.New("order is cancelled")
	ErrAlreadyClosed = errors.New("order is already closed")
)

// Order is the part of an order the state machine reads.
type Order struct {
	Status      string
	ForceClosed bool
}

// Line is the fulfillment state of one order line. A zero FulfilledBy
// and FulfilledAt mean absent.
type Line struct {
	Fulfilled   bool
	FulfilledBy uuid.UUID
	FulfilledAt time.Time
}

// Derive maps line fulfillment flags to a status. No lines derives open.
func Derive(fulfilled []bool) string {
	done := 0
	for _, f := range fulfilled {
		if f {
			done++
		}
	}
	switch {
	case len(fulfilled) > 0 && done == len(fulfilled):
		return enum.OrderStatusClosed
	case done > 0:
		return enum.OrderStatusPending
	default:
		return enum.OrderStatusOpen
	}
}

// Recompute returns the status o should hold given its current lines.
func Recompute(o Order, fulfilled []bool) string {
	if o.ForceClosed {
		return enum.OrderStatusClosed
	}
	if o.Status == enum.OrderStatusCancelled {
		return enum.OrderStatusCancelled
	}
	return Derive(fulfilled)
}

// CheckToggle reports whether a line of o may change fulfillment.
func CheckToggle(o Order) error {
	if o.ForceClosed {
		return ErrForceClosed
	}
	if o.Status == enum.OrderStatusCancelled {
		return ErrCancelled
	}
	return nil
}

// Toggle flips l. Becoming fulfilled stamps actor and now; becoming
// unfulfilled clears both.
func Toggle(l Line, actor uuid.UUID, now time.Time) Line {
	if l.Fulfilled {
		return Line{}
	}
	return Line{Fulfilled: true, FulfilledBy: actor, FulfilledAt: now}
}

// CheckForceClose reports whether o may be force-closed.
func CheckForceClose(o Order) error {
	switch o.Status {
	case enum.OrderStatusClosed:
		return ErrAlreadyClosed
	case enum.OrderStatusCancelled:
		return ErrCancelled
	}
	return nil
}
