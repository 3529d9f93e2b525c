// Package feed turns inserted orders into notifications. Postgres
// announces each insert on a channel; a dedicated connection LISTENs and
// hands the payload to a Relay, which loads the order and broadcasts it.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderInsertsChannel is the channel the orders_notify_insert trigger
// notifies with the new order's id.
const OrderInsertsChannel = "order_inserts"

// Delays between resubscribe attempts in Run, doubling up to the max.
var (
	minRetryDelay = time.Second
	maxRetryDelay = 30 * time.Second
)

// Conn is a connection held for the lifetime of a subscription.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Release()
}

// Acquirer hands out dedicated connections.
type Acquirer interface {
	Acquire(ctx context.Context) (Conn, error)
}

// PoolAcquirer adapts a pgxpool.Pool to Acquirer.
type PoolAcquirer struct {
	Pool *pgxpool.Pool
}

func (a PoolAcquirer) Acquire(ctx context.Context) (Conn, error) {
	c, err := a.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return poolConn{c}, nil
}

type poolConn struct {
	*pgxpool.Conn
}

func (c poolConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	return c.Conn.Conn().WaitForNotification(ctx)
}

// Subscription is an active LISTEN. Close it to release the connection.
type Subscription struct {
	conn    Conn
	channel string
	cancel  context.CancelFunc
	done    chan struct{}

	once sync.Once
	mu   sync.Mutex
	err  error
}

// Subscribe LISTENs on channel using a connection from acq and calls
// onEvent with each notification payload, one at a time, until ctx is
// cancelled or Close is called.
func Subscribe(ctx context.Context, acq Acquirer, channel string, onEvent func(ctx context.Context, payload string)) (*Subscription, error) {
	conn, err := acq.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire conn: %w", err)
	}

	ident := pgx.Identifier{channel}.Sanitize()
	if _, err := conn.Exec(ctx, "LISTEN "+ident); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		conn:    conn,
		channel: ident,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.loop(ctx, onEvent)
	return s, nil
}

func (s *Subscription) loop(ctx context.Context, onEvent func(ctx context.Context, payload string)) {
	defer close(s.done)
	for {
		n, err := s.conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("ERROR: wait for notification on %s: %v", s.channel, err)
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			return
		}
		onEvent(ctx, n.Payload)
	}
}

// Done is closed once the subscription stops receiving.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err returns the error that stopped the subscription, if any.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops receiving, UNLISTENs and releases the connection. It is
// safe to call more than once.
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		<-s.done

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, uerr := s.conn.Exec(ctx, "UNLISTEN "+s.channel); uerr != nil && !errors.Is(uerr, context.Canceled) {
			err = fmt.Errorf("unlisten %s: %w", s.channel, uerr)
		}
		s.conn.Release()
	})
	return err
}

// Run keeps a subscription on channel alive until ctx is done. When the
// connection is lost, or a subscribe attempt fails, it subscribes again
// after a delay that doubles up to maxRetryDelay. Notifications sent
// while no connection is listening are not replayed.
func Run(ctx context.Context, acq Acquirer, channel string, onEvent func(ctx context.Context, payload string)) {
	delay := minRetryDelay
	for {
		sub, err := Subscribe(ctx, acq, channel, onEvent)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("ERROR: subscribe to %s: %v (retrying in %s)", channel, err, delay)
		} else {
			log.Printf("Listening for notifications on %s", channel)
			delay = minRetryDelay

			select {
			case <-ctx.Done():
			case <-sub.Done():
			}
			if err := sub.Close(); err != nil {
				log.Printf("WARNING: close subscription: %v", err)
			}
			if ctx.Err() != nil {
				return
			}
			log.Printf("ERROR: lost subscription to %s: %v (retrying in %s)", channel, sub.Err(), delay)
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		delay = min(delay*2, maxRetryDelay)
	}
}
