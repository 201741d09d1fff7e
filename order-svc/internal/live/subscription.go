package live

import (
	"context"
	"sync"
	"time"

	"qrmenu/order-svc/internal/domain"
)

// Snapshot is the complete current state seen by one subscriber. Orders is set
// for restaurant subscriptions (newest first), Order for single-order ones; a
// nil Order means the order does not exist.
type Snapshot struct {
	Version      uint64         `json:"version"`
	RestaurantID string         `json:"restaurant_id,omitempty"`
	Status       *domain.Status `json:"status,omitempty"`
	Orders       []domain.Order `json:"orders,omitempty"`
	OrderID      string         `json:"order_id,omitempty"`
	Order        *domain.Order  `json:"order,omitempty"`
	At           time.Time      `json:"at"`
}

// Stream is the consumer side of a subscription.
type Stream interface {
	Snapshots() <-chan Snapshot
	Errors() <-chan error
	Close() error
}

type loader func(ctx context.Context) (Snapshot, error)

const (
	minRetry = 50 * time.Millisecond
	maxRetry = 5 * time.Second
)

// Subscription delivers snapshots from a single goroutine. Change signals
// that arrive while the consumer is busy are folded into one reload, and a
// snapshot that went stale before it was taken is replaced by a fresh one.
type Subscription struct {
	load     loader
	release  func()
	dirty    chan struct{}
	failures chan error

	snapshots chan Snapshot
	errors    chan error

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
	version uint64
	retry   time.Duration
}

func newSubscription(ctx context.Context, load loader) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		load:      load,
		dirty:     make(chan struct{}, 1),
		failures:  make(chan error, 8),
		snapshots: make(chan Snapshot),
		errors:    make(chan error, 8),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		retry:     minRetry,
	}
	s.notify()
	return s
}

func (s *Subscription) Snapshots() <-chan Snapshot { return s.snapshots }

func (s *Subscription) Errors() <-chan error { return s.errors }

// Done is closed once the subscription has stopped delivering.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close stops delivery and unregisters the subscription. It may be called any
// number of times, from any goroutine.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		if s.release != nil {
			s.release()
		}
	})
	return nil
}

func (s *Subscription) notify() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Subscription) fail(err error) {
	select {
	case s.failures <- err:
	default:
	}
}

func (s *Subscription) run() {
	defer close(s.done)
	defer close(s.errors)
	defer close(s.snapshots)
	defer s.Close()

	for {
		select {
		case <-s.ctx.Done():
			return
		case err := <-s.failures:
			s.report(err)
		case <-s.dirty:
			if !s.deliver() {
				return
			}
		}
	}
}

// deliver loads and hands over one snapshot. A failed load is reported and
// retried with growing delay, so the subscriber still gets current state once
// the store recovers. It reports false once the subscription is cancelled.
func (s *Subscription) deliver() bool {
	for {
		snap, err := s.load(s.ctx)
		if err != nil {
			if s.ctx.Err() != nil {
				return false
			}
			s.report(err)
			time.AfterFunc(s.retry, s.notify)
			s.retry = min(2*s.retry, maxRetry)
			return true
		}
		s.retry = minRetry

		s.version++
		snap.Version = s.version
		select {
		case s.snapshots <- snap:
			return true
		case <-s.dirty:
			continue
		case err := <-s.failures:
			s.report(err)
			s.notify()
			continue
		case <-s.ctx.Done():
			return false
		}
	}
}

func (s *Subscription) report(err error) {
	select {
	case s.errors <- err:
	default:
	}
}

var _ Stream = (*Subscription)(nil)
