package live

import (
	"context"
	"strings"
	"sync"
	"time"

	"qrmenu/order-svc/internal/domain"
)

// OrderSource is the read side of the order store.
type OrderSource interface {
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, restaurantID string, status *domain.Status) ([]domain.Order, error)
}

// Dispatcher receives committed order events, whichever backplane carried
// them.
type Dispatcher interface {
	Dispatch(event domain.OrderEvent)
	DispatchError(err error)
	// Resync reloads every subscription after events may have been missed.
	Resync()
}

type Hub struct {
	source OrderSource
	now    func() time.Time

	mu           sync.Mutex
	byRestaurant map[string]map[*Subscription]struct{}
	byOrder      map[string]map[*Subscription]struct{}
}

func NewHub(source OrderSource) *Hub {
	return &Hub{
		source:       source,
		now:          func() time.Time { return time.Now().UTC() },
		byRestaurant: make(map[string]map[*Subscription]struct{}),
		byOrder:      make(map[string]map[*Subscription]struct{}),
	}
}

// SubscribeRestaurantOrders streams the restaurant's orders, newest first,
// optionally narrowed to one status.
func (h *Hub) SubscribeRestaurantOrders(ctx context.Context, restaurantID string, status *domain.Status) (*Subscription, error) {
	const op = "subscribe restaurant orders"
	if strings.TrimSpace(restaurantID) == "" {
		return nil, domain.Validationf(op, "restaurant id is required")
	}
	if status != nil && !status.Valid() {
		return nil, domain.Validationf(op, "unknown status %q", *status)
	}

	sub := newSubscription(ctx, func(ctx context.Context) (Snapshot, error) {
		orders, err := h.source.ListOrders(ctx, restaurantID, status)
		if err != nil {
			return Snapshot{}, domain.StoreErr(op, err)
		}
		return Snapshot{RestaurantID: restaurantID, Status: status, Orders: orders, At: h.now()}, nil
	})
	h.register(h.byRestaurant, restaurantID, sub)
	return sub, nil
}

// SubscribeOrder streams a single order, as a customer tracking page does.
func (h *Hub) SubscribeOrder(ctx context.Context, orderID string) (*Subscription, error) {
	const op = "subscribe order"
	if strings.TrimSpace(orderID) == "" {
		return nil, domain.Validationf(op, "order id is required")
	}

	sub := newSubscription(ctx, func(ctx context.Context) (Snapshot, error) {
		order, err := h.source.GetOrder(ctx, orderID)
		if err != nil && !domain.IsNotFound(err) {
			return Snapshot{}, domain.StoreErr(op, err)
		}
		return Snapshot{OrderID: orderID, Order: order, At: h.now()}, nil
	})
	h.register(h.byOrder, orderID, sub)
	return sub, nil
}

// Dispatch marks every subscription the event may affect. Restaurant
// subscriptions reload on any change to the restaurant, since a status change
// can move an order in or out of a filtered set.
func (h *Hub) Dispatch(event domain.OrderEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.byRestaurant[event.RestaurantID] {
		sub.notify()
	}
	for sub := range h.byOrder[event.OrderID] {
		sub.notify()
	}
}

// DispatchError reports a transport failure to every subscriber.
func (h *Hub) DispatchError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, group := range []map[string]map[*Subscription]struct{}{h.byRestaurant, h.byOrder} {
		for _, subs := range group {
			for sub := range subs {
				sub.fail(err)
			}
		}
	}
}

func (h *Hub) Resync() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, group := range []map[string]map[*Subscription]struct{}{h.byRestaurant, h.byOrder} {
		for _, subs := range group {
			for sub := range subs {
				sub.notify()
			}
		}
	}
}

// Count returns the number of open subscriptions.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, subs := range h.byRestaurant {
		n += len(subs)
	}
	for _, subs := range h.byOrder {
		n += len(subs)
	}
	return n
}

// register adds sub before its goroutine starts, so no event committed after
// Subscribe returns can be missed.
func (h *Hub) register(index map[string]map[*Subscription]struct{}, key string, sub *Subscription) {
	h.mu.Lock()
	subs, ok := index[key]
	if !ok {
		subs = make(map[*Subscription]struct{})
		index[key] = subs
	}
	subs[sub] = struct{}{}
	h.mu.Unlock()

	sub.release = func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(index[key], sub)
		if len(index[key]) == 0 {
			delete(index, key)
		}
	}
	go sub.run()
}

var _ Dispatcher = (*Hub)(nil)
