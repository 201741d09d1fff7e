package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"qrmenu/order-svc/internal/domain"
)

type OrderService struct {
	repo   OrderRepository
	events EventPublisher
	origin string
	now    func() time.Time
	newID  func() string
}

type OrderOption func(*OrderService)

func WithClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

func WithIDGenerator(newID func() string) OrderOption {
	return func(s *OrderService) { s.newID = newID }
}

// NewOrderService wires the order store. events may be nil, in which case
// mutations are not announced to subscribers.
func NewOrderService(repo OrderRepository, events EventPublisher, origin string, opts ...OrderOption) *OrderService {
	s := &OrderService{
		repo:   repo,
		events: events,
		origin: origin,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OrderService) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	const op = "create order"

	order, err := domain.NewOrder(s.newID(), req.RestaurantID, req.TableNumber, req.CustomerInfo, req.Items, s.now())
	if err != nil {
		return nil, err
	}
	if req.TotalAmount != nil && !req.TotalAmount.Equal(order.TotalAmount) {
		return nil, domain.Validationf(op, "total %s does not match items total %s",
			req.TotalAmount, order.TotalAmount.StringFixed(2))
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, domain.StoreErr(op, err)
	}

	s.publish(ctx, domain.NewOrderEvent(domain.OrderCreated, order))
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, domain.StoreErr("get order", err)
	}
	return order, nil
}

func (s *OrderService) ListOrdersByRestaurant(ctx context.Context, restaurantID string, status *domain.Status) ([]domain.Order, error) {
	const op = "list orders"
	if restaurantID == "" {
		return nil, domain.Validationf(op, "restaurant id is required")
	}
	if status != nil && !status.Valid() {
		return nil, domain.Validationf(op, "unknown status %q", *status)
	}
	orders, err := s.repo.ListOrders(ctx, restaurantID, status)
	if err != nil {
		return nil, domain.StoreErr(op, err)
	}
	return orders, nil
}

// UpdateStatus moves an order one step along its lifecycle. The write only
// lands if nobody else changed the status since it was read, so of two
// concurrent advances to the same status exactly one succeeds.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, to domain.Status) (*domain.Order, error) {
	const op = "update status"
	if !to.Valid() {
		return nil, domain.Validationf(op, "unknown status %q", to)
	}

	current, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, domain.StoreErr(op, err)
	}

	updated := current.Clone()
	if err := updated.Advance(to, s.now()); err != nil {
		return nil, err
	}

	ok, err := s.repo.UpdateStatus(ctx, id, current.Status(), to, updated.UpdatedAt)
	if err != nil {
		return nil, domain.StoreErr(op, err)
	}
	if !ok {
		return nil, s.lostRace(ctx, op, id, to)
	}

	s.publish(ctx, domain.NewOrderEvent(domain.OrderStatusChanged, updated))
	return updated, nil
}

// AdvanceOrder moves the order to whatever status follows its current one.
func (s *OrderService) AdvanceOrder(ctx context.Context, id string) (*domain.Order, error) {
	current, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, domain.StoreErr("advance order", err)
	}
	next, ok := current.Status().Next()
	if !ok {
		return nil, &domain.Error{
			Kind: domain.ErrInvalidTransition,
			Op:   "advance order",
			Msg:  fmt.Sprintf("order %s is already %s", id, current.Status()),
		}
	}
	return s.UpdateStatus(ctx, id, next)
}

func (s *OrderService) StatusCounts(ctx context.Context, restaurantID string) (map[domain.Status]int, error) {
	counts, err := s.repo.CountByStatus(ctx, restaurantID)
	if err != nil {
		return nil, domain.StoreErr("status counts", err)
	}
	for _, st := range domain.Statuses() {
		if _, ok := counts[st]; !ok {
			counts[st] = 0
		}
	}
	return counts, nil
}

func (s *OrderService) TrackingURL(orderID string) string {
	return domain.TrackingURL(s.origin, orderID)
}

// lostRace explains a compare-and-set that matched no row: either the order
// vanished or its status moved on underneath us.
func (s *OrderService) lostRace(ctx context.Context, op, id string, to domain.Status) error {
	latest, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return domain.StoreErr(op, err)
	}
	return &domain.Error{
		Kind: domain.ErrInvalidTransition,
		Op:   op,
		Msg:  fmt.Sprintf("order %s is now %s, cannot move to %s", id, latest.Status(), to),
	}
}

func (s *OrderService) publish(ctx context.Context, event domain.OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		log.Printf("orders: failed to publish %s for %s: %v", event.Type, event.OrderID, err)
	}
}

var _ OrderServiceInterface = (*OrderService)(nil)
