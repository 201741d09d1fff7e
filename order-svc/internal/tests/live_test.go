package tests

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrmenu/order-svc/internal/domain"
	"qrmenu/order-svc/internal/live"
	"qrmenu/order-svc/internal/service"
	"qrmenu/order-svc/internal/storage"
)

const waitTimeout = 2 * time.Second

func newLiveFixture(opts ...service.OrderOption) (*live.Hub, *service.OrderService) {
	store := storage.NewMemoryStore()
	hub := live.NewHub(store)
	svc := service.NewOrderService(store, live.LocalBackplane{Hub: hub}, testOrigin, opts...)
	return hub, svc
}

// waitFor reads snapshots until one satisfies match.
func waitFor(t *testing.T, sub *live.Subscription, match func(live.Snapshot) bool) live.Snapshot {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case snap, ok := <-sub.Snapshots():
			require.True(t, ok, "subscription closed")
			if match(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestHub_RestaurantSubscriptionSeesNewOrderFirst(t *testing.T) {
	ctx := context.Background()
	hub, svc := newLiveFixture(service.WithClock(steppingClock()))

	older, err := svc.CreateOrder(ctx, burgerRequest("r1"))
	require.NoError(t, err)

	sub, err := hub.SubscribeRestaurantOrders(ctx, "r1", nil)
	require.NoError(t, err)
	defer sub.Close()

	initial := waitFor(t, sub, func(live.Snapshot) bool { return true })
	require.Len(t, initial.Orders, 1)
	assert.Equal(t, older.ID, initial.Orders[0].ID)
	assert.Equal(t, "r1", initial.RestaurantID)

	newer, err := svc.CreateOrder(ctx, burgerRequest("r1"))
	require.NoError(t, err)

	snap := waitFor(t, sub, func(s live.Snapshot) bool { return len(s.Orders) == 2 })
	assert.Equal(t, newer.ID, snap.Orders[0].ID)
	assert.Equal(t, older.ID, snap.Orders[1].ID)
	assert.Greater(t, snap.Version, initial.Version)
}

func TestHub_FilteredSubscriptionFollowsStatusChanges(t *testing.T) {
	ctx := context.Background()
	hub, svc := newLiveFixture()

	order, err := svc.CreateOrder(ctx, burgerRequest("r1"))
	require.NoError(t, err)

	preparing := domain.StatusPreparing
	sub, err := hub.SubscribeRestaurantOrders(ctx, "r1", &preparing)
	require.NoError(t, err)
	defer sub.Close()

	initial := waitFor(t, sub, func(live.Snapshot) bool { return true })
	assert.Empty(t, initial.Orders)

	_, err = svc.AdvanceOrder(ctx, order.ID)
	require.NoError(t, err)
	snap := waitFor(t, sub, func(s live.Snapshot) bool { return len(s.Orders) == 1 })
	assert.Equal(t, domain.StatusPreparing, snap.Orders[0].Status())

	_, err = svc.AdvanceOrder(ctx, order.ID)
	require.NoError(t, err)
	waitFor(t, sub, func(s live.Snapshot) bool { return len(s.Orders) == 0 })
}

func TestHub_OtherRestaurantsDoNotWakeSubscriber(t *testing.T) {
	ctx := context.Background()
	hub, svc := newLiveFixture()

	sub, err := hub.SubscribeRestaurantOrders(ctx, "r1", nil)
	require.NoError(t, err)
	defer sub.Close()
	first := waitFor(t, sub, func(live.Snapshot) bool { return true })

	_, err = svc.CreateOrder(ctx, burgerRequest("r2"))
	require.NoError(t, err)

	select {
	case snap := <-sub.Snapshots():
		t.Fatalf("unexpected snapshot version %d", snap.Version)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, uint64(1), first.Version)
}

func TestHub_OrderSubscription(t *testing.T) {
	ctx := context.Background()
	hub, svc := newLiveFixture(service.WithIDGenerator(func() string { return "o-fixed" }))

	sub, err := hub.SubscribeOrder(ctx, "o-fixed")
	require.NoError(t, err)
	defer sub.Close()

	missing := waitFor(t, sub, func(live.Snapshot) bool { return true })
	assert.Nil(t, missing.Order, "order does not exist yet")
	assert.Equal(t, "o-fixed", missing.OrderID)

	_, err = svc.CreateOrder(ctx, burgerRequest("r1"))
	require.NoError(t, err)
	created := waitFor(t, sub, func(s live.Snapshot) bool { return s.Order != nil })
	assert.Equal(t, domain.StatusPending, created.Order.Status())

	_, err = svc.AdvanceOrder(ctx, "o-fixed")
	require.NoError(t, err)
	waitFor(t, sub, func(s live.Snapshot) bool {
		return s.Order != nil && s.Order.Status() == domain.StatusPreparing
	})
}

func TestHub_SubscribeValidation(t *testing.T) {
	hub, _ := newLiveFixture()

	_, err := hub.SubscribeRestaurantOrders(context.Background(), "", nil)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	bogus := domain.Status("shipped")
	_, err = hub.SubscribeRestaurantOrders(context.Background(), "r1", &bogus)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = hub.SubscribeOrder(context.Background(), " ")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	hub, _ := newLiveFixture()

	sub, err := hub.SubscribeRestaurantOrders(context.Background(), "r1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Count())

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	select {
	case <-sub.Done():
	case <-time.After(waitTimeout):
		t.Fatal("subscription did not stop")
	}
	assert.Equal(t, 0, hub.Count())

	for range sub.Snapshots() {
	}
	_, ok := <-sub.Snapshots()
	assert.False(t, ok)
}

func TestSubscription_StopsWithContext(t *testing.T) {
	hub, _ := newLiveFixture()
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := hub.SubscribeOrder(ctx, "o1")
	require.NoError(t, err)
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(waitTimeout):
		t.Fatal("subscription did not stop")
	}
	assert.Equal(t, 0, hub.Count())
}

func TestSubscription_TransportErrors(t *testing.T) {
	hub, _ := newLiveFixture()

	sub, err := hub.SubscribeRestaurantOrders(context.Background(), "r1", nil)
	require.NoError(t, err)
	defer sub.Close()
	waitFor(t, sub, func(live.Snapshot) bool { return true })

	hub.DispatchError(errors.New("redis connection lost"))

	select {
	case err := <-sub.Errors():
		assert.EqualError(t, err, "redis connection lost")
	case <-time.After(waitTimeout):
		t.Fatal("no error delivered")
	}
}

// flakySource fails the first failures reads of the order list.
type flakySource struct {
	*storage.MemoryStore
	failures atomic.Int32
}

func (f *flakySource) ListOrders(ctx context.Context, restaurantID string, status *domain.Status) ([]domain.Order, error) {
	if f.failures.Add(-1) >= 0 {
		return nil, errors.New("connection reset")
	}
	return f.MemoryStore.ListOrders(ctx, restaurantID, status)
}

func TestSubscription_InitialSnapshotAfterFailedLoad(t *testing.T) {
	ctx := context.Background()
	source := &flakySource{MemoryStore: storage.NewMemoryStore()}
	source.failures.Store(2)
	hub := live.NewHub(source)
	svc := service.NewOrderService(source.MemoryStore, live.LocalBackplane{Hub: hub}, testOrigin)

	_, err := svc.CreateOrder(ctx, burgerRequest("r1"))
	require.NoError(t, err)

	sub, err := hub.SubscribeRestaurantOrders(ctx, "r1", nil)
	require.NoError(t, err)
	defer sub.Close()

	select {
	case err := <-sub.Errors():
		assert.ErrorIs(t, err, domain.ErrStore)
	case <-time.After(waitTimeout):
		t.Fatal("load failure not reported")
	}

	snap := waitFor(t, sub, func(live.Snapshot) bool { return true })
	assert.Equal(t, uint64(1), snap.Version)
	assert.Len(t, snap.Orders, 1)
}

func TestWatch_UnsubscribeFromCallback(t *testing.T) {
	ctx := context.Background()
	hub, svc := newLiveFixture()

	sub, err := hub.SubscribeRestaurantOrders(ctx, "r1", nil)
	require.NoError(t, err)

	var calls atomic.Int32
	received := make(chan live.Snapshot, 4)
	var unsubscribe func()
	ready := make(chan struct{})
	unsubscribe = live.Watch(sub, func(snap live.Snapshot) {
		<-ready
		calls.Add(1)
		received <- snap
		if len(snap.Orders) == 1 {
			unsubscribe()
		}
	}, nil)
	close(ready)

	select {
	case <-received:
	case <-time.After(waitTimeout):
		t.Fatal("no initial snapshot")
	}

	_, err = svc.CreateOrder(ctx, burgerRequest("r1"))
	require.NoError(t, err)

	deadline := time.After(waitTimeout)
	for done := false; !done; {
		select {
		case snap := <-received:
			done = len(snap.Orders) == 1
		case <-deadline:
			t.Fatal("order never reached the callback")
		}
	}

	select {
	case <-sub.Done():
	case <-time.After(waitTimeout):
		t.Fatal("unsubscribe did not close the stream")
	}

	before := calls.Load()
	_, err = svc.CreateOrder(ctx, burgerRequest("r1"))
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, calls.Load())

	unsubscribe()
}
