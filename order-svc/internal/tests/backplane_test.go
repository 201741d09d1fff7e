package tests

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrmenu/order-svc/internal/domain"
	"qrmenu/order-svc/internal/live"
	"qrmenu/order-svc/internal/service"
	"qrmenu/order-svc/internal/storage"
)

type recordingDispatcher struct {
	events  chan domain.OrderEvent
	errs    chan error
	resyncs atomic.Int32
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{events: make(chan domain.OrderEvent, 8), errs: make(chan error, 8)}
}

func (d *recordingDispatcher) Dispatch(event domain.OrderEvent) { d.events <- event }

func (d *recordingDispatcher) DispatchError(err error) { d.errs <- err }

func (d *recordingDispatcher) Resync() { d.resyncs.Add(1) }

var _ live.Dispatcher = (*recordingDispatcher)(nil)

func TestRedisBackplane_RelaysEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	backplane := storage.NewRedisBackplane(client)
	dispatcher := newRecordingDispatcher()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- backplane.Run(ctx, dispatcher) }()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(storage.OrderEventsChannel)[storage.OrderEventsChannel] == 1
	}, waitTimeout, 10*time.Millisecond)

	event := domain.OrderEvent{
		Type:         domain.OrderStatusChanged,
		OrderID:      "o1",
		RestaurantID: "r1",
		Status:       domain.StatusPreparing,
		TotalAmount:  dec("12.50"),
		Timestamp:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, backplane.PublishOrderEvent(ctx, event))
	assert.Equal(t, int32(1), dispatcher.resyncs.Load())

	select {
	case got := <-dispatcher.events:
		assert.Equal(t, "o1", got.OrderID)
		assert.Equal(t, domain.StatusPreparing, got.Status)
		assert.True(t, got.TotalAmount.Equal(dec("12.5")))
	case <-time.After(waitTimeout):
		t.Fatal("event not relayed")
	}

	require.NoError(t, client.Publish(ctx, storage.OrderEventsChannel, "not json").Err())
	select {
	case err := <-dispatcher.errs:
		assert.Contains(t, err.Error(), "unmarshal")
	case <-time.After(waitTimeout):
		t.Fatal("decode error not reported")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("backplane did not stop")
	}
}

func TestRedisBackplane_FeedsHubAcrossReplicas(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// two replicas share the database and the redis channel
	store := storage.NewMemoryStore()
	writerClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	readerClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer writerClient.Close()
	defer readerClient.Close()

	readerHub := live.NewHub(store)
	go storage.NewRedisBackplane(readerClient).Run(ctx, readerHub)
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(storage.OrderEventsChannel)[storage.OrderEventsChannel] == 1
	}, waitTimeout, 10*time.Millisecond)

	sub, err := readerHub.SubscribeRestaurantOrders(ctx, "r1", nil)
	require.NoError(t, err)
	defer sub.Close()
	waitFor(t, sub, func(live.Snapshot) bool { return true })

	order, err := domain.NewOrder("o1", "r1", nil, domain.CustomerInfo{}, []domain.OrderItem{
		{ID: "a", Price: dec("1"), Quantity: 1},
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.CreateOrder(ctx, order))
	require.NoError(t, storage.NewRedisBackplane(writerClient).PublishOrderEvent(ctx,
		domain.NewOrderEvent(domain.OrderCreated, order)))

	snap := waitFor(t, sub, func(s live.Snapshot) bool { return len(s.Orders) == 1 })
	assert.Equal(t, "o1", snap.Orders[0].ID)
}

// waitForError reads sub's errors until one arrives.
func waitForError(t *testing.T, sub *live.Subscription) error {
	t.Helper()
	select {
	case err := <-sub.Errors():
		return err
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for error")
		return nil
	}
}

func TestRedisBackplane_ServeReportsOutageAndResyncs(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := storage.NewMemoryStore()
	hub := live.NewHub(store)
	sub, err := hub.SubscribeRestaurantOrders(ctx, "r1", nil)
	require.NoError(t, err)
	defer sub.Close()
	waitFor(t, sub, func(live.Snapshot) bool { return true })

	mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	done := make(chan struct{})
	go func() {
		storage.NewRedisBackplane(client).Serve(ctx, hub)
		close(done)
	}()

	err = waitForError(t, sub)
	assert.True(t, errors.Is(err, domain.ErrStore), "got %v", err)

	// an order written while the backplane was down shows up once it is back
	order, err := domain.NewOrder("o1", "r1", nil, domain.CustomerInfo{}, []domain.OrderItem{
		{ID: "a", Price: dec("1"), Quantity: 1},
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.CreateOrder(ctx, order))

	require.NoError(t, mr.Restart())
	snap := waitFor(t, sub, func(s live.Snapshot) bool { return len(s.Orders) == 1 })
	assert.Equal(t, "o1", snap.Orders[0].ID)

	cancel()
	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("serve did not stop")
	}
}

func TestOrderService_LocalSubscribersSurviveRedisPublishFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	hub := live.NewHub(store)
	publishers := service.FanOut{live.LocalBackplane{Hub: hub}, storage.NewRedisBackplane(client)}
	svc := service.NewOrderService(store, publishers, testOrigin)

	sub, err := hub.SubscribeRestaurantOrders(ctx, "r1", nil)
	require.NoError(t, err)
	defer sub.Close()
	waitFor(t, sub, func(live.Snapshot) bool { return true })

	created, err := svc.CreateOrder(ctx, burgerRequest("r1"))
	require.NoError(t, err)

	snap := waitFor(t, sub, func(s live.Snapshot) bool { return len(s.Orders) == 1 })
	assert.Equal(t, created.ID, snap.Orders[0].ID)
}

type fakeKafkaWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func TestKafkaPublisher_KeysByRestaurant(t *testing.T) {
	orders, scans := &fakeKafkaWriter{}, &fakeKafkaWriter{}
	publisher := &storage.KafkaPublisher{Orders: orders, Scans: scans}
	ctx := context.Background()

	require.NoError(t, publisher.PublishOrderEvent(ctx, domain.OrderEvent{
		Type: domain.OrderCreated, OrderID: "o1", RestaurantID: "r1", Status: domain.StatusPending,
	}))
	require.NoError(t, publisher.PublishScanEvent(ctx, domain.ScanEvent{
		Type: domain.ScanRecorded, CodeID: "c1", RestaurantID: "r9", TableNumber: intPtr(2),
	}))

	require.Len(t, orders.messages, 1)
	assert.Equal(t, "r1", string(orders.messages[0].Key))
	var event domain.OrderEvent
	require.NoError(t, json.Unmarshal(orders.messages[0].Value, &event))
	assert.Equal(t, domain.OrderCreated, event.Type)

	require.Len(t, scans.messages, 1)
	assert.Equal(t, "r9", string(scans.messages[0].Key))
	assert.Contains(t, string(scans.messages[0].Value), `"table_number":2`)

	failing := &storage.KafkaPublisher{Orders: &fakeKafkaWriter{err: errors.New("leader not available")}}
	assert.Error(t, failing.PublishOrderEvent(ctx, domain.OrderEvent{RestaurantID: "r1"}))
}

func TestDiskBlobStore(t *testing.T) {
	root := t.TempDir()
	blobs := storage.NewDiskBlobStore(root, "http://localhost:8080/")
	ctx := context.Background()

	blob, err := blobs.Upload(ctx, fakePNG, "Logo.PNG", "restaurants")
	require.NoError(t, err)
	assert.Regexp(t, `^restaurants/[0-9a-f-]{36}\.png$`, blob.PublicID)
	assert.Equal(t, "http://localhost:8080/uploads/"+blob.PublicID, blob.URL)

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(blob.PublicID)))
	require.NoError(t, err)
	assert.Equal(t, fakePNG, data)

	require.NoError(t, blobs.Delete(ctx, blob.PublicID))
	assert.True(t, domain.IsNotFound(blobs.Delete(ctx, blob.PublicID)))
	assert.True(t, errors.Is(blobs.Delete(ctx, "../etc/passwd"), domain.ErrValidation))
}

func TestPostgresBlobStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	blobs := storage.NewPostgresBlobStore(db, "https://api.example.com")
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO blobs").
		WithArgs(sqlmock.AnyArg(), "qr-codes", "qr-r1.png", "image/png", fakePNG).
		WillReturnResult(sqlmock.NewResult(0, 1))
	blob, err := blobs.Upload(ctx, fakePNG, "qr-r1.png", "qr-codes")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/api/blobs/"+blob.PublicID, blob.URL)

	mock.ExpectQuery("SELECT data, content_type, filename FROM blobs").
		WithArgs(blob.PublicID).
		WillReturnRows(sqlmock.NewRows([]string{"data", "content_type", "filename"}).
			AddRow(fakePNG, "image/png", "qr-r1.png"))
	stored, err := blobs.Open(ctx, blob.PublicID)
	require.NoError(t, err)
	assert.Equal(t, fakePNG, stored.Data)

	mock.ExpectExec("DELETE FROM blobs").WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.True(t, domain.IsNotFound(blobs.Delete(ctx, "missing")))

	require.NoError(t, mock.ExpectationsWereMet())
}
