package live

import (
	"context"
	"sync"
	"sync/atomic"

	"qrmenu/order-svc/internal/domain"
)

// Watch drives a stream with callbacks and returns the function that stops
// it. onError may be nil. Once unsubscribe has been called no further
// callback starts; it is safe to call repeatedly, including from inside a
// callback.
func Watch(stream Stream, onChange func(Snapshot), onError func(error)) (unsubscribe func()) {
	var stopped atomic.Bool
	stop := make(chan struct{})

	go func() {
		snapshots, errs := stream.Snapshots(), stream.Errors()
		for snapshots != nil || errs != nil {
			select {
			case <-stop:
				return
			case snap, ok := <-snapshots:
				if !ok {
					snapshots = nil
					continue
				}
				if !stopped.Load() {
					onChange(snap)
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				if onError != nil && !stopped.Load() {
					onError(err)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			stopped.Store(true)
			close(stop)
			_ = stream.Close()
		})
	}
}

// LocalBackplane hands events straight to the hub of this process.
type LocalBackplane struct {
	Hub Dispatcher
}

func (b LocalBackplane) PublishOrderEvent(_ context.Context, event domain.OrderEvent) error {
	b.Hub.Dispatch(event)
	return nil
}
