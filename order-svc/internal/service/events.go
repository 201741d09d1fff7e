package service

import (
	"context"
	"errors"

	"qrmenu/order-svc/internal/domain"
)

// FanOut delivers each event to every publisher, so one mutation can feed the
// live backplane and the analytics stream together.
type FanOut []EventPublisher

func (f FanOut) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.PublishOrderEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ EventPublisher = FanOut(nil)
