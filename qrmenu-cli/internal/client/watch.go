package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

type frame struct {
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// ErrStreamClosed is returned when the server ends a watch.
var ErrStreamClosed = errors.New("stream closed by server")

// WatchOrder calls fn for every snapshot of one order until ctx ends, fn
// returns an error, or the server closes the stream.
func (c *Client) WatchOrder(ctx context.Context, orderID string, fn func(Snapshot) error) error {
	return c.watch(ctx, "/ws/orders/"+url.PathEscape(orderID), fn)
}

// WatchRestaurant follows a restaurant's orders, optionally filtered by status.
func (c *Client) WatchRestaurant(ctx context.Context, restaurantID, status string, fn func(Snapshot) error) error {
	path := "/ws/restaurants/" + url.PathEscape(restaurantID) + "/orders"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	return c.watch(ctx, path, fn)
}

func (c *Client) watch(ctx context.Context, path string, fn func(Snapshot) error) error {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, resp, err := c.dialer.DialContext(ctx, wsURL(c.baseURL)+path, header)
	if err != nil {
		if resp != nil {
			return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("websocket handshake failed: %v", err)}
		}
		return fmt.Errorf("failed to open stream: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	received := false
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return ErrStreamClosed
			}
			return fmt.Errorf("stream read failed: %w", err)
		}
		if f.Error != "" {
			// Before the first snapshot an error means the subscription
			// was refused; afterwards it is a dispatch failure and the
			// stream keeps going.
			if !received {
				return fmt.Errorf("stream error: %s", f.Error)
			}
			if c.OnStreamError != nil {
				c.OnStreamError(errors.New(f.Error))
			}
			continue
		}
		if f.Snapshot == nil {
			continue
		}
		received = true
		if err := fn(*f.Snapshot); err != nil {
			return err
		}
	}
}

func wsURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}
