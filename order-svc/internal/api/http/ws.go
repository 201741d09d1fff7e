package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"qrmenu/order-svc/internal/live"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsFrame is one message pushed to a socket: a snapshot or an error.
type wsFrame struct {
	Snapshot *live.Snapshot `json:"snapshot,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func (h *Handler) watchRestaurantOrders(w http.ResponseWriter, r *http.Request) {
	rest, err := h.restaurantFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	status, err := statusFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	h.serveStream(w, r, func(ctx context.Context) (*live.Subscription, error) {
		return h.Hub.SubscribeRestaurantOrders(ctx, rest.ID, status)
	})
}

func (h *Handler) watchOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]
	if _, err := h.Orders.GetOrder(r.Context(), orderID); err != nil {
		writeError(w, err)
		return
	}

	h.serveStream(w, r, func(ctx context.Context) (*live.Subscription, error) {
		return h.Hub.SubscribeOrder(ctx, orderID)
	})
}

// serveStream upgrades the connection and pushes every snapshot until either
// side goes away.
func (h *Handler) serveStream(w http.ResponseWriter, r *http.Request, subscribe func(context.Context) (*live.Subscription, error)) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := subscribe(ctx)
	if err != nil {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		conn.WriteJSON(wsFrame{Error: err.Error()})
		return
	}
	defer sub.Close()

	go readUntilClosed(conn, cancel)

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	snapshots, errs := sub.Snapshots(), sub.Errors()
	for {
		var frame wsFrame
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			frame.Snapshot = &snap
		case err, ok := <-errs:
			if !ok {
				return
			}
			frame.Error = err.Error()
		}

		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(frame); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}

// readUntilClosed drains client frames so pongs and close messages are
// processed, and cancels once the peer is gone.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
