package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"qrmenu/order-svc/internal/domain"
)

type createOrderResponse struct {
	Order       *domain.Order `json:"order"`
	TrackingURL string        `json:"tracking_url"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	order, err := h.Orders.CreateOrder(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createOrderResponse{
		Order:       order,
		TrackingURL: h.Orders.TrackingURL(order.ID),
	})
}

// getOrder serves the customer tracking page; knowing the id is enough.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Orders.GetOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
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

	orders, err := h.Orders.ListOrdersByRestaurant(r.Context(), rest.ID, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) orderCounts(w http.ResponseWriter, r *http.Request) {
	rest, err := h.restaurantFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	counts, err := h.Orders.StatusCounts(r.Context(), rest.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

type updateStatusRequest struct {
	Status domain.Status `json:"status"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.orderFor(r); err != nil {
		writeError(w, err)
		return
	}

	order, err := h.Orders.UpdateStatus(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) advanceOrder(w http.ResponseWriter, r *http.Request) {
	if _, err := h.orderFor(r); err != nil {
		writeError(w, err)
		return
	}
	order, err := h.Orders.AdvanceOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// orderFor loads the order named by {id} and checks the caller manages its
// restaurant.
func (h *Handler) orderFor(r *http.Request) (*domain.Order, error) {
	order, err := h.Orders.GetOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return nil, err
	}
	if _, err := h.authorizeRestaurant(r, order.RestaurantID); err != nil {
		return nil, err
	}
	return order, nil
}

func statusFilter(r *http.Request) (*domain.Status, error) {
	v := r.URL.Query().Get("status")
	if v == "" || v == "all" {
		return nil, nil
	}
	status, err := domain.ParseStatus(v)
	if err != nil {
		return nil, err
	}
	return &status, nil
}
