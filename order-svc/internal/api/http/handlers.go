package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"qrmenu/order-svc/internal/domain"
	"qrmenu/order-svc/internal/live"
	"qrmenu/order-svc/internal/service"
	"qrmenu/session"
)

// Verifier turns a bearer token into a session.
type Verifier interface {
	Verify(token string) (session.Session, error)
}

type Handler struct {
	Orders   service.OrderServiceInterface
	QRCodes  service.QRRegistryInterface
	Profiles service.ProfileServiceInterface
	Hub      *live.Hub
	Sessions Verifier
	Blobs    service.BlobReader
}

func NewHandler(orders service.OrderServiceInterface, qrcodes service.QRRegistryInterface, profiles service.ProfileServiceInterface, hub *live.Hub, sessions Verifier) *Handler {
	return &Handler{
		Orders:   orders,
		QRCodes:  qrcodes,
		Profiles: profiles,
		Hub:      hub,
		Sessions: sessions,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	// customer facing
	r.HandleFunc("/api/restaurants", h.listActiveRestaurants).Methods("GET")
	r.HandleFunc("/api/restaurants/{id}", h.getRestaurant).Methods("GET")
	r.HandleFunc("/api/restaurants/{id}/payment-instructions", h.getPaymentInstructions).Methods("GET")
	r.HandleFunc("/api/menu/{restaurantId}", h.getPublicMenu).Methods("GET")
	r.HandleFunc("/api/scans", h.trackScan).Methods("POST")
	r.HandleFunc("/api/orders", h.createOrder).Methods("POST")
	r.HandleFunc("/api/orders/{id}", h.getOrder).Methods("GET")
	r.HandleFunc("/ws/orders/{id}", h.watchOrder).Methods("GET")
	if h.Blobs != nil {
		r.HandleFunc("/api/blobs/{publicId:.+}", h.getBlob).Methods("GET")
	}

	// staff
	r.Handle("/api/me/restaurants", h.authenticated(h.listMyRestaurants)).Methods("GET")
	r.Handle("/api/restaurants", h.authenticated(h.createRestaurant)).Methods("POST")
	r.Handle("/api/restaurants/{id}", h.authenticated(h.updateRestaurant)).Methods("PUT")
	r.Handle("/api/restaurants/{id}", h.authenticated(h.deleteRestaurant)).Methods("DELETE")
	r.Handle("/api/restaurants/{id}/images/{kind}", h.authenticated(h.uploadRestaurantImage)).Methods("POST")

	r.Handle("/api/restaurants/{id}/sections", h.authenticated(h.createSection)).Methods("POST")
	r.Handle("/api/restaurants/{id}/sections", h.authenticated(h.listSections)).Methods("GET")
	r.Handle("/api/restaurants/{id}/sections/{sectionId}", h.authenticated(h.updateSection)).Methods("PUT")
	r.Handle("/api/restaurants/{id}/sections/{sectionId}", h.authenticated(h.deleteSection)).Methods("DELETE")

	r.Handle("/api/restaurants/{id}/items", h.authenticated(h.createItem)).Methods("POST")
	r.Handle("/api/restaurants/{id}/items", h.authenticated(h.listItems)).Methods("GET")
	r.Handle("/api/restaurants/{id}/items/{itemId}", h.authenticated(h.updateItem)).Methods("PUT")
	r.Handle("/api/restaurants/{id}/items/{itemId}", h.authenticated(h.deleteItem)).Methods("DELETE")
	r.Handle("/api/restaurants/{id}/items/{itemId}/image", h.authenticated(h.uploadItemImage)).Methods("POST")

	r.Handle("/api/restaurants/{id}/orders", h.authenticated(h.listOrders)).Methods("GET")
	r.Handle("/api/restaurants/{id}/orders/counts", h.authenticated(h.orderCounts)).Methods("GET")
	r.Handle("/api/orders/{id}/status", h.authenticated(h.updateOrderStatus)).Methods("PATCH")
	r.Handle("/api/orders/{id}/advance", h.authenticated(h.advanceOrder)).Methods("POST")
	r.Handle("/ws/restaurants/{id}/orders", h.authenticated(h.watchRestaurantOrders)).Methods("GET")

	r.Handle("/api/restaurants/{id}/qrcode", h.authenticated(h.generateRestaurantCode)).Methods("POST")
	r.Handle("/api/restaurants/{id}/qrcode/regenerate", h.authenticated(h.regenerateRestaurantCode)).Methods("POST")
	r.Handle("/api/restaurants/{id}/qrcodes", h.authenticated(h.listCodes)).Methods("GET")
	r.Handle("/api/restaurants/{id}/qrcodes/tables", h.authenticated(h.generateTableCodes)).Methods("POST")
	r.Handle("/api/restaurants/{id}/qrcodes/regenerate", h.authenticated(h.regenerateTableCodes)).Methods("POST")
	r.Handle("/api/qrcodes/{id}", h.authenticated(h.getCode)).Methods("GET")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":        "healthy",
		"service":       "order-svc",
		"subscriptions": h.subscriptionCount(),
		"timestamp":     time.Now().Format(time.RFC3339),
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) subscriptionCount() int {
	if h.Hub == nil {
		return 0
	}
	return h.Hub.Count()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: failed to encode response: %v", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, session.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUpload), errors.Is(err, domain.ErrRender):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("http: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.Validationf("decode request", "invalid JSON format: %v", err)
	}
	return nil
}
