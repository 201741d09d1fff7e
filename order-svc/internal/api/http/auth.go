package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"qrmenu/order-svc/internal/domain"
	"qrmenu/order-svc/internal/service"
	"qrmenu/session"
)

// bearerToken reads the token from the Authorization header, or from the
// token query parameter for browser WebSocket clients that cannot set
// headers.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func (h *Handler) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, fmt.Errorf("%w: missing token", session.ErrInvalidToken))
			return
		}
		s, err := h.Sessions.Verify(token)
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r.WithContext(session.WithSession(r.Context(), s)))
	})
}

// restaurantFor loads the restaurant named by the {id} route variable and
// checks the caller may manage it.
func (h *Handler) restaurantFor(r *http.Request) (*domain.Restaurant, error) {
	return h.authorizeRestaurant(r, mux.Vars(r)["id"])
}

func (h *Handler) authorizeRestaurant(r *http.Request, restaurantID string) (*domain.Restaurant, error) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		return nil, fmt.Errorf("%w: no session", session.ErrInvalidToken)
	}
	rest, err := h.Profiles.GetRestaurant(r.Context(), restaurantID)
	if err != nil {
		return nil, err
	}
	if err := service.Authorize(s, rest); err != nil {
		return nil, err
	}
	return rest, nil
}
