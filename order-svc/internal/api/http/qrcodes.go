package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"qrmenu/order-svc/internal/domain"
)

type tableCountRequest struct {
	Count int `json:"count"`
}

// scanRequest accepts either the scanned menu URL or its parts.
type scanRequest struct {
	MenuURL      string `json:"menu_url"`
	RestaurantID string `json:"restaurant_id"`
	TableNumber  *int   `json:"table_number,omitempty"`
}

func (h *Handler) generateRestaurantCode(w http.ResponseWriter, r *http.Request) {
	rest, err := h.restaurantFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	code, err := h.QRCodes.GenerateRestaurantCode(r.Context(), rest.ID, rest.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, code)
}

func (h *Handler) regenerateRestaurantCode(w http.ResponseWriter, r *http.Request) {
	rest, err := h.restaurantFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	code, err := h.QRCodes.RegenerateRestaurantCode(r.Context(), rest.ID, rest.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, code)
}

func (h *Handler) generateTableCodes(w http.ResponseWriter, r *http.Request) {
	h.tableBatch(w, r, false)
}

func (h *Handler) regenerateTableCodes(w http.ResponseWriter, r *http.Request) {
	h.tableBatch(w, r, true)
}

func (h *Handler) tableBatch(w http.ResponseWriter, r *http.Request, replace bool) {
	rest, err := h.restaurantFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req tableCountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	run := h.QRCodes.GenerateTableCodes
	if replace {
		run = h.QRCodes.RegenerateBatch
	}
	result, err := run(r.Context(), rest.ID, rest.Name, req.Count)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if result.Failed > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, result)
}

func (h *Handler) listCodes(w http.ResponseWriter, r *http.Request) {
	rest, err := h.restaurantFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	codes, err := h.QRCodes.ListCodes(r.Context(), rest.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, codes)
}

func (h *Handler) getCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.QRCodes.GetCode(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.authorizeRestaurant(r, code.RestaurantID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, code)
}

// trackScan always answers 200; a scan that matched no code reports
// tracked=false.
func (h *Handler) trackScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	restaurantID, table := req.RestaurantID, req.TableNumber
	if req.MenuURL != "" {
		var err error
		restaurantID, table, err = domain.ParseMenuURL(req.MenuURL)
		if err != nil {
			writeError(w, err)
			return
		}
	}
	if restaurantID == "" {
		writeError(w, domain.Validationf("track scan", "restaurant id or menu url is required"))
		return
	}

	tracked := h.QRCodes.TrackScan(r.Context(), restaurantID, table)
	writeJSON(w, http.StatusOK, map[string]bool{"tracked": tracked})
}
