package httpapi

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"qrmenu/order-svc/internal/domain"
	"qrmenu/session"
)

const maxImageSize = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

func (h *Handler) listActiveRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.Profiles.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, restaurants)
}

func (h *Handler) getRestaurant(w http.ResponseWriter, r *http.Request) {
	rest, err := h.Profiles.GetRestaurant(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rest)
}

func (h *Handler) getPaymentInstructions(w http.ResponseWriter, r *http.Request) {
	rest, err := h.Profiles.GetRestaurant(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"restaurant_id":        rest.ID,
		"restaurant_name":      rest.Name,
		"payment_instructions": rest.PaymentInstructions,
	})
}

// getPublicMenu is what a scanned code opens. Loading it counts the scan.
func (h *Handler) getPublicMenu(w http.ResponseWriter, r *http.Request) {
	restaurantID := mux.Vars(r)["restaurantId"]
	var table *int
	if v := r.URL.Query().Get("table"); v != "" {
		n, err := domain.ParseTableNumber(v)
		if err != nil {
			writeError(w, err)
			return
		}
		table = &n
	}

	menu, err := h.Profiles.PublicMenu(r.Context(), restaurantID, table)
	if err != nil {
		writeError(w, err)
		return
	}
	// Loading the menu is what a scan looks like; track=false reads it without
	// counting one.
	if r.URL.Query().Get("track") != "false" {
		h.QRCodes.TrackScan(r.Context(), restaurantID, table)
	}
	writeJSON(w, http.StatusOK, menu)
}

func (h *Handler) listMyRestaurants(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	switch s.Role {
	case session.RoleSuperAdmin:
		restaurants, err := h.Profiles.ListAll(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, restaurants)
		return
	case session.RoleKitchenManager:
		rest, err := h.Profiles.GetRestaurant(r.Context(), s.RestaurantID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, []domain.Restaurant{*rest})
		return
	}

	restaurants, err := h.Profiles.ListByOwner(r.Context(), s.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, restaurants)
}

func (h *Handler) createRestaurant(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	if s.Role != session.RoleRestaurantOwner && s.Role != session.RoleSuperAdmin {
		writeError(w, domain.Forbidden("create restaurant", "only owners can create restaurants"))
		return
	}

	var rest domain.Restaurant
	if err := decodeJSON(r, &rest); err != nil {
		writeError(w, err)
		return
	}
	rest.ID = ""
	rest.QRCodeID = ""
	if s.Role == session.RoleRestaurantOwner {
		rest.OwnerID = s.UserID
		// new restaurants wait for an administrator to activate them
		rest.IsActive = false
	}

	if err := h.Profiles.CreateRestaurant(r.Context(), &rest); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rest)
}

func (h *Handler) updateRestaurant(w http.ResponseWriter, r *http.Request) {
	current, err := h.restaurantFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var rest domain.Restaurant
	if err := decodeJSON(r, &rest); err != nil {
		writeError(w, err)
		return
	}
	rest.ID = current.ID
	rest.OwnerID = current.OwnerID
	rest.QRCodeID = current.QRCodeID
	rest.CreatedAt = current.CreatedAt
	if s, _ := session.FromContext(r.Context()); s.Role != session.RoleSuperAdmin {
		rest.IsActive = current.IsActive
	}

	if err := h.Profiles.UpdateRestaurant(r.Context(), &rest); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rest)
}

func (h *Handler) deleteRestaurant(w http.ResponseWriter, r *http.Request) {
	rest, err := h.restaurantFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Profiles.DeleteRestaurant(r.Context(), rest.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) uploadRestaurantImage(w http.ResponseWriter, r *http.Request) {
	rest, err := h.restaurantFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	data, filename, err := readImage(r)
	if err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.Profiles.UploadRestaurantImage(r.Context(), rest.ID, mux.Vars(r)["kind"], filename, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) createSection(w http.ResponseWriter, r *http.Request) {
	rest, err := h.restaurantFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var section domain.MenuSection
	if err := decodeJSON(r, &section); err != nil {
		writeError(w, err)
		return
	}
	section.ID = ""
	section.RestaurantID = rest.ID
	if err := h.Profiles.CreateSection(r.Context(), &section); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, section)
}

func (h *Handler) listSections(w http.ResponseWriter, r *http.Request) {
	rest, err := h.restaurantFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sections, err := h.Profiles.ListSections(r.Context(), rest.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sections)
}

func (h *Handler) updateSection(w http.ResponseWriter, r *http.Request) {
	rest, err := h.restaurantFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var section domain.MenuSection
	if err := decodeJSON(r, &section); err != nil {
		writeError(w, err)
		return
	}
	section.ID = mux.Vars(r)["sectionId"]
	section.RestaurantID = rest.ID
	if err := h.Profiles.UpdateSection(r.Context(), &section); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, section)
}

func (h *Handler) deleteSection(w http.ResponseWriter, r *http.Request) {
	rest, err := h.restaurantFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Profiles.DeleteSection(r.Context(), rest.ID, mux.Vars(r)["sectionId"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	rest, err := h.restaurantFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var item domain.MenuItem
	if err := decodeJSON(r, &item); err != nil {
		writeError(w, err)
		return
	}
	item.ID = ""
	item.RestaurantID = rest.ID
	item.ImageURL, item.ImagePublicID = "", ""
	if err := h.Profiles.CreateItem(r.Context(), &item); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	rest, err := h.restaurantFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := h.Profiles.ListItems(r.Context(), rest.ID, r.URL.Query().Get("section"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	rest, err := h.restaurantFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var item domain.MenuItem
	if err := decodeJSON(r, &item); err != nil {
		writeError(w, err)
		return
	}
	item.ID = mux.Vars(r)["itemId"]
	item.RestaurantID = rest.ID
	if err := h.Profiles.UpdateItem(r.Context(), &item); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	rest, err := h.restaurantFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Profiles.DeleteItem(r.Context(), rest.ID, mux.Vars(r)["itemId"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) uploadItemImage(w http.ResponseWriter, r *http.Request) {
	rest, err := h.restaurantFor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	data, filename, err := readImage(r)
	if err != nil {
		writeError(w, err)
		return
	}

	item, err := h.Profiles.UploadItemImage(r.Context(), rest.ID, mux.Vars(r)["itemId"], filename, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) getBlob(w http.ResponseWriter, r *http.Request) {
	blob, err := h.Blobs.Open(r.Context(), mux.Vars(r)["publicId"])
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(blob.Data)
}

// readImage pulls the "image" part out of a multipart upload.
func readImage(r *http.Request) ([]byte, string, error) {
	const op = "read image"
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		return nil, "", domain.Validationf(op, "file too large")
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", domain.Validationf(op, "error retrieving the file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		return nil, "", domain.Validationf(op, "failed to read file: %v", err)
	}
	if len(data) > maxImageSize {
		return nil, "", domain.Validationf(op, "file too large")
	}
	if !allowedImageTypes[http.DetectContentType(data)] {
		return nil, "", domain.Validationf(op, "invalid file type, only JPEG, PNG, GIF, WebP allowed")
	}
	return data, header.Filename, nil
}
