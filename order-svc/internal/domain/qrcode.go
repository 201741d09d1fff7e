package domain

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// QRCode pairs a rendered QR image with the menu URL it encodes. A nil
// TableNumber marks the restaurant-level code.
type QRCode struct {
	ID             string     `json:"id"`
	RestaurantID   string     `json:"restaurant_id"`
	RestaurantName string     `json:"restaurant_name"`
	TableNumber    *int       `json:"table_number,omitempty"`
	MenuURL        string     `json:"menu_url"`
	Scans          int64      `json:"scans"`
	LastScannedAt  *time.Time `json:"last_scanned_at,omitempty"`
	ImageURL       string     `json:"image_url"`
	ImagePublicID  string     `json:"image_public_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (c QRCode) IsRestaurantLevel() bool {
	return c.TableNumber == nil
}

// BuildMenuURL renders <origin>/menu/<restaurantId>[?table=<n>].
func BuildMenuURL(origin, restaurantID string, table *int) string {
	u := strings.TrimRight(origin, "/") + "/menu/" + url.PathEscape(restaurantID)
	if table != nil {
		u += "?table=" + strconv.Itoa(*table)
	}
	return u
}

// ParseMenuURL is the inverse of BuildMenuURL.
func ParseMenuURL(raw string) (restaurantID string, table *int, err error) {
	const op = "parse menu url"
	u, err := url.Parse(raw)
	if err != nil {
		return "", nil, Validationf(op, "%v", err)
	}

	segments := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	if len(segments) < 2 || segments[len(segments)-2] != "menu" {
		return "", nil, Validationf(op, "%q is not a menu url", raw)
	}
	restaurantID, err = url.PathUnescape(segments[len(segments)-1])
	if err != nil || restaurantID == "" {
		return "", nil, Validationf(op, "%q has no restaurant id", raw)
	}

	if v := u.Query().Get("table"); v != "" {
		n, err := ParseTableNumber(v)
		if err != nil {
			return "", nil, err
		}
		table = &n
	}
	return restaurantID, table, nil
}

func ParseTableNumber(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, Validationf("parse table number", "table must be a positive integer, got %q", v)
	}
	return n, nil
}

func TrackingURL(origin, orderID string) string {
	return fmt.Sprintf("%s/order-tracking/%s", strings.TrimRight(origin, "/"), url.PathEscape(orderID))
}

// BatchResult reports a table-code batch where individual tables may fail
// without aborting the rest.
type BatchResult struct {
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Codes     []QRCode       `json:"codes"`
	Errors    map[int]string `json:"errors,omitempty"`
}

func (r *BatchResult) RecordFailure(table int, err error) {
	r.Failed++
	if r.Errors == nil {
		r.Errors = make(map[int]string)
	}
	r.Errors[table] = err.Error()
}

func (r *BatchResult) RecordSuccess(code QRCode) {
	r.Succeeded++
	r.Codes = append(r.Codes, code)
}

// GeneratedCode is returned by single-code generation; DataURL is a base64 PNG
// preview the dashboard can show before the hosted image is fetched.
type GeneratedCode struct {
	QRCode
	DataURL string `json:"data_url"`
}
