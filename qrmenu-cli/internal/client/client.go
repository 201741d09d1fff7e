// Package client talks to order-svc over REST and WebSocket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"qrmenu/qrmenu-cli/internal/cart"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is a non-2xx answer from order-svc.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("order-svc returned %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	token   string
	http    HTTPClient
	dialer  *websocket.Dialer

	// OnStreamError receives errors the server reports on an open watch.
	OnStreamError func(error)
}

func New(baseURL, token string, httpClient HTTPClient) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
		dialer:  websocket.DefaultDialer,
	}
}

func (c *Client) CreateOrder(ctx context.Context, req cart.CheckoutRequest) (*CreatedOrder, error) {
	var out CreatedOrder
	if _, err := c.do(ctx, http.MethodPost, "/api/orders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (*Order, error) {
	var out Order
	if _, err := c.do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdvanceOrder(ctx context.Context, id string) (*Order, error) {
	var out Order
	if _, err := c.do(ctx, http.MethodPost, "/api/orders/"+url.PathEscape(id)+"/advance", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id, status string) (*Order, error) {
	var out Order
	body := map[string]string{"status": status}
	if _, err := c.do(ctx, http.MethodPatch, "/api/orders/"+url.PathEscape(id)+"/status", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMenu reads a menu without recording a scan; scans are reported through
// TrackScan.
func (c *Client) GetMenu(ctx context.Context, restaurantID string, table *int) (*Menu, error) {
	query := url.Values{"track": {"false"}}
	if table != nil {
		query.Set("table", strconv.Itoa(*table))
	}
	path := "/api/menu/" + url.PathEscape(restaurantID) + "?" + query.Encode()
	var out Menu
	if _, err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateTableCodes creates codes for tables 1..count. Partial failures
// come back as a result with Failed > 0, not as an error.
func (c *Client) GenerateTableCodes(ctx context.Context, restaurantID string, count int) (*BatchResult, error) {
	return c.tableBatch(ctx, "/api/restaurants/"+url.PathEscape(restaurantID)+"/qrcodes/tables", count)
}

func (c *Client) RegenerateTableCodes(ctx context.Context, restaurantID string, count int) (*BatchResult, error) {
	return c.tableBatch(ctx, "/api/restaurants/"+url.PathEscape(restaurantID)+"/qrcodes/regenerate", count)
}

func (c *Client) tableBatch(ctx context.Context, path string, count int) (*BatchResult, error) {
	var out BatchResult
	if _, err := c.do(ctx, http.MethodPost, path, map[string]int{"count": count}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TrackScan reports a scanned menu URL; the answer says whether a code matched.
func (c *Client) TrackScan(ctx context.Context, menuURL string) (bool, error) {
	var out struct {
		Tracked bool `json:"tracked"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/api/scans", map[string]string{"menu_url": menuURL}, &out); err != nil {
		return false, err
	}
	return out.Tracked, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var failure struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &failure) != nil || failure.Error == "" {
			failure.Error = strings.TrimSpace(string(data))
		}
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Message: failure.Error}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
