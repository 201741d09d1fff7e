package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpapi "qrmenu/order-svc/internal/api/http"
	"qrmenu/order-svc/internal/domain"
	"qrmenu/order-svc/internal/live"
	"qrmenu/order-svc/internal/service"
	"qrmenu/order-svc/internal/storage"
	"qrmenu/session"
)

type apiFixture struct {
	store    *storage.MemoryStore
	orders   *service.OrderService
	handler  *httpapi.Handler
	router   *mux.Router
	sessions *session.Provider
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()
	hub := live.NewHub(store)
	blobs := storage.NewDiskBlobStore(t.TempDir(), "http://localhost:8080")
	orders := service.NewOrderService(store, live.LocalBackplane{Hub: hub}, testOrigin)
	registry := service.NewQRRegistry(store, blobs, service.NewPNGRenderer(), store, nil, testOrigin)
	profiles := service.NewProfileService(store, blobs)
	sessions := session.NewProvider("test-secret")

	require.NoError(t, store.CreateRestaurant(ctx, &domain.Restaurant{
		ID: "r1", OwnerID: "owner-1", Name: "Bistro", IsActive: true,
		PaymentInstructions: "Pay at the counter",
	}))
	require.NoError(t, store.CreateRestaurant(ctx, &domain.Restaurant{
		ID: "r-closed", OwnerID: "owner-1", Name: "Closed",
	}))
	require.NoError(t, store.CreateMenuItem(ctx, &domain.MenuItem{
		ID: "soup", RestaurantID: "r1", Name: "Soup", Price: dec("4.50"), Available: true,
	}))
	require.NoError(t, store.CreateMenuItem(ctx, &domain.MenuItem{
		ID: "pie", RestaurantID: "r1", Name: "Pie", Price: dec("3.00"),
	}))

	handler := httpapi.NewHandler(orders, registry, profiles, hub, sessions)
	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	return &apiFixture{store: store, orders: orders, handler: handler, router: r, sessions: sessions}
}

func (f *apiFixture) token(t *testing.T, s session.Session) string {
	t.Helper()
	token, err := f.sessions.Issue(s, time.Hour)
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

var (
	approvedOwner = session.Session{UserID: "owner-1", Role: session.RoleRestaurantOwner, Approved: true}
	pendingOwner  = session.Session{UserID: "owner-1", Role: session.RoleRestaurantOwner}
	otherOwner    = session.Session{UserID: "owner-2", Role: session.RoleRestaurantOwner, Approved: true}
	kitchenR1     = session.Session{UserID: "cook-1", Role: session.RoleKitchenManager, RestaurantID: "r1"}
	kitchenR2     = session.Session{UserID: "cook-2", Role: session.RoleKitchenManager, RestaurantID: "r2"}
	superAdmin    = session.Session{UserID: "admin", Role: session.RoleSuperAdmin}
)

const soupOrder = `{"restaurant_id":"r1","table_number":3,"customer_info":{"name":""},"items":[{"id":"soup","name":"Soup","price":"4.50","quantity":2}]}`

func TestCreateOrderHandler(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{name: "valid request", body: soupOrder, wantCode: http.StatusCreated},
		{
			name:     "matching total",
			body:     `{"restaurant_id":"r1","items":[{"id":"soup","price":"4.50","quantity":2}],"total_amount":"9.00"}`,
			wantCode: http.StatusCreated,
		},
		{name: "invalid JSON", body: `{invalid}`, wantCode: http.StatusBadRequest},
		{name: "no items", body: `{"restaurant_id":"r1","items":[]}`, wantCode: http.StatusBadRequest},
		{
			name:     "total mismatch",
			body:     `{"restaurant_id":"r1","items":[{"id":"soup","price":"4.50","quantity":2}],"total_amount":"1.00"}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			f := newAPIFixture(t)
			w := f.do("POST", "/api/orders", testCase.body, "")
			assert.Equal(t, testCase.wantCode, w.Code, w.Body.String())

			if testCase.wantCode != http.StatusCreated {
				return
			}
			var resp struct {
				Order       domain.Order `json:"order"`
				TrackingURL string       `json:"tracking_url"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, domain.StatusPending, resp.Order.Status())
			assert.True(t, resp.Order.TotalAmount.Equal(dec("9.00")))
			assert.Equal(t, testOrigin+"/order-tracking/"+resp.Order.ID, resp.TrackingURL)
		})
	}
}

func TestGetOrderHandler(t *testing.T) {
	f := newAPIFixture(t)
	order, err := f.orders.CreateOrder(context.Background(), burgerRequest("r1"))
	require.NoError(t, err)

	w := f.do("GET", "/api/orders/"+order.ID, "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"pending"`)

	w = f.do("GET", "/api/orders/missing", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateOrderStatusHandler(t *testing.T) {
	tests := []struct {
		name     string
		session  *session.Session
		body     string
		wantCode int
	}{
		{name: "no token", body: `{"status":"preparing"}`, wantCode: http.StatusUnauthorized},
		{name: "owner", session: &approvedOwner, body: `{"status":"preparing"}`, wantCode: http.StatusOK},
		{name: "kitchen manager", session: &kitchenR1, body: `{"status":"preparing"}`, wantCode: http.StatusOK},
		{name: "super admin", session: &superAdmin, body: `{"status":"preparing"}`, wantCode: http.StatusOK},
		{name: "owner pending approval", session: &pendingOwner, body: `{"status":"preparing"}`, wantCode: http.StatusForbidden},
		{name: "other owner", session: &otherOwner, body: `{"status":"preparing"}`, wantCode: http.StatusForbidden},
		{name: "other kitchen", session: &kitchenR2, body: `{"status":"preparing"}`, wantCode: http.StatusForbidden},
		{name: "skip a step", session: &approvedOwner, body: `{"status":"completed"}`, wantCode: http.StatusConflict},
		{name: "unknown status", session: &approvedOwner, body: `{"status":"cancelled"}`, wantCode: http.StatusBadRequest},
		{name: "invalid JSON", session: &approvedOwner, body: `{`, wantCode: http.StatusBadRequest},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			f := newAPIFixture(t)
			order, err := f.orders.CreateOrder(context.Background(), burgerRequest("r1"))
			require.NoError(t, err)

			token := ""
			if testCase.session != nil {
				token = f.token(t, *testCase.session)
			}
			w := f.do("PATCH", "/api/orders/"+order.ID+"/status", testCase.body, token)
			assert.Equal(t, testCase.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestUpdateOrderStatusHandler_BadToken(t *testing.T) {
	f := newAPIFixture(t)
	order, err := f.orders.CreateOrder(context.Background(), burgerRequest("r1"))
	require.NoError(t, err)

	forged, err := session.NewProvider("other-secret").Issue(approvedOwner, time.Hour)
	require.NoError(t, err)

	w := f.do("PATCH", "/api/orders/"+order.ID+"/status", `{"status":"preparing"}`, forged)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdvanceAndListOrdersHandler(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()
	token := f.token(t, kitchenR1)

	order, err := f.orders.CreateOrder(ctx, burgerRequest("r1"))
	require.NoError(t, err)
	_, err = f.orders.CreateOrder(ctx, burgerRequest("r1"))
	require.NoError(t, err)

	w := f.do("POST", "/api/orders/"+order.ID+"/advance", "", token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"preparing"`)

	var orders []domain.Order
	w = f.do("GET", "/api/restaurants/r1/orders?status=preparing", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	w = f.do("GET", "/api/restaurants/r1/orders?status=all", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &orders))
	assert.Len(t, orders, 2)

	w = f.do("GET", "/api/restaurants/r1/orders?status=shipped", "", token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var counts map[domain.Status]int
	w = f.do("GET", "/api/restaurants/r1/orders/counts", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &counts))
	assert.Equal(t, 1, counts[domain.StatusPending])
	assert.Equal(t, 1, counts[domain.StatusPreparing])
	assert.Equal(t, 0, counts[domain.StatusCompleted])

	w = f.do("GET", "/api/restaurants/r1/orders", "", f.token(t, kitchenR2))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPublicMenuHandler(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do("GET", "/api/menu/r1?table=2", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var menu domain.PublicMenu
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &menu))
	assert.Equal(t, "Bistro", menu.Restaurant.Name)
	require.Len(t, menu.Items, 1, "unavailable items are hidden")
	assert.Equal(t, "soup", menu.Items[0].ID)
	require.NotNil(t, menu.TableNumber)
	assert.Equal(t, 2, *menu.TableNumber)

	assert.Equal(t, http.StatusNotFound, f.do("GET", "/api/menu/r-closed", "", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do("GET", "/api/menu/nope", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do("GET", "/api/menu/r1?table=zero", "", "").Code)

	w = f.do("GET", "/api/restaurants/r1/payment-instructions", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Pay at the counter")
}

func TestPublicMenuHandler_ScanCounting(t *testing.T) {
	f := newAPIFixture(t)
	token := f.token(t, approvedOwner)

	w := f.do("POST", "/api/restaurants/r1/qrcodes/tables", `{"count":2}`, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	scansOfTable2 := func() int64 {
		var codes []domain.QRCode
		w := f.do("GET", "/api/restaurants/r1/qrcodes", "", token)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &codes))
		for _, code := range codes {
			if code.TableNumber != nil && *code.TableNumber == 2 {
				return code.Scans
			}
		}
		t.Fatal("no code for table 2")
		return 0
	}

	require.Equal(t, http.StatusOK, f.do("GET", "/api/menu/r1?table=2", "", "").Code)
	assert.Equal(t, int64(1), scansOfTable2())

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, f.do("GET", "/api/menu/r1?table=2&track=false", "", "").Code)
	}
	assert.Equal(t, int64(1), scansOfTable2(), "menu reads with track=false are not scans")
}

func TestQRCodeHandlers(t *testing.T) {
	f := newAPIFixture(t)
	token := f.token(t, approvedOwner)

	w := f.do("POST", "/api/scans", `{"menu_url":"https://menu.example.com/menu/r1?table=1"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tracked":false}`, w.Body.String())

	w = f.do("POST", "/api/restaurants/r1/qrcode", "", token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var generated domain.GeneratedCode
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &generated))
	assert.True(t, strings.HasPrefix(generated.DataURL, "data:image/png;base64,"))
	assert.Equal(t, "https://menu.example.com/menu/r1", generated.MenuURL)

	w = f.do("POST", "/api/restaurants/r1/qrcodes/tables", `{"count":2}`, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do("POST", "/api/scans", `{"menu_url":"https://menu.example.com/menu/r1?table=1"}`, "")
	assert.JSONEq(t, `{"tracked":true}`, w.Body.String())
	w = f.do("POST", "/api/scans", `{"restaurant_id":"r1"}`, "")
	assert.JSONEq(t, `{"tracked":true}`, w.Body.String())
	assert.Equal(t, http.StatusBadRequest, f.do("POST", "/api/scans", `{}`, "").Code)

	var codes []domain.QRCode
	w = f.do("GET", "/api/restaurants/r1/qrcodes", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &codes))
	require.Len(t, codes, 3)
	assert.Nil(t, codes[0].TableNumber)
	assert.Equal(t, int64(1), codes[0].Scans)
	assert.Equal(t, int64(1), codes[1].Scans)

	w = f.do("POST", "/api/restaurants/r1/qrcodes/tables", `{"count":3}`, token)
	assert.Equal(t, http.StatusMultiStatus, w.Code, "tables 1 and 2 already have codes")

	w = f.do("POST", "/api/restaurants/r1/qrcodes/regenerate", `{"count":4}`, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = f.do("GET", "/api/restaurants/r1/qrcodes", "", token)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &codes))
	require.Len(t, codes, 4, "regeneration replaces the restaurant-level code too")
	for _, code := range codes {
		assert.NotNil(t, code.TableNumber)
	}

	w = f.do("POST", "/api/restaurants/r1/qrcodes/tables", `{"count":0}`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do("GET", "/api/qrcodes/"+codes[0].ID, "", f.token(t, otherOwner))
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = f.do("GET", "/api/qrcodes/"+codes[0].ID, "", token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUploadRestaurantImageHandler(t *testing.T) {
	png, err := service.NewPNGRenderer().Render("logo")
	require.NoError(t, err)

	tests := []struct {
		name     string
		kind     string
		data     []byte
		wantCode int
	}{
		{name: "png logo", kind: "logo", data: png, wantCode: http.StatusOK},
		{name: "plain text", kind: "logo", data: []byte("hello world"), wantCode: http.StatusBadRequest},
		{name: "unknown kind", kind: "banner", data: png, wantCode: http.StatusBadRequest},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			f := newAPIFixture(t)

			var body bytes.Buffer
			form := multipart.NewWriter(&body)
			part, err := form.CreateFormFile("image", "logo.png")
			require.NoError(t, err)
			_, err = part.Write(testCase.data)
			require.NoError(t, err)
			require.NoError(t, form.Close())

			req := httptest.NewRequest("POST", "/api/restaurants/r1/images/"+testCase.kind, &body)
			req.Header.Set("Content-Type", form.FormDataContentType())
			req.Header.Set("Authorization", "Bearer "+f.token(t, approvedOwner))
			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, req)

			assert.Equal(t, testCase.wantCode, w.Code, w.Body.String())
			if testCase.wantCode == http.StatusOK {
				rest, err := f.store.GetRestaurant(context.Background(), "r1")
				require.NoError(t, err)
				assert.True(t, strings.HasPrefix(rest.LogoURL, "http://localhost:8080/uploads/restaurants/"))
			}
		})
	}
}

func TestListMyRestaurantsHandler(t *testing.T) {
	f := newAPIFixture(t)
	require.NoError(t, f.store.CreateRestaurant(context.Background(), &domain.Restaurant{
		ID: "r2", OwnerID: "owner-2", Name: "Diner", IsActive: true,
	}))

	ids := func(s session.Session) []string {
		w := f.do("GET", "/api/me/restaurants", "", f.token(t, s))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var restaurants []domain.Restaurant
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &restaurants))
		var out []string
		for _, rest := range restaurants {
			out = append(out, rest.ID)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"r1", "r-closed", "r2"}, ids(superAdmin), "super admin sees inactive restaurants too")
	assert.ElementsMatch(t, []string{"r1", "r-closed"}, ids(approvedOwner))
	assert.ElementsMatch(t, []string{"r2"}, ids(otherOwner))
	assert.ElementsMatch(t, []string{"r1"}, ids(kitchenR1))
}

func TestCreateRestaurantHandler(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do("POST", "/api/restaurants", `{"name":"Cafe","owner_id":"someone-else","is_active":true}`, f.token(t, otherOwner))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var rest domain.Restaurant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rest))
	assert.Equal(t, "owner-2", rest.OwnerID)
	assert.False(t, rest.IsActive, "owners cannot activate their own restaurant")

	w = f.do("POST", "/api/restaurants", `{"name":"Cafe"}`, f.token(t, kitchenR1))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do("POST", "/api/restaurants", `{"name":""}`, f.token(t, otherOwner))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWatchOrderWebSocket(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()
	order, err := f.orders.CreateOrder(ctx, burgerRequest("r1"))
	require.NoError(t, err)

	server := httptest.NewServer(httpapi.NewRouter(f.handler, ""))
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"/ws/orders/missing", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws/orders/"+order.ID, nil)
	require.NoError(t, err)
	defer conn.Close()

	readSnapshot := func() live.Snapshot {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitTimeout)))
		var frame struct {
			Snapshot *live.Snapshot `json:"snapshot"`
			Error    string         `json:"error"`
		}
		require.NoError(t, conn.ReadJSON(&frame))
		require.Empty(t, frame.Error)
		require.NotNil(t, frame.Snapshot)
		return *frame.Snapshot
	}

	first := readSnapshot()
	require.NotNil(t, first.Order)
	assert.Equal(t, domain.StatusPending, first.Order.Status())

	_, err = f.orders.AdvanceOrder(ctx, order.ID)
	require.NoError(t, err)

	next := readSnapshot()
	require.NotNil(t, next.Order)
	assert.Equal(t, domain.StatusPreparing, next.Order.Status())
	assert.Greater(t, next.Version, first.Version)
}

func TestWatchRestaurantOrdersRequiresToken(t *testing.T) {
	f := newAPIFixture(t)
	server := httptest.NewServer(httpapi.NewRouter(f.handler, ""))
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/restaurants/r1/orders"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+f.token(t, kitchenR1), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitTimeout)))
	var frame struct {
		Snapshot *live.Snapshot `json:"snapshot"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	require.NotNil(t, frame.Snapshot)
	assert.Equal(t, "r1", frame.Snapshot.RestaurantID)
}

func TestHealthHandler(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do("GET", "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}
