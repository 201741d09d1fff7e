package service

import (
	"context"
	"time"

	"qrmenu/order-svc/internal/domain"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, restaurantID string, status *domain.Status) ([]domain.Order, error)
	// UpdateStatus writes to only if the stored status is still from. It
	// reports false when no row matched.
	UpdateStatus(ctx context.Context, id string, from, to domain.Status, at time.Time) (bool, error)
	CountByStatus(ctx context.Context, restaurantID string) (map[domain.Status]int, error)
}

type QRCodeRepository interface {
	InsertCode(ctx context.Context, code *domain.QRCode) error
	// ReplaceRestaurantCode swaps the restaurant-level code for code in one
	// atomic step and returns the code it removed, if any.
	ReplaceRestaurantCode(ctx context.Context, code *domain.QRCode) (*domain.QRCode, error)
	// ReplaceAllCodes swaps every code of a restaurant, restaurant-level code
	// included, for codes in one atomic step and returns the codes it removed.
	ReplaceAllCodes(ctx context.Context, restaurantID string, codes []domain.QRCode) ([]domain.QRCode, error)
	ListCodes(ctx context.Context, restaurantID string) ([]domain.QRCode, error)
	GetCode(ctx context.Context, id string) (*domain.QRCode, error)
	// IncrementScan bumps the matching code and returns it, or nil when no
	// code matches.
	IncrementScan(ctx context.Context, restaurantID string, table *int, at time.Time) (*domain.QRCode, error)
}

type ProfileStore interface {
	GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error)
	ListRestaurantsByOwner(ctx context.Context, ownerID string) ([]domain.Restaurant, error)
	ListActiveRestaurants(ctx context.Context) ([]domain.Restaurant, error)
	ListAllRestaurants(ctx context.Context) ([]domain.Restaurant, error)
	CreateRestaurant(ctx context.Context, rest *domain.Restaurant) error
	UpdateRestaurant(ctx context.Context, rest *domain.Restaurant) error
	DeleteRestaurant(ctx context.Context, id string) (int64, error)
	SetRestaurantQRCode(ctx context.Context, restaurantID, codeID string) error

	CreateMenuSection(ctx context.Context, section *domain.MenuSection) error
	ListMenuSections(ctx context.Context, restaurantID string) ([]domain.MenuSection, error)
	UpdateMenuSection(ctx context.Context, section *domain.MenuSection) error
	DeleteMenuSection(ctx context.Context, restaurantID, sectionID string) (int64, error)

	CreateMenuItem(ctx context.Context, item *domain.MenuItem) error
	ListMenuItems(ctx context.Context, restaurantID, sectionID string) ([]domain.MenuItem, error)
	GetMenuItem(ctx context.Context, restaurantID, itemID string) (*domain.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item *domain.MenuItem) error
	DeleteMenuItem(ctx context.Context, restaurantID, itemID string) (int64, error)
}

// RestaurantStamper records the restaurant-level code on the profile.
type RestaurantStamper interface {
	SetRestaurantQRCode(ctx context.Context, restaurantID, codeID string) error
}

type Blob struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

type BlobStore interface {
	Upload(ctx context.Context, data []byte, filename, folder string) (*Blob, error)
	Delete(ctx context.Context, publicID string) error
}

// StoredBlob is an uploaded file read back for serving.
type StoredBlob struct {
	Data        []byte
	ContentType string
	Filename    string
}

// BlobReader is implemented by blob stores that serve their own files.
type BlobReader interface {
	Open(ctx context.Context, publicID string) (*StoredBlob, error)
}

type QRRenderer interface {
	Render(content string) ([]byte, error)
}

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error
}

type ScanPublisher interface {
	PublishScanEvent(ctx context.Context, event domain.ScanEvent) error
}

type OrderServiceInterface interface {
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrdersByRestaurant(ctx context.Context, restaurantID string, status *domain.Status) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, to domain.Status) (*domain.Order, error)
	AdvanceOrder(ctx context.Context, id string) (*domain.Order, error)
	StatusCounts(ctx context.Context, restaurantID string) (map[domain.Status]int, error)
	TrackingURL(orderID string) string
}

type QRRegistryInterface interface {
	GenerateRestaurantCode(ctx context.Context, restaurantID, name string) (*domain.GeneratedCode, error)
	RegenerateRestaurantCode(ctx context.Context, restaurantID, name string) (*domain.GeneratedCode, error)
	GenerateTableCodes(ctx context.Context, restaurantID, name string, count int) (*domain.BatchResult, error)
	RegenerateBatch(ctx context.Context, restaurantID, name string, count int) (*domain.BatchResult, error)
	ListCodes(ctx context.Context, restaurantID string) ([]domain.QRCode, error)
	GetCode(ctx context.Context, id string) (*domain.QRCode, error)
	TrackScan(ctx context.Context, restaurantID string, table *int) bool
}

type ProfileServiceInterface interface {
	GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Restaurant, error)
	ListActive(ctx context.Context) ([]domain.Restaurant, error)
	ListAll(ctx context.Context) ([]domain.Restaurant, error)
	CreateRestaurant(ctx context.Context, rest *domain.Restaurant) error
	UpdateRestaurant(ctx context.Context, rest *domain.Restaurant) error
	DeleteRestaurant(ctx context.Context, id string) error
	UploadRestaurantImage(ctx context.Context, restaurantID, kind, filename string, data []byte) (*domain.Restaurant, error)

	CreateSection(ctx context.Context, section *domain.MenuSection) error
	ListSections(ctx context.Context, restaurantID string) ([]domain.MenuSection, error)
	UpdateSection(ctx context.Context, section *domain.MenuSection) error
	DeleteSection(ctx context.Context, restaurantID, sectionID string) error

	CreateItem(ctx context.Context, item *domain.MenuItem) error
	ListItems(ctx context.Context, restaurantID, sectionID string) ([]domain.MenuItem, error)
	UpdateItem(ctx context.Context, item *domain.MenuItem) error
	DeleteItem(ctx context.Context, restaurantID, itemID string) error
	UploadItemImage(ctx context.Context, restaurantID, itemID, filename string, data []byte) (*domain.MenuItem, error)

	PublicMenu(ctx context.Context, restaurantID string, table *int) (*domain.PublicMenu, error)
}
