package storage

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"qrmenu/order-svc/internal/domain"
	"qrmenu/order-svc/internal/service"
)

type storedOrder struct {
	order *domain.Order
	seq   int
}

// MemoryStore keeps orders, QR codes and profiles in process memory. It is
// used with STORE_DRIVER=memory and in tests.
type MemoryStore struct {
	mu          sync.RWMutex
	seq         int
	orders      map[string]storedOrder
	codes       map[string]domain.QRCode
	restaurants map[string]domain.Restaurant
	sections    map[string]domain.MenuSection
	items       map[string]domain.MenuItem
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:      make(map[string]storedOrder),
		codes:       make(map[string]domain.QRCode),
		restaurants: make(map[string]domain.Restaurant),
		sections:    make(map[string]domain.MenuSection),
		items:       make(map[string]domain.MenuItem),
	}
}

func (m *MemoryStore) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.orders[order.ID]; exists {
		return domain.Validationf("create order", "order %s already exists", order.ID)
	}
	m.seq++
	m.orders[order.ID] = storedOrder{order: order.Clone(), seq: m.seq}
	return nil
}

func (m *MemoryStore) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored, ok := m.orders[id]
	if !ok {
		return nil, domain.NotFound("get order", "order", id)
	}
	return stored.order.Clone(), nil
}

func (m *MemoryStore) ListOrders(_ context.Context, restaurantID string, status *domain.Status) ([]domain.Order, error) {
	m.mu.RLock()
	matched := make([]storedOrder, 0)
	for _, stored := range m.orders {
		if stored.order.RestaurantID != restaurantID {
			continue
		}
		if status != nil && stored.order.Status() != *status {
			continue
		}
		matched = append(matched, storedOrder{order: stored.order.Clone(), seq: stored.seq})
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.order.CreatedAt.Equal(b.order.CreatedAt) {
			return a.order.CreatedAt.After(b.order.CreatedAt)
		}
		return a.seq > b.seq
	})

	orders := make([]domain.Order, len(matched))
	for i, stored := range matched {
		orders[i] = *stored.order
	}
	return orders, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id string, from, to domain.Status, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[id]
	if !ok || stored.order.Status() != from {
		return false, nil
	}
	updated := stored.order.Clone()
	if err := updated.Advance(to, at); err != nil {
		return false, err
	}
	stored.order = updated
	m.orders[id] = stored
	return true, nil
}

func (m *MemoryStore) CountByStatus(_ context.Context, restaurantID string) (map[domain.Status]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[domain.Status]int)
	for _, stored := range m.orders {
		if stored.order.RestaurantID == restaurantID {
			counts[stored.order.Status()]++
		}
	}
	return counts, nil
}

func (m *MemoryStore) InsertCode(_ context.Context, code *domain.QRCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertCodeLocked(*code)
}

func (m *MemoryStore) insertCodeLocked(code domain.QRCode) error {
	if m.findCodeLocked(code.RestaurantID, code.TableNumber) != "" {
		if code.TableNumber != nil {
			return domain.Validationf("insert code", "table %d already has a code", *code.TableNumber)
		}
		return domain.Validationf("insert code", "restaurant %s already has a code", code.RestaurantID)
	}
	m.codes[code.ID] = cloneCode(code)
	return nil
}

func (m *MemoryStore) ReplaceRestaurantCode(_ context.Context, code *domain.QRCode) (*domain.QRCode, error) {
	if code.TableNumber != nil {
		return nil, domain.Validationf("replace restaurant code", "code %s belongs to table %d", code.ID, *code.TableNumber)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed *domain.QRCode
	if id := m.findCodeLocked(code.RestaurantID, nil); id != "" {
		old := m.codes[id]
		removed = &old
		delete(m.codes, id)
	}
	m.codes[code.ID] = cloneCode(*code)
	return removed, nil
}

func (m *MemoryStore) ReplaceAllCodes(_ context.Context, restaurantID string, codes []domain.QRCode) ([]domain.QRCode, error) {
	seen := make(map[int]bool, len(codes))
	for _, code := range codes {
		slot := -1
		if code.TableNumber != nil {
			slot = *code.TableNumber
		}
		if seen[slot] {
			return nil, domain.Validationf("replace codes", "code %s duplicates table %s", code.ID, tableSlot(code.TableNumber))
		}
		seen[slot] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := []domain.QRCode{}
	for id, code := range m.codes {
		if code.RestaurantID == restaurantID {
			removed = append(removed, code)
			delete(m.codes, id)
		}
	}
	for _, code := range codes {
		m.codes[code.ID] = cloneCode(code)
	}
	sortCodes(removed)
	return removed, nil
}

func (m *MemoryStore) ListCodes(_ context.Context, restaurantID string) ([]domain.QRCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	codes := []domain.QRCode{}
	for _, code := range m.codes {
		if code.RestaurantID == restaurantID {
			codes = append(codes, cloneCode(code))
		}
	}
	sortCodes(codes)
	return codes, nil
}

func (m *MemoryStore) GetCode(_ context.Context, id string) (*domain.QRCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	code, ok := m.codes[id]
	if !ok {
		return nil, domain.NotFound("get code", "qr code", id)
	}
	cp := cloneCode(code)
	return &cp, nil
}

func (m *MemoryStore) IncrementScan(_ context.Context, restaurantID string, table *int, at time.Time) (*domain.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.findCodeLocked(restaurantID, table)
	if id == "" {
		return nil, nil
	}
	code := m.codes[id]
	code.Scans++
	scanned := at
	code.LastScannedAt = &scanned
	code.UpdatedAt = at
	m.codes[id] = code
	cp := cloneCode(code)
	return &cp, nil
}

func (m *MemoryStore) findCodeLocked(restaurantID string, table *int) string {
	for id, code := range m.codes {
		if code.RestaurantID != restaurantID {
			continue
		}
		switch {
		case table == nil && code.TableNumber == nil:
			return id
		case table != nil && code.TableNumber != nil && *table == *code.TableNumber:
			return id
		}
	}
	return ""
}

func (m *MemoryStore) CreateRestaurant(_ context.Context, rest *domain.Restaurant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.restaurants[rest.ID]; exists {
		return domain.Validationf("create restaurant", "restaurant %s already exists", rest.ID)
	}
	m.restaurants[rest.ID] = *rest
	return nil
}

func (m *MemoryStore) GetRestaurant(_ context.Context, id string) (*domain.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rest, ok := m.restaurants[id]
	if !ok {
		return nil, domain.NotFound("get restaurant", "restaurant", id)
	}
	return &rest, nil
}

func (m *MemoryStore) ListRestaurantsByOwner(_ context.Context, ownerID string) ([]domain.Restaurant, error) {
	return m.filterRestaurants(func(r domain.Restaurant) bool { return r.OwnerID == ownerID }), nil
}

func (m *MemoryStore) ListActiveRestaurants(_ context.Context) ([]domain.Restaurant, error) {
	return m.filterRestaurants(func(r domain.Restaurant) bool { return r.IsActive }), nil
}

func (m *MemoryStore) ListAllRestaurants(_ context.Context) ([]domain.Restaurant, error) {
	return m.filterRestaurants(func(domain.Restaurant) bool { return true }), nil
}

func (m *MemoryStore) filterRestaurants(keep func(domain.Restaurant) bool) []domain.Restaurant {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rests := []domain.Restaurant{}
	for _, rest := range m.restaurants {
		if keep(rest) {
			rests = append(rests, rest)
		}
	}
	sort.Slice(rests, func(i, j int) bool { return rests[i].CreatedAt.After(rests[j].CreatedAt) })
	return rests
}

func (m *MemoryStore) UpdateRestaurant(_ context.Context, rest *domain.Restaurant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.restaurants[rest.ID]
	if !ok {
		return domain.NotFound("update restaurant", "restaurant", rest.ID)
	}
	updated := *rest
	updated.OwnerID = current.OwnerID
	updated.QRCodeID = current.QRCodeID
	updated.CreatedAt = current.CreatedAt
	m.restaurants[rest.ID] = updated
	return nil
}

func (m *MemoryStore) DeleteRestaurant(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.restaurants[id]; !ok {
		return 0, nil
	}
	delete(m.restaurants, id)
	for sid, s := range m.sections {
		if s.RestaurantID == id {
			delete(m.sections, sid)
		}
	}
	for iid, item := range m.items {
		if item.RestaurantID == id {
			delete(m.items, iid)
		}
	}
	return 1, nil
}

func (m *MemoryStore) SetRestaurantQRCode(_ context.Context, restaurantID, codeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rest, ok := m.restaurants[restaurantID]
	if !ok {
		return domain.NotFound("stamp restaurant", "restaurant", restaurantID)
	}
	rest.QRCodeID = codeID
	m.restaurants[restaurantID] = rest
	return nil
}

func (m *MemoryStore) CreateMenuSection(_ context.Context, section *domain.MenuSection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sections[section.ID] = *section
	return nil
}

func (m *MemoryStore) ListMenuSections(_ context.Context, restaurantID string) ([]domain.MenuSection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sections := []domain.MenuSection{}
	for _, s := range m.sections {
		if s.RestaurantID == restaurantID {
			sections = append(sections, s)
		}
	}
	sort.Slice(sections, func(i, j int) bool {
		if sections[i].Position != sections[j].Position {
			return sections[i].Position < sections[j].Position
		}
		return sections[i].CreatedAt.Before(sections[j].CreatedAt)
	})
	return sections, nil
}

func (m *MemoryStore) UpdateMenuSection(_ context.Context, section *domain.MenuSection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.sections[section.ID]
	if !ok || current.RestaurantID != section.RestaurantID {
		return domain.NotFound("update section", "section", section.ID)
	}
	updated := *section
	updated.CreatedAt = current.CreatedAt
	m.sections[section.ID] = updated
	return nil
}

func (m *MemoryStore) DeleteMenuSection(_ context.Context, restaurantID, sectionID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sections[sectionID]
	if !ok || s.RestaurantID != restaurantID {
		return 0, nil
	}
	delete(m.sections, sectionID)
	return 1, nil
}

func (m *MemoryStore) CreateMenuItem(_ context.Context, item *domain.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = *item
	return nil
}

func (m *MemoryStore) ListMenuItems(_ context.Context, restaurantID, sectionID string) ([]domain.MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := []domain.MenuItem{}
	for _, item := range m.items {
		if item.RestaurantID != restaurantID {
			continue
		}
		if sectionID != "" && item.SectionID != sectionID {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (m *MemoryStore) GetMenuItem(_ context.Context, restaurantID, itemID string) (*domain.MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[itemID]
	if !ok || item.RestaurantID != restaurantID {
		return nil, domain.NotFound("get menu item", "menu item", itemID)
	}
	return &item, nil
}

func (m *MemoryStore) UpdateMenuItem(_ context.Context, item *domain.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.items[item.ID]
	if !ok || current.RestaurantID != item.RestaurantID {
		return domain.NotFound("update menu item", "menu item", item.ID)
	}
	updated := *item
	updated.CreatedAt = current.CreatedAt
	m.items[item.ID] = updated
	return nil
}

func (m *MemoryStore) DeleteMenuItem(_ context.Context, restaurantID, itemID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok || item.RestaurantID != restaurantID {
		return 0, nil
	}
	delete(m.items, itemID)
	return 1, nil
}

func cloneCode(code domain.QRCode) domain.QRCode {
	if code.TableNumber != nil {
		n := *code.TableNumber
		code.TableNumber = &n
	}
	if code.LastScannedAt != nil {
		t := *code.LastScannedAt
		code.LastScannedAt = &t
	}
	return code
}

// sortCodes puts the restaurant-level code first, then tables ascending.
func sortCodes(codes []domain.QRCode) {
	sort.Slice(codes, func(i, j int) bool {
		a, b := codes[i].TableNumber, codes[j].TableNumber
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		default:
			return *a < *b
		}
	})
}

var (
	_ service.OrderRepository  = (*MemoryStore)(nil)
	_ service.QRCodeRepository = (*MemoryStore)(nil)
	_ service.ProfileStore     = (*MemoryStore)(nil)
)

func tableSlot(table *int) string {
	if table == nil {
		return "none"
	}
	return strconv.Itoa(*table)
}
