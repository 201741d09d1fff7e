package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"qrmenu/order-svc/internal/domain"
)

const (
	ImageKindLogo  = "logo"
	ImageKindCover = "cover"

	restaurantImageFolder = "restaurants"
	menuItemImageFolder   = "menu-items"
)

type ProfileService struct {
	store ProfileStore
	blobs BlobStore
	now   func() time.Time
}

func NewProfileService(store ProfileStore, blobs BlobStore) *ProfileService {
	return &ProfileService{
		store: store,
		blobs: blobs,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *ProfileService) GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	rest, err := s.store.GetRestaurant(ctx, id)
	if err != nil {
		return nil, domain.StoreErr("get restaurant", err)
	}
	return rest, nil
}

func (s *ProfileService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Restaurant, error) {
	rests, err := s.store.ListRestaurantsByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.StoreErr("list restaurants", err)
	}
	return rests, nil
}

func (s *ProfileService) ListActive(ctx context.Context) ([]domain.Restaurant, error) {
	rests, err := s.store.ListActiveRestaurants(ctx)
	if err != nil {
		return nil, domain.StoreErr("list active restaurants", err)
	}
	return rests, nil
}

// ListAll includes inactive restaurants; it backs the super admin's view.
func (s *ProfileService) ListAll(ctx context.Context) ([]domain.Restaurant, error) {
	rests, err := s.store.ListAllRestaurants(ctx)
	if err != nil {
		return nil, domain.StoreErr("list all restaurants", err)
	}
	return rests, nil
}

func (s *ProfileService) CreateRestaurant(ctx context.Context, rest *domain.Restaurant) error {
	const op = "create restaurant"
	if strings.TrimSpace(rest.Name) == "" {
		return domain.Validationf(op, "name is required")
	}
	if rest.OwnerID == "" {
		return domain.Validationf(op, "owner id is required")
	}
	if rest.ID == "" {
		rest.ID = uuid.NewString()
	}
	rest.CreatedAt = s.now()
	rest.UpdatedAt = rest.CreatedAt
	return domain.StoreErr(op, s.store.CreateRestaurant(ctx, rest))
}

func (s *ProfileService) UpdateRestaurant(ctx context.Context, rest *domain.Restaurant) error {
	const op = "update restaurant"
	if strings.TrimSpace(rest.Name) == "" {
		return domain.Validationf(op, "name is required")
	}
	rest.UpdatedAt = s.now()
	return domain.StoreErr(op, s.store.UpdateRestaurant(ctx, rest))
}

func (s *ProfileService) DeleteRestaurant(ctx context.Context, id string) error {
	n, err := s.store.DeleteRestaurant(ctx, id)
	if err != nil {
		return domain.StoreErr("delete restaurant", err)
	}
	if n == 0 {
		return domain.NotFound("delete restaurant", "restaurant", id)
	}
	return nil
}

// UploadRestaurantImage stores a logo or cover image and points the profile at
// it.
func (s *ProfileService) UploadRestaurantImage(ctx context.Context, restaurantID, kind, filename string, data []byte) (*domain.Restaurant, error) {
	const op = "upload restaurant image"
	if kind != ImageKindLogo && kind != ImageKindCover {
		return nil, domain.Validationf(op, "image kind must be %q or %q", ImageKindLogo, ImageKindCover)
	}
	if len(data) == 0 {
		return nil, domain.Validationf(op, "image is empty")
	}

	rest, err := s.store.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, domain.StoreErr(op, err)
	}

	blob, err := s.blobs.Upload(ctx, data, filename, restaurantImageFolder)
	if err != nil {
		return nil, domain.UploadErr(op, err)
	}

	if kind == ImageKindLogo {
		rest.LogoURL = blob.URL
	} else {
		rest.CoverURL = blob.URL
	}
	rest.UpdatedAt = s.now()
	if err := s.store.UpdateRestaurant(ctx, rest); err != nil {
		s.dropBlob(ctx, blob.PublicID)
		return nil, domain.StoreErr(op, err)
	}
	return rest, nil
}

func (s *ProfileService) CreateSection(ctx context.Context, section *domain.MenuSection) error {
	const op = "create section"
	if strings.TrimSpace(section.Name) == "" {
		return domain.Validationf(op, "name is required")
	}
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	section.CreatedAt = s.now()
	return domain.StoreErr(op, s.store.CreateMenuSection(ctx, section))
}

func (s *ProfileService) ListSections(ctx context.Context, restaurantID string) ([]domain.MenuSection, error) {
	sections, err := s.store.ListMenuSections(ctx, restaurantID)
	if err != nil {
		return nil, domain.StoreErr("list sections", err)
	}
	return sections, nil
}

func (s *ProfileService) UpdateSection(ctx context.Context, section *domain.MenuSection) error {
	if strings.TrimSpace(section.Name) == "" {
		return domain.Validationf("update section", "name is required")
	}
	return domain.StoreErr("update section", s.store.UpdateMenuSection(ctx, section))
}

func (s *ProfileService) DeleteSection(ctx context.Context, restaurantID, sectionID string) error {
	n, err := s.store.DeleteMenuSection(ctx, restaurantID, sectionID)
	if err != nil {
		return domain.StoreErr("delete section", err)
	}
	if n == 0 {
		return domain.NotFound("delete section", "section", sectionID)
	}
	return nil
}

func (s *ProfileService) CreateItem(ctx context.Context, item *domain.MenuItem) error {
	const op = "create item"
	if err := validateItem(op, item); err != nil {
		return err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt
	return domain.StoreErr(op, s.store.CreateMenuItem(ctx, item))
}

func (s *ProfileService) ListItems(ctx context.Context, restaurantID, sectionID string) ([]domain.MenuItem, error) {
	items, err := s.store.ListMenuItems(ctx, restaurantID, sectionID)
	if err != nil {
		return nil, domain.StoreErr("list items", err)
	}
	return items, nil
}

func (s *ProfileService) UpdateItem(ctx context.Context, item *domain.MenuItem) error {
	const op = "update item"
	if err := validateItem(op, item); err != nil {
		return err
	}
	item.UpdatedAt = s.now()
	return domain.StoreErr(op, s.store.UpdateMenuItem(ctx, item))
}

// DeleteItem removes the item and its hosted image. Orders keep their own
// copy of the item so nothing else needs to change.
func (s *ProfileService) DeleteItem(ctx context.Context, restaurantID, itemID string) error {
	const op = "delete item"
	item, err := s.store.GetMenuItem(ctx, restaurantID, itemID)
	if err != nil {
		return domain.StoreErr(op, err)
	}
	n, err := s.store.DeleteMenuItem(ctx, restaurantID, itemID)
	if err != nil {
		return domain.StoreErr(op, err)
	}
	if n == 0 {
		return domain.NotFound(op, "menu item", itemID)
	}
	s.dropBlob(ctx, item.ImagePublicID)
	return nil
}

func (s *ProfileService) UploadItemImage(ctx context.Context, restaurantID, itemID, filename string, data []byte) (*domain.MenuItem, error) {
	const op = "upload item image"
	if len(data) == 0 {
		return nil, domain.Validationf(op, "image is empty")
	}

	item, err := s.store.GetMenuItem(ctx, restaurantID, itemID)
	if err != nil {
		return nil, domain.StoreErr(op, err)
	}

	blob, err := s.blobs.Upload(ctx, data, filename, menuItemImageFolder)
	if err != nil {
		return nil, domain.UploadErr(op, err)
	}

	previous := item.ImagePublicID
	item.ImageURL = blob.URL
	item.ImagePublicID = blob.PublicID
	item.UpdatedAt = s.now()
	if err := s.store.UpdateMenuItem(ctx, item); err != nil {
		s.dropBlob(ctx, blob.PublicID)
		return nil, domain.StoreErr(op, err)
	}
	s.dropBlob(ctx, previous)
	return item, nil
}

// PublicMenu assembles what a customer sees after scanning: the restaurant,
// its sections and the items currently available. Inactive restaurants are
// reported as missing.
func (s *ProfileService) PublicMenu(ctx context.Context, restaurantID string, table *int) (*domain.PublicMenu, error) {
	const op = "public menu"
	rest, err := s.store.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, domain.StoreErr(op, err)
	}
	if !rest.IsActive {
		return nil, domain.NotFound(op, "restaurant", restaurantID)
	}

	sections, err := s.store.ListMenuSections(ctx, restaurantID)
	if err != nil {
		return nil, domain.StoreErr(op, err)
	}
	items, err := s.store.ListMenuItems(ctx, restaurantID, "")
	if err != nil {
		return nil, domain.StoreErr(op, err)
	}

	available := make([]domain.MenuItem, 0, len(items))
	for _, item := range items {
		if item.Available {
			available = append(available, item)
		}
	}

	return &domain.PublicMenu{
		Restaurant:  *rest,
		TableNumber: table,
		Sections:    sections,
		Items:       available,
	}, nil
}

func (s *ProfileService) dropBlob(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	if err := s.blobs.Delete(ctx, publicID); err != nil {
		log.Printf("profile: failed to delete image %s: %v", publicID, err)
	}
}

func validateItem(op string, item *domain.MenuItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return domain.Validationf(op, "name is required")
	}
	if item.Price.IsNegative() {
		return domain.Validationf(op, "price cannot be negative")
	}
	if item.RestaurantID == "" {
		return domain.Validationf(op, "restaurant id is required")
	}
	return nil
}

var _ ProfileServiceInterface = (*ProfileService)(nil)
