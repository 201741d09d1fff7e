package storage

import (
	"context"
	"database/sql"

	"qrmenu/order-svc/internal/domain"
	"qrmenu/order-svc/internal/service"
)

const restaurantColumns = `id, owner_id, name, description, address, phone, cuisine_type, logo_url, cover_url, payment_instructions, qr_code_id, is_active, created_at, updated_at`

func (r *PostgresRepository) CreateRestaurant(ctx context.Context, rest *domain.Restaurant) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO restaurants (`+restaurantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rest.ID, rest.OwnerID, rest.Name, rest.Description, rest.Address, rest.Phone, rest.CuisineType,
		rest.LogoURL, rest.CoverURL, rest.PaymentInstructions, rest.QRCodeID, rest.IsActive,
		rest.CreatedAt, rest.UpdatedAt)
	return err
}

func (r *PostgresRepository) GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1`, id)
	rest, err := scanRestaurant(row)
	if err != nil {
		return nil, notFoundOr(err, "get restaurant", "restaurant", id)
	}
	return rest, nil
}

func (r *PostgresRepository) ListRestaurantsByOwner(ctx context.Context, ownerID string) ([]domain.Restaurant, error) {
	return r.listRestaurants(ctx, `WHERE owner_id = $1`, ownerID)
}

func (r *PostgresRepository) ListActiveRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	return r.listRestaurants(ctx, `WHERE is_active`)
}

func (r *PostgresRepository) ListAllRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	return r.listRestaurants(ctx, ``)
}

func (r *PostgresRepository) listRestaurants(ctx context.Context, where string, args ...any) ([]domain.Restaurant, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+restaurantColumns+`
		FROM restaurants
		`+where+`
		ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	restaurants := []domain.Restaurant{}
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		restaurants = append(restaurants, *rest)
	}
	return restaurants, rows.Err()
}

func (r *PostgresRepository) UpdateRestaurant(ctx context.Context, rest *domain.Restaurant) error {
	result, err := r.DB.ExecContext(ctx, `
		UPDATE restaurants
		SET name=$1, description=$2, address=$3, phone=$4, cuisine_type=$5, logo_url=$6,
			cover_url=$7, payment_instructions=$8, is_active=$9, updated_at=$10
		WHERE id=$11`,
		rest.Name, rest.Description, rest.Address, rest.Phone, rest.CuisineType, rest.LogoURL,
		rest.CoverURL, rest.PaymentInstructions, rest.IsActive, rest.UpdatedAt, rest.ID)
	return expectRow(result, err, "update restaurant", "restaurant", rest.ID)
}

func (r *PostgresRepository) DeleteRestaurant(ctx context.Context, id string) (int64, error) {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM restaurants WHERE id=$1", id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *PostgresRepository) SetRestaurantQRCode(ctx context.Context, restaurantID, codeID string) error {
	result, err := r.DB.ExecContext(ctx,
		"UPDATE restaurants SET qr_code_id=$1, updated_at=now() WHERE id=$2", codeID, restaurantID)
	return expectRow(result, err, "stamp restaurant", "restaurant", restaurantID)
}

func (r *PostgresRepository) CreateMenuSection(ctx context.Context, section *domain.MenuSection) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO menu_sections (id, restaurant_id, name, description, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		section.ID, section.RestaurantID, section.Name, section.Description, section.Position, section.CreatedAt)
	return err
}

func (r *PostgresRepository) ListMenuSections(ctx context.Context, restaurantID string) ([]domain.MenuSection, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, restaurant_id, name, description, position, created_at
		FROM menu_sections
		WHERE restaurant_id = $1
		ORDER BY position, created_at`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sections := []domain.MenuSection{}
	for rows.Next() {
		var s domain.MenuSection
		if err := rows.Scan(&s.ID, &s.RestaurantID, &s.Name, &s.Description, &s.Position, &s.CreatedAt); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func (r *PostgresRepository) UpdateMenuSection(ctx context.Context, section *domain.MenuSection) error {
	result, err := r.DB.ExecContext(ctx, `
		UPDATE menu_sections
		SET name=$1, description=$2, position=$3
		WHERE id=$4 AND restaurant_id=$5`,
		section.Name, section.Description, section.Position, section.ID, section.RestaurantID)
	return expectRow(result, err, "update section", "section", section.ID)
}

func (r *PostgresRepository) DeleteMenuSection(ctx context.Context, restaurantID, sectionID string) (int64, error) {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM menu_sections WHERE id=$1 AND restaurant_id=$2", sectionID, restaurantID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const menuItemColumns = `id, restaurant_id, section_id, name, description, price, image_url, image_public_id, available, created_at, updated_at`

func (r *PostgresRepository) CreateMenuItem(ctx context.Context, item *domain.MenuItem) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO menu_items (`+menuItemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		item.ID, item.RestaurantID, item.SectionID, item.Name, item.Description, item.Price,
		item.ImageURL, item.ImagePublicID, item.Available, item.CreatedAt, item.UpdatedAt)
	return err
}

// ListMenuItems returns a section's items, or every item of the restaurant
// when sectionID is empty.
func (r *PostgresRepository) ListMenuItems(ctx context.Context, restaurantID, sectionID string) ([]domain.MenuItem, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+menuItemColumns+`
		FROM menu_items
		WHERE restaurant_id = $1 AND ($2 = '' OR section_id = $2)
		ORDER BY created_at`, restaurantID, sectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.MenuItem{}
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) GetMenuItem(ctx context.Context, restaurantID, itemID string) (*domain.MenuItem, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1 AND restaurant_id = $2`, itemID, restaurantID)
	item, err := scanMenuItem(row)
	if err != nil {
		return nil, notFoundOr(err, "get menu item", "menu item", itemID)
	}
	return item, nil
}

func (r *PostgresRepository) UpdateMenuItem(ctx context.Context, item *domain.MenuItem) error {
	result, err := r.DB.ExecContext(ctx, `
		UPDATE menu_items
		SET section_id=$1, name=$2, description=$3, price=$4, image_url=$5, image_public_id=$6,
			available=$7, updated_at=$8
		WHERE id=$9 AND restaurant_id=$10`,
		item.SectionID, item.Name, item.Description, item.Price, item.ImageURL, item.ImagePublicID,
		item.Available, item.UpdatedAt, item.ID, item.RestaurantID)
	return expectRow(result, err, "update menu item", "menu item", item.ID)
}

func (r *PostgresRepository) DeleteMenuItem(ctx context.Context, restaurantID, itemID string) (int64, error) {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM menu_items WHERE id=$1 AND restaurant_id=$2", itemID, restaurantID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanRestaurant(row scanner) (*domain.Restaurant, error) {
	var rest domain.Restaurant
	err := row.Scan(&rest.ID, &rest.OwnerID, &rest.Name, &rest.Description, &rest.Address, &rest.Phone,
		&rest.CuisineType, &rest.LogoURL, &rest.CoverURL, &rest.PaymentInstructions, &rest.QRCodeID,
		&rest.IsActive, &rest.CreatedAt, &rest.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rest, nil
}

func scanMenuItem(row scanner) (*domain.MenuItem, error) {
	var item domain.MenuItem
	err := row.Scan(&item.ID, &item.RestaurantID, &item.SectionID, &item.Name, &item.Description, &item.Price,
		&item.ImageURL, &item.ImagePublicID, &item.Available, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func expectRow(result sql.Result, err error, op, what, id string) error {
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound(op, what, id)
	}
	return nil
}

var _ service.ProfileStore = (*PostgresRepository)(nil)
