package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Restaurant struct {
	ID                  string    `json:"id"`
	OwnerID             string    `json:"owner_id"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	Address             string    `json:"address"`
	Phone               string    `json:"phone"`
	CuisineType         string    `json:"cuisine_type"`
	LogoURL             string    `json:"logo_url"`
	CoverURL            string    `json:"cover_url"`
	PaymentInstructions string    `json:"payment_instructions"`
	QRCodeID            string    `json:"qr_code_id,omitempty"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type MenuSection struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Position     int       `json:"position"`
	CreatedAt    time.Time `json:"created_at"`
}

type MenuItem struct {
	ID            string          `json:"id"`
	RestaurantID  string          `json:"restaurant_id"`
	SectionID     string          `json:"section_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      string          `json:"image_url"`
	ImagePublicID string          `json:"image_public_id,omitempty"`
	Available     bool            `json:"available"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PublicMenu is what a customer sees after scanning a code.
type PublicMenu struct {
	Restaurant  Restaurant    `json:"restaurant"`
	TableNumber *int          `json:"table_number,omitempty"`
	Sections    []MenuSection `json:"sections"`
	Items       []MenuItem    `json:"items"`
}
