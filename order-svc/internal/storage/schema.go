package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"qrmenu/order-svc/internal/domain"
)

type PostgresRepository struct {
	DB *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS restaurants (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		cuisine_type TEXT NOT NULL DEFAULT '',
		logo_url TEXT NOT NULL DEFAULT '',
		cover_url TEXT NOT NULL DEFAULT '',
		payment_instructions TEXT NOT NULL DEFAULT '',
		qr_code_id TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS restaurants_owner ON restaurants (owner_id)`,
	`CREATE TABLE IF NOT EXISTS menu_sections (
		id TEXT PRIMARY KEY,
		restaurant_id TEXT NOT NULL REFERENCES restaurants(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		position INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS menu_items (
		id TEXT PRIMARY KEY,
		restaurant_id TEXT NOT NULL REFERENCES restaurants(id) ON DELETE CASCADE,
		section_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
		image_url TEXT NOT NULL DEFAULT '',
		image_public_id TEXT NOT NULL DEFAULT '',
		available BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		restaurant_id TEXT NOT NULL,
		table_number INT CHECK (table_number >= 1),
		customer_name TEXT NOT NULL DEFAULT '',
		customer_phone TEXT NOT NULL DEFAULT '',
		total_amount NUMERIC(12,2) NOT NULL CHECK (total_amount >= 0),
		status TEXT NOT NULL CHECK (status IN ('pending', 'preparing', 'completed')),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_restaurant_created ON orders (restaurant_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id TEXT NOT NULL REFERENCES orders(id),
		position INT NOT NULL,
		item_id TEXT NOT NULL,
		name TEXT NOT NULL,
		price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
		quantity INT NOT NULL CHECK (quantity >= 1),
		PRIMARY KEY (order_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS qr_codes (
		id TEXT PRIMARY KEY,
		restaurant_id TEXT NOT NULL,
		restaurant_name TEXT NOT NULL DEFAULT '',
		table_number INT CHECK (table_number >= 1),
		menu_url TEXT NOT NULL,
		scans BIGINT NOT NULL DEFAULT 0,
		last_scanned_at TIMESTAMPTZ,
		image_url TEXT NOT NULL DEFAULT '',
		image_public_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS qr_codes_restaurant_table ON qr_codes (restaurant_id, COALESCE(table_number, 0))`,
	`CREATE TABLE IF NOT EXISTS blobs (
		public_id TEXT PRIMARY KEY,
		folder TEXT NOT NULL,
		filename TEXT NOT NULL,
		content_type TEXT NOT NULL,
		data BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema `%s`: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(stmt string) string {
	for i, c := range stmt {
		if c == '\n' {
			return stmt[:i]
		}
	}
	return stmt
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func notFoundOr(err error, op, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(op, what, id)
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
