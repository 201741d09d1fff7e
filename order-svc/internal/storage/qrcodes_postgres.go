package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"qrmenu/order-svc/internal/domain"
	"qrmenu/order-svc/internal/service"
)

const qrColumns = `id, restaurant_id, restaurant_name, table_number, menu_url, scans, last_scanned_at, image_url, image_public_id, created_at, updated_at`

const insertQRCode = `
	INSERT INTO qr_codes (` + qrColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *PostgresRepository) InsertCode(ctx context.Context, code *domain.QRCode) error {
	return insertCode(ctx, r.DB, code)
}

func (r *PostgresRepository) ReplaceRestaurantCode(ctx context.Context, code *domain.QRCode) (*domain.QRCode, error) {
	if code.TableNumber != nil {
		return nil, domain.Validationf("replace restaurant code", "code %s belongs to table %d", code.ID, *code.TableNumber)
	}
	removed, err := r.replaceCodes(ctx, code.RestaurantID, `table_number IS NULL`, []domain.QRCode{*code})
	if err != nil || len(removed) == 0 {
		return nil, err
	}
	return &removed[0], nil
}

func (r *PostgresRepository) ReplaceAllCodes(ctx context.Context, restaurantID string, codes []domain.QRCode) ([]domain.QRCode, error) {
	return r.replaceCodes(ctx, restaurantID, `TRUE`, codes)
}

func (r *PostgresRepository) replaceCodes(ctx context.Context, restaurantID, scope string, codes []domain.QRCode) ([]domain.QRCode, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		DELETE FROM qr_codes
		WHERE restaurant_id = $1 AND `+scope+`
		RETURNING `+qrColumns, restaurantID)
	if err != nil {
		return nil, err
	}
	removed, err := collectCodes(rows)
	if err != nil {
		return nil, err
	}

	for i := range codes {
		if err := insertCode(ctx, tx, &codes[i]); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *PostgresRepository) ListCodes(ctx context.Context, restaurantID string) ([]domain.QRCode, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+qrColumns+`
		FROM qr_codes
		WHERE restaurant_id = $1
		ORDER BY table_number NULLS FIRST`, restaurantID)
	if err != nil {
		return nil, err
	}
	return collectCodes(rows)
}

func (r *PostgresRepository) GetCode(ctx context.Context, id string) (*domain.QRCode, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+qrColumns+` FROM qr_codes WHERE id = $1`, id)
	code, err := scanCode(row)
	if err != nil {
		return nil, notFoundOr(err, "get code", "qr code", id)
	}
	return code, nil
}

// IncrementScan counts one scan in a single statement, so concurrent scans
// never lose an increment.
func (r *PostgresRepository) IncrementScan(ctx context.Context, restaurantID string, table *int, at time.Time) (*domain.QRCode, error) {
	row := r.DB.QueryRowContext(ctx, `
		UPDATE qr_codes
		SET scans = scans + 1, last_scanned_at = $3, updated_at = $3
		WHERE restaurant_id = $1 AND table_number IS NOT DISTINCT FROM $2::int
		RETURNING `+qrColumns, restaurantID, nullableInt(table), at)
	code, err := scanCode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return code, nil
}

func insertCode(ctx context.Context, db execer, code *domain.QRCode) error {
	_, err := db.ExecContext(ctx, insertQRCode,
		code.ID, code.RestaurantID, code.RestaurantName, nullableInt(code.TableNumber),
		code.MenuURL, code.Scans, code.LastScannedAt, code.ImageURL, code.ImagePublicID,
		code.CreatedAt, code.UpdatedAt)
	if isUniqueViolation(err) {
		if code.TableNumber != nil {
			return domain.Validationf("insert code", "table %d already has a code", *code.TableNumber)
		}
		return domain.Validationf("insert code", "restaurant %s already has a code", code.RestaurantID)
	}
	return err
}

func collectCodes(rows *sql.Rows) ([]domain.QRCode, error) {
	defer rows.Close()
	codes := []domain.QRCode{}
	for rows.Next() {
		code, err := scanCode(rows)
		if err != nil {
			return nil, err
		}
		codes = append(codes, *code)
	}
	return codes, rows.Err()
}

func scanCode(row scanner) (*domain.QRCode, error) {
	var (
		code    domain.QRCode
		table   sql.NullInt64
		scanned sql.NullTime
	)
	if err := row.Scan(&code.ID, &code.RestaurantID, &code.RestaurantName, &table,
		&code.MenuURL, &code.Scans, &scanned, &code.ImageURL, &code.ImagePublicID,
		&code.CreatedAt, &code.UpdatedAt); err != nil {
		return nil, err
	}
	code.TableNumber = intPtr(table)
	if scanned.Valid {
		t := scanned.Time
		code.LastScannedAt = &t
	}
	return &code, nil
}

var _ service.QRCodeRepository = (*PostgresRepository)(nil)
