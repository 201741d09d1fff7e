package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"qrmenu/order-svc/internal/domain"
)

// MaxTableCodes bounds a single batch request.
const MaxTableCodes = 500

type QRRegistry struct {
	repo     QRCodeRepository
	blobs    BlobStore
	renderer QRRenderer
	stamper  RestaurantStamper
	scans    ScanPublisher
	origin   string
	now      func() time.Time
	newID    func() string
}

// NewQRRegistry wires the registry. stamper and scans may be nil.
func NewQRRegistry(repo QRCodeRepository, blobs BlobStore, renderer QRRenderer, stamper RestaurantStamper, scans ScanPublisher, origin string) *QRRegistry {
	return &QRRegistry{
		repo:     repo,
		blobs:    blobs,
		renderer: renderer,
		stamper:  stamper,
		scans:    scans,
		origin:   origin,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// SetClock replaces the time source; tests pin it.
func (r *QRRegistry) SetClock(now func() time.Time) {
	r.now = now
}

// GenerateRestaurantCode creates the restaurant-level code, replacing the
// previous one, and records its id on the restaurant profile.
func (r *QRRegistry) GenerateRestaurantCode(ctx context.Context, restaurantID, name string) (*domain.GeneratedCode, error) {
	const op = "generate restaurant code"
	if strings.TrimSpace(restaurantID) == "" {
		return nil, domain.Validationf(op, "restaurant id is required")
	}

	code, png, err := r.buildCode(ctx, op, restaurantID, name, nil)
	if err != nil {
		return nil, err
	}

	removed, err := r.repo.ReplaceRestaurantCode(ctx, code)
	if err != nil {
		r.deleteBlob(ctx, code.ImagePublicID)
		return nil, domain.StoreErr(op, err)
	}
	if removed != nil {
		r.deleteBlob(ctx, removed.ImagePublicID)
	}

	r.stamp(ctx, restaurantID, code.ID)
	return &domain.GeneratedCode{QRCode: *code, DataURL: dataURL(png)}, nil
}

// RegenerateRestaurantCode issues a fresh restaurant-level code. Scan counts
// start again from zero.
func (r *QRRegistry) RegenerateRestaurantCode(ctx context.Context, restaurantID, name string) (*domain.GeneratedCode, error) {
	return r.GenerateRestaurantCode(ctx, restaurantID, name)
}

// GenerateTableCodes adds codes for tables 1..count. A failing table is
// recorded in the result and the batch moves on.
func (r *QRRegistry) GenerateTableCodes(ctx context.Context, restaurantID, name string, count int) (*domain.BatchResult, error) {
	const op = "generate table codes"
	if err := validateBatch(op, restaurantID, count); err != nil {
		return nil, err
	}

	result := &domain.BatchResult{}
	for table := 1; table <= count; table++ {
		n := table
		code, _, err := r.buildCode(ctx, op, restaurantID, name, &n)
		if err != nil {
			result.RecordFailure(table, err)
			continue
		}
		if err := r.repo.InsertCode(ctx, code); err != nil {
			r.deleteBlob(ctx, code.ImagePublicID)
			result.RecordFailure(table, domain.StoreErr(op, err))
			continue
		}
		result.RecordSuccess(*code)
	}
	return result, nil
}

// RegenerateBatch replaces every code of a restaurant, the restaurant-level
// code included, with codes for tables 1..count. All new images are rendered
// and uploaded first; the records are then swapped in one transaction and the
// old images removed. If no table could be prepared the existing codes stay
// untouched.
func (r *QRRegistry) RegenerateBatch(ctx context.Context, restaurantID, name string, count int) (*domain.BatchResult, error) {
	const op = "regenerate table codes"
	if err := validateBatch(op, restaurantID, count); err != nil {
		return nil, err
	}

	result := &domain.BatchResult{}
	fresh := make([]domain.QRCode, 0, count)
	for table := 1; table <= count; table++ {
		n := table
		code, _, err := r.buildCode(ctx, op, restaurantID, name, &n)
		if err != nil {
			result.RecordFailure(table, err)
			continue
		}
		fresh = append(fresh, *code)
	}

	if len(fresh) == 0 {
		return result, &domain.Error{
			Kind: domain.ErrUpload,
			Op:   op,
			Msg:  fmt.Sprintf("none of %d table codes could be prepared, existing codes kept", count),
		}
	}

	removed, err := r.repo.ReplaceAllCodes(ctx, restaurantID, fresh)
	if err != nil {
		for _, code := range fresh {
			r.deleteBlob(ctx, code.ImagePublicID)
		}
		return nil, domain.StoreErr(op, err)
	}

	for _, code := range fresh {
		result.RecordSuccess(code)
	}
	for _, old := range removed {
		r.deleteBlob(ctx, old.ImagePublicID)
		if old.TableNumber == nil {
			r.stamp(ctx, restaurantID, "")
		}
	}
	return result, nil
}

func (r *QRRegistry) ListCodes(ctx context.Context, restaurantID string) ([]domain.QRCode, error) {
	codes, err := r.repo.ListCodes(ctx, restaurantID)
	if err != nil {
		return nil, domain.StoreErr("list codes", err)
	}
	return codes, nil
}

func (r *QRRegistry) GetCode(ctx context.Context, id string) (*domain.QRCode, error) {
	code, err := r.repo.GetCode(ctx, id)
	if err != nil {
		return nil, domain.StoreErr("get code", err)
	}
	return code, nil
}

// TrackScan counts a scan against the code for restaurantID and table (the
// restaurant-level code when table is nil). It never fails the caller: a
// missing code is ignored and errors are only logged. The return value
// reports whether a code was counted.
func (r *QRRegistry) TrackScan(ctx context.Context, restaurantID string, table *int) bool {
	at := r.now()
	code, err := r.repo.IncrementScan(ctx, restaurantID, table, at)
	if err != nil {
		log.Printf("qr: track scan for restaurant %s table %s: %v", restaurantID, tableLabel(table), err)
		return false
	}
	if code == nil {
		return false
	}

	if r.scans != nil {
		event := domain.ScanEvent{
			Type:         domain.ScanRecorded,
			CodeID:       code.ID,
			RestaurantID: restaurantID,
			TableNumber:  table,
			Timestamp:    at,
		}
		if err := r.scans.PublishScanEvent(ctx, event); err != nil {
			log.Printf("qr: failed to publish scan of %s: %v", code.ID, err)
		}
	}
	return true
}

func (r *QRRegistry) buildCode(ctx context.Context, op, restaurantID, name string, table *int) (*domain.QRCode, []byte, error) {
	menuURL := domain.BuildMenuURL(r.origin, restaurantID, table)

	png, err := r.renderer.Render(menuURL)
	if err != nil {
		return nil, nil, domain.RenderErr(op, err)
	}

	filename := "qr-" + restaurantID + ".png"
	if table != nil {
		filename = fmt.Sprintf("qr-%s-table-%d.png", restaurantID, *table)
	}
	blob, err := r.blobs.Upload(ctx, png, filename, qrFolder)
	if err != nil {
		return nil, nil, domain.UploadErr(op, err)
	}

	at := r.now()
	return &domain.QRCode{
		ID:             r.newID(),
		RestaurantID:   restaurantID,
		RestaurantName: name,
		TableNumber:    table,
		MenuURL:        menuURL,
		ImageURL:       blob.URL,
		ImagePublicID:  blob.PublicID,
		CreatedAt:      at,
		UpdatedAt:      at,
	}, png, nil
}

// stamp records codeID on the restaurant profile; an empty id clears it.
func (r *QRRegistry) stamp(ctx context.Context, restaurantID, codeID string) {
	if r.stamper == nil {
		return
	}
	if err := r.stamper.SetRestaurantQRCode(ctx, restaurantID, codeID); err != nil {
		log.Printf("qr: failed to stamp restaurant %s with code %q: %v", restaurantID, codeID, err)
	}
}

func (r *QRRegistry) deleteBlob(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	if err := r.blobs.Delete(ctx, publicID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Printf("qr: failed to delete image %s: %v", publicID, err)
	}
}

func validateBatch(op, restaurantID string, count int) error {
	if strings.TrimSpace(restaurantID) == "" {
		return domain.Validationf(op, "restaurant id is required")
	}
	if count < 1 || count > MaxTableCodes {
		return domain.Validationf(op, "table count must be between 1 and %d, got %d", MaxTableCodes, count)
	}
	return nil
}

func dataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

func tableLabel(table *int) string {
	if table == nil {
		return "-"
	}
	return fmt.Sprint(*table)
}

var _ QRRegistryInterface = (*QRRegistry)(nil)
