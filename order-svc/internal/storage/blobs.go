package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"qrmenu/order-svc/internal/domain"
	"qrmenu/order-svc/internal/service"
)

func newPublicID(folder, filename string) string {
	id := uuid.NewString() + strings.ToLower(path.Ext(filename))
	if folder == "" {
		return id
	}
	return strings.Trim(folder, "/") + "/" + id
}

func validPublicID(publicID string) bool {
	if publicID == "" || strings.HasPrefix(publicID, "/") {
		return false
	}
	for _, part := range strings.Split(publicID, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

// PostgresBlobStore keeps uploads in the blobs table and serves them under
// <BaseURL>/api/blobs/<publicId>.
type PostgresBlobStore struct {
	DB      *sql.DB
	BaseURL string
}

func NewPostgresBlobStore(db *sql.DB, baseURL string) *PostgresBlobStore {
	return &PostgresBlobStore{DB: db, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *PostgresBlobStore) Upload(ctx context.Context, data []byte, filename, folder string) (*service.Blob, error) {
	publicID := newPublicID(folder, filename)
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO blobs (public_id, folder, filename, content_type, data)
		VALUES ($1, $2, $3, $4, $5)`,
		publicID, folder, filename, http.DetectContentType(data), data)
	if err != nil {
		return nil, fmt.Errorf("failed to store blob %s: %w", filename, err)
	}
	return &service.Blob{URL: s.BaseURL + "/api/blobs/" + publicID, PublicID: publicID}, nil
}

func (s *PostgresBlobStore) Delete(ctx context.Context, publicID string) error {
	result, err := s.DB.ExecContext(ctx, "DELETE FROM blobs WHERE public_id = $1", publicID)
	return expectRow(result, err, "delete blob", "blob", publicID)
}

func (s *PostgresBlobStore) Open(ctx context.Context, publicID string) (*service.StoredBlob, error) {
	var blob service.StoredBlob
	err := s.DB.QueryRowContext(ctx,
		"SELECT data, content_type, filename FROM blobs WHERE public_id = $1", publicID).
		Scan(&blob.Data, &blob.ContentType, &blob.Filename)
	if err != nil {
		return nil, notFoundOr(err, "open blob", "blob", publicID)
	}
	return &blob, nil
}

// DiskBlobStore writes uploads below Root; they are served statically under
// <BaseURL>/uploads/<publicId>.
type DiskBlobStore struct {
	Root    string
	BaseURL string
}

func NewDiskBlobStore(root, baseURL string) *DiskBlobStore {
	return &DiskBlobStore{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *DiskBlobStore) Upload(_ context.Context, data []byte, filename, folder string) (*service.Blob, error) {
	publicID := newPublicID(folder, filename)
	target := filepath.Join(s.Root, filepath.FromSlash(publicID))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save file %s: %w", filename, err)
	}
	return &service.Blob{URL: s.BaseURL + "/uploads/" + publicID, PublicID: publicID}, nil
}

func (s *DiskBlobStore) Delete(_ context.Context, publicID string) error {
	if !validPublicID(publicID) {
		return domain.Validationf("delete blob", "invalid public id %q", publicID)
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(publicID)))
	if errors.Is(err, os.ErrNotExist) {
		return domain.NotFound("delete blob", "blob", publicID)
	}
	return err
}

var (
	_ service.BlobStore  = (*PostgresBlobStore)(nil)
	_ service.BlobStore  = (*DiskBlobStore)(nil)
	_ service.BlobReader = (*PostgresBlobStore)(nil)
)
