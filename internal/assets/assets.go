// Package assets stores uploaded images and turns inline payloads into
// stored references.
package assets

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"cafe-pos-backend/internal/models"
)

var (
	ErrDisabled        = errors.New("asset uploads are not configured")
	ErrUnsupportedType = errors.New("unsupported asset content type")
)

// Folders
const (
	FolderProducts = "products"
	FolderSlips    = "slips"
)

// Uploader stores data and returns a URL that clients can fetch.
type Uploader interface {
	Upload(ctx context.Context, folder, contentType string, data []byte) (string, error)
}

func objectName(folder, contentType string) string {
	ext := ".bin"
	if contentType == "image/jpeg" {
		ext = ".jpg"
	} else if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		ext = exts[0]
	}
	return fmt.Sprintf("%s/%d-%s%s", folder, time.Now().UnixNano(), uuid.NewString()[:8], ext)
}

// Local writes files under Dir and serves them from BaseURL, e.g.
// ./public/uploads and /public/uploads.
type Local struct {
	Dir     string
	BaseURL string
}

func (l Local) Upload(_ context.Context, folder, contentType string, data []byte) (string, error) {
	name := objectName(folder, contentType)
	path := filepath.Join(l.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return strings.TrimSuffix(l.BaseURL, "/") + "/" + name, nil
}

// GCS uploads to a Cloud Storage bucket.
type GCS struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

// NewGCS wraps an existing client. An empty baseURL means the public
// storage.googleapis.com address of the bucket.
func NewGCS(client *storage.Client, bucket, baseURL string) *GCS {
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com/" + bucket
	}
	return &GCS{client: client, bucket: bucket, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (g *GCS) Upload(ctx context.Context, folder, contentType string, data []byte) (string, error) {
	name := objectName(folder, contentType)
	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write gs://%s/%s: %w", g.bucket, name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close gs://%s/%s: %w", g.bucket, name, err)
	}
	return g.baseURL + "/" + name, nil
}

type Disabled struct{}

func (Disabled) Upload(context.Context, string, string, []byte) (string, error) {
	return "", ErrDisabled
}

// Resolve returns a stored reference for a. Inline assets are uploaded,
// references pass through and a zero asset stays empty.
func Resolve(ctx context.Context, up Uploader, folder string, a models.Asset) (string, error) {
	if !a.IsInline() {
		return a.URL, nil
	}
	if !strings.HasPrefix(a.Inline.ContentType, "image/") {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, a.Inline.ContentType)
	}
	return up.Upload(ctx, folder, a.Inline.ContentType, a.Inline.Data)
}

// ResolveProduct uploads every inline image of p so that only references
// are persisted.
func ResolveProduct(ctx context.Context, up Uploader, p models.Product) (models.Product, error) {
	url, err := Resolve(ctx, up, FolderProducts, p.Image)
	if err != nil {
		return p, fmt.Errorf("product image: %w", err)
	}
	p.Image = models.Ref(url)

	extra := make([]models.Asset, 0, len(p.AdditionalImages))
	for i, img := range p.AdditionalImages {
		url, err := Resolve(ctx, up, FolderProducts, img)
		if err != nil {
			return p, fmt.Errorf("additional image %d: %w", i, err)
		}
		if url != "" {
			extra = append(extra, models.Ref(url))
		}
	}
	p.AdditionalImages = extra
	return p, nil
}
