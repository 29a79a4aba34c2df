// Package storage is the photo object store. Photos live under a
// single root keyed by inspection id; the gateway hands out public URLs
// and resolves several historical URL shapes back to stored objects.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"yardcheck/internal/logger"
)

// PublicPrefix is the URL path segment photos are served under
const PublicPrefix = "/photos/"

// maxDownloadBytes bounds reads of remote legacy photos
const maxDownloadBytes = 15 << 20

type Gateway struct {
	fs      afero.Fs
	baseURL string
	client  *http.Client
}

// NewGateway builds a gateway over fs. baseURL is the externally
// visible server base used to mint photo URLs, without trailing slash.
func NewGateway(fs afero.Fs, baseURL string) *Gateway {
	return &Gateway{
		fs:      fs,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// ItemPhotoPath is the object key for a checklist item photo
func ItemPhotoPath(inspectionID, itemKey string, takenAt time.Time) string {
	return fmt.Sprintf("inspections/%s/%s_%d.jpg", inspectionID, itemKey, takenAt.UnixMilli())
}

// DefectPhotoPath is the object key for a standalone defect photo
func DefectPhotoPath(inspectionID string, takenAt time.Time) string {
	return fmt.Sprintf("inspections/%s/defect_%d.jpg", inspectionID, takenAt.UnixMilli())
}

// Upload stores data at the object key and returns its public URL
func (g *Gateway) Upload(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := g.fs.MkdirAll(path.Dir(key), 0o755); err != nil {
		return "", fmt.Errorf("failed to create photo directory: %w", err)
	}
	if err := afero.WriteFile(g.fs, key, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store photo: %w", err)
	}

	logger.Debug("Photo stored",
		zap.String("key", key),
		zap.Int("size", len(data)),
	)

	return g.baseURL + PublicPrefix + key, nil
}

// Delete removes the object behind a photo URL. Deleting a URL that no
// longer resolves, or whose object is already gone, is a no-op so the
// remove-then-clear-reference flow can be retried safely.
func (g *Gateway) Delete(ctx context.Context, photoURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, ok := g.ResolveKey(photoURL)
	if !ok {
		logger.Warn("Ignoring delete for unresolvable photo URL",
			zap.String("url", photoURL),
		)
		return nil
	}
	if err := g.fs.Remove(key); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return nil
}

// Download returns the bytes behind a photo URL. Locally stored objects
// are read from the filesystem; URLs that do not resolve to a local key
// are fetched over HTTP so photos from an earlier hosting setup still
// work in report attachments.
func (g *Gateway) Download(ctx context.Context, photoURL string) ([]byte, error) {
	if key, ok := g.ResolveKey(photoURL); ok {
		data, err := afero.ReadFile(g.fs, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read photo: %w", err)
		}
		return data, nil
	}
	return g.fetch(ctx, photoURL)
}

// Open returns a reader over a locally stored object key
func (g *Gateway) Open(key string) (io.ReadCloser, error) {
	return g.fs.Open(key)
}

// ResolveKey maps a photo URL back to its object key. It accepts the
// gateway's own URLs, bare /photos/ paths, and the bucket-style
// /b/{bucket}/o/{escaped-key} shape older records carry.
func (g *Gateway) ResolveKey(photoURL string) (string, bool) {
	raw := photoURL
	if g.baseURL != "" && strings.HasPrefix(raw, g.baseURL) {
		raw = strings.TrimPrefix(raw, g.baseURL)
	}

	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		raw = u.Path
		// Bucket-style: /b/<bucket>/o/<percent-encoded key>
		if idx := strings.Index(raw, "/o/"); idx >= 0 && strings.HasPrefix(raw, "/b/") {
			escaped := raw[idx+len("/o/"):]
			if key, err := url.PathUnescape(escaped); err == nil && key != "" {
				return key, true
			}
			return "", false
		}
	}

	if strings.HasPrefix(raw, PublicPrefix) {
		key := strings.TrimPrefix(raw, PublicPrefix)
		if key != "" {
			return key, true
		}
	}
	return "", false
}

func (g *Gateway) fetch(ctx context.Context, photoURL string) ([]byte, error) {
	if !strings.HasPrefix(photoURL, "http://") && !strings.HasPrefix(photoURL, "https://") {
		return nil, fmt.Errorf("unresolvable photo URL %q", photoURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build photo request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("photo fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read photo response: %w", err)
	}
	return data, nil
}
