package storage

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func newTestGateway() *Gateway {
	return NewGateway(afero.NewMemMapFs(), "https://yard.example.com")
}

func TestUploadAndDownload(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	key := ItemPhotoPath("abc-123", "tires", time.UnixMilli(1700000000000))
	if key != "inspections/abc-123/tires_1700000000000.jpg" {
		t.Fatalf("unexpected key: %s", key)
	}

	photoURL, err := g.Upload(ctx, key, []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if photoURL != "https://yard.example.com/photos/"+key {
		t.Fatalf("unexpected URL: %s", photoURL)
	}

	data, err := g.Download(ctx, photoURL)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if !bytes.Equal(data, []byte("jpeg-bytes")) {
		t.Error("downloaded bytes do not match upload")
	}
}

func TestDefectPhotoPath(t *testing.T) {
	key := DefectPhotoPath("abc-123", time.UnixMilli(42))
	if key != "inspections/abc-123/defect_42.jpg" {
		t.Fatalf("unexpected key: %s", key)
	}
}

func TestResolveKeyShapes(t *testing.T) {
	g := newTestGateway()

	cases := []struct {
		url     string
		wantKey string
		wantOK  bool
	}{
		{"https://yard.example.com/photos/inspections/a/tires_1.jpg", "inspections/a/tires_1.jpg", true},
		{"/photos/inspections/a/tires_1.jpg", "inspections/a/tires_1.jpg", true},
		{
			// Bucket-style with percent-encoded key and download token
			"https://cdn.example.net/b/yard-photos/o/inspections%2Fa%2Ftires_1.jpg?alt=media&token=xyz",
			"inspections/a/tires_1.jpg",
			true,
		},
		{"https://elsewhere.example.net/some/other/file.jpg", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		key, ok := g.ResolveKey(tc.url)
		if ok != tc.wantOK || key != tc.wantKey {
			t.Errorf("ResolveKey(%q) = (%q, %v), want (%q, %v)", tc.url, key, ok, tc.wantKey, tc.wantOK)
		}
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	photoURL, err := g.Upload(ctx, "inspections/a/defect_1.jpg", []byte("x"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if err := g.Delete(ctx, photoURL); err != nil {
		t.Fatalf("first Delete failed: %v", err)
	}
	if err := g.Delete(ctx, photoURL); err != nil {
		t.Fatalf("second Delete should be a no-op, got %v", err)
	}
	// Unresolvable URLs are ignored rather than failing the caller
	if err := g.Delete(ctx, "https://elsewhere.example.net/file.jpg"); err != nil {
		t.Fatalf("Delete of foreign URL should be a no-op, got %v", err)
	}

	if _, err := g.Download(ctx, photoURL); err == nil || !strings.Contains(err.Error(), "failed to read photo") {
		t.Fatalf("expected read failure after delete, got %v", err)
	}
}
