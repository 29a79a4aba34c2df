package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodeTestImage(t *testing.T, w, h int, asPNG bool) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	var err error
	if asPNG {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestCompressEmptyInput(t *testing.T) {
	if _, err := Compress(nil); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
}

func TestCompressRejectsOversizedUpload(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, UploadCeiling+1)
	if _, err := Compress(data); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
}

func TestCompressResizesLargeImage(t *testing.T) {
	data := encodeTestImage(t, 2000, 1200, false)

	result, err := Compress(data)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if result.Fallback {
		t.Fatal("valid JPEG should not fall back to original bytes")
	}
	if result.ContentType != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.ContentType)
	}
	if result.Width != 800 || result.Height != 480 {
		t.Errorf("expected 800x480, got %dx%d", result.Width, result.Height)
	}
	if len(result.Data) > CompressedCeiling {
		t.Errorf("compressed size %d exceeds ceiling", len(result.Data))
	}

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("output is not decodable: %v", err)
	}
	if img.Bounds().Dx() > MaxDimension || img.Bounds().Dy() > MaxDimension {
		t.Errorf("output exceeds max dimension: %v", img.Bounds())
	}
}

func TestCompressKeepsSmallImageDimensions(t *testing.T) {
	data := encodeTestImage(t, 100, 50, true)

	result, err := Compress(data)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if result.Width != 100 || result.Height != 50 {
		t.Errorf("small images should not be upscaled, got %dx%d", result.Width, result.Height)
	}
	if result.ContentType != "image/jpeg" {
		t.Errorf("PNG input should be re-encoded as JPEG, got %s", result.ContentType)
	}
}

func TestCompressRejectsNonImage(t *testing.T) {
	cases := map[string][]byte{
		"pdf":  append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte{0x20}, 4096)...),
		"text": []byte("definitely not an image"),
		"elf":  {0x7F, 'E', 'L', 'F', 0x02, 0x01, 0x01, 0x00},
	}
	for name, data := range cases {
		if _, err := Compress(data); !errors.Is(err, ErrNotAnImage) {
			t.Errorf("%s input: expected ErrNotAnImage, got %v", name, err)
		}
	}
}

func TestCompressUndecodableImageFallsBack(t *testing.T) {
	// Sniffs as image/jpeg but the stream is truncated garbage, so
	// every decoder fails and the original bytes are kept
	data := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("truncated camera output")...)

	result, err := Compress(data)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if !result.Fallback {
		t.Fatal("expected fallback for an image that fails to decode")
	}
	if !bytes.Equal(result.Data, data) {
		t.Error("fallback must keep the original bytes unchanged")
	}
	if result.ContentType != "image/jpeg" {
		t.Errorf("fallback should carry the sniffed type, got %s", result.ContentType)
	}
}
