// Package imaging compresses inspection photos before upload. Phone
// cameras hand over multi-megabyte JPEGs; yard connectivity is poor, so
// everything is squeezed down to a bounded size first.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"yardcheck/internal/logger"
)

const (
	// MaxDimension bounds the longest side after resizing
	MaxDimension = 800
	// InitialQuality is the first JPEG encode attempt
	InitialQuality = 70
	// RetryQuality is the second attempt when the first exceeds the ceiling
	RetryQuality = 50
	// CompressedCeiling is the maximum accepted compressed size
	CompressedCeiling = 1 << 20
	// UploadCeiling rejects inputs outright before any decode work
	UploadCeiling = 10 << 20

	// maxPixels guards the decoder against dimension bombs. Inputs past
	// it skip decoding and fall through to the passthrough strategy.
	maxPixels = 50_000_000
)

var (
	ErrEmptyImage    = errors.New("image data is empty")
	ErrImageTooLarge = errors.New("image is too large to process")
	ErrNotAnImage    = errors.New("data is not an image")
)

// Result is the outcome of a compression pass
type Result struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
	// Fallback is set when the input could not be decoded and the
	// original bytes were kept as-is
	Fallback bool
}

type decodeStrategy struct {
	name   string
	decode func(data []byte) (image.Image, error)
}

// The strategies run in order; the first success wins. Passthrough of
// the original bytes is handled by the caller when all of them fail,
// so a photo is never lost just because its encoding is exotic.
var strategies = []decodeStrategy{
	{name: "imaging", decode: decodeImaging},
	{name: "stdlib", decode: decodeStdlib},
}

func decodeImaging(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	return imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos), nil
}

func decodeStdlib(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return resample(img), nil
}

func resample(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= MaxDimension && h <= MaxDimension {
		return img
	}
	scale := float64(MaxDimension) / float64(w)
	if h > w {
		scale = float64(MaxDimension) / float64(h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// Compress resizes and re-encodes a photo to fit within MaxDimension and
// CompressedCeiling. Genuine images that fail to decode pass through
// unchanged rather than failing the capture; inputs that do not sniff
// as an image at all are rejected with ErrNotAnImage. ErrImageTooLarge
// is returned only when the input exceeds UploadCeiling, or when even
// the RetryQuality encode stays above the ceiling.
func Compress(data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if len(data) > UploadCeiling {
		return nil, ErrImageTooLarge
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrNotAnImage
	}

	img := decodeBounded(data)
	if img == nil {
		logger.Warn("Photo could not be decoded, keeping original bytes",
			zap.String("content_type", contentType),
			zap.Int("size", len(data)),
		)
		return &Result{Data: data, ContentType: contentType, Fallback: true}, nil
	}

	encoded, err := encodeJPEG(img, InitialQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode photo: %w", err)
	}
	if len(encoded) > CompressedCeiling {
		encoded, err = encodeJPEG(img, RetryQuality)
		if err != nil {
			return nil, fmt.Errorf("failed to encode photo: %w", err)
		}
	}
	if len(encoded) > CompressedCeiling {
		return nil, ErrImageTooLarge
	}

	bounds := img.Bounds()
	return &Result{
		Data:        encoded,
		ContentType: "image/jpeg",
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}

func decodeBounded(data []byte) image.Image {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width*cfg.Height > maxPixels {
		return nil
	}

	for _, strategy := range strategies {
		img, err := strategy.decode(data)
		if err == nil {
			return img
		}
		logger.Debug("Photo decode strategy failed",
			zap.String("strategy", strategy.name),
			zap.Error(err),
		)
	}
	return nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
