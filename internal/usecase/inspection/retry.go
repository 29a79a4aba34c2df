package inspection

import (
	"context"
	"errors"
	"strings"
	"time"

	"yardcheck/internal/imaging"
)

// RetryPolicy governs how write operations are retried before the
// caller is told the yard network lost them
type RetryPolicy struct {
	// MaxAttempts counts the first try plus retries
	MaxAttempts int
	// BaseDelay is the wait before the first retry
	BaseDelay time.Duration
	// Multiplier scales the delay between consecutive retries
	Multiplier float64
	// SettleDelay is a short pause before the first attempt, so a save
	// never races the document it targets right after creation
	SettleDelay time.Duration
}

// CodePhotoSaveFailed marks an exhausted photo save whose AppError
// message is already phrased for the inspector's screen
const CodePhotoSaveFailed = "PHOTO_SAVE_FAILED"

// DefaultRetryPolicy matches the behavior the field crews are used to
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 2,
	BaseDelay:   500 * time.Millisecond,
	Multiplier:  2,
	SettleDelay: 100 * time.Millisecond,
}

// Do runs fn, retrying on error with exponential backoff. Validation
// failures are not retried; they will fail the same way every time.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	if p.SettleDelay > 0 {
		if !sleep(ctx, p.SettleDelay) {
			return ctx.Err()
		}
	}

	var err error
	delay := p.BaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt == attempts {
			return err
		}
		if !sleep(ctx, delay) {
			return ctx.Err()
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, imaging.ErrImageTooLarge), errors.Is(err, imaging.ErrEmptyImage),
		errors.Is(err, imaging.ErrNotAnImage):
		return false
	}
	return true
}

// FriendlyMessage maps a pipeline error to the text shown to the
// inspector. Raw driver and network errors mean nothing on a phone
// screen in the yard.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, imaging.ErrImageTooLarge) || strings.Contains(msg, "too large"):
		return "Image is too large to process. Try taking the photo again."
	case strings.Contains(msg, "memory") || strings.Contains(msg, "allocation"):
		return "Not enough memory to process this image. Close other apps and try again."
	case strings.Contains(msg, "network") || strings.Contains(msg, "connection") ||
		strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "Network problem while saving. Your change will be retried."
	}
	return "Something went wrong while saving. Please try again."
}
