// Package report builds and emails defect reports for finished or
// in-progress inspections. The report is plain text with photo
// attachments; the yard office prints these.
package report

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"yardcheck/internal/checklist"
	domainInspection "yardcheck/internal/domain/inspection"
	"yardcheck/internal/logger"
	"yardcheck/pkg/utils"
)

// ErrRateLimited is returned when an inspector exceeds their hourly
// report email budget
var ErrRateLimited = errors.New("report email rate limit exceeded")

// ErrNoRecipients is returned when the request carries no valid address
var ErrNoRecipients = errors.New("no valid recipients")

// maxAttachments bounds the photos attached to a single report so the
// email stays deliverable
const maxAttachments = 10

// Downloader fetches stored photo bytes for attachments
type Downloader interface {
	Download(ctx context.Context, photoURL string) ([]byte, error)
}

// Service assembles and sends defect reports
type Service struct {
	repo   domainInspection.Repository
	photos Downloader
	sender Sender

	perHour  int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewService(repo domainInspection.Repository, photos Downloader, sender Sender, emailsPerHour int) *Service {
	if emailsPerHour <= 0 {
		emailsPerHour = 10
	}
	return &Service{
		repo:     repo,
		photos:   photos,
		sender:   sender,
		perHour:  emailsPerHour,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (s *Service) limiter(requestedBy string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[requestedBy]
	if !ok {
		l = rate.NewLimiter(rate.Limit(float64(s.perHour)/3600.0), s.perHour)
		s.limiters[requestedBy] = l
	}
	return l
}

// SendDefectReport emails the defect summary of an inspection, with the
// flagged items' photos and all standalone defect photos attached
func (s *Service) SendDefectReport(ctx context.Context, inspectionID uuid.UUID, recipients []string, requestedBy string) error {
	valid := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if email, err := utils.ValidateAndSanitizeEmail(r); err == nil {
			valid = append(valid, email)
		}
	}
	if len(valid) == 0 {
		return ErrNoRecipients
	}

	if !s.limiter(requestedBy).Allow() {
		logger.Warn("Report email rate limited",
			zap.String("requested_by", requestedBy),
		)
		return ErrRateLimited
	}

	insp, err := s.repo.GetByID(ctx, inspectionID)
	if err != nil {
		return err
	}

	msg := &Message{
		To:          valid,
		Subject:     fmt.Sprintf("Defect Report - Truck %s", insp.TruckNumber),
		Body:        BuildBody(insp),
		Attachments: s.collectAttachments(ctx, insp),
	}

	if err := s.sender.Send(msg); err != nil {
		return fmt.Errorf("failed to send defect report: %w", err)
	}

	logger.Info("Defect report sent",
		zap.String("inspection_id", inspectionID.String()),
		zap.String("truck_number", insp.TruckNumber),
		zap.Int("recipients", len(valid)),
		zap.Int("attachments", len(msg.Attachments)),
	)
	return nil
}

// BuildBody renders the plain-text report
func BuildBody(insp *domainInspection.Inspection) string {
	var b strings.Builder

	fmt.Fprintf(&b, "DEFECT REPORT\n")
	fmt.Fprintf(&b, "Truck: %s\n", insp.TruckNumber)
	fmt.Fprintf(&b, "Status: %s\n", insp.Status)
	fmt.Fprintf(&b, "Inspector: %s\n", insp.Inspector1)
	if insp.Inspector2 != nil {
		fmt.Fprintf(&b, "Second inspector: %s\n", *insp.Inspector2)
	}
	fmt.Fprintf(&b, "Started: %s\n", insp.CreatedAt.Format(time.RFC1123))
	if insp.CompletedAt != nil {
		fmt.Fprintf(&b, "Closed: %s\n", insp.CompletedAt.Format(time.RFC1123))
	}
	fmt.Fprintf(&b, "Progress: %d/%d items\n", insp.CompletedItems(), checklist.TotalItems)

	defects := insp.Defects()
	if len(defects) == 0 {
		b.WriteString("\nNo defects flagged.\n")
	} else {
		fmt.Fprintf(&b, "\nFlagged items (%d):\n", len(defects))
		for _, d := range defects {
			fmt.Fprintf(&b, "  - [%s] %s: %s", d.Section, d.Label, d.Value)
			if d.Comment != "" {
				fmt.Fprintf(&b, " (%s)", d.Comment)
			}
			if d.HasPhoto {
				b.WriteString(" [photo attached]")
			}
			b.WriteString("\n")
		}
	}

	if insp.AdditionalDefects != "" {
		fmt.Fprintf(&b, "\nAdditional defects:\n%s\n", insp.AdditionalDefects)
	}
	if n := len(insp.DefectPhotos); n > 0 {
		fmt.Fprintf(&b, "\nDefect photos: %d (attached)\n", n)
	}

	return b.String()
}

func (s *Service) collectAttachments(ctx context.Context, insp *domainInspection.Inspection) []Attachment {
	var attachments []Attachment

	add := func(photoURL, name string) {
		if len(attachments) >= maxAttachments {
			return
		}
		data, err := s.photos.Download(ctx, photoURL)
		if err != nil {
			logger.Warn("Skipping unavailable report photo",
				zap.String("url", photoURL),
				zap.Error(err),
			)
			return
		}
		attachments = append(attachments, Attachment{
			Filename:    name,
			ContentType: "image/jpeg",
			Data:        data,
		})
	}

	for _, section := range checklist.Config {
		items := insp.Section(section.ID)
		for _, item := range section.Items {
			data, ok := items[item.ID]
			if !ok || data.PhotoURL == nil || data.Value == nil || !checklist.IsDefectValue(*data.Value) {
				continue
			}
			add(*data.PhotoURL, fmt.Sprintf("%s_%s", item.ID, path.Base(*data.PhotoURL)))
		}
	}
	for i, photo := range insp.DefectPhotos {
		add(photo.URL, fmt.Sprintf("defect_%d_%s", i+1, path.Base(photo.URL)))
	}

	return attachments
}
