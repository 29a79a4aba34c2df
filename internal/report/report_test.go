package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	domainInspection "yardcheck/internal/domain/inspection"
)

type stubRepo struct {
	insp *domainInspection.Inspection
}

func (r *stubRepo) Create(context.Context, *domainInspection.Inspection) error { return nil }
func (r *stubRepo) GetByID(_ context.Context, id uuid.UUID) (*domainInspection.Inspection, error) {
	if r.insp == nil || r.insp.ID != id {
		return nil, domainInspection.ErrInspectionNotFound
	}
	return r.insp, nil
}
func (r *stubRepo) FindInProgressByTruck(context.Context, string) (*domainInspection.Inspection, error) {
	return nil, nil
}
func (r *stubRepo) List(context.Context, *domainInspection.Filter) ([]*domainInspection.Inspection, int64, error) {
	return nil, 0, nil
}
func (r *stubRepo) UpdateFields(context.Context, uuid.UUID, domainInspection.Fields) error {
	return nil
}
func (r *stubRepo) AppendDefectPhoto(context.Context, uuid.UUID, domainInspection.DefectPhoto) error {
	return nil
}
func (r *stubRepo) RemoveDefectPhoto(context.Context, uuid.UUID, string) error { return nil }

type stubDownloader struct {
	missing map[string]bool
}

func (d *stubDownloader) Download(_ context.Context, url string) ([]byte, error) {
	if d.missing[url] {
		return nil, errors.New("object gone")
	}
	return []byte("jpeg:" + url), nil
}

type stubSender struct {
	sent []*Message
}

func (s *stubSender) Send(msg *Message) error {
	s.sent = append(s.sent, msg)
	return nil
}

func strPtr(s string) *string { return &s }

func sampleInspection() *domainInspection.Inspection {
	insp := domainInspection.New("T-42", "Maria")
	insp.ID = uuid.New()

	tires := insp.Exterior["tires"]
	tires.Value = strPtr("no")
	tires.Comment = "left rear worn"
	tires.PhotoURL = strPtr("https://yard.test/photos/inspections/x/tires_1.jpg")
	insp.Exterior["tires"] = tires

	reg := insp.Interior["registration"]
	reg.Value = strPtr("yes") // not a defect, must not appear
	insp.Interior["registration"] = reg

	ifta := insp.Interior["iftaCard"]
	ifta.Value = strPtr("added")
	insp.Interior["iftaCard"] = ifta

	insp.AdditionalDefects = "scrape on passenger door"
	insp.DefectPhotos = []domainInspection.DefectPhoto{
		{URL: "https://yard.test/photos/inspections/x/defect_1.jpg", TakenBy: "Maria", TakenAt: time.Now()},
	}
	return insp
}

func TestBuildBody(t *testing.T) {
	body := BuildBody(sampleInspection())

	for _, want := range []string{
		"Truck: T-42",
		"Inspector: Maria",
		"Flagged items (2)",
		"IFTA Card: added",
		"Tires: no (left rear worn) [photo attached]",
		"scrape on passenger door",
		"Defect photos: 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "Registration") {
		t.Error("passing items must not appear in the report")
	}
}

func TestBuildBodyNoDefects(t *testing.T) {
	insp := domainInspection.New("T-1", "Maria")
	if !strings.Contains(BuildBody(insp), "No defects flagged.") {
		t.Error("expected the no-defects line")
	}
}

func TestSendDefectReport(t *testing.T) {
	insp := sampleInspection()
	sender := &stubSender{}
	svc := NewService(&stubRepo{insp: insp}, &stubDownloader{}, sender, 10)

	err := svc.SendDefectReport(context.Background(), insp.ID, []string{" Office@Example.com ", "not-an-email"}, "Maria")
	if err != nil {
		t.Fatalf("SendDefectReport failed: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}

	msg := sender.sent[0]
	if len(msg.To) != 1 || msg.To[0] != "office@example.com" {
		t.Errorf("unexpected recipients %v", msg.To)
	}
	if msg.Subject != "Defect Report - Truck T-42" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	// One flagged-item photo and one defect photo
	if len(msg.Attachments) != 2 {
		t.Errorf("expected 2 attachments, got %d", len(msg.Attachments))
	}
}

func TestSendDefectReportSkipsMissingPhotos(t *testing.T) {
	insp := sampleInspection()
	sender := &stubSender{}
	svc := NewService(&stubRepo{insp: insp}, &stubDownloader{
		missing: map[string]bool{"https://yard.test/photos/inspections/x/tires_1.jpg": true},
	}, sender, 10)

	if err := svc.SendDefectReport(context.Background(), insp.ID, []string{"office@example.com"}, "Maria"); err != nil {
		t.Fatalf("SendDefectReport failed: %v", err)
	}
	if len(sender.sent[0].Attachments) != 1 {
		t.Errorf("missing photos should be skipped, got %d attachments", len(sender.sent[0].Attachments))
	}
}

func TestSendDefectReportRequiresRecipients(t *testing.T) {
	insp := sampleInspection()
	svc := NewService(&stubRepo{insp: insp}, &stubDownloader{}, &stubSender{}, 10)

	err := svc.SendDefectReport(context.Background(), insp.ID, []string{"bogus"}, "Maria")
	if !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
}

func TestSendDefectReportRateLimit(t *testing.T) {
	insp := sampleInspection()
	sender := &stubSender{}
	svc := NewService(&stubRepo{insp: insp}, &stubDownloader{}, sender, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := svc.SendDefectReport(ctx, insp.ID, []string{"office@example.com"}, "Maria"); err != nil {
			t.Fatalf("send %d failed: %v", i+1, err)
		}
	}
	err := svc.SendDefectReport(ctx, insp.ID, []string{"office@example.com"}, "Maria")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	// A different inspector has their own budget
	if err := svc.SendDefectReport(ctx, insp.ID, []string{"office@example.com"}, "Joe"); err != nil {
		t.Fatalf("other inspector should not be limited: %v", err)
	}
}
