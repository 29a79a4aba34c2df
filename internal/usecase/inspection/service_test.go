package inspection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	domainInspection "yardcheck/internal/domain/inspection"
	"yardcheck/internal/events"
	appErrors "yardcheck/pkg/errors"
)

// fakeRepo applies dotted-path updates to in-memory documents the same
// way the Postgres repository applies them with jsonb_set
type fakeRepo struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*domainInspection.Inspection

	// failUpdates makes the next n UpdateFields calls fail
	failUpdates int
	updateCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{docs: make(map[uuid.UUID]*domainInspection.Inspection)}
}

func (r *fakeRepo) Create(ctx context.Context, insp *domainInspection.Inspection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	insp.ID = uuid.New()
	copied := *insp
	r.docs[insp.ID] = &copied
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*domainInspection.Inspection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, domainInspection.ErrInspectionNotFound
	}
	copied := *doc
	return &copied, nil
}

func (r *fakeRepo) FindInProgressByTruck(ctx context.Context, truck string) (*domainInspection.Inspection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docs {
		if doc.TruckNumber == truck && doc.Status == domainInspection.StatusInProgress {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) List(ctx context.Context, filter *domainInspection.Filter) ([]*domainInspection.Inspection, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domainInspection.Inspection
	for _, doc := range r.docs {
		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}
		if filter.TruckNumber != nil && doc.TruckNumber != *filter.TruckNumber {
			continue
		}
		copied := *doc
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (r *fakeRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields domainInspection.Fields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	if r.failUpdates > 0 {
		r.failUpdates--
		return errors.New("connection reset by peer")
	}
	doc, ok := r.docs[id]
	if !ok {
		return domainInspection.ErrInspectionNotFound
	}
	for path, value := range fields {
		if err := applyField(doc, path, value); err != nil {
			return err
		}
	}
	doc.UpdatedAt = time.Now()
	return nil
}

func applyField(doc *domainInspection.Inspection, path string, value interface{}) error {
	parts := strings.Split(path, ".")
	if len(parts) == 1 {
		switch path {
		case "status":
			doc.Status = domainInspection.Status(value.(string))
		case "inspector2":
			s := value.(string)
			doc.Inspector2 = &s
		case "completedAt":
			t := value.(time.Time)
			doc.CompletedAt = &t
		case "additionalDefects":
			doc.AdditionalDefects = value.(string)
		default:
			return fmt.Errorf("unsupported path %q", path)
		}
		return nil
	}
	if len(parts) != 3 {
		return fmt.Errorf("unsupported path %q", path)
	}

	var section map[string]domainInspection.ChecklistItemData
	switch parts[0] {
	case "interior":
		section = doc.Interior
	case "exterior":
		section = doc.Exterior
	default:
		return fmt.Errorf("unsupported section %q", parts[0])
	}

	item := section[parts[1]]
	switch parts[2] {
	case "value", "photoUrl", "photoTakenBy":
		var ptr **string
		switch parts[2] {
		case "value":
			ptr = &item.Value
		case "photoUrl":
			ptr = &item.PhotoURL
		case "photoTakenBy":
			ptr = &item.PhotoTakenBy
		}
		if value == nil {
			*ptr = nil
		} else {
			s := value.(string)
			*ptr = &s
		}
	case "comment":
		item.Comment = value.(string)
	case "answeredBy":
		item.AnsweredBy = value.(string)
	case "answeredAt", "photoTakenAt":
		var ptr **time.Time
		if parts[2] == "answeredAt" {
			ptr = &item.AnsweredAt
		} else {
			ptr = &item.PhotoTakenAt
		}
		if value == nil {
			*ptr = nil
		} else {
			t := value.(time.Time)
			*ptr = &t
		}
	default:
		return fmt.Errorf("unsupported field %q", parts[2])
	}
	section[parts[1]] = item
	return nil
}

func (r *fakeRepo) AppendDefectPhoto(ctx context.Context, id uuid.UUID, photo domainInspection.DefectPhoto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return domainInspection.ErrInspectionNotFound
	}
	doc.DefectPhotos = append(doc.DefectPhotos, photo)
	return nil
}

func (r *fakeRepo) RemoveDefectPhoto(ctx context.Context, id uuid.UUID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return domainInspection.ErrInspectionNotFound
	}
	kept := doc.DefectPhotos[:0]
	for _, p := range doc.DefectPhotos {
		if p.URL != url {
			kept = append(kept, p)
		}
	}
	doc.DefectPhotos = kept
	return nil
}

type fakePhotos struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	// failUploads makes the next n Upload calls fail
	failUploads int
	uploadCalls int
}

func newFakePhotos() *fakePhotos {
	return &fakePhotos{objects: make(map[string][]byte)}
}

func (p *fakePhotos) Upload(ctx context.Context, key string, data []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uploadCalls++
	if p.failUploads > 0 {
		p.failUploads--
		return "", errors.New("dial tcp: connection refused")
	}
	p.objects[key] = data
	return "https://yard.test/photos/" + key, nil
}

func (p *fakePhotos) Delete(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, url)
	delete(p.objects, strings.TrimPrefix(url, "https://yard.test/photos/"))
	return nil
}

type fakeHub struct {
	mu     sync.Mutex
	topics []string
}

func (h *fakeHub) Publish(topic string, data interface{}) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.topics = append(h.topics, topic)
	return 1
}

func (h *fakeHub) published(topic string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range h.topics {
		if t == topic {
			return true
		}
	}
	return false
}

type fakeBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *fakeBus) Publish(ev events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

func (b *fakeBus) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, ev := range b.events {
		out[i] = ev.Type
	}
	return out
}

var testPolicy = RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, Multiplier: 2}

type fixture struct {
	repo   *fakeRepo
	photos *fakePhotos
	hub    *fakeHub
	bus    *fakeBus
	svc    *Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:   newFakeRepo(),
		photos: newFakePhotos(),
		hub:    &fakeHub{},
		bus:    &fakeBus{},
	}
	f.svc = NewService(f.repo, f.photos, f.hub, f.bus, testPolicy)
	return f
}

func (f *fixture) start(t *testing.T, truck, name string) *Response {
	t.Helper()
	resp, err := f.svc.Start(context.Background(), &StartRequest{TruckNumber: truck, InspectorName: name})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return resp.Inspection
}

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("bad uuid %q: %v", s, err)
	}
	return id
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 20, 20)), nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func strPtr(s string) *string { return &s }

func TestStartNormalizesTruckNumber(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Start(context.Background(), &StartRequest{
		TruckNumber:   "  ab-12 #3!  ",
		InspectorName: "Maria",
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !resp.Created {
		t.Fatal("expected a fresh inspection")
	}
	insp := resp.Inspection
	if insp.TruckNumber != "AB-12 3" {
		t.Errorf("unexpected truck number %q", insp.TruckNumber)
	}
	if insp.Status != "in-progress" {
		t.Errorf("unexpected status %q", insp.Status)
	}
	if insp.CompletedItems != 0 || insp.TotalItems != 14 {
		t.Errorf("unexpected progress %d/%d", insp.CompletedItems, insp.TotalItems)
	}
	if len(insp.Interior) != 6 || len(insp.Exterior) != 8 {
		t.Errorf("unexpected section sizes %d/%d", len(insp.Interior), len(insp.Exterior))
	}
	if got := f.bus.types(); len(got) != 1 || got[0] != events.TypeCreated {
		t.Errorf("unexpected bus events %v", got)
	}
}

func TestStartRejectsEmptyTruckNumber(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Start(context.Background(), &StartRequest{TruckNumber: "!!!", InspectorName: "Maria"})
	if !errors.Is(err, domainInspection.ErrInvalidTruckNumber) {
		t.Fatalf("expected ErrInvalidTruckNumber, got %v", err)
	}
}

func TestStartJoinsExistingInspection(t *testing.T) {
	f := newFixture()
	first := f.start(t, "T-100", "Maria")

	second, err := f.svc.Start(context.Background(), &StartRequest{TruckNumber: "t-100", InspectorName: "Joe"})
	if err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if second.Created {
		t.Fatal("second start must reuse the open inspection")
	}
	if second.Inspection.ID != first.ID {
		t.Fatal("expected the same inspection document")
	}
	if second.Inspection.Inspector2 == nil || *second.Inspection.Inspector2 != "Joe" {
		t.Fatalf("expected Joe as second inspector, got %v", second.Inspection.Inspector2)
	}

	// A third inspector gets the document read-only style: both seats
	// are taken and the document is returned unchanged
	third, err := f.svc.Start(context.Background(), &StartRequest{TruckNumber: "T-100", InspectorName: "Pat"})
	if err != nil {
		t.Fatalf("third Start failed: %v", err)
	}
	if third.Created || *third.Inspection.Inspector2 != "Joe" {
		t.Fatal("third start must not take over the second seat")
	}

	// Restarting under an existing participant's name changes nothing
	again, err := f.svc.Start(context.Background(), &StartRequest{TruckNumber: "T-100", InspectorName: "Maria"})
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if again.Created || again.Inspection.ID != first.ID {
		t.Fatal("restart must return the open inspection")
	}
}

func TestUpdateItemStampsAnswer(t *testing.T) {
	f := newFixture()
	insp := f.start(t, "T-1", "Maria")
	id := mustUUID(t, insp.ID)

	resp, err := f.svc.UpdateItem(context.Background(), id, &UpdateItemRequest{
		Section: "exterior",
		ItemID:  "tires",
		Value:   strPtr("no"),
	}, "Maria")
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}

	item := resp.Exterior["tires"]
	if item.Value == nil || *item.Value != "no" {
		t.Fatalf("unexpected value %v", item.Value)
	}
	if item.AnsweredBy != "Maria" || item.AnsweredAt == nil {
		t.Error("answer attribution not stamped")
	}
	if resp.CompletedItems != 1 {
		t.Errorf("expected 1 completed item, got %d", resp.CompletedItems)
	}
	if !f.hub.published("inspection/" + insp.ID) {
		t.Error("expected a document snapshot publish")
	}
	if !f.hub.published("inspections") {
		t.Error("expected a list feed publish")
	}
}

func TestUpdateItemDoesNotConstrainValue(t *testing.T) {
	// Answer values are deliberately not checked against the option
	// list; old app builds shipped with differing option spellings
	f := newFixture()
	insp := f.start(t, "T-1", "Maria")
	id := mustUUID(t, insp.ID)

	resp, err := f.svc.UpdateItem(context.Background(), id, &UpdateItemRequest{
		Section: "interior",
		ItemID:  "registration",
		Value:   strPtr("sort-of"),
	}, "Maria")
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if *resp.Interior["registration"].Value != "sort-of" {
		t.Error("value must be stored as given")
	}
}

func TestUpdateItemRejectsUnknownPath(t *testing.T) {
	f := newFixture()
	insp := f.start(t, "T-1", "Maria")
	id := mustUUID(t, insp.ID)

	_, err := f.svc.UpdateItem(context.Background(), id, &UpdateItemRequest{
		Section: "exterior",
		ItemID:  "registration", // interior item
		Value:   strPtr("yes"),
	}, "Maria")
	if !errors.Is(err, domainInspection.ErrInvalidItemID) {
		t.Fatalf("expected ErrInvalidItemID, got %v", err)
	}

	_, err = f.svc.UpdateItem(context.Background(), id, &UpdateItemRequest{
		Section: "exterior",
		ItemID:  "tires.value",
		Value:   strPtr("yes"),
	}, "Maria")
	if !errors.Is(err, domainInspection.ErrInvalidItemID) {
		t.Fatalf("path-like item ids must be rejected, got %v", err)
	}
}

func TestUpdateItemClearAnswer(t *testing.T) {
	f := newFixture()
	insp := f.start(t, "T-1", "Maria")
	id := mustUUID(t, insp.ID)

	if _, err := f.svc.UpdateItem(context.Background(), id, &UpdateItemRequest{
		Section: "interior", ItemID: "iftaCard", Value: strPtr("yes"),
	}, "Maria"); err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}

	resp, err := f.svc.UpdateItem(context.Background(), id, &UpdateItemRequest{
		Section: "interior", ItemID: "iftaCard", Value: nil,
	}, "Maria")
	if err != nil {
		t.Fatalf("clearing failed: %v", err)
	}
	item := resp.Interior["iftaCard"]
	if item.Value != nil || item.AnsweredBy != "" || item.AnsweredAt != nil {
		t.Error("clearing an answer must also clear its attribution")
	}
	if resp.CompletedItems != 0 {
		t.Errorf("expected 0 completed items, got %d", resp.CompletedItems)
	}
}

func TestConcurrentItemUpdatesDoNotClobber(t *testing.T) {
	f := newFixture()
	insp := f.start(t, "T-1", "Maria")
	id := mustUUID(t, insp.ID)
	ctx := context.Background()

	if _, err := f.svc.UpdateItem(ctx, id, &UpdateItemRequest{
		Section: "interior", ItemID: "registration", Value: strPtr("yes"),
	}, "Maria"); err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	resp, err := f.svc.UpdateItem(ctx, id, &UpdateItemRequest{
		Section: "exterior", ItemID: "tires", Value: strPtr("no"),
	}, "Joe")
	if err != nil {
		t.Fatalf("second update failed: %v", err)
	}

	if resp.Interior["registration"].AnsweredBy != "Maria" {
		t.Error("Maria's answer was lost")
	}
	if resp.Exterior["tires"].AnsweredBy != "Joe" {
		t.Error("Joe's answer was lost")
	}
	if resp.CompletedItems != 2 {
		t.Errorf("expected 2 completed items, got %d", resp.CompletedItems)
	}
}

func TestUpdateCommentLengthBound(t *testing.T) {
	f := newFixture()
	insp := f.start(t, "T-1", "Maria")
	id := mustUUID(t, insp.ID)

	_, err := f.svc.UpdateComment(context.Background(), id, &UpdateCommentRequest{
		Section: "exterior", ItemID: "tires", Comment: strings.Repeat("x", 1001),
	}, "Maria")
	if !errors.Is(err, domainInspection.ErrCommentTooLong) {
		t.Fatalf("expected ErrCommentTooLong, got %v", err)
	}

	resp, err := f.svc.UpdateComment(context.Background(), id, &UpdateCommentRequest{
		Section: "exterior", ItemID: "tires", Comment: "left rear worn",
	}, "Maria")
	if err != nil {
		t.Fatalf("UpdateComment failed: %v", err)
	}
	if resp.Exterior["tires"].Comment != "left rear worn" {
		t.Error("comment not stored")
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	f := newFixture()
	insp := f.start(t, "T-1", "Maria")
	id := mustUUID(t, insp.ID)
	ctx := context.Background()

	first, err := f.svc.Complete(ctx, id)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if first.Status != "complete" || first.CompletedAt == nil {
		t.Fatal("completion not recorded")
	}

	second, err := f.svc.Complete(ctx, id)
	if err != nil {
		t.Fatalf("second Complete failed: %v", err)
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Error("repeat completion must not re-stamp completedAt")
	}

	// A terminal inspection stays in its first terminal state
	gone, err := f.svc.MarkGone(ctx, id)
	if err != nil {
		t.Fatalf("MarkGone failed: %v", err)
	}
	if gone.Status != "complete" {
		t.Errorf("terminal status must not change, got %q", gone.Status)
	}
}

func TestClosedInspectionRejectsEdits(t *testing.T) {
	f := newFixture()
	insp := f.start(t, "T-1", "Maria")
	id := mustUUID(t, insp.ID)
	ctx := context.Background()

	if _, err := f.svc.MarkGone(ctx, id); err != nil {
		t.Fatalf("MarkGone failed: %v", err)
	}

	_, err := f.svc.UpdateItem(ctx, id, &UpdateItemRequest{
		Section: "exterior", ItemID: "tires", Value: strPtr("no"),
	}, "Joe")
	if !errors.Is(err, domainInspection.ErrInspectionClosed) {
		t.Fatalf("expected ErrInspectionClosed, got %v", err)
	}

	_, err = f.svc.UpdateAdditionalDefects(ctx, id, &AdditionalDefectsRequest{Text: "late note"})
	if !errors.Is(err, domainInspection.ErrInspectionClosed) {
		t.Fatalf("expected ErrInspectionClosed, got %v", err)
	}

	// The check is a service policy; the store itself accepts writes to
	// closed documents so replication and backfill tooling can use it
	if err := f.repo.UpdateFields(ctx, id, domainInspection.Fields{"additionalDefects": "backfill"}); err != nil {
		t.Fatalf("store-level write should not be status-gated: %v", err)
	}
}

func TestFieldWriteFailureSurfacesImmediately(t *testing.T) {
	f := newFixture()
	insp := f.start(t, "T-1", "Maria")
	id := mustUUID(t, insp.ID)

	// Field edits are single-attempt; only photo saves retry
	f.repo.failUpdates = 1
	before := f.repo.updateCalls
	_, err := f.svc.UpdateItem(context.Background(), id, &UpdateItemRequest{
		Section: "exterior", ItemID: "tires", Value: strPtr("yes"),
	}, "Maria")
	if err == nil {
		t.Fatal("a transient store failure must surface, not be retried")
	}
	if got := f.repo.updateCalls - before; got != 1 {
		t.Errorf("expected a single attempt, got %d", got)
	}
	if f.svc.Connectivity() != ConnectivityOffline {
		t.Errorf("expected offline after the failed write, got %s", f.svc.Connectivity())
	}

	// The next edit goes through and flips the signal back
	if _, err := f.svc.UpdateItem(context.Background(), id, &UpdateItemRequest{
		Section: "exterior", ItemID: "tires", Value: strPtr("yes"),
	}, "Maria"); err != nil {
		t.Fatalf("follow-up write failed: %v", err)
	}
	if f.svc.Connectivity() != ConnectivityOnline {
		t.Errorf("expected online after recovery, got %s", f.svc.Connectivity())
	}
}

func TestPhotoSaveRetriesTransientFailure(t *testing.T) {
	f := newFixture()
	insp := f.start(t, "T-1", "Maria")
	id := mustUUID(t, insp.ID)

	f.photos.failUploads = 1
	result, err := f.svc.CaptureItemPhoto(context.Background(), id, "exterior", "tires", testJPEG(t), "Maria")
	if err != nil {
		t.Fatalf("retry should have recovered: %v", err)
	}
	if f.photos.uploadCalls != 2 {
		t.Errorf("expected 2 upload attempts, got %d", f.photos.uploadCalls)
	}
	if result.Exterior["tires"].PhotoURL == nil {
		t.Error("photo reference missing after recovery")
	}
	if f.svc.Connectivity() != ConnectivityOnline {
		t.Errorf("expected online after recovery, got %s", f.svc.Connectivity())
	}
}

func TestCaptureItemPhotoExhaustedUploadLeavesItemUntouched(t *testing.T) {
	f := newFixture()
	insp := f.start(t, "T-1", "Maria")
	id := mustUUID(t, insp.ID)
	ctx := context.Background()

	f.photos.failUploads = testPolicy.MaxAttempts
	_, err := f.svc.CaptureItemPhoto(ctx, id, "exterior", "tires", testJPEG(t), "Maria")
	if err == nil {
		t.Fatal("expected failure after exhausting retries")
	}
	var appErr *appErrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != CodePhotoSaveFailed {
		t.Fatalf("expected a %s error, got %v", CodePhotoSaveFailed, err)
	}
	if appErr.Message != "Network problem while saving. Your change will be retried." {
		t.Errorf("raw network error leaked to the user: %q", appErr.Message)
	}
	if f.svc.Connectivity() != ConnectivityOffline {
		t.Errorf("expected offline, got %s", f.svc.Connectivity())
	}

	doc, err := f.svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	item := doc.Exterior["tires"]
	if item.PhotoURL != nil || item.PhotoTakenBy != nil || item.PhotoTakenAt != nil {
		t.Errorf("photo fields must stay untouched after a failed save: %+v", item)
	}
}

func TestPersistentWriteFailureGoesOffline(t *testing.T) {
	f := newFixture()
	insp := f.start(t, "T-1", "Maria")
	id := mustUUID(t, insp.ID)

	f.repo.failUpdates = 1
	_, err := f.svc.UpdateItem(context.Background(), id, &UpdateItemRequest{
		Section: "exterior", ItemID: "tires", Value: strPtr("yes"),
	}, "Maria")
	if err == nil {
		t.Fatal("expected the write failure to surface")
	}
	if f.svc.Connectivity() != ConnectivityOffline {
		t.Errorf("expected offline, got %s", f.svc.Connectivity())
	}
}

func TestCaptureItemPhotoReplacesPrevious(t *testing.T) {
	f := newFixture()
	insp := f.start(t, "T-1", "Maria")
	id := mustUUID(t, insp.ID)
	ctx := context.Background()
	photo := testJPEG(t)

	first, err := f.svc.CaptureItemPhoto(ctx, id, "exterior", "dotAnnual", photo, "Maria")
	if err != nil {
		t.Fatalf("first capture failed: %v", err)
	}
	firstURL := first.Exterior["dotAnnual"].PhotoURL
	if firstURL == nil || !strings.Contains(*firstURL, "/dotAnnual_") {
		t.Fatalf("unexpected photo URL %v", firstURL)
	}
	if first.Exterior["dotAnnual"].PhotoTakenBy == nil || *first.Exterior["dotAnnual"].PhotoTakenBy != "Maria" {
		t.Error("photo attribution not stamped")
	}

	second, err := f.svc.CaptureItemPhoto(ctx, id, "exterior", "dotAnnual", photo, "Joe")
	if err != nil {
		t.Fatalf("second capture failed: %v", err)
	}
	secondURL := second.Exterior["dotAnnual"].PhotoURL
	if secondURL == nil || *secondURL == *firstURL {
		t.Fatal("expected a fresh object for the replacement photo")
	}
	if len(f.photos.deleted) != 1 || f.photos.deleted[0] != *firstURL {
		t.Errorf("replaced photo should be deleted, got %v", f.photos.deleted)
	}
}

func TestDeleteItemPhoto(t *testing.T) {
	f := newFixture()
	insp := f.start(t, "T-1", "Maria")
	id := mustUUID(t, insp.ID)
	ctx := context.Background()

	// Deleting when there is no photo is a quiet no-op
	if _, err := f.svc.DeleteItemPhoto(ctx, id, "exterior", "tag"); err != nil {
		t.Fatalf("no-op delete failed: %v", err)
	}

	captured, err := f.svc.CaptureItemPhoto(ctx, id, "exterior", "tag", testJPEG(t), "Maria")
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	url := *captured.Exterior["tag"].PhotoURL

	resp, err := f.svc.DeleteItemPhoto(ctx, id, "exterior", "tag")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	item := resp.Exterior["tag"]
	if item.PhotoURL != nil || item.PhotoTakenBy != nil || item.PhotoTakenAt != nil {
		t.Error("photo reference not fully cleared")
	}
	if len(f.photos.deleted) != 1 || f.photos.deleted[0] != url {
		t.Errorf("stored object should be deleted, got %v", f.photos.deleted)
	}
}

func TestDefectPhotoLifecycle(t *testing.T) {
	f := newFixture()
	insp := f.start(t, "T-1", "Maria")
	id := mustUUID(t, insp.ID)
	ctx := context.Background()

	resp, err := f.svc.AddDefectPhoto(ctx, id, testJPEG(t), strPtr("  cracked mudflap  "), "Joe")
	if err != nil {
		t.Fatalf("AddDefectPhoto failed: %v", err)
	}
	if len(resp.DefectPhotos) != 1 {
		t.Fatalf("expected 1 defect photo, got %d", len(resp.DefectPhotos))
	}
	photo := resp.DefectPhotos[0]
	if photo.Caption == nil || *photo.Caption != "cracked mudflap" {
		t.Errorf("unexpected caption %v", photo.Caption)
	}
	if !strings.Contains(photo.URL, "/defect_") {
		t.Errorf("unexpected defect photo URL %s", photo.URL)
	}

	// Blank captions are dropped rather than stored as empty strings
	resp, err = f.svc.AddDefectPhoto(ctx, id, testJPEG(t), strPtr("   "), "Joe")
	if err != nil {
		t.Fatalf("second AddDefectPhoto failed: %v", err)
	}
	if resp.DefectPhotos[1].Caption != nil {
		t.Error("blank caption should be omitted")
	}

	resp, err = f.svc.RemoveDefectPhoto(ctx, id, photo.URL)
	if err != nil {
		t.Fatalf("RemoveDefectPhoto failed: %v", err)
	}
	if len(resp.DefectPhotos) != 1 {
		t.Fatalf("expected 1 remaining photo, got %d", len(resp.DefectPhotos))
	}
	if len(f.photos.deleted) != 1 || f.photos.deleted[0] != photo.URL {
		t.Errorf("stored object should be deleted, got %v", f.photos.deleted)
	}
}

func TestAdditionalDefectsLengthBound(t *testing.T) {
	f := newFixture()
	insp := f.start(t, "T-1", "Maria")
	id := mustUUID(t, insp.ID)

	_, err := f.svc.UpdateAdditionalDefects(context.Background(), id, &AdditionalDefectsRequest{
		Text: strings.Repeat("x", 5001),
	})
	if !errors.Is(err, domainInspection.ErrDefectsTooLong) {
		t.Fatalf("expected ErrDefectsTooLong, got %v", err)
	}
}

func TestJoin(t *testing.T) {
	f := newFixture()
	insp := f.start(t, "T-1", "Maria")
	id := mustUUID(t, insp.ID)
	ctx := context.Background()

	resp, err := f.svc.Join(ctx, id, &JoinRequest{InspectorName: "Joe"})
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if resp.Inspector2 == nil || *resp.Inspector2 != "Joe" {
		t.Fatalf("unexpected inspector2 %v", resp.Inspector2)
	}

	// Re-joining as an existing participant is a no-op
	if _, err := f.svc.Join(ctx, id, &JoinRequest{InspectorName: "Maria"}); err != nil {
		t.Fatalf("participant re-join failed: %v", err)
	}

	// Both seats taken
	_, err = f.svc.Join(ctx, id, &JoinRequest{InspectorName: "Pat"})
	if !errors.Is(err, domainInspection.ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}
}

func TestFriendlyMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{errors.New("image is too large to process"), "Image is too large to process. Try taking the photo again."},
		{errors.New("cannot allocate memory"), "Not enough memory to process this image. Close other apps and try again."},
		{errors.New("dial tcp: connection refused"), "Network problem while saving. Your change will be retried."},
		{errors.New("something odd"), "Something went wrong while saving. Please try again."},
	}
	for _, tc := range cases {
		if got := FriendlyMessage(tc.err); got != tc.want {
			t.Errorf("FriendlyMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
	if FriendlyMessage(nil) != "" {
		t.Error("nil error must map to empty message")
	}
}
