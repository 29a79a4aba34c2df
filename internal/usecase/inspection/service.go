package inspection

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainInspection "yardcheck/internal/domain/inspection"
	"yardcheck/internal/events"
	"yardcheck/internal/imaging"
	"yardcheck/internal/logger"
	"yardcheck/internal/realtime"
	"yardcheck/internal/storage"
	appErrors "yardcheck/pkg/errors"
	"yardcheck/pkg/utils"
)

// PhotoStore is the slice of the storage gateway the service needs
type PhotoStore interface {
	Upload(ctx context.Context, key string, data []byte) (string, error)
	Delete(ctx context.Context, photoURL string) error
}

// Broadcaster pushes snapshots to live subscribers
type Broadcaster interface {
	Publish(topic string, data interface{}) int
}

// Service implements the inspection use cases. Every mutation follows
// the same shape: validate, check the document is still open, write
// dotted-path fields, then push a full snapshot to subscribers. Field
// edits are single-attempt; only the photo save path retries.
// Terminal-state protection happens here, not in the repository; the
// store will take any write it is handed.
type Service struct {
	repo   domainInspection.Repository
	photos PhotoStore
	hub    Broadcaster
	bus    events.Publisher
	retry  RetryPolicy
	conn   *connectivity
}

// NewService creates a new inspection service
func NewService(
	repo domainInspection.Repository,
	photos PhotoStore,
	hub Broadcaster,
	bus events.Publisher,
	retry RetryPolicy,
) *Service {
	return &Service{
		repo:   repo,
		photos: photos,
		hub:    hub,
		bus:    bus,
		retry:  retry,
		conn:   newConnectivity(),
	}
}

// Connectivity reports the advisory sync state
func (s *Service) Connectivity() ConnectivityState {
	return s.conn.get()
}

// Start opens a new inspection for a truck, or hands back the one
// already in progress. When the existing inspection has a free second
// seat and the caller is not yet a participant, they are joined to it.
func (s *Service) Start(ctx context.Context, req *StartRequest) (*StartResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	truck, err := NormalizeTruckNumber(req.TruckNumber)
	if err != nil {
		return nil, err
	}
	name, err := NormalizeInspectorName(req.InspectorName)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindInProgressByTruck(ctx, truck)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.HasParticipant(name) && existing.Inspector2 == nil {
			if err := s.mutate(ctx, func(ctx context.Context) error {
				return s.repo.UpdateFields(ctx, existing.ID, domainInspection.Fields{
					"inspector2": name,
				})
			}); err != nil {
				return nil, err
			}
			resp, err := s.broadcast(ctx, existing.ID, events.TypeUpdated)
			if err != nil {
				return nil, err
			}
			return &StartResponse{Inspection: resp, Created: false}, nil
		}
		return &StartResponse{Inspection: ToResponse(existing), Created: false}, nil
	}

	insp := domainInspection.New(truck, name)
	if err := s.mutate(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, insp)
	}); err != nil {
		return nil, err
	}

	logger.Info("Inspection started",
		zap.String("inspection_id", insp.ID.String()),
		zap.String("truck_number", truck),
		zap.String("inspector", name),
	)

	resp, err := s.broadcast(ctx, insp.ID, events.TypeCreated)
	if err != nil {
		return nil, err
	}
	return &StartResponse{Inspection: resp, Created: true}, nil
}

// Get returns one inspection
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Response, error) {
	insp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToResponse(insp), nil
}

// List returns a filtered page of inspections, newest first
func (s *Service) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	filter := &domainInspection.Filter{
		CreatedAfter:  req.From,
		CreatedBefore: req.To,
		Page:          req.Page,
		PageSize:      req.PageSize,
	}
	if req.Status != "" {
		status := domainInspection.Status(req.Status)
		filter.Status = &status
	}
	if req.TruckNumber != "" {
		truck, err := NormalizeTruckNumber(req.TruckNumber)
		if err != nil {
			return nil, err
		}
		filter.TruckNumber = &truck
	}
	if req.Inspector != "" {
		filter.Inspector = &req.Inspector
	}

	inspections, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]*Response, len(inspections))
	for i, insp := range inspections {
		responses[i] = ToResponse(insp)
	}

	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return &ListResponse{Inspections: responses, Total: total, Page: page, PageSize: pageSize}, nil
}

// UpdateItem answers one checklist item. The value is stored as given;
// only the item path is validated against the checklist schema.
func (s *Service) UpdateItem(ctx context.Context, id uuid.UUID, req *UpdateItemRequest, actor string) (*Response, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}
	if _, err := ValidateItemPath(req.Section, req.ItemID); err != nil {
		return nil, err
	}
	if _, err := s.ensureOpen(ctx, id); err != nil {
		return nil, err
	}

	prefix := req.Section + "." + req.ItemID
	fields := domainInspection.Fields{}
	if req.Value == nil {
		// Clearing an answer also clears who gave it
		fields[prefix+".value"] = nil
		fields[prefix+".answeredBy"] = ""
		fields[prefix+".answeredAt"] = nil
	} else {
		now := time.Now()
		fields[prefix+".value"] = *req.Value
		fields[prefix+".answeredBy"] = actor
		fields[prefix+".answeredAt"] = now
	}

	if err := s.mutate(ctx, func(ctx context.Context) error {
		return s.repo.UpdateFields(ctx, id, fields)
	}); err != nil {
		return nil, err
	}
	return s.broadcast(ctx, id, events.TypeUpdated)
}

// UpdateComment sets the note on one checklist item
func (s *Service) UpdateComment(ctx context.Context, id uuid.UUID, req *UpdateCommentRequest, actor string) (*Response, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}
	if _, err := ValidateItemPath(req.Section, req.ItemID); err != nil {
		return nil, err
	}
	comment, err := SanitizeComment(req.Comment)
	if err != nil {
		return nil, err
	}
	if _, err := s.ensureOpen(ctx, id); err != nil {
		return nil, err
	}

	if err := s.mutate(ctx, func(ctx context.Context) error {
		return s.repo.UpdateFields(ctx, id, domainInspection.Fields{
			req.Section + "." + req.ItemID + ".comment": comment,
		})
	}); err != nil {
		return nil, err
	}
	return s.broadcast(ctx, id, events.TypeUpdated)
}

// CaptureItemPhoto compresses and stores a photo for one checklist
// item, replacing any previous one
func (s *Service) CaptureItemPhoto(ctx context.Context, id uuid.UUID, section, itemID string, data []byte, actor string) (*Response, error) {
	sectionID, err := ValidateItemPath(section, itemID)
	if err != nil {
		return nil, err
	}
	insp, err := s.ensureOpen(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := imaging.Compress(data)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	key := storage.ItemPhotoPath(id.String(), itemID, now)

	var photoURL string
	if err := s.mutatePhoto(ctx, func(ctx context.Context) error {
		url, err := s.photos.Upload(ctx, key, result.Data)
		if err != nil {
			return err
		}
		photoURL = url
		return s.repo.UpdateFields(ctx, id, domainInspection.Fields{
			section + "." + itemID + ".photoUrl":     photoURL,
			section + "." + itemID + ".photoTakenBy": actor,
			section + "." + itemID + ".photoTakenAt": now,
		})
	}); err != nil {
		return nil, err
	}

	// The replaced photo is removed after the new reference is live, so
	// a failure here never leaves the item pointing at nothing
	if old, ok := insp.Section(sectionID)[itemID]; ok && old.PhotoURL != nil && *old.PhotoURL != photoURL {
		if err := s.photos.Delete(ctx, *old.PhotoURL); err != nil {
			logger.Warn("Failed to delete replaced item photo",
				zap.String("url", *old.PhotoURL),
				zap.Error(err),
			)
		}
	}

	return s.broadcast(ctx, id, events.TypeUpdated)
}

// DeleteItemPhoto removes an item's photo and clears its reference
func (s *Service) DeleteItemPhoto(ctx context.Context, id uuid.UUID, section, itemID string) (*Response, error) {
	sectionID, err := ValidateItemPath(section, itemID)
	if err != nil {
		return nil, err
	}
	insp, err := s.ensureOpen(ctx, id)
	if err != nil {
		return nil, err
	}

	item, ok := insp.Section(sectionID)[itemID]
	if !ok || item.PhotoURL == nil {
		return ToResponse(insp), nil
	}
	oldURL := *item.PhotoURL

	if err := s.mutate(ctx, func(ctx context.Context) error {
		return s.repo.UpdateFields(ctx, id, domainInspection.Fields{
			section + "." + itemID + ".photoUrl":     nil,
			section + "." + itemID + ".photoTakenBy": nil,
			section + "." + itemID + ".photoTakenAt": nil,
		})
	}); err != nil {
		return nil, err
	}

	if err := s.photos.Delete(ctx, oldURL); err != nil {
		logger.Warn("Failed to delete item photo object",
			zap.String("url", oldURL),
			zap.Error(err),
		)
	}

	return s.broadcast(ctx, id, events.TypeUpdated)
}

// AddDefectPhoto compresses and attaches a standalone defect photo
func (s *Service) AddDefectPhoto(ctx context.Context, id uuid.UUID, data []byte, caption *string, actor string) (*Response, error) {
	if _, err := s.ensureOpen(ctx, id); err != nil {
		return nil, err
	}

	result, err := imaging.Compress(data)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	key := storage.DefectPhotoPath(id.String(), now)

	if err := s.mutatePhoto(ctx, func(ctx context.Context) error {
		url, err := s.photos.Upload(ctx, key, result.Data)
		if err != nil {
			return err
		}
		return s.repo.AppendDefectPhoto(ctx, id, domainInspection.DefectPhoto{
			URL:     url,
			Caption: SanitizeCaption(caption),
			TakenBy: actor,
			TakenAt: now,
		})
	}); err != nil {
		return nil, err
	}
	return s.broadcast(ctx, id, events.TypeUpdated)
}

// RemoveDefectPhoto deletes a defect photo and its stored object
func (s *Service) RemoveDefectPhoto(ctx context.Context, id uuid.UUID, photoURL string) (*Response, error) {
	if _, err := s.ensureOpen(ctx, id); err != nil {
		return nil, err
	}

	if err := s.mutate(ctx, func(ctx context.Context) error {
		return s.repo.RemoveDefectPhoto(ctx, id, photoURL)
	}); err != nil {
		return nil, err
	}

	if err := s.photos.Delete(ctx, photoURL); err != nil {
		logger.Warn("Failed to delete defect photo object",
			zap.String("url", photoURL),
			zap.Error(err),
		)
	}

	return s.broadcast(ctx, id, events.TypeUpdated)
}

// UpdateAdditionalDefects replaces the inspection-level defects text
func (s *Service) UpdateAdditionalDefects(ctx context.Context, id uuid.UUID, req *AdditionalDefectsRequest) (*Response, error) {
	text, err := SanitizeDefectsText(req.Text)
	if err != nil {
		return nil, err
	}
	if _, err := s.ensureOpen(ctx, id); err != nil {
		return nil, err
	}

	if err := s.mutate(ctx, func(ctx context.Context) error {
		return s.repo.UpdateFields(ctx, id, domainInspection.Fields{
			"additionalDefects": text,
		})
	}); err != nil {
		return nil, err
	}
	return s.broadcast(ctx, id, events.TypeUpdated)
}

// Join adds a second inspector to a running inspection. Joining an
// inspection you already participate in is a no-op.
func (s *Service) Join(ctx context.Context, id uuid.UUID, req *JoinRequest) (*Response, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}
	name, err := NormalizeInspectorName(req.InspectorName)
	if err != nil {
		return nil, err
	}

	insp, err := s.ensureOpen(ctx, id)
	if err != nil {
		return nil, err
	}
	if insp.HasParticipant(name) {
		return ToResponse(insp), nil
	}
	if insp.Inspector2 != nil {
		return nil, domainInspection.ErrAlreadyJoined
	}

	if err := s.mutate(ctx, func(ctx context.Context) error {
		return s.repo.UpdateFields(ctx, id, domainInspection.Fields{
			"inspector2": name,
		})
	}); err != nil {
		return nil, err
	}
	return s.broadcast(ctx, id, events.TypeUpdated)
}

// Complete closes the inspection. Completing an already terminal
// inspection is a no-op that keeps the original completion time.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Response, error) {
	return s.finish(ctx, id, domainInspection.StatusComplete, events.TypeCompleted)
}

// MarkGone records that the truck left the yard before the walkthrough
// finished. Also terminal, also idempotent.
func (s *Service) MarkGone(ctx context.Context, id uuid.UUID) (*Response, error) {
	return s.finish(ctx, id, domainInspection.StatusGone, events.TypeGone)
}

func (s *Service) finish(ctx context.Context, id uuid.UUID, status domainInspection.Status, evType string) (*Response, error) {
	insp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if insp.Status.Terminal() {
		return ToResponse(insp), nil
	}

	now := time.Now()
	if err := s.mutate(ctx, func(ctx context.Context) error {
		return s.repo.UpdateFields(ctx, id, domainInspection.Fields{
			"status":      string(status),
			"completedAt": now,
		})
	}); err != nil {
		return nil, err
	}

	logger.Info("Inspection closed",
		zap.String("inspection_id", id.String()),
		zap.String("status", string(status)),
	)

	return s.broadcast(ctx, id, evType)
}

func (s *Service) ensureOpen(ctx context.Context, id uuid.UUID) (*domainInspection.Inspection, error) {
	insp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if insp.Status.Terminal() {
		return nil, domainInspection.ErrInspectionClosed
	}
	return insp, nil
}

// mutate runs a single-attempt write and keeps the advisory
// connectivity state in step with the outcome. Field edits are cheap to
// redo, so a failure surfaces immediately instead of being retried.
func (s *Service) mutate(ctx context.Context, fn func(context.Context) error) error {
	s.conn.set(ConnectivitySyncing)
	if err := fn(ctx); err != nil {
		s.conn.set(ConnectivityOffline)
		return err
	}
	s.conn.set(ConnectivityOnline)
	return nil
}

// mutatePhoto is the photo-save variant: captures are expensive to redo
// in the yard, so uploads ride the retry policy before the inspector is
// told the save was lost
func (s *Service) mutatePhoto(ctx context.Context, fn func(context.Context) error) error {
	s.conn.set(ConnectivitySyncing)
	if err := s.retry.Do(ctx, fn); err != nil {
		s.conn.set(ConnectivityOffline)
		return photoSaveError(err)
	}
	s.conn.set(ConnectivityOnline)
	return nil
}

// photoSaveError translates an exhausted photo save into the message
// shown on the device; validation and cancellation pass through
func photoSaveError(err error) error {
	if !retryable(err) {
		return err
	}
	return appErrors.NewAppError(CodePhotoSaveFailed, FriendlyMessage(err), err)
}

// broadcast reloads the document and fans the fresh snapshot out to
// websocket subscribers and the yard message bus
func (s *Service) broadcast(ctx context.Context, id uuid.UUID, evType string) (*Response, error) {
	insp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToResponse(insp)

	s.hub.Publish(realtime.DocumentTopic(resp.ID), resp)
	s.hub.Publish(realtime.ListTopic, map[string]string{
		"inspectionId": resp.ID,
		"event":        evType,
	})
	s.bus.Publish(events.Event{
		Type:         evType,
		InspectionID: resp.ID,
		TruckNumber:  insp.TruckNumber,
		Status:       string(insp.Status),
		OccurredAt:   time.Now(),
	})

	return resp, nil
}
