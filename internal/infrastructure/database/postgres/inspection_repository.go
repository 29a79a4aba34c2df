package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"yardcheck/internal/domain/inspection"
	"yardcheck/internal/infrastructure/database/postgres/models"
)

type InspectionRepository struct {
	db *DB
}

func NewInspectionRepository(db *DB) *InspectionRepository {
	return &InspectionRepository{db: db}
}

func (r *InspectionRepository) Create(ctx context.Context, insp *inspection.Inspection) error {
	insp.ID = uuid.New()
	insp.CreatedAt = time.Now()
	insp.UpdatedAt = time.Now()
	if insp.Status == "" {
		insp.Status = inspection.StatusInProgress
	}

	dbModel, err := toInspectionModel(insp)
	if err != nil {
		return err
	}
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create inspection: %w", err)
	}

	insp.ID = dbModel.ID
	insp.CreatedAt = dbModel.CreatedAt
	insp.UpdatedAt = dbModel.UpdatedAt

	return nil
}

func (r *InspectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*inspection.Inspection, error) {
	var dbModel models.InspectionModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, inspection.ErrInspectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inspection: %w", err)
	}

	return toInspectionEntity(&dbModel)
}

func (r *InspectionRepository) FindInProgressByTruck(ctx context.Context, truckNumber string) (*inspection.Inspection, error) {
	var dbModel models.InspectionModel
	err := r.db.DB.WithContext(ctx).
		Where("truck_number = ? AND status = ?", truckNumber, string(inspection.StatusInProgress)).
		Order("created_at DESC").
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // No open inspection for this truck
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find in-progress inspection: %w", err)
	}

	return toInspectionEntity(&dbModel)
}

func (r *InspectionRepository) List(ctx context.Context, filter *inspection.Filter) ([]*inspection.Inspection, int64, error) {
	var dbModels []models.InspectionModel
	var total int64

	db := r.db.DB.WithContext(ctx).Model(&models.InspectionModel{})

	if filter.Status != nil {
		db = db.Where("status = ?", string(*filter.Status))
	}
	if filter.TruckNumber != nil {
		db = db.Where("truck_number = ?", *filter.TruckNumber)
	}
	if filter.Inspector != nil {
		db = db.Where("(inspector1 = ? OR inspector2 = ?)", *filter.Inspector, *filter.Inspector)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", filter.CreatedBefore)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count inspections: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	err := db.Order("created_at DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&dbModels).Error

	if err != nil {
		return nil, 0, fmt.Errorf("failed to list inspections: %w", err)
	}

	inspections := make([]*inspection.Inspection, len(dbModels))
	for i := range dbModels {
		entity, err := toInspectionEntity(&dbModels[i])
		if err != nil {
			return nil, 0, err
		}
		inspections[i] = entity
	}

	return inspections, total, nil
}

// topLevelColumns maps the updatable top-level document fields to their
// database columns. Everything else must be addressed through a section
// path.
var topLevelColumns = map[string]string{
	"status":            "status",
	"inspector2":        "inspector2",
	"completedAt":       "completed_at",
	"additionalDefects": "additional_defects",
}

func (r *InspectionRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields inspection.Fields) error {
	if len(fields) == 0 {
		return nil
	}

	updates := make(map[string]interface{})
	// Per JSONB column, chained jsonb_set expressions so several item
	// paths in one call still produce a single UPDATE.
	sectionExprs := make(map[string]interface{})

	for path, value := range fields {
		parts := strings.Split(path, ".")
		switch parts[0] {
		case "interior", "exterior":
			if len(parts) < 2 || len(parts) > 3 {
				return fmt.Errorf("%w: %q", inspection.ErrInvalidItemID, path)
			}
			encoded, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("failed to encode value for %q: %w", path, err)
			}
			column := parts[0]
			jsonPath := "{" + strings.Join(parts[1:], ",") + "}"
			prev, ok := sectionExprs[column]
			if !ok {
				prev = gorm.Expr(column)
			}
			sectionExprs[column] = gorm.Expr("jsonb_set(?, ?, ?::jsonb, true)", prev, jsonPath, string(encoded))
		default:
			column, ok := topLevelColumns[path]
			if !ok {
				return fmt.Errorf("unsupported update path %q", path)
			}
			updates[column] = value
		}
	}

	for column, expr := range sectionExprs {
		updates[column] = expr
	}
	updates["updated_at"] = time.Now()

	result := r.db.DB.WithContext(ctx).
		Model(&models.InspectionModel{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update inspection fields: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return inspection.ErrInspectionNotFound
	}

	return nil
}

func (r *InspectionRepository) AppendDefectPhoto(ctx context.Context, id uuid.UUID, photo inspection.DefectPhoto) error {
	encoded, err := json.Marshal(photo)
	if err != nil {
		return fmt.Errorf("failed to encode defect photo: %w", err)
	}

	result := r.db.DB.WithContext(ctx).
		Model(&models.InspectionModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"defect_photos": gorm.Expr("defect_photos || ?::jsonb", string(encoded)),
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to append defect photo: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return inspection.ErrInspectionNotFound
	}

	return nil
}

func (r *InspectionRepository) RemoveDefectPhoto(ctx context.Context, id uuid.UUID, url string) error {
	// Rebuilds the array without the matching url. Removing a url that
	// is not present is a no-op, which keeps retries safe.
	result := r.db.DB.WithContext(ctx).
		Model(&models.InspectionModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"defect_photos": gorm.Expr(
				`COALESCE((SELECT jsonb_agg(p) FROM jsonb_array_elements(defect_photos) p WHERE p->>'url' <> ?), '[]'::jsonb)`,
				url,
			),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to remove defect photo: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return inspection.ErrInspectionNotFound
	}

	return nil
}

// Helper functions to convert between domain entities and database models
func toInspectionModel(i *inspection.Inspection) (*models.InspectionModel, error) {
	interior, err := json.Marshal(i.Interior)
	if err != nil {
		return nil, fmt.Errorf("failed to encode interior section: %w", err)
	}
	exterior, err := json.Marshal(i.Exterior)
	if err != nil {
		return nil, fmt.Errorf("failed to encode exterior section: %w", err)
	}
	photos := i.DefectPhotos
	if photos == nil {
		photos = []inspection.DefectPhoto{}
	}
	defectPhotos, err := json.Marshal(photos)
	if err != nil {
		return nil, fmt.Errorf("failed to encode defect photos: %w", err)
	}

	return &models.InspectionModel{
		ID:                i.ID,
		TruckNumber:       i.TruckNumber,
		Status:            string(i.Status),
		Inspector1:        i.Inspector1,
		Inspector2:        i.Inspector2,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
		CompletedAt:       i.CompletedAt,
		Interior:          interior,
		Exterior:          exterior,
		AdditionalDefects: i.AdditionalDefects,
		DefectPhotos:      defectPhotos,
	}, nil
}

func toInspectionEntity(m *models.InspectionModel) (*inspection.Inspection, error) {
	var interior, exterior map[string]inspection.ChecklistItemData
	if err := json.Unmarshal(m.Interior, &interior); err != nil {
		return nil, fmt.Errorf("failed to decode interior section: %w", err)
	}
	if err := json.Unmarshal(m.Exterior, &exterior); err != nil {
		return nil, fmt.Errorf("failed to decode exterior section: %w", err)
	}
	var defectPhotos []inspection.DefectPhoto
	if len(m.DefectPhotos) > 0 {
		if err := json.Unmarshal(m.DefectPhotos, &defectPhotos); err != nil {
			return nil, fmt.Errorf("failed to decode defect photos: %w", err)
		}
	}

	return &inspection.Inspection{
		ID:                m.ID,
		TruckNumber:       m.TruckNumber,
		Status:            inspection.Status(m.Status),
		Inspector1:        m.Inspector1,
		Inspector2:        m.Inspector2,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		CompletedAt:       m.CompletedAt,
		Interior:          interior,
		Exterior:          exterior,
		AdditionalDefects: m.AdditionalDefects,
		DefectPhotos:      defectPhotos,
	}, nil
}
