package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"yardcheck/internal/domain/inspector"
	"yardcheck/internal/infrastructure/database/postgres/models"
)

type InspectorRepository struct {
	db *DB
}

func NewInspectorRepository(db *DB) *InspectorRepository {
	return &InspectorRepository{db: db}
}

func (r *InspectorRepository) Create(ctx context.Context, insp *inspector.Inspector) error {
	insp.ID = uuid.New()
	insp.CreatedAt = time.Now()
	insp.UpdatedAt = time.Now()
	if insp.Role == "" {
		insp.Role = inspector.RoleInspector
	}

	dbModel := toInspectorModel(insp)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return inspector.ErrInspectorAlreadyExists
		}
		return fmt.Errorf("failed to create inspector: %w", err)
	}

	insp.ID = dbModel.ID
	insp.CreatedAt = dbModel.CreatedAt
	insp.UpdatedAt = dbModel.UpdatedAt

	return nil
}

func (r *InspectorRepository) GetByID(ctx context.Context, id uuid.UUID) (*inspector.Inspector, error) {
	var dbModel models.InspectorModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, inspector.ErrInspectorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inspector: %w", err)
	}

	return toInspectorEntity(&dbModel), nil
}

func (r *InspectorRepository) GetByEmail(ctx context.Context, email string) (*inspector.Inspector, error) {
	var dbModel models.InspectorModel
	err := r.db.DB.WithContext(ctx).
		Where("email = ?", email).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, inspector.ErrInspectorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inspector by email: %w", err)
	}

	return toInspectorEntity(&dbModel), nil
}

func (r *InspectorRepository) GetAll(ctx context.Context) ([]*inspector.Inspector, error) {
	var dbModels []models.InspectorModel
	err := r.db.DB.WithContext(ctx).
		Order("name ASC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list inspectors: %w", err)
	}

	inspectors := make([]*inspector.Inspector, len(dbModels))
	for i := range dbModels {
		inspectors[i] = toInspectorEntity(&dbModels[i])
	}

	return inspectors, nil
}

func (r *InspectorRepository) Update(ctx context.Context, insp *inspector.Inspector) error {
	insp.UpdatedAt = time.Now()

	result := r.db.DB.WithContext(ctx).
		Model(&models.InspectorModel{}).
		Where("id = ?", insp.ID).
		Updates(map[string]interface{}{
			"name":                 insp.Name,
			"email":                insp.Email,
			"role":                 string(insp.Role),
			"is_active":            insp.IsActive,
			"must_change_password": insp.MustChangePassword,
			"updated_at":           insp.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update inspector: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return inspector.ErrInspectorNotFound
	}

	return nil
}

func (r *InspectorRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.InspectorModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hashed":      passwordHash,
			"must_change_password": false,
			"updated_at":           time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return inspector.ErrInspectorNotFound
	}

	return nil
}

func (r *InspectorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.InspectorModel{})

	if result.Error != nil {
		return fmt.Errorf("failed to delete inspector: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return inspector.ErrInspectorNotFound
	}

	return nil
}

func toInspectorModel(i *inspector.Inspector) *models.InspectorModel {
	return &models.InspectorModel{
		ID:                 i.ID,
		Name:               i.Name,
		Email:              i.Email,
		PasswordHashed:     i.PasswordHashed,
		Role:               string(i.Role),
		IsActive:           i.IsActive,
		MustChangePassword: i.MustChangePassword,
		CreatedAt:          i.CreatedAt,
		UpdatedAt:          i.UpdatedAt,
	}
}

func toInspectorEntity(m *models.InspectorModel) *inspector.Inspector {
	return &inspector.Inspector{
		ID:                 m.ID,
		Name:               m.Name,
		Email:              m.Email,
		PasswordHashed:     m.PasswordHashed,
		Role:               inspector.Role(m.Role),
		IsActive:           m.IsActive,
		MustChangePassword: m.MustChangePassword,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}
