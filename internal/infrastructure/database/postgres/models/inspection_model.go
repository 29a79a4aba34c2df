package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// InspectionModel represents the database model for Inspection. The two
// checklist sections and the defect photo list live in JSONB columns so
// dotted-path updates can target individual item fields with jsonb_set.
type InspectionModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TruckNumber string     `gorm:"type:varchar(50);not null;index"`
	Status      string     `gorm:"type:varchar(20);not null;index;default:'in-progress'"`
	Inspector1  string     `gorm:"type:varchar(100);not null"`
	Inspector2  *string    `gorm:"type:varchar(100)"`
	CreatedAt   time.Time  `gorm:"not null;index"`
	UpdatedAt   time.Time  `gorm:"not null"`
	CompletedAt *time.Time `gorm:"type:timestamp"`

	Interior datatypes.JSON `gorm:"type:jsonb;not null"`
	Exterior datatypes.JSON `gorm:"type:jsonb;not null"`

	AdditionalDefects string         `gorm:"type:text;not null;default:''"`
	DefectPhotos      datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
}

func (InspectionModel) TableName() string {
	return "inspections"
}
