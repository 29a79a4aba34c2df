package models

import (
	"time"

	"github.com/google/uuid"
)

// InspectorModel represents the database model for Inspector
type InspectorModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name               string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	Email              string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHashed     string    `gorm:"type:varchar(255);not null"`
	Role               string    `gorm:"type:varchar(50);not null;default:'inspector'"`
	IsActive           bool      `gorm:"default:true;not null"`
	MustChangePassword bool      `gorm:"default:false;not null"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

func (InspectorModel) TableName() string {
	return "inspectors"
}
