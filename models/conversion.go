package models

import (
	"time"
)

// Conversion tracks one upload session between the preview and the apply step.
type Conversion struct {
	ID           string `gorm:"primaryKey;size:36"` // opaque request id (uuid)
	CreatedAt    time.Time
	UpdatedAt    time.Time
	TemplateName string `gorm:"size:255;not null"`
	TemplatePath string `gorm:"size:512;not null"`
	ImageName    string `gorm:"size:255;not null"`
	ImagePath    string `gorm:"size:512;not null"`
	RecordCount  int    `gorm:"not null;default:0"`
	// AppliedAt is set after the filled workbook was produced at least once.
	AppliedAt   *time.Time
	Predictions []Prediction `gorm:"foreignKey:ConversionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
