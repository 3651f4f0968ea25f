package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velvetcharms/storefront-backend/pkg/types"
)

// Upload records a file received through the upload form.
type Upload struct {
	ID           uuid.UUID    `gorm:"type:text;primaryKey" json:"id"`
	OriginalName string       `gorm:"column:original_name;not null" json:"originalName"`
	StoredPath   string       `gorm:"column:stored_path;not null" json:"path"`
	ContentType  string       `gorm:"column:content_type;not null" json:"contentType"`
	SizeBytes    int64        `gorm:"column:size_bytes;not null" json:"size"`
	Fields       types.Fields `gorm:"type:text;not null" json:"fields,omitempty"`
	CreatedAt    time.Time    `gorm:"not null" json:"time"`
}

func (Upload) TableName() string { return "uploads" }
