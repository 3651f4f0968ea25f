package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velvetcharms/storefront-backend/pkg/types"
)

// ContactMessage is one contact-form submission.
type ContactMessage struct {
	ID         uuid.UUID    `gorm:"type:text;primaryKey" json:"id"`
	Name       string       `gorm:"not null" json:"name"`
	Email      string       `gorm:"not null" json:"email"`
	Message    string       `gorm:"not null" json:"message"`
	Fields     types.Fields `gorm:"type:text;not null" json:"fields,omitempty"`
	RemoteAddr string       `gorm:"column:remote_addr;not null" json:"-"`
	CreatedAt  time.Time    `gorm:"not null" json:"time"`
}

func (ContactMessage) TableName() string { return "contact_messages" }
