package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is a tenant. CompanyID is the public identifier carried in sessions.
type Company struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	CompanyID string    `json:"company_id" gorm:"uniqueIndex;size:64;not null"`
	Name      string    `json:"company_name" gorm:"size:255;not null"`
	// NameKey is the lower-cased name; it carries the uniqueness constraint.
	NameKey    string    `json:"-" gorm:"uniqueIndex;size:255;not null"`
	AdminEmail string    `json:"admin_email" gorm:"size:255;not null"`
	IsActive   bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
