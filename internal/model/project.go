package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Project groups tasks under a head and a set of employees. Archived projects are hidden.
type Project struct {
	ID           uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	CompanyID    string          `json:"company_id" gorm:"size:64;not null;index"`
	Name         string          `json:"name" gorm:"size:255;not null"`
	Description  string          `json:"description" gorm:"type:text;not null"`
	StartDate    time.Time       `json:"start_date" gorm:"not null"`
	EndDate      time.Time       `json:"end_date" gorm:"not null"`
	ClientName   string          `json:"client_name" gorm:"size:255;not null"`
	TotalRevenue decimal.Decimal `json:"total_revenue" gorm:"type:decimal(20,2);not null;default:0"`
	Cost         decimal.Decimal `json:"cost" gorm:"type:decimal(20,2);not null;default:0"`
	HeadID       uuid.UUID       `json:"head_id" gorm:"type:char(36);not null;index"`
	IsArchived   bool            `json:"is_archived" gorm:"not null;default:false;index"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	// Relations
	Head      *User  `json:"head,omitempty" gorm:"foreignKey:HeadID"`
	Employees []User `json:"employees" gorm:"many2many:project_employees"`
	Tasks     []Task `json:"tasks" gorm:"foreignKey:ProjectID"`
}

// IsMember reports whether the user is the head or one of the employees.
func (p *Project) IsMember(userID uuid.UUID) bool {
	if p.HeadID == userID {
		return true
	}
	for _, e := range p.Employees {
		if e.ID == userID {
			return true
		}
	}
	return false
}

// BeforeCreate sets UUID before creating the record.
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
