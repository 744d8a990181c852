package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a user's role within its company.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleOwner    Role = "owner"
)

// Privileged reports whether the role has company-wide administrative rights.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleOwner
}

// ApprovalStatus tracks a user's admission to a company.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// User represents a member of a company. Users are never hard-deleted.
type User struct {
	ID             uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	Name           string         `json:"name" gorm:"size:255"`
	Email          string         `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash   string         `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Role           Role           `json:"role" gorm:"type:varchar(20);not null;index"`
	CompanyID      string         `json:"company_id" gorm:"size:64;not null;index"`
	CompanyName    string         `json:"company_name" gorm:"size:255;not null"`
	IsActive       bool           `json:"is_active" gorm:"not null;default:true"`
	ApprovalStatus ApprovalStatus `json:"approval_status" gorm:"type:varchar(20);not null;default:'pending';index"`
	ApprovedBy     *uuid.UUID     `json:"approved_by,omitempty" gorm:"type:char(36)"`
	ApprovedAt     *time.Time     `json:"approved_at,omitempty"`
	RejectedBy     *uuid.UUID     `json:"rejected_by,omitempty" gorm:"type:char(36)"`
	RejectedAt     *time.Time     `json:"rejected_at,omitempty"`
	LastLogin      *time.Time     `json:"last_login,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsApproved reports whether the user has been admitted.
func (u *User) IsApproved() bool {
	return u.ApprovalStatus == ApprovalApproved
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
