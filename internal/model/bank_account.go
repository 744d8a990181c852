package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountType is the kind of bank account.
type AccountType string

const (
	AccountTypeSaving  AccountType = "saving"
	AccountTypeCurrent AccountType = "current"
)

// BankAccount is a company's bank account. CurrentBalance is only changed by the ledger.
type BankAccount struct {
	ID             uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	CompanyID      string          `json:"company_id" gorm:"size:64;not null;uniqueIndex:idx_bank_company_account,priority:1"`
	BankName       string          `json:"bank_name" gorm:"size:255;not null"`
	IFSCCode       string          `json:"ifsc_code" gorm:"size:32;not null"`
	AccountNumber  string          `json:"account_number" gorm:"size:64;not null;uniqueIndex:idx_bank_company_account,priority:2"`
	AccountType    AccountType     `json:"account_type" gorm:"type:varchar(20);not null"`
	CurrentBalance decimal.Decimal `json:"current_balance" gorm:"type:decimal(20,2);not null;default:0"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (b *BankAccount) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
