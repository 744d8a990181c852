package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Direction carries the sign of a transaction; amounts are always positive.
type Direction string

const (
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

// Category classifies a transaction.
type Category string

const (
	CategoryRevenue    Category = "Revenue"
	CategoryPayroll    Category = "Payroll"
	CategoryOperations Category = "Operations"
	CategoryIT         Category = "IT Expenses"
	CategoryFacilities Category = "Facilities"
	CategoryMarketing  Category = "Marketing"
	CategoryTravel     Category = "Travel"
	CategoryInsurance  Category = "Insurance"
	CategoryTax        Category = "Tax"
	CategoryOther      Category = "Other"
)

// DefaultColor is used for categories without an entry in the colour table.
const DefaultColor = "#6B7280"

var categoryColors = map[Category]string{
	CategoryRevenue:    "#22C55E",
	CategoryPayroll:    "#3B82F6",
	CategoryOperations: "#6B7280",
	CategoryIT:         "#8B5CF6",
	CategoryFacilities: "#F59E42",
	CategoryMarketing:  "#EC4899",
	CategoryTravel:     "#14B8A6",
	CategoryInsurance:  "#6366F1",
	CategoryTax:        "#EF4444",
	CategoryOther:      "#6B7280",
}

// Color returns the display colour for the category.
func (c Category) Color() string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return DefaultColor
}

// TransactionStatus is the settlement state of a transaction.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "Completed"
	TransactionStatusPending   TransactionStatus = "Pending"
)

// Department tags a transaction with the owning department.
type Department string

const (
	DepartmentFinance    Department = "Finance"
	DepartmentIT         Department = "IT"
	DepartmentOperations Department = "Operations"
	DepartmentSales      Department = "Sales"
	DepartmentMarketing  Department = "Marketing"
	DepartmentHR         Department = "HR"
	DepartmentAll        Department = "All"
)

// Transaction is a ledger entry. Its effect on the referenced bank account is
// +Amount for income and -Amount for expense.
type Transaction struct {
	ID          uuid.UUID         `json:"id" gorm:"type:char(36);primaryKey"`
	CompanyID   string            `json:"company_id" gorm:"size:64;not null;index"`
	Date        time.Time         `json:"date" gorm:"not null;index"`
	Description string            `json:"description" gorm:"size:500;not null"`
	Category    Category          `json:"category" gorm:"type:varchar(32);not null;index"`
	Direction   Direction         `json:"type" gorm:"type:varchar(10);not null;index"`
	Amount      decimal.Decimal   `json:"amount" gorm:"type:decimal(20,2);not null"`
	Status      TransactionStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	AccountID   uuid.UUID         `json:"account_id" gorm:"type:char(36);not null;index"`
	// Account is the bank name at the time of the last write, kept for display.
	Account    string     `json:"account" gorm:"size:255;not null"`
	Color      string     `json:"color" gorm:"size:16;not null"`
	Client     string     `json:"client,omitempty" gorm:"size:255"`
	Vendor     string     `json:"vendor,omitempty" gorm:"size:255"`
	Invoice    string     `json:"invoice,omitempty" gorm:"size:255"`
	Department Department `json:"department" gorm:"type:varchar(20);not null;default:'All'"`
	PaymentID  string     `json:"payment_id,omitempty" gorm:"size:255"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Effect returns the signed change this transaction applies to its account.
func (t *Transaction) Effect() decimal.Decimal {
	if t.Direction == DirectionExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// BeforeCreate sets UUID before creating the record.
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
