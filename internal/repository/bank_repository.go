package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"finhub/internal/model"
)

// BankRepository defines bank account persistence operations. Lookups are
// scoped by company; an id from another company behaves as missing.
type BankRepository interface {
	Create(ctx context.Context, bank *model.BankAccount) error
	Update(ctx context.Context, bank *model.BankAccount) error
	Delete(ctx context.Context, companyID string, id uuid.UUID) error
	FindByID(ctx context.Context, companyID string, id uuid.UUID) (*model.BankAccount, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, companyID string, id uuid.UUID) (*model.BankAccount, error)
	FindByName(ctx context.Context, companyID, bankName string) (*model.BankAccount, error)
	UpdateBalance(ctx context.Context, id uuid.UUID, newBalance decimal.Decimal) error
	ListByCompany(ctx context.Context, companyID string) ([]model.BankAccount, error)
	// ExistsAccountNumber ignores excludeID when it is not uuid.Nil.
	ExistsAccountNumber(ctx context.Context, companyID, accountNumber string, excludeID uuid.UUID) (bool, error)
	TotalBalance(ctx context.Context, companyID string) (total decimal.Decimal, count int64, err error)
}

type bankRepository struct {
	db *gorm.DB
}

// NewBankRepository creates a new bank account repository.
func NewBankRepository(db *gorm.DB) BankRepository {
	return &bankRepository{db: db}
}

func (r *bankRepository) Create(ctx context.Context, bank *model.BankAccount) error {
	return r.db.WithContext(ctx).Create(bank).Error
}

// Update persists descriptive fields. The balance column is owned by the ledger.
func (r *bankRepository) Update(ctx context.Context, bank *model.BankAccount) error {
	return r.db.WithContext(ctx).Model(bank).
		Select("bank_name", "ifsc_code", "account_number", "account_type").
		Updates(bank).Error
}

func (r *bankRepository) Delete(ctx context.Context, companyID string, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, companyID).
		Delete(&model.BankAccount{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *bankRepository) FindByID(ctx context.Context, companyID string, id uuid.UUID) (*model.BankAccount, error) {
	var bank model.BankAccount
	if err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&bank).Error; err != nil {
		return nil, err
	}
	return &bank, nil
}

func (r *bankRepository) FindByIDForUpdate(ctx context.Context, companyID string, id uuid.UUID) (*model.BankAccount, error) {
	var bank model.BankAccount
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&bank).Error; err != nil {
		return nil, err
	}
	return &bank, nil
}

func (r *bankRepository) FindByName(ctx context.Context, companyID, bankName string) (*model.BankAccount, error) {
	var bank model.BankAccount
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND bank_name = ?", companyID, bankName).
		Order("created_at ASC").
		First(&bank).Error; err != nil {
		return nil, err
	}
	return &bank, nil
}

func (r *bankRepository) UpdateBalance(ctx context.Context, id uuid.UUID, newBalance decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&model.BankAccount{}).
		Where("id = ?", id).
		Update("current_balance", newBalance).Error
}

func (r *bankRepository) ListByCompany(ctx context.Context, companyID string) ([]model.BankAccount, error) {
	var banks []model.BankAccount
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&banks).Error; err != nil {
		return nil, err
	}
	return banks, nil
}

func (r *bankRepository) ExistsAccountNumber(ctx context.Context, companyID, accountNumber string, excludeID uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.BankAccount{}).
		Where("company_id = ? AND account_number = ?", companyID, accountNumber)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *bankRepository) TotalBalance(ctx context.Context, companyID string) (decimal.Decimal, int64, error) {
	var row struct {
		Total decimal.Decimal
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&model.BankAccount{}).
		Select("COALESCE(SUM(current_balance), 0) AS total, COUNT(*) AS count").
		Where("company_id = ?", companyID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, err
	}
	return row.Total, row.Count, nil
}
