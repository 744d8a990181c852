package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"finhub/internal/model"
)

// TransactionTotals aggregates a company's ledger.
type TransactionTotals struct {
	Income    decimal.Decimal `json:"total_income"`
	Expense   decimal.Decimal `json:"total_expense"`
	Pending   int64           `json:"pending_count"`
	Completed int64           `json:"completed_count"`
}

// TransactionRepository defines ledger persistence operations. Balance
// adjustments are not its concern; callers run them in the same transaction.
type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) error
	Update(ctx context.Context, txn *model.Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, companyID string, id uuid.UUID) (*model.Transaction, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, companyID string, id uuid.UUID) (*model.Transaction, error)
	ListByCompany(ctx context.Context, companyID string) ([]model.Transaction, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	Totals(ctx context.Context, companyID string) (*TransactionTotals, error)
}

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, txn *model.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *transactionRepository) Update(ctx context.Context, txn *model.Transaction) error {
	return updateRow(r.db.WithContext(ctx), txn)
}

func (r *transactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Transaction{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *transactionRepository) FindByID(ctx context.Context, companyID string, id uuid.UUID) (*model.Transaction, error) {
	var txn model.Transaction
	if err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) FindByIDForUpdate(ctx context.Context, companyID string, id uuid.UUID) (*model.Transaction, error) {
	var txn model.Transaction
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) ListByCompany(ctx context.Context, companyID string) ([]model.Transaction, error) {
	var txns []model.Transaction
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("date DESC").
		Order("created_at DESC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *transactionRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("account_id = ?", accountID).
		Count(&count).Error
	return count, err
}

func (r *transactionRepository) Totals(ctx context.Context, companyID string) (*TransactionTotals, error) {
	var totals TransactionTotals
	err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Select(
			"COALESCE(SUM(CASE WHEN direction = ? THEN amount ELSE 0 END), 0) AS income, "+
				"COALESCE(SUM(CASE WHEN direction = ? THEN amount ELSE 0 END), 0) AS expense, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed",
			model.DirectionIncome, model.DirectionExpense,
			model.TransactionStatusPending, model.TransactionStatusCompleted,
		).
		Where("company_id = ?", companyID).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}
