package service

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"finhub/internal/cache"
	apperrors "finhub/internal/errors"
	"finhub/internal/model"
	"finhub/internal/policy"
	"finhub/internal/repository"
)

// TransactionInput carries the writable fields of a ledger entry. The account
// is identified by AccountID, or by bank name within the company when
// AccountID is uuid.Nil.
type TransactionInput struct {
	Date        time.Time
	Description string
	Category    model.Category
	Direction   model.Direction
	Amount      decimal.Decimal
	Status      model.TransactionStatus
	AccountID   uuid.UUID
	Account     string
	Client      string
	Vendor      string
	Invoice     string
	Department  model.Department
	PaymentID   string
}

func (in *TransactionInput) normalize() error {
	in.Description = strings.TrimSpace(in.Description)
	in.Account = strings.TrimSpace(in.Account)
	if in.Department == "" {
		in.Department = model.DepartmentAll
	}

	fields := map[string]string{}
	if in.Date.IsZero() {
		fields["date"] = "transaction date is required"
	}
	if in.Description == "" {
		fields["description"] = "description is required"
	}
	if !validCategory(in.Category) {
		fields["category"] = "unknown category"
	}
	if in.Direction != model.DirectionIncome && in.Direction != model.DirectionExpense {
		fields["type"] = "type must be income or expense"
	}
	if !in.Amount.IsPositive() {
		fields["amount"] = "amount must be greater than zero"
	}
	if in.Status != model.TransactionStatusCompleted && in.Status != model.TransactionStatusPending {
		fields["status"] = "status must be Completed or Pending"
	}
	if in.AccountID == uuid.Nil && in.Account == "" {
		fields["account_id"] = "account is required"
	}
	if !validDepartment(in.Department) {
		fields["department"] = "unknown department"
	}
	if len(fields) > 0 {
		return apperrors.Validation("invalid transaction", fields)
	}
	return nil
}

// TransactionUpdate carries the fields to change; nil fields keep their stored
// value. A non-nil AccountID takes precedence over Account.
type TransactionUpdate struct {
	Date        *time.Time
	Description *string
	Category    *model.Category
	Direction   *model.Direction
	Amount      *decimal.Decimal
	Status      *model.TransactionStatus
	AccountID   *uuid.UUID
	Account     *string
	Client      *string
	Vendor      *string
	Invoice     *string
	Department  *model.Department
	PaymentID   *string
}

// merge overlays the update on the stored transaction.
func (u TransactionUpdate) merge(txn *model.Transaction) TransactionInput {
	in := TransactionInput{
		Date:        txn.Date,
		Description: txn.Description,
		Category:    txn.Category,
		Direction:   txn.Direction,
		Amount:      txn.Amount,
		Status:      txn.Status,
		AccountID:   txn.AccountID,
		Client:      txn.Client,
		Vendor:      txn.Vendor,
		Invoice:     txn.Invoice,
		Department:  txn.Department,
		PaymentID:   txn.PaymentID,
	}
	if u.Date != nil {
		in.Date = *u.Date
	}
	if u.Description != nil {
		in.Description = *u.Description
	}
	if u.Category != nil {
		in.Category = *u.Category
	}
	if u.Direction != nil {
		in.Direction = *u.Direction
	}
	if u.Amount != nil {
		in.Amount = *u.Amount
	}
	if u.Status != nil {
		in.Status = *u.Status
	}
	switch {
	case u.AccountID != nil && *u.AccountID != uuid.Nil:
		in.AccountID = *u.AccountID
	case u.Account != nil:
		in.AccountID = uuid.Nil
		in.Account = *u.Account
	}
	if u.Client != nil {
		in.Client = *u.Client
	}
	if u.Vendor != nil {
		in.Vendor = *u.Vendor
	}
	if u.Invoice != nil {
		in.Invoice = *u.Invoice
	}
	if u.Department != nil {
		in.Department = *u.Department
	}
	if u.PaymentID != nil {
		in.PaymentID = *u.PaymentID
	}
	return in
}

func validCategory(c model.Category) bool {
	switch c {
	case model.CategoryRevenue, model.CategoryPayroll, model.CategoryOperations, model.CategoryIT,
		model.CategoryFacilities, model.CategoryMarketing, model.CategoryTravel, model.CategoryInsurance,
		model.CategoryTax, model.CategoryOther:
		return true
	}
	return false
}

func validDepartment(d model.Department) bool {
	switch d {
	case model.DepartmentFinance, model.DepartmentIT, model.DepartmentOperations, model.DepartmentSales,
		model.DepartmentMarketing, model.DepartmentHR, model.DepartmentAll:
		return true
	}
	return false
}

// LedgerService records transactions and keeps bank balances consistent with
// them. Every mutation runs as one database transaction that locks the
// touched accounts, so no balance change is visible without its ledger row.
type LedgerService interface {
	List(ctx context.Context, caller *policy.Caller) ([]model.Transaction, error)
	Create(ctx context.Context, caller *policy.Caller, in TransactionInput) (*model.Transaction, error)
	// Update merges the changed fields, reverses the stored effect and applies
	// the new one, possibly on a different account.
	Update(ctx context.Context, caller *policy.Caller, id uuid.UUID, u TransactionUpdate) (*model.Transaction, error)
	// Delete reverses the stored effect and removes the row.
	Delete(ctx context.Context, caller *policy.Caller, id uuid.UUID) error
}

type ledgerService struct {
	store repository.Store
	cache *cache.Client
	money *MoneyFormatter
	log   *zap.Logger
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(store repository.Store, cache *cache.Client, money *MoneyFormatter, log *zap.Logger) LedgerService {
	return &ledgerService{
		store: store,
		cache: cache,
		money: money,
		log:   orNop(log).Named("ledger"),
	}
}

func (s *ledgerService) List(ctx context.Context, caller *policy.Caller) ([]model.Transaction, error) {
	if err := authorize(caller, companyScope(caller, policy.KindTransaction), policy.ActionRead); err != nil {
		return nil, err
	}
	txns, err := s.store.Transactions().ListByCompany(ctx, caller.CompanyID)
	if err != nil {
		return nil, storeError(s.log, "list transactions", err, "transaction not found")
	}
	return txns, nil
}

// Create inserts the transaction and applies its effect to the account.
func (s *ledgerService) Create(ctx context.Context, caller *policy.Caller, in TransactionInput) (*model.Transaction, error) {
	if err := authorize(caller, companyScope(caller, policy.KindTransaction), policy.ActionCreate); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	txn := &model.Transaction{CompanyID: caller.CompanyID, Color: in.Category.Color()}
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		accountID, err := s.resolveAccount(ctx, tx, caller.CompanyID, in)
		if err != nil {
			return err
		}
		accounts, err := lockAccounts(ctx, tx, caller.CompanyID, accountID)
		if err != nil {
			return err
		}
		bank := accounts[accountID]
		apply(txn, in, bank)

		balance := bank.CurrentBalance.Add(txn.Effect())
		if balance.IsNegative() {
			return s.insufficient(bank, balance)
		}
		if err := tx.Banks().UpdateBalance(ctx, bank.ID, balance); err != nil {
			return err
		}
		return tx.Transactions().Create(ctx, txn)
	})
	if err != nil {
		return nil, storeError(s.log, "create transaction", err, "bank account not found")
	}

	s.committed(ctx, caller, "created", txn)
	return txn, nil
}

// Update changes the transaction's fields and moves its effect. The row is
// locked before the accounts, so the stored effect cannot change underneath.
func (s *ledgerService) Update(ctx context.Context, caller *policy.Caller, id uuid.UUID, u TransactionUpdate) (*model.Transaction, error) {
	if err := authorize(caller, companyScope(caller, policy.KindTransaction), policy.ActionUpdate); err != nil {
		return nil, err
	}

	var txn *model.Transaction
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		txn, err = lockTransaction(ctx, tx, caller.CompanyID, id)
		if err != nil {
			return err
		}
		in := u.merge(txn)
		if err := in.normalize(); err != nil {
			return err
		}

		newAccountID, err := s.resolveAccount(ctx, tx, caller.CompanyID, in)
		if err != nil {
			return err
		}
		accounts, err := lockAccounts(ctx, tx, caller.CompanyID, txn.AccountID, newAccountID)
		if err != nil {
			return err
		}
		oldBank, newBank := accounts[txn.AccountID], accounts[newAccountID]

		// Final balances are computed and guarded before anything is written.
		reversed := oldBank.CurrentBalance.Sub(txn.Effect())
		apply(txn, in, newBank)
		applied := newBank.CurrentBalance.Add(txn.Effect())
		if oldBank.ID == newBank.ID {
			applied = reversed.Add(txn.Effect())
		} else if reversed.IsNegative() {
			return s.insufficient(oldBank, reversed)
		}
		if applied.IsNegative() {
			return s.insufficient(newBank, applied)
		}

		if err := tx.Banks().UpdateBalance(ctx, oldBank.ID, reversed); err != nil {
			return err
		}
		if err := tx.Banks().UpdateBalance(ctx, newBank.ID, applied); err != nil {
			return err
		}
		return missingTransaction(tx.Transactions().Update(ctx, txn))
	})
	if err != nil {
		return nil, storeError(s.log, "update transaction", err, "bank account not found")
	}

	s.committed(ctx, caller, "updated", txn)
	return txn, nil
}

// Delete removes the transaction and reverses its effect.
func (s *ledgerService) Delete(ctx context.Context, caller *policy.Caller, id uuid.UUID) error {
	if err := authorize(caller, companyScope(caller, policy.KindTransaction), policy.ActionDelete); err != nil {
		return err
	}

	var txn *model.Transaction
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		txn, err = lockTransaction(ctx, tx, caller.CompanyID, id)
		if err != nil {
			return err
		}

		accounts, err := lockAccounts(ctx, tx, caller.CompanyID, txn.AccountID)
		if err != nil {
			return err
		}
		bank := accounts[txn.AccountID]

		reversed := bank.CurrentBalance.Sub(txn.Effect())
		if reversed.IsNegative() {
			return s.insufficient(bank, reversed)
		}
		if err := tx.Banks().UpdateBalance(ctx, bank.ID, reversed); err != nil {
			return err
		}
		return missingTransaction(tx.Transactions().Delete(ctx, txn.ID))
	})
	if err != nil {
		return storeError(s.log, "delete transaction", err, "bank account not found")
	}

	s.committed(ctx, caller, "deleted", txn)
	return nil
}

// resolveAccount returns the account id named by the input, checking that it
// belongs to the company.
func (s *ledgerService) resolveAccount(ctx context.Context, tx repository.Store, companyID string, in TransactionInput) (uuid.UUID, error) {
	if in.AccountID != uuid.Nil {
		return in.AccountID, nil
	}
	bank, err := tx.Banks().FindByName(ctx, companyID, in.Account)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, apperrors.NotFound("bank account not found")
	}
	if err != nil {
		return uuid.Nil, err
	}
	return bank.ID, nil
}

// lockTransaction loads and locks the transaction row. Concurrent updates and
// deletes of the same row wait here, ahead of any account lock.
func lockTransaction(ctx context.Context, tx repository.Store, companyID string, id uuid.UUID) (*model.Transaction, error) {
	txn, err := tx.Transactions().FindByIDForUpdate(ctx, companyID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("transaction not found")
	}
	return txn, err
}

func missingTransaction(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("transaction not found")
	}
	return err
}

// lockAccounts locks the given accounts in a fixed order so that concurrent
// mutations touching the same pair cannot deadlock.
func lockAccounts(ctx context.Context, tx repository.Store, companyID string, ids ...uuid.UUID) (map[uuid.UUID]*model.BankAccount, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Slice(unique, func(i, j int) bool {
		return bytes.Compare(unique[i][:], unique[j][:]) < 0
	})

	accounts := make(map[uuid.UUID]*model.BankAccount, len(unique))
	for _, id := range unique {
		bank, err := tx.Banks().FindByIDForUpdate(ctx, companyID, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("bank account not found")
		}
		if err != nil {
			return nil, err
		}
		accounts[id] = bank
	}
	return accounts, nil
}

// apply copies the input onto txn and points it at bank.
func apply(txn *model.Transaction, in TransactionInput, bank *model.BankAccount) {
	if txn.Category != in.Category {
		txn.Color = in.Category.Color()
	}
	txn.Date = in.Date
	txn.Description = in.Description
	txn.Category = in.Category
	txn.Direction = in.Direction
	txn.Amount = in.Amount
	txn.Status = in.Status
	txn.AccountID = bank.ID
	txn.Account = bank.BankName
	txn.Client = in.Client
	txn.Vendor = in.Vendor
	txn.Invoice = in.Invoice
	txn.Department = in.Department
	txn.PaymentID = in.PaymentID
}

// insufficient reports that the mutation would leave bank at result.
func (s *ledgerService) insufficient(bank *model.BankAccount, result decimal.Decimal) error {
	demanded := bank.CurrentBalance.Sub(result)
	return apperrors.InsufficientFunds(
		"Transaction failed: Demanded amount (" + s.money.Format(demanded) +
			") is bigger than current amount (" + s.money.Format(bank.CurrentBalance) +
			") in " + bank.BankName,
	)
}

func (s *ledgerService) committed(ctx context.Context, caller *policy.Caller, verb string, txn *model.Transaction) {
	invalidateStats(ctx, s.cache, caller.CompanyID)
	s.log.Info("transaction "+verb,
		zap.String("transaction_id", txn.ID.String()),
		zap.String("account_id", txn.AccountID.String()),
		zap.String("type", string(txn.Direction)),
		zap.String("amount", txn.Amount.StringFixed(2)),
		zap.String("by", caller.UserID.String()),
	)
}
