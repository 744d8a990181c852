package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "finhub/internal/errors"
	"finhub/internal/model"
	"finhub/internal/policy"
	"finhub/internal/repository"
)

var errDuplicateAccountNumber = apperrors.Conflict("bank account with this account number already exists")

// BankInput carries the writable fields of a bank account.
type BankInput struct {
	BankName       string
	IFSCCode       string
	AccountNumber  string
	AccountType    model.AccountType
	CurrentBalance decimal.Decimal
}

func (in *BankInput) normalize() error {
	in.BankName = strings.TrimSpace(in.BankName)
	in.IFSCCode = strings.ToUpper(strings.TrimSpace(in.IFSCCode))
	in.AccountNumber = strings.TrimSpace(in.AccountNumber)

	fields := map[string]string{}
	if in.BankName == "" {
		fields["bank_name"] = "bank name is required"
	}
	if in.IFSCCode == "" {
		fields["ifsc_code"] = "IFSC code is required"
	}
	if in.AccountNumber == "" {
		fields["account_number"] = "account number is required"
	}
	if in.AccountType != model.AccountTypeSaving && in.AccountType != model.AccountTypeCurrent {
		fields["account_type"] = "account type must be either saving or current"
	}
	if in.CurrentBalance.IsNegative() {
		fields["current_balance"] = "current balance must be a non-negative number"
	}
	if len(fields) > 0 {
		return apperrors.Validation("invalid bank account", fields)
	}
	return nil
}

// BankService manages a company's bank accounts.
type BankService interface {
	List(ctx context.Context, caller *policy.Caller) ([]model.BankAccount, error)
	Create(ctx context.Context, caller *policy.Caller, in BankInput) (*model.BankAccount, error)
	// Update rewrites every field, including a direct balance correction.
	Update(ctx context.Context, caller *policy.Caller, id uuid.UUID, in BankInput) (*model.BankAccount, error)
	// Delete fails with Conflict while transactions still reference the account.
	Delete(ctx context.Context, caller *policy.Caller, id uuid.UUID) error
}

type bankService struct {
	store repository.Store
	log   *zap.Logger
}

// NewBankService creates a new bank account service.
func NewBankService(store repository.Store, log *zap.Logger) BankService {
	return &bankService{store: store, log: orNop(log).Named("banks")}
}

func (s *bankService) List(ctx context.Context, caller *policy.Caller) ([]model.BankAccount, error) {
	if err := authorize(caller, companyScope(caller, policy.KindBank), policy.ActionRead); err != nil {
		return nil, err
	}
	banks, err := s.store.Banks().ListByCompany(ctx, caller.CompanyID)
	if err != nil {
		return nil, storeError(s.log, "list banks", err, "bank not found")
	}
	return banks, nil
}

func (s *bankService) Create(ctx context.Context, caller *policy.Caller, in BankInput) (*model.BankAccount, error) {
	if err := authorize(caller, companyScope(caller, policy.KindBank), policy.ActionCreate); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	exists, err := s.store.Banks().ExistsAccountNumber(ctx, caller.CompanyID, in.AccountNumber, uuid.Nil)
	if err != nil {
		return nil, storeError(s.log, "check account number", err, "bank not found")
	}
	if exists {
		return nil, errDuplicateAccountNumber
	}

	bank := &model.BankAccount{
		CompanyID:      caller.CompanyID,
		BankName:       in.BankName,
		IFSCCode:       in.IFSCCode,
		AccountNumber:  in.AccountNumber,
		AccountType:    in.AccountType,
		CurrentBalance: in.CurrentBalance,
	}
	if err := s.store.Banks().Create(ctx, bank); err != nil {
		// The unique index catches inserts that raced past the existence check.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errDuplicateAccountNumber
		}
		return nil, storeError(s.log, "create bank", err, "bank not found")
	}

	return bank, nil
}

func (s *bankService) Update(ctx context.Context, caller *policy.Caller, id uuid.UUID, in BankInput) (*model.BankAccount, error) {
	if err := authorize(caller, companyScope(caller, policy.KindBank), policy.ActionUpdate); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var bank *model.BankAccount
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		bank, err = tx.Banks().FindByIDForUpdate(ctx, caller.CompanyID, id)
		if err != nil {
			return err
		}

		if bank.AccountNumber != in.AccountNumber {
			exists, err := tx.Banks().ExistsAccountNumber(ctx, caller.CompanyID, in.AccountNumber, id)
			if err != nil {
				return err
			}
			if exists {
				return errDuplicateAccountNumber
			}
		}

		bank.BankName = in.BankName
		bank.IFSCCode = in.IFSCCode
		bank.AccountNumber = in.AccountNumber
		bank.AccountType = in.AccountType
		if err := tx.Banks().Update(ctx, bank); err != nil {
			return err
		}
		if !bank.CurrentBalance.Equal(in.CurrentBalance) {
			s.log.Info("bank balance corrected",
				zap.String("bank_id", id.String()),
				zap.String("from", bank.CurrentBalance.StringFixed(2)),
				zap.String("to", in.CurrentBalance.StringFixed(2)),
				zap.String("by", caller.UserID.String()),
			)
			bank.CurrentBalance = in.CurrentBalance
			return tx.Banks().UpdateBalance(ctx, id, in.CurrentBalance)
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, errDuplicateAccountNumber
	}
	if err != nil {
		return nil, storeError(s.log, "update bank", err, "bank not found")
	}

	return bank, nil
}

func (s *bankService) Delete(ctx context.Context, caller *policy.Caller, id uuid.UUID) error {
	if err := authorize(caller, companyScope(caller, policy.KindBank), policy.ActionDelete); err != nil {
		return err
	}

	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Banks().FindByIDForUpdate(ctx, caller.CompanyID, id); err != nil {
			return err
		}
		refs, err := tx.Transactions().CountByAccount(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return apperrors.Conflict("bank account is referenced by transactions")
		}
		return tx.Banks().Delete(ctx, caller.CompanyID, id)
	})
	if err != nil {
		return storeError(s.log, "delete bank", err, "bank not found")
	}

	return nil
}
