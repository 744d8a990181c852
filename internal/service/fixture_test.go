package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"

	"finhub/internal/model"
	"finhub/internal/policy"
	"finhub/internal/repository"
	"finhub/internal/testutil"
)

// fixture is a migrated SQLite store with two companies.
type fixture struct {
	t     *testing.T
	store repository.Store
	money *MoneyFormatter

	admin    *policy.Caller
	employee *policy.Caller
	outsider *policy.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:     t,
		store: repository.NewStore(testutil.NewDB(t)),
		money: NewMoneyFormatter(currency.INR),
	}
	f.admin = policy.CallerFromUser(f.addUser("COMP_A", model.RoleAdmin, model.ApprovalApproved))
	f.employee = policy.CallerFromUser(f.addUser("COMP_A", model.RoleEmployee, model.ApprovalApproved))
	f.outsider = policy.CallerFromUser(f.addUser("COMP_B", model.RoleAdmin, model.ApprovalApproved))
	return f
}

func (f *fixture) addUser(companyID string, role model.Role, status model.ApprovalStatus) *model.User {
	f.t.Helper()
	id := uuid.New()
	user := &model.User{
		ID:             id,
		Name:           string(role) + "-" + id.String()[:8],
		Email:          id.String() + "@example.com",
		PasswordHash:   "x",
		Role:           role,
		CompanyID:      companyID,
		CompanyName:    companyID,
		IsActive:       true,
		ApprovalStatus: status,
	}
	require.NoError(f.t, f.store.Users().Create(context.Background(), user))
	return user
}

func (f *fixture) addBank(caller *policy.Caller, name, balance string) *model.BankAccount {
	f.t.Helper()
	bank := &model.BankAccount{
		CompanyID:      caller.CompanyID,
		BankName:       name,
		IFSCCode:       "HDFC0001234",
		AccountNumber:  uuid.NewString()[:12],
		AccountType:    model.AccountTypeCurrent,
		CurrentBalance: decimal.RequireFromString(balance),
	}
	require.NoError(f.t, f.store.Banks().Create(context.Background(), bank))
	return bank
}

func (f *fixture) balance(bank *model.BankAccount) string {
	f.t.Helper()
	got, err := f.store.Banks().FindByID(context.Background(), bank.CompanyID, bank.ID)
	require.NoError(f.t, err)
	return got.CurrentBalance.StringFixed(2)
}

// faultyStore fails the failOn-th UpdateBalance made through it.
type faultyStore struct {
	repository.Store
	failOn int
	calls  *int
}

func newFaultyStore(inner repository.Store, failOn int) faultyStore {
	return faultyStore{Store: inner, failOn: failOn, calls: new(int)}
}

func (s faultyStore) Banks() repository.BankRepository {
	return faultyBanks{BankRepository: s.Store.Banks(), store: s}
}

func (s faultyStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) error {
	return s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return fn(ctx, faultyStore{Store: tx, failOn: s.failOn, calls: s.calls})
	})
}

type faultyBanks struct {
	repository.BankRepository
	store faultyStore
}

func (b faultyBanks) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	*b.store.calls++
	if *b.store.calls == b.store.failOn {
		return errors.New("injected failure")
	}
	return b.BankRepository.UpdateBalance(ctx, id, balance)
}

func decimalOf(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// racingStore lets a competing writer commit while a ledger unit runs. After a
// plain read of a transaction row the competitor lands immediately, as READ
// COMMITTED allows; after a locking read it waits for the unit to finish.
type racingStore struct {
	repository.Store
	race *race
}

type race struct {
	compete func(ctx context.Context, store repository.Store) error
	done    bool
	blocked bool
	err     error
}

func newRacingStore(inner repository.Store, compete func(ctx context.Context, store repository.Store) error) racingStore {
	return racingStore{Store: inner, race: &race{compete: compete}}
}

func (s racingStore) Transactions() repository.TransactionRepository {
	return racingTransactions{TransactionRepository: s.Store.Transactions(), store: s}
}

func (s racingStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) error {
	err := s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return fn(ctx, racingStore{Store: tx, race: s.race})
	})
	if s.race.blocked && !s.race.done {
		s.race.done = true
		s.race.err = s.Store.WithTransaction(ctx, s.race.compete)
	}
	return err
}

type racingTransactions struct {
	repository.TransactionRepository
	store racingStore
}

func (r racingTransactions) FindByID(ctx context.Context, companyID string, id uuid.UUID) (*model.Transaction, error) {
	txn, err := r.TransactionRepository.FindByID(ctx, companyID, id)
	if !r.store.race.done {
		r.store.race.done = true
		r.store.race.err = r.store.race.compete(ctx, r.store.Store)
	}
	return txn, err
}

func (r racingTransactions) FindByIDForUpdate(ctx context.Context, companyID string, id uuid.UUID) (*model.Transaction, error) {
	r.store.race.blocked = true
	return r.TransactionRepository.FindByIDForUpdate(ctx, companyID, id)
}

// deleteTransaction is a competing writer that reverses and removes a transaction.
func deleteTransaction(companyID string, id uuid.UUID) func(ctx context.Context, store repository.Store) error {
	return func(ctx context.Context, store repository.Store) error {
		txn, err := store.Transactions().FindByID(ctx, companyID, id)
		if err != nil {
			return err
		}
		bank, err := store.Banks().FindByID(ctx, companyID, txn.AccountID)
		if err != nil {
			return err
		}
		if err := store.Banks().UpdateBalance(ctx, bank.ID, bank.CurrentBalance.Sub(txn.Effect())); err != nil {
			return err
		}
		return store.Transactions().Delete(ctx, txn.ID)
	}
}
