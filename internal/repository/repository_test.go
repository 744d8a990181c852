package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"finhub/internal/model"
	"finhub/internal/testutil"
)

func newBank(companyID, number string, balance int64) *model.BankAccount {
	return &model.BankAccount{
		CompanyID:      companyID,
		BankName:       "HDFC " + number,
		IFSCCode:       "HDFC0001",
		AccountNumber:  number,
		AccountType:    model.AccountTypeCurrent,
		CurrentBalance: decimal.NewFromInt(balance),
	}
}

func TestBankRepository_DuplicateAccountNumber(t *testing.T) {
	store := NewStore(testutil.NewDB(t))
	ctx := context.Background()

	require.NoError(t, store.Banks().Create(ctx, newBank("COMP_A", "111", 0)))

	err := store.Banks().Create(ctx, newBank("COMP_A", "111", 0))
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	// Same number in another company is allowed.
	require.NoError(t, store.Banks().Create(ctx, newBank("COMP_B", "111", 0)))

	exists, err := store.Banks().ExistsAccountNumber(ctx, "COMP_A", "111", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBankRepository_CompanyScoping(t *testing.T) {
	store := NewStore(testutil.NewDB(t))
	ctx := context.Background()

	bank := newBank("COMP_A", "222", 500)
	require.NoError(t, store.Banks().Create(ctx, bank))

	_, err := store.Banks().FindByID(ctx, "COMP_B", bank.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = store.Banks().Delete(ctx, "COMP_B", bank.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err := store.Banks().FindByIDForUpdate(ctx, "COMP_A", bank.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(found.CurrentBalance))
}

func TestBankRepository_UpdateKeepsBalance(t *testing.T) {
	store := NewStore(testutil.NewDB(t))
	ctx := context.Background()

	bank := newBank("COMP_A", "333", 750)
	require.NoError(t, store.Banks().Create(ctx, bank))

	bank.BankName = "Renamed"
	bank.CurrentBalance = decimal.NewFromInt(1)
	require.NoError(t, store.Banks().Update(ctx, bank))

	found, err := store.Banks().FindByID(ctx, "COMP_A", bank.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", found.BankName)
	assert.True(t, decimal.NewFromInt(750).Equal(found.CurrentBalance))
}

func TestBankRepository_TotalBalance(t *testing.T) {
	store := NewStore(testutil.NewDB(t))
	ctx := context.Background()

	require.NoError(t, store.Banks().Create(ctx, newBank("COMP_A", "1", 1000)))
	require.NoError(t, store.Banks().Create(ctx, newBank("COMP_A", "2", 250)))
	require.NoError(t, store.Banks().Create(ctx, newBank("COMP_B", "3", 99)))

	total, count, err := store.Banks().TotalBalance(ctx, "COMP_A")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.True(t, decimal.NewFromInt(1250).Equal(total), total.String())
}

func TestTransactionRepository_Totals(t *testing.T) {
	store := NewStore(testutil.NewDB(t))
	ctx := context.Background()

	add := func(dir model.Direction, status model.TransactionStatus, amount int64) {
		require.NoError(t, store.Transactions().Create(ctx, &model.Transaction{
			CompanyID:   "COMP_A",
			Date:        time.Now(),
			Description: "entry",
			Category:    model.CategoryOther,
			Direction:   dir,
			Amount:      decimal.NewFromInt(amount),
			Status:      status,
			AccountID:   uuid.New(),
			Account:     "HDFC",
			Color:       model.DefaultColor,
			Department:  model.DepartmentAll,
		}))
	}
	add(model.DirectionIncome, model.TransactionStatusCompleted, 300)
	add(model.DirectionIncome, model.TransactionStatusPending, 200)
	add(model.DirectionExpense, model.TransactionStatusCompleted, 120)

	totals, err := store.Transactions().Totals(ctx, "COMP_A")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(totals.Income), totals.Income.String())
	assert.True(t, decimal.NewFromInt(120).Equal(totals.Expense), totals.Expense.String())
	assert.Equal(t, int64(1), totals.Pending)
	assert.Equal(t, int64(2), totals.Completed)

	empty, err := store.Transactions().Totals(ctx, "COMP_EMPTY")
	require.NoError(t, err)
	assert.True(t, empty.Income.IsZero())
}

func TestUserRepository_ListByCompanyPendingFirst(t *testing.T) {
	store := NewStore(testutil.NewDB(t))
	ctx := context.Background()

	approved := &model.User{Email: "a@x.io", Role: model.RoleAdmin, CompanyID: "COMP_A", CompanyName: "Acme", IsActive: true, ApprovalStatus: model.ApprovalApproved, PasswordHash: "h"}
	pending := &model.User{Email: "p@x.io", Role: model.RoleEmployee, CompanyID: "COMP_A", CompanyName: "Acme", IsActive: true, ApprovalStatus: model.ApprovalPending, PasswordHash: "h"}
	other := &model.User{Email: "o@x.io", Role: model.RoleEmployee, CompanyID: "COMP_B", CompanyName: "Other", IsActive: true, ApprovalStatus: model.ApprovalPending, PasswordHash: "h"}
	for _, u := range []*model.User{approved, pending, other} {
		require.NoError(t, store.Users().Create(ctx, u))
	}

	users, err := store.Users().ListByCompany(ctx, "COMP_A")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, pending.ID, users[0].ID)
	assert.Equal(t, approved.ID, users[1].ID)

	subset, err := store.Users().FindByIDs(ctx, "COMP_A", []uuid.UUID{approved.ID, other.ID})
	require.NoError(t, err)
	require.Len(t, subset, 1)
	assert.Equal(t, approved.ID, subset[0].ID)
}

func TestProjectRepository_MembershipAndArchive(t *testing.T) {
	store := NewStore(testutil.NewDB(t))
	ctx := context.Background()

	head := &model.User{Email: "h@x.io", Role: model.RoleEmployee, CompanyID: "COMP_A", CompanyName: "Acme", IsActive: true, ApprovalStatus: model.ApprovalApproved, PasswordHash: "h"}
	member := &model.User{Email: "m@x.io", Role: model.RoleEmployee, CompanyID: "COMP_A", CompanyName: "Acme", IsActive: true, ApprovalStatus: model.ApprovalApproved, PasswordHash: "h"}
	outsider := &model.User{Email: "out@x.io", Role: model.RoleEmployee, CompanyID: "COMP_A", CompanyName: "Acme", IsActive: true, ApprovalStatus: model.ApprovalApproved, PasswordHash: "h"}
	for _, u := range []*model.User{head, member, outsider} {
		require.NoError(t, store.Users().Create(ctx, u))
	}

	project := &model.Project{
		CompanyID:   "COMP_A",
		Name:        "Website",
		Description: "Rebuild",
		StartDate:   time.Now(),
		EndDate:     time.Now().Add(24 * time.Hour),
		ClientName:  "Globex",
		HeadID:      head.ID,
		Employees:   []model.User{*member},
	}
	require.NoError(t, store.Projects().Create(ctx, project))

	for _, tc := range []struct {
		name string
		id   uuid.UUID
		want int
	}{
		{"everyone", uuid.Nil, 1},
		{"head", head.ID, 1},
		{"employee", member.ID, 1},
		{"outsider", outsider.ID, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			list, err := store.Projects().ListByCompany(ctx, "COMP_A", tc.id)
			require.NoError(t, err)
			assert.Len(t, list, tc.want)
		})
	}

	found, err := store.Projects().FindByID(ctx, "COMP_A", project.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Head)
	assert.Equal(t, head.ID, found.Head.ID)
	require.Len(t, found.Employees, 1)
	assert.Equal(t, member.ID, found.Employees[0].ID)

	require.NoError(t, store.Projects().Archive(ctx, project.ID))
	_, err = store.Projects().FindByID(ctx, "COMP_A", project.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestStore_WithTransactionRollsBack(t *testing.T) {
	store := NewStore(testutil.NewDB(t))
	ctx := context.Background()

	bank := newBank("COMP_A", "444", 100)
	require.NoError(t, store.Banks().Create(ctx, bank))

	boom := errors.New("boom")
	err := store.WithTransaction(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.Banks().UpdateBalance(ctx, bank.ID, decimal.NewFromInt(5)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	found, err := store.Banks().FindByID(ctx, "COMP_A", bank.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(found.CurrentBalance))
}

func TestTransactionRepository_UpdateNeverInserts(t *testing.T) {
	store := NewStore(testutil.NewDB(t))
	ctx := context.Background()

	txn := &model.Transaction{
		CompanyID:   "COMP_A",
		Date:        time.Now(),
		Description: "entry",
		Category:    model.CategoryOther,
		Direction:   model.DirectionIncome,
		Amount:      decimal.NewFromInt(2000),
		Status:      model.TransactionStatusCompleted,
		AccountID:   uuid.New(),
		Account:     "HDFC",
		Color:       model.DefaultColor,
		Department:  model.DepartmentAll,
	}
	require.NoError(t, store.Transactions().Create(ctx, txn))

	locked, err := store.Transactions().FindByIDForUpdate(ctx, "COMP_A", txn.ID)
	require.NoError(t, err)
	_, err = store.Transactions().FindByIDForUpdate(ctx, "COMP_B", txn.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Rewriting identical values still counts as a matched row.
	require.NoError(t, store.Transactions().Update(ctx, locked))
	locked.Amount = decimal.NewFromInt(100)
	require.NoError(t, store.Transactions().Update(ctx, locked))
	found, err := store.Transactions().FindByID(ctx, "COMP_A", txn.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(found.Amount), found.Amount.String())

	require.NoError(t, store.Transactions().Delete(ctx, txn.ID))
	err = store.Transactions().Update(ctx, locked)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	list, err := store.Transactions().ListByCompany(ctx, "COMP_A")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTaskRepository_UpdateNeverInserts(t *testing.T) {
	store := NewStore(testutil.NewDB(t))
	ctx := context.Background()

	head := &model.User{Email: "h@x.io", Role: model.RoleEmployee, CompanyID: "COMP_A", CompanyName: "Acme", IsActive: true, ApprovalStatus: model.ApprovalApproved, PasswordHash: "h"}
	require.NoError(t, store.Users().Create(ctx, head))
	project := &model.Project{
		CompanyID:   "COMP_A",
		Name:        "Website",
		Description: "Rebuild",
		StartDate:   time.Now(),
		EndDate:     time.Now().Add(24 * time.Hour),
		ClientName:  "Globex",
		HeadID:      head.ID,
	}
	require.NoError(t, store.Projects().Create(ctx, project))

	task := &model.Task{ProjectID: project.ID, Name: "Design", Status: model.TaskStatusToDo}
	require.NoError(t, store.Tasks().Create(ctx, task))

	task.Name = "Design review"
	task.AssigneeID = &head.ID
	require.NoError(t, store.Tasks().Update(ctx, task))
	found, err := store.Tasks().FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Design review", found.Name)
	require.NotNil(t, found.AssigneeID)
	assert.Equal(t, head.ID, *found.AssigneeID)

	// Clearing a pointer column is written as NULL.
	found.AssigneeID = nil
	found.Assignee = nil
	require.NoError(t, store.Tasks().Update(ctx, found))
	found, err = store.Tasks().FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, found.AssigneeID)

	require.NoError(t, store.Tasks().Delete(ctx, task.ID))
	assert.ErrorIs(t, store.Tasks().Update(ctx, task), gorm.ErrRecordNotFound)
	_, err = store.Tasks().FindByID(ctx, task.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
