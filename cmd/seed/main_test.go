package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/currency"

	"finhub/internal/repository"
	"finhub/internal/service"
	"finhub/internal/testutil"
)

const fixtureJSON = `{
  "company_id": "COMP_1700000000000_seedtest1",
  "banks": [
    {"bank_name": "HDFC", "ifsc_code": "HDFC0001", "account_number": "111", "account_type": "current", "current_balance": "1000"},
    {"bank_name": "HDFC copy", "ifsc_code": "HDFC0001", "account_number": "111", "account_type": "current", "current_balance": "5"}
  ],
  "transactions": [
    {"date": "2024-01-05", "description": "Invoice 1", "category": "Revenue", "type": "income", "amount": "500", "status": "Completed", "account": "HDFC"},
    {"date": "2024-01-06T10:00:00Z", "description": "Laptop", "category": "IT Expenses", "type": "expense", "amount": "5000", "status": "Pending", "account": "HDFC"},
    {"date": "2024-01-07", "description": "Rent", "category": "Facilities", "type": "expense", "amount": "300", "status": "Completed", "account": "HDFC", "department": "Operations"}
  ]
}`

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(fixtureJSON), 0o600))

	fx, err := loadFixture(path)
	require.NoError(t, err)
	assert.Equal(t, "COMP_1700000000000_seedtest1", fx.CompanyID)
	assert.Len(t, fx.Banks, 2)
	assert.Len(t, fx.Transactions, 3)

	require.NoError(t, os.WriteFile(path, []byte(`{"banks": []}`), 0o600))
	_, err = loadFixture(path)
	assert.Error(t, err)
}

func TestSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(fixtureJSON), 0o600))
	fx, err := loadFixture(path)
	require.NoError(t, err)

	store := repository.NewStore(testutil.NewDB(t))
	money := service.NewMoneyFormatter(currency.INR)
	banks := service.NewBankService(store, nil)
	ledger := service.NewLedgerService(store, nil, money, nil)

	rep, err := seed(context.Background(), banks, ledger, fx, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, report{BanksCreated: 1, BanksExisting: 1, Transactions: 2, Rejected: 1}, rep)

	bank, err := store.Banks().FindByName(context.Background(), fx.CompanyID, "HDFC")
	require.NoError(t, err)
	assert.Equal(t, "1200.00", bank.CurrentBalance.StringFixed(2))
}
