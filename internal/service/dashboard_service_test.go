package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "finhub/internal/errors"
	"finhub/internal/model"
)

func TestDashboardService_Stats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ledger := NewLedgerService(f.store, nil, f.money, nil)
	svc := NewDashboardService(f.store, nil, f.money, nil)

	a := f.addBank(f.admin, "HDFC", "1000")
	f.addBank(f.admin, "ICICI", "500")
	f.addBank(f.outsider, "SBI", "99999")

	_, err := ledger.Create(ctx, f.admin, txnInput(a, model.DirectionIncome, "300"))
	require.NoError(t, err)
	pending := txnInput(a, model.DirectionExpense, "120.50")
	pending.Status = model.TransactionStatusPending
	_, err = ledger.Create(ctx, f.admin, pending)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, f.employee)
	require.NoError(t, err)
	assert.Equal(t, "INR", stats.Currency)
	assert.Equal(t, "300.00", stats.TotalIncome.StringFixed(2))
	assert.Equal(t, "120.50", stats.TotalExpense.StringFixed(2))
	assert.Equal(t, "179.50", stats.NetIncome.StringFixed(2))
	assert.Equal(t, int64(1), stats.PendingCount)
	assert.Equal(t, int64(1), stats.CompletedCount)
	assert.Equal(t, int64(2), stats.BankCount)
	assert.Equal(t, "1679.50", stats.TotalBalance.StringFixed(2))

	_, err = svc.Stats(ctx, nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestMoneyFormatter(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "INR 1,234,567.50", f.money.Format(decimalOf("1234567.5")))
	assert.Equal(t, "INR 0.00", f.money.Format(decimalOf("0")))
	assert.Equal(t, "INR 0.01", f.money.Format(decimalOf("0.005")))
	assert.Equal(t, "INR -1,500.25", f.money.Format(decimalOf("-1500.25")))

	// Beyond float64 precision the cents must survive.
	assert.Equal(t, "INR 123,456,789,012,345,678.91", f.money.Format(decimalOf("123456789012345678.91")))
	assert.Equal(t, "INR 9,007,199,254,740,993.07", f.money.Format(decimalOf("9007199254740993.07")))
}
