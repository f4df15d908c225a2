package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arcadia-exchange/arcadia-options/internal/model"
	"github.com/arcadia-exchange/arcadia-options/internal/repository"
	errs "github.com/arcadia-exchange/arcadia-options/pkg/errors"
)

type balanceFixture struct {
	balanceRepo *mockBalanceRepo
	txRepo      *mockTransactionRepo
	svc         BalanceService
}

func newBalanceFixture() *balanceFixture {
	f := &balanceFixture{
		balanceRepo: &mockBalanceRepo{},
		txRepo:      &mockTransactionRepo{},
	}
	f.svc = NewBalanceService(f.balanceRepo, f.txRepo, newStubSymbols(), noopBalancePublisher{})
	return f
}

func TestGetBalance_ZeroValuedWhenAbsent(t *testing.T) {
	f := newBalanceFixture()

	f.balanceRepo.On("GetByUserSymbol", mock.Anything, "u1", "BTCUSDT").
		Return(nil, repository.ErrBalanceNotFound)

	balance, err := f.svc.GetBalance(context.Background(), "u1", "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, balance.Available.IsZero())
	assert.True(t, balance.Locked.IsZero())
	assert.Equal(t, "u1", balance.UserID)
}

func TestDeposit_Success(t *testing.T) {
	f := newBalanceFixture()

	f.balanceRepo.On("Credit", mock.Anything, "u1", "BTCUSDT",
		decEq(decimal.NewFromInt(500))).Return(nil)
	f.txRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *model.Transaction) bool {
		return tx.Type == model.TransactionTypeDeposit &&
			tx.Amount.Equal(decimal.NewFromInt(500)) &&
			tx.ReferenceID != ""
	})).Return(nil)

	tx, err := f.svc.Deposit(context.Background(), "u1", "BTCUSDT", decimal.NewFromInt(500))
	require.NoError(t, err)
	assert.Equal(t, model.TransactionTypeDeposit, tx.Type)

	f.balanceRepo.AssertExpectations(t)
	f.txRepo.AssertExpectations(t)
}

func TestDeposit_RejectsNonPositive(t *testing.T) {
	f := newBalanceFixture()

	_, err := f.svc.Deposit(context.Background(), "u1", "BTCUSDT", decimal.Zero)
	assert.True(t, errs.Is(err, errs.ErrInvalidAmount))

	_, err = f.svc.Deposit(context.Background(), "u1", "BTCUSDT", decimal.NewFromInt(-10))
	assert.True(t, errs.Is(err, errs.ErrInvalidAmount))
}

func TestDeposit_UnknownSymbol(t *testing.T) {
	f := newBalanceFixture()

	_, err := f.svc.Deposit(context.Background(), "u1", "DOGEUSDT", decimal.NewFromInt(100))
	assert.True(t, errs.Is(err, errs.ErrInvalidSymbol))
}

func TestWithdraw_Insufficient(t *testing.T) {
	f := newBalanceFixture()

	f.balanceRepo.On("Debit", mock.Anything, "u1", "BTCUSDT", mock.Anything).
		Return(repository.ErrInsufficientBalance)

	_, err := f.svc.Withdraw(context.Background(), "u1", "BTCUSDT", decimal.NewFromInt(100))
	assert.True(t, errs.Is(err, errs.ErrInsufficientBalance))

	// 扣款失败则不得写流水
	f.txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWithdraw_Success(t *testing.T) {
	f := newBalanceFixture()

	f.balanceRepo.On("Debit", mock.Anything, "u1", "BTCUSDT",
		decEq(decimal.NewFromInt(200))).Return(nil)
	f.txRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *model.Transaction) bool {
		return tx.Type == model.TransactionTypeWithdraw &&
			tx.Amount.Equal(decimal.NewFromInt(200))
	})).Return(nil)

	tx, err := f.svc.Withdraw(context.Background(), "u1", "BTCUSDT", decimal.NewFromInt(200))
	require.NoError(t, err)
	assert.Equal(t, model.TransactionTypeWithdraw, tx.Type)
}
