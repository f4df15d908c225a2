package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arcadia-exchange/arcadia-options/internal/model"
	"github.com/arcadia-exchange/arcadia-options/internal/repository"
	errs "github.com/arcadia-exchange/arcadia-options/pkg/errors"
)

type tradeFixture struct {
	tradeRepo   *mockTradeRepo
	balanceRepo *mockBalanceRepo
	prices      *mockPriceProvider
	svc         TradeService
}

func newTradeFixture() *tradeFixture {
	f := &tradeFixture{
		tradeRepo:   &mockTradeRepo{},
		balanceRepo: &mockBalanceRepo{},
		prices:      &mockPriceProvider{},
	}
	f.svc = NewTradeService(f.tradeRepo, f.balanceRepo, f.prices,
		newStubSymbols(), &stubIDGen{}, noopTradePublisher{})
	return f
}

func validCreateRequest() *CreateTradeRequest {
	return &CreateTradeRequest{
		UserID:    "u1",
		Symbol:    "BTCUSDT",
		Direction: model.TradeDirectionUp,
		Amount:    decimal.NewFromInt(100),
		Duration:  60,
	}
}

func TestCreateTrade_Success(t *testing.T) {
	f := newTradeFixture()

	f.prices.On("GetLastPrice", mock.Anything, "BTCUSDT").
		Return(decimal.NewFromInt(50000), nil)
	f.balanceRepo.On("Lock", mock.Anything, "u1", "BTCUSDT",
		decEq(decimal.NewFromInt(100))).Return(nil)
	f.tradeRepo.On("Create", mock.Anything, mock.MatchedBy(func(tr *model.OptionTrade) bool {
		return tr.UserID == "u1" &&
			tr.Status == model.TradeStatusPending &&
			tr.EntryPrice.Equal(decimal.NewFromInt(50000)) &&
			strings.HasPrefix(tr.TradeID, "T")
	})).Return(nil)

	trade, err := f.svc.CreateTrade(context.Background(), validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, model.TradeStatusPending, trade.Status)
	assert.Equal(t, 60, trade.Duration)
	// 到期时间 = 创建时间 + 期限
	assert.InDelta(t, time.Now().UnixMilli()+60000, trade.ExpiresAt, 2000)

	f.balanceRepo.AssertExpectations(t)
	f.tradeRepo.AssertExpectations(t)
}

func TestCreateTrade_Validation(t *testing.T) {
	f := newTradeFixture()

	tests := []struct {
		name    string
		mutate  func(*CreateTradeRequest)
		wantErr *errs.Error
	}{
		{"未知交易对", func(r *CreateTradeRequest) { r.Symbol = "DOGEUSDT" }, errs.ErrInvalidSymbol},
		{"方向无效", func(r *CreateTradeRequest) { r.Direction = 9 }, errs.ErrInvalidDirection},
		{"期限非正", func(r *CreateTradeRequest) { r.Duration = 0 }, errs.ErrInvalidDuration},
		{"金额为零", func(r *CreateTradeRequest) { r.Amount = decimal.Zero }, errs.ErrInvalidAmount},
		{"低于最小下注额", func(r *CreateTradeRequest) { r.Amount = decimal.NewFromInt(5) }, errs.ErrInvalidAmount},
		{"超过最大下注额", func(r *CreateTradeRequest) { r.Amount = decimal.NewFromInt(20000) }, errs.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(req)
			_, err := f.svc.CreateTrade(context.Background(), req)
			assert.True(t, errs.Is(err, tt.wantErr))
		})
	}
}

func TestCreateTrade_InsufficientBalance(t *testing.T) {
	f := newTradeFixture()

	f.prices.On("GetLastPrice", mock.Anything, "BTCUSDT").
		Return(decimal.NewFromInt(50000), nil)
	f.balanceRepo.On("Lock", mock.Anything, "u1", "BTCUSDT", mock.Anything).
		Return(repository.ErrInsufficientBalance)

	_, err := f.svc.CreateTrade(context.Background(), validCreateRequest())
	assert.True(t, errs.Is(err, errs.ErrInsufficientBalance))

	// 锁定失败则不得插入交易记录
	f.tradeRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateTrade_PriceUnavailable(t *testing.T) {
	f := newTradeFixture()

	f.prices.On("GetLastPrice", mock.Anything, "BTCUSDT").
		Return(decimal.Zero, assert.AnError)

	_, err := f.svc.CreateTrade(context.Background(), validCreateRequest())
	assert.True(t, errs.Is(err, errs.ErrPriceUnavailable))

	f.balanceRepo.AssertNotCalled(t, "Lock",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelTrade_Success(t *testing.T) {
	f := newTradeFixture()

	trade := pendingTrade()
	trade.ExpiresAt = time.Now().UnixMilli() + 60000

	f.tradeRepo.On("GetByTradeID", mock.Anything, "T100").Return(trade, nil)
	f.tradeRepo.On("MarkCancelled", mock.Anything, "T100", mock.Anything).Return(nil)
	f.balanceRepo.On("Unlock", mock.Anything, "u1", "BTCUSDT",
		decEq(decimal.NewFromInt(100))).Return(nil)

	cancelled, err := f.svc.CancelTrade(context.Background(), "u1", "T100")
	require.NoError(t, err)
	assert.Equal(t, model.TradeStatusCancelled, cancelled.Status)

	f.balanceRepo.AssertExpectations(t)
}

func TestCancelTrade_NotOwner(t *testing.T) {
	f := newTradeFixture()

	trade := pendingTrade()
	trade.ExpiresAt = time.Now().UnixMilli() + 60000

	f.tradeRepo.On("GetByTradeID", mock.Anything, "T100").Return(trade, nil)

	// 他人的交易按不存在处理
	_, err := f.svc.CancelTrade(context.Background(), "u2", "T100")
	assert.True(t, errs.Is(err, errs.ErrTradeNotFound))
}

func TestCancelTrade_Expired(t *testing.T) {
	f := newTradeFixture()

	trade := pendingTrade() // ExpiresAt 已过期

	f.tradeRepo.On("GetByTradeID", mock.Anything, "T100").Return(trade, nil)

	_, err := f.svc.CancelTrade(context.Background(), "u1", "T100")
	assert.True(t, errs.Is(err, errs.ErrTradeNotCancellable))

	f.balanceRepo.AssertNotCalled(t, "Unlock",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelTrade_AlreadySettled(t *testing.T) {
	f := newTradeFixture()

	trade := pendingTrade()
	trade.Status = model.TradeStatusCompleted
	trade.ExpiresAt = time.Now().UnixMilli() + 60000

	f.tradeRepo.On("GetByTradeID", mock.Anything, "T100").Return(trade, nil)

	_, err := f.svc.CancelTrade(context.Background(), "u1", "T100")
	assert.True(t, errs.Is(err, errs.ErrTradeNotCancellable))
}

func TestCancelTrade_RacedWithSettlement(t *testing.T) {
	f := newTradeFixture()

	trade := pendingTrade()
	trade.ExpiresAt = time.Now().UnixMilli() + 60000

	f.tradeRepo.On("GetByTradeID", mock.Anything, "T100").Return(trade, nil)
	// 读取后被并发结算抢先, CAS 未命中
	f.tradeRepo.On("MarkCancelled", mock.Anything, "T100", mock.Anything).
		Return(repository.ErrOptimisticLock)

	_, err := f.svc.CancelTrade(context.Background(), "u1", "T100")
	assert.True(t, errs.Is(err, errs.ErrTradeNotCancellable))

	f.balanceRepo.AssertNotCalled(t, "Unlock",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetTrade_NotOwner(t *testing.T) {
	f := newTradeFixture()

	f.tradeRepo.On("GetByTradeID", mock.Anything, "T100").Return(pendingTrade(), nil)

	_, err := f.svc.GetTrade(context.Background(), "u2", "T100")
	assert.True(t, errs.Is(err, errs.ErrTradeNotFound))
}
