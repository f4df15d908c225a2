package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/arcadia-exchange/arcadia-options/internal/model"
	"github.com/arcadia-exchange/arcadia-options/internal/repository"
)

// mockTradeRepo TradeRepository 测试替身
type mockTradeRepo struct {
	mock.Mock
}

func (m *mockTradeRepo) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *mockTradeRepo) Create(ctx context.Context, trade *model.OptionTrade) error {
	args := m.Called(ctx, trade)
	return args.Error(0)
}

func (m *mockTradeRepo) GetByTradeID(ctx context.Context, tradeID string) (*model.OptionTrade, error) {
	args := m.Called(ctx, tradeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OptionTrade), args.Error(1)
}

func (m *mockTradeRepo) ListByUser(ctx context.Context, userID string, filter *repository.TradeFilter, page *repository.Pagination) ([]*model.OptionTrade, error) {
	args := m.Called(ctx, userID, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.OptionTrade), args.Error(1)
}

func (m *mockTradeRepo) ListExpiredPending(ctx context.Context, nowMilli int64, limit int) ([]*model.OptionTrade, error) {
	args := m.Called(ctx, nowMilli, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.OptionTrade), args.Error(1)
}

func (m *mockTradeRepo) MarkCompleted(ctx context.Context, tradeID string, exitPrice, profit decimal.Decimal, isWin bool, settledAt int64) error {
	args := m.Called(ctx, tradeID, exitPrice, profit, isWin, settledAt)
	return args.Error(0)
}

func (m *mockTradeRepo) MarkCancelled(ctx context.Context, tradeID string, nowMilli int64) error {
	args := m.Called(ctx, tradeID, nowMilli)
	return args.Error(0)
}

func (m *mockTradeRepo) MarkFailed(ctx context.Context, tradeID string, nowMilli int64) error {
	args := m.Called(ctx, tradeID, nowMilli)
	return args.Error(0)
}

func (m *mockTradeRepo) CountByUserStatus(ctx context.Context, userID string, status model.TradeStatus) (int64, error) {
	args := m.Called(ctx, userID, status)
	return args.Get(0).(int64), args.Error(1)
}

// mockBalanceRepo BalanceRepository 测试替身
type mockBalanceRepo struct {
	mock.Mock
}

func (m *mockBalanceRepo) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *mockBalanceRepo) GetOrCreate(ctx context.Context, userID, symbol string) (*model.Balance, error) {
	args := m.Called(ctx, userID, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Balance), args.Error(1)
}

func (m *mockBalanceRepo) GetByUserSymbol(ctx context.Context, userID, symbol string) (*model.Balance, error) {
	args := m.Called(ctx, userID, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Balance), args.Error(1)
}

func (m *mockBalanceRepo) ListByUser(ctx context.Context, userID string) ([]*model.Balance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Balance), args.Error(1)
}

func (m *mockBalanceRepo) Lock(ctx context.Context, userID, symbol string, amount decimal.Decimal) error {
	args := m.Called(ctx, userID, symbol, amount)
	return args.Error(0)
}

func (m *mockBalanceRepo) Unlock(ctx context.Context, userID, symbol string, amount decimal.Decimal) error {
	args := m.Called(ctx, userID, symbol, amount)
	return args.Error(0)
}

func (m *mockBalanceRepo) SettleWin(ctx context.Context, userID, symbol string, stake, payout decimal.Decimal) error {
	args := m.Called(ctx, userID, symbol, stake, payout)
	return args.Error(0)
}

func (m *mockBalanceRepo) ForfeitLocked(ctx context.Context, userID, symbol string, amount decimal.Decimal) error {
	args := m.Called(ctx, userID, symbol, amount)
	return args.Error(0)
}

func (m *mockBalanceRepo) Credit(ctx context.Context, userID, symbol string, amount decimal.Decimal) error {
	args := m.Called(ctx, userID, symbol, amount)
	return args.Error(0)
}

func (m *mockBalanceRepo) Debit(ctx context.Context, userID, symbol string, amount decimal.Decimal) error {
	args := m.Called(ctx, userID, symbol, amount)
	return args.Error(0)
}

// mockTransactionRepo TransactionRepository 测试替身
type mockTransactionRepo struct {
	mock.Mock
}

func (m *mockTransactionRepo) Create(ctx context.Context, tx *model.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockTransactionRepo) GetByReferenceID(ctx context.Context, referenceID string) (*model.Transaction, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *mockTransactionRepo) ListByUser(ctx context.Context, userID string, filter *repository.TransactionFilter, page *repository.Pagination) ([]*model.Transaction, error) {
	args := m.Called(ctx, userID, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}

// mockPolicyRepo PolicyRepository 测试替身
type mockPolicyRepo struct {
	mock.Mock
}

func (m *mockPolicyRepo) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *mockPolicyRepo) GetActiveByUser(ctx context.Context, userID string) (*model.OutcomePolicy, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OutcomePolicy), args.Error(1)
}

func (m *mockPolicyRepo) Create(ctx context.Context, policy *model.OutcomePolicy) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}

func (m *mockPolicyRepo) DeactivateByUser(ctx context.Context, userID string, nowMilli int64) error {
	args := m.Called(ctx, userID, nowMilli)
	return args.Error(0)
}

func (m *mockPolicyRepo) ListByUser(ctx context.Context, userID string, page *repository.Pagination) ([]*model.OutcomePolicy, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.OutcomePolicy), args.Error(1)
}

func (m *mockPolicyRepo) ListActive(ctx context.Context, page *repository.Pagination) ([]*model.OutcomePolicy, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.OutcomePolicy), args.Error(1)
}

// mockPriceProvider PriceProvider 测试替身
type mockPriceProvider struct {
	mock.Mock
}

func (m *mockPriceProvider) GetLastPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// stubSymbolProvider SymbolConfigProvider 测试替身
type stubSymbolProvider struct {
	rules map[string]*SymbolRule
}

func (s *stubSymbolProvider) GetSymbol(symbol string) (*SymbolRule, bool) {
	rule, ok := s.rules[symbol]
	return rule, ok
}

func newStubSymbols() *stubSymbolProvider {
	return &stubSymbolProvider{rules: map[string]*SymbolRule{
		"BTCUSDT": {
			Symbol:    "BTCUSDT",
			MinAmount: decimal.NewFromInt(10),
			MaxAmount: decimal.NewFromInt(10000),
		},
	}}
}

// stubSettingsProvider OptionSettingsProvider 测试替身
type stubSettingsProvider struct {
	byDuration map[int]decimal.Decimal
}

func (s *stubSettingsProvider) ProfitPercentage(durationSeconds int) (decimal.Decimal, bool) {
	pct, ok := s.byDuration[durationSeconds]
	return pct, ok
}

// stubIDGen IDGenerator 测试替身
type stubIDGen struct {
	next int64
}

func (g *stubIDGen) Generate() int64 {
	g.next++
	return g.next
}

// noopTradePublisher 空操作交易事件发布器
type noopTradePublisher struct{}

func (noopTradePublisher) PublishCreated(*model.OptionTrade) error   { return nil }
func (noopTradePublisher) PublishCancelled(*model.OptionTrade) error { return nil }

// noopSettlementPublisher 空操作结算事件发布器
type noopSettlementPublisher struct{}

func (noopSettlementPublisher) PublishSettled(*model.OptionTrade) error { return nil }

// noopBalancePublisher 空操作余额事件发布器
type noopBalancePublisher struct{}

func (noopBalancePublisher) PublishChange(userID, symbol, operation, amount, referenceID string) error {
	return nil
}
