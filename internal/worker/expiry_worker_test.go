package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/arcadia-exchange/arcadia-options/internal/model"
	"github.com/arcadia-exchange/arcadia-options/internal/repository"
)

// stubTradeRepo 只实现扫描方法的仓储替身
type stubTradeRepo struct {
	repository.TradeRepository

	mu     sync.Mutex
	trades []*model.OptionTrade
}

func (s *stubTradeRepo) ListExpiredPending(ctx context.Context, nowMilli int64, limit int) ([]*model.OptionTrade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trades := s.trades
	s.trades = nil
	return trades, nil
}

// recordingSettler 记录被触发结算的交易
type recordingSettler struct {
	mu      sync.Mutex
	settled []string
	err     error
}

func (r *recordingSettler) SettleExpiredTrade(ctx context.Context, tradeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.settled = append(r.settled, tradeID)
	return r.err
}

func (r *recordingSettler) settledIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.settled...)
}

func expiredTrade(id string) *model.OptionTrade {
	return &model.OptionTrade{
		TradeID:   id,
		UserID:    "u1",
		Symbol:    "BTCUSDT",
		Amount:    decimal.NewFromInt(100),
		Status:    model.TradeStatusPending,
		ExpiresAt: time.Now().UnixMilli() - 1000,
	}
}

func TestExpiryWorker_SettlesBatch(t *testing.T) {
	repo := &stubTradeRepo{trades: []*model.OptionTrade{
		expiredTrade("T1"),
		expiredTrade("T2"),
	}}
	settler := &recordingSettler{}

	w := NewExpirySettlementWorker(repo, settler, ExpiryWorkerOptions{
		CheckInterval: 10 * time.Millisecond,
		BatchSize:     100,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w.Start(ctx)

	assert.Eventually(t, func() bool {
		return len(settler.settledIDs()) == 2
	}, time.Second, 10*time.Millisecond)

	w.Stop()
	assert.ElementsMatch(t, []string{"T1", "T2"}, settler.settledIDs())
}

func TestExpiryWorker_SettlementErrorDoesNotAbortBatch(t *testing.T) {
	repo := &stubTradeRepo{trades: []*model.OptionTrade{
		expiredTrade("T1"),
		expiredTrade("T2"),
		expiredTrade("T3"),
	}}
	settler := &recordingSettler{err: assert.AnError}

	w := NewExpirySettlementWorker(repo, settler, ExpiryWorkerOptions{
		CheckInterval: 10 * time.Millisecond,
		BatchSize:     100,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w.Start(ctx)

	// 单笔失败不阻断后续交易的结算触发
	assert.Eventually(t, func() bool {
		return len(settler.settledIDs()) == 3
	}, time.Second, 10*time.Millisecond)

	w.Stop()
}
