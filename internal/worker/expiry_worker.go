// Package worker 提供后台任务
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/arcadia-exchange/arcadia-options/internal/metrics"
	"github.com/arcadia-exchange/arcadia-options/internal/repository"
	"github.com/arcadia-exchange/arcadia-options/pkg/logger"
)

// TradeSettler 结算执行接口
type TradeSettler interface {
	// SettleExpiredTrade 结算到期交易, 交易已处于终态视为成功
	SettleExpiredTrade(ctx context.Context, tradeID string) error
}

// ExpiryWorkerOptions 到期结算任务选项
type ExpiryWorkerOptions struct {
	CheckInterval time.Duration // 扫描间隔
	BatchSize     int           // 单批处理数量
}

// ExpirySettlementWorker 到期结算后台任务
// 周期性扫描已到期的待结算交易并逐笔触发结算
type ExpirySettlementWorker struct {
	tradeRepo repository.TradeRepository
	settler   TradeSettler
	opts      ExpiryWorkerOptions

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewExpirySettlementWorker 创建到期结算任务
func NewExpirySettlementWorker(tradeRepo repository.TradeRepository, settler TradeSettler, opts ExpiryWorkerOptions) *ExpirySettlementWorker {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}

	return &ExpirySettlementWorker{
		tradeRepo: tradeRepo,
		settler:   settler,
		opts:      opts,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start 启动任务
func (w *ExpirySettlementWorker) Start(ctx context.Context) {
	logger.Info("到期结算任务启动",
		"check_interval", w.opts.CheckInterval.String(),
		"batch_size", w.opts.BatchSize)

	go w.loop(ctx)
}

// Stop 停止任务, 等待当前批次处理完毕
func (w *ExpirySettlementWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
	<-w.doneCh
	logger.Info("到期结算任务已停止")
}

func (w *ExpirySettlementWorker) loop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.opts.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.processBatch(ctx)
		}
	}
}

// processBatch 处理一批到期交易
// 单笔失败不中断本批: 暂态错误 (价格缺失/并发冲突) 留待下一轮重扫
func (w *ExpirySettlementWorker) processBatch(ctx context.Context) {
	now := time.Now().UnixMilli()

	trades, err := w.tradeRepo.ListExpiredPending(ctx, now, w.opts.BatchSize)
	if err != nil {
		logger.Error("扫描到期交易失败", "error", err)
		return
	}

	metrics.ExpiryWorkerBatch.Observe(float64(len(trades)))
	if len(trades) == 0 {
		return
	}

	for _, trade := range trades {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		default:
		}

		if err := w.settler.SettleExpiredTrade(ctx, trade.TradeID); err != nil {
			logger.Warn("到期交易结算失败, 等待下一轮重试",
				"trade_id", trade.TradeID,
				"error", err)
		}
	}
}
