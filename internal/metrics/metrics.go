// Package metrics 提供 Prometheus 监控指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "arcadia"
	subsystem = "options"
)

var (
	// TradesTotal 交易计数器
	TradesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "trades_total",
			Help:      "期权交易总数 (按状态/交易对/方向)",
		},
		[]string{"status", "symbol", "direction"},
	)

	// SettlementsTotal 结算计数器
	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "settlements_total",
			Help:      "结算总数 (按结果)",
		},
		[]string{"outcome"},
	)

	// SettlementLatency 结算耗时
	SettlementLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "settlement_latency_seconds",
			Help:      "单笔结算耗时 (秒)",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	// SettlementConflicts 结算乐观锁冲突计数器
	SettlementConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "settlement_conflicts_total",
			Help:      "结算乐观锁冲突总数",
		},
	)

	// BalanceOperations 余额操作计数器
	BalanceOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "balance_operations_total",
			Help:      "余额操作总数 (按操作/交易对)",
		},
		[]string{"operation", "symbol"},
	)

	// TransactionsTotal 资金流水计数器
	TransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "transactions_total",
			Help:      "资金流水总数 (按类型)",
		},
		[]string{"type"},
	)

	// PriceLookupFailures 价格查询失败计数器
	PriceLookupFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "price_lookup_failures_total",
			Help:      "行情价格查询失败总数 (按交易对)",
		},
		[]string{"symbol"},
	)

	// DataIntegrityCritical 数据完整性严重告警计数器
	// 任何非零值都应触发告警
	DataIntegrityCritical = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "data_integrity_critical_total",
			Help:      "数据完整性严重异常总数 (按类型/原因)",
		},
		[]string{"type", "reason"},
	)

	// ExpiryWorkerBatch 到期结算任务批次大小
	ExpiryWorkerBatch = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "expiry_worker_batch_size",
			Help:      "到期结算任务单批处理的交易数",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)
)

// RecordTrade 记录交易
func RecordTrade(status, symbol, direction string) {
	TradesTotal.WithLabelValues(status, symbol, direction).Inc()
}

// RecordSettlement 记录结算结果与耗时
func RecordSettlement(outcome string, start time.Time) {
	SettlementsTotal.WithLabelValues(outcome).Inc()
	SettlementLatency.Observe(time.Since(start).Seconds())
}

// RecordBalanceOperation 记录余额操作
func RecordBalanceOperation(operation, symbol string) {
	BalanceOperations.WithLabelValues(operation, symbol).Inc()
}

// RecordTransaction 记录资金流水
func RecordTransaction(txType string) {
	TransactionsTotal.WithLabelValues(txType).Inc()
}

// RecordPriceLookupFailure 记录价格查询失败
func RecordPriceLookupFailure(symbol string) {
	PriceLookupFailures.WithLabelValues(symbol).Inc()
}

// RecordDataIntegrityCritical 记录数据完整性严重异常
func RecordDataIntegrityCritical(typ, reason string) {
	DataIntegrityCritical.WithLabelValues(typ, reason).Inc()
}
