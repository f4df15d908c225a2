package kafka

// 事件主题定义
const (
	// TopicTradeEvents 交易生命周期事件 (创建/取消)
	TopicTradeEvents = "arcadia.options.trade-events"

	// TopicSettlements 结算结果事件
	TopicSettlements = "arcadia.options.settlements"

	// TopicBalanceUpdates 余额变动事件
	TopicBalanceUpdates = "arcadia.options.balance-updates"
)
