package publisher

import (
	"encoding/json"
	"fmt"

	"github.com/arcadia-exchange/arcadia-options/internal/kafka"
	"github.com/arcadia-exchange/arcadia-options/internal/model"
)

// SettlementEvent 结算结果事件
type SettlementEvent struct {
	TradeID    string `json:"trade_id"`
	UserID     string `json:"user_id"`
	Symbol     string `json:"symbol"`
	Direction  string `json:"direction"`
	IsWin      bool   `json:"is_win"`
	Amount     string `json:"amount"`
	Profit     string `json:"profit"`
	EntryPrice string `json:"entry_price"`
	ExitPrice  string `json:"exit_price"`
	SettledAt  int64  `json:"settled_at"`
}

// SettlementPublisher 结算事件发布器
type SettlementPublisher struct {
	producer KafkaProducer
}

// NewSettlementPublisher 创建结算事件发布器
// producer 为 nil 时发布降级为空操作
func NewSettlementPublisher(producer KafkaProducer) *SettlementPublisher {
	return &SettlementPublisher{producer: producer}
}

// PublishSettled 发布结算完成事件
func (p *SettlementPublisher) PublishSettled(trade *model.OptionTrade) error {
	if p.producer == nil {
		return nil
	}

	msg := SettlementEvent{
		TradeID:    trade.TradeID,
		UserID:     trade.UserID,
		Symbol:     trade.Symbol,
		Direction:  trade.Direction.String(),
		IsWin:      trade.IsWin,
		Amount:     trade.Amount.String(),
		Profit:     trade.Profit.String(),
		EntryPrice: trade.EntryPrice.String(),
		ExitPrice:  trade.ExitPrice.String(),
		SettledAt:  trade.SettledAt,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal settlement event failed: %w", err)
	}

	return p.producer.Send(kafka.TopicSettlements, trade.TradeID, data)
}
