package publisher

import (
	"encoding/json"
	"fmt"

	"github.com/arcadia-exchange/arcadia-options/internal/kafka"
	"github.com/arcadia-exchange/arcadia-options/internal/model"
)

// 交易事件类型
const (
	TradeEventCreated   = "trade.created"
	TradeEventCancelled = "trade.cancelled"
)

// TradeEvent 交易生命周期事件
type TradeEvent struct {
	Event      string `json:"event"`
	TradeID    string `json:"trade_id"`
	UserID     string `json:"user_id"`
	Symbol     string `json:"symbol"`
	Direction  string `json:"direction"`
	Amount     string `json:"amount"`
	EntryPrice string `json:"entry_price"`
	Duration   int    `json:"duration"`
	ExpiresAt  int64  `json:"expires_at"`
	Timestamp  int64  `json:"timestamp"`
}

// TradePublisher 交易事件发布器
type TradePublisher struct {
	producer KafkaProducer
}

// NewTradePublisher 创建交易事件发布器
// producer 为 nil 时发布降级为空操作
func NewTradePublisher(producer KafkaProducer) *TradePublisher {
	return &TradePublisher{producer: producer}
}

// PublishCreated 发布交易创建事件
func (p *TradePublisher) PublishCreated(trade *model.OptionTrade) error {
	return p.publish(TradeEventCreated, trade)
}

// PublishCancelled 发布交易取消事件
func (p *TradePublisher) PublishCancelled(trade *model.OptionTrade) error {
	return p.publish(TradeEventCancelled, trade)
}

func (p *TradePublisher) publish(event string, trade *model.OptionTrade) error {
	if p.producer == nil {
		return nil
	}

	msg := TradeEvent{
		Event:      event,
		TradeID:    trade.TradeID,
		UserID:     trade.UserID,
		Symbol:     trade.Symbol,
		Direction:  trade.Direction.String(),
		Amount:     trade.Amount.String(),
		EntryPrice: trade.EntryPrice.String(),
		Duration:   trade.Duration,
		ExpiresAt:  trade.ExpiresAt,
		Timestamp:  trade.UpdatedAt,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal trade event failed: %w", err)
	}

	// 按 trade_id 分区, 保证同一笔交易的事件顺序
	return p.producer.Send(kafka.TopicTradeEvents, trade.TradeID, data)
}
