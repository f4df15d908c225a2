package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/arcadia-exchange/arcadia-options/internal/kafka"
)

// BalanceEvent 余额变动事件
type BalanceEvent struct {
	UserID      string `json:"user_id"`
	Symbol      string `json:"symbol"`
	Operation   string `json:"operation"`
	Amount      string `json:"amount"`
	ReferenceID string `json:"reference_id"`
	Timestamp   int64  `json:"timestamp"`
}

// BalancePublisher 余额变动事件发布器
type BalancePublisher struct {
	producer KafkaProducer
}

// NewBalancePublisher 创建余额变动事件发布器
// producer 为 nil 时发布降级为空操作
func NewBalancePublisher(producer KafkaProducer) *BalancePublisher {
	return &BalancePublisher{producer: producer}
}

// PublishChange 发布余额变动事件
func (p *BalancePublisher) PublishChange(userID, symbol, operation, amount, referenceID string) error {
	if p.producer == nil {
		return nil
	}

	msg := BalanceEvent{
		UserID:      userID,
		Symbol:      symbol,
		Operation:   operation,
		Amount:      amount,
		ReferenceID: referenceID,
		Timestamp:   time.Now().UnixMilli(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal balance event failed: %w", err)
	}

	// 按 user_id 分区, 保证同一用户的余额事件顺序
	return p.producer.Send(kafka.TopicBalanceUpdates, userID, data)
}
