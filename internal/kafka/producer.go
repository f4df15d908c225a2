// Package kafka 提供 Kafka 消息生产者
package kafka

import (
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/arcadia-exchange/arcadia-options/pkg/logger"
)

// Producer Kafka 异步生产者
type Producer struct {
	producer sarama.AsyncProducer
	brokers  []string
}

// NewProducer 创建 Kafka 生产者
func NewProducer(brokers []string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Retry.Backoff = 100 * time.Millisecond
	config.Producer.Return.Successes = false
	config.Producer.Return.Errors = true
	config.Producer.Idempotent = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewAsyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer failed: %w", err)
	}

	p := &Producer{
		producer: producer,
		brokers:  brokers,
	}

	// 异步消费错误通道, 投递失败只记录不阻塞业务
	go p.handleErrors()

	return p, nil
}

// handleErrors 消费投递失败通知
func (p *Producer) handleErrors() {
	for err := range p.producer.Errors() {
		logger.Error("kafka 消息投递失败",
			"topic", err.Msg.Topic,
			"error", err.Err)
	}
}

// Send 发送消息
// key 用于分区路由, 同 key 消息保证顺序
func (p *Producer) Send(topic string, key string, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}

	select {
	case p.producer.Input() <- msg:
		return nil
	default:
		return fmt.Errorf("kafka producer input channel full, topic=%s", topic)
	}
}

// Close 关闭生产者, 等待缓冲消息发送完毕
func (p *Producer) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
