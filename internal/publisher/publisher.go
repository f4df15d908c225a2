// Package publisher 提供业务事件发布
package publisher

// KafkaProducer 消息生产者接口
type KafkaProducer interface {
	Send(topic string, key string, value []byte) error
}
