// Package cache 提供 Redis 行情缓存访问
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// KeyLastPrice 最新成交价缓存键
	KeyLastPrice = "arcadia:last_price:%s"

	// lastPriceTTL 价格缓存有效期
	lastPriceTTL = 5 * time.Minute
)

// ErrPriceNotFound 缓存中无该交易对的价格
var ErrPriceNotFound = errors.New("price not found in cache")

// LastPrice 最新成交价
type LastPrice struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Timestamp int64           `json:"timestamp"`
}

// PriceCache 行情价格缓存
type PriceCache struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewPriceCache 创建行情价格缓存
func NewPriceCache(client redis.UniversalClient, logger *zap.Logger) *PriceCache {
	return &PriceCache{
		client: client,
		logger: logger.Named("price_cache"),
	}
}

// GetLastPrice 获取最新成交价
// 缓存未命中或数据损坏时返回 ErrPriceNotFound
func (c *PriceCache) GetLastPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	key := fmt.Sprintf(KeyLastPrice, symbol)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return decimal.Zero, ErrPriceNotFound
		}
		return decimal.Zero, fmt.Errorf("get last price failed: %w", err)
	}

	var lp LastPrice
	if err := json.Unmarshal(data, &lp); err != nil {
		c.logger.Warn("最新价缓存数据损坏",
			zap.String("symbol", symbol),
			zap.Error(err))
		return decimal.Zero, ErrPriceNotFound
	}

	if lp.Price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrPriceNotFound
	}

	return lp.Price, nil
}

// SaveLastPrice 保存最新成交价
// 供行情接入侧写入, 结算侧只读
func (c *PriceCache) SaveLastPrice(ctx context.Context, symbol string, price decimal.Decimal, timestamp int64) error {
	key := fmt.Sprintf(KeyLastPrice, symbol)

	lp := LastPrice{
		Symbol:    symbol,
		Price:     price,
		Timestamp: timestamp,
	}

	data, err := json.Marshal(lp)
	if err != nil {
		return fmt.Errorf("marshal last price failed: %w", err)
	}

	if err := c.client.Set(ctx, key, data, lastPriceTTL).Err(); err != nil {
		return fmt.Errorf("save last price failed: %w", err)
	}

	return nil
}
