// Package service 提供业务逻辑层
package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/arcadia-exchange/arcadia-options/internal/model"
)

// IDGenerator ID 生成器接口
type IDGenerator interface {
	Generate() int64
}

// PriceProvider 行情价格提供者接口
type PriceProvider interface {
	// GetLastPrice 获取最新成交价
	GetLastPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// SymbolRule 交易对下注规则
type SymbolRule struct {
	Symbol    string
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
}

// SymbolConfigProvider 交易对配置提供者接口
type SymbolConfigProvider interface {
	// GetSymbol 获取交易对规则, 不存在返回 false
	GetSymbol(symbol string) (*SymbolRule, bool)
}

// OptionSettingsProvider 期权期限收益配置提供者接口
type OptionSettingsProvider interface {
	// ProfitPercentage 获取指定期限的收益率 (百分比)
	// 无精确匹配的期限配置时返回 false
	ProfitPercentage(durationSeconds int) (decimal.Decimal, bool)
}

// TradeEventPublisher 交易事件发布接口
type TradeEventPublisher interface {
	PublishCreated(trade *model.OptionTrade) error
	PublishCancelled(trade *model.OptionTrade) error
}

// SettlementEventPublisher 结算事件发布接口
type SettlementEventPublisher interface {
	PublishSettled(trade *model.OptionTrade) error
}

// BalanceEventPublisher 余额变动事件发布接口
type BalanceEventPublisher interface {
	PublishChange(userID, symbol, operation, amount, referenceID string) error
}
