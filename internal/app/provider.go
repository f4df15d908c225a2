package app

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/arcadia-exchange/arcadia-options/internal/config"
	"github.com/arcadia-exchange/arcadia-options/internal/service"
)

// symbolProvider 基于配置的交易对规则提供者
type symbolProvider struct {
	rules map[string]*service.SymbolRule
}

func newSymbolProvider(cfgs []config.SymbolConfig) (*symbolProvider, error) {
	rules := make(map[string]*service.SymbolRule, len(cfgs))
	for _, c := range cfgs {
		minAmount, err := decimal.NewFromString(c.MinAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid min_amount for symbol %s: %w", c.Symbol, err)
		}
		maxAmount, err := decimal.NewFromString(c.MaxAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid max_amount for symbol %s: %w", c.Symbol, err)
		}
		rules[c.Symbol] = &service.SymbolRule{
			Symbol:    c.Symbol,
			MinAmount: minAmount,
			MaxAmount: maxAmount,
		}
	}
	return &symbolProvider{rules: rules}, nil
}

// GetSymbol 获取交易对规则
func (p *symbolProvider) GetSymbol(symbol string) (*service.SymbolRule, bool) {
	rule, ok := p.rules[symbol]
	return rule, ok
}

// optionSettingsProvider 基于配置的期限收益率提供者
type optionSettingsProvider struct {
	byDuration map[int]decimal.Decimal
}

func newOptionSettingsProvider(cfgs []config.OptionSetting) *optionSettingsProvider {
	byDuration := make(map[int]decimal.Decimal, len(cfgs))
	for _, c := range cfgs {
		byDuration[c.DurationSeconds] = decimal.NewFromFloat(c.ProfitPercentage)
	}
	return &optionSettingsProvider{byDuration: byDuration}
}

// ProfitPercentage 获取指定期限的收益率
func (p *optionSettingsProvider) ProfitPercentage(durationSeconds int) (decimal.Decimal, bool) {
	pct, ok := p.byDuration[durationSeconds]
	return pct, ok
}
