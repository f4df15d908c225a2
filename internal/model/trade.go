package model

import (
	"github.com/shopspring/decimal"
)

// TradeStatus 期权交易状态
type TradeStatus int8

const (
	TradeStatusPending   TradeStatus = 1 // 待结算 (资金已锁定)
	TradeStatusCompleted TradeStatus = 2 // 已结算 (终态)
	TradeStatusCancelled TradeStatus = 3 // 已取消 (终态)
	TradeStatusFailed    TradeStatus = 4 // 结算失败 (终态)
)

func (s TradeStatus) String() string {
	switch s {
	case TradeStatusPending:
		return "PENDING"
	case TradeStatusCompleted:
		return "COMPLETED"
	case TradeStatusCancelled:
		return "CANCELLED"
	case TradeStatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal 是否为终态
// 终态交易不可再变更，重复结算请求直接返回当前状态
func (s TradeStatus) IsTerminal() bool {
	return s == TradeStatusCompleted || s == TradeStatusCancelled || s == TradeStatusFailed
}

// TradeDirection 期权方向
type TradeDirection int8

const (
	TradeDirectionUp   TradeDirection = 1 // 看涨 (结算价高于入场价则赢)
	TradeDirectionDown TradeDirection = 2 // 看跌 (结算价低于入场价则赢)
)

func (d TradeDirection) String() string {
	switch d {
	case TradeDirectionUp:
		return "UP"
	case TradeDirectionDown:
		return "DOWN"
	default:
		return "UNKNOWN"
	}
}

// IsValid 检查方向是否有效
func (d TradeDirection) IsValid() bool {
	return d == TradeDirectionUp || d == TradeDirectionDown
}

// OptionTrade 二元期权交易
// 对应数据库表 option_trades
type OptionTrade struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TradeID    string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"trade_id"`     // 交易 ID
	UserID     string          `gorm:"type:varchar(64);index;not null" json:"user_id"`            // 用户 ID
	Symbol     string          `gorm:"type:varchar(20);index;not null" json:"symbol"`             // 交易对
	Direction  TradeDirection  `gorm:"type:smallint;not null" json:"direction"`                   // 方向 (看涨/看跌)
	Amount     decimal.Decimal `gorm:"type:decimal(36,18);not null" json:"amount"`                // 下注金额
	EntryPrice decimal.Decimal `gorm:"type:decimal(36,18);not null" json:"entry_price"`           // 入场价格
	ExitPrice  decimal.Decimal `gorm:"type:decimal(36,18);default:0" json:"exit_price"`           // 结算价格
	Duration   int             `gorm:"type:int;not null" json:"duration"`                         // 期限 (秒)
	Profit     decimal.Decimal `gorm:"type:decimal(36,18);default:0" json:"profit"`               // 盈亏 (赢为正，输为负)
	IsWin      bool            `gorm:"type:boolean;default:false" json:"is_win"`                  // 结算结果
	Status     TradeStatus     `gorm:"type:smallint;index;not null;default:1" json:"status"`      // 交易状态
	ExpiresAt  int64           `gorm:"type:bigint;index;not null" json:"expires_at"`              // 到期时间 (毫秒)
	SettledAt  int64           `gorm:"type:bigint" json:"settled_at"`                             // 结算时间 (毫秒)
	CreatedAt  int64           `gorm:"type:bigint;not null;autoCreateTime:milli" json:"created_at"`
	UpdatedAt  int64           `gorm:"type:bigint;not null;autoUpdateTime:milli" json:"updated_at"`
}

// TableName 返回表名
func (OptionTrade) TableName() string {
	return "option_trades"
}

// IsExpired 是否已到期
func (t *OptionTrade) IsExpired(nowMilli int64) bool {
	return nowMilli >= t.ExpiresAt
}
