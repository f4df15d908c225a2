package model

import (
	"github.com/shopspring/decimal"
)

// Balance 用户余额
// 采用两字段模型: available (可用) / locked (锁定)
// 对应数据库表 balances
type Balance struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string          `gorm:"type:varchar(64);uniqueIndex:uk_user_symbol;not null" json:"user_id"`
	Symbol    string          `gorm:"type:varchar(20);uniqueIndex:uk_user_symbol;not null" json:"symbol"`
	Available decimal.Decimal `gorm:"type:decimal(36,18);not null;default:0" json:"available"` // 可用余额
	Locked    decimal.Decimal `gorm:"type:decimal(36,18);not null;default:0" json:"locked"`    // 锁定余额 (待结算交易占用)
	Version   int64           `gorm:"type:bigint;not null;default:1" json:"version"`           // 乐观锁版本号
	CreatedAt int64           `gorm:"type:bigint;not null;autoCreateTime:milli" json:"created_at"`
	UpdatedAt int64           `gorm:"type:bigint;not null;autoUpdateTime:milli" json:"updated_at"`
}

// TableName 返回表名
func (Balance) TableName() string {
	return "balances"
}

// Total 返回总余额
func (b *Balance) Total() decimal.Decimal {
	return b.Available.Add(b.Locked)
}

// CanLock 检查是否有足够可用余额可锁定
func (b *Balance) CanLock(amount decimal.Decimal) bool {
	return b.Available.GreaterThanOrEqual(amount)
}

// TransactionType 资金流水类型
type TransactionType int8

const (
	TransactionTypeDeposit   TransactionType = 1 // 充值
	TransactionTypeWithdraw  TransactionType = 2 // 提现
	TransactionTypeTradeWin  TransactionType = 3 // 期权盈利 (金额为收益)
	TransactionTypeTradeLoss TransactionType = 4 // 期权亏损 (金额为收益的绝对值)
)

func (t TransactionType) String() string {
	switch t {
	case TransactionTypeDeposit:
		return "DEPOSIT"
	case TransactionTypeWithdraw:
		return "WITHDRAW"
	case TransactionTypeTradeWin:
		return "TRADE_WIN"
	case TransactionTypeTradeLoss:
		return "TRADE_LOSS"
	default:
		return "UNKNOWN"
	}
}

// Transaction 资金流水
// 只追加，不修改不删除; reference_id 唯一索引保证每笔交易至多一条结算流水
// 对应数据库表 transactions
type Transaction struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      string          `gorm:"type:varchar(64);index;not null" json:"user_id"`
	Symbol      string          `gorm:"type:varchar(20);not null" json:"symbol"`
	Type        TransactionType `gorm:"type:smallint;index;not null" json:"type"`                    // 流水类型
	Amount      decimal.Decimal `gorm:"type:decimal(36,18);not null" json:"amount"`                  // 变动金额 (恒为正数，方向由类型表达)
	ReferenceID string          `gorm:"type:varchar(64);uniqueIndex:uk_reference;not null" json:"reference_id"` // 关联业务 ID (交易结算时为 trade_id)
	Remark      string          `gorm:"type:varchar(255)" json:"remark"`                             // 备注
	CreatedAt   int64           `gorm:"type:bigint;not null;autoCreateTime:milli;index" json:"created_at"`
}

// TableName 返回表名
func (Transaction) TableName() string {
	return "transactions"
}
