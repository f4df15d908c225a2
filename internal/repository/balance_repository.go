package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arcadia-exchange/arcadia-options/internal/model"
)

var (
	ErrBalanceNotFound     = errors.New("balance not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientLocked  = errors.New("insufficient locked balance")
)

// BalanceRepository 余额仓储接口
type BalanceRepository interface {
	// Transaction 执行事务
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	// GetOrCreate 获取或创建余额记录
	GetOrCreate(ctx context.Context, userID, symbol string) (*model.Balance, error)

	// GetByUserSymbol 根据用户和交易对查询余额
	GetByUserSymbol(ctx context.Context, userID, symbol string) (*model.Balance, error)

	// ListByUser 查询用户所有余额
	ListByUser(ctx context.Context, userID string) ([]*model.Balance, error)

	// Lock 锁定余额 (available → locked)
	// 可用余额不足时返回 ErrInsufficientBalance
	Lock(ctx context.Context, userID, symbol string, amount decimal.Decimal) error

	// Unlock 解锁余额 (locked → available)
	// 锁定余额不足时返回 ErrInsufficientLocked
	Unlock(ctx context.Context, userID, symbol string, amount decimal.Decimal) error

	// SettleWin 赢单结算: 释放锁定本金并入账赔付 (本金+收益)
	// 锁定余额不足时返回 ErrInsufficientLocked
	SettleWin(ctx context.Context, userID, symbol string, stake, payout decimal.Decimal) error

	// ForfeitLocked 输单结算: 没收锁定本金
	// 锁定余额不足时返回 ErrInsufficientLocked
	ForfeitLocked(ctx context.Context, userID, symbol string, amount decimal.Decimal) error

	// Credit 增加可用余额 (充值)
	Credit(ctx context.Context, userID, symbol string, amount decimal.Decimal) error

	// Debit 扣减可用余额 (提现)
	// 可用余额不足时返回 ErrInsufficientBalance
	Debit(ctx context.Context, userID, symbol string, amount decimal.Decimal) error
}

// balanceRepository 余额仓储实现
type balanceRepository struct {
	*Repository
}

// NewBalanceRepository 创建余额仓储
func NewBalanceRepository(db *gorm.DB) BalanceRepository {
	return &balanceRepository{
		Repository: NewRepository(db),
	}
}

// GetOrCreate 获取或创建余额记录
func (r *balanceRepository) GetOrCreate(ctx context.Context, userID, symbol string) (*model.Balance, error) {
	var balance model.Balance

	// 先尝试查询
	result := r.DB(ctx).Where("user_id = ? AND symbol = ?", userID, symbol).First(&balance)
	if result.Error == nil {
		return &balance, nil
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get balance failed: %w", result.Error)
	}

	// 不存在则创建
	balance = model.Balance{
		UserID:    userID,
		Symbol:    symbol,
		Available: decimal.Zero,
		Locked:    decimal.Zero,
		Version:   1,
	}

	// 使用 ON CONFLICT 处理并发创建
	result = r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "symbol"}},
		DoNothing: true,
	}).Create(&balance)

	if result.Error != nil {
		return nil, fmt.Errorf("create balance failed: %w", result.Error)
	}

	// 如果是并发创建导致的冲突，重新查询
	if result.RowsAffected == 0 {
		result = r.DB(ctx).Where("user_id = ? AND symbol = ?", userID, symbol).First(&balance)
		if result.Error != nil {
			return nil, fmt.Errorf("get balance after conflict failed: %w", result.Error)
		}
	}

	return &balance, nil
}

// GetByUserSymbol 根据用户和交易对查询余额
func (r *balanceRepository) GetByUserSymbol(ctx context.Context, userID, symbol string) (*model.Balance, error) {
	var balance model.Balance
	result := r.DB(ctx).Where("user_id = ? AND symbol = ?", userID, symbol).First(&balance)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrBalanceNotFound
		}
		return nil, fmt.Errorf("get balance failed: %w", result.Error)
	}
	return &balance, nil
}

// ListByUser 查询用户所有余额
func (r *balanceRepository) ListByUser(ctx context.Context, userID string) ([]*model.Balance, error) {
	var balances []*model.Balance
	result := r.DB(ctx).Where("user_id = ?", userID).Order("symbol ASC").Find(&balances)
	if result.Error != nil {
		return nil, fmt.Errorf("list balances failed: %w", result.Error)
	}
	return balances, nil
}

// Lock 锁定余额 (available → locked)
func (r *balanceRepository) Lock(ctx context.Context, userID, symbol string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("lock amount must be positive")
	}

	sql := `UPDATE balances
		   SET available = available - ?,
			   locked = locked + ?,
			   version = version + 1,
			   updated_at = ?
		   WHERE user_id = ? AND symbol = ?
			 AND available >= ?`

	result := r.DB(ctx).Exec(sql, amount, amount, nowMilli(), userID, symbol, amount)
	if result.Error != nil {
		return fmt.Errorf("lock balance failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// Unlock 解锁余额 (locked → available)
func (r *balanceRepository) Unlock(ctx context.Context, userID, symbol string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("unlock amount must be positive")
	}

	sql := `UPDATE balances
		   SET locked = locked - ?,
			   available = available + ?,
			   version = version + 1,
			   updated_at = ?
		   WHERE user_id = ? AND symbol = ?
			 AND locked >= ?`

	result := r.DB(ctx).Exec(sql, amount, amount, nowMilli(), userID, symbol, amount)
	if result.Error != nil {
		return fmt.Errorf("unlock balance failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientLocked
	}
	return nil
}

// SettleWin 赢单结算: 释放锁定本金并入账赔付
func (r *balanceRepository) SettleWin(ctx context.Context, userID, symbol string, stake, payout decimal.Decimal) error {
	if stake.LessThanOrEqual(decimal.Zero) || payout.LessThanOrEqual(decimal.Zero) {
		return errors.New("settle amounts must be positive")
	}

	sql := `UPDATE balances
		   SET locked = locked - ?,
			   available = available + ?,
			   version = version + 1,
			   updated_at = ?
		   WHERE user_id = ? AND symbol = ?
			 AND locked >= ?`

	result := r.DB(ctx).Exec(sql, stake, payout, nowMilli(), userID, symbol, stake)
	if result.Error != nil {
		return fmt.Errorf("settle win failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientLocked
	}
	return nil
}

// ForfeitLocked 输单结算: 没收锁定本金
func (r *balanceRepository) ForfeitLocked(ctx context.Context, userID, symbol string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("forfeit amount must be positive")
	}

	sql := `UPDATE balances
		   SET locked = locked - ?,
			   version = version + 1,
			   updated_at = ?
		   WHERE user_id = ? AND symbol = ?
			 AND locked >= ?`

	result := r.DB(ctx).Exec(sql, amount, nowMilli(), userID, symbol, amount)
	if result.Error != nil {
		return fmt.Errorf("forfeit locked failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientLocked
	}
	return nil
}

// Credit 增加可用余额
func (r *balanceRepository) Credit(ctx context.Context, userID, symbol string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("credit amount must be positive")
	}

	// 先确保记录存在
	if _, err := r.GetOrCreate(ctx, userID, symbol); err != nil {
		return err
	}

	sql := `UPDATE balances
		   SET available = available + ?,
			   version = version + 1,
			   updated_at = ?
		   WHERE user_id = ? AND symbol = ?`

	result := r.DB(ctx).Exec(sql, amount, nowMilli(), userID, symbol)
	if result.Error != nil {
		return fmt.Errorf("credit balance failed: %w", result.Error)
	}
	return nil
}

// Debit 扣减可用余额
func (r *balanceRepository) Debit(ctx context.Context, userID, symbol string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("debit amount must be positive")
	}

	sql := `UPDATE balances
		   SET available = available - ?,
			   version = version + 1,
			   updated_at = ?
		   WHERE user_id = ? AND symbol = ?
			 AND available >= ?`

	result := r.DB(ctx).Exec(sql, amount, nowMilli(), userID, symbol, amount)
	if result.Error != nil {
		return fmt.Errorf("debit balance failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}
