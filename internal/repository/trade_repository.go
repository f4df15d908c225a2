package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/arcadia-exchange/arcadia-options/internal/model"
)

var (
	ErrTradeNotFound      = errors.New("trade not found")
	ErrTradeAlreadyExists = errors.New("trade already exists")
)

// TradeRepository 期权交易仓储接口
type TradeRepository interface {
	// Transaction 执行事务
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Create 创建交易记录
	Create(ctx context.Context, trade *model.OptionTrade) error

	// GetByTradeID 根据交易 ID 查询
	GetByTradeID(ctx context.Context, tradeID string) (*model.OptionTrade, error)

	// ListByUser 查询用户交易列表
	ListByUser(ctx context.Context, userID string, filter *TradeFilter, page *Pagination) ([]*model.OptionTrade, error)

	// ListExpiredPending 查询已到期的待结算交易
	ListExpiredPending(ctx context.Context, nowMilli int64, limit int) ([]*model.OptionTrade, error)

	// MarkCompleted 结算完成 (CAS: pending → completed)
	// 仅当当前状态为 pending 时生效; 未命中任何行返回 ErrOptimisticLock
	MarkCompleted(ctx context.Context, tradeID string, exitPrice, profit decimal.Decimal, isWin bool, settledAt int64) error

	// MarkCancelled 取消交易 (CAS: pending → cancelled)
	// 仅当当前状态为 pending 且未到期时生效; 未命中任何行返回 ErrOptimisticLock
	MarkCancelled(ctx context.Context, tradeID string, nowMilli int64) error

	// MarkFailed 标记结算失败 (CAS: pending → failed)
	MarkFailed(ctx context.Context, tradeID string, nowMilli int64) error

	// CountByUserStatus 统计用户指定状态的交易数
	CountByUserStatus(ctx context.Context, userID string, status model.TradeStatus) (int64, error)
}

// TradeFilter 交易查询过滤条件
type TradeFilter struct {
	Symbol    string             // 交易对
	Status    *model.TradeStatus // 交易状态
	TimeRange *TimeRange         // 时间范围
}

// tradeRepository 期权交易仓储实现
type tradeRepository struct {
	*Repository
}

// NewTradeRepository 创建期权交易仓储
func NewTradeRepository(db *gorm.DB) TradeRepository {
	return &tradeRepository{
		Repository: NewRepository(db),
	}
}

// Create 创建交易记录
func (r *tradeRepository) Create(ctx context.Context, trade *model.OptionTrade) error {
	result := r.DB(ctx).Create(trade)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrTradeAlreadyExists
		}
		return fmt.Errorf("create trade failed: %w", result.Error)
	}
	return nil
}

// GetByTradeID 根据交易 ID 查询
func (r *tradeRepository) GetByTradeID(ctx context.Context, tradeID string) (*model.OptionTrade, error) {
	var trade model.OptionTrade
	result := r.DB(ctx).Where("trade_id = ?", tradeID).First(&trade)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTradeNotFound
		}
		return nil, fmt.Errorf("get trade by trade_id failed: %w", result.Error)
	}
	return &trade, nil
}

// ListByUser 查询用户交易列表
func (r *tradeRepository) ListByUser(ctx context.Context, userID string, filter *TradeFilter, page *Pagination) ([]*model.OptionTrade, error) {
	db := r.DB(ctx).Where("user_id = ?", userID)
	db = r.applyFilter(db, filter)

	// 统计总数
	if page != nil {
		var total int64
		if err := db.Model(&model.OptionTrade{}).Count(&total).Error; err != nil {
			return nil, fmt.Errorf("count trades failed: %w", err)
		}
		page.Total = total
	}

	// 查询列表
	var trades []*model.OptionTrade
	db = db.Order("created_at DESC")
	if page != nil {
		db = db.Offset(page.Offset()).Limit(page.Limit())
	}

	if err := db.Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("list trades by user failed: %w", err)
	}
	return trades, nil
}

// ListExpiredPending 查询已到期的待结算交易
func (r *tradeRepository) ListExpiredPending(ctx context.Context, nowMilli int64, limit int) ([]*model.OptionTrade, error) {
	var trades []*model.OptionTrade
	result := r.DB(ctx).
		Where("status = ? AND expires_at <= ?", model.TradeStatusPending, nowMilli).
		Order("expires_at ASC").
		Limit(limit).
		Find(&trades)

	if result.Error != nil {
		return nil, fmt.Errorf("list expired pending trades failed: %w", result.Error)
	}
	return trades, nil
}

// MarkCompleted 结算完成 (CAS: pending → completed)
func (r *tradeRepository) MarkCompleted(ctx context.Context, tradeID string, exitPrice, profit decimal.Decimal, isWin bool, settledAt int64) error {
	result := r.DB(ctx).Model(&model.OptionTrade{}).
		Where("trade_id = ? AND status = ?", tradeID, model.TradeStatusPending).
		Updates(map[string]interface{}{
			"status":     model.TradeStatusCompleted,
			"exit_price": exitPrice,
			"profit":     profit,
			"is_win":     isWin,
			"settled_at": settledAt,
			"updated_at": settledAt,
		})

	if result.Error != nil {
		return fmt.Errorf("mark trade completed failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOptimisticLock
	}
	return nil
}

// MarkCancelled 取消交易 (CAS: pending → cancelled)
func (r *tradeRepository) MarkCancelled(ctx context.Context, tradeID string, nowMilli int64) error {
	result := r.DB(ctx).Model(&model.OptionTrade{}).
		Where("trade_id = ? AND status = ? AND expires_at > ?", tradeID, model.TradeStatusPending, nowMilli).
		Updates(map[string]interface{}{
			"status":     model.TradeStatusCancelled,
			"updated_at": nowMilli,
		})

	if result.Error != nil {
		return fmt.Errorf("mark trade cancelled failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOptimisticLock
	}
	return nil
}

// MarkFailed 标记结算失败 (CAS: pending → failed)
func (r *tradeRepository) MarkFailed(ctx context.Context, tradeID string, nowMilli int64) error {
	result := r.DB(ctx).Model(&model.OptionTrade{}).
		Where("trade_id = ? AND status = ?", tradeID, model.TradeStatusPending).
		Updates(map[string]interface{}{
			"status":     model.TradeStatusFailed,
			"updated_at": nowMilli,
		})

	if result.Error != nil {
		return fmt.Errorf("mark trade failed failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOptimisticLock
	}
	return nil
}

// CountByUserStatus 统计用户指定状态的交易数
func (r *tradeRepository) CountByUserStatus(ctx context.Context, userID string, status model.TradeStatus) (int64, error) {
	var count int64
	result := r.DB(ctx).Model(&model.OptionTrade{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&count)

	if result.Error != nil {
		return 0, fmt.Errorf("count trades by status failed: %w", result.Error)
	}
	return count, nil
}

// applyFilter 应用过滤条件
func (r *tradeRepository) applyFilter(db *gorm.DB, filter *TradeFilter) *gorm.DB {
	if filter == nil {
		return db
	}

	if filter.Symbol != "" {
		db = db.Where("symbol = ?", filter.Symbol)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.TimeRange != nil && filter.TimeRange.IsValid() {
		db = db.Where("created_at >= ? AND created_at <= ?", filter.TimeRange.Start, filter.TimeRange.End)
	}

	return db
}
