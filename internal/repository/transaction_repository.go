package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/arcadia-exchange/arcadia-options/internal/model"
)

var (
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrDuplicateTransaction = errors.New("duplicate transaction")
)

// TransactionRepository 资金流水仓储接口
// 流水只追加; 不提供更新或删除方法
type TransactionRepository interface {
	// Create 追加一条流水
	// reference_id 冲突时返回 ErrDuplicateTransaction，由调用方决定回滚整个事务
	Create(ctx context.Context, tx *model.Transaction) error

	// GetByReferenceID 根据关联业务 ID 查询
	GetByReferenceID(ctx context.Context, referenceID string) (*model.Transaction, error)

	// ListByUser 查询用户流水
	ListByUser(ctx context.Context, userID string, filter *TransactionFilter, page *Pagination) ([]*model.Transaction, error)
}

// TransactionFilter 流水查询过滤条件
type TransactionFilter struct {
	Symbol    string                 // 交易对
	Type      *model.TransactionType // 流水类型
	TimeRange *TimeRange             // 时间范围
}

// transactionRepository 资金流水仓储实现
type transactionRepository struct {
	*Repository
}

// NewTransactionRepository 创建资金流水仓储
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{
		Repository: NewRepository(db),
	}
}

// Create 追加一条流水
func (r *transactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	result := r.DB(ctx).Create(tx)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) || isUniqueViolation(result.Error) {
			return ErrDuplicateTransaction
		}
		return fmt.Errorf("create transaction failed: %w", result.Error)
	}
	return nil
}

// isUniqueViolation 识别唯一约束冲突
// gorm 的 postgres 驱动并不总是翻译为 ErrDuplicatedKey
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "23505")
}

// GetByReferenceID 根据关联业务 ID 查询
func (r *transactionRepository) GetByReferenceID(ctx context.Context, referenceID string) (*model.Transaction, error) {
	var tx model.Transaction
	result := r.DB(ctx).Where("reference_id = ?", referenceID).First(&tx)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("get transaction by reference_id failed: %w", result.Error)
	}
	return &tx, nil
}

// ListByUser 查询用户流水
func (r *transactionRepository) ListByUser(ctx context.Context, userID string, filter *TransactionFilter, page *Pagination) ([]*model.Transaction, error) {
	db := r.DB(ctx).Where("user_id = ?", userID)

	if filter != nil {
		if filter.Symbol != "" {
			db = db.Where("symbol = ?", filter.Symbol)
		}
		if filter.Type != nil {
			db = db.Where("type = ?", *filter.Type)
		}
		if filter.TimeRange != nil && filter.TimeRange.IsValid() {
			db = db.Where("created_at >= ? AND created_at <= ?", filter.TimeRange.Start, filter.TimeRange.End)
		}
	}

	// 统计总数
	if page != nil {
		var total int64
		if err := db.Model(&model.Transaction{}).Count(&total).Error; err != nil {
			return nil, fmt.Errorf("count transactions failed: %w", err)
		}
		page.Total = total
	}

	// 查询列表
	var txs []*model.Transaction
	db = db.Order("created_at DESC")
	if page != nil {
		db = db.Offset(page.Offset()).Limit(page.Limit())
	}

	if err := db.Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("list transactions failed: %w", err)
	}
	return txs, nil
}
