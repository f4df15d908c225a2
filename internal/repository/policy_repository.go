package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/arcadia-exchange/arcadia-options/internal/model"
)

var ErrPolicyNotFound = errors.New("outcome policy not found")

// PolicyRepository 结果控制策略仓储接口
type PolicyRepository interface {
	// Transaction 执行事务
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	// GetActiveByUser 查询用户当前生效的策略
	// 无生效记录时返回 ErrPolicyNotFound (等价于 NORMAL)
	GetActiveByUser(ctx context.Context, userID string) (*model.OutcomePolicy, error)

	// Create 创建策略记录
	Create(ctx context.Context, policy *model.OutcomePolicy) error

	// DeactivateByUser 停用用户所有生效策略
	DeactivateByUser(ctx context.Context, userID string, nowMilli int64) error

	// ListByUser 查询用户策略历史
	ListByUser(ctx context.Context, userID string, page *Pagination) ([]*model.OutcomePolicy, error)

	// ListActive 查询所有生效策略
	ListActive(ctx context.Context, page *Pagination) ([]*model.OutcomePolicy, error)
}

// policyRepository 结果控制策略仓储实现
type policyRepository struct {
	*Repository
}

// NewPolicyRepository 创建策略仓储
func NewPolicyRepository(db *gorm.DB) PolicyRepository {
	return &policyRepository{
		Repository: NewRepository(db),
	}
}

// GetActiveByUser 查询用户当前生效的策略
func (r *policyRepository) GetActiveByUser(ctx context.Context, userID string) (*model.OutcomePolicy, error) {
	var policy model.OutcomePolicy
	result := r.DB(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		First(&policy)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPolicyNotFound
		}
		return nil, fmt.Errorf("get active policy failed: %w", result.Error)
	}
	return &policy, nil
}

// Create 创建策略记录
func (r *policyRepository) Create(ctx context.Context, policy *model.OutcomePolicy) error {
	result := r.DB(ctx).Create(policy)
	if result.Error != nil {
		return fmt.Errorf("create policy failed: %w", result.Error)
	}
	return nil
}

// DeactivateByUser 停用用户所有生效策略
func (r *policyRepository) DeactivateByUser(ctx context.Context, userID string, nowMilli int64) error {
	result := r.DB(ctx).Model(&model.OutcomePolicy{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": nowMilli,
		})

	if result.Error != nil {
		return fmt.Errorf("deactivate policies failed: %w", result.Error)
	}
	return nil
}

// ListByUser 查询用户策略历史
func (r *policyRepository) ListByUser(ctx context.Context, userID string, page *Pagination) ([]*model.OutcomePolicy, error) {
	db := r.DB(ctx).Where("user_id = ?", userID)

	if page != nil {
		var total int64
		if err := db.Model(&model.OutcomePolicy{}).Count(&total).Error; err != nil {
			return nil, fmt.Errorf("count policies failed: %w", err)
		}
		page.Total = total
	}

	var policies []*model.OutcomePolicy
	db = db.Order("created_at DESC")
	if page != nil {
		db = db.Offset(page.Offset()).Limit(page.Limit())
	}

	if err := db.Find(&policies).Error; err != nil {
		return nil, fmt.Errorf("list policies failed: %w", err)
	}
	return policies, nil
}

// ListActive 查询所有生效策略
func (r *policyRepository) ListActive(ctx context.Context, page *Pagination) ([]*model.OutcomePolicy, error) {
	db := r.DB(ctx).Where("is_active = ?", true)

	if page != nil {
		var total int64
		if err := db.Model(&model.OutcomePolicy{}).Count(&total).Error; err != nil {
			return nil, fmt.Errorf("count active policies failed: %w", err)
		}
		page.Total = total
	}

	var policies []*model.OutcomePolicy
	db = db.Order("created_at DESC")
	if page != nil {
		db = db.Offset(page.Offset()).Limit(page.Limit())
	}

	if err := db.Find(&policies).Error; err != nil {
		return nil, fmt.Errorf("list active policies failed: %w", err)
	}
	return policies, nil
}
