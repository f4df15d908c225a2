package service

import (
	"context"
	"errors"
	"time"

	"github.com/arcadia-exchange/arcadia-options/internal/model"
	"github.com/arcadia-exchange/arcadia-options/internal/repository"
	errs "github.com/arcadia-exchange/arcadia-options/pkg/errors"
	"github.com/arcadia-exchange/arcadia-options/pkg/logger"
)

// SetPolicyRequest 设置结果控制策略请求
type SetPolicyRequest struct {
	UserID  string
	Mode    model.ControlMode
	AdminID string
	Notes   string
}

// PolicyService 结果控制策略服务接口
type PolicyService interface {
	// SetPolicy 设置用户策略
	// 同一用户至多一条生效记录: 旧策略停用与新策略写入在同一事务中完成
	SetPolicy(ctx context.Context, req *SetPolicyRequest) (*model.OutcomePolicy, error)

	// GetActivePolicy 查询用户当前生效的策略
	GetActivePolicy(ctx context.Context, userID string) (*model.OutcomePolicy, error)

	// DeactivatePolicy 停用用户策略 (恢复正常结算)
	DeactivatePolicy(ctx context.Context, userID, adminID string) error

	// ListPolicies 查询用户策略历史
	ListPolicies(ctx context.Context, userID string, page *repository.Pagination) ([]*model.OutcomePolicy, error)

	// ListActivePolicies 查询所有生效策略
	ListActivePolicies(ctx context.Context, page *repository.Pagination) ([]*model.OutcomePolicy, error)
}

// policyService 结果控制策略服务实现
type policyService struct {
	policyRepo repository.PolicyRepository
}

// NewPolicyService 创建策略服务
func NewPolicyService(policyRepo repository.PolicyRepository) PolicyService {
	return &policyService{policyRepo: policyRepo}
}

// SetPolicy 设置用户策略
func (s *policyService) SetPolicy(ctx context.Context, req *SetPolicyRequest) (*model.OutcomePolicy, error) {
	if req.UserID == "" {
		return nil, errs.ErrInvalidRequest.WithMessage("用户 ID 不能为空")
	}
	if !req.Mode.IsValid() {
		return nil, errs.ErrInvalidControlMode
	}

	now := time.Now().UnixMilli()
	policy := &model.OutcomePolicy{
		UserID:   req.UserID,
		Mode:     req.Mode,
		IsActive: true,
		AdminID:  req.AdminID,
		Notes:    req.Notes,
	}

	err := s.policyRepo.Transaction(ctx, func(txCtx context.Context) error {
		if err := s.policyRepo.DeactivateByUser(txCtx, req.UserID, now); err != nil {
			return errs.Wrap(errs.ErrInternal, err)
		}
		if err := s.policyRepo.Create(txCtx, policy); err != nil {
			return errs.Wrap(errs.ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("结果控制策略已设置",
		"user_id", req.UserID,
		"mode", req.Mode.String(),
		"admin_id", req.AdminID)

	return policy, nil
}

// GetActivePolicy 查询用户当前生效的策略
func (s *policyService) GetActivePolicy(ctx context.Context, userID string) (*model.OutcomePolicy, error) {
	if userID == "" {
		return nil, errs.ErrInvalidRequest.WithMessage("用户 ID 不能为空")
	}

	policy, err := s.policyRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrPolicyNotFound) {
			return nil, errs.ErrPolicyNotFound
		}
		return nil, errs.Wrap(errs.ErrInternal, err)
	}
	return policy, nil
}

// DeactivatePolicy 停用用户策略
func (s *policyService) DeactivatePolicy(ctx context.Context, userID, adminID string) error {
	if userID == "" {
		return errs.ErrInvalidRequest.WithMessage("用户 ID 不能为空")
	}

	if err := s.policyRepo.DeactivateByUser(ctx, userID, time.Now().UnixMilli()); err != nil {
		return errs.Wrap(errs.ErrInternal, err)
	}

	logger.Info("结果控制策略已停用",
		"user_id", userID,
		"admin_id", adminID)
	return nil
}

// ListPolicies 查询用户策略历史
func (s *policyService) ListPolicies(ctx context.Context, userID string, page *repository.Pagination) ([]*model.OutcomePolicy, error) {
	if userID == "" {
		return nil, errs.ErrInvalidRequest.WithMessage("用户 ID 不能为空")
	}

	policies, err := s.policyRepo.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInternal, err)
	}
	return policies, nil
}

// ListActivePolicies 查询所有生效策略
func (s *policyService) ListActivePolicies(ctx context.Context, page *repository.Pagination) ([]*model.OutcomePolicy, error) {
	policies, err := s.policyRepo.ListActive(ctx, page)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInternal, err)
	}
	return policies, nil
}
