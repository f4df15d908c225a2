package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arcadia-exchange/arcadia-options/internal/model"
	"github.com/arcadia-exchange/arcadia-options/internal/repository"
	errs "github.com/arcadia-exchange/arcadia-options/pkg/errors"
)

func TestSetPolicy_DeactivatesThenCreates(t *testing.T) {
	policyRepo := &mockPolicyRepo{}
	svc := NewPolicyService(policyRepo)

	// 至多一条生效记录: 先停用旧策略再写入新策略
	policyRepo.On("DeactivateByUser", mock.Anything, "u1", mock.Anything).Return(nil)
	policyRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *model.OutcomePolicy) bool {
		return p.UserID == "u1" && p.Mode == model.ControlModeWin && p.IsActive
	})).Return(nil)

	policy, err := svc.SetPolicy(context.Background(), &SetPolicyRequest{
		UserID:  "u1",
		Mode:    model.ControlModeWin,
		AdminID: "admin1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ControlModeWin, policy.Mode)
	assert.True(t, policy.IsActive)

	policyRepo.AssertExpectations(t)
}

func TestSetPolicy_InvalidMode(t *testing.T) {
	svc := NewPolicyService(&mockPolicyRepo{})

	_, err := svc.SetPolicy(context.Background(), &SetPolicyRequest{
		UserID: "u1",
		Mode:   model.ControlMode(9),
	})
	assert.True(t, errs.Is(err, errs.ErrInvalidControlMode))
}

func TestGetActivePolicy_NotFound(t *testing.T) {
	policyRepo := &mockPolicyRepo{}
	svc := NewPolicyService(policyRepo)

	policyRepo.On("GetActiveByUser", mock.Anything, "u1").
		Return(nil, repository.ErrPolicyNotFound)

	_, err := svc.GetActivePolicy(context.Background(), "u1")
	assert.True(t, errs.Is(err, errs.ErrPolicyNotFound))
}

func TestDeactivatePolicy(t *testing.T) {
	policyRepo := &mockPolicyRepo{}
	svc := NewPolicyService(policyRepo)

	policyRepo.On("DeactivateByUser", mock.Anything, "u1", mock.Anything).Return(nil)

	err := svc.DeactivatePolicy(context.Background(), "u1", "admin1")
	assert.NoError(t, err)
	policyRepo.AssertExpectations(t)
}
