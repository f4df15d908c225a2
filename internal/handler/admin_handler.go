package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/arcadia-exchange/arcadia-options/internal/model"
	"github.com/arcadia-exchange/arcadia-options/internal/service"
	errs "github.com/arcadia-exchange/arcadia-options/pkg/errors"
)

// AdminHandler 管理后台接口
type AdminHandler struct {
	policyService service.PolicyService
}

// NewAdminHandler 创建管理后台接口
func NewAdminHandler(policyService service.PolicyService) *AdminHandler {
	return &AdminHandler{policyService: policyService}
}

// setPolicyRequest 设置结果控制策略请求
type setPolicyRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Mode   string `json:"mode" binding:"required"` // NORMAL / WIN / LOSE
	Notes  string `json:"notes"`
}

// SetPolicy 设置用户结果控制策略
// POST /api/v1/admin/outcome-policies
func (h *AdminHandler) SetPolicy(c *gin.Context) {
	var req setPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, errs.Wrap(errs.ErrInvalidRequest, err))
		return
	}

	mode, ok := parseControlMode(req.Mode)
	if !ok {
		Fail(c, errs.ErrInvalidControlMode)
		return
	}

	policy, err := h.policyService.SetPolicy(c.Request.Context(), &service.SetPolicyRequest{
		UserID:  req.UserID,
		Mode:    mode,
		AdminID: adminID(c),
		Notes:   req.Notes,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, policy)
}

// GetPolicy 查询用户当前生效的策略
// GET /api/v1/admin/outcome-policies/:user_id
func (h *AdminHandler) GetPolicy(c *gin.Context) {
	policy, err := h.policyService.GetActivePolicy(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, policy)
}

// DeactivatePolicy 停用用户策略
// DELETE /api/v1/admin/outcome-policies/:user_id
func (h *AdminHandler) DeactivatePolicy(c *gin.Context) {
	if err := h.policyService.DeactivatePolicy(c.Request.Context(), c.Param("user_id"), adminID(c)); err != nil {
		Fail(c, err)
		return
	}
	Success(c, nil)
}

// ListPolicyHistory 查询用户策略历史
// GET /api/v1/admin/outcome-policies/:user_id/history
func (h *AdminHandler) ListPolicyHistory(c *gin.Context) {
	page := pagination(c)
	policies, err := h.policyService.ListPolicies(c.Request.Context(), c.Param("user_id"), page)
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessPage(c, policies, page)
}

// ListActivePolicies 查询所有生效策略
// GET /api/v1/admin/outcome-policies
func (h *AdminHandler) ListActivePolicies(c *gin.Context) {
	page := pagination(c)
	policies, err := h.policyService.ListActivePolicies(c.Request.Context(), page)
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessPage(c, policies, page)
}

// parseControlMode 解析控制模式
func parseControlMode(s string) (model.ControlMode, bool) {
	switch s {
	case "NORMAL", "normal":
		return model.ControlModeNormal, true
	case "WIN", "win":
		return model.ControlModeWin, true
	case "LOSE", "lose":
		return model.ControlModeLose, true
	default:
		return 0, false
	}
}
