package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/arcadia-exchange/arcadia-options/internal/model"
	"github.com/arcadia-exchange/arcadia-options/internal/repository"
	"github.com/arcadia-exchange/arcadia-options/internal/service"
	errs "github.com/arcadia-exchange/arcadia-options/pkg/errors"
)

// BalanceHandler 余额接口
type BalanceHandler struct {
	balanceService service.BalanceService
}

// NewBalanceHandler 创建余额接口
func NewBalanceHandler(balanceService service.BalanceService) *BalanceHandler {
	return &BalanceHandler{balanceService: balanceService}
}

// GetBalance 查询余额
// GET /api/v1/balances/:symbol
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	balance, err := h.balanceService.GetBalance(c.Request.Context(), userID(c), c.Param("symbol"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, balance)
}

// ListBalances 查询所有余额
// GET /api/v1/balances
func (h *BalanceHandler) ListBalances(c *gin.Context) {
	balances, err := h.balanceService.ListBalances(c.Request.Context(), userID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, balances)
}

// fundingRequest 出入金请求
type fundingRequest struct {
	Symbol string `json:"symbol" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// Deposit 充值
// POST /api/v1/balances/deposit
func (h *BalanceHandler) Deposit(c *gin.Context) {
	var req fundingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, errs.Wrap(errs.ErrInvalidRequest, err))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		Fail(c, errs.ErrInvalidAmount)
		return
	}

	tx, err := h.balanceService.Deposit(c.Request.Context(), userID(c), req.Symbol, amount)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, tx)
}

// Withdraw 提现
// POST /api/v1/balances/withdraw
func (h *BalanceHandler) Withdraw(c *gin.Context) {
	var req fundingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, errs.Wrap(errs.ErrInvalidRequest, err))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		Fail(c, errs.ErrInvalidAmount)
		return
	}

	tx, err := h.balanceService.Withdraw(c.Request.Context(), userID(c), req.Symbol, amount)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, tx)
}

// ListTransactions 查询资金流水
// GET /api/v1/transactions
func (h *BalanceHandler) ListTransactions(c *gin.Context) {
	filter := &repository.TransactionFilter{
		Symbol: c.Query("symbol"),
	}
	if v := c.Query("type"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			txType := model.TransactionType(n)
			filter.Type = &txType
		}
	}

	page := pagination(c)
	txs, err := h.balanceService.ListTransactions(c.Request.Context(), userID(c), filter, page)
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessPage(c, txs, page)
}
