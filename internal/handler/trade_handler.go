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

// TradeHandler 期权交易接口
type TradeHandler struct {
	tradeService      service.TradeService
	settlementService service.SettlementService
}

// NewTradeHandler 创建期权交易接口
func NewTradeHandler(tradeService service.TradeService, settlementService service.SettlementService) *TradeHandler {
	return &TradeHandler{
		tradeService:      tradeService,
		settlementService: settlementService,
	}
}

// createTradeRequest 创建期权交易请求
type createTradeRequest struct {
	Symbol    string `json:"symbol" binding:"required"`
	Direction string `json:"direction" binding:"required"` // UP / DOWN
	Amount    string `json:"amount" binding:"required"`
	Duration  int    `json:"duration" binding:"required"` // 期限 (秒)
}

// CreateTrade 创建期权交易
// POST /api/v1/options/trades
func (h *TradeHandler) CreateTrade(c *gin.Context) {
	var req createTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, errs.Wrap(errs.ErrInvalidRequest, err))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		Fail(c, errs.ErrInvalidAmount)
		return
	}

	trade, err := h.tradeService.CreateTrade(c.Request.Context(), &service.CreateTradeRequest{
		UserID:    userID(c),
		Symbol:    req.Symbol,
		Direction: parseDirection(req.Direction),
		Amount:    amount,
		Duration:  req.Duration,
	})
	if err != nil {
		Fail(c, err)
		return
	}

	Success(c, trade)
}

// CancelTrade 取消期权交易
// POST /api/v1/trades/:id/cancel
func (h *TradeHandler) CancelTrade(c *gin.Context) {
	trade, err := h.tradeService.CancelTrade(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, trade)
}

// executeOptionRequest 结算期权请求
type executeOptionRequest struct {
	TradeID string `json:"trade_id" binding:"required"`
}

// executeOptionResponse 结算期权响应
type executeOptionResponse struct {
	Trade  *model.OptionTrade `json:"trade"`
	IsWin  bool               `json:"is_win"`
	Profit string             `json:"profit"`
}

// ExecuteOption 结算期权交易
// POST /api/v1/options/execute
func (h *TradeHandler) ExecuteOption(c *gin.Context) {
	var req executeOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, errs.Wrap(errs.ErrInvalidRequest, err))
		return
	}

	result, err := h.settlementService.SettleTrade(c.Request.Context(), req.TradeID)
	if err != nil {
		Fail(c, err)
		return
	}

	Success(c, executeOptionResponse{
		Trade:  result.Trade,
		IsWin:  result.IsWin,
		Profit: result.Profit.String(),
	})
}

// GetTrade 查询交易详情
// GET /api/v1/trades/:id
func (h *TradeHandler) GetTrade(c *gin.Context) {
	trade, err := h.tradeService.GetTrade(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, trade)
}

// ListTrades 查询交易列表
// GET /api/v1/trades
func (h *TradeHandler) ListTrades(c *gin.Context) {
	filter := &repository.TradeFilter{
		Symbol: c.Query("symbol"),
	}
	if v := c.Query("status"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			status := model.TradeStatus(n)
			filter.Status = &status
		}
	}

	page := pagination(c)
	trades, err := h.tradeService.ListTrades(c.Request.Context(), userID(c), filter, page)
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessPage(c, trades, page)
}

// parseDirection 解析期权方向
func parseDirection(s string) model.TradeDirection {
	switch s {
	case "UP", "up":
		return model.TradeDirectionUp
	case "DOWN", "down":
		return model.TradeDirectionDown
	default:
		return 0
	}
}
