// Package router 提供路由注册
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arcadia-exchange/arcadia-options/internal/handler"
	"github.com/arcadia-exchange/arcadia-options/internal/middleware"
)

// Handlers 路由依赖的接口集合
type Handlers struct {
	Trade   *handler.TradeHandler
	Balance *handler.BalanceHandler
	Admin   *handler.AdminHandler
}

// Setup 创建并注册路由
func Setup(h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(), middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		trades := v1.Group("/trades")
		{
			trades.GET("", h.Trade.ListTrades)
			trades.GET("/:id", h.Trade.GetTrade)
			trades.POST("/:id/cancel", h.Trade.CancelTrade)
		}

		options := v1.Group("/options")
		{
			options.POST("/trades", h.Trade.CreateTrade)
			options.POST("/execute", h.Trade.ExecuteOption)
		}

		balances := v1.Group("/balances")
		{
			balances.GET("", h.Balance.ListBalances)
			balances.GET("/:symbol", h.Balance.GetBalance)
			balances.POST("/deposit", h.Balance.Deposit)
			balances.POST("/withdraw", h.Balance.Withdraw)
		}

		v1.GET("/transactions", h.Balance.ListTransactions)

		admin := v1.Group("/admin")
		{
			admin.POST("/outcome-policies", h.Admin.SetPolicy)
			admin.GET("/outcome-policies", h.Admin.ListActivePolicies)
			admin.GET("/outcome-policies/:user_id", h.Admin.GetPolicy)
			admin.DELETE("/outcome-policies/:user_id", h.Admin.DeactivatePolicy)
			admin.GET("/outcome-policies/:user_id/history", h.Admin.ListPolicyHistory)
		}
	}

	return r
}
