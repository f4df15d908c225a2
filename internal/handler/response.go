// Package handler 提供 HTTP 接口
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arcadia-exchange/arcadia-options/internal/repository"
	errs "github.com/arcadia-exchange/arcadia-options/pkg/errors"
)

// Response 统一响应结构
type Response struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageData 分页响应数据
type PageData struct {
	List     interface{} `json:"list"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Total    int64       `json:"total"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    "OK",
		Message: "success",
		Data:    data,
	})
}

// SuccessPage 分页成功响应
func SuccessPage(c *gin.Context, list interface{}, page *repository.Pagination) {
	c.JSON(http.StatusOK, Response{
		Code:    "OK",
		Message: "success",
		Data: PageData{
			List:     list,
			Page:     page.Page,
			PageSize: page.PageSize,
			Total:    page.Total,
		},
	})
}

// Fail 错误响应
// 业务错误映射为对应的 HTTP 状态码, 其余统一 500
func Fail(c *gin.Context, err error) {
	c.JSON(errs.ToHTTPStatus(err), Response{
		Code:    errs.GetCode(err),
		Message: errs.GetMessage(err),
	})
}

// userID 从请求头提取用户 ID
func userID(c *gin.Context) string {
	return c.GetHeader("X-User-Id")
}

// adminID 从请求头提取管理员 ID
func adminID(c *gin.Context) string {
	return c.GetHeader("X-Admin-Id")
}

// pagination 从查询参数提取分页
func pagination(c *gin.Context) *repository.Pagination {
	p := &repository.Pagination{Page: 1, PageSize: 20}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil && v > 0 {
		p.PageSize = v
	}
	return p
}
