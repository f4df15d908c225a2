// Package errors 提供统一的业务错误定义
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error 业务错误
type Error struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	HTTPStatus int               `json:"-"`
	Cause      error             `json:"-"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 实现 errors.Is 接口
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails 添加详情
func (e *Error) WithDetails(details map[string]string) *Error {
	newErr := e.Copy()
	if newErr.Details == nil {
		newErr.Details = make(map[string]string)
	}
	for k, v := range details {
		newErr.Details[k] = v
	}
	return newErr
}

// WithDetail 添加单个详情
func (e *Error) WithDetail(key, value string) *Error {
	return e.WithDetails(map[string]string{key: value})
}

// WithMessage 替换错误消息
func (e *Error) WithMessage(message string) *Error {
	newErr := e.Copy()
	newErr.Message = message
	return newErr
}

// WithMessagef 格式化替换错误消息
func (e *Error) WithMessagef(format string, args ...interface{}) *Error {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// Copy 复制错误
func (e *Error) Copy() *Error {
	newErr := &Error{
		Code:       e.Code,
		Message:    e.Message,
		HTTPStatus: e.HTTPStatus,
		Cause:      e.Cause,
	}
	if e.Details != nil {
		newErr.Details = make(map[string]string)
		for k, v := range e.Details {
			newErr.Details[k] = v
		}
	}
	return newErr
}

// JSON 返回 JSON 格式
func (e *Error) JSON() string {
	data, _ := json.Marshal(e)
	return string(data)
}

// New 创建新错误
func New(code, message string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewWithStatus 创建带 HTTP 状态码的错误
func NewWithStatus(code, message string, httpStatus int) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap 包装错误
func Wrap(err *Error, cause error) *Error {
	newErr := err.Copy()
	newErr.Cause = cause
	return newErr
}

// Wrapf 包装错误并添加信息
func Wrapf(err *Error, format string, args ...interface{}) *Error {
	newErr := err.Copy()
	newErr.Message = fmt.Sprintf("%s: %s", err.Message, fmt.Sprintf(format, args...))
	return newErr
}

// WrapWithCause 包装错误并添加原因和信息
func WrapWithCause(err *Error, cause error, format string, args ...interface{}) *Error {
	newErr := err.Copy()
	newErr.Message = fmt.Sprintf("%s: %s", err.Message, fmt.Sprintf(format, args...))
	newErr.Cause = cause
	return newErr
}

// FromError 从标准错误转换
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var bizErr *Error
	if errors.As(err, &bizErr) {
		return bizErr
	}

	return Wrap(ErrInternal, err)
}

// 通用错误码
var (
	ErrInternal           = NewWithStatus("INTERNAL_ERROR", "内部错误", http.StatusInternalServerError)
	ErrInvalidRequest     = NewWithStatus("INVALID_REQUEST", "请求参数无效", http.StatusBadRequest)
	ErrNotFound           = NewWithStatus("NOT_FOUND", "资源不存在", http.StatusNotFound)
	ErrConflict           = NewWithStatus("CONFLICT", "资源冲突", http.StatusConflict)
	ErrServiceUnavailable = NewWithStatus("SERVICE_UNAVAILABLE", "服务不可用", http.StatusServiceUnavailable)
	ErrTimeout            = NewWithStatus("TIMEOUT", "请求超时", http.StatusGatewayTimeout)
)

// 业务错误码
var (
	// 余额相关
	ErrInsufficientBalance = NewWithStatus("INSUFFICIENT_BALANCE", "余额不足", http.StatusBadRequest)
	ErrNegativeBalance     = NewWithStatus("NEGATIVE_BALANCE", "余额不变量被破坏", http.StatusInternalServerError)

	// 交易相关
	ErrTradeNotFound       = NewWithStatus("TRADE_NOT_FOUND", "交易不存在", http.StatusNotFound)
	ErrTradeNotCancellable = NewWithStatus("TRADE_NOT_CANCELLABLE", "交易不可取消", http.StatusBadRequest)
	ErrInvalidSymbol       = NewWithStatus("INVALID_SYMBOL", "交易对无效", http.StatusBadRequest)
	ErrInvalidAmount       = NewWithStatus("INVALID_AMOUNT", "金额无效", http.StatusBadRequest)
	ErrInvalidDirection    = NewWithStatus("INVALID_DIRECTION", "方向无效", http.StatusBadRequest)
	ErrInvalidDuration     = NewWithStatus("INVALID_DURATION", "期限无效", http.StatusBadRequest)

	// 结算相关
	ErrPriceUnavailable     = NewWithStatus("PRICE_UNAVAILABLE", "价格暂不可用", http.StatusServiceUnavailable)
	ErrSettlementConflict   = NewWithStatus("SETTLEMENT_CONFLICT", "结算并发冲突", http.StatusConflict)
	ErrDuplicateTransaction = NewWithStatus("DUPLICATE_TRANSACTION", "流水已存在", http.StatusConflict)

	// 策略相关
	ErrPolicyNotFound     = NewWithStatus("POLICY_NOT_FOUND", "策略不存在", http.StatusNotFound)
	ErrInvalidControlMode = NewWithStatus("INVALID_CONTROL_MODE", "控制模式无效", http.StatusBadRequest)
)

// ToHTTPStatus 获取 HTTP 状态码
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var bizErr *Error
	if errors.As(err, &bizErr) {
		if bizErr.HTTPStatus != 0 {
			return bizErr.HTTPStatus
		}
	}

	return http.StatusInternalServerError
}

// Is 判断错误类型
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	return errors.Is(err, target)
}

// As 提取错误类型
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetCode 获取错误码
func GetCode(err error) string {
	if err == nil {
		return ""
	}
	var bizErr *Error
	if errors.As(err, &bizErr) {
		return bizErr.Code
	}
	return "UNKNOWN"
}

// GetMessage 获取错误消息
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var bizErr *Error
	if errors.As(err, &bizErr) {
		return bizErr.Message
	}
	return err.Error()
}

// IsNotFound 判断是否为未找到错误
func IsNotFound(err error) bool {
	return Is(err, ErrNotFound) || Is(err, ErrTradeNotFound) || Is(err, ErrPolicyNotFound)
}

// IsRetryable 判断错误是否可重试
// 价格缺失与并发冲突是暂态的，可由调用方稍后重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Is(err, ErrPriceUnavailable) ||
		Is(err, ErrSettlementConflict) ||
		Is(err, ErrServiceUnavailable) ||
		Is(err, ErrTimeout)
}
