// Package errors 提供统一的错误处理框架
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 错误码
type Code string

const (
	// 通用错误码
	CodeUnknown       Code = "UNKNOWN"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeInvalidInput  Code = "INVALID_INPUT"
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeTimeout       Code = "TIMEOUT"
	CodeRateLimited   Code = "RATE_LIMITED"

	// 排课引擎相关
	CodeConstraintViolation Code = "CONSTRAINT_VIOLATION"
	CodeNoSolutionFound     Code = "NO_SOLUTION_FOUND"
	CodeInvalidDomain       Code = "INVALID_DOMAIN"
	CodeDuplicateVariable   Code = "DUPLICATE_VARIABLE"
	CodeSolverTimeout       Code = "SOLVER_TIMEOUT"
	CodeScheduleConflict    Code = "SCHEDULE_CONFLICT"

	// 求解任务相关
	CodeJobNotFound  Code = "JOB_NOT_FOUND"
	CodeJobQueueFull Code = "JOB_QUEUE_FULL"
	CodeJobNotDone   Code = "JOB_NOT_DONE"

	// 数据相关
	CodeDatabaseError  Code = "DATABASE_ERROR"
	CodeValidationFail Code = "VALIDATION_FAILED"
)

// AppError 应用错误
type AppError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Cause      error                  `json:"-"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithField 添加字段
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New 创建新错误
func New(code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// codeToHTTPStatus 错误码转HTTP状态码
func codeToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeValidationFail:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodeJobNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeScheduleConflict, CodeJobNotDone:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeJobQueueFull:
		return http.StatusServiceUnavailable
	case CodeTimeout, CodeSolverTimeout:
		return http.StatusGatewayTimeout
	case CodeNoSolutionFound, CodeInvalidDomain:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Is 检查错误是否为特定类型
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode 获取错误码
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetHTTPStatus 获取HTTP状态码
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// AsAppError 提取错误链中的应用错误
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// 预定义错误
var (
	ErrNotFound        = New(CodeNotFound, "资源不存在")
	ErrInvalidInput    = New(CodeInvalidInput, "输入参数无效")
	ErrUnauthorized    = New(CodeUnauthorized, "未授权访问")
	ErrForbidden       = New(CodeForbidden, "禁止访问")
	ErrInternal        = New(CodeInternal, "内部错误")
	ErrTimeout         = New(CodeTimeout, "操作超时")
	ErrNoSolutionFound = New(CodeNoSolutionFound, "未找到可行的排课方案")
	ErrSolverTimeout   = New(CodeSolverTimeout, "求解超时")
)

// InvalidInput 创建输入无效错误
func InvalidInput(field, reason string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("字段 '%s' 无效: %s", field, reason))
}

// NotFound 创建资源不存在错误
func NotFound(resource, id string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s '%s' 不存在", resource, id))
}

// ConstraintViolation 创建约束违反错误
func ConstraintViolation(constraint, details string) *AppError {
	return New(CodeConstraintViolation, fmt.Sprintf("违反约束 '%s': %s", constraint, details))
}

// NoSolutionFound 创建无可行解错误
func NoSolutionFound(reason string) *AppError {
	return New(CodeNoSolutionFound, fmt.Sprintf("未找到可行的排课方案: %s", reason))
}

// InvalidDomain 创建空值域错误
// 变量在建模阶段没有任何合法取值时必须显式上报，不允许静默丢弃。
func InvalidDomain(variable, reason string) *AppError {
	return New(CodeInvalidDomain, fmt.Sprintf("变量 %s 的值域为空: %s", variable, reason)).
		WithField("variable", variable)
}

// DuplicateVariable 创建变量重复注册错误
func DuplicateVariable(variable string) *AppError {
	return New(CodeDuplicateVariable, fmt.Sprintf("变量 %s 已注册", variable)).
		WithField("variable", variable)
}

// SolverTimeout 创建求解超时错误
func SolverTimeout(budget string) *AppError {
	return New(CodeSolverTimeout, fmt.Sprintf("求解在 %s 内未完成", budget))
}

// JobNotFound 创建求解任务不存在错误
func JobNotFound(id string) *AppError {
	return New(CodeJobNotFound, fmt.Sprintf("求解任务 '%s' 不存在", id)).
		WithField("job_id", id)
}

// JobQueueFull 创建任务队列已满错误
func JobQueueFull(capacity int) *AppError {
	return New(CodeJobQueueFull, fmt.Sprintf("任务队列已满（容量 %d），请稍后重试", capacity)).
		WithField("capacity", capacity)
}

// JobNotDone 创建任务未完成错误
func JobNotDone(id, state string) *AppError {
	return New(CodeJobNotDone, fmt.Sprintf("求解任务 '%s' 尚未完成（当前状态 %s）", id, state)).
		WithField("job_id", id).
		WithField("state", state)
}

// ValidationErrors 验证错误集合
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// ValidationError 单个验证错误
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 实现 error 接口
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "验证失败"
	}
	return fmt.Sprintf("验证失败: %s - %s", ve.Errors[0].Field, ve.Errors[0].Message)
}

// Add 添加验证错误
func (ve *ValidationErrors) Add(field, message string) {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Message: message})
}

// HasErrors 检查是否有错误
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// ToAppError 转换为 AppError
func (ve *ValidationErrors) ToAppError() *AppError {
	err := New(CodeValidationFail, "验证失败")
	err.Fields = make(map[string]interface{})
	for _, e := range ve.Errors {
		err.Fields[e.Field] = e.Message
	}
	return err
}
