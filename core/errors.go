package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - 引擎错误：USER_NOT_FOUND, PRODUCT_NOT_FOUND, INSUFFICIENT_DATA
//   - 数据错误：MALFORMED_RECORD（构建期跳过，不致命）
//   - 上游错误：UNAVAILABLE（Catalog / Embedder / InteractionLog 失败，可重试）
//
// 「无结果」「无匹配」不是错误，见 RankedList.Status。
type DomainError struct {
	Code    string // 错误代码（如 "USER_NOT_FOUND"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "cf", "content"）
	Err     error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is 按 Module + Code 判断，便于对哨兵错误使用 errors.Is。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Code == t.Code
}

// IsDomainError 检查错误链中是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 创建携带底层错误的领域错误
func WrapDomainError(module, code string, err error, format string, args ...any) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 上游不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 推荐引擎错误代码
	ErrorCodeUserNotFound     = "USER_NOT_FOUND"
	ErrorCodeProductNotFound  = "PRODUCT_NOT_FOUND"
	ErrorCodeInsufficientData = "INSUFFICIENT_DATA"
	ErrorCodeMalformedRecord  = "MALFORMED_RECORD"
)

// 模块名称常量
const (
	ModuleStore    = "store"    // 存储模块
	ModuleCatalog  = "catalog"  // 商品目录 / 交互日志
	ModuleVector   = "vector"   // 向量模块
	ModuleEmbedder = "embedder" // 文本向量化
	ModuleSemantic = "semantic" // 语义检索
	ModuleCF       = "cf"       // 协同过滤
	ModuleContent  = "content"  // 内容推荐
	ModuleService  = "service"  // 门面
)

// NewUserNotFound 用户不存在（无交互记录）
func NewUserNotFound(module, userID string) *DomainError {
	return NewDomainError(module, ErrorCodeUserNotFound, fmt.Sprintf("%s: user %q not found", module, userID))
}

// NewProductNotFound 商品不存在
func NewProductNotFound(module, productID string) *DomainError {
	return NewDomainError(module, ErrorCodeProductNotFound, fmt.Sprintf("%s: product %q not found", module, productID))
}

// NewUnavailable 上游不可用，调用方可在边缘层重试
func NewUnavailable(module string, err error, what string) *DomainError {
	return WrapDomainError(module, ErrorCodeUnavailable, err, "%s: %s unavailable", module, what)
}

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// 通用错误检查函数

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

func IsUserNotFound(err error) bool     { return hasCode(err, ErrorCodeUserNotFound) }
func IsProductNotFound(err error) bool  { return hasCode(err, ErrorCodeProductNotFound) }
func IsInsufficientData(err error) bool { return hasCode(err, ErrorCodeInsufficientData) }
func IsMalformedRecord(err error) bool  { return hasCode(err, ErrorCodeMalformedRecord) }
