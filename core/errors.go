package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 失败语义（引擎的传播策略）：
//   - 单个信号源的超时/数据错误：被吸收，降级为空贡献，绝不上抛
//   - 目录不可用：致命，整个请求失败（实体属性是必需品）
//   - 配置校验失败：拒绝生效，保留上一份合法配置
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "PROVIDER_TIMEOUT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "catalog", "config"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// GetDomainError 获取错误链上的 DomainError，没有则返回 nil
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

// 错误代码常量
const (
	ErrorCodeNotFound           = "NOT_FOUND"           // 资源不存在
	ErrorCodeNotSupported       = "NOT_SUPPORTED"       // 操作不支持
	ErrorCodeUnavailable        = "UNAVAILABLE"         // 服务不可用
	ErrorCodeInvalidInput       = "INVALID_INPUT"       // 输入无效
	ErrorCodeInvalidConfig      = "INVALID_CONFIG"      // 配置违反不变式
	ErrorCodeProviderTimeout    = "PROVIDER_TIMEOUT"    // 信号源超时
	ErrorCodeProviderDataError  = "PROVIDER_DATA_ERROR" // 信号源数据错误
	ErrorCodeCatalogUnavailable = "CATALOG_UNAVAILABLE" // 目录不可用（致命）
)

// 模块名称常量
const (
	ModuleStore    = "store"
	ModuleCatalog  = "catalog"
	ModuleBehavior = "behavior"
	ModuleProvider = "provider"
	ModuleConfig   = "config"
	ModuleEngine   = "engine"
)

// 通用错误定义

var (
	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrStoreNotSupported 表示操作不支持
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")

	// ErrCatalogUnavailable 表示目录不可达，请求级致命错误
	ErrCatalogUnavailable = NewDomainError(ModuleCatalog, ErrorCodeCatalogUnavailable, "catalog: unavailable")
)

func isCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return isCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return isCode(err, ErrorCodeNotSupported) }

// IsInvalidConfig 检查错误是否为配置校验失败
func IsInvalidConfig(err error) bool { return isCode(err, ErrorCodeInvalidConfig) }

// IsCatalogUnavailable 检查错误是否为目录不可用
func IsCatalogUnavailable(err error) bool { return isCode(err, ErrorCodeCatalogUnavailable) }

// IsProviderTimeout 检查错误是否为信号源超时
func IsProviderTimeout(err error) bool { return isCode(err, ErrorCodeProviderTimeout) }
