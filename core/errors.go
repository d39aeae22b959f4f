package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 错误分层：
//   - CONFIGURATION_ERROR：配置错误（样本数不匹配、未知模型类型、预测时缺失特征列），
//     立即失败，不重试
//   - DATA_INTEGRITY_ERROR：数据完整性错误（交互日志乱序、日志引用了不存在的用户/物品），
//     特征抽取阶段致命，绝不静默降级为错误特征
//   - NOT_FOUND：资源不存在（查询的用户没有任何打分记录），服务层可恢复
//   - MODEL_UNAVAILABLE：模型未就绪（训练/加载前调用预测），调用方加载或训练后可重试
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "CONFIGURATION_ERROR"）
	Message string // 错误消息
	Module  string // 模块名称（如 "feature", "model", "recommend"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
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

// 错误代码常量
const (
	ErrorCodeConfiguration    = "CONFIGURATION_ERROR"  // 配置非法，立即失败
	ErrorCodeDataIntegrity    = "DATA_INTEGRITY_ERROR" // 输入数据破坏前置约束
	ErrorCodeNotFound         = "NOT_FOUND"            // 资源不存在
	ErrorCodeModelUnavailable = "MODEL_UNAVAILABLE"    // 模型未训练/未加载
	ErrorCodeNotSupported     = "NOT_SUPPORTED"        // 操作不支持
)

// 模块名称常量
const (
	ModuleFeature   = "feature"   // 特征抽取模块
	ModuleModel     = "model"     // 排序模型模块
	ModuleRecommend = "recommend" // 推荐选择模块
	ModulePipeline  = "pipeline"  // 编排模块
	ModuleStore     = "store"     // 存储模块
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsConfiguration 检查错误是否为 CONFIGURATION_ERROR
func IsConfiguration(err error) bool {
	return hasCode(err, ErrorCodeConfiguration)
}

// IsDataIntegrity 检查错误是否为 DATA_INTEGRITY_ERROR
func IsDataIntegrity(err error) bool {
	return hasCode(err, ErrorCodeDataIntegrity)
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsModelUnavailable 检查错误是否为 MODEL_UNAVAILABLE
func IsModelUnavailable(err error) bool {
	return hasCode(err, ErrorCodeModelUnavailable)
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	return hasCode(err, ErrorCodeNotSupported)
}
