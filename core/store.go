package core

import "context"

// Store 是存储的领域接口。
//
// 定义在领域层（core），由基础设施层（store）实现，避免循环依赖。
// 服务层用它缓存序列化后的推荐列表；已读物品集合也通过它读取。
//
// 实现：
//   - store.MemoryStore（测试/开发/单机）
//   - store.RedisStore（生产）
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key 的值
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value，ttl 单位为秒（可选，0 表示不过期）
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// Close 关闭连接/释放资源
	Close() error
}

// SetStore 是 Store 的扩展接口，支持集合操作。
// 用于维护每个用户的已读物品集合（exclude_seen 过滤的数据源）。
// 如果后端不支持，可返回 ErrStoreNotSupported。
type SetStore interface {
	Store

	// SAdd 向集合添加成员
	SAdd(ctx context.Context, key string, members ...string) error

	// SIsMember 判断成员是否在集合中
	SIsMember(ctx context.Context, key, member string) (bool, error)

	// SMembers 返回集合全部成员
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrStoreNotSupported 表示操作不支持
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")
)

// IsStoreNotFound 检查错误是否为 key 不存在
func IsStoreNotFound(err error) bool {
	domainErr := GetDomainError(err)
	if domainErr != nil && domainErr.Module == ModuleStore {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}
