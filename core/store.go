package core

import "context"

// Store 是带过期时间的 KV 存储，目前只用于图书元数据缓存（catalog.CachedCatalog），
// 实现为 store.MemoryStore 与 store.RedisStore。ttl 单位为秒，省略或为 0 表示不过期。
type Store interface {
	Name() string

	// Get 在 key 不存在时返回 ErrStoreNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl ...int) error
	Delete(ctx context.Context, key string) error

	// BatchGet 只返回命中的 key
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)
	BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error

	Close() error
}

// ErrStoreNotFound 表示 key 不存在
var ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

// IsStoreNotFound 只匹配 store 模块的 NOT_FOUND，其他模块的缺失不算
func IsStoreNotFound(err error) bool {
	e := GetDomainError(err)
	return e != nil && e.Module == ModuleStore && e.Code == ErrorCodeNotFound
}
