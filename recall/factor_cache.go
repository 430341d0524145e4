package recall

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/pkg/logging"
	"github.com/osako110/Recommend/pkg/metrics"
)

// FactorLoader 加载一次训练产出的用户/物品因子表，store.FactorStore 实现该接口。
type FactorLoader interface {
	Load(ctx context.Context, base string) (users, items *core.FactorTable, err error)
}

// FactorSnapshot 是一份只读的因子表快照。
type FactorSnapshot struct {
	Users    *core.FactorTable
	Items    *core.FactorTable
	Base     string
	LoadedAt time.Time
}

// FactorProvider 向协同召回提供当前快照。
type FactorProvider interface {
	Snapshot(ctx context.Context) (*FactorSnapshot, error)
}

// FactorCache 缓存已加载的因子表，首次使用时懒加载，之后由 Run 周期性重载。
// 快照通过原子指针整体替换，请求之间互不阻塞；重载失败时保留旧快照。
type FactorCache struct {
	loader FactorLoader
	base   string

	current atomic.Pointer[FactorSnapshot]
	mu      sync.Mutex // 串行化加载
}

func NewFactorCache(loader FactorLoader, base string) *FactorCache {
	return &FactorCache{loader: loader, base: base}
}

// Snapshot 返回当前快照；尚未加载时同步加载一次。
func (c *FactorCache) Snapshot(ctx context.Context) (*FactorSnapshot, error) {
	if snap := c.current.Load(); snap != nil {
		return snap, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if snap := c.current.Load(); snap != nil {
		return snap, nil
	}
	return c.load(ctx)
}

// Reload 重新加载因子表。失败时返回错误，当前快照保持不变。
func (c *FactorCache) Reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.load(ctx)
	return err
}

func (c *FactorCache) load(ctx context.Context) (*FactorSnapshot, error) {
	users, items, err := c.loader.Load(ctx, c.base)
	if err != nil {
		metrics.FactorReloads.WithLabelValues("failure").Inc()
		return nil, err
	}

	snap := &FactorSnapshot{
		Users:    users,
		Items:    items,
		Base:     c.base,
		LoadedAt: time.Now(),
	}
	c.current.Store(snap)

	metrics.FactorReloads.WithLabelValues("success").Inc()
	metrics.FactorTableRows.WithLabelValues("users").Set(float64(users.Len()))
	metrics.FactorTableRows.WithLabelValues("items").Set(float64(items.Len()))
	logging.Info().
		Str("base", c.base).
		Int("users", users.Len()).
		Int("items", items.Len()).
		Msg("factor tables loaded")
	return snap, nil
}

// Run 按 interval 周期性重载，直到 ctx 结束。
func (c *FactorCache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Reload(ctx); err != nil {
				logging.Warn().Err(err).Str("base", c.base).Msg("factor reload failed, keeping previous snapshot")
			}
		}
	}
}
