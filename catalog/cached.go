package catalog

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/pkg/logging"
	"github.com/osako110/Recommend/pkg/metrics"
)

// CachedCatalog 在任意 core.Catalog 前加一层 KV 缓存（Redis / 内存）。
// 缓存读写失败只记录日志，不影响回源结果。
type CachedCatalog struct {
	next   core.Catalog
	store  core.Store
	prefix string
	ttl    int // 秒
}

// NewCachedCatalog 创建带缓存的目录，ttl 单位为秒（0 表示不过期）。
func NewCachedCatalog(next core.Catalog, store core.Store, ttl int) *CachedCatalog {
	return &CachedCatalog{next: next, store: store, prefix: "book:", ttl: ttl}
}

func (c *CachedCatalog) key(id string) string { return c.prefix + id }

func (c *CachedCatalog) GetBooks(ctx context.Context, ids []string) (map[string]*core.Book, error) {
	ids = uniqueIDs(ids)
	out := make(map[string]*core.Book, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	cached, err := c.store.BatchGet(ctx, keys)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("store", c.store.Name()).Msg("catalog cache read failed")
		cached = nil
	}

	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		raw, ok := cached[c.key(id)]
		if !ok {
			missing = append(missing, id)
			continue
		}
		var b core.Book
		if err := json.Unmarshal(raw, &b); err != nil {
			missing = append(missing, id)
			continue
		}
		out[id] = &b
	}
	metrics.CatalogLookups.WithLabelValues("cache", "hit").Add(float64(len(out)))
	metrics.CatalogLookups.WithLabelValues("cache", "miss").Add(float64(len(missing)))

	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.next.GetBooks(ctx, missing)
	if err != nil {
		return nil, err
	}

	kvs := make(map[string][]byte, len(fetched))
	for id, b := range fetched {
		out[id] = b
		if raw, err := json.Marshal(b); err == nil {
			kvs[c.key(id)] = raw
		}
	}
	if len(kvs) > 0 {
		if err := c.store.BatchSet(ctx, kvs, c.ttl); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("store", c.store.Name()).Msg("catalog cache write failed")
		}
	}
	return out, nil
}

// ListBooks 直接转发给被包装的目录，遍历结果不写缓存
func (c *CachedCatalog) ListBooks(ctx context.Context, offset, limit int) ([]*core.Book, error) {
	lister, ok := c.next.(core.BookLister)
	if !ok {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotSupported, "catalog does not support listing")
	}
	return lister.ListBooks(ctx, offset, limit)
}

var (
	_ core.Catalog    = (*CachedCatalog)(nil)
	_ core.BookLister = (*CachedCatalog)(nil)
)
