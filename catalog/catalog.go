// Package catalog 提供图书目录（core.Catalog）的实现：SQL、PostgREST 风格 HTTP、
// 带 KV 缓存的装饰器以及内存实现。目录只在推荐集合确定后用于补充展示信息。
package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/osako110/Recommend/core"
)

// BookFields 是目录查询返回的字段
var BookFields = []string{"id", "title", "authors", "categories", "thumbnail_url", "download_link"}

// MemoryCatalog 是内存实现的 core.Catalog，用于测试/开发。
type MemoryCatalog struct {
	mu    sync.RWMutex
	books map[string]*core.Book
}

func NewMemoryCatalog(books ...*core.Book) *MemoryCatalog {
	c := &MemoryCatalog{books: make(map[string]*core.Book, len(books))}
	for _, b := range books {
		c.books[b.ID] = b
	}
	return c
}

// Put 写入或覆盖一本图书
func (c *MemoryCatalog) Put(b *core.Book) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.books[b.ID] = b
}

func (c *MemoryCatalog) GetBooks(_ context.Context, ids []string) (map[string]*core.Book, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]*core.Book, len(ids))
	for _, id := range ids {
		if b, ok := c.books[id]; ok {
			cp := *b
			out[id] = &cp
		}
	}
	return out, nil
}

func (c *MemoryCatalog) ListBooks(_ context.Context, offset, limit int) ([]*core.Book, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.books))
	for id := range c.books {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if offset < 0 {
		offset = 0
	}
	if offset >= len(ids) {
		return nil, nil
	}
	ids = ids[offset:]
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]*core.Book, len(ids))
	for i, id := range ids {
		cp := *c.books[id]
		out[i] = &cp
	}
	return out, nil
}

// uniqueIDs 去掉空串与重复 ID，保持顺序
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// chunk 把 ids 切分为不超过 size 的批次
func chunk(ids []string, size int) [][]string {
	if size <= 0 {
		return [][]string{ids}
	}
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

// stringList 把列表列的各种数据库表示统一为 []string：
// 原生数组、JSON 数组文本、Postgres 数组字面量 {a,b} 或逗号分隔文本。
func stringList(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, e := range val {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []byte:
		return stringList(string(val))
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		if strings.HasPrefix(s, "[") {
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err == nil {
				return arr
			}
		}
		s = strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.Trim(strings.TrimSpace(p), `"`)
			if p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}

var (
	_ core.Catalog    = (*MemoryCatalog)(nil)
	_ core.BookLister = (*MemoryCatalog)(nil)
)
