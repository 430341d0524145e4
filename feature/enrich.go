package feature

import (
	"context"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/pipeline"
	"github.com/osako110/Recommend/pkg/logging"
)

// 目录信息写入 Item.Meta 的 key
const (
	MetaTitle        = "title"
	MetaAuthors      = "authors"
	MetaCategories   = "categories"
	MetaThumbnailURL = "thumbnail_url"
	MetaDownloadLink = "download_link"
)

// EnrichNode 是后处理节点：在推荐集合确定后，按最终 ID 从目录补充展示信息。
//
// 目录中找不到的物品原样保留（无元信息）；目录整体不可用时记录日志，
// 返回未补充的列表，不影响推荐结果本身。顺序与分数保持不变。
type EnrichNode struct {
	Catalog core.Catalog
}

func (n *EnrichNode) Name() string        { return "postprocess.enrich" }
func (n *EnrichNode) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *EnrichNode) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Catalog == nil || len(items) == 0 {
		return items, nil
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it != nil {
			ids = append(ids, it.ID)
		}
	}

	books, err := n.Catalog.GetBooks(ctx, ids)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int("items", len(ids)).Msg("catalog lookup failed, returning items without metadata")
		return items, nil
	}

	missing := 0
	for _, it := range items {
		if it == nil {
			continue
		}
		b, ok := books[it.ID]
		if !ok {
			missing++
			continue
		}
		ApplyBook(it, b)
	}
	if missing > 0 {
		logging.Ctx(ctx).Debug().Int("missing", missing).Msg("items not found in catalog")
	}
	return items, nil
}

// ApplyBook 把图书元数据写入 Item.Meta
func ApplyBook(it *core.Item, b *core.Book) {
	if it.Meta == nil {
		it.Meta = make(map[string]any, 5)
	}
	it.Meta[MetaTitle] = b.Title
	it.Meta[MetaAuthors] = b.Authors
	it.Meta[MetaCategories] = b.Categories
	it.Meta[MetaThumbnailURL] = b.ThumbnailURL
	it.Meta[MetaDownloadLink] = b.DownloadLink
}
