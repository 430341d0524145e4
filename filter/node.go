package filter

import (
	"context"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/pipeline"
	"github.com/osako110/Recommend/pkg/logging"
	"github.com/osako110/Recommend/pkg/metrics"
)

// FilterNode 依次应用 Filters，任一过滤器命中即移除该候选，剩余候选保持原顺序。
// 过滤不会补位，合并后的集合只会变小。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string        { return "filter" }
func (n *FilterNode) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := items[:0:0]
	removed := make(map[string]int)
	for _, item := range items {
		if item == nil {
			continue
		}
		if name, hit := n.match(ctx, rctx, item); hit {
			removed[name]++
			continue
		}
		out = append(out, item)
	}

	for name, count := range removed {
		metrics.FilteredItems.WithLabelValues(name).Add(float64(count))
		logging.Ctx(ctx).Debug().Str("filter", name).Int("removed", count).Int("kept", len(out)).Msg("items filtered")
	}
	return out, nil
}

// match 返回第一个命中的过滤器名称
func (n *FilterNode) match(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (string, bool) {
	for _, f := range n.Filters {
		hit, err := f.ShouldFilter(ctx, rctx, item)
		if err != nil {
			logging.Ctx(ctx).Debug().Err(err).Str("filter", f.Name()).Str("item", item.ID).Msg("filter error, item kept")
			continue
		}
		if hit {
			return f.Name(), true
		}
	}
	return "", false
}
