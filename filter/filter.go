// Package filter 提供合并之后、补充目录之前的候选过滤。
package filter

import (
	"context"

	"github.com/osako110/Recommend/core"
)

// Filter 判断候选是否应从推荐集合中移除，true 表示移除。
// 返回 error 时 FilterNode 保留该候选。
type Filter interface {
	Name() string
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// Func 把普通函数适配为 Filter
type Func struct {
	ID string
	Fn func(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

func (f Func) Name() string { return f.ID }

func (f Func) ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	return f.Fn(ctx, rctx, item)
}
