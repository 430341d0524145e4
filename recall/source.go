package recall

import (
	"context"

	"github.com/osako110/Recommend/core"
)

// Source 表示一个可复用的召回源（协同过滤 / 内容向量 / ...）。
// 可以把它理解为“可并发 fan-out 的策略单元”。
//
// 约定：冷启动用户返回空列表与 nil error；error 只表示协作方故障，
// 由 Fanout 降级为该路空结果。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// 召回源名称，同时作为 recall_source 标签值
const (
	SourceALS     = "als"
	SourceContent = "content"
)
