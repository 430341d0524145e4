package pipeline

import (
	"context"

	"github.com/osako110/Recommend/core"
)

// Kind 标记 Node 所处阶段，日志按阶段区分。
type Kind string

const (
	KindRecall      Kind = "recall"      // 并发召回与合并，产生候选
	KindFilter      Kind = "filter"      // 移除候选，不补位
	KindPostProcess Kind = "postprocess" // 不改变集合，只补充展示信息
)

// Node 接收上一个 Node 的输出并返回新的列表。召回 Node 忽略输入。
type Node interface {
	Name() string
	Kind() Kind
	Process(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error)
}

// NodeBuilder 根据 YAML 中的 config 段构建 Node，config 不会为 nil。
type NodeBuilder func(config map[string]any) (Node, error)
