package recall

import (
	"context"

	"github.com/osako110/Recommend/core"
)

// MergeStrategy 把多路召回结果合并为一个候选列表。
// 失败的召回源以空 Items 出现在 results 中。
type MergeStrategy interface {
	Merge(ctx context.Context, rctx *core.RecommendContext, results []SourceResult) []*core.Item
}

// FirstMergeStrategy 按 Sources 顺序拼接，并按 ID 去重保留第一次出现的（默认策略）。
type FirstMergeStrategy struct{}

func (FirstMergeStrategy) Merge(_ context.Context, _ *core.RecommendContext, results []SourceResult) []*core.Item {
	seen := make(map[string]*core.Item)
	var out []*core.Item
	for _, r := range results {
		for _, it := range r.Items {
			if it == nil {
				continue
			}
			if old, ok := seen[it.ID]; ok {
				for k, v := range it.Labels {
					old.PutLabel(k, v)
				}
				continue
			}
			seen[it.ID] = it
			out = append(out, it)
		}
	}
	return out
}

// HybridMergeStrategy 把 HybridMerger 接入 Fanout：按召回源名称取出协同与内容两路。
// 请求参数 cap 可覆盖 Merger.Cap。
type HybridMergeStrategy struct {
	Merger        *HybridMerger
	Collaborative string // 协同召回源名称，默认 als
	Content       string // 内容召回源名称，默认 content
}

func (s *HybridMergeStrategy) Merge(_ context.Context, rctx *core.RecommendContext, results []SourceResult) []*core.Item {
	collabName, contentName := s.Collaborative, s.Content
	if collabName == "" {
		collabName = SourceALS
	}
	if contentName == "" {
		contentName = SourceContent
	}

	var collab, content []*core.Item
	for _, r := range results {
		switch r.Source {
		case collabName:
			collab = r.Items
		case contentName:
			content = r.Items
		}
	}

	merger := s.Merger
	if merger == nil {
		merger = NewHybridMerger()
	}
	return merger.MergeN(collab, content, rctx.ParamInt("cap", merger.cap()))
}
