package core

import "github.com/osako110/Recommend/pkg/utils"

// Item 是推荐链路中的统一承载结构：候选 ID、来源分数、元信息、标签。
// Score 保持来源自身的量纲（协同过滤为内积，内容召回为索引相似度），不同来源之间不可比较。
type Item struct {
	ID     string
	Score  float64
	Meta   map[string]any
	Labels map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:     id,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Source 返回召回来源（recall_source 标签值），未标注时返回空串。
func (it *Item) Source() string {
	if it == nil || it.Labels == nil {
		return ""
	}
	return it.Labels[LabelRecallSource].Value
}

// 常用标签 key
const (
	LabelRecallSource = "recall_source"
	LabelMergeSource  = "merge_source"
)
