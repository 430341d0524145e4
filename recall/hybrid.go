package recall

import (
	"encoding/binary"
	"math"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/pkg/utils"
)

// HybridMerger 合并协同过滤与内容召回两路结果。
//
// 合并规则：
//  1. 内容召回取前 PerSourceQuota 条；
//  2. 协同召回中剔除所有出现在（完整）内容召回列表中的物品，再取前 PerSourceQuota 条；
//  3. 两部分拼接后随机打乱，截断到 Cap。
//
// 各物品保持来源分数，不做归一化；不同来源的分数不可比较。
// 注意：去重针对完整内容列表，但只有内容列表的前 PerSourceQuota 条进入结果，
// 排在其后的内容物品仍会屏蔽协同结果中的同名物品。
type HybridMerger struct {
	PerSourceQuota int // 每路最多保留条数，默认 25
	Cap            int // 结果上限，默认 50

	// Seed 非空时使用固定随机种子；为空时种子由输入的 xxhash 摘要决定
	Seed *uint64
}

// NewHybridMerger 使用默认召回配置创建合并器。
func NewHybridMerger() *HybridMerger {
	cfg := &core.DefaultRecallConfig{}
	return &HybridMerger{
		PerSourceQuota: cfg.DefaultPerSourceQuota(),
		Cap:            cfg.DefaultCap(),
	}
}

func (m *HybridMerger) cap() int {
	if m.Cap > 0 {
		return m.Cap
	}
	return (&core.DefaultRecallConfig{}).DefaultCap()
}

func (m *HybridMerger) quota() int {
	if m.PerSourceQuota > 0 {
		return m.PerSourceQuota
	}
	return (&core.DefaultRecallConfig{}).DefaultPerSourceQuota()
}

// Merge 以默认上限合并两路候选。
func (m *HybridMerger) Merge(collab, content []*core.Item) []*core.Item {
	return m.MergeN(collab, content, m.cap())
}

// MergeN 以指定上限合并两路候选。两路均为空时返回空列表。
func (m *HybridMerger) MergeN(collab, content []*core.Item, limit int) []*core.Item {
	if limit <= 0 {
		limit = m.cap()
	}
	quota := m.quota()

	content = dedup(content)
	collab = dedup(collab)

	contentIDs := make(map[string]struct{}, len(content))
	for _, it := range content {
		contentIDs[it.ID] = struct{}{}
	}

	out := make([]*core.Item, 0, min(len(content), quota)+min(len(collab), quota))
	for _, it := range head(content, quota) {
		it.PutLabel(core.LabelMergeSource, utils.Label{Value: SourceContent, Source: "merge"})
		out = append(out, it)
	}

	taken := 0
	for _, it := range collab {
		if taken == quota {
			break
		}
		if _, dup := contentIDs[it.ID]; dup {
			continue
		}
		it.PutLabel(core.LabelMergeSource, utils.Label{Value: SourceALS, Source: "merge"})
		out = append(out, it)
		taken++
	}

	if len(out) == 0 {
		return out
	}

	seed := m.seed(collab, content)
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *HybridMerger) seed(collab, content []*core.Item) uint64 {
	if m.Seed != nil {
		return *m.Seed
	}
	return digest(collab, content)
}

// digest 对两路输入（ID 与分数）做 xxhash 摘要，使打乱结果可由输入复现。
func digest(lists ...[]*core.Item) uint64 {
	h := xxhash.New()
	buf := make([]byte, 0, 8)
	for _, list := range lists {
		for _, it := range list {
			_, _ = h.WriteString(it.ID)
			buf = binary.LittleEndian.AppendUint64(buf[:0], math.Float64bits(it.Score))
			_, _ = h.Write(buf)
		}
		_, _ = h.Write([]byte{0xff})
	}
	return h.Sum64()
}

// dedup 去掉 nil 与重复 ID，保留第一次出现的。
func dedup(items []*core.Item) []*core.Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

func head(items []*core.Item, n int) []*core.Item {
	if len(items) > n {
		return items[:n]
	}
	return items
}
