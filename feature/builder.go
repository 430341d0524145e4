package feature

import (
	"github.com/osako110/Recommend/core"
)

// Weights 是事件类型到隐式反馈权重的映射，同时充当事件白名单：
// 不在映射中的事件类型在加权前被丢弃。
type Weights map[core.EventType]float64

// DefaultWeights 返回默认权重：review=3，read=2，page_turn / bookmark_add=1。
func DefaultWeights() Weights {
	return Weights{
		core.EventReview:      3.0,
		core.EventRead:        2.0,
		core.EventPageTurn:    1.0,
		core.EventBookmarkAdd: 1.0,
	}
}

// InteractionSet 是一次训练的加权交互表。
// Interactions 每个 (user, item) 只有一行；UserIDs / ItemIDs 按首次出现顺序排列，
// 决定矩阵的行列下标。
type InteractionSet struct {
	Interactions []core.WeightedInteraction
	UserIDs      []string
	ItemIDs      []string

	// Dropped 是被过滤掉的事件数（白名单外、缺少 user/item）
	Dropped int
}

// Empty 判断交互表是否为空
func (s *InteractionSet) Empty() bool {
	return s == nil || len(s.Interactions) == 0
}

// Builder 把原始行为事件转换为加权交互表。
type Builder struct {
	weights Weights
}

// BuilderOption Builder 配置选项
type BuilderOption func(*Builder)

// WithWeights 覆盖默认权重表（同时覆盖白名单）
func WithWeights(w Weights) BuilderOption {
	return func(b *Builder) {
		if len(w) > 0 {
			b.weights = w
		}
	}
}

// WithWeight 单独设置某个事件类型的权重，负值按 0 处理
func WithWeight(eventType core.EventType, weight float64) BuilderOption {
	return func(b *Builder) {
		if weight < 0 {
			weight = 0
		}
		b.weights[eventType] = weight
	}
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Weight 返回事件类型的权重，第二个返回值表示是否在白名单内
func (b *Builder) Weight(eventType core.EventType) (float64, bool) {
	w, ok := b.weights[eventType]
	return w, ok
}

type pairKey struct {
	user string
	item string
}

// Build 过滤、加权并按 (user, item) 求和。空输入返回空表（0×0），不是错误。
func (b *Builder) Build(events []core.InteractionEvent) *InteractionSet {
	set := &InteractionSet{}
	rows := make(map[pairKey]int)
	seenUsers := make(map[string]struct{})
	seenItems := make(map[string]struct{})

	for _, ev := range events {
		w, ok := b.weights[ev.EventType]
		if !ok || ev.ItemID == "" || ev.UserID == "" {
			set.Dropped++
			continue
		}

		if _, ok := seenUsers[ev.UserID]; !ok {
			seenUsers[ev.UserID] = struct{}{}
			set.UserIDs = append(set.UserIDs, ev.UserID)
		}
		if _, ok := seenItems[ev.ItemID]; !ok {
			seenItems[ev.ItemID] = struct{}{}
			set.ItemIDs = append(set.ItemIDs, ev.ItemID)
		}

		key := pairKey{user: ev.UserID, item: ev.ItemID}
		if i, ok := rows[key]; ok {
			set.Interactions[i].Weight += w
			continue
		}
		rows[key] = len(set.Interactions)
		set.Interactions = append(set.Interactions, core.WeightedInteraction{
			UserID: ev.UserID,
			ItemID: ev.ItemID,
			Weight: w,
		})
	}
	return set
}
