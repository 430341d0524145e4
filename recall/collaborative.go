package recall

import (
	"context"
	"sort"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/model"
	"github.com/osako110/Recommend/pkg/utils"
)

// ALSRecall 是基于隐因子内积的协同过滤召回源。
//
// 用户向量与全部物品向量逐一求内积，按分数降序取 TopK；
// 同分时保持物品在因子表中的原始顺序。未知用户返回空列表。
type ALSRecall struct {
	Factors FactorProvider

	// TopK 返回 TopK 个物品，可被请求参数 top_k 覆盖
	TopK int
}

func (r *ALSRecall) Name() string { return SourceALS }

func (r *ALSRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil || rctx.UserID == "" {
		return nil, nil
	}
	topK := r.TopK
	if topK <= 0 {
		topK = (&core.DefaultRecallConfig{}).DefaultTopK()
	}
	return r.Recommend(ctx, rctx.UserID, rctx.ParamInt("top_k", topK))
}

// Recommend 返回用户的前 topK 个物品及其内积分数。
func (r *ALSRecall) Recommend(ctx context.Context, userID string, topK int) ([]*core.Item, error) {
	snap, err := r.Factors.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	userVec, ok := snap.Users.Vector(userID)
	if !ok {
		return nil, nil
	}

	n := snap.Items.Len()
	scores := make([]float64, n)
	order := make([]int, n)
	for i := 0; i < n; i++ {
		scores[i] = model.Dot(userVec, snap.Items.Row(i))
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if topK > 0 && len(order) > topK {
		order = order[:topK]
	}

	out := make([]*core.Item, 0, len(order))
	for _, idx := range order {
		it := core.NewItem(snap.Items.ID(idx))
		it.Score = scores[idx]
		it.PutLabel(core.LabelRecallSource, utils.Label{Value: SourceALS, Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
