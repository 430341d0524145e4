package recall

import (
	"context"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/pkg/utils"
)

// ContentRecall 是基于偏好向量的内容召回源。
//
// 先从用户集合取出用户的偏好向量（由偏好文本编码而来），
// 再在物品集合中做最近邻检索。相似度度量与检索算法由向量服务决定，
// 结果按向量服务返回的顺序输出。没有偏好向量的用户返回空列表。
type ContentRecall struct {
	VectorService core.VectorService

	// UserCollection 用户偏好向量所在集合
	UserCollection string

	// ItemCollection 物品向量所在集合
	ItemCollection string

	// TopK 返回 TopK 个物品，可被请求参数 top_k 覆盖
	TopK int

	// Metric 距离度量：cosine / euclidean / inner_product，为空时使用集合默认值
	Metric string
}

func (r *ContentRecall) Name() string { return SourceContent }

func (r *ContentRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil || rctx.UserID == "" {
		return nil, nil
	}
	topK := r.TopK
	if topK <= 0 {
		topK = (&core.DefaultRecallConfig{}).DefaultTopK()
	}
	return r.Recommend(ctx, rctx.UserID, rctx.ParamInt("top_k", topK))
}

// Recommend 返回与用户偏好向量最相近的 topK 个物品。
func (r *ContentRecall) Recommend(ctx context.Context, userID string, topK int) ([]*core.Item, error) {
	if r.VectorService == nil {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "content recall: vector service not configured")
	}

	fetched, err := r.VectorService.Fetch(ctx, &core.VectorFetchRequest{
		Collection: r.UserCollection,
		IDs:        []string{userID},
	})
	if err != nil {
		if core.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	userVec := fetched.Vectors[userID]
	if len(userVec) == 0 {
		return nil, nil
	}

	result, err := r.VectorService.Search(ctx, &core.VectorSearchRequest{
		Collection: r.ItemCollection,
		Vector:     userVec,
		TopK:       topK,
		Metric:     r.Metric,
	})
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(result.Items))
	for _, hit := range result.Items {
		it := core.NewItem(hit.ID)
		it.Score = hit.Score
		it.PutLabel(core.LabelRecallSource, utils.Label{Value: SourceContent, Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
