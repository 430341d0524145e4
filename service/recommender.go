package service

import (
	"context"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/feature"
	"github.com/osako110/Recommend/pipeline"
	"github.com/osako110/Recommend/pkg/logging"
	"github.com/osako110/Recommend/recall"
)

// Recommendation 是推荐集合中的一项。
// Score 保持其来源的量纲（协同为内积，内容为索引相似度），不同来源之间不可比较。
type Recommendation struct {
	ItemID       string   `json:"id"`
	Score        float64  `json:"score"`
	Source       string   `json:"source"`
	Title        string   `json:"title,omitempty"`
	Authors      []string `json:"authors,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	DownloadLink string   `json:"download_link,omitempty"`
}

// RecommendationSet 是一次推荐请求的结果
type RecommendationSet struct {
	UserID    string           `json:"user_id"`
	RequestID string           `json:"request_id"`
	Items     []Recommendation `json:"items"`
}

// Recommender 是在线推荐入口：组合推荐走 Pipeline（并发召回 → 合并 → 过滤 → 补充目录），
// 单路推荐直接调用对应召回源。
type Recommender struct {
	Pipeline *pipeline.Pipeline
	ALS      *recall.ALSRecall
	Text     *recall.ContentRecall
	Enrich   *feature.EnrichNode
}

func newRequest(ctx context.Context, userID string) (context.Context, *core.RecommendContext) {
	reqID := logging.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = logging.GenerateRequestID()
		ctx = logging.ContextWithRequestID(ctx, reqID)
	}
	return ctx, &core.RecommendContext{
		UserID:    userID,
		RequestID: reqID,
		Scene:     "combined",
		Params:    map[string]any{},
	}
}

// Recommend 返回协同与内容合并后的推荐集合。两路都失败时返回空集合而不是错误。
func (r *Recommender) Recommend(ctx context.Context, userID string) (*RecommendationSet, error) {
	ctx, rctx := newRequest(ctx, userID)

	items, err := r.Pipeline.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Str("user_id", userID).Int("items", len(items)).Msg("combined recommendation served")
	return toSet(rctx, items), nil
}

// Collaborative 只返回协同过滤结果。冷启动用户返回空集合。
func (r *Recommender) Collaborative(ctx context.Context, userID string, topK int) (*RecommendationSet, error) {
	ctx, rctx := newRequest(ctx, userID)
	rctx.Scene = recall.SourceALS

	items, err := r.ALS.Recommend(ctx, userID, topK)
	if err != nil {
		return nil, err
	}
	return r.finish(ctx, rctx, items)
}

// Content 只返回内容召回结果。没有偏好向量的用户返回空集合。
func (r *Recommender) Content(ctx context.Context, userID string, topK int) (*RecommendationSet, error) {
	ctx, rctx := newRequest(ctx, userID)
	rctx.Scene = recall.SourceContent

	items, err := r.Text.Recommend(ctx, userID, topK)
	if err != nil {
		return nil, err
	}
	return r.finish(ctx, rctx, items)
}

func (r *Recommender) finish(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) (*RecommendationSet, error) {
	if r.Enrich != nil {
		var err error
		if items, err = r.Enrich.Process(ctx, rctx, items); err != nil {
			return nil, err
		}
	}
	return toSet(rctx, items), nil
}

func toSet(rctx *core.RecommendContext, items []*core.Item) *RecommendationSet {
	set := &RecommendationSet{
		UserID:    rctx.UserID,
		RequestID: rctx.RequestID,
		Items:     make([]Recommendation, 0, len(items)),
	}
	for _, it := range items {
		if it == nil {
			continue
		}
		rec := Recommendation{ItemID: it.ID, Score: it.Score, Source: it.Source()}
		rec.Title, _ = it.Meta[feature.MetaTitle].(string)
		rec.Authors, _ = it.Meta[feature.MetaAuthors].([]string)
		rec.Categories, _ = it.Meta[feature.MetaCategories].([]string)
		rec.ThumbnailURL, _ = it.Meta[feature.MetaThumbnailURL].(string)
		rec.DownloadLink, _ = it.Meta[feature.MetaDownloadLink].(string)
		set.Items = append(set.Items, rec)
	}
	return set
}
