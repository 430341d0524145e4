package service

import (
	"context"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/feature"
	"github.com/osako110/Recommend/pkg/logging"
)

// PreferenceIndexer 把用户偏好写入向量索引的用户集合，供内容召回读取。
// 偏好以文本写入，由向量服务（或其文本编码器）负责编码。
type PreferenceIndexer struct {
	Vectors    core.VectorService
	Collection string
}

// Index 写入或覆盖用户的偏好文本
func (p *PreferenceIndexer) Index(ctx context.Context, userID string, prefs feature.Preferences) error {
	if userID == "" {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "user id is required")
	}
	text := prefs.Text()
	err := p.Vectors.Upsert(ctx, &core.VectorUpsertRequest{
		Collection: p.Collection,
		Records:    []core.VectorRecord{{ID: userID, Text: text}},
	})
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("preference upsert failed")
		return err
	}
	logging.Ctx(ctx).Debug().Str("user_id", userID).Str("text", text).Msg("preferences indexed")
	return nil
}
