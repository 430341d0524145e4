package core

import "time"

// EventType 是行为事件类型。
type EventType string

const (
	EventRead              EventType = "read"
	EventPageTurn          EventType = "page_turn"
	EventReview            EventType = "review"
	EventBookmarkAdd       EventType = "bookmark_add"
	EventLogin             EventType = "login"
	EventLogout            EventType = "logout"
	EventPreferencesUpdate EventType = "preferences_update"
)

// InteractionEvent 是服务层持续产生的原始行为事件，记录后不可变。
// 登录等事件没有 ItemID，不参与训练。
type InteractionEvent struct {
	UserID    string
	ItemID    string
	EventType EventType
	Timestamp time.Time
}

// WeightedInteraction 是 (user, item) 维度聚合后的隐式反馈权重，Weight >= 0。
type WeightedInteraction struct {
	UserID string
	ItemID string
	Weight float64
}
