package model

// 通知类型
const (
	NotifyPauseRequested   = "pause_requested"
	NotifyPauseReviewed    = "pause_reviewed"
	NotifyOverridePending  = "override_pending"
	NotifyRatingDisputed   = "rating_disputed"
	NotifyDisputeResolved  = "dispute_resolved"
	NotifyCarryOverCreated = "carry_over_created"
	NotifyAutoFlagSummary  = "auto_flag_summary"
	NotifyStreakMilestone  = "streak_milestone"
)

// 通知优先级
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Notification 通知消息表 — 对应 notifications
// 本服务只负责落库，投递由外部通知通道完成
type Notification struct {
	NotificationID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string  `gorm:"type:uuid;not null"                             json:"user_id"`
	Type           string  `gorm:"type:varchar(50);not null"                      json:"type"`
	Title          string  `gorm:"type:varchar(200);not null"                     json:"title"`
	Content        string  `gorm:"type:text;not null"                             json:"content"`
	Priority       string  `gorm:"type:varchar(10);not null;default:'normal'"     json:"priority"`
	IsRead         bool    `gorm:"not null;default:false"                         json:"is_read"`
	RelatedType    *string `gorm:"type:varchar(30)"                               json:"related_type,omitempty"` // job | pause_request | rating | daily_review | carry_over | performance
	RelatedID      *string `gorm:"type:uuid"                                      json:"related_id,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }
