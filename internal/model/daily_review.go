package model

import "time"

// 日审状态
const (
	ReviewOpen      = "open"
	ReviewPartial   = "partial"
	ReviewSubmitted = "submitted"
)

// DailyReview 工程师日审表 — 对应 daily_reviews（工程师×日期×班次 唯一）
// 计数字段每次获取时重新扫描计算
type DailyReview struct {
	ReviewID              string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"review_id"`
	EngineerID            string     `gorm:"type:uuid;not null"                             json:"engineer_id"`
	ReviewDate            time.Time  `gorm:"type:date;not null"                             json:"review_date"`
	Shift                 string     `gorm:"type:varchar(10);not null"                      json:"shift"`
	Status                string     `gorm:"type:varchar(20);not null;default:'open'"       json:"status"`
	TotalJobs             int        `gorm:"not null;default:0"                             json:"total_jobs"`
	ApprovedJobs          int        `gorm:"not null;default:0"                             json:"approved_jobs"` // 终态为 completed
	IncompleteJobs        int        `gorm:"not null;default:0"                             json:"incomplete_jobs"`
	NotStartedJobs        int        `gorm:"not null;default:0"                             json:"not_started_jobs"`
	CarryOverJobs         int        `gorm:"not null;default:0"                             json:"carry_over_jobs"`
	TotalPauseRequests    int        `gorm:"not null;default:0"                             json:"total_pause_requests"`
	ResolvedPauseRequests int        `gorm:"not null;default:0"                             json:"resolved_pause_requests"`
	MaterialsReviewed     bool       `gorm:"not null;default:false"                         json:"materials_reviewed"`
	SubmittedAt           *time.Time `json:"submitted_at,omitempty"`
	SubmittedBy           *string    `gorm:"type:uuid"                                      json:"submitted_by,omitempty"`
	VersionedModel
}

func (DailyReview) TableName() string { return "daily_reviews" }

// CanSubmit 提交闸门：范围内所有暂停申请均已审批
func (r *DailyReview) CanSubmit() bool {
	return r.ResolvedPauseRequests == r.TotalPauseRequests
}

// IsSubmitted 已提交后不可变
func (r *DailyReview) IsSubmitted() bool { return r.Status == ReviewSubmitted }
