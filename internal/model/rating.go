package model

import (
	"math"
	"time"
)

// JobRating 工人作业评分表 — 对应 job_ratings（每个 作业×工人 唯一）
type JobRating struct {
	RatingID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"rating_id"`
	JobID    string `gorm:"type:uuid;not null"                             json:"job_id"`
	WorkerID string `gorm:"type:uuid;not null"                             json:"worker_id"`
	ReviewID string `gorm:"type:uuid;not null"                             json:"review_id"` // 首次评分所在日审
	RatedBy  string `gorm:"type:uuid;not null"                             json:"rated_by"`

	// 时效评分：计算值 + 工程师改判（需管理员批准后生效）
	TimeRating         *float64   `gorm:"type:numeric(4,1)"                     json:"time_rating,omitempty"`
	TimeRatingOverride *float64   `gorm:"type:numeric(4,1)"                     json:"time_rating_override,omitempty"`
	OverrideReason     string     `gorm:"type:varchar(500);not null;default:''" json:"override_reason,omitempty"`
	OverrideBy         *string    `gorm:"type:uuid"                             json:"override_by,omitempty"`
	OverrideApproved   bool       `gorm:"not null;default:false"                json:"override_approved"`
	OverrideApprovedBy *string    `gorm:"type:uuid"                             json:"override_approved_by,omitempty"`
	OverrideApprovedAt *time.Time `json:"override_approved_at,omitempty"`

	QCRating        *int   `json:"qc_rating,omitempty"`
	QCJustification string `gorm:"type:text;not null;default:''" json:"qc_justification,omitempty"`
	CleaningRating  *int   `json:"cleaning_rating,omitempty"`
	AdminBonus      int    `gorm:"not null;default:0" json:"admin_bonus"`
	PointsEarned    int    `gorm:"not null;default:0" json:"points_earned"`

	// 申诉
	DisputeFiled      bool       `gorm:"not null;default:false"        json:"dispute_filed"`
	DisputeReason     string     `gorm:"type:text;not null;default:''" json:"dispute_reason,omitempty"`
	DisputedAt        *time.Time `json:"disputed_at,omitempty"`
	DisputeResolved   bool       `gorm:"not null;default:false"        json:"dispute_resolved"`
	DisputeResolution string     `gorm:"type:text;not null;default:''" json:"dispute_resolution,omitempty"`
	ResolvedBy        *string    `gorm:"type:uuid"                     json:"resolved_by,omitempty"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
	VersionedModel

	Job    *Job  `gorm:"foreignKey:JobID;references:JobID"     json:"job,omitempty"`
	Worker *User `gorm:"foreignKey:WorkerID;references:UserID" json:"worker,omitempty"`
}

func (JobRating) TableName() string { return "job_ratings" }

// EffectiveTimeRating 改判经管理员批准才生效，否则取计算值
func (r *JobRating) EffectiveTimeRating() *float64 {
	if r.TimeRatingOverride != nil && r.OverrideApproved {
		return r.TimeRatingOverride
	}
	return r.TimeRating
}

// ComputePoints 积分 = 有效时效分 + 质检分 + 清洁分 + 管理员加分，四舍五入且不低于 0
func (r *JobRating) ComputePoints() int {
	total := float64(r.AdminBonus)
	if tr := r.EffectiveTimeRating(); tr != nil {
		total += *tr
	}
	if r.QCRating != nil {
		total += float64(*r.QCRating)
	}
	if r.CleaningRating != nil {
		total += float64(*r.CleaningRating)
	}
	points := int(math.Round(total))
	if points < 0 {
		return 0
	}
	return points
}

// 积分增量来源
const (
	DeltaSourceRating   = "rating"
	DeltaSourceBonus    = "bonus"
	DeltaSourceOverride = "override"
	DeltaSourceDispute  = "dispute"
)

// PointDelta 积分增量流水 — 对应 point_deltas
// AppliedAt 为空表示尚未计入工人累计积分（等待日审提交）
type PointDelta struct {
	DeltaID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"delta_id"`
	RatingID  string     `gorm:"type:uuid;not null"                             json:"rating_id"`
	ReviewID  *string    `gorm:"type:uuid"                                      json:"review_id,omitempty"`
	WorkerID  string     `gorm:"type:uuid;not null"                             json:"worker_id"`
	Delta     int        `gorm:"not null"                                       json:"delta"`
	Source    string     `gorm:"type:varchar(20);not null"                      json:"source"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

func (PointDelta) TableName() string { return "point_deltas" }

// WorkerScore 工人累计积分 — 对应 worker_scores
type WorkerScore struct {
	UserID      string    `gorm:"type:uuid;primaryKey"               json:"user_id"`
	TotalPoints int       `gorm:"not null;default:0"                 json:"total_points"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (WorkerScore) TableName() string { return "worker_scores" }
