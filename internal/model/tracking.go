package model

import "time"

// 作业跟踪状态
const (
	TrackingPending    = "pending"
	TrackingNotStarted = "not_started"
	TrackingInProgress = "in_progress"
	TrackingPaused     = "paused"
	TrackingCompleted  = "completed"
	TrackingIncomplete = "incomplete"
)

// 自动标记子类型
const (
	AutoFlagNeverStarted = "never_started"
	AutoFlagNotFinished  = "not_finished"
)

// IsTerminalTracking 终态不可再迁移
func IsTerminalTracking(status string) bool {
	return status == TrackingCompleted || status == TrackingIncomplete
}

// JobTracking 作业执行跟踪表 — 对应 job_trackings（与 jobs 1:1）
type JobTracking struct {
	TrackingID         string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"tracking_id"`
	JobID              string     `gorm:"type:uuid;not null;uniqueIndex"                 json:"job_id"`
	Status             string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	Shift              *string    `gorm:"type:varchar(10)"                               json:"shift,omitempty"` // 由开工时刻推导
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	PausedAt           *time.Time `json:"paused_at,omitempty"`                                                           // 当前暂停开始时刻
	OpenPauseRequestID *string    `gorm:"type:uuid"                                      json:"open_pause_request_id,omitempty"` // 当前暂停对应的申请
	TotalPausedMinutes float64    `gorm:"type:numeric(10,2);not null;default:0"          json:"total_paused_minutes"`
	ActualHours        *float64   `gorm:"type:numeric(8,2)"                              json:"actual_hours,omitempty"`

	// 结转链路
	CarryOverFromJobID *string `gorm:"type:uuid"             json:"carry_over_from_job_id,omitempty"`
	CarryOverCount     int     `gorm:"not null;default:0"    json:"carry_over_count"`
	IsCarryOver        bool    `gorm:"not null;default:false" json:"is_carry_over"`

	// 完工 / 未完成交接
	CompletionNotes    string            `gorm:"type:text;not null;default:''"         json:"completion_notes,omitempty"`
	CompletionPhotoRef string            `gorm:"type:varchar(500);not null;default:''" json:"completion_photo_ref,omitempty"`
	IncompleteReason   *IncompleteReason `gorm:"type:varchar(40)"                      json:"incomplete_reason,omitempty"`
	IncompleteNotes    string            `gorm:"type:text;not null;default:''"         json:"incomplete_notes,omitempty"`
	HandoverVoiceRef   string            `gorm:"type:varchar(500);not null;default:''" json:"handover_voice_ref,omitempty"`
	HandoverTranscript string            `gorm:"type:text;not null;default:''"         json:"handover_transcript,omitempty"`

	// 自动标记
	AutoFlagged   bool       `gorm:"not null;default:false" json:"auto_flagged"`
	AutoFlagType  *string    `gorm:"type:varchar(20)"       json:"auto_flag_type,omitempty"`
	AutoFlaggedAt *time.Time `json:"auto_flagged_at,omitempty"`
	VersionedModel

	Job *Job `gorm:"foreignKey:JobID;references:JobID" json:"job,omitempty"`
}

func (JobTracking) TableName() string { return "job_trackings" }

// HasStarted 是否曾开工
func (t *JobTracking) HasStarted() bool { return t.StartedAt != nil }
