package model

import "time"

// 暂停申请状态
const (
	PauseStatusPending  = "pending"
	PauseStatusApproved = "approved"
	PauseStatusRejected = "rejected"
)

// PauseRequest 暂停申请表 — 对应 pause_requests
// 暂停即时生效，审批异步进行，仅影响日审提交闸门
type PauseRequest struct {
	PauseRequestID  string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"pause_request_id"`
	JobID           string      `gorm:"type:uuid;not null"                             json:"job_id"`
	TrackingID      string      `gorm:"type:uuid;not null"                             json:"tracking_id"`
	RequestedBy     string      `gorm:"type:uuid;not null"                             json:"requested_by"`
	RequestedAt     time.Time   `gorm:"not null"                                       json:"requested_at"`
	Reason          PauseReason `gorm:"type:varchar(40);not null"                      json:"reason"`
	Details         string      `gorm:"type:text;not null;default:''"                  json:"details,omitempty"`
	Status          string      `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	ReviewedBy      *string     `gorm:"type:uuid"                                      json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time  `json:"reviewed_at,omitempty"`
	ReviewNote      string      `gorm:"type:varchar(500);not null;default:''"          json:"review_note,omitempty"`
	ResumedAt       *time.Time  `json:"resumed_at,omitempty"`
	DurationMinutes *float64    `gorm:"type:numeric(10,2)"                             json:"duration_minutes,omitempty"`
	BaseModel

	Job *Job `gorm:"foreignKey:JobID;references:JobID" json:"job,omitempty"`
}

func (PauseRequest) TableName() string { return "pause_requests" }

// IsResolved 已审批（通过或驳回）
func (p *PauseRequest) IsResolved() bool { return p.Status != PauseStatusPending }
