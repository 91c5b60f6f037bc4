package model

import "time"

// CarryOver 结转记录表 — 对应 carry_overs（每个原作业至多一条）
type CarryOver struct {
	CarryOverID        string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"carry_over_id"`
	OriginalJobID      string          `gorm:"type:uuid;not null;uniqueIndex"                 json:"original_job_id"`
	NewJobID           string          `gorm:"type:uuid;not null"                             json:"new_job_id"`
	Reason             CarryOverReason `gorm:"type:varchar(40);not null"                      json:"reason"`
	Notes              string          `gorm:"type:text;not null;default:''"                  json:"notes,omitempty"`
	WorkerVoiceRef     string          `gorm:"type:varchar(500);not null;default:''"          json:"worker_voice_ref,omitempty"`
	WorkerTranscript   string          `gorm:"type:text;not null;default:''"                  json:"worker_transcript,omitempty"`
	EngineerVoiceRef   string          `gorm:"type:varchar(500);not null;default:''"          json:"engineer_voice_ref,omitempty"`
	EngineerTranscript string          `gorm:"type:text;not null;default:''"                  json:"engineer_transcript,omitempty"`
	HoursSpent         float64         `gorm:"type:numeric(8,2);not null;default:0"           json:"hours_spent"`
	CreatedBy          string          `gorm:"type:uuid;not null"                             json:"created_by"`
	CreatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	OriginalJob *Job `gorm:"foreignKey:OriginalJobID;references:JobID" json:"original_job,omitempty"`
	NewJob      *Job `gorm:"foreignKey:NewJobID;references:JobID"      json:"new_job,omitempty"`
}

func (CarryOver) TableName() string { return "carry_overs" }
