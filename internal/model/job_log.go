package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// 作业日志事件类型
const (
	EventStarted          = "started"
	EventPaused           = "paused"
	EventResumed          = "resumed"
	EventCompleted        = "completed"
	EventMarkedIncomplete = "marked_incomplete"
	EventPauseReviewed    = "pause_reviewed"
	EventAutoFlagged      = "auto_flagged"
	EventCarriedOver      = "carried_over"
	EventCarryOverCreated = "carry_over_created"
)

// JobLog 作业日志表 — 对应 job_logs（只追加的审计轨迹）
type JobLog struct {
	LogID      string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"log_id"`
	JobID      string         `gorm:"type:uuid;not null"                             json:"job_id"`
	EventType  string         `gorm:"type:varchar(30);not null"                      json:"event_type"`
	ActorID    *string        `gorm:"type:uuid"                                      json:"actor_id,omitempty"` // 系统事件为空
	OccurredAt time.Time      `gorm:"not null"                                       json:"occurred_at"`
	Payload    datatypes.JSON `gorm:"type:jsonb;not null"                            json:"payload"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

func (JobLog) TableName() string { return "job_logs" }

// JobEvent 日志载荷的带标签联合类型，每种事件一个具体结构
type JobEvent interface {
	EventType() string
}

type StartedEvent struct {
	Shift      string `json:"shift"`
	FromStatus string `json:"from_status"`
}

type PausedEvent struct {
	PauseRequestID string      `json:"pause_request_id"`
	Reason         PauseReason `json:"reason"`
	Details        string      `json:"details,omitempty"`
}

type ResumedEvent struct {
	PauseRequestID string  `json:"pause_request_id,omitempty"`
	PausedMinutes  float64 `json:"paused_minutes"`
	TotalPaused    float64 `json:"total_paused_minutes"`
}

type CompletedEvent struct {
	ActualHours    float64 `json:"actual_hours"`
	FinalizedPause float64 `json:"finalized_pause_minutes,omitempty"`
	Notes          string  `json:"notes,omitempty"`
	PhotoRef       string  `json:"photo_ref,omitempty"`
}

type MarkedIncompleteEvent struct {
	Reason         IncompleteReason `json:"reason"`
	FromStatus     string           `json:"from_status"`
	ActualHours    *float64         `json:"actual_hours,omitempty"`
	FinalizedPause float64          `json:"finalized_pause_minutes,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	VoiceRef       string           `json:"voice_ref,omitempty"`
	Transcript     string           `json:"transcript,omitempty"`
}

type PauseReviewedEvent struct {
	PauseRequestID string `json:"pause_request_id"`
	Decision       string `json:"decision"`
	Note           string `json:"note,omitempty"`
}

type AutoFlaggedEvent struct {
	FlagType       string           `json:"flag_type"`
	PreviousStatus string           `json:"previous_status"` // 无跟踪记录时为空
	NewStatus      string           `json:"new_status"`
	Reason         IncompleteReason `json:"reason,omitempty"`
	ActualHours    *float64         `json:"actual_hours,omitempty"`
	FinalizedPause float64          `json:"finalized_pause_minutes,omitempty"`
}

// CarriedOverEvent 写入原作业日志
type CarriedOverEvent struct {
	CarryOverID string          `json:"carry_over_id"`
	NewJobID    string          `json:"new_job_id"`
	Reason      CarryOverReason `json:"reason"`
	TargetDate  string          `json:"target_date"`
}

// CarryOverCreatedEvent 写入新作业日志
type CarryOverCreatedEvent struct {
	CarryOverID    string `json:"carry_over_id"`
	OriginalJobID  string `json:"original_job_id"`
	CarryOverCount int    `json:"carry_over_count"`
}

func (StartedEvent) EventType() string          { return EventStarted }
func (PausedEvent) EventType() string           { return EventPaused }
func (ResumedEvent) EventType() string          { return EventResumed }
func (CompletedEvent) EventType() string        { return EventCompleted }
func (MarkedIncompleteEvent) EventType() string { return EventMarkedIncomplete }
func (PauseReviewedEvent) EventType() string    { return EventPauseReviewed }
func (AutoFlaggedEvent) EventType() string      { return EventAutoFlagged }
func (CarriedOverEvent) EventType() string      { return EventCarriedOver }
func (CarryOverCreatedEvent) EventType() string { return EventCarryOverCreated }

// NewJobLog 构造一条日志，actorID 为空表示系统事件
func NewJobLog(jobID, actorID string, at time.Time, ev JobEvent) (*JobLog, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("序列化日志载荷失败: %w", err)
	}
	log := &JobLog{
		JobID:      jobID,
		EventType:  ev.EventType(),
		OccurredAt: at,
		Payload:    datatypes.JSON(payload),
	}
	if actorID != "" {
		log.ActorID = &actorID
	}
	return log, nil
}

// DecodeEvent 将日志载荷还原为具体事件类型
func (l *JobLog) DecodeEvent() (JobEvent, error) {
	var ev JobEvent
	switch l.EventType {
	case EventStarted:
		ev = &StartedEvent{}
	case EventPaused:
		ev = &PausedEvent{}
	case EventResumed:
		ev = &ResumedEvent{}
	case EventCompleted:
		ev = &CompletedEvent{}
	case EventMarkedIncomplete:
		ev = &MarkedIncompleteEvent{}
	case EventPauseReviewed:
		ev = &PauseReviewedEvent{}
	case EventAutoFlagged:
		ev = &AutoFlaggedEvent{}
	case EventCarriedOver:
		ev = &CarriedOverEvent{}
	case EventCarryOverCreated:
		ev = &CarryOverCreatedEvent{}
	default:
		return nil, fmt.Errorf("未知的日志事件类型: %s", l.EventType)
	}
	if err := json.Unmarshal(l.Payload, ev); err != nil {
		return nil, fmt.Errorf("解析日志载荷失败: %w", err)
	}
	return ev, nil
}
