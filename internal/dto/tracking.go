package dto

// ── 作业执行 DTO ──

// PauseJobRequest 暂停作业请求
type PauseJobRequest struct {
	Reason  string `json:"reason"  binding:"omitempty,max=40"`
	Details string `json:"details" binding:"omitempty,max=1000"`
}

// CompleteJobRequest 完工请求
type CompleteJobRequest struct {
	Notes    string `json:"notes"     binding:"omitempty,max=2000"`
	PhotoRef string `json:"photo_ref" binding:"omitempty,max=500"`
}

// MarkIncompleteRequest 标记未完成请求（含交接语音与转写）
type MarkIncompleteRequest struct {
	Reason     string `json:"reason"     binding:"omitempty,max=40"`
	Notes      string `json:"notes"      binding:"omitempty,max=2000"`
	VoiceRef   string `json:"voice_ref"  binding:"omitempty,max=500"`
	Transcript string `json:"transcript"`
}

// ── 响应 ──

// TrackingResponse 作业跟踪响应
type TrackingResponse struct {
	ID                 string   `json:"id,omitempty"` // 尚未产生跟踪记录时为空
	JobID              string   `json:"job_id"`
	Status             string   `json:"status"`
	Shift              *string  `json:"shift,omitempty"`
	StartedAt          *string  `json:"started_at,omitempty"`
	CompletedAt        *string  `json:"completed_at,omitempty"`
	PausedAt           *string  `json:"paused_at,omitempty"`
	OpenPauseRequestID *string  `json:"open_pause_request_id,omitempty"`
	TotalPausedMinutes float64  `json:"total_paused_minutes"`
	ActualHours        *float64 `json:"actual_hours,omitempty"`
	CarryOverFromJobID *string  `json:"carry_over_from_job_id,omitempty"`
	CarryOverCount     int      `json:"carry_over_count"`
	IsCarryOver        bool     `json:"is_carry_over"`
	CompletionNotes    string   `json:"completion_notes,omitempty"`
	CompletionPhotoRef string   `json:"completion_photo_ref,omitempty"`
	IncompleteReason   *string  `json:"incomplete_reason,omitempty"`
	IncompleteNotes    string   `json:"incomplete_notes,omitempty"`
	HandoverVoiceRef   string   `json:"handover_voice_ref,omitempty"`
	HandoverTranscript string   `json:"handover_transcript,omitempty"`
	AutoFlagged        bool     `json:"auto_flagged"`
	AutoFlagType       *string  `json:"auto_flag_type,omitempty"`
	AutoFlaggedAt      *string  `json:"auto_flagged_at,omitempty"`
	Version            int      `json:"version"`
}

// JobItemResponse 作业列表项（含跟踪状态）
type JobItemResponse struct {
	ID               string           `json:"id"`
	PlanID           string           `json:"plan_id"`
	ScheduledDate    string           `json:"scheduled_date"`
	Shift            string           `json:"shift"`
	EquipmentID      *string          `json:"equipment_id,omitempty"`
	Berth            string           `json:"berth"`
	Priority         string           `json:"priority"`
	EstimatedHours   float64          `json:"estimated_hours"`
	Description      string           `json:"description"`
	Notes            string           `json:"notes,omitempty"`
	WorkerIDs        []string         `json:"worker_ids"`
	CarriedFromJobID *string          `json:"carried_from_job_id,omitempty"`
	Tracking         TrackingResponse `json:"tracking"`
}

// JobLogResponse 作业日志响应
type JobLogResponse struct {
	ID         string      `json:"id"`
	JobID      string      `json:"job_id"`
	EventType  string      `json:"event_type"`
	ActorID    *string     `json:"actor_id,omitempty"`
	OccurredAt string      `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}
