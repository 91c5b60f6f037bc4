package dto

// ── 结转 DTO ──

// CarryOverRequest 结转请求
// ReassignWorkerIDs 非空时按新名单分配，否则沿用原作业人员
type CarryOverRequest struct {
	Reason             string   `json:"reason"              binding:"required"`
	Notes              string   `json:"notes"               binding:"omitempty,max=2000"`
	WorkerVoiceRef     string   `json:"worker_voice_ref"    binding:"omitempty,max=500"`
	WorkerTranscript   string   `json:"worker_transcript"`
	EngineerVoiceRef   string   `json:"engineer_voice_ref"  binding:"omitempty,max=500"`
	EngineerTranscript string   `json:"engineer_transcript"`
	ReassignWorkerIDs  []string `json:"reassign_worker_ids" binding:"omitempty,dive,uuid"`
}

// CarryOverResponse 结转结果
type CarryOverResponse struct {
	ID                 string            `json:"id"`
	OriginalJobID      string            `json:"original_job_id"`
	NewJobID           string            `json:"new_job_id"`
	TargetDate         string            `json:"target_date,omitempty"`
	TargetPlanID       string            `json:"target_plan_id,omitempty"`
	Reason             string            `json:"reason"`
	Notes              string            `json:"notes,omitempty"`
	WorkerVoiceRef     string            `json:"worker_voice_ref,omitempty"`
	WorkerTranscript   string            `json:"worker_transcript,omitempty"`
	EngineerVoiceRef   string            `json:"engineer_voice_ref,omitempty"`
	EngineerTranscript string            `json:"engineer_transcript,omitempty"`
	HoursSpent         float64           `json:"hours_spent"`
	CreatedBy          string            `json:"created_by"`
	CreatedAt          string            `json:"created_at"`
	NewTracking        *TrackingResponse `json:"new_tracking,omitempty"`
}
