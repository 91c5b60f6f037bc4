package dto

// ── 暂停审批 DTO ──

// PauseRequestListRequest 暂停申请列表查询参数
type PauseRequestListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	Date   string `form:"date"   binding:"omitempty,datetime=2006-01-02"`
}

// ReviewPauseRequest 审批暂停申请请求
type ReviewPauseRequest struct {
	Note string `json:"note" binding:"omitempty,max=500"`
}

// PauseRequestResponse 暂停申请响应
type PauseRequestResponse struct {
	ID              string   `json:"id"`
	JobID           string   `json:"job_id"`
	TrackingID      string   `json:"tracking_id"`
	RequestedBy     string   `json:"requested_by"`
	RequestedAt     string   `json:"requested_at"`
	Reason          string   `json:"reason"`
	Details         string   `json:"details,omitempty"`
	Status          string   `json:"status"`
	ReviewedBy      *string  `json:"reviewed_by,omitempty"`
	ReviewedAt      *string  `json:"reviewed_at,omitempty"`
	ReviewNote      string   `json:"review_note,omitempty"`
	ResumedAt       *string  `json:"resumed_at,omitempty"`
	DurationMinutes *float64 `json:"duration_minutes,omitempty"`
}
