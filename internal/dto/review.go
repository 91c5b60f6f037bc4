package dto

// ── 日审 DTO ──

// GetReviewRequest 获取（或创建）日审
type GetReviewRequest struct {
	Date  string `form:"date"  binding:"required,datetime=2006-01-02"`
	Shift string `form:"shift" binding:"required,oneof=day night"`
}

// MaterialsReviewedRequest 物料核对标记
type MaterialsReviewedRequest struct {
	Reviewed bool `json:"reviewed"`
}

// ReviewResponse 日审响应
type ReviewResponse struct {
	ID                    string  `json:"id"`
	EngineerID            string  `json:"engineer_id"`
	ReviewDate            string  `json:"review_date"`
	Shift                 string  `json:"shift"`
	Status                string  `json:"status"`
	TotalJobs             int     `json:"total_jobs"`
	ApprovedJobs          int     `json:"approved_jobs"`
	IncompleteJobs        int     `json:"incomplete_jobs"`
	NotStartedJobs        int     `json:"not_started_jobs"`
	CarryOverJobs         int     `json:"carry_over_jobs"`
	TotalPauseRequests    int     `json:"total_pause_requests"`
	ResolvedPauseRequests int     `json:"resolved_pause_requests"`
	MaterialsReviewed     bool    `json:"materials_reviewed"`
	CanSubmit             bool    `json:"can_submit"`
	SubmittedAt           *string `json:"submitted_at,omitempty"`
	SubmittedBy           *string `json:"submitted_by,omitempty"`
	Version               int     `json:"version"`
}
