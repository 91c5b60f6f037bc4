package dto

// ── 评分 DTO ──

// RateJobRequest 工程师对作业中某工人评分
type RateJobRequest struct {
	JobID           string `json:"job_id"           binding:"required,uuid"`
	WorkerID        string `json:"worker_id"        binding:"required,uuid"`
	QCRating        *int   `json:"qc_rating"`
	QCJustification string `json:"qc_justification" binding:"omitempty,max=2000"`
	CleaningRating  *int   `json:"cleaning_rating"`
}

// OverrideTimeRatingRequest 工程师改判时效分
type OverrideTimeRatingRequest struct {
	Rating float64 `json:"rating" binding:"required"`
	Reason string  `json:"reason" binding:"required,min=2,max=500"`
}

// SetBonusRequest 管理员调整加分
type SetBonusRequest struct {
	Bonus int `json:"bonus"`
}

// DisputeRatingRequest 工人申诉
type DisputeRatingRequest struct {
	Reason string `json:"reason" binding:"required,min=2,max=2000"`
}

// ResolveDisputeRequest 管理员处理申诉，可直接改写评分分项
type ResolveDisputeRequest struct {
	Resolution     string   `json:"resolution"      binding:"required,min=2,max=2000"`
	TimeRating     *float64 `json:"time_rating"`
	QCRating       *int     `json:"qc_rating"`
	CleaningRating *int     `json:"cleaning_rating"`
	AdminBonus     *int     `json:"admin_bonus"`
}

// RatingResponse 评分响应
type RatingResponse struct {
	ID                  string   `json:"id"`
	JobID               string   `json:"job_id"`
	WorkerID            string   `json:"worker_id"`
	ReviewID            string   `json:"review_id"`
	RatedBy             string   `json:"rated_by"`
	TimeRating          *float64 `json:"time_rating,omitempty"`
	TimeRatingOverride  *float64 `json:"time_rating_override,omitempty"`
	OverrideReason      string   `json:"override_reason,omitempty"`
	OverrideApproved    bool     `json:"override_approved"`
	EffectiveTimeRating *float64 `json:"effective_time_rating,omitempty"`
	QCRating            *int     `json:"qc_rating,omitempty"`
	QCJustification     string   `json:"qc_justification,omitempty"`
	CleaningRating      *int     `json:"cleaning_rating,omitempty"`
	AdminBonus          int      `json:"admin_bonus"`
	PointsEarned        int      `json:"points_earned"`
	DisputeFiled        bool     `json:"dispute_filed"`
	DisputeReason       string   `json:"dispute_reason,omitempty"`
	DisputeResolved     bool     `json:"dispute_resolved"`
	DisputeResolution   string   `json:"dispute_resolution,omitempty"`
	Version             int      `json:"version"`
}
