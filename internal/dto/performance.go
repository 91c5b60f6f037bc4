package dto

// ── 自动标记与绩效 DTO ──

// AutoFlagRequest 手动触发班末自动标记
type AutoFlagRequest struct {
	Date  string `json:"date"  binding:"required,datetime=2006-01-02"`
	Shift string `json:"shift" binding:"required,oneof=day night"`
}

// AutoFlagResponse 自动标记结果
type AutoFlagResponse struct {
	Date             string `json:"date"`
	Shift            string `json:"shift"`
	FlaggedCount     int    `json:"flagged_count"`
	NeverStarted     int    `json:"never_started"`
	NotFinished      int    `json:"not_finished"`
	CreatedTrackings int    `json:"created_trackings"`
	NotifiedOwners   int    `json:"notified_owners"`
}

// ComputePerformanceRequest 手动触发绩效汇总
type ComputePerformanceRequest struct {
	Date string `json:"date" binding:"required,datetime=2006-01-02"`
}

// ComputePerformanceResponse 绩效汇总结果
type ComputePerformanceResponse struct {
	Date       string `json:"date"`
	Workers    int    `json:"workers"`
	Milestones int    `json:"milestones"`
}

// PerformanceListRequest 绩效记录查询参数
type PerformanceListRequest struct {
	WorkerID   string `form:"worker_id"   binding:"omitempty,uuid"`
	PeriodType string `form:"period_type" binding:"omitempty,oneof=daily weekly monthly"`
	From       string `form:"from"        binding:"omitempty,datetime=2006-01-02"`
	To         string `form:"to"          binding:"omitempty,datetime=2006-01-02"`
}

// PerformanceResponse 绩效记录响应
type PerformanceResponse struct {
	ID                string     `json:"id"`
	Worker            *UserBrief `json:"worker,omitempty"`
	WorkerID          string     `json:"worker_id"`
	PeriodType        string     `json:"period_type"`
	PeriodStart       string     `json:"period_start"`
	PeriodEnd         string     `json:"period_end"`
	JobsAssigned      int        `json:"jobs_assigned"`
	JobsCompleted     int        `json:"jobs_completed"`
	JobsIncomplete    int        `json:"jobs_incomplete"`
	JobsNotStarted    int        `json:"jobs_not_started"`
	JobsCarriedOver   int        `json:"jobs_carried_over"`
	EstimatedHours    float64    `json:"estimated_hours"`
	ActualHours       float64    `json:"actual_hours"`
	AvgTimeRating     *float64   `json:"avg_time_rating,omitempty"`
	AvgQCRating       *float64   `json:"avg_qc_rating,omitempty"`
	AvgCleaningRating *float64   `json:"avg_cleaning_rating,omitempty"`
	PointsEarned      int        `json:"points_earned"`
	PauseCount        int        `json:"pause_count"`
	PauseMinutes      float64    `json:"pause_minutes"`
	CompletionRate    float64    `json:"completion_rate"`
	CurrentStreak     int        `json:"current_streak"`
	MaxStreak         int        `json:"max_streak"`
}

// ExportPerformanceRequest 导出某日绩效
type ExportPerformanceRequest struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

// ── 通知 ──

// NotificationListRequest 通知列表查询参数
type NotificationListRequest struct {
	UnreadOnly bool `form:"unread_only"`
	PaginationRequest
}

// NotificationResponse 通知响应
type NotificationResponse struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	Priority    string  `json:"priority"`
	IsRead      bool    `json:"is_read"`
	RelatedType *string `json:"related_type,omitempty"`
	RelatedID   *string `json:"related_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
}
