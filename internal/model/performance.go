package model

import "time"

// 统计周期
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// PerformanceRecord 绩效汇总表 — 对应 performance_records（工人×周期类型×周期起始日 唯一）
type PerformanceRecord struct {
	RecordID          string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"record_id"`
	WorkerID          string    `gorm:"type:uuid;not null"                             json:"worker_id"`
	PeriodType        string    `gorm:"type:varchar(10);not null"                      json:"period_type"`
	PeriodStart       time.Time `gorm:"type:date;not null"                             json:"period_start"`
	PeriodEnd         time.Time `gorm:"type:date;not null"                             json:"period_end"`
	JobsAssigned      int       `gorm:"not null;default:0"                             json:"jobs_assigned"`
	JobsCompleted     int       `gorm:"not null;default:0"                             json:"jobs_completed"`
	JobsIncomplete    int       `gorm:"not null;default:0"                             json:"jobs_incomplete"`
	JobsNotStarted    int       `gorm:"not null;default:0"                             json:"jobs_not_started"`
	JobsCarriedOver   int       `gorm:"not null;default:0"                             json:"jobs_carried_over"`
	EstimatedHours    float64   `gorm:"type:numeric(10,2);not null;default:0"          json:"estimated_hours"`
	ActualHours       float64   `gorm:"type:numeric(10,2);not null;default:0"          json:"actual_hours"`
	AvgTimeRating     *float64  `gorm:"type:numeric(4,2)"                              json:"avg_time_rating,omitempty"`
	AvgQCRating       *float64  `gorm:"type:numeric(4,2)"                              json:"avg_qc_rating,omitempty"`
	AvgCleaningRating *float64  `gorm:"type:numeric(4,2)"                              json:"avg_cleaning_rating,omitempty"`
	PointsEarned      int       `gorm:"not null;default:0"                             json:"points_earned"`
	PauseCount        int       `gorm:"not null;default:0"                             json:"pause_count"`
	PauseMinutes      float64   `gorm:"type:numeric(10,2);not null;default:0"          json:"pause_minutes"`
	CompletionRate    float64   `gorm:"type:numeric(5,2);not null;default:0"           json:"completion_rate"`
	CurrentStreak     int       `gorm:"not null;default:0"                             json:"current_streak"`
	MaxStreak         int       `gorm:"not null;default:0"                             json:"max_streak"`
	BaseModel

	Worker *User `gorm:"foreignKey:WorkerID;references:UserID" json:"worker,omitempty"`
}

func (PerformanceRecord) TableName() string { return "performance_records" }
