package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"berthops/internal/model"
)

// PerformanceFilter 绩效查询条件
type PerformanceFilter struct {
	WorkerID   string
	PeriodType string
	From       *time.Time
	To         *time.Time
}

// PerformanceRepository 绩效汇总数据访问接口
type PerformanceRepository interface {
	// Upsert 按 工人×周期类型×周期起始日 覆盖写入，不产生重复记录
	Upsert(ctx context.Context, rec *model.PerformanceRecord) error
	GetByKey(ctx context.Context, workerID, periodType string, periodStart time.Time) (*model.PerformanceRecord, error)
	// GetLatestDailyBefore 取该工人在 date 之前最近一天的日记录，用于连续全勤计算
	GetLatestDailyBefore(ctx context.Context, workerID string, date time.Time) (*model.PerformanceRecord, error)
	List(ctx context.Context, filter PerformanceFilter) ([]model.PerformanceRecord, error)
}

type performanceRepo struct {
	db *gorm.DB
}

func NewPerformanceRepo(db *gorm.DB) PerformanceRepository {
	return &performanceRepo{db: db}
}

func (r *performanceRepo) Upsert(ctx context.Context, rec *model.PerformanceRecord) error {
	return r.db.WithContext(ctx).
		Omit("Worker").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "worker_id"}, {Name: "period_type"}, {Name: "period_start"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"period_end", "jobs_assigned", "jobs_completed", "jobs_incomplete",
				"jobs_not_started", "jobs_carried_over", "estimated_hours", "actual_hours",
				"avg_time_rating", "avg_qc_rating", "avg_cleaning_rating", "points_earned",
				"pause_count", "pause_minutes", "completion_rate", "current_streak",
				"max_streak", "updated_at", "updated_by",
			}),
		}).
		Create(rec).Error
}

func (r *performanceRepo) GetByKey(ctx context.Context, workerID, periodType string, periodStart time.Time) (*model.PerformanceRecord, error) {
	var rec model.PerformanceRecord
	err := r.db.WithContext(ctx).
		Where("worker_id = ? AND period_type = ? AND period_start = ?", workerID, periodType, dateParam(periodStart)).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *performanceRepo) GetLatestDailyBefore(ctx context.Context, workerID string, date time.Time) (*model.PerformanceRecord, error) {
	var rec model.PerformanceRecord
	err := r.db.WithContext(ctx).
		Where("worker_id = ? AND period_type = ? AND period_start < ?", workerID, model.PeriodDaily, dateParam(date)).
		Order("period_start DESC").
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *performanceRepo) List(ctx context.Context, filter PerformanceFilter) ([]model.PerformanceRecord, error) {
	var recs []model.PerformanceRecord

	db := r.db.WithContext(ctx).Model(&model.PerformanceRecord{})
	if filter.WorkerID != "" {
		db = db.Where("worker_id = ?", filter.WorkerID)
	}
	if filter.PeriodType != "" {
		db = db.Where("period_type = ?", filter.PeriodType)
	}
	if filter.From != nil {
		db = db.Where("period_start >= ?", dateParam(*filter.From))
	}
	if filter.To != nil {
		db = db.Where("period_start <= ?", dateParam(*filter.To))
	}

	err := db.Preload("Worker").
		Order("period_start ASC, worker_id ASC").
		Find(&recs).Error
	return recs, err
}
