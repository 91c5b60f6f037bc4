package repository

import (
	"context"

	"gorm.io/gorm"

	"berthops/internal/model"
)

// JobLogRepository 作业日志数据访问接口，只追加不修改
type JobLogRepository interface {
	Append(ctx context.Context, log *model.JobLog) error
	ListByJob(ctx context.Context, jobID string) ([]model.JobLog, error)
}

type jobLogRepo struct {
	db *gorm.DB
}

func NewJobLogRepo(db *gorm.DB) JobLogRepository {
	return &jobLogRepo{db: db}
}

func (r *jobLogRepo) Append(ctx context.Context, log *model.JobLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *jobLogRepo) ListByJob(ctx context.Context, jobID string) ([]model.JobLog, error) {
	var logs []model.JobLog
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("occurred_at ASC, created_at ASC").
		Find(&logs).Error
	return logs, err
}
