package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"berthops/internal/model"
)

// JobFilter 作业查询条件，空字段表示不过滤
type JobFilter struct {
	Date        time.Time
	Shift       string
	PlanOwnerID string // 计划负责工程师
	WorkerID    string // 被分配的工人
}

// JobRepository 作业数据访问接口
type JobRepository interface {
	Create(ctx context.Context, job *model.Job) error
	GetByID(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, filter JobFilter) ([]model.Job, error)
	BatchCreateAssignments(ctx context.Context, assignments []model.JobAssignment) error
}

type jobRepo struct {
	db *gorm.DB
}

func NewJobRepo(db *gorm.DB) JobRepository {
	return &jobRepo{db: db}
}

// Create 仅写入作业本身，人员分配通过 BatchCreateAssignments 写入
func (r *jobRepo) Create(ctx context.Context, job *model.Job) error {
	return r.db.WithContext(ctx).Omit("Assignments", "Plan").Create(job).Error
}

func (r *jobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	var job model.Job
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Preload("Assignments").
		Where("job_id = ?", id).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepo) List(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	var jobs []model.Job

	db := r.db.WithContext(ctx).Model(&model.Job{}).
		Where("jobs.scheduled_date = ?", dateParam(filter.Date))
	if filter.Shift != "" {
		db = db.Where("jobs.shift = ?", filter.Shift)
	}
	if filter.PlanOwnerID != "" {
		db = db.Joins("JOIN work_plans ON work_plans.plan_id = jobs.plan_id").
			Where("work_plans.owner_id = ?", filter.PlanOwnerID)
	}
	if filter.WorkerID != "" {
		db = db.Where("EXISTS (SELECT 1 FROM job_assignments ja WHERE ja.job_id = jobs.job_id AND ja.worker_id = ?)", filter.WorkerID)
	}

	err := db.Preload("Plan").
		Preload("Assignments").
		Order("jobs.created_at ASC").
		Find(&jobs).Error
	return jobs, err
}

func (r *jobRepo) BatchCreateAssignments(ctx context.Context, assignments []model.JobAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&assignments).Error
}
