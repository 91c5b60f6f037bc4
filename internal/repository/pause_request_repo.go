package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"berthops/internal/model"
)

// PauseRequestFilter 暂停申请查询条件
type PauseRequestFilter struct {
	Status string
	JobIDs []string // 为 nil 时不限作业
}

// PauseRequestRepository 暂停申请数据访问接口
type PauseRequestRepository interface {
	Create(ctx context.Context, pr *model.PauseRequest) error
	GetByID(ctx context.Context, id string) (*model.PauseRequest, error)
	List(ctx context.Context, filter PauseRequestFilter) ([]model.PauseRequest, error)
	// RecordResume 记录恢复时刻与暂停时长，不改变审批状态
	RecordResume(ctx context.Context, id string, resumedAt time.Time, durationMinutes float64) error
	// Review 条件更新：仅当申请仍为 pending 时写入审批结果，返回是否写入成功
	Review(ctx context.Context, id, status, reviewerID, note string, reviewedAt time.Time) (bool, error)
}

type pauseRequestRepo struct {
	db *gorm.DB
}

func NewPauseRequestRepo(db *gorm.DB) PauseRequestRepository {
	return &pauseRequestRepo{db: db}
}

func (r *pauseRequestRepo) Create(ctx context.Context, pr *model.PauseRequest) error {
	return r.db.WithContext(ctx).Omit("Job").Create(pr).Error
}

func (r *pauseRequestRepo) GetByID(ctx context.Context, id string) (*model.PauseRequest, error) {
	var pr model.PauseRequest
	err := r.db.WithContext(ctx).
		Preload("Job").
		Preload("Job.Plan").
		Where("pause_request_id = ?", id).
		First(&pr).Error
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

func (r *pauseRequestRepo) List(ctx context.Context, filter PauseRequestFilter) ([]model.PauseRequest, error) {
	var prs []model.PauseRequest
	if filter.JobIDs != nil && len(filter.JobIDs) == 0 {
		return prs, nil
	}

	db := r.db.WithContext(ctx).Model(&model.PauseRequest{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.JobIDs != nil {
		db = db.Where("job_id IN ?", filter.JobIDs)
	}
	err := db.Order("requested_at ASC").Find(&prs).Error
	return prs, err
}

func (r *pauseRequestRepo) RecordResume(ctx context.Context, id string, resumedAt time.Time, durationMinutes float64) error {
	return r.db.WithContext(ctx).
		Model(&model.PauseRequest{}).
		Where("pause_request_id = ?", id).
		Updates(map[string]interface{}{
			"resumed_at":       resumedAt,
			"duration_minutes": durationMinutes,
		}).Error
}

func (r *pauseRequestRepo) Review(ctx context.Context, id, status, reviewerID, note string, reviewedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.PauseRequest{}).
		Where("pause_request_id = ? AND status = ?", id, model.PauseStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_by": reviewerID,
			"reviewed_at": reviewedAt,
			"review_note": note,
			"updated_by":  reviewerID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
