package repository

import (
	"context"

	"gorm.io/gorm"

	"berthops/internal/model"
)

// CarryOverRepository 结转记录数据访问接口
type CarryOverRepository interface {
	// Create 同一原作业重复结转时返回 gorm.ErrDuplicatedKey（唯一约束 uq_carry_overs_original）
	Create(ctx context.Context, co *model.CarryOver) error
	GetByOriginalJob(ctx context.Context, originalJobID string) (*model.CarryOver, error)
	ListByOriginalJobs(ctx context.Context, originalJobIDs []string) ([]model.CarryOver, error)
}

type carryOverRepo struct {
	db *gorm.DB
}

func NewCarryOverRepo(db *gorm.DB) CarryOverRepository {
	return &carryOverRepo{db: db}
}

func (r *carryOverRepo) Create(ctx context.Context, co *model.CarryOver) error {
	return r.db.WithContext(ctx).Omit("OriginalJob", "NewJob").Create(co).Error
}

func (r *carryOverRepo) GetByOriginalJob(ctx context.Context, originalJobID string) (*model.CarryOver, error) {
	var co model.CarryOver
	err := r.db.WithContext(ctx).
		Preload("NewJob").
		Where("original_job_id = ?", originalJobID).
		First(&co).Error
	if err != nil {
		return nil, err
	}
	return &co, nil
}

func (r *carryOverRepo) ListByOriginalJobs(ctx context.Context, originalJobIDs []string) ([]model.CarryOver, error) {
	var list []model.CarryOver
	if len(originalJobIDs) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).
		Where("original_job_id IN ?", originalJobIDs).
		Find(&list).Error
	return list, err
}
