package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"berthops/internal/model"
	pkgerrors "berthops/pkg/errors"
)

// DailyReviewRepository 日审数据访问接口
type DailyReviewRepository interface {
	// GetOrCreate 按 工程师×日期×班次 幂等获取，不存在则以 open 状态创建
	GetOrCreate(ctx context.Context, engineerID string, date time.Time, shift string) (*model.DailyReview, error)
	GetByID(ctx context.Context, id string) (*model.DailyReview, error)
	// GetByIDForUpdate 事务内读取并锁定日审行，评分与提交在此串行
	GetByIDForUpdate(ctx context.Context, id string) (*model.DailyReview, error)
	Update(ctx context.Context, review *model.DailyReview) error
}

type dailyReviewRepo struct {
	db *gorm.DB
}

func NewDailyReviewRepo(db *gorm.DB) DailyReviewRepository {
	return &dailyReviewRepo{db: db}
}

func (r *dailyReviewRepo) GetOrCreate(ctx context.Context, engineerID string, date time.Time, shift string) (*model.DailyReview, error) {
	review := &model.DailyReview{
		EngineerID: engineerID,
		ReviewDate: model.DateOnly(date),
		Shift:      shift,
		Status:     model.ReviewOpen,
	}
	review.CreatedBy = &engineerID

	// 并发创建时唯一约束兜底，冲突方回退为查询
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "engineer_id"}, {Name: "review_date"}, {Name: "shift"}},
			DoNothing: true,
		}).
		Create(review).Error
	if err != nil {
		return nil, err
	}

	var existing model.DailyReview
	err = r.db.WithContext(ctx).
		Where("engineer_id = ? AND review_date = ? AND shift = ?", engineerID, dateParam(date), shift).
		First(&existing).Error
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *dailyReviewRepo) GetByID(ctx context.Context, id string) (*model.DailyReview, error) {
	var review model.DailyReview
	err := r.db.WithContext(ctx).
		Where("review_id = ?", id).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *dailyReviewRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.DailyReview, error) {
	var review model.DailyReview
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("review_id = ?", id).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *dailyReviewRepo) Update(ctx context.Context, review *model.DailyReview) error {
	oldVersion := review.Version
	result := r.db.WithContext(ctx).
		Model(&model.DailyReview{}).
		Where("review_id = ? AND version = ?", review.ReviewID, oldVersion).
		Updates(map[string]interface{}{
			"status":                  review.Status,
			"total_jobs":              review.TotalJobs,
			"approved_jobs":           review.ApprovedJobs,
			"incomplete_jobs":         review.IncompleteJobs,
			"not_started_jobs":        review.NotStartedJobs,
			"carry_over_jobs":         review.CarryOverJobs,
			"total_pause_requests":    review.TotalPauseRequests,
			"resolved_pause_requests": review.ResolvedPauseRequests,
			"materials_reviewed":      review.MaterialsReviewed,
			"submitted_at":            review.SubmittedAt,
			"submitted_by":            review.SubmittedBy,
			"updated_by":              review.UpdatedBy,
			"version":                 oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	review.Version = oldVersion + 1
	return nil
}
