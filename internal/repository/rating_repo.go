package repository

import (
	"context"

	"gorm.io/gorm"

	"berthops/internal/model"
	pkgerrors "berthops/pkg/errors"
)

// RatingRepository 评分数据访问接口
type RatingRepository interface {
	Create(ctx context.Context, rating *model.JobRating) error
	GetByID(ctx context.Context, id string) (*model.JobRating, error)
	GetByJobAndWorker(ctx context.Context, jobID, workerID string) (*model.JobRating, error)
	ListByReview(ctx context.Context, reviewID string) ([]model.JobRating, error)
	ListByJobIDs(ctx context.Context, jobIDs []string) ([]model.JobRating, error)
	Update(ctx context.Context, rating *model.JobRating) error
}

type ratingRepo struct {
	db *gorm.DB
}

func NewRatingRepo(db *gorm.DB) RatingRepository {
	return &ratingRepo{db: db}
}

func (r *ratingRepo) Create(ctx context.Context, rating *model.JobRating) error {
	return r.db.WithContext(ctx).Omit("Job", "Worker").Create(rating).Error
}

func (r *ratingRepo) GetByID(ctx context.Context, id string) (*model.JobRating, error) {
	var rating model.JobRating
	err := r.db.WithContext(ctx).
		Where("rating_id = ?", id).
		First(&rating).Error
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *ratingRepo) GetByJobAndWorker(ctx context.Context, jobID, workerID string) (*model.JobRating, error) {
	var rating model.JobRating
	err := r.db.WithContext(ctx).
		Where("job_id = ? AND worker_id = ?", jobID, workerID).
		First(&rating).Error
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *ratingRepo) ListByReview(ctx context.Context, reviewID string) ([]model.JobRating, error) {
	var ratings []model.JobRating
	err := r.db.WithContext(ctx).
		Where("review_id = ?", reviewID).
		Find(&ratings).Error
	return ratings, err
}

func (r *ratingRepo) ListByJobIDs(ctx context.Context, jobIDs []string) ([]model.JobRating, error) {
	var ratings []model.JobRating
	if len(jobIDs) == 0 {
		return ratings, nil
	}
	err := r.db.WithContext(ctx).
		Where("job_id IN ?", jobIDs).
		Find(&ratings).Error
	return ratings, err
}

func (r *ratingRepo) Update(ctx context.Context, rating *model.JobRating) error {
	oldVersion := rating.Version
	result := r.db.WithContext(ctx).
		Model(&model.JobRating{}).
		Where("rating_id = ? AND version = ?", rating.RatingID, oldVersion).
		Updates(map[string]interface{}{
			"time_rating":          rating.TimeRating,
			"time_rating_override": rating.TimeRatingOverride,
			"override_reason":      rating.OverrideReason,
			"override_by":          rating.OverrideBy,
			"override_approved":    rating.OverrideApproved,
			"override_approved_by": rating.OverrideApprovedBy,
			"override_approved_at": rating.OverrideApprovedAt,
			"qc_rating":            rating.QCRating,
			"qc_justification":     rating.QCJustification,
			"cleaning_rating":      rating.CleaningRating,
			"admin_bonus":          rating.AdminBonus,
			"points_earned":        rating.PointsEarned,
			"dispute_filed":        rating.DisputeFiled,
			"dispute_reason":       rating.DisputeReason,
			"disputed_at":          rating.DisputedAt,
			"dispute_resolved":     rating.DisputeResolved,
			"dispute_resolution":   rating.DisputeResolution,
			"resolved_by":          rating.ResolvedBy,
			"resolved_at":          rating.ResolvedAt,
			"rated_by":             rating.RatedBy,
			"updated_by":           rating.UpdatedBy,
			"version":              oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	rating.Version = oldVersion + 1
	return nil
}
