package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"berthops/internal/model"
)

// ScoreRepository 工人累计积分账本
type ScoreRepository interface {
	// ApplyDelta 以有符号增量累加，不做覆盖写
	ApplyDelta(ctx context.Context, workerID string, delta int) error
	GetByUser(ctx context.Context, workerID string) (*model.WorkerScore, error)
}

type scoreRepo struct {
	db *gorm.DB
}

func NewScoreRepo(db *gorm.DB) ScoreRepository {
	return &scoreRepo{db: db}
}

func (r *scoreRepo) ApplyDelta(ctx context.Context, workerID string, delta int) error {
	if delta == 0 {
		return nil
	}
	now := time.Now()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_points": gorm.Expr("worker_scores.total_points + ?", delta),
				"updated_at":   now,
			}),
		}).
		Create(&model.WorkerScore{UserID: workerID, TotalPoints: delta, UpdatedAt: now}).Error
}

func (r *scoreRepo) GetByUser(ctx context.Context, workerID string) (*model.WorkerScore, error) {
	var score model.WorkerScore
	err := r.db.WithContext(ctx).
		Where("user_id = ?", workerID).
		First(&score).Error
	if err != nil {
		return nil, err
	}
	return &score, nil
}

// ── PointDelta Repository ──

// PointDeltaRepository 积分增量流水
type PointDeltaRepository interface {
	Create(ctx context.Context, delta *model.PointDelta) error
	ListPendingByReview(ctx context.Context, reviewID string) ([]model.PointDelta, error)
	MarkApplied(ctx context.Context, ids []string, appliedAt time.Time) error
}

type pointDeltaRepo struct {
	db *gorm.DB
}

func NewPointDeltaRepo(db *gorm.DB) PointDeltaRepository {
	return &pointDeltaRepo{db: db}
}

func (r *pointDeltaRepo) Create(ctx context.Context, delta *model.PointDelta) error {
	return r.db.WithContext(ctx).Create(delta).Error
}

func (r *pointDeltaRepo) ListPendingByReview(ctx context.Context, reviewID string) ([]model.PointDelta, error) {
	var deltas []model.PointDelta
	err := r.db.WithContext(ctx).
		Where("review_id = ? AND applied_at IS NULL", reviewID).
		Order("created_at ASC").
		Find(&deltas).Error
	return deltas, err
}

func (r *pointDeltaRepo) MarkApplied(ctx context.Context, ids []string, appliedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.PointDelta{}).
		Where("delta_id IN ? AND applied_at IS NULL", ids).
		Update("applied_at", appliedAt).Error
}
