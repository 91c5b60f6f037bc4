package repository

import (
	"context"

	"gorm.io/gorm"

	"berthops/internal/model"
	pkgerrors "berthops/pkg/errors"
)

// TrackingRepository 作业跟踪数据访问接口
type TrackingRepository interface {
	Create(ctx context.Context, tracking *model.JobTracking) error
	GetByJobID(ctx context.Context, jobID string) (*model.JobTracking, error)
	ListByJobIDs(ctx context.Context, jobIDs []string) ([]model.JobTracking, error)
	// Update 乐观锁更新，版本不匹配返回 ErrOptimisticLock
	Update(ctx context.Context, tracking *model.JobTracking) error
}

type trackingRepo struct {
	db *gorm.DB
}

func NewTrackingRepo(db *gorm.DB) TrackingRepository {
	return &trackingRepo{db: db}
}

func (r *trackingRepo) Create(ctx context.Context, tracking *model.JobTracking) error {
	return r.db.WithContext(ctx).Omit("Job").Create(tracking).Error
}

func (r *trackingRepo) GetByJobID(ctx context.Context, jobID string) (*model.JobTracking, error) {
	var tracking model.JobTracking
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		First(&tracking).Error
	if err != nil {
		return nil, err
	}
	return &tracking, nil
}

func (r *trackingRepo) ListByJobIDs(ctx context.Context, jobIDs []string) ([]model.JobTracking, error) {
	var trackings []model.JobTracking
	if len(jobIDs) == 0 {
		return trackings, nil
	}
	err := r.db.WithContext(ctx).
		Where("job_id IN ?", jobIDs).
		Find(&trackings).Error
	return trackings, err
}

func (r *trackingRepo) Update(ctx context.Context, tracking *model.JobTracking) error {
	oldVersion := tracking.Version
	result := r.db.WithContext(ctx).
		Model(&model.JobTracking{}).
		Where("tracking_id = ? AND version = ?", tracking.TrackingID, oldVersion).
		Updates(map[string]interface{}{
			"status":                tracking.Status,
			"shift":                 tracking.Shift,
			"started_at":            tracking.StartedAt,
			"completed_at":          tracking.CompletedAt,
			"paused_at":             tracking.PausedAt,
			"open_pause_request_id": tracking.OpenPauseRequestID,
			"total_paused_minutes":  tracking.TotalPausedMinutes,
			"actual_hours":          tracking.ActualHours,
			"completion_notes":      tracking.CompletionNotes,
			"completion_photo_ref":  tracking.CompletionPhotoRef,
			"incomplete_reason":     tracking.IncompleteReason,
			"incomplete_notes":      tracking.IncompleteNotes,
			"handover_voice_ref":    tracking.HandoverVoiceRef,
			"handover_transcript":   tracking.HandoverTranscript,
			"auto_flagged":          tracking.AutoFlagged,
			"auto_flag_type":        tracking.AutoFlagType,
			"auto_flagged_at":       tracking.AutoFlaggedAt,
			"updated_by":            tracking.UpdatedBy,
			"version":               oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	tracking.Version = oldVersion + 1
	return nil
}
