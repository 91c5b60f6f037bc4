package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"berthops/internal/dto"
	"berthops/internal/model"
	"berthops/internal/repository"
	pkgerrors "berthops/pkg/errors"
	"berthops/pkg/metrics"
)

// RatingService 评分与积分接口
type RatingService interface {
	// Rate 工程师在日审中为某作业的某工人评分（首次创建，之后更新）
	Rate(ctx context.Context, actor Actor, reviewID string, req *dto.RateJobRequest) (*dto.RatingResponse, error)
	OverrideTimeRating(ctx context.Context, actor Actor, ratingID string, req *dto.OverrideTimeRatingRequest) (*dto.RatingResponse, error)
	ApproveOverride(ctx context.Context, actor Actor, ratingID string) (*dto.RatingResponse, error)
	SetBonus(ctx context.Context, actor Actor, ratingID string, req *dto.SetBonusRequest) (*dto.RatingResponse, error)
	Dispute(ctx context.Context, actor Actor, ratingID string, req *dto.DisputeRatingRequest) (*dto.RatingResponse, error)
	ResolveDispute(ctx context.Context, actor Actor, ratingID string, req *dto.ResolveDisputeRequest) (*dto.RatingResponse, error)
}

type ratingService struct {
	repo     *repository.Repository
	rules    RatingRules
	notifier NotificationService
	logger   *zap.Logger
	now      func() time.Time
}

// NewRatingService 创建 RatingService 实例
func NewRatingService(repo *repository.Repository, rules RatingRules, notifier NotificationService, logger *zap.Logger) RatingService {
	return &ratingService{repo: repo, rules: rules, notifier: notifier, logger: logger, now: time.Now}
}

// ── 积分账本 ──

// applyPointChange 记录积分变化的有符号增量
// 所属日审未提交时挂起，等待提交时统一计入；已提交则立即计入工人累计积分
func applyPointChange(ctx context.Context, txRepo *repository.Repository, rating *model.JobRating, delta int, source string, now time.Time) error {
	if delta == 0 {
		return nil
	}
	review, err := txRepo.Review.GetByIDForUpdate(ctx, rating.ReviewID)
	if err != nil {
		return err
	}

	pd := &model.PointDelta{
		RatingID: rating.RatingID,
		ReviewID: &rating.ReviewID,
		WorkerID: rating.WorkerID,
		Delta:    delta,
		Source:   source,
	}
	if review.IsSubmitted() {
		if err := txRepo.Score.ApplyDelta(ctx, rating.WorkerID, delta); err != nil {
			return err
		}
		pd.AppliedAt = &now
		metrics.RecordPointsApplied(delta)
	}
	return txRepo.PointDelta.Create(ctx, pd)
}

// saveRating 重算积分，乐观锁写回并记录积分增量
func saveRating(ctx context.Context, txRepo *repository.Repository, rating *model.JobRating, source string, now time.Time) error {
	before := rating.PointsEarned
	rating.PointsEarned = rating.ComputePoints()
	if err := txRepo.Rating.Update(ctx, rating); err != nil {
		return err
	}
	return applyPointChange(ctx, txRepo, rating, rating.PointsEarned-before, source, now)
}

func (s *ratingService) loadRating(ctx context.Context, id string) (*model.JobRating, error) {
	rating, err := s.repo.Rating.GetByID(ctx, id)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrRatingNotFound
		}
		s.logger.Error("查询评分失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return rating, nil
}

// logFailure 业务错误直接返回，其余记录日志
func (s *ratingService) logFailure(msg, id string, err error) {
	if pkgerrors.KindOf(err) == pkgerrors.KindInternal {
		s.logger.Error(msg, zap.String("id", id), zap.Error(err))
	}
}

// ────────────────────── Rate ──────────────────────

func (s *ratingService) Rate(ctx context.Context, actor Actor, reviewID string, req *dto.RateJobRequest) (*dto.RatingResponse, error) {
	if !actor.CanReview() {
		return nil, ErrForbidden
	}
	if err := s.rules.ValidateQC(req.QCRating, req.QCJustification); err != nil {
		return nil, err
	}
	if err := s.rules.ValidateCleaning(req.CleaningRating); err != nil {
		return nil, err
	}

	review, err := s.repo.Review.GetByID(ctx, reviewID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrReviewNotFound
		}
		s.logger.Error("查询日审失败", zap.String("review_id", reviewID), zap.Error(err))
		return nil, err
	}
	if !actor.IsAdmin() && review.EngineerID != actor.UserID {
		return nil, ErrForbidden
	}
	if review.IsSubmitted() {
		return nil, ErrReviewSubmitted
	}

	job, err := s.repo.Job.GetByID(ctx, req.JobID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrJobNotFound
		}
		s.logger.Error("查询作业失败", zap.String("job_id", req.JobID), zap.Error(err))
		return nil, err
	}
	all, err := ownerSeesAll(ctx, s.repo, actor, review)
	if err != nil {
		s.logger.Error("查询日审归属失败", zap.String("review_id", reviewID), zap.Error(err))
		return nil, err
	}
	if !inReviewScope(review, job, all) {
		return nil, ErrJobOutOfReviewScope
	}
	if !job.HasWorker(req.WorkerID) {
		return nil, ErrWorkerNotOnJob
	}

	tracking, err := s.repo.Tracking.GetByJobID(ctx, job.JobID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrJobNotTerminal
		}
		s.logger.Error("查询作业跟踪失败", zap.String("job_id", job.JobID), zap.Error(err))
		return nil, err
	}
	if !model.IsTerminalTracking(tracking.Status) {
		return nil, ErrJobNotTerminal
	}

	now := s.now()
	var rating *model.JobRating
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		// 锁定日审行后复核状态，与并发的 Submit 串行
		locked, err := txRepo.Review.GetByIDForUpdate(ctx, review.ReviewID)
		if err != nil {
			return err
		}
		if locked.IsSubmitted() {
			return ErrReviewSubmitted
		}
		review = locked

		existing, err := txRepo.Rating.GetByJobAndWorker(ctx, job.JobID, req.WorkerID)
		switch {
		case err == nil:
			rating = existing
		case isRecordNotFound(err):
			rating = &model.JobRating{
				JobID:    job.JobID,
				WorkerID: req.WorkerID,
				ReviewID: review.ReviewID,
				RatedBy:  actor.UserID,
			}
			rating.CreatedBy = &actor.UserID
		default:
			return err
		}

		rating.RatedBy = actor.UserID
		rating.UpdatedBy = &actor.UserID
		rating.TimeRating = s.rules.TimeRating(job.EstimatedHours, tracking.ActualHours)
		rating.QCRating = req.QCRating
		rating.QCJustification = req.QCJustification
		rating.CleaningRating = req.CleaningRating

		if rating.RatingID == "" {
			rating.PointsEarned = rating.ComputePoints()
			if err := txRepo.Rating.Create(ctx, rating); err != nil {
				if isDuplicateKey(err) {
					return pkgerrors.ErrOptimisticLock
				}
				return err
			}
			if err := applyPointChange(ctx, txRepo, rating, rating.PointsEarned, model.DeltaSourceRating, now); err != nil {
				return err
			}
		} else if err := saveRating(ctx, txRepo, rating, model.DeltaSourceRating, now); err != nil {
			return err
		}

		// 任一评分保存后日审进入 partial
		if review.Status == model.ReviewOpen {
			review.Status = model.ReviewPartial
			review.UpdatedBy = &actor.UserID
			return txRepo.Review.Update(ctx, review)
		}
		return nil
	})
	if err != nil {
		s.logFailure("保存评分失败", req.JobID, err)
		return nil, err
	}

	s.logger.Info("评分已保存",
		zap.String("rating_id", rating.RatingID),
		zap.String("worker_id", rating.WorkerID),
		zap.Int("points", rating.PointsEarned))
	return toRatingResponse(rating), nil
}

// inReviewScope 作业日期、班次与日审一致，工程师的日审只覆盖其负责计划内的作业
func inReviewScope(review *model.DailyReview, job *model.Job, all bool) bool {
	if !model.DateOnly(job.ScheduledDate).Equal(model.DateOnly(review.ReviewDate)) || job.Shift != review.Shift {
		return false
	}
	if all {
		return true
	}
	return job.Plan != nil && job.Plan.OwnerID == review.EngineerID
}

// ────────────────────── OverrideTimeRating ──────────────────────

func (s *ratingService) OverrideTimeRating(ctx context.Context, actor Actor, ratingID string, req *dto.OverrideTimeRatingRequest) (*dto.RatingResponse, error) {
	if !actor.CanReview() {
		return nil, ErrForbidden
	}
	if req.Reason == "" {
		return nil, ErrOverrideReasonRequired
	}
	if err := s.rules.ValidateTimeRating(req.Rating); err != nil {
		return nil, err
	}

	rating, err := s.loadRating(ctx, ratingID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	value := round1(req.Rating)
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		// 新改判需重新审批，之前已批准的改判随之失效
		rating.TimeRatingOverride = &value
		rating.OverrideReason = req.Reason
		rating.OverrideBy = &actor.UserID
		rating.OverrideApproved = false
		rating.OverrideApprovedBy = nil
		rating.OverrideApprovedAt = nil
		rating.UpdatedBy = &actor.UserID
		return saveRating(ctx, txRepo, rating, model.DeltaSourceOverride, now)
	})
	if err != nil {
		s.logFailure("改判时效分失败", ratingID, err)
		return nil, err
	}

	s.notifier.NotifyAdmins(ctx, Notice{
		Type:        model.NotifyOverridePending,
		Title:       "时效分改判待批准",
		Content:     fmt.Sprintf("工程师提出将时效分改为 %.1f，理由：%s", value, req.Reason),
		RelatedType: "rating",
		RelatedID:   ratingID,
		Priority:    model.PriorityNormal,
	})
	return toRatingResponse(rating), nil
}

// ────────────────────── ApproveOverride ──────────────────────

func (s *ratingService) ApproveOverride(ctx context.Context, actor Actor, ratingID string) (*dto.RatingResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	rating, err := s.loadRating(ctx, ratingID)
	if err != nil {
		return nil, err
	}
	if rating.TimeRatingOverride == nil || rating.OverrideApproved {
		return nil, ErrNoPendingOverride
	}

	now := s.now()
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		rating.OverrideApproved = true
		rating.OverrideApprovedBy = &actor.UserID
		rating.OverrideApprovedAt = &now
		rating.UpdatedBy = &actor.UserID
		return saveRating(ctx, txRepo, rating, model.DeltaSourceOverride, now)
	})
	if err != nil {
		s.logFailure("批准改判失败", ratingID, err)
		return nil, err
	}
	return toRatingResponse(rating), nil
}

// ────────────────────── SetBonus ──────────────────────

func (s *ratingService) SetBonus(ctx context.Context, actor Actor, ratingID string, req *dto.SetBonusRequest) (*dto.RatingResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if err := s.rules.ValidateBonus(req.Bonus); err != nil {
		return nil, err
	}
	rating, err := s.loadRating(ctx, ratingID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		rating.AdminBonus = req.Bonus
		rating.UpdatedBy = &actor.UserID
		return saveRating(ctx, txRepo, rating, model.DeltaSourceBonus, now)
	})
	if err != nil {
		s.logFailure("调整加分失败", ratingID, err)
		return nil, err
	}
	return toRatingResponse(rating), nil
}

// ────────────────────── Dispute ──────────────────────

func (s *ratingService) Dispute(ctx context.Context, actor Actor, ratingID string, req *dto.DisputeRatingRequest) (*dto.RatingResponse, error) {
	if req.Reason == "" {
		return nil, ErrDisputeReasonRequired
	}
	rating, err := s.loadRating(ctx, ratingID)
	if err != nil {
		return nil, err
	}
	if rating.WorkerID != actor.UserID {
		return nil, ErrForbidden
	}
	if rating.DisputeFiled {
		return nil, ErrDisputeAlreadyFiled
	}

	now := s.now()
	rating.DisputeFiled = true
	rating.DisputeReason = req.Reason
	rating.DisputedAt = &now
	rating.UpdatedBy = &actor.UserID
	if err := s.repo.Rating.Update(ctx, rating); err != nil {
		// 并发的重复申诉由版本号冲突拦截
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrDisputeAlreadyFiled
		}
		s.logFailure("提交申诉失败", ratingID, err)
		return nil, err
	}

	s.notifier.NotifyAdmins(ctx, Notice{
		Type:        model.NotifyRatingDisputed,
		Title:       "评分申诉",
		Content:     fmt.Sprintf("工人对评分提出申诉：%s", req.Reason),
		RelatedType: "rating",
		RelatedID:   ratingID,
		Priority:    model.PriorityHigh,
	})
	return toRatingResponse(rating), nil
}

// ────────────────────── ResolveDispute ──────────────────────

func (s *ratingService) ResolveDispute(ctx context.Context, actor Actor, ratingID string, req *dto.ResolveDisputeRequest) (*dto.RatingResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if req.Resolution == "" {
		return nil, ErrResolutionRequired
	}
	if req.TimeRating != nil {
		if err := s.rules.ValidateTimeRating(*req.TimeRating); err != nil {
			return nil, err
		}
	}
	if err := s.rules.ValidateQC(req.QCRating, req.Resolution); err != nil {
		return nil, err
	}
	if err := s.rules.ValidateCleaning(req.CleaningRating); err != nil {
		return nil, err
	}
	if req.AdminBonus != nil {
		if err := s.rules.ValidateBonus(*req.AdminBonus); err != nil {
			return nil, err
		}
	}

	rating, err := s.loadRating(ctx, ratingID)
	if err != nil {
		return nil, err
	}
	if !rating.DisputeFiled || rating.DisputeResolved {
		return nil, ErrNoOpenDispute
	}

	now := s.now()
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if req.TimeRating != nil {
			// 申诉裁定的时效分直接生效，覆盖未决改判
			v := round1(*req.TimeRating)
			rating.TimeRating = &v
			rating.TimeRatingOverride = nil
			rating.OverrideApproved = false
		}
		if req.QCRating != nil {
			rating.QCRating = req.QCRating
			rating.QCJustification = req.Resolution
		}
		if req.CleaningRating != nil {
			rating.CleaningRating = req.CleaningRating
		}
		if req.AdminBonus != nil {
			rating.AdminBonus = *req.AdminBonus
		}
		rating.DisputeResolved = true
		rating.DisputeResolution = req.Resolution
		rating.ResolvedBy = &actor.UserID
		rating.ResolvedAt = &now
		rating.UpdatedBy = &actor.UserID
		return saveRating(ctx, txRepo, rating, model.DeltaSourceDispute, now)
	})
	if err != nil {
		s.logFailure("处理申诉失败", ratingID, err)
		return nil, err
	}

	s.notifier.Notify(ctx, Notice{
		UserID:      rating.WorkerID,
		Type:        model.NotifyDisputeResolved,
		Title:       "申诉已处理",
		Content:     req.Resolution,
		RelatedType: "rating",
		RelatedID:   ratingID,
		Priority:    model.PriorityNormal,
	})
	return toRatingResponse(rating), nil
}
