package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"berthops/internal/dto"
	"berthops/internal/model"
	"berthops/internal/repository"
	pkgerrors "berthops/pkg/errors"
	"berthops/pkg/jwt"
	"berthops/pkg/metrics"
)

// ReviewService 工程师日审接口
type ReviewService interface {
	// Get 按 工程师×日期×班次 获取或创建日审，并重新扫描范围内作业与暂停申请
	Get(ctx context.Context, actor Actor, req *dto.GetReviewRequest) (*dto.ReviewResponse, error)
	ListRatings(ctx context.Context, actor Actor, reviewID string) ([]*dto.RatingResponse, error)
	SetMaterialsReviewed(ctx context.Context, actor Actor, reviewID string, reviewed bool) (*dto.ReviewResponse, error)
	// Submit 提交日审：闸门通过后一次性计入挂起的积分增量，日审随后不可变
	Submit(ctx context.Context, actor Actor, reviewID string) (*dto.ReviewResponse, error)
}

type reviewService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewReviewService 创建 ReviewService 实例
func NewReviewService(repo *repository.Repository, logger *zap.Logger) ReviewService {
	return &reviewService{repo: repo, logger: logger, now: time.Now}
}

// ── 范围扫描 ──

// ownerSeesAll 日审属于管理员时范围为全部作业，属于工程师时为其负责的计划
func ownerSeesAll(ctx context.Context, repo *repository.Repository, actor Actor, review *model.DailyReview) (bool, error) {
	if review.EngineerID == actor.UserID {
		return actor.IsAdmin(), nil
	}
	owner, err := repo.User.GetByID(ctx, review.EngineerID)
	if err != nil {
		return false, err
	}
	return owner.Role == jwt.RoleAdmin, nil
}

// reviewScope 日审范围内的作业
func (s *reviewService) reviewScope(ctx context.Context, txRepo *repository.Repository, review *model.DailyReview, actor Actor) ([]model.Job, error) {
	all, err := ownerSeesAll(ctx, txRepo, actor, review)
	if err != nil {
		return nil, err
	}
	filter := repository.JobFilter{Date: review.ReviewDate, Shift: review.Shift}
	if !all {
		filter.PlanOwnerID = review.EngineerID
	}
	return txRepo.Job.List(ctx, filter)
}

// rescan 重新计算日审的作业与暂停计数
func (s *reviewService) rescan(ctx context.Context, txRepo *repository.Repository, review *model.DailyReview, actor Actor) error {
	jobs, err := s.reviewScope(ctx, txRepo, review, actor)
	if err != nil {
		return err
	}
	jobIDs := make([]string, 0, len(jobs))
	for i := range jobs {
		jobIDs = append(jobIDs, jobs[i].JobID)
	}

	trackings, err := txRepo.Tracking.ListByJobIDs(ctx, jobIDs)
	if err != nil {
		return err
	}
	carried, err := txRepo.CarryOver.ListByOriginalJobs(ctx, jobIDs)
	if err != nil {
		return err
	}
	pauses, err := txRepo.PauseRequest.List(ctx, repository.PauseRequestFilter{JobIDs: jobIDs})
	if err != nil {
		return err
	}

	review.TotalJobs = len(jobs)
	review.ApprovedJobs, review.IncompleteJobs, review.NotStartedJobs = 0, 0, 0
	for i := range trackings {
		switch trackings[i].Status {
		case model.TrackingCompleted:
			review.ApprovedJobs++
		case model.TrackingIncomplete:
			review.IncompleteJobs++
		case model.TrackingNotStarted:
			review.NotStartedJobs++
		}
	}
	review.CarryOverJobs = len(carried)

	review.TotalPauseRequests = len(pauses)
	review.ResolvedPauseRequests = 0
	for i := range pauses {
		if pauses[i].IsResolved() {
			review.ResolvedPauseRequests++
		}
	}
	return nil
}

type reviewCounts struct {
	total, approved, incomplete, notStarted, carried int
	pauses, resolved                                 int
}

func countsOf(r *model.DailyReview) reviewCounts {
	return reviewCounts{
		total:      r.TotalJobs,
		approved:   r.ApprovedJobs,
		incomplete: r.IncompleteJobs,
		notStarted: r.NotStartedJobs,
		carried:    r.CarryOverJobs,
		pauses:     r.TotalPauseRequests,
		resolved:   r.ResolvedPauseRequests,
	}
}

func (s *reviewService) loadReview(ctx context.Context, actor Actor, reviewID string) (*model.DailyReview, error) {
	if !actor.CanReview() {
		return nil, ErrForbidden
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
	return review, nil
}

// ────────────────────── Get ──────────────────────

func (s *reviewService) Get(ctx context.Context, actor Actor, req *dto.GetReviewRequest) (*dto.ReviewResponse, error) {
	if !actor.CanReview() {
		return nil, ErrForbidden
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := requireShift(req.Shift); err != nil {
		return nil, err
	}

	review, err := s.repo.Review.GetOrCreate(ctx, actor.UserID, date, req.Shift)
	if err != nil {
		s.logger.Error("获取日审失败",
			zap.String("engineer_id", actor.UserID),
			zap.String("date", req.Date),
			zap.Error(err))
		return nil, err
	}
	// 已提交的日审保留提交时的快照
	if review.IsSubmitted() {
		return toReviewResponse(review), nil
	}

	before := countsOf(review)
	if err := s.rescan(ctx, s.repo, review, actor); err != nil {
		s.logger.Error("扫描日审范围失败", zap.String("review_id", review.ReviewID), zap.Error(err))
		return nil, err
	}
	// 计数未变不写库，避免轮询抬高版本号
	if countsOf(review) == before {
		return toReviewResponse(review), nil
	}
	review.UpdatedBy = &actor.UserID
	if err := s.repo.Review.Update(ctx, review); err != nil {
		if pkgerrors.KindOf(err) == pkgerrors.KindInternal {
			s.logger.Error("保存日审计数失败", zap.String("review_id", review.ReviewID), zap.Error(err))
		}
		return nil, err
	}
	return toReviewResponse(review), nil
}

// ────────────────────── ListRatings ──────────────────────

func (s *reviewService) ListRatings(ctx context.Context, actor Actor, reviewID string) ([]*dto.RatingResponse, error) {
	if _, err := s.loadReview(ctx, actor, reviewID); err != nil {
		return nil, err
	}
	ratings, err := s.repo.Rating.ListByReview(ctx, reviewID)
	if err != nil {
		s.logger.Error("查询日审评分失败", zap.String("review_id", reviewID), zap.Error(err))
		return nil, err
	}
	result := make([]*dto.RatingResponse, 0, len(ratings))
	for i := range ratings {
		result = append(result, toRatingResponse(&ratings[i]))
	}
	return result, nil
}

// ────────────────────── SetMaterialsReviewed ──────────────────────

func (s *reviewService) SetMaterialsReviewed(ctx context.Context, actor Actor, reviewID string, reviewed bool) (*dto.ReviewResponse, error) {
	review, err := s.loadReview(ctx, actor, reviewID)
	if err != nil {
		return nil, err
	}
	if review.IsSubmitted() {
		return nil, ErrReviewSubmitted
	}

	review.MaterialsReviewed = reviewed
	review.UpdatedBy = &actor.UserID
	if err := s.repo.Review.Update(ctx, review); err != nil {
		if pkgerrors.KindOf(err) == pkgerrors.KindInternal {
			s.logger.Error("更新物料核对标记失败", zap.String("review_id", reviewID), zap.Error(err))
		}
		return nil, err
	}
	return toReviewResponse(review), nil
}

// ────────────────────── Submit ──────────────────────

func (s *reviewService) Submit(ctx context.Context, actor Actor, reviewID string) (*dto.ReviewResponse, error) {
	review, err := s.loadReview(ctx, actor, reviewID)
	if err != nil {
		return nil, err
	}
	if review.IsSubmitted() {
		return nil, ErrReviewSubmitted
	}

	now := s.now()
	var flushed int
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		locked, err := txRepo.Review.GetByIDForUpdate(ctx, review.ReviewID)
		if err != nil {
			return err
		}
		if locked.IsSubmitted() {
			return ErrReviewSubmitted
		}
		*review = *locked

		// 闸门以提交时刻的最新计数为准
		if err := s.rescan(ctx, txRepo, review, actor); err != nil {
			return err
		}
		if !review.CanSubmit() {
			return ErrPauseRequestsPending
		}

		applied, err := flushPendingDeltas(ctx, txRepo, review.ReviewID, now)
		if err != nil {
			return err
		}
		flushed = applied

		review.Status = model.ReviewSubmitted
		review.SubmittedAt = &now
		review.SubmittedBy = &actor.UserID
		review.UpdatedBy = &actor.UserID
		return txRepo.Review.Update(ctx, review)
	})
	if err != nil {
		if pkgerrors.KindOf(err) == pkgerrors.KindInternal {
			s.logger.Error("提交日审失败", zap.String("review_id", reviewID), zap.Error(err))
		}
		return nil, err
	}

	metrics.RecordReviewSubmitted()
	s.logger.Info("日审已提交",
		zap.String("review_id", reviewID),
		zap.String("engineer_id", review.EngineerID),
		zap.Int("points_flushed", flushed))
	return toReviewResponse(review), nil
}

// flushPendingDeltas 按评分汇总挂起增量，正的净增量计入工人累计积分；所有挂起记录标记为已处理
// 返回计入的积分总数
func flushPendingDeltas(ctx context.Context, txRepo *repository.Repository, reviewID string, now time.Time) (int, error) {
	pending, err := txRepo.PointDelta.ListPendingByReview(ctx, reviewID)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	type net struct {
		workerID string
		delta    int
	}
	byRating := make(map[string]*net)
	order := make([]string, 0)
	ids := make([]string, 0, len(pending))
	for i := range pending {
		pd := &pending[i]
		ids = append(ids, pd.DeltaID)
		n, ok := byRating[pd.RatingID]
		if !ok {
			n = &net{workerID: pd.WorkerID}
			byRating[pd.RatingID] = n
			order = append(order, pd.RatingID)
		}
		n.delta += pd.Delta
	}

	total := 0
	for _, ratingID := range order {
		n := byRating[ratingID]
		if n.delta <= 0 {
			continue
		}
		if err := txRepo.Score.ApplyDelta(ctx, n.workerID, n.delta); err != nil {
			return 0, err
		}
		metrics.RecordPointsApplied(n.delta)
		total += n.delta
	}

	if err := txRepo.PointDelta.MarkApplied(ctx, ids, now); err != nil {
		return 0, err
	}
	return total, nil
}
