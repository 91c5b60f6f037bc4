package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"berthops/internal/dto"
	"berthops/internal/model"
	"berthops/internal/repository"
	"berthops/pkg/metrics"
)

// PauseService 暂停申请审批接口
// 审批与暂停/恢复互不阻塞，待审批申请只影响日审提交闸门
type PauseService interface {
	List(ctx context.Context, actor Actor, req *dto.PauseRequestListRequest) ([]dto.PauseRequestResponse, error)
	Approve(ctx context.Context, actor Actor, id string, req *dto.ReviewPauseRequest) (*dto.PauseRequestResponse, error)
	Reject(ctx context.Context, actor Actor, id string, req *dto.ReviewPauseRequest) (*dto.PauseRequestResponse, error)
}

type pauseService struct {
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger
	now      func() time.Time
}

// NewPauseService 创建 PauseService 实例
func NewPauseService(repo *repository.Repository, notifier NotificationService, logger *zap.Logger) PauseService {
	return &pauseService{repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

// ────────────────────── List ──────────────────────

func (s *pauseService) List(ctx context.Context, actor Actor, req *dto.PauseRequestListRequest) ([]dto.PauseRequestResponse, error) {
	if !actor.CanReview() {
		return nil, ErrForbidden
	}

	date := s.now()
	if req.Date != "" {
		d, err := parseDate(req.Date)
		if err != nil {
			return nil, err
		}
		date = d
	}

	filter := repository.JobFilter{Date: date}
	if !actor.IsAdmin() {
		filter.PlanOwnerID = actor.UserID
	}
	jobs, err := s.repo.Job.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询作业列表失败", zap.Error(err))
		return nil, err
	}

	jobIDs := make([]string, 0, len(jobs))
	for i := range jobs {
		jobIDs = append(jobIDs, jobs[i].JobID)
	}
	prs, err := s.repo.PauseRequest.List(ctx, repository.PauseRequestFilter{Status: req.Status, JobIDs: jobIDs})
	if err != nil {
		s.logger.Error("查询暂停申请失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.PauseRequestResponse, 0, len(prs))
	for i := range prs {
		result = append(result, toPauseRequestResponse(&prs[i]))
	}
	return result, nil
}

// ────────────────────── Approve / Reject ──────────────────────

func (s *pauseService) Approve(ctx context.Context, actor Actor, id string, req *dto.ReviewPauseRequest) (*dto.PauseRequestResponse, error) {
	return s.review(ctx, actor, id, model.PauseStatusApproved, req.Note)
}

func (s *pauseService) Reject(ctx context.Context, actor Actor, id string, req *dto.ReviewPauseRequest) (*dto.PauseRequestResponse, error) {
	return s.review(ctx, actor, id, model.PauseStatusRejected, req.Note)
}

// review 条件更新保证先到者生效，后到者得到"已审批"错误
func (s *pauseService) review(ctx context.Context, actor Actor, id, decision, note string) (*dto.PauseRequestResponse, error) {
	if !actor.CanReview() {
		return nil, ErrForbidden
	}

	pr, err := s.repo.PauseRequest.GetByID(ctx, id)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrPauseRequestNotFound
		}
		s.logger.Error("查询暂停申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if actor.IsEngineer() && pr.Job != nil && pr.Job.Plan != nil && pr.Job.Plan.OwnerID != actor.UserID {
		return nil, ErrForbidden
	}
	if pr.IsResolved() {
		return nil, ErrPauseAlreadyReviewed
	}

	now := s.now()
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		ok, err := txRepo.PauseRequest.Review(ctx, id, decision, actor.UserID, note, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrPauseAlreadyReviewed
		}
		return appendLog(ctx, txRepo, pr.JobID, actor.UserID, now, model.PauseReviewedEvent{
			PauseRequestID: id,
			Decision:       decision,
			Note:           note,
		})
	})
	if err != nil {
		if err != ErrPauseAlreadyReviewed {
			s.logger.Error("审批暂停申请失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	pr.Status = decision
	pr.ReviewedBy = &actor.UserID
	pr.ReviewedAt = &now
	pr.ReviewNote = note
	metrics.RecordPauseReview(decision)

	title := "暂停申请已通过"
	if decision == model.PauseStatusRejected {
		title = "暂停申请被驳回"
	}
	s.notifier.Notify(ctx, Notice{
		UserID:      pr.RequestedBy,
		Type:        model.NotifyPauseReviewed,
		Title:       title,
		Content:     fmt.Sprintf("你于 %s 提交的暂停申请（%s）已处理", formatTime(pr.RequestedAt), pr.Reason),
		RelatedType: "pause_request",
		RelatedID:   id,
		Priority:    model.PriorityLow,
	})

	resp := toPauseRequestResponse(pr)
	return &resp, nil
}
