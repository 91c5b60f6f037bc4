package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"berthops/internal/dto"
	"berthops/internal/model"
	"berthops/internal/repository"
	pkgerrors "berthops/pkg/errors"
	"berthops/pkg/metrics"
)

// 作业执行动作
const (
	ActionStart          = "start"
	ActionPause          = "pause"
	ActionResume         = "resume"
	ActionComplete       = "complete"
	ActionMarkIncomplete = "mark_incomplete"
)

// TrackingService 作业执行状态机接口
type TrackingService interface {
	Start(ctx context.Context, actor Actor, jobID string) (*dto.TrackingResponse, error)
	Pause(ctx context.Context, actor Actor, jobID string, req *dto.PauseJobRequest) (*dto.TrackingResponse, error)
	Resume(ctx context.Context, actor Actor, jobID string) (*dto.TrackingResponse, error)
	Complete(ctx context.Context, actor Actor, jobID string, req *dto.CompleteJobRequest) (*dto.TrackingResponse, error)
	MarkIncomplete(ctx context.Context, actor Actor, jobID string, req *dto.MarkIncompleteRequest) (*dto.TrackingResponse, error)
	GetTracking(ctx context.Context, actor Actor, jobID string) (*dto.TrackingResponse, error)
	// ListJobsFor 工人看分配给自己的作业，工程师看自己负责计划内的作业，管理员看全部
	ListJobsFor(ctx context.Context, actor Actor, date string) ([]dto.JobItemResponse, error)
	ListLogs(ctx context.Context, actor Actor, jobID string) ([]dto.JobLogResponse, error)
}

type trackingService struct {
	repo     *repository.Repository
	notifier NotificationService
	shifts   ShiftClassifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewTrackingService 创建 TrackingService 实例
func NewTrackingService(repo *repository.Repository, notifier NotificationService, shifts ShiftClassifier, logger *zap.Logger) TrackingService {
	return &trackingService{
		repo:     repo,
		notifier: notifier,
		shifts:   shifts,
		logger:   logger,
		now:      time.Now,
	}
}

// ── 状态机工具 ──

// requireStatus 当前状态不在允许集合内时返回 TransitionError
func requireStatus(t *model.JobTracking, action string, allowed ...string) error {
	for _, s := range allowed {
		if t.Status == s {
			return nil
		}
	}
	return &pkgerrors.TransitionError{From: t.Status, To: action}
}

// finalizePause 结算进行中的暂停，返回本次暂停分钟数
func finalizePause(t *model.JobTracking, now time.Time) float64 {
	if t.PausedAt == nil {
		return 0
	}
	minutes := now.Sub(*t.PausedAt).Minutes()
	if minutes < 0 {
		minutes = 0
	}
	minutes = round2(minutes)
	t.TotalPausedMinutes = round2(t.TotalPausedMinutes + minutes)
	t.PausedAt = nil
	return minutes
}

// computeActualHours 实际工时 = 开工至结束的墙钟时间 − 累计暂停，不为负
func computeActualHours(t *model.JobTracking, end time.Time) *float64 {
	if t.StartedAt == nil {
		return nil
	}
	hours := end.Sub(*t.StartedAt).Hours() - t.TotalPausedMinutes/60
	if hours < 0 {
		hours = 0
	}
	hours = round2(hours)
	return &hours
}

// closeOpenPause 结算暂停并把时长回写到对应的暂停申请（不改变其审批状态）
func closeOpenPause(ctx context.Context, txRepo *repository.Repository, t *model.JobTracking, now time.Time) (float64, error) {
	if t.PausedAt == nil {
		return 0, nil
	}
	minutes := finalizePause(t, now)
	if t.OpenPauseRequestID != nil {
		if err := txRepo.PauseRequest.RecordResume(ctx, *t.OpenPauseRequestID, now, minutes); err != nil {
			return 0, err
		}
	}
	t.OpenPauseRequestID = nil
	return minutes, nil
}

// appendLog 追加一条作业日志
func appendLog(ctx context.Context, txRepo *repository.Repository, jobID, actorID string, at time.Time, ev model.JobEvent) error {
	log, err := model.NewJobLog(jobID, actorID, at, ev)
	if err != nil {
		return err
	}
	return txRepo.JobLog.Append(ctx, log)
}

// ── 访问控制 ──

// canActOnJob 管理员、计划负责工程师或被分配的工人可执行作业动作
func canActOnJob(actor Actor, job *model.Job) bool {
	if actor.IsAdmin() || job.HasWorker(actor.UserID) {
		return true
	}
	return actor.IsEngineer() && job.Plan != nil && job.Plan.OwnerID == actor.UserID
}

// canViewJob 审核角色可查看任意作业，工人只能查看分配给自己的作业
func canViewJob(actor Actor, job *model.Job) bool {
	return actor.CanReview() || job.HasWorker(actor.UserID)
}

func (s *trackingService) loadJob(ctx context.Context, jobID string) (*model.Job, error) {
	job, err := s.repo.Job.GetByID(ctx, jobID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrJobNotFound
		}
		s.logger.Error("查询作业失败", zap.String("job_id", jobID), zap.Error(err))
		return nil, err
	}
	return job, nil
}

// ensureTracking 首次动作时惰性创建 pending 跟踪记录
// 并发创建由 job_id 唯一约束兜底，冲突方回退为查询
func ensureTracking(ctx context.Context, repo *repository.Repository, jobID string) (*model.JobTracking, error) {
	t, err := repo.Tracking.GetByJobID(ctx, jobID)
	if err == nil {
		return t, nil
	}
	if !isRecordNotFound(err) {
		return nil, err
	}

	t = &model.JobTracking{JobID: jobID, Status: model.TrackingPending}
	if err := repo.Tracking.Create(ctx, t); err != nil {
		if isDuplicateKey(err) {
			return repo.Tracking.GetByJobID(ctx, jobID)
		}
		return nil, err
	}
	return t, nil
}

// mutation 事务内的状态校验与变更，返回要追加的日志事件
type mutation func(ctx context.Context, txRepo *repository.Repository, job *model.Job, t *model.JobTracking, now time.Time) (model.JobEvent, error)

// transition 在一个事务内完成：状态变更 → 跟踪记录乐观锁更新 → 日志追加
func (s *trackingService) transition(ctx context.Context, actor Actor, jobID, action string, mutate mutation) (*model.JobTracking, *model.Job, error) {
	job, err := s.loadJob(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	if !canActOnJob(actor, job) {
		return nil, nil, ErrNotAssigned
	}

	t, err := ensureTracking(ctx, s.repo, jobID)
	if err != nil {
		s.logger.Error("初始化作业跟踪失败", zap.String("job_id", jobID), zap.Error(err))
		return nil, nil, err
	}

	now := s.now()
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		ev, err := mutate(ctx, txRepo, job, t, now)
		if err != nil {
			return err
		}
		t.UpdatedBy = &actor.UserID
		if err := txRepo.Tracking.Update(ctx, t); err != nil {
			return err
		}
		return appendLog(ctx, txRepo, jobID, actor.UserID, now, ev)
	})
	if err != nil {
		if pkgerrors.KindOf(err) == pkgerrors.KindInternal {
			s.logger.Error("作业状态迁移失败",
				zap.String("job_id", jobID),
				zap.String("action", action),
				zap.Error(err))
		}
		return nil, nil, err
	}

	metrics.RecordTransition(action)
	s.logger.Info("作业状态迁移",
		zap.String("job_id", jobID),
		zap.String("action", action),
		zap.String("status", t.Status),
		zap.String("actor", actor.UserID))
	return t, job, nil
}

// ────────────────────── Start ──────────────────────

func (s *trackingService) Start(ctx context.Context, actor Actor, jobID string) (*dto.TrackingResponse, error) {
	t, _, err := s.transition(ctx, actor, jobID, ActionStart,
		func(_ context.Context, _ *repository.Repository, _ *model.Job, t *model.JobTracking, now time.Time) (model.JobEvent, error) {
			if err := requireStatus(t, ActionStart, model.TrackingPending, model.TrackingNotStarted); err != nil {
				return nil, err
			}
			from := t.Status
			shift := s.shifts.Classify(now)
			t.Status = model.TrackingInProgress
			t.StartedAt = &now
			t.Shift = &shift
			return model.StartedEvent{Shift: shift, FromStatus: from}, nil
		})
	if err != nil {
		return nil, err
	}
	resp := toTrackingResponse(t)
	return &resp, nil
}

// ────────────────────── Pause ──────────────────────

func (s *trackingService) Pause(ctx context.Context, actor Actor, jobID string, req *dto.PauseJobRequest) (*dto.TrackingResponse, error) {
	if req.Reason == "" {
		return nil, ErrPauseReasonRequired
	}
	reason := model.PauseReason(req.Reason)
	if !reason.Valid() {
		return nil, ErrInvalidPauseReason
	}

	var pr *model.PauseRequest
	t, job, err := s.transition(ctx, actor, jobID, ActionPause,
		func(ctx context.Context, txRepo *repository.Repository, _ *model.Job, t *model.JobTracking, now time.Time) (model.JobEvent, error) {
			if err := requireStatus(t, ActionPause, model.TrackingInProgress); err != nil {
				return nil, err
			}
			pr = &model.PauseRequest{
				JobID:       jobID,
				TrackingID:  t.TrackingID,
				RequestedBy: actor.UserID,
				RequestedAt: now,
				Reason:      reason,
				Details:     req.Details,
				Status:      model.PauseStatusPending,
			}
			pr.CreatedBy = &actor.UserID
			if err := txRepo.PauseRequest.Create(ctx, pr); err != nil {
				return nil, err
			}

			t.Status = model.TrackingPaused
			t.PausedAt = &now
			t.OpenPauseRequestID = &pr.PauseRequestID
			return model.PausedEvent{PauseRequestID: pr.PauseRequestID, Reason: reason, Details: req.Details}, nil
		})
	if err != nil {
		return nil, err
	}

	// 暂停即时生效，审批异步进行
	if job.Plan != nil {
		s.notifier.Notify(ctx, Notice{
			UserID:      job.Plan.OwnerID,
			Type:        model.NotifyPauseRequested,
			Title:       "新的暂停申请",
			Content:     fmt.Sprintf("泊位 %s 的作业已暂停，原因：%s", job.Berth, reason),
			RelatedType: "pause_request",
			RelatedID:   pr.PauseRequestID,
			Priority:    model.PriorityNormal,
		})
	}

	resp := toTrackingResponse(t)
	return &resp, nil
}

// ────────────────────── Resume ──────────────────────

func (s *trackingService) Resume(ctx context.Context, actor Actor, jobID string) (*dto.TrackingResponse, error) {
	t, _, err := s.transition(ctx, actor, jobID, ActionResume,
		func(ctx context.Context, txRepo *repository.Repository, _ *model.Job, t *model.JobTracking, now time.Time) (model.JobEvent, error) {
			if err := requireStatus(t, ActionResume, model.TrackingPaused); err != nil {
				return nil, err
			}
			var prID string
			if t.OpenPauseRequestID != nil {
				prID = *t.OpenPauseRequestID
			}
			minutes, err := closeOpenPause(ctx, txRepo, t, now)
			if err != nil {
				return nil, err
			}
			t.Status = model.TrackingInProgress
			return model.ResumedEvent{
				PauseRequestID: prID,
				PausedMinutes:  minutes,
				TotalPaused:    t.TotalPausedMinutes,
			}, nil
		})
	if err != nil {
		return nil, err
	}
	resp := toTrackingResponse(t)
	return &resp, nil
}

// ────────────────────── Complete ──────────────────────

func (s *trackingService) Complete(ctx context.Context, actor Actor, jobID string, req *dto.CompleteJobRequest) (*dto.TrackingResponse, error) {
	t, _, err := s.transition(ctx, actor, jobID, ActionComplete,
		func(ctx context.Context, txRepo *repository.Repository, _ *model.Job, t *model.JobTracking, now time.Time) (model.JobEvent, error) {
			if err := requireStatus(t, ActionComplete, model.TrackingInProgress, model.TrackingPaused); err != nil {
				return nil, err
			}
			finalized, err := closeOpenPause(ctx, txRepo, t, now)
			if err != nil {
				return nil, err
			}
			t.Status = model.TrackingCompleted
			t.CompletedAt = &now
			t.ActualHours = computeActualHours(t, now)
			t.CompletionNotes = req.Notes
			t.CompletionPhotoRef = req.PhotoRef

			ev := model.CompletedEvent{FinalizedPause: finalized, Notes: req.Notes, PhotoRef: req.PhotoRef}
			if t.ActualHours != nil {
				ev.ActualHours = *t.ActualHours
			}
			return ev, nil
		})
	if err != nil {
		return nil, err
	}
	resp := toTrackingResponse(t)
	return &resp, nil
}

// ────────────────────── MarkIncomplete ──────────────────────

func (s *trackingService) MarkIncomplete(ctx context.Context, actor Actor, jobID string, req *dto.MarkIncompleteRequest) (*dto.TrackingResponse, error) {
	if req.Reason == "" {
		return nil, ErrIncompleteReasonRequired
	}
	reason := model.IncompleteReason(req.Reason)
	if !reason.Valid() {
		return nil, ErrInvalidIncompleteReason
	}

	t, _, err := s.transition(ctx, actor, jobID, ActionMarkIncomplete,
		func(ctx context.Context, txRepo *repository.Repository, _ *model.Job, t *model.JobTracking, now time.Time) (model.JobEvent, error) {
			if err := requireStatus(t, ActionMarkIncomplete,
				model.TrackingPending, model.TrackingInProgress, model.TrackingPaused); err != nil {
				return nil, err
			}
			from := t.Status
			finalized, err := closeOpenPause(ctx, txRepo, t, now)
			if err != nil {
				return nil, err
			}
			t.Status = model.TrackingIncomplete
			t.CompletedAt = &now
			t.ActualHours = computeActualHours(t, now)
			t.IncompleteReason = &reason
			t.IncompleteNotes = req.Notes
			t.HandoverVoiceRef = req.VoiceRef
			t.HandoverTranscript = req.Transcript

			return model.MarkedIncompleteEvent{
				Reason:         reason,
				FromStatus:     from,
				ActualHours:    t.ActualHours,
				FinalizedPause: finalized,
				Notes:          req.Notes,
				VoiceRef:       req.VoiceRef,
				Transcript:     req.Transcript,
			}, nil
		})
	if err != nil {
		return nil, err
	}
	resp := toTrackingResponse(t)
	return &resp, nil
}

// ────────────────────── GetTracking ──────────────────────

func (s *trackingService) GetTracking(ctx context.Context, actor Actor, jobID string) (*dto.TrackingResponse, error) {
	job, err := s.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !canViewJob(actor, job) {
		return nil, ErrForbidden
	}

	t, err := s.repo.Tracking.GetByJobID(ctx, jobID)
	if err != nil {
		if isRecordNotFound(err) {
			resp := pendingView(jobID)
			return &resp, nil
		}
		s.logger.Error("查询作业跟踪失败", zap.String("job_id", jobID), zap.Error(err))
		return nil, err
	}
	resp := toTrackingResponse(t)
	return &resp, nil
}

// ────────────────────── ListJobsFor ──────────────────────

func (s *trackingService) ListJobsFor(ctx context.Context, actor Actor, date string) ([]dto.JobItemResponse, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	filter := repository.JobFilter{Date: d}
	switch {
	case actor.IsAdmin():
	case actor.IsEngineer():
		filter.PlanOwnerID = actor.UserID
	default:
		filter.WorkerID = actor.UserID
	}

	jobs, err := s.repo.Job.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询作业列表失败", zap.String("date", date), zap.Error(err))
		return nil, err
	}

	trackings, err := s.trackingsByJob(ctx, jobs)
	if err != nil {
		return nil, err
	}

	result := make([]dto.JobItemResponse, 0, len(jobs))
	for i := range jobs {
		result = append(result, toJobItemResponse(&jobs[i], trackings[jobs[i].JobID]))
	}
	return result, nil
}

// trackingsByJob 批量查询跟踪记录，按 job_id 索引
func (s *trackingService) trackingsByJob(ctx context.Context, jobs []model.Job) (map[string]*model.JobTracking, error) {
	ids := make([]string, 0, len(jobs))
	for i := range jobs {
		ids = append(ids, jobs[i].JobID)
	}
	list, err := s.repo.Tracking.ListByJobIDs(ctx, ids)
	if err != nil {
		s.logger.Error("批量查询作业跟踪失败", zap.Error(err))
		return nil, err
	}
	m := make(map[string]*model.JobTracking, len(list))
	for i := range list {
		m[list[i].JobID] = &list[i]
	}
	return m, nil
}

// ────────────────────── ListLogs ──────────────────────

func (s *trackingService) ListLogs(ctx context.Context, actor Actor, jobID string) ([]dto.JobLogResponse, error) {
	job, err := s.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !canViewJob(actor, job) {
		return nil, ErrForbidden
	}

	logs, err := s.repo.JobLog.ListByJob(ctx, jobID)
	if err != nil {
		s.logger.Error("查询作业日志失败", zap.String("job_id", jobID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.JobLogResponse, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		ev, err := l.DecodeEvent()
		if err != nil {
			// 未知事件类型原样返回载荷
			s.logger.Warn("解析作业日志失败", zap.String("log_id", l.LogID), zap.Error(err))
			result = append(result, dto.JobLogResponse{
				ID: l.LogID, JobID: l.JobID, EventType: l.EventType,
				ActorID: l.ActorID, OccurredAt: formatTime(l.OccurredAt), Payload: l.Payload,
			})
			continue
		}
		result = append(result, dto.JobLogResponse{
			ID:         l.LogID,
			JobID:      l.JobID,
			EventType:  l.EventType,
			ActorID:    l.ActorID,
			OccurredAt: formatTime(l.OccurredAt),
			Payload:    ev,
		})
	}
	return result, nil
}
