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

// carryOverNotePrefix 结转作业备注前缀
const carryOverNotePrefix = "[结转]"

// CarryOverService 作业结转接口
type CarryOverService interface {
	// RequestCarryOver 将未完成或未开工的作业结转到下一个工作日
	RequestCarryOver(ctx context.Context, actor Actor, jobID string, req *dto.CarryOverRequest) (*dto.CarryOverResponse, error)
	GetByOriginalJob(ctx context.Context, actor Actor, jobID string) (*dto.CarryOverResponse, error)
}

type carryOverService struct {
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger
	now      func() time.Time
}

// NewCarryOverService 创建 CarryOverService 实例
func NewCarryOverService(repo *repository.Repository, notifier NotificationService, logger *zap.Logger) CarryOverService {
	return &carryOverService{repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

// resolveTarget 目标日为原作业次日：优先同一计划，否则取覆盖该日的最近计划
func (s *carryOverService) resolveTarget(ctx context.Context, job *model.Job) (*model.WorkPlan, time.Time, error) {
	next := model.DateOnly(job.ScheduledDate).AddDate(0, 0, 1)
	if job.Plan != nil && job.Plan.Contains(next) {
		return job.Plan, next, nil
	}
	plan, err := s.repo.Plan.FindCovering(ctx, next)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, time.Time{}, ErrNoTargetPlan
		}
		return nil, time.Time{}, err
	}
	return plan, next, nil
}

// cloneJob 复制静态属性，备注加结转前缀
func cloneJob(orig *model.Job, plan *model.WorkPlan, date time.Time, actorID string) *model.Job {
	notes := carryOverNotePrefix
	if orig.Notes != "" {
		notes = carryOverNotePrefix + " " + orig.Notes
	}
	origID := orig.JobID
	job := &model.Job{
		PlanID:           plan.PlanID,
		ScheduledDate:    date,
		Shift:            orig.Shift,
		EquipmentID:      orig.EquipmentID,
		Berth:            orig.Berth,
		Priority:         orig.Priority,
		EstimatedHours:   orig.EstimatedHours,
		Description:      orig.Description,
		Notes:            notes,
		LinkedRefs:       orig.LinkedRefs,
		CarriedFromJobID: &origID,
	}
	job.CreatedBy = &actorID
	return job
}

// ────────────────────── RequestCarryOver ──────────────────────

func (s *carryOverService) RequestCarryOver(ctx context.Context, actor Actor, jobID string, req *dto.CarryOverRequest) (*dto.CarryOverResponse, error) {
	reason := model.CarryOverReason(req.Reason)
	if !reason.Valid() {
		return nil, ErrInvalidCarryOverReason
	}
	if req.ReassignWorkerIDs != nil && len(req.ReassignWorkerIDs) == 0 {
		return nil, ErrEmptyReassignment
	}

	job, err := s.repo.Job.GetByID(ctx, jobID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrJobNotFound
		}
		s.logger.Error("查询作业失败", zap.String("job_id", jobID), zap.Error(err))
		return nil, err
	}
	if !actor.IsAdmin() && !(actor.IsEngineer() && job.Plan != nil && job.Plan.OwnerID == actor.UserID) {
		return nil, ErrForbidden
	}

	tracking, err := s.repo.Tracking.GetByJobID(ctx, jobID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrCarryOverNotAllowed
		}
		s.logger.Error("查询作业跟踪失败", zap.String("job_id", jobID), zap.Error(err))
		return nil, err
	}
	if tracking.Status != model.TrackingIncomplete && tracking.Status != model.TrackingNotStarted {
		return nil, ErrCarryOverNotAllowed
	}

	if _, err := s.repo.CarryOver.GetByOriginalJob(ctx, jobID); err == nil {
		return nil, ErrCarryOverExists
	} else if !isRecordNotFound(err) {
		s.logger.Error("查询结转记录失败", zap.String("job_id", jobID), zap.Error(err))
		return nil, err
	}

	pending, err := s.repo.PauseRequest.List(ctx, repository.PauseRequestFilter{
		Status: model.PauseStatusPending,
		JobIDs: []string{jobID},
	})
	if err != nil {
		s.logger.Error("查询暂停申请失败", zap.String("job_id", jobID), zap.Error(err))
		return nil, err
	}
	if len(pending) > 0 {
		return nil, ErrCarryOverPausesPending
	}

	plan, target, err := s.resolveTarget(ctx, job)
	if err != nil {
		if pkgerrors.KindOf(err) == pkgerrors.KindInternal {
			s.logger.Error("查询目标计划失败", zap.String("job_id", jobID), zap.Error(err))
		}
		return nil, err
	}

	workers := req.ReassignWorkerIDs
	if workers == nil {
		workers = job.WorkerIDs()
	}

	now := s.now()
	var (
		co       *model.CarryOver
		newJob   *model.Job
		newTrack *model.JobTracking
	)
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		newJob = cloneJob(job, plan, target, actor.UserID)
		if err := txRepo.Job.Create(ctx, newJob); err != nil {
			return err
		}

		assignments := make([]model.JobAssignment, 0, len(workers))
		for _, w := range workers {
			assignments = append(assignments, model.JobAssignment{JobID: newJob.JobID, WorkerID: w})
		}
		if err := txRepo.Job.BatchCreateAssignments(ctx, assignments); err != nil {
			return err
		}
		newJob.Assignments = assignments
		newJob.Plan = plan

		origID := job.JobID
		newTrack = &model.JobTracking{
			JobID:              newJob.JobID,
			Status:             model.TrackingPending,
			IsCarryOver:        true,
			CarryOverFromJobID: &origID,
			CarryOverCount:     tracking.CarryOverCount + 1,
		}
		newTrack.CreatedBy = &actor.UserID
		if err := txRepo.Tracking.Create(ctx, newTrack); err != nil {
			return err
		}

		hours := 0.0
		if tracking.ActualHours != nil {
			hours = *tracking.ActualHours
		}
		co = &model.CarryOver{
			OriginalJobID:      job.JobID,
			NewJobID:           newJob.JobID,
			Reason:             reason,
			Notes:              req.Notes,
			WorkerVoiceRef:     req.WorkerVoiceRef,
			WorkerTranscript:   req.WorkerTranscript,
			EngineerVoiceRef:   req.EngineerVoiceRef,
			EngineerTranscript: req.EngineerTranscript,
			HoursSpent:         hours,
			CreatedBy:          actor.UserID,
			CreatedAt:          now,
		}
		if err := txRepo.CarryOver.Create(ctx, co); err != nil {
			if isDuplicateKey(err) {
				return ErrCarryOverExists
			}
			return err
		}
		co.NewJob = newJob

		if err := appendLog(ctx, txRepo, job.JobID, actor.UserID, now, model.CarriedOverEvent{
			CarryOverID: co.CarryOverID,
			NewJobID:    newJob.JobID,
			Reason:      reason,
			TargetDate:  formatDate(target),
		}); err != nil {
			return err
		}
		return appendLog(ctx, txRepo, newJob.JobID, actor.UserID, now, model.CarryOverCreatedEvent{
			CarryOverID:    co.CarryOverID,
			OriginalJobID:  job.JobID,
			CarryOverCount: newTrack.CarryOverCount,
		})
	})
	if err != nil {
		if pkgerrors.KindOf(err) == pkgerrors.KindInternal {
			s.logger.Error("作业结转失败", zap.String("job_id", jobID), zap.Error(err))
		}
		return nil, err
	}

	metrics.RecordCarryOver()
	s.logger.Info("作业已结转",
		zap.String("original_job_id", jobID),
		zap.String("new_job_id", newJob.JobID),
		zap.String("target_date", formatDate(target)),
		zap.Int("carry_over_count", newTrack.CarryOverCount))

	for _, w := range workers {
		s.notifier.Notify(ctx, Notice{
			UserID:      w,
			Type:        model.NotifyCarryOverCreated,
			Title:       "结转作业",
			Content:     fmt.Sprintf("泊位 %s 的作业已结转至 %s", job.Berth, formatDate(target)),
			RelatedType: "job",
			RelatedID:   newJob.JobID,
			Priority:    model.PriorityNormal,
		})
	}

	resp := toCarryOverResponse(co)
	tr := toTrackingResponse(newTrack)
	resp.NewTracking = &tr
	return resp, nil
}

// ────────────────────── GetByOriginalJob ──────────────────────

func (s *carryOverService) GetByOriginalJob(ctx context.Context, actor Actor, jobID string) (*dto.CarryOverResponse, error) {
	job, err := s.repo.Job.GetByID(ctx, jobID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrJobNotFound
		}
		s.logger.Error("查询作业失败", zap.String("job_id", jobID), zap.Error(err))
		return nil, err
	}
	if !canViewJob(actor, job) {
		return nil, ErrForbidden
	}

	co, err := s.repo.CarryOver.GetByOriginalJob(ctx, jobID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrCarryOverNotFound
		}
		s.logger.Error("查询结转记录失败", zap.String("job_id", jobID), zap.Error(err))
		return nil, err
	}
	return toCarryOverResponse(co), nil
}
