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

// autoFlagNote 系统自动标记时写入的未完成说明
const autoFlagNote = "班次结束时作业仍未完成，系统自动标记"

// AutoFlagService 班末自动标记接口
type AutoFlagService interface {
	// Run 对 日期×班次 内未结束的作业做班末标记，同一键重复执行结果不变
	Run(ctx context.Context, date, shift string) (*dto.AutoFlagResponse, error)
}

type autoFlagService struct {
	repo     *repository.Repository
	notifier NotificationService
	locker   Locker
	logger   *zap.Logger
	now      func() time.Time
}

// NewAutoFlagService 创建 AutoFlagService 实例
func NewAutoFlagService(repo *repository.Repository, notifier NotificationService, locker Locker, logger *zap.Logger) AutoFlagService {
	return &autoFlagService{repo: repo, notifier: notifier, locker: locker, logger: logger, now: time.Now}
}

func (s *autoFlagService) Run(ctx context.Context, date, shift string) (*dto.AutoFlagResponse, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	if err := requireShift(shift); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, fmt.Sprintf("auto_flag:%s:%s", date, shift))
	if err != nil {
		s.logger.Error("获取自动标记锁失败", zap.String("date", date), zap.String("shift", shift), zap.Error(err))
		return nil, err
	}
	defer unlock()

	start := time.Now()
	resp, err := s.sweep(ctx, d, shift)
	metrics.ObserveBatchRun("auto_flag", time.Since(start).Seconds())
	if err != nil {
		metrics.RecordBatchError("auto_flag")
		s.logger.Error("班末自动标记失败", zap.String("date", date), zap.String("shift", shift), zap.Error(err))
		return nil, err
	}

	s.logger.Info("班末自动标记完成",
		zap.String("date", date),
		zap.String("shift", shift),
		zap.Int("flagged", resp.FlaggedCount),
		zap.Int("never_started", resp.NeverStarted),
		zap.Int("not_finished", resp.NotFinished))
	return resp, nil
}

// sweep 逐个作业在独立事务中标记；与工人并发操作冲突的作业跳过，下次执行再处理
func (s *autoFlagService) sweep(ctx context.Context, date time.Time, shift string) (*dto.AutoFlagResponse, error) {
	resp := &dto.AutoFlagResponse{Date: formatDate(date), Shift: shift}

	jobs, err := s.repo.Job.List(ctx, repository.JobFilter{Date: date, Shift: shift})
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return resp, nil
	}

	jobIDs := make([]string, 0, len(jobs))
	for i := range jobs {
		jobIDs = append(jobIDs, jobs[i].JobID)
	}
	trackings, err := s.repo.Tracking.ListByJobIDs(ctx, jobIDs)
	if err != nil {
		return nil, err
	}
	byJob := make(map[string]*model.JobTracking, len(trackings))
	for i := range trackings {
		byJob[trackings[i].JobID] = &trackings[i]
	}

	perOwner := make(map[string]int)
	now := s.now()
	var sweepErr error
	for i := range jobs {
		job := &jobs[i]
		t := byJob[job.JobID]

		var flagType string
		var created bool
		switch {
		case t == nil:
			flagType, err = s.flagMissing(ctx, job.JobID, now)
			created = flagType != ""
		case t.Status == model.TrackingPending || t.Status == model.TrackingInProgress || t.Status == model.TrackingPaused:
			flagType, err = s.flagOpen(ctx, t, now)
		default:
			continue
		}
		if err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				s.logger.Warn("作业状态已被并发修改，跳过自动标记", zap.String("job_id", job.JobID))
				continue
			}
			// 已标记的作业重跑时不再通知，先发出已完成部分的汇总
			sweepErr = err
			break
		}
		if flagType == "" {
			continue
		}

		resp.FlaggedCount++
		if created {
			resp.CreatedTrackings++
		}
		if flagType == model.AutoFlagNeverStarted {
			resp.NeverStarted++
		} else {
			resp.NotFinished++
		}
		if job.Plan != nil {
			perOwner[job.Plan.OwnerID]++
		}
	}

	metrics.RecordAutoFlag(model.AutoFlagNeverStarted, resp.NeverStarted)
	metrics.RecordAutoFlag(model.AutoFlagNotFinished, resp.NotFinished)

	for ownerID, count := range perOwner {
		s.notifier.Notify(ctx, Notice{
			UserID:      ownerID,
			Type:        model.NotifyAutoFlagSummary,
			Title:       "班末自动标记",
			Content:     fmt.Sprintf("%s %s班共有 %d 个作业被自动标记为未完成", resp.Date, shiftLabel(shift), count),
			RelatedType: "job",
			Priority:    model.PriorityHigh,
		})
		resp.NotifiedOwners++
	}
	if sweepErr != nil {
		return nil, sweepErr
	}
	return resp, nil
}

// flagMissing 从未产生跟踪记录的作业：创建 not_started 跟踪并标记
// 与工人开工并发时唯一约束冲突，视为无需标记
func (s *autoFlagService) flagMissing(ctx context.Context, jobID string, now time.Time) (string, error) {
	flagType := model.AutoFlagNeverStarted
	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		t := &model.JobTracking{
			JobID:         jobID,
			Status:        model.TrackingNotStarted,
			AutoFlagged:   true,
			AutoFlagType:  &flagType,
			AutoFlaggedAt: &now,
		}
		if err := txRepo.Tracking.Create(ctx, t); err != nil {
			return err
		}
		return appendLog(ctx, txRepo, jobID, "", now, model.AutoFlaggedEvent{
			FlagType:  flagType,
			NewStatus: model.TrackingNotStarted,
		})
	})
	if err != nil {
		if isDuplicateKey(err) {
			return "", pkgerrors.ErrOptimisticLock
		}
		return "", err
	}
	return flagType, nil
}

// flagOpen 未结束的跟踪：结算暂停，强制置为 incomplete(time_ran_out)
func (s *autoFlagService) flagOpen(ctx context.Context, t *model.JobTracking, now time.Time) (string, error) {
	flagType := model.AutoFlagNotFinished
	if !t.HasStarted() {
		flagType = model.AutoFlagNeverStarted
	}
	reason := model.IncompleteTimeRanOut

	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		from := t.Status
		finalized, err := closeOpenPause(ctx, txRepo, t, now)
		if err != nil {
			return err
		}
		t.Status = model.TrackingIncomplete
		t.CompletedAt = &now
		t.ActualHours = computeActualHours(t, now)
		t.IncompleteReason = &reason
		t.IncompleteNotes = autoFlagNote
		t.AutoFlagged = true
		t.AutoFlagType = &flagType
		t.AutoFlaggedAt = &now
		t.UpdatedBy = nil
		if err := txRepo.Tracking.Update(ctx, t); err != nil {
			return err
		}
		return appendLog(ctx, txRepo, t.JobID, "", now, model.AutoFlaggedEvent{
			FlagType:       flagType,
			PreviousStatus: from,
			NewStatus:      model.TrackingIncomplete,
			Reason:         reason,
			ActualHours:    t.ActualHours,
			FinalizedPause: finalized,
		})
	})
	if err != nil {
		return "", err
	}
	return flagType, nil
}

func shiftLabel(shift string) string {
	if shift == model.ShiftNight {
		return "夜"
	}
	return "白"
}
