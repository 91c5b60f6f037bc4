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

// streakMilestones 连续全勤里程碑
var streakMilestones = map[int]bool{5: true, 10: true, 20: true, 30: true, 50: true, 100: true}

// PerformanceService 绩效汇总接口
type PerformanceService interface {
	// Compute 重算某日每个有分配的工人的日绩效，并刷新所在周、月的汇总
	Compute(ctx context.Context, date string) (*dto.ComputePerformanceResponse, error)
	List(ctx context.Context, actor Actor, req *dto.PerformanceListRequest) ([]dto.PerformanceResponse, error)
}

type performanceService struct {
	repo     *repository.Repository
	notifier NotificationService
	locker   Locker
	logger   *zap.Logger
	now      func() time.Time
}

// NewPerformanceService 创建 PerformanceService 实例
func NewPerformanceService(repo *repository.Repository, notifier NotificationService, locker Locker, logger *zap.Logger) PerformanceService {
	return &performanceService{repo: repo, notifier: notifier, locker: locker, logger: logger, now: time.Now}
}

// ── 周期工具 ──

// weekBounds 周一为一周起始
func weekBounds(d time.Time) (time.Time, time.Time) {
	d = model.DateOnly(d)
	offset := (int(d.Weekday()) + 6) % 7
	start := d.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 6)
}

func monthBounds(d time.Time) (time.Time, time.Time) {
	start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

// nextStreak 当日全勤（有分配且完成率 100）则在上一记录基础上加一，否则清零
func nextStreak(prev *model.PerformanceRecord, rec *model.PerformanceRecord) (current, best int) {
	prevCurrent, prevMax := 0, 0
	if prev != nil {
		prevCurrent, prevMax = prev.CurrentStreak, prev.MaxStreak
	}
	if rec.JobsAssigned > 0 && rec.CompletionRate == 100 {
		current = prevCurrent + 1
	}
	best = prevMax
	if current > best {
		best = current
	}
	return current, best
}

// ── 日绩效计算 ──

type workerDay struct {
	rec        *model.PerformanceRecord
	timeSum    float64
	timeCount  int
	qcSum      float64
	qcCount    int
	cleanSum   float64
	cleanCount int
}

func avgPtr(sum float64, n int) *float64 {
	if n == 0 {
		return nil
	}
	v := round2(sum / float64(n))
	return &v
}

// aggregateDay 按工人汇总当日作业、评分与暂停
func (s *performanceService) aggregateDay(ctx context.Context, date time.Time) (map[string]*workerDay, []string, error) {
	jobs, err := s.repo.Job.List(ctx, repository.JobFilter{Date: date})
	if err != nil {
		return nil, nil, err
	}
	jobIDs := make([]string, 0, len(jobs))
	for i := range jobs {
		jobIDs = append(jobIDs, jobs[i].JobID)
	}

	trackings, err := s.repo.Tracking.ListByJobIDs(ctx, jobIDs)
	if err != nil {
		return nil, nil, err
	}
	trackingByJob := make(map[string]*model.JobTracking, len(trackings))
	for i := range trackings {
		trackingByJob[trackings[i].JobID] = &trackings[i]
	}

	carried, err := s.repo.CarryOver.ListByOriginalJobs(ctx, jobIDs)
	if err != nil {
		return nil, nil, err
	}
	carriedJobs := make(map[string]bool, len(carried))
	for i := range carried {
		carriedJobs[carried[i].OriginalJobID] = true
	}

	ratings, err := s.repo.Rating.ListByJobIDs(ctx, jobIDs)
	if err != nil {
		return nil, nil, err
	}
	pauses, err := s.repo.PauseRequest.List(ctx, repository.PauseRequestFilter{JobIDs: jobIDs})
	if err != nil {
		return nil, nil, err
	}

	days := make(map[string]*workerDay)
	order := make([]string, 0)
	dayFor := func(workerID string) *workerDay {
		wd, ok := days[workerID]
		if !ok {
			wd = &workerDay{rec: &model.PerformanceRecord{
				WorkerID:    workerID,
				PeriodType:  model.PeriodDaily,
				PeriodStart: date,
				PeriodEnd:   date,
			}}
			days[workerID] = wd
			order = append(order, workerID)
		}
		return wd
	}

	for i := range jobs {
		job := &jobs[i]
		t := trackingByJob[job.JobID]
		for _, workerID := range job.WorkerIDs() {
			rec := dayFor(workerID).rec
			rec.JobsAssigned++
			rec.EstimatedHours += job.EstimatedHours
			switch {
			case t == nil || t.Status == model.TrackingPending || t.Status == model.TrackingNotStarted:
				rec.JobsNotStarted++
			case t.Status == model.TrackingCompleted:
				rec.JobsCompleted++
			case t.Status == model.TrackingIncomplete:
				rec.JobsIncomplete++
			}
			if t != nil && t.ActualHours != nil {
				rec.ActualHours += *t.ActualHours
			}
			if carriedJobs[job.JobID] {
				rec.JobsCarriedOver++
			}
		}
	}

	for i := range ratings {
		r := &ratings[i]
		wd, ok := days[r.WorkerID]
		if !ok {
			continue
		}
		wd.rec.PointsEarned += r.PointsEarned
		if tr := r.EffectiveTimeRating(); tr != nil {
			wd.timeSum += *tr
			wd.timeCount++
		}
		if r.QCRating != nil {
			wd.qcSum += float64(*r.QCRating)
			wd.qcCount++
		}
		if r.CleaningRating != nil {
			wd.cleanSum += float64(*r.CleaningRating)
			wd.cleanCount++
		}
	}

	for i := range pauses {
		p := &pauses[i]
		wd, ok := days[p.RequestedBy]
		if !ok {
			continue
		}
		wd.rec.PauseCount++
		if p.DurationMinutes != nil {
			wd.rec.PauseMinutes += *p.DurationMinutes
		}
	}

	for _, wd := range days {
		rec := wd.rec
		rec.EstimatedHours = round2(rec.EstimatedHours)
		rec.ActualHours = round2(rec.ActualHours)
		rec.PauseMinutes = round2(rec.PauseMinutes)
		rec.AvgTimeRating = avgPtr(wd.timeSum, wd.timeCount)
		rec.AvgQCRating = avgPtr(wd.qcSum, wd.qcCount)
		rec.AvgCleaningRating = avgPtr(wd.cleanSum, wd.cleanCount)
		if rec.JobsAssigned > 0 {
			rec.CompletionRate = round2(float64(rec.JobsCompleted) / float64(rec.JobsAssigned) * 100)
		}
	}
	return days, order, nil
}

// rollup 由周期内的日记录汇总周、月记录
func rollup(workerID, periodType string, start, end time.Time, daily []model.PerformanceRecord) *model.PerformanceRecord {
	rec := &model.PerformanceRecord{
		WorkerID:    workerID,
		PeriodType:  periodType,
		PeriodStart: start,
		PeriodEnd:   end,
	}
	var timeSum, qcSum, cleanSum float64
	var timeN, qcN, cleanN int
	for i := range daily {
		d := &daily[i]
		rec.JobsAssigned += d.JobsAssigned
		rec.JobsCompleted += d.JobsCompleted
		rec.JobsIncomplete += d.JobsIncomplete
		rec.JobsNotStarted += d.JobsNotStarted
		rec.JobsCarriedOver += d.JobsCarriedOver
		rec.EstimatedHours += d.EstimatedHours
		rec.ActualHours += d.ActualHours
		rec.PointsEarned += d.PointsEarned
		rec.PauseCount += d.PauseCount
		rec.PauseMinutes += d.PauseMinutes
		if d.AvgTimeRating != nil {
			timeSum += *d.AvgTimeRating
			timeN++
		}
		if d.AvgQCRating != nil {
			qcSum += *d.AvgQCRating
			qcN++
		}
		if d.AvgCleaningRating != nil {
			cleanSum += *d.AvgCleaningRating
			cleanN++
		}
		// 日记录按日期升序，取周期内最后一天的当前连续数
		rec.CurrentStreak = d.CurrentStreak
		if d.MaxStreak > rec.MaxStreak {
			rec.MaxStreak = d.MaxStreak
		}
	}
	rec.EstimatedHours = round2(rec.EstimatedHours)
	rec.ActualHours = round2(rec.ActualHours)
	rec.PauseMinutes = round2(rec.PauseMinutes)
	rec.AvgTimeRating = avgPtr(timeSum, timeN)
	rec.AvgQCRating = avgPtr(qcSum, qcN)
	rec.AvgCleaningRating = avgPtr(cleanSum, cleanN)
	if rec.JobsAssigned > 0 {
		rec.CompletionRate = round2(float64(rec.JobsCompleted) / float64(rec.JobsAssigned) * 100)
	}
	return rec
}

// ────────────────────── Compute ──────────────────────

func (s *performanceService) Compute(ctx context.Context, date string) (*dto.ComputePerformanceResponse, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, "performance:"+date)
	if err != nil {
		s.logger.Error("获取绩效汇总锁失败", zap.String("date", date), zap.Error(err))
		return nil, err
	}
	defer unlock()

	start := time.Now()
	resp, milestones, err := s.compute(ctx, d)
	metrics.ObserveBatchRun("performance", time.Since(start).Seconds())
	if err != nil {
		metrics.RecordBatchError("performance")
		s.logger.Error("绩效汇总失败", zap.String("date", date), zap.Error(err))
		return nil, err
	}

	for _, m := range milestones {
		s.notifier.Notify(ctx, Notice{
			UserID:      m.WorkerID,
			Type:        model.NotifyStreakMilestone,
			Title:       "连续全勤里程碑",
			Content:     fmt.Sprintf("恭喜！您已连续 %d 天完成全部作业", m.CurrentStreak),
			RelatedType: "performance",
			RelatedID:   m.RecordID,
			Priority:    model.PriorityLow,
		})
	}

	s.logger.Info("绩效汇总完成",
		zap.String("date", date),
		zap.Int("workers", resp.Workers),
		zap.Int("milestones", resp.Milestones))
	return resp, nil
}

func (s *performanceService) compute(ctx context.Context, d time.Time) (*dto.ComputePerformanceResponse, []*model.PerformanceRecord, error) {
	days, order, err := s.aggregateDay(ctx, d)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	var milestones []*model.PerformanceRecord
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		weekStart, weekEnd := weekBounds(d)
		monthStart, monthEnd := monthBounds(d)

		for _, workerID := range order {
			rec := days[workerID].rec

			prev, err := txRepo.Performance.GetLatestDailyBefore(ctx, workerID, d)
			if err != nil && !isRecordNotFound(err) {
				return err
			}
			prevMax := 0
			if prev != nil {
				prevMax = prev.MaxStreak
			}
			rec.CurrentStreak, rec.MaxStreak = nextStreak(prev, rec)

			// 里程碑仅在首次达到时通知；重算同一天不重复发送
			existing, err := txRepo.Performance.GetByKey(ctx, workerID, model.PeriodDaily, d)
			if err != nil && !isRecordNotFound(err) {
				return err
			}
			firstCross := streakMilestones[rec.CurrentStreak] && rec.CurrentStreak > prevMax
			if firstCross && (existing == nil || existing.CurrentStreak != rec.CurrentStreak) {
				milestones = append(milestones, rec)
			}

			rec.CreatedAt = now
			rec.UpdatedAt = now
			if err := txRepo.Performance.Upsert(ctx, rec); err != nil {
				return err
			}

			for _, p := range []struct {
				periodType string
				start, end time.Time
			}{
				{model.PeriodWeekly, weekStart, weekEnd},
				{model.PeriodMonthly, monthStart, monthEnd},
			} {
				from, to := p.start, p.end
				daily, err := txRepo.Performance.List(ctx, repository.PerformanceFilter{
					WorkerID:   workerID,
					PeriodType: model.PeriodDaily,
					From:       &from,
					To:         &to,
				})
				if err != nil {
					return err
				}
				agg := rollup(workerID, p.periodType, p.start, p.end, daily)
				agg.CreatedAt = now
				agg.UpdatedAt = now
				if err := txRepo.Performance.Upsert(ctx, agg); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &dto.ComputePerformanceResponse{
		Date:       formatDate(d),
		Workers:    len(order),
		Milestones: len(milestones),
	}, milestones, nil
}

// ────────────────────── List ──────────────────────

func (s *performanceService) List(ctx context.Context, actor Actor, req *dto.PerformanceListRequest) ([]dto.PerformanceResponse, error) {
	filter := repository.PerformanceFilter{WorkerID: req.WorkerID, PeriodType: req.PeriodType}
	// 工人只能查看自己的绩效
	if !actor.CanReview() {
		if req.WorkerID != "" && req.WorkerID != actor.UserID {
			return nil, ErrForbidden
		}
		filter.WorkerID = actor.UserID
	}
	if req.From != "" {
		from, err := parseDate(req.From)
		if err != nil {
			return nil, err
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := parseDate(req.To)
		if err != nil {
			return nil, err
		}
		filter.To = &to
	}

	recs, err := s.repo.Performance.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询绩效记录失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.PerformanceResponse, 0, len(recs))
	for i := range recs {
		result = append(result, toPerformanceResponse(&recs[i]))
	}
	return result, nil
}
