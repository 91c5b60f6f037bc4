// Package scheduler 按 cron 表达式触发班末标记与绩效汇总。
// 每个任务都是幂等的，失败仅记录日志，下一次触发时自然重试。
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"berthops/config"
	"berthops/internal/model"
	"berthops/internal/service"
)

const (
	dateLayout = "2006-01-02"
	runTimeout = 10 * time.Minute
)

// Scheduler 定时任务调度器
type Scheduler struct {
	cron        *cron.Cron
	cfg         config.SchedulerConfig
	loc         *time.Location
	autoFlag    service.AutoFlagService
	performance service.PerformanceService
	logger      *zap.Logger
	now         func() time.Time
}

// New 创建调度器，cron 表达式按作业时区解释
func New(cfg *config.Config, autoFlag service.AutoFlagService, performance service.PerformanceService, logger *zap.Logger) *Scheduler {
	loc := cfg.Tracking.Location()
	return &Scheduler{
		cron:        cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		cfg:         cfg.Scheduler,
		loc:         loc,
		autoFlag:    autoFlag,
		performance: performance,
		logger:      logger,
		now:         time.Now,
	}
}

// Start 注册任务并启动调度；未启用时直接返回
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("定时任务未启用")
		return nil
	}

	entries := []struct {
		name string
		spec string
		fn   func(ctx context.Context)
	}{
		{"day_shift_flag", s.cfg.DayShiftFlagCron, s.RunDayShiftFlag},
		{"night_shift_flag", s.cfg.NightShiftFlagCron, s.RunNightShiftFlag},
		{"performance", s.cfg.PerformanceCron, s.RunPerformance},
	}
	for _, e := range entries {
		fn := e.fn
		if _, err := s.cron.AddFunc(e.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
			defer cancel()
			fn(ctx)
		}); err != nil {
			return fmt.Errorf("注册定时任务 %s 失败: %w", e.name, err)
		}
		s.logger.Info("定时任务已注册", zap.String("job", e.name), zap.String("spec", e.spec))
	}

	s.cron.Start()
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("定时任务已停止")
}

// RunDayShiftFlag 标记今日白班
func (s *Scheduler) RunDayShiftFlag(ctx context.Context) {
	s.runAutoFlag(ctx, s.today(), model.ShiftDay)
}

// RunNightShiftFlag 标记昨日开始的夜班
func (s *Scheduler) RunNightShiftFlag(ctx context.Context) {
	s.runAutoFlag(ctx, s.yesterday(), model.ShiftNight)
}

// RunPerformance 汇总昨日绩效
func (s *Scheduler) RunPerformance(ctx context.Context) {
	date := s.yesterday()
	resp, err := s.performance.Compute(ctx, date)
	if err != nil {
		s.logger.Error("定时绩效汇总失败", zap.String("date", date), zap.Error(err))
		return
	}
	s.logger.Info("定时绩效汇总完成",
		zap.String("date", date),
		zap.Int("workers", resp.Workers),
	)
}

func (s *Scheduler) runAutoFlag(ctx context.Context, date, shift string) {
	resp, err := s.autoFlag.Run(ctx, date, shift)
	if err != nil {
		s.logger.Error("定时班末标记失败", zap.String("date", date), zap.String("shift", shift), zap.Error(err))
		return
	}
	s.logger.Info("定时班末标记完成",
		zap.String("date", date),
		zap.String("shift", shift),
		zap.Int("flagged", resp.FlaggedCount),
	)
}

func (s *Scheduler) today() string {
	return s.now().In(s.loc).Format(dateLayout)
}

func (s *Scheduler) yesterday() string {
	return s.now().In(s.loc).AddDate(0, 0, -1).Format(dateLayout)
}
