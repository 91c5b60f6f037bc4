//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"berthops/internal/model"
	"berthops/internal/repository"
	"berthops/pkg/database"
	pkgerrors "berthops/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=berthops password=berthops_password dbname=berthops_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 使用正式迁移文件建表
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "执行迁移失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

type fixture struct {
	engineer *model.User
	worker   *model.User
	plan     *model.WorkPlan
	job      *model.Job
}

var day = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

// setupTestData 创建 工程师 + 工人 + 计划 + 作业，返回清理函数
func setupTestData(t *testing.T) (*fixture, func()) {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	f := &fixture{
		engineer: &model.User{Name: fmt.Sprintf("工程师-%d", suffix), Role: "engineer", IsActive: true},
		worker:   &model.User{Name: fmt.Sprintf("工人-%d", suffix), Role: "worker", IsActive: true},
	}
	for _, u := range []*model.User{f.engineer, f.worker} {
		if err := testDB.WithContext(ctx).Create(u).Error; err != nil {
			t.Fatalf("创建用户失败: %v", err)
		}
	}

	f.plan = &model.WorkPlan{
		Name:      fmt.Sprintf("测试计划-%d", suffix),
		StartDate: day,
		EndDate:   day.AddDate(0, 0, 6),
		OwnerID:   f.engineer.UserID,
		Status:    "active",
	}
	if err := testDB.WithContext(ctx).Create(f.plan).Error; err != nil {
		t.Fatalf("创建计划失败: %v", err)
	}

	f.job = &model.Job{
		PlanID:         f.plan.PlanID,
		ScheduledDate:  day,
		Shift:          model.ShiftDay,
		Berth:          "B3",
		Priority:       "normal",
		EstimatedHours: 4,
		Description:    "更换制动片",
	}
	if err := testDB.WithContext(ctx).Create(f.job).Error; err != nil {
		t.Fatalf("创建作业失败: %v", err)
	}

	cleanup := func() {
		users := []string{f.engineer.UserID, f.worker.UserID}
		testDB.Exec("DELETE FROM notifications WHERE user_id IN ?", users)
		testDB.Exec("DELETE FROM performance_records WHERE worker_id IN ?", users)
		testDB.Exec("DELETE FROM worker_scores WHERE user_id IN ?", users)
		testDB.Exec("DELETE FROM carry_overs WHERE original_job_id IN (SELECT job_id FROM jobs WHERE plan_id = ?)", f.plan.PlanID)
		testDB.Exec("DELETE FROM job_logs WHERE job_id IN (SELECT job_id FROM jobs WHERE plan_id = ?)", f.plan.PlanID)
		testDB.Exec("DELETE FROM job_trackings WHERE job_id IN (SELECT job_id FROM jobs WHERE plan_id = ?)", f.plan.PlanID)
		testDB.Exec("DELETE FROM job_assignments WHERE job_id IN (SELECT job_id FROM jobs WHERE plan_id = ?)", f.plan.PlanID)
		testDB.Exec("DELETE FROM daily_reviews WHERE engineer_id = ?", f.engineer.UserID)
		testDB.Exec("UPDATE jobs SET carried_from_job_id = NULL WHERE plan_id = ?", f.plan.PlanID)
		testDB.Exec("DELETE FROM jobs WHERE plan_id = ?", f.plan.PlanID)
		testDB.Exec("DELETE FROM work_plans WHERE plan_id = ?", f.plan.PlanID)
		testDB.Exec("DELETE FROM users WHERE user_id IN ?", users)
	}
	return f, cleanup
}

// ═══════════════════════════════════════════════════════════
// Test: Transaction
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	f, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	errAbort := errors.New("abort")
	var trackingID string
	err := repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		tr := &model.JobTracking{JobID: f.job.JobID, Status: model.TrackingInProgress}
		if err := txRepo.Tracking.Create(ctx, tr); err != nil {
			return err
		}
		trackingID = tr.TrackingID
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("期望返回 abort 错误，实际: %v", err)
	}

	// 验证数据未持久化
	if _, err := repo.Tracking.GetByJobID(ctx, f.job.JobID); err == nil {
		t.Fatalf("期望回滚后查不到跟踪记录 %s，但实际查到了", trackingID)
	}
}

func TestTransaction_Commit(t *testing.T) {
	f, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	err := repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Tracking.Create(ctx, &model.JobTracking{JobID: f.job.JobID, Status: model.TrackingInProgress}); err != nil {
			return err
		}
		log, err := model.NewJobLog(f.job.JobID, f.worker.UserID, time.Now(), model.StartedEvent{Shift: model.ShiftDay, FromStatus: model.TrackingPending})
		if err != nil {
			return err
		}
		return txRepo.JobLog.Append(ctx, log)
	})
	if err != nil {
		t.Fatalf("事务执行失败: %v", err)
	}

	if _, err := repo.Tracking.GetByJobID(ctx, f.job.JobID); err != nil {
		t.Fatalf("提交后查询跟踪记录失败: %v", err)
	}
	logs, err := repo.JobLog.ListByJob(ctx, f.job.JobID)
	if err != nil {
		t.Fatalf("查询日志失败: %v", err)
	}
	if len(logs) != 1 || logs[0].EventType != model.EventStarted {
		t.Errorf("期望 1 条 started 日志，实际 %d 条", len(logs))
	}
	ev, err := logs[0].DecodeEvent()
	if err != nil {
		t.Fatalf("解析日志载荷失败: %v", err)
	}
	if started, ok := ev.(*model.StartedEvent); !ok || started.Shift != model.ShiftDay {
		t.Errorf("日志载荷不符: %+v", ev)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Optimistic Lock
// ═══════════════════════════════════════════════════════════

func TestOptimisticLock_Tracking_ConflictDetected(t *testing.T) {
	f, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	if err := repo.Tracking.Create(ctx, &model.JobTracking{JobID: f.job.JobID, Status: model.TrackingInProgress}); err != nil {
		t.Fatalf("创建跟踪记录失败: %v", err)
	}

	// 模拟并发：获取两份副本
	copy1, _ := repo.Tracking.GetByJobID(ctx, f.job.JobID)
	copy2, _ := repo.Tracking.GetByJobID(ctx, f.job.JobID)

	now := time.Now()
	copy1.Status = model.TrackingPaused
	copy1.PausedAt = &now
	if err := repo.Tracking.Update(ctx, copy1); err != nil {
		t.Fatalf("第一次更新失败: %v", err)
	}

	copy2.Status = model.TrackingCompleted
	if err := repo.Tracking.Update(ctx, copy2); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}

	latest, _ := repo.Tracking.GetByJobID(ctx, f.job.JobID)
	if latest.Status != model.TrackingPaused || latest.Version != copy1.Version {
		t.Errorf("期望保留第一次更新，实际 status=%s version=%d", latest.Status, latest.Version)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Unique Constraints
// ═══════════════════════════════════════════════════════════

func TestCarryOver_DuplicateOriginalRejected(t *testing.T) {
	f, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	newJob := func() *model.Job {
		j := &model.Job{
			PlanID:           f.plan.PlanID,
			ScheduledDate:    day.AddDate(0, 0, 1),
			Shift:            model.ShiftDay,
			EstimatedHours:   2,
			CarriedFromJobID: &f.job.JobID,
		}
		if err := repo.Job.Create(ctx, j); err != nil {
			t.Fatalf("创建结转作业失败: %v", err)
		}
		return j
	}

	first := &model.CarryOver{OriginalJobID: f.job.JobID, NewJobID: newJob().JobID, Reason: model.CarryOverAwaitingParts, CreatedBy: f.engineer.UserID}
	if err := repo.CarryOver.Create(ctx, first); err != nil {
		t.Fatalf("首次结转失败: %v", err)
	}

	second := &model.CarryOver{OriginalJobID: f.job.JobID, NewJobID: newJob().JobID, Reason: model.CarryOverOther, CreatedBy: f.engineer.UserID}
	if err := repo.CarryOver.Create(ctx, second); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("期望 gorm.ErrDuplicatedKey，实际: %v", err)
	}

	got, err := repo.CarryOver.GetByOriginalJob(ctx, f.job.JobID)
	if err != nil {
		t.Fatalf("查询结转记录失败: %v", err)
	}
	if got.CarryOverID != first.CarryOverID {
		t.Errorf("期望保留首次结转 %s，实际 %s", first.CarryOverID, got.CarryOverID)
	}
}

func TestDailyReview_GetOrCreateIdempotent(t *testing.T) {
	f, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	r1, err := repo.Review.GetOrCreate(ctx, f.engineer.UserID, day, model.ShiftDay)
	if err != nil {
		t.Fatalf("GetOrCreate 失败: %v", err)
	}
	r2, err := repo.Review.GetOrCreate(ctx, f.engineer.UserID, day, model.ShiftDay)
	if err != nil {
		t.Fatalf("第二次 GetOrCreate 失败: %v", err)
	}
	if r1.ReviewID != r2.ReviewID {
		t.Errorf("同一 工程师×日期×班次 应返回同一日审: %s vs %s", r1.ReviewID, r2.ReviewID)
	}

	r3, err := repo.Review.GetOrCreate(ctx, f.engineer.UserID, day, model.ShiftNight)
	if err != nil {
		t.Fatalf("夜班 GetOrCreate 失败: %v", err)
	}
	if r3.ReviewID == r1.ReviewID {
		t.Error("不同班次应为不同日审")
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Points Ledger
// ═══════════════════════════════════════════════════════════

func TestScore_ApplyDeltaIsAdditive(t *testing.T) {
	f, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	for _, d := range []int{11, -3, 5} {
		if err := repo.Score.ApplyDelta(ctx, f.worker.UserID, d); err != nil {
			t.Fatalf("ApplyDelta(%d) 失败: %v", d, err)
		}
	}

	score, err := repo.Score.GetByUser(ctx, f.worker.UserID)
	if err != nil {
		t.Fatalf("查询积分失败: %v", err)
	}
	if score.TotalPoints != 13 {
		t.Errorf("期望总积分 13，实际 %d", score.TotalPoints)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Performance Upsert
// ═══════════════════════════════════════════════════════════

func TestPerformance_UpsertOverwrites(t *testing.T) {
	f, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	rec := &model.PerformanceRecord{
		WorkerID:       f.worker.UserID,
		PeriodType:     model.PeriodDaily,
		PeriodStart:    day,
		PeriodEnd:      day,
		JobsAssigned:   2,
		JobsCompleted:  1,
		CompletionRate: 50,
	}
	if err := repo.Performance.Upsert(ctx, rec); err != nil {
		t.Fatalf("首次 Upsert 失败: %v", err)
	}

	rec2 := *rec
	rec2.RecordID = ""
	rec2.JobsCompleted = 2
	rec2.CompletionRate = 100
	rec2.CurrentStreak = 1
	if err := repo.Performance.Upsert(ctx, &rec2); err != nil {
		t.Fatalf("第二次 Upsert 失败: %v", err)
	}

	list, err := repo.Performance.List(ctx, repository.PerformanceFilter{WorkerID: f.worker.UserID, PeriodType: model.PeriodDaily})
	if err != nil {
		t.Fatalf("查询绩效失败: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("期望 1 条日记录，实际 %d 条", len(list))
	}
	if list[0].JobsCompleted != 2 || list[0].CurrentStreak != 1 {
		t.Errorf("期望覆盖写入，实际 completed=%d streak=%d", list[0].JobsCompleted, list[0].CurrentStreak)
	}

	prev, err := repo.Performance.GetLatestDailyBefore(ctx, f.worker.UserID, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("GetLatestDailyBefore 失败: %v", err)
	}
	if !prev.PeriodStart.Equal(day) {
		t.Errorf("期望最近一天为 %s，实际 %s", day.Format("2006-01-02"), prev.PeriodStart.Format("2006-01-02"))
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Notifications
// ═══════════════════════════════════════════════════════════

func TestNotification_MarkReadOwnership(t *testing.T) {
	f, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	n := &model.Notification{UserID: f.worker.UserID, Type: "pause_reviewed", Title: "暂停已批准", Content: "继续施工", Priority: model.PriorityNormal}
	if err := repo.Notification.Create(ctx, n); err != nil {
		t.Fatalf("创建通知失败: %v", err)
	}

	if ok, err := repo.Notification.MarkRead(ctx, n.NotificationID, f.engineer.UserID); err != nil || ok {
		t.Errorf("他人不应能标记已读: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.Notification.MarkRead(ctx, n.NotificationID, f.worker.UserID); err != nil || !ok {
		t.Errorf("本人标记已读失败: ok=%v err=%v", ok, err)
	}

	list, total, err := repo.Notification.ListByUser(ctx, f.worker.UserID, true, 0, 20)
	if err != nil {
		t.Fatalf("查询通知失败: %v", err)
	}
	if total != 0 || len(list) != 0 {
		t.Errorf("期望无未读通知，实际 %d", total)
	}
}
