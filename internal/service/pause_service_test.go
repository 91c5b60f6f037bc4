package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"berthops/internal/dto"
	"berthops/internal/model"
)

// ── 测试辅助 ──

func setupPausedJob(t *testing.T) (*testEnv, *pauseService, string) {
	t.Helper()
	env, clk, tracking := setupTrackingJob()
	ctx := context.Background()
	if _, err := tracking.Start(ctx, workerActor, "job-1"); err != nil {
		t.Fatalf("Start 失败: %v", err)
	}
	clk.set("2026-03-10T09:00:00Z")
	resp, err := tracking.Pause(ctx, workerActor, "job-1", &dto.PauseJobRequest{Reason: "waiting_for_access"})
	if err != nil {
		t.Fatalf("Pause 失败: %v", err)
	}

	logger := zap.NewNop()
	svc := &pauseService{
		repo:     env.repo,
		notifier: NewNotificationService(env.repo, logger),
		logger:   logger,
		now:      clk.now,
	}
	return env, svc, *resp.OpenPauseRequestID
}

// stalePauseRepo 模拟并发：读取到的仍是 pending 快照，而存储中已被他人审批
type stalePauseRepo struct {
	*mockPauseRequestRepo
	snapshot model.PauseRequest
}

func (s *stalePauseRepo) GetByID(_ context.Context, _ string) (*model.PauseRequest, error) {
	c := s.snapshot
	return &c, nil
}

// ── Approve / Reject ──

func TestPauseService_Approve_Success(t *testing.T) {
	env, svc, prID := setupPausedJob(t)

	resp, err := svc.Approve(context.Background(), engineerActor, prID, &dto.ReviewPauseRequest{Note: "同意"})
	if err != nil {
		t.Fatalf("Approve 失败: %v", err)
	}
	if resp.Status != model.PauseStatusApproved {
		t.Errorf("期望 approved，实际 %s", resp.Status)
	}

	// 审批不改变作业状态
	tr, _ := env.trackings.GetByJobID(context.Background(), "job-1")
	if tr.Status != model.TrackingPaused {
		t.Errorf("审批不应影响作业状态，实际 %s", tr.Status)
	}
	if n := env.notifications.byType(model.NotifyPauseReviewed); len(n) != 1 || n[0].UserID != workerID {
		t.Errorf("期望通知申请工人，实际 %+v", n)
	}
	last := env.logs.logs[len(env.logs.logs)-1]
	if last.EventType != model.EventPauseReviewed {
		t.Errorf("期望追加 pause_reviewed 日志，实际 %s", last.EventType)
	}
}

func TestPauseService_DoubleReview_AlreadyReviewed(t *testing.T) {
	_, svc, prID := setupPausedJob(t)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, engineerActor, prID, &dto.ReviewPauseRequest{}); err != nil {
		t.Fatalf("首次审批失败: %v", err)
	}
	_, err := svc.Reject(ctx, adminActor, prID, &dto.ReviewPauseRequest{})
	if !errors.Is(err, ErrPauseAlreadyReviewed) {
		t.Fatalf("期望 ErrPauseAlreadyReviewed，实际: %v", err)
	}
}

func TestPauseService_ConcurrentReview_LoserGetsAlreadyReviewed(t *testing.T) {
	env, svc, prID := setupPausedJob(t)
	ctx := context.Background()

	snapshot := *env.pauses.find(prID)
	snapshot.Job = env.jobs.find("job-1")
	env.repo.PauseRequest = &stalePauseRepo{mockPauseRequestRepo: env.pauses, snapshot: snapshot}

	// 另一位审批人先写入
	if ok, _ := env.pauses.Review(ctx, prID, model.PauseStatusRejected, adminID, "", snapshot.RequestedAt); !ok {
		t.Fatal("预置审批失败")
	}
	logsBefore := len(env.logs.logs)

	_, err := svc.Approve(ctx, engineerActor, prID, &dto.ReviewPauseRequest{})
	if !errors.Is(err, ErrPauseAlreadyReviewed) {
		t.Fatalf("期望 ErrPauseAlreadyReviewed，实际: %v", err)
	}
	if env.pauses.find(prID).Status != model.PauseStatusRejected {
		t.Error("后到者不应覆盖先到者的审批结果")
	}
	if len(env.logs.logs) != logsBefore {
		t.Error("失败的审批不应写入日志")
	}
}

func TestPauseService_Review_Forbidden(t *testing.T) {
	_, svc, prID := setupPausedJob(t)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, workerActor, prID, &dto.ReviewPauseRequest{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("工人审批期望 ErrForbidden，实际: %v", err)
	}
	if _, err := svc.Approve(ctx, otherEngActor, prID, &dto.ReviewPauseRequest{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("非负责工程师期望 ErrForbidden，实际: %v", err)
	}
}

func TestPauseService_Review_NotFound(t *testing.T) {
	_, svc, _ := setupPausedJob(t)

	_, err := svc.Approve(context.Background(), adminActor, "missing", &dto.ReviewPauseRequest{})
	if !errors.Is(err, ErrPauseRequestNotFound) {
		t.Fatalf("期望 ErrPauseRequestNotFound，实际: %v", err)
	}
}

// ── List ──

func TestPauseService_List_ScopedByOwner(t *testing.T) {
	_, svc, _ := setupPausedJob(t)
	ctx := context.Background()

	list, err := svc.List(ctx, engineerActor, &dto.PauseRequestListRequest{Status: model.PauseStatusPending, Date: "2026-03-10"})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("负责工程师期望 1 条待审批，实际 %d", len(list))
	}

	list, err = svc.List(ctx, otherEngActor, &dto.PauseRequestListRequest{Date: "2026-03-10"})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("其他工程师不应看到该申请，实际 %d", len(list))
	}
}
