package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"berthops/internal/dto"
	"berthops/internal/model"
)

func TestNotificationService_NotifyAndList(t *testing.T) {
	env := newTestEnv()
	svc := NewNotificationService(env.repo, zap.NewNop())
	ctx := context.Background()

	svc.Notify(ctx, Notice{UserID: workerID, Type: model.NotifyCarryOverCreated, Title: "结转作业", RelatedType: "job", RelatedID: "job-1"})
	svc.Notify(ctx, Notice{UserID: workerID, Type: model.NotifyStreakMilestone, Title: "里程碑", Priority: model.PriorityLow})
	svc.Notify(ctx, Notice{Type: model.NotifyStreakMilestone, Title: "无接收人"})

	list, total, err := svc.List(ctx, workerID, &dto.NotificationListRequest{PaginationRequest: dto.PaginationRequest{Page: 1, PageSize: 10}})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("期望 2 条通知，实际 total=%d len=%d", total, len(list))
	}
	if list[0].Priority != model.PriorityNormal {
		t.Errorf("默认优先级应为 normal，实际 %s", list[0].Priority)
	}
	if list[0].RelatedID == nil || *list[0].RelatedID != "job-1" {
		t.Errorf("关联对象未保存: %+v", list[0])
	}

	if err := svc.MarkRead(ctx, list[0].ID, workerID); err != nil {
		t.Fatalf("MarkRead 失败: %v", err)
	}
	unread, total, _ := svc.List(ctx, workerID, &dto.NotificationListRequest{UnreadOnly: true, PaginationRequest: dto.PaginationRequest{Page: 1, PageSize: 10}})
	if total != 1 || len(unread) != 1 {
		t.Errorf("期望 1 条未读，实际 %d", total)
	}
}

func TestNotificationService_MarkRead_OtherUser(t *testing.T) {
	env := newTestEnv()
	svc := NewNotificationService(env.repo, zap.NewNop())
	ctx := context.Background()
	svc.Notify(ctx, Notice{UserID: workerID, Type: model.NotifyPauseReviewed, Title: "暂停已审批"})

	err := svc.MarkRead(ctx, env.notifications.items[0].NotificationID, worker2ID)
	if !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("他人通知期望 ErrNotificationNotFound，实际: %v", err)
	}
}

func TestNotificationService_NotifyAdmins(t *testing.T) {
	env := newTestEnv()
	env.users.add("u-admin-2", "管理员二", "admin")
	svc := NewNotificationService(env.repo, zap.NewNop())

	svc.NotifyAdmins(context.Background(), Notice{Type: model.NotifyRatingDisputed, Title: "评分申诉"})
	if n := env.notifications.byType(model.NotifyRatingDisputed); len(n) != 2 {
		t.Errorf("期望通知 2 名管理员，实际 %d", len(n))
	}
}
