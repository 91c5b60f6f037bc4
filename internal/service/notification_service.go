package service

import (
	"context"

	"go.uber.org/zap"

	"berthops/internal/dto"
	"berthops/internal/model"
	"berthops/internal/repository"
	"berthops/pkg/jwt"
)

// Notice 一条待发送的通知
type Notice struct {
	UserID      string
	Type        string
	Title       string
	Content     string
	RelatedType string
	RelatedID   string
	Priority    string
}

// NotificationService 通知落库接口
// Notify 为尽力而为：失败只记日志，不影响已提交的业务变更
type NotificationService interface {
	Notify(ctx context.Context, n Notice)
	NotifyAdmins(ctx context.Context, n Notice)
	List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error)
	MarkRead(ctx context.Context, id, userID string) error
}

type notificationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

func (s *notificationService) Notify(ctx context.Context, n Notice) {
	if n.UserID == "" {
		return
	}
	priority := n.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}
	record := &model.Notification{
		UserID:   n.UserID,
		Type:     n.Type,
		Title:    n.Title,
		Content:  n.Content,
		Priority: priority,
	}
	if n.RelatedType != "" {
		record.RelatedType = strPtr(n.RelatedType)
	}
	if n.RelatedID != "" {
		record.RelatedID = strPtr(n.RelatedID)
	}

	if err := s.repo.Notification.Create(ctx, record); err != nil {
		s.logger.Warn("写入通知失败",
			zap.String("user_id", n.UserID),
			zap.String("type", n.Type),
			zap.Error(err))
	}
}

func (s *notificationService) NotifyAdmins(ctx context.Context, n Notice) {
	admins, err := s.repo.User.ListByRole(ctx, jwt.RoleAdmin)
	if err != nil {
		s.logger.Warn("查询管理员失败，通知未发送", zap.String("type", n.Type), zap.Error(err))
		return
	}
	for _, admin := range admins {
		n.UserID = admin.UserID
		s.Notify(ctx, n)
	}
}

func (s *notificationService) List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	list, total, err := s.repo.Notification.ListByUser(ctx, userID, req.UnreadOnly, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.NotificationResponse, 0, len(list))
	for i := range list {
		n := &list[i]
		result = append(result, dto.NotificationResponse{
			ID:          n.NotificationID,
			Type:        n.Type,
			Title:       n.Title,
			Content:     n.Content,
			Priority:    n.Priority,
			IsRead:      n.IsRead,
			RelatedType: n.RelatedType,
			RelatedID:   n.RelatedID,
			CreatedAt:   formatTime(n.CreatedAt),
		})
	}
	return result, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID string) error {
	ok, err := s.repo.Notification.MarkRead(ctx, id, userID)
	if err != nil {
		s.logger.Error("标记通知已读失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}
