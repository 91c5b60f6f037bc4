package service

import (
	"go.uber.org/zap"

	"berthops/config"
	"berthops/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Tracking     TrackingService
	Pause        PauseService
	Rating       RatingService
	Review       ReviewService
	CarryOver    CarryOverService
	AutoFlag     AutoFlagService
	Performance  PerformanceService
	Export       ExportService
	Notification NotificationService
}

// NewService 创建 Service 聚合
// locker 为自动标记与绩效汇总的单飞锁，Redis 不可用时传入 NewLocalLocker()
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	locker Locker,
	logger *zap.Logger,
) *Service {
	notifier := NewNotificationService(repo, logger)
	return &Service{
		Tracking:     NewTrackingService(repo, notifier, NewShiftClassifier(&cfg.Tracking), logger),
		Pause:        NewPauseService(repo, notifier, logger),
		Rating:       NewRatingService(repo, NewRatingRules(cfg.Rating), notifier, logger),
		Review:       NewReviewService(repo, logger),
		CarryOver:    NewCarryOverService(repo, notifier, logger),
		AutoFlag:     NewAutoFlagService(repo, notifier, locker, logger),
		Performance:  NewPerformanceService(repo, notifier, locker, logger),
		Export:       NewExportService(repo, logger),
		Notification: notifier,
	}
}
