package handler

import "berthops/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Job          *JobHandler
	Pause        *PauseHandler
	Review       *ReviewHandler
	Rating       *RatingHandler
	CarryOver    *CarryOverHandler
	Batch        *BatchHandler
	Export       *ExportHandler
	Notification *NotificationHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Job:          NewJobHandler(svc.Tracking),
		Pause:        NewPauseHandler(svc.Pause),
		Review:       NewReviewHandler(svc.Review, svc.Rating),
		Rating:       NewRatingHandler(svc.Rating),
		CarryOver:    NewCarryOverHandler(svc.CarryOver),
		Batch:        NewBatchHandler(svc.AutoFlag, svc.Performance),
		Export:       NewExportHandler(svc.Export),
		Notification: NewNotificationHandler(svc.Notification),
	}
}
