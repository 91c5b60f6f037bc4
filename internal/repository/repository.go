package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User         UserRepository
	Plan         PlanRepository
	Job          JobRepository
	Tracking     TrackingRepository
	JobLog       JobLogRepository
	PauseRequest PauseRequestRepository
	Rating       RatingRepository
	Score        ScoreRepository
	PointDelta   PointDeltaRepository
	Review       DailyReviewRepository
	CarryOver    CarryOverRepository
	Performance  PerformanceRepository
	Notification NotificationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		User:         NewUserRepo(db),
		Plan:         NewPlanRepo(db),
		Job:          NewJobRepo(db),
		Tracking:     NewTrackingRepo(db),
		JobLog:       NewJobLogRepo(db),
		PauseRequest: NewPauseRequestRepo(db),
		Rating:       NewRatingRepo(db),
		Score:        NewScoreRepo(db),
		PointDelta:   NewPointDeltaRepo(db),
		Review:       NewDailyReviewRepo(db),
		CarryOver:    NewCarryOverRepo(db),
		Performance:  NewPerformanceRepo(db),
		Notification: NewNotificationRepo(db),
	}
}

// BeginTx 开启事务
// 聚合未绑定数据库连接（单元测试注入内存实现）时返回 nil 事务
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务连接的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// Transaction 在同一事务内执行 fn：状态变更、日志追加和积分增量要么全部生效，要么全部回滚
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) (err error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(p)
		}
	}()

	if err := fn(r.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		return tx.Commit().Error
	}
	return nil
}
