package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"berthops/internal/model"
)

// PlanRepository 工作计划数据访问接口（只读）
type PlanRepository interface {
	GetByID(ctx context.Context, id string) (*model.WorkPlan, error)
	// FindCovering 查找日期区间包含 date 的计划，按开始日期升序取最近一份
	FindCovering(ctx context.Context, date time.Time) (*model.WorkPlan, error)
}

type planRepo struct {
	db *gorm.DB
}

func NewPlanRepo(db *gorm.DB) PlanRepository {
	return &planRepo{db: db}
}

func (r *planRepo) GetByID(ctx context.Context, id string) (*model.WorkPlan, error) {
	var plan model.WorkPlan
	err := r.db.WithContext(ctx).
		Where("plan_id = ?", id).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepo) FindCovering(ctx context.Context, date time.Time) (*model.WorkPlan, error) {
	var plan model.WorkPlan
	d := dateParam(date)
	err := r.db.WithContext(ctx).
		Where("start_date <= ? AND end_date >= ? AND status <> ?", d, d, "archived").
		Order("start_date ASC").
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// dateParam DATE 列统一按 YYYY-MM-DD 传参，避免时区换算
func dateParam(t time.Time) string {
	return t.Format("2006-01-02")
}
