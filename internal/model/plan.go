package model

import "time"

// WorkPlan 工作计划表 — 对应 work_plans
// 由排程服务生成，覆盖连续日期区间，OwnerID 为负责工程师
type WorkPlan struct {
	PlanID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"plan_id"`
	Name      string    `gorm:"type:varchar(200);not null"                     json:"name"`
	StartDate time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate   time.Time `gorm:"type:date;not null"                             json:"end_date"`
	OwnerID   string    `gorm:"type:uuid;not null"                             json:"owner_id"`
	Status    string    `gorm:"type:varchar(20);not null;default:'active'"     json:"status"` // draft | active | archived
	BaseModel

	Owner *User `gorm:"foreignKey:OwnerID;references:UserID" json:"owner,omitempty"`
}

func (WorkPlan) TableName() string { return "work_plans" }

// Contains 判断日期是否落在计划区间内（含首尾）
func (p *WorkPlan) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(p.StartDate)) && !d.After(DateOnly(p.EndDate))
}
