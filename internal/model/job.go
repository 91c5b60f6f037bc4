package model

import (
	"time"

	"gorm.io/datatypes"
)

// Job 作业表 — 对应 jobs
// 排程服务写入；本服务仅在结转时克隆出新作业
type Job struct {
	JobID            string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"job_id"`
	PlanID           string         `gorm:"type:uuid;not null"                             json:"plan_id"`
	ScheduledDate    time.Time      `gorm:"type:date;not null"                             json:"scheduled_date"`
	Shift            string         `gorm:"type:varchar(10);not null;default:'day'"        json:"shift"`
	EquipmentID      *string        `gorm:"type:uuid"                                      json:"equipment_id,omitempty"`
	Berth            string         `gorm:"type:varchar(50);not null;default:''"           json:"berth"`
	Priority         string         `gorm:"type:varchar(20);not null;default:'normal'"     json:"priority"` // low | normal | high | critical
	EstimatedHours   float64        `gorm:"type:numeric(6,2);not null;default:0"           json:"estimated_hours"`
	Description      string         `gorm:"type:text;not null;default:''"                  json:"description"`
	Notes            string         `gorm:"type:text;not null;default:''"                  json:"notes"`
	LinkedRefs       datatypes.JSON `gorm:"type:jsonb"                                     json:"linked_refs,omitempty"` // 关联的检查单/物料等引用
	CarriedFromJobID *string        `gorm:"type:uuid"                                      json:"carried_from_job_id,omitempty"`
	BaseModel

	Plan        *WorkPlan       `gorm:"foreignKey:PlanID;references:PlanID" json:"plan,omitempty"`
	Assignments []JobAssignment `gorm:"foreignKey:JobID"                    json:"assignments,omitempty"`
}

func (Job) TableName() string { return "jobs" }

// WorkerIDs 返回作业分配的工人 ID 列表
func (j *Job) WorkerIDs() []string {
	ids := make([]string, 0, len(j.Assignments))
	for _, a := range j.Assignments {
		ids = append(ids, a.WorkerID)
	}
	return ids
}

// HasWorker 判断工人是否被分配到该作业
func (j *Job) HasWorker(workerID string) bool {
	for _, a := range j.Assignments {
		if a.WorkerID == workerID {
			return true
		}
	}
	return false
}

// JobAssignment 作业人员分配表 — 对应 job_assignments
type JobAssignment struct {
	AssignmentID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	JobID        string    `gorm:"type:uuid;not null"                             json:"job_id"`
	WorkerID     string    `gorm:"type:uuid;not null"                             json:"worker_id"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	Worker *User `gorm:"foreignKey:WorkerID;references:UserID" json:"worker,omitempty"`
}

func (JobAssignment) TableName() string { return "job_assignments" }
