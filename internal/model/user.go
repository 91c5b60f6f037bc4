package model

// User 用户表 — 对应 users（身份服务同步，本服务只读）
type User struct {
	UserID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name     string `gorm:"type:varchar(100);not null"                     json:"name"`
	Role     string `gorm:"type:varchar(20);not null;default:'worker'"     json:"role"` // admin | engineer | quality_engineer | worker
	IsActive bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }
