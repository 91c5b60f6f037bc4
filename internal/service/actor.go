package service

import (
	"math"
	"time"

	"berthops/internal/model"
	"berthops/pkg/jwt"
)

// Actor 调用方身份，由身份服务签发的 Token 提供
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == jwt.RoleAdmin }

// IsEngineer 工程师与质检工程师均具备审核权限
func (a Actor) IsEngineer() bool {
	return a.Role == jwt.RoleEngineer || a.Role == jwt.RoleQualityEngineer
}

// CanReview 管理员或工程师
func (a Actor) CanReview() bool { return a.IsAdmin() || a.IsEngineer() }

// ── 时间与格式工具 ──

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

// parseDate 解析 YYYY-MM-DD，失败返回校验错误
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func formatDate(t time.Time) string { return t.Format(dateLayout) }

func formatTime(t time.Time) string { return t.Format(timeLayout) }

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// round2 保留两位小数
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// round1 保留一位小数
func round1(v float64) float64 { return math.Round(v*10) / 10 }

func strPtr(s string) *string { return &s }

// requireShift 校验班次取值
func requireShift(shift string) error {
	if !model.IsValidShift(shift) {
		return ErrInvalidShift
	}
	return nil
}
