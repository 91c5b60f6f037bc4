package service

import (
	"time"

	"berthops/config"
	"berthops/internal/model"
)

// ShiftClassifier 按动作发生时刻推导班次
// 夜班窗口可跨零点（例如 19 点至次日 7 点）
type ShiftClassifier struct {
	loc        *time.Location
	nightStart int
	nightEnd   int
}

// NewShiftClassifier 由配置构建班次推导器
func NewShiftClassifier(cfg *config.TrackingConfig) ShiftClassifier {
	return ShiftClassifier{
		loc:        cfg.Location(),
		nightStart: cfg.NightStartHour,
		nightEnd:   cfg.NightEndHour,
	}
}

// Classify 返回 day 或 night
func (c ShiftClassifier) Classify(t time.Time) string {
	loc := c.loc
	if loc == nil {
		loc = time.UTC
	}
	h := t.In(loc).Hour()

	var night bool
	if c.nightStart > c.nightEnd {
		night = h >= c.nightStart || h < c.nightEnd
	} else {
		night = h >= c.nightStart && h < c.nightEnd
	}
	if night {
		return model.ShiftNight
	}
	return model.ShiftDay
}
