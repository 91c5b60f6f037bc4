package service

import "berthops/config"

// RatingRules 评分规则：时效分曲线与各分项取值范围
type RatingRules struct {
	cfg config.RatingConfig
}

// NewRatingRules 由配置构建评分规则
func NewRatingRules(cfg config.RatingConfig) RatingRules {
	return RatingRules{cfg: cfg}
}

// TimeRating 由预估与实际工时计算时效分
// 提前完成按档位加分，超时按小时线性扣分，结果保留一位小数并限制在 [TimeMin, TimeMax]
// 缺少预估或实际工时时不产生时效分
func (r RatingRules) TimeRating(estimatedHours float64, actualHours *float64) *float64 {
	if estimatedHours <= 0 || actualHours == nil {
		return nil
	}
	actual := *actualHours
	ratio := actual / estimatedHours

	score := r.cfg.TimeBaseline
	switch {
	case ratio <= r.cfg.EarlyTier2Ratio:
		score += r.cfg.EarlyTier2Bonus
	case ratio <= r.cfg.EarlyTier1Ratio:
		score += r.cfg.EarlyTier1Bonus
	case actual > estimatedHours:
		score -= (actual - estimatedHours) * r.cfg.LatePenaltyPerHour
	}

	score = r.clampTime(round1(score))
	return &score
}

func (r RatingRules) clampTime(v float64) float64 {
	if v < r.cfg.TimeMin {
		return r.cfg.TimeMin
	}
	if v > r.cfg.TimeMax {
		return r.cfg.TimeMax
	}
	return v
}

// ValidateTimeRating 改判的时效分必须在量程内
func (r RatingRules) ValidateTimeRating(v float64) error {
	if v < r.cfg.TimeMin || v > r.cfg.TimeMax {
		return ErrTimeRatingOutOfRange
	}
	return nil
}

// ValidateQC 质检分在量程内；超出常规区间时必须附说明
func (r RatingRules) ValidateQC(qc *int, justification string) error {
	if qc == nil {
		return nil
	}
	if *qc < r.cfg.QCMin || *qc > r.cfg.QCMax {
		return ErrQCRatingOutOfRange
	}
	if (*qc < r.cfg.QCAcceptableLow || *qc > r.cfg.QCAcceptableHigh) && justification == "" {
		return ErrQCJustificationRequired
	}
	return nil
}

func (r RatingRules) ValidateCleaning(c *int) error {
	if c == nil {
		return nil
	}
	if *c < 0 || *c > r.cfg.CleaningMax {
		return ErrCleaningOutOfRange
	}
	return nil
}

func (r RatingRules) ValidateBonus(b int) error {
	if b < r.cfg.BonusMin || b > r.cfg.BonusMax {
		return ErrBonusOutOfRange
	}
	return nil
}
