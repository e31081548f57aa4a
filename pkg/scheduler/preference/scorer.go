// Package preference 计算教师对时间段的偏好得分
package preference

import (
	"github.com/paike/paike/pkg/model"
)

// 得分构成
const (
	dayScore         = 3.0
	periodScore      = 2.0
	consecutiveScale = 2.0
	weightBase       = 5.0
)

// Scorer 偏好打分器
// 得分越高表示该时间段越符合教师的偏好。
type Scorer struct {
	tables *model.Tables
}

// NewScorer 创建偏好打分器
func NewScorer(tables *model.Tables) *Scorer {
	return &Scorer{tables: tables}
}

// Score 计算教师在某时间段上课的偏好得分
// 当前课表 a 用于判断连堂加成，可传 nil 表示空课表。
func (s *Scorer) Score(f *model.Faculty, slot *model.Timeslot, a model.Assignment) float64 {
	score := 0.0

	if f.PrefersDay(slot.Day) {
		score += dayScore
	}
	if f.PrefersPeriod(slot.Period) {
		score += periodScore
	}

	// 连堂加成：同日相邻时间段已有该教师的课时生效
	// 偏好为负的教师因连堂被扣分。
	if f.ConsecutivePreference != 0 && s.adjacentBusy(f, slot, a) {
		score += float64(f.ConsecutivePreference) / weightBase * consecutiveScale
	}

	return score * f.ClampedWeight() / weightBase
}

// adjacentBusy 判断教师在同日相邻时间段是否已有课
func (s *Scorer) adjacentBusy(f *model.Faculty, slot *model.Timeslot, a model.Assignment) bool {
	if len(a) == 0 {
		return false
	}
	for _, adj := range s.tables.AdjacentTimeslots(slot) {
		if a.FacultyBusy(f.ID, adj.ID) {
			return true
		}
	}
	return false
}
