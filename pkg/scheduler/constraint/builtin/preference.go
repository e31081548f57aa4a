// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/paike/paike/pkg/model"
	"github.com/paike/paike/pkg/scheduler/constraint"
)

// FacultyPreferenceConstraint 教师偏好约束（软约束）
// 未填写偏好的教师视为任何时间都可接受，不产生惩罚。
type FacultyPreferenceConstraint struct {
	*BaseConstraint
}

// NewFacultyPreferenceConstraint 创建教师偏好约束
func NewFacultyPreferenceConstraint(weight int) *FacultyPreferenceConstraint {
	return &FacultyPreferenceConstraint{
		BaseConstraint: NewBaseConstraint(
			"教师偏好",
			constraint.TypeFacultyPreference,
			constraint.CategorySoft,
			weight,
		),
	}
}

// Evaluate 评估整个课表
func (c *FacultyPreferenceConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for v, val := range ctx.Assignment {
		if val.IsFree() {
			continue
		}
		f := ctx.Tables.FacultyByID(val.FacultyID)
		slot := ctx.Tables.TimeslotByID(v.TimeslotID)
		if f == nil || slot == nil {
			continue
		}

		if !f.PrefersDay(slot.Day) {
			penalty := c.Weight() / 2
			totalPenalty += penalty
			violations = append(violations, constraint.ViolationDetail{
				ConstraintType: c.Type(),
				ConstraintName: c.Name(),
				SubjectID:      v.SubjectID,
				FacultyID:      f.ID,
				TimeslotID:     v.TimeslotID,
				Message:        fmt.Sprintf("教师 %s 不偏好在 %s 上课", f.Name, slot.Day),
				Severity:       "warning",
				Penalty:        penalty,
			})
		}

		if !f.PrefersPeriod(slot.Period) {
			penalty := c.Weight() / 2
			totalPenalty += penalty
			violations = append(violations, constraint.ViolationDetail{
				ConstraintType: c.Type(),
				ConstraintName: c.Name(),
				SubjectID:      v.SubjectID,
				FacultyID:      f.ID,
				TimeslotID:     v.TimeslotID,
				Message:        fmt.Sprintf("教师 %s 不偏好 %s 时段", f.Name, slot.Period),
				Severity:       "warning",
				Penalty:        penalty,
			})
		}
	}

	return true, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选安排
func (c *FacultyPreferenceConstraint) EvaluateAssignment(ctx *constraint.Context, v model.Variable, val model.Value) (bool, int) {
	if val.IsFree() {
		return true, 0
	}
	f := ctx.Tables.FacultyByID(val.FacultyID)
	slot := ctx.Tables.TimeslotByID(v.TimeslotID)
	if f == nil || slot == nil {
		return true, 0
	}

	penalty := 0
	if !f.PrefersDay(slot.Day) {
		penalty += c.Weight() / 2
	}
	if !f.PrefersPeriod(slot.Period) {
		penalty += c.Weight() / 2
	}

	// 完全符合偏好时给予奖励
	if penalty == 0 {
		penalty = -c.Weight() / 4
	}

	return true, penalty
}
