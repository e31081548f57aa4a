// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/paike/paike/pkg/model"
	"github.com/paike/paike/pkg/scheduler/constraint"
)

// WorkloadConstraint 教师周学时上限约束
// 同一门课程无论占几个时间段，学时只计一次。
type WorkloadConstraint struct {
	*BaseConstraint
}

// NewWorkloadConstraint 创建教师周学时上限约束
func NewWorkloadConstraint(weight int) *WorkloadConstraint {
	return &WorkloadConstraint{
		BaseConstraint: NewBaseConstraint(
			"教师周学时上限",
			constraint.TypeWorkload,
			constraint.CategoryHard,
			weight,
		),
	}
}

// Evaluate 评估整个课表
func (c *WorkloadConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, f := range ctx.Tables.Faculty {
		hours := ctx.FacultyHours(f.ID)
		if hours > f.MaxHours {
			isValid = false
			penalty := c.Weight() * (hours - f.MaxHours)
			totalPenalty += penalty

			violations = append(violations, constraint.ViolationDetail{
				ConstraintType: c.Type(),
				ConstraintName: c.Name(),
				FacultyID:      f.ID,
				Message:        fmt.Sprintf("教师 %s 周学时 %d 超过上限 %d", f.Name, hours, f.MaxHours),
				Severity:       "error",
				Penalty:        penalty,
			})
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选安排
func (c *WorkloadConstraint) EvaluateAssignment(ctx *constraint.Context, v model.Variable, val model.Value) (bool, int) {
	if val.IsFree() {
		return true, 0
	}

	f := ctx.Tables.FacultyByID(val.FacultyID)
	s := ctx.Tables.SubjectByID(v.SubjectID)
	if f == nil || s == nil {
		return false, c.Weight()
	}

	// 教师已承担该课程时不再追加学时
	added := 0
	if !ctx.FacultyTeaches(val.FacultyID, v.SubjectID) {
		added = s.Hours
	}

	totalHours := ctx.FacultyHours(val.FacultyID) + added
	if totalHours > f.MaxHours {
		penalty := c.Weight() * (totalHours - f.MaxHours)
		return false, penalty
	}

	return true, 0
}
