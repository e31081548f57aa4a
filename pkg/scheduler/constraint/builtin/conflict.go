// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/paike/paike/pkg/model"
	"github.com/paike/paike/pkg/scheduler/constraint"
)

// FacultyConflictConstraint 教师时间冲突约束
// 任何教师在同一时间段至多承担一门课程。
type FacultyConflictConstraint struct {
	*BaseConstraint
}

// NewFacultyConflictConstraint 创建教师时间冲突约束
func NewFacultyConflictConstraint(weight int) *FacultyConflictConstraint {
	return &FacultyConflictConstraint{
		BaseConstraint: NewBaseConstraint(
			"教师时间冲突",
			constraint.TypeFacultyConflict,
			constraint.CategoryHard,
			weight,
		),
	}
}

// Evaluate 评估整个课表
func (c *FacultyConflictConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	// 教师ID+时间段ID → 占用次数
	count := make(map[[2]int]int)
	for v, val := range ctx.Assignment {
		if val.IsFree() {
			continue
		}
		count[[2]int{val.FacultyID, v.TimeslotID}]++
	}

	for key, n := range count {
		if n > 1 {
			isValid = false
			penalty := c.Weight() * (n - 1)
			totalPenalty += penalty

			name := fmt.Sprintf("#%d", key[0])
			if f := ctx.Tables.FacultyByID(key[0]); f != nil {
				name = f.Name
			}
			violations = append(violations, constraint.ViolationDetail{
				ConstraintType: c.Type(),
				ConstraintName: c.Name(),
				FacultyID:      key[0],
				TimeslotID:     key[1],
				Message:        fmt.Sprintf("教师 %s 在时间段 %d 被安排了 %d 门课程", name, key[1], n),
				Severity:       "error",
				Penalty:        penalty,
			})
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选安排
func (c *FacultyConflictConstraint) EvaluateAssignment(ctx *constraint.Context, v model.Variable, val model.Value) (bool, int) {
	if val.IsFree() {
		return true, 0
	}
	if ctx.FacultyBusy(val.FacultyID, v.TimeslotID) {
		return false, c.Weight()
	}
	return true, 0
}

// ClassroomConflictConstraint 教室占用冲突约束
// 任何教室在同一时间段至多安排一门课程。
type ClassroomConflictConstraint struct {
	*BaseConstraint
}

// NewClassroomConflictConstraint 创建教室占用冲突约束
func NewClassroomConflictConstraint(weight int) *ClassroomConflictConstraint {
	return &ClassroomConflictConstraint{
		BaseConstraint: NewBaseConstraint(
			"教室占用冲突",
			constraint.TypeClassroomConflict,
			constraint.CategoryHard,
			weight,
		),
	}
}

// Evaluate 评估整个课表
func (c *ClassroomConflictConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	count := make(map[[2]int]int)
	for v, val := range ctx.Assignment {
		if val.IsFree() {
			continue
		}
		count[[2]int{val.ClassroomID, v.TimeslotID}]++
	}

	for key, n := range count {
		if n > 1 {
			isValid = false
			penalty := c.Weight() * (n - 1)
			totalPenalty += penalty

			name := fmt.Sprintf("#%d", key[0])
			if room := ctx.Tables.ClassroomByID(key[0]); room != nil {
				name = room.Name
			}
			violations = append(violations, constraint.ViolationDetail{
				ConstraintType: c.Type(),
				ConstraintName: c.Name(),
				TimeslotID:     key[1],
				Message:        fmt.Sprintf("教室 %s 在时间段 %d 被安排了 %d 门课程", name, key[1], n),
				Severity:       "error",
				Penalty:        penalty,
			})
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选安排
func (c *ClassroomConflictConstraint) EvaluateAssignment(ctx *constraint.Context, v model.Variable, val model.Value) (bool, int) {
	if val.IsFree() {
		return true, 0
	}
	if ctx.ClassroomBusy(val.ClassroomID, v.TimeslotID) {
		return false, c.Weight()
	}
	return true, 0
}
