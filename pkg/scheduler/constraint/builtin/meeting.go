// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/paike/paike/pkg/model"
	"github.com/paike/paike/pkg/scheduler/constraint"
)

// SingleMeetingConstraint 每周单次排课约束
// 每门课程每周在课表中至多出现一次。
type SingleMeetingConstraint struct {
	*BaseConstraint
}

// NewSingleMeetingConstraint 创建每周单次排课约束
func NewSingleMeetingConstraint(weight int) *SingleMeetingConstraint {
	return &SingleMeetingConstraint{
		BaseConstraint: NewBaseConstraint(
			"每周单次排课",
			constraint.TypeSingleMeeting,
			constraint.CategoryHard,
			weight,
		),
	}
}

// Evaluate 评估整个课表
func (c *SingleMeetingConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	count := make(map[int]int)
	for v, val := range ctx.Assignment {
		if val.IsFree() {
			continue
		}
		count[v.SubjectID]++
	}

	for subjectID, n := range count {
		if n > 1 {
			isValid = false
			penalty := c.Weight() * (n - 1)
			totalPenalty += penalty

			name := fmt.Sprintf("#%d", subjectID)
			if s := ctx.Tables.SubjectByID(subjectID); s != nil {
				name = s.Name
			}
			violations = append(violations, c.CreateViolation(
				subjectID, 0,
				fmt.Sprintf("课程 %s 每周被安排了 %d 次", name, n),
				penalty,
			))
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选安排
func (c *SingleMeetingConstraint) EvaluateAssignment(ctx *constraint.Context, v model.Variable, val model.Value) (bool, int) {
	if val.IsFree() {
		return true, 0
	}
	if ctx.SubjectMeetings(v.SubjectID) >= 1 {
		return false, c.Weight()
	}
	return true, 0
}
