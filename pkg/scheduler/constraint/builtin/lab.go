// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/paike/paike/pkg/model"
	"github.com/paike/paike/pkg/scheduler/constraint"
)

// LabRoomConstraint 实验室要求约束
// 含实验课时的课程必须安排在具备实验条件的教室。
type LabRoomConstraint struct {
	*BaseConstraint
}

// NewLabRoomConstraint 创建实验室要求约束
func NewLabRoomConstraint(weight int) *LabRoomConstraint {
	return &LabRoomConstraint{
		BaseConstraint: NewBaseConstraint(
			"实验室要求",
			constraint.TypeLabRoom,
			constraint.CategoryHard,
			weight,
		),
	}
}

// Evaluate 评估整个课表
func (c *LabRoomConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for v, val := range ctx.Assignment {
		if val.IsFree() {
			continue
		}
		s := ctx.Tables.SubjectByID(v.SubjectID)
		if s == nil || !s.IsLab() {
			continue
		}
		room := ctx.Tables.ClassroomByID(val.ClassroomID)
		if room == nil || !room.HasLab {
			isValid = false
			totalPenalty += c.Weight()

			roomName := fmt.Sprintf("#%d", val.ClassroomID)
			if room != nil {
				roomName = room.Name
			}
			violations = append(violations, c.CreateViolation(
				v.SubjectID, v.TimeslotID,
				fmt.Sprintf("实验课程 %s 被安排在无实验条件的教室 %s", s.Name, roomName),
				c.Weight(),
			))
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选安排
func (c *LabRoomConstraint) EvaluateAssignment(ctx *constraint.Context, v model.Variable, val model.Value) (bool, int) {
	if val.IsFree() {
		return true, 0
	}
	s := ctx.Tables.SubjectByID(v.SubjectID)
	if s == nil || !s.IsLab() {
		return true, 0
	}
	room := ctx.Tables.ClassroomByID(val.ClassroomID)
	if room == nil || !room.HasLab {
		return false, c.Weight()
	}
	return true, 0
}
