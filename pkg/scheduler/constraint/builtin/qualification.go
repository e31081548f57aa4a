// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/paike/paike/pkg/model"
	"github.com/paike/paike/pkg/scheduler/constraint"
)

// QualificationConstraint 授课资格约束
// 每门课程只能由具备该课程授课资格的教师承担。
type QualificationConstraint struct {
	*BaseConstraint
}

// NewQualificationConstraint 创建授课资格约束
func NewQualificationConstraint(weight int) *QualificationConstraint {
	return &QualificationConstraint{
		BaseConstraint: NewBaseConstraint(
			"授课资格",
			constraint.TypeQualification,
			constraint.CategoryHard,
			weight,
		),
	}
}

// Evaluate 评估整个课表
func (c *QualificationConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for v, val := range ctx.Assignment {
		if val.IsFree() {
			continue
		}
		f := ctx.Tables.FacultyByID(val.FacultyID)
		if f != nil && f.IsQualified(v.SubjectID) {
			continue
		}

		isValid = false
		totalPenalty += c.Weight()

		facultyName := fmt.Sprintf("#%d", val.FacultyID)
		if f != nil {
			facultyName = f.Name
		}
		subjectName := fmt.Sprintf("#%d", v.SubjectID)
		if s := ctx.Tables.SubjectByID(v.SubjectID); s != nil {
			subjectName = s.Name
		}
		violations = append(violations, c.CreateViolation(
			v.SubjectID, v.TimeslotID,
			fmt.Sprintf("教师 %s 不具备课程 %s 的授课资格", facultyName, subjectName),
			c.Weight(),
		))
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个候选安排
func (c *QualificationConstraint) EvaluateAssignment(ctx *constraint.Context, v model.Variable, val model.Value) (bool, int) {
	if val.IsFree() {
		return true, 0
	}
	f := ctx.Tables.FacultyByID(val.FacultyID)
	if f == nil || !f.IsQualified(v.SubjectID) {
		return false, c.Weight()
	}
	return true, 0
}
