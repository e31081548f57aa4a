// Package constraint 定义排课约束接口和管理器
package constraint

import (
	"github.com/paike/paike/pkg/model"
)

// 本文件提供对整张课表求值的纯函数形式约束。
// 求解器对每个搜索节点调用这些函数，空置条目一律不参与判定。

// FacultyConflictOK 检查没有教师在同一时间段上两门课
func FacultyConflictOK(a model.Assignment) bool {
	seen := make(map[[2]int]bool, len(a))
	for v, val := range a {
		if val.IsFree() {
			continue
		}
		key := [2]int{val.FacultyID, v.TimeslotID}
		if seen[key] {
			return false
		}
		seen[key] = true
	}
	return true
}

// ClassroomConflictOK 检查没有教室在同一时间段被安排两门课
func ClassroomConflictOK(a model.Assignment) bool {
	seen := make(map[[2]int]bool, len(a))
	for v, val := range a {
		if val.IsFree() {
			continue
		}
		key := [2]int{val.ClassroomID, v.TimeslotID}
		if seen[key] {
			return false
		}
		seen[key] = true
	}
	return true
}

// WorkloadOK 检查每位教师承担的周学时不超过其上限
// 同一门课程的学时只计一次，与安排的时间段数无关。
func WorkloadOK(t *model.Tables, a model.Assignment) bool {
	taught := make(map[int]map[int]bool)
	for v, val := range a {
		if val.IsFree() {
			continue
		}
		if taught[val.FacultyID] == nil {
			taught[val.FacultyID] = make(map[int]bool)
		}
		taught[val.FacultyID][v.SubjectID] = true
	}

	for facultyID, subjects := range taught {
		f := t.FacultyByID(facultyID)
		if f == nil {
			return false
		}
		hours := 0
		for subjectID := range subjects {
			s := t.SubjectByID(subjectID)
			if s == nil {
				return false
			}
			hours += s.Hours
		}
		if hours > f.MaxHours {
			return false
		}
	}
	return true
}

// LabRoomOK 检查含实验课时的课程都安排在实验室
func LabRoomOK(t *model.Tables, a model.Assignment) bool {
	for v, val := range a {
		if val.IsFree() {
			continue
		}
		s := t.SubjectByID(v.SubjectID)
		if s == nil || !s.IsLab() {
			continue
		}
		room := t.ClassroomByID(val.ClassroomID)
		if room == nil || !room.HasLab {
			return false
		}
	}
	return true
}

// QualificationOK 检查每门课程都由具备授课资格的教师承担
func QualificationOK(t *model.Tables, a model.Assignment) bool {
	for v, val := range a {
		if val.IsFree() {
			continue
		}
		f := t.FacultyByID(val.FacultyID)
		if f == nil || !f.IsQualified(v.SubjectID) {
			return false
		}
	}
	return true
}

// SingleMeetingOK 检查每门课程每周至多安排一次
func SingleMeetingOK(a model.Assignment) bool {
	count := make(map[int]int)
	for v, val := range a {
		if val.IsFree() {
			continue
		}
		count[v.SubjectID]++
		if count[v.SubjectID] > 1 {
			return false
		}
	}
	return true
}

// CoverageOK 检查完整课表覆盖了所有课程
// 课表尚不完整（未覆盖全部变量）时恒为真，完整时要求每门课程至少安排一次。
func CoverageOK(t *model.Tables, a model.Assignment, totalVariables int) bool {
	if len(a) < totalVariables {
		return true
	}
	placed := make(map[int]bool)
	for v, val := range a {
		if val.IsFree() {
			continue
		}
		placed[v.SubjectID] = true
	}
	for _, s := range t.Subjects {
		if !placed[s.ID] {
			return false
		}
	}
	return true
}
