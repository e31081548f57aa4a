// Package model 定义排课引擎的核心数据模型
package model

import (
	"fmt"
	"sort"
)

// Variable CSP 变量：一个候选的 (课程, 时间段) 授课安排
type Variable struct {
	SubjectID  int `json:"subject_id"`
	TimeslotID int `json:"timeslot_id"`
}

// String 返回变量的可读形式
func (v Variable) String() string {
	return fmt.Sprintf("(subject=%d, timeslot=%d)", v.SubjectID, v.TimeslotID)
}

// Value CSP 取值：承担该安排的 (教师, 教室) 组合
// 零值是保留的"空置"标记，表示该时间段不开这门课。
type Value struct {
	FacultyID   int `json:"faculty_id"`
	ClassroomID int `json:"classroom_id"`
}

// FreeSlot 空置取值
var FreeSlot = Value{}

// IsFree 检查取值是否为空置标记
func (v Value) IsFree() bool {
	return v.FacultyID == 0 && v.ClassroomID == 0
}

// String 返回取值的可读形式
func (v Value) String() string {
	if v.IsFree() {
		return "(free)"
	}
	return fmt.Sprintf("(faculty=%d, classroom=%d)", v.FacultyID, v.ClassroomID)
}

// Assignment 变量到取值的指派，是搜索过程中唯一可变的结构
type Assignment map[Variable]Value

// Clone 深拷贝指派
func (a Assignment) Clone() Assignment {
	c := make(Assignment, len(a))
	for v, val := range a {
		c[v] = val
	}
	return c
}

// FacultyBusy 检查教师在某时间段是否已有课
func (a Assignment) FacultyBusy(facultyID, timeslotID int) bool {
	for v, val := range a {
		if val.IsFree() {
			continue
		}
		if val.FacultyID == facultyID && v.TimeslotID == timeslotID {
			return true
		}
	}
	return false
}

// ClassroomBusy 检查教室在某时间段是否已被占用
func (a Assignment) ClassroomBusy(classroomID, timeslotID int) bool {
	for v, val := range a {
		if val.IsFree() {
			continue
		}
		if val.ClassroomID == classroomID && v.TimeslotID == timeslotID {
			return true
		}
	}
	return false
}

// SubjectPlaced 检查课程是否已有实际安排
func (a Assignment) SubjectPlaced(subjectID int) bool {
	for v, val := range a {
		if !val.IsFree() && v.SubjectID == subjectID {
			return true
		}
	}
	return false
}

// SubjectsOf 返回某教师承担的课程ID（去重后升序）
func (a Assignment) SubjectsOf(facultyID int) []int {
	seen := make(map[int]bool)
	for v, val := range a {
		if !val.IsFree() && val.FacultyID == facultyID {
			seen[v.SubjectID] = true
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Placements 返回全部实际安排的变量，按 (时间段, 课程) 升序
func (a Assignment) Placements() []Variable {
	vars := make([]Variable, 0, len(a))
	for v, val := range a {
		if !val.IsFree() {
			vars = append(vars, v)
		}
	}
	sort.Slice(vars, func(i, j int) bool {
		if vars[i].TimeslotID != vars[j].TimeslotID {
			return vars[i].TimeslotID < vars[j].TimeslotID
		}
		return vars[i].SubjectID < vars[j].SubjectID
	})
	return vars
}
