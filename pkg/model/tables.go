// Package model 定义排课引擎的核心数据模型
package model

import (
	"fmt"
)

// Tables 一次排课运行的只读问题实例
// 四张基础表在构造时建立 ID 索引，之后在整个求解周期内不再修改。
type Tables struct {
	Faculty    []*Faculty
	Subjects   []*Subject
	Classrooms []*Classroom
	Timeslots  []*Timeslot

	facultyByID   map[int]*Faculty
	subjectByID   map[int]*Subject
	classroomByID map[int]*Classroom
	timeslotByID  map[int]*Timeslot
}

// NewTables 构建问题实例
// 同类记录出现重复ID时返回错误；教师偏好在此统一补全缺省值。
func NewTables(faculty []*Faculty, subjects []*Subject, classrooms []*Classroom, timeslots []*Timeslot) (*Tables, error) {
	t := &Tables{
		Faculty:       faculty,
		Subjects:      subjects,
		Classrooms:    classrooms,
		Timeslots:     timeslots,
		facultyByID:   make(map[int]*Faculty, len(faculty)),
		subjectByID:   make(map[int]*Subject, len(subjects)),
		classroomByID: make(map[int]*Classroom, len(classrooms)),
		timeslotByID:  make(map[int]*Timeslot, len(timeslots)),
	}

	for _, f := range faculty {
		if _, ok := t.facultyByID[f.ID]; ok {
			return nil, fmt.Errorf("教师ID重复: %d", f.ID)
		}
		f.Normalize()
		t.facultyByID[f.ID] = f
	}
	for _, s := range subjects {
		if _, ok := t.subjectByID[s.ID]; ok {
			return nil, fmt.Errorf("课程ID重复: %d", s.ID)
		}
		t.subjectByID[s.ID] = s
	}
	for _, c := range classrooms {
		if _, ok := t.classroomByID[c.ID]; ok {
			return nil, fmt.Errorf("教室ID重复: %d", c.ID)
		}
		t.classroomByID[c.ID] = c
	}
	for _, ts := range timeslots {
		if _, ok := t.timeslotByID[ts.ID]; ok {
			return nil, fmt.Errorf("时间段ID重复: %d", ts.ID)
		}
		t.timeslotByID[ts.ID] = ts
	}

	return t, nil
}

// FacultyByID 按ID查找教师
func (t *Tables) FacultyByID(id int) *Faculty {
	return t.facultyByID[id]
}

// SubjectByID 按ID查找课程
func (t *Tables) SubjectByID(id int) *Subject {
	return t.subjectByID[id]
}

// ClassroomByID 按ID查找教室
func (t *Tables) ClassroomByID(id int) *Classroom {
	return t.classroomByID[id]
}

// TimeslotByID 按ID查找时间段
func (t *Tables) TimeslotByID(id int) *Timeslot {
	return t.timeslotByID[id]
}

// LabSubjects 返回全部实验课程（保持表序）
func (t *Tables) LabSubjects() []*Subject {
	var subjects []*Subject
	for _, s := range t.Subjects {
		if s.IsLab() {
			subjects = append(subjects, s)
		}
	}
	return subjects
}

// LabClassrooms 返回配备实验设备的教室（保持表序）
func (t *Tables) LabClassrooms() []*Classroom {
	var rooms []*Classroom
	for _, c := range t.Classrooms {
		if c.HasLab {
			rooms = append(rooms, c)
		}
	}
	return rooms
}

// EligibleClassrooms 返回对某课程合法的教室
// 实验课程只能使用实验教室，普通课程任何教室均可。
func (t *Tables) EligibleClassrooms(s *Subject) []*Classroom {
	if s.IsLab() {
		return t.LabClassrooms()
	}
	return t.Classrooms
}

// QualifiedFaculty 返回对某课程具备任教资格的教师（保持表序）
func (t *Tables) QualifiedFaculty(subjectID int) []*Faculty {
	var qualified []*Faculty
	for _, f := range t.Faculty {
		if f.IsQualified(subjectID) {
			qualified = append(qualified, f)
		}
	}
	return qualified
}

// AdjacentTimeslots 返回与给定时间段相邻的时间段
func (t *Tables) AdjacentTimeslots(slot *Timeslot) []*Timeslot {
	var adjacent []*Timeslot
	for _, other := range t.Timeslots {
		if slot.AdjacentTo(other) {
			adjacent = append(adjacent, other)
		}
	}
	return adjacent
}

// QualificationCount 返回某教师具备资格的课程数量
// 只统计当前问题实例中的课程。
func (t *Tables) QualificationCount(f *Faculty) int {
	count := 0
	for _, s := range t.Subjects {
		if f.IsQualified(s.ID) {
			count++
		}
	}
	return count
}

// ToMeeting 将一个变量/取值对展开为课表条目
// 引用了不存在的记录时返回错误，避免静默产出残缺课表。
func (t *Tables) ToMeeting(v Variable, val Value) (*Meeting, error) {
	subject := t.SubjectByID(v.SubjectID)
	if subject == nil {
		return nil, fmt.Errorf("课程 %d 不存在", v.SubjectID)
	}
	slot := t.TimeslotByID(v.TimeslotID)
	if slot == nil {
		return nil, fmt.Errorf("时间段 %d 不存在", v.TimeslotID)
	}
	faculty := t.FacultyByID(val.FacultyID)
	if faculty == nil {
		return nil, fmt.Errorf("教师 %d 不存在", val.FacultyID)
	}
	room := t.ClassroomByID(val.ClassroomID)
	if room == nil {
		return nil, fmt.Errorf("教室 %d 不存在", val.ClassroomID)
	}

	return &Meeting{
		SubjectID:     subject.ID,
		SubjectName:   subject.Name,
		HasLab:        subject.IsLab(),
		FacultyID:     faculty.ID,
		FacultyName:   faculty.Name,
		TimeslotID:    slot.ID,
		Day:           slot.Day,
		Time:          slot.Time,
		Period:        slot.Period,
		ClassroomID:   room.ID,
		ClassroomName: room.Name,
	}, nil
}
