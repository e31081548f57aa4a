// Package model 定义排课引擎的核心数据模型
package model

// Meeting 课表条目：一次已确定的授课安排
// 字段由一个变量/取值对加上四张基础表的查询展开而来。
type Meeting struct {
	SubjectID   int    `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	HasLab      bool   `json:"has_lab"`

	FacultyID   int    `json:"faculty_id"`
	FacultyName string `json:"faculty_name"`

	TimeslotID int    `json:"timeslot_id"`
	Day        string `json:"day"`
	Time       string `json:"time"`
	Period     string `json:"period"`

	ClassroomID   int    `json:"classroom_id"`
	ClassroomName string `json:"classroom_name"`
}
