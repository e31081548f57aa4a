// Package model 定义排课引擎的核心数据模型
package model

// Subject 课程
type Subject struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	// Hours 每周理论课时
	Hours int `json:"hours" db:"hours"`

	// LabHours 每周实验课时，大于 0 即视为实验课程
	LabHours int `json:"lab_hours" db:"lab_hours"`
}

// IsLab 检查是否为实验课程
func (s *Subject) IsLab() bool {
	return s.LabHours > 0
}

// TotalHours 返回理论与实验课时之和
func (s *Subject) TotalHours() int {
	return s.Hours + s.LabHours
}
