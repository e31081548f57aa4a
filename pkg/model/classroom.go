// Package model 定义排课引擎的核心数据模型
package model

// Classroom 教室
type Classroom struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	// HasLab 是否配备实验设备
	HasLab bool `json:"has_lab" db:"has_lab"`
}
