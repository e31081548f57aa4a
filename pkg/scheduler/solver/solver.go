// Package solver 提供排课求解器
package solver

import (
	"context"
	"time"

	"github.com/paike/paike/pkg/model"
	"github.com/paike/paike/pkg/scheduler/constraint"
)

// Solver 求解器接口
type Solver interface {
	// Solve 生成排课方案
	Solve(ctx context.Context, schedCtx *constraint.Context) (*Result, error)

	// Name 返回求解器名称
	Name() string
}

// Result 求解结果
type Result struct {
	Assignment       model.Assignment   `json:"-"`
	Statistics       *Statistics        `json:"statistics"`
	ConstraintResult *constraint.Result `json:"constraint_result,omitempty"`
	Duration         time.Duration      `json:"duration"`
	Success          bool               `json:"success"`
	Message          string             `json:"message,omitempty"`
}

// Statistics 求解统计
type Statistics struct {
	Strategy       string  `json:"strategy"`
	TotalVariables int     `json:"total_variables"`
	TotalSubjects  int     `json:"total_subjects"`
	PlacedSubjects int     `json:"placed_subjects"`
	FillRate       float64 `json:"fill_rate"`
	Nodes          int64   `json:"nodes"`
	Backtracks     int64   `json:"backtracks"`
	Wipeouts       int64   `json:"wipeouts"`
	Seeded         int     `json:"seeded"`
}

// fillPlacement 根据课表填充覆盖统计
func (s *Statistics) fillPlacement(tables *model.Tables, a model.Assignment) {
	placed := make(map[int]bool)
	for v, val := range a {
		if val.IsFree() {
			continue
		}
		placed[v.SubjectID] = true
	}

	s.TotalSubjects = len(tables.Subjects)
	s.PlacedSubjects = len(placed)
	if s.TotalSubjects > 0 {
		s.FillRate = float64(s.PlacedSubjects) / float64(s.TotalSubjects) * 100
	}
}
