package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/logger"
	"github.com/paike/paike/pkg/model"
	"github.com/paike/paike/pkg/scheduler/constraint"
)

// CSPSolver 回溯搜索求解器
// hybrid 模式先以实验课预置安排为种子搜索，种子把解排除在外时
// 丢弃种子重试；csp 模式直接做无种子搜索。
type CSPSolver struct {
	constraintManager *constraint.Manager
	logger            *logger.SolverLogger
	observer          Observer
	hybrid            bool
}

// NewCSPSolver 创建纯回溯求解器
func NewCSPSolver(cm *constraint.Manager) *CSPSolver {
	return &CSPSolver{
		constraintManager: cm,
		logger:            logger.NewSolverLogger(),
	}
}

// NewHybridSolver 创建实验课预指派加回溯搜索的混合求解器
func NewHybridSolver(cm *constraint.Manager) *CSPSolver {
	s := NewCSPSolver(cm)
	s.hybrid = true
	return s
}

// Name 返回求解器名称
func (s *CSPSolver) Name() string {
	if s.hybrid {
		return "HybridSolver"
	}
	return "CSPSolver"
}

// SetObserver 设置搜索观察者
func (s *CSPSolver) SetObserver(o Observer) {
	s.observer = o
}

// Solve 建模并执行回溯搜索
// 建模错误（空值域、重复变量）作为错误返回；搜索耗尽返回
// Success=false 的结果；ctx 的取消与超时错误原样向上传递。
func (s *CSPSolver) Solve(ctx context.Context, schedCtx *constraint.Context) (*Result, error) {
	startTime := time.Now()
	tables := schedCtx.Tables

	strategy := model.StrategyCSP
	if s.hybrid {
		strategy = model.StrategyHybrid
	}
	s.logger.StartSolve(string(strategy), len(tables.Subjects), len(tables.Subjects)*len(tables.Timeslots))

	formulation := NewFormulation(tables)
	engine, err := formulation.BuildEngine()
	if err != nil {
		s.logger.SolveFailed(string(strategy), time.Since(startTime), err)
		return nil, err
	}
	if s.observer != nil {
		engine.SetObserver(s.observer)
	}

	var assignment model.Assignment
	var stats *Statistics

	if s.hybrid {
		seed := formulation.LabSeed(engine)
		assignment, stats, err = engine.Solve(ctx, seed)
		if err != nil && errors.Is(err, errors.CodeNoSolutionFound) {
			s.logger.StrategyFallback(string(model.StrategyHybrid), string(model.StrategyCSP))
			var retryStats *Statistics
			assignment, retryStats, err = engine.Solve(ctx, nil)
			if retryStats != nil && stats != nil {
				retryStats.Nodes += stats.Nodes
				retryStats.Backtracks += stats.Backtracks
				retryStats.Wipeouts += stats.Wipeouts
			}
			stats = retryStats
		}
	} else {
		assignment, stats, err = engine.Solve(ctx, nil)
	}

	duration := time.Since(startTime)
	if stats == nil {
		stats = &Statistics{}
	}
	stats.Strategy = string(strategy)

	result := &Result{
		Statistics: stats,
		Duration:   duration,
		Success:    false,
	}

	if err != nil {
		if errors.Is(err, errors.CodeNoSolutionFound) {
			stats.fillPlacement(tables, nil)
			result.Message = err.Error()
			s.logger.SolveFailed(string(strategy), duration, err)
			return result, nil
		}
		// ctx 取消/超时等错误原样传递，由调用方翻译
		s.logger.SolveFailed(string(strategy), duration, err)
		return nil, err
	}

	schedCtx.SetAssignment(assignment.Clone())
	result.Assignment = assignment
	result.ConstraintResult = s.constraintManager.Evaluate(schedCtx)
	result.Success = result.ConstraintResult.IsValid
	stats.fillPlacement(tables, assignment)

	if result.Success {
		result.Message = fmt.Sprintf("排课成功，共安排 %d 门课程", stats.PlacedSubjects)
		s.logger.SolveComplete(string(strategy), stats.PlacedSubjects, duration, stats.Nodes, stats.Backtracks)
	} else {
		result.Message = fmt.Sprintf("存在 %d 个硬约束违反", len(result.ConstraintResult.HardViolations))
		s.logger.SolveFailed(string(strategy), duration, fmt.Errorf("%s", result.Message))
	}

	return result, nil
}
