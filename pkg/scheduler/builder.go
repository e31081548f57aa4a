// Package scheduler 编排排课求解的完整流程
// Builder 持有问题实例，按策略调度直接构造与回溯搜索两条求解路径，
// 并把最终赋值展开为课表条目。
package scheduler

import (
	"context"
	"sort"

	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/logger"
	"github.com/paike/paike/pkg/model"
	"github.com/paike/paike/pkg/scheduler/constraint"
	"github.com/paike/paike/pkg/scheduler/constraint/builtin"
	"github.com/paike/paike/pkg/scheduler/solver"
)

// Builder 排课编排器
type Builder struct {
	tables   *model.Tables
	manager  *constraint.Manager
	logger   *logger.SolverLogger
	observer solver.Observer
}

// Solution 一次成功求解的完整产出
type Solution struct {
	// Meetings 课表条目，按 (时间段ID, 课程ID) 排序
	Meetings []*model.Meeting `json:"meetings"`

	// Assignment 原始变量赋值
	Assignment model.Assignment `json:"-"`

	// Strategy 实际产出方案的策略
	Strategy model.Strategy `json:"strategy"`

	// Result 求解统计与约束评估
	Result *solver.Result `json:"result"`
}

// NewBuilder 创建排课编排器
// 未显式指定约束集合时注册缺省的内置约束。
func NewBuilder(tables *model.Tables) *Builder {
	manager := constraint.NewManager()
	builtin.RegisterDefaultConstraints(manager, nil)

	return &Builder{
		tables:  tables,
		manager: manager,
		logger:  logger.NewSolverLogger(),
	}
}

// SetManager 替换约束集合（用于预设或自定义配置）
func (b *Builder) SetManager(m *constraint.Manager) {
	if m != nil {
		b.manager = m
	}
}

// Manager 返回当前的约束集合
func (b *Builder) Manager() *constraint.Manager {
	return b.manager
}

// SetObserver 设置回溯搜索的观察者
func (b *Builder) SetObserver(o solver.Observer) {
	b.observer = o
}

// Tables 返回问题实例
func (b *Builder) Tables() *model.Tables {
	return b.tables
}

// Solve 按策略求解
// auto 先尝试直接构造，失败后转入混合回溯；direct/csp/hybrid 只走
// 单一路径。无解返回 CodeNoSolutionFound；建模期发现的空值域作为
// 其原因一并上报；ctx 的取消与超时错误原样向上传递。
func (b *Builder) Solve(ctx context.Context, strategy model.Strategy) (*Solution, error) {
	if strategy == "" {
		strategy = model.StrategyAuto
	}
	if !strategy.Valid() {
		return nil, errors.InvalidInput("strategy", string(strategy))
	}

	switch strategy {
	case model.StrategyDirect:
		return b.runSolver(ctx, solver.NewDirectSolver(b.manager), model.StrategyDirect)
	case model.StrategyCSP:
		return b.runSolver(ctx, b.searchSolver(false), model.StrategyCSP)
	case model.StrategyHybrid:
		return b.runSolver(ctx, b.searchSolver(true), model.StrategyHybrid)
	}

	// auto：直接构造兜不住时换混合回溯
	solution, err := b.runSolver(ctx, solver.NewDirectSolver(b.manager), model.StrategyDirect)
	if err == nil {
		return solution, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	if errors.GetCode(err) != errors.CodeNoSolutionFound {
		return nil, err
	}

	b.logger.StrategyFallback(string(model.StrategyDirect), string(model.StrategyHybrid))
	return b.runSolver(ctx, b.searchSolver(true), model.StrategyHybrid)
}

// searchSolver 构造回溯求解器并挂接观察者
func (b *Builder) searchSolver(hybrid bool) solver.Solver {
	var s *solver.CSPSolver
	if hybrid {
		s = solver.NewHybridSolver(b.manager)
	} else {
		s = solver.NewCSPSolver(b.manager)
	}
	if b.observer != nil {
		s.SetObserver(b.observer)
	}
	return s
}

// runSolver 在独立上下文中执行一次求解并转换结果
func (b *Builder) runSolver(ctx context.Context, s solver.Solver, strategy model.Strategy) (*Solution, error) {
	schedCtx := constraint.NewContext(b.tables)

	result, err := s.Solve(ctx, schedCtx)
	if err != nil {
		if errors.GetCode(err) == errors.CodeInvalidDomain {
			// 空值域必须连同原因上报，不允许看起来像普通无解
			return nil, errors.NoSolutionFound(err.Error()).WithCause(err)
		}
		return nil, err
	}

	if !result.Success {
		nsErr := errors.NoSolutionFound(result.Message).
			WithField("strategy", string(strategy))
		if result.Statistics != nil {
			nsErr = nsErr.
				WithField("nodes", result.Statistics.Nodes).
				WithField("backtracks", result.Statistics.Backtracks)
		}
		return nil, nsErr
	}

	meetings, err := MeetingsFromAssignment(b.tables, result.Assignment)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "课表转换失败")
	}

	return &Solution{
		Meetings:   meetings,
		Assignment: result.Assignment,
		Strategy:   strategy,
		Result:     result,
	}, nil
}

// MeetingsFromAssignment 把非空置安排展开为课表条目
// 输出按 (时间段ID, 课程ID) 排序；引用不存在的记录时返回错误。
func MeetingsFromAssignment(tables *model.Tables, a model.Assignment) ([]*model.Meeting, error) {
	meetings := make([]*model.Meeting, 0, len(a))
	for v, val := range a {
		if val.IsFree() {
			continue
		}
		m, err := tables.ToMeeting(v, val)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}

	sort.Slice(meetings, func(i, j int) bool {
		if meetings[i].TimeslotID != meetings[j].TimeslotID {
			return meetings[i].TimeslotID < meetings[j].TimeslotID
		}
		return meetings[i].SubjectID < meetings[j].SubjectID
	})
	return meetings, nil
}
