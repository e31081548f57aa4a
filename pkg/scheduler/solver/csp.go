// Package solver 提供排课求解器
package solver

import (
	"context"

	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/model"
)

// Predicate 整表判定函数
// 对当前（可能不完整的）课表返回是否满足约束。
type Predicate func(a model.Assignment) bool

// Engine 回溯搜索引擎
// 变量选择采用最小剩余值启发（按注册时的值域大小），同值域大小时
// 优先选择与更多未赋值变量共享课程或时间段的变量；取值按注册顺序尝试。
//
// 统计口径：Nodes 为尝试过的候选赋值数，Backtracks 为取值耗尽后的
// 回退次数，Wipeouts 为前瞻检查触发的剪枝次数。
type Engine struct {
	variables  []model.Variable
	domains    map[model.Variable][]model.Value
	predicates []Predicate
	observer   Observer
}

// NewEngine 创建回溯搜索引擎
func NewEngine() *Engine {
	return &Engine{
		domains:  make(map[model.Variable][]model.Value),
		observer: NopObserver{},
	}
}

// AddVariable 注册变量及其值域
// 变量重复注册或值域为空时返回错误，不允许静默丢弃。
func (e *Engine) AddVariable(v model.Variable, domain []model.Value) error {
	if _, ok := e.domains[v]; ok {
		return errors.DuplicateVariable(v.String())
	}
	if len(domain) == 0 {
		return errors.InvalidDomain(v.String(), "没有任何候选取值")
	}

	values := make([]model.Value, len(domain))
	copy(values, domain)

	e.variables = append(e.variables, v)
	e.domains[v] = values
	return nil
}

// AddConstraint 注册约束判定函数
func (e *Engine) AddConstraint(p Predicate) {
	e.predicates = append(e.predicates, p)
}

// SetObserver 设置搜索观察者
func (e *Engine) SetObserver(o Observer) {
	if o == nil {
		o = NopObserver{}
	}
	e.observer = o
}

// VariableCount 返回已注册的变量数
func (e *Engine) VariableCount() int {
	return len(e.variables)
}

// Domain 返回变量的值域副本
func (e *Engine) Domain(v model.Variable) []model.Value {
	domain, ok := e.domains[v]
	if !ok {
		return nil
	}
	values := make([]model.Value, len(domain))
	copy(values, domain)
	return values
}

// Solve 执行回溯搜索
// initial 中的预置安排会被原样保留；预置违反约束或引用未注册的
// 变量时直接报错。搜索在 ctx 取消或超时后尽快停止并返回 ctx 的错误。
func (e *Engine) Solve(ctx context.Context, initial model.Assignment) (model.Assignment, *Statistics, error) {
	stats := &Statistics{TotalVariables: len(e.variables)}

	assignment := make(model.Assignment, len(e.variables))
	for v, val := range initial {
		domain, ok := e.domains[v]
		if !ok {
			return nil, stats, errors.InvalidDomain(v.String(), "预置安排引用了未注册的变量")
		}
		if !containsValue(domain, val) {
			return nil, stats, errors.InvalidDomain(v.String(), "预置取值不在值域内")
		}
		assignment[v] = val
	}
	stats.Seeded = len(assignment)

	if !e.consistent(assignment) {
		return nil, stats, errors.NoSolutionFound("预置安排违反硬约束")
	}

	solved, err := e.backtrack(ctx, assignment, stats, len(assignment))
	if err != nil {
		return nil, stats, err
	}
	if !solved {
		return nil, stats, errors.NoSolutionFound("回溯搜索耗尽了所有组合")
	}
	return assignment, stats, nil
}

// backtrack 深度优先搜索主循环
func (e *Engine) backtrack(ctx context.Context, a model.Assignment, stats *Statistics, depth int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if len(a) == len(e.variables) {
		return true, nil
	}

	v := e.selectVariable(a)

	for _, val := range e.domains[v] {
		stats.Nodes++

		a[v] = val
		if !e.consistent(a) {
			delete(a, v)
			e.observer.OnConflict(v, val)
			continue
		}

		if wiped, ok := e.forwardCheck(a); !ok {
			delete(a, v)
			stats.Wipeouts++
			e.observer.OnWipeout(v, wiped)
			continue
		}

		e.observer.OnAssign(v, val, depth)

		solved, err := e.backtrack(ctx, a, stats, depth+1)
		if err != nil {
			return false, err
		}
		if solved {
			return true, nil
		}

		delete(a, v)
	}

	stats.Backtracks++
	e.observer.OnBacktrack(v, depth)
	return false, nil
}

// selectVariable 选择下一个待赋值变量
// 值域最小者优先；并列时取与更多未赋值变量共享课程或时间段者；
// 仍并列时保持注册顺序，保证搜索确定性。
func (e *Engine) selectVariable(a model.Assignment) model.Variable {
	var best model.Variable
	bestSize := -1
	bestDegree := -1

	for _, v := range e.variables {
		if _, ok := a[v]; ok {
			continue
		}
		size := len(e.domains[v])
		if bestSize == -1 || size < bestSize {
			best, bestSize, bestDegree = v, size, e.degree(v, a)
			continue
		}
		if size == bestSize {
			if d := e.degree(v, a); d > bestDegree {
				best, bestDegree = v, d
			}
		}
	}
	return best
}

// degree 统计与 v 共享课程或时间段的未赋值变量数
func (e *Engine) degree(v model.Variable, a model.Assignment) int {
	n := 0
	for _, u := range e.variables {
		if u == v {
			continue
		}
		if _, ok := a[u]; ok {
			continue
		}
		if u.SubjectID == v.SubjectID || u.TimeslotID == v.TimeslotID {
			n++
		}
	}
	return n
}

// forwardCheck 检查每个未赋值变量是否仍有可行取值
// 发现值域被清空的变量时返回该变量与 false。
func (e *Engine) forwardCheck(a model.Assignment) (model.Variable, bool) {
	for _, u := range e.variables {
		if _, ok := a[u]; ok {
			continue
		}

		viable := false
		for _, w := range e.domains[u] {
			a[u] = w
			if e.consistent(a) {
				viable = true
			}
			delete(a, u)
			if viable {
				break
			}
		}
		if !viable {
			return u, false
		}
	}
	return model.Variable{}, true
}

// consistent 检查课表是否满足全部约束
func (e *Engine) consistent(a model.Assignment) bool {
	for _, p := range e.predicates {
		if !p(a) {
			return false
		}
	}
	return true
}

// containsValue 检查值域是否包含某取值
func containsValue(domain []model.Value, val model.Value) bool {
	for _, v := range domain {
		if v == val {
			return true
		}
	}
	return false
}
