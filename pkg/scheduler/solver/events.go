// Package solver 提供排课求解器
package solver

import (
	"github.com/rs/zerolog"

	"github.com/paike/paike/pkg/logger"
	"github.com/paike/paike/pkg/model"
)

// Observer 搜索过程观察者
// 引擎在搜索的关键节点上回调，用于日志、指标等旁路用途。
type Observer interface {
	// OnAssign 变量成功赋值后回调
	OnAssign(v model.Variable, val model.Value, depth int)

	// OnConflict 候选取值违反约束时回调
	OnConflict(v model.Variable, val model.Value)

	// OnWipeout 前瞻检查发现某变量值域被清空时回调
	OnWipeout(v model.Variable, wiped model.Variable)

	// OnBacktrack 变量取值耗尽、搜索回退时回调
	OnBacktrack(v model.Variable, depth int)
}

// NopObserver 空观察者
type NopObserver struct{}

func (NopObserver) OnAssign(v model.Variable, val model.Value, depth int) {}
func (NopObserver) OnConflict(v model.Variable, val model.Value)          {}
func (NopObserver) OnWipeout(v model.Variable, wiped model.Variable)      {}
func (NopObserver) OnBacktrack(v model.Variable, depth int)               {}

// LogObserver 将搜索事件写入调试日志
type LogObserver struct {
	log *zerolog.Logger
}

// NewLogObserver 创建日志观察者
func NewLogObserver() *LogObserver {
	l := logger.Get().With().Str("component", "solver").Logger()
	return &LogObserver{log: &l}
}

func (o *LogObserver) OnAssign(v model.Variable, val model.Value, depth int) {
	o.log.Debug().
		Str("variable", v.String()).
		Str("value", val.String()).
		Int("depth", depth).
		Msg("变量赋值")
}

func (o *LogObserver) OnConflict(v model.Variable, val model.Value) {
	o.log.Debug().
		Str("variable", v.String()).
		Str("value", val.String()).
		Msg("候选取值冲突")
}

func (o *LogObserver) OnWipeout(v model.Variable, wiped model.Variable) {
	o.log.Debug().
		Str("variable", v.String()).
		Str("wiped", wiped.String()).
		Msg("前瞻检查值域清空")
}

func (o *LogObserver) OnBacktrack(v model.Variable, depth int) {
	o.log.Debug().
		Str("variable", v.String()).
		Int("depth", depth).
		Msg("搜索回退")
}

// MultiObserver 将事件广播给多个观察者
func MultiObserver(observers ...Observer) Observer {
	return multiObserver(observers)
}

type multiObserver []Observer

func (m multiObserver) OnAssign(v model.Variable, val model.Value, depth int) {
	for _, o := range m {
		o.OnAssign(v, val, depth)
	}
}

func (m multiObserver) OnConflict(v model.Variable, val model.Value) {
	for _, o := range m {
		o.OnConflict(v, val)
	}
}

func (m multiObserver) OnWipeout(v model.Variable, wiped model.Variable) {
	for _, o := range m {
		o.OnWipeout(v, wiped)
	}
}

func (m multiObserver) OnBacktrack(v model.Variable, depth int) {
	for _, o := range m {
		o.OnBacktrack(v, depth)
	}
}
