// Package runner 提供异步排课任务的调度与执行
// 有界工作池消费排队中的求解任务：每个任务持有独立的问题实例与截止期，
// 以 UUID 标识，状态依 pending → running → done/failed/timeout 流转。
package runner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/logger"
	"github.com/paike/paike/pkg/model"
	"github.com/paike/paike/pkg/scheduler"
	"github.com/paike/paike/pkg/scheduler/constraint"
	"github.com/rs/zerolog"
)

// State 任务状态
type State string

const (
	StatePending State = "pending" // 已入队等待执行
	StateRunning State = "running" // 正在求解
	StateDone    State = "done"    // 求解成功
	StateFailed  State = "failed"  // 求解失败或被中止
	StateTimeout State = "timeout" // 超出任务截止期
)

// Terminal 检查状态是否为终态
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateTimeout
}

// Request 一次异步求解请求
type Request struct {
	// Tables 问题实例，必填
	Tables *model.Tables

	// Strategy 求解策略，空值等同 auto
	Strategy model.Strategy

	// Timeout 任务截止期，从开始执行时起算；非正值使用运行器缺省值
	Timeout time.Duration

	// Manager 自定义约束集合，nil 时使用缺省内置约束
	Manager *constraint.Manager
}

// Job 异步求解任务记录
// Submit 与 Get 返回的都是某一时刻的快照，字段不会再变化。
type Job struct {
	ID         uuid.UUID
	Strategy   model.Strategy
	Timeout    time.Duration
	State      State
	Solution   *scheduler.Solution
	Err        error
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time

	tables  *model.Tables
	manager *constraint.Manager
}

// Config 运行器配置
type Config struct {
	Workers    int           // 并发求解协程数
	QueueSize  int           // 等待队列容量
	JobTimeout time.Duration // 任务缺省截止期
	Retention  time.Duration // 终态任务记录的保留时长
}

// DefaultConfig 返回缺省配置
func DefaultConfig() *Config {
	return &Config{
		Workers:    4,
		QueueSize:  16,
		JobTimeout: 30 * time.Second,
		Retention:  time.Hour,
	}
}

// Runner 异步求解任务运行器
// 每个任务在独立的 Builder 实例上求解，共享的只有只读问题数据，
// 任务记录的读写统一经 mu 保护。
type Runner struct {
	config *Config
	log    zerolog.Logger

	queue chan *Job

	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewRunner 创建任务运行器
func NewRunner(cfg *Config) *Runner {
	c := *DefaultConfig()
	if cfg != nil {
		c = *cfg
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = c.Workers * 4
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 30 * time.Second
	}
	if c.Retention <= 0 {
		c.Retention = time.Hour
	}

	return &Runner{
		config: &c,
		log:    logger.Get().With().Str("component", "runner").Logger(),
		queue:  make(chan *Job, c.QueueSize),
		jobs:   make(map[uuid.UUID]*Job),
	}
}

// Start 启动工作协程，重复调用只生效一次
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.ctx, r.cancel = context.WithCancel(ctx)

	for i := 0; i < r.config.Workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	r.wg.Add(1)
	go r.janitor()

	r.started = true
	r.log.Info().
		Int("workers", r.config.Workers).
		Int("queue_size", r.config.QueueSize).
		Msg("任务运行器已启动")
}

// Stop 取消工作协程并等待退出
// 进行中任务的上下文被取消并按终态记录，排队中的任务保持 pending。
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.mu.Unlock()

	r.wg.Wait()
	r.log.Info().Msg("任务运行器已停止")
}

// Submit 提交异步求解任务
// 队列已满立即返回 CodeJobQueueFull，不阻塞调用方。
func (r *Runner) Submit(req *Request) (*Job, error) {
	if req == nil {
		return nil, errors.InvalidInput("request", "请求不能为空")
	}
	if req.Tables == nil {
		return nil, errors.InvalidInput("tables", "问题实例不能为空")
	}
	if req.Strategy != "" && !req.Strategy.Valid() {
		return nil, errors.InvalidInput("strategy", string(req.Strategy))
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = model.StrategyAuto
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.config.JobTimeout
	}

	job := &Job{
		ID:        uuid.New(),
		Strategy:  strategy,
		Timeout:   timeout,
		State:     StatePending,
		CreatedAt: time.Now(),
		tables:    req.Tables,
		manager:   req.Manager,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return nil, errors.New(errors.CodeInternal, "任务运行器未启动")
	}
	if r.ctx.Err() != nil {
		return nil, errors.New(errors.CodeInternal, "任务运行器已停止")
	}

	select {
	case r.queue <- job:
	default:
		return nil, errors.JobQueueFull(cap(r.queue))
	}
	r.jobs[job.ID] = job

	r.log.Info().
		Str("job_id", job.ID.String()).
		Str("strategy", string(strategy)).
		Dur("timeout", timeout).
		Msg("求解任务已入队")

	snapshot := *job
	return &snapshot, nil
}

// Get 返回任务记录的快照
func (r *Runner) Get(id uuid.UUID) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, errors.JobNotFound(id.String())
	}
	snapshot := *job
	return &snapshot, nil
}

// Result 取出已完成任务的求解产出
// 任务未到终态时返回 CodeJobNotDone，失败与超时任务返回其记录的错误。
func (r *Runner) Result(id uuid.UUID) (*scheduler.Solution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, errors.JobNotFound(id.String())
	}
	if !job.State.Terminal() {
		return nil, errors.JobNotDone(job.ID.String(), string(job.State))
	}
	if job.Err != nil {
		return nil, job.Err
	}
	return job.Solution, nil
}

// worker 消费队列直到运行器停止
func (r *Runner) worker() {
	defer r.wg.Done()
	for {
		select {
		case <-r.ctx.Done():
			return
		case job := <-r.queue:
			r.execute(job)
		}
	}
}

// execute 在独立截止期内运行单个任务
func (r *Runner) execute(job *Job) {
	r.mu.Lock()
	job.State = StateRunning
	job.StartedAt = time.Now()
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(r.ctx, job.Timeout)
	defer cancel()

	builder := scheduler.NewBuilder(job.tables)
	if job.manager != nil {
		builder.SetManager(job.manager)
	}
	solution, err := builder.Solve(ctx, job.Strategy)

	r.mu.Lock()
	job.FinishedAt = time.Now()
	switch {
	case err == nil:
		job.State = StateDone
		job.Solution = solution
	case err == context.DeadlineExceeded:
		// 引擎只原样上报上下文错误，超时语义在这里落地
		job.State = StateTimeout
		job.Err = errors.SolverTimeout(job.Timeout.String()).WithCause(err)
	default:
		job.State = StateFailed
		job.Err = err
	}
	state := job.State
	duration := job.FinishedAt.Sub(job.StartedAt)
	r.mu.Unlock()

	event := r.log.Info()
	if state != StateDone {
		event = r.log.Warn()
	}
	event.
		Str("job_id", job.ID.String()).
		Str("strategy", string(job.Strategy)).
		Str("state", string(state)).
		Dur("duration", duration).
		Msg("求解任务结束")
}

// janitor 周期清理保留期外的终态任务记录
func (r *Runner) janitor() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.config.Retention)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			if n := r.removeExpired(time.Now()); n > 0 {
				r.log.Debug().Int("removed", n).Msg("清理过期任务记录")
			}
		}
	}
}

// removeExpired 删除完成时间早于保留期起点的终态任务
func (r *Runner) removeExpired(now time.Time) int {
	cutoff := now.Add(-r.config.Retention)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, job := range r.jobs {
		if job.State.Terminal() && job.FinishedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed
}
