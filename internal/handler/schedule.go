// Package handler 提供API处理器
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/paike/paike/internal/constraints"
	"github.com/paike/paike/internal/metrics"
	"github.com/paike/paike/internal/repository"
	"github.com/paike/paike/pkg/dataset"
	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/logger"
	"github.com/paike/paike/pkg/model"
	"github.com/paike/paike/pkg/scheduler"
	"github.com/paike/paike/pkg/scheduler/constraint"
	"github.com/paike/paike/pkg/scheduler/solver"
	"github.com/paike/paike/pkg/stats"
	"github.com/paike/paike/pkg/validator"
)

// ScheduleHandler 排课API处理器
type ScheduleHandler struct {
	catalog   repository.CatalogRepositoryInterface
	schedules repository.ScheduleRepositoryInterface

	defaultStrategy model.Strategy
	defaultTimeout  time.Duration
}

// ScheduleHandlerConfig 处理器缺省参数
type ScheduleHandlerConfig struct {
	DefaultStrategy model.Strategy
	DefaultTimeout  time.Duration
}

// NewScheduleHandler 创建排课处理器
// 仓储允许为nil：此时只接受内联或内置数据集的问题数据，且不能持久化。
func NewScheduleHandler(catalog repository.CatalogRepositoryInterface, schedules repository.ScheduleRepositoryInterface, cfg *ScheduleHandlerConfig) *ScheduleHandler {
	h := &ScheduleHandler{
		catalog:         catalog,
		schedules:       schedules,
		defaultStrategy: model.StrategyAuto,
		defaultTimeout:  30 * time.Second,
	}
	if cfg != nil {
		if cfg.DefaultStrategy != "" {
			h.defaultStrategy = cfg.DefaultStrategy
		}
		if cfg.DefaultTimeout > 0 {
			h.defaultTimeout = cfg.DefaultTimeout
		}
	}
	return h
}

// TablesInput 四张基础表的请求载荷
// 逗号分隔的资格与偏好串在反序列化时已被规范成切片。
type TablesInput struct {
	Faculty    []*model.Faculty   `json:"faculty"`
	Subjects   []*model.Subject   `json:"subjects"`
	Classrooms []*model.Classroom `json:"classrooms"`
	Timeslots  []*model.Timeslot  `json:"timeslots"`
}

// Empty 检查载荷是否完全未提供
func (t *TablesInput) Empty() bool {
	return len(t.Faculty) == 0 && len(t.Subjects) == 0 &&
		len(t.Classrooms) == 0 && len(t.Timeslots) == 0
}

// Tables 构建问题实例
func (t *TablesInput) Tables() (*model.Tables, error) {
	return model.NewTables(t.Faculty, t.Subjects, t.Classrooms, t.Timeslots)
}

// validate 校验四张表的完整性
func (t *TablesInput) validate(ve *errors.ValidationErrors) {
	if len(t.Faculty) == 0 {
		ve.Add("tables.faculty", "教师列表不能为空")
	}
	if len(t.Subjects) == 0 {
		ve.Add("tables.subjects", "课程列表不能为空")
	}
	if len(t.Classrooms) == 0 {
		ve.Add("tables.classrooms", "教室列表不能为空")
	}
	if len(t.Timeslots) == 0 {
		ve.Add("tables.timeslots", "时间段列表不能为空")
	}

	for _, f := range t.Faculty {
		if f.ID <= 0 {
			ve.Add("tables.faculty", "教师ID必须为正整数")
			break
		}
	}
	for _, s := range t.Subjects {
		if s.ID <= 0 {
			ve.Add("tables.subjects", "课程ID必须为正整数")
			break
		}
		if s.Hours < 0 || s.LabHours < 0 {
			ve.Add("tables.subjects", "课时不能为负数")
			break
		}
	}
	for _, c := range t.Classrooms {
		if c.ID <= 0 {
			ve.Add("tables.classrooms", "教室ID必须为正整数")
			break
		}
	}
	for _, ts := range t.Timeslots {
		if ts.ID <= 0 {
			ve.Add("tables.timeslots", "时间段ID必须为正整数")
			break
		}
	}
}

// GenerateRequest 排课生成请求
// 问题数据来源三选一：内联tables、内置数据集名、或二者皆缺省时读取数据库目录。
type GenerateRequest struct {
	Tables  *TablesInput     `json:"tables,omitempty"`
	Dataset string           `json:"dataset,omitempty"`
	Options *GenerateOptions `json:"options,omitempty"`
}

// GenerateOptions 生成选项
type GenerateOptions struct {
	Strategy       string                 `json:"strategy,omitempty"`        // auto/direct/csp/hybrid
	TimeoutSeconds int                    `json:"timeout_seconds,omitempty"` // 求解截止期（秒）
	Preset         string                 `json:"preset,omitempty"`          // 约束预设名
	Constraints    map[string]interface{} `json:"constraints,omitempty"`     // 约束参数覆盖
	Save           bool                   `json:"save,omitempty"`            // 持久化课表
	Validate       bool                   `json:"validate,omitempty"`        // 产出后穷举复查
}

// GenerateResponse 排课生成响应
type GenerateResponse struct {
	Success      bool                       `json:"success"`
	ScheduleID   string                     `json:"schedule_id,omitempty"`
	Strategy     model.Strategy             `json:"strategy"`
	Meetings     []*model.Meeting           `json:"meetings"`
	Statistics   *solver.Statistics         `json:"statistics,omitempty"`
	Constraints  *constraint.Result         `json:"constraint_result,omitempty"`
	Satisfaction *stats.SatisfactionMetrics `json:"satisfaction,omitempty"`
	Utilization  *stats.UtilizationMetrics  `json:"utilization,omitempty"`
	Violations   []validator.Violation      `json:"violations,omitempty"`
	Duration     string                     `json:"duration"`
}

// Generate 生成课表
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	if appErr := validateGenerateRequest(&req); appErr != nil {
		respondError(w, appErr)
		return
	}

	tables, err := resolveTables(r.Context(), h.catalog, req.Tables, req.Dataset)
	if err != nil {
		respondError(w, err)
		return
	}

	opts := req.Options
	if opts == nil {
		opts = &GenerateOptions{}
	}

	strategy := h.defaultStrategy
	if opts.Strategy != "" {
		strategy = model.Strategy(opts.Strategy)
	}

	manager, err := constraints.BuildManager(opts.Preset, opts.Constraints)
	if err != nil {
		respondError(w, err)
		return
	}

	// 设置求解截止期
	timeout := h.defaultTimeout
	if opts.TimeoutSeconds > 0 {
		timeout = time.Duration(opts.TimeoutSeconds) * time.Second
	}
	solveCtx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	builder := scheduler.NewBuilder(tables)
	builder.SetManager(manager)

	start := time.Now()
	solution, err := builder.Solve(solveCtx, strategy)
	if err != nil {
		if err == context.DeadlineExceeded {
			metrics.RecordScheduleGeneration(string(strategy), "timeout", time.Since(start))
			respondError(w, errors.SolverTimeout(timeout.String()).WithCause(err))
			return
		}
		if err == context.Canceled {
			respondError(w, errors.New(errors.CodeInternal, "排课请求已取消"))
			return
		}
		metrics.RecordScheduleGeneration(string(strategy), "failure", time.Since(start))
		respondError(w, err)
		return
	}

	resp := solutionResponse(solution)

	// 质量分析随生成响应一并返回
	sat := stats.NewSatisfactionAnalyzer().Analyze(solution.Meetings, tables.Faculty)
	util := stats.NewUtilizationAnalyzer().Analyze(solution.Meetings, tables)
	resp.Satisfaction = sat
	resp.Utilization = util

	if opts.Validate {
		violations := validator.NewScheduleValidator(nil).Validate(solution.Meetings, tables)
		resp.Violations = violations
		metrics.RecordValidation(!validator.HasErrors(violations))
	}

	if opts.Save {
		if h.schedules == nil {
			respondError(w, errors.New(errors.CodeInternal, "课表存储未配置"))
			return
		}
		record := &repository.Schedule{
			Strategy:        string(solution.Strategy),
			Feasible:        true,
			TotalMeetings:   len(solution.Meetings),
			SatisfactionAvg: sat.AverageScore,
			GeneratedAt:     time.Now(),
		}
		if solution.Result != nil {
			record.DurationMs = solution.Result.Duration.Milliseconds()
			if st := solution.Result.Statistics; st != nil {
				record.Nodes = st.Nodes
				record.Backtracks = st.Backtracks
			}
		}
		if err := h.schedules.Save(r.Context(), record, solution.Meetings); err != nil {
			respondError(w, err)
			return
		}
		resp.ScheduleID = record.ID.String()
	}

	duration := time.Since(start)
	if solution.Result != nil {
		duration = solution.Result.Duration
	}
	metrics.RecordScheduleGeneration(string(solution.Strategy), "success", duration)
	if solution.Result != nil && solution.Result.Statistics != nil {
		metrics.RecordSolverSearch(string(solution.Strategy),
			solution.Result.Statistics.Nodes, solution.Result.Statistics.Backtracks)
	}
	metrics.SetScheduleQuality(string(solution.Strategy),
		sat.AverageScore, util.WorkloadGini, util.RoomUsageRate)

	logger.WithContext(r.Context()).Info().
		Str("strategy", string(solution.Strategy)).
		Int("meetings", len(solution.Meetings)).
		Float64("satisfaction", sat.AverageScore).
		Dur("duration", duration).
		Msg("课表生成完成")

	respondJSON(w, http.StatusOK, resp)
}

// validateGenerateRequest 验证请求
func validateGenerateRequest(req *GenerateRequest) *errors.AppError {
	ve := &errors.ValidationErrors{}

	if req.Tables != nil && !req.Tables.Empty() {
		req.Tables.validate(ve)
	}

	if req.Options != nil {
		if req.Options.Strategy != "" && !model.Strategy(req.Options.Strategy).Valid() {
			ve.Add("options.strategy", "未知的求解策略，可选 auto/direct/csp/hybrid")
		}
		if req.Options.TimeoutSeconds < 0 {
			ve.Add("options.timeout_seconds", "求解截止期不能为负数")
		}
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

// resolveTables 确定问题数据来源
// 优先级：内联载荷 > 内置数据集 > 数据库目录。
func resolveTables(ctx context.Context, catalog repository.CatalogRepositoryInterface, input *TablesInput, datasetName string) (*model.Tables, error) {
	if input != nil && !input.Empty() {
		tables, err := input.Tables()
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "问题数据无效")
		}
		return tables, nil
	}

	if datasetName != "" {
		ds := dataset.ByName(datasetName)
		if ds == nil {
			return nil, errors.NotFound("数据集", datasetName)
		}
		tables, err := ds.Tables()
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "内置数据集损坏")
		}
		return tables, nil
	}

	if catalog == nil {
		return nil, errors.InvalidInput("tables", "未提供问题数据，且服务未接入数据库目录")
	}
	return catalog.LoadAll(ctx)
}

// solutionResponse 把求解产出转换为响应载荷
func solutionResponse(solution *scheduler.Solution) *GenerateResponse {
	resp := &GenerateResponse{
		Success:  true,
		Strategy: solution.Strategy,
		Meetings: solution.Meetings,
	}
	if solution.Result != nil {
		resp.Statistics = solution.Result.Statistics
		resp.Constraints = solution.Result.ConstraintResult
		resp.Duration = solution.Result.Duration.String()
	}
	return resp
}

// ValidateRequest 课表验证请求
type ValidateRequest struct {
	Tables   *TablesInput     `json:"tables,omitempty"`
	Dataset  string           `json:"dataset,omitempty"`
	Meetings []*model.Meeting `json:"meetings"`
	Config   *ValidateConfig  `json:"config,omitempty"`
}

// ValidateConfig 验证开关，未提供的项使用验证器缺省值
type ValidateConfig struct {
	CheckQualification *bool `json:"check_qualification,omitempty"`
	CheckWorkload      *bool `json:"check_workload,omitempty"`
	CheckCompleteness  *bool `json:"check_completeness,omitempty"`
}

// ValidateResponse 课表验证响应
type ValidateResponse struct {
	Valid      bool                  `json:"valid"`
	Errors     int                   `json:"errors"`
	Warnings   int                   `json:"warnings"`
	Violations []validator.Violation `json:"violations"`
}

// Validate 穷举复查一份课表
// 独立于求解路径重新检查提交的课表，外部提交的课表同样适用。
func (h *ScheduleHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	tables, err := resolveTables(r.Context(), h.catalog, req.Tables, req.Dataset)
	if err != nil {
		respondError(w, err)
		return
	}

	cfg := validator.DefaultValidatorConfig()
	if req.Config != nil {
		if req.Config.CheckQualification != nil {
			cfg.CheckQualification = *req.Config.CheckQualification
		}
		if req.Config.CheckWorkload != nil {
			cfg.CheckWorkload = *req.Config.CheckWorkload
		}
		if req.Config.CheckCompleteness != nil {
			cfg.CheckCompleteness = *req.Config.CheckCompleteness
		}
	}

	violations := validator.NewScheduleValidator(cfg).Validate(req.Meetings, tables)

	errCount, warnCount := 0, 0
	for _, v := range violations {
		if v.Severity == "error" {
			errCount++
		} else {
			warnCount++
		}
	}

	valid := !validator.HasErrors(violations)
	metrics.RecordValidation(valid)

	if violations == nil {
		violations = []validator.Violation{}
	}
	respondJSON(w, http.StatusOK, ValidateResponse{
		Valid:      valid,
		Errors:     errCount,
		Warnings:   warnCount,
		Violations: violations,
	})
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
// 非应用错误统一按内部错误包装。
func respondError(w http.ResponseWriter, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.Wrap(err, errors.CodeInternal, "内部错误")
	}

	body := map[string]interface{}{
		"error":   true,
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": appErr.Details,
	}
	if len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus)
	json.NewEncoder(w).Encode(body)
}
