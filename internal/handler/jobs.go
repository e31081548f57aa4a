package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paike/paike/internal/constraints"
	"github.com/paike/paike/internal/metrics"
	"github.com/paike/paike/internal/repository"
	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/model"
	"github.com/paike/paike/pkg/runner"
)

// JobHandler 异步求解任务API处理器
type JobHandler struct {
	runner  *runner.Runner
	catalog repository.CatalogRepositoryInterface
}

// NewJobHandler 创建任务处理器
func NewJobHandler(r *runner.Runner, catalog repository.CatalogRepositoryInterface) *JobHandler {
	return &JobHandler{runner: r, catalog: catalog}
}

// JobRequest 任务提交请求
type JobRequest struct {
	Tables  *TablesInput `json:"tables,omitempty"`
	Dataset string       `json:"dataset,omitempty"`
	Options *JobOptions  `json:"options,omitempty"`
}

// JobOptions 任务选项
type JobOptions struct {
	Strategy       string                 `json:"strategy,omitempty"`
	TimeoutSeconds int                    `json:"timeout_seconds,omitempty"`
	Preset         string                 `json:"preset,omitempty"`
	Constraints    map[string]interface{} `json:"constraints,omitempty"`
}

// JobResponse 任务记录响应
type JobResponse struct {
	ID         string         `json:"id"`
	Strategy   model.Strategy `json:"strategy"`
	State      runner.State   `json:"state"`
	Timeout    string         `json:"timeout"`
	CreatedAt  time.Time      `json:"created_at"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Error      *JobError      `json:"error,omitempty"`
}

// JobError 任务失败详情
type JobError struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// Submit 提交异步求解任务
func (h *JobHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	if appErr := validateJobRequest(&req); appErr != nil {
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
		opts = &JobOptions{}
	}

	runnerReq := &runner.Request{
		Tables:   tables,
		Strategy: model.Strategy(opts.Strategy),
	}
	if opts.TimeoutSeconds > 0 {
		runnerReq.Timeout = time.Duration(opts.TimeoutSeconds) * time.Second
	}
	// 只有显式给出预设或参数覆盖时才替换缺省约束集合
	if opts.Preset != "" || len(opts.Constraints) > 0 {
		manager, err := constraints.BuildManager(opts.Preset, opts.Constraints)
		if err != nil {
			respondError(w, err)
			return
		}
		runnerReq.Manager = manager
	}

	job, err := h.runner.Submit(runnerReq)
	if err != nil {
		respondError(w, err)
		return
	}

	metrics.RecordJobSubmitted(string(job.Strategy))
	respondJSON(w, http.StatusAccepted, jobResponse(job))
}

// Detail 查询任务状态或取回结果
// 路径形如 /api/v1/jobs/{id} 或 /api/v1/jobs/{id}/result。
func (h *JobHandler) Detail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	if rest == "" {
		respondError(w, errors.New(errors.CodeInvalidInput, "缺少任务ID"))
		return
	}

	idPart := rest
	wantResult := false
	if strings.HasSuffix(rest, "/result") {
		idPart = strings.TrimSuffix(rest, "/result")
		wantResult = true
	}
	if strings.Contains(idPart, "/") {
		respondError(w, errors.New(errors.CodeNotFound, "未知的任务端点"))
		return
	}

	id, err := uuid.Parse(idPart)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的任务ID格式"))
		return
	}

	if wantResult {
		solution, err := h.runner.Result(id)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, solutionResponse(solution))
		return
	}

	job, err := h.runner.Get(id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, jobResponse(job))
}

// validateJobRequest 验证任务提交请求
func validateJobRequest(req *JobRequest) *errors.AppError {
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

// jobResponse 把任务快照转换为响应载荷
func jobResponse(job *runner.Job) *JobResponse {
	resp := &JobResponse{
		ID:        job.ID.String(),
		Strategy:  job.Strategy,
		State:     job.State,
		Timeout:   job.Timeout.String(),
		CreatedAt: job.CreatedAt,
	}
	if !job.StartedAt.IsZero() {
		t := job.StartedAt
		resp.StartedAt = &t
	}
	if !job.FinishedAt.IsZero() {
		t := job.FinishedAt
		resp.FinishedAt = &t
	}
	if job.Err != nil {
		if appErr, ok := errors.AsAppError(job.Err); ok {
			resp.Error = &JobError{Code: appErr.Code, Message: appErr.Message}
		} else {
			resp.Error = &JobError{Code: errors.CodeInternal, Message: job.Err.Error()}
		}
	}
	return resp
}
