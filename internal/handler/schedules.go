package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/paike/paike/internal/repository"
	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/model"
)

// SchedulesHandler 已保存课表API处理器
type SchedulesHandler struct {
	repo repository.ScheduleRepositoryInterface
}

// NewSchedulesHandler 创建课表存储处理器
func NewSchedulesHandler(repo repository.ScheduleRepositoryInterface) *SchedulesHandler {
	return &SchedulesHandler{repo: repo}
}

// ScheduleListResponse 课表列表响应
type ScheduleListResponse struct {
	Total int                    `json:"total"`
	Items []*repository.Schedule `json:"items"`
}

// ScheduleDetailResponse 课表详情响应
type ScheduleDetailResponse struct {
	Schedule *repository.Schedule `json:"schedule"`
	Meetings []*model.Meeting     `json:"meetings"`
}

// List 分页列出已保存的课表
// 支持查询参数 strategy、feasible、limit、offset、order_by、order_dir。
func (h *SchedulesHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}
	if h.repo == nil {
		respondError(w, errors.New(errors.CodeInternal, "课表存储未配置"))
		return
	}

	filter, appErr := parseListFilter(r)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	items, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}

	if items == nil {
		items = []*repository.Schedule{}
	}
	respondJSON(w, http.StatusOK, ScheduleListResponse{Total: total, Items: items})
}

// Detail 按子路径分发课表详情操作
// GET /api/v1/schedules/latest 取最近保存的课表；
// GET /api/v1/schedules/{id} 取指定课表；DELETE /api/v1/schedules/{id} 删除。
func (h *SchedulesHandler) Detail(w http.ResponseWriter, r *http.Request) {
	sub := strings.TrimPrefix(r.URL.Path, "/api/v1/schedules/")
	if sub == "" {
		h.List(w, r)
		return
	}
	if strings.Contains(sub, "/") {
		respondError(w, errors.New(errors.CodeNotFound, "未知的课表端点"))
		return
	}
	if h.repo == nil {
		respondError(w, errors.New(errors.CodeInternal, "课表存储未配置"))
		return
	}

	if sub == "latest" {
		if r.Method != http.MethodGet {
			respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
			return
		}
		schedule, err := h.repo.Latest(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		h.respondDetail(w, r, schedule)
		return
	}

	id, err := uuid.Parse(sub)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的课表ID格式"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		schedule, err := h.repo.GetByID(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		h.respondDetail(w, r, schedule)
	case http.MethodDelete:
		if err := h.repo.Delete(r.Context(), id); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"deleted": true,
			"id":      id.String(),
		})
	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET与DELETE方法"))
	}
}

// respondDetail 连带课表条目返回主记录
func (h *SchedulesHandler) respondDetail(w http.ResponseWriter, r *http.Request, schedule *repository.Schedule) {
	meetings, err := h.repo.GetMeetings(r.Context(), schedule.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	if meetings == nil {
		meetings = []*model.Meeting{}
	}
	respondJSON(w, http.StatusOK, ScheduleDetailResponse{
		Schedule: schedule,
		Meetings: meetings,
	})
}

// parseListFilter 从查询参数解析分页过滤器
func parseListFilter(r *http.Request) (repository.ListFilter, *errors.AppError) {
	filter := repository.DefaultListFilter()
	q := r.URL.Query()

	if strategy := q.Get("strategy"); strategy != "" {
		if !model.Strategy(strategy).Valid() {
			return filter, errors.InvalidInput("strategy", strategy)
		}
		filter.Strategy = strategy
	}
	if raw := q.Get("feasible"); raw != "" {
		feasible, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errors.InvalidInput("feasible", raw)
		}
		filter.Feasible = &feasible
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, errors.InvalidInput("limit", raw)
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, errors.InvalidInput("offset", raw)
		}
		filter.Offset = offset
	}
	if orderBy := q.Get("order_by"); orderBy != "" {
		filter.OrderBy = orderBy
	}
	if orderDir := q.Get("order_dir"); orderDir != "" {
		filter.OrderDir = orderDir
	}

	return filter, nil
}
