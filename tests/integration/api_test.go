// Package integration 在进程内对HTTP接口做集成测试
// 路由表与 cmd/server 保持一致，仓储以内存替身注入，不依赖数据库；
// 替身的错误码与真实仓储一致，状态码断言因此对两者同样成立。
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paike/paike/internal/constraints"
	"github.com/paike/paike/internal/handler"
	"github.com/paike/paike/internal/repository"
	"github.com/paike/paike/pkg/dataset"
	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/model"
	"github.com/paike/paike/pkg/runner"
)

// memCatalog 内存目录仓储替身
type memCatalog struct {
	mu     sync.RWMutex
	tables *model.Tables
}

var _ repository.CatalogRepositoryInterface = (*memCatalog)(nil)

func (m *memCatalog) ReplaceAll(ctx context.Context, tables *model.Tables) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables = tables
	return nil
}

func (m *memCatalog) LoadAll(ctx context.Context) (*model.Tables, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tables == nil {
		return nil, errors.New(errors.CodeNotFound, "基础数据不完整，请先导入教师、课程、教室与时间段")
	}
	return m.tables, nil
}

func (m *memCatalog) ListFaculty(ctx context.Context) ([]*model.Faculty, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tables == nil {
		return nil, nil
	}
	return m.tables.Faculty, nil
}

func (m *memCatalog) ListSubjects(ctx context.Context) ([]*model.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tables == nil {
		return nil, nil
	}
	return m.tables.Subjects, nil
}

func (m *memCatalog) ListClassrooms(ctx context.Context) ([]*model.Classroom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tables == nil {
		return nil, nil
	}
	return m.tables.Classrooms, nil
}

func (m *memCatalog) ListTimeslots(ctx context.Context) ([]*model.Timeslot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tables == nil {
		return nil, nil
	}
	return m.tables.Timeslots, nil
}

// memSchedules 内存课表仓储替身，按保存顺序模拟 created_at 降序
type memSchedules struct {
	mu       sync.RWMutex
	order    []uuid.UUID
	records  map[uuid.UUID]*repository.Schedule
	meetings map[uuid.UUID][]*model.Meeting
}

var _ repository.ScheduleRepositoryInterface = (*memSchedules)(nil)

func newMemSchedules() *memSchedules {
	return &memSchedules{
		records:  make(map[uuid.UUID]*repository.Schedule),
		meetings: make(map[uuid.UUID][]*model.Meeting),
	}
}

func (m *memSchedules) Save(ctx context.Context, schedule *repository.Schedule, meetings []*model.Meeting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}
	now := time.Now()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	if schedule.GeneratedAt.IsZero() {
		schedule.GeneratedAt = now
	}
	stored := *schedule
	m.records[schedule.ID] = &stored
	m.meetings[schedule.ID] = meetings
	m.order = append(m.order, schedule.ID)
	return nil
}

func (m *memSchedules) GetByID(ctx context.Context, id uuid.UUID) (*repository.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[id]
	if !ok {
		return nil, errors.NotFound("课表", id.String())
	}
	return record, nil
}

func (m *memSchedules) GetMeetings(ctx context.Context, id uuid.UUID) ([]*model.Meeting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.meetings[id], nil
}

func (m *memSchedules) List(ctx context.Context, filter repository.ListFilter) ([]*repository.Schedule, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*repository.Schedule
	for i := len(m.order) - 1; i >= 0; i-- {
		record := m.records[m.order[i]]
		if filter.Strategy != "" && record.Strategy != filter.Strategy {
			continue
		}
		if filter.Feasible != nil && record.Feasible != *filter.Feasible {
			continue
		}
		matched = append(matched, record)
	}
	total := len(matched)
	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (m *memSchedules) Latest(ctx context.Context) (*repository.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.order) == 0 {
		return nil, errors.New(errors.CodeNotFound, "尚未保存过课表")
	}
	return m.records[m.order[len(m.order)-1]], nil
}

func (m *memSchedules) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return errors.NotFound("课表", id.String())
	}
	delete(m.records, id)
	delete(m.meetings, id)
	for i, got := range m.order {
		if got == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// newTestMux 按 cmd/server 的路由表组装API
// runner 为 nil 时不注册任务端点。
func newTestMux(catalog repository.CatalogRepositoryInterface, schedules repository.ScheduleRepositoryInterface, r *runner.Runner) *http.ServeMux {
	scheduleHandler := handler.NewScheduleHandler(catalog, schedules, nil)
	schedulesHandler := handler.NewSchedulesHandler(schedules)
	catalogHandler := handler.NewCatalogHandler(catalog)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/schedules/generate", scheduleHandler.Generate)
	mux.HandleFunc("/api/v1/schedules/validate", scheduleHandler.Validate)
	mux.HandleFunc("/api/v1/schedules", schedulesHandler.List)
	mux.HandleFunc("/api/v1/schedules/", schedulesHandler.Detail)
	if r != nil {
		jobHandler := handler.NewJobHandler(r, catalog)
		mux.HandleFunc("/api/v1/jobs", jobHandler.Submit)
		mux.HandleFunc("/api/v1/jobs/", jobHandler.Detail)
	}
	mux.HandleFunc("/api/v1/catalog", catalogHandler.Handle)
	mux.HandleFunc("/api/v1/datasets", handler.DatasetsHandler)
	mux.HandleFunc("/api/v1/datasets/", handler.DatasetDetailHandler)
	mux.HandleFunc("/api/v1/constraints/library", handler.ConstraintLibraryHandler)
	mux.HandleFunc("/api/v1/stats/satisfaction", handler.GetSatisfactionHandler)
	mux.HandleFunc("/api/v1/stats/utilization", handler.GetUtilizationHandler)
	return mux
}

// serveJSON 对测试路由发起一次请求
func serveJSON(t *testing.T, mux *http.ServeMux, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("序列化请求失败: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("解析响应失败: %v, 响应: %s", err, rec.Body.String())
	}
}

// apiError 错误响应载荷
type apiError struct {
	Error   bool        `json:"error"`
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// wantAPIError 断言状态码与错误码
func wantAPIError(t *testing.T, rec *httptest.ResponseRecorder, status int, code errors.Code) apiError {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("状态码 = %d, 期望 %d, 响应: %s", rec.Code, status, rec.Body.String())
	}
	var body apiError
	decodeBody(t, rec, &body)
	if !body.Error {
		t.Errorf("error 字段应为 true")
	}
	if body.Code != code {
		t.Errorf("错误码 = %s, 期望 %s", body.Code, code)
	}
	return body
}

// miniTables 两门课程的最小可行实例，其中一门为实验课
func miniTables() *handler.TablesInput {
	return &handler.TablesInput{
		Faculty: []*model.Faculty{
			{ID: 1, Name: "王老师", MaxHours: 10, QualifiedSubjects: model.IDList{1, 2}},
			{ID: 2, Name: "李老师", MaxHours: 10, QualifiedSubjects: model.IDList{2}},
		},
		Subjects: []*model.Subject{
			{ID: 1, Name: "高等数学", Hours: 4},
			{ID: 2, Name: "大学物理", Hours: 3, LabHours: 2},
		},
		Classrooms: []*model.Classroom{
			{ID: 1, Name: "主楼101"},
			{ID: 2, Name: "实验楼201", HasLab: true},
		},
		Timeslots: []*model.Timeslot{
			{ID: 1, Day: "Monday", Time: "8:00-9:30", Period: "Morning"},
			{ID: 2, Day: "Monday", Time: "10:00-11:30", Period: "Morning"},
			{ID: 3, Day: "Tuesday", Time: "8:00-9:30", Period: "Morning"},
		},
	}
}

// TestGenerateWithDataset 内置数据集驱动的排课生成
func TestGenerateWithDataset(t *testing.T) {
	mux := newTestMux(nil, nil, nil)

	rec := serveJSON(t, mux, http.MethodPost, "/api/v1/schedules/generate", handler.GenerateRequest{
		Dataset: "sample",
		Options: &handler.GenerateOptions{Validate: true},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, 响应: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, 期望 application/json", ct)
	}

	var resp handler.GenerateResponse
	decodeBody(t, rec, &resp)

	if !resp.Success {
		t.Fatal("success 应为 true")
	}
	want := len(dataset.Sample().Subjects)
	if len(resp.Meetings) != want {
		t.Fatalf("课次数量 = %d, 期望 %d", len(resp.Meetings), want)
	}
	if resp.Satisfaction == nil || resp.Utilization == nil {
		t.Error("生成响应应包含满意度与利用率分析")
	}
	if len(resp.Violations) != 0 {
		t.Errorf("可行解不应有违规, 实际 %d 条", len(resp.Violations))
	}
	for _, m := range resp.Meetings {
		if m.FacultyName == "" || m.ClassroomName == "" || m.SubjectName == "" {
			t.Errorf("课次名称字段未填充: %+v", m)
		}
	}
}

// TestGenerateInlineTables 内联问题数据驱动的排课生成
func TestGenerateInlineTables(t *testing.T) {
	mux := newTestMux(nil, nil, nil)

	rec := serveJSON(t, mux, http.MethodPost, "/api/v1/schedules/generate", handler.GenerateRequest{
		Tables:  miniTables(),
		Options: &handler.GenerateOptions{Strategy: "csp"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, 响应: %s", rec.Code, rec.Body.String())
	}

	var resp handler.GenerateResponse
	decodeBody(t, rec, &resp)
	if len(resp.Meetings) != 2 {
		t.Fatalf("课次数量 = %d, 期望 2", len(resp.Meetings))
	}
	if resp.Strategy != model.StrategyCSP {
		t.Errorf("策略 = %s, 期望 csp", resp.Strategy)
	}
	// 实验课必须落在实验教室
	for _, m := range resp.Meetings {
		if m.SubjectID == 2 && m.ClassroomID != 2 {
			t.Errorf("实验课程被安排到普通教室: %+v", m)
		}
	}
}

// TestGenerateFromCatalog 请求未携带数据时回退到数据库目录
func TestGenerateFromCatalog(t *testing.T) {
	tables, err := dataset.Sample().Tables()
	if err != nil {
		t.Fatalf("构建示例数据失败: %v", err)
	}
	catalog := &memCatalog{tables: tables}
	mux := newTestMux(catalog, nil, nil)

	rec := serveJSON(t, mux, http.MethodPost, "/api/v1/schedules/generate", handler.GenerateRequest{})
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, 响应: %s", rec.Code, rec.Body.String())
	}

	var resp handler.GenerateResponse
	decodeBody(t, rec, &resp)
	if len(resp.Meetings) != len(tables.Subjects) {
		t.Errorf("课次数量 = %d, 期望 %d", len(resp.Meetings), len(tables.Subjects))
	}
}

// TestGenerateBadRequests 生成端点的各类非法请求
func TestGenerateBadRequests(t *testing.T) {
	mux := newTestMux(nil, nil, nil)

	t.Run("未知数据集", func(t *testing.T) {
		rec := serveJSON(t, mux, http.MethodPost, "/api/v1/schedules/generate",
			handler.GenerateRequest{Dataset: "nonexistent"})
		body := wantAPIError(t, rec, http.StatusNotFound, errors.CodeNotFound)
		if !strings.Contains(body.Message, "数据集") {
			t.Errorf("错误消息应指明数据集: %s", body.Message)
		}
	})

	t.Run("缺少问题数据", func(t *testing.T) {
		rec := serveJSON(t, mux, http.MethodPost, "/api/v1/schedules/generate",
			handler.GenerateRequest{})
		wantAPIError(t, rec, http.StatusBadRequest, errors.CodeInvalidInput)
	})

	t.Run("非法JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules/generate",
			strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		wantAPIError(t, rec, http.StatusBadRequest, errors.CodeInvalidInput)
	})

	t.Run("GET方法", func(t *testing.T) {
		rec := serveJSON(t, mux, http.MethodGet, "/api/v1/schedules/generate", nil)
		wantAPIError(t, rec, http.StatusBadRequest, errors.CodeInvalidInput)
	})

	t.Run("未知策略", func(t *testing.T) {
		rec := serveJSON(t, mux, http.MethodPost, "/api/v1/schedules/generate", handler.GenerateRequest{
			Dataset: "sample",
			Options: &handler.GenerateOptions{Strategy: "annealing"},
		})
		wantAPIError(t, rec, http.StatusBadRequest, errors.CodeValidationFail)
	})

	t.Run("残缺表", func(t *testing.T) {
		rec := serveJSON(t, mux, http.MethodPost, "/api/v1/schedules/generate", handler.GenerateRequest{
			Tables: &handler.TablesInput{
				Faculty: []*model.Faculty{{ID: 1, Name: "王老师", MaxHours: 10}},
			},
		})
		wantAPIError(t, rec, http.StatusBadRequest, errors.CodeValidationFail)
	})
}

// TestGenerateInfeasible 无解实例经HTTP返回422
func TestGenerateInfeasible(t *testing.T) {
	mux := newTestMux(nil, nil, nil)

	rec := serveJSON(t, mux, http.MethodPost, "/api/v1/schedules/generate",
		handler.GenerateRequest{Dataset: "lab_scarce"})
	wantAPIError(t, rec, http.StatusUnprocessableEntity, errors.CodeNoSolutionFound)
}

// TestGenerateSaveFlow 生成并保存，再经存储端点读取与删除
func TestGenerateSaveFlow(t *testing.T) {
	store := newMemSchedules()
	mux := newTestMux(nil, store, nil)

	rec := serveJSON(t, mux, http.MethodPost, "/api/v1/schedules/generate", handler.GenerateRequest{
		Dataset: "sample",
		Options: &handler.GenerateOptions{Strategy: "csp", Save: true},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("生成失败: %d, %s", rec.Code, rec.Body.String())
	}
	var generated handler.GenerateResponse
	decodeBody(t, rec, &generated)
	if generated.ScheduleID == "" {
		t.Fatal("save 选项开启时响应应包含 schedule_id")
	}

	// 列表
	rec = serveJSON(t, mux, http.MethodGet, "/api/v1/schedules", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("列表失败: %d, %s", rec.Code, rec.Body.String())
	}
	var list handler.ScheduleListResponse
	decodeBody(t, rec, &list)
	if list.Total != 1 || len(list.Items) != 1 {
		t.Fatalf("total = %d, items = %d, 期望各为 1", list.Total, len(list.Items))
	}
	record := list.Items[0]
	if record.ID.String() != generated.ScheduleID {
		t.Errorf("列表记录ID = %s, 期望 %s", record.ID, generated.ScheduleID)
	}
	if record.Strategy != "csp" || !record.Feasible {
		t.Errorf("记录元数据不符: strategy=%s feasible=%v", record.Strategy, record.Feasible)
	}
	if record.TotalMeetings != len(generated.Meetings) {
		t.Errorf("total_meetings = %d, 期望 %d", record.TotalMeetings, len(generated.Meetings))
	}

	// 策略过滤
	rec = serveJSON(t, mux, http.MethodGet, "/api/v1/schedules?strategy=hybrid", nil)
	decodeBody(t, rec, &list)
	if list.Total != 0 {
		t.Errorf("hybrid 过滤应为空, 实际 total = %d", list.Total)
	}

	// 详情
	rec = serveJSON(t, mux, http.MethodGet, "/api/v1/schedules/"+generated.ScheduleID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("详情失败: %d, %s", rec.Code, rec.Body.String())
	}
	var detail handler.ScheduleDetailResponse
	decodeBody(t, rec, &detail)
	if len(detail.Meetings) != len(generated.Meetings) {
		t.Errorf("详情课次 = %d, 期望 %d", len(detail.Meetings), len(generated.Meetings))
	}

	// latest
	rec = serveJSON(t, mux, http.MethodGet, "/api/v1/schedules/latest", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("latest 失败: %d, %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &detail)
	if detail.Schedule.ID.String() != generated.ScheduleID {
		t.Errorf("latest ID = %s, 期望 %s", detail.Schedule.ID, generated.ScheduleID)
	}

	// 删除后再取应404
	rec = serveJSON(t, mux, http.MethodDelete, "/api/v1/schedules/"+generated.ScheduleID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("删除失败: %d, %s", rec.Code, rec.Body.String())
	}
	var deleted struct {
		Deleted bool `json:"deleted"`
	}
	decodeBody(t, rec, &deleted)
	if !deleted.Deleted {
		t.Error("deleted 字段应为 true")
	}

	rec = serveJSON(t, mux, http.MethodGet, "/api/v1/schedules/"+generated.ScheduleID, nil)
	wantAPIError(t, rec, http.StatusNotFound, errors.CodeNotFound)

	rec = serveJSON(t, mux, http.MethodGet, "/api/v1/schedules/latest", nil)
	wantAPIError(t, rec, http.StatusNotFound, errors.CodeNotFound)
}

// TestSchedulesEndpointErrors 存储端点的错误路径
func TestSchedulesEndpointErrors(t *testing.T) {
	store := newMemSchedules()
	mux := newTestMux(nil, store, nil)

	t.Run("非法ID", func(t *testing.T) {
		rec := serveJSON(t, mux, http.MethodGet, "/api/v1/schedules/not-a-uuid", nil)
		wantAPIError(t, rec, http.StatusBadRequest, errors.CodeInvalidInput)
	})

	t.Run("非法limit", func(t *testing.T) {
		rec := serveJSON(t, mux, http.MethodGet, "/api/v1/schedules?limit=abc", nil)
		wantAPIError(t, rec, http.StatusBadRequest, errors.CodeInvalidInput)
	})

	t.Run("未知子路径", func(t *testing.T) {
		rec := serveJSON(t, mux, http.MethodGet, "/api/v1/schedules/a/b/c", nil)
		wantAPIError(t, rec, http.StatusNotFound, errors.CodeNotFound)
	})

	t.Run("删除不存在的课表", func(t *testing.T) {
		rec := serveJSON(t, mux, http.MethodDelete, "/api/v1/schedules/"+uuid.New().String(), nil)
		wantAPIError(t, rec, http.StatusNotFound, errors.CodeNotFound)
	})

	t.Run("存储未配置", func(t *testing.T) {
		bare := newTestMux(nil, nil, nil)
		rec := serveJSON(t, bare, http.MethodGet, "/api/v1/schedules", nil)
		wantAPIError(t, rec, http.StatusInternalServerError, errors.CodeInternal)
	})
}

// TestValidateEndpoint 课表复查端点
func TestValidateEndpoint(t *testing.T) {
	mux := newTestMux(nil, nil, nil)

	// 先生成一份可行课表
	rec := serveJSON(t, mux, http.MethodPost, "/api/v1/schedules/generate",
		handler.GenerateRequest{Dataset: "sample"})
	if rec.Code != http.StatusOK {
		t.Fatalf("生成失败: %d, %s", rec.Code, rec.Body.String())
	}
	var generated handler.GenerateResponse
	decodeBody(t, rec, &generated)

	t.Run("可行课表", func(t *testing.T) {
		rec := serveJSON(t, mux, http.MethodPost, "/api/v1/schedules/validate", handler.ValidateRequest{
			Dataset:  "sample",
			Meetings: generated.Meetings,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("状态码 = %d, 响应: %s", rec.Code, rec.Body.String())
		}
		var resp handler.ValidateResponse
		decodeBody(t, rec, &resp)
		if !resp.Valid || resp.Errors != 0 {
			t.Errorf("可行课表复查失败: valid=%v errors=%d violations=%+v",
				resp.Valid, resp.Errors, resp.Violations)
		}
		if resp.Violations == nil {
			t.Error("violations 字段应为空数组而非 null")
		}
	})

	t.Run("资格违规", func(t *testing.T) {
		// 李老师没有高等数学的任教资格
		broken := []*model.Meeting{{
			SubjectID: 1, SubjectName: "高等数学",
			FacultyID: 2, FacultyName: "李老师",
			TimeslotID: 1, Day: "Monday", Time: "8:00-9:30", Period: "Morning",
			ClassroomID: 1, ClassroomName: "主楼101",
		}}
		rec := serveJSON(t, mux, http.MethodPost, "/api/v1/schedules/validate", handler.ValidateRequest{
			Tables:   miniTables(),
			Meetings: broken,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("状态码 = %d, 响应: %s", rec.Code, rec.Body.String())
		}
		var resp handler.ValidateResponse
		decodeBody(t, rec, &resp)
		if resp.Valid {
			t.Error("资格违规的课表不应通过复查")
		}
		if resp.Errors == 0 {
			t.Errorf("应至少报告一条错误级违规: %+v", resp.Violations)
		}
	})

	t.Run("关闭完整性检查", func(t *testing.T) {
		off := false
		// 只提交一门课的课次，关闭完整性检查后其余违规不应出现
		partial := generated.Meetings[:1]
		rec := serveJSON(t, mux, http.MethodPost, "/api/v1/schedules/validate", handler.ValidateRequest{
			Dataset:  "sample",
			Meetings: partial,
			Config:   &handler.ValidateConfig{CheckCompleteness: &off},
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("状态码 = %d, 响应: %s", rec.Code, rec.Body.String())
		}
		var resp handler.ValidateResponse
		decodeBody(t, rec, &resp)
		if !resp.Valid {
			t.Errorf("关闭完整性检查后部分课表应通过: %+v", resp.Violations)
		}
	})

	t.Run("无问题数据", func(t *testing.T) {
		rec := serveJSON(t, mux, http.MethodPost, "/api/v1/schedules/validate",
			handler.ValidateRequest{Meetings: generated.Meetings})
		wantAPIError(t, rec, http.StatusBadRequest, errors.CodeInvalidInput)
	})
}

// TestJobLifecycle 异步任务从提交到取回结果的完整流转
func TestJobLifecycle(t *testing.T) {
	r := runner.NewRunner(&runner.Config{Workers: 2, QueueSize: 8, JobTimeout: 30 * time.Second, Retention: time.Hour})
	r.Start(context.Background())
	t.Cleanup(r.Stop)
	mux := newTestMux(nil, nil, r)

	rec := serveJSON(t, mux, http.MethodPost, "/api/v1/jobs", handler.JobRequest{
		Dataset: "sample",
		Options: &handler.JobOptions{Strategy: "csp"},
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("提交状态码 = %d, 期望 202, 响应: %s", rec.Code, rec.Body.String())
	}
	var job handler.JobResponse
	decodeBody(t, rec, &job)
	if job.ID == "" {
		t.Fatal("任务响应缺少ID")
	}
	if job.State != runner.StatePending && job.State != runner.StateRunning {
		t.Fatalf("初始状态 = %s", job.State)
	}

	// 轮询直到终态
	deadline := time.Now().Add(10 * time.Second)
	for !job.State.Terminal() {
		if time.Now().After(deadline) {
			t.Fatalf("任务未在期限内完成, 当前状态 %s", job.State)
		}
		time.Sleep(20 * time.Millisecond)

		rec = serveJSON(t, mux, http.MethodGet, "/api/v1/jobs/"+job.ID, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("查询状态码 = %d, 响应: %s", rec.Code, rec.Body.String())
		}
		decodeBody(t, rec, &job)
	}

	if job.State != runner.StateDone {
		t.Fatalf("终态 = %s, 期望 done, 错误: %+v", job.State, job.Error)
	}
	if job.StartedAt == nil || job.FinishedAt == nil {
		t.Error("终态任务应记录开始与结束时间")
	}

	rec = serveJSON(t, mux, http.MethodGet, "/api/v1/jobs/"+job.ID+"/result", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("结果状态码 = %d, 响应: %s", rec.Code, rec.Body.String())
	}
	var result handler.GenerateResponse
	decodeBody(t, rec, &result)
	if want := len(dataset.Sample().Subjects); len(result.Meetings) != want {
		t.Errorf("结果课次 = %d, 期望 %d", len(result.Meetings), want)
	}
}

// TestJobEndpointErrors 任务端点的错误路径
func TestJobEndpointErrors(t *testing.T) {
	r := runner.NewRunner(nil)
	r.Start(context.Background())
	t.Cleanup(r.Stop)
	mux := newTestMux(nil, nil, r)

	t.Run("非法ID", func(t *testing.T) {
		rec := serveJSON(t, mux, http.MethodGet, "/api/v1/jobs/not-a-uuid", nil)
		wantAPIError(t, rec, http.StatusBadRequest, errors.CodeInvalidInput)
	})

	t.Run("未知任务", func(t *testing.T) {
		rec := serveJSON(t, mux, http.MethodGet, "/api/v1/jobs/"+uuid.New().String(), nil)
		wantAPIError(t, rec, http.StatusNotFound, errors.CodeJobNotFound)
	})

	t.Run("未知任务的结果", func(t *testing.T) {
		rec := serveJSON(t, mux, http.MethodGet, "/api/v1/jobs/"+uuid.New().String()+"/result", nil)
		wantAPIError(t, rec, http.StatusNotFound, errors.CodeJobNotFound)
	})

	t.Run("提交缺少数据", func(t *testing.T) {
		rec := serveJSON(t, mux, http.MethodPost, "/api/v1/jobs", handler.JobRequest{})
		wantAPIError(t, rec, http.StatusBadRequest, errors.CodeInvalidInput)
	})
}

// TestCatalogRoundTrip 基础数据整体替换后读取并用于排课
func TestCatalogRoundTrip(t *testing.T) {
	catalog := &memCatalog{}
	mux := newTestMux(catalog, nil, nil)

	sample := dataset.Sample()
	rec := serveJSON(t, mux, http.MethodPut, "/api/v1/catalog", handler.TablesInput{
		Faculty:    sample.Faculty,
		Subjects:   sample.Subjects,
		Classrooms: sample.Classrooms,
		Timeslots:  sample.Timeslots,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("替换状态码 = %d, 响应: %s", rec.Code, rec.Body.String())
	}
	var replaced handler.ReplaceResponse
	decodeBody(t, rec, &replaced)
	if !replaced.Replaced || replaced.Subjects != len(sample.Subjects) {
		t.Errorf("替换响应不符: %+v", replaced)
	}

	rec = serveJSON(t, mux, http.MethodGet, "/api/v1/catalog", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("读取状态码 = %d, 响应: %s", rec.Code, rec.Body.String())
	}
	var loaded handler.CatalogResponse
	decodeBody(t, rec, &loaded)
	if len(loaded.Faculty) != len(sample.Faculty) || len(loaded.Timeslots) != len(sample.Timeslots) {
		t.Errorf("读取的基础数据数量不符: faculty=%d timeslots=%d",
			len(loaded.Faculty), len(loaded.Timeslots))
	}

	// 空请求体经目录回退生成
	rec = serveJSON(t, mux, http.MethodPost, "/api/v1/schedules/generate", handler.GenerateRequest{})
	if rec.Code != http.StatusOK {
		t.Fatalf("目录驱动生成失败: %d, %s", rec.Code, rec.Body.String())
	}
}

// TestCatalogEndpointErrors 基础数据端点的错误路径
func TestCatalogEndpointErrors(t *testing.T) {
	t.Run("残缺数据", func(t *testing.T) {
		mux := newTestMux(&memCatalog{}, nil, nil)
		rec := serveJSON(t, mux, http.MethodPut, "/api/v1/catalog", handler.TablesInput{
			Faculty: []*model.Faculty{{ID: 1, Name: "王老师", MaxHours: 10}},
		})
		wantAPIError(t, rec, http.StatusBadRequest, errors.CodeValidationFail)
	})

	t.Run("重复ID", func(t *testing.T) {
		mux := newTestMux(&memCatalog{}, nil, nil)
		input := miniTables()
		input.Faculty = append(input.Faculty, &model.Faculty{ID: 1, Name: "重复", MaxHours: 8})
		rec := serveJSON(t, mux, http.MethodPut, "/api/v1/catalog", input)
		wantAPIError(t, rec, http.StatusBadRequest, errors.CodeInvalidInput)
	})

	t.Run("存储未配置", func(t *testing.T) {
		mux := newTestMux(nil, nil, nil)
		rec := serveJSON(t, mux, http.MethodPut, "/api/v1/catalog", miniTables())
		wantAPIError(t, rec, http.StatusInternalServerError, errors.CodeInternal)
	})

	t.Run("DELETE方法", func(t *testing.T) {
		mux := newTestMux(&memCatalog{}, nil, nil)
		rec := serveJSON(t, mux, http.MethodDelete, "/api/v1/catalog", nil)
		wantAPIError(t, rec, http.StatusBadRequest, errors.CodeInvalidInput)
	})
}

// TestDatasetEndpoints 内置数据集的列表与详情
func TestDatasetEndpoints(t *testing.T) {
	mux := newTestMux(nil, nil, nil)

	rec := serveJSON(t, mux, http.MethodGet, "/api/v1/datasets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("列表状态码 = %d", rec.Code)
	}
	var list struct {
		Total    int                   `json:"total"`
		Datasets []handler.DatasetInfo `json:"datasets"`
	}
	decodeBody(t, rec, &list)
	if list.Total != len(dataset.All()) {
		t.Errorf("total = %d, 期望 %d", list.Total, len(dataset.All()))
	}
	names := make(map[string]bool)
	for _, info := range list.Datasets {
		names[info.Name] = true
		if info.Faculty == 0 || info.Subjects == 0 {
			t.Errorf("数据集 %s 摘要数量为零: %+v", info.Name, info)
		}
	}
	for _, want := range []string{"sample", "complex", "lab_scarce", "overloaded"} {
		if !names[want] {
			t.Errorf("列表缺少数据集 %s", want)
		}
	}

	rec = serveJSON(t, mux, http.MethodGet, "/api/v1/datasets/sample", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("详情状态码 = %d", rec.Code)
	}
	var detail dataset.Dataset
	decodeBody(t, rec, &detail)
	if detail.Name != "sample" || len(detail.Subjects) == 0 {
		t.Errorf("详情不符: name=%s subjects=%d", detail.Name, len(detail.Subjects))
	}

	rec = serveJSON(t, mux, http.MethodGet, "/api/v1/datasets/nonexistent", nil)
	wantAPIError(t, rec, http.StatusNotFound, errors.CodeNotFound)
}

// TestConstraintLibraryEndpoint 约束库端点
func TestConstraintLibraryEndpoint(t *testing.T) {
	mux := newTestMux(nil, nil, nil)

	rec := serveJSON(t, mux, http.MethodGet, "/api/v1/constraints/library", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d", rec.Code)
	}
	var resp constraints.LibraryResponse
	decodeBody(t, rec, &resp)
	if len(resp.Library) == 0 {
		t.Fatal("约束库不应为空")
	}
	presetNames := make(map[string]bool)
	for _, p := range resp.Presets {
		presetNames[p.Name] = true
	}
	if !presetNames[constraints.DefaultPreset] {
		t.Errorf("预设列表缺少 %s", constraints.DefaultPreset)
	}
	hard := 0
	for _, def := range resp.Library {
		if def.Type == "hard" {
			hard++
		}
	}
	if hard == 0 {
		t.Error("约束库应包含硬约束")
	}
}

// TestStatsEndpoints 满意度与利用率分析端点
func TestStatsEndpoints(t *testing.T) {
	mux := newTestMux(nil, nil, nil)

	rec := serveJSON(t, mux, http.MethodPost, "/api/v1/schedules/generate",
		handler.GenerateRequest{Dataset: "sample"})
	if rec.Code != http.StatusOK {
		t.Fatalf("生成失败: %d, %s", rec.Code, rec.Body.String())
	}
	var generated handler.GenerateResponse
	decodeBody(t, rec, &generated)

	t.Run("满意度", func(t *testing.T) {
		rec := serveJSON(t, mux, http.MethodPost, "/api/v1/stats/satisfaction", handler.StatsRequest{
			Dataset:  "sample",
			Meetings: generated.Meetings,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("状态码 = %d, 响应: %s", rec.Code, rec.Body.String())
		}
		var resp handler.SatisfactionResponse
		decodeBody(t, rec, &resp)
		if !resp.Success || resp.Data == nil {
			t.Fatalf("分析失败: %s", resp.Error)
		}
		if resp.Data.AverageScore < 0 || resp.Data.AverageScore > 100 {
			t.Errorf("平均满意度超界: %f", resp.Data.AverageScore)
		}
	})

	t.Run("利用率", func(t *testing.T) {
		rec := serveJSON(t, mux, http.MethodPost, "/api/v1/stats/utilization", handler.StatsRequest{
			Dataset:  "sample",
			Meetings: generated.Meetings,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("状态码 = %d, 响应: %s", rec.Code, rec.Body.String())
		}
		var resp handler.UtilizationResponse
		decodeBody(t, rec, &resp)
		if !resp.Success || resp.Data == nil {
			t.Fatalf("分析失败: %s", resp.Error)
		}
		if resp.Data.RoomUsageRate <= 0 {
			t.Errorf("教室使用率应为正: %f", resp.Data.RoomUsageRate)
		}
	})

	t.Run("缺少问题数据", func(t *testing.T) {
		rec := serveJSON(t, mux, http.MethodPost, "/api/v1/stats/satisfaction",
			handler.StatsRequest{Meetings: generated.Meetings})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("状态码 = %d, 期望 400", rec.Code)
		}
		var resp handler.SatisfactionResponse
		decodeBody(t, rec, &resp)
		if resp.Success || resp.Error == "" {
			t.Errorf("失败响应应带错误说明: %+v", resp)
		}
	})
}
