package handler

import (
	"encoding/json"
	"net/http"

	"github.com/paike/paike/internal/repository"
	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/logger"
	"github.com/paike/paike/pkg/model"
)

// CatalogHandler 基础数据目录API处理器
// 目录即排课输入的四张基础表，整体读取、整体替换。
type CatalogHandler struct {
	repo repository.CatalogRepositoryInterface
}

// NewCatalogHandler 创建目录处理器
func NewCatalogHandler(repo repository.CatalogRepositoryInterface) *CatalogHandler {
	return &CatalogHandler{repo: repo}
}

// CatalogResponse 目录内容响应
type CatalogResponse struct {
	Faculty    []*model.Faculty   `json:"faculty"`
	Subjects   []*model.Subject   `json:"subjects"`
	Classrooms []*model.Classroom `json:"classrooms"`
	Timeslots  []*model.Timeslot  `json:"timeslots"`
}

// ReplaceResponse 目录替换响应
type ReplaceResponse struct {
	Replaced   bool `json:"replaced"`
	Faculty    int  `json:"faculty"`
	Subjects   int  `json:"subjects"`
	Classrooms int  `json:"classrooms"`
	Timeslots  int  `json:"timeslots"`
}

// Handle 读取或整体替换基础数据
func (h *CatalogHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, errors.New(errors.CodeInternal, "基础数据存储未配置"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.put(w, r)
	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET与PUT方法"))
	}
}

// get 返回目录全量内容，空目录返回空数组
func (h *CatalogHandler) get(w http.ResponseWriter, r *http.Request) {
	faculty, err := h.repo.ListFaculty(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	subjects, err := h.repo.ListSubjects(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	classrooms, err := h.repo.ListClassrooms(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	timeslots, err := h.repo.ListTimeslots(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	resp := CatalogResponse{
		Faculty:    faculty,
		Subjects:   subjects,
		Classrooms: classrooms,
		Timeslots:  timeslots,
	}
	if resp.Faculty == nil {
		resp.Faculty = []*model.Faculty{}
	}
	if resp.Subjects == nil {
		resp.Subjects = []*model.Subject{}
	}
	if resp.Classrooms == nil {
		resp.Classrooms = []*model.Classroom{}
	}
	if resp.Timeslots == nil {
		resp.Timeslots = []*model.Timeslot{}
	}
	respondJSON(w, http.StatusOK, resp)
}

// put 整体替换目录
// 先构建问题实例做重复ID检查与偏好补全，入库的是规范化后的记录。
func (h *CatalogHandler) put(w http.ResponseWriter, r *http.Request) {
	var input TablesInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	ve := &errors.ValidationErrors{}
	input.validate(ve)
	if ve.HasErrors() {
		respondError(w, ve.ToAppError())
		return
	}

	tables, err := input.Tables()
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "问题数据无效"))
		return
	}

	if err := h.repo.ReplaceAll(r.Context(), tables); err != nil {
		respondError(w, err)
		return
	}

	logger.WithContext(r.Context()).Info().
		Int("faculty", len(tables.Faculty)).
		Int("subjects", len(tables.Subjects)).
		Int("classrooms", len(tables.Classrooms)).
		Int("timeslots", len(tables.Timeslots)).
		Msg("基础数据已整体替换")

	respondJSON(w, http.StatusOK, ReplaceResponse{
		Replaced:   true,
		Faculty:    len(tables.Faculty),
		Subjects:   len(tables.Subjects),
		Classrooms: len(tables.Classrooms),
		Timeslots:  len(tables.Timeslots),
	})
}
