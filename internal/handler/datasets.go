package handler

import (
	"net/http"
	"strings"

	"github.com/paike/paike/pkg/dataset"
	"github.com/paike/paike/pkg/errors"
)

// DatasetInfo 内置数据集摘要
type DatasetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Faculty     int    `json:"faculty"`
	Subjects    int    `json:"subjects"`
	Classrooms  int    `json:"classrooms"`
	Timeslots   int    `json:"timeslots"`
}

// DatasetsHandler 列出全部内置数据集
func DatasetsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	all := dataset.All()
	items := make([]DatasetInfo, 0, len(all))
	for _, ds := range all {
		items = append(items, DatasetInfo{
			Name:        ds.Name,
			Description: ds.Description,
			Faculty:     len(ds.Faculty),
			Subjects:    len(ds.Subjects),
			Classrooms:  len(ds.Classrooms),
			Timeslots:   len(ds.Timeslots),
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":    len(items),
		"datasets": items,
	})
}

// DatasetDetailHandler 返回单个内置数据集的完整内容
func DatasetDetailHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/v1/datasets/")
	if name == "" || strings.Contains(name, "/") {
		respondError(w, errors.New(errors.CodeNotFound, "未知的数据集端点"))
		return
	}

	ds := dataset.ByName(name)
	if ds == nil {
		respondError(w, errors.NotFound("数据集", name))
		return
	}
	respondJSON(w, http.StatusOK, ds)
}
