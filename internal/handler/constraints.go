package handler

import (
	"net/http"

	"github.com/paike/paike/internal/constraints"
	"github.com/paike/paike/pkg/errors"
)

// ConstraintLibraryHandler 返回约束库与预设清单
// 客户端据此得知可用的约束名称、默认权重与预设组合。
func ConstraintLibraryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	respondJSON(w, http.StatusOK, constraints.LibraryResponse{
		Library: constraints.GetLibrary(),
		Presets: constraints.GetPresets(),
	})
}
