package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/paike/paike/pkg/dataset"
	"github.com/paike/paike/pkg/model"
	"github.com/paike/paike/pkg/stats"
)

// StatsRequest 统计请求
type StatsRequest struct {
	Tables   *TablesInput     `json:"tables,omitempty"`
	Dataset  string           `json:"dataset,omitempty"`
	Meetings []*model.Meeting `json:"meetings"`
}

// SatisfactionResponse 满意度响应
type SatisfactionResponse struct {
	Success bool                       `json:"success"`
	Data    *stats.SatisfactionMetrics `json:"data,omitempty"`
	Error   string                     `json:"error,omitempty"`
}

// UtilizationResponse 资源利用率响应
type UtilizationResponse struct {
	Success bool                      `json:"success"`
	Data    *stats.UtilizationMetrics `json:"data,omitempty"`
	Error   string                    `json:"error,omitempty"`
}

// GetSatisfactionHandler 教师偏好满意度分析API
func GetSatisfactionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req StatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	tables, err := statsTables(&req)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Printf("接收满意度分析请求: faculty=%d, meetings=%d",
		len(tables.Faculty), len(req.Meetings))

	analyzer := stats.NewSatisfactionAnalyzer()
	metrics := analyzer.Analyze(req.Meetings, tables.Faculty)

	resp := SatisfactionResponse{
		Success: true,
		Data:    metrics,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetUtilizationHandler 资源利用率分析API
func GetUtilizationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req StatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	tables, err := statsTables(&req)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Printf("接收利用率分析请求: classrooms=%d, timeslots=%d, meetings=%d",
		len(tables.Classrooms), len(tables.Timeslots), len(req.Meetings))

	analyzer := stats.NewUtilizationAnalyzer()
	metrics := analyzer.Analyze(req.Meetings, tables)

	resp := UtilizationResponse{
		Success: true,
		Data:    metrics,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// statsTables 解析统计请求携带的问题数据
// 统计端点不接数据库，问题数据只能随请求内联或指定内置数据集。
func statsTables(req *StatsRequest) (*model.Tables, error) {
	if req.Tables != nil && !req.Tables.Empty() {
		tables, err := req.Tables.Tables()
		if err != nil {
			return nil, fmt.Errorf("问题数据无效: %w", err)
		}
		return tables, nil
	}

	if req.Dataset != "" {
		ds := dataset.ByName(req.Dataset)
		if ds == nil {
			return nil, fmt.Errorf("数据集不存在: %s", req.Dataset)
		}
		tables, err := ds.Tables()
		if err != nil {
			return nil, fmt.Errorf("内置数据集损坏: %w", err)
		}
		return tables, nil
	}

	return nil, fmt.Errorf("未提供问题数据")
}

// sendJSONError 发送JSON错误响应
func sendJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
