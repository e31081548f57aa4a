// Package e2e 端到端测试
// 以 httptest.Server 复刻 cmd/server 的组装：系统端点、全部API路由、
// 请求追踪、安全头与API密钥中间件，经回环TCP驱动完整请求路径。
// 数据库保持未接入，与无持久化模式的生产部署一致。
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paike/paike/internal/handler"
	"github.com/paike/paike/internal/metrics"
	"github.com/paike/paike/internal/middleware"
	"github.com/paike/paike/pkg/dataset"
	"github.com/paike/paike/pkg/runner"
)

// newServer 按主程序的路由表与中间件链启动测试服务器
func newServer(t *testing.T, apiKey string) *httptest.Server {
	t.Helper()

	jobRunner := runner.NewRunner(&runner.Config{
		Workers:    2,
		QueueSize:  8,
		JobTimeout: 30 * time.Second,
		Retention:  time.Hour,
	})
	jobRunner.Start(context.Background())
	t.Cleanup(jobRunner.Stop)

	scheduleHandler := handler.NewScheduleHandler(nil, nil, nil)
	schedulesHandler := handler.NewSchedulesHandler(nil)
	jobHandler := handler.NewJobHandler(jobRunner, nil)
	catalogHandler := handler.NewCatalogHandler(nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ok","service":"paike","database":"disabled"}`)
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"version":"test","build_time":"unknown","git_commit":"unknown"}`)
	})
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"message":"PaiKe 排课引擎 API v1"}`)
	})
	mux.HandleFunc("/api/v1/schedules/generate", scheduleHandler.Generate)
	mux.HandleFunc("/api/v1/schedules/validate", scheduleHandler.Validate)
	mux.HandleFunc("/api/v1/schedules", schedulesHandler.List)
	mux.HandleFunc("/api/v1/schedules/", schedulesHandler.Detail)
	mux.HandleFunc("/api/v1/jobs", jobHandler.Submit)
	mux.HandleFunc("/api/v1/jobs/", jobHandler.Detail)
	mux.HandleFunc("/api/v1/catalog", catalogHandler.Handle)
	mux.HandleFunc("/api/v1/datasets", handler.DatasetsHandler)
	mux.HandleFunc("/api/v1/datasets/", handler.DatasetDetailHandler)
	mux.HandleFunc("/api/v1/constraints/library", handler.ConstraintLibraryHandler)
	mux.HandleFunc("/api/v1/stats/satisfaction", handler.GetSatisfactionHandler)
	mux.HandleFunc("/api/v1/stats/utilization", handler.GetUtilizationHandler)
	mux.Handle("/metrics", metrics.Handler())

	apiKeyAuth := middleware.APIKeyAuth(&middleware.AuthConfig{
		APIKey:    apiKey,
		SkipPaths: middleware.DefaultSkipPaths(),
	})
	chain := requestIDMiddleware(middleware.SecurityHeadersMiddleware(apiKeyAuth(middleware.RecoveryMiddleware(mux))))

	ts := httptest.NewServer(chain)
	t.Cleanup(ts.Close)
	return ts
}

// requestIDMiddleware 与主程序一致的请求ID中间件
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

// postJSON 发送POST请求，解析响应体并返回状态码
func postJSON(t *testing.T, client *http.Client, url string, payload, out interface{}) int {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("序列化请求失败: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("读取响应失败: %v", err)
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("解析响应失败: %v, 响应: %s", err, body)
		}
	}
	return resp.StatusCode
}

// getJSON 发送GET请求，解析响应体并返回状态码
func getJSON(t *testing.T, client *http.Client, url string, out interface{}) int {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("读取响应失败: %v", err)
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("解析响应失败: %v, 响应: %s", err, body)
		}
	}
	return resp.StatusCode
}

// TestSystemEndpoints 系统端点经完整中间件链可达
func TestSystemEndpoints(t *testing.T) {
	ts := newServer(t, "")
	client := ts.Client()

	cases := []struct {
		path   string
		status int
	}{
		{"/health", http.StatusOK},
		{"/version", http.StatusOK},
		{"/api/v1/", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/nonexistent", http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			resp, err := client.Get(ts.URL + tc.path)
			if err != nil {
				t.Fatalf("请求失败: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.status {
				t.Errorf("状态码 = %d, 期望 %d", resp.StatusCode, tc.status)
			}
		})
	}

	var health struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	if status := getJSON(t, client, ts.URL+"/health", &health); status != http.StatusOK {
		t.Fatalf("健康检查状态码 = %d", status)
	}
	if health.Status != "ok" || health.Database != "disabled" {
		t.Errorf("健康检查响应不符: %+v", health)
	}
}

// TestSecurityAndTraceHeaders 每个响应都带安全头与请求ID
func TestSecurityAndTraceHeaders(t *testing.T) {
	ts := newServer(t, "")
	client := ts.Client()

	resp, err := client.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("响应缺少 X-Request-ID")
	}

	// 客户端携带的请求ID原样回传
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	if err != nil {
		t.Fatalf("构建请求失败: %v", err)
	}
	req.Header.Set("X-Request-ID", "trace-e2e-001")
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "trace-e2e-001" {
		t.Errorf("X-Request-ID = %q, 期望 trace-e2e-001", got)
	}
}

// TestAPIKeyEnforcement 配置密钥后API端点要求鉴权，系统端点放行
func TestAPIKeyEnforcement(t *testing.T) {
	const key = "e2e-secret-key"
	ts := newServer(t, key)
	client := ts.Client()

	get := func(t *testing.T, path, header, value string) int {
		t.Helper()
		req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
		if err != nil {
			t.Fatalf("构建请求失败: %v", err)
		}
		if header != "" {
			req.Header.Set(header, value)
		}
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("请求失败: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	t.Run("健康检查放行", func(t *testing.T) {
		if status := get(t, "/health", "", ""); status != http.StatusOK {
			t.Errorf("状态码 = %d", status)
		}
	})

	t.Run("监控端点放行", func(t *testing.T) {
		if status := get(t, "/metrics", "", ""); status != http.StatusOK {
			t.Errorf("状态码 = %d", status)
		}
	})

	t.Run("无密钥拒绝", func(t *testing.T) {
		if status := get(t, "/api/v1/datasets", "", ""); status != http.StatusUnauthorized {
			t.Errorf("状态码 = %d, 期望 401", status)
		}
	})

	t.Run("错误密钥拒绝", func(t *testing.T) {
		if status := get(t, "/api/v1/datasets", "X-API-Key", "wrong"); status != http.StatusUnauthorized {
			t.Errorf("状态码 = %d, 期望 401", status)
		}
	})

	t.Run("X-API-Key通过", func(t *testing.T) {
		if status := get(t, "/api/v1/datasets", "X-API-Key", key); status != http.StatusOK {
			t.Errorf("状态码 = %d, 期望 200", status)
		}
	})

	t.Run("Bearer通过", func(t *testing.T) {
		if status := get(t, "/api/v1/datasets", "Authorization", "Bearer "+key); status != http.StatusOK {
			t.Errorf("状态码 = %d, 期望 200", status)
		}
	})
}

// TestFullSchedulingWorkflow 完整排课工作流：生成、复查、分析、异步求解
func TestFullSchedulingWorkflow(t *testing.T) {
	ts := newServer(t, "")
	client := ts.Client()
	want := len(dataset.Sample().Subjects)

	// 1. 同步生成并附带穷举复查
	var generated handler.GenerateResponse
	status := postJSON(t, client, ts.URL+"/api/v1/schedules/generate", handler.GenerateRequest{
		Dataset: "sample",
		Options: &handler.GenerateOptions{Validate: true},
	}, &generated)
	if status != http.StatusOK {
		t.Fatalf("生成状态码 = %d", status)
	}
	if !generated.Success || len(generated.Meetings) != want {
		t.Fatalf("生成结果不符: success=%v meetings=%d", generated.Success, len(generated.Meetings))
	}
	if generated.Satisfaction == nil || generated.Utilization == nil {
		t.Error("生成响应缺少质量分析")
	}
	if len(generated.Violations) != 0 {
		t.Errorf("可行解不应有违规: %+v", generated.Violations)
	}

	// 2. 把产出交回复查端点
	var validated handler.ValidateResponse
	status = postJSON(t, client, ts.URL+"/api/v1/schedules/validate", handler.ValidateRequest{
		Dataset:  "sample",
		Meetings: generated.Meetings,
	}, &validated)
	if status != http.StatusOK {
		t.Fatalf("复查状态码 = %d", status)
	}
	if !validated.Valid || validated.Errors != 0 {
		t.Errorf("复查结果不符: valid=%v errors=%d", validated.Valid, validated.Errors)
	}

	// 3. 满意度分析
	var satisfaction handler.SatisfactionResponse
	status = postJSON(t, client, ts.URL+"/api/v1/stats/satisfaction", handler.StatsRequest{
		Dataset:  "sample",
		Meetings: generated.Meetings,
	}, &satisfaction)
	if status != http.StatusOK || !satisfaction.Success {
		t.Errorf("满意度分析失败: status=%d error=%s", status, satisfaction.Error)
	}

	// 4. 异步求解同一实例
	var job handler.JobResponse
	status = postJSON(t, client, ts.URL+"/api/v1/jobs", handler.JobRequest{
		Dataset: "sample",
	}, &job)
	if status != http.StatusAccepted {
		t.Fatalf("任务提交状态码 = %d, 期望 202", status)
	}

	deadline := time.Now().Add(15 * time.Second)
	for !job.State.Terminal() {
		if time.Now().After(deadline) {
			t.Fatalf("任务未在期限内完成, 当前状态 %s", job.State)
		}
		time.Sleep(25 * time.Millisecond)
		if status := getJSON(t, client, ts.URL+"/api/v1/jobs/"+job.ID, &job); status != http.StatusOK {
			t.Fatalf("任务查询状态码 = %d", status)
		}
	}
	if job.State != runner.StateDone {
		t.Fatalf("任务终态 = %s, 错误: %+v", job.State, job.Error)
	}

	var result handler.GenerateResponse
	if status := getJSON(t, client, ts.URL+"/api/v1/jobs/"+job.ID+"/result", &result); status != http.StatusOK {
		t.Fatalf("结果获取状态码 = %d", status)
	}
	if len(result.Meetings) != want {
		t.Errorf("异步结果课次 = %d, 期望 %d", len(result.Meetings), want)
	}

	// 5. 流量与求解指标已经落到监控端点
	resp, err := client.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("指标请求失败: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("读取指标失败: %v", err)
	}
	text := string(body)
	for _, metric := range []string{
		"paike_schedule_generation_total{",
		"paike_jobs_submitted_total{",
	} {
		if !strings.Contains(text, metric) {
			t.Errorf("指标输出缺少 %s", metric)
		}
	}
}

// TestDegradedPersistence 未接数据库时持久化端点明确报错，排课端点不受影响
func TestDegradedPersistence(t *testing.T) {
	ts := newServer(t, "")
	client := ts.Client()

	var failure struct {
		Error bool   `json:"error"`
		Code  string `json:"code"`
	}
	if status := getJSON(t, client, ts.URL+"/api/v1/schedules", &failure); status != http.StatusInternalServerError {
		t.Errorf("课表列表状态码 = %d, 期望 500", status)
	}
	if failure.Code != "INTERNAL_ERROR" {
		t.Errorf("错误码 = %s", failure.Code)
	}

	status := postJSON(t, client, ts.URL+"/api/v1/schedules/generate", handler.GenerateRequest{
		Dataset: "sample",
	}, nil)
	if status != http.StatusOK {
		t.Errorf("数据集排课状态码 = %d, 期望 200", status)
	}
}

// TestConcurrentGenerates 并发排课请求互不干扰
func TestConcurrentGenerates(t *testing.T) {
	ts := newServer(t, "")
	client := ts.Client()
	want := len(dataset.Sample().Subjects)

	const concurrency = 8
	var wg sync.WaitGroup
	errs := make(chan error, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			raw, err := json.Marshal(handler.GenerateRequest{
				Dataset: "sample",
				Options: &handler.GenerateOptions{Strategy: "csp"},
			})
			if err != nil {
				errs <- fmt.Errorf("请求 #%d 序列化失败: %w", id, err)
				return
			}
			resp, err := client.Post(ts.URL+"/api/v1/schedules/generate", "application/json", bytes.NewReader(raw))
			if err != nil {
				errs <- fmt.Errorf("请求 #%d 失败: %w", id, err)
				return
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				errs <- fmt.Errorf("请求 #%d 读取响应失败: %w", id, err)
				return
			}
			if resp.StatusCode != http.StatusOK {
				errs <- fmt.Errorf("请求 #%d 状态码 %d: %s", id, resp.StatusCode, body)
				return
			}
			var decoded handler.GenerateResponse
			if err := json.Unmarshal(body, &decoded); err != nil {
				errs <- fmt.Errorf("请求 #%d 解析失败: %w", id, err)
				return
			}
			if len(decoded.Meetings) != want {
				errs <- fmt.Errorf("请求 #%d 课次 = %d, 期望 %d", id, len(decoded.Meetings), want)
			}
		}(i)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
