// PaiKe 排课引擎服务
// 主程序入口

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/paike/paike/internal/config"
	"github.com/paike/paike/internal/database"
	"github.com/paike/paike/internal/handler"
	"github.com/paike/paike/internal/metrics"
	"github.com/paike/paike/internal/middleware"
	"github.com/paike/paike/internal/repository"
	"github.com/paike/paike/pkg/logger"
	"github.com/paike/paike/pkg/model"
	"github.com/paike/paike/pkg/runner"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(logger.Config{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		Output:   cfg.Logging.Output,
		FilePath: cfg.Logging.FilePath,
	})

	// 打印版本信息
	fmt.Printf("PaiKe 排课引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	// 连接数据库
	// 数据库不可用时服务降级运行：内联与内置数据集排课照常，
	// 目录与课表持久化端点返回未配置错误。
	var catalogRepo repository.CatalogRepositoryInterface
	var scheduleRepo repository.ScheduleRepositoryInterface

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("数据库不可用，以无持久化模式启动")
		db = nil
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := db.InitSchema(ctx); err != nil {
			cancel()
			logger.Error().Err(err).Msg("初始化数据库结构失败")
			db.Close()
			os.Exit(1)
		}
		cancel()
		catalogRepo = repository.NewCatalogRepository(db)
		scheduleRepo = repository.NewScheduleRepository(db)
	}

	// 启动异步任务运行器
	jobRunner := runner.NewRunner(&runner.Config{
		Workers:    cfg.Runner.Workers,
		QueueSize:  cfg.Runner.QueueSize,
		JobTimeout: cfg.Runner.JobTimeout,
		Retention:  cfg.Runner.Retention,
	})
	jobRunner.Start(context.Background())

	// 创建处理器
	scheduleHandler := handler.NewScheduleHandler(catalogRepo, scheduleRepo, &handler.ScheduleHandlerConfig{
		DefaultStrategy: model.Strategy(cfg.Scheduler.DefaultStrategy),
		DefaultTimeout:  cfg.Scheduler.DefaultTimeout,
	})
	schedulesHandler := handler.NewSchedulesHandler(scheduleRepo)
	jobHandler := handler.NewJobHandler(jobRunner, catalogRepo)
	catalogHandler := handler.NewCatalogHandler(catalogRepo)

	// 创建 HTTP 服务器
	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	// 健康检查端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		dbStatus := "disabled"
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Health(ctx); err != nil {
				dbStatus = "down"
			} else {
				dbStatus = "ok"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","service":"paike","database":"%s"}`, dbStatus)
	})

	// 版本信息端点
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	// API 根路由
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "PaiKe 排课引擎 API v1",
			"endpoints": {
				"schedules": {
					"generate": "POST /api/v1/schedules/generate",
					"validate": "POST /api/v1/schedules/validate",
					"list": "GET /api/v1/schedules",
					"get": "GET /api/v1/schedules/{id}",
					"latest": "GET /api/v1/schedules/latest",
					"delete": "DELETE /api/v1/schedules/{id}"
				},
				"jobs": {
					"submit": "POST /api/v1/jobs",
					"get": "GET /api/v1/jobs/{id}",
					"result": "GET /api/v1/jobs/{id}/result"
				},
				"catalog": {
					"get": "GET /api/v1/catalog",
					"replace": "PUT /api/v1/catalog"
				},
				"datasets": {
					"list": "GET /api/v1/datasets",
					"get": "GET /api/v1/datasets/{name}"
				},
				"constraints": {
					"library": "GET /api/v1/constraints/library"
				},
				"stats": {
					"satisfaction": "POST /api/v1/stats/satisfaction",
					"utilization": "POST /api/v1/stats/utilization"
				}
			}
		}`))
	})

	// 排课生成 API
	mux.HandleFunc("/api/v1/schedules/generate", scheduleHandler.Generate)

	// 课表校验 API
	mux.HandleFunc("/api/v1/schedules/validate", scheduleHandler.Validate)

	// 课表管理 API
	mux.HandleFunc("/api/v1/schedules", schedulesHandler.List)
	mux.HandleFunc("/api/v1/schedules/", schedulesHandler.Detail)

	// ========================================
	// 异步任务 API
	// ========================================

	// 任务提交 API
	mux.HandleFunc("/api/v1/jobs", jobHandler.Submit)

	// 任务查询与结果 API
	mux.HandleFunc("/api/v1/jobs/", jobHandler.Detail)

	// ========================================
	// 基础数据 API
	// ========================================

	// 目录读取与整体替换 API
	mux.HandleFunc("/api/v1/catalog", catalogHandler.Handle)

	// 内置数据集 API
	mux.HandleFunc("/api/v1/datasets", handler.DatasetsHandler)
	mux.HandleFunc("/api/v1/datasets/", handler.DatasetDetailHandler)

	// 约束库 API - 返回后端支持的所有约束及预设组合
	mux.HandleFunc("/api/v1/constraints/library", handler.ConstraintLibraryHandler)

	// ========================================
	// 统计分析 API
	// ========================================

	// 满意度分析 API
	mux.HandleFunc("/api/v1/stats/satisfaction", handler.GetSatisfactionHandler)

	// 资源利用率分析 API
	mux.HandleFunc("/api/v1/stats/utilization", handler.GetUtilizationHandler)

	// ========================================
	// 监控端点
	// ========================================

	// Prometheus 指标端点
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// 连接池指标采集
	if db != nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				s := db.Stats()
				metrics.SetDBConnections(s.OpenConnections, s.Idle, s.InUse)
			}
		}()
	}

	// ========================================
	// 中间件
	// ========================================

	// 按配置覆盖限流与跨域缺省值
	globalRateLimiter = NewRateLimiter(float64(cfg.Server.RateLimit))
	corsEnabled = cfg.Server.CORS.Enabled
	if len(cfg.Server.CORS.Origins) > 0 {
		corsAllowOrigin = cfg.Server.CORS.Origins[0]
	}

	apiKeyAuth := middleware.APIKeyAuth(&middleware.AuthConfig{
		APIKey:    cfg.Server.APIKey,
		SkipPaths: middleware.DefaultSkipPaths(),
	})

	// 创建带中间件的处理器
	// 中间件执行顺序：requestID -> rateLimit -> cors -> securityHeaders -> auth -> logging -> recovery -> handler
	handler := requestIDMiddleware(rateLimitMiddleware(corsMiddleware(middleware.SecurityHeadersMiddleware(apiKeyAuth(loggingMiddleware(middleware.RecoveryMiddleware(mux)))))))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: 2 * cfg.Server.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info().
			Int("port", cfg.Server.Port).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Str("url", fmt.Sprintf("http://localhost:%d", cfg.Server.Port)).
			Str("api_docs", fmt.Sprintf("http://localhost:%d/api/v1/", cfg.Server.Port)).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
	}

	jobRunner.Stop()

	if db != nil {
		db.Close()
	}

	logger.Info().Msg("服务器已关闭")
}

// requestIDMiddleware 请求ID追踪中间件
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 尝试从请求头获取 Request ID，没有则生成新的
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		// 设置响应头
		w.Header().Set("X-Request-ID", requestID)

		// 将 Request ID 存储到 context 中
		ctx := context.WithValue(r.Context(), "request_id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware 日志中间件
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// 获取 Request ID
		requestID, _ := r.Context().Value("request_id").(string)

		// 包装ResponseWriter以捕获状态码
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Dur("duration", duration).
			Msg("请求处理")

		// 记录Prometheus指标
		metrics.RecordRequestMetrics(r.Method, r.URL.Path, rw.statusCode, duration)
	})
}

// responseWriter 包装ResponseWriter以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RateLimiter 简单的令牌桶限流器
type RateLimiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // 每秒添加的令牌数
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter 创建限流器
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	return &RateLimiter{
		tokens:     requestsPerSecond,
		maxTokens:  requestsPerSecond * 2, // 允许突发流量
		refillRate: requestsPerSecond,
		lastRefill: time.Now(),
	}
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

var globalRateLimiter = NewRateLimiter(100) // 默认 100 QPS

// rateLimitMiddleware 限流中间件
func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !globalRateLimiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   true,
				"code":    "RATE_LIMITED",
				"message": "请求过于频繁，请稍后重试",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CORS配置，启动时由实际配置覆盖
var (
	corsEnabled     = true
	corsAllowOrigin = "*"
)

// corsMiddleware CORS中间件
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !corsEnabled {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", corsAllowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
