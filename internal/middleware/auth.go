// Package middleware 提供HTTP中间件
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/paike/paike/pkg/logger"
)

// AuthConfig 认证配置
type AuthConfig struct {
	// APIKey 服务端密钥，为空时不启用鉴权
	APIKey string

	// SkipPaths 跳过鉴权的路径前缀
	SkipPaths []string
}

// DefaultSkipPaths 缺省放行的路径前缀
// 健康检查、版本信息与监控端点不要求密钥。
func DefaultSkipPaths() []string {
	return []string{"/health", "/version", "/metrics"}
}

// APIKeyAuth API密钥鉴权中间件
// 未配置密钥时直接放行；密钥比较使用常数时间算法。
func APIKeyAuth(config *AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config == nil || config.APIKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			// 检查是否跳过鉴权
			for _, path := range config.SkipPaths {
				if strings.HasPrefix(r.URL.Path, path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			key := ExtractAPIKey(r)
			if key == "" {
				http.Error(w, `{"error":true,"code":"UNAUTHORIZED","message":"API密钥未提供"}`, http.StatusUnauthorized)
				return
			}

			if subtle.ConstantTimeCompare([]byte(key), []byte(config.APIKey)) != 1 {
				logger.Warn().
					Str("path", r.URL.Path).
					Str("remote", r.RemoteAddr).
					Msg("API密钥验证失败")
				http.Error(w, `{"error":true,"code":"UNAUTHORIZED","message":"无效的API密钥"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ExtractAPIKey 从请求中提取API密钥
// 依次尝试 Authorization Bearer 头、X-API-Key 头与 api_key 查询参数。
func ExtractAPIKey(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}

	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}

	if key := r.URL.Query().Get("api_key"); key != "" {
		return key
	}

	return ""
}

// SecurityHeadersMiddleware 安全头中间件
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")

		next.ServeHTTP(w, r)
	})
}

// RecoveryMiddleware 恢复中间件（捕获panic）
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error().
					Interface("panic", err).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("请求处理发生panic")
				http.Error(w, `{"error":true,"code":"INTERNAL_ERROR","message":"服务器内部错误"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
