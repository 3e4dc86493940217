package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		ctx := context.WithValue(r.Context(), RequestIDCtx, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)
		slog.Info("已处理请求", "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "duration", duration, "request_id", requestIDFrom(r))
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				stackTrace := string(debug.Stack())
				fmt.Print(stackTrace) // 这里如果用 slog 的话会很乱
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// tokenFromRequest 优先使用 Authorization 头，其次是 cookie
func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}

	if cookie, err := r.Cookie(tokenCookieName); err == nil {
		return cookie.Value
	}

	return ""
}

func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := tokenFromRequest(r)
		if tokenString == "" {
			h.errorResponse(w, r, http.StatusUnauthorized, "no token, authorization denied")
			return
		}

		// 验证 token
		claims, err := h.parseToken(tokenString)
		if err != nil {
			h.errorResponse(w, r, http.StatusUnauthorized, "token is not valid")
			return
		}

		revoked, err := h.isTokenRevoked(r.Context(), claims.ID)
		if err != nil {
			// redis 不可用时放行
			slog.Warn("检查令牌是否注销失败", "request_id", requestIDFrom(r), "error", err)
		}
		if revoked {
			h.errorResponse(w, r, http.StatusUnauthorized, "token has been revoked")
			return
		}

		userID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			h.errorResponse(w, r, http.StatusUnauthorized, "token is not valid")
			return
		}

		myInfo, err := h.service.GetUser(r.Context(), userID)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				h.errorResponse(w, r, http.StatusUnauthorized, "token is not valid")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		// 将 claims 和当前用户附在 context 中
		ctx := r.Context()
		ctx = context.WithValue(ctx, ClaimsCtx, claims)
		ctx = context.WithValue(ctx, MyInfoCtx, myInfo)

		// 执行下一个 handler
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequiredRole 依据数据库中的角色判断，而不是令牌中的角色
func (h *Handler) RequiredRole(roles []domain.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			myInfo := myInfoFrom(r)
			if myInfo == nil {
				h.errorResponse(w, r, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !slices.Contains(roles, myInfo.Role) {
				h.errorResponse(w, r, http.StatusForbidden, "access denied: insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
	return host
}

func rateLimitKey(scope string, r *http.Request) string {
	return "rl:" + scope + ":ip:" + clientIP(r)
}

// incrExpireScript 原子地自增计数，第一次自增时设置过期时间
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// rateLimit 按客户端 IP 限制窗口内的请求次数，redis 出错时放行
func (h *Handler) rateLimit(scope string, limit int, window time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 || window <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if h.redisClient == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := rateLimitKey(scope, r)

			count, err := incrExpireScript.Run(ctx, h.redisClient, []string{key}, window.Milliseconds()).Int()
			if err != nil {
				slog.Warn("限流计数失败", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			resetSec := 0
			if ttl, err := h.redisClient.PTTL(ctx, key).Result(); err == nil && ttl > 0 {
				resetSec = int((ttl + time.Second - 1) / time.Second)
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, limit-count)))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetSec))

			if count > limit {
				if resetSec > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(resetSec))
				}
				h.errorResponse(w, r, http.StatusTooManyRequests, "too many requests, please try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) readIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid("invalid " + name)
	}
	return id, nil
}
