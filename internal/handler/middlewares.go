package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strconv"
	"time"

	"github.com/SimbaKVis/shift-manager/backend/internal/config"
	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)
		slog.Info("已处理请求", "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "duration", duration)
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

func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 从 cookie 中获取 token
		cookie, err := r.Cookie(TokenCookieName)
		if err != nil {
			switch {
			case errors.Is(err, http.ErrNoCookie):
				h.unauthorized(w, r, "用户未登录")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		// 验证 token
		claims := &AuthClaims{}
		_, err = jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(h.config.JWT.Secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			h.unauthorized(w, r, "无效的令牌")
			return
		}

		// 将 claims 中的 role 和 sub 附在 context 中
		ctx := r.Context()
		ctx = context.WithValue(ctx, RoleCtxKey, claims.Role)
		ctx = context.WithValue(ctx, SubCtxKey, claims.Subject)

		// 执行下一个 handler
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) myInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subString := r.Context().Value(SubCtxKey).(string)

		sub, err := strconv.ParseInt(subString, 10, 64)
		if err != nil {
			h.unauthorized(w, r, "无效的令牌")
			return
		}

		myInfo, err := h.service.GetUser(r.Context(), sub)
		if err != nil {
			var notFoundErr *domain.NotFoundError
			switch {
			case errors.As(err, &notFoundErr):
				// 登录之后账号被删除
				h.unauthorized(w, r, "个人信息不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), MyInfoCtx, myInfo)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) RequiredRole(roles []domain.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			roleCtx := r.Context().Value(RoleCtxKey).(string)
			role := domain.Role(roleCtx)
			if !slices.Contains(roles, role) {
				h.forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isAdmin(r *http.Request) bool {
	role, _ := r.Context().Value(RoleCtxKey).(string)
	return domain.Role(role) == domain.RoleAdmin
}

func me(r *http.Request) *domain.User {
	return r.Context().Value(MyInfoCtx).(*domain.User)
}

// urlID 解析路径中的 {id}
func urlID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// loadEntity 生成一个中间件：按路径中的 id 读取实体并放到 context 中
func loadEntity[T any](h *Handler, key ContextKey, invalidMsg string, get func(ctx context.Context, id int64) (T, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := urlID(r)
			if !ok {
				h.errorResponse(w, r, http.StatusBadRequest, invalidMsg)
				return
			}

			entity, err := get(r.Context(), id)
			if err != nil {
				h.serviceError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), key, entity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (h *Handler) userInfo(next http.Handler) http.Handler {
	return loadEntity(h, UserInfoCtx, "用户ID无效", h.service.GetUser)(next)
}

func (h *Handler) shiftType(next http.Handler) http.Handler {
	return loadEntity(h, ShiftTypeCtx, "班次类型ID无效", h.service.GetShiftType)(next)
}

func (h *Handler) shift(next http.Handler) http.Handler {
	return loadEntity(h, ShiftCtx, "班次ID无效", h.service.GetShift)(next)
}

func (h *Handler) swapRequest(next http.Handler) http.Handler {
	return loadEntity(h, SwapRequestCtx, "换班申请ID无效", h.service.GetSwapRequest)(next)
}

func (h *Handler) overtimeRequest(next http.Handler) http.Handler {
	return loadEntity(h, OvertimeRequestCtx, "加班申请ID无效", h.service.GetOvertimeRequest)(next)
}

func (h *Handler) preventOperateInitialAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(UserInfoCtx).(*domain.User)
		if user.Username == h.config.InitialAdmin.Username {
			h.errorResponse(w, r, http.StatusForbidden, "禁止操作初始管理员")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// selfOrAdmin 只允许用户本人或管理员访问 /users/{id} 下的资源
func (h *Handler) selfOrAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(UserInfoCtx).(*domain.User)
		if user.ID != me(r).ID && !isAdmin(r) {
			h.forbidden(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) swapPartyOrAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := r.Context().Value(SwapRequestCtx).(*domain.SwapRequest)
		if !req.Involves(me(r).ID) && !isAdmin(r) {
			h.forbidden(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// swapApprover 根据 SWAP_APPROVER 决定谁可以审批换班申请
func (h *Handler) swapApprover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := r.Context().Value(SwapRequestCtx).(*domain.SwapRequest)

		var allowed bool
		switch h.config.SwapApprover {
		case config.SwapApproverColleague:
			allowed = req.ColleagueID == me(r).ID
		default:
			allowed = isAdmin(r)
		}
		if !allowed {
			h.forbidden(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) overtimeOwnerOrAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := r.Context().Value(OvertimeRequestCtx).(*domain.OvertimeRequest)
		if req.UserID != me(r).ID && !isAdmin(r) {
			h.forbidden(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
