package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/SimbaKVis/shift-manager/backend/internal/utils"
	"github.com/golang-jwt/jwt/v5"
)

const TokenCookieName = "__shift_manager_token"

type AuthClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// issueToken 为用户签发 JWT，过期时间以秒为单位配置
func (h *Handler) issueToken(user *domain.User, now time.Time) (string, time.Time, error) {
	expiration := now.Add(time.Duration(h.config.JWT.Expiration) * time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   strconv.FormatInt(user.ID, 10),
		},
	})
	ss, err := token.SignedString([]byte(h.config.JWT.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return ss, expiration, nil
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 验证用户名和密码
	user, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	ss, expiration, err := h.issueToken(user, time.Now())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 通过 http-only 的 cookie 返回给客户端
	cookie := &http.Cookie{
		Name:     TokenCookieName,
		Value:    ss,
		Expires:  expiration,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
	}

	if h.config.Environment == "production" {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, cookie)

	h.successResponse(w, r, "登录成功", user)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:    TokenCookieName,
		Value:   "",
		Expires: time.Now().Add(-time.Hour),
		Path:    "/",
	})

	h.successResponse(w, r, "登出成功", nil)
}

func (h *Handler) RequireResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user, err := h.service.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		var notFoundErr *domain.NotFoundError
		switch {
		case errors.As(err, &notFoundErr):
			// 这里虽然已经知道了用户不存在，但是为了安全起见，还是告诉客户端邮件已发送，以防止接口被滥用
			h.successResponse(w, r, "重置密码所需验证码已通过邮件发送", nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 生成 OTP 并将 OTP 存到 redis
	otp := utils.GenerateRandomOTP()

	if err := h.otpStore.SetOTP(r.Context(), resetPasswordOTPKey(user.Username), otp, time.Duration(h.config.OTP.Expiration)*time.Second); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	mailMessage := domain.MailMessage{
		Type: domain.MailTypeResetPassword,
		To:   user.Email,
		Data: domain.ResetPasswordMailData{
			FullName:   user.FullName,
			OTP:        otp,
			Expiration: h.config.OTP.Expiration / 60, // 邮件中显示的过期时间以分钟为单位，而配置中以秒为单位
		},
	}

	// 没有写入任何业务数据，投递失败时直接返回错误让用户重试
	if err := h.mailer.PublishMail(r.Context(), mailMessage); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "重置密码所需验证码已通过邮件发送", nil)
}

func (h *Handler) ConfirmResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		OTP      string `json:"otp" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 检验 OTP
	key := resetPasswordOTPKey(req.Username)
	otp, err := h.otpStore.GetOTP(r.Context(), key)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if otp == "" || otp != req.OTP {
		h.errorResponse(w, r, http.StatusBadRequest, "验证码错误")
		return
	}

	user, err := h.service.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), user.ID, req.Password); err != nil {
		h.serviceError(w, r, err)
		return
	}

	// 删除 OTP
	if err := h.otpStore.DeleteOTP(r.Context(), key); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "重置密码成功", nil)
}
