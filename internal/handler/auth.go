package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
	"github.com/jobseek-dev/job-board/backend/internal/service"
)

const tokenCookieName = "__job_board_token"

type AuthClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (h *Handler) issueToken(user *domain.User) (string, time.Time, error) {
	now := time.Now()
	expiration := now.Add(time.Duration(h.config.JWT.Expiration) * time.Hour)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
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

func (h *Handler) parseToken(tokenString string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(h.config.JWT.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func revokedTokenKey(jti string) string {
	return "jwt:revoked:" + jti
}

func (h *Handler) isTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if h.redisClient == nil || jti == "" {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.config.Redis.ConnectTimeout)*time.Second)
	defer cancel()

	if err := h.redisClient.Get(ctx, revokedTokenKey(jti)).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// revokeToken 把令牌加入黑名单直到它本身过期
func (h *Handler) revokeToken(ctx context.Context, claims *AuthClaims) error {
	if h.redisClient == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.config.Redis.ConnectTimeout)*time.Second)
	defer cancel()

	return h.redisClient.Set(ctx, revokedTokenKey(claims.ID), 1, ttl).Err()
}

// setTokenCookie 通过 http-only 的 cookie 返回给浏览器，同时响应体中也带上令牌
func (h *Handler) setTokenCookie(w http.ResponseWriter, token string, expiration time.Time) {
	cookie := &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Expires:  expiration,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
	}

	if h.config.IsProduction() {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, cookie)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string          `json:"name" validate:"required,max=100"`
		Email    string          `json:"email" validate:"required,email"`
		Password string          `json:"password" validate:"required,min=6,max=72"`
		Role     string          `json:"role" validate:"required,oneof=jobseeker employer"`
		Profile  *domain.Profile `json:"profile"`
		Company  *domain.Company `json:"company"`
	}

	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	in := service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	}
	if req.Profile != nil {
		in.Profile = *req.Profile
	}
	if req.Company != nil {
		in.Company = *req.Company
	}

	user, err := h.service.Register(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	token, expiration, err := h.issueToken(user)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	h.setTokenCookie(w, token, expiration)

	h.createdResponse(w, r, "registered successfully", authResponse{Token: token, User: user})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	// 验证邮箱和密码
	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	token, expiration, err := h.issueToken(user)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	h.setTokenCookie(w, token, expiration)

	h.successResponse(w, r, "logged in successfully", authResponse{Token: token, User: user})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := r.Context().Value(ClaimsCtx).(*AuthClaims); ok {
		if err := h.revokeToken(r.Context(), claims); err != nil {
			// redis 不可用时仍然清除 cookie
			slog.Warn("注销令牌失败", "request_id", requestIDFrom(r), "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:    tokenCookieName,
		Value:   "",
		Expires: time.Now().Add(-time.Hour),
		Path:    "/",
	})

	h.successResponse(w, r, "logged out successfully", nil)
}
