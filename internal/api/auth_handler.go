package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"jobboard/internal/account"
	"jobboard/internal/api/middleware"
	"jobboard/internal/auth"
	"jobboard/internal/config"
	"jobboard/internal/metrics"
)

// AuthHandler 处理注册、OTP 校验、登录、退出与找回密码。
type AuthHandler struct {
	accounts              *account.Service
	tokens                *auth.TokenService
	redis                 redis.UniversalClient
	logger                *slog.Logger
	loginRateLimitPerHour int
	loginLockThreshold    int
	loginLockTTL          time.Duration
	cookieDomain          string
}

// NewAuthHandler 构造认证处理器。
func NewAuthHandler(accounts *account.Service, tokens *auth.TokenService, redisClient redis.UniversalClient, logger *slog.Logger, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{
		accounts:              accounts,
		tokens:                tokens,
		redis:                 redisClient,
		logger:                logger,
		loginRateLimitPerHour: cfg.LoginRateLimitPerHour,
		loginLockThreshold:    cfg.LoginLockThreshold,
		loginLockTTL:          cfg.LoginLockTTL,
		cookieDomain:          cfg.CookieDomain,
	}
}

type registerRequest struct {
	Role            string `json:"role" form:"role"`
	FirstName       string `json:"first_name" form:"first_name"`
	LastName        string `json:"last_name" form:"last_name"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
	CompanyName     string `json:"company_name" form:"company_name"`
}

type codeResponse struct {
	Message string `json:"message"`
	account.CodeDelivery
}

func codeSentMessage(d account.CodeDelivery, sent, fallback string) codeResponse {
	if d.Sent {
		return codeResponse{Message: sent, CodeDelivery: d}
	}
	return codeResponse{Message: fallback, CodeDelivery: d}
}

// Register 创建账号与对应角色的资料，并发送验证码。
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, "Invalid request body.")
		return
	}

	res, err := h.accounts.Register(c.Request.Context(), account.RegisterInput{
		Role:            req.Role,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		CompanyName:     req.CompanyName,
	})
	if err != nil {
		Fail(c, err)
		return
	}

	h.loggerFromContext(c).Info("account registered", slog.Uint64("account_id", uint64(res.AccountID)))
	c.JSON(http.StatusCreated, gin.H{
		"account_id": res.AccountID,
		"role":       res.Role,
		"delivery": codeSentMessage(res.Delivery,
			"Registration successful! Please check your email for the OTP.",
			"Registration successful! Email could not be sent; use the code shown to verify."),
	})
}

type emailCodeRequest struct {
	Email string `json:"email" form:"email"`
	OTP   string `json:"otp" form:"otp"`
}

// Verify 校验注册验证码；重复提交同样返回成功。
func (h *AuthHandler) Verify(c *gin.Context) {
	var req emailCodeRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, "Invalid request body.")
		return
	}
	res, err := h.accounts.Verify(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		Fail(c, err)
		return
	}
	msg := "Account verified successfully! You can now login."
	if res.AlreadyVerified {
		msg = "Account already verified. Please login."
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "already_verified": res.AlreadyVerified})
}

// Resend 重新生成验证码，旧码立即失效。
func (h *AuthHandler) Resend(c *gin.Context) {
	var req emailCodeRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, "Invalid request body.")
		return
	}
	res, err := h.accounts.Resend(c.Request.Context(), req.Email)
	if err != nil {
		Fail(c, err)
		return
	}
	if res.AlreadyVerified {
		c.JSON(http.StatusOK, gin.H{"message": "Account already verified. Please login.", "already_verified": true})
		return
	}
	c.JSON(http.StatusOK, codeSentMessage(res.Delivery,
		"A new OTP has been sent to your email.",
		"Email could not be sent; use the code shown to verify."))
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type tokenResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresIn   int        `json:"expires_in"`
	Session     SessionDTO `json:"session"`
}

// Login 校验口令与账号状态并签发会话令牌。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, "Invalid request body.")
		return
	}

	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))
	logger := h.loggerFromContext(c).With(slog.String("email", email))

	// 速率限制：每 IP+邮箱 每小时 N 次
	rateKey := "rate:login:" + c.ClientIP() + ":" + email + ":" + time.Now().UTC().Format("2006010215")
	count, err := incrWithTTL(ctx, h.redis, rateKey, time.Hour)
	if err != nil {
		logger.Warn("login rate counter unavailable", slog.Any("error", err))
		count = 0
	}
	if h.loginRateLimitPerHour > 0 && count > int64(h.loginRateLimitPerHour) {
		metrics.LoginAttempt("rate_limited")
		Error(c, http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
		return
	}

	// 锁定检查
	if email != "" {
		if ttl, _ := h.redis.TTL(ctx, "lock:login:"+email).Result(); ttl > 0 {
			metrics.LoginAttempt("locked")
			Error(c, http.StatusTooManyRequests, "Account temporarily locked. Please try again later.")
			return
		}
	}

	p, err := h.accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrBadCredentials) {
			logger.Info("login failed: bad credentials")
			_ = h.incrementLoginFail(ctx, email)
			metrics.LoginAttempt("bad_credentials")
		} else {
			metrics.LoginAttempt("rejected")
		}
		Fail(c, err)
		return
	}

	// 登录成功：清理失败计数
	_ = h.redis.Del(ctx, "lock:login:fail:"+email).Err()

	token, _, err := h.tokens.Issue(p)
	if err != nil {
		logger.Error("issue session token failed", slog.Any("error", err))
		Internal(c, internalErrorMessage)
		return
	}
	metrics.LoginAttempt("success")

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.tokens.TTL().Seconds()),
		Session:     toSessionDTO(p),
	})
}

// Logout 吊销当前会话令牌并清除 Cookie；令牌缺失或无效时同样返回成功。
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	logger := h.loggerFromContext(c)

	if raw := middleware.SessionToken(c); raw != "" {
		if claims, err := h.tokens.Parse(raw); err == nil {
			ttl := h.tokens.TTL()
			if claims.ExpiresAt != nil {
				ttl = time.Until(claims.ExpiresAt.Time)
			}
			if ttl <= 0 {
				ttl = time.Second
			}
			if err := h.redis.Set(ctx, middleware.RevokedSessionKeyPrefix+claims.ID, "revoked", ttl).Err(); err != nil {
				logger.Error("logout revoke session failed", slog.Any("error", err))
			}
		}
	}

	// 清除 Cookie。
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		Secure:   h.isHTTPSRequest(c),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Domain:   h.getCookieDomain(),
	})
	c.JSON(http.StatusOK, gin.H{"message": "You have been logged out successfully."})
}

type forgotRequest struct {
	Email string `json:"email" form:"email"`
}

// ForgotPassword 为已存在的账号发送重置码。
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, "Invalid request body.")
		return
	}
	d, err := h.accounts.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, codeSentMessage(*d,
		"A password reset OTP has been sent to your email.",
		"Email could not be sent; use the code shown to reset your password."))
}

// ResendResetCode 重新发送重置码。
func (h *AuthHandler) ResendResetCode(c *gin.Context) {
	var req forgotRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, "Invalid request body.")
		return
	}
	d, err := h.accounts.ResendResetCode(c.Request.Context(), req.Email)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, codeSentMessage(*d,
		"A new password reset OTP has been sent to your email.",
		"Email could not be sent; use the code shown to reset your password."))
}

type resetRequest struct {
	Email           string `json:"email" form:"email"`
	OTP             string `json:"otp" form:"otp"`
	NewPassword     string `json:"new_password" form:"new_password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// ResetPassword 校验重置码并更新密码。
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, "Invalid request body.")
		return
	}
	err := h.accounts.ResetPassword(c.Request.Context(), account.ResetInput{
		Email:           req.Email,
		Code:            req.OTP,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful! You can now login with your new password."})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	ttl := h.tokens.TTL()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		MaxAge:   int(ttl.Seconds()),
		Path:     "/",
		Secure:   h.isHTTPSRequest(c),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Domain:   h.getCookieDomain(),
		Expires:  time.Now().Add(ttl),
	})
}

func (h *AuthHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

func (h *AuthHandler) isHTTPSRequest(c *gin.Context) bool {
	if c.Request == nil {
		return false
	}
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.Request.Header.Get("X-Forwarded-Proto"), "https")
}

func (h *AuthHandler) getCookieDomain() string { return strings.TrimSpace(h.cookieDomain) }

func (h *AuthHandler) incrementLoginFail(ctx context.Context, email string) error {
	if email == "" || h.loginLockThreshold <= 0 {
		return nil
	}
	failKey := "lock:login:fail:" + email
	count, err := incrWithTTL(ctx, h.redis, failKey, h.loginLockTTL)
	if err != nil {
		return err
	}
	if count >= int64(h.loginLockThreshold) {
		_ = h.redis.Set(ctx, "lock:login:"+email, "1", h.loginLockTTL).Err()
	}
	return nil
}
