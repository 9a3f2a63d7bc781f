package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"jobboard/internal/auth"
	"jobboard/internal/database"
)

const (
	principalKey = "principal"

	// SessionCookieName carries the session token for browser clients.
	SessionCookieName = "session_token"
	// RevokedSessionKeyPrefix marks logged-out token ids in Redis.
	RevokedSessionKeyPrefix = "auth:session:revoked:"
)

// PrincipalResolver loads the current account state for a token subject.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, accountID uint) (*auth.Principal, error)
}

// RevocationChecker is the part of Redis the session check needs.
type RevocationChecker interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Please login to continue."})
}

// Authenticator 校验会话令牌并把 Principal 注入上下文。
type Authenticator struct {
	tokens   *auth.TokenService
	resolver PrincipalResolver
	revoked  RevocationChecker
}

// NewAuthenticator builds the session middlewares.
func NewAuthenticator(tokens *auth.TokenService, resolver PrincipalResolver, revoked RevocationChecker) *Authenticator {
	return &Authenticator{tokens: tokens, resolver: resolver, revoked: revoked}
}

// SessionToken reads the token from the Authorization header or the cookie.
func SessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.Fields(header)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if token, err := c.Cookie(SessionCookieName); err == nil {
		return strings.TrimSpace(token)
	}
	return ""
}

// Authenticate validates a raw token and resolves its principal. The account
// is re-read so deactivation takes effect on the next request.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (*auth.Principal, error) {
	claims, err := a.tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	if a.revoked != nil {
		n, err := a.revoked.Exists(ctx, RevokedSessionKeyPrefix+claims.ID).Result()
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, errors.New("session revoked")
		}
	}
	p, err := a.resolver.ResolvePrincipal(ctx, claims.AccountID)
	if err != nil {
		return nil, err
	}
	p.TokenID = claims.ID
	return p, nil
}

// Required rejects requests without a valid session.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := SessionToken(c)
		if raw == "" {
			abortUnauthorized(c)
			return
		}
		p, err := a.Authenticate(c.Request.Context(), raw)
		if err != nil {
			LoggerFromContext(c).Info("session rejected", slog.Any("error", err))
			abortUnauthorized(c)
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// Optional attaches the principal when a valid session is present and lets
// anonymous requests through.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := SessionToken(c); raw != "" {
			if p, err := a.Authenticate(c.Request.Context(), raw); err == nil {
				c.Set(principalKey, p)
			}
		}
		c.Next()
	}
}

// RequireRole 仅放行指定角色，必须挂在 Required 之后。
func RequireRole(role database.Role, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFromContext(c)
		if p == nil {
			abortUnauthorized(c)
			return
		}
		if p.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msg})
			return
		}
		c.Next()
	}
}

// PrincipalFromContext returns the request principal, or nil when anonymous.
func PrincipalFromContext(c *gin.Context) *auth.Principal {
	if value, ok := c.Get(principalKey); ok {
		if p, ok := value.(*auth.Principal); ok {
			return p
		}
	}
	return nil
}
