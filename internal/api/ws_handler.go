package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"jobboard/internal/auth"
	"jobboard/internal/notify"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 5 * time.Second
	wsAuthTimeout  = 10 * time.Second
)

// SessionAuthenticator turns a raw session token into a principal.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, raw string) (*auth.Principal, error)
}

// WsHandler 负责 WebSocket 鉴权，并把账号频道上的申请状态事件转发给客户端。
type WsHandler struct {
	redisClient    redis.UniversalClient
	sessions       SessionAuthenticator
	logger         *slog.Logger
	upgrader       websocket.Upgrader
	allowedOrigins []string
}

// NewWsHandler 构造 WebSocket 处理器。
func NewWsHandler(redisClient redis.UniversalClient, sessions SessionAuthenticator, logger *slog.Logger, allowedOrigins []string) *WsHandler {
	h := &WsHandler{
		redisClient:    redisClient,
		sessions:       sessions,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *WsHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(h.allowedOrigins) == 0 {
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// HandleConnection 负责升级连接并启动读写循环。
// 第一条消息必须是 {"type":"auth","token":"..."}。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	baseLog := h.logger.With(slog.String("client_ip", c.ClientIP()))

	accountCh := make(chan uint, 1)
	errCh := make(chan error, 2)

	_ = conn.SetReadDeadline(time.Now().Add(wsAuthTimeout))
	go h.readLoop(ctx, conn, accountCh, errCh, cancel, baseLog)

	var accountID uint
	select {
	case <-ctx.Done():
		return
	case err := <-errCh:
		if err != nil {
			baseLog.Warn("websocket authentication failed", slog.Any("error", err))
		}
		return
	case accountID = <-accountCh:
	}

	accountLog := baseLog.With(slog.Uint64("account_id", uint64(accountID)))
	go h.subscribeLoop(ctx, conn, accountID, errCh, cancel, accountLog)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			accountLog.Info("websocket connection closed", slog.Any("error", err))
		} else {
			accountLog.Info("websocket connection closed")
		}
	}
}

func (h *WsHandler) readLoop(
	ctx context.Context,
	conn *websocket.Conn,
	accountCh chan<- uint,
	errCh chan<- error,
	cancel context.CancelFunc,
	log *slog.Logger,
) {
	authenticated := false

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			writeClose(conn, websocket.CloseAbnormalClosure, "read error")
			errCh <- fmt.Errorf("read message: %w", err)
			cancel()
			return
		}

		if authenticated {
			// 客户端无需发送其它消息，保持读取以检测断开。
			continue
		}

		var authMsg wsAuthMessage
		if err := json.Unmarshal(message, &authMsg); err != nil {
			writeClose(conn, websocket.ClosePolicyViolation, "invalid auth payload")
			errCh <- fmt.Errorf("decode auth payload: %w", err)
			cancel()
			return
		}
		if authMsg.Type != "auth" || authMsg.Token == "" {
			writeClose(conn, websocket.ClosePolicyViolation, "auth required")
			errCh <- errors.New("invalid auth message")
			cancel()
			return
		}

		p, err := h.sessions.Authenticate(ctx, authMsg.Token)
		if err != nil {
			writeClose(conn, websocket.ClosePolicyViolation, "unauthorized")
			errCh <- fmt.Errorf("authenticate session: %w", err)
			cancel()
			return
		}

		authenticated = true
		_ = conn.SetReadDeadline(time.Time{})
		accountCh <- p.AccountID
		log.Info("websocket authenticated", slog.Uint64("account_id", uint64(p.AccountID)))
	}
}

func writeClose(conn *websocket.Conn, code int, text string) {
	deadline := time.Now().Add(wsWriteTimeout)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
}

func (h *WsHandler) subscribeLoop(
	ctx context.Context,
	conn *websocket.Conn,
	accountID uint,
	errCh chan<- error,
	cancel context.CancelFunc,
	log *slog.Logger,
) {
	channel := notify.LiveChannel(accountID)
	pubsub := h.redisClient.Subscribe(ctx, channel)
	defer pubsub.Close()

	log.Info("subscribed to redis channel", slog.String("channel", channel))

	ch := pubsub.Channel()
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				errCh <- errors.New("pubsub channel closed")
				cancel()
				return
			}

			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				errCh <- fmt.Errorf("write message: %w", err)
				cancel()
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(wsWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
				errCh <- fmt.Errorf("write ping: %w", err)
				cancel()
				return
			}
		}
	}
}
