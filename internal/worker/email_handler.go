package worker

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"jobboard/internal/metrics"
	"jobboard/internal/notify"
	"jobboard/internal/tasks"
)

// EmailTaskHandler consumes email:deliver tasks.
type EmailTaskHandler struct {
	mailer   notify.Mailer
	fallback notify.Mailer
	logger   *slog.Logger
}

// NewEmailTaskHandler 创建邮件投递任务处理器。
func NewEmailTaskHandler(mailer notify.Mailer, logger *slog.Logger) *EmailTaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailTaskHandler{
		mailer:   mailer,
		fallback: notify.NewConsoleMailer(logger),
		logger:   logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *EmailTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	payload, err := tasks.ParseEmailDeliverPayload(t)
	if err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		// a malformed payload will never succeed
		return asynq.SkipRetry
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("kind", payload.Kind),
		slog.String("to", payload.To),
	)

	msg := notify.FromPayload(payload)
	err = h.mailer.Send(ctx, msg)
	metrics.EmailSent(payload.Kind, err == nil)
	if err == nil {
		log.Info("email delivered")
		return nil
	}

	if !isFinalAsynqAttempt(ctx) {
		log.Warn("email delivery failed, will retry", slog.Any("error", err))
		return err
	}

	log.Error("email delivery failed on final attempt, console fallback", slog.Any("error", err))
	if ferr := h.fallback.Send(ctx, msg); ferr != nil {
		return ferr
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
