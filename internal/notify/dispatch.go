package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"jobboard/internal/metrics"
	"jobboard/internal/reqctx"
	"jobboard/internal/tasks"
)

// MailDispatcher sends inline on the caller's goroutine. A transport failure
// is logged with the message contents and returned; callers decide whether it
// matters.
type MailDispatcher struct {
	mailer Mailer
	logger *slog.Logger
}

// NewMailDispatcher wraps a mailer.
func NewMailDispatcher(mailer Mailer, logger *slog.Logger) *MailDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &MailDispatcher{mailer: mailer, logger: logger}
}

func (d *MailDispatcher) Dispatch(ctx context.Context, msg Message) error {
	err := d.mailer.Send(ctx, msg)
	metrics.EmailSent(string(msg.Kind), err == nil)
	if err != nil {
		d.logger.Error("email delivery failed, console fallback",
			slog.String("correlation_id", reqctx.CorrelationID(ctx)),
			slog.String("kind", string(msg.Kind)),
			slog.String("to", msg.To),
			slog.String("subject", msg.Subject),
			slog.String("body", msg.Text),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// Enqueuer is the subset of *asynq.Client the queue dispatcher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueDispatcher defers delivery to the worker through asynq.
type QueueDispatcher struct {
	client   Enqueuer
	maxRetry int
	logger   *slog.Logger
}

// NewQueueDispatcher builds a dispatcher that enqueues email:deliver tasks.
func NewQueueDispatcher(client Enqueuer, maxRetry int, logger *slog.Logger) *QueueDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueDispatcher{client: client, maxRetry: maxRetry, logger: logger}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, msg Message) error {
	task, err := tasks.NewEmailDeliverTask(tasks.EmailDeliverPayload{
		Kind:          string(msg.Kind),
		To:            msg.To,
		Subject:       msg.Subject,
		HTML:          msg.HTML,
		Text:          msg.Text,
		CorrelationID: reqctx.CorrelationID(ctx),
	}, asynq.MaxRetry(d.maxRetry))
	if err != nil {
		return err
	}

	info, err := d.client.EnqueueContext(ctx, task)
	if err != nil {
		d.logger.Error("enqueue email failed",
			slog.String("kind", string(msg.Kind)),
			slog.String("to", msg.To),
			slog.Any("error", err),
		)
		return fmt.Errorf("enqueue %s email: %w", msg.Kind, err)
	}
	d.logger.Debug("email enqueued", slog.String("task_id", info.ID), slog.String("kind", string(msg.Kind)))
	return nil
}

// FromPayload rebuilds a message from a queued task.
func FromPayload(p tasks.EmailDeliverPayload) Message {
	return Message{Kind: Kind(p.Kind), To: p.To, Subject: p.Subject, HTML: p.HTML, Text: p.Text}
}
