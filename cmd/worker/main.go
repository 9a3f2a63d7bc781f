package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"jobboard/internal/config"
	"jobboard/internal/metrics"
	"jobboard/internal/notify"
	"jobboard/internal/tasks"
	"jobboard/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	concurrency := cfg.Queue.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr()}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Logger:      newAsynqLogger(logger),
	})

	emailHandler := worker.NewEmailTaskHandler(notify.NewMailer(cfg.SMTP, logger), logger)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeEmailDeliver, emailHandler)

	var scrape *http.Server
	if cfg.Queue.MetricsPort > 0 {
		scrape = metrics.NewScrapeServer(cfg.Queue.MetricsPort)
		go func() {
			if err := scrape.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics listener stopped", slog.Any("error", err))
			}
		}()
	}

	logger.Info("worker service started",
		slog.String("redis_addr", cfg.Redis.Addr()),
		slog.Int("concurrency", concurrency),
		slog.Int("metrics_port", cfg.Queue.MetricsPort),
	)
	runErr := server.Run(mux)
	if scrape != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = scrape.Shutdown(ctx)
		cancel()
	}
	if runErr != nil {
		logger.Error("worker server stopped", slog.Any("error", runErr))
		os.Exit(1)
	}
}

// asynqLogger 将 asynq 内部日志转到 slog。
type asynqLogger struct {
	l *slog.Logger
}

func newAsynqLogger(l *slog.Logger) *asynqLogger {
	return &asynqLogger{l: l.With(slog.String("component", "asynq"))}
}

func (a *asynqLogger) Debug(args ...any) { a.l.Debug(fmt.Sprint(args...)) }
func (a *asynqLogger) Info(args ...any)  { a.l.Info(fmt.Sprint(args...)) }
func (a *asynqLogger) Warn(args ...any)  { a.l.Warn(fmt.Sprint(args...)) }
func (a *asynqLogger) Error(args ...any) { a.l.Error(fmt.Sprint(args...)) }
func (a *asynqLogger) Fatal(args ...any) {
	a.l.Error(fmt.Sprint(args...))
	os.Exit(1)
}
