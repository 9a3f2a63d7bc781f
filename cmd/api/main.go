package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"jobboard/internal/account"
	"jobboard/internal/api"
	"jobboard/internal/auth"
	"jobboard/internal/chat"
	"jobboard/internal/config"
	"jobboard/internal/database"
	"jobboard/internal/jobs"
	"jobboard/internal/notify"
	"jobboard/internal/scan"
	"jobboard/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	logger.Info("api bootstrapped",
		slog.String("db_host", cfg.Database.Host),
		slog.Int("db_port", cfg.Database.Port),
		slog.String("db_name", cfg.Database.Name),
	)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	logger.Info("database migrated")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), ContextTimeoutEnabled: true})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("ping redis: %v", err)
	}
	cancel()

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	pingCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	if err := storageClient.Ping(pingCtx); err != nil {
		logger.Warn("storage not reachable, resume uploads will fail", slog.Any("error", err))
	}
	cancel()
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	// 验证码邮件必须同步投递：失败时需要把验证码回显给用户。
	mailer := notify.NewMailer(cfg.SMTP, logger)
	codeMail := notify.NewMailDispatcher(mailer, logger)
	var events notify.Dispatcher = codeMail
	if cfg.Queue.Enabled {
		queueClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
		defer queueClient.Close()
		events = notify.NewQueueDispatcher(queueClient, cfg.Queue.MaxRetry, logger)
		logger.Info("event notifications delivered through queue")
	}

	accounts := account.NewService(account.Deps{
		DB:       db,
		CodeMail: codeMail,
		Events:   events,
		Logger:   logger,
	})
	jobSvc := jobs.NewService(jobs.Deps{
		DB:             db,
		Events:         events,
		Live:           notify.NewRedisPublisher(redisClient),
		Store:          storageClient,
		Scanner:        scan.New(cfg.Upload.ClamdAddr),
		Logger:         logger,
		MaxResumeBytes: cfg.Upload.MaxResumeBytes,
	})

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	if err != nil {
		log.Fatalf("init token service: %v", err)
	}

	tutor, err := chat.NewGeminiTutor(context.Background(), cfg.Chat, logger)
	if err != nil {
		log.Fatalf("init chat tutor: %v", err)
	}
	if !tutor.Configured() {
		logger.Warn("GEMINI_API_KEY not set, chat answers will fail")
	}

	router := api.NewRouter(cfg, logger)
	api.RegisterRoutes(router, api.Deps{
		Config:   cfg,
		Accounts: accounts,
		Jobs:     jobSvc,
		Tokens:   tokens,
		Redis:    redisClient,
		Tutor:    tutor,
		Logger:   logger,
	})

	address := fmt.Sprintf(":%d", cfg.API.Port)
	logger.Info("api listening", slog.String("address", address))
	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}
