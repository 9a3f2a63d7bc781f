package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"jobboard/internal/account"
	"jobboard/internal/api/middleware"
	"jobboard/internal/auth"
	"jobboard/internal/config"
	"jobboard/internal/database"
	"jobboard/internal/jobs"
)

// Deps 汇总路由所需的服务。
type Deps struct {
	Config   *config.Config
	Accounts *account.Service
	Jobs     *jobs.Service
	Tokens   *auth.TokenService
	Redis    redis.UniversalClient
	Tutor    Asker
	Logger   *slog.Logger
}

// RegisterRoutes 注册业务路由：/v1 下的 JSON 接口与 /api/chat/。
func RegisterRoutes(router *gin.Engine, d Deps) {
	authn := middleware.NewAuthenticator(d.Tokens, d.Accounts, d.Redis)
	requireLogin := authn.Required()
	candidateOnly := middleware.RequireRole(database.RoleCandidate, "Only candidates can access this page")
	companyOnly := middleware.RequireRole(database.RoleCompany, "Only employers can access this page")

	authHandler := NewAuthHandler(d.Accounts, d.Tokens, d.Redis, d.Logger, d.Config.Auth)
	jobsHandler := NewJobsHandler(d.Jobs)
	employerHandler := NewEmployerHandler(d.Jobs)
	alertHandler := NewAlertHandler(d.Jobs)
	profileHandler := NewProfileHandler(d.Accounts)
	pagesHandler := NewPagesHandler(d.Jobs)
	wsHandler := NewWsHandler(d.Redis, authn, d.Logger, d.Config.API.AllowedOrigins)

	if d.Tutor != nil {
		router.Any("/api/chat/", NewChatHandler(d.Tutor).Handle)
	}

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		pages := v1.Group("/pages")
		{
			pages.GET("/home", pagesHandler.Home)
			pages.GET("/:slug", pagesHandler.Static)
		}

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/verify", authHandler.Verify)
			authGroup.POST("/resend", authHandler.Resend)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.POST("/forgot-password", authHandler.ForgotPassword)
			authGroup.POST("/resend-reset", authHandler.ResendResetCode)
			authGroup.POST("/reset-password", authHandler.ResetPassword)
		}

		jobsGroup := v1.Group("/jobs")
		{
			jobsGroup.GET("", jobsHandler.Browse)
			jobsGroup.GET("/search", jobsHandler.Search)
			jobsGroup.GET("/:id", authn.Optional(), jobsHandler.Detail)
			jobsGroup.POST("/:id/apply", requireLogin, candidateOnly, jobsHandler.Apply)
			jobsGroup.POST("/:id/save", requireLogin, candidateOnly, jobsHandler.ToggleSave)
		}

		me := v1.Group("/me", requireLogin, candidateOnly)
		{
			me.GET("/applications", jobsHandler.MyApplications)
			me.GET("/saved-jobs", jobsHandler.SavedJobs)
			me.GET("/alerts", alertHandler.List)
			me.POST("/alerts", alertHandler.Create)
			me.PATCH("/alerts/:id", alertHandler.Toggle)
			me.DELETE("/alerts/:id", alertHandler.Delete)
		}

		v1.GET("/applications/:id/resume", requireLogin, jobsHandler.ResumeLink)

		employer := v1.Group("/employer", requireLogin, companyOnly)
		{
			employer.GET("/jobs", employerHandler.MyJobs)
			employer.POST("/jobs", employerHandler.Post)
			employer.GET("/jobs/:id", employerHandler.Get)
			employer.PUT("/jobs/:id", employerHandler.Edit)
			employer.DELETE("/jobs/:id", employerHandler.Delete)
			employer.GET("/jobs/:id/applications", employerHandler.Applications)
			employer.POST("/applications/:id/status", employerHandler.UpdateStatus)
		}

		profile := v1.Group("/profile", requireLogin)
		{
			profile.GET("", profileHandler.Get)
			profile.PUT("", profileHandler.Update)
		}
	}
}
