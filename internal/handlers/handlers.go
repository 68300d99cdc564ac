package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kriwitj/nso-forms/internal/config"
	"github.com/kriwitj/nso-forms/internal/middleware"
	"github.com/kriwitj/nso-forms/internal/models"
	"github.com/kriwitj/nso-forms/internal/service"
)

// Probe checks one backing dependency for the health endpoint.
type Probe func(ctx context.Context) error

type Dependencies struct {
	Log         zerolog.Logger
	Config      *config.AppConfig
	Auth        *service.AuthService
	Users       *service.UserService
	Forms       *service.FormService
	Submissions *service.SubmissionService
	Exports     *service.ExportService
	// Nil probes report "disabled".
	Database Probe
	Cache    Probe
	Storage  Probe
}

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	auth        *service.AuthService
	users       *service.UserService
	forms       *service.FormService
	submissions *service.SubmissionService
	exports     *service.ExportService
	database    Probe
	cache       Probe
	storage     Probe
}

func NewHandlerSet(deps Dependencies) HandlerSet {
	return HandlerSet{
		log:         deps.Log,
		cfg:         deps.Config,
		auth:        deps.Auth,
		users:       deps.Users,
		forms:       deps.Forms,
		submissions: deps.Submissions,
		exports:     deps.Exports,
		database:    deps.Database,
		cache:       deps.Cache,
		storage:     deps.Storage,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	v1.Use(middleware.Session(h.cfg.Security.CookieName, h.auth, h.log))
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterAccount)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", h.Me)

		v1.GET("/public/forms/:formId", h.PublicForm)
		v1.POST("/forms/:formId/submit", h.Submit)
		v1.GET("/downloads/:ticket", h.Download)
	}

	protected := v1.Group("")
	protected.Use(middleware.RequireUser())
	{
		protected.GET("/profile", h.Profile)
		protected.PATCH("/profile", h.UpdateProfile)

		forms := protected.Group("/forms")
		forms.GET("", h.ListForms)
		forms.POST("", h.CreateForm)
		forms.GET("/:formId", h.GetForm)
		forms.PATCH("/:formId", h.UpdateForm)
		forms.DELETE("/:formId", h.DeleteForm)
		forms.POST("/:formId/questions", h.AddQuestion)
		forms.PATCH("/:formId/questions/:questionId", h.UpdateQuestion)
		forms.DELETE("/:formId/questions/:questionId", h.DeleteQuestion)
		forms.GET("/:formId/submissions", h.ListSubmissions)
		forms.GET("/:formId/export", h.Export)
		forms.POST("/:formId/exports", h.RequestExport)
		forms.GET("/:formId/exports/:exportId", h.GetExport)
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRoles(models.UserRoleAdmin))
	{
		admin.GET("/users", h.AdminListUsers)
		admin.POST("/users", h.AdminCreateUser)
		admin.PATCH("/users/:userId", h.AdminUpdateUser)
		admin.DELETE("/users/:userId", h.AdminDeleteUser)
		admin.PATCH("/users/:userId/approve", h.AdminApproveUser)
	}
}
