package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"skylog/api/internal/adsb"
	"skylog/api/internal/config"
	"skylog/api/internal/middleware"
	"skylog/api/internal/models"
	"skylog/api/internal/ratelimit"
	"skylog/api/internal/repository"
	"skylog/api/internal/service"
	"skylog/api/internal/session"
	"skylog/api/internal/storage"
)

type HandlerSet struct {
	log            zerolog.Logger
	cfg            *config.AppConfig
	db             *pgxpool.Pool
	cache          *redis.Client
	sessionManager *session.Manager
	authService    *service.AuthService
	importService  *service.ImportService
	receiptService *service.ReceiptService
	users          *repository.UserRepository
	sessions       *repository.SessionRepository
	flights        *repository.FlightRepository
	costs          *repository.CostRepository
	checklists     *repository.ChecklistRepository
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	flightRepo := repository.NewFlightRepository(db)
	costRepo := repository.NewCostRepository(db)
	checklistRepo := repository.NewChecklistRepository(db)

	manager := session.NewManager(sessionRepo, userRepo,
		cfg.Security.SessionTTL, cfg.Security.SessionRefreshWindow, log)

	var limiter ratelimit.Limiter
	if cfg.Security.RateLimitBackend == "redis" {
		limiter = ratelimit.NewRedisLimiter(cache, cfg.Security.LoginRateWindow, cfg.Security.LoginRateCeiling)
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.Security.LoginRateWindow, cfg.Security.LoginRateCeiling)
	}

	auth := service.NewAuthService(userRepo, tokenRepo, manager, sessionRepo, limiter, cfg, log)
	importer := service.NewImportService(flightRepo, adsb.NewClient(cfg.ADSB), log)
	receipts := service.NewReceiptService(costRepo, store, cfg, log)

	return HandlerSet{
		log:            log,
		cfg:            cfg,
		db:             db,
		cache:          cache,
		sessionManager: manager,
		authService:    auth,
		importService:  importer,
		receiptService: receipts,
		users:          userRepo,
		sessions:       sessionRepo,
		flights:        flightRepo,
		costs:          costRepo,
		checklists:     checklistRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.POST("/password-reset", h.RequestPasswordReset)
		auth.POST("/password-reset/confirm", h.ConfirmPasswordReset)
		auth.POST("/approve", h.ApproveByToken)

		protected := v1.Group("/auth")
		protected.Use(middleware.Auth(h.cfg, h.sessionManager, h.log))
		protected.POST("/logout", h.Logout)
		protected.GET("/me", h.Me)
		protected.GET("/sessions", h.ListSessions)
		protected.DELETE("/sessions/:id", h.RevokeSession)
	}

	// Share links resolve without a session.
	v1.GET("/shared/flights", h.SharedFlight)

	flights := v1.Group("/flights")
	flights.Use(middleware.Auth(h.cfg, h.sessionManager, h.log))
	flights.GET("", h.ListFlights)
	flights.POST("", h.CreateFlight)
	flights.GET("/:id", h.GetFlight)
	flights.PUT("/:id", h.UpdateFlight)
	flights.DELETE("/:id", h.DeleteFlight)
	flights.POST("/import", h.ImportFlights)
	flights.POST("/:id/share", h.ShareFlight)

	costs := v1.Group("/costs")
	costs.Use(middleware.Auth(h.cfg, h.sessionManager, h.log))
	costs.GET("", h.ListCostEntries)
	costs.POST("", h.CreateCostEntry)
	costs.DELETE("/:id", h.DeleteCostEntry)
	costs.GET("/:id/receipts", h.ListReceipts)
	costs.POST("/:id/receipts", h.UploadReceipt)

	checklists := v1.Group("/checklists")
	checklists.Use(middleware.Auth(h.cfg, h.sessionManager, h.log))
	checklists.GET("", h.ListChecklists)
	checklists.POST("", h.CreateChecklist)
	checklists.GET("/:id", h.GetChecklist)
	checklists.PUT("/:id", h.RenameChecklist)
	checklists.DELETE("/:id", h.DeleteChecklist)
	checklists.PUT("/:id/items", h.ReplaceChecklistItems)

	admin := v1.Group("/admin")
	admin.Use(
		middleware.Auth(h.cfg, h.sessionManager, h.log),
		middleware.RequireRoles(models.UserRoleAdmin),
	)
	admin.GET("/users", h.AdminListUsers)
	admin.POST("/users/:id/approve", h.AdminApproveUser)
	admin.POST("/users/:id/disable", h.AdminDisableUser)
}
