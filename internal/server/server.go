package server

import (
	"net/http"
	"strings"
	"time"

	"anoa.com/datingapp/internal/config"
	"anoa.com/datingapp/internal/entity"
	"anoa.com/datingapp/internal/middleware"
	"anoa.com/datingapp/internal/scheduler"
	"anoa.com/datingapp/pkg/logger"
	"anoa.com/datingapp/pkg/response"
	"anoa.com/datingapp/pkg/storage"
	"anoa.com/datingapp/pkg/token"

	adminHttp "anoa.com/datingapp/internal/modules/admin/delivery/http"
	adminService "anoa.com/datingapp/internal/modules/admin/service"

	likeHttp "anoa.com/datingapp/internal/modules/like/delivery/http"
	likeRepo "anoa.com/datingapp/internal/modules/like/repository"
	likeService "anoa.com/datingapp/internal/modules/like/service"

	messageHttp "anoa.com/datingapp/internal/modules/message/delivery/http"
	messageRepo "anoa.com/datingapp/internal/modules/message/repository"
	messageService "anoa.com/datingapp/internal/modules/message/service"

	photoHttp "anoa.com/datingapp/internal/modules/photo/delivery/http"
	photoRepo "anoa.com/datingapp/internal/modules/photo/repository"
	photoService "anoa.com/datingapp/internal/modules/photo/service"

	searchService "anoa.com/datingapp/internal/modules/search/service"

	userHttp "anoa.com/datingapp/internal/modules/user/delivery/http"
	userRepo "anoa.com/datingapp/internal/modules/user/repository"
	userService "anoa.com/datingapp/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine    *gin.Engine
	scheduler *scheduler.Scheduler
}

// NewServer wires every module. A nil redisClient disables message rate limiting
// and the live feed.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	users := userRepo.NewUserRepository(db)
	identity := userRepo.NewIdentityStore(db)
	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	imageStorage, err := storage.NewCloudinaryStorage(storage.Config{
		URL:       cfg.CloudinaryURL,
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
	})
	if err != nil {
		logger.Warn("cloudinary storage disabled, photo uploads will fail", "error", err)
		imageStorage = nil
	}

	var memberIndex searchService.MemberIndex
	if cfg.MeiliSearchHost != "" {
		meiliHost := cfg.MeiliSearchHost
		if !strings.HasPrefix(meiliHost, "http") {
			meiliHost = "http://" + meiliHost + ":7700"
		}
		meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		memberIndex = searchService.NewMeiliSearchService(meiliClient)
	} else {
		logger.Warn("MEILISEARCH_HOST is not set, member search disabled")
	}

	authSvc := userService.NewAuthService(users, identity, tokens, memberIndex)
	authHandler := userHttp.NewAuthHandler(authSvc)

	userSvc := userService.NewUserService(users, memberIndex)
	userHandler := userHttp.NewUserHandler(userSvc)

	likeSvc := likeService.NewLikeService(likeRepo.NewLikeRepository(db), users)
	likeHandler := likeHttp.NewLikeHandler(likeSvc)

	photoSvc := photoService.NewPhotoService(photoRepo.NewPhotoRepository(db), imageStorage, cfg.CloudinaryUploadFolder)
	photoHandler := photoHttp.NewPhotoHandler(photoSvc)

	messageSvc := messageService.NewMessageService(messageRepo.NewMessageRepository(db), users, redisClient, cfg.RateLimitMessage)
	messageHandler := messageHttp.NewMessageHandler(messageSvc, redisClient, cfg.AllowedOrigins)

	adminSvc := adminService.NewAdminService(users, identity)
	adminHandler := adminHttp.NewAdminHandler(adminSvc, photoSvc)

	jobs := scheduler.New(10 * time.Minute)
	if memberIndex != nil {
		if err := jobs.Register(scheduler.NewReindexJob(userSvc, cfg.ReindexSchedule)); err != nil {
			logger.Warn("member reindex job disabled", "error", err)
		}
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/health"},
	}))

	authMiddleware := middleware.NewAuthMiddleware(tokens, userSvc)

	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth(), authMiddleware.TrackLastActive())
	{
		protected.GET("/users", userHandler.GetUsers)
		protected.GET("/users/search", userHandler.SearchMembers)
		protected.GET("/users/:id", userHandler.GetUser)

		self := protected.Group("/users/:id")
		self.Use(authMiddleware.RequireSelf("id"))
		{
			self.PUT("", userHandler.UpdateUser)

			self.POST("/like/:recipientId", likeHandler.LikeUser)
			self.DELETE("/like/:recipientId", likeHandler.UnlikeUser)

			self.POST("/photos", photoHandler.UploadPhoto)
			self.GET("/photos/:photoId", photoHandler.GetPhoto)
			self.POST("/photos/:photoId/setMain", photoHandler.SetMainPhoto)
			self.DELETE("/photos/:photoId", photoHandler.DeletePhoto)

			self.GET("/messages", messageHandler.GetMessagesForUser)
			self.POST("/messages", messageHandler.CreateMessage)
			self.GET("/messages/live", messageHandler.Live)
			self.GET("/messages/thread/:recipientId", messageHandler.GetMessageThread)
			self.GET("/messages/:messageId", messageHandler.GetMessage)
			self.POST("/messages/:messageId", messageHandler.DeleteMessage)
			self.POST("/messages/:messageId/read", messageHandler.MarkMessageAsRead)
		}

		adminGroup := protected.Group("/admin")
		{
			admins := adminGroup.Group("")
			admins.Use(authMiddleware.RequireRoles(entity.RoleAdmin))
			admins.GET("/usersWithRoles", adminHandler.GetUsersWithRoles)
			admins.GET("/usersWithRoles/export", adminHandler.ExportUsersWithRoles)
			admins.POST("/editRoles/:userName", adminHandler.EditRoles)

			moderators := adminGroup.Group("")
			moderators.Use(authMiddleware.RequireRoles(entity.RoleAdmin, entity.RoleModerator))
			moderators.GET("/photosForModeration", adminHandler.GetPhotosForModeration)
			moderators.POST("/approvePhoto/:id", adminHandler.ApprovePhoto)
			moderators.POST("/rejectPhoto/:id", adminHandler.RejectPhoto)
		}
	}

	return &Server{
		engine:    router,
		scheduler: jobs,
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the background jobs and serves HTTP until the listener fails.
func (s *Server) Run(addr string) error {
	s.scheduler.Start()
	defer s.scheduler.Stop()

	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:4200"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", response.PaginationHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
