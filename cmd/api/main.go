package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/huddlechat/huddle-backend/internal/config"
	"github.com/huddlechat/huddle-backend/internal/handler"
	"github.com/huddlechat/huddle-backend/internal/metrics"
	"github.com/huddlechat/huddle-backend/internal/middleware"
	"github.com/huddlechat/huddle-backend/internal/migration"
	"github.com/huddlechat/huddle-backend/internal/repository"
	"github.com/huddlechat/huddle-backend/internal/routes"
	"github.com/huddlechat/huddle-backend/internal/service"
	"github.com/huddlechat/huddle-backend/internal/ws"
	pkgcache "github.com/huddlechat/huddle-backend/pkg/cache"
	pkges "github.com/huddlechat/huddle-backend/pkg/elasticsearch"
	"github.com/huddlechat/huddle-backend/pkg/jwt"
	pkglogger "github.com/huddlechat/huddle-backend/pkg/logger"
	pkgredis "github.com/huddlechat/huddle-backend/pkg/redis"
	pkgstorage "github.com/huddlechat/huddle-backend/pkg/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// @title           Huddle Chat API
// @version         1.0
// @description     Workspaces, channels, direct conversations, threads and reactions.
//
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Authorization header using the Bearer scheme. Example: "Bearer {token}"

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	dotenvFiles := config.LoadDotEnv(env)

	// 로거 초기화
	pkglogger.InitStructured(env)
	pkglogger.Info("APP_ENV=%s, loaded env files: %v", env, dotenvFiles)

	// 설정 로드
	configPath := config.ConfigPath(env)
	pkglogger.Info("Loading config from: %s", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.LogResolved(cfg)

	// MySQL 연결
	db, err := initDB(cfg, env)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	pkglogger.Info("Connected to MySQL")
	if err := migration.Run(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	// Redis 연결 (선택)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
		)
		if err != nil {
			pkglogger.Warn("Failed to connect to Redis: %v (continuing without Redis)", err)
			redisClient = nil
		} else {
			pkglogger.Info("Connected to Redis")
		}
	}
	cacheService := pkgcache.NewService(redisClient)

	// 오브젝트 스토리지 (선택)
	var objectStorage service.ObjectStorage
	if cfg.Storage.Enabled {
		s3Client, err := pkgstorage.NewS3Client(pkgstorage.S3Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Bucket:          cfg.Storage.Bucket,
			CDNURL:          cfg.Storage.CDNURL,
			BasePath:        cfg.Storage.BasePath,
			ForcePathStyle:  cfg.Storage.ForcePathStyle,
			URLTTL:          time.Duration(cfg.Storage.URLTTL) * time.Second,
		})
		if err != nil {
			log.Fatalf("Failed to init object storage: %v", err)
		}
		objectStorage = s3Client
		pkglogger.Info("Object storage initialized (bucket=%s)", cfg.Storage.Bucket)
	}

	// Elasticsearch 연결 (선택)
	var searchBackend service.SearchBackend
	if cfg.Elasticsearch.Enabled {
		esClient, err := pkges.NewClient(cfg.Elasticsearch.Addresses, cfg.Elasticsearch.Username, cfg.Elasticsearch.Password)
		if err != nil {
			pkglogger.Warn("Elasticsearch connection failed: %v (continuing without search)", err)
		} else {
			searchBackend = esClient
			pkglogger.Info("Connected to Elasticsearch")
		}
	}

	// WebSocket Hub
	hub := ws.NewHub(redisClient)
	go hub.Run()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	reactionRepo := repository.NewReactionRepository(db)

	// Services
	userService := service.NewUserService(userRepo, cacheService)
	membershipService := service.NewMembershipService(memberRepo, userRepo, cacheService)
	feedService := service.NewFeedService(membershipService, service.FeedDeps{
		Members:       memberRepo,
		Users:         userRepo,
		Messages:      messageRepo,
		Reactions:     reactionRepo,
		Channels:      channelRepo,
		Conversations: conversationRepo,
	}, objectStorage)
	searchService := service.NewSearchService(searchBackend, membershipService, feedService)
	if searchBackend != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := searchService.EnsureIndex(ctx); err != nil {
			pkglogger.Warn("Search index setup failed: %v", err)
		}
		cancel()
	}
	messageService := service.NewMessageService(membershipService, service.MessageDeps{
		Messages:      messageRepo,
		Channels:      channelRepo,
		Conversations: conversationRepo,
		Feed:          feedService,
		Publisher:     hub,
		Indexer:       searchService,
		Storage:       objectStorage,
	})
	reactionService := service.NewReactionService(membershipService, messageRepo, reactionRepo, hub)
	conversationService := service.NewConversationService(membershipService, memberRepo, conversationRepo)
	channelService := service.NewChannelService(membershipService, channelRepo)
	workspaceService := service.NewWorkspaceService(membershipService, workspaceRepo, memberRepo, cacheService)
	uploadService := service.NewUploadService(membershipService, objectStorage)

	if err := handler.RegisterValidators(); err != nil {
		log.Fatalf("Failed to register validators: %v", err)
	}

	// Router
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS 설정
	origins := splitAndTrim(cfg.CORS.AllowOrigins, ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:           12 * time.Hour,
	}))

	// Middleware
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws", "/metrics"})))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"service":    "huddle-backend",
			"redis":      redisClient != nil,
			"ws_clients": hub.ClientCount(),
			"time":       time.Now().Unix(),
		})
	})

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	rateLimit := middleware.DefaultRateLimitConfig()
	rateLimit.RequestsPerMinute = cfg.RateLimit.RequestsPerMinute

	routes.Setup(router, routes.Handlers{
		Message:      handler.NewMessageHandler(messageService, feedService),
		Reaction:     handler.NewReactionHandler(reactionService),
		Workspace:    handler.NewWorkspaceHandler(workspaceService),
		Channel:      handler.NewChannelHandler(channelService),
		Member:       handler.NewMemberHandler(membershipService),
		Conversation: handler.NewConversationHandler(conversationService),
		Upload:       handler.NewUploadHandler(uploadService),
		Search:       handler.NewSearchHandler(searchService),
		WS:           handler.NewWSHandler(hub, feedService, cfg.CORS.AllowOrigins),
	}, routes.Options{
		JWT:       jwtManager,
		Users:     userService,
		Redis:     redisClient,
		RateLimit: rateLimit,
	})

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": gin.H{"code": "NOT_FOUND", "message": "not found"}})
	})

	// DB 커넥션 게이지
	stopGauge := make(chan struct{})
	go reportDBConnections(db, stopGauge)

	// 서버 시작
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		pkglogger.Info("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	pkglogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		pkglogger.Warn("Server shutdown error: %v", err)
	}
	hub.Stop()
	close(stopGauge)
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	pkglogger.Info("Server stopped")
}

// reportDBConnections feeds the chat_db_connections gauges
func reportDBConnections(db *gorm.DB, stop <-chan struct{}) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			metrics.SetDBStats(sqlDB.Stats())
		case <-stop:
			return
		}
	}
}

// splitAndTrim splits a string by delimiter and trims spaces
func splitAndTrim(s string, delimiter string) []string {
	parts := []string{}
	for _, part := range strings.Split(s, delimiter) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// initDB MySQL 연결 초기화
func initDB(cfg *config.Config, env string) (*gorm.DB, error) {
	mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("DSN 파싱 실패: %w", err)
	}
	if mysqlCfg.Params == nil {
		mysqlCfg.Params = map[string]string{}
	}
	mysqlCfg.Params["time_zone"] = "'+00:00'"

	logLevel := gormlogger.Warn
	if env == "local" || env == "development" {
		logLevel = gormlogger.Info
	}
	db, err := gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	return db, nil
}
