package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/windsight/bladescan-backend/internal/config"
	"github.com/windsight/bladescan-backend/internal/detector"
	"github.com/windsight/bladescan-backend/internal/handler"
	"github.com/windsight/bladescan-backend/internal/middleware"
	"github.com/windsight/bladescan-backend/internal/migration"
	"github.com/windsight/bladescan-backend/internal/repository"
	"github.com/windsight/bladescan-backend/internal/service"
	pkgcache "github.com/windsight/bladescan-backend/pkg/cache"
	"github.com/windsight/bladescan-backend/pkg/jwt"
	pkglogger "github.com/windsight/bladescan-backend/pkg/logger"
	pkgredis "github.com/windsight/bladescan-backend/pkg/redis"
	pkgstorage "github.com/windsight/bladescan-backend/pkg/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// @title           BladeScan Backend API
// @version         1.0
// @description     Wind turbine blade inspection backend API
//
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Authorization header using the Bearer scheme. Example: "Bearer {token}"

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	pkglogger.GetLogger().Info().
		Str("env", env).
		Strs("env_files", dotenvFiles).
		Msg("starting bladescan-backend")

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.LogResolved()

	// MySQL
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	pkglogger.GetLogger().Info().Msg("connected to MySQL")
	if err := migration.Run(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		stats := sqlDB.Stats()
		middleware.SetDBConnectionsActive(float64(stats.OpenConnections))
	}

	// Redis (optional: results caching degrades to direct reads without it)
	redisClient, err := pkgredis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		pkglogger.GetLogger().Warn().Err(err).Msg("redis unavailable, continuing without results cache")
		redisClient = nil
	} else {
		pkglogger.GetLogger().Info().Msg("connected to Redis")
	}
	cacheService := pkgcache.NewService(redisClient)

	// JWT Manager
	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)

	// Inspection image storage
	store := pkgstorage.NewLocal(cfg.Storage.Root, cfg.Storage.TempDir)

	// Damage detection adapter. The model serves one request at a time, so
	// calls are serialized unless the deployment says otherwise.
	var det detector.Detector = detector.NewHTTPDetector(detector.Options{
		Endpoint:   cfg.Detector.Endpoint,
		Confidence: cfg.Detector.Confidence,
		ImageSize:  cfg.Detector.ImageSize,
	})
	if cfg.Detector.Serialize {
		det = detector.NewSerialDetector(det)
	}

	// Repositories
	turbineRepo := repository.NewTurbineRepository(db)
	inspectionRepo := repository.NewInspectionRepository(db)
	imageRepo := repository.NewInspectionImageRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)

	// Services
	locks := service.NewImageLocks()
	accessSvc := service.NewAccessService(turbineRepo)
	ingestionSvc := service.NewIngestionService(turbineRepo, inspectionRepo, imageRepo, store, cfg.Storage.MaxUploadBytes())
	inspectionSvc := service.NewInspectionService(inspectionRepo, imageRepo, assessmentRepo, cacheService)
	analysisSvc := service.NewAnalysisService(imageRepo, assessmentRepo, inspectionRepo, det, locks, cacheService,
		time.Duration(cfg.Detector.TimeoutSeconds)*time.Second)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, imageRepo, locks, cacheService)
	resultsSvc := service.NewResultsService(inspectionRepo, imageRepo, assessmentRepo, cacheService)

	auditLogger := middleware.NewAuditLogger(db)

	inspectionHandler := handler.NewInspectionHandler(
		accessSvc, ingestionSvc, inspectionSvc, analysisSvc, assessmentSvc, resultsSvc, auditLogger)

	// Router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS
	allowOrigins := cfg.CORS.AllowOrigins
	if allowOrigins == "" {
		allowOrigins = "http://localhost:3000"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     splitAndTrim(allowOrigins, ","),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID"},
		MaxAge:           86400,
	}))

	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.RateLimit(redisClient, middleware.DefaultRateLimitConfig()))

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "bladescan-backend",
			"time":    time.Now().Unix(),
		})
	})

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Inspection API
	api := router.Group("/api/v1")
	api.Use(middleware.JWTAuth(jwtManager))
	{
		api.POST("/inspections/turbine/:turbine_id/upload", inspectionHandler.UploadArchive)
		api.GET("/inspections/turbine/:turbine_id", inspectionHandler.ListInspections)
		api.GET("/inspections/:inspection_id", inspectionHandler.GetInspection)
		api.PATCH("/inspections/:inspection_id", inspectionHandler.UpdateInspection)
		api.GET("/inspections/:inspection_id/results", inspectionHandler.GetResults)
		api.DELETE("/inspections/:inspection_id/images", inspectionHandler.DeleteImages)
		api.POST("/inspections/images/:image_id/analyze",
			middleware.RateLimitPerUser(redisClient, 30), inspectionHandler.AnalyzeImage)
		api.PATCH("/inspections/images/:image_id/assessment", inspectionHandler.UpdateAssessment)
		api.PATCH("/inspections/images/:image_id/assessment/box", inspectionHandler.UpdateBox)
		api.GET("/inspections/images/:image_id/stream", inspectionHandler.StreamImage)
	}

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	pkglogger.GetLogger().Info().Str("addr", addr).Msg("listening")
	if err := router.Run(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	if mysqlCfg.Params == nil {
		mysqlCfg.Params = map[string]string{}
	}
	mysqlCfg.Params["time_zone"] = "'+00:00'"

	logMode := gormlogger.Warn
	if cfg.IsDevelopment() {
		logMode = gormlogger.Info
	}
	db, err := gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logMode),
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

func splitAndTrim(s, sep string) []string {
	parts := []string{}
	for _, p := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
