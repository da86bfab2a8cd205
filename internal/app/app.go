package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"expert_review_backend/internal/config"
	"expert_review_backend/internal/controller"
	"expert_review_backend/internal/repository"
	"expert_review_backend/internal/service"
	"expert_review_backend/pkg/configwatcher"
	"expert_review_backend/pkg/database"
	"expert_review_backend/pkg/logger"
	"expert_review_backend/pkg/monitoring"
	"expert_review_backend/pkg/security"
	"expert_review_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfigDir 配置文件所在目录
const ConfigDir = "configs"

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	tracer          *sdktrace.TracerProvider
	cancelWatch     context.CancelFunc
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	submission *repository.SubmissionRepository
	review     *repository.ReviewRepository
}

type services struct {
	settings *service.ReportSettings
	storage  *service.StorageService
	review   *service.ReviewService
	report   *service.ReportService
}

type controllers struct {
	review *controller.ReviewController
	report *controller.ReportController
	health *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		submission: repository.NewSubmissionRepository(db),
		review:     repository.NewReviewRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	settings, err := service.NewReportSettings(cfg)
	if err != nil {
		logger.Log.Fatal("Invalid report settings", zap.Error(err))
	}
	s.settings = settings
	// 主题与阈值支持热更新，渲染器与存储需重启生效
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		if err := s.settings.Apply(newCfg); err != nil {
			logger.Named("config").Error("Rejected report settings", zap.Error(err))
		}
	})

	s.storage = service.NewStorageService(cfg)

	notifier := service.NewRedisNotifier(rdb, cfg.Notification.Channel, cfg.Notification.DedupeTTL)
	s.review = service.NewReviewService(repos.submission, repos.review, s.settings, notifier)

	renderer, err := service.NewRenderer(cfg.Report.Renderer)
	if err != nil {
		logger.Log.Fatal("Failed to initialize report renderer", zap.Error(err))
	}
	cache, err := service.NewArtifactCache(rdb, cfg.Report.CacheTTL)
	if err != nil {
		logger.Log.Fatal("Failed to initialize artifact cache", zap.Error(err))
	}
	s.report = service.NewReportService(s.review, repos.user, s.settings, renderer, cache, s.storage)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		review: controller.NewReviewController(s.review),
		report: controller.NewReportController(s.report, s.review),
		health: controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	if cfg.RateLimit.MaxRequests > 0 {
		window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
		if window <= 0 {
			window = time.Minute
		}
		router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window))
	}

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// watchConfig 配置文件变更时依次调用已注册的回调
func (a *App) watchConfig() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancelWatch = cancel
	go func() {
		file := filepath.Join(ConfigDir, "config.yaml")
		err := configwatcher.WatchConfig(ctx, file, func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// release 模式下默认不迁移，需 -migrate 显式开启
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Log.Info("Database migrated")
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	app.Redis = rdb

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.watchConfig()

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.cancelWatch != nil {
		a.cancelWatch()
	}

	// 关闭服务
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	log.Println("Server exiting")
}
