package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"questline_backend/internal/config"
	"questline_backend/internal/controller"
	"questline_backend/internal/model"
	"questline_backend/internal/repository"
	"questline_backend/internal/service"
	"questline_backend/pkg/configwatcher"
	"questline_backend/pkg/database"
	"questline_backend/pkg/logger"
	"questline_backend/pkg/monitoring"
	"questline_backend/pkg/security"
	"questline_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user          *repository.UserRepository
	team          *repository.TeamRepository
	campaign      *repository.CampaignRepository
	task          *repository.TaskRepository
	participation *repository.ParticipationRepository
	submission    *repository.SubmissionRepository
	award         *repository.AwardRepository
}

type services struct {
	auth        *service.AuthService
	team        *service.TeamService
	storage     *service.StorageService
	catalog     *service.CatalogService
	enrollment  *service.EnrollmentService
	unlock      *service.UnlockService
	award       *service.AwardService
	leaderboard *service.LeaderboardService
	submission  *service.SubmissionService
}

type controllers struct {
	auth        *controller.AuthController
	team        *controller.TeamController
	campaign    *controller.CampaignController
	submission  *controller.SubmissionController
	leaderboard *controller.LeaderboardController
	catalog     *controller.CatalogController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:          repository.NewUserRepository(db),
		team:          repository.NewTeamRepository(db),
		campaign:      repository.NewCampaignRepository(db),
		task:          repository.NewTaskRepository(db),
		participation: repository.NewParticipationRepository(db),
		submission:    repository.NewSubmissionRepository(db),
		award:         repository.NewAwardRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.team = service.NewTeamService(repos.team, repos.user)
	s.catalog = service.NewCatalogService(repos.campaign, repos.task)
	s.enrollment = service.NewEnrollmentService(repos.campaign, repos.task, repos.participation, repos.team, db)
	s.unlock = service.NewUnlockService(repos.task, repos.submission)
	s.award = service.NewAwardService(repos.task, repos.award, repos.participation, repos.submission, repos.team)
	s.leaderboard = service.NewLeaderboardService(
		repos.participation,
		repos.award,
		repos.submission,
		rdb,
		time.Duration(cfg.Leaderboard.CacheTTLSeconds)*time.Second,
	)
	s.submission = service.NewSubmissionService(
		repos.campaign,
		repos.task,
		repos.participation,
		repos.submission,
		s.unlock,
		s.award,
		s.leaderboard,
		service.NewRedisNotifier(rdb),
		db,
		cfg,
	)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		team:        controller.NewTeamController(s.team),
		campaign:    controller.NewCampaignController(s.catalog, s.enrollment, s.unlock, s.team),
		submission:  controller.NewSubmissionController(s.submission, s.storage, s.team, a.Config),
		leaderboard: controller.NewLeaderboardController(s.leaderboard),
		catalog:     controller.NewCatalogController(s.catalog),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 周期性预热进行中活动的榜单缓存，
// 让高峰期读请求大多直接命中缓存
func (a *App) startBackgroundTasks(s *services, repos *repositories) {
	interval := time.Duration(a.Config.Leaderboard.CacheTTLSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		for range ticker.C {
			campaigns, _, err := repos.campaign.ListOngoing(time.Now(), 1, 100)
			if err != nil {
				logger.Log.Error("leaderboard warmup list error", zap.Error(err))
				continue
			}
			ctx := context.Background()
			for _, campaign := range campaigns {
				for _, kind := range []model.ParticipantKind{model.ParticipantUser, model.ParticipantTeam} {
					if _, err := s.leaderboard.Rank(ctx, campaign.ID, kind); err != nil {
						logger.Log.Error("leaderboard warmup error",
							zap.Uint("campaignId", campaign.ID), zap.Error(err))
					}
				}
			}
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("questline-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
		router.Static("/api/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services, repos)

	// 配置热更新，回调注册方；已建立的连接不做替换
	app.RegisterConfigCallback(func(c *config.Config) {
		services.leaderboard.CacheTTL = time.Duration(c.Leaderboard.CacheTTLSeconds) * time.Second
	})
	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(newCfg interface{}) {
		updated, ok := newCfg.(*config.Config)
		if !ok {
			return
		}
		app.Config = updated
		for _, callback := range app.configCallbacks {
			callback(updated)
		}
	})

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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
