package app

import (
	"context"
	"learnpulse_backend/internal/config"
	"learnpulse_backend/internal/controller"
	"learnpulse_backend/internal/repository"
	"learnpulse_backend/internal/service"
	"learnpulse_backend/pkg/database"
	"learnpulse_backend/pkg/logger"
	"learnpulse_backend/pkg/monitoring"
	"learnpulse_backend/pkg/security"
	"learnpulse_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user     *repository.UserRepository
	skill    *repository.SkillRepository
	question *repository.QuestionRepository
	session  *repository.SessionRepository
	score    *repository.SkillScoreRepository
	resource *repository.ResourceRepository
	history  *repository.RecommendationHistoryRepository
}

type services struct {
	auth           *service.AuthService
	storage        *service.StorageService
	assessment     *service.AssessmentService
	recommendation *service.RecommendationService
	ai             *service.AIRecommendationService
}

type controllers struct {
	auth           *controller.AuthController
	assessment     *controller.AssessmentController
	recommendation *controller.RecommendationController
	skill          *controller.SkillController
	question       *controller.QuestionController
	resource       *controller.ResourceController
	health         *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		skill:    repository.NewSkillRepository(db),
		question: repository.NewQuestionRepository(db),
		session:  repository.NewSessionRepository(db),
		score:    repository.NewSkillScoreRepository(db),
		resource: repository.NewResourceRepository(db),
		history:  repository.NewRecommendationHistoryRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*services, error) {
	s := &services{}

	storage, err := service.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}
	s.storage = storage

	kv := service.NewRedisKV(rdb)
	cache := service.NewResultCache(kv)

	s.auth = service.NewAuthService(repos.user, cfg)
	s.assessment = service.NewAssessmentService(db, repos.session, repos.question, repos.skill, repos.score, repos.user, cache)

	s.ai = service.NewAIRecommendationService(cfg.AI, kv)

	gaps := service.NewGapAnalyzer(repos.score, repos.skill)
	scorer := service.NewResourceScorer(repos.history)
	s.recommendation = service.NewRecommendationService(gaps, scorer, repos.resource, repos.history, repos.score, repos.session, s.ai)

	return s, nil
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB) *controllers {
	return &controllers{
		auth:           controller.NewAuthController(s.auth),
		assessment:     controller.NewAssessmentController(s.assessment),
		recommendation: controller.NewRecommendationController(s.recommendation, s.ai),
		skill:          controller.NewSkillController(repos.skill),
		question:       controller.NewQuestionController(repos.question),
		resource:       controller.NewResourceController(repos.resource, repos.skill, s.storage),
		health:         controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// ApplyConfig picks up the settings that are safe to change at runtime.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config.AI = cfg.AI
	a.Config.CORS = cfg.CORS
	a.Config.RateLimit = cfg.RateLimit
	a.services.ai.UpdateConfig(cfg.AI)
	logger.Log.Info("configuration reloaded")
}

// startBackgroundTasks runs the AI resource retention sweep hourly.
func (a *App) startBackgroundTasks(s *services) {
	go func() {
		ticker := time.NewTicker(time.Hour)
		for range ticker.C {
			s.recommendation.CleanupStaleAIResources()
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
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, db, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	app.services = services
	controllers := app.initControllers(services, repos, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("learnpulse-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		go func() {
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/static", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

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
