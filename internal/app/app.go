package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/roamly/traveldna/internal/config"
	"github.com/roamly/traveldna/internal/database"
	"github.com/roamly/traveldna/internal/handlers"
	"github.com/roamly/traveldna/internal/messaging"
	"github.com/roamly/traveldna/internal/middleware"
	"github.com/roamly/traveldna/internal/services"
	"github.com/roamly/traveldna/internal/storage"
	"github.com/roamly/traveldna/internal/taxonomy"
	"github.com/roamly/traveldna/internal/validation"
	"github.com/roamly/traveldna/pkg/models"
)

type App struct {
	config         *config.Config
	logger         *logrus.Logger
	db             *database.Database
	stream         *messaging.FeedbackStream
	services       *services.Services
	handlers       *handlers.Handlers
	router         *gin.Engine
	stopBackground context.CancelFunc
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	mapper := taxonomy.NewMapper()
	app.stream = messaging.NewFeedbackStream(cfg, app.logger)

	deps := services.Dependencies{
		Profiles: storage.NewProfileStore(db.PG, app.logger),
		Log:      storage.NewFeedbackLogStore(db.PG, app.logger),
		Graph:    storage.NewInteractionGraphStore(db.Neo4j, app.logger),
		POIs:     storage.NewPOIStore(db.PG, mapper, app.logger),
		Cache:    storage.NewRedisCache(db.Redis, app.logger),
		Mapper:   mapper,
	}
	if app.stream != nil {
		deps.Publisher = app.stream
	}

	app.services = services.New(cfg, app.logger, db, deps)

	schemaValidator, err := validation.NewSchemaValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize schema validator: %w", err)
	}
	app.handlers = handlers.New(app.logger, app.services, schemaValidator)

	registerBindingValidators()
	app.setupRouter()

	backgroundCtx, cancel := context.WithCancel(context.Background())
	app.stopBackground = cancel
	go app.services.Collaborative.StartRefresher(backgroundCtx)

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	if a.stopBackground != nil {
		a.stopBackground()
	}

	if err := a.stream.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing feedback stream")
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		return err
	}

	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

// registerBindingValidators adds the feedback kind check to gin's binding
// validator so request structs can declare it in their tags.
func registerBindingValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	_ = v.RegisterValidation("feedbackkind", func(fl validator.FieldLevel) bool {
		switch models.FeedbackKind(fl.Field().String()) {
		case models.FeedbackLike, models.FeedbackDislike, models.FeedbackSave,
			models.FeedbackSkip, models.FeedbackVisit, models.FeedbackShare,
			models.FeedbackNotInterested:
			return true
		}
		return false
	})
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))

	// Health and metrics endpoints (no auth required)
	router.GET("/health", a.handlers.Health.Check)
	if a.config.Monitoring.Enabled {
		router.GET(a.config.Monitoring.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api/v1")
	{
		api.Use(middleware.Auth(a.services.Auth, a.logger))

		api.POST("/feedback", a.handlers.Feedback.Record)

		recommendations := api.Group("/recommendations")
		{
			recommendations.POST("/:userId", a.handlers.Recommendation.RankByMode)
			recommendations.POST("/:userId/ranking", a.handlers.Recommendation.Rank)
			recommendations.POST("/:userId/collaborative", a.handlers.Recommendation.Collaborative)
		}

		users := api.Group("/users")
		{
			users.GET("/:userId/profile", a.handlers.Profile.Get)
			users.POST("/:userId/quiz", a.handlers.Profile.SubmitQuiz)
		}

		api.POST("/notifications/:userId/evaluate", a.handlers.Notification.Evaluate)
	}

	a.router = router
}
