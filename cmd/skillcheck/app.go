package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/skillcheck/config"
	"github.com/lshigami/skillcheck/database"
	_ "github.com/lshigami/skillcheck/docs"
	"github.com/lshigami/skillcheck/internal/controller"
	"github.com/lshigami/skillcheck/internal/controller/admin"
	"github.com/lshigami/skillcheck/internal/controller/candidate"
	"github.com/lshigami/skillcheck/internal/controller/recruiter"
	"github.com/lshigami/skillcheck/internal/middleware"
	"github.com/lshigami/skillcheck/internal/notify"
	"github.com/lshigami/skillcheck/internal/ratelimit"
	"github.com/lshigami/skillcheck/internal/repository"
	"github.com/lshigami/skillcheck/internal/scheduler"
	"github.com/lshigami/skillcheck/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
)

// coreModule is the storage and domain layer shared by every command.
var coreModule = fx.Options(
	fx.Provide(
		database.NewDatabase,
	),

	// Repositories Layer
	fx.Provide(
		repository.NewTemplateRepository,
		repository.NewLedgerRepository,
		repository.NewInviteRepository,
		repository.NewAttemptRepository,
		repository.NewIntegrityRepository,
	),

	// Services Layer
	fx.Provide(
		service.SystemClock,
		service.NewScorer,
		service.NewLedgerService,
		service.NewCatalogService,
		service.NewAttemptService,
		service.NewInviteService,
		service.NewIntegrityService,
		service.NewResultsService,
		service.NewSweeper,
	),

	// Invite emails
	fx.Provide(
		notify.NewMailer,
		notify.NewDispatcher,
		func(d *notify.Dispatcher) service.Notifier { return d },
	),
	fx.Invoke(startDispatcher),
)

// httpModule is the API surface on top of coreModule.
var httpModule = fx.Options(
	fx.Provide(
		middleware.NewAuthenticator,
		ratelimit.New,
		func(l *ratelimit.Limiter) middleware.Allower { return l },
		NewGinEngine,
	),

	// API Controllers Layer
	fx.Provide(
		recruiter.NewRecruiterController,
		candidate.NewCandidateController,
		admin.NewAdminController,
		controller.NewController,
	),
)

func NewGinEngine(cfg *config.Config) *gin.Engine {
	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	// Swagger UI at /swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func startDispatcher(lc fx.Lifecycle, d *notify.Dispatcher) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			d.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			d.Stop()
			return nil
		},
	})
}

func startRateLimiter(lc fx.Lifecycle, l *ratelimit.Limiter) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			l.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			l.Stop()
			return nil
		},
	})
}

func startScheduler(lc fx.Lifecycle, s *scheduler.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return s.Start()
		},
		OnStop: func(ctx context.Context) error {
			return s.Stop(ctx)
		},
	})
}

func newScheduler(sweeper *service.Sweeper, cfg *config.Config) *scheduler.Scheduler {
	return scheduler.New(sweeper, cfg)
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(lc fx.Lifecycle, router *gin.Engine, cfg *config.Config, ctrl *controller.Controller) {
	ctrl.RegisterRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Skillcheck API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}
