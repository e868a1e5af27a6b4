package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-gradebook-api/api/swagger"
	"github.com/noah-isme/sma-gradebook-api/internal/handler"
	"github.com/noah-isme/sma-gradebook-api/internal/middleware"
	"github.com/noah-isme/sma-gradebook-api/internal/repository"
	"github.com/noah-isme/sma-gradebook-api/internal/service"
	"github.com/noah-isme/sma-gradebook-api/pkg/cache"
	"github.com/noah-isme/sma-gradebook-api/pkg/config"
	"github.com/noah-isme/sma-gradebook-api/pkg/database"
	"github.com/noah-isme/sma-gradebook-api/pkg/jobs"
	"github.com/noah-isme/sma-gradebook-api/pkg/logger"
	"github.com/noah-isme/sma-gradebook-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/sma-gradebook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-gradebook-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-gradebook-api/pkg/storage"
)

// @title SMA Gradebook API
// @version 1.0.0
// @description School gradebook: academic configuration, enrollment, score entry with weighted averages, lookups and exports.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Lookup.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, lookups are served without cache", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(redisClient, logr)
			defer repo.Close()
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Lookup.CacheTTL, logr, cfg.Lookup.CacheEnabled)

	validate := validator.New()

	gradeLevelRepo := repository.NewGradeLevelRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	yearRepo := repository.NewAcademicYearRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	assessmentTypeRepo := repository.NewAssessmentTypeRepository(db)
	yearParamsRepo := repository.NewYearParametersRepository(db)
	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradebookRepo := repository.NewGradebookRepository(db)
	accountRepo := repository.NewUserAccountRepository(db)

	var sender mailer.Mailer = mailer.NewLogMailer(logr)
	if cfg.Mail.Provider == config.MailProviderSendgrid {
		sender = mailer.NewSendgridMailer(cfg.Mail.SendgridAPIKey, cfg.Mail.FromName, cfg.Mail.FromAddress)
	}
	notificationSvc := service.NewNotificationService(sender, mailer.School{
		Name:         cfg.School.Name,
		Website:      cfg.School.Website,
		SupportEmail: cfg.School.SupportEmail,
		SupportPhone: cfg.School.SupportPhone,
	}, metricsSvc, logr)
	mailQueue := jobs.NewQueue("mail", notificationSvc.HandleJob, jobs.QueueConfig{
		Workers:      cfg.Mail.Workers,
		MaxRetries:   cfg.Mail.MaxRetries,
		RetryDelay:   cfg.Mail.RetryDelay,
		Logger:       logr,
		OnDeadLetter: notificationSvc.DeadLetter,
	})
	mailQueue.Start(context.Background())
	defer mailQueue.Stop()

	engine := service.NewAggregationEngine(gradebookRepo, enrollmentRepo, metricsSvc, logr)

	authSvc := service.NewAuthService(accountRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	enrollmentSvc := service.NewEnrollmentService(service.EnrollmentServiceParams{
		DB:          db,
		Students:    studentRepo,
		Enrollments: enrollmentRepo,
		ClassSizes:  yearParamsRepo,
		Semesters:   semesterRepo,
		Accounts:    accountRepo,
		Outbox:      mailQueue,
		Cache:       cacheSvc,
		Validator:   validate,
		Logger:      logr,
	})
	gradebookSvc := service.NewGradebookService(service.GradebookServiceParams{
		DB:        db,
		Ledger:    gradebookRepo,
		Engine:    engine,
		Classes:   classRepo,
		Semesters: semesterRepo,
		Subjects:  subjectRepo,
		Cache:     cacheSvc,
		Metrics:   metricsSvc,
		Validator: validate,
		Logger:    logr,
	})

	reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare report storage", zap.Error(err))
	}
	reportSvc := service.NewReportService(service.ReportServiceParams{
		Rows:      gradebookRepo,
		Subjects:  subjectRepo,
		Classes:   classRepo,
		Semesters: semesterRepo,
		Storage:   reportStore,
		Signer:    storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL),
		Metrics:   metricsSvc,
		Validator: validate,
		Logger:    logr,
		Config:    service.ReportServiceConfig{APIPrefix: cfg.APIPrefix, Retention: cfg.Reports.Retention},
	})
	cleanup, err := service.StartReportCleanup(cfg.Reports.CleanupSchedule, reportSvc, logr)
	if err != nil {
		logr.Fatal("invalid report cleanup schedule", zap.Error(err))
	}
	defer cleanup.Stop()

	handlers := handler.Handlers{
		Auth:            handler.NewAuthHandler(authSvc),
		GradeLevels:     handler.NewGradeLevelHandler(service.NewGradeLevelService(gradeLevelRepo, validate, logr)),
		Subjects:        handler.NewSubjectHandler(service.NewSubjectService(subjectRepo, validate, logr)),
		Semesters:       handler.NewSemesterHandler(service.NewSemesterService(db, semesterRepo, yearRepo, validate, logr)),
		AssessmentTypes: handler.NewAssessmentTypeHandler(service.NewAssessmentTypeService(assessmentTypeRepo, validate, logr)),
		YearParameters:  handler.NewYearParametersHandler(service.NewYearParametersService(db, yearParamsRepo, yearRepo, logr)),
		Classes:         handler.NewClassHandler(service.NewClassService(classRepo, gradeLevelRepo, yearRepo, validate, logr)),
		Enrollments:     handler.NewEnrollmentHandler(enrollmentSvc),
		Students: handler.NewStudentHandler(service.NewStudentService(db, studentRepo, enrollmentRepo, accountRepo,
			gradebookRepo, cacheSvc, validate, logr)),
		Scores:  handler.NewScoreHandler(gradebookSvc),
		Lookups: handler.NewLookupHandler(service.NewLookupService(studentRepo, enrollmentRepo, gradebookRepo, cacheSvc, logr)),
		Reports: handler.NewReportHandler(reportSvc, logr),
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handlers, authSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
