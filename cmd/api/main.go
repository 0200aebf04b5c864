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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-portal-api/api/swagger"
	"github.com/noah-isme/school-portal-api/internal/handler"
	"github.com/noah-isme/school-portal-api/internal/repository"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/pkg/cache"
	"github.com/noah-isme/school-portal-api/pkg/config"
	"github.com/noah-isme/school-portal-api/pkg/database"
	"github.com/noah-isme/school-portal-api/pkg/imaging"
	"github.com/noah-isme/school-portal-api/pkg/jobs"
	"github.com/noah-isme/school-portal-api/pkg/logger"
	"github.com/noah-isme/school-portal-api/pkg/mail"
	"github.com/noah-isme/school-portal-api/pkg/storage"
)

// @title School Portal API
// @version 1.0.0
// @description School website CMS and examination results service
// @BasePath /api/v1
// @schemes http https
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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := database.Migrate(db.DB, database.MigrateUp); err != nil {
			return err
		}
		logr.Info("database migrated")
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Results.PublicCacheTTL, logr, redisClient != nil)

	store, err := storage.NewMediaStore(cfg.Media)
	if err != nil {
		return fmt.Errorf("init media store: %w", err)
	}
	processor := imaging.NewProcessor(imaging.Options{
		MaxWidth:       cfg.Media.MaxImageWidth,
		ThumbnailWidth: cfg.Media.ThumbnailWidth,
		Quality:        cfg.Media.WebPQuality,
	})
	media := service.NewMediaService(store, processor, metrics, logr, service.MediaConfig{
		KeyPrefix:    cfg.Media.KeyPrefix,
		MaxFileBytes: cfg.Media.MaxFileSizeBytes,
	})

	notifier := service.NewAdmissionNotifier(mail.NewSender(cfg.Mail, logr), cfg.Mail.StaffRecipients, metrics, logr)
	mailQueue := jobs.NewQueue("admission-mail", notifier.Handle, jobs.QueueConfig{
		Workers:    cfg.Mail.Workers,
		MaxRetries: cfg.Mail.MaxRetries,
		RetryDelay: 5 * time.Second,
		JobTimeout: 30 * time.Second,
		Logger:     logr,
	})

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	resultRepo := repository.NewResultRepository(db)
	publicationRepo := repository.NewPublicationRepository(db)
	newsRepo := repository.NewNewsRepository(db)
	galleryRepo := repository.NewGalleryRepository(db)
	slideRepo := repository.NewSlideRepository(db)
	facilityRepo := repository.NewFacilityRepository(db)
	admissionRepo := repository.NewAdmissionRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, auditRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, subjectRepo, auditRepo, validate, logr)
	resultSvc := service.NewResultService(resultRepo, studentRepo, classRepo, subjectRepo, auditRepo, cacheSvc, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, classRepo, resultSvc, auditRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, classRepo, subjectRepo, resultRepo, auditRepo, cacheSvc, validate, logr)
	importSvc := service.NewResultImportService(resultRepo, studentRepo, classRepo, subjectRepo, auditRepo, cacheSvc, metrics, validate, logr, service.ImportConfig{
		MaxRows: cfg.Results.ImportMaxRows,
	})
	publicationSvc := service.NewPublicationService(publicationRepo, auditRepo, cacheSvc, logr)
	publicResultSvc := service.NewPublicResultService(studentRepo, resultRepo, classRepo, publicationRepo,
		storage.NewSigner(cfg.Results.MarksheetSecret, cfg.Results.MarksheetTTL), cacheSvc, metrics, validate, logr,
		service.PublicResultConfig{CacheTTL: cfg.Results.PublicCacheTTL, SchoolName: cfg.Results.SchoolName})
	newsSvc := service.NewNewsService(newsRepo, media, auditRepo, cacheSvc, validate, logr)
	gallerySvc := service.NewGalleryService(galleryRepo, media, auditRepo, cacheSvc, validate, logr)
	slideSvc := service.NewSlideService(slideRepo, media, auditRepo, validate, logr)
	facilitySvc := service.NewFacilityService(facilityRepo, media, auditRepo, validate, logr)
	admissionSvc := service.NewAdmissionService(admissionRepo, mailQueue, auditRepo, cacheSvc, metrics, validate, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, publicationRepo, cacheSvc, logr, service.DashboardServiceConfig{
		CacheTTL: cfg.Cache.DashboardTTL,
	})
	auditSvc := service.NewAuditService(auditRepo, logr)

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = redisPinger{redisClient}
	}

	h := handlers{
		auth:         handler.NewAuthHandler(authSvc, cfg.Cookie),
		users:        handler.NewUserHandler(userSvc),
		classes:      handler.NewClassHandler(classSvc),
		subjects:     handler.NewSubjectHandler(subjectSvc),
		students:     handler.NewStudentHandler(studentSvc),
		results:      handler.NewResultHandler(resultSvc, importSvc, cfg.Results.ImportMaxFileBytes),
		publications: handler.NewPublicationHandler(publicationSvc),
		publicResult: handler.NewPublicResultHandler(publicResultSvc),
		news:         handler.NewNewsHandler(newsSvc, cfg.Media.MaxFileSizeBytes),
		gallery:      handler.NewGalleryHandler(gallerySvc, cfg.Media.MaxFileSizeBytes),
		slides:       handler.NewSlideHandler(slideSvc, cfg.Media.MaxFileSizeBytes),
		facilities:   handler.NewFacilityHandler(facilitySvc, cfg.Media.MaxFileSizeBytes),
		admissions:   handler.NewAdmissionHandler(admissionSvc),
		dashboard:    handler.NewDashboardHandler(dashboardSvc),
		audit:        handler.NewAuditHandler(auditSvc),
		metrics:      handler.NewMetricsHandler(metrics, checks),
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(cfg, logr, authSvc, auditRepo, metrics, h)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mailQueue.Start(ctx)
	defer mailQueue.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
