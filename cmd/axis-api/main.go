package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/axis-edu/axis-api/api/swagger"
	"github.com/axis-edu/axis-api/internal/handler"
	"github.com/axis-edu/axis-api/internal/middleware"
	"github.com/axis-edu/axis-api/internal/models"
	"github.com/axis-edu/axis-api/internal/realtime"
	"github.com/axis-edu/axis-api/internal/repository"
	"github.com/axis-edu/axis-api/internal/service"
	"github.com/axis-edu/axis-api/pkg/cache"
	"github.com/axis-edu/axis-api/pkg/config"
	"github.com/axis-edu/axis-api/pkg/database"
	"github.com/axis-edu/axis-api/pkg/jobs"
	"github.com/axis-edu/axis-api/pkg/logger"
	corsmiddleware "github.com/axis-edu/axis-api/pkg/middleware/cors"
	reqidmiddleware "github.com/axis-edu/axis-api/pkg/middleware/requestid"
)

// @title Axis API
// @version 1.0.0
// @description Classroom mastery tracking service
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	pointRepo := repository.NewPointRepository(db)
	studentPointRepo := repository.NewStudentPointRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)
	broker := realtime.NewRedisBroker(redisClient, logr)

	queue := jobs.NewQueue("provisioning", provisionHandler(pointRepo, studentPointRepo, logr), jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})
	queue.Start(context.Background())
	defer queue.Stop()

	assembler := service.NewAssemblerService(sectionRepo, courseRepo, semesterRepo, enrollmentRepo, userRepo, cacheSvc, logr)
	gradeViews := service.NewGradeViewService(sectionRepo, courseRepo, pointRepo, studentPointRepo, metrics, logr)
	sections := service.NewSectionService(sectionRepo, courseRepo, pointRepo, enrollmentRepo, queue, assembler, validate, logr)
	enrollments := service.NewEnrollmentService(enrollmentRepo, sectionRepo, userRepo, sections, assembler, validate, logr)
	courses := service.NewCourseService(courseRepo, validate, logr)
	studentPoints := service.NewStudentPointService(studentPointRepo, broker, cacheSvc, validate, logr)
	users := service.NewUserService(userRepo, validate, logr)
	auth := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	exports := service.NewExportService(gradeViews, assembler, assembler, logr, nil, nil)

	var reconciler *realtime.Reconciler
	if cfg.Realtime.Enabled {
		reconciler = realtime.NewReconciler(broker, gradeViews, metrics, realtime.Config{
			DebounceWindow: cfg.Realtime.DebounceWindow,
			RefreshTimeout: cfg.Realtime.RefreshTimeout,
		}, logr)
	}

	authHandler := handler.NewAuthHandler(auth)
	userHandler := handler.NewUserHandler(users)
	teacherHandler := handler.NewTeacherHandler(assembler)
	studentHandler := handler.NewStudentHandler(assembler, enrollments)
	courseHandler := handler.NewCourseHandler(courses)
	sectionHandler := handler.NewSectionHandler(sections, assembler)
	gradeViewHandler := handler.NewGradeViewHandler(gradeViews, reconciler)
	studentPointHandler := handler.NewStudentPointHandler(studentPoints)
	exportHandler := handler.NewExportHandler(exports)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(auth))
	{
		authed.GET("/users/me", userHandler.Me)
		authed.PUT("/users/me/password", userHandler.ChangePassword)
		authed.PUT("/users/me/school", userHandler.ChangeSchool)

		authed.GET("/sections/:id/students/:studentId/gradeview", gradeViewHandler.Snapshot)
		authed.GET("/sections/:id/students/:studentId/gradeview/stream", gradeViewHandler.Stream)
	}

	teachers := api.Group("")
	teachers.Use(middleware.JWT(auth), middleware.RequireRoles(models.RoleTeacher))
	{
		teachers.GET("/teachers/me/data", teacherHandler.Data)
		teachers.POST("/courses", courseHandler.Create)
		teachers.GET("/courses/:id/outline", courseHandler.Outline)
		teachers.POST("/sections", sectionHandler.Create)
		teachers.POST("/sections/:id/points", sectionHandler.ConfigurePoints)
		teachers.GET("/sections/:id/roster", sectionHandler.Roster)
		teachers.GET("/sections/:id/preview", sectionHandler.Preview)
		teachers.PATCH("/student-points/:id", studentPointHandler.UpdateStatus)
		if cfg.Exports.Enabled {
			teachers.GET("/sections/:id/export", exportHandler.SectionMastery)
		}
	}

	students := api.Group("")
	students.Use(middleware.JWT(auth), middleware.RequireRoles(models.RoleStudent))
	{
		students.GET("/students/me/data", studentHandler.Data)
		students.POST("/students/me/enrollments", studentHandler.Enroll)
		students.DELETE("/students/me/enrollments/:sectionId", studentHandler.Disenroll)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// provisionHandler creates the per-student status rows for every point in
// a section. Runs on the background queue so enrollment never blocks on
// the size of the course.
func provisionHandler(points *repository.PointRepository, studentPoints *repository.StudentPointRepository, logr *zap.Logger) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		if job.Type != jobs.TypeProvisionStudentPoints {
			return fmt.Errorf("unknown job type %q", job.Type)
		}
		payload, ok := job.Payload.(jobs.ProvisionStudentPointsPayload)
		if !ok {
			return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
		}

		sectionPoints, err := points.ListBySection(ctx, payload.SectionID)
		if err != nil {
			return err
		}
		pointIDs := make([]int64, len(sectionPoints))
		for i, p := range sectionPoints {
			pointIDs[i] = p.ID
		}
		if err := studentPoints.EnsureForStudent(ctx, payload.StudentID, pointIDs); err != nil {
			return err
		}

		logr.Debug("student points provisioned",
			zap.Int64("section_id", payload.SectionID),
			zap.Int64("student_id", payload.StudentID),
			zap.Int("points", len(pointIDs)),
		)
		return nil
	}
}
