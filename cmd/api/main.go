package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/scolara/scolara-api/api/swagger"
	"github.com/scolara/scolara-api/internal/handler"
	"github.com/scolara/scolara-api/internal/middleware"
	"github.com/scolara/scolara-api/internal/models"
	"github.com/scolara/scolara-api/internal/repository"
	"github.com/scolara/scolara-api/internal/service"
	"github.com/scolara/scolara-api/pkg/cache"
	"github.com/scolara/scolara-api/pkg/config"
	"github.com/scolara/scolara-api/pkg/database"
	"github.com/scolara/scolara-api/pkg/logger"
	corsmiddleware "github.com/scolara/scolara-api/pkg/middleware/cors"
	reqidmiddleware "github.com/scolara/scolara-api/pkg/middleware/requestid"
)

// @title Scolara API
// @version 1.0.0
// @description School administration API: academic structure, scheduling, attendance and messaging.
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
			redisClient = nil
		}
	}

	r := buildRouter(cfg, logr, db, redisClient)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func buildRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.ScheduleTTL, logr, cfg.Cache.Enabled && cacheRepo != nil)

	sessionRepo := repository.NewSessionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	academicRepo := repository.NewAcademicRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	authSvc := service.NewAuthService(service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret}, logr)
	sessionSvc := service.NewSessionService(sessionRepo, cacheSvc, metricsSvc, validate, logr)
	scheduleSvc := service.NewScheduleService(sessionRepo, studentRepo, teacherRepo, cacheSvc, cfg.Cache.ScheduleTTL, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, sessionRepo, teacherRepo, studentRepo, cacheSvc, validate, logr)
	summarySvc := service.NewSummaryService(attendanceRepo, studentRepo, teacherRepo, cacheSvc, cfg.Cache.SummaryTTL, cfg.Attendance.EliminationThreshold, logr)
	academicSvc := service.NewAcademicService(academicRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, academicRepo, validate, logr)
	roomSvc := service.NewRoomService(roomRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, authSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, academicRepo, authSvc, validate, logr)
	messageSvc := service.NewMessageService(messageRepo, userRepo, validate, logr)
	exportSvc := service.NewExportService(studentRepo, attendanceRepo, nil, nil, cfg.Attendance.EliminationThreshold, logr)
	importSvc := service.NewImportService(studentSvc, logr)

	academicHandler := handler.NewAcademicHandler(academicSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	roomHandler := handler.NewRoomHandler(roomSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc, scheduleSvc)
	studentPortal := handler.NewStudentPortalHandler(scheduleSvc, summarySvc)
	teacherPortal := handler.NewTeacherPortalHandler(scheduleSvc, attendanceSvc, summarySvc)
	absenceHandler := handler.NewAbsenceHandler(summarySvc, attendanceSvc)
	messageHandler := handler.NewMessageHandler(messageSvc)
	exportHandler := handler.NewExportHandler(exportSvc, importSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)
	api.Use(middleware.JWT(authSvc))

	admin := api.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/departments", academicHandler.ListDepartments)
		admin.POST("/departments", academicHandler.CreateDepartment)
		admin.GET("/departments/:id", academicHandler.GetDepartment)
		admin.PUT("/departments/:id", academicHandler.UpdateDepartment)
		admin.DELETE("/departments/:id", academicHandler.DeleteDepartment)

		admin.GET("/specialties", academicHandler.ListSpecialties)
		admin.POST("/specialties", academicHandler.CreateSpecialty)
		admin.GET("/specialties/:id", academicHandler.GetSpecialty)
		admin.PUT("/specialties/:id", academicHandler.UpdateSpecialty)
		admin.DELETE("/specialties/:id", academicHandler.DeleteSpecialty)

		admin.GET("/levels", academicHandler.ListLevels)
		admin.POST("/levels", academicHandler.CreateLevel)
		admin.GET("/levels/:id", academicHandler.GetLevel)
		admin.PUT("/levels/:id", academicHandler.UpdateLevel)
		admin.DELETE("/levels/:id", academicHandler.DeleteLevel)

		admin.GET("/groups", academicHandler.ListGroups)
		admin.POST("/groups", academicHandler.CreateGroup)
		admin.GET("/groups/:id", academicHandler.GetGroup)
		admin.DELETE("/groups/:id", academicHandler.DeleteGroup)
		admin.GET("/groups/:id/students", studentHandler.Roster)
		admin.GET("/groups/:id/schedule", sessionHandler.GroupSchedule)

		admin.GET("/subjects", subjectHandler.List)
		admin.POST("/subjects", subjectHandler.Create)
		admin.GET("/subjects/:id", subjectHandler.Get)
		admin.PUT("/subjects/:id", subjectHandler.Update)
		admin.DELETE("/subjects/:id", subjectHandler.Delete)

		admin.GET("/rooms", roomHandler.List)
		admin.POST("/rooms", roomHandler.Create)
		admin.GET("/rooms/:id", roomHandler.Get)
		admin.PUT("/rooms/:id", roomHandler.Update)
		admin.DELETE("/rooms/:id", roomHandler.Delete)

		admin.GET("/teachers", teacherHandler.List)
		admin.POST("/teachers", teacherHandler.Create)
		admin.GET("/teachers/:id", teacherHandler.Get)
		admin.PUT("/teachers/:id", teacherHandler.Update)
		admin.DELETE("/teachers/:id", teacherHandler.Deactivate)

		admin.GET("/students", studentHandler.List)
		admin.POST("/students", studentHandler.Create)
		admin.GET("/students/:id", studentHandler.Get)
		admin.PUT("/students/:id", studentHandler.Update)
		admin.DELETE("/students/:id", studentHandler.Deactivate)
		admin.GET("/students/:id/summary", absenceHandler.StudentSummary)

		admin.GET("/sessions", sessionHandler.List)
		admin.POST("/sessions", sessionHandler.Create)
		admin.GET("/sessions/:id", sessionHandler.Get)
		admin.PUT("/sessions/:id", sessionHandler.Update)
		admin.DELETE("/sessions/:id", sessionHandler.Delete)

		admin.GET("/absences", absenceHandler.List)
		admin.PUT("/absences/:id/justify", absenceHandler.Justify)

		admin.GET("/export/students", exportHandler.StudentsCSV)
		admin.GET("/export/absences", exportHandler.AbsencesCSV)
		admin.GET("/export/students/:id/absence-report", exportHandler.AbsenceReportPDF)
		admin.POST("/import/students", exportHandler.ImportStudents)
	}

	teacher := api.Group("/teacher")
	teacher.Use(middleware.RequireRoles(models.RoleTeacher))
	{
		teacher.GET("/schedule", teacherPortal.Schedule)
		teacher.GET("/sessions/today", teacherPortal.Today)
		teacher.POST("/sessions/:id/attendance", teacherPortal.MarkAttendance)
		teacher.GET("/at-risk", teacherPortal.AtRisk)
		teacher.GET("/statistics", teacherPortal.Statistics)
	}

	student := api.Group("/student")
	student.Use(middleware.RequireRoles(models.RoleStudent))
	{
		student.GET("/schedule", studentPortal.Schedule)
		student.GET("/absences", studentPortal.Absences)
		student.GET("/summary", studentPortal.Summary)
	}

	messages := api.Group("/messages")
	{
		messages.POST("", messageHandler.Send)
		messages.GET("/inbox", messageHandler.Inbox)
		messages.GET("/sent", messageHandler.Sent)
		messages.PUT("/:id/read", messageHandler.MarkRead)
	}

	return r
}
