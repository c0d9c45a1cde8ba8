package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/timetable-api/api/swagger"
	"github.com/noah-isme/timetable-api/internal/handler"
	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/cache"
	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/database"
	"github.com/noah-isme/timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/requestid"
)

// @title School Timetable API
// @version 1.0.0
// @description Deterministic weekly timetable auto-generation engine
// @BasePath /
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, timetable caching disabled", "error", err)
		redisClient = nil
	}

	periodRepo := repository.NewPeriodRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	assignmentRepo := repository.NewTeacherAssignmentRepository(db)
	calendarRepo := repository.NewGradeCalendarRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	requirementRepo := repository.NewLessonRequirementRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	tokenSvc := service.NewTokenService(cfg.JWT)
	timetableSvc := service.NewTimetableService(
		periodRepo, roomRepo, classRepo, subjectRepo, teacherRepo,
		calendarRepo, requirementRepo, availabilityRepo, slotRepo,
		db, cacheRepo, metricsSvc, nil, logr, cfg.Scheduler,
	)
	querySvc := service.NewTimetableQueryService(
		slotRepo, periodRepo, roomRepo, classRepo, subjectRepo, teacherRepo,
		requirementRepo, cacheRepo, cfg.Timetable.PublicCacheTTL, logr,
	)
	availabilitySvc := service.NewAvailabilityService(
		availabilityRepo, periodRepo, classRepo, subjectRepo, teacherRepo, nil, logr,
	)
	lessonSvc := service.NewLessonConfigService(
		requirementRepo, assignmentRepo, classRepo, subjectRepo, teacherRepo,
		nil, logr, cfg.Scheduler,
	)
	topologySvc := service.NewTopologyService(periodRepo, roomRepo, calendarRepo, nil, logr)

	timetableHandler := handler.NewTimetableHandler(timetableSvc, querySvc)
	timeOffHandler := handler.NewTimeOffHandler(availabilitySvc)
	lessonHandler := handler.NewLessonConfigHandler(lessonSvc)
	topologyHandler := handler.NewTopologyHandler(topologySvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := middleware.JWT(tokenSvc)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	api := r.Group(cfg.APIPrefix)

	api.GET("/timetable/public", timetableHandler.Public)

	protected := api.Group("", auth)
	protected.GET("/timetable/all", timetableHandler.All)
	protected.GET("/timetable/my", timetableHandler.My)
	protected.GET("/timetable/class/:id", timetableHandler.ByClass)
	protected.GET("/timetable/export/csv", timetableHandler.ExportCSV)
	protected.GET("/timetable/export/pdf", timetableHandler.ExportPDF)

	admin := api.Group("", auth, adminOnly)
	admin.POST("/timetable/auto-generate", timetableHandler.Generate)

	admin.GET("/timeoff/:ownerType/:ownerId", timeOffHandler.Matrix)
	admin.POST("/timeoff/:ownerType/:ownerId", timeOffHandler.Replace)
	admin.PUT("/timeoff/:ownerType/:ownerId", timeOffHandler.Replace)

	admin.GET("/lesson-config", lessonHandler.List)
	admin.POST("/lesson-config", lessonHandler.Create)
	admin.PUT("/lesson-config/:id", lessonHandler.Update)
	admin.DELETE("/lesson-config/:id", lessonHandler.Delete)
	admin.POST("/lesson-config/from-assignments", lessonHandler.Import)

	admin.GET("/periods", topologyHandler.ListPeriods)
	admin.POST("/periods", topologyHandler.CreatePeriod)
	admin.PUT("/periods/:id", topologyHandler.UpdatePeriod)
	admin.DELETE("/periods/:id", topologyHandler.DeletePeriod)

	admin.GET("/rooms", topologyHandler.ListRooms)
	admin.POST("/rooms", topologyHandler.CreateRoom)
	admin.PUT("/rooms/:id", topologyHandler.UpdateRoom)
	admin.DELETE("/rooms/:id", topologyHandler.DeleteRoom)

	admin.GET("/grade-calendars", topologyHandler.GradeCalendars)
	admin.PUT("/grade-calendars/:grade", topologyHandler.ReplaceGradeCalendar)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
