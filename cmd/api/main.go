package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cellarworks/cellar-service/pkg/cloudevents"
	"github.com/cellarworks/cellar-service/pkg/errors"
	"github.com/cellarworks/cellar-service/pkg/kafka"
	"github.com/cellarworks/cellar-service/pkg/logging"
	"github.com/cellarworks/cellar-service/pkg/metrics"
	"github.com/cellarworks/cellar-service/pkg/middleware"
	"github.com/cellarworks/cellar-service/pkg/mongodb"
	"github.com/cellarworks/cellar-service/pkg/outbox"
	"github.com/cellarworks/cellar-service/pkg/tracing"

	"github.com/cellarworks/cellar-service/internal/application"
	"github.com/cellarworks/cellar-service/internal/domain"
	mongoRepo "github.com/cellarworks/cellar-service/internal/infrastructure/mongodb"
)

const serviceName = "cellar-service"

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting cellar-service API")

	config := loadConfig()
	ctx := context.Background()

	// OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	// Prometheus metrics
	metricsConfig := metrics.DefaultConfig(serviceName)
	m := metrics.New(metricsConfig)
	logger.Info("Metrics initialized")

	// MongoDB with instrumentation
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	instrumentedMongo := mongodb.NewInstrumentedClient(mongoClient, m, logger)
	defer instrumentedMongo.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Kafka producer with instrumentation
	kafkaProducer := kafka.NewProducer(config.Kafka)
	instrumentedProducer := kafka.NewInstrumentedProducer(kafkaProducer, m, logger)
	defer instrumentedProducer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	// CloudEvents factory
	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceCellarService)

	// Repositories
	slotRepo := mongoRepo.NewSlotRepository(instrumentedMongo, eventFactory)
	planRepo := mongoRepo.NewReorgPlanRepository(instrumentedMongo, eventFactory)

	// Seed the physical grid on first start
	if err := slotRepo.EnsureGrid(ctx); err != nil {
		logger.WithError(err).Error("Failed to ensure cellar grid")
		os.Exit(1)
	}
	logger.Info("Cellar grid ensured")

	// Outbox publisher
	outboxPublisher := outbox.NewPublisher(
		slotRepo.GetOutboxRepository(),
		instrumentedProducer,
		logger,
		m,
		&outbox.PublisherConfig{
			PollInterval: 1 * time.Second,
			BatchSize:    100,
		},
	)
	if err := outboxPublisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}
	defer outboxPublisher.Stop()
	logger.Info("Outbox publisher started")

	// Application service
	reorgService := application.NewReorgService(slotRepo, planRepo, logger, m)

	// Gin router with standard middleware
	router := gin.New()
	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)

	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.SimpleTracingMiddleware(serviceName))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return instrumentedMongo.HealthCheck(ctx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	api := router.Group("/api/v1/layout")
	{
		api.GET("", getLayoutHandler(reorgService, logger))
		api.POST("/slots", assignSlotHandler(reorgService, logger))
		api.DELETE("/slots/:code", clearSlotHandler(reorgService, logger))
		api.POST("/plan/preview", previewPlanHandler(reorgService, logger))
		api.POST("/plan", computePlanHandler(reorgService, logger))
		api.GET("/plans", listPlansHandler(reorgService, logger))
		api.GET("/plans/:planId", getPlanHandler(reorgService, logger))
		api.POST("/plans/:planId/execute", executePlanHandler(reorgService, logger))
		api.POST("/plans/:planId/discard", discardPlanHandler(reorgService, logger))
		api.POST("/moves/analyze", analyzeMovesHandler(reorgService, logger))
	}

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr string
	MongoDB    *mongodb.Config
	Kafka      *kafka.Config
}

func loadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "cellar"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: &kafka.Config{
			Brokers:      []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ClientID:     serviceName,
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: -1,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// HTTP Handlers

func respondError(responder *middleware.ErrorResponder, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		responder.RespondWithAppError(appErr)
	} else {
		responder.RespondInternalError(err)
	}
}

func getLayoutHandler(service *application.ReorgService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		view, err := service.GetLayout(c.Request.Context())
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, view)
	}
}

func assignSlotHandler(service *application.ReorgService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			LocationCode string `json:"locationCode" binding:"required,slot_code"`
			WineID       int    `json:"wineId" binding:"required,min=1"`
			WineName     string `json:"wineName" binding:"omitempty,safe_string"`
			Colour       string `json:"colour"`
			ZoneID       string `json:"zoneId"`
		}

		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		slot, err := service.AssignSlot(c.Request.Context(), application.AssignSlotCommand{
			LocationCode: req.LocationCode,
			WineID:       req.WineID,
			WineName:     req.WineName,
			Colour:       req.Colour,
			ZoneID:       req.ZoneID,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, slot)
	}
}

func clearSlotHandler(service *application.ReorgService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		occupant, err := service.ClearSlot(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"cleared": occupant})
	}
}

// targetLayoutRequest is the wire shape of a desired layout
type targetLayoutRequest struct {
	Target map[string]struct {
		WineID     int    `json:"wineId" binding:"required,min=1"`
		WineName   string `json:"wineName"`
		ZoneID     string `json:"zoneId"`
		Confidence string `json:"confidence" binding:"omitempty,confidence"`
	} `json:"target" binding:"required"`
}

func (r *targetLayoutRequest) toCommand() (application.ComputePlanCommand, *errors.AppError) {
	target := make(domain.TargetLayout, len(r.Target))
	for code, slot := range r.Target {
		if _, _, _, err := domain.ParseSlotCode(code); err != nil {
			return application.ComputePlanCommand{}, errors.ErrValidation(err.Error()).
				WithDetail("slot", code)
		}
		target[code] = domain.TargetSlot{
			WineID:     slot.WineID,
			WineName:   slot.WineName,
			ZoneID:     slot.ZoneID,
			Confidence: domain.Confidence(slot.Confidence),
		}
	}
	return application.ComputePlanCommand{Target: target}, nil
}

func previewPlanHandler(service *application.ReorgService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req targetLayoutRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd, appErr := req.toCommand()
		if appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		result, err := service.PreviewPlan(c.Request.Context(), cmd)
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func computePlanHandler(service *application.ReorgService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req targetLayoutRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd, appErr := req.toCommand()
		if appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		result, err := service.ComputePlan(c.Request.Context(), cmd)
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, result)
	}
}

func listPlansHandler(service *application.ReorgService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		limit := 20
		if limitStr := c.Query("limit"); limitStr != "" {
			if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		plans, err := service.ListPlans(c.Request.Context(), limit)
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"plans": plans, "total": len(plans)})
	}
}

func getPlanHandler(service *application.ReorgService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		plan, err := service.GetPlan(c.Request.Context(), c.Param("planId"))
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, plan)
	}
}

func executePlanHandler(service *application.ReorgService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		plan, err := service.ExecutePlan(c.Request.Context(), c.Param("planId"))
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, plan)
	}
}

func discardPlanHandler(service *application.ReorgService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		plan, err := service.DiscardPlan(c.Request.Context(), c.Param("planId"))
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, plan)
	}
}

func analyzeMovesHandler(service *application.ReorgService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Moves []struct {
				WineID   int    `json:"wineId"`
				WineName string `json:"wineName"`
				From     string `json:"from" binding:"required,slot_code"`
				To       string `json:"to" binding:"required,slot_code"`
				MoveType string `json:"moveType" binding:"omitempty,move_type"`
			} `json:"moves" binding:"required"`
			TypeFilter string `json:"typeFilter" binding:"omitempty,move_type"`
		}

		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		moves := make([]domain.Move, 0, len(req.Moves))
		for _, m := range req.Moves {
			moves = append(moves, domain.Move{
				WineID:   m.WineID,
				WineName: m.WineName,
				From:     m.From,
				To:       m.To,
				Type:     domain.MoveType(m.MoveType),
			})
		}

		analysis, err := service.AnalyzeMoves(c.Request.Context(), application.AnalyzeMovesCommand{
			Moves:      moves,
			TypeFilter: domain.MoveType(req.TypeFilter),
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, analysis)
	}
}
