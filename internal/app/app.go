package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"parkwise/internal/cache"
	"parkwise/internal/config"
	httpserver "parkwise/internal/http"
	"parkwise/internal/http/handlers"
	"parkwise/internal/http/middleware"
	"parkwise/internal/repository"
	"parkwise/internal/service"
	"parkwise/internal/ws"
	"parkwise/libs/db"
	libredis "parkwise/libs/redis"
)

// App wires parking-service dependencies.
type App struct {
	server      *httpserver.Server
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	if err := repository.EnsureSchema(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	redisClient, err := libredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	vehicleRepo := repository.NewVehicleRepository(sqlDB)
	slotRepo := repository.NewSlotRepository(sqlDB)
	sessionRepo := repository.NewSessionRepository(sqlDB)
	chargeRepo := repository.NewChargeRepository(sqlDB)
	fineRepo := repository.NewFineRepository(sqlDB)

	occupancyStore := cache.NewOccupancyStore(redisClient, cfg.OccupancyTTL())
	hub := ws.NewHub(logger)
	feed := ws.NewServer(hub, logger)

	parkingService := service.NewParkingService(
		vehicleRepo,
		slotRepo,
		sessionRepo,
		chargeRepo,
		occupancyStore,
		hub,
		nil,
		logger,
	)

	parkingHandler := handlers.NewParkingHandler(parkingService, logger)
	sessionsHandler := handlers.NewSessionsHandler(sessionRepo, logger)
	slotsHandler := handlers.NewSlotsHandler(slotRepo, logger)
	paymentsHandler := handlers.NewPaymentsHandler(chargeRepo, logger)
	finesHandler := handlers.NewFinesHandler(fineRepo, sessionRepo, logger)
	vehiclesHandler := handlers.NewVehiclesHandler(vehicleRepo, logger)

	routes := httpserver.Routes{
		Entry:   parkingHandler.HandleEntry,
		Exit:    parkingHandler.HandleExit,
		Status:  parkingHandler.HandleStatus,
		Feed:    feed.HandleFeed,
		Recent:  sessionsHandler.HandleRecent,
		Active:  sessionsHandler.HandleActive,
		History: sessionsHandler.HandleHistory,

		SlotsList:      slotsHandler.HandleList,
		SlotsAvailable: slotsHandler.HandleAvailable,
		SlotsStats:     slotsHandler.HandleStats,
		SlotCreate:     slotsHandler.HandleCreate,
		SlotUpdate:     slotsHandler.HandleUpdate,
		SlotDelete:     slotsHandler.HandleDelete,

		PaymentsList:     paymentsHandler.HandleList,
		PaymentsStats:    paymentsHandler.HandleStats,
		PaymentBySession: paymentsHandler.HandleBySession,

		FinesList:  finesHandler.HandleList,
		FineCreate: finesHandler.HandleCreate,
		FinesStats: finesHandler.HandleStats,

		VehiclesList: vehiclesHandler.HandleList,
		VehicleGet:   vehiclesHandler.HandleGet,

		Health: handlers.NewHealthHandler(),
	}

	admin := middleware.RequireOperator(cfg.Auth.JWTSecret)
	router := httpserver.NewRouter(routes, httpserver.Admin(admin))
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
