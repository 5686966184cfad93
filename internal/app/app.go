package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"evbooking/internal/config"
	"evbooking/internal/db"
	httpserver "evbooking/internal/http"
	"evbooking/internal/http/handlers"
	"evbooking/internal/http/middleware"
	"evbooking/internal/notifier"
	"evbooking/internal/qr"
	libredis "evbooking/internal/redis"
	"evbooking/internal/repository"
	"evbooking/internal/service"
	"evbooking/internal/sweep"
)

// App wires booking-service dependencies.
type App struct {
	server      *httpserver.Server
	sweeper     *sweep.NoShowSweeper
	hub         *notifier.Hub
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	redisClient, err := libredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	stationRepo := repository.NewStationRepository(sqlDB)
	bookingRepo := repository.NewBookingRepository(sqlDB)

	passStore := qr.NewStore(redisClient)
	passes := qr.NewService(cfg.Auth.JWTSecret, passStore, bookingRepo)

	hub := notifier.NewHub(logger)

	lifecycle := service.NewLifecycle(stationRepo, bookingRepo, passes, hub, logger, service.LifecycleConfig{
		BookingWindow:      cfg.BookingWindow(),
		ModificationCutoff: cfg.ModificationCutoff(),
	})

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Bookings: handlers.NewBookingsHandler(lifecycle, logger),
		Stations: handlers.NewStationsHandler(stationRepo, lifecycle.Checker(), logger),
		QR:       handlers.NewQRHandler(passes, logger),
		Hub:      hub,
		Auth:     middleware.Auth(cfg.Auth.JWTSecret),
	})
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	var sweeper *sweep.NoShowSweeper
	if cfg.Sweep.Enabled {
		sweeper = sweep.NewNoShowSweeper(lifecycle, cfg.SweepInterval(), cfg.NoShowGrace(), logger)
	}

	return &App{
		server:      server,
		sweeper:     sweeper,
		hub:         hub,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts the HTTP server and, when enabled, the no-show sweeper.
func (a *App) Run(ctx context.Context) error {
	if a.sweeper != nil {
		go a.sweeper.Run(ctx)
	}
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.hub != nil {
		a.hub.Close()
	}
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
