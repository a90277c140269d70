package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/gridsync-io/gridsync-engine/pkg/auth"
	"github.com/gridsync-io/gridsync-engine/pkg/cache"
	"github.com/gridsync-io/gridsync-engine/pkg/config"
	"github.com/gridsync-io/gridsync-engine/pkg/database"
	"github.com/gridsync-io/gridsync-engine/pkg/docstore"
	"github.com/gridsync-io/gridsync-engine/pkg/handlers"
	"github.com/gridsync-io/gridsync-engine/pkg/logging"
	"github.com/gridsync-io/gridsync-engine/pkg/middleware"
	"github.com/gridsync-io/gridsync-engine/pkg/repositories"
	"github.com/gridsync-io/gridsync-engine/pkg/services"
	"github.com/gridsync-io/gridsync-engine/pkg/sheets"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("sheets_proxy", cfg.Sheets.ProxyBaseURL),
		zap.Int("operator_accounts", len(cfg.Auth.Users)))

	ctx := context.Background()

	// Migrations run over database/sql; the app itself uses the pgx pool.
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open database for migrations", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	var persistentLists *cache.PersistentCache
	if redisClient != nil {
		persistentLists = cache.NewPersistentCache(redisClient, "sheets", cfg.Sheets.SheetListMaxAge())
	} else {
		logger.Warn("Redis not configured, tab lists will not survive restarts")
	}

	store := docstore.New(db, logger)
	connRepo := repositories.NewConnectionRepository(store)
	dbRepo := repositories.NewDatabaseRepository(store)
	tableRepo := repositories.NewTableRepository(store)
	headerRepo := repositories.NewHeaderRepository(store)
	rowRepo := repositories.NewSyncedRowRepository(store)

	sheetsClient := sheets.NewClient(&cfg.Sheets, persistentLists, logger)

	connectionSvc := services.NewConnectionService(connRepo, dbRepo, sheetsClient, logger)
	databaseSvc := services.NewDatabaseService(connRepo, dbRepo, tableRepo, sheetsClient, cfg.Sheets.SheetListMaxAge(), logger)
	tableSvc := services.NewTableService(dbRepo, tableRepo, headerRepo, rowRepo, logger)
	headerSvc := services.NewHeaderService(connRepo, dbRepo, tableRepo, headerRepo, sheetsClient, logger)
	syncSvc := services.NewSyncService(connRepo, dbRepo, tableRepo, headerRepo, rowRepo, sheetsClient, logger)
	dashboardSvc := services.NewDashboardService(rowRepo, cfg.Dashboard.NoiseToken, logger)

	sessionMgr := auth.NewManager(&cfg.Auth, cfg.Env)
	authMW := middleware.NewAuthMiddleware(sessionMgr)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewSessionHandler(sessionMgr, logger).RegisterRoutes(mux, authMW)
	handlers.NewConnectionsHandler(connectionSvc, logger).RegisterRoutes(mux, authMW)
	handlers.NewDatabasesHandler(databaseSvc, logger).RegisterRoutes(mux, authMW)
	handlers.NewTablesHandler(tableSvc, logger).RegisterRoutes(mux, authMW)
	handlers.NewHeadersHandler(headerSvc, logger).RegisterRoutes(mux, authMW)
	handlers.NewSyncHandler(syncSvc, logger).RegisterRoutes(mux, authMW)
	handlers.NewDashboardHandler(dashboardSvc, logger).RegisterRoutes(mux, authMW)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting gridsync-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
