package main

import (
	"fmt"
	"os"

	"fundledger/internal/config"
	"fundledger/internal/database"
	"fundledger/internal/filestore"
	"fundledger/internal/logger"
	"fundledger/internal/router"
	"fundledger/internal/validator"
)

// @title           FundLedger API
// @version         1.0
// @description     Project fund ledger: deposits, allocations to projects and expenses against allocations.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	logger.Init(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	store, err := filestore.NewLocalStore(appConfig.UploadDir, appConfig.UploadMaxBytes)
	if err != nil {
		return fmt.Errorf("failed to prepare upload directory: %w", err)
	}

	validator.Register()

	svc := router.NewServices(dbManager.DB(), store, appConfig.Currency)
	engine := router.SetupRouter(appConfig, svc, store.Root())

	log.Infof("Starting FundLedger server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return engine.Run(":" + appConfig.Port)
}
