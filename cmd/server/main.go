package main

import (
	"log"

	"github.com/jmoiron/sqlx"

	"timetracker/internal/config"
	"timetracker/internal/db"
	"timetracker/internal/handler"
	"timetracker/internal/repository"
	"timetracker/internal/router"
	"timetracker/internal/service"
)

func main() {
	cfg := config.Load()

	database, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	timeRepo := repository.NewTimeRepository(database)
	tracker := service.NewTrackerService(timeRepo)

	sessionHandler := handler.NewSessionHandler(tracker)
	entryHandler := handler.NewEntryHandler(tracker)
	summaryHandler := handler.NewSummaryHandler(tracker)

	engine := router.New(sessionHandler, entryHandler, summaryHandler, cfg.CORSOrigins)
	log.Printf("timetracker listening on :%s (driver: %s)", cfg.Port, cfg.DBDriver)
	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatalf("run server: %v", err)
	}
}

func openDatabase(cfg config.Config) (*sqlx.DB, error) {
	if cfg.DBDriver == config.DriverPostgres {
		return db.OpenPostgres(cfg.DatabaseURL)
	}
	return db.OpenSQLite(cfg.DBPath)
}
