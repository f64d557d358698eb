package main

import (
	"log"

	"github.com/jmoiron/sqlx"

	"timetracker/internal/config"
	"timetracker/internal/db"
)

func main() {
	cfg := config.Load()

	var database *sqlx.DB
	var err error
	if cfg.DBDriver == config.DriverPostgres {
		database, err = db.OpenPostgres(cfg.DatabaseURL)
	} else {
		database, err = db.OpenSQLite(cfg.DBPath)
	}
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	log.Println("migrations applied successfully")
}
