package main

import (
	"flag"
	"log"

	"github.com/noah-isme/school-portal-api/pkg/config"
	"github.com/noah-isme/school-portal-api/pkg/database"
	"github.com/noah-isme/school-portal-api/pkg/logger"
)

// Usage: migrate [up|down|status|reset]
func main() {
	flag.Parse()
	command := database.MigrateUp
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

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
		logr.Sugar().Fatalw("connect postgres", "error", err)
	}
	defer db.Close()

	if err := database.Migrate(db.DB, command); err != nil {
		logr.Sugar().Fatalw("migration failed", "command", command, "error", err)
	}
	logr.Sugar().Infow("migration finished", "command", command)
}
