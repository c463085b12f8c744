package initialize

import (
	"opsflow/config"
	"opsflow/internal/database"

	logger "github.com/Bparsons0904/goLogger"
)

// InitializeTables applies what AutoMigrate cannot express, such as partial indexes.
func InitializeTables(db database.DB, config config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Initializing essential production data")

	if err := db.CreateIndexes(); err != nil {
		return log.Err("failed to create indexes", err)
	}

	log.Info("Table initialization complete")
	return nil
}
