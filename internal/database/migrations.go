package database

import (
	"opsflow/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

// Models lists every table in dependency order.
func Models() []any {
	return []any{
		&models.Company{},
		&models.Profile{},
		&models.ServiceRequest{},
		&models.Quote{},
		&models.Intervention{},
		&models.Audit{},
		&models.Message{},
		&models.WorkflowLog{},
		&models.Followup{},
	}
}

// AutoMigrate runs GORM AutoMigrate for all models against the given connection.
func AutoMigrate(db *gorm.DB) error {
	log := logger.New("database").Function("AutoMigrate")

	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			return log.Err("Failed to migrate model", err, "model", model)
		}
	}

	return nil
}

// CreateIndexes creates additional indexes that GORM doesn't create automatically
func (db *DB) CreateIndexes() error {
	log := logger.New("database").Function("CreateIndexes")
	log.Info("Creating additional database indexes")

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_followups_pending_due ON followups(next_action_date) WHERE status = 'pending'",
		"CREATE INDEX IF NOT EXISTS idx_quotes_client_status ON quotes(client_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_service_requests_client_status ON service_requests(client_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_workflow_logs_created_at ON workflow_logs(created_at DESC)",
	}

	for _, indexSQL := range indexes {
		if err := db.SQL.Exec(indexSQL).Error; err != nil {
			log.Warn("Failed to create index", "sql", indexSQL, "error", err)
		}
	}

	log.Info("Additional database indexes created")
	return nil
}
