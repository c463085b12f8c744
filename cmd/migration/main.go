package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"opsflow/cmd/migration/initialize"
	"opsflow/cmd/migration/seed"
	"opsflow/config"
	"opsflow/internal/database"

	logger "github.com/Bparsons0904/goLogger"
	_ "github.com/lib/pq"
	migrate "github.com/rubenv/sql-migrate"
	"gorm.io/gorm"
)

const (
	MIGRATION_PATH = "cmd/migration/migrations"
	MIGRATION_DB   = "postgres"
)

const usage = "usage: migration [up | down [steps] | status | seed]"

func main() {
	log := logger.New("migrations").Function("main")

	config, err := config.New()
	if err != nil {
		log.Er("failed to initialize config", err)
		os.Exit(1)
	}

	db, err := database.New(config)
	if err != nil {
		log.Er("failed to create database", err)
		os.Exit(1)
	}
	defer db.Close()

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		err = migrateUp(db, config, log)
	case "down":
		steps := 1
		if len(os.Args) > 2 {
			steps, err = strconv.Atoi(os.Args[2])
			if err == nil && steps <= 0 {
				err = fmt.Errorf("steps must be positive, got %d", steps)
			}
		}
		if err == nil {
			err = migrateDown(steps, config, log)
		}
	case "status":
		err = migrationStatus(config, log)
	case "seed":
		err = migrateSeed(db, config, log)
	default:
		err = fmt.Errorf("unknown command %q; %s", command, usage)
	}

	if err != nil {
		log.Er("migration command failed", err, "command", command)
		os.Exit(1)
	}

	log.Info("Migration command complete", "command", command)
}

// migrateUp applies SQL files first (extensions, hand-written DDL), then the gorm schema,
// then the partial indexes gorm cannot express.
func migrateUp(db database.DB, config config.Config, log logger.Logger) error {
	log = log.Function("migrateUp")

	if _, err := execFileMigrations(config, log, migrate.Up, 0); err != nil {
		return err
	}

	if err := autoMigrate(db.SQL, log); err != nil {
		return log.Err("failed to auto migrate", err)
	}

	if err := initialize.InitializeTables(db, config, log); err != nil {
		return log.Err("failed to initialize tables", err)
	}

	return nil
}

func migrateDown(steps int, config config.Config, log logger.Logger) error {
	log = log.Function("migrateDown")
	log.Info("Rolling back migrations", "steps", steps)

	_, err := execFileMigrations(config, log, migrate.Down, steps)
	return err
}

func migrationStatus(config config.Config, log logger.Logger) error {
	log = log.Function("migrationStatus")

	source, ok, err := migrationSource(log)
	if err != nil || !ok {
		return err
	}

	known, err := source.FindMigrations()
	if err != nil {
		return log.Err("failed to read migration files", err)
	}

	sqlDB, err := openMigrationDB(config, log)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	records, err := migrate.GetMigrationRecords(sqlDB, MIGRATION_DB)
	if err != nil {
		return log.Err("failed to read migration records", err)
	}

	applied := make(map[string]string, len(records))
	for _, record := range records {
		applied[record.Id] = record.AppliedAt.UTC().Format("2006-01-02 15:04:05")
	}

	for _, migration := range known {
		if at, ok := applied[migration.Id]; ok {
			log.Info("Migration applied", "id", migration.Id, "appliedAt", at)
		} else {
			log.Info("Migration pending", "id", migration.Id)
		}
	}

	return nil
}

// migrateSeed rebuilds the schema from scratch, so it refuses to touch production.
func migrateSeed(db database.DB, config config.Config, log logger.Logger) error {
	log = log.Function("migrateSeed")

	if config.Environment == "production" {
		return log.ErrMsg("refusing to seed a production database")
	}

	if err := cleanDatabase(db.SQL, log); err != nil {
		return log.Err("failed to clean database", err)
	}

	if err := db.FlushAllCaches(); err != nil {
		return log.Err("failed to flush cache databases", err)
	}

	if err := migrateUp(db, config, log); err != nil {
		return log.Err("failed to migrate up", err)
	}

	log.Info("Seeding database")
	if err := seed.Seed(db.SQL, config, log); err != nil {
		return log.Err("failed to seed database", err)
	}

	return nil
}

// autoMigrate creates every table before adding foreign keys, so the order of
// database.Models only matters for readability.
func autoMigrate(db *gorm.DB, log logger.Logger) error {
	log = log.Function("autoMigrate")

	models := database.Models()

	db.Config.DisableForeignKeyConstraintWhenMigrating = true
	for _, table := range models {
		if db.Migrator().HasTable(table) {
			continue
		}
		if err := db.Migrator().CreateTable(table); err != nil {
			return log.Err("failed to create table", err, "table", fmt.Sprintf("%T", table))
		}
	}
	db.Config.DisableForeignKeyConstraintWhenMigrating = false

	if err := db.AutoMigrate(models...); err != nil {
		return log.Err("failed to add constraints", err)
	}

	log.Info("Schema migrated", "tables", len(models))
	return nil
}

func migrationSource(log logger.Logger) (*migrate.FileMigrationSource, bool, error) {
	files, err := filepath.Glob(filepath.Join(MIGRATION_PATH, "*.sql"))
	if err != nil {
		return nil, false, log.Err("failed to check for migration files", err)
	}

	if len(files) == 0 {
		log.Info("No migration files found, skipping file-based migrations", "path", MIGRATION_PATH)
		return nil, false, nil
	}

	return &migrate.FileMigrationSource{Dir: MIGRATION_PATH}, true, nil
}

func openMigrationDB(config config.Config, log logger.Logger) (*sql.DB, error) {
	sqlDB, err := sql.Open(MIGRATION_DB, database.DSN(config))
	if err != nil {
		return nil, log.Err("failed to open database for migrations", err)
	}
	return sqlDB, nil
}

// execFileMigrations applies up to limit migrations in direction; 0 means all.
func execFileMigrations(
	config config.Config,
	log logger.Logger,
	direction migrate.MigrationDirection,
	limit int,
) (int, error) {
	log = log.Function("execFileMigrations")

	source, ok, err := migrationSource(log)
	if err != nil || !ok {
		return 0, err
	}

	sqlDB, err := openMigrationDB(config, log)
	if err != nil {
		return 0, err
	}
	defer sqlDB.Close()

	n, err := migrate.ExecMax(sqlDB, MIGRATION_DB, source, direction, limit)
	if err != nil {
		return 0, log.Err("failed to run file migrations", err)
	}

	log.Info("File migrations executed", "count", n, "direction", direction)
	return n, nil
}

func cleanDatabase(db *gorm.DB, log logger.Logger) error {
	log = log.Function("cleanDatabase")

	if err := db.Migrator().DropTable(database.Models()...); err != nil {
		return log.Err("failed to drop tables", err)
	}

	log.Info("Dropped all tables")
	return nil
}
