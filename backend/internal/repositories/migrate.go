package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"patas-conectadas/backend/migrations"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MigrationConfig struct {
	DBName     string
	MaxRetries int
	RetryDelay time.Duration
}

func DefaultMigrationConfig() *MigrationConfig {
	return &MigrationConfig{
		DBName:     "patas_conectadas",
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	}
}

// newMigrator runs migrations over one connection checked out of the pool.
// Closing the returned Migrate hands that connection back; the pool itself
// stays open.
func newMigrator(ctx context.Context, db *gorm.DB, config *MigrationConfig) (*migrate.Migrate, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire migration connection: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{
		DatabaseName:          config.DBName,
		MigrationsTable:       "schema_migrations",
		MultiStatementEnabled: true,
		MultiStatementMaxSize: 10 * 1 << 20, // 10 MB
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, config.DBName, driver)
	if err != nil {
		source.Close()
		driver.Close()
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate, log *zap.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		log.Warn("Failed to close migrator", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
	}
}

// RunMigrations applies every pending embedded migration.
func RunMigrations(db *gorm.DB, config *MigrationConfig, log *zap.Logger) error {
	if config == nil {
		config = DefaultMigrationConfig()
	}

	log.Info("Starting database migrations", zap.String("db", config.DBName))

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := waitForDatabase(sqlDB, config.MaxRetries, config.RetryDelay, log); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	m, err := newMigrator(context.Background(), db, config)
	if err != nil {
		return err
	}
	defer closeMigrator(m, log)

	currentVersion, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Info("No migrations applied yet")
	case err != nil:
		log.Warn("Could not get current migration version", zap.Error(err))
	default:
		log.Info("Current migration version", zap.Uint("version", currentVersion), zap.Bool("dirty", dirty))
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("Database schema is up to date")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	finalVersion, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get final migration version: %w", err)
	}
	log.Info("Database migrations completed", zap.Uint("version", finalVersion), zap.Bool("dirty", dirty))

	if err := logMigrationDetails(sqlDB, log); err != nil {
		log.Warn("Could not retrieve migration details", zap.Error(err))
	}
	return nil
}

func waitForDatabase(db *sql.DB, maxRetries int, retryDelay time.Duration, log *zap.Logger) error {
	for i := 0; i < maxRetries; i++ {
		if err := db.Ping(); err == nil {
			return nil
		}
		if i < maxRetries-1 {
			log.Info("Database not ready, retrying",
				zap.Duration("delay", retryDelay), zap.Int("attempt", i+1), zap.Int("max_attempts", maxRetries))
			time.Sleep(retryDelay)
		}
	}
	return fmt.Errorf("database not ready after %d attempts", maxRetries)
}

func logMigrationDetails(db *sql.DB, log *zap.Logger) error {
	rows, err := db.Query(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			continue
		}
		tables = append(tables, tableName)
	}

	log.Info("Database tables", zap.Int("count", len(tables)), zap.Strings("tables", tables))
	return rows.Err()
}

// RollbackMigration reverts the most recently applied migration.
func RollbackMigration(db *gorm.DB, config *MigrationConfig, log *zap.Logger) error {
	if config == nil {
		config = DefaultMigrationConfig()
	}

	log.Info("Rolling back last migration")

	m, err := newMigrator(context.Background(), db, config)
	if err != nil {
		return err
	}
	defer closeMigrator(m, log)

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	log.Info("Migration rolled back")
	return nil
}

func GetMigrationVersion(db *gorm.DB, config *MigrationConfig) (uint, bool, error) {
	if config == nil {
		config = DefaultMigrationConfig()
	}

	m, err := newMigrator(context.Background(), db, config)
	if err != nil {
		return 0, false, err
	}
	defer closeMigrator(m, zap.NewNop())
	return m.Version()
}
