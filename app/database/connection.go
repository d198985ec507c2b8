package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"PosTerminal/app/config"
	"PosTerminal/app/models"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// dbLog receives connection and seeding logs
var dbLog logrus.FieldLogger = logrus.StandardLogger()

// SetLogger routes database logs to l
func SetLogger(l logrus.FieldLogger) {
	if l != nil {
		dbLog = l
	}
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return db
}

// buildDSN constructs the postgres connection string from the database config
// Priority: URL > individual fields
func buildDSN(cfg config.DatabaseConfig) string {
	if cfg.URL != "" {
		dbLog.Info("Using DATABASE_URL for database connection")
		return cfg.URL
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
	)

	dbLog.WithFields(logrus.Fields{
		"host":    cfg.Host,
		"port":    cfg.Port,
		"dbname":  cfg.Database,
		"sslmode": cfg.SSLMode,
	}).Info("Built database connection from config")

	return dsn
}

// dialector picks the GORM driver for the configured backend
func dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(buildDSN(cfg)), nil
	case config.DriverSQLite, "":
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		// CGO-free driver; busy timeout covers the websocket server writing concurrently
		return sqlite.Open(cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// Open connects to the configured backend and runs migrations, without touching the global handle
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	conn, err := gorm.Open(dial, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if cfg.Driver == config.DriverPostgres {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// SQLite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}

	if err := RunMigrations(conn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return conn, nil
}

// Ping checks that the backend described by cfg is reachable, without migrating it
func Ping(ctx context.Context, cfg config.DatabaseConfig) error {
	dial, err := dialector(cfg)
	if err != nil {
		return err
	}
	conn, err := gorm.Open(dial, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Initialize sets up the global database connection and seeds it when asked to
func Initialize(cfg *config.AppConfig) error {
	conn, err := Open(cfg.Database)
	if err != nil {
		return err
	}
	db = conn

	if cfg.Database.Seed {
		if err := SeedInitialData(db); err != nil {
			dbLog.WithError(err).Warn("Failed to seed initial data")
		}
	}
	return nil
}

// RunMigrations runs database migrations
func RunMigrations(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		// Catalog models
		&models.Category{},
		&models.Product{},

		// Staff models
		&models.User{},

		// Kitchen models
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	createIndexes(conn)
	return nil
}

// createIndexes creates database indexes for better query performance
func createIndexes(conn *gorm.DB) {
	conn.Exec("CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at)")
	conn.Exec("CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)")
	conn.Exec("CREATE INDEX IF NOT EXISTS idx_products_category_id ON products(category_id)")
}

// Close closes the database connection
func Close() error {
	if db == nil {
		return nil // Nothing to close
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
