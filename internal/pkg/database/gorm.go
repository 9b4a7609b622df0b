package database

import (
	"BuzzDaddy/internal/api/config"
	"BuzzDaddy/internal/model"
	"BuzzDaddy/internal/pkg/logger"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const sqlitePrefix = "sqlite://"

// NewGormDB 初始化并返回 *gorm.DB 实例，处理连接池配置
// dsn 以 sqlite:// 开头时使用 SQLite（本地调试），否则使用 MySQL
func NewGormDB(cfg *config.DBConfig) (*gorm.DB, error) {
	if strings.HasPrefix(cfg.DSN, sqlitePrefix) {
		return OpenSQLite(strings.TrimPrefix(cfg.DSN, sqlitePrefix))
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger:      logger.NewGormLogger(),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Minute)

	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database connection check failed: %w", err)
	}

	log.Info("Database connection established successfully.")
	return db, nil
}

// OpenSQLite 单连接 SQLite，测试使用 file:xxx?mode=memory&cache=shared
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.NewGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Migrate 同步表结构
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	log.Info("Database schema migrated.")
	return nil
}
