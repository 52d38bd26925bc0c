package app

import (
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/talkincode/storepro/config"
)

func getDatabase(cfg config.DBConfig, workdir string) *gorm.DB {
	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.Debug {
		gormLogger = logger.Default.LogMode(logger.Info)
	}
	gcfg := &gorm.Config{Logger: gormLogger}

	var dialector gorm.Dialector
	switch cfg.Type {
	case "sqlite":
		name := cfg.Name
		if name == "" {
			name = "storepro"
		}
		dialector = sqlite.Open(path.Join(workdir, "data", name+".db") + "?_busy_timeout=5000")
	default:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.Port, cfg.User, cfg.Passwd, cfg.Name)
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		zap.S().Fatalf("database connection failed: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		zap.S().Fatalf("database handle failed: %v", err)
	}
	if cfg.Type == "sqlite" {
		// one writer at a time keeps checkout transactions serialised
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxConn)
		sqlDB.SetMaxIdleConns(cfg.IdleConn)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	return db
}
