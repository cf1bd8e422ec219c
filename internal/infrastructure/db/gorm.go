package db

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenGorm connects to MySQL. GORM's statement log goes to log, every query
// in DEV mode and only failures and slow queries otherwise.
func OpenGorm(dsn, mode string, log *zap.Logger) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn), mode, log)
}

func OpenGormWithDialector(dial gorm.Dialector, mode string, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	level := logger.Warn
	if mode == "DEV" {
		level = logger.Info
	}
	cfg := &gorm.Config{
		Logger:               newGormLogger(log, level),
		DisableAutomaticPing: true, // pinged below, after pool tuning
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	log.Info("gorm: connected")
	return db, nil
}
