package database

import (
	"fmt"
	"log"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"crowd-monitor-go/internal/config"
	"crowd-monitor-go/internal/model"
)

// Open подключается к базе данных PostgreSQL
func Open(cfg *config.Config, l *logrus.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name, cfg.Database.SSLMode,
	)

	// Настройка логгера GORM
	gormLogger := logger.New(
		log.New(l.WriterLevel(logrus.WarnLevel), "", 0),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Настройка пула соединений
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	l.Info("Подключение к PostgreSQL установлено")
	return db, nil
}

// Migrate выполняет автомиграции и заполняет площадки при первом запуске
func Migrate(db *gorm.DB, l *logrus.Logger) error {
	if db == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	l.Info("Выполнение миграций базы данных...")

	err := db.AutoMigrate(
		&model.Analysis{},
		&model.FrameStat{},
		&model.Alert{},
		&model.Site{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	var count int64
	if err := db.Model(&model.Site{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count sites: %w", err)
	}
	if count == 0 {
		sites := model.DefaultSites()
		if err := db.Create(&sites).Error; err != nil {
			return fmt.Errorf("failed to seed sites: %w", err)
		}
		l.Infof("Добавлено площадок: %d", len(sites))
	}

	l.Info("Миграции базы данных выполнены")
	return nil
}

// Close закрывает соединение с базой данных
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// HealthCheck проверяет состояние подключения к базе данных
func HealthCheck(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}
