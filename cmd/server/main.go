package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"crowd-monitor-go/internal/app"
	"crowd-monitor-go/internal/config"
	"crowd-monitor-go/internal/database"
	"crowd-monitor-go/internal/handler"
	"crowd-monitor-go/internal/metrics"
	"crowd-monitor-go/internal/model"
	"crowd-monitor-go/internal/pipeline"
	"crowd-monitor-go/internal/render"
	"crowd-monitor-go/internal/repository"
	"crowd-monitor-go/internal/service"
)

func main() {
	cfg := config.LoadConfig()

	// Инициализируем логгер
	logger := app.NewLogger(cfg)
	logger.Info("Запуск Crowd Monitor API Server")

	// Хранилище
	repo, dbHealth, closeDB := openRepository(cfg, logger)
	defer closeDB()

	// Создаем папки для загрузок и результатов
	for _, dir := range []string{cfg.Storage.UploadDir, cfg.Storage.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatalf("Ошибка создания папки %s: %v", dir, err)
		}
	}

	// Детектор и видео бэкенд
	det, detCloser, err := app.NewDetector(cfg, logger)
	if err != nil {
		logger.Fatalf("Ошибка инициализации детектора: %v", err)
	}
	defer detCloser.Close()

	backend, err := app.NewVideoBackend(cfg)
	if err != nil {
		logger.Fatalf("Ошибка инициализации видео бэкенда: %v", err)
	}

	annotator, err := render.NewAnnotator()
	if err != nil {
		logger.Fatalf("Ошибка загрузки шрифта: %v", err)
	}

	opts, err := app.PipelineOptions(cfg)
	if err != nil {
		logger.Fatalf("Ошибка конфигурации конвейера: %v", err)
	}

	m := metrics.New()

	// Инициализируем сервисы
	videoPipeline := pipeline.NewVideoPipeline(det, backend, annotator, m, logger, opts)
	imagePipeline := pipeline.NewImagePipeline(det, annotator, m, logger, opts)
	analyzerService := service.NewAnalyzerService(videoPipeline, imagePipeline, det, backend.Name(), cfg.Storage.OutputDir, "/outputs", logger)
	analyticsService := service.NewAnalyticsService(repo, analyzerService, cfg.Storage.UploadDir, cfg.MaxUploadBytes(), logger)

	// Инициализируем обработчики
	crowdHandler := handler.NewCrowdHandler(analyticsService, analyzerService, dbHealth, cfg.MaxUploadBytes(), logger)

	// Настраиваем Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = 32 << 20

	// Добавляем middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Обслуживание статических файлов
	router.Static("/outputs", cfg.Storage.OutputDir)
	router.Static("/uploads", cfg.Storage.UploadDir)

	// Регистрируем маршруты
	crowdHandler.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Crowd Monitor API Server",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	// Запускаем сервер
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.WithFields(logrus.Fields{
		"detector": cfg.Detector.Backend,
		"media":    backend.Name(),
		"storage":  cfg.Database.Driver,
	}).Infof("Сервер запущен на %s", serverAddr)

	if err := router.Run(serverAddr); err != nil {
		logger.Fatalf("Ошибка запуска сервера: %v", err)
	}
}

// openRepository подключает PostgreSQL или хранилище в памяти
func openRepository(cfg *config.Config, logger *logrus.Logger) (repository.AnalysisRepository, func() error, func()) {
	if strings.EqualFold(cfg.Database.Driver, "memory") {
		logger.Warn("Используется хранилище в памяти, данные не сохраняются между запусками")
		return repository.NewMemoryRepository(model.DefaultSites()), nil, func() {}
	}

	logger.Info("Подключение к базе данных...")
	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatalf("Ошибка подключения к базе данных: %v", err)
	}

	if err := database.Migrate(db, logger); err != nil {
		logger.Fatalf("Ошибка выполнения миграций: %v", err)
	}

	if err := database.HealthCheck(db); err != nil {
		logger.Fatalf("База данных недоступна: %v", err)
	}

	logger.Info("База данных успешно подключена и готова к работе")
	health := func() error { return database.HealthCheck(db) }
	closeDB := func() {
		if err := database.Close(db); err != nil {
			logger.Warnf("Ошибка закрытия базы данных: %v", err)
		}
	}
	return repository.NewGormRepository(db), health, closeDB
}

// corsMiddleware добавляет заголовки CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
