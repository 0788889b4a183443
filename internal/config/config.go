package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config структура конфигурации приложения
type Config struct {
	Environment string
	Server      struct {
		Port int
		Host string
	}
	Database struct {
		Driver   string // postgres или memory
		Host     string
		Port     string
		Name     string
		User     string
		Password string
		SSLMode  string
	}
	Storage struct {
		UploadDir   string
		OutputDir   string
		MaxUploadMB int
	}
	Detector struct {
		Backend    string // http, grpc или gocv
		BaseURL    string
		GRPCTarget string
		ModelPath  string
		Timeout    time.Duration // на один кадр, 0 отключает
		MinScore   float64
		NMS        float64
		MinArea    int
	}
	Media struct {
		Backend string // ffmpeg или gocv
		Codec   string
	}
	Pipeline struct {
		WindowSize    int
		OnDetectError string // abort или skip
		ProgressEvery int
	}
	Logging struct {
		Level string
	}
}

// LoadConfig загружает конфигурацию из .env и переменных окружения
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Environment = getEnv("ENVIRONMENT", "development")

	// Конфигурация сервера
	cfg.Server.Port = getEnvInt("SERVER_PORT", 8080)
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")

	// Конфигурация базы данных
	cfg.Database.Driver = getEnv("STORAGE_DRIVER", "postgres")
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.Name = getEnv("DB_NAME", "crowd_monitor")
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres123")
	cfg.Database.SSLMode = getEnv("DB_SSL_MODE", "disable")

	// Файлы
	cfg.Storage.UploadDir = getEnv("UPLOAD_DIR", "uploads")
	cfg.Storage.OutputDir = getEnv("OUTPUT_DIR", "outputs")
	cfg.Storage.MaxUploadMB = getEnvInt("MAX_UPLOAD_MB", 500)

	// Детектор
	cfg.Detector.Backend = getEnv("DETECTOR_BACKEND", "http")
	cfg.Detector.BaseURL = getEnv("DETECTOR_BASE_URL", "http://localhost:8000")
	cfg.Detector.GRPCTarget = getEnv("DETECTOR_GRPC_TARGET", "localhost:50051")
	cfg.Detector.ModelPath = getEnv("DETECTOR_MODEL_PATH", "yolov8n.onnx")
	cfg.Detector.Timeout = getEnvDuration("DETECTOR_TIMEOUT", 30*time.Second)
	cfg.Detector.MinScore = getEnvFloat("DETECTOR_MIN_SCORE", 0.25)
	cfg.Detector.NMS = getEnvFloat("DETECTOR_NMS", 0.45)
	cfg.Detector.MinArea = getEnvInt("DETECTOR_MIN_AREA", 0)

	// Видео
	cfg.Media.Backend = getEnv("MEDIA_BACKEND", "ffmpeg")
	cfg.Media.Codec = getEnv("MEDIA_CODEC", "")

	// Конвейер
	cfg.Pipeline.WindowSize = getEnvInt("WINDOW_SIZE", 30)
	cfg.Pipeline.OnDetectError = getEnv("ON_DETECT_ERROR", "abort")
	cfg.Pipeline.ProgressEvery = getEnvInt("PROGRESS_EVERY", 30)

	// Конфигурация логирования
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	return cfg
}

// MaxUploadBytes ограничение размера загружаемого файла в байтах
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Storage.MaxUploadMB) << 20
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает int значение переменной окружения или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat получает float значение переменной окружения
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration принимает формат time.ParseDuration либо целое число секунд
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
