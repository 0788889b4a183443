package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"crowd-monitor-go/internal/pipeline"
	"crowd-monitor-go/internal/repository"
	"crowd-monitor-go/internal/service"
	"crowd-monitor-go/pkg/models"
)

// ServiceName имя сервиса в ответе проверки здоровья
const ServiceName = "Crowd Density Monitor"

const (
	// multipartOverhead запас на заголовки multipart сверх размера файла
	multipartOverhead = 1 << 20
	healthTimeout     = 5 * time.Second
)

// CrowdHandler обрабатывает HTTP запросы анализа толпы
type CrowdHandler struct {
	analytics *service.AnalyticsService
	analyzer  *service.AnalyzerService
	dbHealth  func() error
	maxUpload int64
	logger    *logrus.Logger
}

// NewCrowdHandler создает новый экземпляр CrowdHandler. dbHealth может быть nil.
func NewCrowdHandler(analytics *service.AnalyticsService, analyzer *service.AnalyzerService, dbHealth func() error, maxUpload int64, logger *logrus.Logger) *CrowdHandler {
	return &CrowdHandler{
		analytics: analytics,
		analyzer:  analyzer,
		dbHealth:  dbHealth,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// RegisterRoutes регистрирует маршруты API
func (h *CrowdHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/upload", h.Upload)
		api.GET("/analytics", h.GetAnalytics)
		api.GET("/analyses/:id", h.GetAnalysis)
		api.DELETE("/analyses/:id", h.DeleteAnalysis)
		api.PUT("/sites/:id", h.UpdateSite)
		api.GET("/health", h.CheckHealth)
	}
}

// Upload принимает файл и запускает анализ
func (h *CrowdHandler) Upload(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondError(c, http.StatusRequestEntityTooLarge, "File too large", "")
			return
		}
		h.logger.Errorf("Ошибка получения файла: %v", err)
		h.respondError(c, http.StatusBadRequest, "No file uploaded", "")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		h.respondError(c, http.StatusBadRequest, "No file selected", "")
		return
	}

	h.logger.Infof("Получен файл %s (%d байт)", header.Filename, header.Size)

	result, err := h.analytics.ProcessUpload(c.Request.Context(), header.Filename, file)
	if err != nil {
		status, kind := classify(err)
		h.logger.Errorf("Ошибка анализа %s: %v", header.Filename, err)
		h.respondError(c, status, err.Error(), kind)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAnalytics возвращает последние анализы, тревоги и площадки
func (h *CrowdHandler) GetAnalytics(c *gin.Context) {
	resp, err := h.analytics.GetAnalytics()
	if err != nil {
		h.logger.Errorf("Ошибка получения аналитики: %v", err)
		h.respondError(c, http.StatusInternalServerError, "Ошибка получения аналитики", "")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetAnalysis возвращает анализ по ID вместе с покадровыми данными
func (h *CrowdHandler) GetAnalysis(c *gin.Context) {
	id := c.Param("id")
	analysis, err := h.analytics.GetAnalysis(id)
	if err != nil {
		status, _ := classify(err)
		h.respondError(c, status, err.Error(), "")
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// DeleteAnalysis удаляет анализ по ID
func (h *CrowdHandler) DeleteAnalysis(c *gin.Context) {
	id := c.Param("id")
	h.logger.Infof("Получен запрос на удаление анализа с ID: %s", id)

	if err := h.analytics.DeleteAnalysis(id); err != nil {
		status, _ := classify(err)
		h.respondError(c, status, err.Error(), "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UpdateSite обновляет количество людей на площадке
func (h *CrowdHandler) UpdateSite(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "Неверный формат id", "")
		return
	}

	var req models.UpdateSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "count обязателен", "")
		return
	}

	status, err := h.analytics.UpdateSite(uint(id), *req.Count)
	if err != nil {
		code, _ := classify(err)
		h.respondError(c, code, err.Error(), "")
		return
	}
	c.JSON(http.StatusOK, models.UpdateSiteResponse{Success: true, Status: status})
}

// CheckHealth проверяет состояние сервиса и зависимостей
func (h *CrowdHandler) CheckHealth(c *gin.Context) {
	resp := models.HealthResponse{
		Status:   "healthy",
		Service:  ServiceName,
		Database: "ok",
		Detector: "ok",
		Backend:  h.analyzer.Backend(),
	}

	if h.dbHealth != nil {
		if err := h.dbHealth(); err != nil {
			h.logger.Errorf("База данных недоступна: %v", err)
			resp.Status, resp.Database = "degraded", "unavailable"
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()
	if err := h.analyzer.CheckHealth(ctx); err != nil {
		resp.Status, resp.Detector = "degraded", "unavailable"
	}

	code := http.StatusOK
	if resp.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

func (h *CrowdHandler) respondError(c *gin.Context, status int, msg, kind string) {
	c.JSON(status, models.ErrorResponse{Success: false, Error: msg, Kind: kind})
}

// classify сопоставляет ошибку с HTTP статусом и категорией прогона
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "InvalidInput"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, ""
	}

	kind, ok := pipeline.KindOf(err)
	if !ok {
		return http.StatusInternalServerError, ""
	}
	if kind == pipeline.KindCancelled {
		return http.StatusRequestTimeout, string(kind)
	}
	return http.StatusInternalServerError, string(kind)
}
