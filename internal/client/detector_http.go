package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"crowd-monitor-go/internal/detector"
	"crowd-monitor-go/pkg/models"
)

// HTTPDetector клиент внешнего сервиса детекции людей
type HTTPDetector struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewHTTPDetector создает новый клиент для сервиса детекции
func NewHTTPDetector(baseURL string, timeout time.Duration, logger *logrus.Logger) *HTTPDetector {
	return &HTTPDetector{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Detect отправляет кадр в сервис детекции
func (c *HTTPDetector) Detect(ctx context.Context, frame image.Image, class string) ([]detector.Detection, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	imageWriter, err := writer.CreateFormFile("image", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("ошибка создания form field для кадра: %w", err)
	}
	if err := jpeg.Encode(imageWriter, frame, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("ошибка кодирования кадра: %w", err)
	}
	if err := writer.WriteField("class", class); err != nil {
		return nil, fmt.Errorf("ошибка записи class: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("ошибка закрытия multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/detect", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debugf("Отправка POST запроса на %s", url)
	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var apiResponse models.DetectorResponse
	if err := json.Unmarshal(respBody, &apiResponse); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}

	out := make([]detector.Detection, 0, len(apiResponse.Detections))
	for _, d := range apiResponse.Detections {
		out = append(out, detector.Detection{
			Class: d.Class,
			Score: d.Score,
			Box:   image.Rect(d.Box[0], d.Box[1], d.Box[2], d.Box[3]),
		})
	}
	return out, nil
}

// CheckHealth проверяет состояние сервиса детекции
func (c *HTTPDetector) CheckHealth(ctx context.Context) error {
	c.logger.Debug("Проверка здоровья сервиса детекции")

	url := fmt.Sprintf("%s/health", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	respBody, err := c.do(req)
	if err != nil {
		return err
	}

	var health models.DetectorHealth
	if err := json.Unmarshal(respBody, &health); err != nil {
		return fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}
	if health.Status != "healthy" || !health.ModelLoaded {
		return fmt.Errorf("%w: статус %q, модель загружена: %t", detector.ErrUnavailable, health.Status, health.ModelLoaded)
	}
	return nil
}

func (c *HTTPDetector) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки HTTP запроса: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("сервис детекции вернул ошибку: статус %d, тело: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
