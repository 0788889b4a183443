package models

// FrameData показатели одного кадра видео
type FrameData struct {
	Frame       int    `json:"frame"`        // Номер кадра, с нуля
	PeopleCount int    `json:"people_count"` // Количество людей на кадре
	AvgCount    int    `json:"avg_count"`    // Скользящее среднее
	Density     string `json:"density"`      // Уровень плотности по скользящему среднему
}

// VideoProperties параметры исходного видео
type VideoProperties struct {
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	FPS             float64  `json:"fps"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"` // Отсутствует, если FPS неизвестен
}

// AnalysisResponse результат анализа файла. Поля видео и изображения взаимоисключающие.
type AnalysisResponse struct {
	Success       bool   `json:"success"`
	VideoID       string `json:"video_id,omitempty"` // ID сохранённого анализа
	MediaType     string `json:"media_type"`         // image или video
	DensityLevel  string `json:"density_level"`      // Low / Medium / High
	ProcessedPath string `json:"processed_path,omitempty"`
	WebVideoURL   string `json:"web_video_url,omitempty"` // Ссылка на обработанное видео
	WebImageURL   string `json:"web_image_url,omitempty"` // Ссылка на обработанное изображение

	// Изображение
	PeopleCount *int `json:"people_count,omitempty"`

	// Видео
	AveragePeople   *int             `json:"average_people,omitempty"`
	TotalFrames     *int             `json:"total_frames,omitempty"`
	AlertFrames     *int             `json:"alert_frames,omitempty"`
	SkippedFrames   *int             `json:"skipped_frames,omitempty"`
	AlertPercentage *float64         `json:"alert_percentage,omitempty"` // Округлено до 0.1
	FrameData       []FrameData      `json:"frame_data,omitempty"`
	VideoProperties *VideoProperties `json:"video_properties,omitempty"`
}

// ErrorResponse ответ с ошибкой
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"` // Категория ошибки прогона
}

// AnalysisSummary краткая запись об анализе для аналитики
type AnalysisSummary struct {
	ID            string  `json:"id"`
	Filename      string  `json:"filename"`
	MediaType     string  `json:"media_type"`
	PeopleCount   int     `json:"people_count"`
	DensityLevel  string  `json:"density_level"`
	AlertFrames   int     `json:"alert_frames"`
	TotalFrames   int     `json:"total_frames"`
	ProcessedPath string  `json:"processed_path"`
	CreatedAt     string  `json:"created_at"`
	AlertPercent  float64 `json:"alert_percentage"`
}

// AlertInfo тревога о высокой плотности
type AlertInfo struct {
	ID         uint   `json:"id"`
	AnalysisID string `json:"analysis_id"`
	Filename   string `json:"filename"` // System, если тревога не привязана к анализу
	AlertType  string `json:"alert_type"`
	Message    string `json:"message"`
	Severity   string `json:"severity"`
	CreatedAt  string `json:"created_at"`
}

// SiteInfo площадка с ограниченной вместимостью
type SiteInfo struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Location     string `json:"location"`
	Capacity     int    `json:"capacity"`
	CurrentCount int    `json:"current_count"`
	Status       string `json:"status"` // Normal / Medium / High
}

// AnalyticsResponse сводка последних анализов, тревог и площадок
type AnalyticsResponse struct {
	Analyses []AnalysisSummary `json:"analytics"`
	Alerts   []AlertInfo       `json:"alerts"`
	Sites    []SiteInfo        `json:"temples"`
}

// UpdateSiteRequest новое количество людей на площадке
type UpdateSiteRequest struct {
	Count *int `json:"count" binding:"required"`
}

// UpdateSiteResponse ответ на обновление площадки
type UpdateSiteResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// HealthResponse представляет ответ проверки здоровья сервиса
type HealthResponse struct {
	Status   string `json:"status"`             // healthy / degraded
	Service  string `json:"service"`            // Имя сервиса
	Database string `json:"database,omitempty"` // Состояние БД
	Detector string `json:"detector,omitempty"` // Состояние детектора
	Backend  string `json:"backend,omitempty"`  // Видео бэкенд
}

// DetectorDetection обнаруженный объект в ответе сервиса детекции
type DetectorDetection struct {
	Class string  `json:"class"`
	Score float64 `json:"score"`
	Box   [4]int  `json:"box"` // x1, y1, x2, y2
}

// DetectorResponse ответ сервиса детекции
type DetectorResponse struct {
	Detections []DetectorDetection `json:"detections"`
}

// DetectorHealth ответ проверки здоровья сервиса детекции
type DetectorHealth struct {
	Status      string `json:"status"`       // healthy / unhealthy
	ModelLoaded bool   `json:"model_loaded"` // Загружена ли модель
	Version     string `json:"version"`
}
