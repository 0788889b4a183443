package service

import (
	"errors"
	"math"

	"crowd-monitor-go/internal/media"
	"crowd-monitor-go/internal/model"
	"crowd-monitor-go/internal/pipeline"
	"crowd-monitor-go/pkg/models"
)

// ErrInvalidInput файл отклонён до запуска анализа
var ErrInvalidInput = errors.New("invalid input")

// Параметры тревоги о высокой плотности
const (
	AlertTypeHighDensity = "High Crowd Density"
	AlertSeverityHigh    = "high"

	// Источник тревоги без связанного анализа
	SystemAlertSource = "System"
)

// Outcome результат анализа одного файла
type Outcome struct {
	ID       string
	Kind     media.Kind
	Video    *pipeline.VideoResult
	Image    *pipeline.ImageResult
	Response *models.AnalysisResponse
}

// round1 округляет до одного знака после запятой
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

// videoResponse строит ответ по завершённому прогону видео
func videoResponse(res *pipeline.VideoResult, webURL string) *models.AnalysisResponse {
	s := res.Summary
	frames := make([]models.FrameData, len(s.Frames))
	for i, f := range s.Frames {
		frames[i] = models.FrameData{
			Frame:       f.Frame,
			PeopleCount: f.PeopleCount,
			AvgCount:    f.AvgCount,
			Density:     string(f.Density),
		}
	}

	props := &models.VideoProperties{
		Width:  res.Properties.Width,
		Height: res.Properties.Height,
		FPS:    res.Properties.FPS,
	}
	if s.DurationSeconds != nil {
		props.DurationSeconds = floatPtr(round1(*s.DurationSeconds))
	}

	return &models.AnalysisResponse{
		Success:         true,
		MediaType:       media.KindVideo.String(),
		DensityLevel:    string(s.Density),
		ProcessedPath:   res.OutputPath,
		WebVideoURL:     webURL,
		AveragePeople:   intPtr(s.AveragePeople),
		TotalFrames:     intPtr(s.TotalFrames),
		AlertFrames:     intPtr(s.AlertFrames),
		SkippedFrames:   intPtr(s.SkippedFrames),
		AlertPercentage: floatPtr(round1(s.AlertPercentage)),
		FrameData:       frames,
		VideoProperties: props,
	}
}

// imageResponse строит ответ по изображению
func imageResponse(res *pipeline.ImageResult, webURL string) *models.AnalysisResponse {
	return &models.AnalysisResponse{
		Success:       true,
		MediaType:     media.KindImage.String(),
		DensityLevel:  string(res.Density),
		ProcessedPath: res.OutputPath,
		WebImageURL:   webURL,
		PeopleCount:   intPtr(res.PeopleCount),
	}
}

// storedResponse восстанавливает ответ по колонкам записи без сохранённого ответа
func storedResponse(a *model.Analysis) *models.AnalysisResponse {
	resp := &models.AnalysisResponse{
		Success:       true,
		VideoID:       a.ID,
		MediaType:     a.MediaType,
		DensityLevel:  a.DensityLevel,
		ProcessedPath: a.ProcessedPath,
	}
	if a.MediaType != media.KindVideo.String() {
		resp.PeopleCount = intPtr(a.PeopleCount)
		return resp
	}

	frames := make([]models.FrameData, len(a.Frames))
	for i, f := range a.Frames {
		frames[i] = models.FrameData{
			Frame:       f.Frame,
			PeopleCount: f.PeopleCount,
			AvgCount:    f.AvgCount,
			Density:     f.Density,
		}
	}
	resp.AveragePeople = intPtr(a.PeopleCount)
	resp.TotalFrames = intPtr(a.TotalFrames)
	resp.AlertFrames = intPtr(a.AlertFrames)
	resp.SkippedFrames = intPtr(a.SkippedFrames)
	resp.AlertPercentage = floatPtr(a.AlertPercentage)
	resp.FrameData = frames
	resp.VideoProperties = &models.VideoProperties{
		Width:           a.Width,
		Height:          a.Height,
		FPS:             a.FPS,
		DurationSeconds: a.DurationSeconds,
	}
	return resp
}

// analysisSummary краткая запись для аналитики
func analysisSummary(a *model.Analysis) models.AnalysisSummary {
	return models.AnalysisSummary{
		ID:            a.ID,
		Filename:      a.Filename,
		MediaType:     a.MediaType,
		PeopleCount:   a.PeopleCount,
		DensityLevel:  a.DensityLevel,
		AlertFrames:   a.AlertFrames,
		TotalFrames:   a.TotalFrames,
		ProcessedPath: a.ProcessedPath,
		CreatedAt:     a.CreatedAt.Format("2006-01-02 15:04:05"),
		AlertPercent:  a.AlertPercentage,
	}
}

func alertInfo(a *model.Alert) models.AlertInfo {
	filename := a.Filename
	if filename == "" {
		filename = SystemAlertSource
	}
	return models.AlertInfo{
		ID:         a.ID,
		AnalysisID: a.AnalysisID,
		Filename:   filename,
		AlertType:  a.AlertType,
		Message:    a.Message,
		Severity:   a.Severity,
		CreatedAt:  a.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func siteInfo(s *model.Site) models.SiteInfo {
	return models.SiteInfo{
		ID:           s.ID,
		Name:         s.Name,
		Location:     s.Location,
		Capacity:     s.Capacity,
		CurrentCount: s.CurrentCount,
		Status:       s.Status,
	}
}
