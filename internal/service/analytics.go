package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"crowd-monitor-go/internal/crowd"
	"crowd-monitor-go/internal/media"
	"crowd-monitor-go/internal/model"
	"crowd-monitor-go/internal/repository"
	"crowd-monitor-go/pkg/models"
)

// Количество записей в сводке аналитики
const (
	RecentAnalysesLimit = 10
	RecentAlertsLimit   = 10
)

// AnalyticsService сохраняет загрузки, результаты анализа и тревоги
type AnalyticsService struct {
	repo      repository.AnalysisRepository
	analyzer  *AnalyzerService
	uploadDir string
	maxUpload int64
	logger    *logrus.Logger
}

// NewAnalyticsService создает новый сервис аналитики
func NewAnalyticsService(repo repository.AnalysisRepository, analyzer *AnalyzerService, uploadDir string, maxUpload int64, logger *logrus.Logger) *AnalyticsService {
	return &AnalyticsService{
		repo:      repo,
		analyzer:  analyzer,
		uploadDir: uploadDir,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// ProcessUpload сохраняет файл, анализирует его и записывает результат.
// Неудачные прогоны не сохраняются.
func (s *AnalyticsService) ProcessUpload(ctx context.Context, filename string, data io.Reader) (*models.AnalysisResponse, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: no file selected", ErrInvalidInput)
	}
	kind, err := media.KindOf(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	id := uuid.New().String()
	storedName := fmt.Sprintf("%s_%s", id[:8], filename)
	log := s.logger.WithFields(logrus.Fields{"upload_id": id, "file": filename})

	uploadPath, err := s.saveUpload(storedName, data)
	if err != nil {
		log.Errorf("Ошибка сохранения файла: %v", err)
		return nil, err
	}

	outcome, err := s.analyzer.Analyze(ctx, uploadPath, storedName)
	if err != nil {
		log.Errorf("Анализ не выполнен: %v", err)
		if rerr := os.Remove(uploadPath); rerr != nil {
			log.Warnf("Не удалось удалить загруженный файл %s: %v", uploadPath, rerr)
		}
		return nil, err
	}

	resp := outcome.Response
	resp.VideoID = id

	analysis := buildAnalysis(id, filename, uploadPath, outcome)
	if analysis.DensityLevel == string(crowd.LevelHigh) {
		analysis.Alerts = append(analysis.Alerts, model.Alert{
			AlertType: AlertTypeHighDensity,
			Message:   fmt.Sprintf("High density detected: %d people average", analysis.PeopleCount),
			Severity:  AlertSeverityHigh,
		})
	}

	if err := s.repo.SaveAnalysis(analysis); err != nil {
		log.Errorf("Ошибка сохранения анализа в БД: %v", err)
		s.removeFiles(uploadPath, analysis.ProcessedPath)
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}

	log.Infof("Анализ %s сохранен: %s, плотность %s, тревог %d", id, kind, analysis.DensityLevel, len(analysis.Alerts))
	return resp, nil
}

// removeFiles удаляет файлы анализа, пропуская пустые и уже удалённые
func (s *AnalyticsService) removeFiles(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warnf("Не удалось удалить файл %s: %v", p, err)
		}
	}
}

// saveUpload сохраняет загруженный файл с ограничением размера
func (s *AnalyticsService) saveUpload(name string, data io.Reader) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	filePath := filepath.Join(s.uploadDir, name)
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer file.Close()

	reader := data
	if s.maxUpload > 0 {
		reader = io.LimitReader(data, s.maxUpload+1)
	}
	written, err := io.Copy(file, reader)
	if err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("failed to write upload data: %w", err)
	}
	if s.maxUpload > 0 && written > s.maxUpload {
		os.Remove(filePath)
		return "", fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, s.maxUpload)
	}

	s.logger.Infof("Файл сохранен: %s (записано %d байт)", filePath, written)
	return filePath, nil
}

// buildAnalysis преобразует результат анализа в модель базы данных
func buildAnalysis(id, filename, uploadPath string, outcome *Outcome) *model.Analysis {
	a := &model.Analysis{
		ID:           id,
		Filename:     filename,
		MediaType:    outcome.Kind.String(),
		OriginalPath: uploadPath,
		AnalysisData: outcome.Response,
	}

	if res := outcome.Image; res != nil {
		a.ProcessedPath = res.OutputPath
		a.PeopleCount = res.PeopleCount
		a.DensityLevel = string(res.Density)
		a.Width, a.Height = res.Width, res.Height
		return a
	}

	res := outcome.Video
	s := res.Summary
	a.ProcessedPath = res.OutputPath
	a.PeopleCount = s.AveragePeople
	a.DensityLevel = string(s.Density)
	a.TotalFrames = s.TotalFrames
	a.AlertFrames = s.AlertFrames
	a.SkippedFrames = s.SkippedFrames
	a.AlertPercentage = round1(s.AlertPercentage)
	a.Width, a.Height, a.FPS = res.Properties.Width, res.Properties.Height, res.Properties.FPS
	a.DurationSeconds = s.DurationSeconds

	a.Frames = make([]model.FrameStat, len(s.Frames))
	for i, f := range s.Frames {
		a.Frames[i] = model.FrameStat{
			AnalysisID:  id,
			Frame:       f.Frame,
			PeopleCount: f.PeopleCount,
			AvgCount:    f.AvgCount,
			Density:     string(f.Density),
		}
	}
	return a
}

// GetAnalytics последние анализы, тревоги и состояние площадок
func (s *AnalyticsService) GetAnalytics() (*models.AnalyticsResponse, error) {
	analyses, err := s.repo.ListRecentAnalyses(RecentAnalysesLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	alerts, err := s.repo.ListAlerts(RecentAlertsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	sites, err := s.repo.GetSites()
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}

	resp := &models.AnalyticsResponse{
		Analyses: make([]models.AnalysisSummary, 0, len(analyses)),
		Alerts:   make([]models.AlertInfo, 0, len(alerts)),
		Sites:    make([]models.SiteInfo, 0, len(sites)),
	}
	for _, a := range analyses {
		resp.Analyses = append(resp.Analyses, analysisSummary(a))
	}
	for _, a := range alerts {
		resp.Alerts = append(resp.Alerts, alertInfo(a))
	}
	for _, site := range sites {
		resp.Sites = append(resp.Sites, siteInfo(site))
	}
	return resp, nil
}

// GetAnalysis возвращает сохранённый ответ анализа по ID
func (s *AnalyticsService) GetAnalysis(id string) (*models.AnalysisResponse, error) {
	a, err := s.repo.GetAnalysis(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	if a.AnalysisData != nil {
		return a.AnalysisData, nil
	}
	return storedResponse(a), nil
}

// DeleteAnalysis удаляет анализ и связанные файлы
func (s *AnalyticsService) DeleteAnalysis(id string) error {
	a, err := s.repo.GetAnalysis(id)
	if err != nil {
		return fmt.Errorf("failed to get analysis for deletion: %w", err)
	}

	if err := s.repo.DeleteAnalysis(id); err != nil {
		return fmt.Errorf("failed to delete analysis from database: %w", err)
	}

	s.removeFiles(a.OriginalPath, a.ProcessedPath)

	s.logger.Infof("Анализ %s удален", id)
	return nil
}

// UpdateSite обновляет количество людей на площадке и возвращает новый статус
func (s *AnalyticsService) UpdateSite(id uint, count int) (string, error) {
	if count < 0 {
		return "", fmt.Errorf("%w: count must not be negative", ErrInvalidInput)
	}
	site, err := s.repo.UpdateSiteCount(id, count)
	if err != nil {
		return "", fmt.Errorf("failed to update site: %w", err)
	}
	s.logger.Infof("Площадка %s: %d человек, статус %s", site.Name, count, site.Status)
	return site.Status, nil
}
