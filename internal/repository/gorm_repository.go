package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"crowd-monitor-go/internal/model"
)

// gormRepository реализация AnalysisRepository поверх PostgreSQL
type gormRepository struct {
	db *gorm.DB
}

// NewGormRepository создает новый instance AnalysisRepository
func NewGormRepository(db *gorm.DB) AnalysisRepository {
	return &gormRepository{
		db: db,
	}
}

// SaveAnalysis создает анализ, его кадры и тревоги
func (r *gormRepository) SaveAnalysis(analysis *model.Analysis) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	frames, alerts := analysis.Frames, analysis.Alerts
	analysis.Frames, analysis.Alerts = nil, nil
	defer func() {
		analysis.Frames, analysis.Alerts = frames, alerts
	}()

	if err := tx.Create(analysis).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create analysis: %w", err)
	}

	for i := range frames {
		frames[i].ID = 0
		frames[i].AnalysisID = analysis.ID
	}
	if len(frames) > 0 {
		if err := tx.CreateInBatches(frames, 500).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create frame stats: %w", err)
		}
	}

	for i := range alerts {
		alerts[i].ID = 0
		alerts[i].AnalysisID = analysis.ID
		if err := tx.Create(&alerts[i]).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create alert %d: %w", i, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// SaveAlert создает отдельную тревогу
func (r *gormRepository) SaveAlert(alert *model.Alert) error {
	if err := r.db.Create(alert).Error; err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// GetAnalysis получает анализ по ID вместе с кадрами и тревогами
func (r *gormRepository) GetAnalysis(id string) (*model.Analysis, error) {
	var analysis model.Analysis
	err := r.db.
		Preload("Frames", func(db *gorm.DB) *gorm.DB { return db.Order("frame ASC") }).
		Preload("Alerts").
		Where("id = ?", id).
		First(&analysis).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("analysis with id %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &analysis, nil
}

// ListRecentAnalyses последние анализы без покадровых данных
func (r *gormRepository) ListRecentAnalyses(limit int) ([]*model.Analysis, error) {
	var analyses []*model.Analysis
	err := r.db.
		Omit("analysis_data").
		Order("created_at DESC").
		Limit(limit).
		Find(&analyses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return analyses, nil
}

// DeleteAnalysis удаляет анализ по ID
func (r *gormRepository) DeleteAnalysis(id string) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	if err := tx.Where("analysis_id = ?", id).Delete(&model.FrameStat{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete frame stats: %w", err)
	}
	if err := tx.Where("analysis_id = ?", id).Delete(&model.Alert{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete alerts: %w", err)
	}

	result := tx.Where("id = ?", id).Delete(&model.Analysis{})
	if result.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete analysis: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return fmt.Errorf("analysis with id %s: %w", id, ErrNotFound)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// alertRow тревога с именем файла анализа
type alertRow struct {
	model.Alert
	AnalysisFilename string
}

// ListAlerts последние тревоги с именем файла
func (r *gormRepository) ListAlerts(limit int) ([]*model.Alert, error) {
	var rows []alertRow
	err := r.db.Model(&model.Alert{}).
		Select("crowd_alerts.*, analyses.filename AS analysis_filename").
		Joins("LEFT JOIN analyses ON analyses.id = crowd_alerts.analysis_id").
		Order("crowd_alerts.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	alerts := make([]*model.Alert, 0, len(rows))
	for i := range rows {
		a := rows[i].Alert
		a.Filename = rows[i].AnalysisFilename
		alerts = append(alerts, &a)
	}
	return alerts, nil
}

// GetSites площадки по имени
func (r *gormRepository) GetSites() ([]*model.Site, error) {
	var sites []*model.Site
	if err := r.db.Order("name ASC").Find(&sites).Error; err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	return sites, nil
}

// UpdateSiteCount обновляет счётчик площадки
func (r *gormRepository) UpdateSiteCount(id uint, count int) (*model.Site, error) {
	tx := r.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	var site model.Site
	if err := tx.Where("id = ?", id).First(&site).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("site with id %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get site: %w", err)
	}

	site.CurrentCount = count
	site.Status = model.SiteStatus(count, site.Capacity)
	if err := tx.Save(&site).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update site: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &site, nil
}
