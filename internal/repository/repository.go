package repository

import (
	"errors"

	"crowd-monitor-go/internal/model"
)

// ErrNotFound запись не найдена
var ErrNotFound = errors.New("record not found")

// AnalysisRepository интерфейс для работы с анализами, тревогами и площадками
type AnalysisRepository interface {
	// SaveAnalysis сохраняет анализ вместе с кадрами и тревогами одной транзакцией
	SaveAnalysis(analysis *model.Analysis) error
	SaveAlert(alert *model.Alert) error
	GetAnalysis(id string) (*model.Analysis, error)
	ListRecentAnalyses(limit int) ([]*model.Analysis, error)
	DeleteAnalysis(id string) error
	ListAlerts(limit int) ([]*model.Alert, error)
	GetSites() ([]*model.Site, error)
	// UpdateSiteCount обновляет количество людей и пересчитывает статус площадки
	UpdateSiteCount(id uint, count int) (*model.Site, error)
}
