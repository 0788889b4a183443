package model

import (
	"time"

	"gorm.io/gorm"

	"crowd-monitor-go/pkg/models"
)

// Analysis представляет завершённый анализ файла в базе данных
type Analysis struct {
	ID            string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Filename      string `gorm:"type:varchar(255);not null" json:"filename"`
	MediaType     string `gorm:"type:varchar(16);not null" json:"media_type"`
	OriginalPath  string `gorm:"type:varchar(500)" json:"original_path"`
	ProcessedPath string `gorm:"type:varchar(500)" json:"processed_path"`

	// Для видео среднее по прогону, для изображения количество на снимке
	PeopleCount  int    `gorm:"not null;default:0" json:"people_count"`
	DensityLevel string `gorm:"type:varchar(16);not null" json:"density_level"`

	// Статистика видео
	TotalFrames     int      `gorm:"not null;default:0" json:"total_frames"`
	AlertFrames     int      `gorm:"not null;default:0" json:"alert_frames"`
	SkippedFrames   int      `gorm:"not null;default:0" json:"skipped_frames"`
	AlertPercentage float64  `gorm:"not null;default:0" json:"alert_percentage"`
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	FPS             float64  `json:"fps"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`

	// Ответ анализа в том виде, в каком он ушёл клиенту
	AnalysisData *models.AnalysisResponse `gorm:"type:jsonb;serializer:json" json:"analysis_data,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Frames []FrameStat `gorm:"foreignKey:AnalysisID;constraint:OnDelete:CASCADE" json:"frames,omitempty"`
	Alerts []Alert     `gorm:"foreignKey:AnalysisID;constraint:OnDelete:CASCADE" json:"alerts,omitempty"`
}

// FrameStat показатели одного кадра видео
type FrameStat struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	AnalysisID  string `gorm:"type:varchar(36);not null;index" json:"analysis_id"`
	Frame       int    `gorm:"not null" json:"frame"`
	PeopleCount int    `gorm:"not null" json:"people_count"`
	AvgCount    int    `gorm:"not null" json:"avg_count"`
	Density     string `gorm:"type:varchar(16);not null" json:"density"`
}

// Alert тревога о высокой плотности толпы
type Alert struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AnalysisID string    `gorm:"type:varchar(36);index" json:"analysis_id"`
	AlertType  string    `gorm:"type:varchar(64);not null" json:"alert_type"`
	Message    string    `gorm:"type:text" json:"message"`
	Severity   string    `gorm:"type:varchar(16);not null;default:medium" json:"severity"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	// Имя файла анализа, заполняется при выборке
	Filename string `gorm:"-" json:"filename,omitempty"`
}

// TableName указывает имя таблицы для Analysis
func (Analysis) TableName() string {
	return "analyses"
}

// TableName указывает имя таблицы для FrameStat
func (FrameStat) TableName() string {
	return "frame_stats"
}

// TableName указывает имя таблицы для Alert
func (Alert) TableName() string {
	return "crowd_alerts"
}
