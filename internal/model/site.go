package model

import "time"

// Статусы площадки по заполненности
const (
	SiteNormal = "Normal"
	SiteMedium = "Medium"
	SiteHigh   = "High"
)

// Site площадка с ограниченной вместимостью
type Site struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	Location     string    `gorm:"type:varchar(255)" json:"location"`
	Capacity     int       `gorm:"not null" json:"capacity"`
	CurrentCount int       `gorm:"not null;default:0" json:"current_count"`
	Status       string    `gorm:"type:varchar(16);not null;default:Normal" json:"status"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"last_updated"`
}

// TableName указывает имя таблицы для Site
func (Site) TableName() string {
	return "sites"
}

// SiteStatus статус по доле заполненности: больше 80% High, больше 50% Medium
func SiteStatus(count, capacity int) string {
	switch {
	case float64(count) > float64(capacity)*0.8:
		return SiteHigh
	case float64(count) > float64(capacity)*0.5:
		return SiteMedium
	default:
		return SiteNormal
	}
}

// DefaultSites площадки, создаваемые при первой миграции
func DefaultSites() []Site {
	return []Site{
		{Name: "Somnath Temple", Location: "Gujarat", Capacity: 1000, Status: SiteNormal},
		{Name: "Dwarka Temple", Location: "Gujarat", Capacity: 800, Status: SiteNormal},
		{Name: "Ambaji Temple", Location: "Gujarat", Capacity: 600, Status: SiteNormal},
		{Name: "Pavagadh Temple", Location: "Gujarat", Capacity: 700, Status: SiteNormal},
	}
}
