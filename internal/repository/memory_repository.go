package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"crowd-monitor-go/internal/model"
)

// memoryRepository хранение в памяти процесса
type memoryRepository struct {
	mu        sync.RWMutex
	analyses  map[string]*model.Analysis
	alerts    []*model.Alert
	sites     map[uint]*model.Site
	nextAlert uint
	nextFrame uint
	now       func() time.Time
}

// NewMemoryRepository создает репозиторий в памяти с заданными площадками
func NewMemoryRepository(sites []model.Site) AnalysisRepository {
	r := &memoryRepository{
		analyses: make(map[string]*model.Analysis),
		sites:    make(map[uint]*model.Site),
		now:      time.Now,
	}
	for i := range sites {
		s := sites[i]
		s.ID = uint(i + 1)
		if s.Status == "" {
			s.Status = model.SiteStatus(s.CurrentCount, s.Capacity)
		}
		r.sites[s.ID] = &s
	}
	return r
}

func (r *memoryRepository) SaveAnalysis(analysis *model.Analysis) error {
	if analysis.ID == "" {
		return fmt.Errorf("failed to create analysis: empty id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.analyses[analysis.ID]; ok {
		return fmt.Errorf("failed to create analysis: duplicate id %s", analysis.ID)
	}

	now := r.now()
	analysis.CreatedAt, analysis.UpdatedAt = now, now
	for i := range analysis.Frames {
		r.nextFrame++
		analysis.Frames[i].ID = r.nextFrame
		analysis.Frames[i].AnalysisID = analysis.ID
	}
	for i := range analysis.Alerts {
		r.nextAlert++
		analysis.Alerts[i].ID = r.nextAlert
		analysis.Alerts[i].AnalysisID = analysis.ID
		analysis.Alerts[i].CreatedAt = now
		a := analysis.Alerts[i]
		r.alerts = append(r.alerts, &a)
	}

	stored := *analysis
	r.analyses[analysis.ID] = &stored
	return nil
}

func (r *memoryRepository) SaveAlert(alert *model.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextAlert++
	alert.ID = r.nextAlert
	alert.CreatedAt = r.now()
	a := *alert
	r.alerts = append(r.alerts, &a)
	return nil
}

func (r *memoryRepository) GetAnalysis(id string) (*model.Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.analyses[id]
	if !ok {
		return nil, fmt.Errorf("analysis with id %s: %w", id, ErrNotFound)
	}
	out := *a
	return &out, nil
}

func (r *memoryRepository) ListRecentAnalyses(limit int) ([]*model.Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Analysis, 0, len(r.analyses))
	for _, a := range r.analyses {
		c := *a
		c.Frames, c.Alerts, c.AnalysisData = nil, nil, nil
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepository) DeleteAnalysis(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.analyses[id]; !ok {
		return fmt.Errorf("analysis with id %s: %w", id, ErrNotFound)
	}
	delete(r.analyses, id)

	kept := r.alerts[:0]
	for _, a := range r.alerts {
		if a.AnalysisID != id {
			kept = append(kept, a)
		}
	}
	r.alerts = kept
	return nil
}

func (r *memoryRepository) ListAlerts(limit int) ([]*model.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Alert, 0, len(r.alerts))
	for i := len(r.alerts) - 1; i >= 0; i-- {
		a := *r.alerts[i]
		if an, ok := r.analyses[a.AnalysisID]; ok {
			a.Filename = an.Filename
		}
		out = append(out, &a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memoryRepository) GetSites() ([]*model.Site, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Site, 0, len(r.sites))
	for _, s := range r.sites {
		c := *s
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryRepository) UpdateSiteCount(id uint, count int) (*model.Site, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sites[id]
	if !ok {
		return nil, fmt.Errorf("site with id %d: %w", id, ErrNotFound)
	}
	s.CurrentCount = count
	s.Status = model.SiteStatus(count, s.Capacity)
	s.UpdatedAt = r.now()
	out := *s
	return &out, nil
}
