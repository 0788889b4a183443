package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"crowd-monitor-go/internal/model"
)

func newTestRepo() *memoryRepository {
	r := NewMemoryRepository(model.DefaultSites()).(*memoryRepository)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return r
}

func TestMemoryRepository_SaveAndGetAnalysis(t *testing.T) {
	r := newTestRepo()

	a := &model.Analysis{
		ID:           "a1",
		Filename:     "crowd.mp4",
		MediaType:    "video",
		PeopleCount:  16,
		DensityLevel: "High",
		Frames: []model.FrameStat{
			{Frame: 0, PeopleCount: 16, AvgCount: 16, Density: "High"},
			{Frame: 1, PeopleCount: 17, AvgCount: 17, Density: "High"},
		},
		Alerts: []model.Alert{{AlertType: "High Crowd Density", Severity: "high"}},
	}
	require.NoError(t, r.SaveAnalysis(a))

	got, err := r.GetAnalysis("a1")
	require.NoError(t, err)
	require.Equal(t, "crowd.mp4", got.Filename)
	require.Len(t, got.Frames, 2)
	require.Equal(t, "a1", got.Frames[1].AnalysisID)

	alerts, err := r.ListAlerts(10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, "crowd.mp4", alerts[0].Filename)

	require.Error(t, r.SaveAnalysis(&model.Analysis{ID: "a1"}))
	require.Error(t, r.SaveAnalysis(&model.Analysis{}))
}

func TestMemoryRepository_ListRecentNewestFirst(t *testing.T) {
	r := newTestRepo()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, r.SaveAnalysis(&model.Analysis{ID: id, Filename: id + ".png"}))
	}

	list, err := r.ListRecentAnalyses(2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "c", list[0].ID)
	require.Equal(t, "b", list[1].ID)
}

func TestMemoryRepository_AlertsNewestFirst(t *testing.T) {
	r := newTestRepo()
	require.NoError(t, r.SaveAlert(&model.Alert{Message: "first"}))
	require.NoError(t, r.SaveAlert(&model.Alert{Message: "second"}))

	alerts, err := r.ListAlerts(1)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, "second", alerts[0].Message)
}

func TestMemoryRepository_DeleteAnalysis(t *testing.T) {
	r := newTestRepo()
	require.NoError(t, r.SaveAnalysis(&model.Analysis{ID: "x", Alerts: []model.Alert{{Message: "m"}}}))

	require.NoError(t, r.DeleteAnalysis("x"))
	_, err := r.GetAnalysis("x")
	require.ErrorIs(t, err, ErrNotFound)

	alerts, err := r.ListAlerts(10)
	require.NoError(t, err)
	require.Empty(t, alerts)

	require.ErrorIs(t, r.DeleteAnalysis("x"), ErrNotFound)
}

func TestMemoryRepository_Sites(t *testing.T) {
	r := newTestRepo()

	sites, err := r.GetSites()
	require.NoError(t, err)
	require.Len(t, sites, 4)
	require.Equal(t, "Ambaji Temple", sites[0].Name)

	var somnath *model.Site
	for _, s := range sites {
		if s.Name == "Somnath Temple" {
			somnath = s
		}
	}
	require.NotNil(t, somnath)

	updated, err := r.UpdateSiteCount(somnath.ID, 900)
	require.NoError(t, err)
	require.Equal(t, model.SiteHigh, updated.Status)
	require.Equal(t, 900, updated.CurrentCount)

	updated, err = r.UpdateSiteCount(somnath.ID, 600)
	require.NoError(t, err)
	require.Equal(t, model.SiteMedium, updated.Status)

	_, err = r.UpdateSiteCount(99, 1)
	require.ErrorIs(t, err, ErrNotFound)
}
