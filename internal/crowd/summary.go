package crowd

// FrameRecord результат обработки одного кадра
type FrameRecord struct {
	Frame       int   `json:"frame"`
	PeopleCount int   `json:"people_count"`
	AvgCount    int   `json:"avg_count"`
	Density     Level `json:"density"`
}

// RunSummary итоговая статистика прогона по видео
type RunSummary struct {
	AveragePeople   int
	Density         Level
	TotalFrames     int
	AlertFrames     int
	SkippedFrames   int
	AlertPercentage float64
	// DurationSeconds считается по всем прочитанным кадрам, включая пропущенные;
	// отсутствует, если частота кадров неизвестна
	DurationSeconds *float64
	Frames          []FrameRecord
}

// BuildSummary сворачивает последовательность кадров в итоговую статистику.
// Итоговое среднее считается целочисленным делением суммы скользящих средних,
// в отличие от покадрового среднего, которое округляется.
func BuildSummary(frames []FrameRecord, skipped int, fps float64) RunSummary {
	summary := RunSummary{
		TotalFrames:   len(frames),
		SkippedFrames: skipped,
		Frames:        frames,
	}

	sum := 0
	for _, f := range frames {
		sum += f.AvgCount
		if f.Density.IsAlert() {
			summary.AlertFrames++
		}
	}

	if len(frames) > 0 {
		summary.AveragePeople = sum / len(frames)
		summary.AlertPercentage = float64(summary.AlertFrames) / float64(len(frames)) * 100
	}
	summary.Density = ClassifyLevel(summary.AveragePeople)

	if fps > 0 {
		duration := float64(len(frames)+skipped) / fps
		summary.DurationSeconds = &duration
	}

	return summary
}
