package media

import (
	"fmt"
	"os"
	"path/filepath"
)

const partialPrefix = ".partial_"

// PartialPath путь временного файла, в который пишется результат до фиксации.
// Расширение сохраняется, чтобы кодировщики могли определить формат.
func PartialPath(finalPath string) string {
	return filepath.Join(filepath.Dir(finalPath), partialPrefix+filepath.Base(finalPath))
}

// CommitPartial переносит временный файл на итоговое место.
// Если перенос не удался, временный файл удаляется.
func CommitPartial(finalPath string) error {
	if err := os.Rename(PartialPath(finalPath), finalPath); err != nil {
		_ = DiscardPartial(finalPath)
		return fmt.Errorf("failed to commit output file: %w", err)
	}
	return nil
}

// DiscardPartial удаляет временный файл, если он есть
func DiscardPartial(finalPath string) error {
	err := os.Remove(PartialPath(finalPath))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove partial output file: %w", err)
	}
	return nil
}
