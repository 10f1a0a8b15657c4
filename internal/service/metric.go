package service

import (
	"math"
	"sort"

	"github.com/Divoolej/prtrade/internal/models"
)

// WorstScore — оценка для пары профилей без общих типов файлов.
// Конечная константа, а не -Inf: сравнения и сериализация остаются
// корректными, а любое осмысленное сходство оценивается выше.
const WorstScore = -10000.0

// SimilarityScore сравнивает два профиля изменений по добавлениям в
// отдельных типах файлов. Оценка всегда <= 0; чем ближе к нулю, тем
// более похожи Pull Request.
func SimilarityScore(a, b models.Changes) float64 {
	if !shareFileTypes(a, b) {
		return WorstScore
	}
	finalScore := 0.0
	finalScore -= score(a.Additions, b.Additions)
	for _, fileType := range allFileTypes(a, b) {
		finalScore -= score(
			a.AdditionsForFileType(fileType),
			b.AdditionsForFileType(fileType),
		)
	}
	return finalScore
}

// shareFileTypes проверяет, пересекаются ли множества типов файлов.
func shareFileTypes(a, b models.Changes) bool {
	for fileType := range a.FileTypes {
		if _, ok := b.FileTypes[fileType]; ok {
			return true
		}
	}
	return false
}

// allFileTypes возвращает объединение типов файлов двух профилей.
func allFileTypes(a, b models.Changes) []string {
	seen := make(map[string]struct{}, len(a.FileTypes)+len(b.FileTypes))
	for fileType := range a.FileTypes {
		seen[fileType] = struct{}{}
	}
	for fileType := range b.FileTypes {
		seen[fileType] = struct{}{}
	}
	union := make([]string, 0, len(seen))
	for fileType := range seen {
		union = append(union, fileType)
	}
	sort.Strings(union)
	return union
}

// factor — нормированный коэффициент дисбаланса в [0, 1).
func factor(additions1, additions2 int) float64 {
	if additions1+additions2 == 0 {
		return 0
	}
	return math.Abs(float64(additions1-additions2)) / float64(additions1+additions2)
}

// score — взвешенный по величине дисбаланс: большие однобокие разницы
// доминируют, одинаковые добавления дают ровно 0 при любой величине.
func score(additions1, additions2 int) float64 {
	return math.Abs(float64(additions1-additions2)) * factor(additions1, additions2)
}
