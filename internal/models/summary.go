package models

import "math"

// HistorySummary counts a history list per label.
//
// Percentages are rounded half up and need not sum to 100.
type HistorySummary struct {
	Total   int           `json:"total"`
	Counts  map[Label]int `json:"counts"`
	Percent map[Label]int `json:"percent"`
}

// Summarize builds a [HistorySummary] over items using each item's effective label.
func Summarize(items []Analysis) HistorySummary {
	s := HistorySummary{
		Total:   len(items),
		Counts:  make(map[Label]int, len(Labels)),
		Percent: make(map[Label]int, len(Labels)),
	}
	for _, l := range Labels {
		s.Counts[l] = 0
		s.Percent[l] = 0
	}

	for _, it := range items {
		l := it.Effective()
		if _, ok := s.Counts[l]; ok {
			s.Counts[l]++
		}
	}

	if s.Total == 0 {
		return s
	}

	for _, l := range Labels {
		s.Percent[l] = int(math.Floor(float64(s.Counts[l])/float64(s.Total)*100 + 0.5))
	}
	return s
}
