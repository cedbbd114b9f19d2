package stats

import (
	"github.com/relex/log-shipper/base"
)

// MultiSource merges metrics of multiple sources; later sources override earlier ones for the same names
type MultiSource struct {
	sources []base.MetricsSource
}

// NewMultiSource creates a MultiSource. Nil sources are skipped.
func NewMultiSource(sources ...base.MetricsSource) *MultiSource {
	nonNil := make([]base.MetricsSource, 0, len(sources))
	for _, src := range sources {
		if src != nil {
			nonNil = append(nonNil, src)
		}
	}
	return &MultiSource{sources: nonNil}
}

// GetStats merges stats of all sources
func (multi *MultiSource) GetStats() map[string]float64 {
	result := make(map[string]float64, 20)
	for _, src := range multi.sources {
		for name, value := range src.GetStats() {
			result[name] = value
		}
	}
	return result
}
