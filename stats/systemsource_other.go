//go:build !linux

package stats

// SystemSource reports nothing outside of Linux
type SystemSource struct{}

// NewSystemSource creates a SystemSource
func NewSystemSource(config Config) *SystemSource {
	return &SystemSource{}
}

// GetStats returns an empty map
func (src *SystemSource) GetStats() map[string]float64 {
	return map[string]float64{}
}
