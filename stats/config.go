package stats

import (
	"github.com/relex/log-shipper/base"
)

// Config toggles groups of system stats
type Config struct {
	Memory         bool   `yaml:"memory"`
	CPU            bool   `yaml:"cpu"`
	Filesystem     bool   `yaml:"filesystem"`
	FilesystemPath string `yaml:"filesystemPath"`
}

// DefaultConfig returns the config with every group enabled
func DefaultConfig() Config {
	return Config{
		Memory:         true,
		CPU:            true,
		Filesystem:     true,
		FilesystemPath: "/",
	}
}

// NewSource creates the metrics source for the given config, merged with extra sources
//
// Extra sources override system stats of the same names
func NewSource(config Config, extra ...base.MetricsSource) base.MetricsSource {
	sources := make([]base.MetricsSource, 0, 2+len(extra))
	if config.Memory {
		sources = append(sources, NewRuntimeSource())
	}
	sources = append(sources, NewSystemSource(config))
	sources = append(sources, extra...)
	return NewMultiSource(sources...)
}
