package shipper

import (
	"github.com/gobwas/glob"
	"github.com/relex/gotils/logger"
)

// sourceFilter excludes records by glob patterns on their sources
type sourceFilter struct {
	patterns []glob.Glob
}

// newSourceFilter compiles patterns; invalid patterns are skipped with a warning
func newSourceFilter(parentLogger logger.Logger, patterns []string) *sourceFilter {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			parentLogger.Warnf("ignored invalid source pattern '%s': %s", pattern, err.Error())
			continue
		}
		compiled = append(compiled, g)
	}
	return &sourceFilter{patterns: compiled}
}

// Excludes tells whether records of the source should be dropped
func (filter *sourceFilter) Excludes(source string) bool {
	for _, g := range filter.patterns {
		if g.Match(source) {
			return true
		}
	}
	return false
}
