package base

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/relex/gotils/logger"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// MetricFactory creates Prometheus metrics with a common name prefix and fixed leading labels
//
// Metrics are registered to the default Prometheus registry. Asking for the same metric again, from this factory,
// its sub-factories or another factory with the same prefix, returns the existing one curried with the new fixed
// labels, so that components can be relaunched without registration errors.
type MetricFactory struct {
	namePrefix  string
	labelNames  []string
	labelValues []string
	shared      *metricRegistry
}

// metricRegistry keeps the root vectors created by a factory and all its sub-factories
type metricRegistry struct {
	lock    sync.Mutex
	vectors map[string]prometheus.Collector
}

// NewMetricFactory creates a factory with prefix for metric names and fixed labels for all metrics created from it
func NewMetricFactory(prefix string, labelNames []string, labelValues []string) *MetricFactory {
	mustMatchLabels(labelNames, labelValues)
	return &MetricFactory{
		namePrefix:  prefix,
		labelNames:  labelNames,
		labelValues: labelValues,
		shared:      &metricRegistry{vectors: make(map[string]prometheus.Collector, 50)},
	}
}

// NewSubFactory creates a factory with additional prefix and fixed labels on top of this one
func (factory *MetricFactory) NewSubFactory(prefix string, labelNames []string, labelValues []string) *MetricFactory {
	mustMatchLabels(labelNames, labelValues)
	fullPrefix, allNames, allValues := factory.resolve(prefix, labelNames, labelValues)
	return &MetricFactory{
		namePrefix:  fullPrefix,
		labelNames:  allNames,
		labelValues: allValues,
		shared:      factory.shared,
	}
}

// Prefix is the prefix added to all metric names inside this factory
func (factory *MetricFactory) Prefix() string {
	return factory.namePrefix
}

// AddOrGetCounter adds or gets a counter with all labels fixed
func (factory *MetricFactory) AddOrGetCounter(name string, help string, labelNames []string, labelValues []string) prometheus.Counter {
	mustMatchLabels(labelNames, labelValues)
	return factory.AddOrGetCounterVec(name, help, labelNames, labelValues).WithLabelValues()
}

// AddOrGetCounterVec adds or gets a counter-vec, with the leftmost labels fixed to the given values
func (factory *MetricFactory) AddOrGetCounterVec(name string, help string, labelNames []string, leftmostLabelValues []string) *prometheus.CounterVec {
	fullName, allNames, allValues := factory.resolve(name, labelNames, leftmostLabelValues)
	vec := factory.shared.lookupOrRegister(fullName, func() prometheus.Collector {
		return prometheus.NewCounterVec(prometheus.CounterOpts{Name: fullName, Help: help}, allNames)
	}).(*prometheus.CounterVec)

	curried, err := vec.CurryWith(buildLabels(allNames, allValues))
	if err != nil {
		logger.Panicf("failed to curry counter-vec '%s': %s", fullName, err.Error())
	}
	return curried
}

// AddOrGetGauge adds or gets a gauge with all labels fixed
func (factory *MetricFactory) AddOrGetGauge(name string, help string, labelNames []string, labelValues []string) prometheus.Gauge {
	mustMatchLabels(labelNames, labelValues)
	return factory.AddOrGetGaugeVec(name, help, labelNames, labelValues).WithLabelValues()
}

// AddOrGetGaugeVec adds or gets a gauge-vec, with the leftmost labels fixed to the given values
func (factory *MetricFactory) AddOrGetGaugeVec(name string, help string, labelNames []string, leftmostLabelValues []string) *prometheus.GaugeVec {
	fullName, allNames, allValues := factory.resolve(name, labelNames, leftmostLabelValues)
	vec := factory.shared.lookupOrRegister(fullName, func() prometheus.Collector {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: fullName, Help: help}, allNames)
	}).(*prometheus.GaugeVec)

	curried, err := vec.CurryWith(buildLabels(allNames, allValues))
	if err != nil {
		logger.Panicf("failed to curry gauge-vec '%s': %s", fullName, err.Error())
	}
	return curried
}

// DumpMetrics exports metrics under this factory's prefix in the .prom text format, without comments and sorted by name
//
// For testing and benchmarks
func (factory *MetricFactory) DumpMetrics(includeZeroValues bool) (string, error) {
	registry := prometheus.NewPedanticRegistry()
	for _, name := range factory.shared.namesWithPrefix(factory.namePrefix) {
		if err := registry.Register(factory.shared.get(name)); err != nil {
			return "", fmt.Errorf("failed to add metric '%s' to gatherer: %w", name, err)
		}
	}
	families, err := registry.Gather()
	if err != nil {
		return "", fmt.Errorf("failed to gather metrics: %w", err)
	}

	text := &bytes.Buffer{}
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(text, family); err != nil {
			return "", fmt.Errorf("failed to export '%s': %w", family.GetName(), err)
		}
	}
	result := &strings.Builder{}
	scanner := bufio.NewScanner(text)
	for scanner.Scan() {
		ln := scanner.Text()
		if strings.HasPrefix(ln, "#") || (!includeZeroValues && strings.HasSuffix(ln, " 0")) {
			continue
		}
		result.WriteString(ln)
		result.WriteByte('\n')
	}
	return result.String(), nil
}

// resolve prepends this factory's prefix and fixed labels to the given name and labels
func (factory *MetricFactory) resolve(name string, labelNames []string, leftmostLabelValues []string) (string, []string, []string) {
	if len(labelNames) < len(leftmostLabelValues) {
		logger.Panicf("more label values (%s) than names (%s)",
			strings.Join(leftmostLabelValues, ","), strings.Join(labelNames, ","))
	}
	allNames := make([]string, 0, len(factory.labelNames)+len(labelNames))
	allNames = append(append(allNames, factory.labelNames...), labelNames...)
	allValues := make([]string, 0, len(factory.labelValues)+len(leftmostLabelValues))
	allValues = append(append(allValues, factory.labelValues...), leftmostLabelValues...)
	return factory.namePrefix + name, allNames, allValues
}

func (reg *metricRegistry) lookupOrRegister(fullName string, create func() prometheus.Collector) prometheus.Collector {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	if vec, ok := reg.vectors[fullName]; ok {
		return vec
	}
	vec := create()
	if err := prometheus.Register(vec); err != nil {
		var existingErr prometheus.AlreadyRegisteredError
		if !errors.As(err, &existingErr) {
			logger.Panicf("failed to register metric '%s': %s", fullName, err.Error())
		}
		vec = existingErr.ExistingCollector
	}
	reg.vectors[fullName] = vec
	return vec
}

func (reg *metricRegistry) get(fullName string) prometheus.Collector {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	return reg.vectors[fullName]
}

func (reg *metricRegistry) namesWithPrefix(prefix string) []string {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	names := make([]string, 0, len(reg.vectors))
	for _, name := range maps.Keys(reg.vectors) {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

func mustMatchLabels(labelNames []string, labelValues []string) {
	if len(labelNames) != len(labelValues) {
		logger.Panicf("different lengths of labelNames (%s) and labelValues (%s)",
			strings.Join(labelNames, ","), strings.Join(labelValues, ","))
	}
}

func buildLabels(labelNames []string, leftmostLabelValues []string) prometheus.Labels {
	labels := make(prometheus.Labels, len(leftmostLabelValues))
	for i, value := range leftmostLabelValues {
		labels[labelNames[i]] = value
	}
	return labels
}
