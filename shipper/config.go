package shipper

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/defs"
	"github.com/relex/log-shipper/flush"
	"github.com/relex/log-shipper/util"
	"gopkg.in/yaml.v3"
)

// Config defines the buffering and flushing policy of a Shipper
//
// Options are lenient: missing, invalid or non-positive values are ignored with a debug log and the defaults are kept.
// Durations can be written as Go durations ("10s") or integer milliseconds.
type Config struct {
	Threshold       int           `yaml:"threshold"`
	MaxBuffer       int           `yaml:"maxBuffer"`
	TimeInterval    time.Duration `yaml:"timeInterval"`
	StatsInterval   time.Duration `yaml:"statsInterval"`
	FailedFlushWait time.Duration `yaml:"failedFlushWait"`
	ShowStats       bool          `yaml:"showStats"`
	SendTimeout     time.Duration `yaml:"sendTimeout"`
	ExcludeSources  []string      `yaml:"excludeSources"`
}

// DefaultConfig returns the config with all default values
func DefaultConfig() Config {
	return Config{
		Threshold:       defs.DefaultFlushThreshold,
		MaxBuffer:       defs.DefaultMaxBuffer,
		TimeInterval:    defs.DefaultTimeInterval,
		StatsInterval:   defs.DefaultStatsInterval,
		FailedFlushWait: defs.DefaultFailedFlushWait,
		ShowStats:       true,
		SendTimeout:     defs.DefaultSendTimeout,
		ExcludeSources:  nil,
	}
}

// ConfigFromMap creates a Config from loosely-typed values, e.g. from properties of a host application
func ConfigFromMap(values map[string]interface{}) Config {
	config := DefaultConfig()
	clogger := configLogger()
	for key, value := range values {
		config.set(clogger, key, value)
	}
	return config
}

// UnmarshalYAML decodes options leniently on top of defaults
func (config *Config) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return util.NewYamlError(node, "shipper config must be a mapping")
	}
	values := make(map[string]interface{}, len(node.Content)/2)
	if err := node.Decode(&values); err != nil {
		return util.NewYamlError(node, err.Error())
	}
	*config = ConfigFromMap(values)
	return nil
}

// Validate logs warnings about options which are valid but probably not intended
func (config Config) Validate(parentLogger logger.Logger) {
	if config.Threshold > config.MaxBuffer {
		parentLogger.Warnf("threshold %d exceeds maxBuffer %d: records would only be flushed by timer", config.Threshold, config.MaxBuffer)
	}
	if config.FailedFlushWait >= config.TimeInterval {
		parentLogger.Debugf("failedFlushWait %s is not shorter than timeInterval %s", config.FailedFlushWait, config.TimeInterval)
	}
}

// Policy returns the flush policy part of config
func (config Config) Policy() flush.Policy {
	return flush.Policy{
		Threshold:       config.Threshold,
		TimeInterval:    config.TimeInterval,
		StatsInterval:   config.StatsInterval,
		FailedFlushWait: config.FailedFlushWait,
	}
}

func (config *Config) set(clogger logger.Logger, key string, value interface{}) {
	var err error
	switch key {
	case "threshold":
		err = setPositiveInt(&config.Threshold, value)
	case "maxBuffer":
		err = setPositiveInt(&config.MaxBuffer, value)
	case "timeInterval", "timeBuffer":
		err = setPositiveDuration(&config.TimeInterval, value)
	case "statsInterval":
		err = setPositiveDuration(&config.StatsInterval, value)
	case "failedFlushWait":
		err = setPositiveDuration(&config.FailedFlushWait, value)
	case "sendTimeout":
		err = setPositiveDuration(&config.SendTimeout, value)
	case "showStats":
		err = setBool(&config.ShowStats, value)
	case "excludeSources":
		err = setStringList(&config.ExcludeSources, value)
	default:
		clogger.Debugf("ignored unknown option '%s'", key)
		return
	}
	if err != nil {
		clogger.Debugf("ignored option '%s': %s", key, err.Error())
	}
}

func configLogger() logger.Logger {
	return logger.WithField(defs.LabelComponent, "ShipperConfig")
}

func setPositiveInt(target *int, value interface{}) error {
	var num int64
	switch v := value.(type) {
	case int:
		num = int64(v)
	case int64:
		num = v
	case uint64:
		if v > math.MaxInt32 {
			return fmt.Errorf("too large: %d", v)
		}
		num = int64(v)
	case float64:
		if v != math.Trunc(v) {
			return fmt.Errorf("not an integer: %v", v)
		}
		num = int64(v)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("not an integer: '%s'", v)
		}
		num = parsed
	default:
		return fmt.Errorf("unsupported type %T", value)
	}
	if num <= 0 {
		return fmt.Errorf("not positive: %d", num)
	}
	if num > math.MaxInt32 {
		return fmt.Errorf("too large: %d", num)
	}
	*target = int(num)
	return nil
}

// setPositiveDuration accepts Go durations or integer milliseconds
func setPositiveDuration(target *time.Duration, value interface{}) error {
	var duration time.Duration
	switch v := value.(type) {
	case time.Duration:
		duration = v
	case string:
		trimmed := strings.TrimSpace(v)
		if millis, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			duration = time.Duration(millis) * time.Millisecond
		} else if parsed, err := time.ParseDuration(trimmed); err == nil {
			duration = parsed
		} else {
			return fmt.Errorf("not a duration: '%s'", v)
		}
	default:
		var millis int
		if err := setPositiveInt(&millis, value); err != nil {
			return err
		}
		duration = time.Duration(millis) * time.Millisecond
	}
	if duration <= 0 {
		return fmt.Errorf("not positive: %s", duration)
	}
	*target = duration
	return nil
}

func setBool(target *bool, value interface{}) error {
	switch v := value.(type) {
	case bool:
		*target = v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("not a bool: '%s'", v)
		}
		*target = parsed
	default:
		return fmt.Errorf("unsupported type %T", value)
	}
	return nil
}

// setStringList accepts a list of strings or a comma-separated string
func setStringList(target *[]string, value interface{}) error {
	switch v := value.(type) {
	case []string:
		*target = append([]string(nil), v...)
	case []interface{}:
		list := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return fmt.Errorf("unsupported item type %T", item)
			}
			list = append(list, str)
		}
		*target = list
	case string:
		list := make([]string, 0, 4)
		for _, item := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				list = append(list, trimmed)
			}
		}
		*target = list
	default:
		return fmt.Errorf("unsupported type %T", value)
	}
	return nil
}
