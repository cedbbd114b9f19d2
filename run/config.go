package run

import (
	"fmt"

	"github.com/relex/gotils/logger"
	"github.com/relex/log-shipper/input/lineinput"
	"github.com/relex/log-shipper/output/httpoutput"
	"github.com/relex/log-shipper/output/nulloutput"
	"github.com/relex/log-shipper/shipper"
	"github.com/relex/log-shipper/stats"
	"github.com/relex/log-shipper/util"
)

// Config defines the root of log-shipper config file
type Config struct {
	Shipper    shipper.Config     `yaml:"shipper"`
	Output     httpoutput.Config  `yaml:"output"`
	NullOutput *nulloutput.Config `yaml:"nullOutput"` // discard all output instead of sending to Output, for dry runs
	Stats      stats.Config       `yaml:"stats"`
	Input      lineinput.Config   `yaml:"input"`
}

// DefaultConfig returns the config used for sections or keys missing in config file
func DefaultConfig() Config {
	return Config{
		Shipper:    shipper.DefaultConfig(),
		Output:     httpoutput.DefaultConfig(),
		NullOutput: nil,
		Stats:      stats.DefaultConfig(),
		Input:      lineinput.DefaultConfig(),
	}
}

// LoadConfigFile loads config from the path on top of defaults and verifies it
func LoadConfigFile(filepath string) (*Config, error) {
	cref := &Config{}
	*cref = DefaultConfig()
	if err := util.UnmarshalYamlFile(filepath, cref); err != nil {
		return nil, err
	}
	if err := cref.Verify(); err != nil {
		return nil, err
	}
	return cref, nil
}

// Verify checks the config for mistakes which would make the shipper useless
//
// Options of the shipper section are never errors and only produce warnings
func (cfg *Config) Verify() error {
	cfg.Shipper.Validate(logger.WithField("section", "shipper"))
	if cfg.NullOutput == nil {
		if err := cfg.Output.VerifyConfig(); err != nil {
			return fmt.Errorf("output: %w", err)
		}
	}
	return nil
}

// Redacted returns a copy of config safe for logging
func (cfg Config) Redacted() Config {
	if len(cfg.Output.AuthToken) > 0 {
		cfg.Output.AuthToken = "<redacted>"
	}
	return cfg
}
