package httpoutput

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/relex/log-shipper/defs"
	"github.com/relex/log-shipper/output/shared"
)

// Config defines the upstream ingestion endpoint
type Config struct {
	Host            string            `yaml:"host"`
	Port            int               `yaml:"port"`
	Path            string            `yaml:"path"`      // path for log payloads
	StatsPath       string            `yaml:"statsPath"` // path for stats payloads
	Secure          bool              `yaml:"secure"`    // use HTTPS
	AuthToken       string            `yaml:"authToken"` // sent as apiKey query parameter and bearer token; environment variables are expanded
	Agent           string            `yaml:"agent"`     // agent name in each log entry
	HostName        string            `yaml:"hostName"`  // host name in payloads; defaults to the system host name
	Format          string            `yaml:"format"`    // json or msgpack
	HTTPTimeout     time.Duration     `yaml:"httpTimeout"`
	CompressMinSize datasize.ByteSize `yaml:"compressMinSize"` // min payload size to be gzipped; 0 disables compression
}

// DefaultConfig returns the config of the public ingestion endpoint, without auth token
func DefaultConfig() Config {
	return Config{
		Host:            "api.oohlalog.com",
		Port:            80,
		Path:            "/api/logging/save.json",
		StatsPath:       "/api/timeSeries/save.json",
		Secure:          false,
		AuthToken:       "",
		Agent:           "go-logshipper",
		HostName:        "",
		Format:          shared.FormatJSON,
		HTTPTimeout:     defs.HTTPDefaultTimeout,
		CompressMinSize: 4 * datasize.KB,
	}
}

// VerifyConfig checks the config for mistakes which would make every request fail
func (cfg *Config) VerifyConfig() error {
	if len(cfg.Host) == 0 {
		return errors.New(".host is unspecified")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf(".port is out of range: %d", cfg.Port)
	}
	if len(cfg.Path) == 0 || cfg.Path[0] != '/' {
		return fmt.Errorf(".path must start with '/': '%s'", cfg.Path)
	}
	if len(cfg.StatsPath) > 0 && cfg.StatsPath[0] != '/' {
		return fmt.Errorf(".statsPath must start with '/': '%s'", cfg.StatsPath)
	}
	if _, err := shared.NewPayloadEncoder(cfg.Format); err != nil {
		return fmt.Errorf(".format: %w", err)
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf(".httpTimeout must be positive: %s", cfg.HTTPTimeout)
	}
	return nil
}

// endpointURL builds the URL of a path with the auth token as apiKey parameter
func (cfg *Config) endpointURL(path string, token string) string {
	scheme := "http"
	if cfg.Secure {
		scheme = "https"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   path,
	}
	if len(token) > 0 {
		u.RawQuery = url.Values{"apiKey": []string{token}}.Encode()
	}
	return u.String()
}
