package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/vrischmann/envconfig"
	"gopkg.in/yaml.v3"
)

const defaultRestartRetryCount = 3

// Config is loaded once at startup and shared read-only afterwards.
type Config struct {
	Beholder  Beholder  `yaml:"beholder"`
	Redis     Redis     `yaml:"redis"`
	Twemproxy Twemproxy `yaml:"twemproxy"`
}

type Beholder struct {
	// LogFile is the rotating log destination; empty logs to stderr.
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	// ConnectRetryCount bounds reconnect attempts to sentinel after a
	// failure: -1 retries forever, 0 fails after the first attempt,
	// N allows N retries on top of the first attempt.
	ConnectRetryCount    int `yaml:"connect_retry_count"`
	ConnectRetryInterval int `yaml:"connect_retry_interval"` // milliseconds

	StatsdAddr string `yaml:"statsd_addr"`
	ProbeAddr  string `yaml:"probe_addr"`
}

type Redis struct {
	SentinelIP   string `yaml:"sentinel_ip"`
	SentinelPort uint16 `yaml:"sentinel_port"`
}

type Twemproxy struct {
	ConfigFile     string `yaml:"config_file"`
	RestartCommand string `yaml:"restart_command"`

	// RestartRetryCount bounds restart-command retries per event;
	// 0 picks the default of 3.
	RestartRetryCount int `yaml:"restart_retry_count"`
}

// Load reads the YAML config file, applies environment overrides
// (BEHOLDER_LOG_FILE, REDIS_SENTINEL_IP, ...) and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := envconfig.InitWithOptions(cfg, envconfig.Options{AllOptional: true}); err != nil {
		return nil, fmt.Errorf("failed to read config overrides from env: %w", err)
	}
	if cfg.Beholder.LogLevel == "" {
		cfg.Beholder.LogLevel = "info"
	}
	if cfg.Twemproxy.RestartRetryCount == 0 {
		cfg.Twemproxy.RestartRetryCount = defaultRestartRetryCount
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Redis.SentinelIP == "" {
		return fmt.Errorf("redis.sentinel_ip is required")
	}
	if c.Redis.SentinelPort == 0 {
		return fmt.Errorf("redis.sentinel_port is required")
	}
	if c.Twemproxy.ConfigFile == "" {
		return fmt.Errorf("twemproxy.config_file is required")
	}
	if c.Twemproxy.RestartCommand == "" {
		return fmt.Errorf("twemproxy.restart_command is required")
	}
	if c.Twemproxy.RestartRetryCount < 0 {
		return fmt.Errorf("twemproxy.restart_retry_count must be >= 0, got %d", c.Twemproxy.RestartRetryCount)
	}
	if c.Beholder.ConnectRetryCount < -1 {
		return fmt.Errorf("beholder.connect_retry_count must be >= -1, got %d", c.Beholder.ConnectRetryCount)
	}
	if c.Beholder.ConnectRetryInterval < 0 {
		return fmt.Errorf("beholder.connect_retry_interval must be >= 0, got %d", c.Beholder.ConnectRetryInterval)
	}
	return nil
}

func (c *Config) SentinelAddr() string {
	return net.JoinHostPort(c.Redis.SentinelIP, strconv.Itoa(int(c.Redis.SentinelPort)))
}

func (c *Config) ConnectRetryInterval() time.Duration {
	return time.Duration(c.Beholder.ConnectRetryInterval) * time.Millisecond
}
