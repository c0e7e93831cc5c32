package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML overlay named by CONFIG_FILE. Values set
// here replace the built-in defaults; environment variables still win.
type FileConfig struct {
	Store struct {
		Backend        string        `yaml:"backend"`
		MaxAttempts    int           `yaml:"max_attempts"`
		RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
		RetryMaxDelay  time.Duration `yaml:"retry_max_delay"`
	} `yaml:"store"`

	Policy struct {
		MinGap      time.Duration `yaml:"min_gap"`
		MinLeadTime time.Duration `yaml:"min_lead_time"`
		MinDuration time.Duration `yaml:"min_duration"`
	} `yaml:"policy"`

	Advancer struct {
		Schedule   string `yaml:"schedule"`
		BatchLimit int    `yaml:"batch_limit"`
	} `yaml:"advancer"`

	Notifications struct {
		Sinks            []string      `yaml:"sinks"`
		Topic            string        `yaml:"topic"`
		IdentityResolver string        `yaml:"identity_resolver"`
		IdentityCacheTTL time.Duration `yaml:"identity_cache_ttl"`
		Timezone         string        `yaml:"timezone"`
	} `yaml:"notifications"`
}

func LoadFile(path string) (*FileConfig, error) {
	fc := &FileConfig{}
	if path == "" {
		return fc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return fc, nil
}

func orStr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func orNum(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}

func orDuration(v, fallback time.Duration) time.Duration {
	if v != 0 {
		return v
	}
	return fallback
}
