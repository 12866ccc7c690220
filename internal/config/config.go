package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"vyas.io/opensesshiame/internal/constants"
)

// Config holds the per-run settings read from the configuration file. The
// field names on the wire are the original JSON key names; the file is parsed
// as YAML, of which JSON is a subset, so existing JSON config files load
// unchanged.
type Config struct {
	AccessKeyID     string `yaml:"aws_access_key_id"`
	SecretAccessKey string `yaml:"aws_secret_access_key"`
	Region          string `yaml:"aws_region"`
	SecurityGroupID string `yaml:"security_group_ID"`
	IAMUsername     string `yaml:"aws_iam_username"`
	Port            int32  `yaml:"port"`
}

// Load reads and validates the configuration file at path. The returned
// Config is treated as immutable for the lifetime of the run.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.AccessKeyID == "" {
		missing = append(missing, "aws_access_key_id")
	}
	if c.SecretAccessKey == "" {
		missing = append(missing, "aws_secret_access_key")
	}
	if c.Region == "" {
		missing = append(missing, "aws_region")
	}
	if c.SecurityGroupID == "" {
		missing = append(missing, "security_group_ID")
	}
	if c.IAMUsername == "" {
		missing = append(missing, "aws_iam_username")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// MergePort resolves the target port. The CLI flag takes precedence over the
// config file value, which takes precedence over the default.
func (c *Config) MergePort(flag int32) int32 {
	if flag != 0 {
		return flag
	}
	if c.Port != 0 {
		return c.Port
	}
	return constants.DefaultPort
}
